package models

// MovieCard is the display form of a movie. Poster, Overview and Rating are
// null when no metadata could be fetched.
type MovieCard struct {
	Title    string   `json:"title"`
	Poster   *string  `json:"poster"`
	Overview *string  `json:"overview"`
	Rating   *float64 `json:"rating"`
}

// PlaceholderCard is the card served when enrichment fails.
func PlaceholderCard(title string) MovieCard {
	return MovieCard{Title: title}
}

// HasMetadata reports whether any enrichment field is set.
func (c MovieCard) HasMetadata() bool {
	return c.Poster != nil || c.Overview != nil || c.Rating != nil
}

type RecommendResponse struct {
	RequestedMovie  string      `json:"requested_movie"`
	MatchedMovie    string      `json:"matched_movie"`
	UserID          int64       `json:"user_id"`
	Alpha           float64     `json:"alpha"`
	Recommendations []MovieCard `json:"recommendations"`
}

// RecommendNotFoundResponse is returned when no catalog title matches the
// requested movie.
type RecommendNotFoundResponse struct {
	Message         string      `json:"message"`
	RequestedMovie  string      `json:"requested_movie"`
	Recommendations []MovieCard `json:"recommendations"`
}

type ResolveResponse struct {
	Query string  `json:"query"`
	ID    int64   `json:"id"`
	Title string  `json:"title"`
	Score float64 `json:"score"`
}

type SimilarMovie struct {
	ID    int64   `json:"id"`
	Title string  `json:"title"`
	Score float64 `json:"score"`
}

type SimilarResponse struct {
	MovieID int64          `json:"movie_id"`
	Title   string         `json:"title"`
	Similar []SimilarMovie `json:"similar"`
}

type TrendingResponse struct {
	Movies []MovieCard `json:"movies"`
}

// MessageResponse is the body of informational replies such as
// {"message":"Movie not found"}.
type MessageResponse struct {
	Message string `json:"message"`
}
