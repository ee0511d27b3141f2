package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/temcen/cinematch/internal/engine"
	"github.com/temcen/cinematch/internal/messaging"
	"github.com/temcen/cinematch/internal/metrics"
	"github.com/temcen/cinematch/pkg/models"
)

func testModel(t *testing.T) *engine.Model {
	t.Helper()

	catalog := []engine.Item{
		{ID: 27205, Title: "Inception", Overview: "A thief plants an idea through dream sharing.", Genres: []string{"Action", "Science Fiction"}, Keywords: []string{"dream", "heist"}, Cast: []string{"Leonardo DiCaprio", "Tom Hardy"}, Director: "Christopher Nolan"},
		{ID: 155, Title: "The Dark Knight", Overview: "Batman fights crime in Gotham.", Genres: []string{"Action", "Crime"}, Keywords: []string{"joker", "vigilante"}, Cast: []string{"Christian Bale", "Michael Caine"}, Director: "Christopher Nolan"},
		{ID: 157336, Title: "Interstellar", Overview: "Explorers travel through a wormhole in space.", Genres: []string{"Adventure", "Science Fiction"}, Keywords: []string{"space", "time"}, Cast: []string{"Matthew McConaughey", "Michael Caine"}, Director: "Christopher Nolan"},
		{ID: 77, Title: "Memento", Overview: "A man with memory loss hunts a killer.", Genres: []string{"Mystery", "Thriller"}, Keywords: []string{"memory", "revenge"}, Cast: []string{"Guy Pearce"}, Director: "Christopher Nolan"},
		{ID: 1124, Title: "The Prestige", Overview: "Rival magicians battle over an illusion.", Genres: []string{"Drama", "Mystery"}, Keywords: []string{"magic", "obsession"}, Cast: []string{"Hugh Jackman", "Christian Bale"}, Director: "Christopher Nolan"},
		{ID: 603, Title: "The Matrix", Overview: "A hacker learns reality is a simulation.", Genres: []string{"Action", "Science Fiction"}, Keywords: []string{"simulation", "dream"}, Cast: []string{"Keanu Reeves"}, Director: "Lana Wachowski"},
		{ID: 19995, Title: "Avatar", Overview: "A marine is dispatched to the moon Pandora.", Genres: []string{"Action", "Science Fiction"}, Keywords: []string{"space", "alien"}, Cast: []string{"Sam Worthington"}, Director: "James Cameron"},
		{ID: 597, Title: "Titanic", Overview: "An aristocrat falls in love aboard a ship.", Genres: []string{"Drama", "Romance"}, Keywords: []string{"shipwreck", "love"}, Cast: []string{"Leonardo DiCaprio", "Kate Winslet"}, Director: "James Cameron"},
		{ID: 475557, Title: "Joker", Overview: "A failed comedian descends into madness in Gotham.", Genres: []string{"Crime", "Drama"}, Keywords: []string{"joker"}, Cast: []string{"Joaquin Phoenix"}, Director: "Todd Phillips"},
		{ID: 1726, Title: "Iron Man", Overview: "An industrialist builds an armored suit.", Genres: []string{"Action", "Science Fiction"}, Keywords: []string{"superhero"}, Cast: []string{"Robert Downey Jr."}, Director: "Jon Favreau"},
		{ID: 284054, Title: "Black Panther", Overview: "The king of Wakanda defends his nation.", Genres: []string{"Action", "Adventure"}, Keywords: []string{"superhero"}, Cast: []string{"Chadwick Boseman"}, Director: "Ryan Coogler"},
		{ID: 374720, Title: "Dunkirk", Overview: "Allied soldiers are evacuated during battle.", Genres: []string{"War", "Drama"}, Keywords: []string{"evacuation", "survival"}, Cast: []string{"Tom Hardy"}, Director: "Christopher Nolan"},
		{ID: 577922, Title: "Tenet", Overview: "An agent manipulates the flow of time.", Genres: []string{"Action", "Thriller"}, Keywords: []string{"time", "heist"}, Cast: []string{"John David Washington"}, Director: "Christopher Nolan"},
	}

	var ratings []engine.Rating
	for user := int64(1); user <= 8; user++ {
		for i, item := range catalog {
			if (int(user)+i)%3 == 0 {
				continue
			}
			ratings = append(ratings, engine.Rating{UserID: user, ItemID: item.ID, Value: 0.5 + float64((int(user)*7+i*3)%10)*0.5})
		}
	}

	cfg := engine.DefaultConfig()
	cfg.Preference.Factors = 4
	cfg.Preference.Epochs = 5

	model, err := engine.Build(context.Background(), catalog, ratings, cfg, quietLogger())
	require.NoError(t, err)
	return model
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	return logger
}

type placeholderEnricher struct {
	mu    sync.Mutex
	calls [][]string
}

func (e *placeholderEnricher) Enrich(_ context.Context, titles []string) []models.MovieCard {
	e.mu.Lock()
	e.calls = append(e.calls, titles)
	e.mu.Unlock()

	cards := make([]models.MovieCard, len(titles))
	for i, title := range titles {
		cards[i] = models.PlaceholderCard(title)
	}
	return cards
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []messaging.RecommendationServedEvent
	err    error
}

func (p *recordingPublisher) PublishRecommendationServed(_ context.Context, event messaging.RecommendationServedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }

func newTestService(t *testing.T) (*RecommendationService, *placeholderEnricher, *recordingPublisher) {
	t.Helper()
	enricher := &placeholderEnricher{}
	publisher := &recordingPublisher{}
	svc := NewRecommendationService(testModel(t), enricher, publisher, metrics.New(prometheus.NewRegistry()), quietLogger())
	return svc, enricher, publisher
}

func floatPtr(v float64) *float64 { return &v }

func TestRecommendationService_Recommend(t *testing.T) {
	svc, enricher, publisher := newTestService(t)

	resp, err := svc.Recommend(context.Background(), RecommendRequest{Movie: "Inception", UserID: 1, RequestID: "req-1"})
	require.NoError(t, err)

	assert.Equal(t, "Inception", resp.RequestedMovie)
	assert.Equal(t, "Inception", resp.MatchedMovie)
	assert.Equal(t, int64(1), resp.UserID)
	assert.Equal(t, 0.6, resp.Alpha)
	require.Len(t, resp.Recommendations, 10)
	for _, card := range resp.Recommendations {
		assert.NotEqual(t, "Inception", card.Title)
		assert.False(t, card.HasMetadata())
	}

	require.Len(t, enricher.calls, 1)
	require.Len(t, publisher.events, 1)
	event := publisher.events[0]
	assert.Equal(t, "req-1", event.RequestID)
	assert.Equal(t, "Inception", event.MatchedTitle)
	assert.Equal(t, enricher.calls[0], event.Titles)
	assert.Len(t, event.ItemIDs, 10)
	assert.Zero(t, event.ColdStartItems)
	assert.NotEqual(t, uuid.Nil, event.EventID)
}

func TestRecommendationService_RecommendFuzzyTitle(t *testing.T) {
	svc, _, _ := newTestService(t)

	resp, err := svc.Recommend(context.Background(), RecommendRequest{Movie: "inceptoin", UserID: 1})
	require.NoError(t, err)
	assert.Equal(t, "inceptoin", resp.RequestedMovie)
	assert.Equal(t, "Inception", resp.MatchedMovie)
}

func TestRecommendationService_RecommendExplicitAlpha(t *testing.T) {
	svc, _, _ := newTestService(t)

	resp, err := svc.Recommend(context.Background(), RecommendRequest{Movie: "Inception", UserID: 1, Alpha: floatPtr(1)})
	require.NoError(t, err)
	assert.Equal(t, 1.0, resp.Alpha)

	similar, err := svc.Similar(context.Background(), 27205, 10)
	require.NoError(t, err)
	for i, card := range resp.Recommendations {
		assert.Equal(t, similar.Similar[i].Title, card.Title)
	}
}

func TestRecommendationService_RecommendColdStart(t *testing.T) {
	svc, _, publisher := newTestService(t)

	_, err := svc.Recommend(context.Background(), RecommendRequest{Movie: "Inception", UserID: 424242})
	require.NoError(t, err)
	require.Len(t, publisher.events, 1)
	assert.Equal(t, 10, publisher.events[0].ColdStartItems)
}

func TestRecommendationService_RecommendErrors(t *testing.T) {
	svc, enricher, publisher := newTestService(t)

	tests := []struct {
		name string
		req  RecommendRequest
		want error
	}{
		{"unknown title", RecommendRequest{Movie: "Nonexistent Movie Title XYZ", UserID: 1}, engine.ErrNotFound},
		{"blank title", RecommendRequest{Movie: "   ", UserID: 1}, engine.ErrNotFound},
		{"alpha above one", RecommendRequest{Movie: "Inception", UserID: 1, Alpha: floatPtr(1.5)}, engine.ErrInvalidConfiguration},
		{"negative alpha", RecommendRequest{Movie: "Inception", UserID: 1, Alpha: floatPtr(-0.1)}, engine.ErrInvalidConfiguration},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := svc.Recommend(context.Background(), tt.req)
			assert.Nil(t, resp)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	assert.Empty(t, enricher.calls)
	assert.Empty(t, publisher.events)
}

func TestRecommendationService_PublishFailureIsNotFatal(t *testing.T) {
	svc, _, publisher := newTestService(t)
	publisher.err = errors.New("broker down")

	resp, err := svc.Recommend(context.Background(), RecommendRequest{Movie: "Inception", UserID: 1})
	require.NoError(t, err)
	assert.Len(t, resp.Recommendations, 10)
}

func TestRecommendationService_NilPublisher(t *testing.T) {
	svc := NewRecommendationService(testModel(t), &placeholderEnricher{}, nil, nil, quietLogger())

	resp, err := svc.Recommend(context.Background(), RecommendRequest{Movie: "Inception", UserID: 1})
	require.NoError(t, err)
	assert.Len(t, resp.Recommendations, 10)
}

func TestRecommendationService_Resolve(t *testing.T) {
	svc, _, _ := newTestService(t)

	resp, err := svc.Resolve(context.Background(), "the dark night")
	require.NoError(t, err)
	assert.Equal(t, int64(155), resp.ID)
	assert.Equal(t, "The Dark Knight", resp.Title)
	assert.Equal(t, "the dark night", resp.Query)
	assert.Greater(t, resp.Score, 0.4)
	assert.Less(t, resp.Score, 1.0)

	_, err = svc.Resolve(context.Background(), "Nonexistent Movie Title XYZ")
	assert.ErrorIs(t, err, engine.ErrNotFound)
}

func TestRecommendationService_Similar(t *testing.T) {
	svc, _, _ := newTestService(t)

	resp, err := svc.Similar(context.Background(), 27205, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(27205), resp.MovieID)
	assert.Equal(t, "Inception", resp.Title)
	require.Len(t, resp.Similar, 3)
	for i, s := range resp.Similar {
		assert.NotEqual(t, int64(27205), s.ID)
		if i > 0 {
			assert.GreaterOrEqual(t, resp.Similar[i-1].Score, s.Score)
		}
	}

	_, err = svc.Similar(context.Background(), 1, 3)
	assert.ErrorIs(t, err, engine.ErrNotFound)

	_, err = svc.Similar(context.Background(), 27205, 0)
	assert.ErrorIs(t, err, engine.ErrInvalidConfiguration)
}

func TestRecommendationService_Trending(t *testing.T) {
	svc, enricher, _ := newTestService(t)

	resp, err := svc.Trending(context.Background())
	require.NoError(t, err)
	require.Len(t, resp.Movies, len(TrendingTitles))
	assert.Equal(t, "Avengers: Endgame", resp.Movies[0].Title)
	assert.Equal(t, TrendingTitles, enricher.calls[0])
}
