package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/temcen/cinematch/internal/engine"
	"github.com/temcen/cinematch/internal/messaging"
	"github.com/temcen/cinematch/internal/metrics"
	"github.com/temcen/cinematch/pkg/models"
)

// TrendingTitles is the fixed list served by the trending endpoint.
var TrendingTitles = []string{
	"Avengers: Endgame",
	"Iron Man",
	"Interstellar",
	"The Dark Knight",
	"Inception",
	"Avatar",
	"Titanic",
	"Joker",
	"Black Panther",
	"The Matrix",
}

// RecommendRequest carries one recommendation query. A nil Alpha uses the
// configured default.
type RecommendRequest struct {
	Movie     string
	UserID    int64
	Alpha     *float64
	RequestID string
}

// RecommendationService ranks with the built model, enriches the ranked titles
// and announces what was served.
type RecommendationService struct {
	model     *engine.Model
	enricher  CardEnricher
	publisher messaging.EventPublisher
	metrics   *metrics.Metrics
	logger    *logrus.Logger
	trending  []string
}

func NewRecommendationService(
	model *engine.Model,
	enricher CardEnricher,
	publisher messaging.EventPublisher,
	m *metrics.Metrics,
	logger *logrus.Logger,
) *RecommendationService {
	if publisher == nil {
		publisher = messaging.NoopPublisher{}
	}
	return &RecommendationService{
		model:     model,
		enricher:  enricher,
		publisher: publisher,
		metrics:   m,
		logger:    logger,
		trending:  TrendingTitles,
	}
}

// Recommend resolves req.Movie, ranks its neighbours for req.UserID and
// returns enriched cards in rank order. Errors wrap engine.ErrNotFound and
// engine.ErrInvalidConfiguration.
func (s *RecommendationService) Recommend(ctx context.Context, req RecommendRequest) (*models.RecommendResponse, error) {
	ranker := s.model.Ranker
	alpha := ranker.Config().DefaultAlpha
	if req.Alpha != nil {
		alpha = *req.Alpha
	}

	result, err := ranker.Recommend(req.Movie, req.UserID, alpha)
	if err != nil {
		switch {
		case errors.Is(err, engine.ErrNotFound):
			s.metrics.Recommendation("not_found")
		case errors.Is(err, engine.ErrInvalidConfiguration):
			s.metrics.Recommendation("invalid")
		default:
			s.metrics.Recommendation("error")
		}
		return nil, fmt.Errorf("failed to recommend for %q: %w", req.Movie, err)
	}
	s.metrics.Recommendation("ok")

	coldStarts := 0
	ids := make([]int64, len(result.Recommendations))
	for i, rec := range result.Recommendations {
		ids[i] = rec.Item.ID
		if !s.model.Preferences.Knows(req.UserID, rec.Item.ID) {
			coldStarts++
		}
	}
	s.metrics.ColdStarts(coldStarts)

	titles := result.Titles()
	cards := s.enricher.Enrich(ctx, titles)

	s.logger.WithFields(logrus.Fields{
		"request_id":  req.RequestID,
		"query":       req.Movie,
		"matched":     result.Matched.Title,
		"match_score": result.Matched.Score,
		"user_id":     req.UserID,
		"alpha":       alpha,
		"results":     len(cards),
		"cold_starts": coldStarts,
	}).Debug("Recommendations generated")

	s.publish(ctx, messaging.RecommendationServedEvent{
		EventID:        uuid.New(),
		RequestID:      req.RequestID,
		UserID:         req.UserID,
		Query:          req.Movie,
		MatchedTitle:   result.Matched.Title,
		MatchScore:     result.Matched.Score,
		Alpha:          alpha,
		ItemIDs:        ids,
		Titles:         titles,
		ColdStartItems: coldStarts,
		Timestamp:      time.Now().UTC(),
	})

	return &models.RecommendResponse{
		RequestedMovie:  req.Movie,
		MatchedMovie:    result.Matched.Title,
		UserID:          req.UserID,
		Alpha:           alpha,
		Recommendations: cards,
	}, nil
}

// publish never fails the request; a lost event is logged and counted.
func (s *RecommendationService) publish(ctx context.Context, event messaging.RecommendationServedEvent) {
	if err := s.publisher.PublishRecommendationServed(ctx, event); err != nil {
		s.logger.WithError(err).WithField("request_id", event.RequestID).Warn("Failed to publish recommendation event")
	}
}

// Resolve returns the catalog title closest to query.
func (s *RecommendationService) Resolve(ctx context.Context, query string) (*models.ResolveResponse, error) {
	match, err := s.model.Ranker.Resolve(query)
	if err != nil {
		return nil, err
	}
	return &models.ResolveResponse{
		Query: query,
		ID:    s.model.Catalog[match.Index].ID,
		Title: match.Title,
		Score: match.Score,
	}, nil
}

// Similar returns the k nearest content neighbours of a movie.
func (s *RecommendationService) Similar(ctx context.Context, movieID int64, k int) (*models.SimilarResponse, error) {
	item, ok := s.model.Ranker.Item(movieID)
	if !ok {
		return nil, fmt.Errorf("%w: movie id %d", engine.ErrNotFound, movieID)
	}

	neighbors, err := s.model.Ranker.Similar(movieID, k)
	if err != nil {
		return nil, err
	}

	similar := make([]models.SimilarMovie, len(neighbors))
	for i, n := range neighbors {
		similar[i] = models.SimilarMovie{
			ID:    n.Item.ID,
			Title: n.Item.Title,
			Score: n.ContentScore,
		}
	}

	return &models.SimilarResponse{
		MovieID: item.ID,
		Title:   item.Title,
		Similar: similar,
	}, nil
}

// Trending enriches the fixed trending list.
func (s *RecommendationService) Trending(ctx context.Context) (*models.TrendingResponse, error) {
	return &models.TrendingResponse{
		Movies: s.enricher.Enrich(ctx, s.trending),
	}, nil
}
