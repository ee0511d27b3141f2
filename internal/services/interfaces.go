package services

import (
	"context"

	"github.com/temcen/cinematch/pkg/models"
)

// RecommendationServiceInterface defines the recommendation operations served over HTTP
type RecommendationServiceInterface interface {
	Recommend(ctx context.Context, req RecommendRequest) (*models.RecommendResponse, error)
	Resolve(ctx context.Context, query string) (*models.ResolveResponse, error)
	Similar(ctx context.Context, movieID int64, k int) (*models.SimilarResponse, error)
	Trending(ctx context.Context) (*models.TrendingResponse, error)
}

// HealthServiceInterface defines the dependency health check
type HealthServiceInterface interface {
	CheckHealth(ctx context.Context) *HealthStatus
}

// CardEnricher turns ranked titles into display cards
type CardEnricher interface {
	Enrich(ctx context.Context, titles []string) []models.MovieCard
}
