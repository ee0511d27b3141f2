package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/temcen/cinematch/internal/config"
	"github.com/temcen/cinematch/internal/messaging"
)

func TestNewWithoutOptionalDependencies(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)
	cfg.TMDB.APIKey = ""
	cfg.Kafka.Enabled = false

	svcs, err := New(cfg, quietLogger(), nil, testModel(t), nil)
	require.NoError(t, err)
	assert.IsType(t, messaging.NoopPublisher{}, svcs.Publisher)

	status := svcs.Health.CheckHealth(context.Background())
	assert.Equal(t, StatusHealthy, status.Status)
	assert.Equal(t, StatusDisabled, status.Services["redis"])
	assert.Equal(t, StatusDisabled, status.Services["tmdb"])
	assert.Equal(t, StatusDisabled, status.Services["kafka"])

	resp, err := svcs.Recommendation.Recommend(context.Background(), RecommendRequest{Movie: "Inception", UserID: 1})
	require.NoError(t, err)
	require.Len(t, resp.Recommendations, 10)
	assert.Nil(t, resp.Recommendations[0].Poster)

	assert.NoError(t, svcs.Close())
}

func TestNewWithTMDB(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)
	cfg.TMDB.APIKey = "test-key"
	cfg.Kafka.Enabled = false

	svcs, err := New(cfg, quietLogger(), nil, testModel(t), nil)
	require.NoError(t, err)

	status := svcs.Health.CheckHealth(context.Background())
	assert.Equal(t, StatusHealthy, status.Services["tmdb"])
}
