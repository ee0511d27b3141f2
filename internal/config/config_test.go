package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/temcen/cinematch/internal/engine"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "8000", cfg.Server.Port)
	assert.Equal(t, "file", cfg.Data.RatingsSource)
	assert.Equal(t, int64(10), cfg.Recommendation.DefaultUserID)
	assert.Equal(t, 6*time.Second, cfg.TMDB.ItemTimeout)
	assert.Equal(t, 5, cfg.TMDB.Workers)
	assert.Equal(t, []string{"http://localhost:5173", "http://127.0.0.1:5173"}, cfg.Security.CORS.AllowedOrigins)
	assert.False(t, cfg.Redis.Enabled)
	assert.False(t, cfg.Kafka.Enabled)

	assert.Equal(t, engine.DefaultConfig(), cfg.Engine())
}

func TestLoadFileAndEnvironment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.yaml")
	content := `
server:
  port: "9000"
recommendation:
  alpha: 0.3
  top_n: 5
tmdb:
  workers: 8
  breaker:
    failure_ratio: 0.5
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	t.Setenv("TMDB_API_KEY", "secret")
	t.Setenv("RECOMMENDATION_CANDIDATE_POOL", "30")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Server.Port)
	assert.Equal(t, 0.3, cfg.Recommendation.Alpha)
	assert.Equal(t, 5, cfg.Recommendation.TopN)
	assert.Equal(t, 30, cfg.Recommendation.CandidatePool)
	assert.Equal(t, 8, cfg.TMDB.Workers)
	assert.Equal(t, 0.5, cfg.TMDB.Breaker.FailureRatio)
	assert.Equal(t, "secret", cfg.TMDB.APIKey)
	assert.Equal(t, "secret", cfg.TMDBClient().APIKey)

	ec := cfg.Engine()
	assert.Equal(t, 0.3, ec.Ranker.DefaultAlpha)
	assert.Equal(t, 30, ec.Ranker.CandidatePool)
}

func TestLoadInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.yaml")
	require.NoError(t, os.WriteFile(path, []byte("recommendation:\n  alpha: 1.5\n"), 0o600))

	_, err := Load(path)
	assert.ErrorContains(t, err, "invalid configuration")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		valid  bool
	}{
		{name: "defaults", modify: func(*Config) {}, valid: true},
		{name: "alpha above one", modify: func(c *Config) { c.Recommendation.Alpha = 1.2 }},
		{name: "negative alpha", modify: func(c *Config) { c.Recommendation.Alpha = -0.1 }},
		{name: "zero candidate pool", modify: func(c *Config) { c.Recommendation.CandidatePool = 0 }},
		{name: "zero top n", modify: func(c *Config) { c.Recommendation.TopN = 0 }},
		{name: "cutoff above one", modify: func(c *Config) { c.Recommendation.MatchCutoff = 2 }},
		{name: "inverted rating scale", modify: func(c *Config) { c.Recommendation.Preference.MaxRating = 0.1 }},
		{name: "unknown ratings source", modify: func(c *Config) { c.Data.RatingsSource = "s3" }},
		{name: "unknown log format", modify: func(c *Config) { c.Logging.Format = "xml" }},
		{name: "zero workers", modify: func(c *Config) { c.TMDB.Workers = 0 }},
		{name: "bad tmdb url", modify: func(c *Config) { c.TMDB.BaseURL = "not a url" }},
		{name: "postgres without url", modify: func(c *Config) { c.Data.RatingsSource = "postgres" }},
		{
			name: "postgres with url",
			modify: func(c *Config) {
				c.Data.RatingsSource = "postgres"
				c.Database.URL = "postgres://localhost/cinematch"
			},
			valid: true,
		},
		{name: "file without path", modify: func(c *Config) { c.Data.RatingsPath = "" }},
		{name: "kafka without brokers", modify: func(c *Config) { c.Kafka.Enabled = true; c.Kafka.Brokers = nil }},
		{name: "redis without url", modify: func(c *Config) { c.Redis.Enabled = true; c.Redis.URL = "" }},
		{name: "no cors origins", modify: func(c *Config) { c.Security.CORS.AllowedOrigins = nil }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load("")
			require.NoError(t, err)

			tt.modify(cfg)
			err = cfg.Validate()
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestEnrichmentAndPublisherSettings(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.Enrichment().Workers)
	assert.Equal(t, 6*time.Second, cfg.Enrichment().ItemTimeout)
	assert.Equal(t, "https://image.tmdb.org/t/p/w500", cfg.TMDBClient().ImageBaseURL)
	assert.Equal(t, []string{"localhost:9092"}, cfg.Publisher().Brokers)
	assert.True(t, cfg.Publisher().Async)
}
