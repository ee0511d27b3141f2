package services

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/temcen/cinematch/internal/config"
	"github.com/temcen/cinematch/internal/database"
	"github.com/temcen/cinematch/internal/engine"
	"github.com/temcen/cinematch/internal/enrichment"
	"github.com/temcen/cinematch/internal/messaging"
	"github.com/temcen/cinematch/internal/metrics"
)

type Services struct {
	Recommendation *RecommendationService
	Health         *HealthService
	Publisher      messaging.EventPublisher
}

// New wires the request-time services around a built model. TMDB, Redis and
// Kafka are optional: without them cards are placeholders, lookups are not
// cached and events are dropped.
func New(cfg *config.Config, logger *logrus.Logger, db *database.Database, model *engine.Model, m *metrics.Metrics) (*Services, error) {
	health := NewHealthService(model, logger, m)

	var cache enrichment.Cache = enrichment.NoopCache{}
	if db != nil && db.Redis != nil {
		cache = enrichment.NewRedisCache(db.Redis, cfg.TMDB.CacheTTL)
		health.AddCheck("redis", db.PingRedis)
	} else {
		health.Disable("redis")
	}

	var lookup enrichment.MovieLookup
	if cfg.TMDB.APIKey != "" {
		client, err := enrichment.NewClient(cfg.TMDBClient(), logger, enrichment.WithMetrics(m))
		if err != nil {
			return nil, fmt.Errorf("failed to create TMDB client: %w", err)
		}
		lookup = client
		health.AddCheck("tmdb", func(context.Context) error {
			if state := client.State(); state == "open" {
				return fmt.Errorf("circuit breaker %s", state)
			}
			return nil
		})
	} else {
		logger.Warn("TMDB API key not set, serving placeholder movie cards")
		health.Disable("tmdb")
	}

	var publisher messaging.EventPublisher = messaging.NoopPublisher{}
	if cfg.Kafka.Enabled {
		kafkaPublisher, err := messaging.NewKafkaPublisher(cfg.Publisher(), logger, m)
		if err != nil {
			return nil, fmt.Errorf("failed to create event publisher: %w", err)
		}
		publisher = kafkaPublisher
		brokers := cfg.Kafka.Brokers
		health.AddCheck("kafka", func(ctx context.Context) error {
			return messaging.PingBrokers(ctx, brokers)
		})
	} else {
		health.Disable("kafka")
	}

	enricher := enrichment.NewEnricher(lookup, cache, cfg.Enrichment(), logger, m)

	return &Services{
		Recommendation: NewRecommendationService(model, enricher, publisher, m, logger),
		Health:         health,
		Publisher:      publisher,
	}, nil
}

// Close flushes the event publisher.
func (s *Services) Close() error {
	return s.Publisher.Close()
}
