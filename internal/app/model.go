package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/temcen/cinematch/internal/config"
	"github.com/temcen/cinematch/internal/database"
	"github.com/temcen/cinematch/internal/dataset"
	"github.com/temcen/cinematch/internal/engine"
	"github.com/temcen/cinematch/internal/metrics"
)

// NewRatingSource picks the rating history backend named by
// data.ratings_source. Postgres requires db to hold an open pool.
func NewRatingSource(cfg *config.Config, db *database.Database, logger *logrus.Logger) (dataset.RatingSource, error) {
	switch cfg.Data.RatingsSource {
	case "postgres":
		if db == nil || db.PG == nil {
			return nil, errors.New("postgres rating source selected but no database connection is open")
		}
		return dataset.NewPostgresRatingSource(db.PG, logger), nil
	default:
		return dataset.NewFileRatingSource(cfg.Data.RatingsPath, logger), nil
	}
}

// BuildModel loads the catalog and rating history and runs the offline build.
func BuildModel(ctx context.Context, cfg *config.Config, source dataset.RatingSource, logger *logrus.Logger, m *metrics.Metrics) (*engine.Model, error) {
	start := time.Now()

	items, catalogStats, err := dataset.LoadCatalog(cfg.Data.MoviesPath, cfg.Data.CreditsPath, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}
	loadDuration := time.Since(start)

	ratingsStart := time.Now()
	ratings, err := source.Ratings(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load ratings from %s: %w", source.Name(), err)
	}
	ratingsDuration := time.Since(ratingsStart)

	logger.WithFields(logrus.Fields{
		"movies":  catalogStats.Merged,
		"ratings": len(ratings),
		"source":  source.Name(),
	}).Info("Training data loaded")

	model, err := engine.Build(ctx, items, ratings, cfg.Engine(), logger)
	if err != nil {
		return nil, err
	}

	m.ModelBuilt(model.Stats.CatalogItems, map[string]time.Duration{
		"catalog": loadDuration,
		"ratings": ratingsDuration,
		"encode":  model.Stats.EncodeDuration,
		"index":   model.Stats.IndexDuration,
		"train":   model.Stats.TrainDuration,
		"total":   time.Since(start),
	})

	return model, nil
}
