package dataset

import (
	"context"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5"
	"github.com/sirupsen/logrus"

	"github.com/temcen/cinematch/internal/engine"
)

// RatingSource supplies the rating history used to train preferences.
type RatingSource interface {
	Ratings(ctx context.Context) ([]engine.Rating, error)
	Name() string
}

// FileRatingSource reads a MovieLens ratings dump from disk.
type FileRatingSource struct {
	path   string
	logger *logrus.Logger
}

// NewFileRatingSource creates a rating source backed by a ratings.dat file.
func NewFileRatingSource(path string, logger *logrus.Logger) *FileRatingSource {
	return &FileRatingSource{path: path, logger: logger}
}

// Name identifies the source in logs and health output.
func (s *FileRatingSource) Name() string {
	return "file"
}

// Ratings parses the whole file.
func (s *FileRatingSource) Ratings(ctx context.Context) ([]engine.Rating, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open ratings file: %w", err)
	}
	defer f.Close()

	ratings, stats, err := ParseRatings(f)
	if err != nil {
		return nil, err
	}

	if stats.Malformed > 0 {
		s.logger.WithFields(logrus.Fields{
			"path":      s.path,
			"malformed": stats.Malformed,
		}).Warn("Skipped malformed rating lines")
	}
	s.logger.WithFields(logrus.Fields{
		"path":    s.path,
		"ratings": stats.Parsed,
	}).Info("Ratings loaded from file")

	return ratings, nil
}

// DatabaseQuerier is the subset of pgxpool.Pool the Postgres source needs.
type DatabaseQuerier interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
}

const ratingsQuery = `
		SELECT user_id, movie_id, rating
		FROM ratings
		WHERE rating IS NOT NULL
		ORDER BY user_id, movie_id`

// PostgresRatingSource reads ratings from the ratings table.
type PostgresRatingSource struct {
	db     DatabaseQuerier
	logger *logrus.Logger
}

// NewPostgresRatingSource creates a rating source over a Postgres connection.
func NewPostgresRatingSource(db DatabaseQuerier, logger *logrus.Logger) *PostgresRatingSource {
	return &PostgresRatingSource{db: db, logger: logger}
}

// Name identifies the source in logs and health output.
func (s *PostgresRatingSource) Name() string {
	return "postgres"
}

// Ratings loads every rating row in user then movie order.
func (s *PostgresRatingSource) Ratings(ctx context.Context) ([]engine.Rating, error) {
	rows, err := s.db.Query(ctx, ratingsQuery)
	if err != nil {
		return nil, fmt.Errorf("ratings query failed: %w", err)
	}
	defer rows.Close()

	var ratings []engine.Rating
	for rows.Next() {
		var r engine.Rating
		if err := rows.Scan(&r.UserID, &r.ItemID, &r.Value); err != nil {
			return nil, fmt.Errorf("failed to scan rating: %w", err)
		}
		ratings = append(ratings, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read ratings: %w", err)
	}

	s.logger.WithField("ratings", len(ratings)).Info("Ratings loaded from Postgres")
	return ratings, nil
}
