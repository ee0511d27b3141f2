package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/temcen/cinematch/internal/config"
)

// Database holds the optional backing stores. PG is set only when ratings are
// read from Postgres and Redis only when the enrichment cache is enabled.
type Database struct {
	PG     *pgxpool.Pool
	Redis  *redis.Client
	logger *logrus.Logger
}

// connectTimeout bounds each startup ping.
const connectTimeout = 10 * time.Second

// New connects the stores the configuration asks for. Postgres is required
// when it is the rating source; Redis failures only disable the cache.
func New(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (*Database, error) {
	db := &Database{
		logger: logger,
	}

	if cfg.Data.RatingsSource == "postgres" {
		if err := db.initPostgreSQL(ctx, cfg); err != nil {
			return nil, fmt.Errorf("failed to initialize PostgreSQL: %w", err)
		}
	}

	if cfg.Redis.Enabled {
		if err := db.initRedis(ctx, cfg); err != nil {
			// The cache is optional; serve without it.
			logger.WithError(err).Warn("Redis unavailable, enrichment cache disabled")
			db.Redis = nil
		}
	}

	return db, nil
}

func (db *Database) initPostgreSQL(ctx context.Context, cfg *config.Config) error {
	config, err := pgxpool.ParseConfig(cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("failed to parse PostgreSQL config: %w", err)
	}

	// Configure connection pool
	config.MaxConns = int32(cfg.Database.MaxConnections)
	config.MaxConnIdleTime = cfg.Database.MaxIdleTime
	config.MaxConnLifetime = cfg.Database.MaxLifetime
	config.ConnConfig.ConnectTimeout = cfg.Database.ConnectTimeout

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return fmt.Errorf("failed to create PostgreSQL pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return fmt.Errorf("failed to ping PostgreSQL: %w", err)
	}

	db.PG = pool
	db.logger.WithField("max_connections", config.MaxConns).Info("PostgreSQL connection established")
	return nil
}

func (db *Database) initRedis(ctx context.Context, cfg *config.Config) error {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Redis.URL,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		MaxRetries:   cfg.Redis.MaxRetries,
		PoolSize:     cfg.Redis.PoolSize,
		DialTimeout:  cfg.Redis.Timeout,
		ReadTimeout:  cfg.Redis.Timeout,
		WriteTimeout: cfg.Redis.Timeout,
	})

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return fmt.Errorf("failed to ping Redis: %w", err)
	}

	db.Redis = client
	db.logger.WithField("addr", cfg.Redis.URL).Info("Redis connection established")
	return nil
}

// PingRedis reports whether the cache answers.
func (db *Database) PingRedis(ctx context.Context) error {
	if db.Redis == nil {
		return errors.New("redis not configured")
	}
	return db.Redis.Ping(ctx).Err()
}

// PingPostgres reports whether the rating store answers.
func (db *Database) PingPostgres(ctx context.Context) error {
	if db.PG == nil {
		return errors.New("postgres not configured")
	}
	return db.PG.Ping(ctx)
}

// Close releases whichever stores were opened.
func (db *Database) Close() error {
	var errs []error

	if db.PG != nil {
		db.PG.Close()
		db.logger.Info("PostgreSQL connection closed")
	}

	if db.Redis != nil {
		if err := db.Redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close Redis: %w", err))
		} else {
			db.logger.Info("Redis connection closed")
		}
	}

	return errors.Join(errs...)
}
