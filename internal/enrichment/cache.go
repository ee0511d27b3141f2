package enrichment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"

	"github.com/temcen/cinematch/internal/engine"
	"github.com/temcen/cinematch/pkg/models"
)

// ErrCacheMiss is returned by Cache.Get when nothing is stored for a title.
var ErrCacheMiss = errors.New("cache miss")

const cacheKeyPrefix = "cinematch:tmdb:"

// Cache stores enriched cards by title.
type Cache interface {
	Get(ctx context.Context, title string) (models.MovieCard, error)
	Set(ctx context.Context, title string, card models.MovieCard) error
}

// RedisCache keeps cards as JSON strings with a TTL.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache creates a cache over an existing client.
func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

// CacheKey returns the Redis key for a title. Titles that differ only in case
// or spacing share a key.
func CacheKey(title string) string {
	return cacheKeyPrefix + engine.NormalizeTitle(title)
}

func (c *RedisCache) Get(ctx context.Context, title string) (models.MovieCard, error) {
	data, err := c.client.Get(ctx, CacheKey(title)).Bytes()
	if errors.Is(err, redis.Nil) {
		return models.MovieCard{}, ErrCacheMiss
	}
	if err != nil {
		return models.MovieCard{}, fmt.Errorf("redis get: %w", err)
	}

	var card models.MovieCard
	if err := json.Unmarshal(data, &card); err != nil {
		return models.MovieCard{}, fmt.Errorf("decode cached card: %w", err)
	}
	return card, nil
}

func (c *RedisCache) Set(ctx context.Context, title string, card models.MovieCard) error {
	data, err := json.Marshal(card)
	if err != nil {
		return fmt.Errorf("encode card: %w", err)
	}
	if err := c.client.Set(ctx, CacheKey(title), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// NoopCache never stores anything.
type NoopCache struct{}

func (NoopCache) Get(context.Context, string) (models.MovieCard, error) {
	return models.MovieCard{}, ErrCacheMiss
}

func (NoopCache) Set(context.Context, string, models.MovieCard) error {
	return nil
}
