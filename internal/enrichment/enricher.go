package enrichment

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/temcen/cinematch/internal/metrics"
	"github.com/temcen/cinematch/pkg/models"
)

// MovieLookup fetches the display card for a title.
type MovieLookup interface {
	Lookup(ctx context.Context, title string) (models.MovieCard, error)
}

// Config bounds enrichment concurrency and latency.
type Config struct {
	Workers     int
	ItemTimeout time.Duration
}

// DefaultConfig runs five lookups at a time with a six second limit each.
func DefaultConfig() Config {
	return Config{Workers: 5, ItemTimeout: 6 * time.Second}
}

// Enricher turns titles into movie cards. It never fails: any title whose
// lookup errors or times out gets a placeholder card.
type Enricher struct {
	lookup  MovieLookup
	cache   Cache
	cfg     Config
	logger  *logrus.Logger
	metrics *metrics.Metrics
}

// NewEnricher creates an enricher. A nil lookup serves placeholders only and a
// nil cache disables caching.
func NewEnricher(lookup MovieLookup, cache Cache, cfg Config, logger *logrus.Logger, m *metrics.Metrics) *Enricher {
	if cache == nil {
		cache = NoopCache{}
	}
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultConfig().Workers
	}
	if cfg.ItemTimeout <= 0 {
		cfg.ItemTimeout = DefaultConfig().ItemTimeout
	}
	return &Enricher{
		lookup:  lookup,
		cache:   cache,
		cfg:     cfg,
		logger:  logger,
		metrics: m,
	}
}

// Enrich returns one card per title in the same order.
func (e *Enricher) Enrich(ctx context.Context, titles []string) []models.MovieCard {
	cards := make([]models.MovieCard, len(titles))

	var g errgroup.Group
	g.SetLimit(e.cfg.Workers)
	for i, title := range titles {
		i, title := i, title
		g.Go(func() error {
			cards[i] = e.EnrichOne(ctx, title)
			return nil
		})
	}
	_ = g.Wait()

	return cards
}

// EnrichOne resolves a single title, consulting the cache first.
func (e *Enricher) EnrichOne(ctx context.Context, title string) models.MovieCard {
	card, err := e.cache.Get(ctx, title)
	if err == nil {
		e.metrics.Enrichment(metrics.OutcomeCacheHit)
		return card
	}
	if !errors.Is(err, ErrCacheMiss) {
		e.logger.WithError(err).WithField("title", title).Debug("Enrichment cache unavailable")
	}

	if e.lookup == nil {
		e.metrics.Enrichment(metrics.OutcomePlaceholder)
		return models.PlaceholderCard(title)
	}

	itemCtx, cancel := context.WithTimeout(ctx, e.cfg.ItemTimeout)
	defer cancel()

	card, err = e.fetch(itemCtx, title)
	if err != nil {
		e.logger.WithError(err).WithField("title", title).Warn("Movie metadata lookup failed")
		e.metrics.Enrichment(metrics.OutcomePlaceholder)
		return models.PlaceholderCard(title)
	}

	if err := e.cache.Set(ctx, title, card); err != nil {
		e.logger.WithError(err).WithField("title", title).Debug("Failed to cache movie metadata")
	}
	e.metrics.Enrichment(metrics.OutcomeFetched)
	return card
}

type lookupResult struct {
	card models.MovieCard
	err  error
}

// fetch bounds a lookup by ctx even when the lookup itself ignores it.
func (e *Enricher) fetch(ctx context.Context, title string) (models.MovieCard, error) {
	done := make(chan lookupResult, 1)
	go func() {
		card, err := e.lookup.Lookup(ctx, title)
		done <- lookupResult{card: card, err: err}
	}()

	select {
	case res := <-done:
		return res.card, res.err
	case <-ctx.Done():
		return models.MovieCard{}, ctx.Err()
	}
}
