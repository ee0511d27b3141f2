package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

// Model is the immutable output of Build. It is constructed once at startup
// and shared by reference with every request handler.
type Model struct {
	Catalog     []Item
	Encoder     *Encoder
	Index       *SimilarityIndex
	Preferences *PreferenceModel
	Resolver    *TitleResolver
	Ranker      *Ranker
	Stats       BuildStats
}

// BuildStats summarises what the build consumed and how long each stage took.
type BuildStats struct {
	CatalogItems   int           `json:"catalog_items"`
	DroppedItems   int           `json:"dropped_items"`
	VocabularySize int           `json:"vocabulary_size"`
	RatingsUsed    int           `json:"ratings_used"`
	RatingsSkipped int           `json:"ratings_skipped"`
	Users          int           `json:"users"`
	RatedItems     int           `json:"rated_items"`
	EncodeDuration time.Duration `json:"encode_duration"`
	IndexDuration  time.Duration `json:"index_duration"`
	TrainDuration  time.Duration `json:"train_duration"`
	TotalDuration  time.Duration `json:"total_duration"`
}

// Build runs the offline phase: it prepares the catalog, encodes features,
// computes the similarity index and trains the preference model. It blocks
// until every stage finishes; ctx is checked between stages and epochs.
func Build(ctx context.Context, items []Item, ratings []Rating, cfg Config, logger *logrus.Logger) (*Model, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logrus.New()
	}

	start := time.Now()
	stats := BuildStats{}

	catalog, dropped := PrepareCatalog(items)
	stats.CatalogItems = len(catalog)
	stats.DroppedItems = dropped
	if len(catalog) == 0 {
		return nil, ErrEmptyCatalog
	}
	if dropped > 0 {
		logger.WithFields(logrus.Fields{
			"dropped": dropped,
			"kept":    len(catalog),
		}).Warn("Excluded catalog items with missing metadata")
	}

	stageStart := time.Now()
	encoder, vectors, err := EncodeCatalog(catalog, cfg.VocabularySize)
	if err != nil {
		return nil, fmt.Errorf("failed to encode catalog: %w", err)
	}
	stats.VocabularySize = encoder.Size()
	stats.EncodeDuration = time.Since(stageStart)
	logger.WithFields(logrus.Fields{
		"items":      len(vectors),
		"vocabulary": encoder.Size(),
		"duration":   stats.EncodeDuration,
	}).Info("Feature vectors encoded")

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	stageStart = time.Now()
	index, err := NewSimilarityIndex(vectors)
	if err != nil {
		return nil, fmt.Errorf("failed to build similarity index: %w", err)
	}
	stats.IndexDuration = time.Since(stageStart)
	logger.WithFields(logrus.Fields{
		"items":    index.Len(),
		"duration": stats.IndexDuration,
	}).Info("Similarity index built")

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	stageStart = time.Now()
	preferences, err := TrainPreferenceModel(ctx, ratings, cfg.Preference)
	if err != nil {
		return nil, fmt.Errorf("failed to train preference model: %w", err)
	}
	stats.RatingsUsed, stats.RatingsSkipped = preferences.TrainedRatings()
	stats.Users = preferences.Users()
	stats.RatedItems = preferences.Items()
	stats.TrainDuration = time.Since(stageStart)
	logger.WithFields(logrus.Fields{
		"ratings":     stats.RatingsUsed,
		"skipped":     stats.RatingsSkipped,
		"users":       stats.Users,
		"items":       stats.RatedItems,
		"global_mean": preferences.GlobalMean(),
		"duration":    stats.TrainDuration,
	}).Info("Preference model trained")

	titles := make([]string, len(catalog))
	for i, item := range catalog {
		titles[i] = item.Title
	}
	resolver, err := NewTitleResolver(titles, cfg.Ranker.MatchCutoff)
	if err != nil {
		return nil, err
	}

	ranker, err := NewRanker(catalog, index, preferences, resolver, cfg.Ranker)
	if err != nil {
		return nil, err
	}

	stats.TotalDuration = time.Since(start)
	logger.WithField("duration", stats.TotalDuration).Info("Recommendation model ready")

	return &Model{
		Catalog:     catalog,
		Encoder:     encoder,
		Index:       index,
		Preferences: preferences,
		Resolver:    resolver,
		Ranker:      ranker,
		Stats:       stats,
	}, nil
}
