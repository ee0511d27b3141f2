// Package engine implements the hybrid movie scoring engine: a bag-of-terms
// content similarity index over catalog metadata, a biased matrix factorization
// preference model trained on rating history, a fuzzy title resolver, and the
// ranker that fuses them into a top-N list.
//
// The engine follows a build-then-serve lifecycle. Build produces an immutable
// *Model once at startup; every method on the model and its components is safe
// for concurrent use without locking because nothing is mutated afterwards.
package engine

import "fmt"

// Item is a catalog entry with the metadata used for content features.
type Item struct {
	ID       int64    `json:"id"`
	Title    string   `json:"title"`
	Overview string   `json:"overview"`
	Genres   []string `json:"genres"`
	Keywords []string `json:"keywords"`
	Cast     []string `json:"cast"`
	Director string   `json:"director"`
}

// Rating is a single historical rating used to train the preference model.
type Rating struct {
	UserID int64   `json:"user_id"`
	ItemID int64   `json:"item_id"`
	Value  float64 `json:"value"`
}

// Config groups the tuning values of every engine stage.
type Config struct {
	VocabularySize int
	Preference     PreferenceConfig
	Ranker         RankerConfig
}

// RankerConfig controls candidate retrieval, fusion and truncation.
type RankerConfig struct {
	// CandidatePool is how many content neighbours are scored per query.
	CandidatePool int
	// TopN is the maximum number of recommendations returned.
	TopN int
	// MatchCutoff is the minimum title similarity accepted by the resolver.
	MatchCutoff float64
	// DefaultAlpha weights content similarity against predicted preference.
	DefaultAlpha float64
}

// DefaultConfig returns the stock configuration.
func DefaultConfig() Config {
	return Config{
		VocabularySize: 5000,
		Preference:     DefaultPreferenceConfig(),
		Ranker:         DefaultRankerConfig(),
	}
}

// DefaultRankerConfig returns the stock ranker windows: 20 candidates, 10 results,
// a 0.4 title cutoff and alpha 0.6.
func DefaultRankerConfig() RankerConfig {
	return RankerConfig{
		CandidatePool: 20,
		TopN:          10,
		MatchCutoff:   0.4,
		DefaultAlpha:  0.6,
	}
}

// Validate rejects configurations the engine cannot run with.
func (c Config) Validate() error {
	if c.VocabularySize <= 0 {
		return fmt.Errorf("%w: vocabulary size must be positive, got %d", ErrInvalidConfiguration, c.VocabularySize)
	}
	if err := c.Preference.Validate(); err != nil {
		return err
	}
	return c.Ranker.Validate()
}

// Validate rejects non-positive windows and out-of-range weights.
func (c RankerConfig) Validate() error {
	if c.CandidatePool <= 0 {
		return fmt.Errorf("%w: candidate pool must be positive, got %d", ErrInvalidConfiguration, c.CandidatePool)
	}
	if c.TopN <= 0 {
		return fmt.Errorf("%w: top-n must be positive, got %d", ErrInvalidConfiguration, c.TopN)
	}
	if c.MatchCutoff < 0 || c.MatchCutoff > 1 {
		return fmt.Errorf("%w: match cutoff must be within [0,1], got %v", ErrInvalidConfiguration, c.MatchCutoff)
	}
	return validateAlpha(c.DefaultAlpha)
}

func validateAlpha(alpha float64) error {
	// NaN fails both comparisons, so test the accepted range instead.
	if !(alpha >= 0 && alpha <= 1) {
		return fmt.Errorf("%w: alpha must be within [0,1], got %v", ErrInvalidConfiguration, alpha)
	}
	return nil
}
