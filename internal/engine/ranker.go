package engine

import (
	"fmt"
	"sort"
)

// Recommendation is one ranked candidate with its component scores.
type Recommendation struct {
	Item            Item    `json:"item"`
	Index           int     `json:"index"`
	ContentScore    float64 `json:"content_score"`
	PreferenceScore float64 `json:"preference_score"`
	Score           float64 `json:"score"`
}

// Result is the ranked answer to a recommendation query.
type Result struct {
	Query           string           `json:"query"`
	UserID          int64            `json:"user_id"`
	Alpha           float64          `json:"alpha"`
	Matched         Match            `json:"matched"`
	Recommendations []Recommendation `json:"recommendations"`
}

// Titles returns the recommended titles in rank order.
func (r *Result) Titles() []string {
	titles := make([]string, len(r.Recommendations))
	for i, rec := range r.Recommendations {
		titles[i] = rec.Item.Title
	}
	return titles
}

// Ranker fuses content similarity and predicted preference. It holds only
// read-only references and is safe for concurrent use.
type Ranker struct {
	catalog     []Item
	byID        map[int64]int
	index       *SimilarityIndex
	preferences *PreferenceModel
	resolver    *TitleResolver
	cfg         RankerConfig
}

// NewRanker wires the components of a built model together.
func NewRanker(catalog []Item, index *SimilarityIndex, preferences *PreferenceModel, resolver *TitleResolver, cfg RankerConfig) (*Ranker, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if index.Len() != len(catalog) || resolver.Len() != len(catalog) {
		return nil, fmt.Errorf("%w: catalog has %d items, index %d, resolver %d",
			ErrInvalidConfiguration, len(catalog), index.Len(), resolver.Len())
	}

	byID := make(map[int64]int, len(catalog))
	for i, item := range catalog {
		if _, dup := byID[item.ID]; !dup {
			byID[item.ID] = i
		}
	}

	return &Ranker{
		catalog:     catalog,
		byID:        byID,
		index:       index,
		preferences: preferences,
		resolver:    resolver,
		cfg:         cfg,
	}, nil
}

// Config returns the ranker windows.
func (r *Ranker) Config() RankerConfig {
	return r.cfg
}

// RecommendDefault ranks with the configured default alpha.
func (r *Ranker) RecommendDefault(query string, userID int64) (*Result, error) {
	return r.Recommend(query, userID, r.cfg.DefaultAlpha)
}

// Recommend resolves query to a catalog title, scores its closest content
// neighbours for userID and returns the best TopN by
//
//	alpha*content + (1-alpha)*preference
//
// Equal hybrid scores keep content-rank order. On ErrNotFound the returned
// result is non-nil and empty. Fewer than TopN neighbours yield a shorter list,
// so a single-item catalog answers with no recommendations and no error.
func (r *Ranker) Recommend(query string, userID int64, alpha float64) (*Result, error) {
	if err := validateAlpha(alpha); err != nil {
		return nil, err
	}

	result := &Result{Query: query, UserID: userID, Alpha: alpha, Recommendations: []Recommendation{}}

	match, err := r.resolver.Resolve(query)
	if err != nil {
		return result, err
	}
	result.Matched = match

	neighbors, err := r.index.TopSimilar(match.Index, r.cfg.CandidatePool)
	if err != nil {
		return nil, err
	}

	candidates := make([]Recommendation, len(neighbors))
	for k, n := range neighbors {
		item := r.catalog[n.Index]
		pref := r.preferences.Predict(userID, item.ID)
		candidates[k] = Recommendation{
			Item:            item,
			Index:           n.Index,
			ContentScore:    n.Score,
			PreferenceScore: pref,
			Score:           alpha*n.Score + (1-alpha)*pref,
		}
	}

	sort.SliceStable(candidates, func(a, b int) bool {
		return candidates[a].Score > candidates[b].Score
	})
	if len(candidates) > r.cfg.TopN {
		candidates = candidates[:r.cfg.TopN]
	}

	result.Recommendations = candidates
	return result, nil
}

// Resolve exposes the title resolver.
func (r *Ranker) Resolve(query string) (Match, error) {
	return r.resolver.Resolve(query)
}

// Similar returns the k closest content neighbours of the item with the given
// catalog ID, without preference scoring.
func (r *Ranker) Similar(itemID int64, k int) ([]Recommendation, error) {
	idx, ok := r.byID[itemID]
	if !ok {
		return nil, fmt.Errorf("%w: item id %d", ErrNotFound, itemID)
	}

	neighbors, err := r.index.TopSimilar(idx, k)
	if err != nil {
		return nil, err
	}

	out := make([]Recommendation, len(neighbors))
	for i, n := range neighbors {
		out[i] = Recommendation{
			Item:         r.catalog[n.Index],
			Index:        n.Index,
			ContentScore: n.Score,
			Score:        n.Score,
		}
	}
	return out, nil
}

// Item returns the catalog entry with the given ID.
func (r *Ranker) Item(itemID int64) (Item, bool) {
	idx, ok := r.byID[itemID]
	if !ok {
		return Item{}, false
	}
	return r.catalog[idx], true
}
