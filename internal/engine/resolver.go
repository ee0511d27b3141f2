package engine

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Match is the catalog title chosen for a free-text query.
type Match struct {
	Index int     `json:"index"`
	Title string  `json:"title"`
	Score float64 `json:"score"`
}

// TitleResolver maps noisy query text to the closest catalog title.
type TitleResolver struct {
	titles     []string
	normalized []string
	cutoff     float64
}

// NewTitleResolver prepares normalized titles for matching. cutoff is the
// minimum similarity a match must reach, in [0,1].
func NewTitleResolver(titles []string, cutoff float64) (*TitleResolver, error) {
	if !(cutoff >= 0 && cutoff <= 1) {
		return nil, fmt.Errorf("%w: match cutoff must be within [0,1], got %v", ErrInvalidConfiguration, cutoff)
	}

	r := &TitleResolver{
		titles:     make([]string, len(titles)),
		normalized: make([]string, len(titles)),
		cutoff:     cutoff,
	}
	copy(r.titles, titles)
	for i, t := range titles {
		r.normalized[i] = NormalizeTitle(t)
	}
	return r, nil
}

// NormalizeTitle case-folds a title and collapses its whitespace.
func NormalizeTitle(s string) string {
	// A Caser keeps state between calls, so each call gets its own.
	folded := cases.Fold().String(norm.NFC.String(s))
	return strings.Join(strings.Fields(folded), " ")
}

// TitleSimilarity is one minus the edit distance normalized by the longer
// string's length. Two empty strings are identical.
func TitleSimilarity(a, b string) float64 {
	longest := utf8.RuneCountInString(a)
	if n := utf8.RuneCountInString(b); n > longest {
		longest = n
	}
	if longest == 0 {
		return 1
	}
	return 1 - float64(levenshtein.ComputeDistance(a, b))/float64(longest)
}

// Resolve scans the catalog for the best-scoring title. Equal scores go to the
// lower catalog index. ErrNotFound is returned when the query is blank, the
// catalog is empty, or no title reaches the cutoff.
func (r *TitleResolver) Resolve(query string) (Match, error) {
	q := NormalizeTitle(query)
	if q == "" {
		return Match{}, fmt.Errorf("%w: empty query", ErrNotFound)
	}

	best := Match{Index: -1}
	for i, title := range r.normalized {
		if title == q {
			return Match{Index: i, Title: r.titles[i], Score: 1}, nil
		}
		score := TitleSimilarity(q, title)
		if best.Index < 0 || score > best.Score {
			best = Match{Index: i, Title: r.titles[i], Score: score}
		}
	}

	if best.Index < 0 || best.Score < r.cutoff {
		return Match{}, fmt.Errorf("%w: %q", ErrNotFound, query)
	}
	return best, nil
}

// Len returns the number of titles known to the resolver.
func (r *TitleResolver) Len() int {
	return len(r.titles)
}
