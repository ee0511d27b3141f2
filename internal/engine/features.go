package engine

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// maxCastMembers is how many billed cast names contribute to an item's tags.
const maxCastMembers = 3

// tokenPattern matches runs of word characters.
var tokenPattern = regexp.MustCompile(`[\p{L}\p{N}_]+`)

// FeatureVector is a raw term-count vector over a fixed vocabulary. Only
// non-zero entries are stored; Indices is sorted ascending.
type FeatureVector struct {
	Dim     int
	Indices []int
	Values  []float64
}

// Dense expands the vector to its full dimension.
func (v FeatureVector) Dense() []float64 {
	out := make([]float64, v.Dim)
	for k, idx := range v.Indices {
		out[idx] = v.Values[k]
	}
	return out
}

// Encoder maps tag strings to count vectors over a fitted vocabulary.
type Encoder struct {
	vocabulary map[string]int
	terms      []string
}

// PrepareCatalog drops items without a title or overview. Empty genre,
// keyword or cast lists and a blank director are kept; they only contribute no
// tags. It returns the kept items in their original order and how many were
// dropped.
func PrepareCatalog(items []Item) ([]Item, int) {
	kept := make([]Item, 0, len(items))
	for _, item := range items {
		if !hasRequiredMetadata(item) {
			continue
		}
		if len(item.Cast) > maxCastMembers {
			item.Cast = item.Cast[:maxCastMembers]
		}
		kept = append(kept, item)
	}
	return kept, len(items) - len(kept)
}

func hasRequiredMetadata(item Item) bool {
	return strings.TrimSpace(item.Title) != "" &&
		strings.TrimSpace(item.Overview) != ""
}

// BuildTags concatenates an item's overview with its collapsed genre, keyword,
// cast and director names. Multi-word names lose their whitespace so that each
// one counts as a single token.
func BuildTags(item Item) string {
	cast := item.Cast
	if len(cast) > maxCastMembers {
		cast = cast[:maxCastMembers]
	}

	parts := []string{
		item.Overview,
		joinCollapsed(item.Genres),
		joinCollapsed(item.Keywords),
		joinCollapsed(cast),
		collapse(item.Director),
	}
	return strings.Join(parts, " ")
}

func joinCollapsed(names []string) string {
	collapsed := make([]string, 0, len(names))
	for _, name := range names {
		if c := collapse(name); c != "" {
			collapsed = append(collapsed, c)
		}
	}
	return strings.Join(collapsed, " ")
}

func collapse(name string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, name)
}

// Tokenize lowercases text and returns its tokens of two or more word
// characters, with stop words removed.
func Tokenize(text string) []string {
	raw := tokenPattern.FindAllString(strings.ToLower(text), -1)
	tokens := make([]string, 0, len(raw))
	for _, tok := range raw {
		if utf8.RuneCountInString(tok) < 2 {
			continue
		}
		if _, stop := englishStopWords[tok]; stop {
			continue
		}
		tokens = append(tokens, tok)
	}
	return tokens
}

// FitVocabulary keeps the k most frequent terms across docs. Ties on frequency
// go to the alphabetically smaller term. Columns are assigned in alphabetical
// order of the kept terms.
func FitVocabulary(docs []string, k int) (*Encoder, error) {
	if k <= 0 {
		return nil, fmt.Errorf("%w: vocabulary size must be positive, got %d", ErrInvalidConfiguration, k)
	}

	counts := make(map[string]int)
	for _, doc := range docs {
		for _, tok := range Tokenize(doc) {
			counts[tok]++
		}
	}

	terms := make([]string, 0, len(counts))
	for term := range counts {
		terms = append(terms, term)
	}
	sort.Slice(terms, func(i, j int) bool {
		if counts[terms[i]] != counts[terms[j]] {
			return counts[terms[i]] > counts[terms[j]]
		}
		return terms[i] < terms[j]
	})
	if len(terms) > k {
		terms = terms[:k]
	}
	sort.Strings(terms)

	vocabulary := make(map[string]int, len(terms))
	for i, term := range terms {
		vocabulary[term] = i
	}

	return &Encoder{vocabulary: vocabulary, terms: terms}, nil
}

// Size returns the vocabulary dimension.
func (e *Encoder) Size() int {
	return len(e.terms)
}

// Terms returns the vocabulary in column order.
func (e *Encoder) Terms() []string {
	out := make([]string, len(e.terms))
	copy(out, e.terms)
	return out
}

// Encode counts the in-vocabulary tokens of doc.
func (e *Encoder) Encode(doc string) FeatureVector {
	counts := make(map[int]float64)
	for _, tok := range Tokenize(doc) {
		if col, ok := e.vocabulary[tok]; ok {
			counts[col]++
		}
	}

	indices := make([]int, 0, len(counts))
	for col := range counts {
		indices = append(indices, col)
	}
	sort.Ints(indices)

	values := make([]float64, len(indices))
	for k, col := range indices {
		values[k] = counts[col]
	}

	return FeatureVector{Dim: len(e.terms), Indices: indices, Values: values}
}

// EncodeCatalog fits a vocabulary of size k over the catalog tags and encodes
// every item. Vectors are returned in catalog order.
func EncodeCatalog(items []Item, k int) (*Encoder, []FeatureVector, error) {
	docs := make([]string, len(items))
	for i, item := range items {
		docs[i] = BuildTags(item)
	}

	encoder, err := FitVocabulary(docs, k)
	if err != nil {
		return nil, nil, err
	}

	vectors := make([]FeatureVector, len(docs))
	for i, doc := range docs {
		vectors[i] = encoder.Encode(doc)
	}
	return encoder, vectors, nil
}
