package transformer

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/hyperjump/featrans/internal/models"
	"github.com/hyperjump/featrans/internal/normalizer"
)

// Text splits cells into terms with a separator pattern and emits term counts.
type Text struct {
	base
	separator string
	sep       *regexp.Regexp
	cache     *memoCache
}

// NewText returns an undiscovered text transformer. An empty separator treats
// the whole trimmed cell as one term.
func NewText(column, separator string, opts ...Option) (*Text, error) {
	sep, err := compileSeparator(separator)
	if err != nil {
		return nil, fmt.Errorf("column %s: %w", column, err)
	}
	o := buildOptions(opts)
	return &Text{
		base:      base{column: column},
		separator: separator,
		sep:       sep,
		cache:     newMemoCache(o.cacheSize),
	}, nil
}

func (t *Text) Kind() models.Kind { return models.KindText }

// Separator returns the separator pattern.
func (t *Text) Separator() string { return t.separator }

// terms splits text and returns its distinct non-blank terms in first-occurrence
// order with their counts.
func (t *Text) terms(text string) ([]string, map[string]int) {
	parts := []string{text}
	if t.sep != nil {
		parts = t.sep.Split(text, -1)
	}
	var order []string
	counts := make(map[string]int, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if counts[p] == 0 {
			order = append(order, p)
		}
		counts[p]++
	}
	return order, counts
}

// Discover assigns local indices to terms in first-occurrence order, scanning
// cells top to bottom and terms left to right, and records per-row counts.
func (t *Text) Discover(values []string) error {
	vb := newVocabBuilder()
	var observed [][]float64
	for _, text := range values {
		order, counts := t.terms(text)
		for _, term := range order {
			id := vb.add(term)
			if id == len(observed) {
				observed = append(observed, nil)
			}
			observed[id] = append(observed[id], float64(counts[term]))
		}
	}
	t.vocab = vb.freeze()
	t.observed = observed
	t.numSamples = len(values)
	t.discovered = true
	t.cache.Reset()
	t.initNormalizer()
	return nil
}

// Transform emits (index, count) for every known term, normalized when a
// normalizer is attached. Unknown terms and zero values are dropped.
func (t *Text) Transform(text string) (models.SparseVector, error) {
	if v, ok := t.cache.Get(text); ok {
		return v, nil
	}
	order, counts := t.terms(text)
	features := make(models.SparseVector, 0, len(order))
	for _, term := range order {
		id, ok := t.vocab.Index(term)
		if !ok {
			continue
		}
		value, err := t.normalize(id, float64(counts[term]))
		if err != nil {
			return nil, fmt.Errorf("column %s term %q: %w", t.column, term, err)
		}
		if value != 0 {
			features = append(features, models.Feature{Index: id, Value: value})
		}
	}
	t.cache.Set(text, features)
	return features, nil
}

// SetNormalizer attaches n, or detaches with nil.
func (t *Text) SetNormalizer(n normalizer.Normalizer) {
	t.norm = n
	t.cache.Reset()
	t.initNormalizer()
}

// CacheLen returns the number of memoized inputs.
func (t *Text) CacheLen() int { return t.cache.Len() }
