// Package transformer provides the per-column transformers that turn raw cell
// text into labels or local sparse features.
//
// The variant set is closed: Label, Category, Text and Numeric. Code that needs
// per-variant behavior switches on the concrete type.
package transformer

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/hyperjump/featrans/internal/models"
	"github.com/hyperjump/featrans/internal/normalizer"
)

// Transformer is implemented only by the types of this package.
type Transformer interface {
	Kind() models.Kind
	Column() string
	sealed()
}

// FeatureTransformer is a transformer that owns a local feature index space.
type FeatureTransformer interface {
	Transformer
	// Discover replaces the vocabulary and normalizer statistics from every
	// value of the column, in row order.
	Discover(values []string) error
	// Transform maps one cell to local features. The returned vector may be
	// shared with a cache and must not be modified.
	Transform(text string) (models.SparseVector, error)
	// Discovered reports whether Discover ran or learned state was restored.
	// Until then the transformer owns no indices and must not transform.
	Discovered() bool
	// NumFeatures is the size of the local index space.
	NumFeatures() int
	// Vocabulary is the frozen key to local index mapping.
	Vocabulary() *Vocabulary
	// SetNormalizer attaches n, or detaches with nil. When discovery already
	// ran, n is initialized from the observed values immediately.
	SetNormalizer(n normalizer.Normalizer)
	Normalizer() normalizer.Normalizer
}

// Option configures a transformer.
type Option func(*options)

type options struct {
	cacheSize int
}

// WithCacheSize enables a memo cache of up to size distinct inputs on
// transformers that support one. Zero or negative disables it.
func WithCacheSize(size int) Option {
	return func(o *options) { o.cacheSize = size }
}

func buildOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// New builds the transformer described by spec.
func New(spec models.ColumnSpec, opts ...Option) (Transformer, error) {
	kind, err := models.ParseKind(string(spec.Kind))
	if err != nil {
		return nil, fmt.Errorf("column %s: %w", spec.Column, err)
	}
	if kind == models.KindLabel {
		return NewLabel(spec.Column), nil
	}
	if kind == models.KindCategory {
		return NewCategory(spec.Column), nil
	}
	norm, err := normalizer.New(spec.NormType)
	if err != nil {
		return nil, fmt.Errorf("column %s: %w", spec.Column, err)
	}
	switch kind {
	case models.KindText:
		t, err := NewText(spec.Column, spec.Extra, opts...)
		if err != nil {
			return nil, err
		}
		t.SetNormalizer(norm)
		return t, nil
	default:
		def := 0.0
		if s := strings.TrimSpace(spec.Extra); s != "" {
			if def, err = parseFloat(s); err != nil {
				return nil, fmt.Errorf("column %s default: %w", spec.Column, err)
			}
		}
		n := NewNumeric(spec.Column, def)
		n.SetNormalizer(norm)
		return n, nil
	}
}

// base holds the discovery state shared by feature transformers.
type base struct {
	column     string
	vocab      *Vocabulary
	observed   [][]float64 // per local index, the values recorded during discovery
	numSamples int
	norm       normalizer.Normalizer
	discovered bool
}

func (b *base) Column() string                    { return b.column }
func (b *base) Discovered() bool                  { return b.discovered }
func (b *base) NumFeatures() int                  { return b.vocab.Len() }
func (b *base) Vocabulary() *Vocabulary           { return b.vocab }
func (b *base) Normalizer() normalizer.Normalizer { return b.norm }
func (b *base) sealed()                           {}

// initNormalizer fits the normalizer once per feature, padding each feature's
// observations with zeros up to the number of discovered rows.
func (b *base) initNormalizer() {
	if b.norm == nil {
		return
	}
	for id, values := range b.observed {
		n := b.numSamples
		if len(values) > n {
			n = len(values)
		}
		padded := make([]float64, n)
		copy(padded, values)
		b.norm.Init(id, padded)
	}
}

// normalize applies the attached normalizer to value, if any.
func (b *base) normalize(id int, value float64) (float64, error) {
	if b.norm == nil {
		return value, nil
	}
	return b.norm.Apply(id, value)
}

func parseFloat(text string) (float64, error) {
	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", models.ErrInvalidNumber, text)
	}
	return v, nil
}

func compileSeparator(sep string) (*regexp.Regexp, error) {
	if sep == "" {
		return nil, nil
	}
	re, err := regexp.Compile(sep)
	if err != nil {
		return nil, fmt.Errorf("invalid separator %q: %w", sep, err)
	}
	return re, nil
}
