package transformer

import (
	"fmt"
	"strings"

	"github.com/hyperjump/featrans/internal/models"
	"github.com/hyperjump/featrans/internal/normalizer"
)

// Numeric maps a column to a single feature whose key is the column name.
// Blank cells take the default value.
type Numeric struct {
	base
	defaultValue float64
}

// NewNumeric returns an undiscovered numeric transformer for column.
func NewNumeric(column string, defaultValue float64) *Numeric {
	return &Numeric{base: base{column: column}, defaultValue: defaultValue}
}

func (n *Numeric) Kind() models.Kind { return models.KindNumeric }

// Default returns the value used for blank cells.
func (n *Numeric) Default() float64 { return n.defaultValue }

func (n *Numeric) parse(text string) (float64, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return n.defaultValue, nil
	}
	v, err := parseFloat(text)
	if err != nil {
		return 0, fmt.Errorf("column %s: %w", n.column, err)
	}
	return v, nil
}

// Discover records every cell value and fits the normalizer, if any, on them.
func (n *Numeric) Discover(values []string) error {
	recorded := make([]float64, 0, len(values))
	for i, text := range values {
		v, err := n.parse(text)
		if err != nil {
			return fmt.Errorf("row %d: %w", i, err)
		}
		recorded = append(recorded, v)
	}
	n.vocab = NewVocabulary([]string{n.column})
	n.observed = [][]float64{recorded}
	n.numSamples = len(values)
	n.discovered = true
	n.initNormalizer()
	return nil
}

// Transform returns [(0, value)], or an empty vector when value is exactly zero.
func (n *Numeric) Transform(text string) (models.SparseVector, error) {
	v, err := n.parse(text)
	if err != nil {
		return nil, err
	}
	if v, err = n.normalize(0, v); err != nil {
		return nil, fmt.Errorf("column %s: %w", n.column, err)
	}
	if v == 0 {
		return models.SparseVector{}, nil
	}
	return models.SparseVector{{Index: 0, Value: v}}, nil
}

// SetNormalizer attaches n, or detaches with nil.
func (n *Numeric) SetNormalizer(norm normalizer.Normalizer) {
	n.norm = norm
	n.initNormalizer()
}
