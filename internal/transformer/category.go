package transformer

import (
	"strings"

	"github.com/hyperjump/featrans/internal/models"
	"github.com/hyperjump/featrans/internal/normalizer"
)

// Category one-hot encodes the distinct non-blank values of a column.
// Indicator values are always 1, so an attached normalizer is kept but never applied.
type Category struct {
	base
}

// NewCategory returns an undiscovered category transformer for column.
func NewCategory(column string) *Category {
	return &Category{base: base{column: column}}
}

func (c *Category) Kind() models.Kind { return models.KindCategory }

// Discover assigns local indices to trimmed, non-blank values in first-occurrence order.
func (c *Category) Discover(values []string) error {
	vb := newVocabBuilder()
	for _, text := range values {
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		vb.add(text)
	}
	c.vocab = vb.freeze()
	c.observed = nil
	c.numSamples = len(values)
	c.discovered = true
	return nil
}

// Transform returns [(index, 1)] for a known category and an empty vector otherwise.
func (c *Category) Transform(text string) (models.SparseVector, error) {
	if idx, ok := c.vocab.Index(strings.TrimSpace(text)); ok {
		return models.SparseVector{{Index: idx, Value: 1}}, nil
	}
	return models.SparseVector{}, nil
}

// SetNormalizer attaches n.
func (c *Category) SetNormalizer(n normalizer.Normalizer) {
	c.norm = n
}
