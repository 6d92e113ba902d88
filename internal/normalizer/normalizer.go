// Package normalizer provides per-feature scalar rescaling fit from observed values.
package normalizer

import (
	"fmt"

	"github.com/hyperjump/featrans/internal/models"
)

// TypeMinMax is the type name of the min-max normalizer.
const TypeMinMax = "min_max"

// Normalizer rescales values of a feature using statistics fit by Init.
// One instance may serve every feature of a column.
type Normalizer interface {
	// Init fits the statistics of feature from all values observed for it.
	Init(feature int, values []float64)
	// Apply rescales value for feature. Init must have been called for feature.
	Apply(feature int, value float64) (float64, error)
	// State exports the fitted statistics for persistence.
	State() *State
}

// State is the persisted form of a normalizer.
type State struct {
	Type   string
	Ranges map[int]Range
}

// Range is the observed [Min, Max] of one feature.
type Range struct {
	Min float64
	Max float64
}

// New returns a normalizer for normType. An empty type means no normalizer and
// returns nil, nil.
func New(normType string) (Normalizer, error) {
	switch normType {
	case "":
		return nil, nil
	case TypeMinMax:
		return NewMinMax(), nil
	default:
		return nil, fmt.Errorf("%w: %q (supported: %s)", models.ErrUnsupportedNormalizer, normType, TypeMinMax)
	}
}

// Restore rebuilds a normalizer from its persisted state. A nil state yields nil.
func Restore(s *State) (Normalizer, error) {
	if s == nil {
		return nil, nil
	}
	switch s.Type {
	case TypeMinMax:
		m := NewMinMax()
		for id, r := range s.Ranges {
			m.ranges[id] = r
		}
		return m, nil
	default:
		return nil, fmt.Errorf("%w: %q", models.ErrUnsupportedNormalizer, s.Type)
	}
}
