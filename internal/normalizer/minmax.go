package normalizer

import (
	"fmt"

	"github.com/hyperjump/featrans/internal/models"
)

// MinMax rescales a value to (value - min) / (max - min).
// When min equals max, Apply returns models.ErrDivisionByZero instead of NaN or Inf.
type MinMax struct {
	ranges map[int]Range
}

// NewMinMax returns an empty min-max normalizer.
func NewMinMax() *MinMax {
	return &MinMax{ranges: make(map[int]Range)}
}

// Init stores the min and max of values for feature. Empty values leave the
// feature uninitialized.
func (m *MinMax) Init(feature int, values []float64) {
	if len(values) == 0 {
		return
	}
	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	m.ranges[feature] = Range{Min: lo, Max: hi}
}

// Apply normalizes value for feature.
func (m *MinMax) Apply(feature int, value float64) (float64, error) {
	r, ok := m.ranges[feature]
	if !ok {
		return 0, fmt.Errorf("%w: %d", models.ErrUninitializedFeature, feature)
	}
	if r.Max == r.Min {
		return 0, fmt.Errorf("%w: feature %d has min == max == %g", models.ErrDivisionByZero, feature, r.Min)
	}
	return (value - r.Min) / (r.Max - r.Min), nil
}

// Range returns the fitted range of feature.
func (m *MinMax) Range(feature int) (Range, bool) {
	r, ok := m.ranges[feature]
	return r, ok
}

// State exports a copy of the fitted ranges.
func (m *MinMax) State() *State {
	ranges := make(map[int]Range, len(m.ranges))
	for id, r := range m.ranges {
		ranges[id] = r
	}
	return &State{Type: TypeMinMax, Ranges: ranges}
}
