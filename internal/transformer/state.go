package transformer

import (
	"fmt"

	"github.com/hyperjump/featrans/internal/models"
	"github.com/hyperjump/featrans/internal/normalizer"
)

// State is the persisted form of a transformer: its settings plus everything
// learned during discovery.
type State struct {
	Column     string
	Kind       models.Kind
	Separator  string
	Default    float64
	Keys       []string
	Observed   [][]float64
	NumSamples int
	Discovered bool
	Normalizer *normalizer.State
}

// Export captures the state of t.
func Export(t Transformer) *State {
	s := &State{Column: t.Column(), Kind: t.Kind()}
	switch v := t.(type) {
	case *Label:
		return s
	case *Category:
		v.exportBase(s)
	case *Text:
		v.exportBase(s)
		s.Separator = v.separator
	case *Numeric:
		v.exportBase(s)
		s.Default = v.defaultValue
	}
	return s
}

func (b *base) exportBase(s *State) {
	s.Keys = b.vocab.Keys()
	s.Observed = make([][]float64, len(b.observed))
	for i, values := range b.observed {
		s.Observed[i] = append([]float64(nil), values...)
	}
	s.NumSamples = b.numSamples
	s.Discovered = b.discovered
	if b.norm != nil {
		s.Normalizer = b.norm.State()
	}
}

// Restore rebuilds a transformer from s. The normalizer state is restored as
// saved, without refitting.
func Restore(s *State, opts ...Option) (Transformer, error) {
	if s == nil {
		return nil, fmt.Errorf("restore: nil state")
	}
	norm, err := normalizer.Restore(s.Normalizer)
	if err != nil {
		return nil, fmt.Errorf("column %s: %w", s.Column, err)
	}
	var b *base
	var t Transformer
	switch s.Kind {
	case models.KindLabel:
		return NewLabel(s.Column), nil
	case models.KindCategory:
		c := NewCategory(s.Column)
		b, t = &c.base, c
	case models.KindText:
		x, err := NewText(s.Column, s.Separator, opts...)
		if err != nil {
			return nil, err
		}
		b, t = &x.base, x
	case models.KindNumeric:
		n := NewNumeric(s.Column, s.Default)
		b, t = &n.base, n
	default:
		return nil, fmt.Errorf("column %s: %w: %q", s.Column, models.ErrUnsupportedKind, s.Kind)
	}
	if s.Keys != nil {
		b.vocab = NewVocabulary(s.Keys)
	}
	b.observed = make([][]float64, len(s.Observed))
	for i, values := range s.Observed {
		b.observed[i] = append([]float64(nil), values...)
	}
	b.numSamples = s.NumSamples
	b.discovered = s.Discovered
	b.norm = norm
	return t, nil
}
