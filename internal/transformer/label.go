package transformer

import (
	"fmt"
	"strings"

	"github.com/hyperjump/featrans/internal/models"
)

// Label turns the label column into +1 / -1. It has no discovery phase and no
// feature indices.
type Label struct {
	column string
}

// NewLabel returns the label transformer for column.
func NewLabel(column string) *Label {
	return &Label{column: column}
}

func (l *Label) Kind() models.Kind { return models.KindLabel }
func (l *Label) Column() string    { return l.column }
func (l *Label) sealed()           {}

// Transform returns LabelPositive when text parses to a value > 0, otherwise LabelNegative.
func (l *Label) Transform(text string) (models.Label, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return models.LabelNone, fmt.Errorf("column %s: %w", l.column, models.ErrEmptyLabel)
	}
	v, err := parseFloat(text)
	if err != nil {
		return models.LabelNone, fmt.Errorf("column %s: %w", l.column, err)
	}
	if v > 0 {
		return models.LabelPositive, nil
	}
	return models.LabelNegative, nil
}
