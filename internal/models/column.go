// Package models defines core data structures for column specs, rows, and sparse features.
package models

import (
	"fmt"
	"strings"
)

// Kind identifies which transformer handles a column.
type Kind string

const (
	// KindLabel marks the label column; it yields the row label, not features.
	KindLabel Kind = "label"
	// KindNumeric is a single numeric feature, optionally normalized.
	KindNumeric Kind = "num"
	// KindText splits cells into terms and counts them.
	KindText Kind = "text"
	// KindCategory one-hot encodes distinct cell values.
	KindCategory Kind = "category"
)

// ParseKind returns the Kind for s or ErrUnsupportedKind.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.TrimSpace(s)); k {
	case KindLabel, KindNumeric, KindText, KindCategory:
		return k, nil
	default:
		return "", fmt.Errorf("%w: %q (supported: label, num, text, category)", ErrUnsupportedKind, s)
	}
}

// ColumnSpec configures the transformer for one column.
// Extra is the term separator pattern for text columns and the default value
// for numeric columns; other kinds ignore it.
type ColumnSpec struct {
	Column   string `yaml:"column" json:"column"`
	Kind     Kind   `yaml:"kind" json:"kind"`
	NormType string `yaml:"norm,omitempty" json:"norm,omitempty"`
	Extra    string `yaml:"extra,omitempty" json:"extra,omitempty"`
}

// Row is one record of the data source keyed by column name.
type Row map[string]string
