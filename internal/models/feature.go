package models

import (
	"strconv"
	"strings"
)

// Feature is one non-zero entry of a sparse vector.
type Feature struct {
	Index int     `json:"index"`
	Value float64 `json:"value"`
}

// SparseVector is an ordered list of features. Order follows column order and
// then discovery order within a column, not numeric index order.
type SparseVector []Feature

// String renders v as space separated "index:value" pairs.
func (v SparseVector) String() string {
	var b strings.Builder
	for i, f := range v {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(strconv.Itoa(f.Index))
		b.WriteByte(':')
		b.WriteString(strconv.FormatFloat(f.Value, 'g', -1, 64))
	}
	return b.String()
}

// Label is the transformed value of the label column.
type Label int8

const (
	// LabelNone means no label column was part of the output columns.
	LabelNone Label = 0
	// LabelPositive is produced for label values strictly greater than zero.
	LabelPositive Label = 1
	// LabelNegative is produced for every other parsable label value.
	LabelNegative Label = -1
)

// Sample is one transformed row.
type Sample struct {
	Label    Label        `json:"label"`
	Features SparseVector `json:"features"`
}
