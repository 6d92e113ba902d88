package dataset

import (
	"fmt"
	"iter"

	"github.com/hyperjump/featrans/internal/models"
)

// Frame is an in-memory ColumnStore.
type Frame struct {
	columns []string
	data    map[string][]string
	n       int
}

// NewFrame builds a frame from row-major records. Short records are padded
// with empty cells; extra cells beyond the header are ignored. Header names
// must be unique.
func NewFrame(header []string, records [][]string) (*Frame, error) {
	f := &Frame{
		columns: append([]string(nil), header...),
		data:    make(map[string][]string, len(header)),
		n:       len(records),
	}
	for _, name := range header {
		if _, dup := f.data[name]; dup {
			return nil, fmt.Errorf("%w in header: %s", models.ErrDuplicateColumn, name)
		}
		f.data[name] = make([]string, len(records))
	}
	for i, rec := range records {
		for j, name := range header {
			if j < len(rec) {
				f.data[name][i] = rec[j]
			}
		}
	}
	return f, nil
}

// FromColumns builds a frame from column-major data. Every column must have
// the same length.
func FromColumns(order []string, columns map[string][]string) (*Frame, error) {
	f := &Frame{
		columns: append([]string(nil), order...),
		data:    make(map[string][]string, len(order)),
	}
	for i, name := range order {
		values, ok := columns[name]
		if !ok {
			return nil, fmt.Errorf("%w: %s", models.ErrMissingColumn, name)
		}
		if _, dup := f.data[name]; dup {
			return nil, fmt.Errorf("%w: %s", models.ErrDuplicateColumn, name)
		}
		if i == 0 {
			f.n = len(values)
		} else if len(values) != f.n {
			return nil, fmt.Errorf("column %s has %d values, expected %d", name, len(values), f.n)
		}
		f.data[name] = append([]string(nil), values...)
	}
	return f, nil
}

// Columns returns the column names in header order.
func (f *Frame) Columns() []string {
	return append([]string(nil), f.columns...)
}

// Column returns the values of name. The slice must not be modified.
func (f *Frame) Column(name string) ([]string, bool) {
	values, ok := f.data[name]
	return values, ok
}

// Rows iterates rows in order. Each row is a fresh map.
func (f *Frame) Rows() iter.Seq[models.Row] {
	return func(yield func(models.Row) bool) {
		for i := 0; i < f.n; i++ {
			if !yield(f.Row(i)) {
				return
			}
		}
	}
}

// Row returns row i.
func (f *Frame) Row(i int) models.Row {
	row := make(models.Row, len(f.columns))
	for _, name := range f.columns {
		row[name] = f.data[name][i]
	}
	return row
}

// Len returns the number of rows.
func (f *Frame) Len() int {
	return f.n
}
