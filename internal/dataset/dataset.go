// Package dataset provides column stores that feed the feature engine: an
// in-memory frame and readers for CSV and Excel files.
package dataset

import (
	"fmt"
	"iter"
	"os"
	"path/filepath"
	"strings"

	"github.com/hyperjump/featrans/internal/models"
)

// ColumnStore is a read-only, column-oriented table of string cells.
type ColumnStore interface {
	// Columns returns the column names in their native order.
	Columns() []string
	// Column returns every value of the named column in row order.
	Column(name string) ([]string, bool)
	// Rows iterates the rows in native order.
	Rows() iter.Seq[models.Row]
	// Len returns the number of rows.
	Len() int
}

// Format identifies a supported data file format.
type Format string

const (
	// FormatCSV is comma separated values with a header row.
	FormatCSV Format = "csv"
	// FormatTSV is tab separated values with a header row.
	FormatTSV Format = "tsv"
	// FormatExcel is an .xlsx workbook with a header row on the chosen sheet.
	FormatExcel Format = "xlsx"
)

// FormatFromPath infers the format from the file extension. Unknown extensions are read as CSV.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		return FormatExcel
	case ".tsv", ".tab":
		return FormatTSV
	default:
		return FormatCSV
	}
}

// Open reads the data file at path. An empty format is inferred from the
// extension; sheet only applies to Excel files and defaults to the first sheet.
func Open(path string, format Format, sheet string) (*Frame, error) {
	if format == "" {
		format = FormatFromPath(path)
	}
	switch format {
	case FormatExcel:
		return ReadExcelFile(path, sheet)
	case FormatCSV, FormatTSV:
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open data file: %w", err)
		}
		defer f.Close()
		if format == FormatTSV {
			return ReadCSV(f, '\t')
		}
		return ReadCSV(f, ',')
	default:
		return nil, fmt.Errorf("unsupported data format %q (supported: csv, tsv, xlsx)", format)
	}
}
