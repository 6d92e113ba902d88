// Package cli provides CLI output utilities for featrans.
package cli

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"iter"
	"strconv"
	"text/tabwriter"

	"github.com/hyperjump/featrans/internal/models"
	"github.com/hyperjump/featrans/internal/storage"
)

// OutputFormat is the format for transformed samples.
type OutputFormat string

const (
	// OutputLibSVM writes "label index:value ..." per line (default).
	OutputLibSVM OutputFormat = "libsvm"
	// OutputJSON writes one JSON object per line.
	OutputJSON OutputFormat = "json"
)

// ParseOutputFormat returns the format named s.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch OutputFormat(s) {
	case OutputLibSVM, "":
		return OutputLibSVM, nil
	case OutputJSON:
		return OutputJSON, nil
	default:
		return "", fmt.Errorf("unknown output format %q; use libsvm or json", s)
	}
}

// WriteSamples drains samples into w and returns how many were written. It
// stops at the first sample error; lines already written stay valid.
func WriteSamples(w io.Writer, samples iter.Seq2[*models.Sample, error], format OutputFormat) (int, error) {
	bw := bufio.NewWriter(w)
	enc := json.NewEncoder(bw)
	n := 0
	for s, err := range samples {
		if err != nil {
			_ = bw.Flush()
			return n, err
		}
		switch format {
		case OutputJSON:
			if err := enc.Encode(s); err != nil {
				return n, fmt.Errorf("encode sample: %w", err)
			}
		default:
			writeLibSVM(bw, s)
		}
		n++
	}
	return n, bw.Flush()
}

func writeLibSVM(w *bufio.Writer, s *models.Sample) {
	w.WriteString(strconv.Itoa(int(s.Label)))
	if len(s.Features) > 0 {
		w.WriteByte(' ')
		w.WriteString(s.Features.String())
	}
	w.WriteByte('\n')
}

// WriteSnapshots lists stored snapshots as a table, or as JSON when asJSON is set.
func WriteSnapshots(w io.Writer, infos []*storage.SnapshotInfo, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if infos == nil {
			infos = []*storage.SnapshotInfo{}
		}
		return enc.Encode(infos)
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tCOLUMNS\tFEATURES\tCREATED")
	for _, info := range infos {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%s\n",
			info.ID, info.Name, info.Columns, info.Features, info.CreatedAt.Format("2006-01-02 15:04:05"))
	}
	return tw.Flush()
}
