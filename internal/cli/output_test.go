package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"iter"
	"strings"
	"testing"
	"time"

	"github.com/hyperjump/featrans/internal/models"
	"github.com/hyperjump/featrans/internal/storage"
)

func seqOf(samples []*models.Sample, tail error) iter.Seq2[*models.Sample, error] {
	return func(yield func(*models.Sample, error) bool) {
		for _, s := range samples {
			if !yield(s, nil) {
				return
			}
		}
		if tail != nil {
			yield(nil, tail)
		}
	}
}

var samples = []*models.Sample{
	{Label: models.LabelPositive, Features: models.SparseVector{{Index: 0, Value: 2}, {Index: 5, Value: 0.5}}},
	{Label: models.LabelNegative, Features: models.SparseVector{}},
}

func TestParseOutputFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    OutputFormat
		wantErr bool
	}{
		{"", OutputLibSVM, false},
		{"libsvm", OutputLibSVM, false},
		{"json", OutputJSON, false},
		{"csv", "", true},
	}
	for _, tt := range tests {
		got, err := ParseOutputFormat(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseOutputFormat(%q) error = %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ParseOutputFormat(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestWriteSamples_libsvm(t *testing.T) {
	var buf bytes.Buffer
	n, err := WriteSamples(&buf, seqOf(samples, nil), OutputLibSVM)
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("n = %d", n)
	}
	if got := buf.String(); got != "1 0:2 5:0.5\n-1\n" {
		t.Errorf("got %q", got)
	}
}

func TestWriteSamples_json(t *testing.T) {
	var buf bytes.Buffer
	if _, err := WriteSamples(&buf, seqOf(samples, nil), OutputJSON); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	var first models.Sample
	if err := json.Unmarshal([]byte(lines[0]), &first); err != nil {
		t.Fatal(err)
	}
	if first.Label != models.LabelPositive || len(first.Features) != 2 || first.Features[1].Index != 5 {
		t.Errorf("first = %+v", first)
	}
}

func TestWriteSamples_stopsAtError(t *testing.T) {
	boom := errors.New("row 1: boom")
	var buf bytes.Buffer
	n, err := WriteSamples(&buf, seqOf(samples[:1], boom), OutputLibSVM)
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if n != 1 || buf.String() != "1 0:2 5:0.5\n" {
		t.Errorf("n = %d, out = %q", n, buf.String())
	}
}

func TestWriteSnapshots(t *testing.T) {
	infos := []*storage.SnapshotInfo{{
		ID: "abc", Name: "ctr", Columns: 3, Features: 6,
		CreatedAt: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
	}}
	var buf bytes.Buffer
	if err := WriteSnapshots(&buf, infos, false); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, "ID") || !strings.Contains(out, "ctr") || !strings.Contains(out, "2024-05-01 10:00:00") {
		t.Errorf("table output: %q", out)
	}

	buf.Reset()
	if err := WriteSnapshots(&buf, nil, true); err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(buf.String()) != "[]" {
		t.Errorf("empty json: %q", buf.String())
	}
}
