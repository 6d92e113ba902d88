package storage

import (
	"bytes"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/hyperjump/featrans/internal/models"
	"github.com/hyperjump/featrans/internal/normalizer"
	"github.com/hyperjump/featrans/internal/transformer"
)

func sampleSnapshot() *Snapshot {
	return &Snapshot{Transformers: map[string]*transformer.State{
		"label": {Column: "label", Kind: models.KindLabel},
		"fea1": {
			Column:     "fea1",
			Kind:       models.KindText,
			Separator:  ",",
			Keys:       []string{"a", "c"},
			Observed:   [][]float64{{2, 1}, {1}},
			NumSamples: 3,
			Normalizer: &normalizer.State{
				Type:   normalizer.TypeMinMax,
				Ranges: map[int]normalizer.Range{0: {Min: 0, Max: 2}, 1: {Min: 0, Max: 1}},
			},
		},
		"fea2": {Column: "fea2", Kind: models.KindNumeric, Default: 1.5, Keys: []string{"fea2"}, Observed: [][]float64{{1, 2, 3}}, NumSamples: 3},
	}}
}

func TestEncodeDecode(t *testing.T) {
	want := sampleSnapshot()
	var buf bytes.Buffer
	if err := Encode(&buf, want); err != nil {
		t.Fatal(err)
	}
	got, err := Decode(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if got.Version != SnapshotVersion {
		t.Errorf("Version = %d", got.Version)
	}
	if !reflect.DeepEqual(got.Transformers["fea1"], want.Transformers["fea1"]) {
		t.Errorf("fea1 = %+v, want %+v", got.Transformers["fea1"], want.Transformers["fea1"])
	}
	if got.Transformers["fea2"].Default != 1.5 {
		t.Errorf("fea2 default = %v", got.Transformers["fea2"].Default)
	}
	if got.NumFeatures() != 3 {
		t.Errorf("NumFeatures = %d, want 3", got.NumFeatures())
	}
}

func TestDecode_garbage(t *testing.T) {
	if _, err := Decode(bytes.NewReader([]byte("not a snapshot"))); err == nil {
		t.Error("expected decode error")
	}
}

func TestSaveLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "engine.snap")
	if err := SaveFile(path, sampleSnapshot()); err != nil {
		t.Fatal(err)
	}
	got, err := LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Transformers) != 3 {
		t.Errorf("got %d transformers", len(got.Transformers))
	}
	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.snap")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestSaveFile_replacesWithoutLeftovers(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "engine.snap")
	if err := SaveFile(path, sampleSnapshot()); err != nil {
		t.Fatal(err)
	}
	small := &Snapshot{Transformers: map[string]*transformer.State{
		"label": {Column: "label", Kind: models.KindLabel},
	}}
	if err := SaveFile(path, small); err != nil {
		t.Fatal(err)
	}
	got, err := LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Transformers) != 1 {
		t.Errorf("got %d transformers, want 1", len(got.Transformers))
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("dir entries: got %d, want 1", len(entries))
	}
}
