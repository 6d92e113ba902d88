package main

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/hyperjump/featrans/internal/config"
	"github.com/hyperjump/featrans/internal/dataset"
	"github.com/hyperjump/featrans/internal/models"
	"github.com/hyperjump/featrans/internal/normalizer"
)

func TestArgsReorder(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected []string
	}{
		{
			name:     "flags after index are moved first",
			args:     []string{"3", "-config", "c.yaml"},
			expected: []string{"-config", "c.yaml", "3"},
		},
		{
			name:     "flags first returns unchanged",
			args:     []string{"-config", "c.yaml", "3"},
			expected: []string{"-config", "c.yaml", "3"},
		},
		{
			name:     "index only returns unchanged",
			args:     []string{"3"},
			expected: []string{"3"},
		},
		{
			name:     "empty args returns unchanged",
			args:     []string{},
			expected: []string{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := argsReorder(tt.args)
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("argsReorder() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestParseIndexArg(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    int
		wantErr bool
	}{
		{"zero", []string{"0"}, 0, false},
		{"positive", []string{"42"}, 42, false},
		{"padded", []string{" 7 "}, 7, false},
		{"negative", []string{"-1"}, 0, true},
		{"not a number", []string{"x"}, 0, true},
		{"missing", []string{}, 0, true},
		{"too many", []string{"1", "2"}, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseIndexArg(tt.args)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseIndexArg(%v) error = %v, wantErr %v", tt.args, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("parseIndexArg(%v) = %d, want %d", tt.args, got, tt.want)
			}
		})
	}
}

func TestResolveSnapshotPath(t *testing.T) {
	cfg := &config.Config{Storage: config.StorageConfig{SnapshotPath: "/data/engine.snap"}}
	if got := resolveSnapshotPath(cfg, ""); got != "/data/engine.snap" {
		t.Errorf("got %q", got)
	}
	if got := resolveSnapshotPath(cfg, "/tmp/other.snap"); got != "/tmp/other.snap" {
		t.Errorf("got %q", got)
	}
}

func TestOpenData_NoPath(t *testing.T) {
	if _, err := openData(&config.Config{}, ""); err == nil {
		t.Error("expected error without a data path")
	}
}

func TestOpenData_Override(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.csv")
	if err := os.WriteFile(path, []byte("label,fea\n1,a\n0,b\n"), 0644); err != nil {
		t.Fatal(err)
	}
	frame, err := openData(&config.Config{Data: config.DataConfig{Path: "/nonexistent.csv"}}, path)
	if err != nil {
		t.Fatal(err)
	}
	if frame.Len() != 2 {
		t.Errorf("rows: got %d, want 2", frame.Len())
	}
}

func TestLoadConfig_ExplicitPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := []byte(`engine:
  transformers:
    - {column: label, kind: label}
    - {column: fea, kind: category}
`)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}
	cfg, resolved, err := loadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if resolved != path {
		t.Errorf("resolved: got %q, want %q", resolved, path)
	}
	if want := []string{"label", "fea"}; !reflect.DeepEqual(cfg.Engine.Columns, want) {
		t.Errorf("columns: got %v, want %v", cfg.Engine.Columns, want)
	}
}

func TestInferSpecs(t *testing.T) {
	frame, err := dataset.FromColumns(
		[]string{"clicked", "title", "price", "city", "empty"},
		map[string][]string{
			"clicked": {"1", "0", "1"},
			"title":   {"red shoes", "blue,hat", "scarf"},
			"price":   {"9.5", "", "12"},
			"city":    {"Paris", "Oslo", "Paris"},
			"empty":   {"", " ", ""},
		},
	)
	if err != nil {
		t.Fatal(err)
	}
	got := inferSpecs(frame, "clicked")
	want := []models.ColumnSpec{
		{Column: "clicked", Kind: models.KindLabel},
		{Column: "title", Kind: models.KindText, Extra: textSeparator},
		{Column: "price", Kind: models.KindNumeric, NormType: normalizer.TypeMinMax},
		{Column: "city", Kind: models.KindCategory},
		{Column: "empty", Kind: models.KindCategory},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("inferSpecs() = %+v, want %+v", got, want)
	}
}

func TestInitConfig_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "conf", "config.yaml")
	cfg, err := newInitConfig(exampleSpecs, "/data/train.csv")
	if err != nil {
		t.Fatal(err)
	}
	if err := writeInitConfig(path, cfg, false); err != nil {
		t.Fatal(err)
	}

	loaded, resolved, err := loadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if resolved != path {
		t.Errorf("resolved: got %q", resolved)
	}
	if !reflect.DeepEqual(loaded.Engine.Transformers, exampleSpecs) {
		t.Errorf("transformers: got %+v", loaded.Engine.Transformers)
	}
	if want := []string{"label", "title", "price", "city"}; !reflect.DeepEqual(loaded.Engine.Columns, want) {
		t.Errorf("columns: got %v, want %v", loaded.Engine.Columns, want)
	}
	if loaded.Engine.IndexFrom != 1 || loaded.Engine.CacheSizeOrDefault() != config.DefaultCacheSize {
		t.Errorf("engine: got %+v", loaded.Engine)
	}
	if loaded.Data.Path != "/data/train.csv" {
		t.Errorf("data path: got %q", loaded.Data.Path)
	}
	if got := loaded.Storage.SnapshotPath; got != filepath.Join(dir, "conf", "data", "engine.snap") {
		t.Errorf("snapshot path: got %q", got)
	}

	if err := writeInitConfig(path, cfg, false); err == nil {
		t.Error("expected error when the config already exists")
	}
	if err := writeInitConfig(path, cfg, true); err != nil {
		t.Errorf("force overwrite: %v", err)
	}
}

func TestNewInitConfig_Invalid(t *testing.T) {
	if _, err := newInitConfig(nil, ""); err == nil {
		t.Error("expected error without transformers")
	}
}
