// Package storage persists engine snapshots: a gob file codec and a SQLite
// catalogue of named snapshots.
package storage

import (
	"encoding/gob"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/hyperjump/featrans/internal/transformer"
)

// SnapshotVersion is the format version written by Encode.
const SnapshotVersion = 2

// Snapshot is the learned state of an engine, one transformer per configured
// column. Output columns and the first index are configuration and are not part of it.
type Snapshot struct {
	Version      int
	Transformers map[string]*transformer.State
}

// NumFeatures returns the total number of features over all transformers.
func (s *Snapshot) NumFeatures() int {
	n := 0
	for _, st := range s.Transformers {
		n += len(st.Keys)
	}
	return n
}

// Encode writes s to w.
func Encode(w io.Writer, s *Snapshot) error {
	out := *s
	out.Version = SnapshotVersion
	if err := gob.NewEncoder(w).Encode(&out); err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	return nil
}

// Decode reads a snapshot written by Encode.
func Decode(r io.Reader) (*Snapshot, error) {
	var s Snapshot
	if err := gob.NewDecoder(r).Decode(&s); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	if s.Version != SnapshotVersion {
		return nil, fmt.Errorf("unsupported snapshot version %d (expected %d)", s.Version, SnapshotVersion)
	}
	if s.Transformers == nil {
		s.Transformers = make(map[string]*transformer.State)
	}
	return &s, nil
}

// SaveFile writes s to path through a temporary file in the same directory,
// so readers never observe a partial snapshot. The parent directory is created if needed.
func SaveFile(path string, s *Snapshot) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}
	f, err := os.CreateTemp(dir, ".snapshot-*")
	if err != nil {
		return fmt.Errorf("create snapshot file: %w", err)
	}
	tmp := f.Name()
	if err := Encode(f, s); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("write snapshot file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace snapshot file: %w", err)
	}
	return nil
}

// LoadFile reads the snapshot at path.
func LoadFile(path string) (*Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open snapshot file: %w", err)
	}
	defer f.Close()
	return Decode(f)
}
