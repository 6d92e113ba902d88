package storage

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/hyperjump/featrans/internal/models"
)

// SnapshotInfo describes a stored snapshot.
type SnapshotInfo struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Columns   int       `json:"columns"`
	Features  int       `json:"features"`
	CreatedAt time.Time `json:"created_at"`
}

// SnapshotStore keeps named, versioned engine snapshots.
type SnapshotStore interface {
	Put(ctx context.Context, name string, s *Snapshot) (*SnapshotInfo, error)
	Get(ctx context.Context, id string) (*Snapshot, error)
	Latest(ctx context.Context, name string) (*Snapshot, *SnapshotInfo, error)
	List(ctx context.Context) ([]*SnapshotInfo, error)
	Delete(ctx context.Context, id string) error
	Close() error
}

// SQLiteSnapshots implements SnapshotStore using SQLite.
type SQLiteSnapshots struct {
	db *sql.DB
}

// NewSQLiteSnapshots opens or creates a SQLite database at dbPath and initializes the schema.
// Parent directories are created if they do not exist.
func NewSQLiteSnapshots(dbPath string) (*SQLiteSnapshots, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteSnapshots{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS snapshots (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		columns INTEGER NOT NULL,
		features INTEGER NOT NULL,
		data BLOB NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_snapshots_name ON snapshots(name, created_at);
	`
	_, err := db.Exec(schema)
	return err
}

// Put stores s under name with a fresh ID.
func (s *SQLiteSnapshots) Put(ctx context.Context, name string, snap *Snapshot) (*SnapshotInfo, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, snap); err != nil {
		return nil, err
	}
	info := &SnapshotInfo{
		ID:        uuid.New().String(),
		Name:      name,
		Columns:   len(snap.Transformers),
		Features:  snap.NumFeatures(),
		CreatedAt: time.Now(),
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO snapshots (id, name, columns, features, data, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		info.ID, info.Name, info.Columns, info.Features, buf.Bytes(), info.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to store snapshot: %w", err)
	}
	return info, nil
}

// Get returns the snapshot with the given ID.
func (s *SQLiteSnapshots) Get(ctx context.Context, id string) (*Snapshot, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, `SELECT data FROM snapshots WHERE id = ?`, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", models.ErrSnapshotNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return Decode(bytes.NewReader(data))
}

// Latest returns the most recent snapshot stored under name.
func (s *SQLiteSnapshots) Latest(ctx context.Context, name string) (*Snapshot, *SnapshotInfo, error) {
	var info SnapshotInfo
	var data []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, columns, features, data, created_at
		 FROM snapshots WHERE name = ? ORDER BY created_at DESC, rowid DESC LIMIT 1`, name,
	).Scan(&info.ID, &info.Name, &info.Columns, &info.Features, &data, &info.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, fmt.Errorf("%w: %s", models.ErrSnapshotNotFound, name)
	}
	if err != nil {
		return nil, nil, err
	}
	snap, err := Decode(bytes.NewReader(data))
	if err != nil {
		return nil, nil, err
	}
	return snap, &info, nil
}

// List returns every stored snapshot, newest first.
func (s *SQLiteSnapshots) List(ctx context.Context) ([]*SnapshotInfo, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, columns, features, created_at
		 FROM snapshots ORDER BY created_at DESC, rowid DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var infos []*SnapshotInfo
	for rows.Next() {
		var info SnapshotInfo
		if err := rows.Scan(&info.ID, &info.Name, &info.Columns, &info.Features, &info.CreatedAt); err != nil {
			return nil, err
		}
		infos = append(infos, &info)
	}
	return infos, rows.Err()
}

// Delete removes a snapshot by ID.
func (s *SQLiteSnapshots) Delete(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM snapshots WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("%w: %s", models.ErrSnapshotNotFound, id)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteSnapshots) Close() error {
	return s.db.Close()
}
