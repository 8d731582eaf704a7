package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
	_ "modernc.org/sqlite"

	"github.com/tatianab/saga/internal/models"
)

// SQLiteStore keeps sessions as YAML documents in a single SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

var _ Store = (*SQLiteStore)(nil)

// OpenSQLite opens or creates the database at path.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set WAL mode: %w", err)
	}
	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS sessions (
			name        TEXT PRIMARY KEY,
			view        TEXT NOT NULL,
			document    TEXT NOT NULL,
			updated_at  TEXT NOT NULL
		)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Save(ctx context.Context, name string, state *models.State) error {
	if err := checkName(name); err != nil {
		return err
	}
	doc, err := yaml.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO sessions (name, view, document, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			view = excluded.view,
			document = excluded.document,
			updated_at = excluded.updated_at
	`, name, string(state.View), string(doc), time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("save session %s: %w", name, err)
	}
	return nil
}

func (s *SQLiteStore) Load(ctx context.Context, name string) (*models.State, error) {
	if err := checkName(name); err != nil {
		return nil, err
	}
	var doc string
	err := s.db.QueryRowContext(ctx, `SELECT document FROM sessions WHERE name = ?`, name).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("load session %s: %w", name, err)
	}
	var state models.State
	if err := yaml.Unmarshal([]byte(doc), &state); err != nil {
		return nil, fmt.Errorf("parse session %s: %w", name, err)
	}
	return &state, nil
}

func (s *SQLiteStore) List(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name FROM sessions ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
