package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

// DBFile is the preset database file name inside the venturesim directory.
const DBFile = "presets.db"

// SQLitePresetStore implements PresetStore using SQLite for persistence.
type SQLitePresetStore struct {
	mu     sync.RWMutex
	db     *sql.DB
	dbPath string
}

// NewSQLitePresetStore opens (creating if needed) dir/presets.db.
func NewSQLitePresetStore(dir string) (*SQLitePresetStore, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}

	dbPath := filepath.Join(dir, DBFile)
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite works best with a single writer
	db.SetMaxOpenConns(1)

	if err := InitSchema(context.Background(), db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLitePresetStore{db: db, dbPath: dbPath}, nil
}

// Path returns the database file location.
func (s *SQLitePresetStore) Path() string {
	return s.dbPath
}

// Save inserts or replaces a preset. CreatedAt survives replacement.
func (s *SQLitePresetStore) Save(ctx context.Context, p Preset) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p.Name == "" {
		return fmt.Errorf("preset name is required")
	}

	cfgJSON, err := json.Marshal(p.Config)
	if err != nil {
		return fmt.Errorf("failed to encode preset config: %w", err)
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO presets (name, description, config, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			description = excluded.description,
			config = excluded.config,
			updated_at = excluded.updated_at`,
		p.Name, nullString(p.Description), string(cfgJSON), now, now)
	if err != nil {
		return fmt.Errorf("failed to save preset %s: %w", p.Name, err)
	}
	return nil
}

// Get retrieves a preset by name. Returns nil if not found.
func (s *SQLitePresetStore) Get(ctx context.Context, name string) (*Preset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT name, description, config, created_at, updated_at
		FROM presets WHERE name = ?`, name)

	p, err := scanPreset(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get preset %s: %w", name, err)
	}
	return p, nil
}

// List returns all stored presets ordered by name.
func (s *SQLitePresetStore) List(ctx context.Context) ([]Preset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT name, description, config, created_at, updated_at
		FROM presets ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list presets: %w", err)
	}
	defer rows.Close()

	var presets []Preset
	for rows.Next() {
		p, err := scanPreset(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan preset: %w", err)
		}
		presets = append(presets, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate presets: %w", err)
	}
	return presets, nil
}

// Delete removes a preset by name.
func (s *SQLitePresetStore) Delete(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.ExecContext(ctx, `DELETE FROM presets WHERE name = ?`, name); err != nil {
		return fmt.Errorf("failed to delete preset %s: %w", name, err)
	}
	return nil
}

// Close closes the database.
func (s *SQLitePresetStore) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPreset(row scanner) (*Preset, error) {
	var (
		p                    Preset
		description          sql.NullString
		cfgJSON              string
		createdAt, updatedAt string
	)
	if err := row.Scan(&p.Name, &description, &cfgJSON, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	p.Description = description.String
	if err := json.Unmarshal([]byte(cfgJSON), &p.Config); err != nil {
		return nil, fmt.Errorf("decoding config of preset %s: %w", p.Name, err)
	}
	p.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	p.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedAt)
	return &p, nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
