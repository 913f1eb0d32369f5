package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/mikey/llm-mail-triage/internal/core"
)

// SQLiteStore is a SQLite implementation of the ProfileStore interface.
// The profile and its build timestamp live in a single row so the record
// is always written and cleared as a unit.
type SQLiteStore struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewSQLiteStore creates a new SQLite profile store
func NewSQLiteStore(dbPath string, logger *zap.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS priority_profile (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			profile_json TEXT NOT NULL,
			built_at TIMESTAMP NOT NULL
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	return &SQLiteStore{
		db:     db,
		logger: logger,
	}, nil
}

// Get retrieves the persisted record
func (s *SQLiteStore) Get(ctx context.Context) (*core.ProfileRecord, error) {
	var profileJSON string
	var builtAt time.Time

	err := s.db.QueryRowContext(ctx, `
		SELECT profile_json, built_at FROM priority_profile WHERE id = 1
	`).Scan(&profileJSON, &builtAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, core.ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to query profile: %w", err)
	}

	var profile core.UserProfile
	if err := json.Unmarshal([]byte(profileJSON), &profile); err != nil {
		return nil, fmt.Errorf("failed to decode persisted profile: %w", err)
	}

	return &core.ProfileRecord{Profile: profile, BuiltAt: builtAt}, nil
}

// Set stores the record in one statement, replacing any previous one
func (s *SQLiteStore) Set(ctx context.Context, record *core.ProfileRecord) error {
	profileJSON, err := json.Marshal(record.Profile)
	if err != nil {
		return fmt.Errorf("failed to encode profile: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO priority_profile (id, profile_json, built_at)
		VALUES (1, ?, ?)
	`, string(profileJSON), record.BuiltAt)
	if err != nil {
		return fmt.Errorf("failed to store profile: %w", err)
	}
	return nil
}

// Clear removes the record
func (s *SQLiteStore) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM priority_profile WHERE id = 1`); err != nil {
		return fmt.Errorf("failed to clear profile: %w", err)
	}
	return nil
}

// Close closes the underlying database
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
