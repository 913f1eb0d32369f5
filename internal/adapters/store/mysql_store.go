package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"go.uber.org/zap"

	"github.com/mikey/llm-mail-triage/internal/core"
)

// MySQLStore is a MySQL implementation of the ProfileStore interface
type MySQLStore struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewMySQLStore creates a new MySQL profile store
func NewMySQLStore(dsn string, logger *zap.Logger) (*MySQLStore, error) {
	db, err := sql.Open("mysql", dsn+"?parseTime=true")
	if err != nil {
		return nil, fmt.Errorf("failed to open MySQL connection: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping MySQL: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS priority_profile (
			id TINYINT PRIMARY KEY,
			profile_json TEXT NOT NULL,
			built_at TIMESTAMP NOT NULL
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	return &MySQLStore{
		db:     db,
		logger: logger,
	}, nil
}

// Get retrieves the persisted record
func (s *MySQLStore) Get(ctx context.Context) (*core.ProfileRecord, error) {
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
func (s *MySQLStore) Set(ctx context.Context, record *core.ProfileRecord) error {
	profileJSON, err := json.Marshal(record.Profile)
	if err != nil {
		return fmt.Errorf("failed to encode profile: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO priority_profile (id, profile_json, built_at)
		VALUES (1, ?, ?)
		ON DUPLICATE KEY UPDATE profile_json = VALUES(profile_json), built_at = VALUES(built_at)
	`, string(profileJSON), record.BuiltAt)
	if err != nil {
		return fmt.Errorf("failed to store profile: %w", err)
	}
	return nil
}

// Clear removes the record
func (s *MySQLStore) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM priority_profile WHERE id = 1`); err != nil {
		return fmt.Errorf("failed to clear profile: %w", err)
	}
	return nil
}

// Close closes the underlying database
func (s *MySQLStore) Close() error {
	return s.db.Close()
}
