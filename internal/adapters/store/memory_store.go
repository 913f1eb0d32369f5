// Package store implements profile record persistence.
package store

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/mikey/llm-mail-triage/internal/core"
)

// MemoryStore is an in-memory implementation of the ProfileStore interface
type MemoryStore struct {
	mu     sync.RWMutex
	record *core.ProfileRecord
	logger *zap.Logger
}

// NewMemoryStore creates a new in-memory profile store
func NewMemoryStore(logger *zap.Logger) *MemoryStore {
	return &MemoryStore{
		logger: logger,
	}
}

// Get retrieves the persisted record
func (s *MemoryStore) Get(ctx context.Context) (*core.ProfileRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.record == nil {
		return nil, core.ErrProfileNotFound
	}
	record := *s.record
	return &record, nil
}

// Set stores the record, replacing any previous one
func (s *MemoryStore) Set(ctx context.Context, record *core.ProfileRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *record
	s.record = &stored
	return nil
}

// Clear removes the record and its timestamp as a unit
func (s *MemoryStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.record = nil
	return nil
}
