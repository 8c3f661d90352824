// Package memory is the default ledger store. It favors clarity over
// performance, the same trade the rest of the in-memory stores make.
package memory

import (
	"context"
	"sort"
	"sync"

	"opsconsole/internal/identity"
	"opsconsole/pkg/platform/sentinel"
)

// Store keeps ledger records in a mutex-guarded map.
type Store struct {
	mu      sync.RWMutex
	records map[string]identity.Record
}

func New() *Store {
	return &Store{records: make(map[string]identity.Record)}
}

func (s *Store) Save(_ context.Context, rec identity.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[rec.UserID] = rec
	return nil
}

func (s *Store) Find(_ context.Context, userID string) (identity.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if rec, ok := s.records[userID]; ok {
		return rec, nil
	}
	return identity.Record{}, sentinel.ErrNotFound
}

func (s *Store) List(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	users := make([]string, 0, len(s.records))
	for id := range s.records {
		users = append(users, id)
	}
	sort.Strings(users)
	return users, nil
}
