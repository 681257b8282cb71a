// Package memory implements storage in process memory. Used in tests and
// for dry runs where nothing should touch disk.
package memory

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/subsetdata/bls-connector/internal/core/domain"
	"github.com/subsetdata/bls-connector/internal/infra/storage"
)

// Store implements storage.Store in memory. Values are copied through JSON
// so callers can't mutate stored documents.
type Store struct {
	mu     sync.RWMutex
	raw    map[string][]byte
	states map[string][]byte
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{
		raw:    make(map[string][]byte),
		states: make(map[string][]byte),
	}
}

// LoadRaw implements storage.RawStore.
func (s *Store) LoadRaw(_ context.Context, name string, v any) error {
	s.mu.RLock()
	data, ok := s.raw[name]
	s.mu.RUnlock()

	if !ok {
		return storage.ErrNotFound
	}
	return json.Unmarshal(data, v)
}

// SaveRaw implements storage.RawStore.
func (s *Store) SaveRaw(_ context.Context, name string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.raw[name] = data
	s.mu.Unlock()
	return nil
}

// LoadState implements storage.StateStore.
func (s *Store) LoadState(_ context.Context, name string) (*domain.FetchState, error) {
	s.mu.RLock()
	data, ok := s.states[name]
	s.mu.RUnlock()

	if !ok {
		return nil, storage.ErrNotFound
	}

	var state domain.FetchState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

// SaveState implements storage.StateStore.
func (s *Store) SaveState(_ context.Context, name string, state *domain.FetchState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.states[name] = data
	s.mu.Unlock()
	return nil
}

// ClearState implements storage.StateStore.
func (s *Store) ClearState(_ context.Context, name string) error {
	s.mu.Lock()
	delete(s.states, name)
	s.mu.Unlock()
	return nil
}
