package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/subsetdata/bls-connector/internal/core/domain"
	"github.com/subsetdata/bls-connector/internal/infra/storage"
)

// Store implements storage.Store backed by PostgreSQL.
type Store struct {
	db *DB
}

// NewStore creates a PostgreSQL-backed store.
func NewStore(db *DB) *Store {
	return &Store{db: db}
}

const upsertDoc = `
INSERT INTO %s (name, body, updated_at)
VALUES ($1, $2, now())
ON CONFLICT (name) DO UPDATE SET body = EXCLUDED.body, updated_at = now()`

// LoadRaw implements storage.RawStore.
func (s *Store) LoadRaw(ctx context.Context, name string, v any) error {
	return s.load(ctx, "raw_documents", name, v)
}

// SaveRaw implements storage.RawStore.
func (s *Store) SaveRaw(ctx context.Context, name string, v any) error {
	return s.save(ctx, "raw_documents", name, v)
}

// LoadState implements storage.StateStore.
func (s *Store) LoadState(ctx context.Context, name string) (*domain.FetchState, error) {
	var state domain.FetchState
	if err := s.load(ctx, "fetch_states", name, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

// SaveState implements storage.StateStore. One upsert carries the whole
// document, so the completed set and series data commit together.
func (s *Store) SaveState(ctx context.Context, name string, state *domain.FetchState) error {
	return s.save(ctx, "fetch_states", name, state)
}

// ClearState implements storage.StateStore.
func (s *Store) ClearState(ctx context.Context, name string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM fetch_states WHERE name = $1`, name)
	if err != nil {
		return fmt.Errorf("failed to clear state %s: %w", name, err)
	}
	return nil
}

func (s *Store) load(ctx context.Context, table, name string, v any) error {
	var body []byte
	query := fmt.Sprintf(`SELECT body FROM %s WHERE name = $1`, table)
	err := s.db.QueryRowxContext(ctx, query, name).Scan(&body)
	if isNoRows(err) {
		return storage.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to load %s/%s: %w", table, name, err)
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("failed to decode %s/%s: %w", table, name, err)
	}
	return nil
}

func (s *Store) save(ctx context.Context, table, name string, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s/%s: %w", table, name, err)
	}
	if _, err := s.db.ExecContext(ctx, fmt.Sprintf(upsertDoc, table), name, body); err != nil {
		return fmt.Errorf("failed to save %s/%s: %w", table, name, err)
	}
	return nil
}
