package storage

import (
	"context"
	"errors"

	"github.com/subsetdata/bls-connector/internal/core/domain"
)

// ErrNotFound is returned when a named document doesn't exist.
var ErrNotFound = errors.New("storage: not found")

// RawStore persists named raw JSON artifacts (catalog, popular series,
// fetched series data).
type RawStore interface {
	// LoadRaw unmarshals the named artifact into v.
	LoadRaw(ctx context.Context, name string, v any) error

	// SaveRaw marshals v and persists it under name.
	SaveRaw(ctx context.Context, name string, v any) error
}

// StateStore persists incremental fetch state. SaveState must write the
// whole state document in a single durable operation so the completed set
// and the accumulated series data can never diverge.
type StateStore interface {
	// LoadState retrieves the named state document.
	LoadState(ctx context.Context, name string) (*domain.FetchState, error)

	// SaveState durably replaces the named state document.
	SaveState(ctx context.Context, name string, state *domain.FetchState) error

	// ClearState removes the named state document.
	ClearState(ctx context.Context, name string) error
}

// Store combines raw artifact and fetch state persistence.
type Store interface {
	RawStore
	StateStore
}
