// Package file implements storage over a local data directory, mirroring
// the layout raw/<name>.json and state/<name>.json.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/subsetdata/bls-connector/internal/core/domain"
	"github.com/subsetdata/bls-connector/internal/infra/storage"
)

// Store implements storage.Store on the local filesystem.
type Store struct {
	dataDir string
}

// NewStore creates the data directory layout if needed.
func NewStore(dataDir string) (*Store, error) {
	for _, sub := range []string{"raw", "state"} {
		if err := os.MkdirAll(filepath.Join(dataDir, sub), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create data dir: %w", err)
		}
	}
	return &Store{dataDir: dataDir}, nil
}

func (s *Store) rawPath(name string) string {
	return filepath.Join(s.dataDir, "raw", name+".json")
}

func (s *Store) statePath(name string) string {
	return filepath.Join(s.dataDir, "state", name+".json")
}

// LoadRaw implements storage.RawStore.
func (s *Store) LoadRaw(_ context.Context, name string, v any) error {
	return readJSON(s.rawPath(name), v)
}

// SaveRaw implements storage.RawStore.
func (s *Store) SaveRaw(_ context.Context, name string, v any) error {
	return writeJSON(s.rawPath(name), v)
}

// LoadState implements storage.StateStore.
func (s *Store) LoadState(_ context.Context, name string) (*domain.FetchState, error) {
	var state domain.FetchState
	if err := readJSON(s.statePath(name), &state); err != nil {
		return nil, err
	}
	return &state, nil
}

// SaveState implements storage.StateStore. The whole document is written
// to a temp file and renamed into place, so a crash mid-write leaves the
// previous state intact.
func (s *Store) SaveState(_ context.Context, name string, state *domain.FetchState) error {
	return writeJSON(s.statePath(name), state)
}

// ClearState implements storage.StateStore.
func (s *Store) ClearState(_ context.Context, name string) error {
	err := os.Remove(s.statePath(name))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return storage.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return nil
}

func writeJSON(path string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}
