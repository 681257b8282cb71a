package file

import (
	"context"
	"errors"
	"testing"

	"github.com/subsetdata/bls-connector/internal/core/domain"
	"github.com/subsetdata/bls-connector/internal/infra/storage"
)

func TestStore_RawRoundTrip(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	ctx := context.Background()

	in := domain.PopularData{
		Overall:  []domain.PopularSeries{{SeriesID: "LNS14000000"}},
		BySurvey: map[string][]domain.PopularSeries{"CU": {{SeriesID: "CUUR0000SA0"}}},
	}
	if err := store.SaveRaw(ctx, "popular_series", in); err != nil {
		t.Fatalf("SaveRaw failed: %v", err)
	}

	var out domain.PopularData
	if err := store.LoadRaw(ctx, "popular_series", &out); err != nil {
		t.Fatalf("LoadRaw failed: %v", err)
	}
	if len(out.Overall) != 1 || out.Overall[0].SeriesID != "LNS14000000" {
		t.Errorf("Unexpected round trip: %+v", out)
	}
}

func TestStore_LoadMissing(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}

	var out domain.PopularData
	if err := store.LoadRaw(context.Background(), "absent", &out); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
	if _, err := store.LoadState(context.Background(), "absent"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestStore_StateLifecycle(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	ctx := context.Background()

	state := &domain.FetchState{
		CompletedSeries: []string{"A", "B"},
		SeriesData:      []domain.SeriesRecord{{SeriesID: "A"}},
	}
	if err := store.SaveState(ctx, "series_data", state); err != nil {
		t.Fatalf("SaveState failed: %v", err)
	}

	loaded, err := store.LoadState(ctx, "series_data")
	if err != nil {
		t.Fatalf("LoadState failed: %v", err)
	}
	if len(loaded.CompletedSeries) != 2 || len(loaded.SeriesData) != 1 {
		t.Errorf("Unexpected state: %+v", loaded)
	}

	if err := store.ClearState(ctx, "series_data"); err != nil {
		t.Fatalf("ClearState failed: %v", err)
	}
	if _, err := store.LoadState(ctx, "series_data"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound after clear, got %v", err)
	}

	// Clearing a missing state is not an error
	if err := store.ClearState(ctx, "series_data"); err != nil {
		t.Errorf("ClearState on missing state failed: %v", err)
	}
}
