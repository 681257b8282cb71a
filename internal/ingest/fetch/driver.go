// Package fetch drives the batched, resumable download of series data.
//
// Progress is persisted after every batch. A run interrupted by quota
// exhaustion or a crash picks up exactly the remaining series on the next
// invocation; re-fetching a batch is safe because the upstream fetch is
// idempotent.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/subsetdata/bls-connector/internal/bls"
	"github.com/subsetdata/bls-connector/internal/core/domain"
	"github.com/subsetdata/bls-connector/internal/infra/storage"
	"github.com/subsetdata/bls-connector/internal/metrics"
)

// StateName is the persisted state document for the series fetch.
const StateName = "series_data"

// RawName is the raw artifact written once the fetch completes.
const RawName = domain.RawSeriesName

// BatchFetcher fetches one batch of series from the upstream API.
type BatchFetcher interface {
	FetchSeriesBatch(ctx context.Context, seriesIDs []string, startYear, endYear int) ([]domain.SeriesRecord, error)
}

// Driver runs the resumable fetch. It is the single writer of the fetch
// state within a run.
type Driver struct {
	fetcher   BatchFetcher
	store     storage.Store
	batchSize int
	runID     string
	log       *slog.Logger
}

// NewDriver creates a fetch driver.
func NewDriver(fetcher BatchFetcher, store storage.Store, batchSize int, runID string, log *slog.Logger) *Driver {
	if batchSize <= 0 || batchSize > bls.MaxSeriesPerRequest {
		batchSize = bls.MaxSeriesPerRequest
	}
	return &Driver{
		fetcher:   fetcher,
		store:     store,
		batchSize: batchSize,
		runID:     runID,
		log:       log,
	}
}

// Run fetches all series not yet completed in the persisted state. It
// returns continuation=true when the daily quota ran out and the run
// should be repeated after the quota resets; any other batch failure is
// propagated after the state has been flushed.
func (d *Driver) Run(ctx context.Context, seriesIDs []string, startYear, endYear int) (continuation bool, err error) {
	state, err := d.loadState(ctx)
	if err != nil {
		return false, err
	}

	if state.Completed {
		d.log.Info("All series already fetched")
		return false, nil
	}

	completed := state.CompletedSet()
	remaining := make([]string, 0, len(seriesIDs))
	for _, id := range seriesIDs {
		if !completed[id] {
			remaining = append(remaining, id)
		}
	}

	d.log.Info("Fetching series data",
		"selected", len(seriesIDs),
		"remaining", len(remaining),
		"years", fmt.Sprintf("%d-%d", startYear, endYear))

	if len(remaining) == 0 {
		return false, d.finish(ctx, state, startYear, endYear)
	}

	totalBatches := (len(remaining) + d.batchSize - 1) / d.batchSize
	for i := 0; i < len(remaining); i += d.batchSize {
		batch := remaining[i:min(i+d.batchSize, len(remaining))]
		batchNum := i/d.batchSize + 1

		d.log.Info("Fetching batch",
			"batch", batchNum, "total", totalBatches, "series", len(batch))

		records, fetchErr := d.fetcher.FetchSeriesBatch(ctx, batch, startYear, endYear)
		if fetchErr != nil {
			// Durability point: flush progress before deciding how to stop.
			if saveErr := d.saveState(ctx, state); saveErr != nil {
				return false, errors.Join(fetchErr, saveErr)
			}
			if errors.Is(fetchErr, bls.ErrQuotaExhausted) {
				d.log.Warn("Daily quota exhausted, stopping for today",
					"batch", batchNum, "completed_series", len(state.CompletedSeries))
				return true, nil
			}
			return false, fmt.Errorf("batch %d/%d failed: %w", batchNum, totalBatches, fetchErr)
		}

		state.SeriesData = append(state.SeriesData, records...)
		state.CompletedSeries = append(state.CompletedSeries, dedupAgainst(completed, batch)...)
		if err := d.saveState(ctx, state); err != nil {
			return false, err
		}

		metrics.BatchesFetched.Inc()
		metrics.SeriesFetched.Add(float64(len(records)))
		d.log.Debug("Batch complete", "batch", batchNum, "retrieved", len(records))
	}

	return false, d.finish(ctx, state, startYear, endYear)
}

// finish writes the raw artifact and replaces the incremental state with
// the terminal marker.
func (d *Driver) finish(ctx context.Context, state *domain.FetchState, startYear, endYear int) error {
	d.log.Info("Fetch complete", "series_with_data", len(state.SeriesData))

	raw := domain.RawSeriesData{
		Series:    state.SeriesData,
		StartYear: startYear,
		EndYear:   endYear,
	}
	if err := d.store.SaveRaw(ctx, RawName, raw); err != nil {
		return fmt.Errorf("failed to save raw series data: %w", err)
	}

	terminal := &domain.FetchState{Completed: true, RunID: d.runID, UpdatedAt: time.Now().UTC()}
	if err := d.store.SaveState(ctx, StateName, terminal); err != nil {
		return fmt.Errorf("failed to save terminal state: %w", err)
	}
	return nil
}

func (d *Driver) loadState(ctx context.Context) (*domain.FetchState, error) {
	state, err := d.store.LoadState(ctx, StateName)
	if errors.Is(err, storage.ErrNotFound) {
		return &domain.FetchState{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load fetch state: %w", err)
	}
	return state, nil
}

func (d *Driver) saveState(ctx context.Context, state *domain.FetchState) error {
	state.RunID = d.runID
	state.UpdatedAt = time.Now().UTC()
	if err := d.store.SaveState(ctx, StateName, state); err != nil {
		return fmt.Errorf("failed to save fetch state: %w", err)
	}
	return nil
}

// dedupAgainst marks and returns the batch IDs not already in the
// completed set, so repeated selections don't inflate it.
func dedupAgainst(completed map[string]bool, batch []string) []string {
	fresh := make([]string, 0, len(batch))
	for _, id := range batch {
		if !completed[id] {
			completed[id] = true
			fresh = append(fresh, id)
		}
	}
	return fresh
}
