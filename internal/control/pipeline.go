// Package control wires the ingest and transform stages into a single
// scheduled run.
package control

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/subsetdata/bls-connector/internal/core/config"
	"github.com/subsetdata/bls-connector/internal/core/domain"
	"github.com/subsetdata/bls-connector/internal/ingest/catalog"
	"github.com/subsetdata/bls-connector/internal/ingest/fetch"
	"github.com/subsetdata/bls-connector/internal/ingest/popular"
	"github.com/subsetdata/bls-connector/internal/infra/storage"
	"github.com/subsetdata/bls-connector/internal/transform"
)

// catalogRawName is the persisted catalog artifact. Once converted from
// the configured source file it is reused on later runs.
const catalogRawName = "series_catalog"

// Outcome describes how a run ended.
type Outcome int

const (
	// OutcomeComplete means all selected series were fetched and every
	// mapped dataset was processed.
	OutcomeComplete Outcome = iota
	// OutcomeQuotaContinuation means the daily quota ran out mid-fetch.
	// Progress is persisted; the run should be repeated after the quota
	// resets.
	OutcomeQuotaContinuation
)

// APIClient is the upstream surface the pipeline needs.
type APIClient interface {
	popular.APIClient
	fetch.BatchFetcher
}

// RunOptions selects which pipeline phases to execute.
type RunOptions struct {
	IngestOnly    bool
	TransformOnly bool
	SkipPopular   bool // skip the popular-series ingest, use catalog and fallbacks only
}

// Pipeline runs ingest followed by transform against one storage backend.
type Pipeline struct {
	client APIClient
	store  storage.Store
	pub    transform.Publisher
	cfg    *config.AppConfig
	runID  string
	log    *slog.Logger
	now    func() time.Time
}

func NewPipeline(client APIClient, store storage.Store, pub transform.Publisher, cfg *config.AppConfig, runID string, log *slog.Logger) *Pipeline {
	return &Pipeline{
		client: client,
		store:  store,
		pub:    pub,
		cfg:    cfg,
		runID:  runID,
		log:    log,
		now:    time.Now,
	}
}

// Run executes the selected phases. A quota exhaustion during ingest ends
// the run early with OutcomeQuotaContinuation and no transform.
func (p *Pipeline) Run(ctx context.Context, opts RunOptions) (Outcome, error) {
	if !opts.TransformOnly {
		continuation, err := p.ingest(ctx, opts)
		if err != nil {
			return OutcomeComplete, err
		}
		if continuation {
			return OutcomeQuotaContinuation, nil
		}
	}

	if !opts.IngestOnly {
		if _, err := transform.Run(ctx, p.store, p.pub, p.runID, p.log); err != nil {
			return OutcomeComplete, err
		}
	}
	return OutcomeComplete, nil
}

func (p *Pipeline) ingest(ctx context.Context, opts RunOptions) (continuation bool, err error) {
	entries, err := p.loadCatalog(ctx)
	if err != nil {
		return false, err
	}

	var popularData *domain.PopularData
	if opts.SkipPopular {
		p.log.Info("Skipping popular series ingest")
	} else {
		popularData, err = popular.Run(ctx, p.client, p.store, p.log)
		if err != nil {
			return false, err
		}
	}

	sel := p.cfg.Selection
	seriesIDs := catalog.Select(entries, popularData, catalog.SelectOptions{
		PerSurveyQuota:    sel.PerSurveyQuota,
		HighVolumeQuota:   sel.HighVolumeQuota,
		HighVolumeSurveys: sel.HighVolumeSurveys,
		FallbackSeries:    sel.FallbackSeries,
	})
	if len(seriesIDs) == 0 {
		return false, errors.New("no series selected; configure a catalog or fallback series")
	}

	startYear, endYear := yearRange(p.now(), p.cfg.Fetch.YearSpan)
	driver := fetch.NewDriver(p.client, p.store, p.cfg.Fetch.BatchSize, p.runID, p.log)
	return driver.Run(ctx, seriesIDs, startYear, endYear)
}

// loadCatalog returns the persisted catalog artifact, converting the
// configured source file on first use. No catalog at all is allowed; the
// selection then relies on popular series and configured fallbacks.
func (p *Pipeline) loadCatalog(ctx context.Context) ([]domain.CatalogEntry, error) {
	var entries []domain.CatalogEntry
	err := p.store.LoadRaw(ctx, catalogRawName, &entries)
	if err == nil {
		p.log.Info("Using stored series catalog", "entries", len(entries))
		return entries, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("failed to load catalog artifact: %w", err)
	}

	path := p.cfg.Selection.CatalogPath
	if path == "" {
		p.log.Warn("No series catalog configured")
		return nil, nil
	}

	entries, err = catalog.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog from %s: %w", path, err)
	}
	if err := p.store.SaveRaw(ctx, catalogRawName, entries); err != nil {
		return nil, fmt.Errorf("failed to persist catalog artifact: %w", err)
	}
	p.log.Info("Converted series catalog", "path", path, "entries", len(entries))
	return entries, nil
}

// yearRange computes the fetch window ending at the last year with
// substantially complete data. Early in a calendar year most annual series
// have not published yet, so through February the window ends at the
// previous year.
func yearRange(now time.Time, span int) (startYear, endYear int) {
	endYear = now.Year()
	if now.Month() <= time.February {
		endYear--
	}
	if span <= 0 {
		span = 20
	}
	return endYear - span + 1, endYear
}
