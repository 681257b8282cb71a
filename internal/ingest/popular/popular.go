// Package popular fetches the popular-series lists used as the fallback
// selection source for surveys missing from the crawled catalog.
package popular

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/subsetdata/bls-connector/internal/bls"
	"github.com/subsetdata/bls-connector/internal/core/domain"
	"github.com/subsetdata/bls-connector/internal/infra/storage"
)

const (
	rawName        = "popular_series"
	surveysRawName = "surveys"
)

// APIClient is the slice of the BLS client this ingest uses.
type APIClient interface {
	GetSurveys(ctx context.Context) ([]domain.Survey, error)
	GetPopularSeries(ctx context.Context, survey string) ([]domain.PopularSeries, error)
}

// Run returns popular series overall and per survey. A previously persisted
// artifact is reused as-is; quota exhaustion mid-fetch stops gracefully and
// keeps whatever was gathered, since this source is a best-effort fallback.
func Run(ctx context.Context, client APIClient, store storage.RawStore, log *slog.Logger) (*domain.PopularData, error) {
	var existing domain.PopularData
	err := store.LoadRaw(ctx, rawName, &existing)
	if err == nil && (len(existing.Overall) > 0 || len(existing.BySurvey) > 0) {
		log.Info("Popular series artifact already exists, skipping fetch",
			"overall", len(existing.Overall), "surveys", len(existing.BySurvey))
		return &existing, nil
	}
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("failed to load popular series artifact: %w", err)
	}

	data := &domain.PopularData{BySurvey: make(map[string][]domain.PopularSeries)}

	log.Info("Fetching overall popular series")
	overall, err := client.GetPopularSeries(ctx, "")
	if err != nil {
		if errors.Is(err, bls.ErrQuotaExhausted) {
			log.Warn("Daily API quota exceeded, skipping popular series fetch")
			return data, nil
		}
		return nil, fmt.Errorf("failed to fetch overall popular series: %w", err)
	}
	data.Overall = overall

	surveys, err := loadSurveys(ctx, client, store, log)
	if err != nil {
		if errors.Is(err, bls.ErrQuotaExhausted) {
			log.Warn("Daily API quota exceeded fetching surveys")
			return data, nil
		}
		return nil, err
	}

	log.Info("Fetching popular series per survey", "surveys", len(surveys))
	for _, survey := range surveys {
		if survey.Abbreviation == "" {
			continue
		}
		series, err := client.GetPopularSeries(ctx, survey.Abbreviation)
		if err != nil {
			if errors.Is(err, bls.ErrQuotaExhausted) {
				log.Warn("Daily API quota exceeded", "survey", survey.Abbreviation)
				break
			}
			return nil, fmt.Errorf("failed to fetch popular series for %s: %w", survey.Abbreviation, err)
		}
		if len(series) > 0 {
			data.BySurvey[survey.Abbreviation] = series
		}
	}

	total := 0
	for _, s := range data.BySurvey {
		total += len(s)
	}
	log.Info("Popular series fetched", "overall", len(data.Overall), "by_survey", total)

	if err := store.SaveRaw(ctx, rawName, data); err != nil {
		return nil, fmt.Errorf("failed to save popular series artifact: %w", err)
	}
	return data, nil
}

// loadSurveys returns the survey list, reusing a persisted artifact when
// present.
func loadSurveys(ctx context.Context, client APIClient, store storage.RawStore, log *slog.Logger) ([]domain.Survey, error) {
	var existing []domain.Survey
	err := store.LoadRaw(ctx, surveysRawName, &existing)
	if err == nil && len(existing) > 0 {
		return existing, nil
	}
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("failed to load surveys artifact: %w", err)
	}

	log.Info("Fetching survey list")
	surveys, err := client.GetSurveys(ctx)
	if err != nil {
		return nil, err
	}
	if err := store.SaveRaw(ctx, surveysRawName, surveys); err != nil {
		return nil, fmt.Errorf("failed to save surveys artifact: %w", err)
	}
	return surveys, nil
}
