// Package transform reshapes raw series records into topic-partitioned
// datasets. Rows are grouped by survey, dimensions that never vary within
// a group are lifted out of the schema into metadata, and each group is
// published as one dataset.
package transform

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/subsetdata/bls-connector/internal/core/domain"
	"github.com/subsetdata/bls-connector/internal/infra/storage"
	"github.com/subsetdata/bls-connector/internal/metrics"
)

// Publisher receives finished datasets and their metadata.
type Publisher interface {
	Upload(ctx context.Context, dataset *domain.Dataset) error
	Publish(ctx context.Context, meta domain.DatasetMetadata) error
}

// Result summarizes a transform run.
type Result struct {
	Published        int
	FailedValidation int
	SkippedSurveys   int
}

// record is one normalized observation with its descriptive dimensions.
type record struct {
	survey    string
	indicator string
	dims      map[string]string
	value     float64
}

// Run loads the raw series artifact, builds one dataset per mapped survey,
// validates, and publishes. A dataset failing validation is logged and
// skipped; the remaining topics continue.
func Run(ctx context.Context, store storage.RawStore, pub Publisher, runID string, log *slog.Logger) (Result, error) {
	var raw domain.RawSeriesData
	if err := store.LoadRaw(ctx, domain.RawSeriesName, &raw); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return Result{}, errors.New("no raw series data found; run the ingest phase first")
		}
		return Result{}, fmt.Errorf("failed to load raw series data: %w", err)
	}

	bySurvey := make(map[string][]record)
	for _, series := range raw.Series {
		records := parseSeries(series)
		if len(records) == 0 {
			continue
		}
		survey := records[0].survey
		bySurvey[survey] = append(bySurvey[survey], records...)
	}

	if len(bySurvey) == 0 {
		return Result{}, errors.New("no parseable series data found")
	}

	totalRows := 0
	for _, records := range bySurvey {
		totalRows += len(records)
	}
	log.Info("Parsed series data", "rows", totalRows, "surveys", len(bySurvey))

	surveys := make([]string, 0, len(bySurvey))
	for survey := range bySurvey {
		surveys = append(surveys, survey)
	}
	sort.Strings(surveys)

	var result Result
	for _, survey := range surveys {
		topic, ok := surveyTopics[survey]
		if !ok {
			log.Warn("Skipping unknown survey", "survey", survey)
			result.SkippedSurveys++
			continue
		}
		datasetID := "bls_" + topic.Slug

		records := dropEmptyIndicators(bySurvey[survey])
		if len(records) == 0 {
			log.Warn("Skipping dataset with no indicators", "dataset", datasetID)
			result.SkippedSurveys++
			continue
		}

		varying := findVaryingColumns(records)
		constants := constantValues(records)
		dataset := buildDataset(datasetID, records, varying)

		log.Info("Processing dataset",
			"dataset", datasetID, "rows", len(dataset.Rows), "dimensions", varying)

		if err := Validate(dataset); err != nil {
			log.Error("Dataset failed validation, skipping publication",
				"dataset", datasetID, "error", err)
			metrics.DatasetValidationFailures.Inc()
			result.FailedValidation++
			continue
		}

		if err := pub.Upload(ctx, dataset); err != nil {
			return result, fmt.Errorf("failed to upload %s: %w", datasetID, err)
		}
		meta := buildMetadata(datasetID, topic.Description, varying, constants, runID)
		if err := pub.Publish(ctx, meta); err != nil {
			return result, fmt.Errorf("failed to publish %s: %w", datasetID, err)
		}

		metrics.DatasetsPublished.Inc()
		result.Published++
	}

	log.Info("Transform complete",
		"published", result.Published,
		"failed_validation", result.FailedValidation,
		"skipped", result.SkippedSurveys)
	return result, nil
}

// parseSeries flattens one raw series into normalized records. Missing
// catalog fields default to empty strings so variance detection treats
// absence uniformly; observations with unknown periods or missing values
// are dropped, not errored.
func parseSeries(series domain.SeriesRecord) []record {
	cat := series.Catalog
	if cat == nil {
		cat = &domain.SeriesCatalog{}
	}

	survey := cat.SurveyAbbreviation
	if survey == "" {
		survey = domain.SurveyPrefixOf(series.SeriesID)
	}

	industry := cat.CommerceIndustry
	if industry == "" {
		industry = cat.Industry
	}

	info := map[string]string{
		"seasonality":           cat.Seasonality,
		"area":                  cat.Area,
		"area_type":             cat.AreaType,
		"industry":              industry,
		"occupation":            cat.Occupation,
		"demographic_age":       cat.DemographicAge,
		"demographic_gender":    cat.DemographicGender,
		"demographic_race":      cat.DemographicRace,
		"demographic_education": cat.DemographicEducation,
		"unit":                  ExtractUnit(cat.SeriesTitle),
	}

	records := make([]record, 0, len(series.Data))
	for _, obs := range series.Data {
		date, ok := PeriodDate(obs.Year, obs.Period)
		if !ok {
			metrics.ObservationsDropped.WithLabelValues("period").Inc()
			continue
		}
		value, ok := ParseValue(obs.Value)
		if !ok {
			metrics.ObservationsDropped.WithLabelValues("value").Inc()
			continue
		}

		dims := make(map[string]string, len(info)+1)
		for k, v := range info {
			dims[k] = v
		}
		dims["date"] = date

		records = append(records, record{
			survey:    survey,
			indicator: cat.SeriesTitle,
			dims:      dims,
			value:     value,
		})
		metrics.ObservationsNormalized.Inc()
	}
	return records
}

func dropEmptyIndicators(records []record) []record {
	kept := records[:0]
	for _, r := range records {
		if r.indicator != "" {
			kept = append(kept, r)
		}
	}
	return kept
}

// findVaryingColumns keeps a dimension only when it has more than one
// distinct non-empty value across the group. Date is always kept.
func findVaryingColumns(records []record) []string {
	var varying []string
	for _, col := range allDimensions {
		if col == "date" {
			varying = append(varying, col)
			continue
		}
		if len(distinctValues(records, col)) > 1 {
			varying = append(varying, col)
		}
	}
	return varying
}

// constantValues returns dimensions with exactly one distinct non-empty
// value; these become dataset-level metadata instead of columns.
func constantValues(records []record) map[string]string {
	constants := make(map[string]string)
	for _, col := range allDimensions {
		if col == "date" {
			continue
		}
		values := distinctValues(records, col)
		if len(values) == 1 {
			constants[col] = values[0]
		}
	}
	return constants
}

func distinctValues(records []record, col string) []string {
	seen := make(map[string]bool)
	var values []string
	for _, r := range records {
		v := r.dims[col]
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		values = append(values, v)
	}
	return values
}

// buildDataset projects records onto the kept columns and imposes the
// output order: date descending, indicator ascending. The fixed date
// formats are year-prefixed, so plain string comparison sorts correctly.
func buildDataset(id string, records []record, varying []string) *domain.Dataset {
	columns := make([]string, 0, len(varying)+2)
	columns = append(columns, varying...)
	columns = append(columns, "indicator", "value")

	rows := make([]domain.Row, 0, len(records))
	for _, r := range records {
		dims := make(map[string]string, len(varying))
		for _, col := range varying {
			dims[col] = r.dims[col]
		}
		rows = append(rows, domain.Row{Dims: dims, Indicator: r.indicator, Value: r.value})
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Dims["date"] != rows[j].Dims["date"] {
			return rows[i].Dims["date"] > rows[j].Dims["date"]
		}
		return rows[i].Indicator < rows[j].Indicator
	})

	return &domain.Dataset{ID: id, Columns: columns, Rows: rows}
}
