package transform

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/subsetdata/bls-connector/internal/core/domain"
	"github.com/subsetdata/bls-connector/internal/infra/storage/memory"
)

type capturePublisher struct {
	datasets []*domain.Dataset
	metas    []domain.DatasetMetadata
}

func (p *capturePublisher) Upload(_ context.Context, d *domain.Dataset) error {
	p.datasets = append(p.datasets, d)
	return nil
}

func (p *capturePublisher) Publish(_ context.Context, m domain.DatasetMetadata) error {
	p.metas = append(p.metas, m)
	return nil
}

func testRecord(survey, indicator, date, area string, value float64) record {
	return record{
		survey:    survey,
		indicator: indicator,
		dims:      map[string]string{"date": date, "area": area, "seasonality": "Seasonally Adjusted"},
		value:     value,
	}
}

func TestFindVaryingColumns(t *testing.T) {
	records := []record{
		testRecord("LA", "Unemployment rate", "2021-01", "California", 7.1),
		testRecord("LA", "Unemployment rate", "2021-01", "Texas", 6.2),
	}

	varying := findVaryingColumns(records)

	want := map[string]bool{"date": true, "area": true}
	if len(varying) != len(want) {
		t.Fatalf("varying = %v, want date and area only", varying)
	}
	for _, col := range varying {
		if !want[col] {
			t.Errorf("unexpected varying column %q", col)
		}
	}
}

func TestFindVaryingColumns_DateAlwaysKept(t *testing.T) {
	records := []record{
		testRecord("LN", "Labor force participation", "2021-01", "", 61.4),
	}

	varying := findVaryingColumns(records)
	if len(varying) != 1 || varying[0] != "date" {
		t.Fatalf("varying = %v, want [date]", varying)
	}
}

func TestConstantValues(t *testing.T) {
	records := []record{
		testRecord("LA", "Unemployment rate", "2021-01", "California", 7.1),
		testRecord("LA", "Unemployment rate", "2021-02", "California", 7.0),
	}

	constants := constantValues(records)
	if constants["area"] != "California" {
		t.Errorf("area constant = %q, want California", constants["area"])
	}
	if constants["seasonality"] != "Seasonally Adjusted" {
		t.Errorf("seasonality constant = %q, want Seasonally Adjusted", constants["seasonality"])
	}
	if _, ok := constants["date"]; ok {
		t.Error("date must never be treated as a constant")
	}
	if _, ok := constants["occupation"]; ok {
		t.Error("all-empty dimension must not appear as a constant")
	}
}

func TestBuildDataset_SortOrder(t *testing.T) {
	records := []record{
		testRecord("LN", "B series", "2021-01", "", 1),
		testRecord("LN", "A series", "2021-03", "", 2),
		testRecord("LN", "A series", "2020", "", 3),
		testRecord("LN", "A series", "2021-01", "", 4),
	}

	dataset := buildDataset("bls_test", records, []string{"date"})

	wantDates := []string{"2021-03", "2021-01", "2021-01", "2020"}
	for i, want := range wantDates {
		if got := dataset.Rows[i].Dims["date"]; got != want {
			t.Errorf("row %d date = %q, want %q", i, got, want)
		}
	}
	// Same date rows tie-break on indicator ascending.
	if dataset.Rows[1].Indicator != "A series" || dataset.Rows[2].Indicator != "B series" {
		t.Errorf("tie-break order = %q, %q; want A series then B series",
			dataset.Rows[1].Indicator, dataset.Rows[2].Indicator)
	}
}

func TestParseSeries(t *testing.T) {
	series := domain.SeriesRecord{
		SeriesID: "LNS14000000",
		Catalog: &domain.SeriesCatalog{
			SeriesTitle:        "Unemployment Rate",
			SurveyAbbreviation: "LN",
			Seasonality:        "Seasonally Adjusted",
		},
		Data: []domain.Observation{
			{Year: "2021", Period: "M01", Value: "6.3"},
			{Year: "2021", Period: "M13", Value: "5.4"},
			{Year: "2021", Period: "M02", Value: "-"},
			{Year: "2021", Period: "X01", Value: "6.2"},
		},
	}

	records := parseSeries(series)
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2 (dash value and X01 period dropped)", len(records))
	}
	if records[0].dims["date"] != "2021-01" {
		t.Errorf("date = %q, want 2021-01", records[0].dims["date"])
	}
	if records[1].dims["date"] != "2021" {
		t.Errorf("annual date = %q, want 2021", records[1].dims["date"])
	}
	if records[0].survey != "LN" {
		t.Errorf("survey = %q, want LN", records[0].survey)
	}
	if records[0].value != 6.3 {
		t.Errorf("value = %v, want 6.3", records[0].value)
	}
}

func TestParseSeries_NoCatalog(t *testing.T) {
	series := domain.SeriesRecord{
		SeriesID: "CUUR0000SA0",
		Data:     []domain.Observation{{Year: "2020", Period: "M06", Value: "257.2"}},
	}

	records := parseSeries(series)
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}
	if records[0].survey != "CU" {
		t.Errorf("survey = %q, want CU from series ID prefix", records[0].survey)
	}
	if records[0].indicator != "" {
		t.Errorf("indicator = %q, want empty without catalog", records[0].indicator)
	}
}

func TestParseSeries_IndustryFallback(t *testing.T) {
	series := domain.SeriesRecord{
		SeriesID: "CES0000000001",
		Catalog: &domain.SeriesCatalog{
			SeriesTitle:        "All Employees",
			SurveyAbbreviation: "CE",
			Industry:           "Total nonfarm",
		},
		Data: []domain.Observation{{Year: "2021", Period: "M01", Value: "142000"}},
	}

	records := parseSeries(series)
	if records[0].dims["industry"] != "Total nonfarm" {
		t.Errorf("industry = %q, want fallback to industry field", records[0].dims["industry"])
	}

	series.Catalog.CommerceIndustry = "Nonfarm payrolls"
	records = parseSeries(series)
	if records[0].dims["industry"] != "Nonfarm payrolls" {
		t.Errorf("industry = %q, want commerce_industry preferred", records[0].dims["industry"])
	}
}

func TestRun_PublishesMappedSurveysOnly(t *testing.T) {
	store := memory.NewStore()
	raw := domain.RawSeriesData{
		Series: []domain.SeriesRecord{
			{
				SeriesID: "LNS14000000",
				Catalog: &domain.SeriesCatalog{
					SeriesTitle:        "Unemployment Rate",
					SurveyAbbreviation: "LN",
				},
				Data: []domain.Observation{
					{Year: "2021", Period: "M01", Value: "6.3"},
					{Year: "2021", Period: "M02", Value: "6.2"},
				},
			},
			{
				SeriesID: "ZZ123",
				Catalog: &domain.SeriesCatalog{
					SeriesTitle:        "Mystery",
					SurveyAbbreviation: "ZZ",
				},
				Data: []domain.Observation{{Year: "2021", Period: "M01", Value: "1"}},
			},
		},
		StartYear: 2002,
		EndYear:   2021,
	}
	if err := store.SaveRaw(context.Background(), domain.RawSeriesName, raw); err != nil {
		t.Fatal(err)
	}

	pub := &capturePublisher{}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	result, err := Run(context.Background(), store, pub, "run-1", log)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if result.Published != 1 {
		t.Errorf("published = %d, want 1", result.Published)
	}
	if result.SkippedSurveys != 1 {
		t.Errorf("skipped = %d, want 1 for unmapped ZZ", result.SkippedSurveys)
	}
	if len(pub.datasets) != 1 {
		t.Fatalf("got %d uploads, want 1", len(pub.datasets))
	}
	ds := pub.datasets[0]
	if ds.ID != "bls_labor_force" {
		t.Errorf("dataset ID = %q, want bls_labor_force", ds.ID)
	}
	if len(ds.Rows) != 2 {
		t.Errorf("rows = %d, want 2", len(ds.Rows))
	}
	if len(pub.metas) != 1 || pub.metas[0].ID != ds.ID {
		t.Errorf("metadata not published alongside dataset")
	}
	if pub.metas[0].RunID != "run-1" {
		t.Errorf("metadata run ID = %q, want run-1", pub.metas[0].RunID)
	}
}

func TestRun_ValidationFailureContained(t *testing.T) {
	store := memory.NewStore()
	raw := domain.RawSeriesData{
		Series: []domain.SeriesRecord{
			{
				SeriesID: "LNS14000000",
				Catalog: &domain.SeriesCatalog{
					SeriesTitle:        "Unemployment Rate",
					SurveyAbbreviation: "LN",
				},
				Data: []domain.Observation{{Year: "2021", Period: "M01", Value: "6.3"}},
			},
			{
				SeriesID: "CUUR0000SA0",
				Catalog: &domain.SeriesCatalog{
					SeriesTitle:        "All items",
					SurveyAbbreviation: "CU",
				},
				// Year outside the plausible range fails validation.
				Data: []domain.Observation{{Year: "1850", Period: "M01", Value: "8.1"}},
			},
		},
	}
	if err := store.SaveRaw(context.Background(), domain.RawSeriesName, raw); err != nil {
		t.Fatal(err)
	}

	pub := &capturePublisher{}
	result, err := Run(context.Background(), store, pub, "run-1", slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if result.Published != 1 {
		t.Errorf("published = %d, want 1", result.Published)
	}
	if result.FailedValidation != 1 {
		t.Errorf("failed validation = %d, want 1", result.FailedValidation)
	}
	if len(pub.datasets) != 1 || pub.datasets[0].ID != "bls_labor_force" {
		t.Fatalf("uploads = %v, want only bls_labor_force", pub.datasets)
	}
	if len(pub.metas) != 1 || pub.metas[0].ID != "bls_labor_force" {
		t.Errorf("metadata published for a dataset that failed validation")
	}
}

func TestRun_NoRawData(t *testing.T) {
	store := memory.NewStore()
	pub := &capturePublisher{}
	_, err := Run(context.Background(), store, pub, "run-1", slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err == nil {
		t.Fatal("expected error when no raw artifact exists")
	}
}

func TestBuildMetadata(t *testing.T) {
	constants := map[string]string{
		"seasonality": "Seasonally Adjusted",
		"area":        "California",
	}
	meta := buildMetadata("bls_employment_cost", "Employment Cost Index",
		[]string{"date", "industry"}, constants, "run-9")

	if meta.Title != "BLS Employment Cost Index" {
		t.Errorf("title = %q", meta.Title)
	}
	want := "Time series data from the Bureau of Labor Statistics " +
		"Employment Cost Index program. " +
		"Filtered to: area=California, seasonality=Seasonally Adjusted."
	if meta.Description != want {
		t.Errorf("description = %q, want %q", meta.Description, want)
	}
	for _, col := range []string{"date", "indicator", "value", "industry"} {
		if meta.ColumnDescriptions[col] == "" {
			t.Errorf("missing column description for %q", col)
		}
	}
	if _, ok := meta.ColumnDescriptions["area"]; ok {
		t.Error("constant column must not get a column description")
	}
}
