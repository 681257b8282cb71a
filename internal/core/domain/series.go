package domain

// SeriesRecord is one series as returned by the BLS timeseries endpoint
// when requested with catalog=true.
type SeriesRecord struct {
	SeriesID string         `json:"seriesID"`
	Catalog  *SeriesCatalog `json:"catalog,omitempty"`
	Data     []Observation  `json:"data"`
}

// SeriesCatalog is the descriptive metadata block attached to a series.
// Fields the API omits decode to empty strings.
type SeriesCatalog struct {
	SeriesTitle          string `json:"series_title"`
	SurveyName           string `json:"survey_name"`
	SurveyAbbreviation   string `json:"survey_abbreviation"`
	Seasonality          string `json:"seasonality"`
	Area                 string `json:"area"`
	AreaType             string `json:"area_type"`
	CommerceIndustry     string `json:"commerce_industry"`
	Industry             string `json:"industry"`
	Occupation           string `json:"occupation"`
	DemographicAge       string `json:"demographic_age"`
	DemographicGender    string `json:"demographic_gender"`
	DemographicRace      string `json:"demographic_race"`
	DemographicEducation string `json:"demographic_education"`
}

// Observation is one raw data point of a series. Year, period, and value
// arrive as strings; parsing happens in the transform stage.
type Observation struct {
	Year       string     `json:"year"`
	Period     string     `json:"period"`
	PeriodName string     `json:"periodName,omitempty"`
	Value      string     `json:"value"`
	Footnotes  []Footnote `json:"footnotes,omitempty"`
	Latest     string     `json:"latest,omitempty"`
}

// Footnote annotates an observation.
type Footnote struct {
	Code string `json:"code,omitempty"`
	Text string `json:"text,omitempty"`
}

// RawSeriesName is the document name under which the completed fetch
// persists its raw series artifact and the transform stage reads it back.
const RawSeriesName = "series_data"

// RawSeriesData is the persisted raw artifact produced by a completed fetch run.
type RawSeriesData struct {
	Series    []SeriesRecord `json:"series"`
	StartYear int            `json:"start_year"`
	EndYear   int            `json:"end_year"`
}

// Survey is one entry from the surveys endpoint.
type Survey struct {
	Abbreviation string `json:"survey_abbreviation"`
	Name         string `json:"survey_name"`
}

// PopularSeries is one entry from the popular-series endpoint.
type PopularSeries struct {
	SeriesID string `json:"seriesID"`
}

// PopularData holds popular series overall and per survey, as persisted
// by the popular-series ingest.
type PopularData struct {
	Overall  []PopularSeries            `json:"overall"`
	BySurvey map[string][]PopularSeries `json:"by_survey"`
}
