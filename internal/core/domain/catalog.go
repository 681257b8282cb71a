package domain

// CatalogEntry is one row of the pre-crawled series catalog, ranked by
// popularity. Rank ascending means more popular.
type CatalogEntry struct {
	Rank         int    `json:"rank"`
	SeriesID     string `json:"series_id"`
	SeriesTitle  string `json:"series_title,omitempty"`
	SurveyPrefix string `json:"survey_prefix"`
}

// SurveyPrefixOf returns the 2-letter survey prefix of a series ID.
func SurveyPrefixOf(seriesID string) string {
	if len(seriesID) < 2 {
		return seriesID
	}
	return seriesID[:2]
}
