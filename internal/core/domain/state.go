package domain

import "time"

// FetchState is the persisted incremental progress of a fetch run.
// CompletedSeries and SeriesData are always written together in a single
// document so a crash cannot separate them.
type FetchState struct {
	Completed       bool           `json:"completed,omitempty"`
	CompletedSeries []string       `json:"completed_series,omitempty"`
	SeriesData      []SeriesRecord `json:"series_data,omitempty"`
	RunID           string         `json:"run_id,omitempty"`
	UpdatedAt       time.Time      `json:"updated_at,omitempty"`
}

// CompletedSet returns the completed series as a set for membership checks.
func (s *FetchState) CompletedSet() map[string]bool {
	set := make(map[string]bool, len(s.CompletedSeries))
	for _, id := range s.CompletedSeries {
		set[id] = true
	}
	return set
}
