package catalog

import (
	"sort"

	"github.com/subsetdata/bls-connector/internal/core/domain"
)

// SelectOptions parameterize the selection policy. High-volume surveys and
// fallback series are configuration, not code.
type SelectOptions struct {
	PerSurveyQuota    int
	HighVolumeQuota   int
	HighVolumeSurveys []string
	FallbackSeries    map[string][]string
}

// A selectionSource contributes series IDs for survey prefixes not yet
// covered by an earlier source and marks the prefixes it covered. Sources
// form a priority-ordered chain: catalog, then popular series, then the
// configured fallback lists.
type selectionSource func(covered map[string]bool, out []string) []string

// Select returns the working set of series IDs to fetch. Output may
// contain duplicates; downstream dedup happens through the fetch state's
// completed-series set. A survey absent from every source silently yields
// nothing.
func Select(entries []domain.CatalogEntry, popular *domain.PopularData, opts SelectOptions) []string {
	sources := []selectionSource{
		catalogSource(entries, opts),
		popularSource(popular),
		fallbackSource(opts.FallbackSeries),
	}

	covered := make(map[string]bool)
	var out []string
	for _, source := range sources {
		out = source(covered, out)
	}
	return out
}

// catalogSource takes the top entries per survey prefix by rank. Entries
// arrive already rank-sorted; input order is preserved.
func catalogSource(entries []domain.CatalogEntry, opts SelectOptions) selectionSource {
	highVolume := make(map[string]bool, len(opts.HighVolumeSurveys))
	for _, prefix := range opts.HighVolumeSurveys {
		highVolume[prefix] = true
	}

	return func(covered map[string]bool, out []string) []string {
		taken := make(map[string]int)
		for _, entry := range entries {
			prefix := entry.SurveyPrefix
			if prefix == "" {
				prefix = domain.SurveyPrefixOf(entry.SeriesID)
			}

			quota := opts.PerSurveyQuota
			if highVolume[prefix] {
				quota = opts.HighVolumeQuota
			}
			if taken[prefix] >= quota {
				continue
			}

			taken[prefix]++
			covered[prefix] = true
			out = append(out, entry.SeriesID)
		}
		return out
	}
}

// popularSource contributes every popular series of surveys the catalog
// did not cover.
func popularSource(popular *domain.PopularData) selectionSource {
	return func(covered map[string]bool, out []string) []string {
		if popular == nil {
			return out
		}
		for _, prefix := range sortedKeys(popular.BySurvey) {
			if covered[prefix] {
				continue
			}
			appended := false
			for _, s := range popular.BySurvey[prefix] {
				if s.SeriesID == "" {
					continue
				}
				out = append(out, s.SeriesID)
				appended = true
			}
			if appended {
				covered[prefix] = true
			}
		}
		return out
	}
}

// fallbackSource contributes the configured literal series lists for
// surveys still uncovered.
func fallbackSource(fallback map[string][]string) selectionSource {
	return func(covered map[string]bool, out []string) []string {
		for _, prefix := range sortedKeys(fallback) {
			if covered[prefix] || len(fallback[prefix]) == 0 {
				continue
			}
			out = append(out, fallback[prefix]...)
			covered[prefix] = true
		}
		return out
	}
}

// sortedKeys returns map keys in sorted order so selection output is
// deterministic across runs.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
