package transform

import (
	"fmt"
	"sort"
	"strings"

	"github.com/subsetdata/bls-connector/internal/core/domain"
)

// buildMetadata assembles the dataset description. Dimensions held
// constant across the group are folded into the description text rather
// than carried as columns.
func buildMetadata(id, topicDesc string, varying []string, constants map[string]string, runID string) domain.DatasetMetadata {
	description := fmt.Sprintf(
		"Time series data from the Bureau of Labor Statistics %s program.", topicDesc)
	if len(constants) > 0 {
		keys := make([]string, 0, len(constants))
		for k := range constants {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, fmt.Sprintf("%s=%s", k, constants[k]))
		}
		description += fmt.Sprintf(" Filtered to: %s.", strings.Join(parts, ", "))
	}

	columnDescs := map[string]string{
		"date":      "Observation date, at the granularity of the source period",
		"indicator": "Series title identifying what is measured",
		"value":     "Observed numeric value",
	}
	for _, col := range varying {
		if desc, ok := dimensionDescriptions[col]; ok {
			columnDescs[col] = desc
		}
	}

	return domain.DatasetMetadata{
		ID:                 id,
		Title:              "BLS " + topicDesc,
		Description:        description,
		ColumnDescriptions: columnDescs,
		RunID:              runID,
	}
}
