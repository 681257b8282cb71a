package transform

import (
	"fmt"
	"math"
	"strconv"

	"github.com/subsetdata/bls-connector/internal/core/domain"
)

// maxDateSample caps how many rows the date format check inspects.
const maxDateSample = 100

// ValidationError reports why a dataset was withheld from publication.
type ValidationError struct {
	DatasetID string
	Reason    string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("dataset %s: %s", e.DatasetID, e.Reason)
}

func invalid(d *domain.Dataset, format string, args ...any) *ValidationError {
	return &ValidationError{DatasetID: d.ID, Reason: fmt.Sprintf(format, args...)}
}

// Validate checks a dataset against the publication contract. The first
// violation found is returned; callers treat any error as a reason to
// withhold the dataset.
func Validate(dataset *domain.Dataset) error {
	for _, col := range []string{"date", "indicator", "value"} {
		if !dataset.HasColumn(col) {
			return invalid(dataset, "missing required column %q", col)
		}
	}

	if len(dataset.Rows) == 0 {
		return invalid(dataset, "dataset has no rows")
	}

	indicators := make(map[string]bool)
	for i, row := range dataset.Rows {
		if row.Dims["date"] == "" {
			return invalid(dataset, "row %d: empty date", i)
		}
		if row.Indicator == "" {
			return invalid(dataset, "row %d: empty indicator", i)
		}
		if math.IsNaN(row.Value) || math.IsInf(row.Value, 0) {
			return invalid(dataset, "row %d: non-finite value", i)
		}
		indicators[row.Indicator] = true
	}

	if len(indicators) == 0 {
		return invalid(dataset, "dataset has no distinct indicators")
	}

	sample := len(dataset.Rows)
	if sample > maxDateSample {
		sample = maxDateSample
	}
	for i := 0; i < sample; i++ {
		date := dataset.Rows[i].Dims["date"]
		if len(date) < 4 {
			return invalid(dataset, "row %d: malformed date %q", i, date)
		}
		year, err := strconv.Atoi(date[:4])
		if err != nil {
			return invalid(dataset, "row %d: malformed date %q", i, date)
		}
		if year < 1900 || year > 2030 {
			return invalid(dataset, "row %d: implausible year %d in date %q", i, year, date)
		}
	}

	return nil
}
