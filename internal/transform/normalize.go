package transform

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseValue parses a numeric observation value. The upstream encodes
// missing data as a literal dash; empty or otherwise unparseable values
// are also treated as missing. Zero is a valid value, not missing.
func ParseValue(value string) (float64, bool) {
	if value == "-" || value == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// PeriodDate converts a period code and year into the uniform date string.
// Monthly M01-M12 become YYYY-MM; M13 (annual average) and A01 collapse to
// YYYY; quarters become YYYY-QN; half-years YYYY-HN. Any other code drops
// the observation.
func PeriodDate(year, period string) (string, bool) {
	if len(period) < 2 || year == "" {
		return "", false
	}

	n, err := strconv.Atoi(period[1:])
	if err != nil {
		return "", false
	}

	switch period[0] {
	case 'M':
		if n == 13 {
			return year, true
		}
		if n >= 1 && n <= 12 {
			return fmt.Sprintf("%s-%02d", year, n), true
		}
	case 'Q':
		if n >= 1 && n <= 4 {
			return fmt.Sprintf("%s-Q%d", year, n), true
		}
	case 'A':
		if n == 1 {
			return year, true
		}
	case 'S':
		if n == 1 || n == 2 {
			return fmt.Sprintf("%s-H%d", year, n), true
		}
	}
	return "", false
}

// ExtractUnit infers a unit of measurement from a series title.
func ExtractUnit(seriesTitle string) string {
	title := strings.ToLower(seriesTitle)
	switch {
	case strings.Contains(title, "percent change") || strings.Contains(title, "percent of"):
		return "percent"
	case strings.Contains(title, "index"):
		return "index"
	case strings.Contains(title, "in thousands") || strings.Contains(title, "thousands"):
		return "thousands"
	case strings.Contains(title, "in millions"):
		return "millions"
	case strings.Contains(title, "in dollars") || strings.Contains(title, "dollars per"):
		return "dollars"
	case strings.Contains(title, "hours") &&
		(strings.Contains(title, "average") || strings.Contains(title, "weekly")):
		return "hours"
	case strings.Contains(title, "rate"):
		return "rate"
	}
	return ""
}
