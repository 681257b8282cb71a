// Package catalog loads the pre-crawled series catalog and applies the
// budget-aware selection policy deciding which series to fetch.
package catalog

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/subsetdata/bls-connector/internal/core/domain"
)

// Load reads a catalog artifact. A .csv file carries Rank / Series ID /
// Series Title columns; any other extension is treated as a plain list of
// series IDs, one per line, rank = line position.
func Load(path string) ([]domain.CatalogEntry, error) {
	if strings.EqualFold(filepath.Ext(path), ".csv") {
		return loadCSV(path)
	}
	return loadText(path)
}

func loadCSV(path string) ([]domain.CatalogEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog header: %w", err)
	}

	col := func(name string) int {
		for i, h := range header {
			if strings.EqualFold(strings.TrimSpace(h), name) {
				return i
			}
		}
		return -1
	}
	rankCol, idCol, titleCol := col("Rank"), col("Series ID"), col("Series Title")
	if idCol < 0 {
		return nil, fmt.Errorf("catalog %s has no Series ID column", path)
	}

	var entries []domain.CatalogEntry
	for line := 1; ; line++ {
		row, err := reader.Read()
		if err != nil {
			break
		}
		if idCol >= len(row) || row[idCol] == "" {
			continue
		}

		entry := domain.CatalogEntry{
			Rank:         line,
			SeriesID:     row[idCol],
			SurveyPrefix: domain.SurveyPrefixOf(row[idCol]),
		}
		if rankCol >= 0 && rankCol < len(row) {
			if rank, err := strconv.Atoi(row[rankCol]); err == nil {
				entry.Rank = rank
			}
		}
		if titleCol >= 0 && titleCol < len(row) {
			entry.SeriesTitle = row[titleCol]
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func loadText(path string) ([]domain.CatalogEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}
	defer f.Close()

	var entries []domain.CatalogEntry
	scanner := bufio.NewScanner(f)
	rank := 0
	for scanner.Scan() {
		id := strings.TrimSpace(scanner.Text())
		if id == "" {
			continue
		}
		rank++
		entries = append(entries, domain.CatalogEntry{
			Rank:         rank,
			SeriesID:     id,
			SurveyPrefix: domain.SurveyPrefixOf(id),
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	return entries, nil
}
