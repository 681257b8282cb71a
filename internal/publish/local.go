// Package publish writes finished datasets to their destination. The
// local publisher targets a directory on disk; remote destinations can
// satisfy the same interface used by the transform stage.
package publish

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/subsetdata/bls-connector/internal/core/domain"
)

// Local writes each dataset as a CSV file plus a metadata sidecar in a
// single output directory.
type Local struct {
	dir string
	log *slog.Logger
}

func NewLocal(dir string, log *slog.Logger) (*Local, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	return &Local{dir: dir, log: log}, nil
}

// Upload writes the dataset rows as <id>.csv with a header row matching
// the dataset columns.
func (l *Local) Upload(ctx context.Context, dataset *domain.Dataset) error {
	path := filepath.Join(l.dir, dataset.ID+".csv")
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(dataset.Columns); err != nil {
		return err
	}

	row := make([]string, len(dataset.Columns))
	for _, r := range dataset.Rows {
		if err := ctx.Err(); err != nil {
			return err
		}
		for i, col := range dataset.Columns {
			switch col {
			case "indicator":
				row[i] = r.Indicator
			case "value":
				row[i] = strconv.FormatFloat(r.Value, 'f', -1, 64)
			default:
				row[i] = r.Dims[col]
			}
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	l.log.Info("Wrote dataset", "path", path, "rows", len(dataset.Rows))
	return nil
}

// Publish writes the metadata sidecar as <id>.meta.json.
func (l *Local) Publish(_ context.Context, meta domain.DatasetMetadata) error {
	path := filepath.Join(l.dir, meta.ID+".meta.json")
	body, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, body, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
