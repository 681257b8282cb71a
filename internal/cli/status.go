package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/subsetdata/bls-connector/internal/core/config"
	"github.com/subsetdata/bls-connector/internal/infra/storage"
	"github.com/subsetdata/bls-connector/internal/ingest/fetch"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the persisted fetch state",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}

		store, cleanup, err := openStore(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer cleanup()

		state, err := store.LoadState(cmd.Context(), fetch.StateName)
		if errors.Is(err, storage.ErrNotFound) {
			fmt.Println("No fetch in progress")
			return nil
		}
		if err != nil {
			return err
		}

		if state.Completed {
			fmt.Printf("Fetch complete (run %s, updated %s)\n",
				state.RunID, state.UpdatedAt.Format("2006-01-02 15:04:05 MST"))
			return nil
		}
		fmt.Printf("Fetch in progress: %d series completed, %d with data (run %s, updated %s)\n",
			len(state.CompletedSeries), len(state.SeriesData),
			state.RunID, state.UpdatedAt.Format("2006-01-02 15:04:05 MST"))
		return nil
	},
}
