package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/subsetdata/bls-connector/internal/core/config"
	"github.com/subsetdata/bls-connector/internal/ingest/fetch"
)

var resetCmd = &cobra.Command{
	Use:   "reset-state",
	Short: "Discard the persisted fetch state so the next run starts fresh",
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

		if err := store.ClearState(cmd.Context(), fetch.StateName); err != nil {
			return err
		}
		fmt.Println("Fetch state cleared")
		return nil
	},
}
