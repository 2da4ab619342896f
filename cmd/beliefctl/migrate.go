package main

import (
	"errors"
	"fmt"

	"github.com/nia-core/beliefgate/internal/config"
	"github.com/nia-core/beliefgate/internal/store"
	"github.com/spf13/cobra"
)

func newMigrateCmd() *cobra.Command {
	var dbURL string
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create the beliefgate schema in DATABASE_URL",
		RunE: func(cmd *cobra.Command, args []string) error {
			if dbURL == "" {
				return errors.New("DATABASE_URL is required")
			}
			pool, err := store.Connect(cmd.Context(), dbURL)
			if err != nil {
				return err
			}
			defer pool.Close()

			if err := store.Migrate(cmd.Context(), pool); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "schema up to date")
			return nil
		},
	}
	cmd.Flags().StringVar(&dbURL, "database-url", config.DatabaseURL(), "postgres connection string")
	return cmd
}
