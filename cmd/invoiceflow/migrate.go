package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/gucchon001/invoice-processing-system-sub000/internal/storage"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := storage.NewSQLiteStore(databasePath())
			if err != nil {
				return err
			}
			defer func() {
				if closeErr := store.Close(); closeErr != nil {
					slog.Warn("failed to close database", "error", closeErr)
				}
			}()

			if err := store.Migrate(cmd.Context()); err != nil {
				return err
			}
			slog.Info("database migrated", "path", databasePath())
			return nil
		},
	}
}
