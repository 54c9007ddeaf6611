package main

import (
	"fmt"
	"log/slog"

	"github.com/ldelgado/gastobot/internal/cli"
	"github.com/ldelgado/gastobot/internal/config"
	"github.com/ldelgado/gastobot/internal/storage"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		Long: `Create or upgrade the database schema and seed the default category
catalog. Safe to run repeatedly; already-applied migrations are
skipped.`,
		RunE: runMigrate,
	}
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	dbPath := config.ExpandPath(viper.GetString("database.path"))

	db, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			slog.Error("Failed to close database", "error", closeErr)
		}
	}()

	if err := db.Migrate(ctx); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	fmt.Println(cli.FormatSuccess(fmt.Sprintf("Database at %s is up to date (schema v%d)", dbPath, storage.ExpectedSchemaVersion)))
	return nil
}
