package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"fileapp/internal/config"
	"fileapp/internal/store"
)

func newMigrateCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	var dryRun bool
	var inspect bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run or inspect upload journal migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cfg.JournalEnabled() {
				return fmt.Errorf("upload journal is disabled (db_path is %q)", config.DisabledDBPath)
			}

			if inspect || dryRun {
				return showMigrationPlan(cfg.DBPath, *jsonOutput)
			}

			// Same migrations the server applies on start.
			st, err := store.Open(cfg.DBPath)
			if err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			if err := st.Close(); err != nil {
				return err
			}

			if *jsonOutput {
				return showMigrationPlan(cfg.DBPath, true)
			}
			return writePlain("Migrations applied successfully.\n")
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "show pending migrations without applying")
	cmd.Flags().BoolVar(&inspect, "inspect", false, "show migration status")

	return cmd
}

func showMigrationPlan(dbPath string, structured bool) error {
	db, err := store.OpenRaw(dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	plan, err := store.MigrationPlan(db)
	if err != nil {
		return fmt.Errorf("inspect migrations: %w", err)
	}

	if structured {
		return writeJSON(plan)
	}

	_ = writePlain("Current version: %d\n", plan.CurrentVersion)
	_ = writePlain("Available version: %d\n", plan.AvailableVersion)
	if len(plan.Pending) == 0 {
		return writePlain("No pending migrations.\n")
	}
	_ = writePlain("Pending migrations: %d\n", len(plan.Pending))
	for _, m := range plan.Pending {
		_ = writePlain("  %d: %s\n", m.Version, m.Description)
	}
	return nil
}
