package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/interva-cod-server/internal/database"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the Postgres result store schema",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withMigrationRunner(cmd, func(mr *database.MigrationRunner) error {
			return mr.Up(context.Background())
		})
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back the most recent migration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withMigrationRunner(cmd, func(mr *database.MigrationRunner) error {
			return mr.Down(context.Background())
		})
	},
}

var migrateVersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the current schema version",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withMigrationRunner(cmd, func(mr *database.MigrationRunner) error {
			version, dirty, err := mr.Version()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "version %d (dirty: %t)\n", version, dirty)
			return nil
		})
	},
}

func init() {
	migrateCmd.AddCommand(migrateUpCmd, migrateDownCmd, migrateVersionCmd)
}

func withMigrationRunner(cmd *cobra.Command, fn func(*database.MigrationRunner) error) error {
	manager, logger, err := setup(cmd)
	if err != nil {
		return err
	}

	mr, err := database.NewMigrationRunner(manager.GetDatabaseURL(), manager.GetDatabaseConfig().MigrationsPath, logger)
	if err != nil {
		return err
	}
	defer mr.Close()

	return fn(mr)
}
