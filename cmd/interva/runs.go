package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/interva-cod-server/internal/store"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List, export, import and delete stored runs",
}

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored runs, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		return withStore(cmd, func(ctx context.Context, results store.Store) error {
			runs, err := results.ListRuns(ctx, limit, 0)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintf(tw, "RUN\tPROBBASE\tMALARIA\tHIV\tASSIGNED\tEXCLUDED\tCREATED\n")
			for _, r := range runs {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%d\t%s\n",
					r.ID, r.ProbbaseVersion, r.Malaria, r.HIV, r.Assigned, r.Excluded, r.CreatedAt.Format(time.RFC3339))
			}
			return tw.Flush()
		})
	},
}

var runsExportCmd = &cobra.Command{
	Use:   "export <run_id> <file.json>",
	Short: "Export a run and its results as JSON",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd, func(ctx context.Context, results store.Store) error {
			f, err := os.Create(args[1])
			if err != nil {
				return err
			}
			if err := results.ExportJSON(ctx, args[0], f); err != nil {
				f.Close()
				return err
			}
			return f.Close()
		})
	},
}

var runsImportCmd = &cobra.Command{
	Use:   "import <file.json>",
	Short: "Import a run exported by 'runs export'",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd, func(ctx context.Context, results store.Store) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			imported, skipped, err := results.ImportJSON(ctx, f)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d results, skipped %d\n", imported, skipped)
			return nil
		})
	},
}

var runsDeleteCmd = &cobra.Command{
	Use:   "delete <run_id>",
	Short: "Delete a run and its results",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd, func(ctx context.Context, results store.Store) error {
			return results.DeleteRun(ctx, args[0])
		})
	},
}

func init() {
	runsListCmd.Flags().Int("limit", 20, "Maximum number of runs to list")
	runsCmd.AddCommand(runsListCmd, runsExportCmd, runsImportCmd, runsDeleteCmd)
}

// withStore opens the configured result store for the duration of fn.
func withStore(cmd *cobra.Command, fn func(context.Context, store.Store) error) error {
	manager, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	results, err := store.Open(manager.GetConfig().Store, manager.GetDatabaseURL())
	if err != nil {
		return err
	}
	if results == nil {
		return fmt.Errorf("result store is disabled (store.driver=%s)", manager.GetConfig().Store.Driver)
	}
	defer results.Close()

	return fn(cmd.Context(), results)
}
