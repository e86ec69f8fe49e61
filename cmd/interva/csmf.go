package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/interva-cod-server/internal/service"
	"github.com/interva-cod-server/internal/store"
)

var csmfCmd = &cobra.Command{
	Use:   "csmf <run_id>",
	Short: "Print cause-specific mortality fractions for a stored run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := service.CSMFOptions{}
		opts.Top, _ = cmd.Flags().GetInt("top")
		opts.Sex, _ = cmd.Flags().GetString("sex")
		opts.Age, _ = cmd.Flags().GetString("age")
		opts.ExcludeUndetermined, _ = cmd.Flags().GetBool("exclude-undetermined")

		return withStore(cmd, func(ctx context.Context, results store.Store) error {
			run, err := results.GetRun(ctx, args[0])
			if err != nil {
				return err
			}
			if run == nil {
				return fmt.Errorf("run %s not found", args[0])
			}
			stored, err := results.Results(ctx, run.ID)
			if err != nil {
				return err
			}
			entries, err := service.ComputeCSMF(stored, opts)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintf(tw, "CAUSE\tFRACTION\n")
			for _, e := range entries {
				fmt.Fprintf(tw, "%s\t%.4f\n", e.Cause, e.Fraction)
			}
			return tw.Flush()
		})
	},
}

func init() {
	f := csmfCmd.Flags()
	f.Int("top", 0, "Only print the largest N fractions")
	f.String("sex", "", "Restrict to male or female deaths")
	f.String("age", "", "Restrict to adult, child or neonate deaths")
	f.Bool("exclude-undetermined", false, "Drop the Undetermined entry")
}
