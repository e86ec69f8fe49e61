package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/interva-cod-server/internal/domain"
	"github.com/interva-cod-server/internal/probbase"
)

var probbaseCmd = &cobra.Command{
	Use:   "probbase [path]",
	Short: "Check a probbase file and print its version",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := ""
		if len(args) == 1 {
			path = args[0]
		} else {
			manager, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			path = manager.GetClassifierConfig().ProbbasePath
		}

		table, err := probbase.LoadFile(path)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "file:       %s\n", path)
		fmt.Fprintf(out, "version:    %s\n", table.Version())
		fmt.Fprintf(out, "indicators: %d\n", table.NumIndicators())
		fmt.Fprintf(out, "causes:     %d\n", domain.NumCauses)
		for _, g := range domain.CauseGroups {
			fmt.Fprintf(out, "  %-12s columns %d-%d\n", g.Name, g.Start, g.End-1)
		}
		return nil
	},
}
