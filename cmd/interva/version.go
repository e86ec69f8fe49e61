package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/interva-cod-server/internal/api"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the current version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), "interva", api.Version)
	},
}
