package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/interva-cod-server/internal/setup"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Register the MCP server with Claude Desktop",
}

var setupClaudeCmd = &cobra.Command{
	Use:   "claude-desktop",
	Short: "Write the interva entry into claude_desktop_config.json",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := setupConfigPath(cmd)
		if err != nil {
			return err
		}
		opts := setup.Options{}
		opts.BinaryPath, _ = cmd.Flags().GetString("binary")
		opts.DataDir, _ = cmd.Flags().GetString("data-dir")
		opts.ProbbasePath, _ = cmd.Flags().GetString("probbase")
		opts.Malaria, _ = cmd.Flags().GetString("malaria")
		opts.HIV, _ = cmd.Flags().GetString("hiv")

		entry, err := setup.Configure(path, opts)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "registered %q in %s\n  command: %s %v\n",
			setup.ServerKey, path, entry.Command, entry.Args)
		fmt.Fprintln(cmd.OutOrStdout(), "restart Claude Desktop to load the server")
		return nil
	},
}

var setupStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show whether the MCP server is registered",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := setupConfigPath(cmd)
		if err != nil {
			return err
		}
		status, err := setup.GetStatus(path)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "config:     %s\n", status.ConfigPath)
		fmt.Fprintf(out, "registered: %t\n", status.Configured)
		if status.Configured {
			fmt.Fprintf(out, "command:    %s\n", status.Command)
		}
		for _, issue := range status.Issues {
			fmt.Fprintf(out, "  ! %s\n", issue)
		}
		return nil
	},
}

func setupConfigPath(cmd *cobra.Command) (string, error) {
	if path, _ := cmd.Flags().GetString("claude-config"); path != "" {
		return path, nil
	}
	return setup.ClaudeDesktopConfigPath()
}

func init() {
	setupCmd.PersistentFlags().String("claude-config", "", "path to claude_desktop_config.json (default: platform location)")

	setupClaudeCmd.Flags().String("binary", "", "interva binary to launch (default: this executable)")
	setupClaudeCmd.Flags().String("data-dir", "", "INTERVA_DATA_DIR for the MCP server")
	setupClaudeCmd.Flags().String("probbase", "", "INTERVA_PROBBASE for the MCP server")
	setupClaudeCmd.Flags().String("malaria", "", "INTERVA_MALARIA for the MCP server")
	setupClaudeCmd.Flags().String("hiv", "", "INTERVA_HIV for the MCP server")

	setupCmd.AddCommand(setupClaudeCmd)
	setupCmd.AddCommand(setupStatusCmd)
}
