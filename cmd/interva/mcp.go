package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/interva-cod-server/internal/config"
	"github.com/interva-cod-server/internal/domain"
	"github.com/interva-cod-server/internal/logging"
	"github.com/interva-cod-server/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve MCP tools over stdio",
	Long: `Serve MCP tools over stdio. Configuration comes from INTERVA_* environment
variables only; results are kept in $INTERVA_DATA_DIR/results.db.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.LoadLiteConfig()

		// stdout carries the protocol.
		logger, err := logging.New(domain.LoggingConfig{
			Level:  cfg.LogLevel,
			Format: cfg.LogFormat,
			Output: "stderr",
		})
		if err != nil {
			return err
		}

		server, err := mcp.NewServer(cfg, mcp.WithLogger(logger))
		if err != nil {
			return err
		}
		defer server.Close()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return server.Start(ctx)
	},
}
