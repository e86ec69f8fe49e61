package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/interva-cod-server/internal/api"
	"github.com/interva-cod-server/internal/database"
	"github.com/interva-cod-server/internal/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the classification HTTP API",
	Args:  cobra.NoArgs,
	RunE:  serve,
}

func serve(cmd *cobra.Command, args []string) error {
	manager, logger, err := setup(cmd)
	if err != nil {
		return err
	}
	cfg := manager.GetConfig()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	classifier, closeChecker, err := buildClassifier(manager, logger)
	if err != nil {
		return err
	}
	defer closeChecker()

	results, err := store.Open(cfg.Store, manager.GetDatabaseURL())
	if err != nil {
		return fmt.Errorf("failed to open result store: %w", err)
	}
	if results != nil {
		defer results.Close()
	}

	deps := api.Deps{Logger: logger, Classifier: classifier, Results: results}
	if cfg.Store.Driver == store.DriverPostgres {
		db, err := database.NewConnection(ctx, database.ConfigFrom(cfg.Database), logger)
		if err != nil {
			return err
		}
		defer db.Close()
		deps.DB = db
	}

	logger.WithField("store", cfg.Store.Driver).Info("Starting HTTP API")
	if err := api.NewServer(manager, deps).Start(ctx); err != nil {
		return err
	}
	logger.Info("Server stopped")
	return nil
}
