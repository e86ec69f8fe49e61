package main

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/interva-cod-server/internal/config"
	"github.com/interva-cod-server/internal/datacheck"
	"github.com/interva-cod-server/internal/logging"
	"github.com/interva-cod-server/internal/probbase"
	"github.com/interva-cod-server/internal/service"
)

var rootCmd = &cobra.Command{
	Use:          "interva",
	Short:        "Verbal autopsy cause-of-death assignment",
	Long:         "interva assigns up to three causes of death to verbal autopsy records using the InterVA5 probbase.",
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to config file (default: config.yaml in ., ./config or /etc/interva/)")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(probbaseCmd)
	rootCmd.AddCommand(csmfCmd)
	rootCmd.AddCommand(runsCmd)
	rootCmd.AddCommand(setupCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig reads the --config file when given, else the default search
// paths, and validates the result.
func loadConfig(cmd *cobra.Command) (*config.Manager, error) {
	var (
		manager *config.Manager
		err     error
	)
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		manager, err = config.NewManagerFromFile(path)
	} else {
		manager, err = config.NewManager()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := manager.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return manager, nil
}

// setup loads configuration and builds the logger.
func setup(cmd *cobra.Command) (*config.Manager, *logrus.Logger, error) {
	manager, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	logger, err := logging.New(manager.GetConfig().Logging)
	if err != nil {
		return nil, nil, err
	}
	return manager, logger, nil
}

// buildClassifier loads the probbase and the consistency checker. The
// returned close function is never nil.
func buildClassifier(manager *config.Manager, logger *logrus.Logger) (*service.Classifier, func() error, error) {
	cfg := manager.GetConfig()

	table, err := probbase.LoadFile(cfg.Classifier.ProbbasePath)
	if err != nil {
		return nil, nil, err
	}

	checker, closeChecker, err := datacheck.New(cfg.Checker, cfg.Cache, logger)
	if err != nil {
		return nil, nil, err
	}

	classifier, err := service.NewClassifier(logger, table, checker, service.Settings{
		Malaria: cfg.Classifier.Malaria,
		HIV:     cfg.Classifier.HIV,
		Workers: cfg.Classifier.Workers,
	})
	if err != nil {
		closeChecker()
		return nil, nil, err
	}

	logger.WithFields(logrus.Fields{
		"probbase_version": classifier.ProbbaseVersion(),
		"malaria":          classifier.Malaria(),
		"hiv":              classifier.HIV(),
	}).Info("Classifier ready")
	return classifier, closeChecker, nil
}
