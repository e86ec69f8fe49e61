package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/interva-cod-server/internal/domain"
	"github.com/interva-cod-server/internal/ingest"
	"github.com/interva-cod-server/internal/output"
	"github.com/interva-cod-server/internal/service"
	"github.com/interva-cod-server/internal/store"
)

var runCmd = &cobra.Command{
	Use:   "run <input.csv>",
	Short: "Classify a questionnaire CSV and write the result CSV",
	Args:  cobra.ExactArgs(1),
	RunE:  runBatch,
}

func init() {
	f := runCmd.Flags()
	f.StringP("output", "o", "", "Result CSV path (overrides classifier.output_file)")
	f.String("mode", "", "Output layout: classic or extended (overrides classifier.output)")
	f.String("malaria", "", "Malaria prevalence: h, l or v")
	f.String("hiv", "", "HIV prevalence: h, l or v")
	f.String("id-column", "", "Name of the identifier column (default: first column)")
	f.Bool("append", false, "Append to an existing result CSV without a header")
	f.String("checked-data", "", "Also write the checked indicator values to this CSV")
	f.String("run-id", "", "Label for the stored run (default: a new UUID)")
	f.Bool("no-store", false, "Do not persist the run in the result store")
}

func runBatch(cmd *cobra.Command, args []string) error {
	manager, logger, err := setup(cmd)
	if err != nil {
		return err
	}
	cfg := manager.GetConfig()
	applyRunFlags(cmd, &cfg.Classifier)

	mode, err := domain.ParseOutputMode(cfg.Classifier.Output)
	if err != nil {
		return err
	}
	checkedPath, _ := cmd.Flags().GetString("checked-data")

	classifier, closeChecker, err := buildClassifier(manager, logger)
	if err != nil {
		return err
	}
	defer closeChecker()

	batch, err := ingest.NewReader(logger).ReadFile(args[0], ingest.Options{IDColumn: cfg.Classifier.IDColumn})
	if err != nil {
		return err
	}

	var results store.Store
	if noStore, _ := cmd.Flags().GetBool("no-store"); !noStore {
		results, err = store.Open(cfg.Store, manager.GetDatabaseURL())
		if err != nil {
			return fmt.Errorf("failed to open result store: %w", err)
		}
		if results != nil {
			defer results.Close()
		}
	}

	writer, err := output.CreateCSVFile(cfg.Classifier.OutputFile, mode, cfg.Classifier.Append)
	if err != nil {
		return err
	}
	defer writer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runID, _ := cmd.Flags().GetString("run-id")
	start := time.Now()
	out, err := service.RunAndStore(ctx, classifier, results, batch.Records, service.RunOptions{
		RunID:             runID,
		ReturnCheckedData: cfg.Classifier.ReturnCheckedData || checkedPath != "",
		Sinks:             []domain.ResultSink{writer},
	})
	if err != nil {
		return err
	}

	if checkedPath != "" {
		if err := writeCheckedData(checkedPath, batch.Columns, out.CheckedData); err != nil {
			return err
		}
	}

	logger.WithFields(logrus.Fields{
		"run_id":   out.RunID,
		"assigned": len(out.Results),
		"excluded": len(out.Excluded),
		"output":   cfg.Classifier.OutputFile,
		"duration": time.Since(start),
	}).Info("Run finished")

	fmt.Fprintf(cmd.OutOrStdout(), "run %s: %d assigned, %d excluded, results in %s\n",
		out.RunID, len(out.Results), len(out.Excluded), cfg.Classifier.OutputFile)
	for _, e := range out.Excluded {
		fmt.Fprintf(cmd.ErrOrStderr(), "  %s %s\n", e.ID, e.Reason)
	}
	return nil
}

func applyRunFlags(cmd *cobra.Command, c *domain.ClassifierConfig) {
	flags := cmd.Flags()
	if v, _ := flags.GetString("output"); v != "" {
		c.OutputFile = v
	}
	if v, _ := flags.GetString("mode"); v != "" {
		c.Output = v
	}
	if v, _ := flags.GetString("malaria"); v != "" {
		c.Malaria = strings.ToLower(v)
	}
	if v, _ := flags.GetString("hiv"); v != "" {
		c.HIV = strings.ToLower(v)
	}
	if v, _ := flags.GetString("id-column"); v != "" {
		c.IDColumn = v
	}
	if flags.Changed("append") {
		c.Append, _ = flags.GetBool("append")
	}
}

func writeCheckedData(path string, columns []string, data []domain.CheckedRecord) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create checked data file: %w", err)
	}
	if err := output.WriteCheckedData(f, columns, data); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
