package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/interva-cod-server/internal/domain"
	"github.com/interva-cod-server/internal/probbase"
)

// Settings are the run parameters of a Classifier.
type Settings struct {
	Malaria string
	HIV     string
	Workers int
}

// RunOptions tune a single batch run.
type RunOptions struct {
	// RunID labels the run; a new UUID is generated when empty.
	RunID             string
	ReturnCheckedData bool
	Sinks             []domain.ResultSink
}

// Classifier assigns causes of death to batches of records. The probbase
// and prior are shared read-only by all workers of a run.
type Classifier struct {
	logger     *logrus.Logger
	table      *probbase.Table
	normalizer *Normalizer
	workers    int

	mu      sync.RWMutex
	malaria domain.Prevalence
	hiv     domain.Prevalence
	engine  *InferenceEngine
}

// NewClassifier validates the prevalence settings and builds the prior.
func NewClassifier(
	logger *logrus.Logger,
	table *probbase.Table,
	checker domain.ConsistencyChecker,
	settings Settings,
) (*Classifier, error) {
	malaria, err := domain.ParsePrevalence("malaria", settings.Malaria)
	if err != nil {
		return nil, err
	}
	hiv, err := domain.ParsePrevalence("hiv", settings.HIV)
	if err != nil {
		return nil, err
	}

	workers := settings.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	c := &Classifier{
		logger:     logger,
		table:      table,
		normalizer: NewNormalizer(table, checker),
		workers:    workers,
	}
	if err := c.rebuild(malaria, hiv); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Classifier) rebuild(malaria, hiv domain.Prevalence) error {
	prior, err := probbase.BuildPrior(c.table.Prior(), malaria, hiv)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.malaria = malaria
	c.hiv = hiv
	c.engine = NewInferenceEngine(c.table, prior)
	return nil
}

// Malaria returns the current malaria prevalence setting.
func (c *Classifier) Malaria() domain.Prevalence {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.malaria
}

// HIV returns the current HIV prevalence setting.
func (c *Classifier) HIV() domain.Prevalence {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hiv
}

// SetMalaria validates a new malaria setting and rebuilds the prior.
func (c *Classifier) SetMalaria(raw string) error {
	malaria, err := domain.ParsePrevalence("malaria", raw)
	if err != nil {
		return err
	}
	return c.rebuild(malaria, c.HIV())
}

// SetHIV validates a new HIV setting and rebuilds the prior.
func (c *Classifier) SetHIV(raw string) error {
	hiv, err := domain.ParsePrevalence("hiv", raw)
	if err != nil {
		return err
	}
	return c.rebuild(c.Malaria(), hiv)
}

// ProbbaseVersion returns the version token of the loaded probbase.
func (c *Classifier) ProbbaseVersion() string {
	return c.table.Version()
}

type snapshot struct {
	malaria domain.Prevalence
	hiv     domain.Prevalence
	engine  *InferenceEngine
}

func (c *Classifier) snapshot() snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return snapshot{malaria: c.malaria, hiv: c.hiv, engine: c.engine}
}

// ClassifyRecord runs one record through the whole pipeline. Excluded
// records return a *domain.ExcludedError.
func (c *Classifier) ClassifyRecord(ctx context.Context, raw *domain.RawRecord) (*domain.Result, error) {
	result, _, err := c.classify(ctx, raw, c.snapshot())
	return result, err
}

func (c *Classifier) classify(ctx context.Context, raw *domain.RawRecord, s snapshot) (*domain.Result, *NormalizedRecord, error) {
	record, err := c.normalizer.Normalize(ctx, raw)
	if err != nil {
		return nil, nil, err
	}
	c.logCorrections(record.ID, "first", record.FirstPass)
	c.logCorrections(record.ID, "second", record.SecondPass)

	prob := s.engine.Infer(record.Informative)
	assessment := Assess(prob, record.ReproductiveAge)
	return AssembleResult(record, s.malaria, s.hiv, prob, assessment), record, nil
}

func (c *Classifier) logCorrections(recordID, pass string, notes []string) {
	for _, note := range notes {
		c.logger.WithFields(logrus.Fields{
			"record_id":  recordID,
			"pass":       pass,
			"correction": note,
		}).Debug("Consistency correction applied")
	}
}

type slot struct {
	result   *domain.Result
	record   *NormalizedRecord
	excluded *domain.ExcludedError
}

// Run classifies a batch on a bounded worker pool. Results, sink writes and
// exclusions all follow input order. Records without an identifier reach
// the sinks but are left out of the returned results.
func (c *Classifier) Run(ctx context.Context, records []domain.RawRecord, opts RunOptions) (*domain.RunOutput, error) {
	startTime := time.Now()
	s := c.snapshot()
	runID := opts.RunID
	if runID == "" {
		runID = uuid.NewString()
	}

	c.logger.WithFields(logrus.Fields{
		"run_id":           runID,
		"probbase_version": c.table.Version(),
		"records":          len(records),
		"malaria":          s.malaria,
		"hiv":              s.hiv,
		"workers":          c.workers,
	}).Info("Starting cause assignment run")

	slots := make([]slot, len(records))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.workers)

	for i := range records {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			result, record, err := c.classify(gctx, &records[i], s)
			if err != nil {
				var excluded *domain.ExcludedError
				if errors.As(err, &excluded) {
					slots[i].excluded = excluded
					return nil
				}
				return fmt.Errorf("record %d (%s): %w", i, records[i].ID, err)
			}
			slots[i] = slot{result: result, record: record}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	output := &domain.RunOutput{
		RunID:           runID,
		ProbbaseVersion: c.table.Version(),
		Malaria:         s.malaria,
		HIV:             s.hiv,
		IDs:             []string{},
		Results:         []*domain.Result{},
		Excluded:        []domain.Exclusion{},
	}

	for i, sl := range slots {
		if sl.excluded != nil {
			c.logger.WithFields(logrus.Fields{
				"run_id":    runID,
				"record_id": sl.excluded.RecordID,
				"reason":    sl.excluded.Reason,
			}).Warn("Record excluded from further processing")
			output.Excluded = append(output.Excluded, domain.Exclusion{
				Index:  i,
				ID:     sl.excluded.RecordID,
				Reason: sl.excluded.Reason,
			})
			continue
		}

		for _, sink := range opts.Sinks {
			if err := sink.Write(ctx, sl.result); err != nil {
				return nil, fmt.Errorf("failed to write result %s: %w", sl.result.ID, err)
			}
		}

		output.FirstPass = append(output.FirstPass, sl.record.FirstPass...)
		output.SecondPass = append(output.SecondPass, sl.record.SecondPass...)
		if opts.ReturnCheckedData {
			values := make([]domain.Value, len(sl.record.Checked)-1)
			copy(values, sl.record.Checked[1:])
			output.CheckedData = append(output.CheckedData, domain.CheckedRecord{ID: sl.record.ID, Values: values})
		}

		if !sl.result.HasID() {
			c.logger.WithFields(logrus.Fields{
				"run_id": runID,
				"index":  i,
			}).Debug("Dropping result without identifier")
			continue
		}
		output.IDs = append(output.IDs, sl.result.ID)
		output.Results = append(output.Results, sl.result)
	}

	c.logger.WithFields(logrus.Fields{
		"run_id":          runID,
		"assigned":        len(output.Results),
		"excluded":        len(output.Excluded),
		"processing_time": time.Since(startTime),
	}).Info("Cause assignment run completed")

	return output, nil
}
