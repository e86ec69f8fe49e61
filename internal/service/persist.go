package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/interva-cod-server/internal/domain"
	"github.com/interva-cod-server/internal/store"
)

// RunAndStore runs a batch and, when results is non-nil, persists the run
// header and every result the sinks receive. The header is written first
// so a failed run still leaves a trace with zero counts.
func RunAndStore(
	ctx context.Context,
	c *Classifier,
	results store.Store,
	records []domain.RawRecord,
	opts RunOptions,
) (*domain.RunOutput, error) {
	if results == nil {
		return c.Run(ctx, records, opts)
	}

	if opts.RunID == "" {
		opts.RunID = uuid.NewString()
	}
	run := &store.Run{
		ID:              opts.RunID,
		ProbbaseVersion: c.ProbbaseVersion(),
		Malaria:         c.Malaria(),
		HIV:             c.HIV(),
	}
	if err := results.SaveRun(ctx, run); err != nil {
		return nil, fmt.Errorf("failed to record run: %w", err)
	}

	opts.Sinks = append(append([]domain.ResultSink(nil), opts.Sinks...), store.NewSink(results, opts.RunID))
	out, err := c.Run(ctx, records, opts)
	if err != nil {
		return nil, err
	}

	run.Assigned = len(out.Results)
	run.Excluded = len(out.Excluded)
	if err := results.SaveRun(ctx, run); err != nil {
		return nil, fmt.Errorf("failed to record run: %w", err)
	}
	return out, nil
}
