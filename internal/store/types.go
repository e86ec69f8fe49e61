// Package store persists classification runs and their assembled results.
// Results are kept in the order the classifier emitted them.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/interva-cod-server/internal/domain"
)

// Run is the header row of one persisted batch.
type Run struct {
	ID              string            `json:"run_id"`
	ProbbaseVersion string            `json:"probbase_version"`
	Malaria         domain.Prevalence `json:"malaria"`
	HIV             domain.Prevalence `json:"hiv"`
	Assigned        int               `json:"assigned"`
	Excluded        int               `json:"excluded"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

// Store defines the interface for run storage operations.
type Store interface {
	// SaveRun inserts a run or updates the counts of an existing one.
	SaveRun(ctx context.Context, run *Run) error

	// SaveResult stores one result at its position within the run.
	SaveResult(ctx context.Context, runID string, position int, result *domain.Result) error

	// GetRun returns nil, nil when the run does not exist.
	GetRun(ctx context.Context, runID string) (*Run, error)

	// ListRuns returns runs newest first.
	ListRuns(ctx context.Context, limit, offset int) ([]*Run, error)

	// Results returns the stored results of a run in position order.
	Results(ctx context.Context, runID string) ([]*domain.Result, error)

	// CountResults returns the number of stored results of a run.
	CountResults(ctx context.Context, runID string) (int64, error)

	// DeleteRun removes a run and its results.
	DeleteRun(ctx context.Context, runID string) error

	// ExportJSON writes a run and its results as a RunExport document.
	ExportJSON(ctx context.Context, runID string, writer io.Writer) error

	// ImportJSON loads a RunExport document. An already stored run is
	// skipped whole.
	ImportJSON(ctx context.Context, reader io.Reader) (imported int, skipped int, err error)

	Close() error
}

// RunExport represents the JSON export format.
type RunExport struct {
	Version    string           `json:"version"`
	ExportedAt time.Time        `json:"exported_at"`
	Run        *Run             `json:"run"`
	Count      int              `json:"count"`
	Results    []*domain.Result `json:"results"`
}

const exportVersion = "1.0"

func exportRun(ctx context.Context, s Store, runID string, writer io.Writer) error {
	run, err := s.GetRun(ctx, runID)
	if err != nil {
		return err
	}
	if run == nil {
		return fmt.Errorf("run %s not found", runID)
	}
	results, err := s.Results(ctx, runID)
	if err != nil {
		return fmt.Errorf("failed to list results: %w", err)
	}

	export := &RunExport{
		Version:    exportVersion,
		ExportedAt: time.Now(),
		Run:        run,
		Count:      len(results),
		Results:    results,
	}

	encoder := json.NewEncoder(writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(export)
}

func importRun(ctx context.Context, s Store, reader io.Reader) (imported int, skipped int, err error) {
	var export RunExport
	if err := json.NewDecoder(reader).Decode(&export); err != nil {
		return 0, 0, fmt.Errorf("failed to decode JSON: %w", err)
	}
	if export.Run == nil || export.Run.ID == "" {
		return 0, 0, domain.NewValidationError("run", "export carries no run", nil)
	}

	existing, err := s.GetRun(ctx, export.Run.ID)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to check existing: %w", err)
	}
	if existing != nil {
		return 0, len(export.Results), nil
	}

	if err := s.SaveRun(ctx, export.Run); err != nil {
		return 0, 0, fmt.Errorf("failed to save run: %w", err)
	}
	for i, result := range export.Results {
		if err := s.SaveResult(ctx, export.Run.ID, i, result); err != nil {
			return imported, skipped, fmt.Errorf("failed to save result: %w", err)
		}
		imported++
	}
	return imported, skipped, nil
}

func encodeResult(result *domain.Result) ([]byte, error) {
	payload, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("failed to encode result: %w", err)
	}
	return payload, nil
}

func decodeResult(payload []byte) (*domain.Result, error) {
	result := &domain.Result{}
	if err := json.Unmarshal(payload, result); err != nil {
		return nil, fmt.Errorf("failed to decode result: %w", err)
	}
	return result, nil
}
