package store

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"time"

	_ "github.com/lib/pq"

	"github.com/interva-cod-server/internal/domain"
)

// PostgresStore implements the Store interface using PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore expects the schema to already exist (created via
// migrations).
func NewPostgresStore(db *sql.DB) (*PostgresStore, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

// NewPostgresStoreFromURL creates a new PostgreSQL store from a connection URL.
func NewPostgresStoreFromURL(databaseURL string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	store, err := NewPostgresStore(db)
	if err != nil {
		db.Close()
		return nil, err
	}

	return store, nil
}

// SaveRun inserts a run or updates the counts of an existing one.
func (s *PostgresStore) SaveRun(ctx context.Context, run *Run) error {
	now := time.Now()
	if run.CreatedAt.IsZero() {
		run.CreatedAt = now
	}

	query := `
		INSERT INTO runs (
			run_id, probbase_version, malaria, hiv,
			assigned_records, excluded_records, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (run_id) DO UPDATE SET
			probbase_version = EXCLUDED.probbase_version,
			assigned_records = EXCLUDED.assigned_records,
			excluded_records = EXCLUDED.excluded_records,
			updated_at = EXCLUDED.updated_at
		RETURNING created_at
	`

	err := s.db.QueryRowContext(ctx, query,
		run.ID,
		run.ProbbaseVersion,
		string(run.Malaria),
		string(run.HIV),
		run.Assigned,
		run.Excluded,
		run.CreatedAt,
		now,
	).Scan(&run.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}

	run.UpdatedAt = now
	return nil
}

// SaveResult stores one result at its position within the run.
func (s *PostgresStore) SaveResult(ctx context.Context, runID string, position int, result *domain.Result) error {
	payload, err := encodeResult(result)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO results (run_id, position, record_id, cause1, indeterminacy, payload)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (run_id, position) DO UPDATE SET
			record_id = EXCLUDED.record_id,
			cause1 = EXCLUDED.cause1,
			indeterminacy = EXCLUDED.indeterminacy,
			payload = EXCLUDED.payload
	`
	_, err = s.db.ExecContext(ctx, query,
		runID, position, result.ID, result.Cause1, result.Indeterminacy, string(payload))
	if err != nil {
		return fmt.Errorf("failed to save result: %w", err)
	}
	return nil
}

// GetRun retrieves a run header.
func (s *PostgresStore) GetRun(ctx context.Context, runID string) (*Run, error) {
	query := `
		SELECT run_id, probbase_version, malaria, hiv,
			assigned_records, excluded_records, created_at, updated_at
		FROM runs
		WHERE run_id = $1
	`

	run := &Run{}
	var malaria, hiv string
	err := s.db.QueryRowContext(ctx, query, runID).Scan(
		&run.ID, &run.ProbbaseVersion, &malaria, &hiv,
		&run.Assigned, &run.Excluded, &run.CreatedAt, &run.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	run.Malaria = domain.Prevalence(malaria)
	run.HIV = domain.Prevalence(hiv)
	return run, nil
}

// ListRuns returns runs with pagination, newest first.
func (s *PostgresStore) ListRuns(ctx context.Context, limit, offset int) ([]*Run, error) {
	query := `
		SELECT run_id, probbase_version, malaria, hiv,
			assigned_records, excluded_records, created_at, updated_at
		FROM runs
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`

	rows, err := s.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var result []*Run
	for rows.Next() {
		run := &Run{}
		var malaria, hiv string
		err := rows.Scan(
			&run.ID, &run.ProbbaseVersion, &malaria, &hiv,
			&run.Assigned, &run.Excluded, &run.CreatedAt, &run.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		run.Malaria = domain.Prevalence(malaria)
		run.HIV = domain.Prevalence(hiv)
		result = append(result, run)
	}

	return result, rows.Err()
}

// Results returns the stored results of a run in position order.
func (s *PostgresStore) Results(ctx context.Context, runID string) ([]*domain.Result, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT payload FROM results WHERE run_id = $1 ORDER BY position", runID)
	if err != nil {
		return nil, fmt.Errorf("failed to list results: %w", err)
	}
	defer rows.Close()

	var out []*domain.Result
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		result, err := decodeResult(payload)
		if err != nil {
			return nil, err
		}
		out = append(out, result)
	}
	return out, rows.Err()
}

// CountResults returns the number of stored results of a run.
func (s *PostgresStore) CountResults(ctx context.Context, runID string) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM results WHERE run_id = $1", runID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count results: %w", err)
	}
	return count, nil
}

// DeleteRun removes a run; results go with it through the foreign key.
func (s *PostgresStore) DeleteRun(ctx context.Context, runID string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM runs WHERE run_id = $1", runID)
	if err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}
	return nil
}

// ExportJSON exports a run to a JSON writer.
func (s *PostgresStore) ExportJSON(ctx context.Context, runID string, writer io.Writer) error {
	return exportRun(ctx, s, runID, writer)
}

// ImportJSON imports a run from a JSON reader.
func (s *PostgresStore) ImportJSON(ctx context.Context, reader io.Reader) (imported int, skipped int, err error) {
	return importRun(ctx, s, reader)
}

// Close closes the store and releases resources.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}
