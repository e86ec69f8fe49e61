package store

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/interva-cod-server/internal/domain"
)

func createTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "interva.db"))
	require.NoError(t, err)
	return store
}

func sampleRun(id string) *Run {
	return &Run{
		ID:              id,
		ProbbaseVersion: "probbase_v18",
		Malaria:         domain.PrevalenceHigh,
		HIV:             domain.PrevalenceLow,
	}
}

func sampleResult(id, cause string, lik int) *domain.Result {
	return &domain.Result{
		ID:              id,
		Malaria:         domain.PrevalenceHigh,
		HIV:             domain.PrevalenceLow,
		PregnancyStatus: domain.PregnancyNotApplicable,
		Cause1:          cause,
		Likelihood1:     domain.IntPtr(lik),
		Indeterminacy:   100 - lik,
		Comorbidity:     domain.ComorbidityMultiple,
		Probabilities: []domain.CauseProbability{
			{Cause: cause, Probability: float64(lik) / 100},
		},
		Sex:      "female",
		AgeGroup: "adult",
	}
}

func TestNewSQLiteStore(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "interva.db")

	store, err := NewSQLiteStore(dbPath)

	require.NoError(t, err)
	require.NotNil(t, store)
	defer store.Close()

	_, err = os.Stat(dbPath)
	assert.NoError(t, err, "Database file should exist")
}

func TestSQLiteStore_SaveRun(t *testing.T) {
	store := createTestStore(t)
	defer store.Close()
	ctx := context.Background()

	run := sampleRun("run-1")
	require.NoError(t, store.SaveRun(ctx, run))
	assert.False(t, run.CreatedAt.IsZero())
	created := run.CreatedAt

	run.Assigned = 12
	run.Excluded = 3
	require.NoError(t, store.SaveRun(ctx, run))

	got, err := store.GetRun(ctx, "run-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 12, got.Assigned)
	assert.Equal(t, 3, got.Excluded)
	assert.Equal(t, domain.PrevalenceHigh, got.Malaria)
	assert.Equal(t, domain.PrevalenceLow, got.HIV)
	assert.Equal(t, "probbase_v18", got.ProbbaseVersion)
	assert.True(t, got.CreatedAt.Equal(created), "created_at survives the update")
}

func TestSQLiteStore_GetRun_NotFound(t *testing.T) {
	store := createTestStore(t)
	defer store.Close()

	run, err := store.GetRun(context.Background(), "missing")
	assert.NoError(t, err)
	assert.Nil(t, run)
}

func TestSQLiteStore_Results(t *testing.T) {
	store := createTestStore(t)
	defer store.Close()
	ctx := context.Background()

	require.NoError(t, store.SaveRun(ctx, sampleRun("run-1")))
	require.NoError(t, store.SaveResult(ctx, "run-1", 1, sampleResult("d2", "Malaria", 60)))
	require.NoError(t, store.SaveResult(ctx, "run-1", 0, sampleResult("d1", "HIV/AIDS related death", 80)))

	results, err := store.Results(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "d1", results[0].ID, "ordered by position")
	assert.Equal(t, "d2", results[1].ID)
	require.NotNil(t, results[0].Likelihood1)
	assert.Equal(t, 80, *results[0].Likelihood1)
	assert.Nil(t, results[0].PregnancyLikelihood)
	assert.Equal(t, "female", results[0].Sex)

	count, err := store.CountResults(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	// Rewriting a position replaces the stored row.
	require.NoError(t, store.SaveResult(ctx, "run-1", 1, sampleResult("d2", "Sepsis (non-obstetric)", 55)))
	results, err = store.Results(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "Sepsis (non-obstetric)", results[1].Cause1)
}

func TestSQLiteStore_ListRuns(t *testing.T) {
	store := createTestStore(t)
	defer store.Close()
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, store.SaveRun(ctx, sampleRun(id)))
	}

	runs, err := store.ListRuns(ctx, 2, 0)
	require.NoError(t, err)
	assert.Len(t, runs, 2)

	runs, err = store.ListRuns(ctx, 10, 2)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestSQLiteStore_DeleteRun(t *testing.T) {
	store := createTestStore(t)
	defer store.Close()
	ctx := context.Background()

	require.NoError(t, store.SaveRun(ctx, sampleRun("run-1")))
	require.NoError(t, store.SaveResult(ctx, "run-1", 0, sampleResult("d1", "Malaria", 70)))

	require.NoError(t, store.DeleteRun(ctx, "run-1"))

	run, err := store.GetRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Nil(t, run)
	count, err := store.CountResults(ctx, "run-1")
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestSQLiteStore_ExportImport(t *testing.T) {
	ctx := context.Background()
	source := createTestStore(t)
	defer source.Close()

	require.NoError(t, source.SaveRun(ctx, sampleRun("run-1")))
	require.NoError(t, source.SaveResult(ctx, "run-1", 0, sampleResult("d1", "Malaria", 70)))
	require.NoError(t, source.SaveResult(ctx, "run-1", 1, sampleResult("d2", "Malaria", 45)))

	var buf bytes.Buffer
	require.NoError(t, source.ExportJSON(ctx, "run-1", &buf))
	assert.Contains(t, buf.String(), `"run_id": "run-1"`)

	target := createTestStore(t)
	defer target.Close()

	imported, skipped, err := target.ImportJSON(ctx, bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, 2, imported)
	assert.Zero(t, skipped)

	results, err := target.Results(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "d2", results[1].ID)

	imported, skipped, err = target.ImportJSON(ctx, bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Zero(t, imported)
	assert.Equal(t, 2, skipped)

	err = source.ExportJSON(ctx, "missing", &bytes.Buffer{})
	assert.Error(t, err)

	_, _, err = target.ImportJSON(ctx, bytes.NewReader([]byte(`{"version":"1.0"}`)))
	assert.Error(t, err)
}

func TestSink(t *testing.T) {
	store := createTestStore(t)
	defer store.Close()
	ctx := context.Background()

	require.NoError(t, store.SaveRun(ctx, sampleRun("run-1")))
	sink := NewSink(store, "run-1")

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, sink.Write(ctx, sampleResult("d", "Malaria", 50)))
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, sink.Written())
	count, err := store.CountResults(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, int64(10), count)

	t.Run("Skips_Missing_ID", func(t *testing.T) {
		require.NoError(t, sink.Write(ctx, sampleResult("", "Malaria", 50)))
		require.NoError(t, sink.Write(ctx, sampleResult("NA", "Malaria", 50)))
		assert.Equal(t, 10, sink.Written())
	})
}

func TestOpen(t *testing.T) {
	t.Run("None", func(t *testing.T) {
		s, err := Open(domain.StoreConfig{Driver: "none"}, "")
		assert.NoError(t, err)
		assert.Nil(t, s)
	})

	t.Run("SQLite", func(t *testing.T) {
		s, err := Open(domain.StoreConfig{Driver: "sqlite", SQLitePath: filepath.Join(t.TempDir(), "x.db")}, "")
		require.NoError(t, err)
		require.NotNil(t, s)
		assert.NoError(t, s.Close())
	})

	t.Run("Unknown_Driver", func(t *testing.T) {
		_, err := Open(domain.StoreConfig{Driver: "mysql"}, "")
		var validationErr *domain.ValidationError
		assert.ErrorAs(t, err, &validationErr)
	})
}
