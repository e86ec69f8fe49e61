package database

import (
	"context"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/interva-cod-server/internal/domain"
	"github.com/interva-cod-server/internal/store"
)

func migrationsDir(t *testing.T) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	require.True(t, ok)
	return filepath.Join(filepath.Dir(file), "..", "..", "migrations")
}

func TestURL(t *testing.T) {
	cfg := domain.DatabaseConfig{
		Host:     "db",
		Port:     5433,
		Database: "interva",
		Username: "va",
		Password: "secret",
	}
	assert.Equal(t, "postgres://va:secret@db:5433/interva?sslmode=disable", URL(cfg))

	cfg.SSLMode = "require"
	assert.Equal(t, "postgres://va:secret@db:5433/interva?sslmode=require", URL(cfg))
}

func TestConfigFrom(t *testing.T) {
	cfg := ConfigFrom(domain.DatabaseConfig{
		Host:            "localhost",
		Port:            5432,
		MaxOpenConns:    4,
		MaxIdleConns:    10,
		ConnMaxLifetime: time.Hour,
	})
	assert.Equal(t, int32(4), cfg.MaxConns)
	assert.Equal(t, int32(4), cfg.MinConns, "idle connections are capped by the pool size")
	assert.Equal(t, time.Hour, cfg.MaxConnLife)
}

func TestDatabaseConnection(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		t.Fatalf("Failed to start PostgreSQL container: %v", err)
	}
	defer func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("Failed to terminate PostgreSQL container: %v", err)
		}
	}()

	host, err := pgContainer.Host(ctx)
	require.NoError(t, err)
	port, err := pgContainer.MappedPort(ctx, "5432")
	require.NoError(t, err)

	dbCfg := domain.DatabaseConfig{
		Host:            host,
		Port:            port.Int(),
		Database:        "testdb",
		Username:        "testuser",
		Password:        "testpass",
		SSLMode:         "disable",
		MaxOpenConns:    10,
		MaxIdleConns:    2,
		ConnMaxLifetime: time.Hour,
	}

	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel) // Reduce noise in tests

	runner, err := NewMigrationRunner(URL(dbCfg), migrationsDir(t), logger)
	require.NoError(t, err)
	defer runner.Close()

	version, _, err := runner.Version()
	require.NoError(t, err)
	assert.Zero(t, version)

	require.NoError(t, runner.Up(ctx))
	require.NoError(t, runner.Up(ctx), "second up is a no-op")
	version, dirty, err := runner.Version()
	require.NoError(t, err)
	assert.Equal(t, uint(2), version)
	assert.False(t, dirty)

	db, err := NewConnection(ctx, ConfigFrom(dbCfg), logger)
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, db.Health(ctx))
	assert.NotZero(t, db.Stats().TotalConns())

	results, err := store.NewPostgresStoreFromURL(URL(dbCfg))
	require.NoError(t, err)
	defer results.Close()

	run := &store.Run{ID: "run-1", Malaria: domain.PrevalenceHigh, HIV: domain.PrevalenceLow}
	require.NoError(t, results.SaveRun(ctx, run))
	require.NoError(t, results.SaveResult(ctx, "run-1", 0, &domain.Result{ID: "d1", Cause1: "Malaria", Indeterminacy: 20}))

	status, err := db.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), status.Runs)
	assert.Equal(t, int64(1), status.Results)
	assert.NotNil(t, status.LastRun)

	require.NoError(t, runner.Down(ctx))
	version, _, err = runner.Version()
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)
}
