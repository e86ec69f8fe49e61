package store

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/interva-cod-server/internal/domain"
)

// Driver names accepted by Open.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverNone     = "none"
)

// Open builds the store selected by cfg. DriverNone yields a nil store.
func Open(cfg domain.StoreConfig, databaseURL string) (Store, error) {
	switch strings.ToLower(cfg.Driver) {
	case DriverNone, "":
		return nil, nil
	case DriverSQLite:
		s, err := NewSQLiteStore(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return s, nil
	case DriverPostgres:
		s, err := NewPostgresStoreFromURL(databaseURL)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
	return nil, domain.NewValidationError("store.driver", "must be sqlite, postgres or none", cfg.Driver)
}

// Sink adapts a Store to domain.ResultSink, numbering results in the order
// they arrive. Results without an identifier are not stored, so a stored run
// holds exactly the rows the run returns.
type Sink struct {
	store Store
	runID string

	mu   sync.Mutex
	next int
}

// NewSink writes results under runID.
func NewSink(s Store, runID string) *Sink {
	return &Sink{store: s, runID: runID}
}

// Write implements domain.ResultSink.
func (s *Sink) Write(ctx context.Context, result *domain.Result) error {
	if !result.HasID() {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.SaveResult(ctx, s.runID, s.next, result); err != nil {
		return fmt.Errorf("run %s position %d: %w", s.runID, s.next, err)
	}
	s.next++
	return nil
}

// Written returns the number of results stored so far.
func (s *Sink) Written() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.next
}
