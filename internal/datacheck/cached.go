package datacheck

import (
	"context"
	"crypto/sha256"
	"fmt"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/sirupsen/logrus"

	"github.com/interva-cod-server/internal/domain"
)

// ResultCache is the shared (second) cache tier.
type ResultCache interface {
	Get(ctx context.Context, key string) (*domain.CheckResult, bool, error)
	Set(ctx context.Context, key string, result *domain.CheckResult, ttl time.Duration) error
}

// CacheStats represents cache performance statistics
type CacheStats struct {
	MemoryHits    int64     `json:"memory_hits"`
	MemoryMisses  int64     `json:"memory_misses"`
	SharedHits    int64     `json:"shared_hits"`
	SharedMisses  int64     `json:"shared_misses"`
	CheckerCalls  int64     `json:"checker_calls"`
	TotalRequests int64     `json:"total_requests"`
	ErrorCount    int64     `json:"error_count"`
	LastReset     time.Time `json:"last_reset"`
}

// CachedChecker puts an in-memory LRU tier and an optional shared tier in
// front of another checker. Identical records (same ID and values) are
// checked once.
type CachedChecker struct {
	inner     domain.ConsistencyChecker
	memory    *lru.Cache[string, *domain.CheckResult]
	shared    ResultCache
	sharedTTL time.Duration
	logger    *logrus.Logger

	statsMu sync.Mutex
	stats   CacheStats
}

// NewCachedChecker wraps inner. shared may be nil.
func NewCachedChecker(inner domain.ConsistencyChecker, size int, shared ResultCache, sharedTTL time.Duration, logger *logrus.Logger) (*CachedChecker, error) {
	if size <= 0 {
		size = 1000
	}
	memory, err := lru.New[string, *domain.CheckResult](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create memory cache: %w", err)
	}
	return &CachedChecker{
		inner:     inner,
		memory:    memory,
		shared:    shared,
		sharedTTL: sharedTTL,
		logger:    logger,
		stats:     CacheStats{LastReset: time.Now()},
	}, nil
}

// Check answers from the memory tier, then the shared tier, then the
// wrapped checker, filling the faster tiers on the way back.
func (c *CachedChecker) Check(ctx context.Context, values []domain.Value, recordID string) (*domain.CheckResult, error) {
	key := cacheKey(values, recordID)
	c.record(func(s *CacheStats) { s.TotalRequests++ })

	if cached, ok := c.memory.Get(key); ok {
		c.record(func(s *CacheStats) { s.MemoryHits++ })
		return cloneResult(cached), nil
	}
	c.record(func(s *CacheStats) { s.MemoryMisses++ })

	if c.shared != nil {
		cached, ok, err := c.shared.Get(ctx, key)
		if err != nil {
			c.logger.WithError(err).WithField("record_id", recordID).Warn("Shared check cache unavailable")
		}
		if ok {
			c.record(func(s *CacheStats) { s.SharedHits++ })
			c.memory.Add(key, cloneResult(cached))
			return cloneResult(cached), nil
		}
		c.record(func(s *CacheStats) { s.SharedMisses++ })
	}

	c.record(func(s *CacheStats) { s.CheckerCalls++ })
	result, err := c.inner.Check(ctx, values, recordID)
	if err != nil {
		c.record(func(s *CacheStats) { s.ErrorCount++ })
		return nil, err
	}

	c.memory.Add(key, cloneResult(result))
	if c.shared != nil {
		if err := c.shared.Set(ctx, key, result, c.sharedTTL); err != nil {
			c.logger.WithError(err).WithField("record_id", recordID).Warn("Failed to store check result in shared cache")
		}
	}
	return cloneResult(result), nil
}

// Stats returns a snapshot of the cache counters.
func (c *CachedChecker) Stats() CacheStats {
	c.statsMu.Lock()
	defer c.statsMu.Unlock()
	return c.stats
}

// Purge empties the memory tier and resets the counters.
func (c *CachedChecker) Purge() {
	c.memory.Purge()
	c.statsMu.Lock()
	c.stats = CacheStats{LastReset: time.Now()}
	c.statsMu.Unlock()
}

func (c *CachedChecker) record(update func(*CacheStats)) {
	c.statsMu.Lock()
	update(&c.stats)
	c.statsMu.Unlock()
}

func cacheKey(values []domain.Value, recordID string) string {
	h := sha256.New()
	h.Write([]byte(recordID))
	h.Write([]byte{0})
	for _, v := range values {
		h.Write([]byte{byte(v + 1)})
	}
	return fmt.Sprintf("datacheck:%x", h.Sum(nil)[:16])
}
