// Package datacheck provides implementations of the record consistency
// check: a local passthrough, an HTTP client for a remote checking service
// and a two-tier cache that can wrap either.
package datacheck

import (
	"context"

	"github.com/interva-cod-server/internal/domain"
)

// Passthrough accepts every record as consistent.
type Passthrough struct{}

// NewPassthrough creates a checker that never rewrites values.
func NewPassthrough() *Passthrough {
	return &Passthrough{}
}

// Check returns a copy of values with empty correction logs.
func (Passthrough) Check(_ context.Context, values []domain.Value, _ string) (*domain.CheckResult, error) {
	return &domain.CheckResult{
		Values:     cloneValues(values),
		FirstPass:  []string{},
		SecondPass: []string{},
	}, nil
}

func cloneValues(values []domain.Value) []domain.Value {
	out := make([]domain.Value, len(values))
	copy(out, values)
	return out
}

func cloneResult(r *domain.CheckResult) *domain.CheckResult {
	return &domain.CheckResult{
		Values:     cloneValues(r.Values),
		FirstPass:  append([]string{}, r.FirstPass...),
		SecondPass: append([]string{}, r.SecondPass...),
	}
}
