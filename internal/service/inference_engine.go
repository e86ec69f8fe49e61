package service

import (
	"github.com/interva-cod-server/internal/domain"
	"github.com/interva-cod-server/internal/probbase"
)

// InferenceEngine combines the prior with the informative symptom rows.
// It holds no per-record state and may be shared across goroutines.
type InferenceEngine struct {
	table *probbase.Table
	prior []float64
}

// NewInferenceEngine creates an engine over a table and a prior built for
// it. The prior is copied.
func NewInferenceEngine(table *probbase.Table, prior []float64) *InferenceEngine {
	p := make([]float64, len(prior))
	copy(p, prior)
	return &InferenceEngine{table: table, prior: p}
}

// Prior returns a copy of the prior in use.
func (e *InferenceEngine) Prior() []float64 {
	out := make([]float64, len(e.prior))
	copy(out, e.prior)
	return out
}

// Infer multiplies the prior by every informative symptom row in ascending
// indicator order, renormalizing each cause group after every step.
func (e *InferenceEngine) Infer(informative []bool) []float64 {
	prob := e.Prior()
	for i := 1; i < len(informative); i++ {
		if !informative[i] {
			continue
		}
		row := e.table.SymptomRow(i)
		for j := range prob {
			prob[j] *= row[j]
		}
		NormalizeGroups(prob)
	}
	return prob
}

// NormalizeGroups rescales each cause group of prob to sum to one. A group
// whose sum is not strictly positive is left as is.
func NormalizeGroups(prob []float64) {
	for _, g := range domain.CauseGroups {
		normalize(prob[g.Start:g.End])
	}
}

func normalize(values []float64) {
	total := sum(values)
	if total <= 0 {
		return
	}
	for i := range values {
		values[i] /= total
	}
}

func sum(values []float64) float64 {
	total := 0.0
	for _, v := range values {
		total += v
	}
	return total
}

// argmax returns the first index holding the largest value.
func argmax(values []float64) int {
	best := 0
	for i, v := range values {
		if v > values[best] {
			best = i
		}
	}
	return best
}
