package service

import (
	"github.com/interva-cod-server/internal/domain"
)

const comorbidityThreshold = 0.5

// ComorbidityOutcome is the circumstances-of-mortality category of a record.
type ComorbidityOutcome struct {
	Category   string
	Likelihood *int
}

// ClassifyComorbidity normalizes the group C slice and reports its dominant
// category, or "Multiple" when no category reaches one half.
func ClassifyComorbidity(probC []float64, names []string) ComorbidityOutcome {
	values := make([]float64, len(probC))
	copy(values, probC)
	normalize(values)

	if len(values) == 0 {
		return ComorbidityOutcome{Category: domain.ComorbidityMultiple}
	}
	at := argmax(values)
	if values[at] < comorbidityThreshold {
		return ComorbidityOutcome{Category: domain.ComorbidityMultiple}
	}
	return ComorbidityOutcome{
		Category:   names[at],
		Likelihood: domain.IntPtr(roundPercent(values[at])),
	}
}
