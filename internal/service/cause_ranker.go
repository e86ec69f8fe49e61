package service

import (
	"math"
)

const (
	causeThreshold    = 0.4
	runnerUpRatio     = 0.5
	rankedCauses      = 3
	fullIndeterminacy = 100
)

// RankedCause is one of the top causes. Likelihood is nil when the slot is
// blank.
type RankedCause struct {
	Cause      string
	Likelihood *int
}

// CauseRanking is the top-three outcome for group B.
type CauseRanking struct {
	Causes        [rankedCauses]RankedCause
	Indeterminacy int
}

// RankCauses picks up to three causes from the group B slice. Each pick is
// removed from a working copy before the next one is chosen; the runner-up
// threshold always refers to the original maximum.
func RankCauses(probB []float64, names []string) CauseRanking {
	var ranking CauseRanking
	if len(probB) == 0 {
		ranking.Indeterminacy = fullIndeterminacy
		return ranking
	}

	values := make([]float64, len(probB))
	copy(values, probB)
	labels := make([]string, len(names))
	copy(labels, names)

	originalMax := values[argmax(values)]
	if originalMax < causeThreshold {
		ranking.Indeterminacy = fullIndeterminacy
		return ranking
	}

	total := 0
	for slot := 0; slot < rankedCauses && len(values) > 0; slot++ {
		at := argmax(values)
		best := values[at]
		if slot == 0 || best >= runnerUpRatio*originalMax {
			lik := int(math.RoundToEven(best * 100))
			ranking.Causes[slot] = RankedCause{Cause: labels[at], Likelihood: &lik}
			total += lik
		}
		values = append(values[:at], values[at+1:]...)
		labels = append(labels[:at], labels[at+1:]...)
	}

	ranking.Indeterminacy = int(math.RoundToEven(float64(fullIndeterminacy - total)))
	return ranking
}
