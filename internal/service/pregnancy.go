package service

import (
	"math"

	"github.com/interva-cod-server/internal/domain"
)

const pregnancyThreshold = 0.1

// PregnancyOutcome is the pregnancy status of one record.
type PregnancyOutcome struct {
	Status     string
	Likelihood *int
}

// pregnancyInput is what every pregnancy rule sees.
type pregnancyInput struct {
	prob            []float64
	total           float64
	maxAt           int
	reproductiveAge bool
}

// PregnancyRule is one step of the pregnancy status decision. Rules are
// evaluated in order and every matching rule overwrites the outcome.
type PregnancyRule struct {
	Code      string
	Applies   func(in pregnancyInput) bool
	Status    string
	Numerator int // index into the group; -1 means no likelihood
}

var pregnancyRules = []PregnancyRule{
	{
		Code:      "not_applicable",
		Applies:   func(in pregnancyInput) bool { return in.total == 0 || !in.reproductiveAge },
		Status:    domain.PregnancyNotApplicable,
		Numerator: -1,
	},
	{
		Code: "indeterminate",
		Applies: func(in pregnancyInput) bool {
			return in.prob[in.maxAt] < pregnancyThreshold && in.reproductiveAge
		},
		Status:    domain.PregnancyIndeterminate,
		Numerator: -1,
	},
	{
		Code:      "not_pregnant",
		Applies:   argmaxRule(0),
		Status:    domain.PregnancyNotPregnant,
		Numerator: 1, // likelihood is taken from the second state
	},
	{
		Code:      "pregnancy_ended",
		Applies:   argmaxRule(1),
		Status:    domain.PregnancyEnded,
		Numerator: 1,
	},
	{
		Code:      "pregnant_at_death",
		Applies:   argmaxRule(2),
		Status:    domain.PregnancyAtDeath,
		Numerator: 2,
	},
}

func argmaxRule(at int) func(in pregnancyInput) bool {
	return func(in pregnancyInput) bool {
		return in.maxAt == at && in.prob[at] >= pregnancyThreshold && in.reproductiveAge
	}
}

// ClassifyPregnancy derives the pregnancy status from the group A slice.
func ClassifyPregnancy(probA []float64, reproductiveAge bool) PregnancyOutcome {
	in := pregnancyInput{
		prob:            probA,
		total:           sum(probA),
		maxAt:           argmax(probA),
		reproductiveAge: reproductiveAge,
	}

	outcome := PregnancyOutcome{Status: domain.PregnancyNotApplicable}
	for _, rule := range pregnancyRules {
		if !rule.Applies(in) {
			continue
		}
		outcome.Status = rule.Status
		outcome.Likelihood = nil
		if rule.Numerator >= 0 {
			outcome.Likelihood = domain.IntPtr(roundPercent(in.prob[rule.Numerator] / in.total))
		}
	}
	return outcome
}

// roundPercent converts a fraction to a whole percentage, rounding half to
// even.
func roundPercent(v float64) int {
	return int(math.RoundToEven(v * 100))
}
