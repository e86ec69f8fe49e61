package service

import (
	"sort"

	"github.com/interva-cod-server/internal/domain"
)

// CSMFOptions filter and trim a cause-specific mortality fraction summary.
type CSMFOptions struct {
	Top                 int    `json:"top,omitempty"`
	Sex                 string `json:"sex,omitempty"` // "male", "female"
	Age                 string `json:"age,omitempty"` // "adult", "child", "neonate"
	ExcludeUndetermined bool   `json:"exclude_undetermined,omitempty"`
}

// Validate checks the filter values.
func (o CSMFOptions) Validate() error {
	switch o.Sex {
	case "", SexMale, SexFemale:
	default:
		return domain.NewValidationError("sex", "must be male or female", o.Sex)
	}
	switch o.Age {
	case "", AgeAdult, AgeChild, AgeNeonate:
	default:
		return domain.NewValidationError("age", "must be adult, child or neonate", o.Age)
	}
	if o.Top < 0 {
		return domain.NewValidationError("top", "must not be negative", o.Top)
	}
	return nil
}

// CSMFEntry is the population fraction attributed to one cause.
type CSMFEntry struct {
	Cause    string  `json:"cause"`
	Fraction float64 `json:"fraction"`
}

// ComputeCSMF averages, over the selected deaths, the likelihood of each
// ranked cause and the indeterminacy (reported as "Undetermined").
// Entries are sorted by decreasing fraction.
func ComputeCSMF(results []*domain.Result, opts CSMFOptions) ([]CSMFEntry, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	totals := make(map[string]float64)
	deaths := 0
	for _, r := range results {
		if opts.Sex != "" && r.Sex != opts.Sex {
			continue
		}
		if opts.Age != "" && r.AgeGroup != opts.Age {
			continue
		}
		deaths++

		pairs := []struct {
			cause string
			lik   *int
		}{{r.Cause1, r.Likelihood1}, {r.Cause2, r.Likelihood2}, {r.Cause3, r.Likelihood3}}
		for _, p := range pairs {
			if p.cause == "" || p.lik == nil {
				continue
			}
			totals[p.cause] += float64(*p.lik) / 100
		}
		totals[domain.Undetermined] += float64(r.Indeterminacy) / 100
	}

	entries := make([]CSMFEntry, 0, len(totals))
	if deaths == 0 {
		return entries, nil
	}
	for cause, total := range totals {
		if opts.ExcludeUndetermined && cause == domain.Undetermined {
			continue
		}
		entries = append(entries, CSMFEntry{Cause: cause, Fraction: total / float64(deaths)})
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Fraction != entries[j].Fraction {
			return entries[i].Fraction > entries[j].Fraction
		}
		return entries[i].Cause < entries[j].Cause
	})
	if opts.Top > 0 && len(entries) > opts.Top {
		entries = entries[:opts.Top]
	}
	return entries, nil
}
