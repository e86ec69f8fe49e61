package service

import (
	"context"
	"fmt"

	"github.com/interva-cod-server/internal/domain"
	"github.com/interva-cod-server/internal/probbase"
)

// Derived demographic labels.
const (
	SexMale      = "male"
	SexFemale    = "female"
	AgeAdult     = "adult"
	AgeChild     = "child"
	AgeNeonate   = "neonate"
	ageChildFrom = 8
	ageNeonateAt = 11
)

// NormalizedRecord is one record after canonicalization, the consistency
// check and value substitution.
type NormalizedRecord struct {
	ID string

	// Checked holds the values returned by the consistency checker.
	Checked []domain.Value

	// Informative flags the indicators whose checked value matches the
	// probbase substitution value. Index 0 is always false.
	Informative []bool

	// Substituted is the checked vector with negatives turned into 1 and
	// missing values into 0.
	Substituted []int

	FirstPass       []string
	SecondPass      []string
	ReproductiveAge bool
	Sex             string
	AgeGroup        string
}

// Normalizer turns raw questionnaire rows into inference-ready records.
type Normalizer struct {
	table   *probbase.Table
	checker domain.ConsistencyChecker
}

// NewNormalizer creates a normalizer bound to a probbase and a checker.
func NewNormalizer(table *probbase.Table, checker domain.ConsistencyChecker) *Normalizer {
	return &Normalizer{table: table, checker: checker}
}

// Canonicalize maps raw markers to ternary values and clears the
// identifier slot.
func Canonicalize(responses []string) []domain.Value {
	values := make([]domain.Value, len(responses))
	for i, raw := range responses {
		values[i] = domain.ParseMarker(raw)
	}
	if len(values) > 0 {
		values[0] = domain.No
	}
	return values
}

// ExclusionReason returns the first mandatory range lacking an affirmative
// answer, or "" when the record can be classified.
func ExclusionReason(values []domain.Value) domain.ExclusionReason {
	switch {
	case countYes(values, domain.AgeStart, domain.AgeEnd) < 1:
		return domain.ExcludedNoAge
	case countYes(values, domain.SexStart, domain.SexEnd) < 1:
		return domain.ExcludedNoSex
	case countYes(values, domain.SymptomStart, domain.SymptomEnd) < 1:
		return domain.ExcludedNoSymptoms
	}
	return ""
}

// Normalize runs steps (a) to (f) of record preparation. Excluded records
// return a *domain.ExcludedError and never reach the checker.
func (n *Normalizer) Normalize(ctx context.Context, raw *domain.RawRecord) (*NormalizedRecord, error) {
	if len(raw.Responses) != domain.NumIndicators {
		return nil, &domain.ShapeError{Subject: "record", WantCols: domain.NumIndicators, GotCols: len(raw.Responses)}
	}

	values := Canonicalize(raw.Responses)
	if reason := ExclusionReason(values); reason != "" {
		return nil, &domain.ExcludedError{RecordID: raw.ID, Reason: reason}
	}

	check, err := n.checker.Check(ctx, values, raw.ID)
	if err != nil {
		return nil, fmt.Errorf("consistency check failed for record %s: %w", raw.ID, err)
	}
	if check == nil || len(check.Values) != domain.NumIndicators {
		got := 0
		if check != nil {
			got = len(check.Values)
		}
		return nil, &domain.ShapeError{Subject: "checked record", WantCols: domain.NumIndicators, GotCols: got}
	}

	checked := make([]domain.Value, len(check.Values))
	copy(checked, check.Values)

	informative := make([]bool, len(checked))
	for i := 1; i < len(checked); i++ {
		informative[i] = checked[i] != domain.Missing && checked[i] == n.table.Expected(i)
	}

	substituted := make([]int, len(checked))
	for i, v := range checked {
		if v != domain.Missing {
			substituted[i] = 1
		}
	}
	substituted[0] = 0

	return &NormalizedRecord{
		ID:              raw.ID,
		Checked:         checked,
		Informative:     informative,
		Substituted:     substituted,
		FirstPass:       check.FirstPass,
		SecondPass:      check.SecondPass,
		ReproductiveAge: reproductiveAge(checked),
		Sex:             sexOf(checked),
		AgeGroup:        ageGroupOf(checked),
	}, nil
}

// reproductiveAge requires an affirmative female indicator and an
// affirmative pregnancy indicator.
func reproductiveAge(checked []domain.Value) bool {
	if checked[domain.FemaleIndex] != domain.Yes {
		return false
	}
	if checked[domain.RecentPregnant] == domain.Yes {
		return true
	}
	for i := domain.PregnantStart; i < domain.PregnantEnd; i++ {
		if checked[i] == domain.Yes {
			return true
		}
	}
	return false
}

func sexOf(values []domain.Value) string {
	switch {
	case values[domain.MaleIndex] == domain.Yes:
		return SexMale
	case values[domain.FemaleIndex] == domain.Yes:
		return SexFemale
	}
	return ""
}

func ageGroupOf(values []domain.Value) string {
	for i := domain.AgeStart; i < domain.AgeEnd; i++ {
		if values[i] != domain.Yes {
			continue
		}
		switch {
		case i >= ageNeonateAt:
			return AgeNeonate
		case i >= ageChildFrom:
			return AgeChild
		default:
			return AgeAdult
		}
	}
	return ""
}

func countYes(values []domain.Value, start, end int) int {
	count := 0
	for _, v := range values[start:end] {
		if v == domain.Yes {
			count++
		}
	}
	return count
}
