package domain

import (
	"fmt"
	"strings"
)

// Instrument dimensions of the WHO 2016 (v1.5) questionnaire as encoded in
// the InterVA5 probbase.
const (
	NumIndicators     = 354 // rows of the probbase, columns of an input record
	NumTableColumns   = 87
	NumMetaColumns    = 17
	NumCauses         = NumTableColumns - NumMetaColumns
	SubstitutionCol   = 5
	VersionRow        = 0
	VersionCol        = 2
	LastIndicatorName = "i459o"
)

// Indicator positions inside a record. Ranges are half-open.
const (
	SexStart       = 3
	SexEnd         = 5
	MaleIndex      = 3
	FemaleIndex    = 4
	AgeStart       = 5
	AgeEnd         = 12
	SymptomStart   = 20
	SymptomEnd     = 328
	RecentPregnant = 16
	PregnantStart  = 17
	PregnantEnd    = 19
)

// Value is a canonical questionnaire response.
type Value int8

const (
	Missing Value = -1
	No      Value = 0
	Yes     Value = 1
)

// String renders the value the way checked data is exported.
func (v Value) String() string {
	switch v {
	case Yes:
		return "1"
	case No:
		return "0"
	default:
		return ""
	}
}

// ParseMarker canonicalizes a raw response marker. Only single-letter y/n
// codes (any case) are answers; everything else is missing.
func ParseMarker(raw string) Value {
	switch strings.TrimSpace(raw) {
	case "y", "Y":
		return Yes
	case "n", "N":
		return No
	default:
		return Missing
	}
}

// RawRecord is one questionnaire row as read from input. Responses has
// NumIndicators entries; index 0 is the identifier slot and is never a
// symptom.
type RawRecord struct {
	ID        string   `json:"id"`
	Responses []string `json:"responses"`
}

// Prevalence is a regional prevalence setting for HIV or malaria.
type Prevalence string

const (
	PrevalenceHigh    Prevalence = "h"
	PrevalenceLow     Prevalence = "l"
	PrevalenceVeryLow Prevalence = "v"
)

// ParsePrevalence accepts the single-letter codes and their long forms in
// any case.
func ParsePrevalence(setting, raw string) (Prevalence, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "h", "high":
		return PrevalenceHigh, nil
	case "l", "low":
		return PrevalenceLow, nil
	case "v", "very-low", "verylow", "very_low":
		return PrevalenceVeryLow, nil
	}
	return "", NewInvalidSettingError(setting, raw)
}

// OutputMode selects the CSV layout of written results.
type OutputMode string

const (
	OutputClassic  OutputMode = "classic"
	OutputExtended OutputMode = "extended"
)

// ParseOutputMode validates an output mode; "compact" is an alias of classic.
func ParseOutputMode(raw string) (OutputMode, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "classic", "compact":
		return OutputClassic, nil
	case "extended":
		return OutputExtended, nil
	}
	return "", NewValidationError("output", "must be classic or extended", raw)
}

// CauseProbability is one entry of a record's combined probability vector.
type CauseProbability struct {
	Cause       string  `json:"cause"`
	Probability float64 `json:"probability"`
}

// Result is the assembled cause assignment for one accepted record.
// Likelihood pointers are nil when the cell is blank.
type Result struct {
	ID                    string             `json:"id"`
	Malaria               Prevalence         `json:"malaria"`
	HIV                   Prevalence         `json:"hiv"`
	PregnancyStatus       string             `json:"preg_stat"`
	PregnancyLikelihood   *int               `json:"preg_lik"`
	Cause1                string             `json:"cause1"`
	Likelihood1           *int               `json:"lik1"`
	Cause2                string             `json:"cause2"`
	Likelihood2           *int               `json:"lik2"`
	Cause3                string             `json:"cause3"`
	Likelihood3           *int               `json:"lik3"`
	Indeterminacy         int                `json:"indet"`
	Comorbidity           string             `json:"comcat"`
	ComorbidityLikelihood *int               `json:"comnum"`
	Probabilities         []CauseProbability `json:"wholeprob"`
	Sex                   string             `json:"sex,omitempty"`
	AgeGroup              string             `json:"age_group,omitempty"`
}

// HasID reports whether the record carried a usable identifier.
func (r *Result) HasID() bool {
	id := strings.TrimSpace(r.ID)
	return id != "" && !strings.EqualFold(id, "nan") && !strings.EqualFold(id, "na")
}

// Probability returns the combined probability of a named cause.
func (r *Result) Probability(cause string) (float64, bool) {
	for _, p := range r.Probabilities {
		if p.Cause == cause {
			return p.Probability, true
		}
	}
	return 0, false
}

// Exclusion records why a record was skipped before inference.
type Exclusion struct {
	Index  int             `json:"index"`
	ID     string          `json:"id"`
	Reason ExclusionReason `json:"reason"`
}

// CheckResult is what the consistency-check collaborator returns.
type CheckResult struct {
	Values     []Value  `json:"values"`
	FirstPass  []string `json:"first_pass"`
	SecondPass []string `json:"second_pass"`
}

// CheckedRecord pairs a record ID with its post-check values.
type CheckedRecord struct {
	ID     string  `json:"id"`
	Values []Value `json:"values"`
}

// RunOutput is the full product of one batch classification.
type RunOutput struct {
	RunID           string          `json:"run_id"`
	ProbbaseVersion string          `json:"probbase_version"`
	Malaria         Prevalence      `json:"malaria"`
	HIV             Prevalence      `json:"hiv"`
	IDs             []string        `json:"ids"`
	Results         []*Result       `json:"results"`
	Excluded        []Exclusion     `json:"excluded"`
	FirstPass       []string        `json:"first_pass,omitempty"`
	SecondPass      []string        `json:"second_pass,omitempty"`
	CheckedData     []CheckedRecord `json:"checked_data,omitempty"`
}

// TopCause is one ranked cause of a single death.
type TopCause struct {
	ID         string `json:"id"`
	Rank       int    `json:"rank"`
	Cause      string `json:"cause"`
	Likelihood int    `json:"likelihood"`
}

// TopCauses flattens the non-blank ranked causes of every result.
func (o *RunOutput) TopCauses() []TopCause {
	var out []TopCause
	for _, r := range o.Results {
		pairs := []struct {
			cause string
			lik   *int
		}{{r.Cause1, r.Likelihood1}, {r.Cause2, r.Likelihood2}, {r.Cause3, r.Likelihood3}}
		for i, p := range pairs {
			if p.cause == "" || p.lik == nil {
				continue
			}
			out = append(out, TopCause{ID: r.ID, Rank: i + 1, Cause: p.cause, Likelihood: *p.lik})
		}
	}
	return out
}

// IndividualProbabilities returns each result's probability vector keyed by ID.
func (o *RunOutput) IndividualProbabilities() map[string][]CauseProbability {
	out := make(map[string][]CauseProbability, len(o.Results))
	for _, r := range o.Results {
		out[r.ID] = r.Probabilities
	}
	return out
}

// IntPtr is a small helper for optional likelihood cells.
func IntPtr(v int) *int { return &v }

// FormatLikelihood renders an optional likelihood as a CSV cell.
func FormatLikelihood(v *int) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%d", *v)
}
