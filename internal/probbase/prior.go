package probbase

import (
	"github.com/interva-cod-server/internal/domain"
)

// Cause positions whose prior depends on regional prevalence.
const (
	hivCause         = 5  // HIV/AIDS related death
	malariaCause     = 7  // Malaria
	malariaLinkCause = 27 // Sickle cell with crisis
)

var (
	hivPrior = map[domain.Prevalence]float64{
		domain.PrevalenceHigh:    0.05,
		domain.PrevalenceLow:     0.005,
		domain.PrevalenceVeryLow: 1e-05,
	}
	malariaPrior = map[domain.Prevalence]float64{
		domain.PrevalenceHigh:    0.05,
		domain.PrevalenceLow:     0.005,
		domain.PrevalenceVeryLow: 1e-05,
	}
	malariaLinkPrior = map[domain.Prevalence]float64{
		domain.PrevalenceHigh:    0.05,
		domain.PrevalenceLow:     1e-05,
		domain.PrevalenceVeryLow: 1e-05,
	}
)

// BuildPrior returns a new prior with the prevalence-dependent causes
// overwritten. The seed is left untouched.
func BuildPrior(seed []float64, malaria, hiv domain.Prevalence) ([]float64, error) {
	if len(seed) != domain.NumCauses {
		return nil, &domain.ShapeError{Subject: "prior", WantCols: domain.NumCauses, GotCols: len(seed)}
	}
	hivValue, ok := hivPrior[hiv]
	if !ok {
		return nil, domain.NewInvalidSettingError("hiv", string(hiv))
	}
	malariaValue, ok := malariaPrior[malaria]
	if !ok {
		return nil, domain.NewInvalidSettingError("malaria", string(malaria))
	}

	prior := make([]float64, len(seed))
	copy(prior, seed)
	prior[hivCause] = hivValue
	prior[malariaCause] = malariaValue
	prior[malariaLinkCause] = malariaLinkPrior[malaria]
	return prior, nil
}
