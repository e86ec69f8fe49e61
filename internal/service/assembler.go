package service

import (
	"github.com/interva-cod-server/internal/domain"
)

// Assessment gathers the classifier outputs of one record.
type Assessment struct {
	Pregnancy   PregnancyOutcome
	Ranking     CauseRanking
	Comorbidity ComorbidityOutcome
}

// Assess runs the three classifiers over a combined probability vector.
func Assess(prob []float64, reproductiveAge bool) Assessment {
	pa, pb, pc := domain.GroupPregnancy, domain.GroupCause, domain.GroupComorbidity
	return Assessment{
		Pregnancy:   ClassifyPregnancy(prob[pa.Start:pa.End], reproductiveAge),
		Ranking:     RankCauses(prob[pb.Start:pb.End], domain.GroupNames(pb)),
		Comorbidity: ClassifyComorbidity(prob[pc.Start:pc.End], domain.GroupNames(pc)),
	}
}

// AssembleResult packages one record into a result row. Nothing in the row
// aliases its inputs.
func AssembleResult(record *NormalizedRecord, malaria, hiv domain.Prevalence, prob []float64, a Assessment) *domain.Result {
	probabilities := make([]domain.CauseProbability, len(prob))
	for i, p := range prob {
		probabilities[i] = domain.CauseProbability{Cause: domain.CauseNames[i], Probability: p}
	}

	c := a.Ranking.Causes
	return &domain.Result{
		ID:                    record.ID,
		Malaria:               malaria,
		HIV:                   hiv,
		PregnancyStatus:       a.Pregnancy.Status,
		PregnancyLikelihood:   copyInt(a.Pregnancy.Likelihood),
		Cause1:                c[0].Cause,
		Likelihood1:           copyInt(c[0].Likelihood),
		Cause2:                c[1].Cause,
		Likelihood2:           copyInt(c[1].Likelihood),
		Cause3:                c[2].Cause,
		Likelihood3:           copyInt(c[2].Likelihood),
		Indeterminacy:         a.Ranking.Indeterminacy,
		Comorbidity:           a.Comorbidity.Category,
		ComorbidityLikelihood: copyInt(a.Comorbidity.Likelihood),
		Probabilities:         probabilities,
		Sex:                   record.Sex,
		AgeGroup:              record.AgeGroup,
	}
}

func copyInt(v *int) *int {
	if v == nil {
		return nil
	}
	return domain.IntPtr(*v)
}
