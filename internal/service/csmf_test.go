package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/interva-cod-server/internal/domain"
)

func csmfResult(sex, age string, indet int, causes ...interface{}) *domain.Result {
	r := &domain.Result{Sex: sex, AgeGroup: age, Indeterminacy: indet}
	slots := []struct {
		cause *string
		lik   **int
	}{{&r.Cause1, &r.Likelihood1}, {&r.Cause2, &r.Likelihood2}, {&r.Cause3, &r.Likelihood3}}
	for i := 0; i+1 < len(causes); i += 2 {
		*slots[i/2].cause = causes[i].(string)
		*slots[i/2].lik = domain.IntPtr(causes[i+1].(int))
	}
	return r
}

func TestComputeCSMF(t *testing.T) {
	results := []*domain.Result{
		csmfResult(SexMale, AgeAdult, 20, "Malaria", 80),
		csmfResult(SexFemale, AgeAdult, 0, "Malaria", 60, "HIV/AIDS related death", 40),
		csmfResult(SexFemale, AgeChild, 100),
		csmfResult(SexMale, AgeNeonate, 10, "Birth asphyxia", 90),
	}

	t.Run("All_Deaths", func(t *testing.T) {
		got, err := ComputeCSMF(results, CSMFOptions{})
		require.NoError(t, err)
		require.Len(t, got, 4)

		assert.Equal(t, "Malaria", got[0].Cause)
		assert.InDelta(t, 0.35, got[0].Fraction, 1e-12)
		assert.Equal(t, domain.Undetermined, got[1].Cause)
		assert.InDelta(t, 0.325, got[1].Fraction, 1e-12)
		assert.Equal(t, "Birth asphyxia", got[2].Cause)
		assert.InDelta(t, 0.225, got[2].Fraction, 1e-12)
		assert.Equal(t, "HIV/AIDS related death", got[3].Cause)
		assert.InDelta(t, 0.1, got[3].Fraction, 1e-12)

		total := 0.0
		for _, e := range got {
			total += e.Fraction
		}
		assert.InDelta(t, 1.0, total, 1e-12)
	})

	t.Run("Top_And_Exclude_Undetermined", func(t *testing.T) {
		got, err := ComputeCSMF(results, CSMFOptions{Top: 2, ExcludeUndetermined: true})
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "Malaria", got[0].Cause)
		assert.Equal(t, "Birth asphyxia", got[1].Cause)
	})

	t.Run("Sex_Filter", func(t *testing.T) {
		got, err := ComputeCSMF(results, CSMFOptions{Sex: SexFemale})
		require.NoError(t, err)
		assert.Equal(t, domain.Undetermined, got[0].Cause)
		assert.InDelta(t, 0.5, got[0].Fraction, 1e-12)
	})

	t.Run("Age_Filter", func(t *testing.T) {
		got, err := ComputeCSMF(results, CSMFOptions{Age: AgeNeonate})
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "Birth asphyxia", got[0].Cause)
		assert.InDelta(t, 0.9, got[0].Fraction, 1e-12)
	})

	t.Run("No_Matching_Deaths", func(t *testing.T) {
		got, err := ComputeCSMF(results, CSMFOptions{Sex: SexMale, Age: AgeChild})
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("Invalid_Options", func(t *testing.T) {
		for _, opts := range []CSMFOptions{{Sex: "other"}, {Age: "elderly"}, {Top: -1}} {
			_, err := ComputeCSMF(results, opts)
			var validationErr *domain.ValidationError
			assert.ErrorAs(t, err, &validationErr)
		}
	})
}
