package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/interva-cod-server/internal/domain"
	pt "github.com/interva-cod-server/internal/probbase/probbasetest"
)

func TestCanonicalize(t *testing.T) {
	values := Canonicalize([]string{"id-7", "y", "Y", "n", "N", "", "yes", "1", "0", " y ", "x"})

	assert.Equal(t, []domain.Value{
		domain.No, domain.Yes, domain.Yes, domain.No, domain.No,
		domain.Missing, domain.Missing, domain.Missing, domain.Missing, domain.Yes, domain.Missing,
	}, values)
}

func TestExclusionReason(t *testing.T) {
	tests := []struct {
		name   string
		record domain.RawRecord
		want   domain.ExclusionReason
	}{
		{"Complete", pt.Record("a", pt.Male, pt.Adult, pt.Symptom), ""},
		{"No_Age", pt.Record("b", pt.Male, pt.Symptom), domain.ExcludedNoAge},
		{"Age_Answered_No", pt.WithNo(pt.Record("c", pt.Male, pt.Symptom), 5, 6, 7, 8, 9, 10, 11), domain.ExcludedNoAge},
		{"No_Sex", pt.Record("d", pt.Adult, pt.Symptom), domain.ExcludedNoSex},
		{"No_Symptoms", pt.Record("e", pt.Female, pt.Child), domain.ExcludedNoSymptoms},
		{"Nothing_Reports_Age_First", pt.Record("f"), domain.ExcludedNoAge},
		{"Symptom_Past_Range", pt.Record("g", pt.Male, pt.Adult, domain.SymptomEnd), domain.ExcludedNoSymptoms},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExclusionReason(Canonicalize(tt.record.Responses)))
		})
	}
}

func TestNormalizer_Normalize(t *testing.T) {
	ctx := context.Background()

	t.Run("Informative_And_Substituted", func(t *testing.T) {
		table := pt.New().Subst(21, "N").Subst(22, "").Table(t)
		checker := echoChecker()
		n := NewNormalizer(table, checker)

		raw := pt.WithNo(pt.Record("r1", pt.Male, pt.Adult, 20, 23), 21, 22)
		record, err := n.Normalize(ctx, &raw)
		require.NoError(t, err)

		assert.Equal(t, "r1", record.ID)
		assert.False(t, record.Informative[0])
		assert.True(t, record.Informative[20], "yes matches Y")
		assert.True(t, record.Informative[21], "no matches N")
		assert.False(t, record.Informative[22], "blank substitution never matches")
		assert.True(t, record.Informative[23])
		assert.False(t, record.Informative[24], "missing is never informative")

		assert.Equal(t, 0, record.Substituted[0])
		assert.Equal(t, 1, record.Substituted[20])
		assert.Equal(t, 1, record.Substituted[21])
		assert.Equal(t, 1, record.Substituted[22])
		assert.Equal(t, 0, record.Substituted[24])

		assert.Equal(t, SexMale, record.Sex)
		assert.Equal(t, AgeAdult, record.AgeGroup)
		checker.AssertNumberOfCalls(t, "Check", 1)
	})

	t.Run("Checker_Receives_Canonical_Values", func(t *testing.T) {
		table := pt.New().Table(t)
		checker := new(MockChecker)
		checker.On("Check", mock.Anything, mock.MatchedBy(func(v []domain.Value) bool {
			return v[0] == domain.No && v[pt.Male] == domain.Yes && v[30] == domain.Missing
		}), "r2").Return(echo, nil).Once()

		raw := pt.Record("r2", pt.Male, pt.Adult, pt.Symptom)
		_, err := NewNormalizer(table, checker).Normalize(ctx, &raw)
		require.NoError(t, err)
		checker.AssertExpectations(t)
	})

	t.Run("Checker_Corrections_Are_Used", func(t *testing.T) {
		table := pt.New().Table(t)
		checker := new(MockChecker)
		checker.On("Check", mock.Anything, mock.Anything, "r3").Return(func(v []domain.Value) *domain.CheckResult {
			out := echo(v)
			out.Values[pt.Symptom] = domain.Missing
			out.Values[pt.Symptom2] = domain.Yes
			out.FirstPass = []string{"r3 i022a cleared"}
			out.SecondPass = []string{"r3 i022b set"}
			return out
		}, nil)

		raw := pt.Record("r3", pt.Male, pt.Adult, pt.Symptom)
		record, err := NewNormalizer(table, checker).Normalize(ctx, &raw)
		require.NoError(t, err)

		assert.False(t, record.Informative[pt.Symptom])
		assert.True(t, record.Informative[pt.Symptom2])
		assert.Equal(t, []string{"r3 i022a cleared"}, record.FirstPass)
		assert.Equal(t, []string{"r3 i022b set"}, record.SecondPass)
	})

	t.Run("Excluded_Skips_Checker", func(t *testing.T) {
		table := pt.New().Table(t)
		checker := new(MockChecker)

		raw := pt.Record("r4", pt.Male, pt.Symptom)
		_, err := NewNormalizer(table, checker).Normalize(ctx, &raw)

		var excluded *domain.ExcludedError
		require.True(t, errors.As(err, &excluded))
		assert.Equal(t, "r4", excluded.RecordID)
		assert.Equal(t, domain.ExcludedNoAge, excluded.Reason)
		checker.AssertNotCalled(t, "Check", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Wrong_Length", func(t *testing.T) {
		table := pt.New().Table(t)
		raw := domain.RawRecord{ID: "r5", Responses: []string{"r5", "y"}}
		_, err := NewNormalizer(table, new(MockChecker)).Normalize(ctx, &raw)

		var shapeErr *domain.ShapeError
		require.True(t, errors.As(err, &shapeErr))
		assert.Equal(t, 2, shapeErr.GotCols)
	})

	t.Run("Checker_Error", func(t *testing.T) {
		table := pt.New().Table(t)
		checker := new(MockChecker)
		checker.On("Check", mock.Anything, mock.Anything, "r6").Return(nil, errors.New("unavailable"))

		raw := pt.Record("r6", pt.Male, pt.Adult, pt.Symptom)
		_, err := NewNormalizer(table, checker).Normalize(ctx, &raw)
		require.Error(t, err)
		assert.False(t, domain.IsExcluded(err))
		assert.Contains(t, err.Error(), "unavailable")
	})

	t.Run("Checker_Returns_Short_Vector", func(t *testing.T) {
		table := pt.New().Table(t)
		checker := new(MockChecker)
		checker.On("Check", mock.Anything, mock.Anything, "r7").Return(&domain.CheckResult{Values: []domain.Value{domain.No}}, nil)

		raw := pt.Record("r7", pt.Male, pt.Adult, pt.Symptom)
		_, err := NewNormalizer(table, checker).Normalize(ctx, &raw)
		var shapeErr *domain.ShapeError
		assert.True(t, errors.As(err, &shapeErr))
	})
}

func TestReproductiveAge(t *testing.T) {
	table := pt.New().Table(t)
	n := NewNormalizer(table, echoChecker())

	tests := []struct {
		name   string
		record domain.RawRecord
		want   bool
	}{
		{"Female_Recently_Pregnant", pt.Record("a", pt.Female, pt.Adult, pt.Symptom, domain.RecentPregnant), true},
		{"Female_Pregnant_17", pt.Record("b", pt.Female, pt.Adult, pt.Symptom, 17), true},
		{"Female_Pregnant_18", pt.Record("c", pt.Female, pt.Adult, pt.Symptom, 18), true},
		{"Pregnancy_Answered_No", pt.WithNo(pt.Record("d", pt.Female, pt.Adult, pt.Symptom), domain.RecentPregnant), false},
		{"Female_Only", pt.Record("e", pt.Female, pt.Adult, pt.Symptom), false},
		{"Index_19_Not_Used", pt.Record("f", pt.Female, pt.Adult, pt.Symptom, 19), false},
		{"Male_With_Female_Unanswered", pt.Record("g", pt.Male, pt.Adult, pt.Symptom, 17), false},
		{"Male_With_Female_Answered_No", pt.WithNo(pt.Record("h", pt.Male, pt.Adult, pt.Symptom, 17), pt.Female), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record, err := n.Normalize(context.Background(), &tt.record)
			require.NoError(t, err)
			assert.Equal(t, tt.want, record.ReproductiveAge)
		})
	}
}

func TestDemographics(t *testing.T) {
	table := pt.New().Table(t)
	n := NewNormalizer(table, echoChecker())

	tests := []struct {
		record   domain.RawRecord
		sex      string
		ageGroup string
	}{
		{pt.Record("a", pt.Male, pt.Adult, pt.Symptom), SexMale, AgeAdult},
		{pt.Record("b", pt.Female, 7, pt.Symptom), SexFemale, AgeAdult},
		{pt.Record("c", pt.Female, pt.Child, pt.Symptom), SexFemale, AgeChild},
		{pt.Record("d", pt.Male, 10, pt.Symptom), SexMale, AgeChild},
		{pt.Record("e", pt.Male, pt.Neonate, pt.Symptom), SexMale, AgeNeonate},
	}

	for _, tt := range tests {
		t.Run(tt.record.ID, func(t *testing.T) {
			record, err := n.Normalize(context.Background(), &tt.record)
			require.NoError(t, err)
			assert.Equal(t, tt.sex, record.Sex)
			assert.Equal(t, tt.ageGroup, record.AgeGroup)
		})
	}
}
