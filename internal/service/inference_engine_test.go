package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/interva-cod-server/internal/domain"
	"github.com/interva-cod-server/internal/probbase"
	pt "github.com/interva-cod-server/internal/probbase/probbasetest"
)

func newEngine(t *testing.T, b *pt.Builder) *InferenceEngine {
	t.Helper()
	table := b.Table(t)
	prior, err := probbase.BuildPrior(table.Prior(), domain.PrevalenceHigh, domain.PrevalenceHigh)
	require.NoError(t, err)
	return NewInferenceEngine(table, prior)
}

func flags(indices ...int) []bool {
	out := make([]bool, domain.NumIndicators)
	for _, i := range indices {
		out[i] = true
	}
	return out
}

func groupSum(prob []float64, g domain.CauseGroup) float64 {
	return sum(prob[g.Start:g.End])
}

func TestInferenceEngine_NoInformativeSymptoms(t *testing.T) {
	engine := newEngine(t, pt.New().Prior(0, "A").Prior(40, "B+"))

	prob := engine.Infer(flags())
	assert.Equal(t, engine.Prior(), prob)
	assert.Equal(t, 0.5, prob[0])
	assert.Equal(t, 0.05, prob[5])
}

func TestInferenceEngine_GroupSumsToOne(t *testing.T) {
	b := pt.New().
		Cell(20, 0, "A").Cell(20, 10, "B").Cell(20, 30, "A-").Cell(20, 65, "C").
		Cell(21, 1, "D").Cell(21, 12, "E").Cell(21, 66, "B+").
		Row(22, domain.GroupComorbidity, "N")
	engine := newEngine(t, b)

	t.Run("After_One_Step", func(t *testing.T) {
		prob := engine.Infer(flags(20))
		for _, g := range domain.CauseGroups {
			assert.InDelta(t, 1.0, groupSum(prob, g), 1e-12, g.Name)
		}
	})

	t.Run("After_Several_Steps", func(t *testing.T) {
		prob := engine.Infer(flags(20, 21, 40, 41))
		for _, g := range domain.CauseGroups {
			assert.InDelta(t, 1.0, groupSum(prob, g), 1e-12, g.Name)
		}
	})

	t.Run("Zero_Group_Left_Unnormalized", func(t *testing.T) {
		prob := engine.Infer(flags(20, 22))
		assert.Equal(t, 0.0, groupSum(prob, domain.GroupComorbidity))
		assert.InDelta(t, 1.0, groupSum(prob, domain.GroupPregnancy), 1e-12)
		assert.InDelta(t, 1.0, groupSum(prob, domain.GroupCause), 1e-12)
	})
}

func TestInferenceEngine_Update(t *testing.T) {
	b := pt.New().
		Row(20, domain.GroupCause, "N").
		Cell(20, 10, "I").
		Cell(20, 11, "I")
	engine := newEngine(t, b)

	prob := engine.Infer(flags(20))
	assert.InDelta(t, 0.5, prob[10], 1e-12)
	assert.InDelta(t, 0.5, prob[11], 1e-12)
	assert.Equal(t, 0.0, prob[12])
	assert.InDelta(t, 1.0/3, prob[0], 1e-12)
}

func TestInferenceEngine_IndexZeroIgnored(t *testing.T) {
	engine := newEngine(t, pt.New())
	assert.Equal(t, engine.Prior(), engine.Infer(flags(0)))
}

func TestInferenceEngine_PriorIsCopied(t *testing.T) {
	table := pt.New().Table(t)
	prior := table.Prior()
	engine := NewInferenceEngine(table, prior)
	prior[3] = 99

	assert.Equal(t, 0.005, engine.Prior()[3])
	out := engine.Infer(flags(20))
	out[3] = 42
	assert.Equal(t, 0.005, engine.Prior()[3])
}

func TestArgmax_FirstIndexOnTies(t *testing.T) {
	assert.Equal(t, 1, argmax([]float64{0.1, 0.4, 0.4, 0.2}))
	assert.Equal(t, 0, argmax([]float64{0, 0, 0}))
}
