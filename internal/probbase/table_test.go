package probbase_test

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/interva-cod-server/internal/domain"
	"github.com/interva-cod-server/internal/probbase"
	"github.com/interva-cod-server/internal/probbase/probbasetest"
)

func TestGradeValue(t *testing.T) {
	tests := []struct {
		cell string
		want float64
	}{
		{"I", 1},
		{"A+", 0.8},
		{"A", 0.5},
		{"A-", 0.2},
		{"B+", 0.1},
		{"B", 0.05},
		{"B-", 0.02},
		{"C+", 0.01},
		{"C", 0.005},
		{"C-", 0.002},
		{"D+", 0.001},
		{"D", 5e-04},
		{"D-", 1e-04},
		{"E", 1e-05},
		{"N", 0},
		{"", 0},
		{" B ", 0.05},
	}

	for _, tt := range tests {
		t.Run(tt.cell, func(t *testing.T) {
			got, ok := probbase.GradeValue(tt.cell)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}

	for _, bad := range []string{"Z", "a+", "0.25", "1", "1.5", "-0.1", "X"} {
		_, ok := probbase.GradeValue(bad)
		assert.False(t, ok, bad)
	}
}

func TestGradeValue_Decreasing(t *testing.T) {
	order := []string{"I", "A+", "A", "A-", "B+", "B", "B-", "C+", "C", "C-", "D+", "D", "D-", "E", "N"}
	prev := 2.0
	for _, g := range order {
		v, ok := probbase.GradeValue(g)
		require.True(t, ok)
		assert.Less(t, v, prev, g)
		prev = v
	}
}

func TestLoad(t *testing.T) {
	t.Run("Valid_Table", func(t *testing.T) {
		b := probbasetest.New().
			Prior(4, "A").
			Cell(20, 10, "B+").
			Cell(21, 69, "").
			Subst(30, "N").
			Subst(31, "")

		table, err := probbase.Load(b.Raw())
		require.NoError(t, err)

		assert.Equal(t, probbasetest.Version, table.Version())
		assert.Equal(t, domain.NumIndicators, table.NumIndicators())

		prior := table.Prior()
		require.Len(t, prior, domain.NumCauses)
		assert.Equal(t, 0.5, prior[4])
		assert.Equal(t, 0.005, prior[0])

		assert.Equal(t, 0.1, table.SymptomRow(20)[10])
		assert.Equal(t, 1.0, table.SymptomRow(20)[11])
		assert.Equal(t, 0.0, table.SymptomRow(21)[69])

		subst := table.SubstitutionVector()
		assert.Equal(t, domain.Yes, subst[20])
		assert.Equal(t, domain.No, subst[30])
		assert.Equal(t, domain.Missing, subst[31])
		assert.Equal(t, domain.No, table.Expected(30))
	})

	t.Run("Does_Not_Modify_Input", func(t *testing.T) {
		raw := probbasetest.New().Raw()
		_, err := probbase.Load(raw)
		require.NoError(t, err)
		assert.Equal(t, "I", raw[20][domain.NumMetaColumns])
		assert.Equal(t, "C", raw[0][domain.NumMetaColumns])
	})

	t.Run("Accessors_Return_Copies", func(t *testing.T) {
		table := probbasetest.New().Table(t)
		prior := table.Prior()
		prior[0] = 42
		assert.Equal(t, 0.005, table.Prior()[0])

		subst := table.SubstitutionVector()
		subst[20] = domain.Missing
		assert.Equal(t, domain.Yes, table.Expected(20))
	})

	t.Run("Wrong_Row_Count", func(t *testing.T) {
		raw := probbasetest.New().Raw()[:100]
		_, err := probbase.Load(raw)

		var shapeErr *domain.ShapeError
		require.True(t, errors.As(err, &shapeErr))
		assert.Equal(t, 100, shapeErr.GotRows)
		assert.Equal(t, domain.NumIndicators, shapeErr.WantRows)
	})

	t.Run("Wrong_Column_Count", func(t *testing.T) {
		raw := probbasetest.New().Raw()
		raw[7] = raw[7][:50]
		_, err := probbase.Load(raw)

		var shapeErr *domain.ShapeError
		require.True(t, errors.As(err, &shapeErr))
		assert.Equal(t, 50, shapeErr.GotCols)
	})

	t.Run("Empty_Input", func(t *testing.T) {
		_, err := probbase.Load(nil)
		var shapeErr *domain.ShapeError
		require.True(t, errors.As(err, &shapeErr))
		assert.Equal(t, 0, shapeErr.GotRows)
	})

	t.Run("Unknown_Grade", func(t *testing.T) {
		raw := probbasetest.New().Cell(40, 12, "Q").Raw()
		_, err := probbase.Load(raw)

		var gradeErr *domain.GradeError
		require.True(t, errors.As(err, &gradeErr))
		assert.Equal(t, 40, gradeErr.Row)
		assert.Equal(t, domain.NumMetaColumns+12, gradeErr.Col)
		assert.Equal(t, "Q", gradeErr.Symbol)
	})

	t.Run("Numeric_Symptom_Cell_Rejected", func(t *testing.T) {
		raw := probbasetest.New().Cell(30, 5, "0.3").Raw()
		_, err := probbase.Load(raw)

		var gradeErr *domain.GradeError
		require.True(t, errors.As(err, &gradeErr))
		assert.Equal(t, 30, gradeErr.Row)
		assert.Equal(t, "0.3", gradeErr.Symbol)
	})

	t.Run("Numeric_Prior_Accepted", func(t *testing.T) {
		raw := probbasetest.New().Prior(5, "0.3").Raw()
		table, err := probbase.Load(raw)
		require.NoError(t, err)
		assert.Equal(t, 0.3, table.Prior()[5])

		raw = probbasetest.New().Prior(5, "1.5").Raw()
		_, err = probbase.Load(raw)
		var gradeErr *domain.GradeError
		assert.True(t, errors.As(err, &gradeErr))
	})

	t.Run("Metadata_Columns_Are_Ignored", func(t *testing.T) {
		raw := probbasetest.New().Raw()
		raw[0][10] = "not a grade"
		_, err := probbase.Load(raw)
		assert.NoError(t, err)
	})
}

func TestRead(t *testing.T) {
	b := probbasetest.New().Prior(3, "B")

	t.Run("From_Reader", func(t *testing.T) {
		table, err := probbase.Read(bytes.NewReader(b.CSV(t)))
		require.NoError(t, err)
		assert.Equal(t, 0.05, table.Prior()[3])
	})

	t.Run("From_File", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "probbase.csv")
		require.NoError(t, os.WriteFile(path, b.CSV(t), 0o600))

		table, err := probbase.LoadFile(path)
		require.NoError(t, err)
		assert.Equal(t, probbasetest.Version, table.Version())
	})

	t.Run("Missing_File", func(t *testing.T) {
		_, err := probbase.LoadFile(filepath.Join(t.TempDir(), "nope.csv"))
		assert.Error(t, err)
	})

	t.Run("Empty_File", func(t *testing.T) {
		_, err := probbase.Read(bytes.NewReader(nil))
		assert.Error(t, err)
	})
}
