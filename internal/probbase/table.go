// Package probbase holds the InterVA5 symptom-cause information table
// (the "probbase") and the prior derived from it.
package probbase

import (
	"strconv"
	"strings"

	"github.com/interva-cod-server/internal/domain"
)

// grades maps each symbolic probbase grade to its likelihood. Blank cells
// are handled separately and also map to zero.
var grades = map[string]float64{
	"I":  1,
	"A+": 0.8,
	"A":  0.5,
	"A-": 0.2,
	"B+": 0.1,
	"B":  0.05,
	"B-": 0.02,
	"C+": 0.01,
	"C":  0.005,
	"C-": 0.002,
	"D+": 0.001,
	"D":  5e-04,
	"D-": 1e-04,
	"E":  1e-05,
	"N":  0,
}

// GradeValue converts one cause cell to its numeric likelihood. Blank is 0;
// anything outside the 15 grades is rejected.
func GradeValue(cell string) (float64, bool) {
	cell = strings.TrimSpace(cell)
	if cell == "" {
		return 0, true
	}
	v, ok := grades[cell]
	return v, ok
}

// priorValue also takes a number in [0, 1], for tables whose prior row is
// already numeric.
func priorValue(cell string) (float64, bool) {
	if v, ok := GradeValue(cell); ok {
		return v, true
	}
	if v, err := strconv.ParseFloat(strings.TrimSpace(cell), 64); err == nil && v >= 0 && v <= 1 {
		return v, true
	}
	return 0, false
}

// Table is the parsed probbase. It is never modified after Load and is safe
// for concurrent readers.
type Table struct {
	version string
	prior   []float64
	rows    [][]float64
	subst   []domain.Value
}

// Load validates the shape of a raw probbase matrix (no header row) and
// builds a numeric table from it. The input matrix is not modified.
func Load(raw [][]string) (*Table, error) {
	if len(raw) != domain.NumIndicators {
		cols := 0
		if len(raw) > 0 {
			cols = len(raw[0])
		}
		return nil, &domain.ShapeError{
			Subject:  "probbase",
			WantRows: domain.NumIndicators,
			WantCols: domain.NumTableColumns,
			GotRows:  len(raw),
			GotCols:  cols,
		}
	}

	t := &Table{
		rows:  make([][]float64, domain.NumIndicators),
		subst: make([]domain.Value, domain.NumIndicators),
	}

	for i, row := range raw {
		if len(row) != domain.NumTableColumns {
			return nil, &domain.ShapeError{
				Subject:  "probbase",
				WantRows: domain.NumIndicators,
				WantCols: domain.NumTableColumns,
				GotRows:  len(raw),
				GotCols:  len(row),
			}
		}

		convert := GradeValue
		if i == domain.VersionRow {
			convert = priorValue
		}
		numeric := make([]float64, domain.NumCauses)
		for j := domain.NumMetaColumns; j < domain.NumTableColumns; j++ {
			v, ok := convert(row[j])
			if !ok {
				return nil, &domain.GradeError{Row: i, Col: j, Symbol: row[j]}
			}
			numeric[j-domain.NumMetaColumns] = v
		}
		t.rows[i] = numeric

		switch strings.TrimSpace(row[domain.SubstitutionCol]) {
		case "Y":
			t.subst[i] = domain.Yes
		case "N":
			t.subst[i] = domain.No
		default:
			t.subst[i] = domain.Missing
		}
	}

	// Row 0 carries the system prior; its metadata columns are zeroed by
	// construction since only cause columns are kept.
	t.prior = t.rows[domain.VersionRow]
	t.version = strings.TrimSpace(raw[domain.VersionRow][domain.VersionCol])
	return t, nil
}

// Version returns the probbase version token.
func (t *Table) Version() string {
	return t.version
}

// Prior returns a copy of the system prior over all causes.
func (t *Table) Prior() []float64 {
	out := make([]float64, len(t.prior))
	copy(out, t.prior)
	return out
}

// SymptomRow returns the likelihood of indicator i under every cause. The
// slice is shared and must not be modified.
func (t *Table) SymptomRow(i int) []float64 {
	return t.rows[i]
}

// SubstitutionVector returns a copy of the per-indicator value that makes a
// response informative.
func (t *Table) SubstitutionVector() []domain.Value {
	out := make([]domain.Value, len(t.subst))
	copy(out, t.subst)
	return out
}

// Expected returns the substitution value of a single indicator.
func (t *Table) Expected(i int) domain.Value {
	return t.subst[i]
}

// NumIndicators returns the number of rows in the table.
func (t *Table) NumIndicators() int {
	return len(t.rows)
}
