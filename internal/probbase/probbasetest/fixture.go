// Package probbasetest builds synthetic probbase tables and records for
// tests.
package probbasetest

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/interva-cod-server/internal/domain"
	"github.com/interva-cod-server/internal/probbase"
)

// Version is the version token written into every synthetic table.
const Version = "probbase_test_v1"

// Builder assembles a raw 354x87 probbase. By default every prior cell is
// "C", every symptom cell is "I" (neutral) and every substitution cell is
// "Y".
type Builder struct {
	raw [][]string
}

// New returns a builder holding the default table.
func New() *Builder {
	raw := make([][]string, domain.NumIndicators)
	for i := range raw {
		row := make([]string, domain.NumTableColumns)
		row[0] = fmt.Sprintf("i%03d", i)
		row[domain.SubstitutionCol] = "Y"
		for j := domain.NumMetaColumns; j < domain.NumTableColumns; j++ {
			row[j] = "I"
			if i == domain.VersionRow {
				row[j] = "C"
			}
		}
		raw[i] = row
	}
	raw[domain.VersionRow][domain.VersionCol] = Version
	return &Builder{raw: raw}
}

// Prior sets the prior grade of one cause.
func (b *Builder) Prior(cause int, grade string) *Builder {
	b.raw[domain.VersionRow][domain.NumMetaColumns+cause] = grade
	return b
}

// Cell sets the grade of one symptom row under one cause.
func (b *Builder) Cell(row, cause int, grade string) *Builder {
	b.raw[row][domain.NumMetaColumns+cause] = grade
	return b
}

// Row sets every cause of a group in one symptom row to grade.
func (b *Builder) Row(row int, g domain.CauseGroup, grade string) *Builder {
	for c := g.Start; c < g.End; c++ {
		b.Cell(row, c, grade)
	}
	return b
}

// Subst sets the substitution marker of a symptom row ("Y", "N" or "").
func (b *Builder) Subst(row int, marker string) *Builder {
	b.raw[row][domain.SubstitutionCol] = marker
	return b
}

// Raw returns a deep copy of the matrix.
func (b *Builder) Raw() [][]string {
	out := make([][]string, len(b.raw))
	for i, row := range b.raw {
		out[i] = append([]string(nil), row...)
	}
	return out
}

// Table loads the matrix and fails the test on error.
func (b *Builder) Table(t testing.TB) *probbase.Table {
	t.Helper()
	table, err := probbase.Load(b.Raw())
	require.NoError(t, err)
	return table
}

// CSV renders the matrix with a header line, as shipped on disk.
func (b *Builder) CSV(t testing.TB) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	header := make([]string, domain.NumTableColumns)
	for j := range header {
		header[j] = fmt.Sprintf("col%d", j)
	}
	require.NoError(t, w.Write(header))
	require.NoError(t, w.WriteAll(b.Raw()))
	return buf.Bytes()
}

// Record returns a raw record with the given indicators answered "y" and
// every other indicator missing.
func Record(id string, yes ...int) domain.RawRecord {
	responses := make([]string, domain.NumIndicators)
	responses[0] = id
	for _, i := range yes {
		responses[i] = "y"
	}
	return domain.RawRecord{ID: id, Responses: responses}
}

// WithNo marks indicators as answered "n".
func WithNo(r domain.RawRecord, no ...int) domain.RawRecord {
	responses := append([]string(nil), r.Responses...)
	for _, i := range no {
		responses[i] = "n"
	}
	return domain.RawRecord{ID: r.ID, Responses: responses}
}

// Common indicator positions used by the fixtures.
const (
	Male     = domain.MaleIndex
	Female   = domain.FemaleIndex
	Adult    = domain.AgeStart
	Child    = 8
	Neonate  = 11
	Symptom  = domain.SymptomStart
	Symptom2 = domain.SymptomStart + 1
)
