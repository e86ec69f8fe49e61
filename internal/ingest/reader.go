// Package ingest reads verbal autopsy questionnaires in the standard
// InterVA5 column layout.
package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/interva-cod-server/internal/domain"
)

const (
	legacyColumn  = "i183o"
	renamedColumn = "i183a"
)

// Options controls how input columns are mapped onto records.
type Options struct {
	// IDColumn names the identifier column. Empty means the first column.
	IDColumn string
}

// Batch is a parsed input file.
type Batch struct {
	Columns []string
	Records []domain.RawRecord
}

// Reader parses questionnaire CSVs.
type Reader struct {
	logger *logrus.Logger
}

// NewReader creates a Reader.
func NewReader(logger *logrus.Logger) *Reader {
	return &Reader{logger: logger}
}

// ReadFile opens and parses a questionnaire CSV.
func (r *Reader) ReadFile(path string, opts Options) (*Batch, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open input: %w", err)
	}
	defer f.Close()

	return r.Read(f, opts)
}

// Read parses a questionnaire CSV whose first line is the header. The
// header must end with i459o and, once the identifier column is set
// aside, hold exactly one column per indicator.
func (r *Reader) Read(in io.Reader, opts Options) (*Batch, error) {
	reader := csv.NewReader(in)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}
	if len(rows) < 2 {
		return nil, domain.NewValidationError("input", "no data input", len(rows))
	}

	header := append([]string(nil), rows[0]...)
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	for i, name := range header {
		if strings.EqualFold(strings.TrimSpace(name), legacyColumn) {
			header[i] = renamedColumn
			r.logger.WithFields(logrus.Fields{
				"from": legacyColumn,
				"to":   renamedColumn,
			}).Info("Renamed legacy indicator column")
		}
	}

	last := strings.TrimSpace(header[len(header)-1])
	if !strings.EqualFold(last, domain.LastIndicatorName) {
		return nil, domain.NewValidationError("input", "the last variable should be 'i459o'", last)
	}

	idCol := 0
	if opts.IDColumn != "" {
		idCol = -1
		for i, name := range header {
			if strings.EqualFold(strings.TrimSpace(name), opts.IDColumn) {
				idCol = i
				break
			}
		}
		if idCol < 0 {
			return nil, domain.NewValidationError("id_column", "column not found in input", opts.IDColumn)
		}
	}

	// The identifier is lifted out into slot 0, so the width is unchanged.
	if len(header) != domain.NumIndicators {
		return nil, &domain.ShapeError{Subject: "input", WantCols: domain.NumIndicators, GotCols: len(header)}
	}

	batch := &Batch{Columns: reorder(header, idCol), Records: make([]domain.RawRecord, 0, len(rows)-1)}
	for n, row := range rows[1:] {
		if len(row) != len(header) {
			return nil, fmt.Errorf("row %d: %w", n+2, &domain.ShapeError{
				Subject:  "input row",
				WantCols: len(header),
				GotCols:  len(row),
			})
		}
		responses := reorder(row, idCol)
		batch.Records = append(batch.Records, domain.RawRecord{
			ID:        strings.TrimSpace(responses[0]),
			Responses: responses,
		})
	}

	r.logger.WithFields(logrus.Fields{
		"records":   len(batch.Records),
		"id_column": header[idCol],
	}).Info("Input data loaded")

	return batch, nil
}

// reorder moves column idCol to the front and keeps the others in order.
func reorder(row []string, idCol int) []string {
	out := make([]string, 0, len(row))
	out = append(out, row[idCol])
	for i, v := range row {
		if i != idCol {
			out = append(out, v)
		}
	}
	return out
}
