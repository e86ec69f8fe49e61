package output

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/interva-cod-server/internal/domain"
)

// WriteCheckedData writes the post-check values of every record under the
// input column names. columns[0] is the identifier column.
func WriteCheckedData(w io.Writer, columns []string, data []domain.CheckedRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(columns); err != nil {
		return fmt.Errorf("failed to write checked data header: %w", err)
	}

	for _, rec := range data {
		if len(rec.Values)+1 != len(columns) {
			return &domain.ShapeError{Subject: "checked data", WantCols: len(columns) - 1, GotCols: len(rec.Values)}
		}
		row := make([]string, 0, len(columns))
		row = append(row, rec.ID)
		for _, v := range rec.Values {
			row = append(row, v.String())
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write checked data: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}
