// Package output writes assembled results and checked data as CSV.
package output

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"sync"

	"github.com/interva-cod-server/internal/domain"
)

// CompactHeader is the fixed column layout of a result row.
var CompactHeader = []string{
	"ID", "MALPREV", "HIVPREV", "PREGSTAT", "PREGLIK",
	"CAUSE1", "LIK1", "CAUSE2", "LIK2", "CAUSE3", "LIK3",
	"INDET", "COMCAT", "COMNUM",
}

// Header returns the column names for an output mode.
func Header(mode domain.OutputMode) []string {
	header := append([]string(nil), CompactHeader...)
	if mode == domain.OutputExtended {
		header = append(header, domain.CauseNames[:]...)
	}
	return header
}

// Row renders one result in the given mode.
func Row(mode domain.OutputMode, r *domain.Result) []string {
	row := []string{
		r.ID,
		string(r.Malaria),
		string(r.HIV),
		r.PregnancyStatus,
		domain.FormatLikelihood(r.PregnancyLikelihood),
		r.Cause1,
		domain.FormatLikelihood(r.Likelihood1),
		r.Cause2,
		domain.FormatLikelihood(r.Likelihood2),
		r.Cause3,
		domain.FormatLikelihood(r.Likelihood3),
		strconv.Itoa(r.Indeterminacy),
		r.Comorbidity,
		domain.FormatLikelihood(r.ComorbidityLikelihood),
	}
	if mode == domain.OutputExtended {
		for _, p := range r.Probabilities {
			row = append(row, strconv.FormatFloat(p.Probability, 'g', -1, 64))
		}
	}
	return row
}

// CSVWriter is a result sink that appends one CSV row per result. Writes
// are serialized so it may be shared between goroutines.
type CSVWriter struct {
	mu     sync.Mutex
	mode   domain.OutputMode
	w      *csv.Writer
	closer io.Closer
	rows   int
}

// NewCSVWriter writes to w, emitting the header first unless appending.
func NewCSVWriter(w io.Writer, mode domain.OutputMode, appendMode bool) (*CSVWriter, error) {
	cw := &CSVWriter{mode: mode, w: csv.NewWriter(w)}
	if !appendMode {
		if err := cw.w.Write(Header(mode)); err != nil {
			return nil, fmt.Errorf("failed to write header: %w", err)
		}
		cw.w.Flush()
		if err := cw.w.Error(); err != nil {
			return nil, fmt.Errorf("failed to write header: %w", err)
		}
	}
	return cw, nil
}

// CreateCSVFile opens path for a run. In append mode the file is extended
// and no header is written; otherwise it is truncated.
func CreateCSVFile(path string, mode domain.OutputMode, appendMode bool) (*CSVWriter, error) {
	flags := os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	if appendMode {
		flags = os.O_CREATE | os.O_WRONLY | os.O_APPEND
	}
	f, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open output file: %w", err)
	}

	cw, err := NewCSVWriter(f, mode, appendMode)
	if err != nil {
		f.Close()
		return nil, err
	}
	cw.closer = f
	return cw, nil
}

// Write implements domain.ResultSink.
func (c *CSVWriter) Write(_ context.Context, result *domain.Result) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.w.Write(Row(c.mode, result)); err != nil {
		return fmt.Errorf("failed to write result row: %w", err)
	}
	c.w.Flush()
	if err := c.w.Error(); err != nil {
		return fmt.Errorf("failed to write result row: %w", err)
	}
	c.rows++
	return nil
}

// Rows returns the number of result rows written.
func (c *CSVWriter) Rows() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rows
}

// Close flushes and closes the underlying file, if any.
func (c *CSVWriter) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.w.Flush()
	if c.closer != nil {
		return c.closer.Close()
	}
	return c.w.Error()
}
