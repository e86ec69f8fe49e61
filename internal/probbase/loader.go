package probbase

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
)

// Read parses a probbase CSV whose first line is a header.
func Read(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read probbase: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("probbase is empty")
	}
	return Load(records[1:])
}

// LoadFile opens and parses a probbase CSV file.
func LoadFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open probbase: %w", err)
	}
	defer f.Close()

	return Read(f)
}
