package tables

import (
	"encoding/csv"
	"fmt"
	"os"
)

// CSVSource reads a CSV file as a single grid on page 1. The first record is
// the header row.
type CSVSource struct{}

func (s *CSVSource) Grids(path string) ([]Grid, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}
	return []Grid{{Page: 1, Rows: records}}, nil
}
