package ingest

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/tbialecki/catmap/pkg/models"
)

// CSVSource reads a catalog file with a header row. Row indexes count from
// 1, matching the first data line of the file.
type CSVSource struct {
	columns []string
	rows    [][]string
}

func NewCSVSource(r io.Reader) (*CSVSource, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("catalog file is empty")
	}

	return &CSVSource{columns: records[0], rows: records[1:]}, nil
}

func (s *CSVSource) Columns() ([]string, error) {
	return s.columns, nil
}

func (s *CSVSource) Extract(batchSize, offset int) ([]models.CatalogItem, int, error) {
	if offset >= len(s.rows) {
		return nil, offset, nil
	}

	end := offset + batchSize
	if end > len(s.rows) {
		end = len(s.rows)
	}

	items := make([]models.CatalogItem, 0, end-offset)
	for i := offset; i < end; i++ {
		row := s.rows[i]
		raw := make([]models.RawField, 0, len(s.columns))
		for c, col := range s.columns {
			value := ""
			if c < len(row) {
				value = row[c]
			}
			raw = append(raw, models.RawField{Name: col, Value: value})
		}
		items = append(items, models.CatalogItem{RowIndex: i + 1, Raw: raw})
	}

	return items, end, nil
}
