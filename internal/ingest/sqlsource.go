package ingest

import (
	"database/sql"
	"fmt"

	"github.com/tbialecki/catmap/pkg/models"
	"github.com/tbialecki/catmap/pkg/utils"
)

// SQLSource pages metric rows out of a SQL Server table so an organization
// can import straight from its existing metrics database.
type SQLSource struct {
	DB      *sql.DB
	Table   string
	OrderBy string

	columns []string
}

func NewSQLSource(db *sql.DB, table, orderBy string) *SQLSource {
	return &SQLSource{DB: db, Table: table, OrderBy: orderBy}
}

func (s *SQLSource) Columns() ([]string, error) {
	if s.columns != nil {
		return s.columns, nil
	}

	rows, err := s.DB.Query(fmt.Sprintf("SELECT TOP (0) * FROM %s", s.Table))
	if err != nil {
		return nil, fmt.Errorf("failed to inspect table %s: %w", s.Table, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	s.columns = cols
	return cols, nil
}

func (s *SQLSource) Extract(batchSize, offset int) ([]models.CatalogItem, int, error) {
	cols, err := s.Columns()
	if err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf("SELECT * FROM %s ORDER BY %s OFFSET %d ROWS FETCH NEXT %d ROWS ONLY",
		s.Table, s.OrderBy, offset, batchSize)

	rows, err := s.DB.Query(query)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []models.CatalogItem
	rowIndex := offset
	for rows.Next() {
		values := make([]interface{}, len(cols))
		pointers := make([]interface{}, len(cols))
		for i := range values {
			pointers[i] = &values[i]
		}
		if err := rows.Scan(pointers...); err != nil {
			return nil, 0, err
		}

		rowIndex++
		raw := make([]models.RawField, 0, len(cols))
		for i, col := range cols {
			raw = append(raw, models.RawField{Name: col, Value: utils.AsString(values[i])})
		}
		items = append(items, models.CatalogItem{RowIndex: rowIndex, Raw: raw})
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return items, offset + len(items), nil
}
