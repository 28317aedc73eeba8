package db

import (
	"github.com/rotisserie/eris"

	"github.com/sells-group/gridkit/internal/record"
)

// Converter turns a parsed cell value into what COPY sends for column.
type Converter func(column string, v any) (any, error)

// Rows streams grid rows into COPY, converting cells as it goes. It
// implements pgx.CopyFromSource. Rows that exist only in the comparison
// dataset are skipped.
type Rows struct {
	columns []string
	rows    []record.Row
	convert Converter

	next   int
	values []any
	err    error
}

// NewRows reads columns from rows. A nil convert sends parsed values as-is.
func NewRows(columns []string, rows []record.Row, convert Converter) *Rows {
	if convert == nil {
		convert = func(_ string, v any) (any, error) { return v, nil }
	}
	return &Rows{columns: columns, rows: rows, convert: convert}
}

// Columns returns the copied column names.
func (r *Rows) Columns() []string { return r.columns }

// Len is the number of rows that will be copied.
func (r *Rows) Len() int {
	n := 0
	for _, row := range r.rows {
		if row.Status != record.StatusOld {
			n++
		}
	}
	return n
}

// Next advances to the next copied row and converts it.
func (r *Rows) Next() bool {
	if r.err != nil {
		return false
	}
	for r.next < len(r.rows) {
		row := r.rows[r.next]
		r.next++
		if row.Status == record.StatusOld {
			continue
		}
		values := make([]any, len(r.columns))
		for i, col := range r.columns {
			v, err := r.convert(col, row.Value(col))
			if err != nil {
				r.err = eris.Wrapf(err, "db: convert %s of row %d", col, row.Index)
				return false
			}
			values[i] = v
		}
		r.values = values
		return true
	}
	return false
}

// Values returns the current row.
func (r *Rows) Values() ([]any, error) { return r.values, nil }

// Err returns the first conversion error.
func (r *Rows) Err() error { return r.err }
