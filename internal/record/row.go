package record

// Status marks a row's relationship to the comparison dataset.
type Status string

// Diff statuses. StatusNone means the row is unchanged or no diff ran.
const (
	StatusNone     Status = ""
	StatusNew      Status = "new"
	StatusOld      Status = "old"
	StatusModified Status = "modified"
)

// CellStatus is the per-cell view of a row status.
type CellStatus string

// Cell statuses reported to presentational components.
const (
	CellNone        CellStatus = ""
	CellNew         CellStatus = "new"
	CellOld         CellStatus = "old"
	CellModified    CellStatus = "modified"
	CellModifiedRow CellStatus = "modified-row"
)

// Row is a parsed record. Values holds normalized values keyed by column;
// Raw is the original record the row was parsed from.
type Row struct {
	Values          map[string]any `json:"values"`
	Raw             Record         `json:"raw"`
	Index           int            `json:"index"`
	Status          Status         `json:"status,omitempty"`
	ModifiedColumns []string       `json:"modified_columns,omitempty"`
}

// Value returns the normalized value for column, or nil.
func (r Row) Value(column string) any {
	if r.Values == nil {
		return nil
	}
	return r.Values[column]
}

// RawValue returns the original value for column, falling back to the
// normalized value when the raw record does not carry the column.
func (r Row) RawValue(column string) any {
	if v, ok := r.Raw.Get(column); ok {
		return v
	}
	return r.Value(column)
}

// IsModified reports whether column changed against the comparison row.
func (r Row) IsModified(column string) bool {
	for _, c := range r.ModifiedColumns {
		if c == column {
			return true
		}
	}
	return false
}

// CellStatus returns the status of the cell at column.
func (r Row) CellStatus(column string) CellStatus {
	switch r.Status {
	case StatusNew:
		return CellNew
	case StatusOld:
		return CellOld
	case StatusModified:
		if r.IsModified(column) {
			return CellModified
		}
		return CellModifiedRow
	default:
		return CellNone
	}
}

// WithoutStatus returns a copy of r with diff annotations cleared.
func (r Row) WithoutStatus() Row {
	r.Status = StatusNone
	r.ModifiedColumns = nil
	return r
}
