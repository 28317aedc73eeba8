package grid

import (
	"slices"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/gridkit/internal/record"
)

// Edits never touch State.Data. Each builds a complete updated dataset in
// State.Pending and hands it to the edit callback; the host feeds it back
// through LoadData.

// SetCellValue sets column on the view row at index row. Index len(View)
// is the blank append row and adds a record.
func (s *Store) SetCellValue(row int, column string, value any) (*State, error) {
	return s.edit("set cell", func(st *State) ([]record.Record, error) {
		if row == len(st.View) {
			rec := record.Record{}
			for _, col := range record.Columns(st.Data) {
				rec.Set(col, "")
			}
			rec.Set(column, value)
			return append(slices.Clone(st.Data), rec), nil
		}

		i, err := dataIndex(st, row)
		if err != nil {
			return nil, err
		}
		data := slices.Clone(st.Data)
		rec := data[i].Clone()
		rec.Set(column, value)
		data[i] = rec
		return data, nil
	})
}

// DeleteRow removes the view row at index row from the dataset.
func (s *Store) DeleteRow(row int) (*State, error) {
	return s.edit("delete row", func(st *State) ([]record.Record, error) {
		i, err := dataIndex(st, row)
		if err != nil {
			return nil, err
		}
		return slices.Delete(slices.Clone(st.Data), i, i+1), nil
	})
}

// RenameColumn renames a column in every record, keeping its position.
func (s *Store) RenameColumn(from, to string) (*State, error) {
	to = strings.TrimSpace(to)
	return s.edit("rename column", func(st *State) ([]record.Record, error) {
		cols := record.Columns(st.Data)
		if !slices.Contains(cols, from) {
			return nil, eris.Errorf("grid: unknown column %q", from)
		}
		if err := checkNewColumn(cols, to); err != nil {
			return nil, err
		}
		return mapRecords(st.Data, func(r *record.Record) { r.Rename(from, to) }), nil
	})
}

// AddColumn appends an empty column to every record.
func (s *Store) AddColumn(name string) (*State, error) {
	name = strings.TrimSpace(name)
	return s.edit("add column", func(st *State) ([]record.Record, error) {
		if err := checkNewColumn(record.Columns(st.Data), name); err != nil {
			return nil, err
		}
		if len(st.Data) == 0 {
			return []record.Record{record.Of(name, "")}, nil
		}
		return mapRecords(st.Data, func(r *record.Record) { r.Set(name, "") }), nil
	})
}

// DeleteColumn removes a column from every record.
func (s *Store) DeleteColumn(name string) (*State, error) {
	return s.edit("delete column", func(st *State) ([]record.Record, error) {
		if !slices.Contains(record.Columns(st.Data), name) {
			return nil, eris.Errorf("grid: unknown column %q", name)
		}
		return mapRecords(st.Data, func(r *record.Record) { r.Delete(name) }), nil
	})
}

func (s *Store) edit(action string, fn func(st *State) ([]record.Record, error)) (*State, error) {
	return s.apply(func(st *State) (effect, error) {
		if !st.Editable {
			return 0, ErrNotEditable
		}
		data, err := fn(st)
		if err != nil {
			return 0, eris.Wrapf(err, "grid: %s", action)
		}
		st.Pending = data
		zap.L().Debug("grid: edit", zap.String("action", action), zap.Int("rows", len(data)))
		return effectEdit, nil
	})
}

// dataIndex maps a view row to its position in State.Data.
func dataIndex(st *State, row int) (int, error) {
	if row < 0 || row >= len(st.View) {
		return 0, eris.Errorf("row %d out of range", row)
	}
	r := st.View[row]
	if r.Status == record.StatusOld {
		return 0, eris.New("row only exists in the comparison data")
	}
	if r.Index < 0 || r.Index >= len(st.Data) {
		return 0, eris.Errorf("row %d has no source record", row)
	}
	return r.Index, nil
}

func checkNewColumn(cols []string, name string) error {
	if name == "" {
		return eris.New("column name is empty")
	}
	if record.IsReserved(name) {
		return eris.Errorf("column name %q is reserved", name)
	}
	if slices.Contains(cols, name) {
		return eris.Errorf("column %q already exists", name)
	}
	return nil
}

func mapRecords(in []record.Record, fn func(*record.Record)) []record.Record {
	out := make([]record.Record, len(in))
	for i, r := range in {
		c := r.Clone()
		fn(&c)
		out[i] = c
	}
	return out
}

// Resupply is the host half of the edit round trip: it loads an edited
// dataset back into s and restores the sort LoadData resets, as long as the
// sort column survived the edit.
func Resupply(s *Store, records []record.Record) *State {
	prev := s.State().Sort
	st := s.LoadData(records)
	if prev.IsZero() || prev == st.Sort || !slices.Contains(st.Columns, prev.Column) {
		return st
	}
	return s.SetSort(prev.Column, prev.Direction)
}
