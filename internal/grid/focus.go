package grid

import (
	"math"

	"github.com/sells-group/gridkit/internal/celltype"
	"github.com/sells-group/gridkit/internal/diff"
)

// Key is a navigation or edit key understood by HandleKey.
type Key string

// Keys. The jump keys move to the first or last row or column.
const (
	KeyUp     Key = "up"
	KeyDown   Key = "down"
	KeyLeft   Key = "left"
	KeyRight  Key = "right"
	KeyTop    Key = "top"
	KeyBottom Key = "bottom"
	KeyHome   Key = "home"
	KeyEnd    Key = "end"
	KeyEnter  Key = "enter"
	KeyEscape Key = "escape"
)

var moves = map[Key][2]int{
	KeyUp:     {-1, 0},
	KeyDown:   {1, 0},
	KeyLeft:   {0, -1},
	KeyRight:  {0, 1},
	KeyTop:    {math.MinInt32, 0},
	KeyBottom: {math.MaxInt32, 0},
	KeyHome:   {0, math.MinInt32},
	KeyEnd:    {0, math.MaxInt32},
}

// Focus moves focus to pos, clamped to the grid, and leaves edit mode.
func (s *Store) Focus(pos Position) *State {
	return s.mustApply(func(st *State) effect {
		p := pos
		st.Focus = &p
		st.Mode = Viewing
		st.Draft = ""
		clampFocus(st)
		return 0
	})
}

// Activate is a click on pos: the first focuses the cell, a second on the
// focused cell of an editable grid starts editing.
func (s *Store) Activate(pos Position) *State {
	st := s.State()
	if st.Focus != nil && *st.Focus == pos && st.Editable && st.Mode == Viewing {
		return s.BeginEdit()
	}
	return s.Focus(pos)
}

// MoveFocus moves focus by the given deltas, clamped to the view (plus the
// blank append row when editable). Without focus it focuses the first
// cell.
func (s *Store) MoveFocus(dRow, dCol int) *State {
	return s.mustApply(func(st *State) effect {
		if st.Focus == nil {
			st.Focus = &Position{}
		} else {
			st.Focus = &Position{
				Row:    saturatingAdd(st.Focus.Row, dRow),
				Column: saturatingAdd(st.Focus.Column, dCol),
			}
		}
		st.Mode = Viewing
		st.Draft = ""
		clampFocus(st)
		return 0
	})
}

// ClearFocus drops focus and any edit in progress.
func (s *Store) ClearFocus() *State {
	return s.mustApply(func(st *State) effect {
		st.Focus = nil
		st.Mode = Viewing
		st.Draft = ""
		return 0
	})
}

// HandleKey drives focus and the edit lifecycle. It reports whether the
// key was consumed.
//
// While viewing, arrows move focus, Enter starts editing an editable grid
// and Escape clears focus. While editing, Enter commits the draft and moves
// down a row and Escape discards it.
func (s *Store) HandleKey(k Key) bool {
	st := s.State()
	if st.Mode == Editing {
		switch k {
		case KeyEnter:
			_, err := s.CommitEdit(st.Draft)
			return err == nil
		case KeyEscape:
			s.CancelEdit()
			return true
		}
		return false
	}

	if d, ok := moves[k]; ok {
		s.MoveFocus(d[0], d[1])
		return true
	}
	switch k {
	case KeyEnter:
		if st.Focus == nil || !st.Editable {
			return false
		}
		s.BeginEdit()
		return true
	case KeyEscape:
		if st.Focus == nil {
			return false
		}
		s.ClearFocus()
		return true
	}
	return false
}

// BeginEdit enters edit mode on the focused cell with its raw text as the
// draft. It is a no-op without focus or on a read-only grid.
func (s *Store) BeginEdit() *State {
	return s.mustApply(func(st *State) effect {
		if st.Focus == nil || !st.Editable {
			return 0
		}
		st.Mode = Editing
		st.Draft = ""
		if st.Focus.Row < len(st.View) && st.Focus.Column < len(st.Columns) {
			raw := st.View[st.Focus.Row].RawValue(st.Columns[st.Focus.Column])
			st.Draft, _ = celltype.ToText(raw).(string)
		}
		return 0
	})
}

// SetDraft replaces the text being edited.
func (s *Store) SetDraft(text string) *State {
	return s.mustApply(func(st *State) effect {
		if st.Mode == Editing {
			st.Draft = text
		}
		return 0
	})
}

// CommitEdit writes value into the focused cell, returns to viewing and
// moves focus down one row. The updated dataset lands in State.Pending
// and is handed to the edit callback.
func (s *Store) CommitEdit(value string) (*State, error) {
	st := s.State()
	if st.Focus == nil || st.Mode != Editing {
		return st, nil
	}
	pos := *st.Focus
	if pos.Column >= len(st.Columns) {
		s.CancelEdit()
		return s.State(), nil
	}
	if _, err := s.SetCellValue(pos.Row, st.Columns[pos.Column], value); err != nil {
		return s.State(), err
	}
	return s.MoveFocus(1, 0), nil
}

// CancelEdit leaves edit mode, discarding the draft. Focus stays.
func (s *Store) CancelEdit() *State {
	return s.mustApply(func(st *State) effect {
		st.Mode = Viewing
		st.Draft = ""
		return 0
	})
}

// NextDiff moves the diff cursor by delta through the changed rows of the
// view, wrapping at either end, and focuses the row.
func (s *Store) NextDiff(delta int) (diff.Change, bool) {
	var out diff.Change
	var ok bool
	s.mustApply(func(st *State) effect {
		n := len(st.Diffs)
		if n == 0 {
			return 0
		}
		idx := st.DiffIdx
		if idx < 0 && delta < 0 {
			idx = 0
		}
		idx = ((idx+delta)%n + n) % n
		st.DiffIdx = idx
		out, ok = st.Diffs[idx], true

		col := 0
		if st.Focus != nil {
			col = st.Focus.Column
		}
		st.Focus = &Position{Row: out.Position, Column: col}
		st.Mode = Viewing
		st.Draft = ""
		clampFocus(st)
		return 0
	})
	return out, ok
}

// clampFocus keeps focus inside the navigable area, dropping it when the
// grid is empty.
func clampFocus(st *State) {
	if st.Focus == nil {
		return
	}
	rows, cols := st.RowCount(), len(st.Columns)
	if rows == 0 || cols == 0 {
		st.Focus = nil
		st.Mode = Viewing
		st.Draft = ""
		return
	}
	p := Position{
		Row:    max(0, min(st.Focus.Row, rows-1)),
		Column: max(0, min(st.Focus.Column, cols-1)),
	}
	st.Focus = &p
}

func saturatingAdd(a, b int) int {
	switch {
	case b > 0 && a > math.MaxInt32-b:
		return math.MaxInt32
	case b < 0 && a < math.MinInt32-b:
		return math.MinInt32
	}
	return a + b
}
