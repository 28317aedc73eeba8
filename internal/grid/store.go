// Package grid is the state store of a data grid. It owns the raw and
// comparison datasets and derives everything a host renders from them:
// schema, parsed rows, diff statuses, the filtered and sorted view, facets,
// column order and widths, focus and edit state.
//
// Every action builds a new State from a copy of the current one and swaps
// it in under a lock, so a State returned by the store never changes.
// Callbacks run after the lock is released.
package grid

import (
	"slices"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/gridkit/internal/diff"
	"github.com/sells-group/gridkit/internal/facet"
	"github.com/sells-group/gridkit/internal/filter"
	"github.com/sells-group/gridkit/internal/parse"
	"github.com/sells-group/gridkit/internal/record"
	"github.com/sells-group/gridkit/internal/schema"
	"github.com/sells-group/gridkit/internal/sorter"
)

// ErrNotEditable is returned by edit actions on a read-only store.
var ErrNotEditable = eris.New("grid: store is not editable")

// Store is the grid state store. It is safe for concurrent use.
type Store struct {
	opts options

	mu    sync.RWMutex
	state *State

	dmu        sync.Mutex
	debouncers map[string]*Debouncer[*filter.Value]
}

// New creates an empty store.
func New(opts ...Option) *Store {
	o := defaultOptions()
	for _, fn := range opts {
		fn(&o)
	}
	return &Store{
		opts: o,
		state: &State{
			Filters:  filter.Set{},
			Metadata: o.metadata,
			Editable: o.editable,
			Mode:     Viewing,
			DiffIdx:  -1,
		},
		debouncers: make(map[string]*Debouncer[*filter.Value]),
	}
}

// State returns the current snapshot.
func (s *Store) State() *State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// ViewState returns the host-facing projection of the current snapshot.
func (s *Store) ViewState() ViewState {
	return s.State().ViewState()
}

type effect uint8

const (
	effectView effect = 1 << iota
	effectEdit
)

// apply runs fn against a copy of the current state. When fn succeeds the
// copy is published and callbacks fire for the effects it reports.
func (s *Store) apply(fn func(st *State) (effect, error)) (*State, error) {
	s.mu.Lock()
	next := s.state.clone()
	eff, err := fn(next)
	if err != nil {
		cur := s.state
		s.mu.Unlock()
		return cur, err
	}
	s.state = next
	s.mu.Unlock()

	if eff&effectView != 0 && s.opts.onChange != nil && next.Loaded() {
		s.opts.onChange(next.ViewState())
	}
	if eff&effectEdit != 0 && s.opts.onEdit != nil {
		s.opts.onEdit(next.Pending)
	}
	return next, nil
}

func (s *Store) mustApply(fn func(st *State) effect) *State {
	st, _ := s.apply(func(st *State) (effect, error) { return fn(st), nil })
	return st
}

// LoadData replaces the raw dataset and rebuilds all derived state. The
// sticky column and the filters on surviving columns are kept; default
// filters apply to the first load only. Sort resets to the default: the
// configured default sort, else the first column in its natural direction.
func (s *Store) LoadData(records []record.Record) *State {
	return s.mustApply(func(st *State) effect {
		first := !st.Loaded()
		st.Data = records
		st.Schema = schema.Infer(records).WithOverrides(s.opts.overrides)
		st.parsed = parse.Rows(records, st.Schema)
		st.Pending = nil

		cols := record.Columns(records)
		switch {
		case st.StickyColumn != "" && slices.Contains(cols, st.StickyColumn):
		case s.opts.defaultSticky != "" && slices.Contains(cols, s.opts.defaultSticky):
			st.StickyColumn = s.opts.defaultSticky
		case len(cols) > 0:
			st.StickyColumn = cols[0]
		default:
			st.StickyColumn = ""
		}

		st.Sort = sorter.Spec{}
		if spec := s.opts.defaultSort; spec.Column != "" && slices.Contains(cols, spec.Column) {
			st.Sort = spec
		} else if len(cols) > 0 {
			st.Sort = sorter.Spec{
				Column:    cols[0],
				Direction: sorter.DefaultDirection(st.Schema.Info(cols[0]).SortKind),
			}
		}

		if first && s.opts.defaultFilter != nil {
			st.Filters = s.opts.defaultFilter.Clone()
		} else {
			st.Filters = keepFilters(st.Filters, cols)
		}

		rebuildDiff(st)
		rebuildColumns(st, s.opts.widths)
		st.Scales = facet.Scales(st.Rows, st.Schema)
		rebuildView(st)

		zap.L().Debug("grid: data loaded",
			zap.Int("rows", len(records)),
			zap.Int("columns", len(st.Columns)),
		)
		return effectView
	})
}

// LoadComparisonData replaces the comparison dataset and recomputes diff
// statuses. An empty comparison clears them.
func (s *Store) LoadComparisonData(records []record.Record) *State {
	return s.mustApply(func(st *State) effect {
		st.Comparison = records
		if !st.Loaded() {
			return 0
		}
		rebuildDiff(st)
		rebuildColumns(st, s.opts.widths)
		st.Scales = facet.Scales(st.Rows, st.Schema)
		rebuildView(st)
		return 0
	})
}

// SetMetadata replaces the per-column descriptions.
func (s *Store) SetMetadata(m map[string]string) *State {
	return s.mustApply(func(st *State) effect {
		st.Metadata = m
		return 0
	})
}

// SetFilter sets or, with nil or an empty value, clears the filter on
// column.
func (s *Store) SetFilter(column string, v *filter.Value) *State {
	return s.mustApply(func(st *State) effect {
		st.Filters = st.Filters.Clone()
		if v == nil || v.IsEmpty() {
			delete(st.Filters, column)
		} else {
			st.Filters[column] = *v
		}
		rebuildView(st)
		return effectView
	})
}

// SetFilters replaces the whole filter set.
func (s *Store) SetFilters(set filter.Set) *State {
	return s.mustApply(func(st *State) effect {
		st.Filters = set.Clone()
		rebuildView(st)
		return effectView
	})
}

// ClearFilters removes every filter.
func (s *Store) ClearFilters() *State {
	return s.SetFilters(filter.Set{})
}

// SetSort sorts the view by column. An empty column restores input order;
// an empty direction picks the column's natural one.
func (s *Store) SetSort(column string, dir sorter.Direction) *State {
	return s.mustApply(func(st *State) effect {
		if column != "" && dir == "" {
			dir = sorter.DefaultDirection(st.Schema.Info(column).SortKind)
		}
		st.Sort = sorter.Spec{Column: column, Direction: dir}
		if column == "" {
			st.Sort = sorter.Spec{}
		}
		rebuildView(st)
		return effectView
	})
}

// SetStickyColumn pins column first in the column order. Unknown columns
// are ignored.
func (s *Store) SetStickyColumn(column string) *State {
	return s.mustApply(func(st *State) effect {
		if !slices.Contains(record.Columns(st.Data), column) || column == st.StickyColumn {
			return 0
		}
		st.StickyColumn = column
		rebuildColumns(st, s.opts.widths)
		return effectView
	})
}

// SetEditable toggles editable mode.
func (s *Store) SetEditable(editable bool) *State {
	return s.mustApply(func(st *State) effect {
		st.Editable = editable
		if !editable {
			st.Mode = Viewing
			st.Draft = ""
		}
		clampFocus(st)
		return 0
	})
}

// rebuildDiff recomputes Rows from the parsed data and the comparison.
func rebuildDiff(st *State) {
	res := diff.Compute(st.parsed, st.Comparison, st.Schema)
	st.Rows = res.Rows
	st.UniqueColumn = res.UniqueColumn
}

// rebuildColumns orders columns with the sticky one first and re-estimates
// widths.
func rebuildColumns(st *State, o WidthOptions) {
	cols := record.Columns(st.Data)
	if i := slices.Index(cols, st.StickyColumn); i > 0 {
		ordered := make([]string, 0, len(cols))
		ordered = append(ordered, cols[i])
		ordered = append(ordered, cols[:i]...)
		ordered = append(ordered, cols[i+1:]...)
		cols = ordered
	}
	st.Columns = cols
	st.ColumnWidths = ColumnWidths(cols, st.Rows, st.Schema, o)
	clampFocus(st)
}

// rebuildView filters and sorts Rows and refreshes everything derived from
// the view.
func rebuildView(st *State) {
	view := filter.Apply(st.Rows, st.Filters, st.Schema)
	view = sorter.Apply(view, st.Sort, st.Schema.Info(st.Sort.Column).SortKind)
	st.View = view
	st.Diffs = diff.Changed(view)
	st.Categories = facet.AllCategories(st.Rows, view, st.Schema)
	st.DiffIdx = -1
	clampFocus(st)
}

func keepFilters(set filter.Set, cols []string) filter.Set {
	out := filter.Set{}
	for col, v := range set {
		if slices.Contains(cols, col) {
			out[col] = v
		}
	}
	return out
}
