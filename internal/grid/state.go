package grid

import (
	"slices"

	"github.com/sells-group/gridkit/internal/diff"
	"github.com/sells-group/gridkit/internal/facet"
	"github.com/sells-group/gridkit/internal/filter"
	"github.com/sells-group/gridkit/internal/record"
	"github.com/sells-group/gridkit/internal/schema"
	"github.com/sells-group/gridkit/internal/sorter"
)

// Position is a cell in view coordinates: Row indexes State.View, Column
// indexes State.Columns.
type Position struct {
	Row    int `json:"row"`
	Column int `json:"column"`
}

// Mode is the edit lifecycle of the focused cell.
type Mode string

// Modes.
const (
	Viewing Mode = "viewing"
	Editing Mode = "editing"
)

// State is an immutable snapshot of the store. Slices and maps in a State
// are never modified after it is published.
type State struct {
	Data         []record.Record   `json:"-"`
	Comparison   []record.Record   `json:"-"`
	Schema       schema.Schema     `json:"schema"`
	Rows         []record.Row      `json:"-"`
	UniqueColumn string            `json:"unique_column,omitempty"`
	View         []record.Row      `json:"rows"`
	Diffs        []diff.Change     `json:"diffs"`
	Columns      []string          `json:"columns"`
	ColumnWidths []float64         `json:"column_widths"`
	Metadata     map[string]string `json:"metadata,omitempty"`

	Categories map[string][]facet.CategoryValue `json:"categories,omitempty"`
	Scales     map[string]facet.Extent          `json:"scales,omitempty"`

	Filters      filter.Set  `json:"filters"`
	Sort         sorter.Spec `json:"sort"`
	StickyColumn string      `json:"sticky_column,omitempty"`

	Editable bool            `json:"editable"`
	Focus    *Position       `json:"focus,omitempty"`
	Mode     Mode            `json:"mode"`
	Draft    string          `json:"draft,omitempty"`
	Pending  []record.Record `json:"-"`
	DiffIdx  int             `json:"diff_index"`

	parsed []record.Row
}

// Loaded reports whether data has been loaded.
func (st *State) Loaded() bool {
	return st.Schema != nil
}

// RowCount is the number of navigable rows: the view plus the blank append
// row when editable.
func (st *State) RowCount() int {
	if st.Editable {
		return len(st.View) + 1
	}
	return len(st.View)
}

// Summary counts the diff statuses across all rows.
func (st *State) Summary() diff.Summary {
	return diff.Summarize(st.Rows)
}

func (st *State) clone() *State {
	c := *st
	return &c
}

func (st *State) columnIndex(name string) int {
	return slices.Index(st.Columns, name)
}

// ViewState is what hosts receive on view changes.
type ViewState struct {
	StickyColumn string        `json:"sticky_column,omitempty"`
	Columns      []string      `json:"columns"`
	FilteredData []record.Row  `json:"filtered_data"`
	Diffs        []diff.Change `json:"diffs"`
	Filters      filter.Set    `json:"filters"`
	Sort         sorter.Spec   `json:"sort"`
	Schema       schema.Schema `json:"schema"`
}

// ViewState projects the snapshot for hosts.
func (st *State) ViewState() ViewState {
	return ViewState{
		StickyColumn: st.StickyColumn,
		Columns:      st.Columns,
		FilteredData: st.View,
		Diffs:        st.Diffs,
		Filters:      st.Filters,
		Sort:         st.Sort,
		Schema:       st.Schema,
	}
}
