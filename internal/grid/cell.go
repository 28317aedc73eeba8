package grid

import (
	"github.com/sells-group/gridkit/internal/celltype"
	"github.com/sells-group/gridkit/internal/facet"
	"github.com/sells-group/gridkit/internal/filter"
	"github.com/sells-group/gridkit/internal/record"
)

// Cell is what a cell renderer receives.
type Cell struct {
	Column         string            `json:"column"`
	Type           celltype.Type     `json:"type"`
	Value          any               `json:"value"`
	RawValue       any               `json:"raw_value"`
	FormattedValue string            `json:"formatted_value"`
	CategoryColor  string            `json:"category_color,omitempty"`
	Scale          *float64          `json:"scale,omitempty"`
	Status         record.CellStatus `json:"status,omitempty"`
	Focused        bool              `json:"focused,omitempty"`
	Blank          bool              `json:"blank,omitempty"`
}

// CellAt describes the cell at view row and column index. The blank append
// row and out-of-range positions yield a Blank cell.
func (st *State) CellAt(row, col int) Cell {
	if col < 0 || col >= len(st.Columns) {
		return Cell{Blank: true}
	}
	name := st.Columns[col]
	t := st.Schema.Type(name)
	c := Cell{
		Column:  name,
		Type:    t,
		Focused: st.Focus != nil && st.Focus.Row == row && st.Focus.Column == col,
	}
	if row < 0 || row >= len(st.View) {
		c.Blank = true
		return c
	}

	r := st.View[row]
	c.Value = r.Value(name)
	c.RawValue = r.RawValue(name)
	c.FormattedValue = celltype.Format(t, c.Value)
	c.Status = r.CellStatus(name)
	if t == celltype.Category {
		c.CategoryColor = facet.ColorOf(st.Categories[name], c.Value)
	}
	if e, ok := st.Scales[name]; ok {
		if n, ok := celltype.ToNumber(c.Value); ok {
			at := e.At(n)
			c.Scale = &at
		}
	}
	return c
}

// FilterProps is what a filter widget receives. PossibleValues is set for
// category columns; the data slices and bins for range columns.
type FilterProps struct {
	Column         string                `json:"column"`
	Kind           celltype.FilterKind   `json:"kind"`
	Value          *filter.Value         `json:"value,omitempty"`
	PossibleValues []facet.CategoryValue `json:"possible_values,omitempty"`
	OriginalData   []float64             `json:"original_data,omitempty"`
	FilteredData   []float64             `json:"filtered_data,omitempty"`
	Bins           []facet.Bin           `json:"bins,omitempty"`
}

// FilterProps describes the filter widget for column with the default
// histogram bin count.
func (st *State) FilterProps(column string) FilterProps {
	return st.FilterPropsWidth(column, 0)
}

// FilterPropsWidth is FilterProps with histogram bins sized for a widget
// width pixels wide.
func (st *State) FilterPropsWidth(column string, width int) FilterProps {
	info := st.Schema.Info(column)
	p := FilterProps{Column: column, Kind: info.Filter}
	if v, ok := st.Filters[column]; ok {
		p.Value = &v
	}
	switch info.Filter {
	case celltype.FilterCategory:
		p.PossibleValues = st.Categories[column]
	case celltype.FilterRange:
		p.OriginalData = facet.Values(st.Rows, column)
		p.FilteredData = facet.Values(st.View, column)
		p.Bins = facet.Histogram(p.OriginalData, p.FilteredData, facet.BinsForWidth(width))
	}
	return p
}

// CellAt is State().CellAt.
func (s *Store) CellAt(row, col int) Cell {
	return s.State().CellAt(row, col)
}

// FilterProps is State().FilterProps.
func (s *Store) FilterProps(column string) FilterProps {
	return s.State().FilterProps(column)
}

// DebounceFilter schedules SetFilter for column after the text or range
// delay. A newer value for the same column supersedes a pending one.
func (s *Store) DebounceFilter(column string, v *filter.Value) {
	delay := s.opts.textDelay
	if v != nil && v.IsRange() {
		delay = s.opts.rangeDelay
	}
	s.filterDebouncer(column).PushAfter(v, delay)
}

// FlushFilters commits every pending debounced filter now.
func (s *Store) FlushFilters() {
	s.dmu.Lock()
	ds := make([]*Debouncer[*filter.Value], 0, len(s.debouncers))
	for _, d := range s.debouncers {
		ds = append(ds, d)
	}
	s.dmu.Unlock()
	for _, d := range ds {
		d.Flush()
	}
}

func (s *Store) filterDebouncer(column string) *Debouncer[*filter.Value] {
	s.dmu.Lock()
	defer s.dmu.Unlock()
	d, ok := s.debouncers[column]
	if !ok {
		d = NewDebouncer(s.opts.textDelay, func(v *filter.Value) { s.SetFilter(column, v) })
		s.debouncers[column] = d
	}
	return d
}
