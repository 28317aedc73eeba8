// Package layout maps grid cells to pixel (or character) offsets for a
// virtualized grid with a pinned header row and pinned leading columns.
//
// Indices are grid coordinates: when the header is sticky, row 0 is the
// header and data rows start at 1. Columns [0, StickyColumns) are pinned.
// A Mapper is not safe for concurrent use.
package layout

import "sort"

// Default sizes used by the grid host.
const (
	DefaultHeaderHeight = 117
	DefaultRowHeight    = 40
	DefaultStickyWidth  = 700
)

// SizeFunc returns the width of a column or the height of a row.
type SizeFunc func(index int) float64

// Fixed returns a SizeFunc over sizes, using fallback past the end.
func Fixed(sizes []float64, fallback float64) SizeFunc {
	return func(i int) float64 {
		if i < 0 || i >= len(sizes) {
			return fallback
		}
		return sizes[i]
	}
}

// HeaderRows returns a SizeFunc giving row 0 header and every other row
// body.
func HeaderRows(header, body float64) SizeFunc {
	return func(i int) float64 {
		if i == 0 {
			return header
		}
		return body
	}
}

// StickyColumns is the number of pinned columns for a viewport width: one
// when the viewport is at least minWidth wide, otherwise none.
func StickyColumns(viewWidth, minWidth float64) int {
	if viewWidth < minWidth {
		return 0
	}
	return 1
}

// Options configures a Mapper.
type Options struct {
	RowCount      int
	ColumnCount   int
	StickyColumns int
	StickyHeader  bool
}

// Cell is a grid coordinate.
type Cell struct {
	Row    int `json:"row"`
	Column int `json:"column"`
}

// Sticky says how a placed cell is pinned.
type Sticky string

// Pinning modes.
const (
	Scroll       Sticky = "scroll"
	StickyTop    Sticky = "top"
	StickyLeft   Sticky = "left"
	StickyCorner Sticky = "corner"
)

// Placement is a positioned cell. X and Y are absolute content offsets.
// MarginLeft and MarginTop are set on the first scrolled header cell and
// the first scrolled pinned-column cell respectively: the space between the
// sticky boundary and that cell, which a flow layout has to skip.
type Placement struct {
	Cell
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Width      float64 `json:"width"`
	Height     float64 `json:"height"`
	Sticky     Sticky  `json:"sticky"`
	MarginLeft float64 `json:"margin_left,omitempty"`
	MarginTop  float64 `json:"margin_top,omitempty"`
}

// Mapper computes placements from cached prefix sums that grow only as far
// as the furthest index asked for.
type Mapper struct {
	opts Options
	cols axis
	rows axis
}

// New returns a Mapper for the given size functions.
func New(colWidth, rowHeight SizeFunc, opts Options) *Mapper {
	opts.StickyColumns = max(0, min(opts.StickyColumns, opts.ColumnCount))
	return &Mapper{
		opts: opts,
		cols: axis{size: colWidth},
		rows: axis{size: rowHeight},
	}
}

// Options returns the mapper's options.
func (m *Mapper) Options() Options { return m.opts }

// Reset drops cached offsets. Call it after any size changes.
func (m *Mapper) Reset() {
	m.cols.offsets = nil
	m.rows.offsets = nil
}

// ColumnOffset is the left edge of column i.
func (m *Mapper) ColumnOffset(i int) float64 { return m.cols.offset(i) }

// RowOffset is the top edge of row i.
func (m *Mapper) RowOffset(i int) float64 { return m.rows.offset(i) }

// ContentSize is the full width and height of the grid.
func (m *Mapper) ContentSize() (width, height float64) {
	return m.cols.offset(m.opts.ColumnCount), m.rows.offset(m.opts.RowCount)
}

// StickyWidth is the summed width of the pinned columns.
func (m *Mapper) StickyWidth() float64 {
	return m.cols.offset(m.opts.StickyColumns)
}

// HeaderHeight is the height of the pinned header, or 0.
func (m *Mapper) HeaderHeight() float64 {
	if !m.opts.StickyHeader || m.opts.RowCount == 0 {
		return 0
	}
	return m.rows.offset(1)
}

func (m *Mapper) firstBodyRow() int {
	if m.opts.StickyHeader {
		return 1
	}
	return 0
}

// Place positions the cells chosen by a virtualization engine and adds the
// pinned corner, header and column cells covering the same range. Cells
// inside the pinned areas are ignored; their pinned copies are emitted
// instead.
func (m *Mapper) Place(cells []Cell) []Placement {
	r := Range{FirstRow: -1, FirstColumn: -1, LastRow: -1, LastColumn: -1}
	body := cells[:0:0]
	for _, c := range cells {
		if c.Row < m.firstBodyRow() || c.Column < m.opts.StickyColumns {
			continue
		}
		body = append(body, c)
		if r.FirstRow < 0 || c.Row < r.FirstRow {
			r.FirstRow = c.Row
		}
		if r.FirstColumn < 0 || c.Column < r.FirstColumn {
			r.FirstColumn = c.Column
		}
		r.LastRow = max(r.LastRow, c.Row)
		r.LastColumn = max(r.LastColumn, c.Column)
	}
	return m.place(r, body)
}

// PlaceRange positions every body cell of r plus the pinned cells. Unlike
// Place it keeps the header when r has columns but no rows.
func (m *Mapper) PlaceRange(r Range) []Placement {
	return m.place(r, r.Cells())
}

func (m *Mapper) place(r Range, body []Cell) []Placement {
	out := make([]Placement, 0, len(body)+m.opts.StickyColumns*(r.rowCount()+1)+r.columnCount()+1)
	sticky := m.opts.StickyColumns

	if m.opts.StickyHeader && m.opts.RowCount > 0 {
		for c := 0; c < sticky; c++ {
			out = append(out, m.placement(Cell{Row: 0, Column: c}, StickyCorner))
		}
		for i, c := 0, r.FirstColumn; r.FirstColumn >= 0 && c <= r.LastColumn; i, c = i+1, c+1 {
			p := m.placement(Cell{Row: 0, Column: c}, StickyTop)
			if i == 0 {
				p.MarginLeft = m.cols.offset(c) - m.cols.offset(sticky)
			}
			out = append(out, p)
		}
	}

	if sticky > 0 {
		for i, row := 0, r.FirstRow; r.FirstRow >= 0 && row <= r.LastRow; i, row = i+1, row+1 {
			for c := 0; c < sticky; c++ {
				p := m.placement(Cell{Row: row, Column: c}, StickyLeft)
				if i == 0 && c == 0 {
					p.MarginTop = m.rows.offset(row) - m.rows.offset(m.firstBodyRow())
				}
				out = append(out, p)
			}
		}
	}

	for _, c := range body {
		out = append(out, m.placement(c, Scroll))
	}
	return out
}

func (m *Mapper) placement(c Cell, s Sticky) Placement {
	return Placement{
		Cell:   c,
		X:      m.cols.offset(c.Column),
		Y:      m.rows.offset(c.Row),
		Width:  m.cols.size(c.Column),
		Height: m.rows.size(c.Row),
		Sticky: s,
	}
}

// axis is one dimension's lazily extended prefix sums: offsets[i] is the
// start of index i.
type axis struct {
	size    SizeFunc
	offsets []float64
}

func (a *axis) offset(i int) float64 {
	if i <= 0 {
		return 0
	}
	if len(a.offsets) == 0 {
		a.offsets = []float64{0}
	}
	for n := len(a.offsets) - 1; n < i; n++ {
		a.offsets = append(a.offsets, a.offsets[n]+a.size(n))
	}
	return a.offsets[i]
}

// indexAt returns the index in [0, count) whose span contains x, clamped
// to the ends. It returns -1 when count is 0.
func (a *axis) indexAt(x float64, count int) int {
	if count <= 0 {
		return -1
	}
	a.offset(1)
	for n := len(a.offsets) - 1; n < count && a.offsets[n] <= x; n++ {
		a.offset(n + 1)
	}
	known := a.offsets[:min(len(a.offsets), count+1)]
	i := sort.Search(len(known), func(i int) bool { return known[i] > x }) - 1
	return max(0, min(i, count-1))
}
