package layout

// Range is an inclusive block of body cells. A negative First index means
// the dimension is empty.
type Range struct {
	FirstRow    int `json:"first_row"`
	LastRow     int `json:"last_row"`
	FirstColumn int `json:"first_column"`
	LastColumn  int `json:"last_column"`
}

// Empty reports whether r holds no cells.
func (r Range) Empty() bool {
	return r.rowCount() == 0 || r.columnCount() == 0
}

func (r Range) rowCount() int {
	if r.FirstRow < 0 || r.LastRow < r.FirstRow {
		return 0
	}
	return r.LastRow - r.FirstRow + 1
}

func (r Range) columnCount() int {
	if r.FirstColumn < 0 || r.LastColumn < r.FirstColumn {
		return 0
	}
	return r.LastColumn - r.FirstColumn + 1
}

// Cells enumerates r row by row.
func (r Range) Cells() []Cell {
	if r.Empty() {
		return nil
	}
	out := make([]Cell, 0, r.rowCount()*r.columnCount())
	for row := r.FirstRow; row <= r.LastRow; row++ {
		for col := r.FirstColumn; col <= r.LastColumn; col++ {
			out = append(out, Cell{Row: row, Column: col})
		}
	}
	return out
}

// Window returns the body cells visible in a viewport scrolled to
// (scrollX, scrollY), widened by overscan cells on every side. The pinned
// header and columns cover the top and left of the viewport, so only the
// remainder is searched.
func (m *Mapper) Window(scrollX, scrollY, viewW, viewH float64, overscan int) Range {
	r := Range{FirstRow: -1, LastRow: -1, FirstColumn: -1, LastColumn: -1}
	overscan = max(0, overscan)

	firstCol, colCount := m.opts.StickyColumns, m.opts.ColumnCount
	if colCount > firstCol {
		left := scrollX + m.StickyWidth()
		right := scrollX + viewW
		lo := max(firstCol, m.cols.indexAt(left, colCount))
		hi := max(lo, m.cols.indexAt(max(left, right-1e-9), colCount))
		r.FirstColumn = max(firstCol, lo-overscan)
		r.LastColumn = min(colCount-1, hi+overscan)
	}

	firstRow, rowCount := m.firstBodyRow(), m.opts.RowCount
	if rowCount > firstRow {
		top := scrollY + m.HeaderHeight()
		bottom := scrollY + viewH
		lo := max(firstRow, m.rows.indexAt(top, rowCount))
		hi := max(lo, m.rows.indexAt(max(top, bottom-1e-9), rowCount))
		r.FirstRow = max(firstRow, lo-overscan)
		r.LastRow = min(rowCount-1, hi+overscan)
	}
	return r
}

// ScrollTo returns the smallest scroll change that brings c fully into
// view below the pinned header and right of the pinned columns. Pinned
// cells never move the scroll position on their axis.
func (m *Mapper) ScrollTo(scrollX, scrollY, viewW, viewH float64, c Cell) (float64, float64) {
	if c.Column >= m.opts.StickyColumns && c.Column < m.opts.ColumnCount {
		x0, x1 := m.cols.offset(c.Column), m.cols.offset(c.Column+1)
		scrollX = nearest(scrollX, viewW-m.StickyWidth(), x0-m.StickyWidth(), x1-m.StickyWidth())
	}
	if c.Row >= m.firstBodyRow() && c.Row < m.opts.RowCount {
		y0, y1 := m.rows.offset(c.Row), m.rows.offset(c.Row+1)
		scrollY = nearest(scrollY, viewH-m.HeaderHeight(), y0-m.HeaderHeight(), y1-m.HeaderHeight())
	}
	return max(0, scrollX), max(0, scrollY)
}

// nearest aligns [start, end) inside a window of size at pos, moving as
// little as possible.
func nearest(pos, size, start, end float64) float64 {
	switch {
	case start < pos:
		return start
	case end > pos+size:
		return min(start, end-size)
	default:
		return pos
	}
}
