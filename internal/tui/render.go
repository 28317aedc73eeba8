package tui

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/sells-group/gridkit/internal/grid"
	"github.com/sells-group/gridkit/internal/layout"
	"github.com/sells-group/gridkit/internal/record"
	"github.com/sells-group/gridkit/internal/sorter"
)

const (
	minColumnChars = 4
	maxColumnChars = 40
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	headerStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Background(lipgloss.Color("8"))
	stickyStyle   = lipgloss.NewStyle().Bold(true)
	cursorStyle   = lipgloss.NewStyle().Background(lipgloss.Color("4")).Foreground(lipgloss.Color("15"))
	editStyle     = lipgloss.NewStyle().Background(lipgloss.Color("3")).Foreground(lipgloss.Color("0"))
	newStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	oldStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Strikethrough(true)
	modifiedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	modRowStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	statusStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

// heatRamp shades scaled cells from the low to the high end of their column.
var heatRamp = []lipgloss.Color{"39", "44", "78", "184", "214", "203"}

func heatColor(t float64) lipgloss.Color {
	i := int(math.Round(t * float64(len(heatRamp)-1)))
	return heatRamp[max(0, min(len(heatRamp)-1, i))]
}

// View implements tea.Model.
func (m Model) View() string {
	if m.width == 0 {
		return "loading..."
	}
	st := m.store.State()

	var b strings.Builder
	title := m.title
	if title == "" {
		title = "gridkit"
	}
	b.WriteString(titleStyle.Render(" " + title))
	b.WriteString("\n")

	if len(st.Columns) == 0 {
		b.WriteString(dimStyle.Render(" (no data)"))
		b.WriteString("\n")
	} else {
		for _, line := range m.renderGrid(st) {
			b.WriteString(line)
			b.WriteString("\n")
		}
	}

	if m.prompting {
		b.WriteString(m.input.View())
		b.WriteString("\n")
	}
	b.WriteString(m.statusLine(st))
	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

// bodyHeight is the number of terminal lines available to the grid,
// header row included.
func (m Model) bodyHeight() int {
	h := m.height - 3 // title, status, help
	if m.prompting {
		h--
	}
	if m.help.ShowAll {
		h -= 4
	}
	return max(2, h)
}

// columnChars converts store widths into terminal columns, one of which is
// the gap before the next column.
func (m Model) columnChars(st *grid.State) []float64 {
	out := make([]float64, len(st.ColumnWidths))
	for i, w := range st.ColumnWidths {
		chars := int(math.Round(w / m.charWidth))
		out[i] = float64(max(minColumnChars, min(maxColumnChars, chars)) + 1)
	}
	return out
}

func (m Model) mapper(st *grid.State) *layout.Mapper {
	sticky := layout.StickyColumns(float64(m.width)*m.charWidth, m.stickyMin)
	return layout.New(
		layout.Fixed(m.columnChars(st), minColumnChars+1),
		layout.HeaderRows(1, 1),
		layout.Options{
			RowCount:      st.RowCount() + 1,
			ColumnCount:   len(st.Columns),
			StickyColumns: sticky,
			StickyHeader:  true,
		},
	)
}

type segment struct {
	x, width int
	minX     int
	text     string
	style    lipgloss.Style
}

// renderGrid paints the visible window. Scrolled cells slide under the
// pinned column and header; their hidden part is cut off.
func (m Model) renderGrid(st *grid.State) []string {
	viewH := m.bodyHeight()
	mp := m.mapper(st)
	r := mp.Window(float64(m.scrollX), float64(m.scrollY), float64(m.width), float64(viewH), 0)
	stickyW := int(mp.StickyWidth())

	lines := make([][]segment, viewH)
	for _, p := range mp.PlaceRange(r) {
		x, y := int(p.X), int(p.Y)
		minX := 0
		if p.Sticky == layout.Scroll || p.Sticky == layout.StickyTop {
			x -= m.scrollX
			minX = stickyW
		}
		if p.Sticky == layout.Scroll || p.Sticky == layout.StickyLeft {
			y -= m.scrollY
			if y < 1 {
				continue
			}
		}
		if y < 0 || y >= viewH {
			continue
		}
		text, style := m.cell(st, p)
		lines[y] = append(lines[y], segment{x: x, width: int(p.Width), minX: minX, text: text, style: style})
	}

	out := make([]string, 0, viewH)
	for _, segs := range lines {
		out = append(out, paintLine(segs, m.width))
	}
	return out
}

func paintLine(segs []segment, width int) string {
	sort.SliceStable(segs, func(i, j int) bool { return segs[i].x < segs[j].x })
	var b strings.Builder
	cursor := 0
	for _, s := range segs {
		start := max(s.x, s.minX, cursor)
		end := min(s.x+s.width, width)
		if end <= start {
			continue
		}
		b.WriteString(strings.Repeat(" ", start-cursor))
		cell := []rune(fit(s.text, s.width-1) + " ")
		b.WriteString(s.style.Render(string(cell[start-s.x : end-s.x])))
		cursor = end
	}
	return b.String()
}

// fit pads or truncates s to exactly n runes.
func fit(s string, n int) string {
	if n <= 0 {
		return ""
	}
	s = strings.NewReplacer("\n", " ", "\t", " ").Replace(s)
	r := []rune(s)
	if len(r) > n {
		if n == 1 {
			return "…"
		}
		return string(r[:n-1]) + "…"
	}
	return s + strings.Repeat(" ", n-len(r))
}

func (m Model) cell(st *grid.State, p layout.Placement) (string, lipgloss.Style) {
	if p.Row == 0 {
		return headerText(st, p.Column), headerStyle
	}

	row := p.Row - 1
	c := st.CellAt(row, p.Column)
	style := lipgloss.NewStyle()
	if p.Sticky == layout.StickyLeft {
		style = stickyStyle
	}
	switch c.Status {
	case record.CellNew:
		style = newStyle
	case record.CellOld:
		style = oldStyle
	case record.CellModified:
		style = modifiedStyle
	case record.CellModifiedRow:
		style = modRowStyle
	}
	if c.Status == record.CellNone {
		switch {
		case c.CategoryColor != "":
			style = style.Foreground(lipgloss.Color(c.CategoryColor))
		case c.Scale != nil:
			style = style.Foreground(heatColor(*c.Scale))
		}
	}

	text := c.FormattedValue
	if c.Focused {
		if st.Mode == grid.Editing {
			return st.Draft + "▏", editStyle
		}
		return text, cursorStyle
	}
	return text, style
}

func headerText(st *grid.State, col int) string {
	if col >= len(st.Columns) {
		return ""
	}
	column := st.Columns[col]
	text := column
	if _, ok := st.Filters[column]; ok {
		text = "*" + text
	}
	if st.Sort.Column == column {
		if st.Sort.Direction == sorter.Desc {
			text += " ▼"
		} else {
			text += " ▲"
		}
	}
	return text
}

func (m Model) statusLine(st *grid.State) string {
	parts := []string{
		fmt.Sprintf("%s of %s rows", humanize.Comma(int64(len(st.View))), humanize.Comma(int64(len(st.Rows)))),
	}
	if !st.Sort.IsZero() {
		parts = append(parts, "sort "+st.Sort.Column+":"+string(st.Sort.Direction))
	}
	if n := len(st.Filters); n > 0 {
		parts = append(parts, fmt.Sprintf("%d %s", n, plural(n, "filter", "filters")))
	}
	if st.UniqueColumn != "" {
		sum := st.Summary()
		parts = append(parts, fmt.Sprintf("+%s ~%s -%s by %s",
			humanize.Comma(int64(sum.New)),
			humanize.Comma(int64(sum.Modified)),
			humanize.Comma(int64(sum.Old)),
			st.UniqueColumn,
		))
	}
	if m.dirty {
		parts = append(parts, "unsaved edits")
	}
	line := statusStyle.Render(" " + strings.Join(parts, " │ "))
	switch {
	case m.err != nil:
		line += "  " + errorStyle.Render(m.err.Error())
	case m.message != "":
		line += "  " + dimStyle.Render(m.message)
	}
	return line
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
