package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sells-group/gridkit/internal/grid"
	"github.com/sells-group/gridkit/internal/record"
	"github.com/sells-group/gridkit/internal/sorter"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

func people() []record.Record {
	return []record.Record{
		record.Of("id", 1.0, "name", "Alice", "age", 25.0),
		record.Of("id", 2.0, "name", "Bob", "age", 35.0),
		record.Of("id", 3.0, "name", "Carol", "age", 45.0),
	}
}

func newModel(t *testing.T, opts ...grid.Option) (Model, *grid.Store) {
	t.Helper()
	s := grid.New(opts...)
	s.LoadData(people())
	m := New(s, WithTitle("people.csv"))
	next, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 20})
	return next.(Model), s
}

func keyMsg(k string) tea.KeyMsg {
	switch k {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "backspace":
		return tea.KeyMsg{Type: tea.KeyBackspace}
	case "ctrl+s":
		return tea.KeyMsg{Type: tea.KeyCtrlS}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
	}
}

func press(t *testing.T, m Model, keys ...string) Model {
	t.Helper()
	for _, k := range keys {
		next, _ := m.Update(keyMsg(k))
		m = next.(Model)
	}
	return m
}

func TestView_RendersGrid(t *testing.T) {
	m, _ := newModel(t)
	out := m.View()

	assert.Contains(t, out, "people.csv")
	assert.Contains(t, out, "name")
	assert.Contains(t, out, "Alice")
	assert.Contains(t, out, "Carol")
	assert.Contains(t, out, "3 of 3 rows")
}

func TestView_BeforeSize(t *testing.T) {
	s := grid.New()
	assert.Equal(t, "loading...", New(s).View())
}

func TestView_NoData(t *testing.T) {
	s := grid.New()
	next, _ := New(s).Update(tea.WindowSizeMsg{Width: 80, Height: 10})
	assert.Contains(t, next.(Model).View(), "(no data)")
}

func TestKeys_MoveFocus(t *testing.T) {
	m, s := newModel(t)

	press(t, m, "j")
	require.NotNil(t, s.State().Focus)
	assert.Equal(t, grid.Position{}, *s.State().Focus)

	press(t, m, "j", "l")
	assert.Equal(t, grid.Position{Row: 1, Column: 1}, *s.State().Focus)

	press(t, m, "G", "$")
	assert.Equal(t, grid.Position{Row: 2, Column: 2}, *s.State().Focus)

	press(t, m, "esc")
	assert.Nil(t, s.State().Focus)
}

func TestKeys_SortToggle(t *testing.T) {
	m, s := newModel(t)
	m = press(t, m, "j", "l") // focus name

	press(t, m, "s")
	assert.Equal(t, sorter.Spec{Column: "name", Direction: sorter.Asc}, s.State().Sort)

	press(t, m, "s")
	assert.Equal(t, sorter.Spec{Column: "name", Direction: sorter.Desc}, s.State().Sort)
}

func TestKeys_Pin(t *testing.T) {
	m, s := newModel(t)
	press(t, m, "j", "$", "p")

	st := s.State()
	assert.Equal(t, "age", st.StickyColumn)
	assert.Equal(t, "age", st.Columns[0])
	assert.Equal(t, 0, st.Focus.Column)
}

func TestFilterPrompt_Commit(t *testing.T) {
	m, s := newModel(t)
	m = press(t, m, "j", "l", "/")
	require.True(t, m.prompting)
	assert.Equal(t, "name", m.filterCol)

	m = press(t, m, "b", "o", "b", "enter")
	assert.False(t, m.prompting)

	st := s.State()
	assert.Equal(t, "bob", st.Filters["name"].Text)
	require.Len(t, st.View, 1)
	assert.Equal(t, "Bob", st.View[0].Value("name"))
	assert.Contains(t, m.View(), "1 of 3 rows")
}

func TestFilterPrompt_EscapeRestores(t *testing.T) {
	m, s := newModel(t)
	m = press(t, m, "j", "l", "/", "x", "esc")
	assert.False(t, m.prompting)
	assert.Empty(t, s.State().Filters)
	assert.Len(t, s.State().View, 3)

	press(t, m, "c")
	assert.Empty(t, s.State().Filters)
}

func TestEdit_CommitAndSave(t *testing.T) {
	m, s := newModel(t, grid.WithEditable(true))

	var saved []record.Record
	m.save = func(recs []record.Record) error {
		saved = recs
		return nil
	}

	m = press(t, m, "j", "l", "enter")
	st := s.State()
	require.Equal(t, grid.Editing, st.Mode)

	for range []rune(st.Draft) {
		m = press(t, m, "backspace")
	}
	m = press(t, m, "Z", "e", "d", "enter")
	require.Equal(t, grid.Viewing, s.State().Mode)
	assert.Nil(t, s.State().Pending, "commit is fed back into the store")
	assert.Equal(t, "Zed", s.State().View[0].Value("name"))
	assert.Contains(t, m.View(), "unsaved edits")

	m = press(t, m, "ctrl+s")
	assert.Contains(t, m.View(), "saved")
	assert.NotContains(t, m.View(), "unsaved edits")
	require.Len(t, saved, 3)

	var names []string
	for _, r := range saved {
		names = append(names, r.Value("name").(string))
	}
	assert.Contains(t, names, "Zed")
}

func clearDraft(t *testing.T, m Model, s *grid.Store) Model {
	t.Helper()
	for range []rune(s.State().Draft) {
		m = press(t, m, "backspace")
	}
	return m
}

func TestEdit_SuccessiveEditsAllSaved(t *testing.T) {
	m, s := newModel(t, grid.WithEditable(true))

	var saved []record.Record
	m.save = func(recs []record.Record) error {
		saved = recs
		return nil
	}

	m = press(t, m, "j", "l", "enter")
	m = clearDraft(t, m, s)
	m = press(t, m, "Z", "e", "d", "enter")

	require.Equal(t, 1, s.State().Focus.Row)
	m = press(t, m, "enter")
	m = clearDraft(t, m, s)
	m = press(t, m, "Y", "a", "n", "enter")

	st := s.State()
	assert.Equal(t, "Zed", st.View[0].Value("name"))
	assert.Equal(t, "Yan", st.View[1].Value("name"))
	assert.Equal(t, sorter.Spec{Column: "id", Direction: sorter.Desc}, st.Sort)

	m = press(t, m, "ctrl+s")
	require.Len(t, saved, 3)
	var names []string
	for _, r := range saved {
		names = append(names, r.Value("name").(string))
	}
	assert.ElementsMatch(t, []string{"Alice", "Yan", "Zed"}, names)

	m = press(t, m, "ctrl+s")
	assert.Contains(t, m.View(), "no edits")
}

func TestSave_NoEdits(t *testing.T) {
	m, _ := newModel(t, grid.WithEditable(true))
	m.save = func([]record.Record) error { return nil }
	m = press(t, m, "ctrl+s")
	assert.Contains(t, m.View(), "no edits")
}

func TestHeatColor(t *testing.T) {
	assert.Equal(t, heatRamp[0], heatColor(0))
	assert.Equal(t, heatRamp[len(heatRamp)-1], heatColor(1))
	assert.Equal(t, heatRamp[len(heatRamp)-1], heatColor(3))
}

func TestEdit_ReadOnly(t *testing.T) {
	m, s := newModel(t)
	m = press(t, m, "j", "enter")
	assert.Equal(t, grid.Viewing, s.State().Mode)
	assert.Contains(t, m.View(), "read-only grid")
}

func TestSave_Disabled(t *testing.T) {
	m, _ := newModel(t)
	m = press(t, m, "ctrl+s")
	assert.Contains(t, m.View(), "saving is not enabled")
}

func TestNextDiff_NoChanges(t *testing.T) {
	m, _ := newModel(t)
	m = press(t, m, "n")
	assert.Contains(t, m.View(), "no changes")
}

func TestNextDiff_FocusesChangedRow(t *testing.T) {
	m, s := newModel(t)
	s.LoadComparisonData([]record.Record{
		record.Of("id", 1.0, "name", "Alice", "age", 25.0),
		record.Of("id", 2.0, "name", "Bob", "age", 35.0),
	})

	m = press(t, m, "n")
	st := s.State()
	require.NotNil(t, st.Focus)
	assert.Equal(t, "Carol", st.View[st.Focus.Row].Value("name"))
	assert.Contains(t, m.View(), "+1 ~0 -0 by id")
}

func TestQuit(t *testing.T) {
	m, _ := newModel(t)
	_, cmd := m.Update(keyMsg("q"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestPaintLine_ClipsUnderStickyColumn(t *testing.T) {
	plain := lipgloss.NewStyle()
	line := paintLine([]segment{
		{x: 3, width: 6, minX: 5, text: "abcdef", style: plain},
		{x: 0, width: 5, text: "id", style: plain},
	}, 20)
	assert.Equal(t, "id   cd… ", line)
}

func TestPaintLine_ClipsAtViewportEdge(t *testing.T) {
	plain := lipgloss.NewStyle()
	line := paintLine([]segment{{x: 0, width: 10, text: "abcdefghij", style: plain}}, 4)
	assert.Equal(t, "abcd", line)
}

func TestFit(t *testing.T) {
	assert.Equal(t, "ab  ", fit("ab", 4))
	assert.Equal(t, "abc…", fit("abcdef", 4))
	assert.Equal(t, "…", fit("abc", 1))
	assert.Equal(t, "", fit("abc", 0))
	assert.Equal(t, "a b ", fit("a\nb", 4))
}

func TestScrollFollowsFocus(t *testing.T) {
	s := grid.New()
	recs := make([]record.Record, 50)
	for i := range recs {
		recs[i] = record.Of("id", float64(i), "name", strings.Repeat("x", i%5+1))
	}
	s.LoadData(recs)
	s.SetSort("id", sorter.Asc)

	next, _ := New(s).Update(tea.WindowSizeMsg{Width: 80, Height: 12})
	m := press(t, next.(Model), "j", "G")
	assert.Equal(t, 49, s.State().Focus.Row)
	assert.Positive(t, m.scrollY)
	assert.Contains(t, m.View(), "49")
}
