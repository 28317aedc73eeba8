// Package tui is a terminal host for a grid store. It virtualizes the view
// through layout.Mapper, so only the cells inside the terminal are
// formatted, and drives focus, editing and filters through the store.
package tui

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rotisserie/eris"

	"github.com/sells-group/gridkit/internal/filter"
	"github.com/sells-group/gridkit/internal/grid"
	"github.com/sells-group/gridkit/internal/layout"
	"github.com/sells-group/gridkit/internal/record"
	"github.com/sells-group/gridkit/internal/sorter"
)

// SaveFunc receives the whole edited dataset on ctrl+s.
type SaveFunc func(records []record.Record) error

// Option configures a Model.
type Option func(*Model)

// WithTitle sets the title line.
func WithTitle(title string) Option { return func(m *Model) { m.title = title } }

// WithCharWidth sets how many width units of the store's column widths
// make one terminal column.
func WithCharWidth(w float64) Option {
	return func(m *Model) {
		if w > 0 {
			m.charWidth = w
		}
	}
}

// WithStickyMinWidth sets the viewport width, in store width units, below
// which no column is pinned.
func WithStickyMinWidth(w float64) Option { return func(m *Model) { m.stickyMin = w } }

// WithSave enables ctrl+s.
func WithSave(fn SaveFunc) Option { return func(m *Model) { m.save = fn } }

// WithRefreshDelay sets how long after a filter keystroke the view is
// redrawn to pick up the debounced filter.
func WithRefreshDelay(d time.Duration) Option { return func(m *Model) { m.refresh = d } }

type refreshMsg struct{}

// Model is the bubbletea model of the browse screen.
type Model struct {
	store *grid.Store
	keys  keyMap
	help  help.Model

	title     string
	charWidth float64
	stickyMin float64
	refresh   time.Duration
	save      SaveFunc

	width, height    int
	scrollX, scrollY int

	prompting  bool
	input      textinput.Model
	filterCol  string
	prevFilter *filter.Value

	dirty bool

	message string
	err     error
}

// New returns a Model over store. Committed edits are fed back into the
// store, so store must not also resupply them from an edit callback.
func New(store *grid.Store, opts ...Option) Model {
	in := textinput.New()
	in.Prompt = "filter> "
	in.CharLimit = 256

	m := Model{
		store:     store,
		keys:      defaultKeyMap(),
		help:      help.New(),
		charWidth: float64(grid.DefaultWidthOptions().CharWidth),
		stickyMin: layout.DefaultStickyWidth,
		refresh:   350 * time.Millisecond,
		input:     in,
	}
	for _, fn := range opts {
		fn(&m)
	}
	return m
}

// Run starts a full-screen program and blocks until it quits or ctx ends.
func Run(ctx context.Context, m Model) error {
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return eris.Wrap(err, "tui: run")
	}
	return nil
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd { return nil }

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		m.input.Width = max(10, msg.Width-len(m.input.Prompt)-1)
		m.follow()
		return m, nil
	case refreshMsg:
		m.follow()
		return m, nil
	case tea.KeyMsg:
		if m.prompting {
			return m.updatePrompt(msg)
		}
		if m.store.State().Mode == grid.Editing {
			return m.updateEdit(msg)
		}
		return m.updateGrid(msg)
	}
	return m, nil
}

func (m Model) updateGrid(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.message, m.err = "", nil
	k := m.keys
	switch {
	case key.Matches(msg, k.Quit):
		return m, tea.Quit
	case key.Matches(msg, k.Help):
		m.help.ShowAll = !m.help.ShowAll
	case key.Matches(msg, k.Up):
		m.store.HandleKey(grid.KeyUp)
	case key.Matches(msg, k.Down):
		m.store.HandleKey(grid.KeyDown)
	case key.Matches(msg, k.Left):
		m.store.HandleKey(grid.KeyLeft)
	case key.Matches(msg, k.Right):
		m.store.HandleKey(grid.KeyRight)
	case key.Matches(msg, k.Top):
		m.store.HandleKey(grid.KeyTop)
	case key.Matches(msg, k.Bottom):
		m.store.HandleKey(grid.KeyBottom)
	case key.Matches(msg, k.Home):
		m.store.HandleKey(grid.KeyHome)
	case key.Matches(msg, k.End):
		m.store.HandleKey(grid.KeyEnd)
	case key.Matches(msg, k.PageUp):
		m.store.MoveFocus(-max(1, m.bodyHeight()-1), 0)
	case key.Matches(msg, k.PageDown):
		m.store.MoveFocus(max(1, m.bodyHeight()-1), 0)
	case key.Matches(msg, k.Enter):
		if !m.store.HandleKey(grid.KeyEnter) && !m.store.State().Editable {
			m.message = "read-only grid"
		}
	case key.Matches(msg, k.Escape):
		m.store.HandleKey(grid.KeyEscape)
	case key.Matches(msg, k.Filter):
		return m.openPrompt()
	case key.Matches(msg, k.ClearFilters):
		m.store.ClearFilters()
	case key.Matches(msg, k.Sort):
		m.toggleSort()
	case key.Matches(msg, k.Pin):
		if col := m.focusedColumn(); col != "" {
			m.store.SetStickyColumn(col)
			m.store.Focus(grid.Position{Row: m.focusRow(), Column: 0})
		}
	case key.Matches(msg, k.NextDiff):
		if _, ok := m.store.NextDiff(1); !ok {
			m.message = "no changes"
		}
	case key.Matches(msg, k.PrevDiff):
		if _, ok := m.store.NextDiff(-1); !ok {
			m.message = "no changes"
		}
	case key.Matches(msg, k.Save):
		m.saveEdits()
	}
	m.follow()
	return m, nil
}

func (m Model) updateEdit(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	st := m.store.State()
	switch msg.Type {
	case tea.KeyCtrlC:
		return m, tea.Quit
	case tea.KeyEnter:
		if !m.store.HandleKey(grid.KeyEnter) {
			m.err = eris.New("edit rejected")
			break
		}
		if pending := m.store.State().Pending; pending != nil {
			grid.Resupply(m.store, pending)
			m.dirty = true
		}
	case tea.KeyEsc:
		m.store.HandleKey(grid.KeyEscape)
	case tea.KeyBackspace:
		r := []rune(st.Draft)
		if len(r) > 0 {
			m.store.SetDraft(string(r[:len(r)-1]))
		}
	case tea.KeySpace:
		m.store.SetDraft(st.Draft + " ")
	case tea.KeyRunes:
		m.store.SetDraft(st.Draft + string(msg.Runes))
	}
	m.follow()
	return m, nil
}

func (m Model) openPrompt() (tea.Model, tea.Cmd) {
	st := m.store.State()
	if len(st.Columns) == 0 {
		return m, nil
	}
	m.filterCol = m.focusedColumn()
	if m.filterCol == "" {
		m.filterCol = st.Columns[0]
	}
	m.prevFilter = nil
	m.input.SetValue("")
	if v, ok := st.Filters[m.filterCol]; ok {
		m.prevFilter = &v
		m.input.SetValue(v.String())
	}
	m.input.Prompt = m.filterCol + "> "
	m.prompting = true
	return m, m.input.Focus()
}

func (m Model) updatePrompt(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		m.store.FlushFilters()
		m.closePrompt()
		return m, nil
	case tea.KeyEsc:
		m.store.DebounceFilter(m.filterCol, m.prevFilter)
		m.store.FlushFilters()
		m.closePrompt()
		return m, nil
	case tea.KeyCtrlC:
		return m, tea.Quit
	}

	var cmd tea.Cmd
	before := m.input.Value()
	m.input, cmd = m.input.Update(msg)
	if m.input.Value() == before {
		return m, cmd
	}
	v := filter.ParseValue(m.input.Value())
	m.store.DebounceFilter(m.filterCol, &v)
	return m, tea.Batch(cmd, tea.Tick(m.refresh, func(time.Time) tea.Msg { return refreshMsg{} }))
}

func (m *Model) closePrompt() {
	m.prompting = false
	m.input.Blur()
	m.follow()
}

func (m *Model) toggleSort() {
	col := m.focusedColumn()
	if col == "" {
		return
	}
	st := m.store.State()
	var dir sorter.Direction
	if st.Sort.Column == col {
		dir = sorter.Asc
		if st.Sort.Direction == sorter.Asc {
			dir = sorter.Desc
		}
	}
	m.store.SetSort(col, dir)
}

func (m *Model) saveEdits() {
	if m.save == nil {
		m.message = "saving is not enabled"
		return
	}
	if !m.dirty {
		m.message = "no edits"
		return
	}
	if err := m.save(m.store.State().Data); err != nil {
		m.err = err
		return
	}
	m.dirty = false
	m.message = "saved"
}

func (m Model) focusedColumn() string {
	st := m.store.State()
	if st.Focus == nil || st.Focus.Column >= len(st.Columns) {
		return ""
	}
	return st.Columns[st.Focus.Column]
}

func (m Model) focusRow() int {
	if f := m.store.State().Focus; f != nil {
		return f.Row
	}
	return 0
}

// follow scrolls the minimum needed to keep the focused cell visible.
func (m *Model) follow() {
	st := m.store.State()
	if m.width == 0 {
		return
	}
	mp := m.mapper(st)
	if st.Focus != nil {
		c := layout.Cell{Row: st.Focus.Row + 1, Column: st.Focus.Column}
		sx, sy := mp.ScrollTo(float64(m.scrollX), float64(m.scrollY), float64(m.width), float64(m.bodyHeight()), c)
		m.scrollX, m.scrollY = int(sx), int(sy)
	}
	w, h := mp.ContentSize()
	m.scrollX = max(0, min(m.scrollX, int(w)-m.width))
	m.scrollY = max(0, min(m.scrollY, int(h)-m.bodyHeight()))
}
