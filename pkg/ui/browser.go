package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"
	"go.uber.org/zap"

	"github.com/Dicklesworthstone/course_block_viewer/pkg/analysis"
	"github.com/Dicklesworthstone/course_block_viewer/pkg/model"
	"github.com/Dicklesworthstone/course_block_viewer/pkg/store"
)

// DropdownState is the lifecycle of the browser panel
type DropdownState int

const (
	StateClosed DropdownState = iota
	StateLoading
	StateOpen
	StateFailed
)

func (s DropdownState) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateLoading:
		return "loading"
	case StateOpen:
		return "open"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

const defaultFetchTimeout = 30 * time.Second

// Options configures a browser Model.
type Options struct {
	CourseID string
	Exclude  []string
	Source   BlockSource
	Store    *store.Store

	// OnSelect is invoked with the block id chosen by the user.
	OnSelect func(blockID string)

	// OpenOnStart issues the first fetch from Init.
	OpenOnStart bool
	// QuitOnSelect ends the program once a block is chosen.
	QuitOnSelect bool

	Timeout   time.Duration
	Logger    *zap.Logger
	Theme     Theme
	Clipboard func(string) error
}

// Model is the bubbletea model for the block browser.
type Model struct {
	opts  Options
	store *store.Store
	theme Theme
	log   *zap.Logger

	state    DropdownState
	fetchSeq uint64
	err      error

	cursor    int
	filtering bool
	filter    textinput.Model
	spinner   spinner.Model
	help      HelpOverlayModel

	stats     *analysis.TreeStats
	status    string
	showStats bool

	width  int
	height int
}

// NewModel builds a browser in the Closed state.
func NewModel(opts Options) Model {
	if opts.Store == nil {
		opts.Store = store.New()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultFetchTimeout
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Theme.Renderer == nil {
		opts.Theme = DefaultTheme(nil)
	}
	if opts.Clipboard == nil {
		opts.Clipboard = clipboard.WriteAll
	}

	ti := textinput.New()
	ti.Prompt = "/ "
	ti.Placeholder = "filter blocks"
	ti.CharLimit = 64

	sp := spinner.New(spinner.WithSpinner(spinner.Dot))
	sp.Style = opts.Theme.Renderer.NewStyle().Foreground(opts.Theme.Primary)

	return Model{
		opts:    opts,
		store:   opts.Store,
		theme:   opts.Theme,
		log:     opts.Logger,
		filter:  ti,
		spinner: sp,
		help:    NewHelpOverlayModel(opts.Theme),
		width:   80,
		height:  24,
	}
}

// State reports the dropdown state.
func (m Model) State() DropdownState { return m.state }

// Err returns the last fetch error while in the Failed state.
func (m Model) Err() error { return m.err }

// Store exposes the underlying navigation store.
func (m Model) Store() *store.Store { return m.store }

func (m Model) Init() tea.Cmd {
	if m.opts.OpenOnStart {
		return func() tea.Msg { return openMsg{} }
	}
	return nil
}

type openMsg struct{}

// open starts a fresh fetch. Responses from earlier opens are ignored.
func (m Model) open() (Model, tea.Cmd) {
	if m.opts.Source == nil {
		m.state = StateFailed
		m.err = fmt.Errorf("no block source configured")
		return m, nil
	}
	m.fetchSeq++
	m.state = StateLoading
	m.err = nil
	m.resetFilter()
	m.log.Debug("fetching course blocks",
		zap.String("course_id", m.opts.CourseID),
		zap.Uint64("seq", m.fetchSeq))
	return m, tea.Batch(
		m.spinner.Tick,
		fetchBlocksCmd(m.opts.Source, m.opts.CourseID, m.opts.Exclude, m.opts.Timeout, m.fetchSeq),
	)
}

// reload refetches without leaving the Open state.
func (m Model) reload() (Model, tea.Cmd) {
	if m.opts.Source == nil {
		return m, nil
	}
	m.fetchSeq++
	return m, fetchBlocksCmd(m.opts.Source, m.opts.CourseID, m.opts.Exclude, m.opts.Timeout, m.fetchSeq)
}

func (m Model) close() Model {
	// bump so an in-flight fetch cannot reopen the panel
	m.fetchSeq++
	m.state = StateClosed
	m.resetFilter()
	return m
}

func (m *Model) resetFilter() {
	m.filtering = false
	m.filter.SetValue("")
	m.filter.Blur()
	m.cursor = 0
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.SetSize(msg.Width, msg.Height)
		return m, nil

	case openMsg:
		return m.open()

	case ReloadMsg:
		switch m.state {
		case StateOpen:
			return m.reload()
		case StateFailed:
			return m.open()
		}
		return m, nil

	case spinner.TickMsg:
		if m.state != StateLoading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case blocksFetchedMsg:
		return m.handleFetched(msg), nil

	case tea.KeyMsg:
		if m.help.IsVisible() {
			var cmd tea.Cmd
			m.help, cmd = m.help.Update(msg)
			return m, cmd
		}
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleFetched(msg blocksFetchedMsg) Model {
	if msg.seq != m.fetchSeq {
		m.log.Debug("dropping superseded block response",
			zap.Uint64("seq", msg.seq),
			zap.Uint64("current", m.fetchSeq))
		return m
	}
	if msg.err != nil {
		m.log.Error("failed to fetch course blocks",
			zap.String("course_id", m.opts.CourseID),
			zap.Error(msg.err))
		if m.state == StateLoading {
			m.state = StateFailed
			m.err = msg.err
		} else {
			m.status = "reload failed: " + msg.err.Error()
		}
		return m
	}

	prev := m.store.State()
	m.store.Dispatch(store.BlocksLoaded{Payload: msg.payload})

	// keep the user's place across a reload when the block still exists
	if m.state == StateOpen && prev.RootBlock != "" {
		if _, ok := m.store.State().Index[prev.RootBlock]; ok {
			m.store.Dispatch(store.RootChanged{BlockID: prev.RootBlock})
		}
	}

	if m.state == StateLoading {
		m.state = StateOpen
		m.cursor = 0
	}
	m.clampCursor()

	state := m.store.State()
	if state.Blocks != nil {
		stats := analysis.Compute(state.Blocks)
		m.stats = &stats
	} else {
		m.stats = nil
	}
	m.log.Info("course blocks loaded",
		zap.String("course_id", m.opts.CourseID),
		zap.Int("blocks", len(state.Index)))
	return m
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if key == "ctrl+c" {
		return m, tea.Quit
	}

	switch m.state {
	case StateClosed:
		switch key {
		case "enter", " ", "o":
			return m.open()
		case "q", "esc":
			return m, tea.Quit
		}
		return m, nil

	case StateLoading:
		switch key {
		case "esc":
			return m.close(), nil
		case "q":
			return m, tea.Quit
		}
		return m, nil

	case StateFailed:
		switch key {
		case "r", "enter":
			return m.open()
		case "esc":
			return m.close(), nil
		case "q":
			return m, tea.Quit
		}
		return m, nil
	}

	if m.filtering {
		return m.handleFilterKey(msg)
	}
	return m.handleOpenKey(key)
}

func (m Model) handleFilterKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.resetFilter()
		return m, nil
	case "enter":
		m.filtering = false
		m.filter.Blur()
		return m, nil
	case "up":
		m.moveCursor(-1)
		return m, nil
	case "down":
		m.moveCursor(1)
		return m, nil
	}
	var cmd tea.Cmd
	m.filter, cmd = m.filter.Update(msg)
	m.cursor = 0
	return m, cmd
}

func (m Model) handleOpenKey(key string) (tea.Model, tea.Cmd) {
	m.status = ""
	switch key {
	case "j", "down":
		m.moveCursor(1)
	case "k", "up":
		m.moveCursor(-1)
	case "g", "home":
		m.cursor = 0
	case "G", "end":
		m.cursor = len(m.visibleRows()) - 1
		m.clampCursor()
	case "enter", " ":
		if n := m.cursorNode(); n != nil {
			return m.selectBlock(n.ID)
		}
	case "s":
		if sub := store.ActiveBlockTree(m.store.State()); sub != nil {
			return m.selectBlock(sub.ID)
		}
	case "l", "right":
		if n := m.cursorNode(); n != nil && n.HasChildren() {
			m.changeRoot(n.ID)
		}
	case "h", "left", "backspace":
		if sub := store.ActiveBlockTree(m.store.State()); sub != nil && sub.HasParent() {
			m.changeRoot(sub.Parent)
		}
	case "~":
		if root := m.store.State().Blocks; root != nil {
			m.changeRoot(root.ID)
		}
	case "/":
		m.filtering = true
		cmd := m.filter.Focus()
		return m, cmd
	case "y":
		m.copyCursorID()
	case "?":
		m.help.Toggle()
	case "i":
		m.showStats = !m.showStats
	case "r":
		return m.reload()
	case "esc":
		return m.close(), nil
	case "q":
		return m, tea.Quit
	}
	return m, nil
}

func (m *Model) changeRoot(id string) {
	m.store.Dispatch(store.RootChanged{BlockID: id})
	m.resetFilter()
}

func (m Model) selectBlock(id string) (tea.Model, tea.Cmd) {
	m.store.Dispatch(store.SelectionChanged{BlockID: id})
	if m.opts.OnSelect != nil {
		m.opts.OnSelect(id)
	}
	m = m.close()
	if m.opts.QuitOnSelect {
		return m, tea.Quit
	}
	return m, nil
}

func (m *Model) copyCursorID() {
	n := m.cursorNode()
	if n == nil {
		return
	}
	if err := m.opts.Clipboard(n.ID); err != nil {
		m.log.Warn("clipboard copy failed", zap.Error(err))
		m.status = "copy failed: " + err.Error()
		return
	}
	m.status = "copied " + n.ID
}

// visibleRows returns the children of the active subtree, fuzzy-filtered
// and ranked when a filter is set.
func (m Model) visibleRows() []*model.BlockTreeNode {
	sub := store.ActiveBlockTree(m.store.State())
	if sub == nil {
		return nil
	}
	query := strings.TrimSpace(m.filter.Value())
	if query == "" {
		return sub.Children
	}

	names := make([]string, len(sub.Children))
	for i, c := range sub.Children {
		names[i] = c.Title()
	}
	matches := fuzzy.Find(query, names)
	rows := make([]*model.BlockTreeNode, 0, len(matches))
	for _, match := range matches {
		rows = append(rows, sub.Children[match.Index])
	}
	return rows
}

func (m Model) cursorNode() *model.BlockTreeNode {
	rows := m.visibleRows()
	if m.cursor < 0 || m.cursor >= len(rows) {
		return nil
	}
	return rows[m.cursor]
}

func (m *Model) moveCursor(delta int) {
	m.cursor += delta
	m.clampCursor()
}

func (m *Model) clampCursor() {
	n := len(m.visibleRows())
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// VIEW
// ══════════════════════════════════════════════════════════════════════════════

func (m Model) View() string {
	if m.help.IsVisible() {
		return m.help.View()
	}

	switch m.state {
	case StateClosed:
		return m.viewClosed()
	case StateLoading:
		return m.spinner.View() + " Loading course blocks…"
	case StateFailed:
		return m.viewFailed()
	}
	return m.viewOpen()
}

func (m Model) viewClosed() string {
	t := m.theme
	trigger := t.Renderer.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.Primary).
		Padding(0, 1).
		Render("▾ Select a block")

	selected := "Nothing selected"
	state := m.store.State()
	if n := store.SelectedNode(state); n != nil {
		selected = fmt.Sprintf("Selected: %s %s", n.Title(), t.Renderer.NewStyle().Foreground(t.Subtext).Render("("+n.ID+")"))
	} else if state.SelectedBlock != "" {
		selected = "Selected: " + state.SelectedBlock
	}

	hint := t.Renderer.NewStyle().Faint(true).Render("enter open · q quit")
	return lipgloss.JoinVertical(lipgloss.Left, trigger, selected, hint)
}

func (m Model) viewFailed() string {
	t := m.theme
	title := t.Renderer.NewStyle().Foreground(t.Danger).Bold(true).Render("Could not load course blocks")
	detail := ""
	if m.err != nil {
		detail = t.Renderer.NewStyle().Foreground(t.Subtext).Render(m.err.Error())
	}
	hint := t.Renderer.NewStyle().Faint(true).Render("r retry · esc close · q quit")
	return lipgloss.JoinVertical(lipgloss.Left, title, detail, "", hint)
}

func (m Model) viewOpen() string {
	t := m.theme
	state := m.store.State()
	sub := store.ActiveBlockTree(state)

	var body string
	switch {
	case !state.Loaded():
		body = t.Renderer.NewStyle().Foreground(t.Subtext).Italic(true).Render("This course has no blocks")
	case sub == nil:
		body = lipgloss.JoinVertical(lipgloss.Left,
			t.Renderer.NewStyle().Foreground(t.Danger).Render(fmt.Sprintf("Block %q not found", state.RootBlock)),
			t.Renderer.NewStyle().Faint(true).Render("~ back to course root"))
	default:
		body = RenderBlockList(BlockListView{
			Subtree:     sub,
			Rows:        m.visibleRows(),
			Breadcrumbs: store.Breadcrumbs(state),
			Selected:    state.SelectedBlock,
			Cursor:      m.cursor,
			Filter:      m.filter.Value(),
			Width:       m.width,
			MaxRows:     m.listHeight(),
		}, t)
	}

	parts := []string{body}
	if m.showStats && sub != nil {
		parts = append(parts, "", RenderStatsPanel(sub, m.width, t))
	}
	if m.filtering || m.filter.Value() != "" {
		parts = append(parts, m.filter.View())
	}
	parts = append(parts, m.viewStatusBar())
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m Model) listHeight() int {
	// header, breadcrumbs, divider, scroll hint, filter, status bar
	h := m.height - 6
	if h < 3 {
		h = 3
	}
	return h
}

func (m Model) viewStatusBar() string {
	t := m.theme
	left := ""
	if m.stats != nil {
		left = m.stats.Summary()
	}
	if m.status != "" {
		left = m.status
	}
	right := "? help"
	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	return t.Renderer.NewStyle().Foreground(t.Subtext).Render(left + strings.Repeat(" ", gap) + right)
}
