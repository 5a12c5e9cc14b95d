package ui

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Dicklesworthstone/course_block_viewer/pkg/model"
	"github.com/Dicklesworthstone/course_block_viewer/pkg/store"
)

// keyMsg creates a tea.KeyMsg for testing
func keyMsg(key string) tea.KeyMsg {
	switch key {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	case "backspace":
		return tea.KeyMsg{Type: tea.KeyBackspace}
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
}

type fakeSource struct {
	mu     sync.Mutex
	calls  int
	result *model.FlatBlockMap
	err    error
}

func (f *fakeSource) FetchBlocks(ctx context.Context, courseID string, exclude []string) (*model.FlatBlockMap, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.result, f.err
}

func courseBlocks() *model.FlatBlockMap {
	return &model.FlatBlockMap{
		Root: "course",
		Blocks: map[string]model.BlockRecord{
			"course": {ID: "course", Type: "course", DisplayName: "Demo Course", Children: []string{"ch1", "ch2"}},
			"ch1":    {ID: "ch1", Type: "chapter", DisplayName: "Introduction", Children: []string{"seq1"}},
			"ch2":    {ID: "ch2", Type: "chapter", DisplayName: "Wrap Up"},
			"seq1":   {ID: "seq1", Type: "sequential", DisplayName: "Getting Started", Children: []string{"v1"}},
			"v1":     {ID: "v1", Type: "vertical", DisplayName: "Welcome", Children: []string{"p1", "p2"}},
			"p1":     {ID: "p1", Type: "problem", DisplayName: "Check In"},
			"p2":     {ID: "p2", Type: "problem", DisplayName: "Exit Ticket"},
		},
	}
}

func plainTheme() Theme {
	return DefaultTheme(lipgloss.NewRenderer(io.Discard))
}

// update applies msg and runs every resulting command synchronously,
// feeding fetch results back into the model.
func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, cmd := m.Update(msg)
	m = next.(Model)
	for _, out := range runCmd(cmd) {
		switch out.(type) {
		case blocksFetchedMsg, openMsg:
			m = update(t, m, out)
		}
	}
	return m
}

func runCmd(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, runCmd(c)...)
		}
		return out
	}
	return []tea.Msg{msg}
}

func newTestModel(src BlockSource, onSelect func(string)) Model {
	return NewModel(Options{
		CourseID:  "course-v1:Demo",
		Source:    src,
		OnSelect:  onSelect,
		Theme:     plainTheme(),
		Clipboard: func(string) error { return nil },
	})
}

func TestBrowser_OpenLoadsBlocks(t *testing.T) {
	src := &fakeSource{result: courseBlocks()}
	m := newTestModel(src, nil)

	if m.State() != StateClosed {
		t.Fatalf("initial state = %v", m.State())
	}

	next, cmd := m.Update(keyMsg("enter"))
	m = next.(Model)
	if m.State() != StateLoading {
		t.Fatalf("after enter state = %v, want loading", m.State())
	}
	if !strings.Contains(m.View(), "Loading") {
		t.Errorf("loading view missing indicator: %q", m.View())
	}

	for _, out := range runCmd(cmd) {
		if _, ok := out.(blocksFetchedMsg); ok {
			m = update(t, m, out)
		}
	}
	if m.State() != StateOpen {
		t.Fatalf("after fetch state = %v, want open", m.State())
	}
	if src.calls != 1 {
		t.Errorf("fetch calls = %d", src.calls)
	}

	view := m.View()
	for _, want := range []string{"Demo Course", "Introduction", "Wrap Up"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
}

func TestBrowser_DrillInAndOut(t *testing.T) {
	m := update(t, newTestModel(&fakeSource{result: courseBlocks()}, nil), keyMsg("enter"))

	m = update(t, m, keyMsg("l"))
	if got := m.Store().State().RootBlock; got != "ch1" {
		t.Fatalf("after drill in root = %q, want ch1", got)
	}
	if !strings.Contains(m.View(), "Getting Started") {
		t.Errorf("drilled view missing child:\n%s", m.View())
	}

	// ch2 has no children; drilling is a no-op
	m = update(t, m, keyMsg("h"))
	m = update(t, m, keyMsg("j"))
	m = update(t, m, keyMsg("right"))
	if got := m.Store().State().RootBlock; got != "course" {
		t.Errorf("drill into leaf changed root to %q", got)
	}

	m = update(t, m, keyMsg("left"))
	if got := m.Store().State().RootBlock; got != "course" {
		t.Errorf("drill out at root changed root to %q", got)
	}
}

func TestBrowser_SelectClosesAndNotifies(t *testing.T) {
	var picked []string
	m := update(t, newTestModel(&fakeSource{result: courseBlocks()}, func(id string) {
		picked = append(picked, id)
	}), keyMsg("enter"))

	m = update(t, m, keyMsg("j"))
	m = update(t, m, keyMsg(" "))

	if m.State() != StateClosed {
		t.Errorf("state after select = %v", m.State())
	}
	if len(picked) != 1 || picked[0] != "ch2" {
		t.Errorf("OnSelect calls = %v", picked)
	}
	if got := m.Store().State().SelectedBlock; got != "ch2" {
		t.Errorf("SelectedBlock = %q", got)
	}
	if !strings.Contains(m.View(), "Wrap Up") {
		t.Errorf("closed view does not show selection:\n%s", m.View())
	}
}

func TestBrowser_SelectCurrentSubtree(t *testing.T) {
	var picked string
	m := update(t, newTestModel(&fakeSource{result: courseBlocks()}, func(id string) { picked = id }), keyMsg("enter"))
	m = update(t, m, keyMsg("l"))
	m = update(t, m, keyMsg("s"))
	if picked != "ch1" {
		t.Errorf("picked = %q, want ch1", picked)
	}
}

func TestBrowser_QuitOnSelect(t *testing.T) {
	m := NewModel(Options{
		Source:       &fakeSource{result: courseBlocks()},
		QuitOnSelect: true,
		Theme:        plainTheme(),
	})
	m = update(t, m, keyMsg("enter"))
	_, cmd := m.Update(keyMsg("enter"))
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("select did not quit")
	}
}

func TestBrowser_FetchFailure(t *testing.T) {
	src := &fakeSource{err: errors.New("connection refused")}
	m := update(t, newTestModel(src, nil), keyMsg("enter"))

	if m.State() != StateFailed {
		t.Fatalf("state = %v, want failed", m.State())
	}
	if m.Store().State().Loaded() {
		t.Error("failed fetch modified store")
	}
	if !strings.Contains(m.View(), "connection refused") {
		t.Errorf("failed view missing error:\n%s", m.View())
	}

	src.err = nil
	src.result = courseBlocks()
	m = update(t, m, keyMsg("r"))
	if m.State() != StateOpen {
		t.Errorf("retry state = %v", m.State())
	}
}

func TestBrowser_StaleResponseDropped(t *testing.T) {
	src := &fakeSource{result: courseBlocks()}
	m := newTestModel(src, nil)

	next, firstCmd := m.Update(keyMsg("enter"))
	m = next.(Model)
	m = update(t, m, keyMsg("esc"))
	if m.State() != StateClosed {
		t.Fatalf("esc during loading state = %v", m.State())
	}

	// the first fetch resolves after the panel was closed
	for _, out := range runCmd(firstCmd) {
		if _, ok := out.(blocksFetchedMsg); ok {
			m = update(t, m, out)
		}
	}
	if m.State() != StateClosed {
		t.Errorf("stale response changed state to %v", m.State())
	}
	if m.Store().State().Loaded() {
		t.Error("stale response loaded blocks")
	}
}

func TestBrowser_FuzzyFilter(t *testing.T) {
	m := update(t, newTestModel(&fakeSource{result: courseBlocks()}, nil), keyMsg("enter"))

	m = update(t, m, keyMsg("/"))
	for _, r := range "wrp" {
		m = update(t, m, keyMsg(string(r)))
	}
	rows := m.visibleRows()
	if len(rows) != 1 || rows[0].ID != "ch2" {
		t.Fatalf("filtered rows = %v", rowIDs(rows))
	}

	m = update(t, m, keyMsg("enter")) // accept filter
	m = update(t, m, keyMsg("enter")) // select
	if got := m.Store().State().SelectedBlock; got != "ch2" {
		t.Errorf("SelectedBlock = %q", got)
	}
}

func TestBrowser_FilterEscClears(t *testing.T) {
	m := update(t, newTestModel(&fakeSource{result: courseBlocks()}, nil), keyMsg("enter"))
	m = update(t, m, keyMsg("/"))
	m = update(t, m, keyMsg("z"))
	m = update(t, m, keyMsg("esc"))
	if len(m.visibleRows()) != 2 {
		t.Errorf("rows after clearing filter = %v", rowIDs(m.visibleRows()))
	}
	if m.State() != StateOpen {
		t.Errorf("esc in filter closed the browser")
	}
}

func TestBrowser_CopyID(t *testing.T) {
	var copied string
	m := NewModel(Options{
		Source:    &fakeSource{result: courseBlocks()},
		Theme:     plainTheme(),
		Clipboard: func(s string) error { copied = s; return nil },
	})
	m = update(t, m, keyMsg("enter"))
	m = update(t, m, keyMsg("y"))
	if copied != "ch1" {
		t.Errorf("copied = %q", copied)
	}
	if !strings.Contains(m.View(), "copied ch1") {
		t.Errorf("status missing copy confirmation")
	}
}

func TestBrowser_ReloadKeepsPosition(t *testing.T) {
	src := &fakeSource{result: courseBlocks()}
	m := update(t, newTestModel(src, nil), keyMsg("enter"))
	m = update(t, m, keyMsg("l"))

	m = update(t, m, ReloadMsg{})
	if src.calls != 2 {
		t.Errorf("fetch calls = %d, want 2", src.calls)
	}
	if m.State() != StateOpen {
		t.Errorf("state after reload = %v", m.State())
	}
	if got := m.Store().State().RootBlock; got != "ch1" {
		t.Errorf("root after reload = %q, want ch1", got)
	}
}

func TestBrowser_StaleRootMessage(t *testing.T) {
	m := update(t, newTestModel(&fakeSource{result: courseBlocks()}, nil), keyMsg("enter"))
	m.Store().Dispatch(store.RootChanged{BlockID: "gone"})
	if !strings.Contains(m.View(), `Block "gone" not found`) {
		t.Errorf("stale root view:\n%s", m.View())
	}
	m = update(t, m, keyMsg("~"))
	if got := m.Store().State().RootBlock; got != "course" {
		t.Errorf("~ root = %q", got)
	}
}

func TestBrowser_HelpOverlay(t *testing.T) {
	m := update(t, newTestModel(&fakeSource{result: courseBlocks()}, nil), keyMsg("enter"))
	m = update(t, m, keyMsg("?"))
	if !strings.Contains(m.View(), "Press any key to close") {
		t.Errorf("help not shown")
	}
	m = update(t, m, keyMsg("j"))
	if m.help.IsVisible() {
		t.Error("help still visible after key")
	}
	if m.cursor != 0 {
		t.Error("key closing help also moved cursor")
	}
}

func TestBrowser_NoSource(t *testing.T) {
	m := update(t, NewModel(Options{Theme: plainTheme()}), keyMsg("enter"))
	if m.State() != StateFailed || m.Err() == nil {
		t.Errorf("state = %v err = %v", m.State(), m.Err())
	}
}

func TestBrowser_OpenOnStart(t *testing.T) {
	m := NewModel(Options{Source: &fakeSource{result: courseBlocks()}, OpenOnStart: true, Theme: plainTheme()})
	for _, out := range runCmd(m.Init()) {
		m = update(t, m, out)
	}
	if m.State() != StateOpen {
		t.Errorf("state = %v", m.State())
	}
}

func rowIDs(rows []*model.BlockTreeNode) []string {
	ids := make([]string, len(rows))
	for i, r := range rows {
		ids[i] = r.ID
	}
	return ids
}

func TestBrowser_StatsPanel(t *testing.T) {
	m := update(t, newTestModel(&fakeSource{result: courseBlocks()}, nil), keyMsg("enter"))
	m = update(t, m, keyMsg("i"))
	view := m.View()
	for _, want := range []string{"COURSE: Demo Course", "Problem:", "Depth 4"} {
		if !strings.Contains(view, want) {
			t.Errorf("stats panel missing %q:\n%s", want, view)
		}
	}
	m = update(t, m, keyMsg("i"))
	if strings.Contains(m.View(), "Depth 4") {
		t.Error("stats panel still shown after toggle")
	}
}

func TestBrowser_ReopenRefetches(t *testing.T) {
	src := &fakeSource{result: courseBlocks()}
	var picked string
	m := update(t, newTestModel(src, func(id string) { picked = id }), keyMsg("enter"))

	m = update(t, m, keyMsg("l"))
	m = update(t, m, keyMsg("enter"))
	if picked != "seq1" || m.State() != StateClosed {
		t.Fatalf("picked %q, state %v", picked, m.State())
	}
	if got := m.Store().State().RootBlock; got != "ch1" {
		t.Fatalf("root before reopen = %q, want ch1", got)
	}

	m = update(t, m, keyMsg("enter"))
	if src.calls != 2 {
		t.Errorf("fetch calls = %d, want 2", src.calls)
	}
	if m.State() != StateOpen {
		t.Fatalf("state after reopen = %v", m.State())
	}
	state := m.Store().State()
	if state.RootBlock != "course" {
		t.Errorf("RootBlock = %q, want payload root", state.RootBlock)
	}
	if state.SelectedBlock != "seq1" {
		t.Errorf("SelectedBlock = %q, want seq1 kept", state.SelectedBlock)
	}
}

func TestRenderBlockList(t *testing.T) {
	leaf := &model.BlockTreeNode{ID: "ch2", Type: model.TypeChapter, DisplayName: "Wrap Up", Parent: "course"}
	seq := &model.BlockTreeNode{ID: "seq1", Type: model.TypeSequential, DisplayName: "Getting Started", Parent: "ch1"}
	branch := &model.BlockTreeNode{ID: "ch1", Type: model.TypeChapter, DisplayName: "Introduction", Parent: "course",
		Children: []*model.BlockTreeNode{seq}}
	root := &model.BlockTreeNode{ID: "course", Type: model.TypeCourse, DisplayName: "Demo Course",
		Children: []*model.BlockTreeNode{branch, leaf}}

	rowLine := func(out, name string) string {
		for _, line := range strings.Split(out, "\n") {
			if strings.Contains(line, name) {
				return strings.TrimRight(line, " ")
			}
		}
		return ""
	}

	tests := []struct {
		name       string
		selected   string
		row        string
		wantMark   bool
		wantDrill  bool
		headerMark bool
	}{
		{name: "branch selected", selected: "ch1", row: "Introduction", wantMark: true, wantDrill: true},
		{name: "branch unselected", selected: "ch2", row: "Introduction", wantDrill: true},
		{name: "leaf selected", selected: "ch2", row: "Wrap Up", wantMark: true},
		{name: "leaf unselected", selected: "", row: "Wrap Up"},
		{name: "subtree itself selected", selected: "course", row: "Introduction", wantDrill: true, headerMark: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := RenderBlockList(BlockListView{
				Subtree:  root,
				Rows:     root.Children,
				Selected: tt.selected,
				Cursor:   -1,
				Width:    60,
			}, plainTheme())

			line := rowLine(out, tt.row)
			if line == "" {
				t.Fatalf("no row for %q:\n%s", tt.row, out)
			}
			if got := strings.Contains(line, "✓"); got != tt.wantMark {
				t.Errorf("selected mark = %v, want %v: %q", got, tt.wantMark, line)
			}
			if got := strings.HasSuffix(line, "›"); got != tt.wantDrill {
				t.Errorf("drill control = %v, want %v: %q", got, tt.wantDrill, line)
			}
			header := strings.Split(out, "\n")[0]
			if got := strings.Contains(header, "✓"); got != tt.headerMark {
				t.Errorf("header mark = %v, want %v: %q", got, tt.headerMark, header)
			}
		})
	}

	if out := RenderBlockList(BlockListView{Subtree: leaf, Width: 60}, plainTheme()); !strings.Contains(out, "No child blocks") {
		t.Errorf("empty subtree view:\n%s", out)
	}
	if RenderBlockList(BlockListView{}, plainTheme()) != "" {
		t.Error("nil subtree should render nothing")
	}
}
