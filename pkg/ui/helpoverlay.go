package ui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
)

// helpMarkdown is rendered through glamour when the overlay opens
const helpMarkdown = `# Block Browser

## Navigation

| Key | Action |
|-----|--------|
| j / ↓ | Move down |
| k / ↑ | Move up |
| g / G | Top / bottom |
| l / → | Drill into block |
| h / ← / backspace | Back to parent |
| ~ | Jump to course root |

## Actions

| Key | Action |
|-----|--------|
| enter / space | Select block under cursor |
| s | Select the block being viewed |
| / | Fuzzy filter children |
| y | Copy block id |
| i | Subtree statistics |
| r | Reload blocks |
| esc | Close browser |
| q | Quit |
`

// HelpOverlayModel shows keyboard shortcuts help
type HelpOverlayModel struct {
	visible  bool
	width    int
	height   int
	theme    Theme
	rendered string
}

// NewHelpOverlayModel creates a new help overlay
func NewHelpOverlayModel(theme Theme) HelpOverlayModel {
	return HelpOverlayModel{
		theme: theme,
	}
}

// Show makes the help overlay visible
func (m *HelpOverlayModel) Show() {
	m.visible = true
	if m.rendered == "" {
		m.rendered = renderHelpMarkdown(m.width)
	}
}

// Hide makes the help overlay invisible
func (m *HelpOverlayModel) Hide() {
	m.visible = false
}

// Toggle toggles visibility
func (m *HelpOverlayModel) Toggle() {
	if m.visible {
		m.Hide()
	} else {
		m.Show()
	}
}

// IsVisible returns true if overlay is showing
func (m HelpOverlayModel) IsVisible() bool {
	return m.visible
}

// SetSize sets dimensions
func (m *HelpOverlayModel) SetSize(width, height int) {
	if width != m.width {
		m.rendered = ""
	}
	m.width = width
	m.height = height
}

// Update handles input
func (m HelpOverlayModel) Update(msg tea.Msg) (HelpOverlayModel, tea.Cmd) {
	if !m.visible {
		return m, nil
	}

	switch msg.(type) {
	case tea.KeyMsg:
		// Any key closes help
		m.visible = false
	}

	return m, nil
}

// View renders the help overlay
func (m HelpOverlayModel) View() string {
	if !m.visible {
		return ""
	}

	body := m.rendered
	if body == "" {
		body = renderHelpMarkdown(m.width)
	}

	var b strings.Builder
	b.WriteString(strings.TrimRight(body, "\n"))
	b.WriteString("\n\n")
	hintStyle := m.theme.Renderer.NewStyle().Faint(true).Italic(true)
	b.WriteString(hintStyle.Render("[Press any key to close]"))

	boxStyle := m.theme.Renderer.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(m.theme.Secondary).
		Padding(0, 1)

	return boxStyle.Render(b.String())
}

// renderHelpMarkdown falls back to the raw markdown if glamour fails
func renderHelpMarkdown(width int) string {
	wrap := width - 6
	if wrap < 40 {
		wrap = 40
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dark"),
		glamour.WithWordWrap(wrap),
	)
	if err != nil {
		return helpMarkdown
	}
	out, err := r.Render(helpMarkdown)
	if err != nil {
		return helpMarkdown
	}
	return out
}
