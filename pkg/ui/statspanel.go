package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/Dicklesworthstone/course_block_viewer/pkg/analysis"
	"github.com/Dicklesworthstone/course_block_viewer/pkg/model"
)

const (
	statsPanelPadding = 2
	minStatsBoxWidth  = 24
	miniBarWidth      = 10
)

// RenderStatsHeaderBox renders the boxed title line of the stats panel.
func RenderStatsHeaderBox(title, typeLabel string, width int, theme Theme, color lipgloss.TerminalColor) []string {
	headerStyle := theme.Renderer.NewStyle().Bold(true).Foreground(color)

	boxWidth := width - statsPanelPadding
	if boxWidth < minStatsBoxWidth {
		boxWidth = minStatsBoxWidth
	}

	contentWidth := boxWidth - 4 // "║ " and " ║"
	content := runewidth.Truncate(typeLabel+" "+title, contentWidth, "…")
	content = runewidth.FillRight(content, contentWidth)

	return []string{
		headerStyle.Render("╔" + strings.Repeat("═", boxWidth-2) + "╗"),
		headerStyle.Render("║ " + content + " ║"),
		headerStyle.Render("╚" + strings.Repeat("═", boxWidth-2) + "╝"),
	}
}

// RenderMiniBar draws a fixed-width bar filled to fraction (0..1).
func RenderMiniBar(fraction float64, width int, theme Theme) string {
	if fraction < 0 {
		fraction = 0
	}
	if fraction > 1 {
		fraction = 1
	}
	filled := int(fraction*float64(width) + 0.5)
	bar := theme.Renderer.NewStyle().Foreground(theme.Primary).Render(strings.Repeat("█", filled))
	rest := theme.Renderer.NewStyle().Foreground(theme.Highlight).Render(strings.Repeat("░", width-filled))
	return bar + rest
}

// RenderTypeBars lists how many blocks of each type sit under a subtree.
func RenderTypeBars(s analysis.TreeStats, theme Theme) []string {
	total := s.Total
	if total == 0 {
		total = 1
	}
	var lines []string
	for _, bt := range model.NavigableTypes {
		n := s.ByType[bt]
		if n == 0 {
			continue
		}
		dot := theme.Renderer.NewStyle().Foreground(theme.TypeColor(bt)).Render("●")
		lines = append(lines, fmt.Sprintf("   %s %-12s %3d %s",
			dot, bt.Label()+":", n, RenderMiniBar(float64(n)/float64(total), miniBarWidth, theme)))
	}
	return lines
}

// RenderStatsPanel is the full panel for the subtree being viewed.
func RenderStatsPanel(sub *model.BlockTreeNode, width int, theme Theme) string {
	if sub == nil {
		return ""
	}
	s := analysis.Compute(sub)

	lines := RenderStatsHeaderBox(sub.Title(), strings.ToUpper(sub.Type.Label())+":", width, theme, theme.TypeColor(sub.Type))
	lines = append(lines, "")
	lines = append(lines, RenderTypeBars(s, theme)...)
	lines = append(lines, "")

	label := theme.Renderer.NewStyle().Foreground(theme.Subtext)
	lines = append(lines,
		label.Render(fmt.Sprintf("   Depth %d · %d leaves · %d graded", s.MaxDepth, s.Leaves, s.Graded)),
		label.Render(fmt.Sprintf("   Branching %.1f ± %.1f", s.BranchingMean, s.BranchingStdev)),
	)
	return strings.Join(lines, "\n")
}
