package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Dicklesworthstone/course_block_viewer/pkg/model"
)

// ══════════════════════════════════════════════════════════════════════════════
// THEME - Dracula-inspired palette with light-terminal fallbacks
// ══════════════════════════════════════════════════════════════════════════════

// Theme bundles the renderer and colors every view draws with
type Theme struct {
	Renderer *lipgloss.Renderer

	Primary   lipgloss.AdaptiveColor
	Secondary lipgloss.AdaptiveColor
	Subtext   lipgloss.AdaptiveColor
	Highlight lipgloss.AdaptiveColor
	Success   lipgloss.AdaptiveColor
	Danger    lipgloss.AdaptiveColor

	Course     lipgloss.AdaptiveColor
	Chapter    lipgloss.AdaptiveColor
	Sequential lipgloss.AdaptiveColor
	Vertical   lipgloss.AdaptiveColor
	Problem    lipgloss.AdaptiveColor

	Base lipgloss.Style
}

// DefaultTheme returns the standard palette bound to r
func DefaultTheme(r *lipgloss.Renderer) Theme {
	if r == nil {
		r = lipgloss.DefaultRenderer()
	}
	return Theme{
		Renderer:   r,
		Primary:    lipgloss.AdaptiveColor{Light: "#7D56F4", Dark: "#BD93F9"},
		Secondary:  lipgloss.AdaptiveColor{Light: "#5A5A7A", Dark: "#6272A4"},
		Subtext:    lipgloss.AdaptiveColor{Light: "#777777", Dark: "#BFBFBF"},
		Highlight:  lipgloss.AdaptiveColor{Light: "#E8E8F0", Dark: "#44475A"},
		Success:    lipgloss.AdaptiveColor{Light: "#1F9D55", Dark: "#50FA7B"},
		Danger:     lipgloss.AdaptiveColor{Light: "#CC3333", Dark: "#FF5555"},
		Course:     lipgloss.AdaptiveColor{Light: "#7D56F4", Dark: "#BD93F9"},
		Chapter:    lipgloss.AdaptiveColor{Light: "#C2185B", Dark: "#FF79C6"},
		Sequential: lipgloss.AdaptiveColor{Light: "#D9822B", Dark: "#FFB86C"},
		Vertical:   lipgloss.AdaptiveColor{Light: "#0E7C86", Dark: "#8BE9FD"},
		Problem:    lipgloss.AdaptiveColor{Light: "#1F9D55", Dark: "#50FA7B"},
		Base:       r.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#222222", Dark: "#F8F8F2"}),
	}
}

// TypeColor returns the accent color for a block type
func (t Theme) TypeColor(bt model.BlockType) lipgloss.AdaptiveColor {
	switch bt {
	case model.TypeCourse:
		return t.Course
	case model.TypeChapter:
		return t.Chapter
	case model.TypeSequential:
		return t.Sequential
	case model.TypeVertical:
		return t.Vertical
	case model.TypeProblem:
		return t.Problem
	}
	return t.Secondary
}

// ══════════════════════════════════════════════════════════════════════════════
// BADGES AND DIVIDERS
// ══════════════════════════════════════════════════════════════════════════════

// typeBadgeWidth fits the longest short label
const typeBadgeWidth = 4

// RenderTypeBadge returns a fixed-width, colored short label for a block type
func RenderTypeBadge(bt model.BlockType, t Theme) string {
	var label string
	switch bt {
	case model.TypeCourse:
		label = "CRS"
	case model.TypeChapter:
		label = "SEC"
	case model.TypeSequential:
		label = "SUB"
	case model.TypeVertical:
		label = "UNIT"
	case model.TypeProblem:
		label = "PROB"
	default:
		label = "????"
	}
	return t.Renderer.NewStyle().
		Foreground(t.TypeColor(bt)).
		Bold(true).
		Width(typeBadgeWidth).
		Render(label)
}

// RenderDivider renders a horizontal divider line
func RenderDivider(width int, t Theme) string {
	if width <= 0 {
		return ""
	}
	return t.Renderer.NewStyle().
		Foreground(t.Highlight).
		Render(strings.Repeat("─", width))
}
