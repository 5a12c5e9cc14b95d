package ui

import (
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/Dicklesworthstone/course_block_viewer/pkg/model"
)

// BlockListView is everything needed to draw one level of the tree.
type BlockListView struct {
	Subtree     *model.BlockTreeNode   // node whose children are listed
	Rows        []*model.BlockTreeNode // children to show, possibly filtered
	Breadcrumbs []*model.BlockTreeNode // root .. Subtree
	Selected    string                 // id of the chosen block
	Cursor      int
	Filter      string
	Width       int
	MaxRows     int
}

// RenderBlockList draws the header, one row per child and a scroll hint.
// It has no side effects; key handling lives in the browser model.
func RenderBlockList(v BlockListView, t Theme) string {
	if v.Subtree == nil {
		return ""
	}
	width := v.Width
	if width < 30 {
		width = 30
	}

	var lines []string
	lines = append(lines, renderHeader(v, t, width))
	if crumbs := renderBreadcrumbs(v.Breadcrumbs, t, width); crumbs != "" {
		lines = append(lines, crumbs)
	}
	lines = append(lines, RenderDivider(width, t))

	if len(v.Rows) == 0 {
		emptyStyle := t.Renderer.NewStyle().Foreground(t.Subtext).Italic(true)
		msg := "  No child blocks"
		if v.Filter != "" {
			msg = fmt.Sprintf("  No blocks match %q", v.Filter)
		}
		lines = append(lines, emptyStyle.Render(msg))
		return strings.Join(lines, "\n")
	}

	start, end := visibleWindow(len(v.Rows), v.Cursor, v.MaxRows)
	for i := start; i < end; i++ {
		lines = append(lines, renderRow(v.Rows[i], i == v.Cursor, v.Rows[i].ID == v.Selected, t, width))
	}

	if start > 0 || end < len(v.Rows) {
		moreStyle := t.Renderer.NewStyle().Foreground(t.Subtext).Italic(true)
		lines = append(lines, moreStyle.Render(fmt.Sprintf("  %d-%d of %d", start+1, end, len(v.Rows))))
	}
	return strings.Join(lines, "\n")
}

func renderHeader(v BlockListView, t Theme, width int) string {
	back := t.Renderer.NewStyle().Foreground(t.Primary).Bold(true).Render("‹ back")
	if !v.Subtree.HasParent() {
		back = t.Renderer.NewStyle().Foreground(t.Secondary).Faint(true).Render("‹ back")
	}

	titleStyle := t.Renderer.NewStyle().Foreground(t.TypeColor(v.Subtree.Type)).Bold(true)
	label := v.Subtree.Type.Label() + ": "
	name := runewidth.Truncate(v.Subtree.Title(), width-runewidth.StringWidth(label)-10, "…")

	header := back + "  " + titleStyle.Render(label+name)
	if v.Subtree.ID == v.Selected {
		header += " " + t.Renderer.NewStyle().Foreground(t.Success).Render("✓")
	}
	return header
}

func renderBreadcrumbs(crumbs []*model.BlockTreeNode, t Theme, width int) string {
	if len(crumbs) < 2 {
		return ""
	}
	names := make([]string, 0, len(crumbs))
	for _, c := range crumbs {
		names = append(names, c.Title())
	}
	path := runewidth.Truncate(strings.Join(names, " › "), width, "…")
	return t.Renderer.NewStyle().Foreground(t.Subtext).Render(path)
}

func renderRow(n *model.BlockTreeNode, isCursor, isSelected bool, t Theme, width int) string {
	prefix := "  "
	if isCursor {
		prefix = "▸ "
	}

	mark := " "
	if isSelected {
		mark = t.Renderer.NewStyle().Foreground(t.Success).Bold(true).Render("✓")
	}

	drill := " "
	if n.HasChildren() {
		drill = t.Renderer.NewStyle().Foreground(t.Secondary).Render("›")
	}

	// prefix(2) + mark(1) + space + badge + space + name + space + drill(1)
	nameWidth := width - 2 - 1 - 1 - typeBadgeWidth - 1 - 1 - 1
	if nameWidth < 8 {
		nameWidth = 8
	}
	name := runewidth.Truncate(n.Title(), nameWidth, "…")
	name = runewidth.FillRight(name, nameWidth)

	nameStyle := t.Base
	switch {
	case isCursor:
		nameStyle = t.Renderer.NewStyle().Foreground(t.Primary).Bold(true)
	case isSelected:
		nameStyle = t.Renderer.NewStyle().Foreground(t.Success)
	}

	row := prefix + mark + " " + RenderTypeBadge(n.Type, t) + " " + nameStyle.Render(name) + " " + drill
	if isCursor {
		return t.Renderer.NewStyle().Background(t.Highlight).Render(row)
	}
	return row
}

// visibleWindow returns the [start, end) slice of rows to draw so that the
// cursor stays on screen. maxRows <= 0 shows everything.
func visibleWindow(total, cursor, maxRows int) (int, int) {
	if maxRows <= 0 || total <= maxRows {
		return 0, total
	}
	start := cursor - maxRows/2
	if start < 0 {
		start = 0
	}
	end := start + maxRows
	if end > total {
		end = total
		start = end - maxRows
	}
	return start, end
}
