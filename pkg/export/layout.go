package export

import (
	"github.com/mattn/go-runewidth"

	"github.com/Dicklesworthstone/course_block_viewer/pkg/model"
)

// Diagram geometry, in pixels.
const (
	rowHeight   = 22
	indentWidth = 24
	marginX     = 16
	marginY     = 16
	charWidth   = 7
	maxLabel    = 60
)

// placedNode is one row of an indented tree diagram.
type placedNode struct {
	Node      *model.BlockTreeNode
	Depth     int
	X, Y      float64
	ParentIdx int // -1 for the root
	Label     string
}

// layoutTree assigns each node a row in pre-order, indented by depth.
// Returns the rows plus the canvas size needed to draw them.
func layoutTree(root *model.BlockTreeNode) (rows []placedNode, width, height int) {
	if root == nil {
		return nil, 2 * marginX, 2 * marginY
	}

	var place func(n *model.BlockTreeNode, depth, parent int)
	place = func(n *model.BlockTreeNode, depth, parent int) {
		label := runewidth.Truncate(n.Type.Label()+": "+n.Title(), maxLabel, "…")
		rows = append(rows, placedNode{
			Node:      n,
			Depth:     depth,
			X:         float64(marginX + depth*indentWidth),
			Y:         float64(marginY + len(rows)*rowHeight),
			ParentIdx: parent,
			Label:     label,
		})
		idx := len(rows) - 1
		for _, c := range n.Children {
			place(c, depth+1, idx)
		}
	}
	place(root, 0, -1)

	for _, r := range rows {
		right := int(r.X) + 14 + runewidth.StringWidth(r.Label)*charWidth
		if right > width {
			width = right
		}
	}
	width += marginX
	height = 2*marginY + len(rows)*rowHeight
	return rows, width, height
}

// typeColor returns the fill used for a block type's marker, as hex RGB.
func typeColor(t model.BlockType) string {
	switch t {
	case model.TypeCourse:
		return "#BD93F9"
	case model.TypeChapter:
		return "#FF79C6"
	case model.TypeSequential:
		return "#FFB86C"
	case model.TypeVertical:
		return "#8BE9FD"
	case model.TypeProblem:
		return "#50FA7B"
	}
	return "#6272A4"
}
