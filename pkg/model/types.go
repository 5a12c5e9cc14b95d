package model

import "fmt"

// BlockRecord is one course block as returned by the course blocks endpoint
type BlockRecord struct {
	ID             string    `json:"id"`
	BlockID        string    `json:"block_id,omitempty"`
	Type           BlockType `json:"type"`
	DisplayName    string    `json:"display_name"`
	Children       []string  `json:"children,omitempty"`
	LMSWebURL      string    `json:"lms_web_url,omitempty"`
	StudentViewURL string    `json:"student_view_url,omitempty"`
	Graded         bool      `json:"graded,omitempty"`
	Format         string    `json:"format,omitempty"`
}

// FlatBlockMap is the literal shape of the course blocks response: every
// block keyed by id plus the id of the top-level block.
type FlatBlockMap struct {
	Root   string                 `json:"root"`
	Blocks map[string]BlockRecord `json:"blocks"`
}

// Validate checks that the map names a root that is present in blocks
func (f *FlatBlockMap) Validate() error {
	if f == nil {
		return fmt.Errorf("block map is nil")
	}
	if f.Root == "" {
		return fmt.Errorf("block map has no root")
	}
	if f.Blocks == nil {
		return fmt.Errorf("block map has no blocks")
	}
	if _, ok := f.Blocks[f.Root]; !ok {
		return fmt.Errorf("root block %s not found in blocks", f.Root)
	}
	return nil
}

// BlockTreeNode is a BlockRecord resolved into a navigable tree.
// Parent is a back-reference by id; it is empty for the root.
type BlockTreeNode struct {
	ID             string
	BlockID        string
	Type           BlockType
	DisplayName    string
	LMSWebURL      string
	StudentViewURL string
	Graded         bool
	Format         string
	Parent         string
	Children       []*BlockTreeNode
}

// HasChildren reports whether the node can be drilled into
func (n *BlockTreeNode) HasChildren() bool {
	return n != nil && len(n.Children) > 0
}

// HasParent reports whether the node can be drilled out of
func (n *BlockTreeNode) HasParent() bool {
	return n != nil && n.Parent != ""
}

// Title returns the display name, falling back to the id for unnamed blocks
func (n *BlockTreeNode) Title() string {
	if n.DisplayName != "" {
		return n.DisplayName
	}
	return n.ID
}

// Walk visits n and its descendants depth-first, pre-order.
// Returning false from fn stops the walk.
func (n *BlockTreeNode) Walk(fn func(node *BlockTreeNode, depth int) bool) {
	walkNode(n, 0, fn)
}

func walkNode(n *BlockTreeNode, depth int, fn func(*BlockTreeNode, int) bool) bool {
	if n == nil {
		return true
	}
	if !fn(n, depth) {
		return false
	}
	for _, child := range n.Children {
		if !walkNode(child, depth+1, fn) {
			return false
		}
	}
	return true
}

// BlockType categorizes a course block
type BlockType string

const (
	TypeCourse     BlockType = "course"
	TypeChapter    BlockType = "chapter"
	TypeSequential BlockType = "sequential"
	TypeVertical   BlockType = "vertical"
	TypeProblem    BlockType = "problem"
)

// NavigableTypes lists the block types kept in a browsable tree, outermost first
var NavigableTypes = []BlockType{TypeCourse, TypeChapter, TypeSequential, TypeVertical, TypeProblem}

// IsNavigable returns true if blocks of this type appear in the browser tree
func (t BlockType) IsNavigable() bool {
	switch t {
	case TypeCourse, TypeChapter, TypeSequential, TypeVertical, TypeProblem:
		return true
	}
	return false
}

// Label returns the user-facing name of the block type
func (t BlockType) Label() string {
	switch t {
	case TypeCourse:
		return "Course"
	case TypeChapter:
		return "Section"
	case TypeSequential:
		return "Subsection"
	case TypeVertical:
		return "Unit"
	case TypeProblem:
		return "Problem"
	case "":
		return "Block"
	}
	return string(t)
}
