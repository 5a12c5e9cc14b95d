package loader

import (
	"github.com/Dicklesworthstone/course_block_viewer/pkg/model"
)

// BuildBlockTree resolves a flat block map into a parent-linked tree rooted
// at flat.Root. Children whose type is not navigable are dropped together
// with their descendants; ids missing from the map are skipped. The root
// itself is kept whatever its type.
//
// Returns nil when the map has no root, no blocks, or a root that is not
// among the blocks.
func BuildBlockTree(flat *model.FlatBlockMap) *model.BlockTreeNode {
	if flat == nil || flat.Root == "" || flat.Blocks == nil {
		return nil
	}
	if _, ok := flat.Blocks[flat.Root]; !ok {
		return nil
	}

	// placed guards the one-parent invariant against cycles and shared children
	placed := make(map[string]bool, len(flat.Blocks))
	return buildNode(flat.Blocks, flat.Root, "", placed)
}

func buildNode(blocks map[string]model.BlockRecord, id, parent string, placed map[string]bool) *model.BlockTreeNode {
	rec, ok := blocks[id]
	if !ok || placed[id] {
		return nil
	}
	placed[id] = true

	node := &model.BlockTreeNode{
		ID:             id,
		BlockID:        rec.BlockID,
		Type:           rec.Type,
		DisplayName:    rec.DisplayName,
		LMSWebURL:      rec.LMSWebURL,
		StudentViewURL: rec.StudentViewURL,
		Graded:         rec.Graded,
		Format:         rec.Format,
		Parent:         parent,
	}
	if len(rec.Children) == 0 {
		return node
	}

	node.Children = make([]*model.BlockTreeNode, 0, len(rec.Children))
	for _, childID := range rec.Children {
		childRec, ok := blocks[childID]
		if !ok || !childRec.Type.IsNavigable() {
			continue
		}
		if child := buildNode(blocks, childID, id, placed); child != nil {
			node.Children = append(node.Children, child)
		}
	}
	return node
}

// IndexBlockTree builds an id -> node map for O(1) lookup of any node in
// the tree. A nil root yields an empty index.
func IndexBlockTree(root *model.BlockTreeNode) map[string]*model.BlockTreeNode {
	index := make(map[string]*model.BlockTreeNode)
	root.Walk(func(n *model.BlockTreeNode, _ int) bool {
		index[n.ID] = n
		return true
	})
	return index
}

// FindBlock searches the tree depth-first for the node with the given id
func FindBlock(root *model.BlockTreeNode, id string) *model.BlockTreeNode {
	if root == nil || id == "" {
		return nil
	}
	var found *model.BlockTreeNode
	root.Walk(func(n *model.BlockTreeNode, _ int) bool {
		if n.ID == id {
			found = n
			return false
		}
		return true
	})
	return found
}

// PathTo returns the chain of nodes from the root down to id, inclusive,
// or nil if id is not in the tree.
func PathTo(index map[string]*model.BlockTreeNode, id string) []*model.BlockTreeNode {
	node, ok := index[id]
	if !ok {
		return nil
	}
	var path []*model.BlockTreeNode
	for node != nil {
		path = append(path, node)
		if node.Parent == "" {
			break
		}
		node = index[node.Parent]
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}
