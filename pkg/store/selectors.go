package store

import (
	"github.com/Dicklesworthstone/course_block_viewer/pkg/loader"
	"github.com/Dicklesworthstone/course_block_viewer/pkg/model"
)

// ActiveBlockTree returns the subtree currently on screen: the whole tree
// when RootBlock names the top node, otherwise the node with that id.
// Returns nil when nothing is loaded or RootBlock is stale.
func ActiveBlockTree(state NavigationState) *model.BlockTreeNode {
	if state.Blocks == nil {
		return nil
	}
	if state.RootBlock == state.Blocks.ID {
		return state.Blocks
	}
	if state.Index != nil {
		return state.Index[state.RootBlock]
	}
	for _, child := range state.Blocks.Children {
		if found := loader.FindBlock(child, state.RootBlock); found != nil {
			return found
		}
	}
	return nil
}

// SelectedNode returns the selected block, or nil if nothing valid is selected
func SelectedNode(state NavigationState) *model.BlockTreeNode {
	if state.Blocks == nil || state.SelectedBlock == "" {
		return nil
	}
	if state.Index != nil {
		return state.Index[state.SelectedBlock]
	}
	return loader.FindBlock(state.Blocks, state.SelectedBlock)
}

// Breadcrumbs returns the nodes from the tree root down to the active subtree
func Breadcrumbs(state NavigationState) []*model.BlockTreeNode {
	if state.Blocks == nil {
		return nil
	}
	index := state.Index
	if index == nil {
		index = loader.IndexBlockTree(state.Blocks)
	}
	return loader.PathTo(index, state.RootBlock)
}
