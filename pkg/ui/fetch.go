package ui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Dicklesworthstone/course_block_viewer/pkg/model"
)

// BlockSource loads the flat block map for a course.
// Both the LMS client and the file loader implement it.
type BlockSource interface {
	FetchBlocks(ctx context.Context, courseID string, exclude []string) (*model.FlatBlockMap, error)
}

// blocksFetchedMsg carries a fetch result back to the browser.
// seq identifies the open that issued it.
type blocksFetchedMsg struct {
	seq     uint64
	payload *model.FlatBlockMap
	err     error
}

// ReloadMsg asks an open browser to fetch the block map again, e.g. after
// the watched file changed.
type ReloadMsg struct{}

// fetchBlocksCmd runs one fetch off the update loop.
func fetchBlocksCmd(src BlockSource, courseID string, exclude []string, timeout time.Duration, seq uint64) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		flat, err := src.FetchBlocks(ctx, courseID, exclude)
		return blocksFetchedMsg{seq: seq, payload: flat, err: err}
	}
}
