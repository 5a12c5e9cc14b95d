package loader

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/Dicklesworthstone/course_block_viewer/pkg/model"
)

// ErrNoBlocks is returned when a block map file holds no blocks at all.
var ErrNoBlocks = errors.New("no course blocks found")

// MaxFileSize caps how much of a block map file is read (64MB).
const MaxFileSize = 64 * 1024 * 1024

// LoadBlocksFromFile reads a saved course blocks response from disk.
func LoadBlocksFromFile(path string) (*model.FlatBlockMap, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("no block map found at %s", path)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open block map: %w", err)
	}
	defer file.Close()

	return DecodeBlocks(file)
}

// DecodeBlocks parses a course blocks payload. Unknown fields are ignored.
func DecodeBlocks(r io.Reader) (*model.FlatBlockMap, error) {
	var flat model.FlatBlockMap
	if err := json.NewDecoder(io.LimitReader(r, MaxFileSize)).Decode(&flat); err != nil {
		return nil, fmt.Errorf("error decoding block map: %w", err)
	}
	if len(flat.Blocks) == 0 {
		return nil, ErrNoBlocks
	}

	// Records keyed by id may omit the id field itself
	for id, rec := range flat.Blocks {
		if rec.ID == "" {
			rec.ID = id
			flat.Blocks[id] = rec
		}
	}
	return &flat, nil
}

// FileSource serves block maps from a file, ignoring the course id.
// It satisfies the same contract as the remote client so the browser
// can run offline against a saved response.
type FileSource struct {
	Path string
}

// NewFileSource creates a source reading from path
func NewFileSource(path string) *FileSource {
	return &FileSource{Path: path}
}

// FetchBlocks re-reads the file on every call so edits show up on reload.
// Excluded types are removed from the returned map.
func (s *FileSource) FetchBlocks(ctx context.Context, courseID string, exclude []string) (*model.FlatBlockMap, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	flat, err := LoadBlocksFromFile(s.Path)
	if err != nil {
		return nil, err
	}
	return ExcludeTypes(flat, exclude), nil
}

// ExcludeTypes returns a copy of flat without blocks of the given types.
// Child id lists still reference the removed blocks; the tree builder
// skips ids it cannot resolve.
func ExcludeTypes(flat *model.FlatBlockMap, exclude []string) *model.FlatBlockMap {
	if flat == nil || len(exclude) == 0 {
		return flat
	}
	drop := make(map[model.BlockType]bool, len(exclude))
	for _, t := range exclude {
		drop[model.BlockType(t)] = true
	}

	out := &model.FlatBlockMap{
		Root:   flat.Root,
		Blocks: make(map[string]model.BlockRecord, len(flat.Blocks)),
	}
	for id, rec := range flat.Blocks {
		if drop[rec.Type] && id != flat.Root {
			continue
		}
		out.Blocks[id] = rec
	}
	return out
}
