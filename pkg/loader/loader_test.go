package loader_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Dicklesworthstone/course_block_viewer/pkg/loader"
	"github.com/Dicklesworthstone/course_block_viewer/pkg/model"
)

const payload = `{
  "root": "block-v1:edX+Demo+2024+type@course+block@course",
  "blocks": {
    "block-v1:edX+Demo+2024+type@course+block@course": {
      "id": "block-v1:edX+Demo+2024+type@course+block@course",
      "type": "course",
      "display_name": "Demo Course",
      "children": ["block-v1:edX+Demo+2024+type@chapter+block@intro"]
    },
    "block-v1:edX+Demo+2024+type@chapter+block@intro": {
      "type": "chapter",
      "display_name": "Introduction",
      "lms_web_url": "https://lms.example.com/jump/intro"
    },
    "block-v1:edX+Demo+2024+type@html+block@notes": {
      "id": "block-v1:edX+Demo+2024+type@html+block@notes",
      "type": "html",
      "display_name": "Notes"
    }
  }
}`

func writePayload(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "blocks.json")
	if err := os.WriteFile(path, []byte(payload), 0644); err != nil {
		t.Fatalf("write payload: %v", err)
	}
	return path
}

func TestLoadBlocksFromFile(t *testing.T) {
	flat, err := loader.LoadBlocksFromFile(writePayload(t))
	if err != nil {
		t.Fatalf("LoadBlocksFromFile: %v", err)
	}
	if err := flat.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if len(flat.Blocks) != 3 {
		t.Errorf("expected 3 blocks, got %d", len(flat.Blocks))
	}

	intro := flat.Blocks["block-v1:edX+Demo+2024+type@chapter+block@intro"]
	if intro.ID != "block-v1:edX+Demo+2024+type@chapter+block@intro" {
		t.Errorf("missing id not filled from key, got %q", intro.ID)
	}
	if intro.LMSWebURL == "" {
		t.Error("lms_web_url not decoded")
	}
}

func TestLoadBlocksFromFile_Errors(t *testing.T) {
	if _, err := loader.LoadBlocksFromFile(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}

	if _, err := loader.DecodeBlocks(strings.NewReader("{not json")); err == nil {
		t.Error("expected decode error")
	}

	_, err := loader.DecodeBlocks(strings.NewReader(`{"root": "x", "blocks": {}}`))
	if !errors.Is(err, loader.ErrNoBlocks) {
		t.Errorf("expected ErrNoBlocks, got %v", err)
	}
}

func TestFileSource_ExcludesTypes(t *testing.T) {
	src := loader.NewFileSource(writePayload(t))

	flat, err := src.FetchBlocks(context.Background(), "ignored", []string{"html"})
	if err != nil {
		t.Fatalf("FetchBlocks: %v", err)
	}
	for id, rec := range flat.Blocks {
		if rec.Type == "html" {
			t.Errorf("html block %s not excluded", id)
		}
	}

	tree := loader.BuildBlockTree(flat)
	if tree == nil || len(tree.Children) != 1 {
		t.Fatalf("unexpected tree %+v", tree)
	}
	if tree.Children[0].Type != model.TypeChapter {
		t.Errorf("child type = %s, want chapter", tree.Children[0].Type)
	}
}

func TestFileSource_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := loader.NewFileSource(writePayload(t)).FetchBlocks(ctx, "", nil); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
