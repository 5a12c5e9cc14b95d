package history

import (
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/Dicklesworthstone/course_block_viewer/pkg/model"
)

// Tests use the pure Go driver so they run without cgo.
func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := OpenDB(DriverPureGo, filepath.Join(t.TempDir(), "nested", "history.db"))
	if err != nil {
		t.Fatalf("OpenDB: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestOpenDB_RejectsUnknownDriver(t *testing.T) {
	if _, err := OpenDB("postgres", filepath.Join(t.TempDir(), "h.db")); err == nil {
		t.Error("expected error for unknown driver")
	}
}

func TestRecordAndRecent(t *testing.T) {
	db := openTestDB(t)
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	picks := []model.Selection{
		{CourseID: "c1", BlockID: "p1", BlockType: model.TypeProblem, DisplayName: "P1", Source: model.SourceRemote, SelectedAt: base},
		{CourseID: "c1", BlockID: "v1", BlockType: model.TypeVertical, DisplayName: "V1", Source: model.SourceFile, SelectedAt: base.Add(time.Minute)},
		{CourseID: "c2", BlockID: "x", BlockType: model.TypeChapter, Source: model.SourceRemote, SelectedAt: base.Add(2 * time.Minute)},
	}
	for i := range picks {
		if err := db.RecordSelection(&picks[i]); err != nil {
			t.Fatalf("RecordSelection: %v", err)
		}
		if picks[i].ID == 0 {
			t.Errorf("selection %d got no id", i)
		}
	}

	recent, err := db.RecentSelections("c1", 10)
	if err != nil {
		t.Fatalf("RecentSelections: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("expected 2 selections, got %d", len(recent))
	}
	if recent[0].BlockID != "v1" || recent[1].BlockID != "p1" {
		t.Errorf("order = %s, %s; want v1, p1", recent[0].BlockID, recent[1].BlockID)
	}
	if recent[0].BlockType != model.TypeVertical {
		t.Errorf("block type = %s", recent[0].BlockType)
	}
	if !recent[1].SelectedAt.Equal(base) {
		t.Errorf("selected_at = %v, want %v", recent[1].SelectedAt, base)
	}

	all, err := db.RecentSelections("", 10)
	if err != nil || len(all) != 3 {
		t.Errorf("all courses: %d selections, err %v", len(all), err)
	}

	last, err := db.LastSelection("c2")
	if err != nil || last == nil || last.BlockID != "x" {
		t.Errorf("LastSelection = %+v, %v", last, err)
	}
	none, err := db.LastSelection("missing")
	if err != nil || none != nil {
		t.Errorf("LastSelection(missing) = %+v, %v", none, err)
	}

	n, err := db.Prune(base.Add(30 * time.Second))
	if err != nil || n != 1 {
		t.Errorf("Prune removed %d, err %v; want 1", n, err)
	}
}

func TestRecordSelection_Validation(t *testing.T) {
	db := openTestDB(t)
	if err := db.RecordSelection(&model.Selection{Source: model.SourceRemote}); err == nil {
		t.Error("expected error for missing block id")
	}
	if err := db.RecordSelection(&model.Selection{BlockID: "b", Source: "carrier-pigeon"}); err == nil {
		t.Error("expected error for invalid source")
	}
}

func TestRecorder(t *testing.T) {
	db := openTestDB(t)
	rec := NewRecorder(db, "c1", model.SourceRemote, zap.NewNop())

	rec.Record(&model.BlockTreeNode{ID: "p1", Type: model.TypeProblem, DisplayName: "P1"})
	rec.Record(nil)

	var nilRec *Recorder
	nilRec.Record(&model.BlockTreeNode{ID: "ignored"})

	recent, err := db.RecentSelections("c1", 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(recent) != 1 || recent[0].BlockID != "p1" || recent[0].Source != model.SourceRemote {
		t.Fatalf("recent = %+v", recent)
	}
	if recent[0].Session == "" || recent[0].Session != rec.Session() {
		t.Errorf("session = %q, recorder session = %q", recent[0].Session, rec.Session())
	}

	other := NewRecorder(db, "c1", model.SourceRemote, zap.NewNop())
	if other.Session() == rec.Session() {
		t.Error("recorders share a session id")
	}
}
