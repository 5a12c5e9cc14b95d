// Package history records the blocks picked in the browser.
package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"

	"github.com/Dicklesworthstone/course_block_viewer/pkg/model"
)

// Supported database/sql driver names. sqlite3 needs cgo; sqlite is pure Go.
const (
	DriverCGO    = "sqlite3"
	DriverPureGo = "sqlite"
)

// DB handles selection history persistence
type DB struct {
	db *sql.DB
}

// OpenDB opens or creates the history database at the given path
func OpenDB(driver, dbPath string) (*DB, error) {
	if driver != DriverCGO && driver != DriverPureGo {
		return nil, fmt.Errorf("unsupported history driver %q", driver)
	}

	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open(driver, dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	hdb := &DB{db: db}
	if err := hdb.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return hdb, nil
}

// Close closes the database connection
func (d *DB) Close() error {
	return d.db.Close()
}

func (d *DB) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS selections (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		course_id TEXT NOT NULL,
		block_id TEXT NOT NULL,
		block_type TEXT NOT NULL,
		display_name TEXT DEFAULT '',
		source TEXT NOT NULL,
		session TEXT NOT NULL DEFAULT '',
		selected_at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_selections_course ON selections(course_id, selected_at);
	`
	_, err := d.db.Exec(schema)
	return err
}

// RecordSelection inserts a selection and fills in its ID
func (d *DB) RecordSelection(s *model.Selection) error {
	if s.BlockID == "" {
		return fmt.Errorf("selection has no block id")
	}
	if !model.IsValidSource(s.Source) {
		return fmt.Errorf("invalid selection source: %s", s.Source)
	}
	if s.SelectedAt.IsZero() {
		s.SelectedAt = time.Now()
	}

	result, err := d.db.Exec(`
		INSERT INTO selections (course_id, block_id, block_type, display_name, source, session, selected_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, s.CourseID, s.BlockID, string(s.BlockType), s.DisplayName, s.Source, s.Session, s.SelectedAt.UnixNano())
	if err != nil {
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	s.ID = id
	return nil
}

// RecentSelections returns up to limit selections, newest first.
// An empty courseID returns selections for every course.
func (d *DB) RecentSelections(courseID string, limit int) ([]model.Selection, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT id, course_id, block_id, block_type, display_name, source, session, selected_at
		FROM selections`
	args := []interface{}{}
	if courseID != "" {
		query += ` WHERE course_id = ?`
		args = append(args, courseID)
	}
	query += ` ORDER BY selected_at DESC, id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Selection
	for rows.Next() {
		var s model.Selection
		var blockType string
		var selectedAt int64
		if err := rows.Scan(&s.ID, &s.CourseID, &s.BlockID, &blockType, &s.DisplayName, &s.Source, &s.Session, &selectedAt); err != nil {
			return nil, err
		}
		s.BlockType = model.BlockType(blockType)
		s.SelectedAt = time.Unix(0, selectedAt)
		out = append(out, s)
	}
	return out, rows.Err()
}

// LastSelection returns the most recent selection for a course, or nil
func (d *DB) LastSelection(courseID string) (*model.Selection, error) {
	recent, err := d.RecentSelections(courseID, 1)
	if err != nil {
		return nil, err
	}
	if len(recent) == 0 {
		return nil, nil
	}
	return &recent[0], nil
}

// Prune deletes selections older than the cutoff and returns how many went
func (d *DB) Prune(before time.Time) (int64, error) {
	result, err := d.db.Exec(`DELETE FROM selections WHERE selected_at < ?`, before.UnixNano())
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
