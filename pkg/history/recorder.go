package history

import (
	"path/filepath"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Dicklesworthstone/course_block_viewer/pkg/model"
)

// Recorder writes selections for one course and source, logging failures
// instead of returning them so a broken history never blocks a pick.
// Every selection made through one Recorder shares a session id.
type Recorder struct {
	db       *DB
	courseID string
	source   string
	session  string
	logger   *zap.Logger
}

// NewRecorder wraps an open DB for a course
func NewRecorder(db *DB, courseID, source string, logger *zap.Logger) *Recorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Recorder{db: db, courseID: courseID, source: source, session: uuid.NewString(), logger: logger}
}

// Session returns the id stamped on this recorder's selections
func (r *Recorder) Session() string {
	if r == nil {
		return ""
	}
	return r.session
}

// Record stores the chosen node
func (r *Recorder) Record(node *model.BlockTreeNode) {
	if r == nil || node == nil {
		return
	}
	sel := &model.Selection{
		CourseID:    r.courseID,
		BlockID:     node.ID,
		BlockType:   node.Type,
		DisplayName: node.DisplayName,
		Source:      r.source,
		Session:     r.session,
	}
	if err := r.db.RecordSelection(sel); err != nil {
		r.logger.Warn("failed to record selection", zap.String("block_id", node.ID), zap.Error(err))
		return
	}
	r.logger.Debug("recorded selection", zap.Int64("id", sel.ID), zap.String("block_id", node.ID))
}

// Close closes the underlying database
func (r *Recorder) Close() error {
	if r == nil {
		return nil
	}
	return r.db.Close()
}

// DefaultDBPath returns the default history database path
func DefaultDBPath() string {
	return filepath.Join(".cbv", "history.db")
}

// TryOpenRecorder opens the history database, logging errors but not failing
func TryOpenRecorder(driver, path, courseID, source string, logger *zap.Logger) *Recorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	db, err := OpenDB(driver, path)
	if err != nil {
		logger.Warn("could not open history database", zap.String("path", path), zap.Error(err))
		return nil
	}
	return NewRecorder(db, courseID, source, logger)
}
