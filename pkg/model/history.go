package model

import "time"

// Selection is one block chosen in the browser and recorded to history
type Selection struct {
	ID          int64     `json:"id" yaml:"id"`
	CourseID    string    `json:"course_id" yaml:"course_id"`
	BlockID     string    `json:"block_id" yaml:"block_id"`
	BlockType   BlockType `json:"block_type" yaml:"block_type"`
	DisplayName string    `json:"display_name" yaml:"display_name"`
	Source      string    `json:"source" yaml:"source"` // remote or file
	Session     string    `json:"session,omitempty" yaml:"session,omitempty"`
	SelectedAt  time.Time `json:"selected_at" yaml:"selected_at"`
}

// Selection source constants
const (
	SourceRemote = "remote"
	SourceFile   = "file"
)

// IsValidSource checks if a selection source is valid
func IsValidSource(source string) bool {
	switch source {
	case SourceRemote, SourceFile:
		return true
	}
	return false
}
