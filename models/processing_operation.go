package models

import (
	"errors"
	"time"

	"gorm.io/datatypes"
)

// AlgorithmMaxLength is the maximum allowed length of an operation's
// algorithm label. SQLite does not enforce varchar sizes, so the
// repository checks this before insert.
const AlgorithmMaxLength = 100

var (
	ErrAlgorithmRequired = errors.New("algorithm is required")
	ErrAlgorithmTooLong  = errors.New("algorithm exceeds maximum length")
)

// ProcessingOperation is a write-once audit record of a single algorithmic
// operation applied to a project image. It corresponds to the
// 'processing_operations' table. Rows are never updated after creation and
// are only removed when their parent image is deleted (FK cascade).
type ProcessingOperation struct {
	ID              int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	Timestamp       time.Time      `gorm:"not null;index" json:"timestamp"`
	Algorithm       string         `gorm:"size:100;not null" json:"algorithm"`
	Parameters      datatypes.JSON `gorm:"not null" json:"parameters"`
	// no column defaults: GORM drops zero values (success=false) for
	// fields carrying a default tag; repository.NewOperation fills them
	Success         bool           `gorm:"not null" json:"success"`
	ErrorMessage    *string        `gorm:"" json:"error_message,omitempty"` // Nullable, set on failure
	ExecutionTimeMs int            `gorm:"not null" json:"execution_time_ms"`

	ProjectImageID int64 `gorm:"not null;index" json:"project_image_id"`
}

// TableName explicitly sets the table name for GORM.
func (ProcessingOperation) TableName() string {
	return "processing_operations"
}
