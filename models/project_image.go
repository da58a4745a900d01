package models

import "time"

// ProjectImage represents an uploaded image belonging to a project. It
// corresponds to the 'project_images' table. Dimensions and camera fields
// are filled from EXIF data at upload time when available.
type ProjectImage struct {
	ID           int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	ProjectID    int64     `gorm:"not null;index" json:"project_id"`
	FileName     string    `gorm:"not null" json:"file_name"`      // original filename as uploaded
	StoragePath  string    `gorm:"not null" json:"storage_path"`   // path relative to the media store
	UploadedAt   time.Time `gorm:"not null;index" json:"uploaded_at"`
	Width        *int      `gorm:"" json:"width,omitempty"`        // Nullable
	Height       *int      `gorm:"" json:"height,omitempty"`       // Nullable
	CameraMake   *string   `gorm:"" json:"camera_make,omitempty"`  // Nullable
	CameraModel  *string   `gorm:"" json:"camera_model,omitempty"` // Nullable
	TakenAt      *int64    `gorm:"" json:"taken_at,omitempty"`     // Nullable, Unix timestamp
	ProcessedPath *string  `gorm:"" json:"processed_path,omitempty"` // Nullable, last algorithm output

	// Relationships
	Operations []ProcessingOperation `gorm:"foreignKey:ProjectImageID;constraint:OnDelete:CASCADE" json:"operations,omitempty"`
}

// TableName explicitly sets the table name for GORM.
func (ProjectImage) TableName() string {
	return "project_images"
}
