package models

import "time"

// Project groups the images a user uploads for processing. It corresponds
// to the 'projects' table. Deleting a project removes its images and,
// transitively, their operation audit records.
type Project struct {
	ID          int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string    `gorm:"not null" json:"name"`
	Description *string   `gorm:"" json:"description,omitempty"` // Nullable
	OwnerID     int64     `gorm:"not null;index" json:"owner_id"`
	CreatedAt   time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time `gorm:"not null" json:"updated_at"`

	// Relationships
	Images []ProjectImage `gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE" json:"images,omitempty"`
}

// TableName explicitly sets the table name for GORM.
func (Project) TableName() string {
	return "projects"
}
