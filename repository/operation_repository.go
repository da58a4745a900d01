package repository

import (
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/visionlab/visionbackend/models"
)

// OperationRepository handles database operations for ProcessingOperation
// audit records
type OperationRepository struct {
	DB *gorm.DB
}

// NewOperationRepository creates a new instance of OperationRepository
func NewOperationRepository(db *gorm.DB) *OperationRepository {
	return &OperationRepository{DB: db}
}

// NewOperation builds an operation record with the documented defaults:
// empty parameters document, success true, zero execution time. Callers
// overwrite fields before Create as needed.
func NewOperation(imageID int64, algorithm string) *models.ProcessingOperation {
	return &models.ProcessingOperation{
		ProjectImageID: imageID,
		Algorithm:      algorithm,
		Parameters:     datatypes.JSON("{}"),
		Success:        true,
	}
}

// Create inserts a new audit record. The algorithm label is validated here
// since SQLite does not enforce varchar lengths. The model carries no
// column defaults, so success=false is written exactly as set.
func (r *OperationRepository) Create(op *models.ProcessingOperation) error {
	if op.Algorithm == "" {
		return models.ErrAlgorithmRequired
	}
	if len(op.Algorithm) > models.AlgorithmMaxLength {
		return models.ErrAlgorithmTooLong
	}
	if len(op.Parameters) == 0 {
		op.Parameters = datatypes.JSON("{}")
	}
	if op.Timestamp.IsZero() {
		op.Timestamp = time.Now()
	}

	err := r.DB.Create(op).Error
	if err != nil {
		return fmt.Errorf("failed to create operation record for image %d: %w", op.ProjectImageID, err)
	}
	return nil
}

// GetByID retrieves an operation record by its ID
func (r *OperationRepository) GetByID(id int64) (*models.ProcessingOperation, error) {
	var op models.ProcessingOperation
	err := r.DB.First(&op, id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get operation by ID %d: %w", id, err)
	}
	return &op, nil
}

// ListByImage retrieves all operation records for an image, newest first.
// ID is a secondary key so listings stay deterministic when timestamps
// collide.
func (r *OperationRepository) ListByImage(imageID int64) ([]models.ProcessingOperation, error) {
	var ops []models.ProcessingOperation
	err := r.DB.
		Where("project_image_id = ?", imageID).
		Order("timestamp DESC, id DESC").
		Find(&ops).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list operations for image %d: %w", imageID, err)
	}
	return ops, nil
}

// CountByImage returns the number of operation records for an image
func (r *OperationRepository) CountByImage(imageID int64) (int64, error) {
	var count int64
	err := r.DB.Model(&models.ProcessingOperation{}).
		Where("project_image_id = ?", imageID).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count operations for image %d: %w", imageID, err)
	}
	return count, nil
}
