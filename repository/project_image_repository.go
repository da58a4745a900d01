package repository

import (
	"fmt"
	"sort"
	"time"

	"github.com/facette/natsort"
	"gorm.io/gorm"

	"github.com/visionlab/visionbackend/database"
	"github.com/visionlab/visionbackend/models"
)

// ProjectImageRepository handles database operations for ProjectImage entities
type ProjectImageRepository struct {
	DB *gorm.DB
}

// NewProjectImageRepository creates a new instance of ProjectImageRepository
func NewProjectImageRepository(db *gorm.DB) *ProjectImageRepository {
	return &ProjectImageRepository{DB: db}
}

// Create creates a new image record in the database
func (r *ProjectImageRepository) Create(image *models.ProjectImage) error {
	if image.UploadedAt.IsZero() {
		image.UploadedAt = time.Now()
	}

	err := r.DB.Create(image).Error
	if err != nil {
		return fmt.Errorf("failed to create image record %s: %w", image.FileName, err)
	}
	return nil
}

// GetByID retrieves an image by its ID
func (r *ProjectImageRepository) GetByID(id int64) (*models.ProjectImage, error) {
	var image models.ProjectImage
	err := r.DB.First(&image, id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get image by ID %d: %w", id, err)
	}
	return &image, nil
}

// ListByProject retrieves all images of a project in the requested sort
// order. Natural filename ordering can't be expressed in SQL, so that
// variant sorts in memory after fetching.
func (r *ProjectImageRepository) ListByProject(projectID int64, sortOrder string) ([]models.ProjectImage, error) {
	if !database.IsValidSortOrder(sortOrder) {
		sortOrder = database.DefaultSortOrder
	}

	query := r.DB.Where("project_id = ?", projectID)
	switch sortOrder {
	case database.SortFilenameAsc:
		query = query.Order("file_name ASC")
	case database.SortDateAsc:
		query = query.Order("uploaded_at ASC, id ASC")
	case database.SortDateDesc:
		query = query.Order("uploaded_at DESC, id DESC")
	case database.SortFilenameNat:
		// fetched unordered, sorted below
	}

	var images []models.ProjectImage
	if err := query.Find(&images).Error; err != nil {
		return nil, fmt.Errorf("failed to list images for project %d: %w", projectID, err)
	}

	if sortOrder == database.SortFilenameNat {
		sort.SliceStable(images, func(i, j int) bool {
			return natsort.Compare(images[i].FileName, images[j].FileName)
		})
	}
	return images, nil
}

// SetProcessedPath records the media-store path of the most recent
// algorithm output for an image
func (r *ProjectImageRepository) SetProcessedPath(imageID int64, processedPath *string) error {
	result := r.DB.Model(&models.ProjectImage{}).
		Where("id = ?", imageID).
		Update("processed_path", processedPath)
	if result.Error != nil {
		return fmt.Errorf("failed to set processed path for image %d: %w", imageID, result.Error)
	}
	return nil
}

// Delete removes an image record. The foreign key cascade removes its
// operation audit records with it.
func (r *ProjectImageRepository) Delete(id int64) error {
	result := r.DB.Delete(&models.ProjectImage{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete image %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
