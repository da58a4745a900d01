package repository

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/visionlab/visionbackend/models"
)

// ProjectRepository handles database operations for Project entities
type ProjectRepository struct {
	DB *gorm.DB
}

// NewProjectRepository creates a new instance of ProjectRepository
func NewProjectRepository(db *gorm.DB) *ProjectRepository {
	return &ProjectRepository{DB: db}
}

// Create creates a new project record in the database
func (r *ProjectRepository) Create(project *models.Project) error {
	now := time.Now()
	if project.CreatedAt.IsZero() {
		project.CreatedAt = now
	}
	if project.UpdatedAt.IsZero() {
		project.UpdatedAt = now
	}

	err := r.DB.Create(project).Error
	if err != nil {
		return fmt.Errorf("failed to create project %s: %w", project.Name, err)
	}
	return nil
}

// GetByID retrieves a project by its ID
func (r *ProjectRepository) GetByID(id int64) (*models.Project, error) {
	var project models.Project
	err := r.DB.First(&project, id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get project by ID %d: %w", id, err)
	}
	return &project, nil
}

// ListByOwner retrieves all projects belonging to a user, newest first
func (r *ProjectRepository) ListByOwner(ownerID int64) ([]models.Project, error) {
	var projects []models.Project
	err := r.DB.Where("owner_id = ?", ownerID).Order("created_at DESC").Find(&projects).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list projects for owner %d: %w", ownerID, err)
	}
	return projects, nil
}

// Update changes a project's name and description
func (r *ProjectRepository) Update(projectID int64, name string, description *string) error {
	updates := map[string]interface{}{
		"updated_at": time.Now(),
	}
	if name != "" {
		updates["name"] = name
	}
	if description != nil {
		updates["description"] = *description
	}

	result := r.DB.Model(&models.Project{}).Where("id = ?", projectID).Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("failed to update project %d: %w", projectID, result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Delete removes a project. The foreign key cascade removes its images and
// their operation records with it.
func (r *ProjectRepository) Delete(id int64) error {
	result := r.DB.Delete(&models.Project{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete project %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
