package repository

import (
	"github.com/visionlab/visionbackend/models"
)

// UserRepositoryInterface defines the methods for user data operations
type UserRepositoryInterface interface {
	Create(user *models.User) error
	GetByID(id int64) (*models.User, error)
	GetByUsername(username string) (*models.User, error)
}

// ProjectRepositoryInterface defines the methods for project data operations
type ProjectRepositoryInterface interface {
	Create(project *models.Project) error
	GetByID(id int64) (*models.Project, error)
	ListByOwner(ownerID int64) ([]models.Project, error)
	Update(projectID int64, name string, description *string) error
	Delete(id int64) error
}

// ProjectImageRepositoryInterface defines the methods for image data operations
type ProjectImageRepositoryInterface interface {
	Create(image *models.ProjectImage) error
	GetByID(id int64) (*models.ProjectImage, error)
	ListByProject(projectID int64, sortOrder string) ([]models.ProjectImage, error)
	SetProcessedPath(imageID int64, processedPath *string) error
	Delete(id int64) error
}

// OperationRepositoryInterface defines the methods for the processing
// operation audit log. There is deliberately no update or delete: records
// are write-once and only disappear through the parent image cascade.
type OperationRepositoryInterface interface {
	Create(op *models.ProcessingOperation) error
	GetByID(id int64) (*models.ProcessingOperation, error)
	ListByImage(imageID int64) ([]models.ProcessingOperation, error)
	CountByImage(imageID int64) (int64, error)
}
