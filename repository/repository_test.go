package repository

import (
	"path/filepath"
	"testing"

	"gorm.io/gorm"

	"github.com/visionlab/visionbackend/database"
	"github.com/visionlab/visionbackend/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := database.InitGormDB(dbPath)
	if err != nil {
		t.Fatalf("failed to init test db: %v", err)
	}
	if err := database.AutoMigrateModels(db); err != nil {
		t.Fatalf("failed to migrate test db: %v", err)
	}
	return db
}

func createTestUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()
	user := &models.User{Username: username}
	if err := user.SetPassword("test-password"); err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}
	if err := NewUserRepository(db).Create(user); err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	return user
}

func createTestProject(t *testing.T, db *gorm.DB, ownerID int64, name string) *models.Project {
	t.Helper()
	project := &models.Project{Name: name, OwnerID: ownerID}
	if err := NewProjectRepository(db).Create(project); err != nil {
		t.Fatalf("failed to create project: %v", err)
	}
	return project
}

func createTestImage(t *testing.T, db *gorm.DB, projectID int64, fileName string) *models.ProjectImage {
	t.Helper()
	img := &models.ProjectImage{
		ProjectID:   projectID,
		FileName:    fileName,
		StoragePath: "uploads/" + fileName,
	}
	if err := NewProjectImageRepository(db).Create(img); err != nil {
		t.Fatalf("failed to create image: %v", err)
	}
	return img
}
