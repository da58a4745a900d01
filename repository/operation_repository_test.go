package repository

import (
	"errors"
	"strings"
	"testing"
	"time"

	"gorm.io/datatypes"

	"github.com/visionlab/visionbackend/models"
)

func TestCreateAppliesDefaults(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db, "alice")
	project := createTestProject(t, db, user.ID, "defaults")
	img := createTestImage(t, db, project.ID, "photo.jpg")

	repo := NewOperationRepository(db)
	op := NewOperation(img.ID, "grayscale")
	if err := repo.Create(op); err != nil {
		t.Fatalf("create: %v", err)
	}

	if op.ID == 0 {
		t.Errorf("expected generated id, got 0")
	}
	if op.Timestamp.IsZero() {
		t.Errorf("expected server-assigned timestamp")
	}

	stored, err := repo.GetByID(op.ID)
	if err != nil {
		t.Fatalf("get by id: %v", err)
	}
	if string(stored.Parameters) != "{}" {
		t.Errorf("expected empty parameters document, got %s", stored.Parameters)
	}
	if !stored.Success {
		t.Errorf("expected success default true")
	}
	if stored.ExecutionTimeMs != 0 {
		t.Errorf("expected execution_time_ms default 0, got %d", stored.ExecutionTimeMs)
	}
	if stored.ErrorMessage != nil {
		t.Errorf("expected error_message unset, got %q", *stored.ErrorMessage)
	}
}

func TestCreateStoresFailureAsIs(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db, "alice")
	project := createTestProject(t, db, user.ID, "failures")
	img := createTestImage(t, db, project.ID, "photo.jpg")

	repo := NewOperationRepository(db)
	errMsg := "blur: sigma must be positive, got -1"
	op := NewOperation(img.ID, "blur")
	op.Success = false
	op.ErrorMessage = &errMsg
	op.ExecutionTimeMs = 12
	op.Parameters = datatypes.JSON(`{"sigma":-1}`)
	if err := repo.Create(op); err != nil {
		t.Fatalf("create: %v", err)
	}

	stored, err := repo.GetByID(op.ID)
	if err != nil {
		t.Fatalf("get by id: %v", err)
	}
	if stored.Success {
		t.Errorf("expected success=false to be persisted")
	}
	if stored.ErrorMessage == nil || *stored.ErrorMessage != errMsg {
		t.Errorf("expected error message %q, got %v", errMsg, stored.ErrorMessage)
	}
	if stored.ExecutionTimeMs != 12 {
		t.Errorf("expected execution_time_ms 12, got %d", stored.ExecutionTimeMs)
	}

	// check the raw column too: a column default would silently swallow an
	// explicit false at insert
	var rawSuccess int
	if err := db.Raw("SELECT success FROM processing_operations WHERE id = ?", op.ID).Scan(&rawSuccess).Error; err != nil {
		t.Fatalf("raw select: %v", err)
	}
	if rawSuccess != 0 {
		t.Errorf("expected success stored as 0, got %d", rawSuccess)
	}
}

func TestCreateRejectsMissingParent(t *testing.T) {
	db := setupTestDB(t)

	repo := NewOperationRepository(db)
	op := NewOperation(99999, "grayscale")
	err := repo.Create(op)
	if err == nil {
		t.Fatalf("expected foreign key violation for missing parent image")
	}
	if !strings.Contains(strings.ToUpper(err.Error()), "FOREIGN KEY") {
		t.Errorf("expected a foreign key error, got: %v", err)
	}
}

func TestCreateValidatesAlgorithm(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db, "alice")
	project := createTestProject(t, db, user.ID, "validation")
	img := createTestImage(t, db, project.ID, "photo.jpg")

	repo := NewOperationRepository(db)

	err := repo.Create(NewOperation(img.ID, ""))
	if !errors.Is(err, models.ErrAlgorithmRequired) {
		t.Errorf("expected ErrAlgorithmRequired, got: %v", err)
	}

	tooLong := strings.Repeat("x", models.AlgorithmMaxLength+1)
	err = repo.Create(NewOperation(img.ID, tooLong))
	if !errors.Is(err, models.ErrAlgorithmTooLong) {
		t.Errorf("expected ErrAlgorithmTooLong, got: %v", err)
	}

	// exactly at the limit is fine
	atLimit := strings.Repeat("x", models.AlgorithmMaxLength)
	if err := repo.Create(NewOperation(img.ID, atLimit)); err != nil {
		t.Errorf("expected algorithm at max length to be accepted, got: %v", err)
	}
}

func TestListByImageNewestFirst(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db, "alice")
	project := createTestProject(t, db, user.ID, "ordering")
	img := createTestImage(t, db, project.ID, "photo.jpg")

	repo := NewOperationRepository(db)
	base := time.Now().Add(-time.Hour)
	labels := []string{"first", "second", "third"}
	for i, label := range labels {
		op := NewOperation(img.ID, label)
		op.Timestamp = base.Add(time.Duration(i) * time.Minute)
		if err := repo.Create(op); err != nil {
			t.Fatalf("create %s: %v", label, err)
		}
	}

	ops, err := repo.ListByImage(img.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(ops) != 3 {
		t.Fatalf("expected 3 operations, got %d", len(ops))
	}
	want := []string{"third", "second", "first"}
	for i, label := range want {
		if ops[i].Algorithm != label {
			t.Errorf("position %d: expected %s, got %s", i, label, ops[i].Algorithm)
		}
	}
}

func TestCascadeDeleteThroughImage(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db, "alice")
	project := createTestProject(t, db, user.ID, "cascade")
	imgA := createTestImage(t, db, project.ID, "a.jpg")
	imgB := createTestImage(t, db, project.ID, "b.jpg")

	opRepo := NewOperationRepository(db)
	for i := 0; i < 3; i++ {
		if err := opRepo.Create(NewOperation(imgA.ID, "grayscale")); err != nil {
			t.Fatalf("create op for a: %v", err)
		}
	}
	if err := opRepo.Create(NewOperation(imgB.ID, "invert")); err != nil {
		t.Fatalf("create op for b: %v", err)
	}

	if err := NewProjectImageRepository(db).Delete(imgA.ID); err != nil {
		t.Fatalf("delete image a: %v", err)
	}

	countA, err := opRepo.CountByImage(imgA.ID)
	if err != nil {
		t.Fatalf("count a: %v", err)
	}
	if countA != 0 {
		t.Errorf("expected 0 operations after parent delete, got %d", countA)
	}

	// records of the other parent are untouched
	countB, err := opRepo.CountByImage(imgB.ID)
	if err != nil {
		t.Fatalf("count b: %v", err)
	}
	if countB != 1 {
		t.Errorf("expected image b operations to survive, got %d", countB)
	}
}

func TestCascadeDeleteThroughProject(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db, "alice")
	project := createTestProject(t, db, user.ID, "transitive")
	img := createTestImage(t, db, project.ID, "a.jpg")

	opRepo := NewOperationRepository(db)
	if err := opRepo.Create(NewOperation(img.ID, "grayscale")); err != nil {
		t.Fatalf("create op: %v", err)
	}

	if err := NewProjectRepository(db).Delete(project.ID); err != nil {
		t.Fatalf("delete project: %v", err)
	}

	var imageCount, opCount int64
	if err := db.Model(&models.ProjectImage{}).Count(&imageCount).Error; err != nil {
		t.Fatalf("count images: %v", err)
	}
	if err := db.Model(&models.ProcessingOperation{}).Count(&opCount).Error; err != nil {
		t.Fatalf("count operations: %v", err)
	}
	if imageCount != 0 || opCount != 0 {
		t.Errorf("expected project delete to cascade, got %d images and %d operations", imageCount, opCount)
	}
}
