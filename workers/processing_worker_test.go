package workers

import (
	"bytes"
	"image/color"
	"path/filepath"
	"testing"
	"time"

	"github.com/disintegration/imaging"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/visionlab/visionbackend/database"
	"github.com/visionlab/visionbackend/media"
	"github.com/visionlab/visionbackend/models"
	"github.com/visionlab/visionbackend/repository"
)

type workerFixture struct {
	db        *gorm.DB
	images    *repository.ProjectImageRepository
	ops       *repository.OperationRepository
	processor *OperationProcessor
	image     *models.ProjectImage
}

func setupWorkerFixture(t *testing.T) *workerFixture {
	t.Helper()
	dir := t.TempDir()

	db, err := database.InitGormDB(filepath.Join(dir, "worker.db"))
	if err != nil {
		t.Fatalf("init db: %v", err)
	}
	if err := database.AutoMigrateModels(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	store, err := media.NewLocalStorage(filepath.Join(dir, "media"), map[media.AssetType]string{
		media.AssetTypeUpload: "uploads",
		media.AssetTypeResult: "results",
	})
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	// a real source image for the algorithms to work on
	src := imaging.New(16, 16, color.NRGBA{R: 180, G: 40, B: 40, A: 255})
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, src, imaging.PNG); err != nil {
		t.Fatalf("encode source image: %v", err)
	}
	relPath, err := store.Save(media.AssetTypeUpload, "src.png", "", &buf)
	if err != nil {
		t.Fatalf("store source image: %v", err)
	}

	user := &models.User{Username: "alice"}
	if err := user.SetPassword("test-password"); err != nil {
		t.Fatalf("hash password: %v", err)
	}
	if err := repository.NewUserRepository(db).Create(user); err != nil {
		t.Fatalf("create user: %v", err)
	}
	project := &models.Project{Name: "worker-test", OwnerID: user.ID}
	if err := repository.NewProjectRepository(db).Create(project); err != nil {
		t.Fatalf("create project: %v", err)
	}

	images := repository.NewProjectImageRepository(db)
	img := &models.ProjectImage{ProjectID: project.ID, FileName: "src.png", StoragePath: relPath}
	if err := images.Create(img); err != nil {
		t.Fatalf("create image record: %v", err)
	}

	ops := repository.NewOperationRepository(db)
	processor := NewOperationProcessor(images, ops, media.NewProcessor(store), nil, 10, 1)
	t.Cleanup(processor.Stop)

	return &workerFixture{db: db, images: images, ops: ops, processor: processor, image: img}
}

func waitForOperations(t *testing.T, fx *workerFixture, want int) []models.ProcessingOperation {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		ops, err := fx.ops.ListByImage(fx.image.ID)
		if err != nil {
			t.Fatalf("list operations: %v", err)
		}
		if len(ops) >= want {
			return ops
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d operation record(s)", want)
	return nil
}

func TestWorkerRecordsSuccessfulOperation(t *testing.T) {
	fx := setupWorkerFixture(t)

	queued := fx.processor.QueueJob(ProcessingJob{
		ImageID:    fx.image.ID,
		Algorithm:  media.AlgGrayscale,
		Parameters: datatypes.JSON(`{}`),
	})
	if !queued {
		t.Fatalf("expected job to queue")
	}

	ops := waitForOperations(t, fx, 1)
	op := ops[0]
	if op.Algorithm != media.AlgGrayscale {
		t.Errorf("expected algorithm %s, got %s", media.AlgGrayscale, op.Algorithm)
	}
	if !op.Success {
		t.Errorf("expected success, got error: %v", op.ErrorMessage)
	}
	if op.ErrorMessage != nil {
		t.Errorf("expected no error message, got %q", *op.ErrorMessage)
	}
	if op.ExecutionTimeMs < 0 {
		t.Errorf("expected non-negative execution time, got %d", op.ExecutionTimeMs)
	}

	stored, err := fx.images.GetByID(fx.image.ID)
	if err != nil {
		t.Fatalf("reload image: %v", err)
	}
	if stored.ProcessedPath == nil {
		t.Errorf("expected processed path to be recorded")
	}
}

func TestWorkerRecordsFailedOperation(t *testing.T) {
	fx := setupWorkerFixture(t)

	queued := fx.processor.QueueJob(ProcessingJob{
		ImageID:   fx.image.ID,
		Algorithm: "no_such_algorithm",
	})
	if !queued {
		t.Fatalf("expected job to queue")
	}

	ops := waitForOperations(t, fx, 1)
	op := ops[0]
	if op.Success {
		t.Errorf("expected failure for unknown algorithm")
	}
	if op.ErrorMessage == nil || *op.ErrorMessage == "" {
		t.Errorf("expected an error message on the audit record")
	}
	// failed runs still record the parameters default
	if string(op.Parameters) != "{}" {
		t.Errorf("expected empty parameters document, got %s", op.Parameters)
	}
}

func TestWorkerRecordsParameterValidationFailure(t *testing.T) {
	fx := setupWorkerFixture(t)

	params := datatypes.JSON(`{"sigma": -2}`)
	queued := fx.processor.QueueJob(ProcessingJob{
		ImageID:    fx.image.ID,
		Algorithm:  media.AlgBlur,
		Parameters: params,
	})
	if !queued {
		t.Fatalf("expected job to queue")
	}

	ops := waitForOperations(t, fx, 1)
	op := ops[0]
	if op.Success {
		t.Errorf("expected failure for invalid sigma")
	}
	// the submitted parameters are preserved on the audit record
	if string(op.Parameters) != string(params) {
		t.Errorf("expected parameters %s, got %s", params, op.Parameters)
	}
}

func TestQueueJobDeduplicatesPending(t *testing.T) {
	// stop the workers immediately so queued jobs stay pending
	processor := NewOperationProcessor(nil, nil, nil, nil, 10, 1)
	processor.Stop()

	job := ProcessingJob{ImageID: 42, Algorithm: media.AlgInvert}
	if !processor.QueueJob(job) {
		t.Fatalf("expected first enqueue to succeed")
	}
	if processor.QueueJob(job) {
		t.Errorf("expected duplicate enqueue to be rejected")
	}
	if !processor.QueueJob(ProcessingJob{ImageID: 42, Algorithm: media.AlgBlur}) {
		t.Errorf("expected a different algorithm for the same image to queue")
	}
}
