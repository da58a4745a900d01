package repository

import (
	"testing"
	"time"

	"github.com/visionlab/visionbackend/database"
)

func TestListByProjectSortOrders(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db, "alice")
	project := createTestProject(t, db, user.ID, "sorting")

	repo := NewProjectImageRepository(db)
	base := time.Now().Add(-time.Hour)
	// deliberately out of natural order: img10 sorts after img2 naturally
	// but before it lexicographically
	names := []string{"img10.jpg", "img2.jpg", "img1.jpg"}
	for i, name := range names {
		img := createTestImage(t, db, project.ID, name)
		img.UploadedAt = base.Add(time.Duration(i) * time.Minute)
		if err := db.Save(img).Error; err != nil {
			t.Fatalf("backdate %s: %v", name, err)
		}
	}

	cases := []struct {
		sortOrder string
		want      []string
	}{
		{database.SortFilenameAsc, []string{"img1.jpg", "img10.jpg", "img2.jpg"}},
		{database.SortFilenameNat, []string{"img1.jpg", "img2.jpg", "img10.jpg"}},
		{database.SortDateAsc, []string{"img10.jpg", "img2.jpg", "img1.jpg"}},
		{database.SortDateDesc, []string{"img1.jpg", "img2.jpg", "img10.jpg"}},
	}
	for _, tc := range cases {
		images, err := repo.ListByProject(project.ID, tc.sortOrder)
		if err != nil {
			t.Fatalf("list %s: %v", tc.sortOrder, err)
		}
		if len(images) != len(tc.want) {
			t.Fatalf("%s: expected %d images, got %d", tc.sortOrder, len(tc.want), len(images))
		}
		for i, want := range tc.want {
			if images[i].FileName != want {
				t.Errorf("%s position %d: expected %s, got %s", tc.sortOrder, i, want, images[i].FileName)
			}
		}
	}
}

func TestListByProjectInvalidSortFallsBack(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db, "alice")
	project := createTestProject(t, db, user.ID, "fallback")
	createTestImage(t, db, project.ID, "a.jpg")

	repo := NewProjectImageRepository(db)
	images, err := repo.ListByProject(project.ID, "bogus_order")
	if err != nil {
		t.Fatalf("list with invalid sort: %v", err)
	}
	if len(images) != 1 {
		t.Fatalf("expected 1 image, got %d", len(images))
	}
}

func TestSetProcessedPath(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db, "alice")
	project := createTestProject(t, db, user.ID, "processed")
	img := createTestImage(t, db, project.ID, "a.jpg")

	repo := NewProjectImageRepository(db)
	resultPath := "results/out.jpg"
	if err := repo.SetProcessedPath(img.ID, &resultPath); err != nil {
		t.Fatalf("set processed path: %v", err)
	}

	stored, err := repo.GetByID(img.ID)
	if err != nil {
		t.Fatalf("get by id: %v", err)
	}
	if stored.ProcessedPath == nil || *stored.ProcessedPath != resultPath {
		t.Errorf("expected processed path %q, got %v", resultPath, stored.ProcessedPath)
	}
}
