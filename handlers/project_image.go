package handlers

import (
	"errors"
	"log"
	"net/http"
	"path/filepath"
	"strings"

	"gorm.io/gorm"

	"github.com/visionlab/visionbackend/media"
	"github.com/visionlab/visionbackend/models"
	"github.com/visionlab/visionbackend/repository"
)

const maxUploadBytes = 50 << 20 // 50 MiB

type ProjectImageHandler struct {
	Projects repository.ProjectRepositoryInterface
	Images   repository.ProjectImageRepositoryInterface
	Store    media.Store
}

// getOwnedImage loads the image from the URL and verifies the authenticated
// user owns its project
func (ih *ProjectImageHandler) getOwnedImage(w http.ResponseWriter, r *http.Request) *models.ProjectImage {
	imageID, err := parseIDParam(r, "image_id")
	if err != nil {
		WriteAPIError(w, http.StatusBadRequest, "invalid_id", "Invalid image ID")
		return nil
	}

	img, err := ih.Images.GetByID(imageID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			WriteAPIError(w, http.StatusNotFound, "not_found", "Image not found")
		} else {
			log.Printf("Error fetching image %d: %v", imageID, err)
			WriteAPIError(w, http.StatusInternalServerError, "internal_error", "Failed to fetch image")
		}
		return nil
	}

	project, err := ih.Projects.GetByID(img.ProjectID)
	if err != nil {
		log.Printf("Error fetching project %d for image %d: %v", img.ProjectID, imageID, err)
		WriteAPIError(w, http.StatusInternalServerError, "internal_error", "Failed to fetch image")
		return nil
	}
	user, ok := UserFromContext(r.Context())
	if !ok || user.ID != project.OwnerID {
		WriteAPIError(w, http.StatusForbidden, "forbidden", "You do not own this image")
		return nil
	}
	return img
}

// UploadImage accepts a multipart upload, stores the file under a generated
// name, and extracts EXIF metadata into the image record
func (ih *ProjectImageHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	projectID, err := parseIDParam(r, "project_id")
	if err != nil {
		WriteAPIError(w, http.StatusBadRequest, "invalid_id", "Invalid project ID")
		return
	}

	project, err := ih.Projects.GetByID(projectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			WriteAPIError(w, http.StatusNotFound, "not_found", "Project not found")
		} else {
			WriteAPIError(w, http.StatusInternalServerError, "internal_error", "Failed to fetch project")
		}
		return
	}
	user, ok := UserFromContext(r.Context())
	if !ok || user.ID != project.OwnerID {
		WriteAPIError(w, http.StatusForbidden, "forbidden", "You do not own this project")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		WriteAPIError(w, http.StatusBadRequest, "invalid_upload", "Missing or invalid 'file' form field")
		return
	}
	defer file.Close()

	originalName := filepath.Base(header.Filename)
	if !media.IsRasterImage(originalName) {
		WriteAPIError(w, http.StatusBadRequest, "unsupported_type", "Unsupported image type")
		return
	}

	ext := strings.ToLower(filepath.Ext(originalName))
	relPath, err := ih.Store.Save(media.AssetTypeUpload, "", ext, file)
	if err != nil {
		log.Printf("Error storing upload '%s': %v", originalName, err)
		WriteAPIError(w, http.StatusInternalServerError, "internal_error", "Failed to store upload")
		return
	}

	img := &models.ProjectImage{
		ProjectID:   projectID,
		FileName:    originalName,
		StoragePath: relPath,
	}

	fullPath, err := ih.Store.GetFullPath(relPath)
	if err == nil {
		if meta, metaErr := media.ExtractMetadata(fullPath); metaErr == nil {
			img.Width = meta.Width
			img.Height = meta.Height
			img.CameraMake = meta.CameraMake
			img.CameraModel = meta.CameraModel
			img.TakenAt = meta.TakenAt
		} else {
			log.Printf("Warning: metadata extraction failed for %s: %v", originalName, metaErr)
		}
	}

	if err := ih.Images.Create(img); err != nil {
		log.Printf("Error creating image record for '%s': %v", originalName, err)
		if delErr := ih.Store.Delete(relPath); delErr != nil {
			log.Printf("Warning: failed to clean up stored file %s: %v", relPath, delErr)
		}
		WriteAPIError(w, http.StatusInternalServerError, "internal_error", "Failed to create image record")
		return
	}

	writeJSON(w, http.StatusCreated, img)
}

// ListImages lists a project's images, honoring the ?sort query parameter
func (ih *ProjectImageHandler) ListImages(w http.ResponseWriter, r *http.Request) {
	projectID, err := parseIDParam(r, "project_id")
	if err != nil {
		WriteAPIError(w, http.StatusBadRequest, "invalid_id", "Invalid project ID")
		return
	}
	project, err := ih.Projects.GetByID(projectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			WriteAPIError(w, http.StatusNotFound, "not_found", "Project not found")
		} else {
			WriteAPIError(w, http.StatusInternalServerError, "internal_error", "Failed to fetch project")
		}
		return
	}
	user, ok := UserFromContext(r.Context())
	if !ok || user.ID != project.OwnerID {
		WriteAPIError(w, http.StatusForbidden, "forbidden", "You do not own this project")
		return
	}

	images, err := ih.Images.ListByProject(projectID, r.URL.Query().Get("sort"))
	if err != nil {
		log.Printf("Error listing images for project %d: %v", projectID, err)
		WriteAPIError(w, http.StatusInternalServerError, "internal_error", "Failed to list images")
		return
	}
	writeJSON(w, http.StatusOK, images)
}

func (ih *ProjectImageHandler) GetImage(w http.ResponseWriter, r *http.Request) {
	img := ih.getOwnedImage(w, r)
	if img == nil {
		return
	}
	writeJSON(w, http.StatusOK, img)
}

// DeleteImage removes the image record (cascading to its operation audit
// records) and its stored files
func (ih *ProjectImageHandler) DeleteImage(w http.ResponseWriter, r *http.Request) {
	img := ih.getOwnedImage(w, r)
	if img == nil {
		return
	}

	if err := ih.Images.Delete(img.ID); err != nil {
		log.Printf("Error deleting image %d: %v", img.ID, err)
		WriteAPIError(w, http.StatusInternalServerError, "internal_error", "Failed to delete image")
		return
	}

	if err := ih.Store.Delete(img.StoragePath); err != nil {
		log.Printf("Warning: failed to delete stored file %s: %v", img.StoragePath, err)
	}
	if img.ProcessedPath != nil {
		if err := ih.Store.Delete(*img.ProcessedPath); err != nil {
			log.Printf("Warning: failed to delete processed file %s: %v", *img.ProcessedPath, err)
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Image deleted"})
}
