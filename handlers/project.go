package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"gorm.io/gorm"

	"github.com/visionlab/visionbackend/config"
	"github.com/visionlab/visionbackend/media"
	"github.com/visionlab/visionbackend/models"
	"github.com/visionlab/visionbackend/repository"
	"github.com/visionlab/visionbackend/utils"
)

type ProjectHandler struct {
	Projects repository.ProjectRepositoryInterface
	Images   repository.ProjectImageRepositoryInterface
	Store    media.Store
	Cfg      config.Config
}

func parseIDParam(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, name), 10, 64)
}

// getOwnedProject loads the project from the URL and verifies the
// authenticated user owns it
func (ph *ProjectHandler) getOwnedProject(w http.ResponseWriter, r *http.Request) *models.Project {
	projectID, err := parseIDParam(r, "project_id")
	if err != nil {
		WriteAPIError(w, http.StatusBadRequest, "invalid_id", "Invalid project ID")
		return nil
	}

	project, err := ph.Projects.GetByID(projectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			WriteAPIError(w, http.StatusNotFound, "not_found", "Project not found")
		} else {
			log.Printf("Error fetching project %d: %v", projectID, err)
			WriteAPIError(w, http.StatusInternalServerError, "internal_error", "Failed to fetch project")
		}
		return nil
	}

	user, ok := UserFromContext(r.Context())
	if !ok || user.ID != project.OwnerID {
		WriteAPIError(w, http.StatusForbidden, "forbidden", "You do not own this project")
		return nil
	}
	return project
}

func (ph *ProjectHandler) CreateProject(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name        string  `json:"name"`
		Description *string `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteAPIError(w, http.StatusBadRequest, "invalid_payload", "Invalid request body")
		return
	}
	if req.Name == "" {
		WriteAPIError(w, http.StatusBadRequest, "name_required", "Missing required field: name")
		return
	}

	user, ok := UserFromContext(r.Context())
	if !ok {
		WriteAPIError(w, http.StatusUnauthorized, "unauthorized", "Authentication required")
		return
	}

	project := &models.Project{
		Name:        req.Name,
		Description: req.Description,
		OwnerID:     user.ID,
	}
	if err := ph.Projects.Create(project); err != nil {
		log.Printf("Error creating project '%s': %v", req.Name, err)
		WriteAPIError(w, http.StatusInternalServerError, "internal_error", "Failed to create project")
		return
	}

	writeJSON(w, http.StatusCreated, project)
}

func (ph *ProjectHandler) ListProjects(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		WriteAPIError(w, http.StatusUnauthorized, "unauthorized", "Authentication required")
		return
	}

	projects, err := ph.Projects.ListByOwner(user.ID)
	if err != nil {
		log.Printf("Error listing projects for user %d: %v", user.ID, err)
		WriteAPIError(w, http.StatusInternalServerError, "internal_error", "Failed to list projects")
		return
	}
	writeJSON(w, http.StatusOK, projects)
}

func (ph *ProjectHandler) GetProject(w http.ResponseWriter, r *http.Request) {
	project := ph.getOwnedProject(w, r)
	if project == nil {
		return
	}
	writeJSON(w, http.StatusOK, project)
}

func (ph *ProjectHandler) UpdateProject(w http.ResponseWriter, r *http.Request) {
	project := ph.getOwnedProject(w, r)
	if project == nil {
		return
	}

	var req struct {
		Name        string  `json:"name"`
		Description *string `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteAPIError(w, http.StatusBadRequest, "invalid_payload", "Invalid request body")
		return
	}

	if err := ph.Projects.Update(project.ID, req.Name, req.Description); err != nil {
		log.Printf("Error updating project %d: %v", project.ID, err)
		WriteAPIError(w, http.StatusInternalServerError, "internal_error", "Failed to update project")
		return
	}

	updated, err := ph.Projects.GetByID(project.ID)
	if err != nil {
		WriteAPIError(w, http.StatusInternalServerError, "internal_error", "Failed to fetch updated project")
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// DeleteProject removes the project row (the FK cascade takes the image and
// operation rows with it) and then cleans stored files up
func (ph *ProjectHandler) DeleteProject(w http.ResponseWriter, r *http.Request) {
	project := ph.getOwnedProject(w, r)
	if project == nil {
		return
	}

	images, err := ph.Images.ListByProject(project.ID, "")
	if err != nil {
		log.Printf("Error listing images before deleting project %d: %v", project.ID, err)
		WriteAPIError(w, http.StatusInternalServerError, "internal_error", "Failed to delete project")
		return
	}

	if err := ph.Projects.Delete(project.ID); err != nil {
		log.Printf("Error deleting project %d: %v", project.ID, err)
		WriteAPIError(w, http.StatusInternalServerError, "internal_error", "Failed to delete project")
		return
	}

	for _, img := range images {
		if err := ph.Store.Delete(img.StoragePath); err != nil {
			log.Printf("Warning: failed to delete stored file %s: %v", img.StoragePath, err)
		}
		if img.ProcessedPath != nil {
			if err := ph.Store.Delete(*img.ProcessedPath); err != nil {
				log.Printf("Warning: failed to delete processed file %s: %v", *img.ProcessedPath, err)
			}
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Project deleted"})
}

// ExportProject builds a zip of the project's uploaded images and streams
// it back
func (ph *ProjectHandler) ExportProject(w http.ResponseWriter, r *http.Request) {
	project := ph.getOwnedProject(w, r)
	if project == nil {
		return
	}

	images, err := ph.Images.ListByProject(project.ID, "")
	if err != nil {
		log.Printf("Error listing images for export of project %d: %v", project.ID, err)
		WriteAPIError(w, http.StatusInternalServerError, "internal_error", "Failed to export project")
		return
	}
	if len(images) == 0 {
		WriteAPIError(w, http.StatusNotFound, "no_images", "Project has no images to export")
		return
	}

	entries := make([]utils.ZipEntry, 0, len(images))
	for _, img := range images {
		fullPath, err := ph.Store.GetFullPath(img.StoragePath)
		if err != nil {
			log.Printf("Warning: skipping image %d in export: %v", img.ID, err)
			continue
		}
		entries = append(entries, utils.ZipEntry{SourcePath: fullPath, ArchiveName: img.FileName})
	}

	zipPath, _, err := utils.CreateProjectZip(project.ID, entries, ph.Cfg.ArchivesPath)
	if err != nil {
		log.Printf("Error creating export zip for project %d: %v", project.ID, err)
		WriteAPIError(w, http.StatusInternalServerError, "internal_error", "Failed to create archive")
		return
	}

	w.Header().Set("Content-Type", "application/zip")
	http.ServeFile(w, r, zipPath)
}
