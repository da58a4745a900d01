package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/visionlab/visionbackend/database"
	"github.com/visionlab/visionbackend/models"
	"github.com/visionlab/visionbackend/repository"
	"github.com/visionlab/visionbackend/workers"
)

type OperationHandler struct {
	Projects  repository.ProjectRepositoryInterface
	Images    repository.ProjectImageRepositoryInterface
	Ops       repository.OperationRepositoryInterface
	Processor *workers.OperationProcessor
	SQLDB     *sql.DB // raw connection for the filtered search
}

// imageForUser loads an image by URL param and checks project ownership
func (oh *OperationHandler) imageForUser(w http.ResponseWriter, r *http.Request) *models.ProjectImage {
	imageID, err := parseIDParam(r, "image_id")
	if err != nil {
		WriteAPIError(w, http.StatusBadRequest, "invalid_id", "Invalid image ID")
		return nil
	}
	img, err := oh.Images.GetByID(imageID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			WriteAPIError(w, http.StatusNotFound, "not_found", "Image not found")
		} else {
			WriteAPIError(w, http.StatusInternalServerError, "internal_error", "Failed to fetch image")
		}
		return nil
	}
	project, err := oh.Projects.GetByID(img.ProjectID)
	if err != nil {
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

// ProcessImage queues an algorithm run for an image. The audit record is
// written by the worker when the run finishes, so the response is a 202.
func (oh *OperationHandler) ProcessImage(w http.ResponseWriter, r *http.Request) {
	img := oh.imageForUser(w, r)
	if img == nil {
		return
	}

	var req struct {
		Algorithm  string          `json:"algorithm"`
		Parameters json.RawMessage `json:"parameters"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteAPIError(w, http.StatusBadRequest, "invalid_payload", "Invalid request body")
		return
	}
	if req.Algorithm == "" {
		WriteAPIError(w, http.StatusBadRequest, "algorithm_required", "Missing required field: algorithm")
		return
	}
	if len(req.Algorithm) > models.AlgorithmMaxLength {
		WriteAPIError(w, http.StatusBadRequest, "algorithm_too_long", "Algorithm label exceeds maximum length")
		return
	}

	job := workers.ProcessingJob{
		ImageID:    img.ID,
		Algorithm:  req.Algorithm,
		Parameters: datatypes.JSON(req.Parameters),
	}
	if !oh.Processor.QueueJob(job) {
		WriteAPIError(w, http.StatusConflict, "already_queued", "This algorithm is already queued for the image, or the queue is full")
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]interface{}{
		"queued":    true,
		"image_id":  img.ID,
		"algorithm": req.Algorithm,
	})
}

// ListImageOperations returns an image's audit records, newest first
func (oh *OperationHandler) ListImageOperations(w http.ResponseWriter, r *http.Request) {
	img := oh.imageForUser(w, r)
	if img == nil {
		return
	}

	ops, err := oh.Ops.ListByImage(img.ID)
	if err != nil {
		log.Printf("Error listing operations for image %d: %v", img.ID, err)
		WriteAPIError(w, http.StatusInternalServerError, "internal_error", "Failed to list operations")
		return
	}
	writeJSON(w, http.StatusOK, ops)
}

// GetOperation returns a single audit record
func (oh *OperationHandler) GetOperation(w http.ResponseWriter, r *http.Request) {
	opID, err := parseIDParam(r, "operation_id")
	if err != nil {
		WriteAPIError(w, http.StatusBadRequest, "invalid_id", "Invalid operation ID")
		return
	}

	op, err := oh.Ops.GetByID(opID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			WriteAPIError(w, http.StatusNotFound, "not_found", "Operation not found")
		} else {
			WriteAPIError(w, http.StatusInternalServerError, "internal_error", "Failed to fetch operation")
		}
		return
	}

	// ownership check through the parent image
	img, err := oh.Images.GetByID(op.ProjectImageID)
	if err != nil {
		WriteAPIError(w, http.StatusInternalServerError, "internal_error", "Failed to fetch operation")
		return
	}
	project, err := oh.Projects.GetByID(img.ProjectID)
	if err != nil {
		WriteAPIError(w, http.StatusInternalServerError, "internal_error", "Failed to fetch operation")
		return
	}
	user, ok := UserFromContext(r.Context())
	if !ok || user.ID != project.OwnerID {
		WriteAPIError(w, http.StatusForbidden, "forbidden", "You do not own this operation")
		return
	}

	writeJSON(w, http.StatusOK, op)
}

// SearchOperations runs a filtered search over the audit log.
// Query parameters: image_id, algorithm, success, since, until (RFC 3339),
// limit.
func (oh *OperationHandler) SearchOperations(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		WriteAPIError(w, http.StatusUnauthorized, "unauthorized", "Authentication required")
		return
	}

	q := r.URL.Query()
	filter := database.OperationFilter{
		OwnerID:   &user.ID,
		Algorithm: q.Get("algorithm"),
	}

	if v := q.Get("image_id"); v != "" {
		imageID, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			WriteAPIError(w, http.StatusBadRequest, "invalid_filter", "image_id must be an integer")
			return
		}
		filter.ProjectImageID = &imageID
	}

	if v := q.Get("success"); v != "" {
		success, err := strconv.ParseBool(v)
		if err != nil {
			WriteAPIError(w, http.StatusBadRequest, "invalid_filter", "success must be a boolean")
			return
		}
		filter.Success = &success
	}
	if v := q.Get("since"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			WriteAPIError(w, http.StatusBadRequest, "invalid_filter", "since must be an RFC 3339 timestamp")
			return
		}
		filter.Since = &t
	}
	if v := q.Get("until"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			WriteAPIError(w, http.StatusBadRequest, "invalid_filter", "until must be an RFC 3339 timestamp")
			return
		}
		filter.Until = &t
	}
	if v := q.Get("limit"); v != "" {
		limit, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			WriteAPIError(w, http.StatusBadRequest, "invalid_filter", "limit must be a positive integer")
			return
		}
		filter.Limit = limit
	}

	ops, err := database.SearchOperations(oh.SQLDB, filter)
	if err != nil {
		log.Printf("Error searching operations: %v", err)
		WriteAPIError(w, http.StatusInternalServerError, "internal_error", "Failed to search operations")
		return
	}
	if ops == nil {
		ops = []models.ProcessingOperation{}
	}
	writeJSON(w, http.StatusOK, ops)
}
