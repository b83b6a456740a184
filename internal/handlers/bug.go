package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/vireo-pm/vireo/internal/audit"
	"github.com/vireo-pm/vireo/internal/codes"
	"github.com/vireo-pm/vireo/internal/metrics"
	"github.com/vireo-pm/vireo/internal/middleware"
	"github.com/vireo-pm/vireo/internal/models"
	"github.com/vireo-pm/vireo/internal/repo"
)

// codeGenAttempts bounds the generate-insert retry loop on code collisions.
const codeGenAttempts = 3

// BugHandler serves the bug CRUD endpoints.
type BugHandler struct {
	Repo     *repo.BugRepo
	Projects *repo.ProjectRepo
	Recorder *audit.Recorder
}

type createBugInput struct {
	Summary     string `json:"summary" validate:"required,min=1,max=255"`
	Description string `json:"description" validate:"max=4000"`
	Priority    string `json:"priority"`
	Type        string `json:"type"`
	ProjectID   *int   `json:"project_id"`
}

// CreateBug creates a bug with a generated sequential code. The code prefix
// is the project's code when a project is given, else the fallback prefix.
// A collision on the unique code column triggers regeneration; after
// codeGenAttempts tries the caller gets 409 and may retry.
func (h *BugHandler) CreateBug(w http.ResponseWriter, r *http.Request) {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	var input createBugInput
	if err := dec.Decode(&input); err != nil {
		JSONError(w, "invalid JSON", http.StatusBadRequest)
		return
	}

	validate := validator.New()
	if err := validate.Struct(input); err != nil {
		JSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	fields := make(map[string]string)
	if input.Priority == "" {
		input.Priority = models.BugPriorityMedium
	} else if !models.ValidBugPriority(input.Priority) {
		fields["priority"] = "unknown priority"
	}
	if input.Type == "" {
		input.Type = models.BugTypeBug
	} else if !models.ValidBugType(input.Type) {
		fields["type"] = "unknown type"
	}
	if len(fields) > 0 {
		JSONValidationError(w, "validation failed", fields, http.StatusBadRequest)
		return
	}

	ident, ok := middleware.GetIdentity(r.Context())
	if !ok {
		JSONError(w, "missing identity", http.StatusUnauthorized)
		return
	}

	prefix := codes.FallbackBugPrefix
	var project *models.Project
	if input.ProjectID != nil {
		var err error
		project, err = h.Projects.GetByID(r.Context(), *input.ProjectID)
		if err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				JSONError(w, "project not found", http.StatusNotFound)
				return
			}
			JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
			return
		}
		prefix = project.Code
	}

	var bug *models.Bug
	for attempt := 0; attempt < codeGenAttempts; attempt++ {
		code, err := codes.Next(r.Context(), h.Repo, prefix)
		if err != nil {
			JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
			return
		}
		bug, err = h.Repo.Create(r.Context(), models.Bug{
			Code:        code,
			Summary:     input.Summary,
			Description: input.Description,
			Status:      models.BugStatusOpen,
			Priority:    input.Priority,
			Type:        input.Type,
			ProjectID:   input.ProjectID,
			ReporterID:  ident.UserID,
		})
		if err == nil {
			break
		}
		if repo.IsUniqueViolation(err) {
			// Lost the count-then-insert race; regenerate and try again.
			metrics.IncCodeConflict()
			bug = nil
			continue
		}
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}
	if bug == nil {
		JSONError(w, "bug code conflict, please retry", http.StatusConflict)
		return
	}

	if input.ProjectID != nil {
		uid := ident.UserID
		h.Recorder.Record(r.Context(), &uid, models.AuditActionCreate, models.EntityBug, bug.ID,
			fmt.Sprintf("Bug %q created in project %s", bug.Code, project.Code))
	}

	JSON(w, bug, http.StatusCreated)
}

type updateBugInput struct {
	Summary     *string `json:"summary"`
	Description *string `json:"description"`
	Status      *string `json:"status"`
	Priority    *string `json:"priority"`
	Type        *string `json:"type"`
}

// UpdateBug applies a partial update. The pre-write snapshot decides the audit
// message: a status transition gets a specific message, anything else the
// generic one.
func (h *BugHandler) UpdateBug(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		JSONError(w, "invalid bug id", http.StatusBadRequest)
		return
	}

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	var input updateBugInput
	if err := dec.Decode(&input); err != nil {
		JSONError(w, "invalid JSON", http.StatusBadRequest)
		return
	}

	fields := make(map[string]string)
	if input.Summary != nil && *input.Summary == "" {
		fields["summary"] = "must not be empty"
	}
	if input.Status != nil && !models.ValidBugStatus(*input.Status) {
		fields["status"] = "unknown status"
	}
	if input.Priority != nil && !models.ValidBugPriority(*input.Priority) {
		fields["priority"] = "unknown priority"
	}
	if input.Type != nil && !models.ValidBugType(*input.Type) {
		fields["type"] = "unknown type"
	}
	if len(fields) > 0 {
		JSONValidationError(w, "validation failed", fields, http.StatusBadRequest)
		return
	}

	snapshot, err := h.Repo.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			JSONError(w, "bug not found", http.StatusNotFound)
			return
		}
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}

	// Decide the audit message from the pre-write snapshot.
	details := fmt.Sprintf("Bug %q: details updated", snapshot.Code)
	if input.Status != nil && *input.Status != snapshot.Status {
		details = fmt.Sprintf("Bug %q: Status changed from %s to %s", snapshot.Code, snapshot.Status, *input.Status)
	}

	merged := *snapshot
	if input.Summary != nil {
		merged.Summary = *input.Summary
	}
	if input.Description != nil {
		merged.Description = *input.Description
	}
	if input.Status != nil {
		merged.Status = *input.Status
	}
	if input.Priority != nil {
		merged.Priority = *input.Priority
	}
	if input.Type != nil {
		merged.Type = *input.Type
	}

	bug, err := h.Repo.Update(r.Context(), id, merged.Summary, merged.Description, merged.Status, merged.Priority, merged.Type)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			JSONError(w, "bug not found", http.StatusNotFound)
			return
		}
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}

	if ident, ok := middleware.GetIdentity(r.Context()); ok {
		uid := ident.UserID
		h.Recorder.Record(r.Context(), &uid, models.AuditActionUpdate, models.EntityBug, bug.ID, details)
	}

	JSON(w, bug, http.StatusOK)
}

// GetBug returns one bug by id.
func (h *BugHandler) GetBug(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		JSONError(w, "invalid bug id", http.StatusBadRequest)
		return
	}

	bug, err := h.Repo.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			JSONError(w, "bug not found", http.StatusNotFound)
			return
		}
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}
	JSON(w, bug, http.StatusOK)
}

// ListBugs returns bugs, newest first. Query: project_id, status, limit, offset.
func (h *BugHandler) ListBugs(w http.ResponseWriter, r *http.Request) {
	limit := 50
	offset := 0
	if l := r.URL.Query().Get("limit"); l != "" {
		if val, err := strconv.Atoi(l); err == nil && val > 0 && val <= 200 {
			limit = val
		}
	}
	if o := r.URL.Query().Get("offset"); o != "" {
		if val, err := strconv.Atoi(o); err == nil && val >= 0 {
			offset = val
		}
	}

	var projectID *int
	if p := r.URL.Query().Get("project_id"); p != "" {
		val, err := strconv.Atoi(p)
		if err != nil {
			JSONError(w, "invalid project_id", http.StatusBadRequest)
			return
		}
		projectID = &val
	}
	status := r.URL.Query().Get("status")
	if status != "" && !models.ValidBugStatus(status) {
		JSONError(w, "unknown status", http.StatusBadRequest)
		return
	}

	bugs, err := h.Repo.List(r.Context(), projectID, status, limit, offset)
	if err != nil {
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}
	JSON(w, bugs, http.StatusOK)
}

// DeleteBug removes a bug by id.
func (h *BugHandler) DeleteBug(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		JSONError(w, "invalid bug id", http.StatusBadRequest)
		return
	}

	snapshot, err := h.Repo.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			JSONError(w, "bug not found", http.StatusNotFound)
			return
		}
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}

	if err := h.Repo.Delete(r.Context(), id); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			JSONError(w, "bug not found", http.StatusNotFound)
			return
		}
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}

	if ident, ok := middleware.GetIdentity(r.Context()); ok {
		uid := ident.UserID
		h.Recorder.Record(r.Context(), &uid, models.AuditActionDelete, models.EntityBug, id,
			fmt.Sprintf("Bug %q deleted", snapshot.Code))
	}

	w.WriteHeader(http.StatusNoContent)
}
