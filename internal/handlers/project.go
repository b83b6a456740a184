package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/vireo-pm/vireo/internal/audit"
	"github.com/vireo-pm/vireo/internal/codes"
	"github.com/vireo-pm/vireo/internal/metrics"
	"github.com/vireo-pm/vireo/internal/middleware"
	"github.com/vireo-pm/vireo/internal/models"
	"github.com/vireo-pm/vireo/internal/repo"
)

// ProjectHandler serves project CRUD and PIC assignment.
type ProjectHandler struct {
	Repo     *repo.ProjectRepo
	Recorder *audit.Recorder
}

type createProjectInput struct {
	Name        string `json:"name" validate:"required,min=1,max=255"`
	Code        string `json:"code" validate:"omitempty,min=1,max=20"`
	Description string `json:"description" validate:"max=4000"`
}

// CreateProject creates a project owned by the caller. When no code is given
// one is generated under the PRJ prefix; a provided code must be unique.
func (h *ProjectHandler) CreateProject(w http.ResponseWriter, r *http.Request) {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	var input createProjectInput
	if err := dec.Decode(&input); err != nil {
		JSONError(w, "invalid JSON", http.StatusBadRequest)
		return
	}

	validate := validator.New()
	if err := validate.Struct(input); err != nil {
		JSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	ident, ok := middleware.GetIdentity(r.Context())
	if !ok {
		JSONError(w, "missing identity", http.StatusUnauthorized)
		return
	}

	generate := input.Code == ""
	code := strings.ToUpper(strings.TrimSpace(input.Code))

	var project *models.Project
	for attempt := 0; attempt < codeGenAttempts; attempt++ {
		if generate {
			var err error
			code, err = codes.Next(r.Context(), h.Repo, codes.ProjectPrefix)
			if err != nil {
				JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
				return
			}
		}
		var err error
		project, err = h.Repo.Create(r.Context(), input.Name, code, input.Description, ident.UserID)
		if err == nil {
			break
		}
		if repo.IsUniqueViolation(err) {
			metrics.IncCodeConflict()
			project = nil
			if !generate {
				// Client-chosen code; nothing to regenerate.
				JSONError(w, "project code already taken", http.StatusConflict)
				return
			}
			continue
		}
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}
	if project == nil {
		JSONError(w, "project code conflict, please retry", http.StatusConflict)
		return
	}

	uid := ident.UserID
	h.Recorder.Record(r.Context(), &uid, models.AuditActionCreate, models.EntityProject, project.ID,
		fmt.Sprintf("Project %q (%s) created", project.Name, project.Code))

	JSON(w, project, http.StatusCreated)
}

// ListProjects returns projects, newest first.
func (h *ProjectHandler) ListProjects(w http.ResponseWriter, r *http.Request) {
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

	projects, err := h.Repo.List(r.Context(), limit, offset)
	if err != nil {
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}
	JSON(w, projects, http.StatusOK)
}

// GetProject returns one project by id, including its assignee ids.
func (h *ProjectHandler) GetProject(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		JSONError(w, "invalid project id", http.StatusBadRequest)
		return
	}

	project, err := h.Repo.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			JSONError(w, "project not found", http.StatusNotFound)
			return
		}
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}

	assignees, err := h.Repo.Assignees(r.Context(), id)
	if err != nil {
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}

	JSON(w, map[string]interface{}{
		"project":   project,
		"assignees": assignees,
	}, http.StatusOK)
}

type updateProjectInput struct {
	Name        string `json:"name" validate:"required,min=1,max=255"`
	Description string `json:"description" validate:"max=4000"`
}

// UpdateProject changes name and description. The code never changes: bug
// codes already minted under it stay valid.
func (h *ProjectHandler) UpdateProject(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		JSONError(w, "invalid project id", http.StatusBadRequest)
		return
	}

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	var input updateProjectInput
	if err := dec.Decode(&input); err != nil {
		JSONError(w, "invalid JSON", http.StatusBadRequest)
		return
	}

	validate := validator.New()
	if err := validate.Struct(input); err != nil {
		JSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	project, err := h.Repo.Update(r.Context(), id, input.Name, input.Description)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			JSONError(w, "project not found", http.StatusNotFound)
			return
		}
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}

	if ident, ok := middleware.GetIdentity(r.Context()); ok {
		uid := ident.UserID
		h.Recorder.Record(r.Context(), &uid, models.AuditActionUpdate, models.EntityProject, project.ID,
			fmt.Sprintf("Project %q: details updated", project.Name))
	}

	JSON(w, project, http.StatusOK)
}

// DeleteProject removes a project by id.
func (h *ProjectHandler) DeleteProject(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		JSONError(w, "invalid project id", http.StatusBadRequest)
		return
	}

	snapshot, err := h.Repo.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			JSONError(w, "project not found", http.StatusNotFound)
			return
		}
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}

	if err := h.Repo.Delete(r.Context(), id); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			JSONError(w, "project not found", http.StatusNotFound)
			return
		}
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}

	if ident, ok := middleware.GetIdentity(r.Context()); ok {
		uid := ident.UserID
		h.Recorder.Record(r.Context(), &uid, models.AuditActionDelete, models.EntityProject, id,
			fmt.Sprintf("Project %q (%s) deleted", snapshot.Name, snapshot.Code))
	}

	w.WriteHeader(http.StatusNoContent)
}

// ReplaceAssignees sets the full PIC list for a project.
func (h *ProjectHandler) ReplaceAssignees(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		JSONError(w, "invalid project id", http.StatusBadRequest)
		return
	}

	var input struct {
		UserIDs []int `json:"user_ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		JSONError(w, "invalid JSON", http.StatusBadRequest)
		return
	}

	project, err := h.Repo.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			JSONError(w, "project not found", http.StatusNotFound)
			return
		}
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}

	if err := h.Repo.ReplaceAssignees(r.Context(), id, input.UserIDs); err != nil {
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}

	if ident, ok := middleware.GetIdentity(r.Context()); ok {
		uid := ident.UserID
		h.Recorder.Record(r.Context(), &uid, models.AuditActionUpdate, models.EntityProject, id,
			fmt.Sprintf("Project %q: assignees updated", project.Name))
	}

	JSON(w, map[string]interface{}{"project_id": id, "assignees": input.UserIDs}, http.StatusOK)
}
