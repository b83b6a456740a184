package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/vireo-pm/vireo/internal/audit"
	"github.com/vireo-pm/vireo/internal/middleware"
	"github.com/vireo-pm/vireo/internal/models"
	"github.com/vireo-pm/vireo/internal/repo"
)

// PhaseHandler serves phase endpoints. Phases live under a project and share
// its audit visibility scope.
type PhaseHandler struct {
	Repo     *repo.PhaseRepo
	Projects *repo.ProjectRepo
	Recorder *audit.Recorder
}

type phaseInput struct {
	Name      string     `json:"name"`
	StartDate *time.Time `json:"start_date"`
	EndDate   *time.Time `json:"end_date"`
}

func (in phaseInput) validate() map[string]string {
	fields := make(map[string]string)
	if in.Name == "" {
		fields["name"] = "required"
	}
	if in.StartDate != nil && in.EndDate != nil && in.EndDate.Before(*in.StartDate) {
		fields["end_date"] = "must not be before start_date"
	}
	return fields
}

// CreatePhase creates a phase under the project in the URL.
func (h *PhaseHandler) CreatePhase(w http.ResponseWriter, r *http.Request) {
	projectID, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		JSONError(w, "invalid project id", http.StatusBadRequest)
		return
	}

	var input phaseInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		JSONError(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	if fields := input.validate(); len(fields) > 0 {
		JSONValidationError(w, "validation failed", fields, http.StatusBadRequest)
		return
	}

	if _, err := h.Projects.GetByID(r.Context(), projectID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			JSONError(w, "project not found", http.StatusNotFound)
			return
		}
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}

	phase, err := h.Repo.Create(r.Context(), projectID, input.Name, input.StartDate, input.EndDate)
	if err != nil {
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}

	if ident, ok := middleware.GetIdentity(r.Context()); ok {
		uid := ident.UserID
		h.Recorder.Record(r.Context(), &uid, models.AuditActionCreate, models.EntityPhase, phase.ID,
			fmt.Sprintf("Phase %q created", phase.Name))
	}

	JSON(w, phase, http.StatusCreated)
}

// ListPhases returns all phases of the project in the URL.
func (h *PhaseHandler) ListPhases(w http.ResponseWriter, r *http.Request) {
	projectID, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		JSONError(w, "invalid project id", http.StatusBadRequest)
		return
	}

	phases, err := h.Repo.ListByProject(r.Context(), projectID)
	if err != nil {
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}
	JSON(w, phases, http.StatusOK)
}

// UpdatePhase changes name and dates.
func (h *PhaseHandler) UpdatePhase(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		JSONError(w, "invalid phase id", http.StatusBadRequest)
		return
	}

	var input phaseInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		JSONError(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	if fields := input.validate(); len(fields) > 0 {
		JSONValidationError(w, "validation failed", fields, http.StatusBadRequest)
		return
	}

	phase, err := h.Repo.Update(r.Context(), id, input.Name, input.StartDate, input.EndDate)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			JSONError(w, "phase not found", http.StatusNotFound)
			return
		}
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}

	if ident, ok := middleware.GetIdentity(r.Context()); ok {
		uid := ident.UserID
		h.Recorder.Record(r.Context(), &uid, models.AuditActionUpdate, models.EntityPhase, phase.ID,
			fmt.Sprintf("Phase %q: details updated", phase.Name))
	}

	JSON(w, phase, http.StatusOK)
}

// DeletePhase removes a phase by id.
func (h *PhaseHandler) DeletePhase(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		JSONError(w, "invalid phase id", http.StatusBadRequest)
		return
	}

	snapshot, err := h.Repo.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			JSONError(w, "phase not found", http.StatusNotFound)
			return
		}
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}

	if err := h.Repo.Delete(r.Context(), id); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			JSONError(w, "phase not found", http.StatusNotFound)
			return
		}
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}

	if ident, ok := middleware.GetIdentity(r.Context()); ok {
		uid := ident.UserID
		h.Recorder.Record(r.Context(), &uid, models.AuditActionDelete, models.EntityPhase, id,
			fmt.Sprintf("Phase %q deleted", snapshot.Name))
	}

	w.WriteHeader(http.StatusNoContent)
}
