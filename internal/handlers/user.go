package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/vireo-pm/vireo/internal/models"
	"github.com/vireo-pm/vireo/internal/repo"
)

// UserHandler serves the admin user-management endpoints.
type UserHandler struct {
	Repo *repo.UserRepo
}

// CreateUser creates an account with an explicit role (default member).
func (h *UserHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Username string `json:"username"`
		Password string `json:"password"`
		Role     string `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		JSONError(w, "invalid JSON", http.StatusBadRequest)
		return
	}

	fields := make(map[string]string)
	if input.Username == "" {
		fields["username"] = "required"
	}
	role := input.Role
	if role == "" {
		role = models.RoleMember
	}
	if !models.ValidRole(role) {
		fields["role"] = "must be admin, manager, or member"
	}
	if role == models.RoleAdmin && input.Password == "" {
		fields["password"] = "required for admin"
	}
	if len(fields) > 0 {
		JSONValidationError(w, "validation failed", fields, http.StatusBadRequest)
		return
	}

	hash := ""
	if input.Password != "" {
		h, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
		if err != nil {
			JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
			return
		}
		hash = string(h)
	}

	user, err := h.Repo.Create(r.Context(), input.Username, hash, role)
	if err != nil {
		if repo.IsUniqueViolation(err) {
			JSONError(w, "username already taken", http.StatusConflict)
			return
		}
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}

	JSON(w, user, http.StatusCreated)
}

// ListUsers returns users with pagination metadata.
func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	limit := 50
	offset := 0
	if l := r.URL.Query().Get("limit"); l != "" {
		if val, err := strconv.Atoi(l); err == nil && val > 0 {
			limit = val
		}
	}
	if o := r.URL.Query().Get("offset"); o != "" {
		if val, err := strconv.Atoi(o); err == nil && val >= 0 {
			offset = val
		}
	}

	users, err := h.Repo.List(r.Context(), limit, offset)
	if err != nil {
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}
	total, err := h.Repo.Count(r.Context())
	if err != nil {
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}

	JSON(w, map[string]interface{}{
		"items":  users,
		"total":  total,
		"limit":  limit,
		"offset": offset,
	}, http.StatusOK)
}

// GetUser returns one user by id.
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		JSONError(w, "invalid user id", http.StatusBadRequest)
		return
	}

	user, err := h.Repo.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			JSONError(w, "user not found", http.StatusNotFound)
			return
		}
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}
	JSON(w, user, http.StatusOK)
}

// UpdateUser changes username and role.
func (h *UserHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		JSONError(w, "invalid user id", http.StatusBadRequest)
		return
	}

	var input struct {
		Username string `json:"username"`
		Role     string `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		JSONError(w, "invalid JSON", http.StatusBadRequest)
		return
	}

	fields := make(map[string]string)
	if input.Username == "" {
		fields["username"] = "required"
	}
	if input.Role != "" && !models.ValidRole(input.Role) {
		fields["role"] = "must be admin, manager, or member"
	}
	if len(fields) > 0 {
		JSONValidationError(w, "validation failed", fields, http.StatusBadRequest)
		return
	}

	role := input.Role
	if role == "" {
		current, err := h.Repo.GetByID(r.Context(), id)
		if err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				JSONError(w, "user not found", http.StatusNotFound)
				return
			}
			JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
			return
		}
		role = current.Role
	}

	user, err := h.Repo.Update(r.Context(), id, input.Username, role)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			JSONError(w, "user not found", http.StatusNotFound)
			return
		}
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}

	JSON(w, user, http.StatusOK)
}

// DeleteUser removes a user by id.
func (h *UserHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		JSONError(w, "invalid user id", http.StatusBadRequest)
		return
	}

	if err := h.Repo.Delete(r.Context(), id); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			JSONError(w, "user not found", http.StatusNotFound)
			return
		}
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
