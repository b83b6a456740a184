package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/vireo-pm/vireo/internal/middleware"
	"github.com/vireo-pm/vireo/internal/models"
	"github.com/vireo-pm/vireo/internal/repo"
)

// AuthHandler serves register/login and the current-user endpoint.
type AuthHandler struct {
	UserRepo    *repo.UserRepo
	Secret      []byte
	ExpireHours int
}

// Register creates a member account. Password is hashed with bcrypt.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		JSONError(w, "invalid JSON", http.StatusBadRequest)
		return
	}

	fields := make(map[string]string)
	if input.Username == "" {
		fields["username"] = "required"
	}
	if input.Password == "" {
		fields["password"] = "required"
	}
	if len(fields) > 0 {
		JSONValidationError(w, "validation failed", fields, http.StatusBadRequest)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}

	user, err := h.UserRepo.Create(r.Context(), input.Username, string(hash), models.RoleMember)
	if err != nil {
		if repo.IsUniqueViolation(err) {
			JSONError(w, "username already taken", http.StatusConflict)
			return
		}
		slog.Error("register failed", "error", err)
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}

	JSON(w, user, http.StatusCreated)
}

// Login verifies credentials and issues a signed JWT carrying the identity.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		JSONError(w, "invalid JSON", http.StatusBadRequest)
		return
	}

	user, err := h.UserRepo.GetByUsername(r.Context(), input.Username)
	if err != nil {
		JSONError(w, "invalid credentials", http.StatusUnauthorized)
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		JSONError(w, "invalid credentials", http.StatusUnauthorized)
		return
	}

	expire := time.Duration(h.ExpireHours) * time.Hour
	if h.ExpireHours <= 0 {
		expire = 24 * time.Hour
	}
	claims := jwt.MapClaims{
		"user_id":  user.ID,
		"username": user.Username,
		"role":     user.Role,
		"exp":      time.Now().Add(expire).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(h.Secret)
	if err != nil {
		JSONError(w, "failed to issue token", http.StatusInternalServerError)
		return
	}

	JSON(w, map[string]interface{}{"token": signed, "user": user}, http.StatusOK)
}

// Me returns the authenticated caller's account.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	ident, ok := middleware.GetIdentity(r.Context())
	if !ok {
		JSONError(w, "missing identity", http.StatusUnauthorized)
		return
	}
	user, err := h.UserRepo.GetByID(r.Context(), ident.UserID)
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
