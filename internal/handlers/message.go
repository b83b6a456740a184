package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/vireo-pm/vireo/internal/middleware"
	"github.com/vireo-pm/vireo/internal/repo"
)

// MessageHandler serves the inbox endpoints.
type MessageHandler struct {
	Repo  *repo.MessageRepo
	Users *repo.UserRepo
}

// ListMessages returns the caller's inbox, newest first.
func (h *MessageHandler) ListMessages(w http.ResponseWriter, r *http.Request) {
	ident, ok := middleware.GetIdentity(r.Context())
	if !ok {
		JSONError(w, "missing identity", http.StatusUnauthorized)
		return
	}

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

	msgs, err := h.Repo.ListForRecipient(r.Context(), ident.UserID, limit, offset)
	if err != nil {
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}
	JSON(w, msgs, http.StatusOK)
}

// SendMessage delivers a message from the caller to another user.
func (h *MessageHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	ident, ok := middleware.GetIdentity(r.Context())
	if !ok {
		JSONError(w, "missing identity", http.StatusUnauthorized)
		return
	}

	var input struct {
		RecipientID int    `json:"recipient_id"`
		Subject     string `json:"subject"`
		Body        string `json:"body"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		JSONError(w, "invalid JSON", http.StatusBadRequest)
		return
	}

	fields := make(map[string]string)
	if input.RecipientID == 0 {
		fields["recipient_id"] = "required"
	}
	if input.Body == "" {
		fields["body"] = "required"
	}
	if len(fields) > 0 {
		JSONValidationError(w, "validation failed", fields, http.StatusBadRequest)
		return
	}

	if _, err := h.Users.GetByID(r.Context(), input.RecipientID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			JSONError(w, "recipient not found", http.StatusNotFound)
			return
		}
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}

	senderID := ident.UserID
	msg, err := h.Repo.Send(r.Context(), &senderID, input.RecipientID, input.Subject, input.Body)
	if err != nil {
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}
	JSON(w, msg, http.StatusCreated)
}

// MarkRead marks one of the caller's messages as read.
func (h *MessageHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	ident, ok := middleware.GetIdentity(r.Context())
	if !ok {
		JSONError(w, "missing identity", http.StatusUnauthorized)
		return
	}

	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		JSONError(w, "invalid message id", http.StatusBadRequest)
		return
	}

	if err := h.Repo.MarkRead(r.Context(), id, ident.UserID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			JSONError(w, "message not found", http.StatusNotFound)
			return
		}
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
