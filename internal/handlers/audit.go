package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/vireo-pm/vireo/internal/audit"
	"github.com/vireo-pm/vireo/internal/middleware"
)

// AuditHandler serves the audit trail endpoint.
type AuditHandler struct {
	Resolver *audit.Resolver
}

// ListAudit returns the audit entries the caller may see, newest first.
// Query: limit (default 50, cap 200). Scoping happens in the resolver: admins
// get everything, others get their own actions plus their project/phase scope.
func (h *AuditHandler) ListAudit(w http.ResponseWriter, r *http.Request) {
	ident, ok := middleware.GetIdentity(r.Context())
	if !ok {
		JSONError(w, "missing identity", http.StatusUnauthorized)
		return
	}

	limit := 0
	if l := r.URL.Query().Get("limit"); l != "" {
		if val, err := strconv.Atoi(l); err == nil && val > 0 {
			limit = val
		}
	}

	entries, err := h.Resolver.GetVisibleLogs(r.Context(), ident, limit)
	if err != nil {
		slog.Error("audit resolve failed", "user_id", ident.UserID, "error", err)
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}

	JSON(w, entries, http.StatusOK)
}
