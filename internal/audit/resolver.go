// Package audit holds the audit-trail core: the visibility resolver that
// decides which log entries a caller may read, and the best-effort recorder
// that mutation handlers append through.
package audit

import (
	"context"
	"fmt"

	"github.com/vireo-pm/vireo/internal/models"
	"github.com/vireo-pm/vireo/internal/repo"
)

// DefaultPageSize is the number of entries returned when the caller does not
// ask for a specific limit.
const DefaultPageSize = 50

// MaxPageSize caps the limit a caller may request.
const MaxPageSize = 200

// OwnershipIndex answers the scope queries the resolver needs. Implemented by
// *repo.ProjectRepo.
type OwnershipIndex interface {
	OwnedProjectIDs(ctx context.Context, userID int) ([]int, error)
	AssignedProjectIDs(ctx context.Context, userID int) ([]int, error)
	PhaseIDsForProjects(ctx context.Context, projectIDs []int) ([]int, error)
}

// LogStore answers the audit queries. Implemented by *repo.AuditRepo.
type LogStore interface {
	ListRecent(ctx context.Context, limit int) ([]models.AuditEntry, error)
	ListVisible(ctx context.Context, f repo.VisibilityFilter, limit int) ([]models.AuditEntry, error)
}

// Resolver computes the audit entries an identity may read.
type Resolver struct {
	Ownership OwnershipIndex
	Logs      LogStore
}

// NewResolver returns a Resolver over the given stores.
func NewResolver(ownership OwnershipIndex, logs LogStore) *Resolver {
	return &Resolver{Ownership: ownership, Logs: logs}
}

// GetVisibleLogs returns the entries ident may read, newest first, capped at
// limit (DefaultPageSize when limit <= 0, MaxPageSize at most).
//
// Admins see everything. Anyone else sees their own actions plus PROJECT and
// PHASE entries for projects they created or are assigned to as PIC. BUG
// entries never match the scope clauses: a non-admin only sees bug entries
// they authored themselves, even as PIC of the bug's project. That asymmetry
// is inherited behavior kept on purpose pending a product decision.
func (r *Resolver) GetVisibleLogs(ctx context.Context, ident models.Identity, limit int) ([]models.AuditEntry, error) {
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	if ident.IsAdmin() {
		entries, err := r.Logs.ListRecent(ctx, limit)
		if err != nil {
			return nil, fmt.Errorf("list audit entries: %w", err)
		}
		return entries, nil
	}

	scope, err := r.resolveScope(ctx, ident.UserID)
	if err != nil {
		return nil, err
	}

	entries, err := r.Logs.ListVisible(ctx, repo.VisibilityFilter{
		UserID:     ident.UserID,
		ProjectIDs: scope.ProjectIDs,
		PhaseIDs:   scope.PhaseIDs,
	}, limit)
	if err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}
	return entries, nil
}

// Scope is the set of project and phase ids a user may see audit entries for.
type Scope struct {
	ProjectIDs []int
	PhaseIDs   []int
}

// resolveScope unions owned and assigned project ids, then expands to phases.
// No phase query is issued when the project set is empty.
func (r *Resolver) resolveScope(ctx context.Context, userID int) (Scope, error) {
	owned, err := r.Ownership.OwnedProjectIDs(ctx, userID)
	if err != nil {
		return Scope{}, fmt.Errorf("owned projects: %w", err)
	}
	assigned, err := r.Ownership.AssignedProjectIDs(ctx, userID)
	if err != nil {
		return Scope{}, fmt.Errorf("assigned projects: %w", err)
	}

	seen := make(map[int]bool, len(owned)+len(assigned))
	var projectIDs []int
	for _, id := range append(owned, assigned...) {
		if !seen[id] {
			seen[id] = true
			projectIDs = append(projectIDs, id)
		}
	}

	if len(projectIDs) == 0 {
		return Scope{}, nil
	}

	phaseIDs, err := r.Ownership.PhaseIDsForProjects(ctx, projectIDs)
	if err != nil {
		return Scope{}, fmt.Errorf("phases in scope: %w", err)
	}
	return Scope{ProjectIDs: projectIDs, PhaseIDs: phaseIDs}, nil
}
