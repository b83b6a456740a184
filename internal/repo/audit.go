package repo

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/vireo-pm/vireo/internal/models"
)

// AuditRepo persists audit log entries. The table is append-only: entries are
// never updated or deleted.
type AuditRepo struct {
	DB *sql.DB
}

// NewAuditRepo returns a new AuditRepo.
func NewAuditRepo(db *sql.DB) *AuditRepo {
	return &AuditRepo{DB: db}
}

const auditColumns = `id, user_id, action, entity_type, entity_id, COALESCE(details,''), created_at`

// Insert appends one audit entry. userID nil denotes a system-originated action.
func (r *AuditRepo) Insert(ctx context.Context, userID *int, action, entityType string, entityID int, details string) error {
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO audit_log (user_id, action, entity_type, entity_id, details) VALUES ($1, $2, $3, $4, $5)`,
		userID, action, entityType, entityID, details,
	)
	return err
}

// ListRecent returns the most recent entries unfiltered, newest first.
// Admin-only path.
func (r *AuditRepo) ListRecent(ctx context.Context, limit int) ([]models.AuditEntry, error) {
	query := `SELECT ` + auditColumns + ` FROM audit_log ORDER BY created_at DESC LIMIT $1`
	rows, err := r.DB.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectEntries(rows)
}

// VisibilityFilter selects the audit entries a non-admin may read: their own
// actions, plus PROJECT/PHASE entries inside their scope. BUG entries match
// only through the own-actions clause.
type VisibilityFilter struct {
	UserID     int
	ProjectIDs []int
	PhaseIDs   []int
}

// ListVisible returns entries matching the filter, newest first. The
// PROJECT/PHASE clauses are only emitted when the corresponding id set is
// non-empty.
func (r *AuditRepo) ListVisible(ctx context.Context, f VisibilityFilter, limit int) ([]models.AuditEntry, error) {
	args := []interface{}{f.UserID}
	clauses := []string{"user_id = $1"}

	if len(f.ProjectIDs) > 0 {
		args = append(args, pq.Array(f.ProjectIDs))
		clauses = append(clauses, fmt.Sprintf("(entity_type = '%s' AND entity_id = ANY($%d))", models.EntityProject, len(args)))
	}
	if len(f.PhaseIDs) > 0 {
		args = append(args, pq.Array(f.PhaseIDs))
		clauses = append(clauses, fmt.Sprintf("(entity_type = '%s' AND entity_id = ANY($%d))", models.EntityPhase, len(args)))
	}

	args = append(args, limit)
	query := fmt.Sprintf(
		`SELECT %s FROM audit_log WHERE %s ORDER BY created_at DESC LIMIT $%d`,
		auditColumns, strings.Join(clauses, " OR "), len(args),
	)

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectEntries(rows)
}

func collectEntries(rows *sql.Rows) ([]models.AuditEntry, error) {
	var entries []models.AuditEntry
	for rows.Next() {
		var e models.AuditEntry
		if err := rows.Scan(&e.ID, &e.UserID, &e.Action, &e.EntityType, &e.EntityID, &e.Details, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
