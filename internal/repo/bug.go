package repo

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/vireo-pm/vireo/internal/models"
)

// BugRepo persists bugs.
type BugRepo struct {
	DB *sql.DB
}

// NewBugRepo returns a new BugRepo.
func NewBugRepo(db *sql.DB) *BugRepo {
	return &BugRepo{DB: db}
}

const bugColumns = `id, code, summary, description, status, priority, type, project_id, reporter_id, created_at, updated_at`

func scanBug(row interface{ Scan(...interface{}) error }) (*models.Bug, error) {
	b := &models.Bug{}
	err := row.Scan(&b.ID, &b.Code, &b.Summary, &b.Description, &b.Status, &b.Priority,
		&b.Type, &b.ProjectID, &b.ReporterID, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return b, nil
}

// Create inserts a new bug. Returns a unique-violation error when the code is
// already taken; callers regenerate the code and retry.
func (r *BugRepo) Create(ctx context.Context, b models.Bug) (*models.Bug, error) {
	query := `
		INSERT INTO bugs (code, summary, description, status, priority, type, project_id, reporter_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + bugColumns
	return scanBug(r.DB.QueryRowContext(ctx, query,
		b.Code, b.Summary, b.Description, b.Status, b.Priority, b.Type, b.ProjectID, b.ReporterID))
}

// GetByID returns one bug by id.
func (r *BugRepo) GetByID(ctx context.Context, id int) (*models.Bug, error) {
	query := `SELECT ` + bugColumns + ` FROM bugs WHERE id = $1`
	b, err := scanBug(r.DB.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}

// Update changes the mutable fields. The code is immutable after creation.
func (r *BugRepo) Update(ctx context.Context, id int, summary, description, status, priority, bugType string) (*models.Bug, error) {
	query := `
		UPDATE bugs
		SET summary = $1, description = $2, status = $3, priority = $4, type = $5, updated_at = NOW()
		WHERE id = $6
		RETURNING ` + bugColumns
	b, err := scanBug(r.DB.QueryRowContext(ctx, query, summary, description, status, priority, bugType, id))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}

// Delete removes a bug by id.
func (r *BugRepo) Delete(ctx context.Context, id int) error {
	result, err := r.DB.ExecContext(ctx, `DELETE FROM bugs WHERE id = $1`, id)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns bugs, newest first, optionally filtered by project and status.
func (r *BugRepo) List(ctx context.Context, projectID *int, status string, limit, offset int) ([]models.Bug, error) {
	query := `SELECT ` + bugColumns + ` FROM bugs`
	var (
		conds []string
		args  []interface{}
	)
	if projectID != nil {
		args = append(args, *projectID)
		conds = append(conds, fmt.Sprintf("project_id = $%d", len(args)))
	}
	if status != "" {
		args = append(args, status)
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, ` AND `)
	}
	args = append(args, limit, offset)
	query += fmt.Sprintf(` ORDER BY id DESC LIMIT $%d OFFSET $%d`, len(args)-1, len(args))

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bugs []models.Bug
	for rows.Next() {
		var b models.Bug
		if err := rows.Scan(&b.ID, &b.Code, &b.Summary, &b.Description, &b.Status, &b.Priority,
			&b.Type, &b.ProjectID, &b.ReporterID, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, err
		}
		bugs = append(bugs, b)
	}
	return bugs, rows.Err()
}

// CountByCodePrefix counts bugs whose code matches "<prefix>-%".
// Feeds the sequential code generator.
func (r *BugRepo) CountByCodePrefix(ctx context.Context, prefix string) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM bugs WHERE code LIKE $1`,
		prefix+"-%",
	).Scan(&n)
	return n, err
}

// CountOpenByProject returns the number of OPEN bugs per project for the
// given project ids. Used by the digest job.
func (r *BugRepo) CountOpenByProject(ctx context.Context, projectID int) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM bugs WHERE project_id = $1 AND status = $2`,
		projectID, models.BugStatusOpen,
	).Scan(&n)
	return n, err
}
