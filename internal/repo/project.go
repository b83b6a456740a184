package repo

import (
	"context"
	"database/sql"

	"github.com/lib/pq"

	"github.com/vireo-pm/vireo/internal/models"
)

// ProjectRepo persists projects and PIC assignments.
type ProjectRepo struct {
	DB *sql.DB
}

// NewProjectRepo returns a new ProjectRepo.
func NewProjectRepo(db *sql.DB) *ProjectRepo {
	return &ProjectRepo{DB: db}
}

const projectColumns = `id, name, code, description, created_by, created_at, updated_at`

func scanProject(row interface{ Scan(...interface{}) error }) (*models.Project, error) {
	p := &models.Project{}
	err := row.Scan(&p.ID, &p.Name, &p.Code, &p.Description, &p.CreatedBy, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Create inserts a new project owned by createdBy.
func (r *ProjectRepo) Create(ctx context.Context, name, code, description string, createdBy int) (*models.Project, error) {
	query := `
		INSERT INTO projects (name, code, description, created_by)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + projectColumns
	return scanProject(r.DB.QueryRowContext(ctx, query, name, code, description, createdBy))
}

// GetByID returns one project by id.
func (r *ProjectRepo) GetByID(ctx context.Context, id int) (*models.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects WHERE id = $1`
	p, err := scanProject(r.DB.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Update changes name and description. The code is deliberately not mutable
// here: bug codes minted under the old prefix are never re-validated.
func (r *ProjectRepo) Update(ctx context.Context, id int, name, description string) (*models.Project, error) {
	query := `
		UPDATE projects
		SET name = $1, description = $2, updated_at = NOW()
		WHERE id = $3
		RETURNING ` + projectColumns
	p, err := scanProject(r.DB.QueryRowContext(ctx, query, name, description, id))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Delete removes a project by id.
func (r *ProjectRepo) Delete(ctx context.Context, id int) error {
	result, err := r.DB.ExecContext(ctx, `DELETE FROM projects WHERE id = $1`, id)
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

// List returns projects, newest first. limit/offset for pagination.
func (r *ProjectRepo) List(ctx context.Context, limit, offset int) ([]models.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects ORDER BY id DESC LIMIT $1 OFFSET $2`
	rows, err := r.DB.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var projects []models.Project
	for rows.Next() {
		var p models.Project
		if err := rows.Scan(&p.ID, &p.Name, &p.Code, &p.Description, &p.CreatedBy, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

// CountByCodePrefix counts projects whose code matches "<prefix>-%".
// Feeds the sequential code generator.
func (r *ProjectRepo) CountByCodePrefix(ctx context.Context, prefix string) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM projects WHERE code LIKE $1`,
		prefix+"-%",
	).Scan(&n)
	return n, err
}

// OwnedProjectIDs returns ids of projects created by userID.
func (r *ProjectRepo) OwnedProjectIDs(ctx context.Context, userID int) ([]int, error) {
	return r.queryIDs(ctx, `SELECT id FROM projects WHERE created_by = $1`, userID)
}

// AssignedProjectIDs returns ids of projects where userID is a PIC.
func (r *ProjectRepo) AssignedProjectIDs(ctx context.Context, userID int) ([]int, error) {
	return r.queryIDs(ctx, `SELECT project_id FROM project_assignees WHERE user_id = $1`, userID)
}

// PhaseIDsForProjects returns ids of all phases belonging to the given projects.
func (r *ProjectRepo) PhaseIDsForProjects(ctx context.Context, projectIDs []int) ([]int, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT id FROM phases WHERE project_id = ANY($1)`,
		pq.Array(projectIDs),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectIDs(rows)
}

// Assignees returns the user ids currently assigned to the project.
func (r *ProjectRepo) Assignees(ctx context.Context, projectID int) ([]int, error) {
	return r.queryIDs(ctx, `SELECT user_id FROM project_assignees WHERE project_id = $1 ORDER BY user_id`, projectID)
}

// ReplaceAssignees replaces the PIC set for a project in one transaction.
func (r *ProjectRepo) ReplaceAssignees(ctx context.Context, projectID int, userIDs []int) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM project_assignees WHERE project_id = $1`, projectID); err != nil {
		return err
	}
	for _, uid := range userIDs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO project_assignees (project_id, user_id) VALUES ($1, $2)`,
			projectID, uid,
		); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// OwnerIDs returns all distinct project creators with their project ids.
// Used by the digest job.
func (r *ProjectRepo) OwnerIDs(ctx context.Context) (map[int][]int, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT created_by, id FROM projects ORDER BY created_by, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	owners := make(map[int][]int)
	for rows.Next() {
		var owner, projectID int
		if err := rows.Scan(&owner, &projectID); err != nil {
			return nil, err
		}
		owners[owner] = append(owners[owner], projectID)
	}
	return owners, rows.Err()
}

func (r *ProjectRepo) queryIDs(ctx context.Context, query string, arg interface{}) ([]int, error) {
	rows, err := r.DB.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectIDs(rows)
}

func collectIDs(rows *sql.Rows) ([]int, error) {
	var ids []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
