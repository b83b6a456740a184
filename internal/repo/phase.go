package repo

import (
	"context"
	"database/sql"
	"time"

	"github.com/vireo-pm/vireo/internal/models"
)

// PhaseRepo persists project phases.
type PhaseRepo struct {
	DB *sql.DB
}

// NewPhaseRepo returns a new PhaseRepo.
func NewPhaseRepo(db *sql.DB) *PhaseRepo {
	return &PhaseRepo{DB: db}
}

const phaseColumns = `id, project_id, name, start_date, end_date, created_at`

// Create inserts a new phase under projectID.
func (r *PhaseRepo) Create(ctx context.Context, projectID int, name string, start, end *time.Time) (*models.Phase, error) {
	query := `
		INSERT INTO phases (project_id, name, start_date, end_date)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + phaseColumns
	p := &models.Phase{}
	err := r.DB.QueryRowContext(ctx, query, projectID, name, start, end).
		Scan(&p.ID, &p.ProjectID, &p.Name, &p.StartDate, &p.EndDate, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// GetByID returns one phase by id.
func (r *PhaseRepo) GetByID(ctx context.Context, id int) (*models.Phase, error) {
	query := `SELECT ` + phaseColumns + ` FROM phases WHERE id = $1`
	p := &models.Phase{}
	err := r.DB.QueryRowContext(ctx, query, id).
		Scan(&p.ID, &p.ProjectID, &p.Name, &p.StartDate, &p.EndDate, &p.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// ListByProject returns all phases of a project, ordered by start date then id.
func (r *PhaseRepo) ListByProject(ctx context.Context, projectID int) ([]models.Phase, error) {
	query := `SELECT ` + phaseColumns + ` FROM phases WHERE project_id = $1 ORDER BY start_date NULLS LAST, id`
	rows, err := r.DB.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var phases []models.Phase
	for rows.Next() {
		var p models.Phase
		if err := rows.Scan(&p.ID, &p.ProjectID, &p.Name, &p.StartDate, &p.EndDate, &p.CreatedAt); err != nil {
			return nil, err
		}
		phases = append(phases, p)
	}
	return phases, rows.Err()
}

// Update changes name and dates for the given id.
func (r *PhaseRepo) Update(ctx context.Context, id int, name string, start, end *time.Time) (*models.Phase, error) {
	query := `
		UPDATE phases
		SET name = $1, start_date = $2, end_date = $3
		WHERE id = $4
		RETURNING ` + phaseColumns
	p := &models.Phase{}
	err := r.DB.QueryRowContext(ctx, query, name, start, end, id).
		Scan(&p.ID, &p.ProjectID, &p.Name, &p.StartDate, &p.EndDate, &p.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Delete removes a phase by id.
func (r *PhaseRepo) Delete(ctx context.Context, id int) error {
	result, err := r.DB.ExecContext(ctx, `DELETE FROM phases WHERE id = $1`, id)
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
