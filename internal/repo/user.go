package repo

import (
	"context"
	"database/sql"

	"github.com/vireo-pm/vireo/internal/models"
)

// UserRepo persists user accounts.
type UserRepo struct {
	DB *sql.DB
}

// NewUserRepo returns a new UserRepo.
func NewUserRepo(db *sql.DB) *UserRepo {
	return &UserRepo{DB: db}
}

// Create inserts a new user. passwordHash may be empty for passwordless accounts.
func (r *UserRepo) Create(ctx context.Context, username, passwordHash, role string) (*models.User, error) {
	query := `
		INSERT INTO users (username, password_hash, role)
		VALUES ($1, $2, $3)
		RETURNING id, username, password_hash, role
	`
	user := &models.User{}
	err := r.DB.QueryRowContext(ctx, query, username, passwordHash, role).
		Scan(&user.ID, &user.Username, &user.PasswordHash, &user.Role)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// GetByID returns one user by id.
func (r *UserRepo) GetByID(ctx context.Context, id int) (*models.User, error) {
	query := `
		SELECT id, username, password_hash, role
		FROM users
		WHERE id = $1
	`
	user := &models.User{}
	err := r.DB.QueryRowContext(ctx, query, id).
		Scan(&user.ID, &user.Username, &user.PasswordHash, &user.Role)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

// GetByUsername returns one user by username.
func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	query := `
		SELECT id, username, password_hash, role
		FROM users
		WHERE username = $1
	`
	user := &models.User{}
	err := r.DB.QueryRowContext(ctx, query, username).
		Scan(&user.ID, &user.Username, &user.PasswordHash, &user.Role)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

// Update changes username and role for the given id.
func (r *UserRepo) Update(ctx context.Context, id int, username, role string) (*models.User, error) {
	query := `
		UPDATE users
		SET username = $1, role = $2
		WHERE id = $3
		RETURNING id, username, password_hash, role
	`
	user := &models.User{}
	err := r.DB.QueryRowContext(ctx, query, username, role, id).
		Scan(&user.ID, &user.Username, &user.PasswordHash, &user.Role)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

// Delete removes a user by id.
func (r *UserRepo) Delete(ctx context.Context, id int) error {
	result, err := r.DB.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
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

// List returns users ordered by id. limit/offset for pagination.
func (r *UserRepo) List(ctx context.Context, limit, offset int) ([]models.User, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT id, username, password_hash, role FROM users ORDER BY id LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Role); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// Count returns the total number of users.
func (r *UserRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n)
	return n, err
}

// CountByRole returns the number of users with the given role.
func (r *UserRepo) CountByRole(ctx context.Context, role string) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE role = $1`, role).Scan(&n)
	return n, err
}
