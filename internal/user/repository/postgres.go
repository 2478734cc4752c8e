package repository

import (
	"context"
	"database/sql"
	"errors"

	"authcore/backend/internal/autherr"
	"authcore/backend/internal/db"
	"authcore/backend/internal/user/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a user repository that uses the given db for persistence.
func NewPostgresRepository(database *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: database}
}

const userColumns = `id, email, name, password_hash, role, is_active, is_verified, created_at`

// GetByID returns the user for id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	u, err := scanUser(row)
	if err != nil {
		return nil, autherr.Storage(err)
	}
	return u, nil
}

// GetByEmail returns the user with the given email, or nil if not found.
// The email must already be normalized (lower-case, trimmed).
func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	u, err := scanUser(row)
	if err != nil {
		return nil, autherr.Storage(err)
	}
	return u, nil
}

// Create persists the user. The user must have ID set; it is not assigned
// here. A duplicate email yields autherr.ErrConflict.
func (r *PostgresRepository) Create(ctx context.Context, u *domain.User) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (id, email, name, password_hash, role, is_active, is_verified, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		u.ID, u.Email, u.Name, u.PasswordHash, string(u.Role), u.IsActive, u.IsVerified, u.CreatedAt,
	)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return autherr.ErrConflict
		}
		return autherr.Storage(err)
	}
	return nil
}

// UpdatePasswordHash replaces the stored password digest for the given user.
func (r *PostgresRepository) UpdatePasswordHash(ctx context.Context, id, passwordHash string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET password_hash = $2 WHERE id = $1`, id, passwordHash)
	if err != nil {
		return autherr.Storage(err)
	}
	return requireRow(res)
}

// SetVerified marks the user's email as verified. Idempotent for an already
// verified user.
func (r *PostgresRepository) SetVerified(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET is_verified = TRUE WHERE id = $1`, id)
	if err != nil {
		return autherr.Storage(err)
	}
	return requireRow(res)
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return autherr.Storage(err)
	}
	if n == 0 {
		return autherr.ErrNotFound
	}
	return nil
}

func scanUser(row *sql.Row) (*domain.User, error) {
	var u domain.User
	var role string
	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &role, &u.IsActive, &u.IsVerified, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	parsed, err := domain.ParseRole(role)
	if err != nil {
		return nil, err
	}
	u.Role = parsed
	return &u, nil
}
