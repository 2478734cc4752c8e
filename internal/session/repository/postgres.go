package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"authcore/backend/internal/autherr"
	"authcore/backend/internal/db"
	"authcore/backend/internal/pagination"
	"authcore/backend/internal/session/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a session repository that uses the given db for persistence.
func NewPostgresRepository(database *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: database}
}

const sessionColumns = `id, user_id, refresh_token_hash, refresh_jti, login_ip,
	expires_at, is_active, logged_in_at, logged_out_at, replaced_by, created_at`

// GetByID returns the session for id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.Session, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM sessions WHERE id = $1`, id)
	s, err := scanSession(row)
	if err != nil {
		return nil, autherr.Storage(err)
	}
	return s, nil
}

// GetByRefreshHash returns the session owning the refresh token hash, or nil
// if no such session exists.
func (r *PostgresRepository) GetByRefreshHash(ctx context.Context, hash string) (*domain.Session, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM sessions WHERE refresh_token_hash = $1`, hash)
	s, err := scanSession(row)
	if err != nil {
		return nil, autherr.Storage(err)
	}
	return s, nil
}

// Create persists the session. The session must have ID set.
func (r *PostgresRepository) Create(ctx context.Context, s *domain.Session) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO sessions (id, user_id, refresh_token_hash, refresh_jti, login_ip,
			expires_at, is_active, logged_in_at, logged_out_at, replaced_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		s.ID, s.UserID, s.RefreshTokenHash, s.RefreshJti, nullIfEmpty(s.LoginIP),
		s.ExpiresAt, s.IsActive, s.LoggedInAt, timeToNullTime(s.LoggedOutAt),
		nullIfEmpty(s.ReplacedBy), s.CreatedAt,
	)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return autherr.ErrConflict
		}
		return autherr.Storage(err)
	}
	return nil
}

// Rotate retires the session owning refreshHash and inserts successor in one
// transaction. See the Repository contract for the failure modes; all state
// decisions happen under a row lock so concurrent rotations of the same token
// serialize and exactly one succeeds.
func (r *PostgresRepository) Rotate(ctx context.Context, now time.Time, refreshHash string, successor *domain.Session) (*domain.Session, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, autherr.Storage(err)
	}
	defer func() { _ = tx.Rollback() }()

	row := tx.QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE refresh_token_hash = $1 FOR UPDATE`,
		refreshHash)
	prev, err := scanSession(row)
	if err != nil {
		if db.IsWriteConflict(err) {
			return nil, autherr.ErrConflict
		}
		return nil, autherr.Storage(err)
	}
	if prev == nil {
		return nil, autherr.ErrNotFound
	}

	if prev.Rotated() {
		// Reuse of an already-rotated token: revoke everything for the user
		// inside this same transaction before surfacing the signal.
		if err := revokeAllByUserTx(ctx, tx, now, prev.UserID); err != nil {
			return nil, autherr.Storage(err)
		}
		if err := tx.Commit(); err != nil {
			return nil, autherr.Storage(err)
		}
		return nil, autherr.ErrRefreshTokenReuse
	}
	if !prev.IsActive {
		return nil, autherr.ErrNotFound
	}
	if prev.Expired(now) {
		return nil, autherr.ErrTokenExpired
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO sessions (id, user_id, refresh_token_hash, refresh_jti, login_ip,
			expires_at, is_active, logged_in_at, logged_out_at, replaced_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NULL, NULL, $9)`,
		successor.ID, successor.UserID, successor.RefreshTokenHash, successor.RefreshJti,
		nullIfEmpty(successor.LoginIP), successor.ExpiresAt, successor.IsActive,
		successor.LoggedInAt, successor.CreatedAt,
	); err != nil {
		if db.IsWriteConflict(err) {
			return nil, autherr.ErrConflict
		}
		return nil, autherr.Storage(err)
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE sessions
		SET is_active = FALSE, logged_out_at = $2, replaced_by = $3
		WHERE id = $1`,
		prev.ID, now, successor.ID,
	); err != nil {
		if db.IsWriteConflict(err) {
			return nil, autherr.ErrConflict
		}
		return nil, autherr.Storage(err)
	}

	if err := tx.Commit(); err != nil {
		if db.IsWriteConflict(err) {
			return nil, autherr.ErrConflict
		}
		return nil, autherr.Storage(err)
	}
	return prev, nil
}

// Revoke marks the session inactive and records the logout time. Idempotent.
func (r *PostgresRepository) Revoke(ctx context.Context, now time.Time, id string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE sessions
		SET is_active = FALSE, logged_out_at = COALESCE(logged_out_at, $2)
		WHERE id = $1 AND is_active`,
		id, now)
	if err != nil {
		return autherr.Storage(err)
	}
	return nil
}

// RevokeAllByUser marks every active session for the user inactive.
func (r *PostgresRepository) RevokeAllByUser(ctx context.Context, now time.Time, userID string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE sessions
		SET is_active = FALSE, logged_out_at = COALESCE(logged_out_at, $2)
		WHERE user_id = $1 AND is_active`,
		userID, now)
	if err != nil {
		return autherr.Storage(err)
	}
	return nil
}

func revokeAllByUserTx(ctx context.Context, tx *sql.Tx, now time.Time, userID string) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE sessions
		SET is_active = FALSE, logged_out_at = COALESCE(logged_out_at, $2)
		WHERE user_id = $1 AND is_active`,
		userID, now)
	return err
}

// ListByUser returns up to limit sessions for the user strictly before the
// cursor in descending (created_at, id) order.
func (r *PostgresRepository) ListByUser(ctx context.Context, userID string, before pagination.Cursor, limit int) ([]*domain.Session, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if before.IsZero() {
		rows, err = r.db.QueryContext(ctx, `
			SELECT `+sessionColumns+` FROM sessions
			WHERE user_id = $1
			ORDER BY created_at DESC, id DESC
			LIMIT $2`,
			userID, limit)
	} else {
		rows, err = r.db.QueryContext(ctx, `
			SELECT `+sessionColumns+` FROM sessions
			WHERE user_id = $1 AND (created_at, id) < ($2, $3)
			ORDER BY created_at DESC, id DESC
			LIMIT $4`,
			userID, before.CreatedAt, before.ID, limit)
	}
	if err != nil {
		return nil, autherr.Storage(err)
	}
	defer rows.Close()

	var out []*domain.Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, autherr.Storage(err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, autherr.Storage(err)
	}
	return out, nil
}

// DeleteExpiredBefore removes sessions that expired or were logged out before
// cutoff. Returns the number of rows removed.
func (r *PostgresRepository) DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM sessions
		WHERE expires_at < $1 OR (NOT is_active AND logged_out_at < $1)`,
		cutoff)
	if err != nil {
		return 0, autherr.Storage(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, autherr.Storage(err)
	}
	return n, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*domain.Session, error) {
	var (
		s          domain.Session
		loginIP    sql.NullString
		loggedOut  sql.NullTime
		replacedBy sql.NullString
	)
	err := row.Scan(&s.ID, &s.UserID, &s.RefreshTokenHash, &s.RefreshJti, &loginIP,
		&s.ExpiresAt, &s.IsActive, &s.LoggedInAt, &loggedOut, &replacedBy, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if loginIP.Valid {
		s.LoginIP = loginIP.String
	}
	if loggedOut.Valid {
		t := loggedOut.Time
		s.LoggedOutAt = &t
	}
	if replacedBy.Valid {
		s.ReplacedBy = replacedBy.String
	}
	return &s, nil
}

func nullIfEmpty(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func timeToNullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
