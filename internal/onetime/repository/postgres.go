package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"authcore/backend/internal/autherr"
	"authcore/backend/internal/db"
	"authcore/backend/internal/onetime/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a one-time token repository that uses the given db for persistence.
func NewPostgresRepository(database *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: database}
}

const tokenColumns = `id, user_id, kind, token_hash, expires_at, consumed_at, created_at`

// Create persists the token. The token must have ID set.
func (r *PostgresRepository) Create(ctx context.Context, t *domain.Token) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO one_time_tokens (id, user_id, kind, token_hash, expires_at, consumed_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		t.ID, t.UserID, string(t.Kind), t.TokenHash, t.ExpiresAt, timeToNullTime(t.ConsumedAt), t.CreatedAt,
	)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return autherr.ErrConflict
		}
		return autherr.Storage(err)
	}
	return nil
}

// Consume marks the token spent and returns it, deciding every failure mode
// under a row lock so a double-spend is impossible.
func (r *PostgresRepository) Consume(ctx context.Context, now time.Time, tokenHash string, kind domain.Kind) (*domain.Token, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, autherr.Storage(err)
	}
	defer func() { _ = tx.Rollback() }()

	row := tx.QueryRowContext(ctx,
		`SELECT `+tokenColumns+` FROM one_time_tokens WHERE token_hash = $1 AND kind = $2 FOR UPDATE`,
		tokenHash, string(kind))
	t, err := scanToken(row)
	if err != nil {
		if db.IsWriteConflict(err) {
			return nil, autherr.ErrConflict
		}
		return nil, autherr.Storage(err)
	}
	if t == nil {
		return nil, autherr.ErrNotFound
	}
	if t.Consumed() {
		return nil, autherr.ErrTokenAlreadyConsumed
	}
	if t.Expired(now) {
		return nil, autherr.ErrTokenExpired
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE one_time_tokens SET consumed_at = $2 WHERE id = $1`,
		t.ID, now,
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
	consumed := now
	t.ConsumedAt = &consumed
	return t, nil
}

// InvalidateUnconsumed spends every outstanding unconsumed token of the kind
// for the user.
func (r *PostgresRepository) InvalidateUnconsumed(ctx context.Context, now time.Time, userID string, kind domain.Kind) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE one_time_tokens
		SET consumed_at = $3
		WHERE user_id = $1 AND kind = $2 AND consumed_at IS NULL`,
		userID, string(kind), now)
	if err != nil {
		return autherr.Storage(err)
	}
	return nil
}

// DeleteExpiredBefore removes consumed tokens and tokens expired before cutoff.
func (r *PostgresRepository) DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM one_time_tokens
		WHERE expires_at < $1 OR consumed_at < $1`,
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

func scanToken(row rowScanner) (*domain.Token, error) {
	var (
		t        domain.Token
		kind     string
		consumed sql.NullTime
	)
	err := row.Scan(&t.ID, &t.UserID, &kind, &t.TokenHash, &t.ExpiresAt, &consumed, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	t.Kind = domain.Kind(kind)
	if consumed.Valid {
		ts := consumed.Time
		t.ConsumedAt = &ts
	}
	return &t, nil
}

func timeToNullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
