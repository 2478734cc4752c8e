package repository

import (
	"context"
	"database/sql"
	"time"

	"authcore/backend/internal/autherr"
	"authcore/backend/internal/login/domain"
	"authcore/backend/internal/pagination"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a login history repository that uses the given db for persistence.
func NewPostgresRepository(database *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: database}
}

// Create persists the login row. The login must have ID set.
func (r *PostgresRepository) Create(ctx context.Context, l *domain.Login) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO logins (id, user_id, login_ip, login_at)
		VALUES ($1, $2, $3, $4)`,
		l.ID, l.UserID, nullIfEmpty(l.LoginIP), l.LoginAt,
	)
	if err != nil {
		return autherr.Storage(err)
	}
	return nil
}

// ListByUser returns up to limit logins strictly before the cursor in
// descending (login_at, id) order.
func (r *PostgresRepository) ListByUser(ctx context.Context, userID string, before pagination.Cursor, limit int) ([]*domain.Login, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if before.IsZero() {
		rows, err = r.db.QueryContext(ctx, `
			SELECT id, user_id, login_ip, login_at FROM logins
			WHERE user_id = $1
			ORDER BY login_at DESC, id DESC
			LIMIT $2`,
			userID, limit)
	} else {
		rows, err = r.db.QueryContext(ctx, `
			SELECT id, user_id, login_ip, login_at FROM logins
			WHERE user_id = $1 AND (login_at, id) < ($2, $3)
			ORDER BY login_at DESC, id DESC
			LIMIT $4`,
			userID, before.CreatedAt, before.ID, limit)
	}
	if err != nil {
		return nil, autherr.Storage(err)
	}
	defer rows.Close()

	var out []*domain.Login
	for rows.Next() {
		var (
			l  = &domain.Login{}
			ip sql.NullString
		)
		if err := rows.Scan(&l.ID, &l.UserID, &ip, &l.LoginAt); err != nil {
			return nil, autherr.Storage(err)
		}
		l.LoginIP = ip.String
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, autherr.Storage(err)
	}
	return out, nil
}

// DeleteBefore removes login rows older than cutoff and reports how many
// were removed.
func (r *PostgresRepository) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM logins WHERE login_at < $1`, cutoff)
	if err != nil {
		return 0, autherr.Storage(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, autherr.Storage(err)
	}
	return n, nil
}

func nullIfEmpty(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
