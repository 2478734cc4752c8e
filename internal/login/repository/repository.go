package repository

import (
	"context"
	"time"

	"authcore/backend/internal/login/domain"
	"authcore/backend/internal/pagination"
)

// Repository defines persistence for login history.
type Repository interface {
	Create(ctx context.Context, l *domain.Login) error
	// ListByUser returns up to limit logins for the user strictly before the
	// cursor in descending (login_at, id) order. A zero cursor starts at the
	// newest login.
	ListByUser(ctx context.Context, userID string, before pagination.Cursor, limit int) ([]*domain.Login, error)
	// DeleteBefore removes history rows older than cutoff. Retention only.
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
