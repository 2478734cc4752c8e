package repository

import (
	"context"
	"time"

	"authcore/backend/internal/pagination"
	"authcore/backend/internal/session/domain"
)

// Repository defines persistence for sessions.
//
// Implementations must make Rotate and the revoke operations serializable per
// affected row against concurrent callers, including callers in other
// processes; the engine holds no in-process locks.
type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.Session, error)
	// GetByRefreshHash returns the session owning the refresh token hash, or
	// nil if no such session exists.
	GetByRefreshHash(ctx context.Context, hash string) (*domain.Session, error)
	Create(ctx context.Context, s *domain.Session) error
	// Rotate atomically retires the session identified by refreshHash and
	// creates successor, all-or-nothing. It returns the retired session.
	//
	// Failure modes, decided under the row lock:
	//   - autherr.ErrNotFound: no session owns the hash, or it was revoked by
	//     an explicit logout.
	//   - autherr.ErrRefreshTokenReuse: the session was already rotated; every
	//     session for its user is revoked within the same transaction before
	//     returning.
	//   - autherr.ErrTokenExpired: past expires_at, regardless of the stored
	//     activity flag.
	//   - autherr.ErrConflict: the transaction lost a write-conflict race and
	//     may be retried.
	Rotate(ctx context.Context, now time.Time, refreshHash string, successor *domain.Session) (*domain.Session, error)
	// Revoke marks one session inactive and records the logout time.
	// Idempotent: revoking an already-inactive session is a no-op.
	Revoke(ctx context.Context, now time.Time, id string) error
	RevokeAllByUser(ctx context.Context, now time.Time, userID string) error
	// ListByUser returns up to limit sessions for the user strictly before the
	// cursor in descending (created_at, id) order. A zero cursor starts at the
	// newest session.
	ListByUser(ctx context.Context, userID string, before pagination.Cursor, limit int) ([]*domain.Session, error)
	// DeleteExpiredBefore physically removes sessions whose expiry or logout
	// predates cutoff. Retention only; correctness never depends on it.
	DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
