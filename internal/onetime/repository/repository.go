package repository

import (
	"context"
	"time"

	"authcore/backend/internal/onetime/domain"
)

// Repository defines persistence for one-time tokens.
type Repository interface {
	Create(ctx context.Context, t *domain.Token) error
	// Consume atomically marks the token of the given kind as spent and
	// returns it. The check-and-set is serializable per row: of two
	// concurrent consumers exactly one succeeds.
	//
	// Failure modes:
	//   - autherr.ErrNotFound: no token of this kind owns the hash.
	//   - autherr.ErrTokenAlreadyConsumed: the token was already spent.
	//   - autherr.ErrTokenExpired: past expires_at; the row is left unchanged
	//     since an expired token is unusable either way.
	Consume(ctx context.Context, now time.Time, tokenHash string, kind domain.Kind) (*domain.Token, error)
	// InvalidateUnconsumed marks every outstanding unconsumed token of the
	// given kind for the user as spent, so at most one live token exists per
	// (user, kind).
	InvalidateUnconsumed(ctx context.Context, now time.Time, userID string, kind domain.Kind) error
	// DeleteExpiredBefore physically removes consumed tokens and tokens whose
	// expiry predates cutoff. Retention only.
	DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
