package domain

import "time"

// Session is the authoritative record behind one refresh token. Exactly one
// session row exists per issued refresh token; rotation retires the row and
// creates a successor linked via ReplacedBy.
type Session struct {
	ID               string // ULID; time-ordered, breaks timestamp ties in cursors
	UserID           string
	RefreshTokenHash string // SHA-256 hex of the refresh token; plaintext is never stored
	RefreshJti       string
	LoginIP          string
	ExpiresAt        time.Time
	IsActive         bool
	LoggedInAt       time.Time
	LoggedOutAt      *time.Time // nil until revoked or rotated
	ReplacedBy       string     // successor session id; set only by rotation
	CreatedAt        time.Time
}

// Expired reports whether the session is past its expiry at now. Expiry is
// derived at read time; the stored activity flag is never trusted alone.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.After(now)
}

// Usable reports whether the session can still authorize a rotation:
// active and not expired.
func (s *Session) Usable(now time.Time) bool {
	return s.IsActive && !s.Expired(now)
}

// Rotated reports whether the session was retired by rotation, as opposed to
// an explicit logout. Presenting a rotated session's refresh token again is
// the token-reuse security signal.
func (s *Session) Rotated() bool {
	return !s.IsActive && s.ReplacedBy != ""
}
