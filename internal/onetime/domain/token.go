package domain

import "time"

// Kind selects the single effect a token applies. Kinds are never mixed: a
// password-reset value cannot verify an email and vice versa.
type Kind string

const (
	KindPasswordReset     Kind = "password_reset"
	KindEmailVerification Kind = "email_verification"
)

// Token is a persisted one-time credential: issued once, consumed at most
// once, never usable past expiry. Only the SHA-256 hash of the opaque value
// is stored.
type Token struct {
	ID         string // ULID
	UserID     string
	Kind       Kind
	TokenHash  string
	ExpiresAt  time.Time
	ConsumedAt *time.Time // nil until consumed; consumption is monotonic
	CreatedAt  time.Time
}

// Consumed reports whether the token has been spent.
func (t *Token) Consumed() bool { return t.ConsumedAt != nil }

// Expired reports whether the token is past its expiry at now.
func (t *Token) Expired(now time.Time) bool { return !t.ExpiresAt.After(now) }
