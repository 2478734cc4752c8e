// Package autherr defines the error taxonomy shared by the session lifecycle
// engine, the single-use token engine, and the token codec. Handlers map these
// to gRPC codes via GRPCStatus.
package autherr

import (
	"errors"
	"fmt"
)

// Sentinel errors for authentication and token lifecycle failures.
var (
	// ErrInvalidCredentials covers unknown email, wrong password, and inactive
	// account alike, so callers cannot enumerate users.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrNotFound is returned when a session or token does not exist or has
	// been revoked.
	ErrNotFound = errors.New("not found")
	// ErrTokenExpired is returned when a token or session is past its expiry,
	// regardless of its stored activity flag.
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenAlreadyConsumed is returned when a single-use token is presented
	// after it was consumed.
	ErrTokenAlreadyConsumed = errors.New("token already consumed")
	// ErrRefreshTokenReuse is returned when an already-rotated refresh token is
	// presented again; all sessions for the user are revoked.
	ErrRefreshTokenReuse = errors.New("refresh token reuse detected; all sessions revoked")
	// ErrInvalidSignature is returned when a token signature does not verify.
	ErrInvalidSignature = errors.New("invalid token signature")
	// ErrMalformed is returned for tokens or cursors that cannot be parsed.
	ErrMalformed = errors.New("malformed input")
	// ErrWrongTokenKind is returned when a structurally valid token of the
	// wrong kind is presented (e.g. a refresh token used as an access token).
	ErrWrongTokenKind = errors.New("wrong token kind")
	// ErrConflict is returned when a concurrent mutation race was lost.
	ErrConflict = errors.New("concurrent modification conflict")
	// ErrStorage wraps storage collaborator failures; see Storage.
	ErrStorage = errors.New("storage error")
)

// Storage wraps a driver error so callers can match it with
// errors.Is(err, ErrStorage) while the cause stays in the chain.
func Storage(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrStorage, err)
}
