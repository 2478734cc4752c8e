// Package service implements the single-use token engine: issue-once,
// consume-at-most-once credentials for password resets and email
// verification.
package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"authcore/backend/internal/audit"
	"authcore/backend/internal/autherr"
	"authcore/backend/internal/clock"
	"authcore/backend/internal/ids"
	"authcore/backend/internal/onetime/domain"
	"authcore/backend/internal/onetime/repository"
	"authcore/backend/internal/security"
	userdomain "authcore/backend/internal/user/domain"
)

// UserStore is the slice of user persistence the engine needs.
type UserStore interface {
	GetByID(ctx context.Context, id string) (*userdomain.User, error)
	GetByEmail(ctx context.Context, email string) (*userdomain.User, error)
	UpdatePasswordHash(ctx context.Context, id, passwordHash string) error
	SetVerified(ctx context.Context, id string) error
}

// SessionRevoker revokes every session a user holds. Consuming a password
// reset invalidates all standing sessions for the account.
type SessionRevoker interface {
	RevokeAllByUser(ctx context.Context, now time.Time, userID string) error
}

// Service issues and consumes one-time tokens.
type Service struct {
	tokens   repository.Repository
	users    UserStore
	sessions SessionRevoker
	hasher   *security.Hasher
	rec      audit.Recorder
	clk      clock.Clock
	idgen    ids.Generator

	resetTTL        time.Duration
	verificationTTL time.Duration
}

// New wires the engine. TTLs must be positive.
func New(
	tokens repository.Repository,
	users UserStore,
	sessions SessionRevoker,
	hasher *security.Hasher,
	rec audit.Recorder,
	clk clock.Clock,
	idgen ids.Generator,
	resetTTL, verificationTTL time.Duration,
) *Service {
	return &Service{
		tokens:          tokens,
		users:           users,
		sessions:        sessions,
		hasher:          hasher,
		rec:             rec,
		clk:             clk,
		idgen:           idgen,
		resetTTL:        resetTTL,
		verificationTTL: verificationTTL,
	}
}

// IssueReset issues a password reset token for the account owning email.
// Returns autherr.ErrNotFound for unknown or inactive accounts; the transport
// layer decides whether that is surfaced or hidden. Any outstanding
// unconsumed reset token for the user is invalidated first, so at most one
// live reset token exists per user.
func (s *Service) IssueReset(ctx context.Context, email string) (string, error) {
	u, err := s.users.GetByEmail(ctx, userdomain.NormalizeEmail(email))
	if err != nil {
		return "", err
	}
	return s.issueReset(ctx, u)
}

// IssueResetForUser issues a password reset token for an already resolved
// user id. Used by administrative flows where the account lookup has been
// done elsewhere; the self-service flow goes through IssueReset.
func (s *Service) IssueResetForUser(ctx context.Context, userID string) (string, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return "", err
	}
	return s.issueReset(ctx, u)
}

func (s *Service) issueReset(ctx context.Context, u *userdomain.User) (string, error) {
	if u == nil || !u.IsActive {
		return "", autherr.ErrNotFound
	}
	now := s.clk.Now()
	if err := s.tokens.InvalidateUnconsumed(ctx, now, u.ID, domain.KindPasswordReset); err != nil {
		return "", err
	}
	value, err := s.issue(ctx, now, u.ID, domain.KindPasswordReset, s.resetTTL)
	if err != nil {
		return "", err
	}
	s.rec.Record(ctx, audit.Event{Action: audit.ActionResetIssued, UserID: u.ID, At: now})
	return value, nil
}

// IssueVerification issues an email verification token for the user.
func (s *Service) IssueVerification(ctx context.Context, userID string) (string, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return "", err
	}
	if u == nil || !u.IsActive {
		return "", autherr.ErrNotFound
	}
	if u.IsVerified {
		return "", autherr.ErrTokenAlreadyConsumed
	}
	now := s.clk.Now()
	value, err := s.issue(ctx, now, u.ID, domain.KindEmailVerification, s.verificationTTL)
	if err != nil {
		return "", err
	}
	s.rec.Record(ctx, audit.Event{Action: audit.ActionVerificationIssued, UserID: u.ID, At: now})
	return value, nil
}

// ConsumeReset spends a password reset token and installs the new password.
// Every session the owner holds is revoked afterwards: a reset proves the
// old credential may be compromised.
func (s *Service) ConsumeReset(ctx context.Context, value, newPassword string) error {
	now := s.clk.Now()
	tok, err := s.consume(ctx, now, value, domain.KindPasswordReset)
	if err != nil {
		return err
	}
	digest, err := s.hasher.Hash([]byte(newPassword))
	if err != nil {
		return fmt.Errorf("hash new password: %w", err)
	}
	if err := s.users.UpdatePasswordHash(ctx, tok.UserID, digest); err != nil {
		return err
	}
	if err := s.sessions.RevokeAllByUser(ctx, now, tok.UserID); err != nil {
		return err
	}
	s.rec.Record(ctx, audit.Event{Action: audit.ActionResetConsumed, UserID: tok.UserID, At: now})
	return nil
}

// ConsumeVerification spends an email verification token and marks the owner
// verified.
func (s *Service) ConsumeVerification(ctx context.Context, value string) error {
	now := s.clk.Now()
	tok, err := s.consume(ctx, now, value, domain.KindEmailVerification)
	if err != nil {
		return err
	}
	if err := s.users.SetVerified(ctx, tok.UserID); err != nil {
		return err
	}
	s.rec.Record(ctx, audit.Event{Action: audit.ActionVerificationConsumed, UserID: tok.UserID, At: now})
	return nil
}

// consume spends the token row holding the value's hash. A lost serialization
// race is retried once; a second loss surfaces as ErrConflict.
func (s *Service) consume(ctx context.Context, now time.Time, value string, kind domain.Kind) (*domain.Token, error) {
	hash := security.HashToken(value)
	tok, err := s.tokens.Consume(ctx, now, hash, kind)
	if errors.Is(err, autherr.ErrConflict) {
		tok, err = s.tokens.Consume(ctx, now, hash, kind)
	}
	return tok, err
}

// issue mints the opaque value, persists only its hash, and returns the value.
func (s *Service) issue(ctx context.Context, now time.Time, userID string, kind domain.Kind, ttl time.Duration) (string, error) {
	value, err := newOpaqueValue()
	if err != nil {
		return "", err
	}
	id, err := s.idgen.NewID(now)
	if err != nil {
		return "", err
	}
	tok := &domain.Token{
		ID:        id,
		UserID:    userID,
		Kind:      kind,
		TokenHash: security.HashToken(value),
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	}
	if err := s.tokens.Create(ctx, tok); err != nil {
		return "", err
	}
	return value, nil
}

// newOpaqueValue returns 32 bytes of entropy as URL-safe base64. The value
// itself is never persisted.
func newOpaqueValue() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read entropy: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
