// Package auth implements the session lifecycle engine: credential
// verification, refresh token rotation with reuse detection, revocation, and
// session listing. All cross-session atomicity lives in the storage layer;
// the engine holds no in-process locks.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"authcore/backend/internal/audit"
	"authcore/backend/internal/autherr"
	"authcore/backend/internal/clock"
	"authcore/backend/internal/ids"
	logindomain "authcore/backend/internal/login/domain"
	loginrepo "authcore/backend/internal/login/repository"
	"authcore/backend/internal/pagination"
	"authcore/backend/internal/security"
	sessiondomain "authcore/backend/internal/session/domain"
	sessionrepo "authcore/backend/internal/session/repository"
	userdomain "authcore/backend/internal/user/domain"
	userrepo "authcore/backend/internal/user/repository"
)

// dummyDigest is compared against when the account does not exist so a
// missing email costs the same as a wrong password.
const dummyDigest = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

// VerificationIssuer mints email verification tokens for new accounts.
type VerificationIssuer interface {
	IssueVerification(ctx context.Context, userID string) (string, error)
}

// TokenPair is the result of a successful login or refresh.
type TokenPair struct {
	SessionID        string
	AccessToken      string
	AccessExpiresAt  time.Time
	RefreshToken     string
	RefreshExpiresAt time.Time
}

// Service is the session lifecycle engine.
type Service struct {
	users    userrepo.Repository
	sessions sessionrepo.Repository
	logins   loginrepo.Repository
	verifier VerificationIssuer
	codec    *security.TokenCodec
	hasher   *security.Hasher
	rec      audit.Recorder
	clk      clock.Clock
	idgen    ids.Generator

	accessTTL   time.Duration
	refreshTTL  time.Duration
	pageSizeMax int
}

// New wires the engine. verifier may be nil; Register then creates accounts
// without issuing verification tokens.
func New(
	users userrepo.Repository,
	sessions sessionrepo.Repository,
	logins loginrepo.Repository,
	verifier VerificationIssuer,
	codec *security.TokenCodec,
	hasher *security.Hasher,
	rec audit.Recorder,
	clk clock.Clock,
	idgen ids.Generator,
	accessTTL, refreshTTL time.Duration,
	pageSizeMax int,
) *Service {
	return &Service{
		users:       users,
		sessions:    sessions,
		logins:      logins,
		verifier:    verifier,
		codec:       codec,
		hasher:      hasher,
		rec:         rec,
		clk:         clk,
		idgen:       idgen,
		accessTTL:   accessTTL,
		refreshTTL:  refreshTTL,
		pageSizeMax: pageSizeMax,
	}
}

// Register creates a new unverified account and returns it together with the
// email verification token value. Duplicate email yields
// autherr.ErrConflict.
func (s *Service) Register(ctx context.Context, email, password, name string) (*userdomain.User, string, error) {
	now := s.clk.Now()
	id, err := s.idgen.NewID(now)
	if err != nil {
		return nil, "", fmt.Errorf("new user id: %w", err)
	}
	digest, err := s.hasher.Hash([]byte(password))
	if err != nil {
		return nil, "", fmt.Errorf("hash password: %w", err)
	}
	u := &userdomain.User{
		ID:           id,
		Email:        userdomain.NormalizeEmail(email),
		Name:         name,
		PasswordHash: digest,
		Role:         userdomain.RoleUser,
		IsActive:     true,
		CreatedAt:    now,
	}
	if err := u.Validate(); err != nil {
		return nil, "", fmt.Errorf("%w: %s", autherr.ErrMalformed, err)
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, "", err
	}

	var verification string
	if s.verifier != nil {
		verification, err = s.verifier.IssueVerification(ctx, u.ID)
		if err != nil {
			return nil, "", err
		}
	}
	s.audit(ctx, audit.Event{Action: audit.ActionRegister, UserID: u.ID, At: now})
	return u, verification, nil
}

// Login verifies credentials and opens a new session. Concurrent logins for
// one user create independent sessions. Unknown email, wrong password, and
// inactive account are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, email, password, ip string) (*TokenPair, error) {
	now := s.clk.Now()
	u, err := s.users.GetByEmail(ctx, userdomain.NormalizeEmail(email))
	if err != nil {
		return nil, err
	}
	if u == nil {
		// Burn a comparison so response time does not reveal account existence.
		_ = s.hasher.Compare(dummyDigest, []byte(password))
		s.audit(ctx, audit.Event{Action: audit.ActionLoginFailure, IP: ip, At: now, Metadata: "unknown email"})
		return nil, autherr.ErrInvalidCredentials
	}
	if err := s.hasher.Compare(u.PasswordHash, []byte(password)); err != nil {
		s.audit(ctx, audit.Event{Action: audit.ActionLoginFailure, UserID: u.ID, IP: ip, At: now, Metadata: "bad password"})
		return nil, autherr.ErrInvalidCredentials
	}
	if !u.IsActive {
		s.audit(ctx, audit.Event{Action: audit.ActionLoginFailure, UserID: u.ID, IP: ip, At: now, Metadata: "inactive account"})
		return nil, autherr.ErrInvalidCredentials
	}

	sess, pair, err := s.newSession(u.ID, string(u.Role), ip, now)
	if err != nil {
		return nil, err
	}
	if err := s.sessions.Create(ctx, sess); err != nil {
		return nil, err
	}

	s.recordLogin(ctx, u.ID, ip, now)
	s.audit(ctx, audit.Event{Action: audit.ActionLogin, UserID: u.ID, SessionID: sess.ID, IP: ip, At: now})
	return pair, nil
}

// Refresh rotates a refresh token: the presented session is retired and a
// successor takes its place, atomically. Presenting a token that was already
// rotated is treated as theft and revokes every session the user holds; that
// surfaces as autherr.ErrRefreshTokenReuse.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := s.codec.DecodeKind(refreshToken, security.KindRefresh)
	if err != nil {
		return nil, err
	}
	now := s.clk.Now()

	hash := security.HashToken(refreshToken)
	rotate := func() (*sessiondomain.Session, *TokenPair, error) {
		successor, pair, err := s.newSession(claims.Subject, claims.Role, "", now)
		if err != nil {
			return nil, nil, err
		}
		prev, err := s.sessions.Rotate(ctx, now, hash, successor)
		if err != nil {
			return nil, nil, err
		}
		return prev, pair, nil
	}

	prev, pair, err := rotate()
	if errors.Is(err, autherr.ErrConflict) {
		// One retry on a lost serialization race; a second loss surfaces.
		prev, pair, err = rotate()
	}
	if err != nil {
		if errors.Is(err, autherr.ErrRefreshTokenReuse) {
			s.audit(ctx, audit.Event{Action: audit.ActionRefreshReuse, UserID: claims.Subject, SessionID: claims.SessionID, At: now})
		}
		return nil, err
	}

	s.audit(ctx, audit.Event{
		Action: audit.ActionRefresh, UserID: prev.UserID,
		SessionID: pair.SessionID, At: now,
		Metadata: "replaces " + prev.ID,
	})
	return pair, nil
}

// Logout revokes the session owning the refresh token. A token that does not
// decode or matches no session is a no-op: logout never fails the client for
// presenting a stale credential.
func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	if _, err := s.codec.DecodeKind(refreshToken, security.KindRefresh); err != nil {
		return nil
	}
	now := s.clk.Now()
	sess, err := s.sessions.GetByRefreshHash(ctx, security.HashToken(refreshToken))
	if err != nil {
		return err
	}
	if sess == nil {
		return nil
	}
	if err := s.sessions.Revoke(ctx, now, sess.ID); err != nil {
		return err
	}
	s.audit(ctx, audit.Event{Action: audit.ActionLogout, UserID: sess.UserID, SessionID: sess.ID, At: now})
	return nil
}

// RevokeSession revokes one session by id. Idempotent.
func (s *Service) RevokeSession(ctx context.Context, sessionID string) error {
	now := s.clk.Now()
	sess, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return err
	}
	if sess == nil {
		return autherr.ErrNotFound
	}
	if err := s.sessions.Revoke(ctx, now, sess.ID); err != nil {
		return err
	}
	s.audit(ctx, audit.Event{Action: audit.ActionLogout, UserID: sess.UserID, SessionID: sess.ID, At: now})
	return nil
}

// RevokeAll revokes every session the user holds.
func (s *Service) RevokeAll(ctx context.Context, userID string) error {
	now := s.clk.Now()
	if err := s.sessions.RevokeAllByUser(ctx, now, userID); err != nil {
		return err
	}
	s.audit(ctx, audit.Event{Action: audit.ActionRevokeAll, UserID: userID, At: now})
	return nil
}

// ValidateAccess decodes an access token. Stateless: revocation of the
// backing session does not invalidate outstanding access tokens, which is
// why their TTL is short.
func (s *Service) ValidateAccess(_ context.Context, token string) (*security.Claims, error) {
	return s.codec.DecodeKind(token, security.KindAccess)
}

// ChangePassword verifies the current secret, installs the new digest, and
// revokes every session so stolen refresh tokens die with the old password.
func (s *Service) ChangePassword(ctx context.Context, userID, current, newPassword string) error {
	now := s.clk.Now()
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if u == nil {
		return autherr.ErrNotFound
	}
	if err := s.hasher.Compare(u.PasswordHash, []byte(current)); err != nil {
		return autherr.ErrInvalidCredentials
	}
	digest, err := s.hasher.Hash([]byte(newPassword))
	if err != nil {
		return fmt.Errorf("hash new password: %w", err)
	}
	if err := s.users.UpdatePasswordHash(ctx, userID, digest); err != nil {
		return err
	}
	if err := s.sessions.RevokeAllByUser(ctx, now, userID); err != nil {
		return err
	}
	s.audit(ctx, audit.Event{Action: audit.ActionPasswordChange, UserID: userID, At: now})
	return nil
}

// ListSessions returns one page of the user's sessions, newest first, and
// the cursor for the next page. An empty next cursor means the listing is
// exhausted.
func (s *Service) ListSessions(ctx context.Context, userID, cursor string, pageSize int) ([]*sessiondomain.Session, string, error) {
	before, err := pagination.Decode(cursor)
	if err != nil {
		return nil, "", err
	}
	limit := pagination.ClampPageSize(pageSize, s.pageSizeMax)
	page, err := s.sessions.ListByUser(ctx, userID, before, limit)
	if err != nil {
		return nil, "", err
	}
	var next string
	if len(page) == limit {
		last := page[len(page)-1]
		next = pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID}.Encode()
	}
	return page, next, nil
}

// ListLogins returns one page of the user's login history, newest first.
func (s *Service) ListLogins(ctx context.Context, userID, cursor string, pageSize int) ([]*logindomain.Login, string, error) {
	before, err := pagination.Decode(cursor)
	if err != nil {
		return nil, "", err
	}
	limit := pagination.ClampPageSize(pageSize, s.pageSizeMax)
	page, err := s.logins.ListByUser(ctx, userID, before, limit)
	if err != nil {
		return nil, "", err
	}
	var next string
	if len(page) == limit {
		last := page[len(page)-1]
		next = pagination.Cursor{CreatedAt: last.LoginAt, ID: last.ID}.Encode()
	}
	return page, next, nil
}

// newSession mints a session row and its token pair. The refresh JWT carries
// the session id so audit trails can tie a token to its row.
func (s *Service) newSession(userID, role, ip string, now time.Time) (*sessiondomain.Session, *TokenPair, error) {
	id, err := s.idgen.NewID(now)
	if err != nil {
		return nil, nil, fmt.Errorf("new session id: %w", err)
	}
	refresh, jti, refreshExp, err := s.codec.Issue(security.KindRefresh, userID, role, id, s.refreshTTL)
	if err != nil {
		return nil, nil, fmt.Errorf("issue refresh token: %w", err)
	}
	access, _, accessExp, err := s.codec.Issue(security.KindAccess, userID, role, id, s.accessTTL)
	if err != nil {
		return nil, nil, fmt.Errorf("issue access token: %w", err)
	}
	sess := &sessiondomain.Session{
		ID:               id,
		UserID:           userID,
		RefreshTokenHash: security.HashToken(refresh),
		RefreshJti:       jti,
		LoginIP:          ip,
		ExpiresAt:        refreshExp,
		IsActive:         true,
		LoggedInAt:       now,
		CreatedAt:        now,
	}
	pair := &TokenPair{
		SessionID:        id,
		AccessToken:      access,
		AccessExpiresAt:  accessExp,
		RefreshToken:     refresh,
		RefreshExpiresAt: refreshExp,
	}
	return sess, pair, nil
}

// recordLogin appends a login history row. Best-effort: history must never
// fail a successful login.
func (s *Service) recordLogin(ctx context.Context, userID, ip string, now time.Time) {
	id, err := s.idgen.NewID(now)
	if err != nil {
		log.Printf("auth: login history id: %v", err)
		return
	}
	l := &logindomain.Login{ID: id, UserID: userID, LoginIP: ip, LoginAt: now}
	if err := s.logins.Create(ctx, l); err != nil {
		log.Printf("auth: login history write: %v", err)
	}
}

func (s *Service) audit(ctx context.Context, e audit.Event) {
	e.ID = uuid.NewString()
	s.rec.Record(ctx, e)
}
