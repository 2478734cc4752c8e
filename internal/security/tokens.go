package security

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/rsa"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"authcore/backend/internal/autherr"
	"authcore/backend/internal/clock"
)

// Kind identifies the purpose of a signed token. The codec stamps it into the
// jty claim so a structurally valid token can never be replayed as a
// different kind.
type Kind string

// Token kinds issued by this service.
const (
	KindAccess            Kind = "access"
	KindRefresh           Kind = "refresh"
	KindPasswordReset     Kind = "password_reset"
	KindEmailVerification Kind = "email_verification"
)

// Claims is the signed claim set carried by every token: the registered JWT
// claims plus the subject's role, the session binding, and the token kind.
type Claims struct {
	jwt.RegisteredClaims
	Role      string `json:"role,omitempty"`
	SessionID string `json:"session_id,omitempty"`
	Kind      Kind   `json:"jty"`
}

// TokenCodec signs and verifies time-bounded claims with RS256 or ES256,
// picked from the key type. Decoding is stateless: validity is determined
// entirely by the signature and the expiry claim.
type TokenCodec struct {
	privateKey crypto.Signer
	publicKey  crypto.PublicKey
	issuer     string
	audience   string
	clk        clock.Clock
}

// NewTokenCodec returns a TokenCodec signing with privateKey and verifying
// with publicKey. issuer and audience are stamped on every token and enforced
// on decode. clk drives expiry evaluation; pass clock.System() in production.
func NewTokenCodec(privateKey crypto.Signer, publicKey crypto.PublicKey, issuer, audience string, clk clock.Clock) *TokenCodec {
	return &TokenCodec{
		privateKey: privateKey,
		publicKey:  publicKey,
		issuer:     issuer,
		audience:   audience,
		clk:        clk,
	}
}

// Issue signs a token of the given kind for userID with the given ttl.
// Returns the token string, its jti, and the expiry time.
func (c *TokenCodec) Issue(kind Kind, userID, role, sessionID string, ttl time.Duration) (token, jti string, expiresAt time.Time, err error) {
	jti = uuid.New().String()
	now := c.clk.Now()
	expiresAt = now.Add(ttl)
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Subject:   userID,
			Issuer:    c.issuer,
			Audience:  jwt.ClaimStrings{c.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Role:      role,
		SessionID: sessionID,
		Kind:      kind,
	}
	token, err = c.sign(claims)
	return token, jti, expiresAt, err
}

func (c *TokenCodec) sign(claims jwt.Claims) (string, error) {
	var method jwt.SigningMethod
	switch c.privateKey.Public().(type) {
	case *rsa.PublicKey:
		method = jwt.SigningMethodRS256
	case *ecdsa.PublicKey:
		method = jwt.SigningMethodES256
	default:
		return "", autherr.ErrInvalidSignature
	}
	return jwt.NewWithClaims(method, claims).SignedString(c.privateKey)
}

// Decode verifies signature, expiry, issuer, and audience, and returns the
// claims. Failure modes are distinct: autherr.ErrTokenExpired for a valid but
// expired token, autherr.ErrInvalidSignature for a bad signature, and
// autherr.ErrMalformed for anything that does not parse as a token.
// Kind enforcement is the caller's job via DecodeKind or Claims.Kind.
func (c *TokenCodec) Decode(tokenString string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{},
		func(t *jwt.Token) (interface{}, error) { return c.publicKey, nil },
		jwt.WithValidMethods([]string{"RS256", "ES256"}),
		jwt.WithIssuer(c.issuer),
		jwt.WithAudience(c.audience),
		jwt.WithTimeFunc(c.clk.Now),
	)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, autherr.ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, autherr.ErrInvalidSignature
		case errors.Is(err, jwt.ErrTokenMalformed):
			return nil, autherr.ErrMalformed
		default:
			return nil, autherr.ErrInvalidSignature
		}
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, autherr.ErrInvalidSignature
	}
	return claims, nil
}

// DecodeKind decodes the token and additionally enforces its kind, failing
// with autherr.ErrWrongTokenKind when a valid token of another kind is
// presented.
func (c *TokenCodec) DecodeKind(tokenString string, want Kind) (*Claims, error) {
	claims, err := c.Decode(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.Kind != want {
		return nil, autherr.ErrWrongTokenKind
	}
	return claims, nil
}
