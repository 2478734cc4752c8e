package security

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"

	"authcore/backend/internal/clock"
)

// NewTestTokenCodec returns a TokenCodec signed with a freshly generated
// ECDSA P-256 key and driven by clk. For unit tests only.
func NewTestTokenCodec(clk clock.Clock) (*TokenCodec, error) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, err
	}
	return NewTokenCodec(key, key.Public(), "authcore-test", "authcore-api-test", clk), nil
}
