package security

import (
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestHasherRoundTrip(t *testing.T) {
	h := NewHasher(4) // min cost keeps the test fast

	digest, err := h.Hash([]byte("correct horse battery staple"))
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if err := h.Compare(digest, []byte("correct horse battery staple")); err != nil {
		t.Errorf("Compare with right password: %v", err)
	}
	if err := h.Compare(digest, []byte("wrong password")); err != bcrypt.ErrMismatchedHashAndPassword {
		t.Errorf("Compare with wrong password: want ErrMismatchedHashAndPassword, got %v", err)
	}
}

func TestNewHasherClampsCost(t *testing.T) {
	if got := NewHasher(0).Cost; got != bcrypt.DefaultCost {
		t.Errorf("cost 0: got %d, want default %d", got, bcrypt.DefaultCost)
	}
	if got := NewHasher(99).Cost; got != bcrypt.MaxCost {
		t.Errorf("cost 99: got %d, want max %d", got, bcrypt.MaxCost)
	}
	if got := NewHasher(2).Cost; got != bcrypt.MinCost {
		t.Errorf("cost 2: got %d, want min %d", got, bcrypt.MinCost)
	}
}

func TestTokenHash(t *testing.T) {
	h := HashToken("opaque-refresh-value")
	if len(h) != 64 {
		t.Errorf("hash length: got %d, want 64 hex chars", len(h))
	}
	if !TokenHashEqual("opaque-refresh-value", h) {
		t.Error("TokenHashEqual should match the original token")
	}
	if TokenHashEqual("another-value", h) {
		t.Error("TokenHashEqual should reject a different token")
	}
}
