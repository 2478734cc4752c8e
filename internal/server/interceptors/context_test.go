package interceptors

import (
	"context"
	"testing"
)

func TestWithIdentityRoundTrip(t *testing.T) {
	ctx := WithIdentity(context.Background(), "user-1", "admin", "sess-1")

	if v, ok := GetUserID(ctx); !ok || v != "user-1" {
		t.Errorf("GetUserID = %q, %v", v, ok)
	}
	if v, ok := GetRole(ctx); !ok || v != "admin" {
		t.Errorf("GetRole = %q, %v", v, ok)
	}
	if v, ok := GetSessionID(ctx); !ok || v != "sess-1" {
		t.Errorf("GetSessionID = %q, %v", v, ok)
	}
}

func TestGettersOnEmptyContext(t *testing.T) {
	ctx := context.Background()
	if _, ok := GetUserID(ctx); ok {
		t.Error("GetUserID should be unset")
	}
	if _, ok := GetRole(ctx); ok {
		t.Error("GetRole should be unset")
	}
	if _, ok := GetSessionID(ctx); ok {
		t.Error("GetSessionID should be unset")
	}
}
