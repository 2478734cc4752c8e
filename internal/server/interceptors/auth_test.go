package interceptors

import (
	"context"
	"testing"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"authcore/backend/internal/clock"
	"authcore/backend/internal/security"
)

func authTestCodec(t *testing.T) (*security.TokenCodec, *clock.Fake) {
	t.Helper()
	clk := clock.NewFake(time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC))
	codec, err := security.NewTestTokenCodec(clk)
	if err != nil {
		t.Fatalf("test codec: %v", err)
	}
	return codec, clk
}

func ctxWithAuth(token string) context.Context {
	md := metadata.Pairs("authorization", "Bearer "+token)
	return metadata.NewIncomingContext(context.Background(), md)
}

func passThrough(called *bool) grpc.UnaryHandler {
	return func(ctx context.Context, req interface{}) (interface{}, error) {
		*called = true
		return "ok", nil
	}
}

func TestAuthUnary_ValidToken(t *testing.T) {
	codec, _ := authTestCodec(t)
	token, _, _, err := codec.Issue(security.KindAccess, "user-1", "user", "sess-1", 15*time.Minute)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	interceptor := AuthUnary(codec, nil)
	info := &grpc.UnaryServerInfo{FullMethod: "/auth.v1.AuthService/ListSessions"}

	var gotUser, gotRole, gotSession string
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		gotUser, _ = GetUserID(ctx)
		gotRole, _ = GetRole(ctx)
		gotSession, _ = GetSessionID(ctx)
		return "ok", nil
	}

	if _, err := interceptor(ctxWithAuth(token), nil, info, handler); err != nil {
		t.Fatalf("interceptor: %v", err)
	}
	if gotUser != "user-1" || gotRole != "user" || gotSession != "sess-1" {
		t.Errorf("identity = %q/%q/%q", gotUser, gotRole, gotSession)
	}
}

func TestAuthUnary_MissingToken(t *testing.T) {
	codec, _ := authTestCodec(t)
	interceptor := AuthUnary(codec, nil)
	info := &grpc.UnaryServerInfo{FullMethod: "/auth.v1.AuthService/ListSessions"}

	var called bool
	_, err := interceptor(context.Background(), nil, info, passThrough(&called))
	if status.Code(err) != codes.Unauthenticated {
		t.Fatalf("expected Unauthenticated, got %v", err)
	}
	if called {
		t.Error("handler must not run without a token")
	}
}

func TestAuthUnary_PublicMethodWithoutToken(t *testing.T) {
	codec, _ := authTestCodec(t)
	public := map[string]bool{"/auth.v1.AuthService/Login": true}
	interceptor := AuthUnary(codec, public)
	info := &grpc.UnaryServerInfo{FullMethod: "/auth.v1.AuthService/Login"}

	var called bool
	if _, err := interceptor(context.Background(), nil, info, passThrough(&called)); err != nil {
		t.Fatalf("public method should pass: %v", err)
	}
	if !called {
		t.Error("handler should run for public method")
	}
}

func TestAuthUnary_RefreshTokenRejected(t *testing.T) {
	codec, _ := authTestCodec(t)
	token, _, _, err := codec.Issue(security.KindRefresh, "user-1", "user", "sess-1", time.Hour)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	interceptor := AuthUnary(codec, nil)
	info := &grpc.UnaryServerInfo{FullMethod: "/auth.v1.AuthService/ListSessions"}

	var called bool
	_, err = interceptor(ctxWithAuth(token), nil, info, passThrough(&called))
	if status.Code(err) != codes.Unauthenticated {
		t.Fatalf("expected Unauthenticated for refresh token, got %v", err)
	}
}

func TestAuthUnary_ExpiredToken(t *testing.T) {
	codec, clk := authTestCodec(t)
	token, _, _, err := codec.Issue(security.KindAccess, "user-1", "user", "sess-1", time.Minute)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	clk.Advance(2 * time.Minute)

	interceptor := AuthUnary(codec, nil)
	info := &grpc.UnaryServerInfo{FullMethod: "/auth.v1.AuthService/ListSessions"}

	var called bool
	_, err = interceptor(ctxWithAuth(token), nil, info, passThrough(&called))
	if status.Code(err) != codes.Unauthenticated {
		t.Fatalf("expected Unauthenticated for expired token, got %v", err)
	}
}

func TestExtractBearer(t *testing.T) {
	cases := []struct {
		name  string
		value string
		want  string
	}{
		{"standard", "Bearer abc123", "abc123"},
		{"lowercase", "bearer abc123", "abc123"},
		{"extra space", "Bearer   abc123", "abc123"},
		{"no prefix", "abc123", ""},
		{"empty", "", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			md := metadata.Pairs("authorization", tc.value)
			ctx := metadata.NewIncomingContext(context.Background(), md)
			if got := extractBearer(ctx); got != tc.want {
				t.Errorf("extractBearer(%q) = %q, want %q", tc.value, got, tc.want)
			}
		})
	}

	if got := extractBearer(context.Background()); got != "" {
		t.Errorf("extractBearer without metadata = %q", got)
	}
}
