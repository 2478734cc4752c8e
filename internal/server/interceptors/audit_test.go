package interceptors

import (
	"context"
	"errors"
	"testing"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"authcore/backend/internal/audit"
)

type channelRecorder struct {
	events chan audit.Event
}

func (r *channelRecorder) Record(_ context.Context, e audit.Event) {
	r.events <- e
}

func TestAuditUnary_RecordsEvent(t *testing.T) {
	rec := &channelRecorder{events: make(chan audit.Event, 1)}
	interceptor := AuditUnary(rec, nil)
	info := &grpc.UnaryServerInfo{FullMethod: "/auth.v1.AuthService/Login"}

	ctx := WithIdentity(context.Background(), "user-1", "user", "sess-1")
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return nil, status.Error(codes.Unauthenticated, "nope")
	}
	if _, err := interceptor(ctx, nil, info, handler); status.Code(err) != codes.Unauthenticated {
		t.Fatalf("interceptor must pass handler error through, got %v", err)
	}

	select {
	case e := <-rec.events:
		if e.Action != "grpc_request" {
			t.Errorf("action = %q", e.Action)
		}
		if e.UserID != "user-1" || e.SessionID != "sess-1" {
			t.Errorf("identity = %q/%q", e.UserID, e.SessionID)
		}
		if e.ID == "" {
			t.Error("event id must be set")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no audit event recorded")
	}
}

func TestAuditUnary_SkipsConfiguredMethods(t *testing.T) {
	rec := &channelRecorder{events: make(chan audit.Event, 1)}
	skip := map[string]bool{"/grpc.health.v1.Health/Check": true}
	interceptor := AuditUnary(rec, skip)
	info := &grpc.UnaryServerInfo{FullMethod: "/grpc.health.v1.Health/Check"}

	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return "ok", nil
	}
	if _, err := interceptor(context.Background(), nil, info, handler); err != nil {
		t.Fatalf("interceptor: %v", err)
	}

	select {
	case <-rec.events:
		t.Fatal("skipped method must not be recorded")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestAuditUnary_NilRecorderPassesThrough(t *testing.T) {
	interceptor := AuditUnary(nil, nil)
	info := &grpc.UnaryServerInfo{FullMethod: "/auth.v1.AuthService/Login"}

	wantErr := errors.New("handler error")
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return nil, wantErr
	}
	_, err := interceptor(context.Background(), nil, info, handler)
	if !errors.Is(err, wantErr) {
		t.Fatalf("err = %v, want handler error", err)
	}
}

func TestClientIP_XForwardedFor(t *testing.T) {
	md := metadata.Pairs("x-forwarded-for", "203.0.113.7")
	ctx := metadata.NewIncomingContext(context.Background(), md)
	if got := ClientIP(ctx); got != "203.0.113.7" {
		t.Errorf("ClientIP = %q", got)
	}
}

func TestClientIP_XForwardedFor_WithComma(t *testing.T) {
	md := metadata.Pairs("x-forwarded-for", "203.0.113.7, 10.0.0.1")
	ctx := metadata.NewIncomingContext(context.Background(), md)
	if got := ClientIP(ctx); got != "203.0.113.7" {
		t.Errorf("ClientIP = %q", got)
	}
}

func TestClientIP_XRealIP(t *testing.T) {
	md := metadata.Pairs("x-real-ip", "198.51.100.9")
	ctx := metadata.NewIncomingContext(context.Background(), md)
	if got := ClientIP(ctx); got != "198.51.100.9" {
		t.Errorf("ClientIP = %q", got)
	}
}

func TestClientIP_XForwardedFor_Precedence(t *testing.T) {
	md := metadata.Pairs("x-forwarded-for", "203.0.113.7", "x-real-ip", "198.51.100.9")
	ctx := metadata.NewIncomingContext(context.Background(), md)
	if got := ClientIP(ctx); got != "203.0.113.7" {
		t.Errorf("ClientIP = %q, x-forwarded-for should win", got)
	}
}

func TestClientIP_Unknown(t *testing.T) {
	if got := ClientIP(context.Background()); got != "unknown" {
		t.Errorf("ClientIP = %q, want unknown", got)
	}
}
