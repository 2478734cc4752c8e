package server

import (
	"testing"
	"time"

	"authcore/backend/internal/audit"
	"authcore/backend/internal/clock"
	"authcore/backend/internal/security"
)

func TestNewRegistersHealthService(t *testing.T) {
	codec, err := security.NewTestTokenCodec(clock.NewFake(time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)))
	if err != nil {
		t.Fatalf("test codec: %v", err)
	}

	s, healthSrv := New(Deps{
		Codec:         codec,
		Recorder:      audit.NopRecorder{},
		PublicMethods: map[string]bool{"/auth.v1.AuthService/Login": true},
	})
	if s == nil {
		t.Fatal("server should not be nil")
	}
	if healthSrv == nil {
		t.Fatal("health server should not be nil")
	}

	info := s.GetServiceInfo()
	if _, ok := info["grpc.health.v1.Health"]; !ok {
		t.Errorf("health service not registered, got %v", info)
	}
	s.Stop()
}
