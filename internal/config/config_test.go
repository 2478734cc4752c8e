package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	os.Clearenv()
	os.Setenv("GRPC_ADDR", ":8080")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.GRPCAddr != ":8080" {
		t.Errorf("GRPCAddr = %q, want %q", cfg.GRPCAddr, ":8080")
	}
	if cfg.JWTIssuer != "authcore" {
		t.Errorf("JWTIssuer = %q, want %q", cfg.JWTIssuer, "authcore")
	}
	if cfg.JWTAudience != "authcore-api" {
		t.Errorf("JWTAudience = %q, want %q", cfg.JWTAudience, "authcore-api")
	}
	if cfg.BcryptCost != 12 {
		t.Errorf("BcryptCost = %d, want 12", cfg.BcryptCost)
	}
	if cfg.PageSizeMax != 100 {
		t.Errorf("PageSizeMax = %d, want 100", cfg.PageSizeMax)
	}
	if cfg.AuditKafkaTopic != "authcore-audit" {
		t.Errorf("AuditKafkaTopic = %q, want default", cfg.AuditKafkaTopic)
	}
	if got := cfg.AccessTTL(); got != 15*time.Minute {
		t.Errorf("AccessTTL = %v, want 15m", got)
	}
	if got := cfg.RefreshTTL(); got != 168*time.Hour {
		t.Errorf("RefreshTTL = %v, want 168h", got)
	}
	if got := cfg.ResetTTL(); got != time.Hour {
		t.Errorf("ResetTTL = %v, want 1h", got)
	}
	if got := cfg.VerificationTTL(); got != 72*time.Hour {
		t.Errorf("VerificationTTL = %v, want 72h", got)
	}
	if got := cfg.SweepRetentionDuration(); got != 720*time.Hour {
		t.Errorf("SweepRetention = %v, want 720h", got)
	}
}

func TestLoad_EnvVarOverride(t *testing.T) {
	os.Clearenv()
	os.Setenv("GRPC_ADDR", ":9090")
	os.Setenv("JWT_ISSUER", "custom-issuer")
	os.Setenv("BCRYPT_COST", "14")
	os.Setenv("JWT_ACCESS_TTL", "5m")
	os.Setenv("PAGE_SIZE_MAX", "25")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.GRPCAddr != ":9090" {
		t.Errorf("GRPCAddr = %q, want %q", cfg.GRPCAddr, ":9090")
	}
	if cfg.JWTIssuer != "custom-issuer" {
		t.Errorf("JWTIssuer = %q, want %q", cfg.JWTIssuer, "custom-issuer")
	}
	if cfg.BcryptCost != 14 {
		t.Errorf("BcryptCost = %d, want 14", cfg.BcryptCost)
	}
	if got := cfg.AccessTTL(); got != 5*time.Minute {
		t.Errorf("AccessTTL = %v, want 5m", got)
	}
	if cfg.PageSizeMax != 25 {
		t.Errorf("PageSizeMax = %d, want 25", cfg.PageSizeMax)
	}
}

func TestLoad_InvalidBcryptCost(t *testing.T) {
	os.Clearenv()
	os.Setenv("GRPC_ADDR", ":8080")
	os.Setenv("BCRYPT_COST", "99")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for out-of-range bcrypt cost")
	}
}

func TestLoad_InvalidPageSizeMax(t *testing.T) {
	os.Clearenv()
	os.Setenv("GRPC_ADDR", ":8080")
	os.Setenv("PAGE_SIZE_MAX", "0")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for zero page size max")
	}
}

func TestAuditKafkaBrokersList(t *testing.T) {
	cfg := &Config{AuditKafkaBrokers: "localhost:9092, broker2:9092 ,"}
	got := cfg.AuditKafkaBrokersList()
	if len(got) != 2 || got[0] != "localhost:9092" || got[1] != "broker2:9092" {
		t.Errorf("AuditKafkaBrokersList = %v", got)
	}

	cfg = &Config{}
	if got := cfg.AuditKafkaBrokersList(); got != nil {
		t.Errorf("expected nil for empty brokers, got %v", got)
	}
}

func TestDurationFallbacks(t *testing.T) {
	cfg := &Config{JWTAccessTTL: "garbage", JWTRefreshTTL: "-5m"}
	if got := cfg.AccessTTL(); got != 15*time.Minute {
		t.Errorf("AccessTTL fallback = %v, want 15m", got)
	}
	if got := cfg.RefreshTTL(); got != 168*time.Hour {
		t.Errorf("RefreshTTL fallback = %v, want 168h", got)
	}
}
