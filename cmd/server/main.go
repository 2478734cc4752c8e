// server runs the gRPC serving shell: bearer-auth and audit interceptors,
// OTLP telemetry, and the standard health service. Proto services are
// registered by the deployment that embeds this module.
package main

import (
	"context"
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"authcore/backend/internal/audit"
	"authcore/backend/internal/clock"
	"authcore/backend/internal/config"
	"authcore/backend/internal/db"
	"authcore/backend/internal/security"
	"authcore/backend/internal/server"
	"authcore/backend/internal/telemetry/otel"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is not set; create a .env from .env.example or set DATABASE_URL")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	providers, err := otel.NewProviders(ctx, cfg.OTelEndpoint, "authcore-server", cfg.OTelInsecure)
	if err != nil {
		log.Fatalf("telemetry: %v", err)
	}
	providers.SetGlobal()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = providers.Shutdown(shutdownCtx)
	}()

	conn, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer conn.Close()

	privateKey, err := security.ParsePrivateKey(cfg.JWTPrivateKey)
	if err != nil {
		log.Fatalf("jwt private key: %v", err)
	}
	publicKey, err := security.ParsePublicKey(cfg.JWTPublicKey)
	if err != nil {
		log.Fatalf("jwt public key: %v", err)
	}
	codec := security.NewTokenCodec(privateKey, publicKey, cfg.JWTIssuer, cfg.JWTAudience, clock.System())

	var recorder audit.Recorder = audit.LogRecorder{}
	if kafkaRec := audit.NewKafkaRecorder(cfg.AuditKafkaBrokersList(), cfg.AuditKafkaTopic); kafkaRec != nil {
		defer kafkaRec.Close()
		recorder = kafkaRec
	}

	s, healthSrv := server.New(server.Deps{
		Codec:    codec,
		Recorder: recorder,
	})

	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		log.Fatalf("listen: %v", err)
	}
	defer lis.Close()

	healthSrv.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)

	go func() {
		log.Printf("gRPC server listening on %s", cfg.GRPCAddr)
		if err := s.Serve(lis); err != nil {
			log.Fatalf("serve: %v", err)
		}
	}()

	<-ctx.Done()

	log.Println("shutting down gRPC server...")
	healthSrv.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	s.GracefulStop()
	log.Println("gRPC server stopped")
}
