// Package server assembles the gRPC server: interceptor chain, telemetry
// stats handler, and the standard health service.
package server

import (
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"authcore/backend/internal/audit"
	"authcore/backend/internal/security"
	"authcore/backend/internal/server/interceptors"
)

const healthCheckMethod = "/grpc.health.v1.Health/Check"

// Deps holds the dependencies the server wiring needs.
type Deps struct {
	// Codec validates access tokens in the auth interceptor. Required.
	Codec *security.TokenCodec
	// Recorder receives per-RPC audit events. If nil, RPCs are not audited.
	Recorder audit.Recorder
	// PublicMethods is the set of full method names reachable without a
	// Bearer token. Health checks are always public.
	PublicMethods map[string]bool
}

// New builds the gRPC server with the auth and audit interceptors, the
// otelgrpc stats handler, and the grpc.health.v1 service registered. The
// returned health server starts in NOT_SERVING; main flips it once the
// storage layer is reachable.
func New(deps Deps) (*grpc.Server, *health.Server) {
	public := make(map[string]bool, len(deps.PublicMethods)+2)
	for m := range deps.PublicMethods {
		public[m] = true
	}
	public[healthCheckMethod] = true
	public["/grpc.health.v1.Health/Watch"] = true

	skipAudit := map[string]bool{
		healthCheckMethod:              true,
		"/grpc.health.v1.Health/Watch": true,
	}

	s := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(
			interceptors.AuthUnary(deps.Codec, public),
			interceptors.AuditUnary(deps.Recorder, skipAudit),
		),
	)

	healthSrv := health.NewServer()
	healthSrv.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	healthpb.RegisterHealthServer(s, healthSrv)

	return s, healthSrv
}
