package httpapi

import (
	"context"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"gradebook.org/internal/obs"
)

const grpcServiceName = "gradebook.v1.Gradebook"

// NewGRPCServer builds the gRPC endpoint carrying the standard health
// service, backed by the same readiness probe as /readyz. Load balancers and
// orchestration probes consume this; the record API stays on HTTP.
func NewGRPCServer() (*grpc.Server, *health.Server) {
	srv := grpc.NewServer()
	hs := health.NewServer()
	hs.SetServingStatus(grpcServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(srv, hs)
	reflection.Register(srv)
	return srv, hs
}

// WatchReadiness keeps the gRPC health status in sync with the readiness
// probe until the context ends.
func WatchReadiness(ctx context.Context, rp ReadyProbe, hs *health.Server, interval time.Duration) {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			checkCtx, cancel := context.WithTimeout(ctx, interval)
			err := rp.Check(checkCtx)
			cancel()
			if err != nil {
				obs.SetReady(false)
				hs.SetServingStatus(grpcServiceName, healthpb.HealthCheckResponse_NOT_SERVING)
				continue
			}
			obs.SetReady(true)
			hs.SetServingStatus(grpcServiceName, healthpb.HealthCheckResponse_SERVING)
		}
	}
}
