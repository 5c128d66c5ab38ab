package dashboard

import (
	"context"
	"errors"
	"log/slog"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// HealthService is the service name reported over grpc.health.v1.
const HealthService = "smartfarm.Dashboard"

// GRPCHealth serves the standard gRPC health protocol for the dashboard.
type GRPCHealth struct {
	server *grpc.Server
	health *health.Server
	logger *slog.Logger
}

func NewGRPCHealth(logger *slog.Logger) *GRPCHealth {
	if logger == nil {
		logger = slog.Default()
	}
	g := &GRPCHealth{
		server: grpc.NewServer(),
		health: health.NewServer(),
		logger: logger,
	}
	healthpb.RegisterHealthServer(g.server, g.health)
	g.SetServing(false)
	return g
}

// SetServing flips both the overall and the dashboard service status.
func (g *GRPCHealth) SetServing(ok bool) {
	st := healthpb.HealthCheckResponse_NOT_SERVING
	if ok {
		st = healthpb.HealthCheckResponse_SERVING
	}
	g.health.SetServingStatus("", st)
	g.health.SetServingStatus(HealthService, st)
}

// Serve blocks until ctx is cancelled, then stops gracefully.
func (g *GRPCHealth) Serve(ctx context.Context, lis net.Listener) error {
	errc := make(chan error, 1)
	go func() {
		g.logger.Info("grpc health listening", "addr", lis.Addr().String())
		errc <- g.server.Serve(lis)
	}()

	select {
	case <-ctx.Done():
		g.health.Shutdown()
		g.server.GracefulStop()
		<-errc
		return nil
	case err := <-errc:
		if errors.Is(err, grpc.ErrServerStopped) {
			return nil
		}
		return err
	}
}
