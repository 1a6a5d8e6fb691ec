package grpc

import (
	"context"
	"fmt"
	"log/slog"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
)

// Server exposes the standard gRPC health service so mesh probes can check
// liveness without going through the HTTP surface.
type Server struct {
	grpcServer *grpc.Server
	health     *health.Server
	port       int
}

func NewServer(port int) *Server {
	grpcServer := grpc.NewServer()
	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	return &Server{grpcServer: grpcServer, health: healthServer, port: port}
}

// Run blocks serving until ctx is cancelled, then stops gracefully.
func (s *Server) Run(ctx context.Context) error {
	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", s.port))
	if err != nil {
		return fmt.Errorf("grpc listen: %w", err)
	}

	go func() {
		<-ctx.Done()
		s.health.SetServingStatus("", grpc_health_v1.HealthCheckResponse_NOT_SERVING)
		s.grpcServer.GracefulStop()
	}()

	slog.Default().InfoContext(ctx, "grpc health server started",
		"module", "grpc",
		"layer", "adapter",
		"operation", "run",
		"port", s.port,
	)
	if err := s.grpcServer.Serve(listener); err != nil {
		return fmt.Errorf("grpc serve: %w", err)
	}
	return nil
}
