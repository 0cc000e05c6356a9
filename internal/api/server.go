package api

import (
	"fmt"
	"net"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"ledgerpay/gen/paymentpb"
	"ledgerpay/internal/common/logging"
)

// Server wires the handler, interceptors, health service and
// reflection into one gRPC server with a drain-aware shutdown.
type Server struct {
	grpcServer   *grpc.Server
	healthServer *health.Server
	port         int
}

// NewServer creates a configured Server.
func NewServer(handler *Handler, admitter Admitter, port int) *Server {
	grpcServer := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			CorrelationInterceptor(),
			RateLimitInterceptor(admitter),
			MetricsInterceptor(),
		),
	)

	paymentpb.RegisterPaymentServiceServer(grpcServer, handler)

	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus(paymentpb.PaymentService_ServiceDesc.ServiceName,
		grpc_health_v1.HealthCheckResponse_SERVING)

	reflection.Register(grpcServer)

	return &Server{
		grpcServer:   grpcServer,
		healthServer: healthServer,
		port:         port,
	}
}

// ListenAndServe blocks serving RPCs until Shutdown or a listener error.
func (s *Server) ListenAndServe() error {
	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", s.port))
	if err != nil {
		return fmt.Errorf("listening on port %d: %w", s.port, err)
	}
	logging.Info("grpc server listening", "port", s.port)
	return s.grpcServer.Serve(lis)
}

// Shutdown drains the server: health flips to NOT_SERVING so load
// balancers stop routing, in-flight RPCs get the grace period to
// finish, then the server stops hard.
func (s *Server) Shutdown(grace time.Duration) {
	s.healthServer.Shutdown()

	done := make(chan struct{})
	go func() {
		s.grpcServer.GracefulStop()
		close(done)
	}()

	select {
	case <-done:
		logging.Info("grpc server drained")
	case <-time.After(grace):
		logging.Warn("grace period elapsed, forcing stop")
		s.grpcServer.Stop()
	}
}
