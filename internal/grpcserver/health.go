package grpcserver

import (
	"fmt"
	"log"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// ServiceRuns is the health-checkable name of the report service.
const ServiceRuns = "playscout.Runs"

// Server exposes grpc.health.v1.Health next to the HTTP API so orchestrators
// can probe the process without issuing a run.
type Server struct {
	Addr   string
	GRPC   *grpc.Server
	Health *health.Server
}

func NewServer(addr string) *Server {
	gs := grpc.NewServer()
	hs := health.NewServer()
	healthpb.RegisterHealthServer(gs, hs)
	reflection.Register(gs)

	s := &Server{Addr: addr, GRPC: gs, Health: hs}
	s.SetServing(true)
	return s
}

// SetServing flips both the overall status and ServiceRuns.
func (s *Server) SetServing(ok bool) {
	st := healthpb.HealthCheckResponse_NOT_SERVING
	if ok {
		st = healthpb.HealthCheckResponse_SERVING
	}
	s.Health.SetServingStatus("", st)
	s.Health.SetServingStatus(ServiceRuns, st)
}

// Serve blocks until the server stops.
func (s *Server) Serve(lis net.Listener) error {
	log.Printf("[grpc] health service listening on %s", lis.Addr())
	if err := s.GRPC.Serve(lis); err != nil {
		return fmt.Errorf("grpc serve: %w", err)
	}
	return nil
}

func (s *Server) ListenAndServe() error {
	lis, err := net.Listen("tcp", s.Addr)
	if err != nil {
		return fmt.Errorf("grpc listen: %w", err)
	}
	return s.Serve(lis)
}

// Stop reports NOT_SERVING to watchers and then drains in-flight calls.
func (s *Server) Stop() {
	s.Health.Shutdown()
	s.GRPC.GracefulStop()
}
