package health

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName is the gRPC health service name reported for the capture loop
const ServiceName = "aruco.worker.Capture"

// Checker reports whether the worker is producing frames
type Checker interface {
	Healthy() bool
}

// Service serves grpc.health.v1 and mirrors Checker into it
type Service struct {
	server   *grpc.Server
	health   *health.Server
	checker  Checker
	interval time.Duration

	mu      sync.Mutex
	serving bool
	stop    chan struct{}
}

func NewService(checker Checker, interval time.Duration) *Service {
	if interval <= 0 {
		interval = time.Second
	}

	srv := grpc.NewServer()
	hs := health.NewServer()
	healthpb.RegisterHealthServer(srv, hs)

	s := &Service{
		server:   srv,
		health:   hs,
		checker:  checker,
		interval: interval,
		stop:     make(chan struct{}),
	}
	s.update()
	return s
}

// Serve blocks serving on lis and polls the checker until Shutdown
func (s *Service) Serve(lis net.Listener) error {
	go s.watch()

	log.Info().Str("addr", lis.Addr().String()).Msg("gRPC health service listening")
	return s.server.Serve(lis)
}

// ListenAndServe is Serve on a TCP port
func (s *Service) ListenAndServe(port int) error {
	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return fmt.Errorf("failed to listen on gRPC port %d: %w", port, err)
	}
	return s.Serve(lis)
}

func (s *Service) watch() {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.update()
		}
	}
}

func (s *Service) update() {
	healthy := s.checker != nil && s.checker.Healthy()

	s.mu.Lock()
	changed := healthy != s.serving
	s.serving = healthy
	s.mu.Unlock()

	status := healthpb.HealthCheckResponse_NOT_SERVING
	if healthy {
		status = healthpb.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus(ServiceName, status)
	s.health.SetServingStatus("", status)

	if changed {
		log.Info().Str("status", status.String()).Msg("Capture health changed")
	}
}

// Serving returns the last status pushed to the health server
func (s *Service) Serving() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.serving
}

func (s *Service) Shutdown(ctx context.Context) error {
	select {
	case <-s.stop:
	default:
		close(s.stop)
	}
	s.health.Shutdown()

	stopped := make(chan struct{})
	go func() {
		s.server.GracefulStop()
		close(stopped)
	}()

	select {
	case <-stopped:
		return nil
	case <-ctx.Done():
		s.server.Stop()
		return ctx.Err()
	}
}

// Check dials addr and asks for the capture service status
func Check(ctx context.Context, addr string) (healthpb.HealthCheckResponse_ServingStatus, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return healthpb.HealthCheckResponse_UNKNOWN, fmt.Errorf("failed to connect to health service: %w", err)
	}
	defer conn.Close()

	return CheckConn(ctx, conn)
}

// CheckConn asks an existing connection for the capture service status
func CheckConn(ctx context.Context, conn grpc.ClientConnInterface) (healthpb.HealthCheckResponse_ServingStatus, error) {
	resp, err := healthpb.NewHealthClient(conn).Check(ctx, &healthpb.HealthCheckRequest{Service: ServiceName})
	if err != nil {
		return healthpb.HealthCheckResponse_UNKNOWN, fmt.Errorf("health check failed: %w", err)
	}
	return resp.GetStatus(), nil
}
