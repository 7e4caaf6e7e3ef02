package grpc

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/DRSN-tech/product-catalog/internal/cfg"
	"github.com/DRSN-tech/product-catalog/pkg/logger"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

const (
	// ServiceName — имя сервиса в протоколе grpc.health.v1.
	ServiceName = "catalog.ProductCatalog"

	defaultProbeInterval = 10 * time.Second
	probeTimeout         = 2 * time.Second
)

// Pinger проверяет доступность хранилища.
type Pinger interface {
	Ping(ctx context.Context) error
}

// GRPCServer отдаёт стандартную проверку здоровья. Статус обновляется фоновой пробой хранилища.
type GRPCServer struct {
	server *grpc.Server
	health *health.Server
	cfg    *cfg.GRPCConfig
	pinger Pinger
	logger logger.Logger

	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

func NewGRPCServer(cfg *cfg.GRPCConfig, pinger Pinger, logger logger.Logger) *GRPCServer {
	srv := grpc.NewServer()
	hs := health.NewServer()

	healthpb.RegisterHealthServer(srv, hs)
	reflection.Register(srv)

	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)

	return &GRPCServer{
		server: srv,
		health: hs,
		cfg:    cfg,
		pinger: pinger,
		logger: logger,
		stop:   make(chan struct{}),
	}
}

func (s *GRPCServer) Start() error {
	addr := fmt.Sprintf(":%s", s.cfg.Port)
	lis, err := net.Listen(s.cfg.NetworkMode, addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	s.wg.Add(1)
	go s.probe()

	return s.server.Serve(lis)
}

// probe периодически пингует хранилище и выставляет статус сервиса и сервера целиком.
func (s *GRPCServer) probe() {
	defer s.wg.Done()

	interval := s.cfg.HealthProbeInterval
	if interval <= 0 {
		interval = defaultProbeInterval
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.check()
	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.check()
		}
	}
}

func (s *GRPCServer) check() {
	ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
	defer cancel()

	status := healthpb.HealthCheckResponse_SERVING
	if err := s.pinger.Ping(ctx); err != nil {
		s.logger.Warnf("health probe failed: %v", err)
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}

	s.health.SetServingStatus(ServiceName, status)
	s.health.SetServingStatus("", status)
}

func (s *GRPCServer) Stop(ctx context.Context) error {
	s.stopOnce.Do(func() {
		close(s.stop)
		s.health.Shutdown()
	})

	done := make(chan struct{})
	go func() {
		s.server.GracefulStop()
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Infof("gRPC server stopped gracefully")
		return nil
	case <-ctx.Done():
		s.server.Stop()
		s.logger.Warnf("gRPC server forced to stop after timeout")
		return ctx.Err()
	}
}
