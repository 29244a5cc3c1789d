package services

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"aruco-worker-go/internal/config"
	"aruco-worker-go/internal/services/capture"
	"aruco-worker-go/internal/services/health"
	"aruco-worker-go/internal/services/messaging"
	"aruco-worker-go/internal/services/publisher/mjpeg"
)

// ServiceContainer holds all services
type ServiceContainer struct {
	Config    *config.Config
	Messaging *messaging.Service // nil when NATS is disabled or unreachable
	Frames    *mjpeg.Publisher
	Capture   *capture.Service
	Health    *health.Service

	cancel      context.CancelFunc
	captureDone chan struct{}
}

// NewServiceContainer creates the services; NATS failures degrade to no marker events
func NewServiceContainer(cfg *config.Config) (*ServiceContainer, error) {
	sc := &ServiceContainer{Config: cfg}

	var events messaging.Publisher
	if cfg.NatsEnabled {
		msgSvc, err := messaging.NewService(cfg)
		if err != nil {
			log.Warn().Err(err).Str("url", cfg.NatsURL).Msg("NATS unavailable, marker events disabled")
		} else {
			sc.Messaging = msgSvc
			events = msgSvc
		}
	}

	sc.Frames = mjpeg.NewPublisher(cfg.JPEGQuality)
	sc.Capture = capture.NewService(cfg, sc.Frames, events)
	sc.Health = health.NewService(sc.Capture, time.Second)

	return sc, nil
}

// Start launches the capture loop and the gRPC health service in the background
func (sc *ServiceContainer) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	sc.cancel = cancel
	sc.captureDone = make(chan struct{})

	go func() {
		defer close(sc.captureDone)
		if err := sc.Capture.Run(ctx); err != nil {
			log.Error().Err(err).Msg("Capture loop exited")
		}
	}()

	go func() {
		if err := sc.Health.ListenAndServe(sc.Config.GRPCPort); err != nil {
			log.Error().Err(err).Msg("gRPC health service failed")
		}
	}()
}

// Shutdown gracefully shuts down all services
func (sc *ServiceContainer) Shutdown(ctx context.Context) error {
	var errs []error

	if sc.cancel != nil {
		sc.cancel()
		select {
		case <-sc.captureDone:
		case <-ctx.Done():
			errs = append(errs, errors.New("capture loop did not stop in time"))
		}
	}

	if sc.Frames != nil {
		sc.Frames.Shutdown()
	}

	if sc.Health != nil {
		if err := sc.Health.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}

	if sc.Messaging != nil {
		if err := sc.Messaging.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}
