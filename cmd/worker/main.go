package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"aruco-worker-go/internal/api"
	"aruco-worker-go/internal/api/handlers"
	"aruco-worker-go/internal/config"
	"aruco-worker-go/internal/logging"
	"aruco-worker-go/internal/services"
	"aruco-worker-go/internal/services/health"
)

func main() {
	healthcheck := flag.Bool("healthcheck", false, "query the local gRPC health service and exit 0 when serving")
	flag.Parse()

	// Setup structured logging
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	// Load configuration
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	if *healthcheck {
		os.Exit(runHealthcheck(cfg))
	}

	// Set log level
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Warn().Str("level", cfg.LogLevel).Msg("Invalid log level, using info")
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.LogdyEnabled {
		w, _, err := logging.StartLogdy(cfg)
		if err != nil {
			log.Warn().Err(err).Msg("Logdy UI unavailable, logging to console only")
		} else {
			log.Logger = log.Output(io.MultiWriter(zerolog.ConsoleWriter{Out: os.Stderr}, w))
		}
	}

	log.Info().
		Str("worker_id", cfg.WorkerID).
		Str("version", cfg.Version).
		Str("environment", cfg.Environment).
		Str("source", cfg.CaptureSource).
		Str("mode", cfg.PipelineMode).
		Int("port", cfg.Port).
		Int("grpc_port", cfg.GRPCPort).
		Msg("Starting ArUco worker")

	container, err := services.NewServiceContainer(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create services")
	}
	container.Start()

	var broker handlers.Broker
	if container.Messaging != nil {
		broker = container.Messaging
	}
	server := api.NewServer(cfg, container.Capture, container.Frames, broker)

	// Start server in goroutine
	go func() {
		if err := server.Start(); err != nil {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutdown signal received")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	if err := container.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Services forced to shutdown")
	} else {
		log.Info().Msg("Server shutdown complete")
	}
}

// runHealthcheck returns the exit code for -healthcheck: 0 when the local capture service reports SERVING
func runHealthcheck(cfg *config.Config) int {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	status, err := health.Check(ctx, fmt.Sprintf("localhost:%d", cfg.GRPCPort))
	if err != nil {
		log.Error().Err(err).Int("grpc_port", cfg.GRPCPort).Msg("Health check failed")
		return 1
	}
	if status != healthpb.HealthCheckResponse_SERVING {
		log.Warn().Str("status", status.String()).Msg("Worker not serving")
		return 1
	}
	return 0
}
