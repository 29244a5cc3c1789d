package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// Pipeline modes
const (
	ModeMarkers  = "markers"
	ModeFeatures = "features"
	ModeBoth     = "both"
)

type Config struct {
	// Application
	Version     string
	Environment string
	WorkerID    string
	Port        int
	LogLevel    string

	// Logdy (lightweight web log viewer)
	LogdyEnabled bool
	LogdyHost    string
	LogdyPort    int

	// Capture
	// Device index ("0") or any URL/file gocv can open
	CaptureSource        string
	CaptureWidth         int
	CaptureHeight        int
	CaptureFPS           int
	MaxConsecutiveErrors int
	ReconnectInterval    time.Duration // first reopen delay, doubled per failed attempt
	ReconnectBackoffMax  time.Duration
	ReconnectJitterPct   int

	// Pipeline
	PipelineMode string
	MarkerLength float64 // metres
	AxisLength   float64 // metres

	// Feature probe
	FeatureMaxCorners  int
	FeatureQuality     float64
	FeatureMinDistance float64

	// Marker detector tuning, 0 keeps OpenCV defaults
	MarkerErrorCorrectionRate float64
	MarkerMinPerimeterRate    float64

	// NATS (pose events)
	// Default: nats://localhost:4222 (works with Docker Compose setup)
	NatsEnabled        bool
	NatsURL            string
	NatsConnectTimeout time.Duration
	NatsReconnectWait  time.Duration
	NatsMaxReconnects  int
	MarkersSubject     string

	// MJPEG preview
	JPEGQuality int

	// gRPC health
	GRPCPort int

	// Swagger Configuration
	SwaggerHost string

	// Graceful Shutdown
	ShutdownTimeout time.Duration
}

func Load() *Config {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg("No .env file found or error loading .env file, using environment variables and defaults")
	} else {
		log.Info().Msg("Loaded configuration from .env file")
	}

	return &Config{
		// Application
		Version:     getEnv("VERSION", "1.0.0"),
		Environment: getEnv("ENVIRONMENT", "development"),
		WorkerID:    getEnv("WORKER_ID", "worker-1"),
		Port:        getEnvInt("PORT", 8000),
		LogLevel:    getEnv("LOG_LEVEL", "info"),

		// Logdy
		LogdyEnabled: getEnvBool("LOGDY_ENABLED", false),
		LogdyHost:    getEnv("LOGDY_HOST", "localhost"),
		LogdyPort:    getEnvInt("LOGDY_PORT", 8080),

		// Capture
		CaptureSource:        getEnv("CAPTURE_SOURCE", "0"),
		CaptureWidth:         getEnvInt("CAPTURE_WIDTH", 1280),
		CaptureHeight:        getEnvInt("CAPTURE_HEIGHT", 720),
		CaptureFPS:           getEnvInt("CAPTURE_FPS", 30),
		MaxConsecutiveErrors: getEnvInt("MAX_CONSECUTIVE_ERRORS", 10),
		ReconnectInterval:    getEnvDuration("RECONNECT_INTERVAL", 2*time.Second),
		ReconnectBackoffMax:  getEnvDuration("RECONNECT_BACKOFF_MAX", 30*time.Second),
		ReconnectJitterPct:   getEnvInt("RECONNECT_JITTER_PCT", 20),

		// Pipeline
		PipelineMode: strings.ToLower(getEnv("PIPELINE_MODE", ModeMarkers)),
		MarkerLength: getEnvFloat("MARKER_LENGTH_M", 0.025),
		AxisLength:   getEnvFloat("AXIS_LENGTH_M", 0.03),

		FeatureMaxCorners:  getEnvInt("FEATURE_MAX_CORNERS", 20),
		FeatureQuality:     getEnvFloat("FEATURE_QUALITY", 0.01),
		FeatureMinDistance: getEnvFloat("FEATURE_MIN_DISTANCE", 10),

		MarkerErrorCorrectionRate: getEnvFloat("MARKER_ERROR_CORRECTION_RATE", 0),
		MarkerMinPerimeterRate:    getEnvFloat("MARKER_MIN_PERIMETER_RATE", 0),

		// NATS
		NatsEnabled:        getEnvBool("NATS_ENABLED", false),
		NatsURL:            getNatsURL(),
		NatsConnectTimeout: getEnvDuration("NATS_CONNECT_TIMEOUT", 10*time.Second),
		NatsReconnectWait:  getEnvDuration("NATS_RECONNECT_WAIT", 2*time.Second),
		NatsMaxReconnects:  getEnvInt("NATS_MAX_RECONNECTS", -1), // -1 = unlimited
		MarkersSubject:     getEnv("MARKERS_SUBJECT", "markers.poses"),

		JPEGQuality: getEnvInt("JPEG_QUALITY", 85),
		GRPCPort:    getEnvInt("GRPC_PORT", 9090),
		SwaggerHost: getEnv("SWAGGER_HOST", "localhost:8000"),

		// Graceful Shutdown
		ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
	}
}

// Validate rejects values the worker cannot run with
func (c *Config) Validate() error {
	switch c.PipelineMode {
	case ModeMarkers, ModeFeatures, ModeBoth:
	default:
		return fmt.Errorf("unknown PIPELINE_MODE %q", c.PipelineMode)
	}
	if c.CaptureSource == "" {
		return fmt.Errorf("CAPTURE_SOURCE is empty")
	}
	if c.CaptureWidth <= 0 || c.CaptureHeight <= 0 {
		return fmt.Errorf("invalid capture size %dx%d", c.CaptureWidth, c.CaptureHeight)
	}
	if c.MarkerLength <= 0 || c.AxisLength <= 0 {
		return fmt.Errorf("marker and axis lengths must be positive")
	}
	if c.FeatureMaxCorners <= 0 {
		return fmt.Errorf("FEATURE_MAX_CORNERS must be positive")
	}
	if c.JPEGQuality < 1 || c.JPEGQuality > 100 {
		return fmt.Errorf("JPEG_QUALITY must be within 1-100, got %d", c.JPEGQuality)
	}
	if c.ReconnectJitterPct < 0 || c.ReconnectJitterPct > 100 {
		return fmt.Errorf("RECONNECT_JITTER_PCT must be within 0-100, got %d", c.ReconnectJitterPct)
	}
	if c.MaxConsecutiveErrors <= 0 {
		return fmt.Errorf("MAX_CONSECUTIVE_ERRORS must be positive")
	}
	return nil
}

// MarkersEnabled reports whether the marker pipeline runs
func (c *Config) MarkersEnabled() bool {
	return c.PipelineMode == ModeMarkers || c.PipelineMode == ModeBoth
}

// FeaturesEnabled reports whether the feature probe runs
func (c *Config) FeaturesEnabled() bool {
	return c.PipelineMode == ModeFeatures || c.PipelineMode == ModeBoth
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// Helper functions for Docker environment detection
func isRunningInDocker() bool {
	if os.Getenv("DOCKER_CONTAINER") == "true" {
		return true
	}

	if _, err := os.Stat("/.dockerenv"); err == nil {
		return true
	}

	return false
}

// getNatsURL returns the appropriate NATS URL based on environment
func getNatsURL() string {
	if envURL := os.Getenv("NATS_URL"); envURL != "" {
		return envURL
	}

	// If running in Docker, use service name; otherwise use localhost
	if isRunningInDocker() {
		return "nats://nats:4222"
	}

	return "nats://localhost:4222"
}
