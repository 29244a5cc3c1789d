package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"aruco-worker-go/internal/api/handlers"
	"aruco-worker-go/internal/config"
)

type Server struct {
	config *config.Config
	router *gin.Engine
	server *http.Server

	healthHandler *handlers.HealthHandler
	markerHandler *handlers.MarkerHandler
	streamHandler *handlers.StreamHandler
	systemHandler *handlers.SystemHandler
}

// NewServer wires the handlers around one capture source and its preview frames.
// broker may be nil when marker events are disabled.
func NewServer(cfg *config.Config, source handlers.Source, frames handlers.FrameSource, broker handlers.Broker) *Server {
	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		config:        cfg,
		router:        gin.New(),
		healthHandler: handlers.NewHealthHandler(cfg, source, broker),
		markerHandler: handlers.NewMarkerHandler(source),
		streamHandler: handlers.NewStreamHandler(source.SourceID(), frames),
		systemHandler: handlers.NewSystemHandler(cfg.WorkerID, source),
	}

	s.setupMiddleware()
	s.setupRoutes()
	s.setupSwagger()

	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: s.router,
	}
	return s
}

// Handler exposes the router for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Start() error {
	log.Info().Int("port", s.config.Port).Msg("Starting HTTP API")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	log.Info().Msg("Stopping HTTP API")
	return s.server.Shutdown(ctx)
}
