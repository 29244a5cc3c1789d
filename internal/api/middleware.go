package api

import (
	"aruco-worker-go/internal/api/middleware"
)

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.Recovery())
	s.router.Use(middleware.RequestID())
	s.router.Use(middleware.RequestContext())
	s.router.Use(middleware.Logger("/stream"))
	s.router.Use(middleware.CORS())
}
