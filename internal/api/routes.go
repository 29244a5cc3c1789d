package api

func (s *Server) setupRoutes() {
	s.router.GET("/", s.healthHandler.WorkerInfo)
	s.router.GET("/health", s.healthHandler.HealthCheck)

	markers := s.router.Group("/markers")
	{
		markers.GET("/latest", s.markerHandler.GetLatest)
		markers.GET("/:id/image", s.markerHandler.GetMarkerImage)
	}

	s.router.GET("/stream", s.streamHandler.Stream)
	s.router.GET("/snapshot", s.streamHandler.Snapshot)

	system := s.router.Group("/system")
	{
		system.GET("/stats", s.systemHandler.GetStats)
		system.GET("/source", s.systemHandler.GetSourceStats)
	}
}
