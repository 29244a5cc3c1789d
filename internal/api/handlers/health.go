package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"aruco-worker-go/internal/config"
)

type HealthHandler struct {
	WorkerID string
	Version  string
	Mode     string
	source   Source
	broker   Broker
}

func NewHealthHandler(cfg *config.Config, source Source, broker Broker) *HealthHandler {
	return &HealthHandler{
		WorkerID: cfg.WorkerID,
		Version:  cfg.Version,
		Mode:     cfg.PipelineMode,
		source:   source,
		broker:   broker,
	}
}

type HealthResponse struct {
	Status   string `json:"status" example:"healthy"`
	WorkerID string `json:"worker_id" example:"worker-1"`
	SourceID string `json:"source_id" example:"0"`
	// absent when marker events are disabled
	NATSConnected *bool `json:"nats_connected,omitempty" example:"true"`
}

type WorkerInfoResponse struct {
	WorkerID     string   `json:"worker_id" example:"worker-1"`
	Status       string   `json:"status" example:"running"`
	Version      string   `json:"version" example:"1.0.0"`
	Mode         string   `json:"mode" example:"markers"`
	Capabilities []string `json:"capabilities"`
}

// @Summary Health check
// @Description Healthy while the capture source is delivering frames. A lost NATS link is reported but does not degrade the worker.
// @Tags health
// @Produce json
// @Success 200 {object} HealthResponse
// @Failure 503 {object} HealthResponse
// @Router /health [get]
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	resp := HealthResponse{
		Status:   "healthy",
		WorkerID: h.WorkerID,
		SourceID: h.source.SourceID(),
	}
	if h.broker != nil {
		connected := h.broker.IsConnected()
		resp.NATSConnected = &connected
	}
	if !h.source.Healthy() {
		resp.Status = "degraded"
		c.JSON(http.StatusServiceUnavailable, resp)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// @Summary Worker information
// @Description Get basic worker information and capabilities
// @Tags health
// @Produce json
// @Success 200 {object} WorkerInfoResponse
// @Router / [get]
func (h *HealthHandler) WorkerInfo(c *gin.Context) {
	caps := []string{"mjpeg_preview", "marker_generation"}
	switch h.Mode {
	case config.ModeMarkers:
		caps = append(caps, "aruco_detection", "pose_estimation")
	case config.ModeFeatures:
		caps = append(caps, "feature_probe")
	case config.ModeBoth:
		caps = append(caps, "aruco_detection", "pose_estimation", "feature_probe")
	}

	c.JSON(http.StatusOK, WorkerInfoResponse{
		WorkerID:     h.WorkerID,
		Status:       string(h.source.Stats().Status),
		Version:      h.Version,
		Mode:         h.Mode,
		Capabilities: caps,
	})
}
