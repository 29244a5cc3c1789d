package handlers

import (
	"net/http"

	"aruco-worker-go/internal/models"
)

// Source is the capture loop as seen by the API
type Source interface {
	SourceID() string
	Healthy() bool
	Latest() (models.FrameResult, bool)
	Stats() models.SourceResponse
}

// FrameSource serves annotated preview frames
type FrameSource interface {
	Latest(sourceID string) ([]byte, bool)
	StreamMJPEGHTTP(w http.ResponseWriter, r *http.Request, sourceID string)
}

// Broker reports the marker event connection; nil when events are disabled
type Broker interface {
	IsConnected() bool
}

// ErrorResponse is the body of every non-2xx JSON reply
type ErrorResponse struct {
	Error string `json:"error" example:"no frame processed yet"`
}
