package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type StreamHandler struct {
	sourceID string
	frames   FrameSource
}

func NewStreamHandler(sourceID string, frames FrameSource) *StreamHandler {
	return &StreamHandler{sourceID: sourceID, frames: frames}
}

// Stream godoc
// @Summary Annotated MJPEG stream
// @Description multipart/x-mixed-replace stream of frames with marker axes and probe circles drawn in
// @Tags stream
// @Produce multipart/x-mixed-replace
// @Success 200
// @Router /stream [get]
func (h *StreamHandler) Stream(c *gin.Context) {
	h.frames.StreamMJPEGHTTP(c.Writer, c.Request, h.sourceID)
}

// Snapshot godoc
// @Summary Latest annotated frame
// @Tags stream
// @Produce jpeg
// @Success 200 {file} binary
// @Failure 404 {object} ErrorResponse
// @Router /snapshot [get]
func (h *StreamHandler) Snapshot(c *gin.Context) {
	jpeg, ok := h.frames.Latest(h.sourceID)
	if !ok {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "no frame published yet"})
		return
	}
	c.Header("Cache-Control", "no-cache")
	c.Data(http.StatusOK, "image/jpeg", jpeg)
}
