package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"aruco-worker-go/internal/logging"
	"aruco-worker-go/internal/vision/markers"
)

const (
	defaultMarkerSide = 200
	maxMarkerSide     = 2048
)

type MarkerHandler struct {
	source Source
}

func NewMarkerHandler(source Source) *MarkerHandler {
	return &MarkerHandler{source: source}
}

// GetLatest godoc
// @Summary Latest marker result
// @Description Markers, poses and rejected candidates of the most recently processed frame
// @Tags markers
// @Produce json
// @Success 200 {object} models.FrameResult
// @Failure 404 {object} ErrorResponse
// @Router /markers/latest [get]
func (h *MarkerHandler) GetLatest(c *gin.Context) {
	res, ok := h.source.Latest()
	if !ok {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "no frame processed yet"})
		return
	}
	c.JSON(http.StatusOK, res)
}

// GetMarkerImage godoc
// @Summary Render a marker
// @Description PNG of a DICT_6X6_250 marker, for printing
// @Tags markers
// @Produce png
// @Param id path int true "Marker id (0-249)"
// @Param size query int false "Side length in pixels (default: 200)"
// @Success 200 {file} binary
// @Failure 400 {object} ErrorResponse
// @Router /markers/{id}/image [get]
func (h *MarkerHandler) GetMarkerImage(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id < 0 || id >= markers.DictionarySize {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "id must be an integer in [0, 250)"})
		return
	}

	side := defaultMarkerSide
	if s := c.Query("size"); s != "" {
		side, err = strconv.Atoi(s)
		if err != nil || side > maxMarkerSide {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "size must be an integer up to 2048"})
			return
		}
	}

	png, err := markers.EncodePNG(id, side)
	if err != nil {
		var status = http.StatusInternalServerError
		if errors.Is(err, markers.ErrInvalidMarker) {
			status = http.StatusBadRequest
		}
		logging.Warn(c).Err(err).Int("marker_id", id).Int("size", side).Msg("Marker render failed")
		c.JSON(status, ErrorResponse{Error: err.Error()})
		return
	}

	logging.Debug(c).Int("marker_id", id).Int("size", side).Int("bytes", len(png)).Msg("Marker rendered")
	c.Header("Cache-Control", "public, max-age=86400")
	c.Data(http.StatusOK, "image/png", png)
}
