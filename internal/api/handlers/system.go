package handlers

import (
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
)

// SystemHandler handles system-related endpoints
type SystemHandler struct {
	WorkerID  string
	source    Source
	startedAt time.Time
}

// NewSystemHandler creates a new system handler
func NewSystemHandler(workerID string, source Source) *SystemHandler {
	return &SystemHandler{
		WorkerID:  workerID,
		source:    source,
		startedAt: time.Now(),
	}
}

// @Summary Get system stats
// @Description Process statistics plus the capture source counters
// @Tags system
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /system/stats [get]
func (h *SystemHandler) GetStats(c *gin.Context) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"stats": gin.H{
			"worker_id":      h.WorkerID,
			"uptime_seconds": int64(time.Since(h.startedAt).Seconds()),
			"memory_mb":      m.Alloc / 1024 / 1024,
			"cpu_cores":      runtime.NumCPU(),
			"goroutines":     runtime.NumGoroutine(),
			"go_version":     runtime.Version(),
		},
		"source":    h.source.Stats(),
		"timestamp": time.Now().Unix(),
	})
}

// @Summary Get capture source stats
// @Tags system
// @Produce json
// @Success 200 {object} models.SourceResponse
// @Router /system/source [get]
func (h *SystemHandler) GetSourceStats(c *gin.Context) {
	c.JSON(http.StatusOK, h.source.Stats())
}
