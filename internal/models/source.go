package models

import (
	"time"
)

// SourceStatus represents the capture source operational status
type SourceStatus string

const (
	SourceStatusStarting SourceStatus = "starting"
	SourceStatusRunning  SourceStatus = "running"
	SourceStatusStopped  SourceStatus = "stopped"
	SourceStatusFailed   SourceStatus = "failed"
)

// String returns the string representation of SourceStatus
func (s SourceStatus) String() string {
	return string(s)
}

// IsValid checks if the source status is valid
func (s SourceStatus) IsValid() bool {
	switch s {
	case SourceStatusStarting, SourceStatusRunning, SourceStatusStopped, SourceStatusFailed:
		return true
	default:
		return false
	}
}

// SourceStats is the running counters of one capture source
type SourceStats struct {
	SourceID      string
	Status        SourceStatus
	StartedAt     time.Time
	LastFrameTime time.Time
	Width         int
	Height        int

	FrameCount     int64
	ErrorCount     int64
	MarkerFrames   int64 // frames with StatusMarkersFound
	MarkerCount    int64 // accepted markers across all frames
	PoseFailures   int64
	Reinitialized  int64 // calibration re-derived after a frame size change
	LastError      string
	ProcessingTime time.Duration

	// FPS Calculation (rolling window)
	RecentFrameTimes []time.Time
	FPSWindowSize    int
}

// RecordFrame updates counters after a processed frame
func (s *SourceStats) RecordFrame(res FrameResult) {
	now := res.ProcessedAt
	if now.IsZero() {
		now = time.Now()
	}
	s.FrameCount++
	s.LastFrameTime = now
	s.ProcessingTime = res.ProcessingTime
	if res.Status == StatusMarkersFound {
		s.MarkerFrames++
		s.MarkerCount += int64(len(res.Markers))
	}
	s.PoseFailures += int64(len(res.Markers) - res.ValidPoses())

	window := s.FPSWindowSize
	if window <= 0 {
		window = 30
	}
	s.RecentFrameTimes = append(s.RecentFrameTimes, now)
	if len(s.RecentFrameTimes) > window {
		s.RecentFrameTimes = s.RecentFrameTimes[len(s.RecentFrameTimes)-window:]
	}
}

// FPS returns frames per second over the rolling window
func (s *SourceStats) FPS() float64 {
	n := len(s.RecentFrameTimes)
	if n < 2 {
		return 0
	}
	span := s.RecentFrameTimes[n-1].Sub(s.RecentFrameTimes[0])
	if span <= 0 {
		return 0
	}
	return float64(n-1) / span.Seconds()
}

// Response builds the API view of the stats
func (s *SourceStats) Response() SourceResponse {
	return SourceResponse{
		SourceID:       s.SourceID,
		Status:         s.Status,
		StartedAt:      s.StartedAt,
		LastFrameTime:  s.LastFrameTime,
		Width:          s.Width,
		Height:         s.Height,
		FrameCount:     s.FrameCount,
		ErrorCount:     s.ErrorCount,
		MarkerFrames:   s.MarkerFrames,
		MarkerCount:    s.MarkerCount,
		PoseFailures:   s.PoseFailures,
		Reinitialized:  s.Reinitialized,
		FPS:            s.FPS(),
		ProcessingTime: s.ProcessingTime.String(),
		LastError:      s.LastError,
	}
}

// SourceResponse for API
type SourceResponse struct {
	SourceID       string       `json:"source_id"`
	Status         SourceStatus `json:"status"`
	StartedAt      time.Time    `json:"started_at"`
	LastFrameTime  time.Time    `json:"last_frame_time"`
	Width          int          `json:"width"`
	Height         int          `json:"height"`
	FrameCount     int64        `json:"frame_count"`
	ErrorCount     int64        `json:"error_count"`
	MarkerFrames   int64        `json:"marker_frames"`
	MarkerCount    int64        `json:"marker_count"`
	PoseFailures   int64        `json:"pose_failures"`
	Reinitialized  int64        `json:"reinitialized"`
	FPS            float64      `json:"fps"`
	ProcessingTime string       `json:"processing_time"`
	LastError      string       `json:"last_error,omitempty"`
}

// MarkerEvent is published for every frame in which markers were found
type MarkerEvent struct {
	WorkerID  string       `json:"worker_id"`
	SourceID  string       `json:"source_id"`
	FrameID   int64        `json:"frame_id"`
	Timestamp time.Time    `json:"timestamp"`
	Width     int          `json:"width"`
	Height    int          `json:"height"`
	Markers   []MarkerPose `json:"markers"`
}
