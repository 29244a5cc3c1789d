package models

import (
	"time"

	"github.com/golang/geo/r3"
)

// Status is the per-frame outcome reported across the pipeline boundary
type Status int32

const (
	StatusNoMarkers    Status = -1
	StatusMarkersFound Status = 1
)

// String returns the string representation of Status
func (s Status) String() string {
	switch s {
	case StatusNoMarkers:
		return "no_markers"
	case StatusMarkersFound:
		return "markers_found"
	default:
		return "unknown"
	}
}

// Point2D is an image-space point in pixels
type Point2D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Quad holds the four corners of a marker candidate.
// Order follows the detector: top-left, top-right, bottom-right, bottom-left of the printed code.
type Quad [4]Point2D

// Points returns the corners as a slice
func (q Quad) Points() []Point2D {
	return q[:]
}

// DetectionResult is the raw output of one detector pass
type DetectionResult struct {
	IDs      []int  `json:"ids"`
	Corners  []Quad `json:"corners"`
	Rejected []Quad `json:"rejected"`
}

// Count returns the number of accepted markers
func (d DetectionResult) Count() int {
	return len(d.IDs)
}

// Pose is a rigid marker-to-camera transform.
// Rotation is an axis-angle vector (radians), Translation is in metres.
type Pose struct {
	Rotation    r3.Vector `json:"rotation"`
	Translation r3.Vector `json:"translation"`

	// Mean distance in pixels between observed corners and reprojected template corners
	ReprojectionError float64 `json:"reprojection_error"`
}

// Distance returns the euclidean distance from the camera centre to the marker origin
func (p Pose) Distance() float64 {
	return p.Translation.Norm()
}

// MarkerPose pairs an accepted marker with its solved pose.
// Valid is false when the pose could not be solved for this marker; Err carries the reason.
type MarkerPose struct {
	ID      int    `json:"id"`
	Corners Quad   `json:"corners"`
	Pose    Pose   `json:"pose"`
	Valid   bool   `json:"valid"`
	Err     string `json:"error,omitempty"`
}

// FrameResult is the self-contained snapshot returned for one processed frame
type FrameResult struct {
	Status   Status       `json:"status"`
	Width    int          `json:"width"`
	Height   int          `json:"height"`
	Markers  []MarkerPose `json:"markers"`
	Rejected []Quad       `json:"rejected"`
	Features []Point2D    `json:"features,omitempty"`

	ProcessedAt    time.Time     `json:"processed_at"`
	ProcessingTime time.Duration `json:"processing_time_ns"`
}

// ValidPoses returns how many markers carry a solved pose
func (r FrameResult) ValidPoses() int {
	n := 0
	for _, m := range r.Markers {
		if m.Valid {
			n++
		}
	}
	return n
}

// IDs returns the accepted marker ids in detection order
func (r FrameResult) IDs() []int {
	ids := make([]int, 0, len(r.Markers))
	for _, m := range r.Markers {
		ids = append(ids, m.ID)
	}
	return ids
}
