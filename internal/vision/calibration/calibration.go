// Package calibration derives an approximate pinhole camera model from the
// frame size alone, plus the fixed 3D corner template of a printed marker.
package calibration

import (
	"errors"
	"fmt"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"
)

const (
	// DefaultMarkerLength is the printed marker side in metres (2.5 cm)
	DefaultMarkerLength = 0.025

	// DistortionCoefficients is the length of the distortion vector (k1, k2, p1, p2)
	DistortionCoefficients = 4
)

// ErrInvalidDimensions is returned when width or height is not positive
var ErrInvalidDimensions = errors.New("invalid frame dimensions")

// Intrinsics models the projection from camera space to image space
type Intrinsics struct {
	Width  int
	Height int

	// FocalLength is used for both fx and fy
	FocalLength float64
	CX          float64
	CY          float64
}

// Distortion is the lens distortion vector, always zero here
type Distortion [DistortionCoefficients]float64

// Calibration is the immutable camera state for one frame size
type Calibration struct {
	Intrinsics   Intrinsics
	Distortion   Distortion
	MarkerLength float64
	Template     [4]r3.Vector
}

// Initialize derives the camera model for frames of width x height.
// The principal point is the frame centre and the focal length is max(width, height).
func Initialize(width, height int) (*Calibration, error) {
	return InitializeWithMarker(width, height, DefaultMarkerLength)
}

// InitializeWithMarker is Initialize with a custom printed marker side length in metres
func InitializeWithMarker(width, height int, markerLength float64) (*Calibration, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, width, height)
	}
	if markerLength <= 0 {
		return nil, fmt.Errorf("invalid marker length %v", markerLength)
	}

	focal := float64(max(width, height))

	return &Calibration{
		Intrinsics: Intrinsics{
			Width:       width,
			Height:      height,
			FocalLength: focal,
			CX:          float64(width) / 2.0,
			CY:          float64(height) / 2.0,
		},
		MarkerLength: markerLength,
		Template:     MarkerTemplate(markerLength),
	}, nil
}

// MarkerTemplate returns the marker corners centred on the origin in the z=0 plane,
// in the same order the detector reports image corners.
func MarkerTemplate(length float64) [4]r3.Vector {
	h := length / 2.0
	return [4]r3.Vector{
		{X: -h, Y: h, Z: 0},
		{X: h, Y: h, Z: 0},
		{X: h, Y: -h, Z: 0},
		{X: -h, Y: -h, Z: 0},
	}
}

// Matches reports whether the calibration was derived for frames of width x height
func (c *Calibration) Matches(width, height int) bool {
	return c != nil && c.Intrinsics.Width == width && c.Intrinsics.Height == height
}

// CameraMatrix returns K as a 3x3 matrix
func (c *Calibration) CameraMatrix() *mat.Dense {
	in := c.Intrinsics
	return mat.NewDense(3, 3, []float64{
		in.FocalLength, 0, in.CX,
		0, in.FocalLength, in.CY,
		0, 0, 1,
	})
}

// Normalize maps a pixel to normalized camera coordinates (K^-1 applied)
func (c *Calibration) Normalize(u, v float64) (float64, float64) {
	in := c.Intrinsics
	return (u - in.CX) / in.FocalLength, (v - in.CY) / in.FocalLength
}

// ProjectCamera maps a camera-space point to pixel coordinates.
// ok is false for points on or behind the image plane.
func (c *Calibration) ProjectCamera(p r3.Vector) (u, v float64, ok bool) {
	if p.Z <= 1e-9 {
		return 0, 0, false
	}
	var h mat.VecDense
	h.MulVec(c.CameraMatrix(), mat.NewVecDense(3, []float64{p.X, p.Y, p.Z}))
	return h.AtVec(0) / h.AtVec(2), h.AtVec(1) / h.AtVec(2), true
}
