// Package overlay draws diagnostic geometry into RGBA frame Mats.
package overlay

import (
	"image"
	"image/color"
	"math"

	"github.com/golang/geo/r3"
	"gocv.io/x/gocv"

	"aruco-worker-go/internal/models"
	"aruco-worker-go/internal/vision/calibration"
	"aruco-worker-go/internal/vision/pose"
)

const (
	// CornerRadius is the radius of every diagnostic circle in pixels
	CornerRadius = 8

	// DefaultAxisLength is the gizmo length in metres
	DefaultAxisLength = 0.03

	axisThickness = 3
)

var (
	// Red marks rejected marker candidates and the X axis
	Red = color.RGBA{R: 255, A: 255}
	// Green marks accepted markers, feature corners and the Y axis
	Green = color.RGBA{G: 255, A: 255}
	// Blue draws the Z axis
	Blue = color.RGBA{B: 255, A: 255}
)

// Ink converts a colour for drawing on an RGBA Mat.
// gocv packs color.RGBA as BGRA scalars, so red and blue are swapped here.
func Ink(c color.RGBA) color.RGBA {
	return color.RGBA{R: c.B, G: c.G, B: c.R, A: c.A}
}

// DrawCircles draws an unfilled circle around every point and returns how many were drawn
func DrawCircles(img *gocv.Mat, pts []models.Point2D, c color.RGBA) int {
	ink := Ink(c)
	n := 0
	for _, p := range pts {
		if !finite(p) {
			continue
		}
		gocv.Circle(img, toImagePoint(p), CornerRadius, ink, 1)
		n++
	}
	return n
}

// DrawQuads circles every corner of every quad
func DrawQuads(img *gocv.Mat, quads []models.Quad, c color.RGBA) int {
	n := 0
	for _, q := range quads {
		n += DrawCircles(img, q.Points(), c)
	}
	return n
}

// DrawAxes projects an X/Y/Z gizmo of the given length (metres) at the marker origin
// and draws it in red, green and blue. Axes that fall behind the camera are skipped.
func DrawAxes(img *gocv.Mat, cal *calibration.Calibration, p models.Pose, length float64) int {
	if length <= 0 {
		length = DefaultAxisLength
	}
	pts, ok := pose.Project([]r3.Vector{
		{},
		{X: length},
		{Y: length},
		{Z: length},
	}, p, cal)
	if !ok[0] {
		return 0
	}

	origin := toImagePoint(pts[0])
	colors := []color.RGBA{Red, Green, Blue}
	drawn := 0
	for i, c := range colors {
		if !ok[i+1] || !finite(pts[i+1]) {
			continue
		}
		gocv.Line(img, origin, toImagePoint(pts[i+1]), Ink(c), axisThickness)
		drawn++
	}
	return drawn
}

func finite(p models.Point2D) bool {
	const limit = 1 << 20
	return !math.IsNaN(p.X) && !math.IsNaN(p.Y) && math.Abs(p.X) < limit && math.Abs(p.Y) < limit
}

func toImagePoint(p models.Point2D) image.Point {
	return image.Pt(int(math.Round(p.X)), int(math.Round(p.Y)))
}
