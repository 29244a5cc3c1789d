// Package features runs a generic corner-quality probe for visual feedback.
package features

import (
	"fmt"
	"image/color"

	"gocv.io/x/gocv"

	"aruco-worker-go/internal/models"
	"aruco-worker-go/internal/vision/overlay"
)

// Options for the good-features-to-track pass
type Options struct {
	MaxCorners  int
	Quality     float64 // relative to the strongest corner
	MinDistance float64 // pixels between accepted corners
}

// DefaultOptions returns 20 corners, 0.01 quality ratio and 10px spacing
func DefaultOptions() Options {
	return Options{
		MaxCorners:  20,
		Quality:     0.01,
		MinDistance: 10,
	}
}

// Probe finds strong corners and circles them on the frame
type Probe struct {
	opts  Options
	color color.RGBA
}

// NewProbe creates a probe; zero or invalid options fall back to the defaults
func NewProbe(opts Options) *Probe {
	def := DefaultOptions()
	if opts.MaxCorners <= 0 {
		opts.MaxCorners = def.MaxCorners
	}
	if opts.Quality <= 0 || opts.Quality >= 1 {
		opts.Quality = def.Quality
	}
	if opts.MinDistance <= 0 {
		opts.MinDistance = def.MinDistance
	}
	return &Probe{opts: opts, color: overlay.Green}
}

// Options returns the effective options
func (p *Probe) Options() Options {
	return p.opts
}

// Detect finds corners on an RGBA Mat, draws a circle at each, and returns them.
// Only corners actually found are returned; the result is never padded.
func (p *Probe) Detect(rgba *gocv.Mat) ([]models.Point2D, error) {
	pts, err := p.Find(*rgba)
	if err != nil {
		return nil, err
	}
	if n := p.Draw(rgba, pts); n != len(pts) {
		return pts, fmt.Errorf("circled %d of %d corners", n, len(pts))
	}
	return pts, nil
}

// Draw circles each of pts on an RGBA Mat in the probe colour
func (p *Probe) Draw(rgba *gocv.Mat, pts []models.Point2D) int {
	return overlay.DrawCircles(rgba, pts, p.color)
}

// Find returns the corners of an RGBA Mat without drawing
func (p *Probe) Find(rgba gocv.Mat) ([]models.Point2D, error) {
	if rgba.Empty() || rgba.Channels() != 4 {
		return nil, fmt.Errorf("feature probe expects a 4-channel frame, got %d channels", rgba.Channels())
	}

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(rgba, &gray, gocv.ColorRGBAToGray)

	corners := gocv.NewMat()
	defer corners.Close()
	gocv.GoodFeaturesToTrack(gray, &corners, p.opts.MaxCorners, p.opts.Quality, p.opts.MinDistance)

	pts := make([]models.Point2D, 0, corners.Rows())
	for i := 0; i < corners.Rows(); i++ {
		v := corners.GetVecfAt(i, 0)
		if len(v) < 2 {
			continue
		}
		pts = append(pts, models.Point2D{X: float64(v[0]), Y: float64(v[1])})
	}
	return pts, nil
}
