// Package pipeline is the per-frame entry point: calibration state plus the
// feature probe and the marker detection, pose and overlay chain.
//
// Every Run call reads and writes the caller's RGBA buffer in place and returns
// a self-contained result. The buffer is not retained after the call returns.
// A Pipeline is not safe for concurrent use; run one per goroutine.
package pipeline

import (
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"gocv.io/x/gocv"

	"aruco-worker-go/internal/models"
	"aruco-worker-go/internal/vision/calibration"
	"aruco-worker-go/internal/vision/features"
	"aruco-worker-go/internal/vision/frame"
	"aruco-worker-go/internal/vision/markers"
	"aruco-worker-go/internal/vision/overlay"
	"aruco-worker-go/internal/vision/pose"
)

// ErrNotInitialized is returned when a Run call happens before Initialize
var ErrNotInitialized = errors.New("pipeline not initialized")

// Options configures a Pipeline
type Options struct {
	MarkerLength float64 // metres
	AxisLength   float64 // metres
	Features     features.Options
	Markers      markers.Options
	Logger       zerolog.Logger
}

// DefaultOptions returns the 2.5 cm marker, 3 cm axes and default probe settings
func DefaultOptions() Options {
	return Options{
		MarkerLength: calibration.DefaultMarkerLength,
		AxisLength:   overlay.DefaultAxisLength,
		Features:     features.DefaultOptions(),
		Logger:       zerolog.Nop(),
	}
}

// Pipeline holds the calibration for one frame size and the native detector
type Pipeline struct {
	opts     Options
	cal      *calibration.Calibration
	probe    *features.Probe
	detector *markers.Detector
	logger   zerolog.Logger
}

// New creates a pipeline and initializes it for width x height frames
func New(width, height int, opts Options) (*Pipeline, error) {
	if opts.MarkerLength <= 0 {
		opts.MarkerLength = calibration.DefaultMarkerLength
	}
	if opts.AxisLength <= 0 {
		opts.AxisLength = overlay.DefaultAxisLength
	}

	p := &Pipeline{
		opts:   opts,
		probe:  features.NewProbe(opts.Features),
		logger: opts.Logger,
	}
	if err := p.Initialize(width, height); err != nil {
		return nil, err
	}
	p.detector = markers.NewDetector(opts.Markers)
	return p, nil
}

// Initialize derives the calibration for width x height.
// It must be called again by the owner whenever the frame size changes.
func (p *Pipeline) Initialize(width, height int) error {
	cal, err := calibration.InitializeWithMarker(width, height, p.opts.MarkerLength)
	if err != nil {
		return err
	}
	p.cal = cal

	p.logger.Debug().
		Int("width", width).
		Int("height", height).
		Float64("focal_length", cal.Intrinsics.FocalLength).
		Float64("marker_length", cal.MarkerLength).
		Msg("Camera model initialized")
	return nil
}

// Calibration returns the current calibration, nil before Initialize
func (p *Pipeline) Calibration() *calibration.Calibration {
	if p == nil {
		return nil
	}
	return p.cal
}

// Close releases the native detector
func (p *Pipeline) Close() error {
	if p == nil || p.detector == nil {
		return nil
	}
	err := p.detector.Close()
	p.detector = nil
	return err
}

// RunFeatureProbe circles up to MaxCorners strong corners in buf and returns them
func (p *Pipeline) RunFeatureProbe(buf []byte, width, height int) ([]models.Point2D, error) {
	f, err := p.checkFrame(buf, width, height)
	if err != nil {
		return nil, err
	}

	img, err := f.Mat()
	if err != nil {
		return nil, err
	}
	defer img.Close()

	pts, err := p.probe.Detect(&img)
	if err != nil {
		return nil, err
	}
	if err := f.Commit(img); err != nil {
		return nil, err
	}
	return pts, nil
}

// RunMarkerPipeline detects markers in buf, solves a pose for each accepted marker,
// and draws corner circles and axis gizmos into buf.
// Zero markers is reported as StatusNoMarkers with a nil error.
func (p *Pipeline) RunMarkerPipeline(buf []byte, width, height int) (models.FrameResult, error) {
	return p.run(buf, width, height, false)
}

// RunAll is RunMarkerPipeline plus the feature probe. Features are searched on the
// unannotated pixels so that neither stage sees the other's overlay.
func (p *Pipeline) RunAll(buf []byte, width, height int) (models.FrameResult, error) {
	return p.run(buf, width, height, true)
}

func (p *Pipeline) run(buf []byte, width, height int, withFeatures bool) (models.FrameResult, error) {
	start := time.Now()

	f, err := p.checkFrame(buf, width, height)
	if err != nil {
		return models.FrameResult{}, err
	}
	if p.detector == nil {
		return models.FrameResult{}, fmt.Errorf("%w: detector closed", ErrNotInitialized)
	}

	img, err := f.Mat()
	if err != nil {
		return models.FrameResult{}, err
	}
	defer img.Close()

	var pts []models.Point2D
	if withFeatures {
		pts, err = p.probe.Find(img)
		if err != nil {
			return models.FrameResult{}, fmt.Errorf("feature probe failed: %w", err)
		}
	}

	det, err := p.detector.Detect(&img)
	if err != nil {
		return models.FrameResult{}, fmt.Errorf("marker detection failed: %w", err)
	}

	res := models.FrameResult{
		Status:   models.StatusNoMarkers,
		Width:    width,
		Height:   height,
		Rejected: det.Rejected,
		Markers:  []models.MarkerPose{},
		Features: pts,
	}

	if det.Count() > 0 {
		res.Status = models.StatusMarkersFound
		res.Markers = pose.SolveAll(det, p.cal)
		p.drawPoses(&img, res.Markers)
	}
	if withFeatures {
		p.probe.Draw(&img, pts)
	}

	if err := f.Commit(img); err != nil {
		return models.FrameResult{}, err
	}

	res.ProcessedAt = time.Now()
	res.ProcessingTime = res.ProcessedAt.Sub(start)

	p.logger.Debug().
		Str("status", res.Status.String()).
		Int("accepted", len(res.Markers)).
		Int("rejected", len(res.Rejected)).
		Int("poses", res.ValidPoses()).
		Int("features", len(pts)).
		Dur("duration", res.ProcessingTime).
		Msg("Frame processed")

	return res, nil
}

func (p *Pipeline) drawPoses(img *gocv.Mat, poses []models.MarkerPose) {
	for _, mp := range poses {
		if !mp.Valid {
			p.logger.Debug().Int("marker_id", mp.ID).Str("error", mp.Err).Msg("Skipping axes for marker without pose")
			continue
		}
		overlay.DrawAxes(img, p.cal, mp.Pose, p.opts.AxisLength)
	}
}

func (p *Pipeline) checkFrame(buf []byte, width, height int) (frame.Frame, error) {
	if p == nil || p.cal == nil {
		return frame.Frame{}, ErrNotInitialized
	}
	f, err := frame.New(buf, width, height)
	if err != nil {
		return frame.Frame{}, err
	}
	if err := f.CheckSize(p.cal.Intrinsics.Width, p.cal.Intrinsics.Height); err != nil {
		return frame.Frame{}, err
	}
	return f, nil
}
