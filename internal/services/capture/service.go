package capture

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"gocv.io/x/gocv"

	"aruco-worker-go/internal/config"
	"aruco-worker-go/internal/logging"
	"aruco-worker-go/internal/models"
	"aruco-worker-go/internal/services/messaging"
	"aruco-worker-go/internal/vision/features"
	"aruco-worker-go/internal/vision/frame"
	"aruco-worker-go/internal/vision/markers"
	"aruco-worker-go/internal/vision/pipeline"
)

// FrameReader is the part of gocv.VideoCapture the loop uses
type FrameReader interface {
	Read(m *gocv.Mat) bool
	Close() error
}

// OpenFunc opens a frame source
type OpenFunc func(source string, cfg *config.Config) (FrameReader, error)

// FramePublisher receives every annotated frame
type FramePublisher interface {
	PublishFrame(sourceID string, f frame.Frame) error
}

// Service reads frames from one source and runs the vision pipeline on each
type Service struct {
	cfg       *config.Config
	sourceID  string
	open      OpenFunc
	frames    FramePublisher
	events    messaging.Publisher
	logger    zerolog.Logger
	pipeline  *pipeline.Pipeline
	frameID   int64
	mu        sync.RWMutex
	stats     models.SourceStats
	latest    models.FrameResult
	hasLatest bool
}

// NewService creates a capture service; frames and events may be nil
func NewService(cfg *config.Config, frames FramePublisher, events messaging.Publisher) *Service {
	sourceID := cfg.CaptureSource
	return &Service{
		cfg:      cfg,
		sourceID: sourceID,
		open:     OpenVideoCapture,
		frames:   frames,
		events:   events,
		logger:   logging.WithSource(logging.NewServiceLogger(cfg, "capture"), sourceID),
		stats: models.SourceStats{
			SourceID:      sourceID,
			Status:        models.SourceStatusStopped,
			FPSWindowSize: 30,
		},
	}
}

// SetOpener replaces how sources are opened
func (s *Service) SetOpener(open OpenFunc) {
	s.open = open
}

// SourceID returns the configured source
func (s *Service) SourceID() string {
	return s.sourceID
}

// OpenVideoCapture opens a device index or a URL/file with OpenCV
func OpenVideoCapture(source string, cfg *config.Config) (FrameReader, error) {
	var device interface{} = source
	if idx, err := strconv.Atoi(source); err == nil {
		device = idx
	}

	if isNetworkSource(source) {
		configureFFmpegOptions()
	}

	vc, err := gocv.OpenVideoCapture(device)
	if err != nil {
		return nil, fmt.Errorf("failed to open capture source %s: %w", source, err)
	}
	if !vc.IsOpened() {
		vc.Close()
		return nil, fmt.Errorf("capture source %s is not opened", source)
	}

	vc.Set(gocv.VideoCaptureBufferSize, 1)
	vc.Set(gocv.VideoCaptureFrameWidth, float64(cfg.CaptureWidth))
	vc.Set(gocv.VideoCaptureFrameHeight, float64(cfg.CaptureHeight))
	return vc, nil
}

// Run captures until ctx is cancelled, reopening the source after failures
func (s *Service) Run(ctx context.Context) error {
	defer s.closePipeline()

	for attempt := 0; ; attempt++ {
		ran, err := s.runOnce(ctx)
		if ctx.Err() != nil {
			s.setStatus(models.SourceStatusStopped, "")
			return nil
		}
		if ran {
			attempt = 0
		}

		delay := BackoffDelay(attempt, s.cfg.ReconnectInterval, s.cfg.ReconnectBackoffMax, s.cfg.ReconnectJitterPct)
		s.setStatus(models.SourceStatusFailed, errString(err))
		s.logger.Warn().Err(err).Int("attempt", attempt+1).Dur("retry_in", delay).Msg("Capture stopped, reopening source")

		select {
		case <-ctx.Done():
			s.setStatus(models.SourceStatusStopped, "")
			return nil
		case <-time.After(delay):
		}
	}
}

// runOnce reads until the source fails; ran reports whether at least one frame was processed
func (s *Service) runOnce(ctx context.Context) (ran bool, err error) {
	s.setStatus(models.SourceStatusStarting, "")

	reader, err := s.open(s.sourceID, s.cfg)
	if err != nil {
		return false, err
	}
	defer reader.Close()

	s.mu.Lock()
	s.stats.Status = models.SourceStatusRunning
	s.stats.StartedAt = time.Now()
	s.mu.Unlock()
	s.logger.Info().Str("mode", s.cfg.PipelineMode).Msg("Capture source opened")

	img := gocv.NewMat()
	defer img.Close()

	var interval time.Duration
	if s.cfg.CaptureFPS > 0 {
		interval = time.Second / time.Duration(s.cfg.CaptureFPS)
	}

	consecutiveErrors := 0
	for {
		if ctx.Err() != nil {
			return ran, ctx.Err()
		}
		started := time.Now()

		if ok := reader.Read(&img); !ok || img.Empty() {
			consecutiveErrors++
			s.recordError("failed to read frame")
			if consecutiveErrors >= s.cfg.MaxConsecutiveErrors {
				return ran, fmt.Errorf("too many consecutive frame read errors (%d)", consecutiveErrors)
			}
			time.Sleep(100 * time.Millisecond)
			continue
		}
		consecutiveErrors = 0

		f, err := frame.FromMat(img)
		if err != nil {
			s.recordError(err.Error())
			continue
		}
		if _, err := s.ProcessFrame(f); err != nil {
			s.recordError(err.Error())
			s.logger.Warn().Err(err).Msg("Frame processing failed")
		} else {
			ran = true
		}

		if interval > 0 {
			if wait := interval - time.Since(started); wait > 0 {
				time.Sleep(wait)
			}
		}
	}
}

// ProcessFrame runs the configured pipeline stages on f in place, publishes the
// annotated frame and the marker event, and records the result.
func (s *Service) ProcessFrame(f frame.Frame) (models.FrameResult, error) {
	if err := s.ensurePipeline(f.Width, f.Height); err != nil {
		return models.FrameResult{}, err
	}

	var (
		res models.FrameResult
		err error
	)
	switch {
	case s.cfg.MarkersEnabled() && s.cfg.FeaturesEnabled():
		res, err = s.pipeline.RunAll(f.Pix, f.Width, f.Height)
	case s.cfg.MarkersEnabled():
		res, err = s.pipeline.RunMarkerPipeline(f.Pix, f.Width, f.Height)
	default:
		started := time.Now()
		res = models.FrameResult{
			Status:  models.StatusNoMarkers,
			Width:   f.Width,
			Height:  f.Height,
			Markers: []models.MarkerPose{},
		}
		res.Features, err = s.pipeline.RunFeatureProbe(f.Pix, f.Width, f.Height)
		res.ProcessedAt = time.Now()
		res.ProcessingTime = res.ProcessedAt.Sub(started)
	}
	if err != nil {
		return models.FrameResult{}, fmt.Errorf("pipeline (%s): %w", s.cfg.PipelineMode, err)
	}

	s.mu.Lock()
	s.frameID++
	frameID := s.frameID
	s.stats.Width, s.stats.Height = f.Width, f.Height
	s.stats.RecordFrame(res)
	s.latest = res
	s.hasLatest = true
	s.mu.Unlock()

	if s.frames != nil {
		if err := s.frames.PublishFrame(s.sourceID, f); err != nil {
			s.logger.Debug().Err(err).Msg("Failed to publish preview frame")
		}
	}

	if s.events != nil && res.Status == models.StatusMarkersFound {
		event := models.MarkerEvent{
			WorkerID:  s.cfg.WorkerID,
			SourceID:  s.sourceID,
			FrameID:   frameID,
			Timestamp: res.ProcessedAt,
			Width:     res.Width,
			Height:    res.Height,
			Markers:   res.Markers,
		}
		if err := s.events.PublishMarkers(event); err != nil {
			s.logger.Warn().Err(err).Int64("frame_id", frameID).Msg("Failed to publish marker event")
		}
	}

	return res, nil
}

// ensurePipeline creates the pipeline on the first frame and re-derives the
// calibration when the source changes resolution.
func (s *Service) ensurePipeline(width, height int) error {
	if s.pipeline == nil {
		p, err := pipeline.New(width, height, pipeline.Options{
			MarkerLength: s.cfg.MarkerLength,
			AxisLength:   s.cfg.AxisLength,
			Features: features.Options{
				MaxCorners:  s.cfg.FeatureMaxCorners,
				Quality:     s.cfg.FeatureQuality,
				MinDistance: s.cfg.FeatureMinDistance,
			},
			Markers: markers.Options{
				ErrorCorrectionRate:    s.cfg.MarkerErrorCorrectionRate,
				MinMarkerPerimeterRate: s.cfg.MarkerMinPerimeterRate,
			},
			Logger: s.logger,
		})
		if err != nil {
			return fmt.Errorf("failed to create pipeline: %w", err)
		}
		s.pipeline = p
		return nil
	}

	if s.pipeline.Calibration().Matches(width, height) {
		return nil
	}

	prev := s.pipeline.Calibration().Intrinsics
	if err := s.pipeline.Initialize(width, height); err != nil {
		return err
	}
	s.mu.Lock()
	s.stats.Reinitialized++
	s.mu.Unlock()

	s.logger.Info().
		Int("old_width", prev.Width).
		Int("old_height", prev.Height).
		Int("width", width).
		Int("height", height).
		Msg("Frame size changed, camera model re-initialized")
	return nil
}

// Latest returns the result of the most recent frame
func (s *Service) Latest() (models.FrameResult, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest, s.hasLatest
}

// Stats returns a snapshot of the source counters
func (s *Service) Stats() models.SourceResponse {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stats.Response()
}

// Healthy reports whether frames are flowing
func (s *Service) Healthy() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stats.Status == models.SourceStatusRunning
}

func (s *Service) setStatus(status models.SourceStatus, lastErr string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats.Status = status
	if lastErr != "" {
		s.stats.LastError = lastErr
	}
}

func (s *Service) recordError(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats.ErrorCount++
	s.stats.LastError = msg
}

func (s *Service) closePipeline() {
	if s.pipeline != nil {
		s.pipeline.Close()
		s.pipeline = nil
	}
}

func errString(err error) string {
	if err == nil || errors.Is(err, context.Canceled) {
		return ""
	}
	return err.Error()
}
