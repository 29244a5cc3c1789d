package pipeline

import (
	"bytes"
	"errors"
	"image"
	"slices"
	"testing"

	"aruco-worker-go/internal/models"
	"aruco-worker-go/internal/testutil/synth"
	"aruco-worker-go/internal/vision/calibration"
	"aruco-worker-go/internal/vision/frame"
)

const (
	testWidth  = 640
	testHeight = 480
)

func newPipeline(t *testing.T) *Pipeline {
	t.Helper()
	p, err := New(testWidth, testHeight, DefaultOptions())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { p.Close() })
	return p
}

func TestRunMarkerPipelineUniformFrames(t *testing.T) {
	tests := []struct {
		name  string
		level uint8
	}{
		{name: "all black", level: 0},
		{name: "all white", level: 255},
		{name: "mid gray", level: 128},
	}

	p := newPipeline(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := synth.Blank(testWidth, testHeight, tt.level)
			before := len(buf)

			res, err := p.RunMarkerPipeline(buf, testWidth, testHeight)
			if err != nil {
				t.Fatalf("RunMarkerPipeline() error = %v", err)
			}
			if res.Status != models.StatusNoMarkers {
				t.Errorf("Status = %v, want %v", res.Status, models.StatusNoMarkers)
			}
			if len(res.Markers) != 0 || len(res.Rejected) != 0 {
				t.Errorf("got %d markers and %d rejected, want none", len(res.Markers), len(res.Rejected))
			}
			if len(buf) != before {
				t.Errorf("buffer length = %d, want %d", len(buf), before)
			}
		})
	}
}

func TestRunMarkerPipelineSingleMarker(t *testing.T) {
	p := newPipeline(t)

	buf, err := synth.Marker(testWidth, testHeight, 23, 200, 220, 140)
	if err != nil {
		t.Fatalf("synth.Marker() error = %v", err)
	}
	original := bytes.Clone(buf)

	res, err := p.RunMarkerPipeline(buf, testWidth, testHeight)
	if err != nil {
		t.Fatalf("RunMarkerPipeline() error = %v", err)
	}

	if res.Status != models.StatusMarkersFound {
		t.Fatalf("Status = %v, want %v", res.Status, models.StatusMarkersFound)
	}
	if len(res.Markers) != 1 {
		t.Fatalf("accepted %d markers, want 1", len(res.Markers))
	}

	m := res.Markers[0]
	if m.ID != 23 {
		t.Errorf("ID = %d, want 23", m.ID)
	}
	if !m.Valid {
		t.Fatalf("pose not solved: %s", m.Err)
	}
	if m.Pose.Translation.Z <= 0 {
		t.Errorf("Translation.Z = %v, want marker in front of the camera", m.Pose.Translation.Z)
	}
	// 200px of a 2.5cm marker at f=640 is about 8cm away
	if d := m.Pose.Distance(); d < 0.05 || d > 0.12 {
		t.Errorf("Distance() = %v, want roughly 0.08m", d)
	}
	if m.Pose.ReprojectionError > 2 {
		t.Errorf("ReprojectionError = %v px, want < 2", m.Pose.ReprojectionError)
	}

	if bytes.Equal(buf, original) {
		t.Error("buffer unchanged, want corner circles and axes drawn")
	}
}

func TestRunMarkerPipelineIsRepeatable(t *testing.T) {
	p := newPipeline(t)

	src, err := synth.Marker(testWidth, testHeight, 5, 160, 60, 80)
	if err != nil {
		t.Fatal(err)
	}

	a, err := p.RunMarkerPipeline(bytes.Clone(src), testWidth, testHeight)
	if err != nil {
		t.Fatal(err)
	}
	b, err := p.RunMarkerPipeline(bytes.Clone(src), testWidth, testHeight)
	if err != nil {
		t.Fatal(err)
	}

	if len(a.Markers) != len(b.Markers) {
		t.Fatalf("marker counts differ: %d vs %d", len(a.Markers), len(b.Markers))
	}
	if !slices.Equal(a.IDs(), b.IDs()) {
		t.Errorf("IDs differ: %v vs %v", a.IDs(), b.IDs())
	}
	for _, res := range []models.FrameResult{a, b} {
		for _, m := range res.Markers {
			if len(m.Corners.Points()) != 4 {
				t.Errorf("marker %d has %d corners", m.ID, len(m.Corners.Points()))
			}
		}
	}
}

func TestRunMarkerPipelineErrors(t *testing.T) {
	p := newPipeline(t)

	tests := []struct {
		name    string
		p       *Pipeline
		buf     []byte
		width   int
		height  int
		wantErr error
	}{
		{
			name:    "nil pipeline",
			p:       nil,
			buf:     synth.Blank(testWidth, testHeight, 0),
			width:   testWidth,
			height:  testHeight,
			wantErr: ErrNotInitialized,
		},
		{
			name:    "zero pipeline",
			p:       &Pipeline{},
			buf:     synth.Blank(testWidth, testHeight, 0),
			width:   testWidth,
			height:  testHeight,
			wantErr: ErrNotInitialized,
		},
		{
			name:    "dimension mismatch",
			p:       p,
			buf:     synth.Blank(320, 240, 0),
			width:   320,
			height:  240,
			wantErr: frame.ErrDimensionMismatch,
		},
		{
			name:    "short buffer",
			p:       p,
			buf:     make([]byte, testWidth*testHeight*3),
			width:   testWidth,
			height:  testHeight,
			wantErr: frame.ErrBufferSize,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.p.RunMarkerPipeline(tt.buf, tt.width, tt.height)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("RunMarkerPipeline() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestInitializeFollowsFrameSize(t *testing.T) {
	p := newPipeline(t)

	if err := p.Initialize(320, 240); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	if !p.Calibration().Matches(320, 240) {
		t.Fatalf("calibration not updated: %+v", p.Calibration().Intrinsics)
	}

	res, err := p.RunMarkerPipeline(synth.Blank(320, 240, 255), 320, 240)
	if err != nil {
		t.Fatalf("RunMarkerPipeline() after re-initialize error = %v", err)
	}
	if res.Status != models.StatusNoMarkers {
		t.Errorf("Status = %v, want %v", res.Status, models.StatusNoMarkers)
	}

	if err := p.Initialize(0, 240); !errors.Is(err, calibration.ErrInvalidDimensions) {
		t.Errorf("Initialize(0, 240) error = %v, want ErrInvalidDimensions", err)
	}
}

func TestRunFeatureProbe(t *testing.T) {
	p := newPipeline(t)

	t.Run("blank frame has no corners", func(t *testing.T) {
		buf := synth.Blank(testWidth, testHeight, 90)
		original := bytes.Clone(buf)

		pts, err := p.RunFeatureProbe(buf, testWidth, testHeight)
		if err != nil {
			t.Fatalf("RunFeatureProbe() error = %v", err)
		}
		if len(pts) != 0 {
			t.Errorf("found %d corners on a blank frame", len(pts))
		}
		if !bytes.Equal(buf, original) {
			t.Error("buffer changed although nothing was found")
		}
	})

	t.Run("rectangle yields its corners only", func(t *testing.T) {
		buf := synth.Rectangle(testWidth, testHeight, image.Rect(200, 150, 440, 330))

		pts, err := p.RunFeatureProbe(buf, testWidth, testHeight)
		if err != nil {
			t.Fatalf("RunFeatureProbe() error = %v", err)
		}
		if len(pts) == 0 || len(pts) >= 20 {
			t.Fatalf("found %d corners, want a few below the cap", len(pts))
		}
		for _, pt := range pts {
			if pt.X < 190 || pt.X > 450 || pt.Y < 140 || pt.Y > 340 {
				t.Errorf("corner %v is far from the rectangle", pt)
			}
		}
	})

	t.Run("uninitialized", func(t *testing.T) {
		var empty Pipeline
		if _, err := empty.RunFeatureProbe(synth.Blank(4, 4, 0), 4, 4); !errors.Is(err, ErrNotInitialized) {
			t.Errorf("RunFeatureProbe() error = %v, want ErrNotInitialized", err)
		}
	})
}

func TestRunAllReportsMarkersAndFeatures(t *testing.T) {
	p := newPipeline(t)

	buf, err := synth.Marker(testWidth, testHeight, 23, 200, 220, 140)
	if err != nil {
		t.Fatal(err)
	}

	res, err := p.RunAll(buf, testWidth, testHeight)
	if err != nil {
		t.Fatalf("RunAll() error = %v", err)
	}
	if res.Status != models.StatusMarkersFound || !slices.Equal(res.IDs(), []int{23}) {
		t.Fatalf("status %v ids %v, want marker 23", res.Status, res.IDs())
	}
	if len(res.Features) == 0 || len(res.Features) > 20 {
		t.Errorf("found %d features, want 1-20", len(res.Features))
	}
	for _, pt := range res.Features {
		if pt.X < 200 || pt.X > 440 || pt.Y < 120 || pt.Y > 360 {
			t.Errorf("feature %v is outside the marker", pt)
		}
	}
}
