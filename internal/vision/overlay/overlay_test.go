package overlay

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"gocv.io/x/gocv"

	"aruco-worker-go/internal/models"
	"aruco-worker-go/internal/vision/calibration"
)

func blankRGBA(w, h int) gocv.Mat {
	return gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), h, w, gocv.MatTypeCV8UC4)
}

func pixel(m gocv.Mat, x, y int) [4]uint8 {
	v := m.GetVecbAt(y, x)
	return [4]uint8{v[0], v[1], v[2], v[3]}
}

func TestInkSwapsRedAndBlue(t *testing.T) {
	if got := Ink(Red); got.B != 255 || got.R != 0 || got.A != 255 {
		t.Errorf("Ink(Red) = %+v", got)
	}
	if got := Ink(Green); got != Green {
		t.Errorf("Ink(Green) = %+v, want unchanged", got)
	}
}

func TestDrawCirclesUsesRGBAOrder(t *testing.T) {
	img := blankRGBA(100, 100)
	defer img.Close()

	n := DrawCircles(&img, []models.Point2D{
		{X: 50, Y: 50},
		{X: math.NaN(), Y: 10},
		{X: math.Inf(1), Y: 10},
	}, Red)
	if n != 1 {
		t.Errorf("drew %d circles, want 1 (non-finite points skipped)", n)
	}

	if got := pixel(img, 50, 50-CornerRadius); got != [4]uint8{255, 0, 0, 255} {
		t.Errorf("circle pixel = %v, want opaque red in RGBA order", got)
	}
	if got := pixel(img, 50, 50); got != [4]uint8{} {
		t.Errorf("centre pixel = %v, want untouched", got)
	}
}

func TestDrawAxes(t *testing.T) {
	cal, err := calibration.Initialize(640, 480)
	if err != nil {
		t.Fatal(err)
	}
	img := blankRGBA(640, 480)
	defer img.Close()

	// marker facing the camera 20cm away: X axis points right, Y axis up the image
	p := models.Pose{Rotation: r3.Vector{X: math.Pi}, Translation: r3.Vector{Z: 0.2}}
	if n := DrawAxes(&img, cal, p, 0.03); n != 3 {
		t.Errorf("DrawAxes() drew %d axes, want 3", n)
	}

	if got := pixel(img, 370, 240); got != [4]uint8{255, 0, 0, 255} {
		t.Errorf("x axis pixel = %v, want red", got)
	}
	if got := pixel(img, 320, 190); got != [4]uint8{0, 255, 0, 255} {
		t.Errorf("y axis pixel = %v, want green", got)
	}
}

func TestDrawAxesBehindCamera(t *testing.T) {
	cal, err := calibration.Initialize(640, 480)
	if err != nil {
		t.Fatal(err)
	}
	img := blankRGBA(640, 480)
	defer img.Close()

	p := models.Pose{Translation: r3.Vector{Z: -0.5}}
	if n := DrawAxes(&img, cal, p, 0.03); n != 0 {
		t.Errorf("DrawAxes() drew %d axes for a marker behind the camera", n)
	}
}
