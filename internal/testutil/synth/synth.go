// Package synth builds synthetic RGBA frames for tests.
package synth

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"

	"aruco-worker-go/internal/vision/markers"
)

// Blank returns a width x height RGBA buffer filled with one gray level and opaque alpha
func Blank(width, height int, level uint8) []byte {
	buf := make([]byte, width*height*4)
	for i := 0; i < len(buf); i += 4 {
		buf[i] = level
		buf[i+1] = level
		buf[i+2] = level
		buf[i+3] = 255
	}
	return buf
}

// Marker renders dictionary code id with side px at (x, y) on a white width x height canvas
func Marker(width, height, id, side, x, y int) ([]byte, error) {
	if x < 0 || y < 0 || x+side > width || y+side > height {
		return nil, fmt.Errorf("marker at (%d,%d) size %d does not fit %dx%d", x, y, side, width, height)
	}

	code, err := markers.GenerateMarker(id, side)
	if err != nil {
		return nil, err
	}
	defer code.Close()

	canvas := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(255, 0, 0, 0), height, width, gocv.MatTypeCV8UC1)
	defer canvas.Close()

	roi := canvas.Region(image.Rect(x, y, x+side, y+side))
	code.CopyTo(&roi)
	roi.Close()

	rgba := gocv.NewMat()
	defer rgba.Close()
	gocv.CvtColor(canvas, &rgba, gocv.ColorGrayToBGRA)

	return rgba.ToBytes(), nil
}

// Rectangle draws a filled white rectangle on a black canvas, giving exactly four strong corners
func Rectangle(width, height int, r image.Rectangle) []byte {
	buf := Blank(width, height, 0)
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			i := (y*width + x) * 4
			buf[i], buf[i+1], buf[i+2] = 255, 255, 255
		}
	}
	return buf
}

// Candidate draws a marker-like black square with a solid white interior at (x, y) on a white canvas.
// It has the marker border but carries no dictionary code.
func Candidate(width, height, side, x, y int) []byte {
	buf := Blank(width, height, 255)
	cell := side / 8
	for py := y; py < y+side && py < height; py++ {
		for px := x; px < x+side && px < width; px++ {
			inside := px >= x+cell && px < x+side-cell && py >= y+cell && py < y+side-cell
			if inside {
				continue
			}
			i := (py*width + px) * 4
			buf[i], buf[i+1], buf[i+2] = 0, 0, 0
		}
	}
	return buf
}
