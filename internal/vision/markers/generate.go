package markers

import (
	"errors"
	"fmt"

	"gocv.io/x/gocv"
)

// DefaultBorderBits is the width of the black quiet border in marker cells
const DefaultBorderBits = 1

// ErrInvalidMarker is returned for an id outside the dictionary or a side too small to draw
var ErrInvalidMarker = errors.New("invalid marker")

// GenerateMarker renders dictionary code id as a grayscale sidePixels x sidePixels image.
// The caller owns the returned Mat.
func GenerateMarker(id, sidePixels int) (gocv.Mat, error) {
	if id < 0 || id >= DictionarySize {
		return gocv.Mat{}, fmt.Errorf("%w: id %d outside dictionary range [0, %d)", ErrInvalidMarker, id, DictionarySize)
	}
	// 6x6 bits plus the border on both sides
	if minSide := 6 + 2*DefaultBorderBits; sidePixels < minSide {
		return gocv.Mat{}, fmt.Errorf("%w: side %dpx too small, need at least %dpx", ErrInvalidMarker, sidePixels, minSide)
	}

	img := gocv.NewMat()
	gocv.ArucoGenerateImageMarker(Dictionary, id, sidePixels, img, DefaultBorderBits)
	if img.Empty() {
		img.Close()
		return gocv.Mat{}, fmt.Errorf("marker %d could not be generated", id)
	}
	return img, nil
}

// EncodePNG renders marker id and encodes it as PNG
func EncodePNG(id, sidePixels int) ([]byte, error) {
	img, err := GenerateMarker(id, sidePixels)
	if err != nil {
		return nil, err
	}
	defer img.Close()

	buf, err := gocv.IMEncode(gocv.PNGFileExt, img)
	if err != nil {
		return nil, fmt.Errorf("failed to encode marker %d: %w", id, err)
	}
	defer buf.Close()

	b := buf.GetBytes()
	out := make([]byte, len(b))
	copy(out, b)
	return out, nil
}
