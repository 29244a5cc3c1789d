// Package frame wraps caller-owned RGBA pixel memory.
//
// A Frame does not own its pixels. The same memory is read and written during a
// call, so a Frame must not be shared with other readers or writers while a
// pipeline call is running, and it must not be retained after the call returns.
package frame

import (
	"errors"
	"fmt"

	"gocv.io/x/gocv"
)

// Channels is the number of bytes per pixel (R, G, B, A)
const Channels = 4

var (
	// ErrBufferSize is returned when the buffer is not exactly width*height*4 bytes
	ErrBufferSize = errors.New("frame buffer size mismatch")

	// ErrDimensionMismatch is returned when the frame size differs from the calibrated size
	ErrDimensionMismatch = errors.New("frame dimensions do not match calibration")
)

// Frame is a non-owning view over row-major RGBA pixels
type Frame struct {
	Pix    []byte
	Width  int
	Height int
}

// New validates buf against width x height and returns a view over it
func New(buf []byte, width, height int) (Frame, error) {
	f := Frame{Pix: buf, Width: width, Height: height}
	if err := f.Validate(); err != nil {
		return Frame{}, err
	}
	return f, nil
}

// Validate checks the buffer shape
func (f Frame) Validate() error {
	if f.Width <= 0 || f.Height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrBufferSize, f.Width, f.Height)
	}
	if want := f.Width * f.Height * Channels; len(f.Pix) != want {
		return fmt.Errorf("%w: got %d bytes, want %d for %dx%d RGBA", ErrBufferSize, len(f.Pix), want, f.Width, f.Height)
	}
	return nil
}

// CheckSize returns ErrDimensionMismatch unless the frame is width x height
func (f Frame) CheckSize(width, height int) error {
	if f.Width != width || f.Height != height {
		return fmt.Errorf("%w: frame %dx%d, calibrated for %dx%d", ErrDimensionMismatch, f.Width, f.Height, width, height)
	}
	return nil
}

// Mat returns a CV_8UC4 Mat over the frame pixels.
// The caller must Close it and call Commit to make sure drawings reach the buffer.
func (f Frame) Mat() (gocv.Mat, error) {
	if err := f.Validate(); err != nil {
		return gocv.Mat{}, err
	}
	mat, err := gocv.NewMatFromBytes(f.Height, f.Width, gocv.MatTypeCV8UC4, f.Pix)
	if err != nil {
		return gocv.Mat{}, fmt.Errorf("failed to create Mat from RGBA frame: %w", err)
	}
	return mat, nil
}

// Commit copies mat back into the frame pixels.
// Mat data may or may not alias Pix depending on the binding, so the copy is unconditional.
func (f Frame) Commit(mat gocv.Mat) error {
	if mat.Rows() != f.Height || mat.Cols() != f.Width || mat.Type() != gocv.MatTypeCV8UC4 {
		return fmt.Errorf("%w: mat %dx%d type %v", ErrDimensionMismatch, mat.Cols(), mat.Rows(), mat.Type())
	}
	b := mat.ToBytes()
	if len(b) != len(f.Pix) {
		return fmt.Errorf("%w: mat has %d bytes, frame %d", ErrBufferSize, len(b), len(f.Pix))
	}
	copy(f.Pix, b)
	return nil
}

// FromMat converts a BGR, BGRA or grayscale Mat into a freshly allocated RGBA frame
func FromMat(src gocv.Mat) (Frame, error) {
	if src.Empty() {
		return Frame{}, fmt.Errorf("%w: empty mat", ErrBufferSize)
	}

	var code gocv.ColorConversionCode
	switch src.Channels() {
	case 1:
		code = gocv.ColorGrayToBGRA
	case 3:
		code = gocv.ColorBGRToRGBA
	case 4:
		code = gocv.ColorBGRAToRGBA
	default:
		return Frame{}, fmt.Errorf("unsupported channel count %d", src.Channels())
	}

	rgba := gocv.NewMat()
	defer rgba.Close()
	gocv.CvtColor(src, &rgba, code)

	return New(rgba.ToBytes(), rgba.Cols(), rgba.Rows())
}

// BGR returns a freshly allocated BGR copy of the frame, for encoders that expect OpenCV order
func (f Frame) BGR() (gocv.Mat, error) {
	src, err := f.Mat()
	if err != nil {
		return gocv.Mat{}, err
	}
	defer src.Close()

	dst := gocv.NewMat()
	gocv.CvtColor(src, &dst, gocv.ColorRGBAToBGR)
	return dst, nil
}
