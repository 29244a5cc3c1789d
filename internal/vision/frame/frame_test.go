package frame

import (
	"errors"
	"testing"

	"gocv.io/x/gocv"
)

func TestNewValidatesSize(t *testing.T) {
	tests := []struct {
		name    string
		size    int
		width   int
		height  int
		wantErr error
	}{
		{name: "exact", size: 4 * 3 * 4, width: 4, height: 3},
		{name: "short buffer", size: 4*3*4 - 1, width: 4, height: 3, wantErr: ErrBufferSize},
		{name: "long buffer", size: 4*3*4 + 4, width: 4, height: 3, wantErr: ErrBufferSize},
		{name: "rgb sized buffer", size: 4 * 3 * 3, width: 4, height: 3, wantErr: ErrBufferSize},
		{name: "zero width", size: 0, width: 0, height: 3, wantErr: ErrBufferSize},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(make([]byte, tt.size), tt.width, tt.height)
			if tt.wantErr == nil && err != nil {
				t.Fatalf("New() error = %v", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Fatalf("New() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestCheckSize(t *testing.T) {
	f, err := New(make([]byte, 8*6*4), 8, 6)
	if err != nil {
		t.Fatal(err)
	}
	if err := f.CheckSize(8, 6); err != nil {
		t.Errorf("CheckSize(8, 6) error = %v", err)
	}
	if err := f.CheckSize(6, 8); !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("CheckSize(6, 8) error = %v, want ErrDimensionMismatch", err)
	}
}

func TestMatCommitWritesBack(t *testing.T) {
	f, err := New(make([]byte, 10*10*4), 10, 10)
	if err != nil {
		t.Fatal(err)
	}

	m, err := f.Mat()
	if err != nil {
		t.Fatal(err)
	}
	defer m.Close()

	m.SetUCharAt(0, 0, 200)
	m.SetUCharAt(9, 39, 17)
	if err := f.Commit(m); err != nil {
		t.Fatalf("Commit() error = %v", err)
	}

	if f.Pix[0] != 200 {
		t.Errorf("Pix[0] = %d, want 200", f.Pix[0])
	}
	if f.Pix[len(f.Pix)-1] != 17 {
		t.Errorf("last byte = %d, want 17", f.Pix[len(f.Pix)-1])
	}
	if len(f.Pix) != 400 {
		t.Errorf("buffer length changed to %d", len(f.Pix))
	}
}

func TestFromMatBGR(t *testing.T) {
	src := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(10, 20, 30, 0), 2, 3, gocv.MatTypeCV8UC3)
	defer src.Close()

	f, err := FromMat(src)
	if err != nil {
		t.Fatalf("FromMat() error = %v", err)
	}
	if f.Width != 3 || f.Height != 2 {
		t.Fatalf("size = %dx%d, want 3x2", f.Width, f.Height)
	}
	if r, g, b := f.Pix[0], f.Pix[1], f.Pix[2]; r != 30 || g != 20 || b != 10 {
		t.Errorf("first pixel = (%d, %d, %d), want (30, 20, 10)", r, g, b)
	}
}
