// Package pose recovers marker-to-camera transforms from four image corners.
//
// The solve is direct: a planar homography is estimated from the template and
// the observed corners by SVD, then decomposed against the camera matrix into
// a rotation and a translation. No initial guess and no iterative refinement.
package pose

import (
	"errors"
	"fmt"
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"

	"aruco-worker-go/internal/models"
	"aruco-worker-go/internal/vision/calibration"
)

var (
	// ErrCornerCount is returned when a corner set does not have exactly 4 points
	ErrCornerCount = errors.New("pose needs exactly 4 corners")

	// ErrDegenerateCorners is returned for collinear, repeated or non-finite corners
	ErrDegenerateCorners = errors.New("degenerate marker corners")

	// ErrSolveFailed is returned when the numeric solve does not produce a usable pose
	ErrSolveFailed = errors.New("pose solve failed")
)

// minTriangleArea in px^2 below which three corners count as collinear
const minTriangleArea = 1.0

// Solve estimates the pose of one marker from its 4 detected corners.
// Corner i must correspond to cal.Template[i].
func Solve(corners models.Quad, cal *calibration.Calibration) (models.Pose, error) {
	if cal == nil {
		return models.Pose{}, fmt.Errorf("%w: nil calibration", ErrSolveFailed)
	}
	if err := ValidateCorners(corners); err != nil {
		return models.Pose{}, err
	}

	// Work in normalized camera coordinates and a unit-scaled template to keep the
	// DLT system well conditioned.
	scale := cal.MarkerLength / 2.0
	var src, dst [4][2]float64
	for i := 0; i < 4; i++ {
		src[i] = [2]float64{cal.Template[i].X / scale, cal.Template[i].Y / scale}
		x, y := cal.Normalize(corners[i].X, corners[i].Y)
		dst[i] = [2]float64{x, y}
	}

	h, err := homography(src, dst)
	if err != nil {
		return models.Pose{}, err
	}

	c1 := r3.Vector{X: h.At(0, 0), Y: h.At(1, 0), Z: h.At(2, 0)}
	c2 := r3.Vector{X: h.At(0, 1), Y: h.At(1, 1), Z: h.At(2, 1)}
	c3 := r3.Vector{X: h.At(0, 2), Y: h.At(1, 2), Z: h.At(2, 2)}

	// H = lambda * [s*r1 s*r2 t]
	n1, n2 := c1.Norm(), c2.Norm()
	if n1 < 1e-12 || n2 < 1e-12 {
		return models.Pose{}, fmt.Errorf("%w: homography has a null column", ErrSolveFailed)
	}
	lambdaS := (n1 + n2) / 2.0
	if c3.Z < 0 {
		lambdaS = -lambdaS
	}

	r1 := c1.Mul(1 / lambdaS)
	r2 := c2.Mul(1 / lambdaS)
	t := c3.Mul(scale / lambdaS)
	if t.Z <= 0 {
		return models.Pose{}, fmt.Errorf("%w: marker behind camera", ErrSolveFailed)
	}

	R, err := orthonormalize(r1, r2, r1.Cross(r2))
	if err != nil {
		return models.Pose{}, err
	}

	p := models.Pose{
		Rotation:    Rodrigues(R),
		Translation: t,
	}
	p.ReprojectionError = ReprojectionError(corners, p, cal)
	if math.IsNaN(p.ReprojectionError) || math.IsInf(p.ReprojectionError, 0) {
		return models.Pose{}, fmt.Errorf("%w: non-finite reprojection", ErrSolveFailed)
	}
	return p, nil
}

// SolveAll solves every marker and never aborts on a single failure.
// Failed markers come back with Valid=false and the error text.
func SolveAll(det models.DetectionResult, cal *calibration.Calibration) []models.MarkerPose {
	out := make([]models.MarkerPose, 0, len(det.IDs))
	for i, id := range det.IDs {
		mp := models.MarkerPose{ID: id}
		if i >= len(det.Corners) {
			mp.Err = ErrCornerCount.Error()
			out = append(out, mp)
			continue
		}
		mp.Corners = det.Corners[i]

		p, err := Solve(det.Corners[i], cal)
		if err != nil {
			mp.Err = err.Error()
		} else {
			mp.Pose = p
			mp.Valid = true
		}
		out = append(out, mp)
	}
	return out
}

// ValidateCorners rejects corner sets the solver cannot use
func ValidateCorners(q models.Quad) error {
	for i, p := range q {
		if math.IsNaN(p.X) || math.IsNaN(p.Y) || math.IsInf(p.X, 0) || math.IsInf(p.Y, 0) {
			return fmt.Errorf("%w: corner %d is not finite", ErrDegenerateCorners, i)
		}
	}
	// every triple must span a real triangle
	for skip := 0; skip < 4; skip++ {
		var tri [3]models.Point2D
		n := 0
		for i := 0; i < 4; i++ {
			if i != skip {
				tri[n] = q[i]
				n++
			}
		}
		if triangleArea(tri[0], tri[1], tri[2]) < minTriangleArea {
			return fmt.Errorf("%w: corners collinear or repeated", ErrDegenerateCorners)
		}
	}
	return nil
}

// ValidatePoints is ValidateCorners for a slice of arbitrary length
func ValidatePoints(pts []models.Point2D) (models.Quad, error) {
	if len(pts) != 4 {
		return models.Quad{}, fmt.Errorf("%w: got %d", ErrCornerCount, len(pts))
	}
	q := models.Quad{pts[0], pts[1], pts[2], pts[3]}
	return q, ValidateCorners(q)
}

func triangleArea(a, b, c models.Point2D) float64 {
	return math.Abs((b.X-a.X)*(c.Y-a.Y)-(c.X-a.X)*(b.Y-a.Y)) / 2.0
}

// homography estimates H with dst ~ H * src from 4 correspondences
func homography(src, dst [4][2]float64) (*mat.Dense, error) {
	data := make([]float64, 0, 8*9)
	for i := 0; i < 4; i++ {
		X, Y := src[i][0], src[i][1]
		x, y := dst[i][0], dst[i][1]
		data = append(data, -X, -Y, -1, 0, 0, 0, x*X, x*Y, x)
		data = append(data, 0, 0, 0, -X, -Y, -1, y*X, y*Y, y)
	}
	A := mat.NewDense(8, 9, data)

	var svd mat.SVD
	if ok := svd.Factorize(A, mat.SVDFull); !ok {
		return nil, fmt.Errorf("%w: homography SVD did not converge", ErrSolveFailed)
	}
	var V mat.Dense
	svd.VTo(&V)

	// null space of the 8x9 system is the last right singular vector
	h := mat.Col(nil, 8, &V)
	H := mat.NewDense(3, 3, h)
	if math.Abs(mat.Det(H)) < 1e-15 {
		return nil, fmt.Errorf("%w: singular homography", ErrSolveFailed)
	}
	return H, nil
}

// orthonormalize returns the rotation closest to [c1 c2 c3] in the Frobenius sense
func orthonormalize(c1, c2, c3 r3.Vector) (*mat.Dense, error) {
	Q := mat.NewDense(3, 3, []float64{
		c1.X, c2.X, c3.X,
		c1.Y, c2.Y, c3.Y,
		c1.Z, c2.Z, c3.Z,
	})

	var svd mat.SVD
	if ok := svd.Factorize(Q, mat.SVDFull); !ok {
		return nil, fmt.Errorf("%w: rotation SVD did not converge", ErrSolveFailed)
	}
	var U, V mat.Dense
	svd.UTo(&U)
	svd.VTo(&V)

	var R mat.Dense
	R.Mul(&U, V.T())
	if mat.Det(&R) < 0 {
		// flip the axis of the smallest singular value
		for i := 0; i < 3; i++ {
			U.Set(i, 2, -U.At(i, 2))
		}
		R.Mul(&U, V.T())
	}
	return &R, nil
}
