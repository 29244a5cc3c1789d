package pose

import (
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"
)

// Rodrigues converts a 3x3 rotation matrix to an axis-angle vector
func Rodrigues(R mat.Matrix) r3.Vector {
	tr := R.At(0, 0) + R.At(1, 1) + R.At(2, 2)
	cos := math.Max(-1, math.Min(1, (tr-1)/2))
	theta := math.Acos(cos)

	axis := r3.Vector{
		X: R.At(2, 1) - R.At(1, 2),
		Y: R.At(0, 2) - R.At(2, 0),
		Z: R.At(1, 0) - R.At(0, 1),
	}
	sin := axis.Norm() / 2

	switch {
	case sin < 1e-9 && cos > 0:
		return r3.Vector{}
	case sin < 1e-5 && cos < 0:
		// theta close to pi: axis from the symmetric part, R = 2nn^T - I
		n := r3.Vector{
			X: math.Sqrt(math.Max(0, (R.At(0, 0)+1)/2)),
			Y: math.Sqrt(math.Max(0, (R.At(1, 1)+1)/2)),
			Z: math.Sqrt(math.Max(0, (R.At(2, 2)+1)/2)),
		}
		// recover relative signs from the off-diagonal terms, anchored on the largest component
		switch {
		case n.X >= n.Y && n.X >= n.Z:
			n.Y = math.Copysign(n.Y, R.At(0, 1)+R.At(1, 0))
			n.Z = math.Copysign(n.Z, R.At(0, 2)+R.At(2, 0))
		case n.Y >= n.Z:
			n.X = math.Copysign(n.X, R.At(0, 1)+R.At(1, 0))
			n.Z = math.Copysign(n.Z, R.At(1, 2)+R.At(2, 1))
		default:
			n.X = math.Copysign(n.X, R.At(0, 2)+R.At(2, 0))
			n.Y = math.Copysign(n.Y, R.At(1, 2)+R.At(2, 1))
		}
		return n.Normalize().Mul(theta)
	default:
		return axis.Mul(theta / (2 * sin))
	}
}

// RotationMatrix converts an axis-angle vector to a 3x3 rotation matrix
func RotationMatrix(rvec r3.Vector) *mat.Dense {
	theta := rvec.Norm()
	if theta < 1e-12 {
		return mat.NewDense(3, 3, []float64{1, 0, 0, 0, 1, 0, 0, 0, 1})
	}
	k := rvec.Mul(1 / theta)
	c, s := math.Cos(theta), math.Sin(theta)
	v := 1 - c

	return mat.NewDense(3, 3, []float64{
		c + k.X*k.X*v, k.X*k.Y*v - k.Z*s, k.X*k.Z*v + k.Y*s,
		k.Y*k.X*v + k.Z*s, c + k.Y*k.Y*v, k.Y*k.Z*v - k.X*s,
		k.Z*k.X*v - k.Y*s, k.Z*k.Y*v + k.X*s, c + k.Z*k.Z*v,
	})
}

// Rotate applies the axis-angle rotation to p
func Rotate(rvec, p r3.Vector) r3.Vector {
	R := RotationMatrix(rvec)
	return r3.Vector{
		X: R.At(0, 0)*p.X + R.At(0, 1)*p.Y + R.At(0, 2)*p.Z,
		Y: R.At(1, 0)*p.X + R.At(1, 1)*p.Y + R.At(1, 2)*p.Z,
		Z: R.At(2, 0)*p.X + R.At(2, 1)*p.Y + R.At(2, 2)*p.Z,
	}
}
