package pose

import (
	"math"

	"github.com/golang/geo/r3"

	"aruco-worker-go/internal/models"
	"aruco-worker-go/internal/vision/calibration"
)

// Project maps marker-space points through the pose and the camera intrinsics.
// ok[i] is false for points that land on or behind the camera.
func Project(points []r3.Vector, p models.Pose, cal *calibration.Calibration) ([]models.Point2D, []bool) {
	out := make([]models.Point2D, len(points))
	ok := make([]bool, len(points))

	for i, pt := range points {
		cam := Rotate(p.Rotation, pt).Add(p.Translation)

		u, v, front := cal.ProjectCamera(cam)
		out[i] = models.Point2D{X: u, Y: v}
		ok[i] = front
	}
	return out, ok
}

// ReprojectionError is the mean pixel distance between corners and the projected template
func ReprojectionError(corners models.Quad, p models.Pose, cal *calibration.Calibration) float64 {
	projected, ok := Project(cal.Template[:], p, cal)
	sum := 0.0
	for i := range corners {
		if !ok[i] {
			return math.Inf(1)
		}
		sum += math.Hypot(projected[i].X-corners[i].X, projected[i].Y-corners[i].Y)
	}
	return sum / float64(len(corners))
}
