// Package markers finds ArUco markers of the 6x6/250 dictionary in RGBA frames.
package markers

import (
	"fmt"

	"gocv.io/x/gocv"

	"aruco-worker-go/internal/models"
	"aruco-worker-go/internal/vision/overlay"
)

const (
	// Dictionary is the fixed marker dictionary
	Dictionary = gocv.ArucoDict6x6_250

	// DictionarySize is the number of codes in Dictionary
	DictionarySize = 250
)

// Options tunes the detector. Zero values keep the OpenCV defaults.
type Options struct {
	ErrorCorrectionRate    float64
	MinMarkerPerimeterRate float64
}

// Detector classifies square candidates against the marker dictionary
type Detector struct {
	detector gocv.ArucoDetector
}

// NewDetector creates a detector for Dictionary
func NewDetector(opts Options) *Detector {
	params := gocv.NewArucoDetectorParameters()
	if opts.ErrorCorrectionRate > 0 {
		params.SetErrorCorrectionRate(opts.ErrorCorrectionRate)
	}
	if opts.MinMarkerPerimeterRate > 0 {
		params.SetMinMarkerPerimeterRate(opts.MinMarkerPerimeterRate)
	}

	dict := gocv.GetPredefinedDictionary(Dictionary)
	return &Detector{
		detector: gocv.NewArucoDetectorWithParams(dict, params),
	}
}

// Close releases the native detector
func (d *Detector) Close() error {
	d.detector.Close()
	return nil
}

// Detect runs the detector on an RGBA Mat and circles every corner in place:
// rejected candidates in red, accepted markers in green.
func (d *Detector) Detect(rgba *gocv.Mat) (models.DetectionResult, error) {
	if rgba.Empty() || rgba.Channels() != 4 {
		return models.DetectionResult{}, fmt.Errorf("detector expects a 4-channel frame, got %d channels", rgba.Channels())
	}

	rgb := gocv.NewMat()
	defer rgb.Close()
	gocv.CvtColor(*rgba, &rgb, gocv.ColorRGBAToRGB)

	corners, ids, rejected := d.detector.DetectMarkers(rgb)

	res := models.DetectionResult{
		IDs:      make([]int, 0, len(ids)),
		Corners:  make([]models.Quad, 0, len(corners)),
		Rejected: make([]models.Quad, 0, len(rejected)),
	}

	// keep ids and corner sets paired; drop anything that is not a 4-point set
	for i, id := range ids {
		if i >= len(corners) {
			break
		}
		q, ok := toQuad(corners[i])
		if !ok {
			continue
		}
		res.IDs = append(res.IDs, id)
		res.Corners = append(res.Corners, q)
	}
	for _, c := range rejected {
		if q, ok := toQuad(c); ok {
			res.Rejected = append(res.Rejected, q)
		}
	}

	overlay.DrawQuads(rgba, res.Rejected, overlay.Red)
	overlay.DrawQuads(rgba, res.Corners, overlay.Green)

	return res, nil
}

func toQuad(pts []gocv.Point2f) (models.Quad, bool) {
	var q models.Quad
	if len(pts) != 4 {
		return q, false
	}
	for i, p := range pts {
		q[i] = models.Point2D{X: float64(p.X), Y: float64(p.Y)}
	}
	return q, true
}
