package facedetection

import (
	_ "embed"
	"fmt"
	"image"
	"os"

	pigo "github.com/esimov/pigo/core"
)

type PigoConfig struct {
	MinSize      int
	MaxSize      int
	ShiftFactor  float64
	ScaleFactor  float64
	IoUThreshold float64
	MinQuality   float32
}

var DefaultPigoConfig = PigoConfig{
	MinSize:      20,
	MaxSize:      1000,
	ShiftFactor:  0.1,
	ScaleFactor:  1.1,
	IoUThreshold: 0.2,
	MinQuality:   5.0,
}

//go:embed cascade/facefinder
var facefinder []byte

type pigoDetector struct {
	classifier *pigo.Pigo
	cfg        PigoConfig
}

func NewPigoDetector(cascade []byte, cfg PigoConfig) (d Detector, err error) {
	// pigo indexes past the end of truncated cascades instead of returning an error
	defer func() {
		if r := recover(); r != nil {
			d, err = nil, fmt.Errorf("failed to unpack cascade: %v", r)
		}
	}()

	classifier, err := pigo.NewPigo().Unpack(cascade)
	if err != nil {
		return nil, fmt.Errorf("failed to unpack cascade: %w", err)
	}

	return &pigoDetector{classifier: classifier, cfg: cfg}, nil
}

// LoadPigoDetector reads a cascade from cascadePath, falling back to the
// bundled facefinder cascade when no path is given
func LoadPigoDetector(cascadePath string, cfg PigoConfig) (Detector, error) {
	if cascadePath == "" {
		return NewPigoDetector(facefinder, cfg)
	}

	cascade, err := os.ReadFile(cascadePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read cascade file %s: %w", cascadePath, err)
	}

	return NewPigoDetector(cascade, cfg)
}

// Detect returns the bounding boxes of all faces in img as [x, y, width, height]
func (d *pigoDetector) Detect(img image.Image) [][4]int {
	src := pigo.ImgToNRGBA(img)
	pixels := pigo.RgbToGrayscale(src)
	cols, rows := src.Bounds().Dx(), src.Bounds().Dy()

	params := pigo.CascadeParams{
		MinSize:     d.cfg.MinSize,
		MaxSize:     d.cfg.MaxSize,
		ShiftFactor: d.cfg.ShiftFactor,
		ScaleFactor: d.cfg.ScaleFactor,
		ImageParams: pigo.ImageParams{
			Pixels: pixels,
			Rows:   rows,
			Cols:   cols,
			Dim:    cols,
		},
	}

	detections := d.classifier.RunCascade(params, 0.0)
	detections = d.classifier.ClusterDetections(detections, d.cfg.IoUThreshold)

	faces := [][4]int{}
	for _, det := range detections {
		if det.Q < d.cfg.MinQuality {
			continue
		}
		faces = append(faces, [4]int{det.Col - det.Scale/2, det.Row - det.Scale/2, det.Scale, det.Scale})
	}

	return faces
}
