package detection

import (
	"fmt"

	"github.com/ironsheep/edge-lines/internal/imaging"
)

// LaplacianDetector computes rectified second-derivative strength.
//
// A 3x3 Gaussian blur is followed by the 4-neighbour Laplacian kernel and
// ConvertAndClamp. Zero crossings are not located; the output is graded
// edge strength like SobelDetector.
type LaplacianDetector struct {
	// Sigma of the 3x3 pre-blur; <= 0 derives 0.8 from the kernel size.
	Sigma float64
}

// Name implements Detector.
func (d *LaplacianDetector) Name() string { return Laplacian }

// Detect implements Detector.
func (d *LaplacianDetector) Detect(src *imaging.Grid) (*imaging.Grid, error) {
	if src.Empty() {
		return imaging.NewGrid(src.Width, src.Height), nil
	}

	blurred, err := imaging.GaussianBlur(src, 3, d.Sigma)
	if err != nil {
		return nil, fmt.Errorf("laplacian: %w", err)
	}
	lap, err := imaging.Convolve(blurred, imaging.Laplacian)
	if err != nil {
		return nil, fmt.Errorf("laplacian: %w", err)
	}
	return lap.ConvertAndClamp(1), nil
}
