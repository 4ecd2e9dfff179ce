package detection

import (
	"errors"
	"fmt"
	"sort"

	"github.com/ironsheep/edge-lines/internal/imaging"
)

var (
	// ErrInvalidThresholds is returned when the Canny low threshold exceeds
	// the high threshold.
	ErrInvalidThresholds = errors.New("invalid thresholds")

	// ErrUnknownDetector is returned for a detector name other than
	// sobel, laplacian or canny.
	ErrUnknownDetector = errors.New("unknown detector")
)

// Detector names accepted by NewDetector.
const (
	Sobel     = "sobel"
	Laplacian = "laplacian"
	Canny     = "canny"
)

// Detector turns an intensity grid into an EdgeMap of the same shape.
//
// Sobel and Laplacian produce graded 8-bit edge strength; Canny produces a
// strictly binary map (0 or 255). Implementations hold their parameters and
// are safe to reuse across grids.
type Detector interface {
	// Name returns the detector name as accepted by NewDetector.
	Name() string

	// Detect computes the edge map. The input grid is not modified.
	Detect(src *imaging.Grid) (*imaging.Grid, error)
}

// Params carries the tunables for every detector. Fields that do not apply
// to the selected detector are ignored.
type Params struct {
	// CannyLow is the hysteresis low threshold on gradient magnitude.
	CannyLow float64

	// CannyHigh is the hysteresis high threshold on gradient magnitude.
	CannyHigh float64

	// CannyAperture is the Sobel aperture used by Canny (3, 5 or 7).
	CannyAperture int

	// CannyBlurSize is the Gaussian pre-blur kernel size (odd).
	CannyBlurSize int

	// CannyBlurSigma is the Gaussian pre-blur sigma; <= 0 derives it from size.
	CannyBlurSigma float64

	// LaplacianSigma is the sigma of the 3x3 pre-blur; <= 0 derives it.
	LaplacianSigma float64
}

// DefaultParams returns the reference settings: Canny 50/200 with a 3x3
// aperture after a 5x5, sigma 1.4 blur.
func DefaultParams() Params {
	return Params{
		CannyLow:       50,
		CannyHigh:      200,
		CannyAperture:  3,
		CannyBlurSize:  5,
		CannyBlurSigma: 1.4,
	}
}

// NewDetector returns the detector registered under name, validated against p.
func NewDetector(name string, p Params) (Detector, error) {
	switch name {
	case Sobel:
		return &SobelDetector{}, nil
	case Laplacian:
		return &LaplacianDetector{Sigma: p.LaplacianSigma}, nil
	case Canny:
		c := &CannyDetector{
			Low:       p.CannyLow,
			High:      p.CannyHigh,
			Aperture:  p.CannyAperture,
			BlurSize:  p.CannyBlurSize,
			BlurSigma: p.CannyBlurSigma,
		}
		if err := c.Validate(); err != nil {
			return nil, err
		}
		return c, nil
	default:
		return nil, fmt.Errorf("%w: %q (want one of %v)", ErrUnknownDetector, name, DetectorNames())
	}
}

// DetectorNames lists the accepted detector names in sorted order.
func DetectorNames() []string {
	names := []string{Sobel, Laplacian, Canny}
	sort.Strings(names)
	return names
}
