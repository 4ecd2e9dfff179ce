package detection

import (
	"fmt"

	"github.com/ironsheep/edge-lines/internal/imaging"
)

// SobelDetector computes graded gradient strength.
//
// The input is box blurred, differentiated with the 3x3 Sobel kernels, each
// gradient is rescaled with ConvertAndClamp, and the two are combined as
// round(0.5*|Gx| + 0.5*|Gy|). The combination is taken after clamping, not
// as sqrt(Gx²+Gy²). No threshold is applied.
type SobelDetector struct{}

// Name implements Detector.
func (d *SobelDetector) Name() string { return Sobel }

// Detect implements Detector.
func (d *SobelDetector) Detect(src *imaging.Grid) (*imaging.Grid, error) {
	if src.Empty() {
		return imaging.NewGrid(src.Width, src.Height), nil
	}

	blurred, err := imaging.BoxBlur(src)
	if err != nil {
		return nil, fmt.Errorf("sobel: %w", err)
	}
	gx, err := imaging.Convolve(blurred, imaging.SobelX)
	if err != nil {
		return nil, fmt.Errorf("sobel: x gradient: %w", err)
	}
	gy, err := imaging.Convolve(blurred, imaging.SobelY)
	if err != nil {
		return nil, fmt.Errorf("sobel: y gradient: %w", err)
	}

	ax := gx.ConvertAndClamp(1)
	ay := gy.ConvertAndClamp(1)
	return addWeighted(ax, 0.5, ay, 0.5), nil
}

// addWeighted returns round(alpha*a + beta*b) clamped to 8-bit.
func addWeighted(a *imaging.Grid, alpha float64, b *imaging.Grid, beta float64) *imaging.Grid {
	out := imaging.NewGrid(a.Width, a.Height)
	for i := range out.Pix {
		out.Pix[i] = alpha*a.Pix[i] + beta*b.Pix[i]
	}
	return out.ConvertAndClamp(1)
}
