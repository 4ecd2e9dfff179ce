package detection

import (
	"fmt"
	"math"

	"github.com/ironsheep/edge-lines/internal/imaging"
)

// CannyDetector implements the full Canny edge detector.
//
// # Algorithm
//
//  1. Gaussian blur: BlurSize x BlurSize kernel of BlurSigma to suppress noise.
//
//  2. Gradient computation: Sobel operators of the configured aperture,
//     magnitude = sqrt(Gx² + Gy²), direction = atan2(Gy, Gx) quantised to
//     0°, 45°, 90° or 135°.
//
//  3. Non-maximum suppression: a pixel keeps its magnitude only if it is a
//     local maximum along its quantised direction, thinning ridges to one
//     pixel. Ties between the two sides are broken toward the negative side
//     so a symmetric ridge keeps exactly one pixel.
//
//  4. Hysteresis thresholding:
//     - Magnitudes above High are definite edges (seeds)
//     - Magnitudes above Low are kept only if 8-connected to a seed,
//     transitively
//     - Everything else is discarded
//
// The output is strictly binary: 255 for edges, 0 elsewhere.
//
// # Threshold Selection
//
// Thresholds apply to raw gradient magnitude, which for a 3x3 aperture on
// 8-bit input ranges up to about 1440. The reference settings are Low=50,
// High=200.
type CannyDetector struct {
	Low       float64
	High      float64
	Aperture  int
	BlurSize  int
	BlurSigma float64
}

// Validate checks thresholds, aperture and blur size.
//
// Returns ErrInvalidThresholds if and only if Low > High for otherwise valid
// parameters, and imaging.ErrInvalidKernel for an unsupported aperture or an
// even blur size.
func (d *CannyDetector) Validate() error {
	if d.Low > d.High {
		return fmt.Errorf("%w: low %v > high %v", ErrInvalidThresholds, d.Low, d.High)
	}
	if d.Aperture != 3 && d.Aperture != 5 && d.Aperture != 7 {
		return fmt.Errorf("%w: canny aperture %d not in {3,5,7}", imaging.ErrInvalidKernel, d.Aperture)
	}
	if d.BlurSize < 1 || d.BlurSize%2 == 0 {
		return fmt.Errorf("%w: canny blur size %d is not a positive odd number", imaging.ErrInvalidKernel, d.BlurSize)
	}
	return nil
}

// Name implements Detector.
func (d *CannyDetector) Name() string { return Canny }

// Detect implements Detector.
func (d *CannyDetector) Detect(src *imaging.Grid) (*imaging.Grid, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	if src.Empty() {
		return imaging.NewGrid(src.Width, src.Height), nil
	}

	blurred, err := imaging.GaussianBlur(src, d.BlurSize, d.BlurSigma)
	if err != nil {
		return nil, fmt.Errorf("canny: %w", err)
	}
	mag, dir, err := gradient(blurred, d.Aperture)
	if err != nil {
		return nil, fmt.Errorf("canny: %w", err)
	}
	thin := suppressNonMaxima(mag, dir)
	return hysteresis(thin, d.Low, d.High), nil
}

// Quantised gradient directions.
const (
	dir0 uint8 = iota
	dir45
	dir90
	dir135
)

// gradient returns the Sobel magnitude and the quantised direction of every pixel.
func gradient(src *imaging.Grid, aperture int) (*imaging.Grid, []uint8, error) {
	kx, ky, err := imaging.SobelKernels(aperture)
	if err != nil {
		return nil, nil, err
	}
	gx, err := imaging.Convolve(src, kx)
	if err != nil {
		return nil, nil, err
	}
	gy, err := imaging.Convolve(src, ky)
	if err != nil {
		return nil, nil, err
	}

	mag := imaging.NewGrid(src.Width, src.Height)
	dir := make([]uint8, len(mag.Pix))
	for i := range mag.Pix {
		x, y := gx.Pix[i], gy.Pix[i]
		mag.Pix[i] = math.Hypot(x, y)
		dir[i] = quantizeDirection(math.Atan2(y, x))
	}
	return mag, dir, nil
}

// quantizeDirection maps an angle in radians to the nearest of 0°, 45°, 90°
// and 135°, folding opposite directions together.
func quantizeDirection(theta float64) uint8 {
	deg := theta * 180 / math.Pi
	if deg < 0 {
		deg += 180
	}
	switch {
	case deg < 22.5 || deg >= 157.5:
		return dir0
	case deg < 67.5:
		return dir45
	case deg < 112.5:
		return dir90
	default:
		return dir135
	}
}

// neighborOffsets gives, per direction, the offset of the neighbour on the
// negative side of the gradient. The positive-side neighbour is its mirror.
// Y grows downward, so 45° points toward (+1,+1).
var neighborOffsets = [4][2]int{
	dir0:   {-1, 0},
	dir45:  {-1, -1},
	dir90:  {0, -1},
	dir135: {1, -1},
}

// suppressNonMaxima zeroes every pixel that is not a maximum along its
// gradient direction. A pixel survives when it is strictly greater than its
// negative-side neighbour and not less than its positive-side neighbour.
// Neighbours outside the grid count as zero.
func suppressNonMaxima(mag *imaging.Grid, dir []uint8) *imaging.Grid {
	out := imaging.NewGrid(mag.Width, mag.Height)
	at := func(x, y int) float64 {
		if !mag.In(x, y) {
			return 0
		}
		return mag.At(x, y)
	}

	for y := 0; y < mag.Height; y++ {
		for x := 0; x < mag.Width; x++ {
			i := y*mag.Width + x
			m := mag.Pix[i]
			if m == 0 {
				continue
			}
			off := neighborOffsets[dir[i]]
			n1 := at(x+off[0], y+off[1])
			n2 := at(x-off[0], y-off[1])
			if m > n1 && m >= n2 {
				out.Pix[i] = m
			}
		}
	}
	return out
}

// hysteresis classifies thinned magnitudes into a binary edge map.
// Seeds above high are flood-filled through 8-connected pixels above low.
func hysteresis(thin *imaging.Grid, low, high float64) *imaging.Grid {
	out := imaging.NewGrid(thin.Width, thin.Height)
	w, h := thin.Width, thin.Height

	stack := make([]int, 0, 64)
	for i, m := range thin.Pix {
		if m > high && out.Pix[i] == 0 {
			out.Pix[i] = 255
			stack = append(stack, i)
		}
		for len(stack) > 0 {
			p := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			px, py := p%w, p/w
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					nx, ny := px+dx, py+dy
					if (dx == 0 && dy == 0) || nx < 0 || nx >= w || ny < 0 || ny >= h {
						continue
					}
					j := ny*w + nx
					if out.Pix[j] == 0 && thin.Pix[j] > low {
						out.Pix[j] = 255
						stack = append(stack, j)
					}
				}
			}
		}
	}
	return out
}
