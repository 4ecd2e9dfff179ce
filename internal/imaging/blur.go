package imaging

import (
	"fmt"
	"math"
)

// BoxKernel is the 3x3 uniform averaging kernel (weights 1, scale 1/9).
var BoxKernel = mustKernel(3, []float64{
	1, 1, 1,
	1, 1, 1,
	1, 1, 1,
}, 1.0/9.0, 0)

// GaussianKernel builds a size x size kernel from a discretised 2-D Gaussian.
//
// The kernel is the outer product of a normalised 1-D Gaussian with itself,
// so its weights sum to 1. A sigma <= 0 is derived from the size as
// 0.3*((size-1)*0.5-1)+0.8, giving 0.8 for a 3x3 kernel and 1.1 for 5x5.
//
// Returns ErrInvalidKernel if size is not a positive odd number.
func GaussianKernel(size int, sigma float64) (*Kernel, error) {
	if size < 1 || size%2 == 0 {
		return nil, fmt.Errorf("%w: gaussian size %d is not a positive odd number", ErrInvalidKernel, size)
	}
	if sigma <= 0 {
		sigma = 0.3*(float64(size-1)*0.5-1) + 0.8
	}

	r := size / 2
	row := make([]float64, size)
	var sum float64
	for i := range row {
		d := float64(i - r)
		row[i] = math.Exp(-(d * d) / (2 * sigma * sigma))
		sum += row[i]
	}
	for i := range row {
		row[i] /= sum
	}

	w := make([]float64, size*size)
	for dy := 0; dy < size; dy++ {
		for dx := 0; dx < size; dx++ {
			w[dy*size+dx] = row[dy] * row[dx]
		}
	}
	return NewKernel(size, w, 1, 0)
}

// BoxBlur averages each 3x3 neighbourhood. The result is rounded to 8-bit.
func BoxBlur(src *Grid) (*Grid, error) {
	return smooth(src, BoxKernel)
}

// GaussianBlur smooths src with a size x size Gaussian of the given sigma.
// The result is rounded to 8-bit.
func GaussianBlur(src *Grid, size int, sigma float64) (*Grid, error) {
	k, err := GaussianKernel(size, sigma)
	if err != nil {
		return nil, err
	}
	return smooth(src, k)
}

// smooth convolves and saturates, keeping the blurred image in the same
// 8-bit domain as its input.
func smooth(src *Grid, k *Kernel) (*Grid, error) {
	out, err := Convolve(src, k)
	if err != nil {
		return nil, fmt.Errorf("failed to blur: %w", err)
	}
	for i, v := range out.Pix {
		out.Pix[i] = saturate(v)
	}
	return out, nil
}
