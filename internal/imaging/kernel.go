package imaging

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// ErrInvalidKernel is returned when a kernel is not odd-sized, its weights do
// not match its size, or it is larger than the grid it is applied to.
var ErrInvalidKernel = errors.New("invalid kernel")

// Kernel is an odd-sized square convolution kernel.
//
// The weights are indexed [row][column], i.e. [dy][dx] relative to the
// top-left of the neighbourhood. After the weighted sum is computed it is
// multiplied by Scale and Offset is added. A Kernel is immutable once built.
type Kernel struct {
	weights *mat.Dense
	scale   float64
	offset  float64
}

// NewKernel builds a size x size kernel from row-major weights.
//
// Returns ErrInvalidKernel if size is not a positive odd number or if
// len(weights) != size*size.
func NewKernel(size int, weights []float64, scale, offset float64) (*Kernel, error) {
	if size < 1 || size%2 == 0 {
		return nil, fmt.Errorf("%w: size %d is not a positive odd number", ErrInvalidKernel, size)
	}
	if len(weights) != size*size {
		return nil, fmt.Errorf("%w: %d weights for a %dx%d kernel", ErrInvalidKernel, len(weights), size, size)
	}
	data := make([]float64, len(weights))
	copy(data, weights)
	return &Kernel{
		weights: mat.NewDense(size, size, data),
		scale:   scale,
		offset:  offset,
	}, nil
}

// mustKernel is used for the fixed kernels defined in this package.
func mustKernel(size int, weights []float64, scale, offset float64) *Kernel {
	k, err := NewKernel(size, weights, scale, offset)
	if err != nil {
		panic(err)
	}
	return k
}

// Size returns the kernel side length.
func (k *Kernel) Size() int {
	r, _ := k.weights.Dims()
	return r
}

// Radius returns Size()/2, the number of border pixels affected by
// replicated-edge extension.
func (k *Kernel) Radius() int {
	return k.Size() / 2
}

// Weight returns the weight at row dy, column dx.
func (k *Kernel) Weight(dy, dx int) float64 {
	return k.weights.At(dy, dx)
}

// Scale returns the multiplier applied after the weighted sum.
func (k *Kernel) Scale() float64 { return k.scale }

// Offset returns the bias added after scaling.
func (k *Kernel) Offset() float64 { return k.offset }

// Transpose returns a new kernel with rows and columns swapped.
// The Sobel Y kernel is the transpose of the Sobel X kernel.
func (k *Kernel) Transpose() *Kernel {
	return &Kernel{
		weights: mat.DenseCopyOf(k.weights.T()),
		scale:   k.scale,
		offset:  k.offset,
	}
}

// flat returns the weights as a contiguous row-major slice.
func (k *Kernel) flat() []float64 {
	n := k.Size()
	out := make([]float64, 0, n*n)
	for dy := 0; dy < n; dy++ {
		out = append(out, mat.Row(nil, dy, k.weights)...)
	}
	return out
}

// IdentityKernel returns a size x size kernel with a single unit weight in
// the centre. Convolving with it returns the input unchanged.
func IdentityKernel(size int) (*Kernel, error) {
	if size < 1 || size%2 == 0 {
		return nil, fmt.Errorf("%w: size %d is not a positive odd number", ErrInvalidKernel, size)
	}
	w := make([]float64, size*size)
	w[(size*size)/2] = 1
	return NewKernel(size, w, 1, 0)
}

// SobelX is the 3x3 horizontal derivative kernel:
//
//	-1  0  1
//	-2  0  2
//	-1  0  1
var SobelX = mustKernel(3, []float64{
	-1, 0, 1,
	-2, 0, 2,
	-1, 0, 1,
}, 1, 0)

// SobelY is the transpose of SobelX (vertical derivative, positive downward).
var SobelY = SobelX.Transpose()

// Laplacian is the 4-neighbour second-derivative kernel:
//
//	0  1  0
//	1 -4  1
//	0  1  0
var Laplacian = mustKernel(3, []float64{
	0, 1, 0,
	1, -4, 1,
	0, 1, 0,
}, 1, 0)

// SobelKernels returns the horizontal and vertical first-derivative kernels
// for the given aperture (3, 5 or 7).
//
// The kernels are built as outer products of a binomial smoothing row and a
// binomial derivative row, so aperture 3 yields exactly SobelX and SobelY.
func SobelKernels(aperture int) (*Kernel, *Kernel, error) {
	if aperture != 3 && aperture != 5 && aperture != 7 {
		return nil, nil, fmt.Errorf("%w: sobel aperture %d not in {3,5,7}", ErrInvalidKernel, aperture)
	}
	smooth := binomialRow(aperture - 1)
	deriv := convolve1D(binomialRow(aperture-2), []float64{-1, 1})

	w := make([]float64, aperture*aperture)
	for dy := 0; dy < aperture; dy++ {
		for dx := 0; dx < aperture; dx++ {
			w[dy*aperture+dx] = smooth[dy] * deriv[dx]
		}
	}
	kx, err := NewKernel(aperture, w, 1, 0)
	if err != nil {
		return nil, nil, err
	}
	return kx, kx.Transpose(), nil
}

// binomialRow returns row n of Pascal's triangle (n+1 entries).
func binomialRow(n int) []float64 {
	row := []float64{1}
	for i := 0; i < n; i++ {
		row = convolve1D(row, []float64{1, 1})
	}
	return row
}

// convolve1D is the full discrete convolution of a and b.
func convolve1D(a, b []float64) []float64 {
	out := make([]float64, len(a)+len(b)-1)
	for i, av := range a {
		for j, bv := range b {
			out[i+j] += av * bv
		}
	}
	return out
}
