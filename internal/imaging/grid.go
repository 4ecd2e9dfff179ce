package imaging

import (
	"image"
	"image/color"
	"math"
)

// Grid is a single-channel intensity buffer.
//
// Samples are stored row-major in Pix, so the sample at (x, y) lives at
// Pix[y*Width+x]. Values are float64 so that intermediate results such as
// signed gradients can leave the 8-bit range until they are rescaled with
// ConvertAndClamp.
//
// A Grid with zero width or height is valid and represents an empty image.
// Every operator in this package accepts it and returns an empty result.
type Grid struct {
	// Width is the number of samples per row.
	Width int

	// Height is the number of rows.
	Height int

	// Pix holds Width*Height samples in row-major order.
	Pix []float64
}

// NewGrid allocates a zero-filled Grid. Negative dimensions are treated as zero.
func NewGrid(width, height int) *Grid {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	return &Grid{
		Width:  width,
		Height: height,
		Pix:    make([]float64, width*height),
	}
}

// GridFromImage converts an image to a luminance Grid.
//
// Color pixels are reduced with ITU-R BT.601 weights
// (0.299*R + 0.587*G + 0.114*B) and rounded to the nearest 8-bit level.
// Grayscale images pass through unchanged.
func GridFromImage(img image.Image) *Grid {
	bounds := img.Bounds()
	g := NewGrid(bounds.Dx(), bounds.Dy())

	if gray, ok := img.(*image.Gray); ok {
		for y := 0; y < g.Height; y++ {
			row := gray.Pix[y*gray.Stride : y*gray.Stride+g.Width]
			for x, v := range row {
				g.Pix[y*g.Width+x] = float64(v)
			}
		}
		return g
	}

	for y := 0; y < g.Height; y++ {
		for x := 0; x < g.Width; x++ {
			r, gr, b, _ := img.At(x+bounds.Min.X, y+bounds.Min.Y).RGBA()
			lum := 0.299*float64(r>>8) + 0.587*float64(gr>>8) + 0.114*float64(b>>8)
			g.Pix[y*g.Width+x] = math.Round(lum)
		}
	}
	return g
}

// Empty reports whether the grid has no samples.
func (g *Grid) Empty() bool {
	return g == nil || g.Width == 0 || g.Height == 0
}

// At returns the sample at (x, y). Coordinates must be in bounds.
func (g *Grid) At(x, y int) float64 {
	return g.Pix[y*g.Width+x]
}

// Set stores v at (x, y). Coordinates must be in bounds.
func (g *Grid) Set(x, y int, v float64) {
	g.Pix[y*g.Width+x] = v
}

// In reports whether (x, y) lies inside the grid.
func (g *Grid) In(x, y int) bool {
	return x >= 0 && x < g.Width && y >= 0 && y < g.Height
}

// Clone returns a deep copy of the grid.
func (g *Grid) Clone() *Grid {
	c := NewGrid(g.Width, g.Height)
	copy(c.Pix, g.Pix)
	return c
}

// CountAbove returns the number of samples strictly greater than threshold.
func (g *Grid) CountAbove(threshold float64) int {
	n := 0
	for _, v := range g.Pix {
		if v > threshold {
			n++
		}
	}
	return n
}

// ConvertAndClamp rescales the grid to the displayable 8-bit range.
//
// Each output sample is clamp(round(scale*|v|), 0, 255). The result is a new
// Grid; the receiver is not modified. Output is monotonic in |v| for any
// non-negative scale.
func (g *Grid) ConvertAndClamp(scale float64) *Grid {
	out := NewGrid(g.Width, g.Height)
	for i, v := range g.Pix {
		out.Pix[i] = saturate(scale * math.Abs(v))
	}
	return out
}

// ToGray renders the grid as an 8-bit grayscale image, rounding and clamping
// each sample to [0, 255].
func (g *Grid) ToGray() *image.Gray {
	img := image.NewGray(image.Rect(0, 0, g.Width, g.Height))
	for y := 0; y < g.Height; y++ {
		for x := 0; x < g.Width; x++ {
			img.SetGray(x, y, color.Gray{Y: uint8(saturate(g.Pix[y*g.Width+x]))})
		}
	}
	return img
}

// saturate rounds v and clamps it to the 8-bit range.
func saturate(v float64) float64 {
	v = math.Round(v)
	if v < 0 || math.IsNaN(v) {
		return 0
	}
	if v > 255 {
		return 255
	}
	return v
}

// clamp constrains an integer value to the range [min, max].
// Used for replicated-edge boundary handling in convolution.
func clamp(val, min, max int) int {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}
