package imaging

import (
	"errors"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// ErrInvalidRegion is returned when a region of interest is empty or lies
// outside the image.
var ErrInvalidRegion = errors.New("invalid region")

// Region represents a rectangular region within an image.
//
// (X1, Y1) is the inclusive top-left corner and (X2, Y2) the exclusive
// bottom-right corner.
type Region struct {
	X1 int `json:"x1"`
	Y1 int `json:"y1"`
	X2 int `json:"x2"`
	Y2 int `json:"y2"`
}

// Validate checks that the region is non-empty.
func (r Region) Validate() error {
	if r.X1 >= r.X2 || r.Y1 >= r.Y2 {
		return fmt.Errorf("%w: x1 must be < x2, y1 must be < y2", ErrInvalidRegion)
	}
	return nil
}

// Crop extracts a rectangular region of interest from an image before it is
// converted to a Grid.
func Crop(img image.Image, r Region) (image.Image, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	bounds := img.Bounds()
	if r.X1 < bounds.Min.X || r.Y1 < bounds.Min.Y || r.X2 > bounds.Max.X || r.Y2 > bounds.Max.Y {
		return nil, fmt.Errorf("%w: crop region (%d,%d)-(%d,%d) outside image bounds (%d,%d)-(%d,%d)",
			ErrInvalidRegion, r.X1, r.Y1, r.X2, r.Y2, bounds.Min.X, bounds.Min.Y, bounds.Max.X, bounds.Max.Y)
	}
	return imaging.Crop(img, image.Rect(r.X1, r.Y1, r.X2, r.Y2)), nil
}

// CropGrid copies a region of g into a new Grid.
func CropGrid(g *Grid, r Region) (*Grid, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	if r.X1 < 0 || r.Y1 < 0 || r.X2 > g.Width || r.Y2 > g.Height {
		return nil, fmt.Errorf("%w: crop region (%d,%d)-(%d,%d) outside %dx%d grid",
			ErrInvalidRegion, r.X1, r.Y1, r.X2, r.Y2, g.Width, g.Height)
	}
	out := NewGrid(r.X2-r.X1, r.Y2-r.Y1)
	for y := 0; y < out.Height; y++ {
		copy(out.Pix[y*out.Width:(y+1)*out.Width], g.Pix[(y+r.Y1)*g.Width+r.X1:(y+r.Y1)*g.Width+r.X2])
	}
	return out, nil
}
