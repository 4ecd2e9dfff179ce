package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"

	"github.com/anthonynsimon/bild/imgio"
	"github.com/disintegration/imaging"
	colorful "github.com/lucasb-eyer/go-colorful"
)

// EncodedImage is an image encoded as base64 PNG for transport in tool results.
type EncodedImage struct {
	// Width of the image in pixels.
	Width int `json:"width"`

	// Height of the image in pixels.
	Height int `json:"height"`

	// ImageBase64 is the PNG data, base64 encoded.
	ImageBase64 string `json:"image_base64"`

	// MimeType is always "image/png".
	MimeType string `json:"mime_type"`
}

// EncodePNGBase64 encodes img as PNG and wraps it in an EncodedImage.
func EncodePNGBase64(img image.Image) (*EncodedImage, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	b := img.Bounds()
	return &EncodedImage{
		Width:       b.Dx(),
		Height:      b.Dy(),
		ImageBase64: base64.StdEncoding.EncodeToString(buf.Bytes()),
		MimeType:    "image/png",
	}, nil
}

// SavePNG writes img to path as PNG.
func SavePNG(path string, img image.Image) error {
	if err := imgio.Save(path, img, imgio.PNGEncoder()); err != nil {
		return fmt.Errorf("failed to save %s: %w", path, err)
	}
	return nil
}

// OverlayOptions controls how line segments are drawn over an image.
type OverlayOptions struct {
	// Color is the line colour as "#RRGGBB". Empty means red.
	Color string

	// Opacity blends the line colour over the base, 0 (invisible) to 1 (solid).
	// Zero is treated as 1.
	Opacity float64

	// Thickness is the brush size in pixels. Values below 1 are treated as 1.
	Thickness int
}

// Overlay draws line segments, given as [x1, y1, x2, y2] tuples, over the
// grayscale base grid and returns an RGBA image.
//
// Colours are blended in RGB space using go-colorful so that a partially
// transparent overlay keeps the underlying edge map visible.
func Overlay(base *Grid, lines [][4]int, opts OverlayOptions) (*image.RGBA, error) {
	hex := opts.Color
	if hex == "" {
		hex = "#FF0000"
	}
	lineColor, err := colorful.Hex(hex)
	if err != nil {
		return nil, fmt.Errorf("invalid overlay color %q: %w", hex, err)
	}
	opacity := opts.Opacity
	if opacity <= 0 || opacity > 1 {
		opacity = 1
	}
	thickness := opts.Thickness
	if thickness < 1 {
		thickness = 1
	}

	out := image.NewRGBA(image.Rect(0, 0, base.Width, base.Height))
	for y := 0; y < base.Height; y++ {
		for x := 0; x < base.Width; x++ {
			v := uint8(saturate(base.At(x, y)))
			out.SetRGBA(x, y, color.RGBA{R: v, G: v, B: v, A: 255})
		}
	}

	paint := func(px, py int) {
		half := thickness / 2
		for dy := -half; dy < thickness-half; dy++ {
			for dx := -half; dx < thickness-half; dx++ {
				x, y := px+dx, py+dy
				if !base.In(x, y) {
					continue
				}
				under, _ := colorful.MakeColor(out.RGBAAt(x, y))
				r, g, b := under.BlendRgb(lineColor, opacity).Clamped().RGB255()
				out.SetRGBA(x, y, color.RGBA{R: r, G: g, B: b, A: 255})
			}
		}
	}

	for _, l := range lines {
		drawLine(l[0], l[1], l[2], l[3], paint)
	}
	return out, nil
}

// drawLine visits every pixel of the Bresenham line from (x0,y0) to (x1,y1).
func drawLine(x0, y0, x1, y1 int, plot func(x, y int)) {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	e := dx + dy
	for {
		plot(x0, y0)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x0 += sx
		}
		if e2 <= dx {
			e += dx
			y0 += sy
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
