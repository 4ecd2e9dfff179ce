package imaging

import (
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Convolve applies k to src and returns a new Grid of the same dimensions.
//
// Each output sample is the kernel-weighted sum of the neighbourhood centred
// on that pixel, multiplied by the kernel scale and shifted by its offset:
//
//	out(x,y) = scale * sum_{dy,dx} w[dy][dx] * src(x+dx-r, y+dy-r) + offset
//
// Samples outside the grid are taken from the nearest in-bounds sample
// (replicated-edge extension), which fixes the behaviour of the outermost
// r = size/2 rows and columns. Output values are not clamped.
//
// An empty src yields an empty result. Returns ErrInvalidKernel if the kernel
// is larger than either grid dimension.
//
// Rows are computed in parallel bands; each band writes only its own output
// rows, so the result does not depend on scheduling.
func Convolve(src *Grid, k *Kernel) (*Grid, error) {
	if src.Empty() {
		return NewGrid(src.Width, src.Height), nil
	}
	size := k.Size()
	if size > src.Width || size > src.Height {
		return nil, fmt.Errorf("%w: %dx%d kernel exceeds %dx%d grid",
			ErrInvalidKernel, size, size, src.Width, src.Height)
	}

	dst := NewGrid(src.Width, src.Height)
	weights := k.flat()
	r := size / 2
	scale, offset := k.Scale(), k.Offset()
	w, h := src.Width, src.Height

	forEachRowBand(h, func(y0, y1 int) {
		for y := y0; y < y1; y++ {
			for x := 0; x < w; x++ {
				var sum float64
				for dy := 0; dy < size; dy++ {
					py := clamp(y+dy-r, 0, h-1)
					row := src.Pix[py*w : py*w+w]
					kw := weights[dy*size : dy*size+size]
					for dx := 0; dx < size; dx++ {
						if kw[dx] == 0 {
							continue
						}
						px := clamp(x+dx-r, 0, w-1)
						sum += row[px] * kw[dx]
					}
				}
				dst.Pix[y*w+x] = sum*scale + offset
			}
		}
	})

	return dst, nil
}

// forEachRowBand splits [0, height) into contiguous bands and calls fn on each
// band concurrently, returning once every band is done.
func forEachRowBand(height int, fn func(y0, y1 int)) {
	workers := runtime.GOMAXPROCS(0)
	if workers > height {
		workers = height
	}
	if workers <= 1 {
		fn(0, height)
		return
	}

	band := (height + workers - 1) / workers
	var g errgroup.Group
	g.SetLimit(workers)
	for y0 := 0; y0 < height; y0 += band {
		y0 := y0
		y1 := y0 + band
		if y1 > height {
			y1 = height
		}
		g.Go(func() error {
			fn(y0, y1)
			return nil
		})
	}
	_ = g.Wait()
}
