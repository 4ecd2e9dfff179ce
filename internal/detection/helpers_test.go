package detection

import (
	"github.com/ironsheep/edge-lines/internal/imaging"
)

// createSquareGrid returns a size x size black grid with a white square
// covering [lo, hi) on both axes.
func createSquareGrid(size, lo, hi int) *imaging.Grid {
	g := imaging.NewGrid(size, size)
	for y := lo; y < hi; y++ {
		for x := lo; x < hi; x++ {
			g.Set(x, y, 255)
		}
	}
	return g
}

// nearBoundary reports whether (x, y) lies within band pixels (Chebyshev)
// of a pixel whose value differs from one of its 4-neighbours.
func nearBoundary(g *imaging.Grid, x, y, band int) bool {
	for v := y - band; v <= y+band; v++ {
		for u := x - band; u <= x+band; u++ {
			if g.In(u, v) && isBoundary(g, u, v) {
				return true
			}
		}
	}
	return false
}

func isBoundary(g *imaging.Grid, x, y int) bool {
	c := g.At(x, y)
	for _, d := range [][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}} {
		u, v := x+d[0], y+d[1]
		if g.In(u, v) && g.At(u, v) != c {
			return true
		}
	}
	return false
}

// edgeMap returns a width x height grid with the given pixels set to 255.
func edgeMap(width, height int, pts ...[2]int) *imaging.Grid {
	g := imaging.NewGrid(width, height)
	for _, p := range pts {
		g.Set(p[0], p[1], 255)
	}
	return g
}

// hline returns the pixels (x, y) for x in [x0, x1].
func hline(x0, x1, y int) [][2]int {
	var pts [][2]int
	for x := x0; x <= x1; x++ {
		pts = append(pts, [2]int{x, y})
	}
	return pts
}
