package detection

import (
	"errors"
	"fmt"
	"math"

	"github.com/ironsheep/edge-lines/internal/imaging"
	"github.com/ironsheep/edge-lines/internal/monitoring"
)

// ErrInvalidHoughParams is returned for non-positive Hough resolutions,
// votes or lengths, or a negative gap.
var ErrInvalidHoughParams = errors.New("invalid hough parameters")

// HoughParams configures ExtractLines.
type HoughParams struct {
	// RhoStep is the distance resolution of the accumulator in pixels.
	RhoStep float64

	// ThetaStepDeg is the angular resolution of the accumulator in degrees.
	ThetaStepDeg float64

	// MinVotes is the accumulator count a cell needs before a line is traced.
	MinVotes int

	// MinLineLength is the shortest span, max(|dx|,|dy|), that is reported.
	MinLineLength int

	// MaxLineGap is the number of consecutive missing pixels bridged along a line.
	MaxLineGap int

	// EdgeThreshold selects edge pixels: a pixel is an edge iff its value is
	// above it.
	EdgeThreshold float64
}

// DefaultHoughParams returns the reference settings: 1 pixel, 1 degree,
// 50 votes, 50 pixel minimum length, 10 pixel gap.
func DefaultHoughParams() HoughParams {
	return HoughParams{
		RhoStep:       1,
		ThetaStepDeg:  1,
		MinVotes:      50,
		MinLineLength: 50,
		MaxLineGap:    10,
	}
}

// Validate reports the first invalid field.
func (p HoughParams) Validate() error {
	switch {
	case !(p.RhoStep > 0):
		return fmt.Errorf("%w: rho step %v must be positive", ErrInvalidHoughParams, p.RhoStep)
	case !(p.ThetaStepDeg > 0):
		return fmt.Errorf("%w: theta step %v must be positive", ErrInvalidHoughParams, p.ThetaStepDeg)
	case math.Round(180/p.ThetaStepDeg) < 1:
		return fmt.Errorf("%w: theta step %v leaves no angles in [0,180)", ErrInvalidHoughParams, p.ThetaStepDeg)
	case p.MinVotes <= 0:
		return fmt.Errorf("%w: min votes %d must be positive", ErrInvalidHoughParams, p.MinVotes)
	case p.MinLineLength <= 0:
		return fmt.Errorf("%w: min line length %d must be positive", ErrInvalidHoughParams, p.MinLineLength)
	case p.MaxLineGap < 0:
		return fmt.Errorf("%w: max line gap %d must not be negative", ErrInvalidHoughParams, p.MaxLineGap)
	case math.IsNaN(p.EdgeThreshold):
		return fmt.Errorf("%w: edge threshold is NaN", ErrInvalidHoughParams)
	}
	return nil
}

// ExtractLines finds line segments in an edge map with the progressive
// probabilistic Hough transform.
//
// Edge pixels are visited in row-major order. Each one votes for every
// angle; once the best cell for that pixel reaches MinVotes the line is
// traced in both directions from the pixel, bridging up to MaxLineGap missing
// pixels. Traced pixels leave the edge set. Segments whose span reaches
// MinLineLength are returned and their pixels' votes withdrawn.
//
// The result is deterministic for a given edge map and parameters. An edge
// map without edge pixels yields an empty, non-nil slice.
func ExtractLines(edges *imaging.Grid, p HoughParams) ([]LineSegment, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	segs := []LineSegment{}
	if edges.Empty() {
		return segs, nil
	}

	h := newHoughSpace(edges.Width, edges.Height, p.RhoStep, p.ThetaStepDeg)
	points := h.collect(edges, p.EdgeThreshold)

	for _, i := range points {
		// Already consumed by an earlier line.
		if h.state[i] == pixelNone {
			continue
		}
		x, y := i%h.width, i/h.width
		best := h.vote(x, y)
		if best < p.MinVotes {
			continue
		}

		step, ends := h.bestLine(x, y, best, p.MaxLineGap)
		good := span(ends) >= p.MinLineLength
		h.consume(step, ends, good)
		if good {
			segs = append(segs, LineSegment{
				X1: ends[0].x, Y1: ends[0].y,
				X2: ends[1].x, Y2: ends[1].y,
			})
		}
	}

	monitoring.Debugf("hough: %d edge pixels, %d segments", len(points), len(segs))
	return segs, nil
}

// Pixel states in the edge mask.
const (
	pixelNone   uint8 = iota // not an edge, or consumed by a line
	pixelEdge                // edge that has not voted
	pixelVoted               // edge whose votes are in the accumulator
)

// fixed-point precision of line walking
const walkShift = 16

type point struct{ x, y int }

// houghSpace holds the accumulator and edge mask for one ExtractLines call.
type houghSpace struct {
	width, height int
	numAngle      int
	numRho        int
	rhoOffset     int
	cos, sin      []float64 // per angle, divided by the rho step
	accum         []int     // numAngle rows of numRho cells
	state         []uint8
}

func newHoughSpace(width, height int, rhoStep, thetaStepDeg float64) *houghSpace {
	numAngle := int(math.Round(180 / thetaStepDeg))
	maxRho := int(math.Ceil(float64(width+height) / rhoStep))
	h := &houghSpace{
		width:     width,
		height:    height,
		numAngle:  numAngle,
		numRho:    2*maxRho + 1,
		rhoOffset: maxRho,
		cos:       make([]float64, numAngle),
		sin:       make([]float64, numAngle),
		state:     make([]uint8, width*height),
	}
	h.accum = make([]int, h.numAngle*h.numRho)

	theta := thetaStepDeg * math.Pi / 180
	for n := 0; n < numAngle; n++ {
		a := float64(n) * theta
		h.cos[n] = math.Cos(a) / rhoStep
		h.sin[n] = math.Sin(a) / rhoStep
	}
	return h
}

// collect marks edge pixels and returns their indices in scan order.
func (h *houghSpace) collect(edges *imaging.Grid, threshold float64) []int {
	var points []int
	for i, v := range edges.Pix {
		if v > threshold {
			h.state[i] = pixelEdge
			points = append(points, i)
		}
	}
	return points
}

func (h *houghSpace) cell(n, x, y int) int {
	r := int(math.Round(float64(x)*h.cos[n]+float64(y)*h.sin[n])) + h.rhoOffset
	return n*h.numRho + r
}

// vote adds (x, y) to every angle and returns the highest count it touched.
func (h *houghSpace) vote(x, y int) int {
	best := 0
	for n := 0; n < h.numAngle; n++ {
		c := h.cell(n, x, y)
		h.accum[c]++
		if h.accum[c] > best {
			best = h.accum[c]
		}
	}
	h.state[y*h.width+x] = pixelVoted
	return best
}

func (h *houghSpace) unvote(x, y int) {
	for n := 0; n < h.numAngle; n++ {
		h.accum[h.cell(n, x, y)]--
	}
}

// bestLine picks, among the angles whose cell for (x, y) holds best votes,
// the one whose walk spans furthest. Ties go to the smallest angle.
func (h *houghSpace) bestLine(x, y, best, maxGap int) (lineStep, [2]point) {
	var (
		chosen    lineStep
		chosenEnd [2]point
		longest   = -1
	)
	for n := 0; n < h.numAngle; n++ {
		if h.accum[h.cell(n, x, y)] != best {
			continue
		}
		step := h.stepFor(x, y, n)
		ends := h.walk(step, maxGap)
		if s := span(ends); s > longest {
			longest = s
			chosen = step
			chosenEnd = ends
		}
	}
	return chosen, chosenEnd
}

// lineStep describes a fixed-point walk through (x0, y0). The major axis
// advances by one pixel per step; the minor axis carries walkShift bits of
// fraction.
type lineStep struct {
	xMajor   bool
	x0, y0   int
	dx0, dy0 int
}

func (h *houghSpace) stepFor(x, y, n int) lineStep {
	a := -h.sin[n]
	b := h.cos[n]
	s := lineStep{x0: x, y0: y}
	if math.Abs(a) > math.Abs(b) {
		s.xMajor = true
		s.dx0 = -1
		if a > 0 {
			s.dx0 = 1
		}
		s.dy0 = int(math.Round(b * (1 << walkShift) / math.Abs(a)))
		s.y0 = y<<walkShift + 1<<(walkShift-1)
	} else {
		s.dy0 = -1
		if b > 0 {
			s.dy0 = 1
		}
		s.dx0 = int(math.Round(a * (1 << walkShift) / math.Abs(b)))
		s.x0 = x<<walkShift + 1<<(walkShift-1)
	}
	return s
}

func (s lineStep) pixel(x, y int) (int, int) {
	if s.xMajor {
		return x, y >> walkShift
	}
	return x >> walkShift, y
}

// direction returns the per-step increments for end k (0 forward, 1 backward).
func (s lineStep) direction(k int) (int, int) {
	if k > 0 {
		return -s.dx0, -s.dy0
	}
	return s.dx0, s.dy0
}

func (h *houghSpace) in(x, y int) bool {
	return x >= 0 && x < h.width && y >= 0 && y < h.height
}

// walk traces the line both ways without modifying state and returns the
// last edge pixel reached in each direction.
func (h *houghSpace) walk(s lineStep, maxGap int) [2]point {
	var ends [2]point
	for k := 0; k < 2; k++ {
		dx, dy := s.direction(k)
		gap := 0
		for x, y := s.x0, s.y0; ; x, y = x+dx, y+dy {
			px, py := s.pixel(x, y)
			if !h.in(px, py) {
				break
			}
			if h.state[py*h.width+px] != pixelNone {
				gap = 0
				ends[k] = point{px, py}
				continue
			}
			gap++
			if gap > maxGap {
				break
			}
		}
	}
	return ends
}

// consume retraces the walk up to each end, removing edge pixels from the
// mask. For an accepted line the votes of pixels that voted are withdrawn.
func (h *houghSpace) consume(s lineStep, ends [2]point, good bool) {
	for k := 0; k < 2; k++ {
		dx, dy := s.direction(k)
		for x, y := s.x0, s.y0; ; x, y = x+dx, y+dy {
			px, py := s.pixel(x, y)
			i := py*h.width + px
			if st := h.state[i]; st != pixelNone {
				if good && st == pixelVoted {
					h.unvote(px, py)
				}
				h.state[i] = pixelNone
			}
			if px == ends[k].x && py == ends[k].y {
				break
			}
		}
	}
}

// span is the larger of the horizontal and vertical extents.
func span(ends [2]point) int {
	return max(abs(ends[1].x-ends[0].x), abs(ends[1].y-ends[0].y))
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
