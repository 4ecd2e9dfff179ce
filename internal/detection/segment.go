package detection

import "math"

// LineSegment is a detected segment between two edge pixels, in grid
// coordinates with y growing downward.
type LineSegment struct {
	X1 int `json:"x1"`
	Y1 int `json:"y1"`
	X2 int `json:"x2"`
	Y2 int `json:"y2"`
}

// Length returns the Euclidean length in pixels.
func (s LineSegment) Length() float64 {
	return math.Hypot(float64(s.X2-s.X1), float64(s.Y2-s.Y1))
}

// AngleDegrees returns the direction from the first to the second endpoint
// (0 = horizontal right, 90 = down).
func (s LineSegment) AngleDegrees() float64 {
	return math.Atan2(float64(s.Y2-s.Y1), float64(s.X2-s.X1)) * 180 / math.Pi
}

// Tuple returns the segment as [x1, y1, x2, y2].
func (s LineSegment) Tuple() [4]int {
	return [4]int{s.X1, s.Y1, s.X2, s.Y2}
}

// Tuples converts segments to [x1, y1, x2, y2] tuples, the form used by the
// segments JSON output and the overlay renderer.
func Tuples(segs []LineSegment) [][4]int {
	out := make([][4]int, len(segs))
	for i, s := range segs {
		out[i] = s.Tuple()
	}
	return out
}

// MeanLength returns the average segment length, or 0 for no segments.
func MeanLength(segs []LineSegment) float64 {
	if len(segs) == 0 {
		return 0
	}
	var total float64
	for _, s := range segs {
		total += s.Length()
	}
	return total / float64(len(segs))
}
