package detection

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ironsheep/edge-lines/internal/imaging"
)

// normalize orders endpoints so that comparisons ignore walk direction.
func normalize(segs []LineSegment) []LineSegment {
	out := make([]LineSegment, len(segs))
	for i, s := range segs {
		if s.X2 < s.X1 || (s.X2 == s.X1 && s.Y2 < s.Y1) {
			s = LineSegment{X1: s.X2, Y1: s.Y2, X2: s.X1, Y2: s.Y1}
		}
		out[i] = s
	}
	return out
}

func houghParams(minVotes, minLen, gap int) HoughParams {
	p := DefaultHoughParams()
	p.MinVotes = minVotes
	p.MinLineLength = minLen
	p.MaxLineGap = gap
	return p
}

func TestExtractLines_Horizontal(t *testing.T) {
	edges := edgeMap(100, 100, hline(10, 70, 50)...)

	segs, err := ExtractLines(edges, houghParams(50, 60, 0))
	if err != nil {
		t.Fatalf("ExtractLines failed: %v", err)
	}
	want := []LineSegment{{X1: 10, Y1: 50, X2: 70, Y2: 50}}
	if diff := cmp.Diff(want, normalize(segs)); diff != "" {
		t.Errorf("segments mismatch (-want +got):\n%s", diff)
	}
}

func TestExtractLines_Vertical(t *testing.T) {
	var pts [][2]int
	for y := 10; y <= 70; y++ {
		pts = append(pts, [2]int{40, y})
	}
	edges := edgeMap(100, 100, pts...)

	segs, err := ExtractLines(edges, houghParams(30, 40, 0))
	if err != nil {
		t.Fatalf("ExtractLines failed: %v", err)
	}
	want := []LineSegment{{X1: 40, Y1: 10, X2: 40, Y2: 70}}
	if diff := cmp.Diff(want, normalize(segs)); diff != "" {
		t.Errorf("segments mismatch (-want +got):\n%s", diff)
	}
}

func TestExtractLines_Diagonal(t *testing.T) {
	var pts [][2]int
	for i := 10; i <= 60; i++ {
		pts = append(pts, [2]int{i, i})
	}
	edges := edgeMap(100, 100, pts...)

	segs, err := ExtractLines(edges, houghParams(30, 40, 0))
	if err != nil {
		t.Fatalf("ExtractLines failed: %v", err)
	}
	want := []LineSegment{{X1: 10, Y1: 10, X2: 60, Y2: 60}}
	if diff := cmp.Diff(want, normalize(segs)); diff != "" {
		t.Errorf("segments mismatch (-want +got):\n%s", diff)
	}
}

func TestExtractLines_Gap(t *testing.T) {
	pts := append(hline(10, 30, 20), hline(33, 60, 20)...)
	edges := edgeMap(100, 40, pts...)

	tests := []struct {
		name string
		gap  int
		want []LineSegment
	}{
		{"gap bridged", 2, []LineSegment{{X1: 10, Y1: 20, X2: 60, Y2: 20}}},
		{"gap too wide", 1, []LineSegment{
			{X1: 10, Y1: 20, X2: 30, Y2: 20},
			{X1: 33, Y1: 20, X2: 60, Y2: 20},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			segs, err := ExtractLines(edges, houghParams(10, 15, tt.gap))
			if err != nil {
				t.Fatalf("ExtractLines failed: %v", err)
			}
			if diff := cmp.Diff(tt.want, normalize(segs)); diff != "" {
				t.Errorf("segments mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestExtractLines_TooShort(t *testing.T) {
	edges := edgeMap(100, 100, hline(10, 40, 50)...)

	segs, err := ExtractLines(edges, houghParams(20, 50, 0))
	if err != nil {
		t.Fatalf("ExtractLines failed: %v", err)
	}
	if len(segs) != 0 {
		t.Errorf("got %v, want no segments shorter than the minimum", segs)
	}
}

func TestExtractLines_EdgeThreshold(t *testing.T) {
	edges := imaging.NewGrid(100, 100)
	for x := 10; x <= 70; x++ {
		edges.Set(x, 50, 100)
	}

	p := houghParams(50, 60, 0)
	p.EdgeThreshold = 100
	segs, err := ExtractLines(edges, p)
	if err != nil {
		t.Fatalf("ExtractLines failed: %v", err)
	}
	if len(segs) != 0 {
		t.Errorf("pixels equal to the threshold are not edges, got %v", segs)
	}

	p.EdgeThreshold = 99
	segs, err = ExtractLines(edges, p)
	if err != nil {
		t.Fatalf("ExtractLines failed: %v", err)
	}
	if len(segs) != 1 {
		t.Errorf("got %d segments, want 1", len(segs))
	}
}

func TestExtractLines_Empty(t *testing.T) {
	tests := []struct {
		name  string
		edges *imaging.Grid
	}{
		{"zero size", imaging.NewGrid(0, 0)},
		{"no edge pixels", imaging.NewGrid(50, 50)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			segs, err := ExtractLines(tt.edges, DefaultHoughParams())
			if err != nil {
				t.Fatalf("ExtractLines failed: %v", err)
			}
			if segs == nil || len(segs) != 0 {
				t.Errorf("got %#v, want an empty non-nil slice", segs)
			}
		})
	}
}

func TestExtractLines_InvalidParams(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(p *HoughParams)
	}{
		{"zero rho", func(p *HoughParams) { p.RhoStep = 0 }},
		{"NaN rho", func(p *HoughParams) { p.RhoStep = math.NaN() }},
		{"negative theta", func(p *HoughParams) { p.ThetaStepDeg = -1 }},
		{"theta beyond range", func(p *HoughParams) { p.ThetaStepDeg = 400 }},
		{"zero votes", func(p *HoughParams) { p.MinVotes = 0 }},
		{"zero length", func(p *HoughParams) { p.MinLineLength = 0 }},
		{"negative gap", func(p *HoughParams) { p.MaxLineGap = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultHoughParams()
			tt.mutate(&p)
			_, err := ExtractLines(imaging.NewGrid(10, 10), p)
			if !errors.Is(err, ErrInvalidHoughParams) {
				t.Errorf("got %v, want ErrInvalidHoughParams", err)
			}
		})
	}
}

func TestExtractLines_Deterministic(t *testing.T) {
	edges := imaging.NewGrid(120, 90)
	for x := 5; x < 115; x++ {
		edges.Set(x, 30, 255)
		edges.Set(x, 31+x/20, 255)
	}
	for y := 5; y < 85; y++ {
		edges.Set(60, y, 255)
	}

	p := houghParams(15, 20, 3)
	first, err := ExtractLines(edges, p)
	if err != nil {
		t.Fatalf("ExtractLines failed: %v", err)
	}
	for i := 0; i < 3; i++ {
		again, err := ExtractLines(edges, p)
		if err != nil {
			t.Fatalf("ExtractLines failed: %v", err)
		}
		if diff := cmp.Diff(first, again); diff != "" {
			t.Fatalf("run %d differs (-first +again):\n%s", i, diff)
		}
	}
}

func TestExtractLines_EndpointsAreEdges(t *testing.T) {
	edges := imaging.NewGrid(120, 90)
	for x := 5; x < 115; x++ {
		edges.Set(x, 20+x/4, 255)
	}
	for y := 5; y < 85; y += 1 {
		if y%7 != 0 {
			edges.Set(90, y, 255)
		}
	}

	segs, err := ExtractLines(edges, houghParams(10, 20, 2))
	if err != nil {
		t.Fatalf("ExtractLines failed: %v", err)
	}
	if len(segs) == 0 {
		t.Fatal("expected at least one segment")
	}
	for _, s := range segs {
		if edges.At(s.X1, s.Y1) == 0 || edges.At(s.X2, s.Y2) == 0 {
			t.Errorf("segment %+v has an endpoint that is not an edge pixel", s)
		}
		if span := max(abs(s.X2-s.X1), abs(s.Y2-s.Y1)); span < 20 {
			t.Errorf("segment %+v spans %d, below the minimum", s, span)
		}
	}
}

func TestExtractLines_CannySquare(t *testing.T) {
	src := createSquareGrid(100, 30, 70)
	edges, err := newTestDetector(t, Canny).Detect(src)
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}

	segs, err := ExtractLines(edges, houghParams(20, 20, 3))
	if err != nil {
		t.Fatalf("ExtractLines failed: %v", err)
	}
	if len(segs) < 4 {
		t.Fatalf("got %d segments, want at least 4: %v", len(segs), segs)
	}

	near := func(v, want int) bool { return abs(v-want) <= 2 }
	sides := map[string]bool{}
	for _, s := range segs {
		switch {
		case near(s.Y1, 29) && near(s.Y2, 29) && abs(s.X2-s.X1) >= 20:
			sides["top"] = true
		case near(s.Y1, 69) && near(s.Y2, 69) && abs(s.X2-s.X1) >= 20:
			sides["bottom"] = true
		case near(s.X1, 29) && near(s.X2, 29) && abs(s.Y2-s.Y1) >= 20:
			sides["left"] = true
		case near(s.X1, 69) && near(s.X2, 69) && abs(s.Y2-s.Y1) >= 20:
			sides["right"] = true
		}
		for _, p := range [][2]int{{s.X1, s.Y1}, {s.X2, s.Y2}} {
			if !nearBoundary(src, p[0], p[1], 2) {
				t.Errorf("endpoint %v of %+v is away from the square outline", p, s)
			}
		}
	}
	for _, side := range []string{"top", "bottom", "left", "right"} {
		if !sides[side] {
			t.Errorf("no segment along the %s side: %v", side, segs)
		}
	}
}
