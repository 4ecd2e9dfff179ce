package detection

import (
	"errors"
	"math"
	"testing"

	"github.com/ironsheep/edge-lines/internal/imaging"
)

func newTestDetector(t *testing.T, name string) Detector {
	t.Helper()
	d, err := NewDetector(name, DefaultParams())
	if err != nil {
		t.Fatalf("NewDetector(%q) failed: %v", name, err)
	}
	return d
}

func TestNewDetector(t *testing.T) {
	for _, name := range DetectorNames() {
		d := newTestDetector(t, name)
		if d.Name() != name {
			t.Errorf("Name: got %q, want %q", d.Name(), name)
		}
	}

	_, err := NewDetector("prewitt", DefaultParams())
	if !errors.Is(err, ErrUnknownDetector) {
		t.Errorf("got %v, want ErrUnknownDetector", err)
	}
}

func TestDetectorNames(t *testing.T) {
	names := DetectorNames()
	want := []string{"canny", "laplacian", "sobel"}
	if len(names) != len(want) {
		t.Fatalf("got %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("names[%d]: got %q, want %q", i, names[i], want[i])
		}
	}
}

func TestDetectors_SquareSupport(t *testing.T) {
	src := createSquareGrid(100, 30, 70)

	for _, name := range DetectorNames() {
		t.Run(name, func(t *testing.T) {
			out, err := newTestDetector(t, name).Detect(src)
			if err != nil {
				t.Fatalf("Detect failed: %v", err)
			}
			if out.Width != 100 || out.Height != 100 {
				t.Fatalf("dimensions: got %dx%d, want 100x100", out.Width, out.Height)
			}

			for y := 0; y < out.Height; y++ {
				for x := 0; x < out.Width; x++ {
					v := out.At(x, y)
					if v < 0 || v > 255 || v != math.Round(v) {
						t.Fatalf("(%d,%d) = %v is not an 8-bit level", x, y, v)
					}
					if v != 0 && !nearBoundary(src, x, y, 2) {
						t.Fatalf("(%d,%d) = %v away from the square outline", x, y, v)
					}
				}
			}

			// Each side must respond at its midpoint.
			for _, p := range [][2]int{{30, 50}, {69, 50}, {50, 30}, {50, 69}} {
				found := false
				for dy := -1; dy <= 1 && !found; dy++ {
					for dx := -1; dx <= 1 && !found; dx++ {
						found = out.At(p[0]+dx, p[1]+dy) > 0
					}
				}
				if !found {
					t.Errorf("no response near side midpoint %v", p)
				}
			}
		})
	}
}

func TestDetectors_UniformGrid(t *testing.T) {
	src := imaging.NewGrid(40, 30)
	for i := range src.Pix {
		src.Pix[i] = 173
	}

	for _, name := range DetectorNames() {
		t.Run(name, func(t *testing.T) {
			out, err := newTestDetector(t, name).Detect(src)
			if err != nil {
				t.Fatalf("Detect failed: %v", err)
			}
			if n := out.CountAbove(0); n != 0 {
				t.Errorf("%d non-zero samples on a uniform grid", n)
			}
		})
	}
}

func TestDetectors_EmptyGrid(t *testing.T) {
	for _, name := range DetectorNames() {
		out, err := newTestDetector(t, name).Detect(imaging.NewGrid(0, 0))
		if err != nil {
			t.Errorf("%s: empty grid should not fail: %v", name, err)
			continue
		}
		if !out.Empty() {
			t.Errorf("%s: empty grid should give empty output", name)
		}
	}
}

func TestDetectors_GridSmallerThanKernel(t *testing.T) {
	for _, name := range DetectorNames() {
		_, err := newTestDetector(t, name).Detect(imaging.NewGrid(2, 2))
		if !errors.Is(err, imaging.ErrInvalidKernel) {
			t.Errorf("%s: got %v, want ErrInvalidKernel", name, err)
		}
	}
}

func TestDetectors_InputUnchanged(t *testing.T) {
	src := createSquareGrid(50, 10, 40)
	before := src.Clone()

	for _, name := range DetectorNames() {
		if _, err := newTestDetector(t, name).Detect(src); err != nil {
			t.Fatalf("%s: Detect failed: %v", name, err)
		}
	}
	for i := range src.Pix {
		if src.Pix[i] != before.Pix[i] {
			t.Fatalf("sample %d modified by a detector", i)
		}
	}
}

func TestSobel_EdgeMidpointValues(t *testing.T) {
	src := createSquareGrid(100, 30, 70)
	out, err := (&SobelDetector{}).Detect(src)
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	// Box blur turns the step into 0, 85, 170, 255; the 3x3 Sobel then
	// saturates |Gx| on the two interface columns and |Gy| is zero, so the
	// combined value is round(0.5*255).
	for _, x := range []int{28, 29, 30, 31} {
		if got := out.At(x, 50); got != 128 {
			t.Errorf("(%d,50): got %v, want 128", x, got)
		}
	}
	if got := out.At(27, 50); got != 0 {
		t.Errorf("(27,50): got %v, want 0", got)
	}
}
