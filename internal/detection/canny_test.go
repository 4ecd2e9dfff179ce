package detection

import (
	"errors"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/ironsheep/edge-lines/internal/imaging"
)

func TestCanny_Validate(t *testing.T) {
	base := CannyDetector{Low: 50, High: 200, Aperture: 3, BlurSize: 5, BlurSigma: 1.4}

	tests := []struct {
		name    string
		mutate  func(d *CannyDetector)
		wantErr error
	}{
		{"defaults", func(d *CannyDetector) {}, nil},
		{"equal thresholds", func(d *CannyDetector) { d.Low, d.High = 100, 100 }, nil},
		{"negative low", func(d *CannyDetector) { d.Low = -10 }, nil},
		{"low above high", func(d *CannyDetector) { d.Low, d.High = 201, 200 }, ErrInvalidThresholds},
		{"aperture 4", func(d *CannyDetector) { d.Aperture = 4 }, imaging.ErrInvalidKernel},
		{"even blur", func(d *CannyDetector) { d.BlurSize = 4 }, imaging.ErrInvalidKernel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := base
			tt.mutate(&d)
			err := d.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("got %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestNewDetector_CannyThresholds(t *testing.T) {
	p := DefaultParams()
	p.CannyLow, p.CannyHigh = 300, 100
	if _, err := NewDetector(Canny, p); !errors.Is(err, ErrInvalidThresholds) {
		t.Errorf("got %v, want ErrInvalidThresholds", err)
	}
}

func TestCanny_SquareOutline(t *testing.T) {
	src := createSquareGrid(100, 30, 70)
	out, err := newTestDetector(t, Canny).Detect(src)
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}

	// The blurred step is symmetric about the interface, so suppression
	// keeps the outer pixel of each pair.
	tests := []struct {
		x, y int
		want float64
	}{
		{29, 50, 255}, {28, 50, 0}, {30, 50, 0},
		{69, 50, 255}, {68, 50, 0}, {70, 50, 0},
		{50, 29, 255}, {50, 28, 0}, {50, 30, 0},
		{50, 69, 255}, {50, 68, 0}, {50, 70, 0},
	}
	for _, tt := range tests {
		if got := out.At(tt.x, tt.y); got != tt.want {
			t.Errorf("(%d,%d): got %v, want %v", tt.x, tt.y, got, tt.want)
		}
	}
}

func TestCanny_BinaryOnNoise(t *testing.T) {
	rng := rand.New(rand.NewPCG(11, 12))
	src := imaging.NewGrid(64, 48)
	for i := range src.Pix {
		src.Pix[i] = math.Round(rng.Float64() * 255)
	}

	out, err := newTestDetector(t, Canny).Detect(src)
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	for i, v := range out.Pix {
		if v != 0 && v != 255 {
			t.Fatalf("sample %d = %v, want 0 or 255", i, v)
		}
	}
}

func TestCanny_HigherThresholdsKeepFewerEdges(t *testing.T) {
	rng := rand.New(rand.NewPCG(5, 6))
	src := imaging.NewGrid(80, 80)
	for i := range src.Pix {
		src.Pix[i] = math.Round(rng.Float64() * 255)
	}

	count := func(low, high float64) int {
		d := &CannyDetector{Low: low, High: high, Aperture: 3, BlurSize: 5, BlurSigma: 1.4}
		out, err := d.Detect(src)
		if err != nil {
			t.Fatalf("Detect failed: %v", err)
		}
		return out.CountAbove(0)
	}

	// Raising both thresholds can only shrink the set of seeds and of
	// pixels reachable from them.
	loose := count(20, 60)
	strict := count(60, 180)
	if strict > loose {
		t.Errorf("strict thresholds kept %d edges, loose kept %d", strict, loose)
	}
}

func TestQuantizeDirection(t *testing.T) {
	tests := []struct {
		deg  float64
		want uint8
	}{
		{0, dir0},
		{22.4, dir0},
		{22.6, dir45},
		{45, dir45},
		{67.4, dir45},
		{67.6, dir90},
		{90, dir90},
		{112.4, dir90},
		{112.6, dir135},
		{157.4, dir135},
		{157.6, dir0},
		{180, dir0},
		{-45, dir135},
		{-90, dir90},
		{-135, dir45},
	}

	for _, tt := range tests {
		if got := quantizeDirection(tt.deg * math.Pi / 180); got != tt.want {
			t.Errorf("%v°: got %d, want %d", tt.deg, got, tt.want)
		}
	}
}

func TestSuppressNonMaxima_SymmetricRidge(t *testing.T) {
	mag := imaging.NewGrid(6, 1)
	copy(mag.Pix, []float64{0, 5, 9, 9, 5, 0})
	dir := make([]uint8, 6)

	thin := suppressNonMaxima(mag, dir)
	want := []float64{0, 0, 9, 0, 0, 0}
	for i, w := range want {
		if thin.Pix[i] != w {
			t.Errorf("sample %d: got %v, want %v", i, thin.Pix[i], w)
		}
	}
}

func TestSuppressNonMaxima_Diagonal(t *testing.T) {
	mag := imaging.NewGrid(3, 3)
	copy(mag.Pix, []float64{
		4, 0, 0,
		0, 6, 0,
		0, 0, 5,
	})
	dir := make([]uint8, 9)
	for i := range dir {
		dir[i] = dir45
	}

	thin := suppressNonMaxima(mag, dir)
	if thin.At(1, 1) != 6 {
		t.Errorf("centre: got %v, want 6", thin.At(1, 1))
	}
	if thin.At(0, 0) != 0 || thin.At(2, 2) != 0 {
		t.Errorf("diagonal neighbours should be suppressed, got %v and %v", thin.At(0, 0), thin.At(2, 2))
	}
}

func TestHysteresis(t *testing.T) {
	thin := imaging.NewGrid(8, 3)
	copy(thin.Pix, []float64{
		0, 60, 60, 300, 0, 0, 60, 0,
		0, 0, 0, 0, 0, 0, 0, 0,
		0, 0, 0, 0, 60, 0, 0, 0,
	})

	out := hysteresis(thin, 50, 200)
	want := []float64{
		0, 255, 255, 255, 0, 0, 0, 0,
		0, 0, 0, 0, 0, 0, 0, 0,
		0, 0, 0, 0, 0, 0, 0, 0,
	}
	for i, w := range want {
		if out.Pix[i] != w {
			t.Errorf("sample %d: got %v, want %v", i, out.Pix[i], w)
		}
	}
}

func TestHysteresis_DiagonalChain(t *testing.T) {
	thin := imaging.NewGrid(4, 4)
	copy(thin.Pix, []float64{
		250, 0, 0, 0,
		0, 80, 0, 0,
		0, 0, 80, 0,
		0, 0, 0, 40,
	})

	out := hysteresis(thin, 50, 200)
	for _, p := range [][2]int{{0, 0}, {1, 1}, {2, 2}} {
		if out.At(p[0], p[1]) != 255 {
			t.Errorf("%v should be connected to the seed", p)
		}
	}
	if out.At(3, 3) != 0 {
		t.Error("pixel below the low threshold should be dropped")
	}
}
