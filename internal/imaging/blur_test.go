package imaging

import (
	"errors"
	"math"
	"testing"
)

func TestGaussianKernel_Normalised(t *testing.T) {
	for _, size := range []int{1, 3, 5, 7} {
		k, err := GaussianKernel(size, 1.4)
		if err != nil {
			t.Fatalf("GaussianKernel(%d) failed: %v", size, err)
		}
		var sum float64
		for dy := 0; dy < size; dy++ {
			for dx := 0; dx < size; dx++ {
				sum += k.Weight(dy, dx)
			}
		}
		if math.Abs(sum-1) > 1e-12 {
			t.Errorf("size %d: weights sum to %v, want 1", size, sum)
		}
	}
}

func TestGaussianKernel_DerivedSigma(t *testing.T) {
	derived, err := GaussianKernel(3, 0)
	if err != nil {
		t.Fatalf("GaussianKernel failed: %v", err)
	}
	explicit, err := GaussianKernel(3, 0.8)
	if err != nil {
		t.Fatalf("GaussianKernel failed: %v", err)
	}
	for dy := 0; dy < 3; dy++ {
		for dx := 0; dx < 3; dx++ {
			if math.Abs(derived.Weight(dy, dx)-explicit.Weight(dy, dx)) > 1e-12 {
				t.Errorf("weight [%d][%d]: derived %v, explicit %v",
					dy, dx, derived.Weight(dy, dx), explicit.Weight(dy, dx))
			}
		}
	}
	// Symmetric and peaked at the centre.
	if derived.Weight(0, 0) != derived.Weight(2, 2) || derived.Weight(1, 1) <= derived.Weight(0, 1) {
		t.Error("gaussian kernel should be symmetric with a central peak")
	}
}

func TestGaussianKernel_EvenSize(t *testing.T) {
	if _, err := GaussianKernel(4, 1); !errors.Is(err, ErrInvalidKernel) {
		t.Errorf("got %v, want ErrInvalidKernel", err)
	}
	if _, err := GaussianBlur(NewGrid(10, 10), 6, 1); !errors.Is(err, ErrInvalidKernel) {
		t.Errorf("GaussianBlur even size: got %v, want ErrInvalidKernel", err)
	}
}

func TestBoxBlur(t *testing.T) {
	src := NewGrid(5, 5)
	src.Set(2, 2, 90)

	out, err := BoxBlur(src)
	if err != nil {
		t.Fatalf("BoxBlur failed: %v", err)
	}
	for y := 0; y < 5; y++ {
		for x := 0; x < 5; x++ {
			want := 0.0
			if x >= 1 && x <= 3 && y >= 1 && y <= 3 {
				want = 10
			}
			if got := out.At(x, y); got != want {
				t.Errorf("At(%d,%d): got %v, want %v", x, y, got, want)
			}
		}
	}
}

func TestBoxBlur_RoundsToByte(t *testing.T) {
	src := NewGrid(3, 3)
	src.Set(1, 1, 100)

	out, err := BoxBlur(src)
	if err != nil {
		t.Fatalf("BoxBlur failed: %v", err)
	}
	// 100/9 = 11.1
	if got := out.At(1, 1); got != 11 {
		t.Errorf("centre: got %v, want 11", got)
	}
}

func TestGaussianBlur_Constant(t *testing.T) {
	src := filledGrid(12, 12, 200)
	out, err := GaussianBlur(src, 5, 1.4)
	if err != nil {
		t.Fatalf("GaussianBlur failed: %v", err)
	}
	for i, v := range out.Pix {
		if v != 200 {
			t.Fatalf("sample %d: got %v, want 200", i, v)
		}
	}
	if src.Pix[0] != 200 {
		t.Error("GaussianBlur modified its input")
	}
}
