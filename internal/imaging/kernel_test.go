package imaging

import (
	"errors"
	"testing"
)

func TestNewKernel_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		size    int
		weights []float64
	}{
		{"even size", 2, []float64{1, 1, 1, 1}},
		{"zero size", 0, nil},
		{"weight count mismatch", 3, []float64{1, 2, 3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewKernel(tt.size, tt.weights, 1, 0)
			if !errors.Is(err, ErrInvalidKernel) {
				t.Errorf("got %v, want ErrInvalidKernel", err)
			}
		})
	}
}

func TestNewKernel_CopiesWeights(t *testing.T) {
	w := []float64{0, 0, 0, 0, 1, 0, 0, 0, 0}
	k, err := NewKernel(3, w, 1, 0)
	if err != nil {
		t.Fatalf("NewKernel failed: %v", err)
	}
	w[4] = 7
	if k.Weight(1, 1) != 1 {
		t.Error("kernel shares the caller's weight slice")
	}
	if k.Size() != 3 || k.Radius() != 1 {
		t.Errorf("Size/Radius: got %d/%d, want 3/1", k.Size(), k.Radius())
	}
}

func TestSobelY_IsTransposeOfSobelX(t *testing.T) {
	for dy := 0; dy < 3; dy++ {
		for dx := 0; dx < 3; dx++ {
			if SobelY.Weight(dy, dx) != SobelX.Weight(dx, dy) {
				t.Errorf("SobelY[%d][%d]=%v, SobelX[%d][%d]=%v",
					dy, dx, SobelY.Weight(dy, dx), dx, dy, SobelX.Weight(dx, dy))
			}
		}
	}
	// Positive downward.
	if SobelY.Weight(2, 1) != 2 || SobelY.Weight(0, 1) != -2 {
		t.Error("SobelY middle column should be -2 above and +2 below")
	}
}

func TestSobelKernels(t *testing.T) {
	kx, ky, err := SobelKernels(3)
	if err != nil {
		t.Fatalf("SobelKernels(3) failed: %v", err)
	}
	for dy := 0; dy < 3; dy++ {
		for dx := 0; dx < 3; dx++ {
			if kx.Weight(dy, dx) != SobelX.Weight(dy, dx) {
				t.Errorf("aperture 3 x[%d][%d]: got %v, want %v", dy, dx, kx.Weight(dy, dx), SobelX.Weight(dy, dx))
			}
			if ky.Weight(dy, dx) != SobelY.Weight(dy, dx) {
				t.Errorf("aperture 3 y[%d][%d]: got %v, want %v", dy, dx, ky.Weight(dy, dx), SobelY.Weight(dy, dx))
			}
		}
	}

	k5, _, err := SobelKernels(5)
	if err != nil {
		t.Fatalf("SobelKernels(5) failed: %v", err)
	}
	want := []float64{-6, -12, 0, 12, 6}
	for dx, w := range want {
		if got := k5.Weight(2, dx); got != w {
			t.Errorf("aperture 5 centre row[%d]: got %v, want %v", dx, got, w)
		}
	}

	for _, ap := range []int{1, 4, 9} {
		if _, _, err := SobelKernels(ap); !errors.Is(err, ErrInvalidKernel) {
			t.Errorf("aperture %d: got %v, want ErrInvalidKernel", ap, err)
		}
	}
}

func TestIdentityKernel(t *testing.T) {
	k, err := IdentityKernel(5)
	if err != nil {
		t.Fatalf("IdentityKernel failed: %v", err)
	}
	var sum float64
	for dy := 0; dy < 5; dy++ {
		for dx := 0; dx < 5; dx++ {
			sum += k.Weight(dy, dx)
		}
	}
	if sum != 1 || k.Weight(2, 2) != 1 {
		t.Errorf("identity kernel: centre %v, sum %v", k.Weight(2, 2), sum)
	}

	if _, err := IdentityKernel(4); !errors.Is(err, ErrInvalidKernel) {
		t.Errorf("even size: got %v, want ErrInvalidKernel", err)
	}
}
