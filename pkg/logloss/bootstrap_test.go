package logloss

import (
	"errors"
	"math"
	"testing"
)

func TestBootstrapCI_Errors(t *testing.T) {
	if _, err := BootstrapCI(nil, 0.95, 100, 1); !errors.Is(err, ErrEmptyInput) {
		t.Errorf("empty: err = %v, want ErrEmptyInput", err)
	}
	for _, c := range []float64{0, 1, -0.5, 1.5, math.NaN()} {
		if _, err := BootstrapCI([]float64{0.1, 0.2}, c, 100, 1); !errors.Is(err, ErrInvalidConfidence) {
			t.Errorf("confidence %v: err = %v, want ErrInvalidConfidence", c, err)
		}
	}
}

func TestBootstrapCI_SingleValue(t *testing.T) {
	ci, err := BootstrapCI([]float64{0.7}, 0.95, 100, 1)
	if err != nil {
		t.Fatalf("BootstrapCI() error = %v", err)
	}
	if ci.Lower != 0.7 || ci.Upper != 0.7 || ci.Mean != 0.7 {
		t.Errorf("expected degenerate interval at 0.7, got %+v", ci)
	}
	if ci.Iterations != 0 {
		t.Errorf("Iterations = %d, want 0", ci.Iterations)
	}
}

func TestBootstrapCI_IdenticalValues(t *testing.T) {
	ci, err := BootstrapCI([]float64{0.5, 0.5, 0.5, 0.5}, 0.95, 500, 42)
	if err != nil {
		t.Fatalf("BootstrapCI() error = %v", err)
	}
	if !almostEqual(ci.Lower, 0.5, 1e-12) || !almostEqual(ci.Upper, 0.5, 1e-12) {
		t.Errorf("expected [0.5, 0.5], got [%v, %v]", ci.Lower, ci.Upper)
	}
}

func TestBootstrapCI_ContainsMean(t *testing.T) {
	losses := []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1.0}
	ci, err := BootstrapCI(losses, 0.95, 0, 42)
	if err != nil {
		t.Fatalf("BootstrapCI() error = %v", err)
	}
	if !almostEqual(ci.Mean, 0.55, 1e-12) {
		t.Errorf("Mean = %v, want 0.55", ci.Mean)
	}
	if ci.Lower >= ci.Mean || ci.Upper <= ci.Mean {
		t.Errorf("interval [%v, %v] should strictly contain mean %v", ci.Lower, ci.Upper, ci.Mean)
	}
	if ci.Lower < 0.1 || ci.Upper > 1.0 {
		t.Errorf("interval [%v, %v] escapes the data range", ci.Lower, ci.Upper)
	}
	if ci.Iterations != DefaultBootstrapIterations {
		t.Errorf("Iterations = %d, want %d", ci.Iterations, DefaultBootstrapIterations)
	}
}

func TestBootstrapCI_Reproducible(t *testing.T) {
	losses := []float64{0.05, 0.9, 0.3, 2.1, 0.4, 0.01}
	a, _ := BootstrapCI(losses, 0.9, 300, 99)
	b, _ := BootstrapCI(losses, 0.9, 300, 99)
	if a != b {
		t.Errorf("same seed gave different intervals: %+v vs %+v", a, b)
	}
}

func TestBootstrapCI_WiderAtHigherConfidence(t *testing.T) {
	losses := []float64{0.2, 0.4, 0.1, 0.9, 0.3, 0.6, 0.5, 0.8, 0.7, 0.05}
	narrow, _ := BootstrapCI(losses, 0.5, 2000, 5)
	wide, _ := BootstrapCI(losses, 0.99, 2000, 5)
	if wide.Upper-wide.Lower <= narrow.Upper-narrow.Lower {
		t.Errorf("99%% interval (%v) should be wider than 50%% interval (%v)",
			wide.Upper-wide.Lower, narrow.Upper-narrow.Lower)
	}
}
