package logistic

import (
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/obsidianstack/logloss/cli/internal/dataset"
)

func almostEqual(a, b, epsilon float64) bool {
	return math.Abs(a-b) < epsilon
}

func TestSigmoid(t *testing.T) {
	tests := []struct {
		z    float64
		want float64
	}{
		{0, 0.5},
		{math.Log(3), 0.75},
		{-math.Log(3), 0.25},
		{1000, 1},
		{-1000, 0},
	}
	for _, tc := range tests {
		got := Sigmoid(tc.z)
		if math.IsNaN(got) || !almostEqual(got, tc.want, 1e-12) {
			t.Errorf("Sigmoid(%v) = %v, want %v", tc.z, got, tc.want)
		}
	}
}

func TestSigmoid_Symmetry(t *testing.T) {
	for _, z := range []float64{0.1, 1, 2.5, 10, 30} {
		if s := Sigmoid(z) + Sigmoid(-z); !almostEqual(s, 1, 1e-12) {
			t.Errorf("Sigmoid(%v)+Sigmoid(-%v) = %v, want 1", z, z, s)
		}
	}
}

func TestSoftplus_Stable(t *testing.T) {
	if got := softplus(800); !almostEqual(got, 800, 1e-9) {
		t.Errorf("softplus(800) = %v, want 800", got)
	}
	if got := softplus(-800); got != 0 {
		t.Errorf("softplus(-800) = %v, want 0", got)
	}
	if got := softplus(0); !almostEqual(got, math.Ln2, 1e-15) {
		t.Errorf("softplus(0) = %v, want ln 2", got)
	}
}

func TestCurve(t *testing.T) {
	pts, err := Curve(-10, 10, 21)
	if err != nil {
		t.Fatalf("Curve() error = %v", err)
	}
	if len(pts) != 21 {
		t.Fatalf("len = %d, want 21", len(pts))
	}
	if pts[0].Z != -10 || pts[20].Z != 10 || pts[10].Z != 0 {
		t.Errorf("unexpected z grid: first %v mid %v last %v", pts[0].Z, pts[10].Z, pts[20].Z)
	}
	if pts[10].P != 0.5 {
		t.Errorf("P at z=0 = %v, want 0.5", pts[10].P)
	}
	for i := 1; i < len(pts); i++ {
		if pts[i].P <= pts[i-1].P {
			t.Fatalf("curve not increasing at %d", i)
		}
	}
}

func TestCurve_Invalid(t *testing.T) {
	if _, err := Curve(-1, 1, 1); err == nil {
		t.Error("expected error for a single step")
	}
	if _, err := Curve(2, 2, 10); err == nil {
		t.Error("expected error for an empty range")
	}
}

func TestFit_HoursStudied(t *testing.T) {
	x, y := dataset.Matrix(dataset.Generate(dataset.DefaultGenerateConfig()))

	m, err := Fit(x, y)
	if err != nil {
		t.Fatalf("Fit() error = %v", err)
	}
	if len(m.Weights) != 1 || m.Weights[0] <= 0 {
		t.Fatalf("expected one positive weight, got %v", m.Weights)
	}
	// The decision boundary should sit near the generating threshold of 5 hours.
	if boundary := -m.Intercept / m.Weights[0]; boundary < 3.5 || boundary > 6.5 {
		t.Errorf("decision boundary at %.2f hours, want near 5", boundary)
	}

	probs, err := m.PredictProba(x)
	if err != nil {
		t.Fatalf("PredictProba() error = %v", err)
	}
	var correct int
	for i, p := range probs {
		if p < 0 || p > 1 {
			t.Fatalf("probability %d = %v outside [0,1]", i, p)
		}
		if (p >= 0.5) == (y[i] == 1) {
			correct++
		}
	}
	if acc := float64(correct) / float64(len(y)); acc < 0.75 {
		t.Errorf("training accuracy %.2f, want >= 0.75", acc)
	}
}

func TestFit_SeparableStaysFinite(t *testing.T) {
	x := mat.NewDense(6, 1, []float64{1, 2, 3, 7, 8, 9})
	y := []float64{0, 0, 0, 1, 1, 1}

	m, err := Fit(x, y)
	if err != nil {
		t.Fatalf("Fit() error = %v", err)
	}
	if !allFinite(m.Weights) || math.IsInf(m.Intercept, 0) || math.IsNaN(m.Intercept) {
		t.Fatalf("non-finite model: %+v", m)
	}

	weak, err := Fit(x, y, WithC(0.01))
	if err != nil {
		t.Fatalf("Fit(C=0.01) error = %v", err)
	}
	if math.Abs(weak.Weights[0]) >= math.Abs(m.Weights[0]) {
		t.Errorf("stronger regularisation should shrink the weight: C=0.01 %v vs C=1 %v",
			weak.Weights[0], m.Weights[0])
	}
}

func TestFit_Errors(t *testing.T) {
	tests := []struct {
		name string
		x    mat.Matrix
		y    []float64
	}{
		{"row mismatch", mat.NewDense(2, 1, []float64{1, 2}), []float64{0}},
		{"bad label", mat.NewDense(2, 1, []float64{1, 2}), []float64{0, 2}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Fit(tc.x, tc.y); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestPredictProba_FeatureMismatch(t *testing.T) {
	m := &Model{Weights: []float64{1, 2}}
	_, err := m.PredictProba(mat.NewDense(1, 3, []float64{1, 2, 3}))
	if !errors.Is(err, ErrFeatureMismatch) {
		t.Errorf("err = %v, want ErrFeatureMismatch", err)
	}
}

func TestDecision(t *testing.T) {
	m := &Model{Weights: []float64{2, -1}, Intercept: 0.5}
	z, err := m.Decision(mat.NewDense(2, 2, []float64{1, 1, 0, 3}))
	if err != nil {
		t.Fatalf("Decision() error = %v", err)
	}
	if z[0] != 1.5 || z[1] != -2.5 {
		t.Errorf("Decision() = %v, want [1.5 -2.5]", z)
	}
}
