package logistic

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// Sigmoid returns 1/(1+e^-z) without overflowing for large |z|.
func Sigmoid(z float64) float64 {
	if z >= 0 {
		return 1 / (1 + math.Exp(-z))
	}
	e := math.Exp(z)
	return e / (1 + e)
}

// softplus returns ln(1+e^z).
func softplus(z float64) float64 {
	if z > 0 {
		return z + math.Log1p(math.Exp(-z))
	}
	return math.Log1p(math.Exp(z))
}

// Point is one sample of the sigmoid curve.
type Point struct {
	Z float64 `json:"z"`
	P float64 `json:"p"`
}

// Curve samples the sigmoid at steps evenly spaced points from min to max
// inclusive.
func Curve(min, max float64, steps int) ([]Point, error) {
	if steps < 2 {
		return nil, fmt.Errorf("logistic: curve needs at least 2 steps, got %d", steps)
	}
	if !(min < max) {
		return nil, fmt.Errorf("logistic: curve range [%g, %g] is empty", min, max)
	}
	zs := floats.Span(make([]float64, steps), min, max)
	out := make([]Point, steps)
	for i, z := range zs {
		out[i] = Point{Z: z, P: Sigmoid(z)}
	}
	return out, nil
}
