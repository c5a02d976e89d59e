package logloss

import (
	"math"
	"math/rand/v2"
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// DefaultBootstrapIterations is the number of resamples used when the caller
// passes iterations <= 0.
const DefaultBootstrapIterations = 2000

// Interval is a percentile bootstrap confidence interval for the mean loss.
type Interval struct {
	Lower      float64
	Upper      float64
	Mean       float64
	Confidence float64
	Iterations int
}

// BootstrapCI resamples losses with replacement and returns the percentile
// interval of the resampled means at the given confidence level, e.g. 0.95.
// seed makes the result reproducible.
//
// Fewer than two losses give a degenerate interval at the mean with zero
// iterations.
func BootstrapCI(losses []float64, confidence float64, iterations int, seed uint64) (Interval, error) {
	if len(losses) == 0 {
		return Interval{}, ErrEmptyInput
	}
	if math.IsNaN(confidence) || confidence <= 0 || confidence >= 1 {
		return Interval{}, ErrInvalidConfidence
	}
	if iterations <= 0 {
		iterations = DefaultBootstrapIterations
	}

	n := len(losses)
	m := floats.Sum(losses) / float64(n)
	if n < 2 {
		return Interval{Lower: m, Upper: m, Mean: m, Confidence: confidence}, nil
	}

	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	means := make([]float64, iterations)
	for i := range means {
		var sum float64
		for j := 0; j < n; j++ {
			sum += losses[rng.IntN(n)]
		}
		means[i] = sum / float64(n)
	}
	slices.Sort(means)

	alpha := 1 - confidence
	return Interval{
		Lower:      stat.Quantile(alpha/2, stat.Empirical, means, nil),
		Upper:      stat.Quantile(1-alpha/2, stat.Empirical, means, nil),
		Mean:       m,
		Confidence: confidence,
		Iterations: iterations,
	}, nil
}
