package dataset

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"
)

// Sample is one student: hours studied and whether they passed.
type Sample struct {
	Hours  float64
	Passed bool
}

// Label returns 1 for a pass and 0 otherwise.
func (s Sample) Label() float64 {
	if s.Passed {
		return 1
	}
	return 0
}

// GenerateConfig parameterises Generate. Non-positive Samples and MaxHours
// take the defaults below; Threshold and Noise are used as given, zero
// included.
type GenerateConfig struct {
	Samples   int
	MaxHours  float64
	Threshold float64
	Noise     float64
	Seed      uint64
}

const (
	DefaultSamples   = 100
	DefaultMaxHours  = 10.0
	DefaultThreshold = 5.0
	DefaultNoise     = 1.5
	DefaultSeed      = 42
)

// DefaultGenerateConfig returns the canonical demo parameters.
func DefaultGenerateConfig() GenerateConfig {
	return GenerateConfig{
		Samples:   DefaultSamples,
		MaxHours:  DefaultMaxHours,
		Threshold: DefaultThreshold,
		Noise:     DefaultNoise,
		Seed:      DefaultSeed,
	}
}

// Generate draws cfg.Samples students with hours ~ U(0, MaxHours). A student
// passes when hours + Noise*N(0,1) exceeds Threshold. The same config always
// yields the same samples.
func Generate(cfg GenerateConfig) []Sample {
	if cfg.Samples <= 0 {
		cfg.Samples = DefaultSamples
	}
	if cfg.MaxHours <= 0 {
		cfg.MaxHours = DefaultMaxHours
	}

	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0xda3e39cb94b95bdb))
	out := make([]Sample, cfg.Samples)
	for i := range out {
		hours := rng.Float64() * cfg.MaxHours
		score := hours + cfg.Noise*rng.NormFloat64()
		out[i] = Sample{Hours: hours, Passed: score > cfg.Threshold}
	}
	return out
}

// Matrix returns the n×1 design matrix of hours and the matching 0/1 labels.
func Matrix(samples []Sample) (*mat.Dense, []float64) {
	if len(samples) == 0 {
		return nil, nil
	}
	x := mat.NewDense(len(samples), 1, nil)
	y := make([]float64, len(samples))
	for i, s := range samples {
		x.Set(i, 0, s.Hours)
		y[i] = s.Label()
	}
	return x, y
}
