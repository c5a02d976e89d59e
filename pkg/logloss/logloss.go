package logloss

import (
	"context"
	"math"
	"runtime"

	"gonum.org/v1/gonum/floats"
)

// DefaultEpsilon keeps clamped probabilities away from 0 and 1 so that both
// logarithms stay finite. 1-1e-15 is still distinct from 1 in float64.
const DefaultEpsilon = 1e-15

// DefaultChunkSize is the number of observations handled by one worker in
// EvaluateContext. Inputs no larger than one chunk are evaluated inline.
const DefaultChunkSize = 1 << 16

// Clamp restricts p to the closed interval [eps, 1-eps].
// NaN is passed through unchanged; probabilities must be finite.
func Clamp(p, eps float64) float64 {
	if p < eps {
		return eps
	}
	if p > 1-eps {
		return 1 - eps
	}
	return p
}

// SampleLoss is the negative log-likelihood of label y under prediction p,
// with p clamped to [eps, 1-eps] before either logarithm is taken:
//
//	-(y*ln(p') + (1-y)*ln(1-p'))
func SampleLoss(y, p, eps float64) float64 {
	pc := Clamp(p, eps)
	return -(y*math.Log(pc) + (1-y)*math.Log(1-pc))
}

// MaxSampleLoss is the largest per-sample loss reachable with clamp bound eps.
// The upper clamp 1-eps is rounded in float64, so 1-(1-eps) can land below
// eps and the y=0 side can exceed -ln(eps) slightly.
func MaxSampleLoss(eps float64) float64 {
	hi := 1 - eps
	return max(-math.Log(eps), -math.Log(1-hi))
}

// Evaluator computes log-loss with a fixed clamp bound and parallelism.
// An Evaluator is immutable and safe for concurrent use.
type Evaluator struct {
	epsilon   float64
	workers   int
	chunkSize int
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithEpsilon sets the clamp bound. New rejects values outside (0, 0.5).
func WithEpsilon(eps float64) Option {
	return func(e *Evaluator) { e.epsilon = eps }
}

// WithWorkers caps the number of concurrent chunks. n <= 0 means GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(e *Evaluator) {
		if n <= 0 {
			n = runtime.GOMAXPROCS(0)
		}
		e.workers = n
	}
}

// WithChunkSize sets the per-worker chunk length. n <= 0 means DefaultChunkSize.
func WithChunkSize(n int) Option {
	return func(e *Evaluator) {
		if n <= 0 {
			n = DefaultChunkSize
		}
		e.chunkSize = n
	}
}

// New returns an Evaluator with DefaultEpsilon, GOMAXPROCS workers and
// DefaultChunkSize, modified by opts.
func New(opts ...Option) (*Evaluator, error) {
	e := defaultEvaluator()
	for _, opt := range opts {
		opt(e)
	}
	if math.IsNaN(e.epsilon) || e.epsilon <= 0 || e.epsilon >= 0.5 {
		return nil, ErrInvalidEpsilon
	}
	return e, nil
}

func defaultEvaluator() *Evaluator {
	return &Evaluator{
		epsilon:   DefaultEpsilon,
		workers:   runtime.GOMAXPROCS(0),
		chunkSize: DefaultChunkSize,
	}
}

// Epsilon returns the clamp bound used by e.
func (e *Evaluator) Epsilon() float64 { return e.epsilon }

// Evaluate returns the mean binary cross-entropy of probabilities against labels
// using DefaultEpsilon.
func Evaluate(labels, probabilities []float64) (float64, error) {
	return defaultEvaluator().Evaluate(labels, probabilities)
}

// Evaluate returns the mean binary cross-entropy of probabilities against labels.
func (e *Evaluator) Evaluate(labels, probabilities []float64) (float64, error) {
	return e.EvaluateContext(context.Background(), labels, probabilities)
}

// EvaluateContext is Evaluate with cancellation. Inputs longer than one chunk
// are transformed concurrently; the result does not depend on the split.
func (e *Evaluator) EvaluateContext(ctx context.Context, labels, probabilities []float64) (float64, error) {
	losses, err := e.perSample(ctx, labels, probabilities)
	if err != nil {
		return 0, err
	}
	return floats.Sum(losses) / float64(len(losses)), nil
}

// PerSample returns the clamped negative log-likelihood of each observation.
func (e *Evaluator) PerSample(labels, probabilities []float64) ([]float64, error) {
	return e.perSample(context.Background(), labels, probabilities)
}

func (e *Evaluator) perSample(ctx context.Context, labels, probabilities []float64) ([]float64, error) {
	if err := checkShape(labels, probabilities); err != nil {
		return nil, err
	}
	out := make([]float64, len(labels))
	if err := e.fill(ctx, labels, probabilities, out); err != nil {
		return nil, err
	}
	return out, nil
}

// Summary is the full result of one evaluation.
type Summary struct {
	// Loss is the mean per-sample loss.
	Loss float64

	// Samples is the number of observations.
	Samples int

	// Positives counts labels equal to 1.
	Positives int

	// Clamped counts predictions that fell outside [eps, 1-eps].
	Clamped int

	// Epsilon is the clamp bound used.
	Epsilon float64

	// BaselineLoss is the loss of always predicting the observed base rate.
	// It is the reference point for skill: a model that cannot beat it has
	// learned nothing beyond the class balance.
	BaselineLoss float64

	// Losses holds the per-sample values, in input order.
	Losses []float64
}

// Summarize evaluates labels and probabilities and returns the loss together
// with the counts and baseline needed for reporting.
func (e *Evaluator) Summarize(ctx context.Context, labels, probabilities []float64) (Summary, error) {
	losses, err := e.perSample(ctx, labels, probabilities)
	if err != nil {
		return Summary{}, err
	}

	n := float64(len(losses))
	s := Summary{
		Loss:    floats.Sum(losses) / n,
		Samples: len(losses),
		Epsilon: e.epsilon,
		Losses:  losses,
	}
	for i, p := range probabilities {
		if labels[i] == 1 {
			s.Positives++
		}
		if p < e.epsilon || p > 1-e.epsilon {
			s.Clamped++
		}
	}

	rate := floats.Sum(labels) / n
	var baseline float64
	for _, y := range labels {
		baseline += SampleLoss(y, rate, e.epsilon)
	}
	s.BaselineLoss = baseline / n

	return s, nil
}
