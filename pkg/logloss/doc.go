// Package logloss evaluates binary cross-entropy (log-loss) for probabilistic
// binary predictions.
//
// Evaluate(labels, probabilities) is the pure entry point: it clamps every
// probability to [ε, 1-ε] (DefaultEpsilon = 1e-15), computes the per-sample
// negative log-likelihood of the true label with the natural logarithm, and
// returns the arithmetic mean. The result is finite, non-negative and at most
// MaxSampleLoss(ε), which is about -ln(ε) (34.5396 for the default, a hair
// above -ln(1e-15) because 1-ε rounds in float64).
//
// Evaluator carries the tunables: epsilon, worker count and chunk size.
// EvaluateContext splits large inputs into chunks evaluated concurrently with
// errgroup; each worker writes a disjoint range of the per-sample slice and
// the reduction is a single floats.Sum, so the parallel and sequential paths
// return identical results.
//
// Errors:
//   - ErrShapeMismatch (as *ShapeError) when the slices differ in length.
//     Length is checked before emptiness.
//   - ErrEmptyInput when either slice is empty.
//
// Labels are expected to be 0 or 1. This is a documented precondition and is
// not validated here; loaders upstream reject anything else.
//
// BootstrapCI computes a percentile bootstrap interval for the mean of the
// per-sample losses returned by PerSample.
package logloss
