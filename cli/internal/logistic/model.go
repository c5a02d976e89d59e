package logistic

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"
)

// Classifier produces P(y=1) for each row of x.
type Classifier interface {
	PredictProba(x mat.Matrix) ([]float64, error)
}

// Model is a fitted logistic regression.
type Model struct {
	Weights   []float64 `json:"weights"`
	Intercept float64   `json:"intercept"`
}

var _ Classifier = (*Model)(nil)

// ErrFeatureMismatch is returned when x has a different number of columns
// than the model has weights.
var ErrFeatureMismatch = errors.New("logistic: feature count mismatch")

// Decision returns the linear score x·w + b for each row of x.
func (m *Model) Decision(x mat.Matrix) ([]float64, error) {
	r, c := x.Dims()
	if c != len(m.Weights) {
		return nil, fmt.Errorf("%w: x has %d columns, model has %d weights",
			ErrFeatureMismatch, c, len(m.Weights))
	}
	var z mat.VecDense
	z.MulVec(x, mat.NewVecDense(c, m.Weights))
	out := make([]float64, r)
	for i := range out {
		out[i] = z.AtVec(i) + m.Intercept
	}
	return out, nil
}

// PredictProba returns Sigmoid(Decision(x)).
func (m *Model) PredictProba(x mat.Matrix) ([]float64, error) {
	z, err := m.Decision(x)
	if err != nil {
		return nil, err
	}
	for i := range z {
		z[i] = Sigmoid(z[i])
	}
	return z, nil
}

type fitConfig struct {
	c             float64
	maxIterations int
}

// FitOption configures Fit.
type FitOption func(*fitConfig)

// WithC sets the inverse regularisation strength. Larger values penalise the
// weights less. Non-positive values are ignored.
func WithC(c float64) FitOption {
	return func(f *fitConfig) {
		if c > 0 {
			f.c = c
		}
	}
}

// WithMaxIterations bounds the optimiser's major iterations.
func WithMaxIterations(n int) FitOption {
	return func(f *fitConfig) {
		if n > 0 {
			f.maxIterations = n
		}
	}
}

// Fit minimises
//
//	0.5*||w||² + C * Σ [ln(1+e^{z_i}) - y_i z_i],  z_i = x_i·w + b
//
// over w and the unpenalised intercept b. C defaults to 1.
func Fit(x mat.Matrix, y []float64, opts ...FitOption) (*Model, error) {
	cfg := fitConfig{c: 1, maxIterations: 1000}
	for _, opt := range opts {
		opt(&cfg)
	}

	r, c := x.Dims()
	if r != len(y) {
		return nil, fmt.Errorf("logistic: %d rows but %d labels", r, len(y))
	}
	if r == 0 || c == 0 {
		return nil, errors.New("logistic: empty training set")
	}
	for i, v := range y {
		if v != 0 && v != 1 {
			return nil, fmt.Errorf("logistic: label %d is %v, want 0 or 1", i, v)
		}
	}

	// Parameters are laid out as [w_0 .. w_{c-1}, b].
	obj := &objective{x: mat.DenseCopyOf(x), y: y, c: cfg.c, rows: r, cols: c}
	problem := optimize.Problem{Func: obj.value, Grad: obj.grad}
	settings := &optimize.Settings{
		GradientThreshold: 1e-8,
		MajorIterations:   cfg.maxIterations,
	}

	res, err := optimize.Minimize(problem, make([]float64, c+1), settings, &optimize.BFGS{})
	if err != nil && !obj.converged(res) {
		return nil, fmt.Errorf("logistic: optimise: %w", err)
	}
	if res == nil || !allFinite(res.X) {
		return nil, errors.New("logistic: optimiser returned no finite solution")
	}

	w := make([]float64, c)
	copy(w, res.X[:c])
	return &Model{Weights: w, Intercept: res.X[c]}, nil
}

type objective struct {
	x          *mat.Dense
	y          []float64
	c          float64
	rows, cols int
}

func (o *objective) scores(p []float64) []float64 {
	z := make([]float64, o.rows)
	for i := range z {
		z[i] = floats.Dot(o.x.RawRowView(i), p[:o.cols]) + p[o.cols]
	}
	return z
}

func (o *objective) value(p []float64) float64 {
	var nll float64
	for i, z := range o.scores(p) {
		nll += softplus(z) - o.y[i]*z
	}
	w := p[:o.cols]
	return 0.5*floats.Dot(w, w) + o.c*nll
}

func (o *objective) grad(g, p []float64) {
	for j := range g {
		g[j] = 0
	}
	for i, z := range o.scores(p) {
		resid := o.c * (Sigmoid(z) - o.y[i])
		floats.AddScaled(g[:o.cols], resid, o.x.RawRowView(i))
		g[o.cols] += resid
	}
	floats.Add(g[:o.cols], p[:o.cols])
}

// converged reports whether res is close enough to a stationary point to use
// even though the line search gave up.
func (o *objective) converged(res *optimize.Result) bool {
	if res == nil || !allFinite(res.X) {
		return false
	}
	g := make([]float64, len(res.X))
	o.grad(g, res.X)
	return floats.Norm(g, math.Inf(1)) < 1e-4*math.Max(1, o.c*float64(o.rows))
}

func allFinite(xs []float64) bool {
	for _, v := range xs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
