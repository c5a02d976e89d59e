package scoring

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/floats"

	"github.com/obsidianstack/logloss/pkg/logloss"
	"github.com/obsidianstack/logloss/pkg/types"
)

// trendWindow is the number of recent losses averaged into Evaluation.Trend.
const trendWindow = 20

// Engine maintains per-dataset history across evaluations and turns each
// logloss.Summary into a types.Evaluation.
//
// All exported methods are safe for concurrent use.
type Engine struct {
	mu     sync.Mutex
	states map[string]*datasetState
}

// NewEngine returns a ready-to-use Engine.
func NewEngine() *Engine {
	return &Engine{states: make(map[string]*datasetState)}
}

// Process records s as the latest evaluation of dataset and returns the
// derived evaluation.
//
// now is passed explicitly so callers (and tests) control the clock.
//
// The first evaluation of a dataset has Delta 0 and Trend equal to its loss.
func (e *Engine) Process(dataset string, s logloss.Summary, now time.Time) *types.Evaluation {
	score := Compute(Input{Loss: s.Loss, BaselineLoss: s.BaselineLoss, Samples: s.Samples})

	e.mu.Lock()
	st := e.stateFor(dataset)
	var delta float64
	if st.hasPrev {
		delta = s.Loss - st.prevLoss
	}
	st.record(s.Loss)
	trend := st.mean()
	e.mu.Unlock()

	if score.State == types.StatePoor {
		slog.Warn("scoring: model is worse than the base rate",
			"dataset", dataset, "loss", s.Loss, "baseline", s.BaselineLoss)
	}

	return &types.Evaluation{
		ID:           uuid.NewString(),
		Dataset:      dataset,
		Loss:         s.Loss,
		Samples:      s.Samples,
		Positives:    s.Positives,
		Clamped:      s.Clamped,
		Epsilon:      s.Epsilon,
		BaselineLoss: s.BaselineLoss,
		Skill:        score.Skill,
		State:        score.State,
		Delta:        delta,
		Trend:        trend,
		EvaluatedAt:  now.UTC(),
	}
}

// Forget drops the history of dataset. The next Process starts fresh.
func (e *Engine) Forget(dataset string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.states, dataset)
}

// WithInterval attaches a bootstrap interval to ev.
func WithInterval(ev *types.Evaluation, ci logloss.Interval) {
	ev.Interval = &types.Interval{
		Lower:      ci.Lower,
		Upper:      ci.Upper,
		Confidence: ci.Confidence,
		Iterations: ci.Iterations,
	}
}

// datasetState holds the loss history of one dataset.
type datasetState struct {
	prevLoss float64
	hasPrev  bool
	history  []float64 // newest last, at most trendWindow entries
}

func (e *Engine) stateFor(name string) *datasetState {
	if st, ok := e.states[name]; ok {
		return st
	}
	st := &datasetState{}
	e.states[name] = st
	return st
}

func (st *datasetState) record(loss float64) {
	if len(st.history) >= trendWindow {
		st.history = st.history[1:]
	}
	st.history = append(st.history, loss)
	st.prevLoss = loss
	st.hasPrev = true
}

func (st *datasetState) mean() float64 {
	if len(st.history) == 0 {
		return 0
	}
	return floats.Sum(st.history) / float64(len(st.history))
}
