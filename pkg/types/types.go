package types

import "time"

// Quality states assigned to an evaluation from its skill over the base rate.
const (
	StateGood    = "good"
	StateFair    = "fair"
	StatePoor    = "poor"
	StateUnknown = "unknown"
)

// Evaluation is one log-loss result for a named dataset.
type Evaluation struct {
	ID      string `json:"id"`
	Dataset string `json:"dataset"`

	// Loss is the mean binary cross-entropy.
	Loss float64 `json:"loss"`

	Samples   int `json:"samples"`
	Positives int `json:"positives"`

	// Clamped counts predictions that were moved into [Epsilon, 1-Epsilon].
	Clamped int     `json:"clamped"`
	Epsilon float64 `json:"epsilon"`

	// BaselineLoss is the loss of always predicting the base rate.
	BaselineLoss float64 `json:"baseline_loss"`

	// Skill is 1 - Loss/BaselineLoss. Zero when State is unknown.
	Skill float64 `json:"skill"`
	State string  `json:"state"`

	// Interval is the bootstrap confidence interval for Loss, when requested.
	Interval *Interval `json:"interval,omitempty"`

	// Delta is Loss minus the previous evaluation of the same dataset.
	// Trend is the mean loss over the recent window including this one.
	Delta float64 `json:"delta"`
	Trend float64 `json:"trend"`

	EvaluatedAt time.Time `json:"evaluated_at"`
}

// Interval is a confidence interval around a mean loss.
type Interval struct {
	Lower      float64 `json:"lower"`
	Upper      float64 `json:"upper"`
	Confidence float64 `json:"confidence"`
	Iterations int     `json:"iterations"`
}

// ClampedPct is the percentage of predictions that hit the clamp.
func (e Evaluation) ClampedPct() float64 {
	if e.Samples == 0 {
		return 0
	}
	return float64(e.Clamped) / float64(e.Samples) * 100
}
