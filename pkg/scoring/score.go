package scoring

import (
	"math"

	"github.com/obsidianstack/logloss/pkg/types"
)

// Thresholds that map a skill to a quality state.
const (
	ThresholdGood = 0.25
	ThresholdFair = 0.0
)

// minBaseline is the smallest baseline loss that still supports a ratio.
// Single-class data gives a baseline of about epsilon.
const minBaseline = 1e-9

// Input holds the values fed into the skill calculation.
type Input struct {
	// Loss is the mean log-loss of the model being scored.
	Loss float64

	// BaselineLoss is the loss of predicting the observed base rate for
	// every sample.
	BaselineLoss float64

	// Samples is the number of observations behind Loss.
	Samples int
}

// Output is the result of the skill calculation.
type Output struct {
	// Skill is 1 - Loss/BaselineLoss. 1 is a perfect model, 0 matches the
	// base rate, negative is worse than ignoring the features.
	Skill float64

	// State is one of the types.State* constants.
	State string
}

// Compute calculates skill and state from the given inputs.
func Compute(in Input) Output {
	if in.Samples <= 0 || !finite(in.Loss) || !finite(in.BaselineLoss) || in.BaselineLoss < minBaseline {
		return Output{State: types.StateUnknown}
	}
	skill := 1 - in.Loss/in.BaselineLoss
	return Output{Skill: skill, State: stateFromSkill(skill)}
}

// stateFromSkill maps a skill to a named state.
func stateFromSkill(skill float64) string {
	switch {
	case skill >= ThresholdGood:
		return types.StateGood
	case skill >= ThresholdFair:
		return types.StateFair
	default:
		return types.StatePoor
	}
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
