package scoring

import (
	"math"
	"testing"

	"github.com/obsidianstack/logloss/pkg/types"
)

// almostEqual returns true if a and b are within epsilon of each other.
func almostEqual(a, b, epsilon float64) bool {
	return math.Abs(a-b) < epsilon
}

func TestCompute_States(t *testing.T) {
	tests := []struct {
		name      string
		in        Input
		wantState string
		wantSkill float64 // use NaN to skip
	}{
		{
			name:      "perfect model",
			in:        Input{Loss: 0, BaselineLoss: 0.69, Samples: 10},
			wantState: types.StateGood,
			wantSkill: 1,
		},
		{
			name:      "good boundary: exactly 0.25",
			in:        Input{Loss: 0.75, BaselineLoss: 1, Samples: 10},
			wantState: types.StateGood,
			wantSkill: 0.25,
		},
		{
			name:      "fair: small improvement",
			in:        Input{Loss: 0.6, BaselineLoss: 0.69, Samples: 10},
			wantState: types.StateFair,
			wantSkill: 1 - 0.6/0.69,
		},
		{
			name:      "fair boundary: matches the base rate",
			in:        Input{Loss: 0.5, BaselineLoss: 0.5, Samples: 10},
			wantState: types.StateFair,
			wantSkill: 0,
		},
		{
			name:      "poor: worse than the base rate",
			in:        Input{Loss: 1.2, BaselineLoss: 0.6, Samples: 10},
			wantState: types.StatePoor,
			wantSkill: -1,
		},
		{
			name:      "unknown: single-class baseline",
			in:        Input{Loss: 0.01, BaselineLoss: 1e-15, Samples: 10},
			wantState: types.StateUnknown,
			wantSkill: 0,
		},
		{
			name:      "unknown: no samples",
			in:        Input{Loss: 0.3, BaselineLoss: 0.6},
			wantState: types.StateUnknown,
			wantSkill: 0,
		},
		{
			name:      "unknown: non-finite loss",
			in:        Input{Loss: math.Inf(1), BaselineLoss: 0.6, Samples: 3},
			wantState: types.StateUnknown,
			wantSkill: math.NaN(),
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			out := Compute(tc.in)
			if out.State != tc.wantState {
				t.Errorf("State = %q, want %q (skill %.4f)", out.State, tc.wantState, out.Skill)
			}
			if !math.IsNaN(tc.wantSkill) && !almostEqual(out.Skill, tc.wantSkill, 1e-12) {
				t.Errorf("Skill = %v, want %v", out.Skill, tc.wantSkill)
			}
		})
	}
}

func TestStateFromSkill(t *testing.T) {
	tests := []struct {
		skill float64
		want  string
	}{
		{1, types.StateGood},
		{0.25, types.StateGood},
		{0.2499, types.StateFair},
		{0, types.StateFair},
		{-0.0001, types.StatePoor},
		{-5, types.StatePoor},
	}
	for _, tc := range tests {
		if got := stateFromSkill(tc.skill); got != tc.want {
			t.Errorf("stateFromSkill(%v) = %q, want %q", tc.skill, got, tc.want)
		}
	}
}
