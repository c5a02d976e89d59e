package api

import (
	"testing"

	"github.com/obsidianstack/logloss/pkg/types"
)

func keys(hints []DiagnosticHint) []string {
	out := make([]string, len(hints))
	for i, h := range hints {
		out[i] = h.Key
	}
	return out
}

func hasKey(hints []DiagnosticHint, key string) bool {
	for _, h := range hints {
		if h.Key == key {
			return true
		}
	}
	return false
}

func TestComputeDiagnostics(t *testing.T) {
	tests := []struct {
		name    string
		ev      types.Evaluation
		want    []string
		notWant []string
	}{
		{
			name:    "healthy large sample",
			ev:      types.Evaluation{Loss: 0.2, BaselineLoss: 0.69, Samples: 1000, Positives: 400, State: types.StateGood, Skill: 0.7},
			notWant: []string{"worse_than_base_rate", "clamped_predictions", "few_samples", "loss_rising"},
		},
		{
			name: "poor",
			ev:   types.Evaluation{Loss: 1.2, BaselineLoss: 0.69, Samples: 1000, Positives: 400, State: types.StatePoor, Skill: -0.7},
			want: []string{"worse_than_base_rate"},
		},
		{
			name: "fair",
			ev:   types.Evaluation{Loss: 0.6, BaselineLoss: 0.69, Samples: 1000, Positives: 400, State: types.StateFair, Skill: 0.13},
			want: []string{"marginal_skill"},
		},
		{
			name: "single class",
			ev:   types.Evaluation{Loss: 0.1, Samples: 50, Positives: 50, State: types.StateUnknown},
			want: []string{"single_class"},
		},
		{
			name: "no baseline",
			ev:   types.Evaluation{Loss: 0.1, State: types.StateUnknown},
			want: []string{"no_baseline"},
		},
		{
			name: "clamped",
			ev:   types.Evaluation{Loss: 0.3, BaselineLoss: 0.69, Samples: 100, Positives: 40, Clamped: 5, State: types.StateGood},
			want: []string{"clamped_predictions"},
		},
		{
			name: "loss rising",
			ev:   types.Evaluation{Loss: 0.4, Delta: 0.1, Trend: 0.32, BaselineLoss: 0.69, Samples: 100, Positives: 40, State: types.StateGood},
			want: []string{"loss_rising"},
		},
		{
			name:    "small rise ignored",
			ev:      types.Evaluation{Loss: 0.31, Delta: 0.01, BaselineLoss: 0.69, Samples: 100, Positives: 40, State: types.StateGood},
			notWant: []string{"loss_rising"},
		},
		{
			name: "few samples",
			ev:   types.Evaluation{Loss: 0.3, BaselineLoss: 0.69, Samples: 10, Positives: 4, State: types.StateGood},
			want: []string{"few_samples"},
		},
		{
			name: "wide interval",
			ev: types.Evaluation{Loss: 0.3, BaselineLoss: 0.69, Samples: 100, Positives: 40, State: types.StateGood,
				Interval: &types.Interval{Lower: 0.1, Upper: 0.5, Confidence: 0.95}},
			want: []string{"wide_interval"},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			hints := computeDiagnostics(tc.ev)
			for _, k := range tc.want {
				if !hasKey(hints, k) {
					t.Errorf("missing %q in %v", k, keys(hints))
				}
			}
			for _, k := range tc.notWant {
				if hasKey(hints, k) {
					t.Errorf("unexpected %q in %v", k, keys(hints))
				}
			}
		})
	}
}

func TestComputeDiagnostics_Ordering(t *testing.T) {
	ev := types.Evaluation{
		Loss: 1.5, Delta: 0.5, BaselineLoss: 0.69,
		Samples: 20, Positives: 8, Clamped: 4, Epsilon: 1e-15,
		State: types.StatePoor, Skill: -1.2,
	}
	hints := computeDiagnostics(ev)
	if len(hints) < 4 {
		t.Fatalf("expected at least 4 hints, got %v", keys(hints))
	}
	for i := 1; i < len(hints); i++ {
		if levelRank[hints[i-1].Level] > levelRank[hints[i].Level] {
			t.Errorf("hints not ordered by level: %v", keys(hints))
		}
	}
	if hints[0].Level != levelCritical {
		t.Errorf("first hint level: got %q, want critical", hints[0].Level)
	}
}

func TestComputeDiagnostics_ClampedLevel(t *testing.T) {
	ev := types.Evaluation{Loss: 0.3, BaselineLoss: 0.69, Samples: 100, Positives: 40, Clamped: 20, State: types.StateGood}
	for _, h := range computeDiagnostics(ev) {
		if h.Key == "clamped_predictions" {
			if h.Level != levelCritical {
				t.Errorf("20%% clamped: level %q, want critical", h.Level)
			}
			if h.Value == nil || *h.Value != 20 {
				t.Errorf("value: got %v, want 20", h.Value)
			}
			return
		}
	}
	t.Fatal("clamped_predictions hint missing")
}
