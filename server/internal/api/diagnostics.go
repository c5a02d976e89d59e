package api

import (
	"fmt"
	"sort"

	"github.com/obsidianstack/logloss/pkg/logloss"
	"github.com/obsidianstack/logloss/pkg/types"
)

// DiagnosticHint is one human-readable insight about an evaluation.
type DiagnosticHint struct {
	// Key is a stable machine-readable identifier.
	Key string `json:"key"`
	// Level is "info" | "warning" | "critical"
	Level string `json:"level"`
	// Title is a short label (≤ 5 words).
	Title string `json:"title"`
	// Detail is the full explanation.
	Detail string `json:"detail"`
	// Value is an optional number the hint is about (e.g. clamped %).
	Value *float64 `json:"value,omitempty"`
}

const (
	levelInfo     = "info"
	levelWarning  = "warning"
	levelCritical = "critical"
)

// Thresholds for the hints below.
const (
	clampedWarnPct     = 1.0
	clampedCriticalPct = 10.0
	risingWarnPct      = 10.0
	fewSamples         = 30
)

var levelRank = map[string]int{levelCritical: 0, levelWarning: 1, levelInfo: 2}

// computeDiagnostics derives hints from an evaluation, critical first, then
// warnings, then info.
func computeDiagnostics(ev types.Evaluation) []DiagnosticHint {
	hints := make([]DiagnosticHint, 0, 4)

	// ── Skill over the base rate ─────────────────────────────────────────────
	switch ev.State {
	case types.StatePoor:
		v := ev.Skill
		hints = append(hints, DiagnosticHint{
			Key:   "worse_than_base_rate",
			Level: levelCritical,
			Title: "Worse than base rate",
			Detail: fmt.Sprintf(
				"The model's log-loss (%.4f) is higher than the %.4f you would get by "+
					"always predicting the observed positive rate. Its probabilities carry "+
					"less information than the class balance alone. Check for a stale model "+
					"or a shift between training and this data.",
				ev.Loss, ev.BaselineLoss),
			Value: &v,
		})
	case types.StateFair:
		v := ev.Skill
		hints = append(hints, DiagnosticHint{
			Key:   "marginal_skill",
			Level: levelInfo,
			Title: fmt.Sprintf("%.0f%% skill", ev.Skill*100),
			Detail: fmt.Sprintf(
				"The model beats the base rate, but only by %.1f%% of the baseline loss. "+
					"Predictions are better than guessing the class balance, not by much.",
				ev.Skill*100),
			Value: &v,
		})
	case types.StateUnknown:
		if ev.Samples > 0 && (ev.Positives == 0 || ev.Positives == ev.Samples) {
			hints = append(hints, DiagnosticHint{
				Key:   "single_class",
				Level: levelWarning,
				Title: "Only one class present",
				Detail: "Every label in this dataset is the same, so the base-rate " +
					"baseline is zero and skill is undefined. The loss is still valid, " +
					"but compare it across runs rather than against a baseline.",
			})
		} else {
			hints = append(hints, DiagnosticHint{
				Key:    "no_baseline",
				Level:  levelInfo,
				Title:  "Skill unavailable",
				Detail: "There is no usable baseline for this evaluation, so no quality state was assigned.",
			})
		}
	}

	// ── Clamped predictions ──────────────────────────────────────────────────
	if pct := ev.ClampedPct(); pct >= clampedWarnPct {
		level := levelWarning
		if pct >= clampedCriticalPct {
			level = levelCritical
		}
		eps := ev.Epsilon
		if eps <= 0 {
			eps = logloss.DefaultEpsilon
		}
		v := pct
		hints = append(hints, DiagnosticHint{
			Key:   "clamped_predictions",
			Level: level,
			Title: fmt.Sprintf("%.1f%% clamped", pct),
			Detail: fmt.Sprintf(
				"%d of %d predictions were 0, 1, or within %g of them and had to be clamped "+
					"before taking the logarithm. The model is claiming certainty; every one "+
					"of these that is wrong costs up to %.1f nats.",
				ev.Clamped, ev.Samples, eps, logloss.MaxSampleLoss(eps)),
			Value: &v,
		})
	}

	// ── Loss rising since the previous evaluation ────────────────────────────
	if prev := ev.Loss - ev.Delta; ev.Delta > 0 && prev > 0 {
		pct := ev.Delta / prev * 100
		if pct >= risingWarnPct {
			v := pct
			hints = append(hints, DiagnosticHint{
				Key:   "loss_rising",
				Level: levelWarning,
				Title: fmt.Sprintf("Loss up %.0f%%", pct),
				Detail: fmt.Sprintf(
					"Log-loss rose from %.4f to %.4f since the previous evaluation of this "+
						"dataset. The recent average is %.4f. A sustained rise usually means "+
						"the input distribution has drifted away from the training data.",
					prev, ev.Loss, ev.Trend),
				Value: &v,
			})
		}
	}

	// ── Sample size ──────────────────────────────────────────────────────────
	if ev.Samples > 0 && ev.Samples < fewSamples {
		v := float64(ev.Samples)
		hints = append(hints, DiagnosticHint{
			Key:   "few_samples",
			Level: levelInfo,
			Title: "Few samples",
			Detail: fmt.Sprintf(
				"Only %d observations were scored. A single confident mistake moves the "+
					"mean a lot at this size; request a bootstrap interval before acting on it.",
				ev.Samples),
			Value: &v,
		})
	}

	if ci := ev.Interval; ci != nil && ev.Loss > 0 && ci.Upper-ci.Lower > ev.Loss/2 {
		v := ci.Upper - ci.Lower
		hints = append(hints, DiagnosticHint{
			Key:   "wide_interval",
			Level: levelInfo,
			Title: "Wide confidence interval",
			Detail: fmt.Sprintf(
				"The %.0f%% interval [%.4f, %.4f] is more than half the loss wide. "+
					"Differences between runs smaller than this are noise.",
				ci.Confidence*100, ci.Lower, ci.Upper),
			Value: &v,
		})
	}

	sort.SliceStable(hints, func(i, j int) bool {
		return levelRank[hints[i].Level] < levelRank[hints[j].Level]
	})
	return hints
}
