package alerts

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/obsidianstack/logloss/pkg/types"
)

// condition is a parsed rule expression of the form "field op value".
//
// Supported expressions:
//
//	loss > 0.5
//	baseline_loss > 0.69
//	skill < 0
//	samples < 1000
//	clamped > 0
//	clamped_pct > 1
//	delta > 0.05
//	trend > 0.4
//	interval_upper > 0.6
//	interval_lower > 0.3
//	state == poor
//	state != good
type condition struct {
	field string
	op    string

	threshold float64
	state     string
}

var numericFields = map[string]func(types.Evaluation) (float64, bool){
	"loss":          func(e types.Evaluation) (float64, bool) { return e.Loss, true },
	"baseline_loss": func(e types.Evaluation) (float64, bool) { return e.BaselineLoss, true },
	"skill":         func(e types.Evaluation) (float64, bool) { return e.Skill, e.State != types.StateUnknown },
	"samples":       func(e types.Evaluation) (float64, bool) { return float64(e.Samples), true },
	"clamped":       func(e types.Evaluation) (float64, bool) { return float64(e.Clamped), true },
	"clamped_pct":   func(e types.Evaluation) (float64, bool) { return e.ClampedPct(), true },
	"delta":         func(e types.Evaluation) (float64, bool) { return e.Delta, true },
	"trend":         func(e types.Evaluation) (float64, bool) { return e.Trend, true },
	"interval_upper": func(e types.Evaluation) (float64, bool) {
		if e.Interval == nil {
			return 0, false
		}
		return e.Interval.Upper, true
	},
	"interval_lower": func(e types.Evaluation) (float64, bool) {
		if e.Interval == nil {
			return 0, false
		}
		return e.Interval.Lower, true
	},
}

// parseCondition validates cond and returns its parsed form.
func parseCondition(cond string) (condition, error) {
	parts := strings.Fields(cond)
	if len(parts) != 3 {
		return condition{}, fmt.Errorf("condition %q: want \"field op value\"", cond)
	}
	c := condition{field: parts[0], op: parts[1]}

	if c.field == "state" {
		if c.op != "==" && c.op != "!=" {
			return condition{}, fmt.Errorf("condition %q: state supports == and != only", cond)
		}
		switch parts[2] {
		case types.StateGood, types.StateFair, types.StatePoor, types.StateUnknown:
			c.state = parts[2]
			return c, nil
		}
		return condition{}, fmt.Errorf("condition %q: unknown state %q", cond, parts[2])
	}

	if _, ok := numericFields[c.field]; !ok {
		return condition{}, fmt.Errorf("condition %q: unknown field %q", cond, c.field)
	}
	switch c.op {
	case ">", ">=", "<", "<=", "==", "!=":
	default:
		return condition{}, fmt.Errorf("condition %q: unknown operator %q", cond, c.op)
	}
	v, err := strconv.ParseFloat(parts[2], 64)
	if err != nil || math.IsNaN(v) {
		return condition{}, fmt.Errorf("condition %q: threshold %q is not a number", cond, parts[2])
	}
	c.threshold = v
	return c, nil
}

// eval reports whether c holds for ev and the value it was tested on.
// A field that ev does not carry (e.g. no interval) never fires.
func (c condition) eval(ev types.Evaluation) (bool, float64) {
	if c.field == "state" {
		if c.op == "==" {
			return ev.State == c.state, 0
		}
		return ev.State != c.state, 0
	}
	v, ok := numericFields[c.field](ev)
	if !ok {
		return false, 0
	}
	return compareFloat(v, c.op, c.threshold), v
}

// compareFloat applies a comparison operator to two float64 values.
func compareFloat(v float64, op string, threshold float64) bool {
	switch op {
	case ">":
		return v > threshold
	case ">=":
		return v >= threshold
	case "<":
		return v < threshold
	case "<=":
		return v <= threshold
	case "==":
		return v == threshold
	case "!=":
		return v != threshold
	default:
		return false
	}
}
