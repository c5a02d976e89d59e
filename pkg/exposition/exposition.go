package exposition

import (
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"time"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
	"google.golang.org/protobuf/proto"

	"github.com/obsidianstack/logloss/pkg/types"
)

// Metric family names written by Encode and understood by Decode.
const (
	MetricLoss          = "logloss_value"
	MetricBaseline      = "logloss_baseline_value"
	MetricSkill         = "logloss_skill"
	MetricSamples       = "logloss_samples"
	MetricClamped       = "logloss_clamped_predictions"
	MetricIntervalLower = "logloss_interval_lower"
	MetricIntervalUpper = "logloss_interval_upper"
	MetricState         = "logloss_state"
	MetricTimestamp     = "logloss_last_evaluation_timestamp_seconds"
)

const (
	labelDataset = "dataset"
	labelState   = "state"
)

// family describes one gauge family and how to read its value from an evaluation.
// ok=false leaves the evaluation out of that family.
type family struct {
	name  string
	help  string
	value func(e types.Evaluation) (v float64, ok bool)
}

var families = []family{
	{MetricLoss, "Mean binary cross-entropy of the latest evaluation.",
		func(e types.Evaluation) (float64, bool) { return e.Loss, true }},
	{MetricBaseline, "Log-loss of predicting the observed base rate.",
		func(e types.Evaluation) (float64, bool) { return e.BaselineLoss, true }},
	{MetricSkill, "One minus loss over baseline loss.",
		func(e types.Evaluation) (float64, bool) { return e.Skill, true }},
	{MetricSamples, "Number of observations in the latest evaluation.",
		func(e types.Evaluation) (float64, bool) { return float64(e.Samples), true }},
	{MetricClamped, "Predictions moved into [epsilon, 1-epsilon] before the logarithm.",
		func(e types.Evaluation) (float64, bool) { return float64(e.Clamped), true }},
	{MetricIntervalLower, "Lower bound of the bootstrap confidence interval for the loss.",
		func(e types.Evaluation) (float64, bool) {
			if e.Interval == nil {
				return 0, false
			}
			return e.Interval.Lower, true
		}},
	{MetricIntervalUpper, "Upper bound of the bootstrap confidence interval for the loss.",
		func(e types.Evaluation) (float64, bool) {
			if e.Interval == nil {
				return 0, false
			}
			return e.Interval.Upper, true
		}},
	{MetricTimestamp, "Unix time of the latest evaluation.",
		func(e types.Evaluation) (float64, bool) {
			if e.EvaluatedAt.IsZero() {
				return 0, false
			}
			return float64(e.EvaluatedAt.UnixNano()) / 1e9, true
		}},
}

// Encode writes evals to w in the Prometheus text exposition format, one
// gauge per evaluation per family, labelled by dataset. Families with no
// samples are omitted.
func Encode(w io.Writer, evals []types.Evaluation) error {
	sorted := make([]types.Evaluation, len(evals))
	copy(sorted, evals)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Dataset < sorted[j].Dataset })

	for _, f := range families {
		mf := newGaugeFamily(f.name, f.help)
		for _, e := range sorted {
			v, ok := f.value(e)
			if !ok {
				continue
			}
			mf.Metric = append(mf.Metric, gauge(v, labelDataset, e.Dataset))
		}
		if err := writeFamily(w, mf); err != nil {
			return err
		}
	}

	state := newGaugeFamily(MetricState, "Quality state of the latest evaluation (always 1).")
	for _, e := range sorted {
		if e.State == "" {
			continue
		}
		state.Metric = append(state.Metric, gauge(1, labelDataset, e.Dataset, labelState, e.State))
	}
	return writeFamily(w, state)
}

// WriteTextfile atomically replaces path with the exposition of evals, in the
// form expected by the node_exporter textfile collector.
func WriteTextfile(path string, evals []types.Evaluation) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("exposition: create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) //nolint:errcheck // no-op after a successful rename

	if err := Encode(tmp, evals); err != nil {
		tmp.Close()
		return fmt.Errorf("exposition: encode: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("exposition: close temp file: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("exposition: chmod: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("exposition: rename: %w", err)
	}
	return nil
}

// Decode parses a text exposition and reassembles the evaluations it
// describes, sorted by dataset. Families other than the logloss_* set are
// ignored. A partial parse that produced families is treated as success.
func Decode(r io.Reader) ([]types.Evaluation, error) {
	var parser expfmt.TextParser
	mfs, err := parser.TextToMetricFamilies(r)
	if err != nil && len(mfs) == 0 {
		return nil, fmt.Errorf("exposition: parse text: %w", err)
	}

	byDataset := make(map[string]*types.Evaluation)
	get := func(m *dto.Metric) *types.Evaluation {
		ds := labelValue(m, labelDataset)
		e, ok := byDataset[ds]
		if !ok {
			e = &types.Evaluation{Dataset: ds}
			byDataset[ds] = e
		}
		return e
	}
	interval := func(e *types.Evaluation) *types.Interval {
		if e.Interval == nil {
			e.Interval = &types.Interval{}
		}
		return e.Interval
	}

	for name, mf := range mfs {
		for _, m := range mf.GetMetric() {
			v := metricValue(m)
			switch name {
			case MetricLoss:
				get(m).Loss = v
			case MetricBaseline:
				get(m).BaselineLoss = v
			case MetricSkill:
				get(m).Skill = v
			case MetricSamples:
				get(m).Samples = int(v)
			case MetricClamped:
				get(m).Clamped = int(v)
			case MetricIntervalLower:
				interval(get(m)).Lower = v
			case MetricIntervalUpper:
				interval(get(m)).Upper = v
			case MetricState:
				get(m).State = labelValue(m, labelState)
			case MetricTimestamp:
				sec, frac := math.Modf(v)
				get(m).EvaluatedAt = time.Unix(int64(sec), int64(frac*1e9)).UTC()
			}
		}
	}

	out := make([]types.Evaluation, 0, len(byDataset))
	for _, e := range byDataset {
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Dataset < out[j].Dataset })
	return out, nil
}

func newGaugeFamily(name, help string) *dto.MetricFamily {
	return &dto.MetricFamily{
		Name: proto.String(name),
		Help: proto.String(help),
		Type: dto.MetricType_GAUGE.Enum(),
	}
}

// gauge builds one gauge sample. labels alternates name, value.
func gauge(v float64, labels ...string) *dto.Metric {
	m := &dto.Metric{Gauge: &dto.Gauge{Value: proto.Float64(v)}}
	for i := 0; i+1 < len(labels); i += 2 {
		m.Label = append(m.Label, &dto.LabelPair{
			Name:  proto.String(labels[i]),
			Value: proto.String(labels[i+1]),
		})
	}
	return m
}

func writeFamily(w io.Writer, mf *dto.MetricFamily) error {
	if len(mf.Metric) == 0 {
		return nil
	}
	if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
		return fmt.Errorf("exposition: write %s: %w", mf.GetName(), err)
	}
	return nil
}

func labelValue(m *dto.Metric, name string) string {
	for _, lp := range m.GetLabel() {
		if lp.GetName() == name {
			return lp.GetValue()
		}
	}
	return ""
}

// metricValue reads a gauge, counter or untyped sample.
func metricValue(m *dto.Metric) float64 {
	switch {
	case m.Gauge != nil:
		return m.Gauge.GetValue()
	case m.Counter != nil:
		return m.Counter.GetValue()
	case m.Untyped != nil:
		return m.Untyped.GetValue()
	}
	return 0
}
