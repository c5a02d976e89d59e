package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
)

// Predictions holds one scored file: labels and predicted P(y=1), index-aligned.
type Predictions struct {
	Labels        []float64
	Probabilities []float64
}

// Len returns the number of rows.
func (p Predictions) Len() int { return len(p.Labels) }

// LoadPredictions opens path and reads it with ReadPredictions.
func LoadPredictions(path string) (Predictions, error) {
	f, err := os.Open(path)
	if err != nil {
		return Predictions{}, fmt.Errorf("dataset: open %s: %w", path, err)
	}
	defer f.Close()

	p, err := ReadPredictions(f)
	if err != nil {
		return Predictions{}, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

// ReadPredictions parses label,probability rows. Labels must be 0 or 1 and
// probabilities finite; values outside [0,1] are accepted and left to the
// evaluator's clamp. Extra columns are ignored.
func ReadPredictions(r io.Reader) (Predictions, error) {
	var p Predictions
	err := readRows(r, func(line int, rec []string) error {
		y, err := parseLabel(rec[0])
		if err != nil {
			return fmt.Errorf("line %d: label: %w", line, err)
		}
		prob, err := strconv.ParseFloat(strings.TrimSpace(rec[1]), 64)
		if err != nil {
			return fmt.Errorf("line %d: probability: %w", line, err)
		}
		if math.IsNaN(prob) || math.IsInf(prob, 0) {
			return fmt.Errorf("line %d: probability %v is not finite", line, prob)
		}
		p.Labels = append(p.Labels, y)
		p.Probabilities = append(p.Probabilities, prob)
		return nil
	})
	return p, err
}

// WritePredictions writes a header and one label,probability row per element.
func WritePredictions(w io.Writer, labels, probabilities []float64) error {
	if len(labels) != len(probabilities) {
		return fmt.Errorf("dataset: %d labels but %d probabilities", len(labels), len(probabilities))
	}
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"label", "probability"}); err != nil {
		return err
	}
	for i := range labels {
		if err := cw.Write([]string{formatFloat(labels[i]), formatFloat(probabilities[i])}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadSamples parses hours,passed rows. passed accepts 0/1 or true/false.
func ReadSamples(r io.Reader) ([]Sample, error) {
	var out []Sample
	err := readRows(r, func(line int, rec []string) error {
		hours, err := strconv.ParseFloat(strings.TrimSpace(rec[0]), 64)
		if err != nil {
			return fmt.Errorf("line %d: hours: %w", line, err)
		}
		if math.IsNaN(hours) || math.IsInf(hours, 0) {
			return fmt.Errorf("line %d: hours %v is not finite", line, hours)
		}
		passed, err := strconv.ParseBool(strings.TrimSpace(rec[1]))
		if err != nil {
			return fmt.Errorf("line %d: passed: %w", line, err)
		}
		out = append(out, Sample{Hours: hours, Passed: passed})
		return nil
	})
	return out, err
}

// WriteSamples writes a header and one hours,passed row per sample.
func WriteSamples(w io.Writer, samples []Sample) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"hours", "passed"}); err != nil {
		return err
	}
	for _, s := range samples {
		if err := cw.Write([]string{formatFloat(s.Hours), formatFloat(s.Label())}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// readRows feeds each two-column data row to fn with its line number. The
// first row is skipped as a header when its first field is not numeric.
// Blank lines are skipped by encoding/csv.
func readRows(r io.Reader, fn func(line int, rec []string) error) error {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.Comment = '#'

	first := true
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("dataset: %w", err)
		}
		line, _ := cr.FieldPos(0)

		if first {
			first = false
			if isHeader(rec) {
				continue
			}
		}
		if len(rec) < 2 {
			return fmt.Errorf("line %d: want 2 columns, got %d", line, len(rec))
		}
		if err := fn(line, rec); err != nil {
			return err
		}
	}
}

func isHeader(rec []string) bool {
	if len(rec) == 0 {
		return false
	}
	_, err := strconv.ParseFloat(strings.TrimSpace(rec[0]), 64)
	return err != nil && !isBoolWord(rec[0])
}

func isBoolWord(s string) bool {
	_, err := strconv.ParseBool(strings.TrimSpace(s))
	return err == nil
}

func parseLabel(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, err
	}
	if v != 0 && v != 1 {
		return 0, fmt.Errorf("%v is not 0 or 1", v)
	}
	return v, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
