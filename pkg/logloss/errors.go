package logloss

import (
	"errors"
	"fmt"
)

var (
	// ErrShapeMismatch is returned when labels and probabilities differ in length.
	ErrShapeMismatch = errors.New("logloss: shape mismatch")

	// ErrEmptyInput is returned when there are no observations to average.
	ErrEmptyInput = errors.New("logloss: empty input")

	// ErrInvalidEpsilon is returned by New for a clamp bound outside (0, 0.5).
	ErrInvalidEpsilon = errors.New("logloss: epsilon must be in (0, 0.5)")

	// ErrInvalidConfidence is returned by BootstrapCI for a level outside (0, 1).
	ErrInvalidConfidence = errors.New("logloss: confidence must be in (0, 1)")
)

// ShapeError reports the two lengths that failed to match.
// errors.Is(err, ErrShapeMismatch) is true for every *ShapeError.
type ShapeError struct {
	Labels        int
	Probabilities int
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("logloss: shape mismatch: %d labels, %d probabilities",
		e.Labels, e.Probabilities)
}

// Is matches ErrShapeMismatch.
func (e *ShapeError) Is(target error) bool {
	return target == ErrShapeMismatch
}

// checkShape enforces |labels| == |probabilities| > 0.
func checkShape(labels, probabilities []float64) error {
	if len(labels) != len(probabilities) {
		return &ShapeError{Labels: len(labels), Probabilities: len(probabilities)}
	}
	if len(labels) == 0 {
		return ErrEmptyInput
	}
	return nil
}
