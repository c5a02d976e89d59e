// Package scoring turns raw log-loss summaries into reportable evaluations.
//
// score.go provides the pure Compute(Input) function that relates a loss to
// the loss of always predicting the base rate:
//
//	skill = 1 - loss / baseline
//
// and maps it to a state: good (skill >= 0.25), fair (>= 0), poor (< 0), or
// unknown when there is no baseline to compare against (single-class data).
//
// engine.go provides the stateful Engine that remembers the previous loss of
// every dataset and a rolling window of recent losses, so that each
// evaluation carries a delta and a trend. Engine.Process accepts an
// injectable time.Time so tests are deterministic.
package scoring
