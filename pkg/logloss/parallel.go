package logloss

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// fill writes SampleLoss(labels[i], probabilities[i]) into out[i].
//
// Inputs of at most one chunk, or an Evaluator limited to one worker, run on
// the calling goroutine. Larger inputs are split into chunks of chunkSize and
// each chunk is handled by its own goroutine, at most workers at a time.
// Chunks never overlap, so no synchronisation on out is needed.
func (e *Evaluator) fill(ctx context.Context, labels, probabilities, out []float64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	n := len(out)
	if n <= e.chunkSize || e.workers <= 1 {
		fillRange(labels, probabilities, out, 0, n, e.epsilon)
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for start := 0; start < n; start += e.chunkSize {
		lo, hi := start, min(start+e.chunkSize, n)
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			fillRange(labels, probabilities, out, lo, hi, e.epsilon)
			return nil
		})
	}
	return g.Wait()
}

func fillRange(labels, probabilities, out []float64, lo, hi int, eps float64) {
	for i := lo; i < hi; i++ {
		out[i] = SampleLoss(labels[i], probabilities[i], eps)
	}
}
