package shipper

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"strings"
	"time"

	"github.com/obsidianstack/logloss/cli/internal/config"
	"github.com/obsidianstack/logloss/pkg/types"
)

const (
	backoffInitial    = 1 * time.Second
	backoffMax        = 60 * time.Second
	backoffMultiplier = 2.0
	sendTimeout       = 10 * time.Second

	// IngestPath is the server route evaluations are posted to.
	IngestPath = "/api/v1/evaluations"
)

// Shipper buffers evaluations and posts them to logloss-server.
// Ship() is non-blocking; when the buffer is full the oldest evaluation is evicted.
// Run() must be called in a goroutine to drain the buffer.
type Shipper struct {
	cfg    config.ServerConfig
	url    string
	buf    chan *types.Evaluation
	client *http.Client

	// sleep waits between retries; replaced in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// New creates a Shipper for the given server config. cfg.Endpoint must be set.
func New(cfg config.ServerConfig) *Shipper {
	size := cfg.BufferSize
	if size <= 0 {
		size = config.DefaultBufferSize
	}
	return &Shipper{
		cfg:    cfg,
		url:    strings.TrimRight(cfg.Endpoint, "/") + IngestPath,
		buf:    make(chan *types.Evaluation, size),
		client: &http.Client{Timeout: sendTimeout},
		sleep:  sleepCtx,
	}
}

// Ship enqueues ev. If the buffer is full the oldest entry is evicted to make room.
func (s *Shipper) Ship(ev *types.Evaluation) {
	select {
	case s.buf <- ev:
	default:
		select {
		case old := <-s.buf:
			slog.Warn("shipper: buffer full, evicted oldest evaluation",
				"dataset", old.Dataset, "buffer_cap", cap(s.buf))
		default:
		}
		s.buf <- ev
	}
}

// Pending returns the number of buffered evaluations.
func (s *Shipper) Pending() int { return len(s.buf) }

// Run drains the buffer, posting evaluations to the server and backing off
// while it is unreachable. Run blocks until ctx is cancelled.
func (s *Shipper) Run(ctx context.Context) {
	bo := newBackoff()
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-s.buf:
			if !s.deliver(ctx, ev, bo) {
				return
			}
		}
	}
}

// Flush delivers everything currently buffered, retrying transient failures,
// and returns once the buffer is empty. It returns ctx's error if ctx ends
// first.
func (s *Shipper) Flush(ctx context.Context) error {
	bo := newBackoff()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev := <-s.buf:
			if !s.deliver(ctx, ev, bo) {
				return ctx.Err()
			}
		default:
			return nil
		}
	}
}

// deliver posts ev until it is accepted or permanently rejected. It returns
// false when ctx ended first; ev is put back in the buffer in that case.
func (s *Shipper) deliver(ctx context.Context, ev *types.Evaluation, bo *backoff) bool {
	for {
		err := s.send(ctx, ev)
		if err == nil {
			bo.reset()
			slog.Debug("shipper: evaluation delivered", "dataset", ev.Dataset, "id", ev.ID)
			return true
		}
		if isPermanentError(err) {
			slog.Error("shipper: permanent send error, discarding evaluation",
				"dataset", ev.Dataset, "err", err)
			return true
		}
		if ctx.Err() != nil {
			s.requeue(ev)
			return false
		}

		wait := bo.next()
		slog.Warn("shipper: send failed, will retry",
			"endpoint", s.cfg.Endpoint,
			"dataset", ev.Dataset,
			"err", err,
			"retry_in", wait)
		if err := s.sleep(ctx, wait); err != nil {
			s.requeue(ev)
			return false
		}
	}
}

// requeue puts ev back if there is room. A full buffer already holds newer data.
func (s *Shipper) requeue(ev *types.Evaluation) {
	select {
	case s.buf <- ev:
	default:
	}
}

// statusError is a non-2xx response from the server.
type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	if e.body == "" {
		return fmt.Sprintf("server returned %d", e.code)
	}
	return fmt.Sprintf("server returned %d: %s", e.code, e.body)
}

func (s *Shipper) send(ctx context.Context, ev *types.Evaluation) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return &statusError{code: http.StatusBadRequest, body: err.Error()}
	}

	sendCtx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(sendCtx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.cfg.Auth.Mode == "apikey" && s.cfg.Auth.KeyEnv != "" {
		req.Header.Set(s.cfg.Auth.EffectiveHeader(), s.cfg.Auth.Key())
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("post: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return &statusError{code: resp.StatusCode, body: strings.TrimSpace(string(msg))}
}

// isPermanentError returns true for responses that indicate the evaluation
// itself (or our credentials) is invalid and should not be retried.
func isPermanentError(err error) bool {
	var se *statusError
	if !errors.As(err, &se) {
		return false
	}
	switch se.code {
	case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden,
		http.StatusRequestEntityTooLarge, http.StatusUnprocessableEntity:
		return true
	}
	return false
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// backoff implements truncated exponential backoff with jitter.
type backoff struct {
	current time.Duration
}

func newBackoff() *backoff {
	return &backoff{current: backoffInitial}
}

// next returns the current backoff duration and advances the internal state.
func (b *backoff) next() time.Duration {
	d := b.current
	// ±25 % jitter.
	d += time.Duration(float64(b.current) * 0.25 * (rand.Float64()*2 - 1)) //nolint:gosec // not crypto
	if d < 0 {
		d = 0
	}

	b.current = time.Duration(float64(b.current) * backoffMultiplier)
	if b.current > backoffMax {
		b.current = backoffMax
	}
	return d
}

func (b *backoff) reset() {
	b.current = backoffInitial
}
