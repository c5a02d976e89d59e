package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/obsidianstack/logloss/pkg/exposition"
	"github.com/obsidianstack/logloss/pkg/logloss"
	"github.com/obsidianstack/logloss/pkg/scoring"
	"github.com/obsidianstack/logloss/pkg/types"
	"github.com/obsidianstack/logloss/server/internal/alerts"
	"github.com/obsidianstack/logloss/server/internal/config"
	"github.com/obsidianstack/logloss/server/internal/store"
)

// Error codes returned in errorResponse.Code.
const (
	CodeBadRequest        = "bad_request"
	CodeShapeMismatch     = "shape_mismatch"
	CodeEmptyInput        = "empty_input"
	CodeInvalidLabel      = "invalid_label"
	CodeTooLarge          = "too_large"
	CodeInvalidEvaluation = "invalid_evaluation"
	CodeNotFound          = "not_found"
	CodeMethod            = "method_not_allowed"
	CodeCanceled          = "canceled"
)

const (
	defaultConfidence = 0.95

	// bytesPerSample bounds the JSON size of one label plus one probability.
	bytesPerSample = 64
	minBodyBytes   = 1 << 20
)

// Handler serves the REST API and /metrics.
type Handler struct {
	store  *store.Store
	alerts *alerts.Engine
	eval   *logloss.Evaluator
	scores *scoring.Engine
	limits config.LimitsConfig
	now    func() time.Time
	router *mux.Router
}

// New creates a Handler and registers all routes. al may be nil, in which
// case no alert rules run and GET /api/v1/alerts returns an empty list.
// mw wraps the /api/v1 routes only.
func New(st *store.Store, al *alerts.Engine, ev *logloss.Evaluator, limits config.LimitsConfig, mw ...mux.MiddlewareFunc) *Handler {
	h := &Handler{
		store:  st,
		alerts: al,
		eval:   ev,
		scores: scoring.NewEngine(),
		limits: limits,
		now:    time.Now,
		router: mux.NewRouter(),
	}

	notFound := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		jsonErr(w, http.StatusNotFound, CodeNotFound, "not found")
	})
	methodNotAllowed := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		jsonErr(w, http.StatusMethodNotAllowed, CodeMethod, "method not allowed")
	})
	h.router.NotFoundHandler = notFound
	h.router.MethodNotAllowedHandler = methodNotAllowed

	// Misses under /api/v1 do not reach the root router's handlers.
	v1 := h.router.PathPrefix("/api/v1").Subrouter()
	v1.NotFoundHandler = notFound
	v1.MethodNotAllowedHandler = methodNotAllowed
	v1.Use(mw...)
	v1.HandleFunc("/health", h.health).Methods(http.MethodGet)
	v1.HandleFunc("/logloss", h.evaluate).Methods(http.MethodPost)
	v1.HandleFunc("/evaluations", h.ingest).Methods(http.MethodPost)
	v1.HandleFunc("/evaluations", h.listEvaluations).Methods(http.MethodGet)
	v1.HandleFunc("/evaluations/{dataset}", h.getEvaluation).Methods(http.MethodGet)
	v1.HandleFunc("/alerts", h.listAlerts).Methods(http.MethodGet)
	v1.HandleFunc("/snapshot", h.snapshot).Methods(http.MethodGet)

	h.router.HandleFunc("/metrics", h.metrics).Methods(http.MethodGet)

	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

// --- route handlers ---------------------------------------------------------

// health returns GET /api/v1/health: mean loss, state and per-state counts.
func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	entries := h.store.List()
	resp := HealthResponse{
		DatasetCount: len(entries),
		State:        types.StateUnknown,
	}
	if h.alerts != nil {
		resp.AlertCount = h.alerts.Firing()
	}
	if len(entries) == 0 {
		jsonResp(w, http.StatusOK, resp)
		return
	}

	var loss, baseline float64
	var samples int
	for _, e := range entries {
		ev := e.Evaluation
		loss += ev.Loss
		baseline += ev.BaselineLoss
		samples += ev.Samples
		switch ev.State {
		case types.StateGood:
			resp.GoodCount++
		case types.StateFair:
			resp.FairCount++
		case types.StatePoor:
			resp.PoorCount++
		default:
			resp.UnknownCount++
		}
	}

	n := float64(len(entries))
	resp.MeanLoss = loss / n
	resp.MeanBaseline = baseline / n
	resp.State = scoring.Compute(scoring.Input{
		Loss:         resp.MeanLoss,
		BaselineLoss: resp.MeanBaseline,
		Samples:      samples,
	}).State
	jsonResp(w, http.StatusOK, resp)
}

// evaluate handles POST /api/v1/logloss.
func (h *Handler) evaluate(w http.ResponseWriter, r *http.Request) {
	var req EvaluateRequest
	if !h.decode(w, r, &req) {
		return
	}

	if n := max(len(req.Labels), len(req.Probabilities)); n > h.limits.MaxSamples {
		jsonErr(w, http.StatusRequestEntityTooLarge, CodeTooLarge,
			fmt.Sprintf("%d samples exceeds the limit of %d", n, h.limits.MaxSamples))
		return
	}
	if req.Bootstrap < 0 {
		jsonErr(w, http.StatusBadRequest, CodeBadRequest, "bootstrap must not be negative")
		return
	}
	if req.Bootstrap > h.limits.MaxBootstrap {
		jsonErr(w, http.StatusRequestEntityTooLarge, CodeTooLarge,
			fmt.Sprintf("%d bootstrap iterations exceeds the limit of %d", req.Bootstrap, h.limits.MaxBootstrap))
		return
	}
	conf := req.Confidence
	if conf == 0 {
		conf = defaultConfidence
	}
	if conf <= 0 || conf >= 1 {
		jsonErr(w, http.StatusBadRequest, CodeBadRequest, "confidence must be in (0, 1)")
		return
	}

	// Shape errors take precedence; labels are checked once lengths agree.
	if len(req.Labels) == len(req.Probabilities) {
		if i, ok := invalidLabel(req.Labels); ok {
			jsonErr(w, http.StatusUnprocessableEntity, CodeInvalidLabel,
				fmt.Sprintf("labels[%d] = %v: labels must be 0 or 1", i, req.Labels[i]))
			return
		}
	}

	sum, err := h.eval.Summarize(r.Context(), req.Labels, req.Probabilities)
	if err != nil {
		evalErr(w, err)
		return
	}

	// Anonymous requests get a throwaway engine so they do not share history.
	scores := h.scores
	if req.Dataset == "" {
		scores = scoring.NewEngine()
	}
	ev := scores.Process(req.Dataset, sum, h.now())

	if req.Bootstrap > 0 {
		ci, err := logloss.BootstrapCI(sum.Losses, conf, req.Bootstrap, req.Seed)
		if err != nil {
			evalErr(w, err)
			return
		}
		scoring.WithInterval(ev, ci)
	}

	if req.Dataset != "" {
		h.record(ev)
	}
	jsonResp(w, http.StatusOK, toEvaluationResponse(*ev, time.Time{}))
}

// ingest handles POST /api/v1/evaluations: an evaluation computed elsewhere.
func (h *Handler) ingest(w http.ResponseWriter, r *http.Request) {
	var ev types.Evaluation
	if !h.decode(w, r, &ev) {
		return
	}
	if err := validateEvaluation(ev); err != nil {
		jsonErr(w, http.StatusBadRequest, CodeInvalidEvaluation, err.Error())
		return
	}

	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	if ev.EvaluatedAt.IsZero() {
		ev.EvaluatedAt = h.now().UTC()
	}
	if ev.State == "" {
		score := scoring.Compute(scoring.Input{Loss: ev.Loss, BaselineLoss: ev.BaselineLoss, Samples: ev.Samples})
		ev.Skill, ev.State = score.Skill, score.State
	}

	h.record(&ev)
	jsonResp(w, http.StatusAccepted, IngestResponse{Status: "accepted", ID: ev.ID, Dataset: ev.Dataset})
}

// listEvaluations returns GET /api/v1/evaluations: all live evaluations.
func (h *Handler) listEvaluations(w http.ResponseWriter, _ *http.Request) {
	jsonResp(w, http.StatusOK, evaluationResponses(h.store))
}

// getEvaluation returns GET /api/v1/evaluations/{dataset}.
func (h *Handler) getEvaluation(w http.ResponseWriter, r *http.Request) {
	dataset := mux.Vars(r)["dataset"]
	// Stale entries are treated as not found.
	e, ok := h.store.Live(dataset)
	if !ok {
		jsonErr(w, http.StatusNotFound, CodeNotFound, fmt.Sprintf("dataset %q not found", dataset))
		return
	}
	jsonResp(w, http.StatusOK, toEvaluationResponse(*e.Evaluation, e.UpdatedAt))
}

// listAlerts returns GET /api/v1/alerts.
func (h *Handler) listAlerts(w http.ResponseWriter, _ *http.Request) {
	if h.alerts == nil {
		jsonResp(w, http.StatusOK, []*alerts.Alert{})
		return
	}
	jsonResp(w, http.StatusOK, h.alerts.Active())
}

// snapshot returns GET /api/v1/snapshot: full JSON dump of live evaluations.
func (h *Handler) snapshot(w http.ResponseWriter, _ *http.Request) {
	jsonResp(w, http.StatusOK, BuildSnapshot(h.store))
}

// metrics serves the live evaluations in the Prometheus text format.
func (h *Handler) metrics(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
	if err := exposition.Encode(w, h.store.Evaluations()); err != nil {
		slog.Error("api: encode metrics", "err", err)
	}
}

// --- helpers ----------------------------------------------------------------

// BuildSnapshot assembles the snapshot payload from the live store entries.
// It is shared by GET /api/v1/snapshot and the WebSocket hub.
func BuildSnapshot(st *store.Store) SnapshotResponse {
	return SnapshotResponse{
		Evaluations: evaluationResponses(st),
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
	}
}

func evaluationResponses(st *store.Store) []EvaluationResponse {
	entries := st.List()
	out := make([]EvaluationResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, toEvaluationResponse(*e.Evaluation, e.UpdatedAt))
	}
	return out
}

// toEvaluationResponse adds diagnostics to ev. A zero lastSeen is omitted.
func toEvaluationResponse(ev types.Evaluation, lastSeen time.Time) EvaluationResponse {
	resp := EvaluationResponse{
		Evaluation:  ev,
		ClampedPct:  ev.ClampedPct(),
		Diagnostics: computeDiagnostics(ev),
	}
	if !lastSeen.IsZero() {
		resp.LastSeen = lastSeen.UTC().Format(time.RFC3339)
	}
	return resp
}

// record stores ev and runs alert rules against it.
func (h *Handler) record(ev *types.Evaluation) {
	h.store.Put(ev)
	if h.alerts != nil {
		h.alerts.Evaluate(*ev)
	}
	slog.Debug("api: recorded evaluation",
		"dataset", ev.Dataset, "loss", ev.Loss, "state", ev.State)
}

// decode reads a JSON body into v, capped at a size derived from the sample
// limit. It writes the error response and returns false on failure.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	limit := max(int64(h.limits.MaxSamples)*bytesPerSample, minBodyBytes)
	r.Body = http.MaxBytesReader(w, r.Body, limit)

	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			jsonErr(w, http.StatusRequestEntityTooLarge, CodeTooLarge,
				fmt.Sprintf("request body exceeds %d bytes", tooBig.Limit))
			return false
		}
		jsonErr(w, http.StatusBadRequest, CodeBadRequest, "invalid JSON: "+err.Error())
		return false
	}
	return true
}

// evalErr maps evaluator errors to HTTP responses.
func evalErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, logloss.ErrShapeMismatch):
		jsonErr(w, http.StatusUnprocessableEntity, CodeShapeMismatch, err.Error())
	case errors.Is(err, logloss.ErrEmptyInput):
		jsonErr(w, http.StatusUnprocessableEntity, CodeEmptyInput, err.Error())
	case errors.Is(err, logloss.ErrInvalidConfidence):
		jsonErr(w, http.StatusBadRequest, CodeBadRequest, err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		jsonErr(w, http.StatusServiceUnavailable, CodeCanceled, err.Error())
	default:
		slog.Error("api: evaluate", "err", err)
		jsonErr(w, http.StatusInternalServerError, "internal", "internal error")
	}
}

// invalidLabel returns the index of the first label that is not 0 or 1.
func invalidLabel(labels []float64) (int, bool) {
	for i, y := range labels {
		if y != 0 && y != 1 {
			return i, true
		}
	}
	return 0, false
}

func validateEvaluation(ev types.Evaluation) error {
	if ev.Dataset == "" {
		return errors.New("dataset is required")
	}
	if math.IsNaN(ev.Loss) || math.IsInf(ev.Loss, 0) || ev.Loss < 0 {
		return fmt.Errorf("loss %v must be finite and non-negative", ev.Loss)
	}
	if ev.Samples < 0 || ev.Clamped < 0 || ev.Positives < 0 {
		return errors.New("counts must not be negative")
	}
	if ev.Clamped > ev.Samples || ev.Positives > ev.Samples {
		return errors.New("clamped and positives must not exceed samples")
	}
	return nil
}

func jsonResp(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func jsonErr(w http.ResponseWriter, code int, errCode, msg string) {
	jsonResp(w, code, errorResponse{Error: msg, Code: errCode})
}
