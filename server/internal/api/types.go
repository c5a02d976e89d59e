package api

import "github.com/obsidianstack/logloss/pkg/types"

// HealthResponse is the payload for GET /api/v1/health.
type HealthResponse struct {
	// State is derived from MeanLoss against MeanBaseline with the same
	// thresholds as a single evaluation.
	State        string  `json:"state"`
	DatasetCount int     `json:"dataset_count"`
	MeanLoss     float64 `json:"mean_loss"`
	MeanBaseline float64 `json:"mean_baseline"`
	GoodCount    int     `json:"good_count"`
	FairCount    int     `json:"fair_count"`
	PoorCount    int     `json:"poor_count"`
	UnknownCount int     `json:"unknown_count"`
	AlertCount   int     `json:"alert_count"`
}

// EvaluateRequest is the body of POST /api/v1/logloss.
type EvaluateRequest struct {
	Labels        []float64 `json:"labels"`
	Probabilities []float64 `json:"probabilities"`

	// Dataset, when set, stores the result and runs alert rules against it.
	Dataset string `json:"dataset,omitempty"`

	// Bootstrap is the number of resamples for a confidence interval.
	// 0 skips the interval.
	Bootstrap  int     `json:"bootstrap,omitempty"`
	Confidence float64 `json:"confidence,omitempty"`
	Seed       uint64  `json:"seed,omitempty"`
}

// EvaluationResponse is one evaluation as returned by the REST API.
type EvaluationResponse struct {
	types.Evaluation
	ClampedPct  float64          `json:"clamped_pct"`
	Diagnostics []DiagnosticHint `json:"diagnostics"`
	LastSeen    string           `json:"last_seen,omitempty"` // RFC3339
}

// IngestResponse acknowledges POST /api/v1/evaluations.
type IngestResponse struct {
	Status  string `json:"status"`
	ID      string `json:"id"`
	Dataset string `json:"dataset"`
}

// SnapshotResponse is the payload for GET /api/v1/snapshot and the WebSocket
// stream.
type SnapshotResponse struct {
	Evaluations []EvaluationResponse `json:"evaluations"`
	GeneratedAt string               `json:"generated_at"` // RFC3339
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}
