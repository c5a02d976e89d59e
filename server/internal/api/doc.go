// Package api implements the HTTP REST API for logloss-server.
//
// New returns a Handler, backed by a gorilla/mux router, that serves:
//
//	GET  /api/v1/health                  dataset count, mean loss, per-state counts
//	POST /api/v1/logloss                 evaluate labels and probabilities
//	POST /api/v1/evaluations             ingest an evaluation shipped by the CLI
//	GET  /api/v1/evaluations             all live evaluations with diagnostics
//	GET  /api/v1/evaluations/{dataset}   single evaluation; 404 if unknown or stale
//	GET  /api/v1/alerts                  firing and recently resolved alerts
//	GET  /api/v1/snapshot                all live evaluations + generated_at
//	GET  /metrics                        Prometheus text exposition of live evaluations
//
// Every /api/v1 endpoint responds with Content-Type: application/json.
// Errors carry {"error": "...", "code": "..."}; code is a stable machine
// identifier such as shape_mismatch, invalid_label or too_large.
//
// Middleware passed to New wraps the /api/v1 routes only, so /metrics stays
// reachable by an unauthenticated Prometheus scraper.
package api
