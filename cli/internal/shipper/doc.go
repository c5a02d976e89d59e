// Package shipper delivers evaluations to logloss-server as JSON over HTTP
// (POST /api/v1/evaluations, one evaluation per request).
//
// Shipper.Ship() is non-blocking: evaluations are placed in an in-memory
// channel sized by server.buffer_size. When the buffer is full the oldest
// entry is evicted so the latest result is always preserved.
//
// Shipper.Run() drains the buffer in a loop, retrying with truncated
// exponential backoff (1s→60s, ±25% jitter) on network errors and 5xx
// responses. 400, 401, 403, 413 and 422 are permanent: the evaluation is
// discarded rather than retried. Shipper.Flush() is the one-shot variant
// used by `logloss eval --ship`.
//
// Auth: the API key from server.auth.key_env is sent in server.auth.header
// when server.auth.mode is apikey.
package shipper
