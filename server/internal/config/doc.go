// Package config loads the logloss-server configuration from the `server:`
// section of a YAML file.
//
// Config fields:
//   - HTTPPort              port for the REST API, /metrics and /ws/stream (default 8080)
//   - Auth.Mode             "apikey" or "none"
//   - Auth.KeyEnv           environment variable holding the expected API key
//   - Auth.Header           HTTP header name (default "X-API-Key")
//   - Store.TTL             how long a dataset's latest evaluation stays live (default 24h)
//   - Evaluator.Epsilon     clamp bound for POST /api/v1/logloss (default 1e-15)
//   - Evaluator.Workers     evaluator parallelism, 0 = GOMAXPROCS
//   - Limits.MaxSamples     largest accepted request (default 1,000,000)
//   - Limits.MaxBootstrap   largest accepted bootstrap iteration count (default 10,000)
//   - Stream.Interval       WebSocket snapshot period (default 5s)
//   - Alerts                rules and webhook targets
//
// Load(path) applies defaults before unmarshalling, then validates.
package config
