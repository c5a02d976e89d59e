// Package types defines Go types shared by the logloss CLI and server.
// Evaluation is the JSON envelope the CLI ships and the server stores,
// serves and exposes as Prometheus metrics.
package types
