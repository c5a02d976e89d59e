// Package exposition converts log-loss evaluations to and from the Prometheus
// text exposition format.
//
// Encode writes one gauge family per field (logloss_value, logloss_skill,
// logloss_samples, ...) with a dataset label, plus logloss_state{state=...}.
// WriteTextfile wraps Encode with an atomic temp-file rename so the
// node_exporter textfile collector never reads a half-written file.
// Decode parses an exposition back into evaluations with expfmt.TextParser;
// Fetch does the same for a live /metrics endpoint.
//
// The server's GET /metrics and the CLI's --textfile output both go through
// Encode; `logloss inspect` goes through Decode or Fetch.
package exposition
