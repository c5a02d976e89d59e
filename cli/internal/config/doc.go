// Package config loads and watches the logloss CLI configuration file.
//
// Top-level types:
//   - Config{Evaluator, Bootstrap, Datasets, Output, Server, Demo}
//   - EvaluatorConfig: epsilon (default 1e-15), workers, chunk_size
//   - BootstrapConfig: iterations (0 disables), confidence (0.95), seed
//   - Dataset: name, path to a label,probability CSV
//   - ServerConfig: endpoint, buffer_size, auth{mode, header, key_env}
//   - DemoConfig: samples, seed, max_hours, threshold, noise, c
//
// Load(path) reads the YAML file, applies Default(), validates ranges and
// enums, then resolves relative dataset paths against the config directory.
//
// Watch(ctx, path, onChange) uses fsnotify to reload the file on write and
// keeps the previous config when a reload fails. WatchFiles is the same loop
// for arbitrary files and is used to re-evaluate datasets when they change.
package config
