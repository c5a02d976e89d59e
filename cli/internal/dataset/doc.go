// Package dataset reads and writes the CSV files the logloss CLI works with
// and synthesises the hours-studied demo data.
//
// Two formats are supported:
//
//	label,probability   predictions to be scored (ReadPredictions)
//	hours,passed        raw demo samples (ReadSamples)
//
// A header row is optional in both. Errors carry the 1-based line number of
// the offending row.
package dataset
