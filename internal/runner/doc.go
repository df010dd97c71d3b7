// Package runner orchestrates a batch of download jobs: run-wide
// preconditions (output directory, single-run lock, cookie resolution), a
// bounded worker pool, and a final report in input order. Per-item failures
// never abort the run; only precondition failures do.
package runner
