// Package services defines shared utilities consumed by the download
// pipeline and external tool integrations.
//
// Key responsibilities:
//   - Structured error markers plus the Wrap helper that classify failures
//     into retry policies (transient vs format-unavailable vs fatal).
//   - Context helpers that stamp run and job identifiers for logging.
//
// Use these helpers when wiring new pipeline logic so operational behaviour
// (error handling, retries, observability) stays uniform across components.
package services
