// Package logging builds slog loggers with mp4get conventions.
//
// Two output formats are supported: a compact console format for interactive
// runs and JSON for log files or machine consumption. Attribute helper
// aliases keep call sites terse and uniform across packages.
package logging
