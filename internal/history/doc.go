// Package history persists finished runs into a SQLite database under the
// system directory, so past downloads can be listed and audited. Retention
// is bounded: only the most recent runs are kept.
package history
