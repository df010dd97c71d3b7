// Package executor drives the retrieval of one video: probing available
// representations, applying the selection policy, and invoking the retrieval
// engine with retry on transient failures, one reselection when the chosen
// representation disappears mid-run, and a walk through configured client
// strategies when a whole tier fails.
package executor
