package runner

import (
	"time"

	"mp4get/internal/cookies"
	"mp4get/internal/executor"
)

// Report summarizes one run: exactly one outcome per valid entry, in input
// order regardless of completion order. Unrecognizable input never reaches
// the run and is absent here.
type Report struct {
	RunID    string
	Jar      cookies.Jar
	Started  time.Time
	Elapsed  time.Duration
	Outcomes []executor.Outcome
}

// Succeeded counts jobs that produced an output file.
func (r *Report) Succeeded() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Succeeded() {
			n++
		}
	}
	return n
}

// Failed counts jobs that did not produce an output file.
func (r *Report) Failed() int {
	return len(r.Outcomes) - r.Succeeded()
}

// AllSucceeded reports whether every dispatched link produced an output
// file. This drives the process exit code; unrecognizable input never
// enters the run and cannot fail an otherwise clean one.
func (r *Report) AllSucceeded() bool {
	return r.Failed() == 0
}
