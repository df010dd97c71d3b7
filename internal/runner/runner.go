package runner

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"mp4get/internal/config"
	"mp4get/internal/cookies"
	"mp4get/internal/executor"
	"mp4get/internal/links"
	"mp4get/internal/logging"
	"mp4get/internal/naming"
	"mp4get/internal/services"
)

// JarResolver yields the credential source for the run.
type JarResolver interface {
	Resolve(ctx context.Context) cookies.Jar
}

// Recorder persists finished runs, typically into the history store.
type Recorder interface {
	Record(ctx context.Context, report *Report) error
}

// Option configures the runner.
type Option func(*Runner)

// WithRecorder wires run persistence.
func WithRecorder(rec Recorder) Option {
	return func(r *Runner) { r.recorder = rec }
}

// Runner executes a batch of links against the retrieval engine.
type Runner struct {
	cfg      *config.Config
	fetch    executor.Fetcher
	resolver JarResolver
	recorder Recorder
	logger   *slog.Logger
}

func New(cfg *config.Config, fetch executor.Fetcher, resolver JarResolver, logger *slog.Logger, opts ...Option) *Runner {
	r := &Runner{
		cfg:      cfg,
		fetch:    fetch,
		resolver: resolver,
		logger:   logging.WithComponent(logger, "runner"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run processes the valid entries and returns the report. Unrecognizable
// entries never reach the worker pool; callers report those separately. The
// returned error is non-nil only for run-wide precondition failures;
// per-item failures live in the report.
func (r *Runner) Run(ctx context.Context, entries []links.Entry) (*Report, error) {
	valid := links.Valid(entries)
	if len(valid) == 0 {
		return nil, services.Wrap(services.ErrValidation, "runner", "run", "no valid links in input", nil)
	}
	if err := r.cfg.EnsureDirectories(); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "runner", "run", "prepare directories", err)
	}

	lock := flock.New(r.cfg.LockPath())
	locked, err := lock.TryLock()
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "runner", "run", "acquire run lock", err)
	}
	if !locked {
		return nil, services.Wrap(services.ErrConfiguration, "runner", "run", "another run is already in progress", nil)
	}
	defer func() {
		if unlockErr := lock.Unlock(); unlockErr != nil {
			r.logger.Warn("release run lock", logging.Error(unlockErr))
		}
	}()

	runID := uuid.NewString()
	ctx = services.WithRunID(ctx, runID)
	log := logging.WithContext(ctx, r.logger)

	report := &Report{RunID: runID, Started: time.Now()}
	report.Jar = r.resolver.Resolve(ctx)
	if report.Jar.None() {
		log.Warn("no cookie source found, continuing unauthenticated")
	} else {
		log.Info("cookie source resolved", logging.String("source", report.Jar.Description()))
	}

	namer := naming.NewNamer(r.cfg.Paths.OutputDir)
	exec := executor.New(r.cfg, r.fetch, namer, r.logger)

	workers := r.cfg.Download.Workers
	if workers < 1 {
		workers = 1
	}
	if workers > len(valid) {
		workers = len(valid)
	}
	log.Info("run started",
		logging.Int("links", len(valid)),
		logging.Int("skipped", len(entries)-len(valid)),
		logging.Int("workers", workers))

	report.Outcomes = r.dispatch(ctx, exec, valid, report.Jar, workers)
	report.Elapsed = time.Since(report.Started)

	log.Info("run finished",
		logging.Int("succeeded", report.Succeeded()),
		logging.Int("failed", report.Failed()),
		logging.Duration("elapsed", report.Elapsed))

	if r.recorder != nil {
		if recErr := r.recorder.Record(ctx, report); recErr != nil {
			r.logger.Warn("record run history", logging.Error(recErr))
		}
	}
	return report, nil
}

// dispatch fans entries out to the worker pool and collects outcomes back
// into input order. Each job is isolated: a panic inside one job becomes
// that job's failure, never the run's.
func (r *Runner) dispatch(ctx context.Context, exec *executor.Executor, entries []links.Entry, jar cookies.Jar, workers int) []executor.Outcome {
	outcomes := make([]executor.Outcome, len(entries))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				outcomes[i] = r.runJob(ctx, exec, entries[i], jar)
			}
		}()
	}

feed:
	for i := range entries {
		select {
		case jobs <- i:
		case <-ctx.Done():
			for j := i; j < len(entries); j++ {
				outcomes[j] = executor.Outcome{Entry: entries[j], Err: ctx.Err()}
			}
			break feed
		}
	}
	close(jobs)
	wg.Wait()
	return outcomes
}

func (r *Runner) runJob(ctx context.Context, exec *executor.Executor, entry links.Entry, jar cookies.Jar) (out executor.Outcome) {
	ctx = services.WithRequestID(ctx, uuid.NewString())
	defer func() {
		if rec := recover(); rec != nil {
			logging.WithContext(ctx, r.logger).Error("job panicked",
				logging.String("link", entry.Raw),
				logging.Any("panic", rec))
			out = executor.Outcome{
				Entry: entry,
				Err:   services.Wrap(services.ErrExternalTool, "runner", "job", fmt.Sprintf("panic: %v", rec), nil),
			}
		}
	}()
	return exec.Execute(ctx, entry, jar)
}
