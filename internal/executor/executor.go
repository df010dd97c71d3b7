package executor

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"mp4get/internal/config"
	"mp4get/internal/cookies"
	"mp4get/internal/format"
	"mp4get/internal/links"
	"mp4get/internal/logging"
	"mp4get/internal/naming"
	"mp4get/internal/services"
	"mp4get/internal/services/ytdlp"
)

// Fetcher is the retrieval engine surface the executor drives.
type Fetcher interface {
	Probe(ctx context.Context, req ytdlp.ProbeRequest) (*ytdlp.Metadata, error)
	Download(ctx context.Context, req ytdlp.DownloadRequest) error
}

// Outcome reports the result of one job.
type Outcome struct {
	Entry    links.Entry
	Title    string
	Path     string
	Strategy string
	Attempts int
	Elapsed  time.Duration
	Err      error
}

// Succeeded reports whether the job produced an output file.
func (o Outcome) Succeeded() bool { return o.Err == nil }

// Reason is the short failure class for reports; empty on success.
func (o Outcome) Reason() string {
	if o.Err == nil {
		return ""
	}
	return services.FailureReason(o.Err)
}

// Executor runs individual download jobs. It is safe for concurrent use.
type Executor struct {
	cfg    *config.Config
	fetch  Fetcher
	namer  *naming.Namer
	logger *slog.Logger

	sleep func(ctx context.Context, d time.Duration) error
}

// Option configures the executor.
type Option func(*Executor)

// WithSleep replaces the retry delay (primarily for tests).
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(e *Executor) {
		if sleep != nil {
			e.sleep = sleep
		}
	}
}

func New(cfg *config.Config, fetch Fetcher, namer *naming.Namer, logger *slog.Logger, opts ...Option) *Executor {
	e := &Executor{
		cfg:    cfg,
		fetch:  fetch,
		namer:  namer,
		logger: logging.WithComponent(logger, "executor"),
		sleep:  sleepContext,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute retrieves one video. Strategy tiers are tried in order; within a
// tier, transient failures are retried up to the configured bound with a
// linearly increasing delay, and a vanished representation triggers exactly
// one reselection. Removed videos, disk errors, and cancellation stop the
// job immediately.
func (e *Executor) Execute(ctx context.Context, entry links.Entry, jar cookies.Jar) Outcome {
	start := time.Now()
	out := Outcome{Entry: entry}
	defer func() { out.Elapsed = time.Since(start) }()

	if !entry.Valid {
		out.Err = services.Wrap(services.ErrValidation, "executor", "execute", "unrecognized link "+entry.Raw, nil)
		return out
	}
	ctx = services.WithLinkID(ctx, entry.ID)
	log := logging.WithContext(ctx, e.logger)

	var lastErr error
	for _, strat := range e.strategies(jar) {
		stratJar := jar
		if !strat.UseCookies {
			stratJar = cookies.Jar{Kind: cookies.JarNone}
		}
		err := e.tryStrategy(ctx, log, entry, strat, stratJar, &out)
		if err == nil {
			out.Err = nil
			return out
		}
		lastErr = err
		if ctx.Err() != nil || itemFatal(err) {
			break
		}
		log.Debug("strategy exhausted",
			logging.String("strategy", strat.Name),
			logging.String("reason", services.FailureReason(err)))
	}
	out.Err = lastErr
	return out
}

// strategies filters the configured tiers to those usable with the resolved
// jar. With no credentials the cookie tiers are skipped rather than probed
// pointlessly.
func (e *Executor) strategies(jar cookies.Jar) []config.Strategy {
	configured := e.cfg.Download.Strategies
	if len(configured) == 0 {
		return []config.Strategy{{Name: "default"}}
	}
	usable := make([]config.Strategy, 0, len(configured))
	for _, s := range configured {
		if s.UseCookies && jar.None() {
			continue
		}
		usable = append(usable, s)
	}
	if len(usable) == 0 {
		return []config.Strategy{{Name: "default"}}
	}
	return usable
}

func (e *Executor) tryStrategy(ctx context.Context, log *slog.Logger, entry links.Entry, strat config.Strategy, jar cookies.Jar, out *Outcome) error {
	meta, err := e.fetch.Probe(ctx, ytdlp.ProbeRequest{URL: entry.URL, Jar: jar, Clients: strat.Clients})
	if err != nil {
		return err
	}
	if out.Title == "" {
		out.Title = meta.Title
	}

	opts := format.Options{
		MaxHeight:         e.cfg.Format.MaxHeight,
		ExcludedProtocols: e.cfg.Format.ExcludedProtocols,
	}
	sel, err := format.Select(meta.Candidates, opts)
	if err != nil {
		return err
	}

	dest, err := e.namer.Claim(meta.Title, entry.ID)
	if err != nil {
		return err
	}

	reselected := false
	retries := 0
	for {
		out.Attempts++
		err = e.fetch.Download(ctx, ytdlp.DownloadRequest{
			URL:        entry.URL,
			Expression: sel.Expression,
			Dest:       dest,
			Jar:        jar,
			Clients:    strat.Clients,
		})
		if err == nil {
			out.Path = dest
			out.Strategy = strat.Name
			log.Info("download complete",
				logging.String("path", dest),
				logging.String("strategy", strat.Name),
				logging.Int("attempts", out.Attempts))
			return nil
		}
		if ctx.Err() != nil {
			e.namer.Release(dest)
			return err
		}

		switch {
		case services.Retryable(err) && retries < e.cfg.Download.Retries:
			retries++
			delay := time.Duration(retries*e.cfg.Download.RetryDelaySeconds) * time.Second
			log.Warn("transient failure, retrying",
				logging.Int("retry", retries),
				logging.Duration("delay", delay),
				logging.Error(err))
			if sleepErr := e.sleep(ctx, delay); sleepErr != nil {
				e.namer.Release(dest)
				return err
			}
		case services.NeedsReselection(err) && !reselected:
			reselected = true
			opts.Exclude = append(opts.Exclude, sel.Primary.ID)
			next, selErr := format.Select(meta.Candidates, opts)
			if selErr != nil {
				e.namer.Release(dest)
				return err
			}
			log.Warn("representation vanished, reselecting",
				logging.String("excluded", sel.Primary.ID),
				logging.String("next", next.Primary.ID))
			sel = next
		default:
			e.namer.Release(dest)
			return err
		}
	}
}

// itemFatal reports failure classes that later strategy tiers cannot fix.
func itemFatal(err error) bool {
	return errors.Is(err, services.ErrNotFound) ||
		errors.Is(err, services.ErrDiskFull) ||
		errors.Is(err, services.ErrValidation)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
