package runner_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofrs/flock"

	"mp4get/internal/config"
	"mp4get/internal/cookies"
	"mp4get/internal/format"
	"mp4get/internal/links"
	"mp4get/internal/logging"
	"mp4get/internal/runner"
	"mp4get/internal/services"
	"mp4get/internal/services/ytdlp"
)

type fakeFetcher struct {
	mu       sync.Mutex
	download func(req ytdlp.DownloadRequest) error
	order    []string
}

func (f *fakeFetcher) Probe(ctx context.Context, req ytdlp.ProbeRequest) (*ytdlp.Metadata, error) {
	id := strings.TrimPrefix(req.URL, "https://www.youtube.com/watch?v=")
	return &ytdlp.Metadata{
		ID:    id,
		Title: "Clip " + id,
		Candidates: []format.Candidate{
			{ID: "22", Kind: format.Combined, Height: 720, Bitrate: 2500},
		},
	}, nil
}

func (f *fakeFetcher) Download(ctx context.Context, req ytdlp.DownloadRequest) error {
	f.mu.Lock()
	f.order = append(f.order, req.URL)
	f.mu.Unlock()
	if f.download != nil {
		return f.download(req)
	}
	return nil
}

type staticResolver struct {
	jar cookies.Jar
}

func (s staticResolver) Resolve(ctx context.Context) cookies.Jar { return s.jar }

type captureRecorder struct {
	report *runner.Report
}

func (c *captureRecorder) Record(ctx context.Context, report *runner.Report) error {
	c.report = report
	return nil
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Paths.OutputDir = t.TempDir()
	cfg.Paths.SystemDir = t.TempDir()
	cfg.Paths.LogDir = t.TempDir()
	cfg.Download.Workers = 3
	cfg.Download.Retries = 0
	cfg.Download.Strategies = []config.Strategy{{Name: "only"}}
	return &cfg
}

func entry(id string) links.Entry {
	return links.Entry{
		Raw:   id,
		ID:    id,
		URL:   "https://www.youtube.com/watch?v=" + id,
		Valid: true,
	}
}

func noJar() staticResolver {
	return staticResolver{jar: cookies.Jar{Kind: cookies.JarNone}}
}

func TestRunReportsInInputOrder(t *testing.T) {
	cfg := testConfig(t)
	fetch := &fakeFetcher{download: func(req ytdlp.DownloadRequest) error {
		// Later entries finish first.
		switch {
		case strings.HasSuffix(req.URL, "aaaaaaaaaaa"):
			time.Sleep(30 * time.Millisecond)
		case strings.HasSuffix(req.URL, "bbbbbbbbbbb"):
			time.Sleep(15 * time.Millisecond)
		}
		return nil
	}}
	r := runner.New(cfg, fetch, noJar(), logging.NewNop())

	entries := []links.Entry{entry("aaaaaaaaaaa"), entry("bbbbbbbbbbb"), entry("ccccccccccc")}
	report, err := r.Run(context.Background(), entries)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(report.Outcomes) != 3 {
		t.Fatalf("expected 3 outcomes, got %d", len(report.Outcomes))
	}
	for i, want := range []string{"aaaaaaaaaaa", "bbbbbbbbbbb", "ccccccccccc"} {
		if report.Outcomes[i].Entry.ID != want {
			t.Fatalf("outcome %d: expected %s, got %s", i, want, report.Outcomes[i].Entry.ID)
		}
	}
	if report.Succeeded() != 3 || !report.AllSucceeded() {
		t.Fatalf("expected full success, got %d/%d", report.Succeeded(), len(report.Outcomes))
	}
	if report.RunID == "" {
		t.Fatal("run id missing")
	}
}

func TestRunIsolatesPerItemFailures(t *testing.T) {
	cfg := testConfig(t)
	fetch := &fakeFetcher{download: func(req ytdlp.DownloadRequest) error {
		if strings.HasSuffix(req.URL, "bbbbbbbbbbb") {
			return services.Wrap(services.ErrNotFound, "ytdlp", "download", "video unavailable", nil)
		}
		return nil
	}}
	r := runner.New(cfg, fetch, noJar(), logging.NewNop())

	entries := []links.Entry{
		entry("aaaaaaaaaaa"),
		entry("bbbbbbbbbbb"),
		entry("ccccccccccc"),
	}
	report, err := r.Run(context.Background(), entries)
	if err != nil {
		t.Fatalf("per-item failures must not fail the run: %v", err)
	}
	if report.Succeeded() != 2 || report.Failed() != 1 {
		t.Fatalf("expected 2 successes and 1 failure, got %d/%d", report.Succeeded(), report.Failed())
	}
	if report.Outcomes[1].Reason() != "not-found" {
		t.Fatalf("unexpected reason %q", report.Outcomes[1].Reason())
	}
	if report.AllSucceeded() {
		t.Fatal("a failed link must fail the run result")
	}
}

func TestRunExcludesInvalidEntries(t *testing.T) {
	cfg := testConfig(t)
	r := runner.New(cfg, &fakeFetcher{}, noJar(), logging.NewNop())

	entries := []links.Entry{
		entry("aaaaaaaaaaa"),
		{Raw: "garbage", Valid: false},
		entry("bbbbbbbbbbb"),
	}
	report, err := r.Run(context.Background(), entries)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(report.Outcomes) != 2 {
		t.Fatalf("expected one outcome per valid entry, got %d", len(report.Outcomes))
	}
	for i, want := range []string{"aaaaaaaaaaa", "bbbbbbbbbbb"} {
		if report.Outcomes[i].Entry.ID != want {
			t.Fatalf("outcome %d: expected %s, got %s", i, want, report.Outcomes[i].Entry.ID)
		}
	}
	if !report.AllSucceeded() {
		t.Fatal("unrecognizable input must not fail an otherwise clean run")
	}
}

func TestRunIsolatesPanics(t *testing.T) {
	cfg := testConfig(t)
	fetch := &fakeFetcher{download: func(req ytdlp.DownloadRequest) error {
		if strings.HasSuffix(req.URL, "bbbbbbbbbbb") {
			panic("unexpected payload shape")
		}
		return nil
	}}
	r := runner.New(cfg, fetch, noJar(), logging.NewNop())

	report, err := r.Run(context.Background(), []links.Entry{entry("aaaaaaaaaaa"), entry("bbbbbbbbbbb")})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !report.Outcomes[0].Succeeded() {
		t.Fatalf("healthy job affected by neighbor panic: %v", report.Outcomes[0].Err)
	}
	if report.Outcomes[1].Succeeded() {
		t.Fatal("panicked job must be reported as failed")
	}
	if !strings.Contains(report.Outcomes[1].Err.Error(), "panic") {
		t.Fatalf("expected panic in reason, got %v", report.Outcomes[1].Err)
	}
}

func TestRunFailsFastWithoutValidLinks(t *testing.T) {
	cfg := testConfig(t)
	r := runner.New(cfg, &fakeFetcher{}, noJar(), logging.NewNop())

	_, err := r.Run(context.Background(), []links.Entry{{Raw: "garbage", Valid: false}})
	if err == nil {
		t.Fatal("expected run-wide failure")
	}
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation marker, got %v", err)
	}
}

func TestRunRefusesConcurrentRun(t *testing.T) {
	cfg := testConfig(t)
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	held := flock.New(cfg.LockPath())
	locked, err := held.TryLock()
	if err != nil || !locked {
		t.Fatalf("pre-acquire lock: %v", err)
	}
	defer func() { _ = held.Unlock() }()

	r := runner.New(cfg, &fakeFetcher{}, noJar(), logging.NewNop())
	_, err = r.Run(context.Background(), []links.Entry{entry("aaaaaaaaaaa")})
	if err == nil {
		t.Fatal("expected lock contention failure")
	}
	if !strings.Contains(err.Error(), "already in progress") {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestRunRecordsHistory(t *testing.T) {
	cfg := testConfig(t)
	rec := &captureRecorder{}
	r := runner.New(cfg, &fakeFetcher{}, noJar(), logging.NewNop(), runner.WithRecorder(rec))

	report, err := r.Run(context.Background(), []links.Entry{entry("aaaaaaaaaaa")})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if rec.report == nil || rec.report.RunID != report.RunID {
		t.Fatal("recorder did not receive the report")
	}
}

func TestRunCancellationMarksRemaining(t *testing.T) {
	cfg := testConfig(t)
	cfg.Download.Workers = 1
	ctx, cancel := context.WithCancel(context.Background())
	fetch := &fakeFetcher{download: func(req ytdlp.DownloadRequest) error {
		cancel()
		return ctx.Err()
	}}
	r := runner.New(cfg, fetch, noJar(), logging.NewNop())

	report, err := r.Run(ctx, []links.Entry{entry("aaaaaaaaaaa"), entry("bbbbbbbbbbb"), entry("ccccccccccc")})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Succeeded() != 0 {
		t.Fatalf("expected no successes after cancellation, got %d", report.Succeeded())
	}
	for i, o := range report.Outcomes {
		if !errors.Is(o.Err, context.Canceled) {
			t.Fatalf("outcome %d: expected cancellation, got %v", i, o.Err)
		}
	}
}
