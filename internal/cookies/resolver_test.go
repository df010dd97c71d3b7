package cookies

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"mp4get/internal/config"
	"mp4get/internal/logging"
)

func newTestResolver(files, browsers []string) *Resolver {
	cfg := config.Default()
	cfg.Cookies.FileCandidates = files
	cfg.Cookies.Browsers = browsers
	return NewResolver(&cfg, logging.NewNop())
}

func TestResolvePrefersFirstUsableFile(t *testing.T) {
	dir := t.TempDir()
	missing := filepath.Join(dir, "absent.txt")
	empty := filepath.Join(dir, "empty.txt")
	usable := filepath.Join(dir, "cookies.txt")
	if err := os.WriteFile(empty, nil, 0o644); err != nil {
		t.Fatalf("write empty: %v", err)
	}
	if err := os.WriteFile(usable, []byte("# Netscape HTTP Cookie File\n"), 0o644); err != nil {
		t.Fatalf("write usable: %v", err)
	}

	r := newTestResolver([]string{missing, empty, usable}, []string{"chrome"})
	r.probeBrowser = func(context.Context, string) bool {
		t.Fatal("browser probe must not run when a file candidate is usable")
		return false
	}

	jar := r.Resolve(context.Background())
	if jar.Kind != JarFile || jar.Path != usable {
		t.Fatalf("unexpected jar: %+v", jar)
	}
}

func TestResolveFallsThroughToBrowsersInOrder(t *testing.T) {
	var probed []string
	r := newTestResolver(nil, []string{"edge", "chrome", "firefox"})
	r.probeBrowser = func(_ context.Context, browser string) bool {
		probed = append(probed, browser)
		return browser == "chrome"
	}

	jar := r.Resolve(context.Background())
	if jar.Kind != JarBrowser || jar.Browser != "chrome" {
		t.Fatalf("unexpected jar: %+v", jar)
	}
	if len(probed) != 2 || probed[0] != "edge" || probed[1] != "chrome" {
		t.Fatalf("unexpected probe order: %v", probed)
	}
}

func TestResolveReturnsSentinelWhenNothingUsable(t *testing.T) {
	r := newTestResolver([]string{filepath.Join(t.TempDir(), "nope.txt")}, []string{"edge"})
	r.probeBrowser = func(context.Context, string) bool { return false }

	jar := r.Resolve(context.Background())
	if !jar.None() {
		t.Fatalf("expected no-credentials sentinel, got %+v", jar)
	}
	if jar.Description() != "no cookies detected" {
		t.Fatalf("unexpected description: %q", jar.Description())
	}
}

func TestResolveIsCachedAndNeverReprobes(t *testing.T) {
	probes := 0
	r := newTestResolver(nil, []string{"edge", "chrome"})
	r.probeBrowser = func(context.Context, string) bool {
		probes++
		return false
	}

	first := r.Resolve(context.Background())
	second := r.Resolve(context.Background())
	if first != second {
		t.Fatalf("cached result changed: %+v vs %+v", first, second)
	}
	if probes != 2 {
		t.Fatalf("expected one probe per candidate, got %d", probes)
	}
}

func TestResolveStopsProbingOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := newTestResolver(nil, []string{"edge", "chrome"})
	r.probeBrowser = func(context.Context, string) bool {
		t.Fatal("browser probe must not run after cancellation")
		return false
	}

	if jar := r.Resolve(ctx); !jar.None() {
		t.Fatalf("expected sentinel jar after cancel, got %+v", jar)
	}
}
