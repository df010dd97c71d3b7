package cookies

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/browserutils/kooky"
	_ "github.com/browserutils/kooky/browser/all"

	"mp4get/internal/config"
	"mp4get/internal/logging"
)

// Kind identifies the type of a resolved cookie jar.
type Kind string

const (
	// JarNone is the sentinel for "no credentials": downloads proceed
	// unauthenticated.
	JarNone Kind = "none"
	// JarFile points at a browser-exported Netscape cookie file.
	JarFile Kind = "file"
	// JarBrowser names a browser whose cookie store the retrieval engine
	// reads directly.
	JarBrowser Kind = "browser"
)

// Jar is the resolved authentication material for a run. It is immutable and
// shared read-only by every download job.
type Jar struct {
	Kind    Kind
	Path    string
	Browser string
}

// Description returns a human-readable summary for the runtime table.
func (j Jar) Description() string {
	switch j.Kind {
	case JarFile:
		return fmt.Sprintf("cookie file: %s", j.Path)
	case JarBrowser:
		return fmt.Sprintf("browser cookies: %s", j.Browser)
	default:
		return "no cookies detected"
	}
}

// None reports whether the jar is the no-credentials sentinel.
func (j Jar) None() bool {
	return j.Kind == JarNone || j.Kind == ""
}

// siteDomain scopes browser probes to cookies that matter for downloads.
const siteDomain = "youtube.com"

// Resolver walks the candidate chain once and caches the result.
type Resolver struct {
	fileCandidates []string
	browsers       []string
	logger         *slog.Logger

	probeFile    func(path string) bool
	probeBrowser func(ctx context.Context, browser string) bool

	once sync.Once
	jar  Jar
}

// NewResolver builds a resolver from configuration. The candidate order is
// exactly: configured file paths, then configured browsers.
func NewResolver(cfg *config.Config, logger *slog.Logger) *Resolver {
	r := &Resolver{
		fileCandidates: append([]string(nil), cfg.Cookies.FileCandidates...),
		browsers:       append([]string(nil), cfg.Cookies.Browsers...),
		logger:         logging.WithComponent(logger, "cookies"),
		probeFile:      probeCookieFile,
	}
	r.probeBrowser = r.kookyProbe()
	return r
}

// Resolve selects the first usable candidate. The result is computed once
// and cached for the lifetime of the resolver; rejected candidates are never
// probed again.
func (r *Resolver) Resolve(ctx context.Context) Jar {
	r.once.Do(func() {
		r.jar = r.resolve(ctx)
	})
	return r.jar
}

func (r *Resolver) resolve(ctx context.Context) Jar {
	for _, candidate := range r.fileCandidates {
		if r.probeFile(candidate) {
			r.logger.Debug("cookie file usable", logging.String("path", candidate))
			return Jar{Kind: JarFile, Path: candidate}
		}
	}

	for _, browser := range r.browsers {
		if ctx.Err() != nil {
			break
		}
		if r.probeBrowser(ctx, browser) {
			r.logger.Debug("browser cookie store usable", logging.String("browser", browser))
			return Jar{Kind: JarBrowser, Browser: browser}
		}
	}

	r.logger.Warn("no usable cookie source; continuing without credentials")
	return Jar{Kind: JarNone}
}

// probeCookieFile accepts existing, regular, non-empty files.
func probeCookieFile(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode().IsRegular() && info.Size() > 0
}

// kookyProbe returns a browser probe backed by kooky. Cookie stores are
// enumerated once for the site domain and the result is shared across
// browser candidates, so a locked or unreadable store is only touched once.
func (r *Resolver) kookyProbe() func(ctx context.Context, browser string) bool {
	var (
		once     sync.Once
		bySource map[string]int
	)
	return func(ctx context.Context, browser string) bool {
		once.Do(func() {
			bySource = make(map[string]int)
			found, err := kooky.ReadCookies(ctx, kooky.Valid, kooky.DomainHasSuffix(siteDomain))
			if err != nil {
				// Partial reads still count: an error from one locked
				// store must not disqualify the others.
				r.logger.Debug("browser cookie enumeration incomplete", logging.Error(err))
			}
			for _, cookie := range found {
				if cookie == nil || cookie.Browser == nil {
					continue
				}
				name := strings.ToLower(cookie.Browser.Browser())
				bySource[name]++
			}
		})
		for name, count := range bySource {
			if count > 0 && strings.Contains(name, browser) {
				return true
			}
		}
		return false
	}
}
