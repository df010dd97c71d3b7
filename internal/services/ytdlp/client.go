package ytdlp

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"

	"mp4get/internal/config"
	"mp4get/internal/cookies"
	"mp4get/internal/logging"
	"mp4get/internal/services"
)

// Executor abstracts command execution for testability.
type Executor interface {
	Run(ctx context.Context, binary string, args []string, onStdout, onStderr func(string)) error
}

// Option configures the client.
type Option func(*Client)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec Executor) Option {
	return func(c *Client) {
		if exec != nil {
			c.exec = exec
		}
	}
}

// Client wraps yt-dlp CLI interactions.
type Client struct {
	binary         string
	userAgent      string
	socketTimeout  int
	mergeContainer string
	minFileBytes   int64
	rateLimit      string
	exec           Executor
	logger         *slog.Logger
}

// New constructs a yt-dlp client from configuration.
func New(cfg *config.Config, logger *slog.Logger, opts ...Option) *Client {
	client := &Client{
		binary:         cfg.YtDlpBinary(),
		userAgent:      cfg.Download.UserAgent,
		socketTimeout:  cfg.Download.SocketTimeoutSeconds,
		mergeContainer: cfg.Format.MergeContainer,
		minFileBytes:   cfg.Download.MinFileBytes,
		rateLimit:      cfg.Download.RateLimit,
		exec:           commandExecutor{},
		logger:         logging.WithComponent(logger, "ytdlp"),
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// ProbeRequest describes a metadata probe for one video.
type ProbeRequest struct {
	URL     string
	Jar     cookies.Jar
	Clients []string
}

// Probe asks yt-dlp for the video's metadata and available representations.
func (c *Client) Probe(ctx context.Context, req ProbeRequest) (*Metadata, error) {
	if strings.TrimSpace(req.URL) == "" {
		return nil, services.Wrap(services.ErrValidation, "ytdlp", "probe", "url required", nil)
	}

	args := []string{"-J", "--no-playlist"}
	args = append(args, c.commonArgs(req.Jar, req.Clients)...)
	args = append(args, req.URL)

	var stdout strings.Builder
	var stderrTail []string
	err := c.exec.Run(ctx, c.binary, args,
		func(line string) {
			stdout.WriteString(line)
			stdout.WriteByte('\n')
		},
		func(line string) { stderrTail = appendTail(stderrTail, line) },
	)
	if err != nil {
		return nil, classify("probe", err, stderrTail)
	}

	meta, err := parseMetadata([]byte(stdout.String()))
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "ytdlp", "probe", "parse metadata", err)
	}
	logging.WithContext(ctx, c.logger).Debug("probe complete",
		logging.String("video_id", meta.ID),
		logging.Int("formats", len(meta.Candidates)))
	return meta, nil
}

// DownloadRequest describes one retrieval attempt.
type DownloadRequest struct {
	URL        string
	Expression string
	Dest       string
	Jar        cookies.Jar
	Clients    []string
}

// Download retrieves the requested representation to req.Dest. The output
// file is removed and the attempt reported as failed when it comes out
// smaller than the configured minimum, which is how truncated throttled
// transfers usually present.
func (c *Client) Download(ctx context.Context, req DownloadRequest) error {
	if strings.TrimSpace(req.URL) == "" || strings.TrimSpace(req.Dest) == "" {
		return services.Wrap(services.ErrValidation, "ytdlp", "download", "url and destination required", nil)
	}
	expr := strings.TrimSpace(req.Expression)
	if expr == "" {
		expr = GenericExpression
	}

	args := []string{
		"--no-playlist",
		"--newline",
		"-f", expr,
		"--merge-output-format", c.mergeContainer,
		"-o", req.Dest,
	}
	if c.rateLimit != "" {
		args = append(args, "--limit-rate", c.rateLimit)
	}
	args = append(args, c.commonArgs(req.Jar, req.Clients)...)
	args = append(args, req.URL)

	var stderrTail []string
	err := c.exec.Run(ctx, c.binary, args,
		func(line string) {
			if strings.HasPrefix(line, "ERROR") {
				stderrTail = appendTail(stderrTail, line)
			}
		},
		func(line string) { stderrTail = appendTail(stderrTail, line) },
	)
	if err != nil {
		_ = os.Remove(req.Dest)
		return classify("download", err, stderrTail)
	}
	return c.verifyOutput(req.Dest)
}

// GenericExpression mirrors the engine-side default used when no probe data
// is available.
const GenericExpression = "bestvideo*+bestaudio/bestvideo+bestaudio/best"

func (c *Client) commonArgs(jar cookies.Jar, clients []string) []string {
	args := []string{
		"--socket-timeout", strconv.Itoa(c.socketTimeout),
	}
	if c.userAgent != "" {
		args = append(args, "--user-agent", c.userAgent)
	}
	switch jar.Kind {
	case cookies.JarFile:
		args = append(args, "--cookies", jar.Path)
	case cookies.JarBrowser:
		args = append(args, "--cookies-from-browser", jar.Browser)
	}
	if len(clients) > 0 {
		args = append(args, "--extractor-args", "youtube:player_client="+strings.Join(clients, ","))
	}
	return args
}

func (c *Client) verifyOutput(dest string) error {
	info, err := os.Stat(dest)
	if err != nil {
		return services.Wrap(services.ErrExternalTool, "ytdlp", "download", "output file missing", err)
	}
	if c.minFileBytes > 0 && info.Size() < c.minFileBytes {
		_ = os.Remove(dest)
		return services.Wrap(services.ErrTransient, "ytdlp", "download",
			fmt.Sprintf("output %d bytes, below %d byte threshold", info.Size(), c.minFileBytes), nil)
	}
	return nil
}

// stderrTailLimit bounds how much tool output is kept for classification.
const stderrTailLimit = 40

func appendTail(tail []string, line string) []string {
	line = strings.TrimSpace(line)
	if line == "" {
		return tail
	}
	if len(tail) >= stderrTailLimit {
		copy(tail, tail[1:])
		tail[len(tail)-1] = line
		return tail
	}
	return append(tail, line)
}

type commandExecutor struct{}

// scannerBuffer must fit the single-line JSON document -J prints for videos
// with large format tables.
const scannerBuffer = 32 << 20

func (commandExecutor) Run(ctx context.Context, binary string, args []string, onStdout, onStderr func(string)) error {
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("stderr pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start command: %w", err)
	}

	var wg sync.WaitGroup
	scan := func(r interface{ Read([]byte) (int, error) }, fn func(string)) {
		defer wg.Done()
		scanner := bufio.NewScanner(r)
		scanner.Buffer(make([]byte, 64*1024), scannerBuffer)
		for scanner.Scan() {
			if fn != nil {
				fn(scanner.Text())
			}
		}
	}
	wg.Add(2)
	go scan(stdout, onStdout)
	go scan(stderr, onStderr)
	wg.Wait()

	if err := cmd.Wait(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return fmt.Errorf("exit status %d", exitErr.ExitCode())
		}
		return err
	}
	return nil
}
