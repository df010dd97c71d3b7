package deps

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"mp4get/internal/config"
)

// Requirement defines an external tool the downloader relies on.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status reports the availability of a dependency.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	Version     string
	Detail      string
}

// Requirements lists the external tools for the given configuration.
func Requirements(cfg *config.Config) []Requirement {
	return []Requirement{
		{
			Name:        "yt-dlp",
			Command:     cfg.YtDlpBinary(),
			Description: "Retrieves and merges video streams",
		},
		{
			Name:        "ffmpeg",
			Command:     cfg.FFmpegBinary(),
			Description: "Merges separate video and audio streams",
			Optional:    true,
		},
	}
}

// CheckBinaries evaluates the provided requirements and reports availability.
func CheckBinaries(ctx context.Context, requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		status := Status{
			Name:        req.Name,
			Command:     cmd,
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
		}
		if cmd == "" {
			status.Detail = "command not configured"
			results = append(results, status)
			continue
		}
		if _, err := exec.LookPath(cmd); err != nil {
			status.Detail = fmt.Sprintf("binary %q not found", cmd)
			results = append(results, status)
			continue
		}
		status.Available = true
		status.Version = binaryVersion(ctx, cmd)
		results = append(results, status)
	}
	return results
}

// Verify returns an error when a required tool is missing. Optional tools
// only surface in doctor output.
func Verify(ctx context.Context, cfg *config.Config) error {
	for _, status := range CheckBinaries(ctx, Requirements(cfg)) {
		if !status.Available && !status.Optional {
			return fmt.Errorf("missing required tool %s: %s", status.Name, status.Detail)
		}
	}
	return nil
}

// binaryVersion asks the tool for its version; both yt-dlp and ffmpeg
// support --version. Failures are tolerated since availability is what
// matters.
func binaryVersion(ctx context.Context, command string) string {
	out, err := exec.CommandContext(ctx, command, "--version").Output() //nolint:gosec
	if err != nil {
		return ""
	}
	line := strings.TrimSpace(string(out))
	if idx := strings.IndexByte(line, '\n'); idx >= 0 {
		line = strings.TrimSpace(line[:idx])
	}
	// ffmpeg prints "ffmpeg version N.n ..."; keep it short.
	if fields := strings.Fields(line); len(fields) > 3 {
		line = strings.Join(fields[:3], " ")
	}
	return line
}
