package ytdlp

import (
	"context"
	"errors"
	"strings"

	"mp4get/internal/services"
)

// classify maps yt-dlp's exit and stderr output onto the service error
// taxonomy. The tool does not expose structured error codes, so this works
// from the message patterns it prints for each failure class.
func classify(operation string, runErr error, stderrTail []string) error {
	if errors.Is(runErr, context.Canceled) || errors.Is(runErr, context.DeadlineExceeded) {
		return runErr
	}

	detail := strings.Join(stderrTail, "\n")
	lower := strings.ToLower(detail)
	marker := services.ErrExternalTool

	switch {
	case containsAny(lower,
		"requested format is not available",
		"requested format not available"):
		marker = services.ErrFormatUnavailable
	case containsAny(lower,
		"sign in to confirm",
		"private video",
		"members-only",
		"join this channel",
		"confirm your age",
		"inappropriate for some users"):
		marker = services.ErrAccessDenied
	case containsAny(lower,
		"video unavailable",
		"this video is not available",
		"has been removed",
		"account associated with this video has been terminated"):
		marker = services.ErrNotFound
	case containsAny(lower,
		"no space left on device",
		"disk quota exceeded"):
		marker = services.ErrDiskFull
	case containsAny(lower,
		"http error 403",
		"http error 429",
		"http error 500",
		"http error 502",
		"http error 503",
		"timed out",
		"timeout",
		"connection reset",
		"connection refused",
		"temporary failure",
		"network is unreachable",
		"incomplete read",
		"throttl"):
		marker = services.ErrTransient
	}

	msg := "yt-dlp failed"
	if detail != "" {
		msg = lastLine(stderrTail)
	}
	return services.Wrap(marker, "ytdlp", operation, msg, runErr)
}

func containsAny(haystack string, needles ...string) bool {
	for _, needle := range needles {
		if strings.Contains(haystack, needle) {
			return true
		}
	}
	return false
}

func lastLine(tail []string) string {
	for i := len(tail) - 1; i >= 0; i-- {
		if line := strings.TrimSpace(tail[i]); line != "" {
			return line
		}
	}
	return "yt-dlp failed"
}
