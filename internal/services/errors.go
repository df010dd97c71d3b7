package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Sentinel markers used to classify download pipeline failures. Every error
// crossing a component boundary is wrapped with exactly one marker so the
// executor can pick a retry policy without parsing message text.
var (
	// ErrTransient covers network timeouts and temporary fragment
	// unavailability; the executor retries these with a delay.
	ErrTransient = errors.New("transient failure")
	// ErrFormatUnavailable means the chosen representation disappeared
	// between selection and download; the executor reselects once.
	ErrFormatUnavailable = errors.New("format unavailable")
	// ErrAccessDenied covers private, members-only, and region-locked
	// content. Not retried.
	ErrAccessDenied = errors.New("access denied")
	// ErrNotFound covers removed or never-existing videos. Not retried.
	ErrNotFound = errors.New("not found")
	// ErrDiskFull covers destination write failures. Not retried.
	ErrDiskFull = errors.New("disk error")
	// ErrExternalTool marks failures of the yt-dlp or ffmpeg processes
	// that cannot be classified further. Not retried.
	ErrExternalTool = errors.New("external tool error")
	// ErrConfiguration marks unusable configuration; fails the whole run.
	ErrConfiguration = errors.New("configuration error")
	// ErrValidation marks malformed input; reported per item.
	ErrValidation = errors.New("validation error")
)

// Wrap builds an error message that includes component context while tagging
// it with the provided marker for later classification. The marker should be
// one of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Retryable reports whether the executor should retry the failed attempt
// against the same representation.
func Retryable(err error) bool {
	return errors.Is(err, ErrTransient)
}

// NeedsReselection reports whether the failure calls for a fresh format
// selection before the next attempt.
func NeedsReselection(err error) bool {
	return errors.Is(err, ErrFormatUnavailable)
}

// FailureReason derives the short human-readable reason recorded in the run
// report for a failed item.
func FailureReason(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.Is(err, ErrTransient):
		return "transient"
	case errors.Is(err, ErrFormatUnavailable):
		return "format-unavailable"
	case errors.Is(err, ErrAccessDenied):
		return "access-denied"
	case errors.Is(err, ErrNotFound):
		return "not-found"
	case errors.Is(err, ErrDiskFull):
		return "disk-error"
	case errors.Is(err, ErrValidation):
		return "invalid-input"
	default:
		return "error"
	}
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
