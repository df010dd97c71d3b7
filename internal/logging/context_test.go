package logging_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"mp4get/internal/logging"
	"mp4get/internal/services"
)

func TestWithContextFoldsIdentifiers(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "run.log")

	logger, err := logging.New(logging.Options{
		Level:       "info",
		Format:      "console",
		OutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	ctx := services.WithRunID(context.Background(), "run-1")
	ctx = services.WithLinkID(ctx, "dQw4w9WgXcQ")
	ctx = services.WithRequestID(ctx, "req-7")

	logging.WithContext(ctx, logger).Info("download complete")

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	line := string(data)
	for _, fragment := range []string{"run_id=run-1", "link_id=dQw4w9WgXcQ", "request_id=req-7"} {
		if !strings.Contains(line, fragment) {
			t.Fatalf("expected %q in log line %q", fragment, line)
		}
	}
}

func TestWithContextWithoutIdentifiers(t *testing.T) {
	logger := logging.NewNop()
	if got := logging.WithContext(context.Background(), logger); got != logger {
		t.Fatal("bare context must return the logger unchanged")
	}
}
