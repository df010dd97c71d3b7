package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"mp4get/internal/testsupport"

	"github.com/pelletier/go-toml/v2"
)

func writeTestConfig(t *testing.T, path string, payload map[string]any) {
	t.Helper()
	data, err := toml.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestConfigPathCommand(t *testing.T) {
	out, err := runCommand(t, "config", "path")
	if err != nil {
		t.Fatalf("config path: %v", err)
	}
	if !strings.Contains(out, "config.toml") {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestConfigInitAndValidate(t *testing.T) {
	base := t.TempDir()
	target := filepath.Join(base, "config.toml")

	out, err := runCommand(t, "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	if !strings.Contains(out, target) {
		t.Fatalf("expected target path in output, got %q", out)
	}
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("sample config missing: %v", err)
	}

	// A second init without --overwrite must refuse.
	if _, err := runCommand(t, "config", "init", "--path", target); err == nil {
		t.Fatal("expected overwrite refusal")
	}
}

func TestConfigShowUsesFlagPath(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	path := filepath.Join(testsupport.BaseDir(cfg), "config.toml")
	writeTestConfig(t, path, map[string]any{
		"paths": map[string]any{
			"output_dir": cfg.Paths.OutputDir,
			"system_dir": cfg.Paths.SystemDir,
			"log_dir":    cfg.Paths.LogDir,
		},
		"download": map[string]any{"workers": 3},
	})

	out, err := runCommand(t, "--config", path, "config", "show")
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	if !strings.Contains(out, "workers = 3") {
		t.Fatalf("expected effective workers in output, got %q", out)
	}
}

func TestDoctorReportsMissingTools(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries("yt-dlp", "ffmpeg"))
	path := filepath.Join(testsupport.BaseDir(cfg), "config.toml")
	writeTestConfig(t, path, map[string]any{
		"paths": map[string]any{
			"output_dir": cfg.Paths.OutputDir,
			"system_dir": cfg.Paths.SystemDir,
			"log_dir":    cfg.Paths.LogDir,
		},
	})

	out, err := runCommand(t, "--config", path, "doctor")
	if err != nil {
		t.Fatalf("doctor: %v", err)
	}
	if !strings.Contains(out, "yt-dlp") || !strings.Contains(out, "ffmpeg") {
		t.Fatalf("expected tool rows, got %q", out)
	}
}

func TestHistoryListEmpty(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	path := filepath.Join(testsupport.BaseDir(cfg), "config.toml")
	writeTestConfig(t, path, map[string]any{
		"paths": map[string]any{
			"output_dir": cfg.Paths.OutputDir,
			"system_dir": cfg.Paths.SystemDir,
			"log_dir":    cfg.Paths.LogDir,
		},
	})

	out, err := runCommand(t, "--config", path, "history", "list")
	if err != nil {
		t.Fatalf("history list: %v", err)
	}
	if !strings.Contains(out, "No runs recorded.") {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestExitCodeMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"success", nil, 0},
		{"interrupt", context.Canceled, 130},
		{"wrapped interrupt", fmt.Errorf("run: %w", context.Canceled), 130},
		{"carried code", exitCodeError{code: 2}, 2},
		{"plain failure", errors.New("boom"), 1},
	}
	for _, tc := range cases {
		if got := exitCode(tc.err); got != tc.want {
			t.Errorf("%s: exitCode = %d, want %d", tc.name, got, tc.want)
		}
	}
}
