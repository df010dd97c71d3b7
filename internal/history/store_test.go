package history_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"mp4get/internal/config"
	"mp4get/internal/cookies"
	"mp4get/internal/executor"
	"mp4get/internal/history"
	"mp4get/internal/links"
	"mp4get/internal/runner"
	"mp4get/internal/services"
)

func openStore(t *testing.T, keep int) *history.Store {
	t.Helper()
	cfg := config.Default()
	cfg.Paths.OutputDir = t.TempDir()
	cfg.Paths.SystemDir = t.TempDir()
	cfg.Paths.LogDir = t.TempDir()
	cfg.History.Keep = keep

	store, err := history.Open(&cfg)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func sampleReport(id string, started time.Time) *runner.Report {
	return &runner.Report{
		RunID:   id,
		Jar:     cookies.Jar{Kind: cookies.JarFile, Path: "/tmp/cookies.txt"},
		Started: started,
		Elapsed: 3 * time.Second,
		Outcomes: []executor.Outcome{
			{
				Entry:    links.Entry{Raw: "aaaaaaaaaaa", ID: "aaaaaaaaaaa", Valid: true},
				Title:    "First Clip",
				Path:     "/videos/First Clip.mp4",
				Strategy: "desktop",
				Attempts: 1,
			},
			{
				Entry:    links.Entry{Raw: "bbbbbbbbbbb", ID: "bbbbbbbbbbb", Valid: true},
				Attempts: 3,
				Err:      services.Wrap(services.ErrTransient, "ytdlp", "download", "timed out", nil),
			},
		},
	}
}

func TestRecordAndReadBack(t *testing.T) {
	store := openStore(t, 50)
	ctx := context.Background()

	report := sampleReport("run-1", time.Now())
	if err := store.Record(ctx, report); err != nil {
		t.Fatalf("Record: %v", err)
	}

	runs, err := store.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("expected 1 run, got %d", len(runs))
	}
	if runs[0].ID != "run-1" || runs[0].Succeeded != 1 || runs[0].Failed != 1 {
		t.Fatalf("unexpected run %+v", runs[0])
	}
	if runs[0].CookieSource == "" {
		t.Fatal("cookie source missing")
	}

	items, err := store.Items(ctx, "run-1")
	if err != nil {
		t.Fatalf("Items: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if !items[0].Succeeded || items[0].Title != "First Clip" {
		t.Fatalf("unexpected first item %+v", items[0])
	}
	if items[1].Succeeded || items[1].Reason != "transient" || items[1].Attempts != 3 {
		t.Fatalf("unexpected second item %+v", items[1])
	}
}

func TestRecordPrunesOldRuns(t *testing.T) {
	store := openStore(t, 2)
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 4; i++ {
		report := sampleReport(fmt.Sprintf("run-%d", i), base.Add(time.Duration(i)*time.Minute))
		if err := store.Record(ctx, report); err != nil {
			t.Fatalf("Record %d: %v", i, err)
		}
	}

	runs, err := store.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected retention to keep 2 runs, got %d", len(runs))
	}
	if runs[0].ID != "run-3" || runs[1].ID != "run-2" {
		t.Fatalf("expected newest runs kept, got %+v", runs)
	}

	// Cascade must remove pruned items too.
	items, err := store.Items(ctx, "run-0")
	if err != nil {
		t.Fatalf("Items: %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("expected pruned run items gone, got %d", len(items))
	}
}

func TestClear(t *testing.T) {
	store := openStore(t, 50)
	ctx := context.Background()

	if err := store.Record(ctx, sampleReport("run-1", time.Now())); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := store.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	runs, err := store.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(runs) != 0 {
		t.Fatalf("expected empty history, got %d runs", len(runs))
	}
}
