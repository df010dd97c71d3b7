package main

import (
	"strings"
	"testing"
)

func TestRenderTableTrimsCappedColumns(t *testing.T) {
	long := strings.Repeat("x", 80)
	out := renderTable(
		[]column{colRight("#"), colMax("Title", 10), col("Result")},
		[][]string{{"1", long, "ok"}, {"2", "short"}},
	)
	if strings.Contains(out, long) {
		t.Fatal("capped column must not render the full value")
	}
	if !strings.Contains(out, strings.Repeat("x", 7)+"...") {
		t.Fatalf("expected trimmed cell with ellipsis:\n%s", out)
	}
	if !strings.Contains(out, "short") {
		t.Fatalf("short row must be padded, not dropped:\n%s", out)
	}
}

func TestRenderTableEmptyColumns(t *testing.T) {
	if out := renderTable(nil, [][]string{{"a"}}); out != "" {
		t.Fatalf("expected empty output without columns, got %q", out)
	}
}
