package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/nao1215/fircount/internal/database"
)

// TestPrintRuns tests the history table.
func TestPrintRuns(t *testing.T) {
	t.Parallel()

	t.Run("no runs", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		printRuns(&buf, nil)
		if !strings.Contains(buf.String(), "No runs found") {
			t.Errorf("unexpected output: %q", buf.String())
		}
	})

	t.Run("runs", func(t *testing.T) {
		t.Parallel()
		runs := []database.Run{
			{
				ID: 2, StartedAt: testTime, FirstRegion: 1, LastRegion: 40,
				StartYear: 2014, EndYear: 2025, Resumed: true,
				Outcome: "completed", Stats: map[string]int{"ok": 900, "failed": 3},
			},
			{ID: 1, StartedAt: testTime, FirstRegion: 1, LastRegion: 40, StartYear: 2014, EndYear: 2025},
		}
		var buf bytes.Buffer
		printRuns(&buf, runs)
		out := buf.String()

		for _, want := range []string{"Runs (2)", "1-40", "14-25", "yes", "completed", "ok:900 failed:3", "running", "N/A"} {
			if !strings.Contains(out, want) {
				t.Errorf("expected %q in output:\n%s", want, out)
			}
		}
	})
}

// TestFormatStats tests the compact row count summary.
func TestFormatStats(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		stats map[string]int
		want  string
	}{
		{name: "nil", stats: nil, want: "N/A"},
		{name: "all zero", stats: map[string]int{"ok": 0}, want: "none"},
		{name: "ordered", stats: map[string]int{"skipped": 4, "ok": 2, "empty": 1}, want: "ok:2 empty:1 skipped:4"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := formatStats(tt.stats); got != tt.want {
				t.Errorf("formatStats() = %q, want %q", got, tt.want)
			}
		})
	}
}
