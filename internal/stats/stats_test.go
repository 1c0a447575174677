package stats

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/verte-zerg/tuifocus/internal/model"
)

func TestSummarizeGuardsEmpty(t *testing.T) {
	sum := Summarize(nil)
	if sum.Sessions != 0 || sum.CompletionRate != 0 || sum.AvgInterruptions != 0 {
		t.Fatalf("expected zero summary, got %+v", sum)
	}
}

func TestSummarize(t *testing.T) {
	sum := Summarize([]model.Session{
		{DurationSeconds: 1500, Completed: true, Interruptions: 1},
		{DurationSeconds: 300, Completed: false, Interruptions: 3},
	})
	if sum.Sessions != 2 || sum.Completed != 1 {
		t.Fatalf("unexpected counts: %+v", sum)
	}
	if sum.CompletionRate != 0.5 || sum.AvgInterruptions != 2 {
		t.Fatalf("unexpected rates: %+v", sum)
	}
	if sum.TotalFocus != 30*time.Minute {
		t.Fatalf("expected 30m, got %v", sum.TotalFocus)
	}
}

func TestRenderSummaryEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := RenderSummary(&buf, nil); err != nil {
		t.Fatalf("render: %v", err)
	}
	if buf.String() != "No sessions found.\n" {
		t.Fatalf("unexpected output: %q", buf.String())
	}
}

func TestRenderWindowTableOrdersByScore(t *testing.T) {
	windows := []model.FocusWindow{
		{Slot: model.SlotKey{Weekday: 1, Hour: 8}, FocusScore: 0.4, CompletionRate: 0.5, SessionCount: 2},
		{Slot: model.SlotKey{Weekday: 2, Hour: 9}, FocusScore: 0.9, CompletionRate: 1, SessionCount: 5, AverageDurationSeconds: 3000},
	}
	var buf bytes.Buffer
	if err := RenderWindowTable(&buf, windows); err != nil {
		t.Fatalf("render: %v", err)
	}
	lines := strings.Split(buf.String(), "\n")
	if len(lines) < 4 {
		t.Fatalf("unexpected output: %q", buf.String())
	}
	if !strings.HasPrefix(lines[2], "Tue 09:00") || !strings.HasPrefix(lines[3], "Mon 08:00") {
		t.Fatalf("expected best window first:\n%s", buf.String())
	}
	if !strings.Contains(lines[2], "50.0") || !strings.Contains(lines[2], "100%") {
		t.Fatalf("unexpected row: %q", lines[2])
	}
	if windows[0].Slot.Weekday != 1 {
		t.Fatalf("input slice must not be reordered")
	}
}

func TestHeatmapLines(t *testing.T) {
	windows := []model.FocusWindow{
		{Slot: model.SlotKey{Weekday: 2, Hour: 9}, FocusScore: 1},
		{Slot: model.SlotKey{Weekday: 2, Hour: 10}, FocusScore: 0},
		{Slot: model.SlotKey{Weekday: 7, Hour: 0}, FocusScore: 0.5},
	}
	lines := HeatmapLines(windows, false)
	if len(lines) != 8 {
		t.Fatalf("expected ruler + 7 rows, got %d", len(lines))
	}
	if lines[0] != "    0     6     12    18" {
		t.Fatalf("unexpected ruler: %q", lines[0])
	}
	if lines[1] != "Mon" {
		t.Fatalf("expected empty monday row, got %q", lines[1])
	}
	if lines[2] != "Tue          @." {
		t.Fatalf("unexpected tuesday row: %q", lines[2])
	}
	if lines[7] != "Sun +" {
		t.Fatalf("unexpected sunday row: %q", lines[7])
	}

	colored := HeatmapLines(windows, true)
	if !strings.Contains(colored[2], colorGood+"@"+colorReset) {
		t.Fatalf("expected colored cell, got %q", colored[2])
	}
}

func TestRenderSuggestions(t *testing.T) {
	start := time.Date(2024, 3, 12, 9, 0, 0, 0, time.Local)
	suggestions := []model.Suggestion{{
		ID:         "x",
		Task:       model.Task{Title: "Write report"},
		Start:      start,
		End:        start.Add(90 * time.Minute),
		Type:       model.SuggestionHeavyTask,
		Reason:     "High-focus window detected",
		Confidence: 0.7,
	}}
	var buf bytes.Buffer
	if err := RenderSuggestions(&buf, suggestions); err != nil {
		t.Fatalf("render: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"heavyTask", "Write report", "Tue 03-12 09:00", "10:30", "70%", "High-focus window detected"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}

	buf.Reset()
	if err := RenderSuggestions(&buf, nil); err != nil {
		t.Fatalf("render: %v", err)
	}
	if buf.String() != "No suggestions.\n" {
		t.Fatalf("unexpected output: %q", buf.String())
	}
}

func TestShouldUseColorRespectsNoColor(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	if ShouldUseColor(&bytes.Buffer{}) {
		t.Fatalf("expected no color")
	}
}
