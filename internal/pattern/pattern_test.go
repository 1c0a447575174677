package pattern

import (
	"context"
	"errors"
	"math"
	"reflect"
	"testing"
	"time"

	"pgregory.net/rapid"

	"github.com/verte-zerg/tuifocus/internal/model"
)

type fakeSessions struct {
	sessions []model.Session
	err      error

	gotStart time.Time
	gotEnd   time.Time
}

func (f *fakeSessions) QuerySessions(_ context.Context, start, end time.Time) ([]model.Session, error) {
	f.gotStart, f.gotEnd = start, end
	if f.err != nil {
		return nil, f.err
	}
	var out []model.Session
	for _, s := range f.sessions {
		if !s.StartedAt.Before(start) && !s.StartedAt.After(end) {
			out = append(out, s)
		}
	}
	return out, nil
}

func fixedNow(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestWeightsSumToOne(t *testing.T) {
	if !approx(completionWeight+interruptionWeight+durationWeight, 1.0) {
		t.Fatalf("weights must sum to 1.0")
	}
	if !approx(FocusScore(1, 0, 3600), 1.0) {
		t.Fatalf("expected perfect score 1.0, got %v", FocusScore(1, 0, 3600))
	}
	if !approx(FocusScore(0, 25, 0), 0) {
		t.Fatalf("expected worst score 0, got %v", FocusScore(0, 25, 0))
	}
}

func TestAnalyzeFocusPatternsBucketMetrics(t *testing.T) {
	// Wednesday 2024-03-13 12:00.
	now := time.Date(2024, 3, 13, 12, 0, 0, 0, time.Local)
	tue9 := time.Date(2024, 3, 12, 9, 5, 0, 0, time.Local)
	src := &fakeSessions{sessions: []model.Session{
		{StartedAt: tue9, DurationSeconds: 1800, Completed: true, Interruptions: 0},
		{StartedAt: tue9.Add(40 * time.Minute), DurationSeconds: 600, Completed: false, Interruptions: 4},
		{StartedAt: time.Date(2024, 3, 11, 14, 0, 0, 0, time.Local), DurationSeconds: 7200, Completed: true, Interruptions: 20},
		// Outside the lookback window.
		{StartedAt: now.AddDate(0, 0, -15), DurationSeconds: 1500, Completed: true},
	}}

	windows, err := NewAnalyzer(src, fixedNow(now)).AnalyzeFocusPatterns(context.Background(), 0)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if !src.gotStart.Equal(now.AddDate(0, 0, -DefaultLookbackDays)) || !src.gotEnd.Equal(now) {
		t.Fatalf("unexpected query range %v..%v", src.gotStart, src.gotEnd)
	}
	if len(windows) != 2 {
		t.Fatalf("expected 2 windows, got %d: %+v", len(windows), windows)
	}

	tue, ok := windows[model.SlotKey{Weekday: 2, Hour: 9}]
	if !ok {
		t.Fatalf("missing tuesday 9:00 window")
	}
	if tue.SessionCount != 2 {
		t.Fatalf("expected 2 sessions, got %d", tue.SessionCount)
	}
	if !approx(tue.CompletionRate, 0.5) || !approx(tue.AverageInterruptions, 2) || !approx(tue.AverageDurationSeconds, 1200) {
		t.Fatalf("unexpected metrics: %+v", tue)
	}
	wantScore := 0.5*0.5 + 0.3*(1-0.2) + 0.2*(1200.0/3600.0)
	if !approx(tue.FocusScore, wantScore) {
		t.Fatalf("expected score %v, got %v", wantScore, tue.FocusScore)
	}

	mon := windows[model.SlotKey{Weekday: 1, Hour: 14}]
	// Interruptions and duration are clamped.
	if !approx(mon.FocusScore, 0.5+0+0.2) {
		t.Fatalf("expected clamped score 0.7, got %v", mon.FocusScore)
	}
}

func TestAnalyzeFocusPatternsPropagatesError(t *testing.T) {
	src := &fakeSessions{err: errors.New("disk gone")}
	_, err := NewAnalyzer(src, nil).AnalyzeFocusPatterns(context.Background(), 7)
	if err == nil || !errors.Is(err, src.err) {
		t.Fatalf("expected wrapped error, got %v", err)
	}
}

func TestAggregateEmpty(t *testing.T) {
	if got := Aggregate(nil); len(got) != 0 {
		t.Fatalf("expected no windows, got %+v", got)
	}
}

func TestWindowsSorted(t *testing.T) {
	w := Windows{
		{Weekday: 3, Hour: 8}: {Slot: model.SlotKey{Weekday: 3, Hour: 8}},
		{Weekday: 1, Hour: 20}: {Slot: model.SlotKey{Weekday: 1, Hour: 20}},
		{Weekday: 1, Hour: 7}: {Slot: model.SlotKey{Weekday: 1, Hour: 7}},
	}
	sorted := w.Sorted()
	want := []model.SlotKey{{Weekday: 1, Hour: 7}, {Weekday: 1, Hour: 20}, {Weekday: 3, Hour: 8}}
	for i, fw := range sorted {
		if fw.Slot != want[i] {
			t.Fatalf("position %d: expected %+v, got %+v", i, want[i], fw.Slot)
		}
	}
}

func genSessions(t *rapid.T, now time.Time) []model.Session {
	n := rapid.IntRange(0, 40).Draw(t, "count")
	sessions := make([]model.Session, n)
	for i := range sessions {
		offset := rapid.Int64Range(0, int64(20*24*time.Hour/time.Minute)).Draw(t, "offset_min")
		sessions[i] = model.Session{
			StartedAt:       now.Add(-time.Duration(offset) * time.Minute),
			DurationSeconds: rapid.Int64Range(0, 3*3600).Draw(t, "duration"),
			Completed:       rapid.Bool().Draw(t, "completed"),
			Interruptions:   rapid.IntRange(0, 30).Draw(t, "interruptions"),
		}
	}
	return sessions
}

func TestAnalyzeProperties(t *testing.T) {
	now := time.Date(2024, 6, 20, 15, 30, 0, 0, time.Local)
	rapid.Check(t, func(t *rapid.T) {
		src := &fakeSessions{sessions: genSessions(t, now)}
		analyzer := NewAnalyzer(src, fixedNow(now))

		first, err := analyzer.AnalyzeFocusPatterns(context.Background(), DefaultLookbackDays)
		if err != nil {
			t.Fatalf("analyze: %v", err)
		}
		second, err := analyzer.AnalyzeFocusPatterns(context.Background(), DefaultLookbackDays)
		if err != nil {
			t.Fatalf("analyze: %v", err)
		}
		if !reflect.DeepEqual(first, second) {
			t.Fatalf("analysis is not deterministic")
		}

		inRange := map[model.SlotKey]int{}
		start := now.AddDate(0, 0, -DefaultLookbackDays)
		for _, s := range src.sessions {
			if !s.StartedAt.Before(start) {
				inRange[model.SlotFor(s.StartedAt)]++
			}
		}
		if len(first) != len(inRange) {
			t.Fatalf("expected %d windows, got %d", len(inRange), len(first))
		}
		for key, fw := range first {
			if inRange[key] == 0 {
				t.Fatalf("synthetic window for %+v", key)
			}
			if fw.SessionCount != inRange[key] {
				t.Fatalf("window %+v: expected %d sessions, got %d", key, inRange[key], fw.SessionCount)
			}
			if fw.FocusScore < 0 || fw.FocusScore > 1+1e-9 {
				t.Fatalf("score out of bounds: %v", fw.FocusScore)
			}
			if fw.CompletionRate < 0 || fw.CompletionRate > 1 {
				t.Fatalf("completion rate out of bounds: %v", fw.CompletionRate)
			}
			if math.IsNaN(fw.FocusScore) {
				t.Fatalf("NaN score for %+v", key)
			}
		}
	})
}
