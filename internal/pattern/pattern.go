// Package pattern mines recorded focus sessions for recurring weekday+hour windows.
package pattern

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/verte-zerg/tuifocus/internal/model"
)

// DefaultLookbackDays is the trailing range analyzed when none is given.
const DefaultLookbackDays = 14

// Score weights. They sum to 1.0.
const (
	completionWeight   = 0.5
	interruptionWeight = 0.3
	durationWeight     = 0.2

	interruptionCeiling = 10.0
	durationCeilingSecs = 3600.0
)

// SessionSource reads sessions started within [start, end].
type SessionSource interface {
	QuerySessions(ctx context.Context, start, end time.Time) ([]model.Session, error)
}

// Windows maps a weekday+hour bucket to its aggregate.
type Windows map[model.SlotKey]model.FocusWindow

// Sorted returns the windows ordered by weekday then hour.
func (w Windows) Sorted() []model.FocusWindow {
	out := make([]model.FocusWindow, 0, len(w))
	for _, fw := range w {
		out = append(out, fw)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Slot.Weekday == out[j].Slot.Weekday {
			return out[i].Slot.Hour < out[j].Slot.Hour
		}
		return out[i].Slot.Weekday < out[j].Slot.Weekday
	})
	return out
}

// Analyzer computes focus windows from a session source.
type Analyzer struct {
	sessions SessionSource
	now      func() time.Time
}

// NewAnalyzer returns an Analyzer. A nil now uses time.Now.
func NewAnalyzer(sessions SessionSource, now func() time.Time) *Analyzer {
	if now == nil {
		now = time.Now
	}
	return &Analyzer{sessions: sessions, now: now}
}

// AnalyzeFocusPatterns aggregates sessions started in the last lookbackDays.
// Buckets without sessions are absent from the result.
func (a *Analyzer) AnalyzeFocusPatterns(ctx context.Context, lookbackDays int) (Windows, error) {
	if lookbackDays <= 0 {
		lookbackDays = DefaultLookbackDays
	}
	now := a.now()
	start := now.AddDate(0, 0, -lookbackDays)
	sessions, err := a.sessions.QuerySessions(ctx, start, now)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	return Aggregate(sessions), nil
}

type bucket struct {
	total         int
	completed     int
	interruptions int
	durationSecs  int64
}

// Aggregate groups sessions by the local weekday and hour they started in.
func Aggregate(sessions []model.Session) Windows {
	buckets := map[model.SlotKey]*bucket{}
	for _, s := range sessions {
		key := model.SlotFor(s.StartedAt)
		b, ok := buckets[key]
		if !ok {
			b = &bucket{}
			buckets[key] = b
		}
		b.total++
		if s.Completed {
			b.completed++
		}
		b.interruptions += s.Interruptions
		b.durationSecs += s.DurationSeconds
	}

	windows := make(Windows, len(buckets))
	for key, b := range buckets {
		if b.total == 0 {
			continue
		}
		count := float64(b.total)
		fw := model.FocusWindow{
			Slot:                   key,
			CompletionRate:         float64(b.completed) / count,
			AverageInterruptions:   float64(b.interruptions) / count,
			AverageDurationSeconds: float64(b.durationSecs) / count,
			SessionCount:           b.total,
		}
		fw.FocusScore = FocusScore(fw.CompletionRate, fw.AverageInterruptions, fw.AverageDurationSeconds)
		windows[key] = fw
	}
	return windows
}

// FocusScore weighs completion, interruptions and duration into one score.
func FocusScore(completionRate, avgInterruptions, avgDurationSeconds float64) float64 {
	completion := clamp(completionRate, 0, 1)
	calm := 1 - clamp(avgInterruptions/interruptionCeiling, 0, 1)
	length := clamp(avgDurationSeconds/durationCeilingSecs, 0, 1)
	return completionWeight*completion + interruptionWeight*calm + durationWeight*length
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
