package stats

import (
	"context"
	"io"
	"time"

	"github.com/verte-zerg/tuifocus/internal/model"
	"github.com/verte-zerg/tuifocus/internal/pattern"
)

// Report contains precomputed data for pattern rendering.
type Report struct {
	Since    time.Time
	Sessions []model.Session
	Windows  []model.FocusWindow
}

// BuildReport loads sessions from the lookback range and aggregates them.
func BuildReport(ctx context.Context, src pattern.SessionSource, lookbackDays int, now time.Time) (Report, error) {
	if lookbackDays <= 0 {
		lookbackDays = pattern.DefaultLookbackDays
	}
	since := now.AddDate(0, 0, -lookbackDays)
	sessions, err := src.QuerySessions(ctx, since, now)
	if err != nil {
		return Report{}, err
	}
	return Report{
		Since:    since,
		Sessions: sessions,
		Windows:  pattern.Aggregate(sessions).Sorted(),
	}, nil
}

// Render writes the summary, window table and heatmap.
func (r Report) Render(w io.Writer, useColor bool) error {
	if err := RenderSummary(w, r.Sessions); err != nil {
		return err
	}
	if err := RenderWindowTable(w, r.Windows); err != nil {
		return err
	}
	if len(r.Windows) == 0 {
		return nil
	}
	return RenderHeatmap(w, r.Windows, useColor)
}
