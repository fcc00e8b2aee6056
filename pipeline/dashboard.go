// Package pipeline derives dashboards from feed snapshots and owns the feed
// subscription of a display session.
package pipeline

import (
	"time"

	"temperature-dashboard/comfort"
	"temperature-dashboard/models"
	"temperature-dashboard/period"
	"temperature-dashboard/series"
)

type Status string

const (
	StatusLoading     Status = "loading"
	StatusUnavailable Status = "unavailable"
	StatusOK          Status = "ok"
)

// Selection is the period and comparison chosen by the viewer.
type Selection struct {
	Period     period.Period
	Comparison period.Comparison
}

// LatestView is the latest reading prepared for display.
type LatestView struct {
	Reading        models.Reading         `json:"reading"`
	Rounded        *float64               `json:"rounded"`
	Display        string                 `json:"display"`
	Classification comfort.Classification `json:"classification"`
	// TimestampLabel places the reading relative to now, e.g. "today at 08:15".
	TimestampLabel string `json:"timestamp_label"`
}

// Latest prepares the newest reading of a normalized series, nil when empty.
func Latest(readings []models.Reading, now time.Time, loc *time.Location) *LatestView {
	r, ok := series.Latest(readings)
	if !ok {
		return nil
	}
	if loc == nil {
		loc = time.Local
	}
	return &LatestView{
		Reading:        r,
		Rounded:        comfort.Round(r.Value),
		Display:        comfort.Display(r.Value),
		Classification: comfort.Classify(r.Value, r.Timestamp.In(loc).Month()),
		TimestampLabel: period.RelativeLabel(r.Timestamp, now, loc),
	}
}

type Dashboard struct {
	Status      Status    `json:"status"`
	Error       string    `json:"error,omitempty"`
	GeneratedAt time.Time `json:"generated_at"`

	Period     period.Period     `json:"period"`
	Comparison period.Comparison `json:"comparison"`
	Window     period.Window     `json:"window"`
	AxisFormat string            `json:"axis_format"`

	ComparisonActive bool           `json:"comparison_active"`
	ComparisonWindow *period.Window `json:"comparison_window,omitempty"`
	// ComparisonOffset is the shift applied to comparison readings, in seconds.
	ComparisonOffset float64 `json:"comparison_offset_seconds,omitempty"`

	Latest  *LatestView            `json:"latest"`
	Chart   []models.CombinedPoint `json:"chart"`
	Summary models.Summary         `json:"summary"`
	NoData  bool                   `json:"no_data"`
}

// Compute derives the dashboard for sel from a normalized series. It is pure:
// the same readings, selection, instant and location give the same result.
func Compute(readings []models.Reading, sel Selection, now time.Time, loc *time.Location) Dashboard {
	if loc == nil {
		loc = time.Local
	}
	d := Dashboard{
		Status:      StatusOK,
		GeneratedAt: now,
		Period:      sel.Period,
		Comparison:  sel.Comparison,
		AxisFormat:  period.AxisFormat(sel.Period),
	}
	d.Latest = Latest(readings, now, loc)

	d.Window = period.Resolve(sel.Period, now, loc)
	current := series.Filter(readings, d.Window)
	d.Summary = series.Summarize(current)
	d.NoData = len(current) == 0

	plan := period.ResolveComparison(sel.Period, sel.Comparison, now, loc)
	comparison, shift, ok := series.Comparison(readings, current, plan)
	if plan.Active {
		w := plan.Window
		d.ComparisonWindow = &w
	}
	if ok {
		d.ComparisonActive = true
		d.ComparisonOffset = shift.Seconds()
	}
	d.Chart = series.Combine(current, comparison)
	return d
}

// FromSnapshot normalizes snapshot and computes its dashboard.
func FromSnapshot(snapshot models.Snapshot, sel Selection, now time.Time, loc *time.Location) Dashboard {
	readings, _ := series.Normalize(snapshot, loc)
	return Compute(readings, sel, now, loc)
}
