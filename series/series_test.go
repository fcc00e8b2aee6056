package series

import (
	"math"
	"testing"
	"time"

	"temperature-dashboard/models"
	"temperature-dashboard/period"
)

func ts(t *testing.T, s string) time.Time {
	t.Helper()
	v, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		t.Fatalf("parse %q: %v", s, err)
	}
	return v
}

func reading(t *testing.T, id, at string, v float64) models.Reading {
	t.Helper()
	return models.Reading{ID: id, Timestamp: ts(t, at), Value: v}
}

func sortedAscending(readings []models.Reading) bool {
	for i := 1; i < len(readings); i++ {
		if readings[i].Timestamp.Before(readings[i-1].Timestamp) {
			return false
		}
	}
	return true
}

func TestParseTimestamp(t *testing.T) {
	loc := time.FixedZone("UTC+1", 3600)
	cases := []struct {
		in   string
		want string
	}{
		{"2024-01-10T08:00:00Z", "2024-01-10T08:00:00Z"},
		{"2024-01-10T08:00Z", "2024-01-10T08:00:00Z"},
		{"2024-01-10T08:00:00.250+02:00", "2024-01-10T06:00:00.25Z"},
		{"2024-01-10T08:00:00", "2024-01-10T07:00:00Z"},
		{"2024-01-10 08:00", "2024-01-10T07:00:00Z"},
		{"2024-01-10", "2024-01-10T00:00:00Z"},
	}
	for _, c := range cases {
		got, err := ParseTimestamp(c.in, loc)
		if err != nil {
			t.Errorf("ParseTimestamp(%q): %v", c.in, err)
			continue
		}
		if !got.Equal(ts(t, c.want)) {
			t.Errorf("ParseTimestamp(%q) = %s, want %s", c.in, got.UTC(), c.want)
		}
	}
	if _, err := ParseTimestamp("yesterday-ish", loc); err == nil {
		t.Error("expected error for garbage timestamp")
	}
}

func TestParseValue(t *testing.T) {
	if v := ParseValue("21.5"); v != 21.5 {
		t.Errorf("ParseValue(21.5) = %v", v)
	}
	if v := ParseValue(" -3 "); v != -3 {
		t.Errorf("ParseValue(-3) = %v", v)
	}
	for _, bad := range []models.RawValue{"", "n/a", "21,5", `{"x":1}`} {
		if v := ParseValue(bad); !math.IsNaN(v) {
			t.Errorf("ParseValue(%q) = %v, want NaN", bad, v)
		}
	}
}

func TestNormalize(t *testing.T) {
	snap := models.Snapshot{
		"c": {Timestamp: "2024-01-10T10:00:00Z", Value: "14"},
		"a": {Timestamp: "2024-01-10T08:00:00Z", Value: "10"},
		"b": {Timestamp: "2024-01-10T10:00:00Z", Value: "oops"},
		"d": {Timestamp: "", Value: "1"},
	}
	readings, report := Normalize(snap, time.UTC)
	if len(readings) != 3 {
		t.Fatalf("expected 3 readings, got %d", len(readings))
	}
	if readings[0].ID != "a" || readings[1].ID != "b" || readings[2].ID != "c" {
		t.Fatalf("unexpected order: %s %s %s", readings[0].ID, readings[1].ID, readings[2].ID)
	}
	if !math.IsNaN(readings[1].Value) {
		t.Errorf("malformed value should be NaN, got %v", readings[1].Value)
	}
	if len(report.Malformed) != 1 || report.Malformed[0] != "b" {
		t.Errorf("Malformed = %v", report.Malformed)
	}
	if len(report.Dropped) != 1 || report.Dropped[0] != "d" {
		t.Errorf("Dropped = %v", report.Dropped)
	}
}

func TestNormalizeEmpty(t *testing.T) {
	for _, snap := range []models.Snapshot{nil, {}} {
		readings, _ := Normalize(snap, time.UTC)
		if len(readings) != 0 {
			t.Fatalf("expected no readings, got %d", len(readings))
		}
		if _, ok := Latest(readings); ok {
			t.Fatal("latest of empty series should be absent")
		}
	}
}

func TestNormalizeDeterministic(t *testing.T) {
	snap := models.Snapshot{}
	for i, id := range []string{"k", "f", "z", "a", "m", "b"} {
		snap[id] = models.RawRecord{Timestamp: "2024-01-10T08:00:00Z", Value: models.RawValue([]string{"1", "2", "3", "4", "5", "6"}[i])}
	}
	first, _ := Normalize(snap, time.UTC)
	for n := 0; n < 20; n++ {
		again, _ := Normalize(snap, time.UTC)
		for i := range first {
			if first[i].ID != again[i].ID {
				t.Fatalf("run %d: order differs at %d", n, i)
			}
		}
	}
}

func TestLatestIsMaxTimestamp(t *testing.T) {
	readings := []models.Reading{
		reading(t, "a", "2024-01-10T08:00:00Z", 10),
		reading(t, "b", "2024-01-10T10:00:00Z", 14),
		reading(t, "c", "2024-01-09T23:00:00Z", 7),
	}
	got, ok := Latest(readings)
	if !ok || got.ID != "b" || got.Value != 14 {
		t.Fatalf("Latest = %+v, %v", got, ok)
	}

	tie := []models.Reading{
		reading(t, "x", "2024-01-10T10:00:00Z", 1),
		reading(t, "y", "2024-01-10T10:00:00Z", 2),
	}
	if got, _ := Latest(tie); got.ID != "y" {
		t.Fatalf("tie should resolve to the last reading, got %s", got.ID)
	}
}

func TestFilter(t *testing.T) {
	readings := []models.Reading{
		reading(t, "c", "2024-01-10T10:00:00Z", 14),
		reading(t, "old", "2024-01-09T23:00:00Z", 3),
		reading(t, "a", "2024-01-10T08:00:00Z", 10),
	}
	w := period.Window{Start: ts(t, "2024-01-10T00:00:00Z"), End: ts(t, "2024-01-10T12:00:00Z")}
	out := Filter(readings, w)
	if len(out) != 2 || out[0].ID != "a" || out[1].ID != "c" {
		t.Fatalf("unexpected filter result: %+v", out)
	}
	if !sortedAscending(out) {
		t.Fatal("filter output is not sorted")
	}
	again := Filter(out, w)
	if len(again) != len(out) {
		t.Fatal("re-filtering with the same window changed the result")
	}
	for i := range out {
		if again[i].ID != out[i].ID {
			t.Fatal("re-filtering changed the order")
		}
	}
	if readings[0].ID != "c" {
		t.Fatal("filter must not reorder its input")
	}
}

func TestFilterHalfOpenAndEmpty(t *testing.T) {
	readings := []models.Reading{reading(t, "edge", "2024-01-11T00:00:00Z", 1)}
	w := period.Window{Start: ts(t, "2024-01-10T00:00:00Z"), End: ts(t, "2024-01-11T00:00:00Z"), HalfOpen: true}
	if out := Filter(readings, w); len(out) != 0 {
		t.Fatal("half-open window should exclude its end")
	}
	w.HalfOpen = false
	if out := Filter(readings, w); len(out) != 1 {
		t.Fatal("closed window should include its end")
	}
	if out := Filter(readings, period.Window{Empty: true}); out == nil || len(out) != 0 {
		t.Fatal("empty window should give an empty, non-nil series")
	}
}

func TestAlignZeroShiftIsIdentity(t *testing.T) {
	readings := []models.Reading{
		reading(t, "a", "2024-01-10T08:00:00Z", 10),
		reading(t, "b", "2024-01-10T10:00:00Z", 14),
	}
	out := Align(readings, 0)
	if len(out) != len(readings) {
		t.Fatalf("length changed: %d", len(out))
	}
	for i := range readings {
		if out[i].ID != readings[i].ID || !out[i].Timestamp.Equal(readings[i].Timestamp) || out[i].Value != readings[i].Value {
			t.Errorf("reading %d changed: %+v", i, out[i])
		}
	}
}

func TestAlignShiftsAndFlags(t *testing.T) {
	readings := []models.Reading{reading(t, "p", "2024-01-09T09:00:00Z", 8)}
	out := Align(readings, 24*time.Hour)
	if !out[0].Timestamp.Equal(ts(t, "2024-01-10T09:00:00Z")) {
		t.Fatalf("shifted to %s", out[0].Timestamp)
	}
	if !out[0].Comparison || !out[0].SourceTime.Equal(ts(t, "2024-01-09T09:00:00Z")) {
		t.Fatalf("comparison metadata missing: %+v", out[0])
	}
	if readings[0].Comparison {
		t.Fatal("input must not be modified")
	}
	if out := Align(nil, time.Hour); len(out) != 0 {
		t.Fatal("empty input should align to empty output")
	}
}

func TestAlignmentOffset(t *testing.T) {
	current := []models.Reading{reading(t, "c", "2024-01-10T08:00:00Z", 1)}
	comparison := []models.Reading{reading(t, "p", "2024-01-03T07:30:00Z", 1)}
	d, ok := AlignmentOffset(current, comparison)
	if !ok || d != 7*24*time.Hour+30*time.Minute {
		t.Fatalf("offset = %v, %v", d, ok)
	}
	if _, ok := AlignmentOffset(current, nil); ok {
		t.Fatal("offset with no comparison readings should be undefined")
	}
	if _, ok := AlignmentOffset(nil, comparison); ok {
		t.Fatal("offset with no current readings should be undefined")
	}
}

func TestComparisonFixedShift(t *testing.T) {
	all := []models.Reading{
		reading(t, "prev", "2024-01-09T09:00:00Z", 8),
		reading(t, "cur", "2024-01-10T09:00:00Z", 12),
	}
	current := all[1:]
	plan := period.Plan{
		Active:     true,
		Window:     period.Window{Start: ts(t, "2024-01-09T00:00:00Z"), End: ts(t, "2024-01-10T00:00:00Z"), HalfOpen: true},
		Shift:      24 * time.Hour,
		FixedShift: true,
	}
	out, shift, ok := Comparison(all, current, plan)
	if !ok || shift != 24*time.Hour || len(out) != 1 {
		t.Fatalf("Comparison = %+v, %v, %v", out, shift, ok)
	}
	if !out[0].Timestamp.Equal(ts(t, "2024-01-10T09:00:00Z")) {
		t.Fatalf("aligned to %s", out[0].Timestamp)
	}
}

func TestComparisonDerivedShift(t *testing.T) {
	all := []models.Reading{
		reading(t, "p1", "2024-01-03T07:00:00Z", 5),
		reading(t, "p2", "2024-01-03T09:00:00Z", 6),
		reading(t, "c1", "2024-01-10T08:00:00Z", 9),
	}
	plan := period.Plan{
		Active: true,
		Window: period.Window{Start: ts(t, "2024-01-03T00:00:00Z"), End: ts(t, "2024-01-03T23:59:59.999Z")},
	}
	out, shift, ok := Comparison(all, all[2:], plan)
	if !ok || shift != 7*24*time.Hour+time.Hour {
		t.Fatalf("shift = %v, %v", shift, ok)
	}
	if !out[0].Timestamp.Equal(ts(t, "2024-01-10T08:00:00Z")) || !out[1].Timestamp.Equal(ts(t, "2024-01-10T10:00:00Z")) {
		t.Fatalf("unexpected aligned times: %s %s", out[0].Timestamp, out[1].Timestamp)
	}
}

func TestComparisonEmptyWindow(t *testing.T) {
	all := []models.Reading{reading(t, "c", "2024-01-10T08:00:00Z", 9)}
	plan := period.Plan{Active: true, Window: period.Window{Empty: true}}
	if out, _, ok := Comparison(all, all, plan); ok || len(out) != 0 {
		t.Fatalf("empty comparison window should give no comparison: %+v", out)
	}
	if out, _, ok := Comparison(all, all, period.Plan{}); ok || out != nil {
		t.Fatal("inactive plan should give no comparison")
	}
}

func TestCombineWithoutComparison(t *testing.T) {
	current := []models.Reading{
		reading(t, "a", "2024-01-10T08:00:00Z", 10),
		reading(t, "b", "2024-01-10T08:00:00Z", 11),
		reading(t, "c", "2024-01-10T10:00:00Z", 14),
	}
	points := Combine(current, nil)
	if len(points) != len(current) {
		t.Fatalf("expected %d points, got %d", len(current), len(points))
	}
	for i, p := range points {
		if p.CurrentValue == nil || *p.CurrentValue != current[i].Value || p.ComparisonValue != nil {
			t.Errorf("point %d = %+v", i, p)
		}
	}
}

func TestCombineMergesOnExactInstant(t *testing.T) {
	current := []models.Reading{
		reading(t, "a", "2024-01-10T08:00:00Z", 10),
		reading(t, "b", "2024-01-10T09:00:00Z", 12),
	}
	comparison := Align([]models.Reading{
		reading(t, "p1", "2024-01-09T07:00:00Z", 6),
		reading(t, "p2", "2024-01-09T09:00:00Z", 8),
	}, 24*time.Hour)

	points := Combine(current, comparison)
	if len(points) != 3 {
		t.Fatalf("expected 3 points, got %d", len(points))
	}
	if !points[0].Timestamp.Equal(ts(t, "2024-01-10T07:00:00Z")) || points[0].CurrentValue != nil || *points[0].ComparisonValue != 6 {
		t.Errorf("point 0 = %+v", points[0])
	}
	if points[1].ComparisonValue != nil || *points[1].CurrentValue != 10 {
		t.Errorf("point 1 = %+v", points[1])
	}
	if *points[2].CurrentValue != 12 || points[2].ComparisonValue == nil || *points[2].ComparisonValue != 8 {
		t.Errorf("point 2 = %+v", points[2])
	}
}

func TestCombineEmpty(t *testing.T) {
	points := Combine(nil, nil)
	if points == nil || len(points) != 0 {
		t.Fatal("combining empty series should give an empty, non-nil slice")
	}
}

func TestSummarize(t *testing.T) {
	readings := []models.Reading{
		reading(t, "a", "2024-01-10T08:00:00Z", 10),
		reading(t, "nan", "2024-01-10T09:00:00Z", math.NaN()),
		reading(t, "b", "2024-01-10T10:00:00Z", 14),
		reading(t, "c", "2024-01-10T11:00:00Z", 9),
	}
	s := Summarize(readings)
	if s.Count != 4 {
		t.Errorf("Count = %d", s.Count)
	}
	if s.Min == nil || s.Min.Value != 9 || !s.Min.Timestamp.Equal(ts(t, "2024-01-10T11:00:00Z")) {
		t.Errorf("Min = %+v", s.Min)
	}
	if s.Max == nil || s.Max.Value != 14 {
		t.Errorf("Max = %+v", s.Max)
	}
	if empty := Summarize(nil); empty.Min != nil || empty.Max != nil || empty.Count != 0 {
		t.Errorf("empty summary = %+v", empty)
	}
}
