package period

import (
	"time"
)

const day = 24 * time.Hour

// Window is a resolved time range. End is inclusive unless HalfOpen is set.
type Window struct {
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
	HalfOpen bool      `json:"half_open,omitempty"`
	Empty    bool      `json:"empty,omitempty"`
}

func emptyWindow() Window {
	return Window{Empty: true}
}

func (w Window) Contains(t time.Time) bool {
	if w.Empty || t.Before(w.Start) {
		return false
	}
	if w.HalfOpen {
		return t.Before(w.End)
	}
	return !t.After(w.End)
}

// Shift moves both bounds by d.
func (w Window) Shift(d time.Duration) Window {
	if w.Empty {
		return w
	}
	w.Start = w.Start.Add(d)
	w.End = w.End.Add(d)
	return w
}

// midnight is local 00:00 of the day ref falls on, offset by days.
func midnight(ref time.Time, loc *time.Location, days int) time.Time {
	return DateOf(ref, loc).AddDays(days).StartOfDay(loc)
}

// Resolve turns p into concrete bounds relative to ref. Invalid periods yield
// an empty window.
func Resolve(p Period, ref time.Time, loc *time.Location) Window {
	if loc == nil {
		loc = time.Local
	}
	switch p.Kind {
	case KindToday:
		return Window{Start: midnight(ref, loc, 0), End: ref}
	case KindYesterday:
		return Window{Start: midnight(ref, loc, -1), End: midnight(ref, loc, 0), HalfOpen: true}
	case KindRolling:
		if p.Days <= 0 {
			return emptyWindow()
		}
		return Window{Start: ref.Add(-time.Duration(p.Days) * day), End: ref}
	case KindCustom:
		return resolveDays(p.From, p.To, loc)
	}
	return emptyWindow()
}

func resolveDays(from, to Date, loc *time.Location) Window {
	if from.IsZero() {
		return emptyWindow()
	}
	last := to
	if last.IsZero() {
		last = from
	}
	if last.Before(from) {
		return emptyWindow()
	}
	return Window{Start: from.StartOfDay(loc), End: last.EndOfDay(loc)}
}

// Plan describes how the comparison series is obtained.
type Plan struct {
	Active bool   `json:"active"`
	Window Window `json:"window"`
	// Shift is set when the offset follows from the period itself; otherwise
	// it is derived from the data during alignment.
	Shift      time.Duration `json:"shift"`
	FixedShift bool          `json:"fixed_shift"`
}

// ResolveComparison finds the comparison window for c given the primary
// period p. Auto comparison against a custom period is disabled.
func ResolveComparison(p Period, c Comparison, ref time.Time, loc *time.Location) Plan {
	if loc == nil {
		loc = time.Local
	}
	switch c.Mode {
	case CompareAuto:
		switch p.Kind {
		case KindToday:
			w := Window{Start: midnight(ref, loc, -1), End: midnight(ref, loc, 0), HalfOpen: true}
			return Plan{Active: true, Window: w, Shift: day, FixedShift: true}
		case KindYesterday:
			w := Window{Start: midnight(ref, loc, -2), End: midnight(ref, loc, -1), HalfOpen: true}
			return Plan{Active: true, Window: w, Shift: day, FixedShift: true}
		case KindRolling:
			if p.Days <= 0 {
				return Plan{}
			}
			n := time.Duration(p.Days) * day
			w := Window{Start: ref.Add(-2 * n), End: ref.Add(-n), HalfOpen: true}
			return Plan{Active: true, Window: w, Shift: n, FixedShift: true}
		}
		return Plan{}
	case CompareCustom:
		return Plan{Active: true, Window: resolveDays(c.From, c.To, loc)}
	}
	return Plan{}
}
