package series

import (
	"time"

	"temperature-dashboard/models"
	"temperature-dashboard/period"
)

// AlignmentOffset is the duration that moves the first comparison reading
// onto the first current reading. It is undefined when either side is empty.
func AlignmentOffset(current, comparison []models.Reading) (time.Duration, bool) {
	if len(current) == 0 || len(comparison) == 0 {
		return 0, false
	}
	return current[0].Timestamp.Sub(comparison[0].Timestamp), true
}

// Align shifts every reading by shift and marks it as a comparison point.
// The original instant is kept in SourceTime.
func Align(readings []models.Reading, shift time.Duration) []models.Reading {
	out := make([]models.Reading, 0, len(readings))
	for _, r := range readings {
		src := r.SourceTime
		if src.IsZero() {
			src = r.Timestamp
		}
		out = append(out, models.Reading{
			ID:         r.ID,
			Timestamp:  r.Timestamp.Add(shift),
			Value:      r.Value,
			Comparison: true,
			SourceTime: src,
		})
	}
	sortByTime(out)
	return out
}

// Comparison builds the aligned comparison series for plan. current is the
// already filtered primary series; all is the full normalized series.
// It returns the shift applied and false when no comparison could be made.
func Comparison(all, current []models.Reading, plan period.Plan) ([]models.Reading, time.Duration, bool) {
	if !plan.Active {
		return nil, 0, false
	}
	raw := Filter(all, plan.Window)
	if len(raw) == 0 {
		return nil, 0, false
	}
	shift := plan.Shift
	if !plan.FixedShift {
		var ok bool
		if shift, ok = AlignmentOffset(current, raw); !ok {
			return nil, 0, false
		}
	}
	return Align(raw, shift), shift, true
}
