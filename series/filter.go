package series

import (
	"sort"

	"temperature-dashboard/models"
	"temperature-dashboard/period"
)

// Filter keeps the readings inside w, sorted ascending by timestamp. Input
// order breaks ties.
func Filter(readings []models.Reading, w period.Window) []models.Reading {
	out := make([]models.Reading, 0)
	if w.Empty {
		return out
	}
	for _, r := range readings {
		if w.Contains(r.Timestamp) {
			out = append(out, r)
		}
	}
	sortByTime(out)
	return out
}

func sortByTime(readings []models.Reading) {
	sort.SliceStable(readings, func(i, j int) bool {
		return readings[i].Timestamp.Before(readings[j].Timestamp)
	})
}

// Summarize reports count and extremes of readings. Non-finite values are
// counted but never become an extreme.
func Summarize(readings []models.Reading) models.Summary {
	s := models.Summary{Count: len(readings)}
	for _, r := range readings {
		if !r.HasValue() {
			continue
		}
		if s.Min == nil || r.Value < s.Min.Value {
			s.Min = &models.Extreme{Value: r.Value, Timestamp: r.Timestamp}
		}
		if s.Max == nil || r.Value > s.Max.Value {
			s.Max = &models.Extreme{Value: r.Value, Timestamp: r.Timestamp}
		}
	}
	return s
}
