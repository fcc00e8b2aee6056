package series

import (
	"sort"

	"temperature-dashboard/models"
)

// Combine merges the current and aligned comparison series into chart points
// keyed by exact instant. Each current reading yields one point; a comparison
// reading joins the current point at the same instant or gets its own.
func Combine(current, comparison []models.Reading) []models.CombinedPoint {
	points := make([]models.CombinedPoint, 0, len(current)+len(comparison))
	index := make(map[int64]int, len(current)+len(comparison))

	for _, r := range current {
		v := r.Value
		index[r.Timestamp.UnixNano()] = len(points)
		points = append(points, models.CombinedPoint{Timestamp: r.Timestamp, CurrentValue: &v})
	}
	for _, r := range comparison {
		v := r.Value
		key := r.Timestamp.UnixNano()
		if i, ok := index[key]; ok {
			points[i].ComparisonValue = &v
			continue
		}
		index[key] = len(points)
		points = append(points, models.CombinedPoint{Timestamp: r.Timestamp, ComparisonValue: &v})
	}

	sort.SliceStable(points, func(i, j int) bool {
		return points[i].Timestamp.Before(points[j].Timestamp)
	})
	return points
}
