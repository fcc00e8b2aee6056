// Package series turns feed snapshots into ordered, filtered and overlaid
// reading sequences. Every function here is pure: inputs are never modified.
package series

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"temperature-dashboard/models"
)

// Layouts accepted for feed timestamps, tried in order. Layouts without a
// zone are read in the dashboard location.
var timestampLayouts = []struct {
	layout string
	zoned  bool
}{
	{time.RFC3339Nano, true},
	{"2006-01-02T15:04:05.999999999Z0700", true},
	{"2006-01-02T15:04Z07:00", true},
	{"2006-01-02 15:04:05.999999999Z07:00", true},
	{"2006-01-02T15:04:05.999999999", false},
	{"2006-01-02T15:04", false},
	{"2006-01-02 15:04:05.999999999", false},
	{"2006-01-02 15:04", false},
}

// ParseTimestamp reads an ISO-8601-like feed timestamp. A bare date is taken
// as UTC midnight.
func ParseTimestamp(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if loc == nil {
		loc = time.Local
	}
	for _, l := range timestampLayouts {
		var t time.Time
		var err error
		if l.zoned {
			t, err = time.Parse(l.layout, s)
		} else {
			t, err = time.ParseInLocation(l.layout, s, loc)
		}
		if err == nil {
			return t, nil
		}
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("unparseable timestamp %q", s)
}

// ParseValue converts a feed value to float64. Anything that is not a number
// becomes NaN.
func ParseValue(v models.RawValue) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(string(v)), 64)
	if err != nil {
		return math.NaN()
	}
	return f
}

// Report lists records that needed attention during normalisation.
type Report struct {
	// Malformed ids kept with a NaN value.
	Malformed []string
	// Dropped ids whose timestamp could not be placed on the time axis.
	Dropped []string
}

// Normalize converts a snapshot into readings sorted ascending by timestamp.
// Readings sharing an instant are ordered by id, so the result does not
// depend on map iteration order.
func Normalize(snapshot models.Snapshot, loc *time.Location) ([]models.Reading, Report) {
	var report Report
	readings := make([]models.Reading, 0, len(snapshot))
	for id, rec := range snapshot {
		ts, err := ParseTimestamp(rec.Timestamp, loc)
		if err != nil {
			report.Dropped = append(report.Dropped, id)
			continue
		}
		value := ParseValue(rec.Value)
		if math.IsNaN(value) || math.IsInf(value, 0) {
			report.Malformed = append(report.Malformed, id)
		}
		readings = append(readings, models.Reading{ID: id, Timestamp: ts, Value: value})
	}
	sort.Slice(readings, func(i, j int) bool {
		if !readings[i].Timestamp.Equal(readings[j].Timestamp) {
			return readings[i].Timestamp.Before(readings[j].Timestamp)
		}
		return readings[i].ID < readings[j].ID
	})
	sort.Strings(report.Malformed)
	sort.Strings(report.Dropped)
	return readings, report
}

// Latest returns the reading with the greatest timestamp. On ties the one
// found last wins, which for a normalized series is the last element.
func Latest(readings []models.Reading) (models.Reading, bool) {
	if len(readings) == 0 {
		return models.Reading{}, false
	}
	best := 0
	for i := 1; i < len(readings); i++ {
		if !readings[i].Timestamp.Before(readings[best].Timestamp) {
			best = i
		}
	}
	return readings[best], true
}
