package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"strings"
	"time"
)

// RawValue keeps the textual form of a feed value. The feed sends either a
// JSON number or a JSON string, both are accepted as-is.
type RawValue string

func (v *RawValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*v = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = RawValue(s)
		return nil
	}
	if data[0] == '{' || data[0] == '[' {
		return errors.New("value must be a number or a string")
	}
	*v = RawValue(data)
	return nil
}

func (v RawValue) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(v))
}

// RawRecord is one entry of the feed collection, as delivered by the feed.
type RawRecord struct {
	Timestamp string   `json:"timestamp"`
	Value     RawValue `json:"value"`
}

func (r *RawRecord) Validate() error {
	if strings.TrimSpace(r.Timestamp) == "" {
		return errors.New("timestamp is required")
	}
	return nil
}

// Snapshot is the entire feed collection keyed by feed-assigned id.
type Snapshot map[string]RawRecord

// Reading is one timestamped sensor value. Value may be NaN when the feed
// sent something that is not a number.
type Reading struct {
	ID        string
	Timestamp time.Time
	Value     float64
	// Comparison marks readings remapped onto the current time axis.
	Comparison bool
	// SourceTime is the timestamp before alignment; zero for current readings.
	SourceTime time.Time
}

func (r Reading) HasValue() bool {
	return !math.IsNaN(r.Value) && !math.IsInf(r.Value, 0)
}

func (r Reading) MarshalJSON() ([]byte, error) {
	out := struct {
		ID         string     `json:"id"`
		Timestamp  time.Time  `json:"timestamp"`
		Value      *float64   `json:"value"`
		Comparison bool       `json:"comparison,omitempty"`
		SourceTime *time.Time `json:"source_timestamp,omitempty"`
	}{
		ID:         r.ID,
		Timestamp:  r.Timestamp,
		Value:      Finite(r.Value),
		Comparison: r.Comparison,
	}
	if !r.SourceTime.IsZero() {
		st := r.SourceTime
		out.SourceTime = &st
	}
	return json.Marshal(out)
}

// CombinedPoint is one x-axis entry of the chart. At least one of the two
// values is set.
type CombinedPoint struct {
	Timestamp       time.Time
	CurrentValue    *float64
	ComparisonValue *float64
}

func (p CombinedPoint) MarshalJSON() ([]byte, error) {
	out := struct {
		Timestamp       time.Time `json:"timestamp"`
		CurrentValue    *float64  `json:"current_value,omitempty"`
		ComparisonValue *float64  `json:"comparison_value,omitempty"`
		CurrentMissing  bool      `json:"current_missing,omitempty"`
		CompareMissing  bool      `json:"comparison_missing,omitempty"`
	}{Timestamp: p.Timestamp}
	if p.CurrentValue != nil {
		out.CurrentValue = Finite(*p.CurrentValue)
		out.CurrentMissing = out.CurrentValue == nil
	}
	if p.ComparisonValue != nil {
		out.ComparisonValue = Finite(*p.ComparisonValue)
		out.CompareMissing = out.ComparisonValue == nil
	}
	return json.Marshal(out)
}

// Extreme is a value and the instant it was observed.
type Extreme struct {
	Value     float64   `json:"value"`
	Timestamp time.Time `json:"timestamp"`
}

// Summary describes the currently filtered window.
type Summary struct {
	Count int      `json:"count"`
	Min   *Extreme `json:"min"`
	Max   *Extreme `json:"max"`
}

// Finite returns nil for NaN and infinities so they encode as JSON null.
func Finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
