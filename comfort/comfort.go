// Package comfort classifies temperatures by season for display.
package comfort

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
)

const (
	Blue   = "#3b82f6"
	Cyan   = "#06b6d4"
	Green  = "#10b981"
	Orange = "#f59e0b"
	Red    = "#ef4444"
	// Neutral is used when there is no usable value.
	Neutral = "#667eea"
)

type Season string

const (
	Summer Season = "summer"
	Winter Season = "winter"
	Mid    Season = "mid"
)

// Band is one threshold step; Below is the exclusive upper bound.
type Band struct {
	Below   float64
	Color   string
	Message string
}

var bands = map[Season][]Band{
	Summer: {
		{20, Blue, "Cold for the season"},
		{25, Green, "Pleasant"},
		{30, Orange, "Warm"},
		{math.Inf(1), Red, "Very hot!"},
	},
	Winter: {
		{5, Blue, "Really cold"},
		{10, Cyan, "Chilly"},
		{15, Green, "Mild"},
		{math.Inf(1), Orange, "Warm for the season"},
	},
	Mid: {
		{10, Blue, "A bit chilly"},
		{16, Cyan, "Cool"},
		{22, Green, "Ideal"},
		{26, Orange, "Pleasantly warm"},
		{math.Inf(1), Red, "Hot"},
	},
}

// SeasonOf maps June-September to summer and December-February to winter.
func SeasonOf(m time.Month) Season {
	switch {
	case m >= time.June && m <= time.September:
		return Summer
	case m == time.December || m <= time.February:
		return Winter
	default:
		return Mid
	}
}

type Classification struct {
	Season  Season `json:"season"`
	Color   string `json:"color"`
	Message string `json:"message"`
}

func Classify(value float64, month time.Month) Classification {
	season := SeasonOf(month)
	if math.IsNaN(value) {
		return Classification{Season: season, Color: Neutral}
	}
	for _, b := range bands[season] {
		if value < b.Below {
			return Classification{Season: season, Color: b.Color, Message: b.Message}
		}
	}
	last := bands[season][len(bands[season])-1]
	return Classification{Season: season, Color: last.Color, Message: last.Message}
}

// Round returns v rounded to one decimal, or nil when v is not finite.
func Round(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	r := decimal.NewFromFloat(v).Round(1).InexactFloat64()
	return &r
}

// Display is the text shown for a value, "--" when missing.
func Display(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "--"
	}
	return decimal.NewFromFloat(v).StringFixed(1)
}
