// Package period describes the time windows a dashboard can show and turns
// them into concrete instants.
package period

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	ErrInvalidPeriod     = errors.New("invalid period")
	ErrInvalidComparison = errors.New("invalid comparison")
	ErrInvalidDate       = errors.New("invalid date, expected YYYY-MM-DD")
)

type Kind string

const (
	KindToday     Kind = "today"
	KindYesterday Kind = "yesterday"
	KindRolling   Kind = "rolling"
	KindCustom    Kind = "custom"
)

// RollingChoices are the selectable rolling window lengths in days.
var RollingChoices = []int{1, 3, 7, 30}

// Period is the primary window selector.
type Period struct {
	Kind Kind
	// Days is set for KindRolling.
	Days int
	// From and To are set for KindCustom. A zero To means a single day.
	From Date
	To   Date
}

func Today() Period     { return Period{Kind: KindToday} }
func Yesterday() Period { return Period{Kind: KindYesterday} }

func RollingDays(n int) Period {
	return Period{Kind: KindRolling, Days: n}
}

func Custom(from, to Date) Period {
	return Period{Kind: KindCustom, From: from, To: to}
}

// LastDay is the inclusive end day of a custom period.
func (p Period) LastDay() Date {
	if p.To.IsZero() {
		return p.From
	}
	return p.To
}

func (p Period) Validate() error {
	switch p.Kind {
	case KindToday, KindYesterday:
		return nil
	case KindRolling:
		for _, n := range RollingChoices {
			if p.Days == n {
				return nil
			}
		}
		return fmt.Errorf("%w: rolling window of %d days is not supported", ErrInvalidPeriod, p.Days)
	case KindCustom:
		if p.From.IsZero() {
			return fmt.Errorf("%w: custom period needs a start date", ErrInvalidPeriod)
		}
		return nil
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidPeriod, p.Kind)
	}
}

func (p Period) String() string {
	switch p.Kind {
	case KindRolling:
		return strconv.Itoa(p.Days)
	case KindCustom:
		if p.To.IsZero() {
			return "custom:" + p.From.String()
		}
		return "custom:" + p.From.String() + ".." + p.To.String()
	default:
		return string(p.Kind)
	}
}

// Parse reads a selector as used in query strings: "today", "yesterday",
// a rolling day count ("1", "3", "7", "30") or "custom" with from/to dates.
func Parse(selector, from, to string) (Period, error) {
	selector = strings.ToLower(strings.TrimSpace(selector))
	var p Period
	switch selector {
	case "", string(KindToday):
		p = Today()
	case string(KindYesterday):
		p = Yesterday()
	case string(KindCustom):
		start, end, err := parseRange(from, to)
		if err != nil {
			return Period{}, err
		}
		p = Custom(start, end)
	default:
		n, err := strconv.Atoi(strings.TrimSuffix(selector, "d"))
		if err != nil {
			return Period{}, fmt.Errorf("%w: %q", ErrInvalidPeriod, selector)
		}
		p = RollingDays(n)
	}
	if err := p.Validate(); err != nil {
		return Period{}, err
	}
	return p, nil
}

type Mode string

const (
	CompareOff    Mode = "off"
	CompareAuto   Mode = "auto"
	CompareCustom Mode = "custom"
)

// Comparison selects the second window overlaid on the primary one.
type Comparison struct {
	Mode Mode
	From Date
	To   Date
}

func NoComparison() Comparison   { return Comparison{Mode: CompareOff} }
func AutoComparison() Comparison { return Comparison{Mode: CompareAuto} }

func CustomComparison(from, to Date) Comparison {
	return Comparison{Mode: CompareCustom, From: from, To: to}
}

// ParseComparison accepts a custom comparison without dates; it resolves to
// an empty window rather than an error.
func ParseComparison(mode, from, to string) (Comparison, error) {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "", string(CompareOff), "none":
		return NoComparison(), nil
	case string(CompareAuto):
		return AutoComparison(), nil
	case string(CompareCustom):
		start, end, err := parseRange(from, to)
		if err != nil {
			return Comparison{}, err
		}
		return CustomComparison(start, end), nil
	default:
		return Comparison{}, fmt.Errorf("%w: %q", ErrInvalidComparison, mode)
	}
}

func parseRange(from, to string) (Date, Date, error) {
	var start, end Date
	var err error
	if s := strings.TrimSpace(from); s != "" {
		if start, err = ParseDate(s); err != nil {
			return Date{}, Date{}, err
		}
	}
	if s := strings.TrimSpace(to); s != "" {
		if end, err = ParseDate(s); err != nil {
			return Date{}, Date{}, err
		}
	}
	return start, end, nil
}

// Option is one entry of the period selector.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

func Catalogue() []Option {
	return []Option{
		{Value: "today", Label: "Today"},
		{Value: "yesterday", Label: "Yesterday"},
		{Value: "1", Label: "24 hours"},
		{Value: "3", Label: "3 days"},
		{Value: "7", Label: "7 days"},
		{Value: "30", Label: "30 days"},
		{Value: "custom", Label: "Custom"},
	}
}

// AxisFormat is the tick label pattern suited to the period length.
func AxisFormat(p Period) string {
	const (
		clock    = "HH:mm"
		dayClock = "d MMM HH:mm"
		day      = "d MMM"
	)
	switch p.Kind {
	case KindToday, KindYesterday:
		return clock
	case KindRolling:
		switch {
		case p.Days <= 1:
			return clock
		case p.Days <= 7:
			return dayClock
		default:
			return day
		}
	case KindCustom:
		last := p.LastDay()
		switch {
		case !p.From.Before(last):
			return clock
		case !p.From.AddDays(6).Before(last):
			return dayClock
		default:
			return day
		}
	}
	return clock
}
