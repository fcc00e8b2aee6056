package period

import "encoding/json"

// Unset dates are left out of the JSON form instead of being sent as "".

type periodJSON struct {
	Kind Kind  `json:"kind"`
	Days int   `json:"days,omitempty"`
	From *Date `json:"from,omitempty"`
	To   *Date `json:"to,omitempty"`
}

type comparisonJSON struct {
	Mode Mode  `json:"mode"`
	From *Date `json:"from,omitempty"`
	To   *Date `json:"to,omitempty"`
}

func optionalDate(d Date) *Date {
	if d.IsZero() {
		return nil
	}
	return &d
}

func (p Period) MarshalJSON() ([]byte, error) {
	return json.Marshal(periodJSON{
		Kind: p.Kind,
		Days: p.Days,
		From: optionalDate(p.From),
		To:   optionalDate(p.To),
	})
}

func (c Comparison) MarshalJSON() ([]byte, error) {
	return json.Marshal(comparisonJSON{
		Mode: c.Mode,
		From: optionalDate(c.From),
		To:   optionalDate(c.To),
	})
}

// MarshalJSON omits the bounds of an empty window.
func (w Window) MarshalJSON() ([]byte, error) {
	if w.Empty {
		return []byte(`{"empty":true}`), nil
	}
	type plain Window
	return json.Marshal(plain(w))
}
