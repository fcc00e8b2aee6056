package period

import "time"

// RelativeLabel names t by its day in loc relative to now: "today at 15:04",
// "yesterday at 15:04", otherwise the day and month ("2 Jan").
func RelativeLabel(t, now time.Time, loc *time.Location) string {
	if t.IsZero() {
		return ""
	}
	local := t.In(loc)
	today := DateOf(now, loc)
	switch DateOf(t, loc) {
	case today:
		return "today at " + local.Format("15:04")
	case today.AddDays(-1):
		return "yesterday at " + local.Format("15:04")
	default:
		return local.Format("2 Jan")
	}
}
