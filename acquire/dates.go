package acquire

import "time"

// DD/MM/YYYY, the format the checkpoint file and the portal share.
const dayLayout = "02/01/2006"

func parseDay(s string) (time.Time, error) {
	return time.Parse(dayLayout, s)
}

func formatDay(t time.Time) string {
	return t.Format(dayLayout)
}

// monthsBetween lists the first-of-month anchors covering [start, end].
func monthsBetween(start, end time.Time) []time.Time {
	var out []time.Time
	m := time.Date(start.Year(), start.Month(), 1, 0, 0, 0, 0, time.UTC)
	last := time.Date(end.Year(), end.Month(), 1, 0, 0, 0, 0, time.UTC)
	for !m.After(last) {
		out = append(out, m)
		m = m.AddDate(0, 1, 0)
	}
	return out
}

// monthBounds gives the first and last day of the month holding m.
func monthBounds(m time.Time) (time.Time, time.Time) {
	first := time.Date(m.Year(), m.Month(), 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1)
	return first, last
}

func israelTZ() *time.Location {
	loc, _ := time.LoadLocation("Asia/Jerusalem")
	return loc
}
