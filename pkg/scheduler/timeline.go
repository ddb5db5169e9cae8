package scheduler

import (
	"fmt"
	"time"
)

// FixedOffset returns the user's local timeline for an offset given in
// minutes with the convention local = UTC - offset (UTC+2 is -120).
// Everything downstream only needs a *time.Location, so an IANA zone from
// time.LoadLocation can be used instead.
func FixedOffset(offsetMinutes int) *time.Location {
	east := -offsetMinutes
	sign := '+'
	if east < 0 {
		sign = '-'
		east = -east
	}
	return time.FixedZone(fmt.Sprintf("UTC%c%02d:%02d", sign, east/60, east%60), -offsetMinutes*60)
}

// atHour returns the local instant at hour:00 on the day of t shifted by days.
func atHour(t time.Time, days, hour int) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d+days, hour, 0, 0, 0, t.Location())
}

func isWeekend(t time.Time) bool {
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// weekStart returns Monday 00:00 of the ISO week containing t.
func weekStart(t time.Time) time.Time {
	offset := (int(t.Weekday()) + 6) % 7
	return atHour(t, -offset, 0)
}

func dayKey(t time.Time) string {
	return t.Format("2006-01-02")
}

func weekKey(t time.Time) string {
	return weekStart(t).Format("2006-01-02")
}
