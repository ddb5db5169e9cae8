package scheduler

import (
	"cmp"
	"time"

	"github.com/aravinth-krishna/learnit-scheduler/pkg/models"
)

// Defaults applied when neither the request nor the user profile sets a value.
const (
	DefaultStartHour         = 8
	DefaultEndHour           = 18
	DefaultSessionMinutes    = 60
	DefaultBufferMinutes     = 15
	DefaultWeeklyLimitHours  = 20.0
	DefaultDailyHoursCeiling = 6.0
	maxOffsetMinutes         = 14 * 60
)

// Profile carries per-user stored preferences that sit between the request
// and the built-in defaults.
type Profile struct {
	MaxSessionMinutes *int
	WeeklyLimitHours  *float64
}

func clamp[T cmp.Ordered](v, lo, hi T) T {
	return max(lo, min(v, hi))
}

func pick[T any](values ...*T) (T, bool) {
	for _, v := range values {
		if v != nil {
			return *v, true
		}
	}
	var zero T
	return zero, false
}

// ResolveConfig normalizes raw request parameters into a bounded
// SchedulingConfig. Out-of-range values are clamped, never rejected.
func ResolveConfig(req models.AutoScheduleRequest, profile Profile, now time.Time) models.SchedulingConfig {
	var cfg models.SchedulingConfig

	startHour, ok := pick(req.PreferredStartHour)
	if !ok {
		startHour = DefaultStartHour
	}
	cfg.PreferredStartHour = clamp(startHour, 5, 12)

	endHour, ok := pick(req.PreferredEndHour)
	if !ok {
		endHour = DefaultEndHour
	}
	cfg.PreferredEndHour = clamp(endHour, cfg.PreferredStartHour+2, 22)

	if req.IncludeWeekends != nil {
		cfg.IncludeWeekends = *req.IncludeWeekends
	}

	session, ok := pick(req.MaxSessionMinutes, profile.MaxSessionMinutes)
	if !ok {
		session = DefaultSessionMinutes
	}
	cfg.MaxSessionMinutes = clamp(session, 30, 180)

	buffer, ok := pick(req.BufferMinutes)
	if !ok {
		buffer = DefaultBufferMinutes
	}
	cfg.BufferMinutes = clamp(buffer, 5, 45)

	window := float64(cfg.WindowHours())
	daily, ok := pick(req.MaxDailyHours)
	if !ok {
		daily = min(window, DefaultDailyHoursCeiling)
	}
	cfg.MaxDailyHours = clamp(daily, 2, window)

	weekly, ok := pick(req.WeeklyLimitHours, profile.WeeklyLimitHours)
	if !ok {
		weekly = DefaultWeeklyLimitHours
	}
	cfg.WeeklyLimitHours = max(weekly, 0)

	if req.TimezoneOffsetMinutes != nil {
		cfg.TimezoneOffsetMinutes = clamp(*req.TimezoneOffsetMinutes, -maxOffsetMinutes, maxOffsetMinutes)
	}

	cfg.CourseOrder = append([]uint(nil), req.CourseOrderIDs...)

	start := now
	if req.StartDateTime != nil {
		start = *req.StartDateTime
	}
	cfg.StartInstant = ceilMinute(start.UTC())

	return cfg
}

func ceilMinute(t time.Time) time.Time {
	floor := t.Truncate(time.Minute)
	if floor.Equal(t) {
		return t
	}
	return floor.Add(time.Minute)
}
