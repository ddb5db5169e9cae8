package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/aravinth-krishna/learnit-scheduler/pkg/models"
)

// 2024-01-08 is a Monday.
var monday = time.Date(2024, 1, 8, 9, 0, 0, 0, time.UTC)

func baseConfig() models.SchedulingConfig {
	return models.SchedulingConfig{
		PreferredStartHour: 9,
		PreferredEndHour:   17,
		MaxSessionMinutes:  90,
		BufferMinutes:      15,
		MaxDailyHours:      6,
		WeeklyLimitHours:   20,
		StartInstant:       monday,
	}
}

func module(id uint, hours float64) models.Module {
	return models.Module{
		ID:             id,
		CourseID:       id,
		CourseTitle:    "Course",
		Title:          "Module",
		EstimatedHours: hours,
		CoursePriority: models.PriorityMedium,
		IsCourseActive: true,
	}
}

func ptr[T any](v T) *T {
	return &v
}

// assertInvariants checks every property a run's output must satisfy.
func assertInvariants(t *testing.T, cfg models.SchedulingConfig, busy []models.BusyInterval, modules []models.Module, events []models.ScheduleEvent) {
	t.Helper()
	loc := FixedOffset(cfg.TimezoneOffsetMinutes)
	alloc := NewAllocator(cfg, nil)

	for i, a := range events {
		for j := i + 1; j < len(events); j++ {
			b := events[j]
			assert.False(t, Overlap(a.StartUtc, a.EndUtc, b.StartUtc, b.EndUtc), "events %d and %d overlap", i, j)
		}
		for _, iv := range busy {
			assert.False(t, Overlap(a.StartUtc, a.EndUtc, iv.Start, iv.End), "event %d overlaps busy interval", i)
		}
	}

	byModule := make(map[uint]models.Module, len(modules))
	for _, m := range modules {
		byModule[m.ID] = m
	}

	daily := make(map[string]time.Duration)
	weekly := make(map[string]time.Duration)
	demand := make(map[uint]time.Duration)
	for _, e := range events {
		start, end := e.StartUtc.In(loc), e.EndUtc.In(loc)
		d := end.Sub(start)
		assert.True(t, d > 0, "empty event %v", e)
		assert.Equal(t, dayKey(start), dayKey(end.Add(-time.Nanosecond)), "event crosses midnight")
		assert.GreaterOrEqual(t, start.Hour(), cfg.PreferredStartHour)
		assert.False(t, end.After(atHour(start, 0, cfg.PreferredEndHour)), "event ends after window: %v", e)
		if cfg.SpansLunch() {
			assert.False(t, Overlap(start, end, atHour(start, 0, 12), atHour(start, 0, 13)), "event crosses lunch: %v", e)
		}
		if !cfg.IncludeWeekends {
			assert.False(t, isWeekend(start), "weekend event: %v", e)
		}
		m := byModule[e.LinkedModuleID]
		assert.LessOrEqual(t, d, alloc.BlockCap(m))

		daily[dayKey(start)] += d
		weekly[weekKey(start)] += d
		demand[e.LinkedModuleID] += d
	}
	for day, used := range daily {
		assert.LessOrEqual(t, used, cfg.DailyLimit(), "day %s over budget", day)
	}
	if cfg.WeeklyLimitHours > 0 {
		for week, used := range weekly {
			assert.LessOrEqual(t, used, cfg.WeeklyLimit(), "week %s over budget", week)
		}
	}
	for id, got := range demand {
		assert.Equal(t, Demand(byModule[id]), got, "module %d demand", id)
	}
}
