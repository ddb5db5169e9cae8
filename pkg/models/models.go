package models

import "time"

// Difficulty is the authored difficulty of a course
type Difficulty string

const (
	Beginner     Difficulty = "Beginner"
	Intermediate Difficulty = "Intermediate"
	Advanced     Difficulty = "Advanced"
)

// Priority is the authored importance of a course
type Priority string

const (
	PriorityHigh   Priority = "High"
	PriorityMedium Priority = "Medium"
	PriorityLow    Priority = "Low"
)

// Rank orders priorities High < Medium < Low. Unknown values sort with Low.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 1
	case PriorityMedium:
		return 2
	default:
		return 3
	}
}

// Module is one unit of schedulable study work
type Module struct {
	ID               uint       `json:"id"`
	CourseID         uint       `json:"course_id"`
	CourseTitle      string     `json:"course_title"`
	Title            string     `json:"title"`
	EstimatedHours   float64    `json:"estimated_hours"`
	OrderIndex       int        `json:"order_index"`
	CourseDifficulty Difficulty `json:"course_difficulty"`
	CoursePriority   Priority   `json:"course_priority"`
	CourseTargetDate *time.Time `json:"course_target_date,omitempty"`
	IsCompleted      bool       `json:"is_completed"`
	IsCourseActive   bool       `json:"is_course_active"`
}

// BusyInterval is a time range that blocks further scheduling
type BusyInterval struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// SchedulingConfig holds the validated parameters of one scheduling run
type SchedulingConfig struct {
	PreferredStartHour    int       `json:"preferred_start_hour"`
	PreferredEndHour      int       `json:"preferred_end_hour"`
	IncludeWeekends       bool      `json:"include_weekends"`
	MaxSessionMinutes     int       `json:"max_session_minutes"`
	BufferMinutes         int       `json:"buffer_minutes"`
	MaxDailyHours         float64   `json:"max_daily_hours"`
	WeeklyLimitHours      float64   `json:"weekly_limit_hours"`
	TimezoneOffsetMinutes int       `json:"timezone_offset_minutes"`
	CourseOrder           []uint    `json:"course_order,omitempty"`
	StartInstant          time.Time `json:"start_instant"`
}

// WindowHours is the length of the daily work window
func (c SchedulingConfig) WindowHours() int {
	return c.PreferredEndHour - c.PreferredStartHour
}

// MaxBlock is the general per-block size cap
func (c SchedulingConfig) MaxBlock() time.Duration {
	return time.Duration(c.MaxSessionMinutes) * time.Minute
}

// Buffer is the gap enforced after every block
func (c SchedulingConfig) Buffer() time.Duration {
	return time.Duration(c.BufferMinutes) * time.Minute
}

// DailyLimit is the per-day budget
func (c SchedulingConfig) DailyLimit() time.Duration {
	return HoursToDuration(c.MaxDailyHours)
}

// WeeklyLimit is the per-ISO-week budget; zero means unlimited. A positive
// limit is never rounded below one second.
func (c SchedulingConfig) WeeklyLimit() time.Duration {
	if c.WeeklyLimitHours <= 0 {
		return 0
	}
	return max(HoursToDuration(c.WeeklyLimitHours), time.Second)
}

// WeeklyCapped reports whether a weekly limit applies at all
func (c SchedulingConfig) WeeklyCapped() bool {
	return c.WeeklyLimitHours > 0
}

// SpansLunch reports whether the work window contains the 12:00-13:00 gap
func (c SchedulingConfig) SpansLunch() bool {
	return c.PreferredStartHour < LunchStartHour && c.PreferredEndHour > LunchEndHour
}

// Lunch gap in local hours
const (
	LunchStartHour = 12
	LunchEndHour   = 13
)

// HoursToDuration converts fractional hours, rounded to the second
func HoursToDuration(hours float64) time.Duration {
	return time.Duration(hours * float64(time.Hour)).Round(time.Second)
}

// ScheduleEvent is a calendar block produced by the scheduler
type ScheduleEvent struct {
	ID             uint      `json:"id"`
	Title          string    `json:"title"`
	StartUtc       time.Time `json:"start_utc"`
	EndUtc         time.Time `json:"end_utc"`
	LinkedModuleID uint      `json:"linked_module_id"`
}

// Hours returns the event length in hours
func (e ScheduleEvent) Hours() float64 {
	return e.EndUtc.Sub(e.StartUtc).Hours()
}

// ConflictReason represents why a module could not be scheduled
type ConflictReason struct {
	ModuleID uint   `json:"module_id"`
	Title    string `json:"title"`
	Reason   string `json:"reason"`
}

// AutoScheduleRequest carries the optional caller parameters of a run
type AutoScheduleRequest struct {
	StartDateTime         *time.Time `json:"start_date_time"`
	PreferredStartHour    *int       `json:"preferred_start_hour"`
	PreferredEndHour      *int       `json:"preferred_end_hour"`
	IncludeWeekends       *bool      `json:"include_weekends"`
	MaxDailyHours         *float64   `json:"max_daily_hours"`
	MaxSessionMinutes     *int       `json:"max_session_minutes"`
	BufferMinutes         *int       `json:"buffer_minutes"`
	WeeklyLimitHours      *float64   `json:"weekly_limit_hours"`
	TimezoneOffsetMinutes *int       `json:"timezone_offset_minutes"`
	CourseOrderIDs        []uint     `json:"course_order_ids"`
}

// AutoScheduleResponse is the summary of a run
type AutoScheduleResponse struct {
	ScheduledEventCount        int              `json:"scheduled_event_count"`
	EffectiveWeeklyLimitHours  float64          `json:"effective_weekly_limit_hours"`
	EffectiveMaxDailyHours     float64          `json:"effective_max_daily_hours"`
	EffectiveMaxSessionMinutes int              `json:"effective_max_session_minutes"`
	Events                     []ScheduleEvent  `json:"events"`
	Conflicts                  []ConflictReason `json:"conflicts,omitempty"`
}
