package scheduler

import (
	"fmt"
	"time"

	"github.com/aravinth-krishna/learnit-scheduler/pkg/models"
)

// DefaultHorizon bounds how far past the run start a module may be placed
const DefaultHorizon = 365 * 24 * time.Hour

// Allocator packs a module backlog into calendar blocks with a single
// deterministic forward scan.
type Allocator struct {
	cfg     models.SchedulingConfig
	loc     *time.Location
	horizon time.Duration

	aligner *Aligner
	budget  *BudgetTracker
	guard   *OverlapGuard
}

// Option customizes an Allocator
type Option func(*Allocator)

// WithHorizon overrides DefaultHorizon. Non-positive values are ignored.
func WithHorizon(d time.Duration) Option {
	return func(a *Allocator) {
		if d > 0 {
			a.horizon = d
		}
	}
}

// WithLocation replaces the fixed-offset timeline derived from the config
func WithLocation(loc *time.Location) Option {
	return func(a *Allocator) {
		if loc != nil {
			a.loc = loc
		}
	}
}

// NewAllocator creates an allocator for one run over the given busy set
func NewAllocator(cfg models.SchedulingConfig, busy []models.BusyInterval, opts ...Option) *Allocator {
	a := &Allocator{
		cfg:     cfg,
		loc:     FixedOffset(cfg.TimezoneOffsetMinutes),
		horizon: DefaultHorizon,
	}
	for _, opt := range opts {
		opt(a)
	}
	a.aligner = NewAligner(cfg, a.loc)
	a.budget = NewBudgetTracker(cfg, a.loc)
	a.guard = NewOverlapGuard(busy, cfg.Buffer())
	return a
}

// Result is the outcome of Allocate
type Result struct {
	Events    []models.ScheduleEvent
	Conflicts []models.ConflictReason
	// Errors holds one *InfeasibleError per abandoned module
	Errors []error
}

// Allocate places every module in order. A module that cannot be completed
// before the horizon is rolled back and reported; the scan continues with
// the next module from where the abandoned one started.
func (a *Allocator) Allocate(modules []models.Module) Result {
	var res Result
	cursor := a.aligner.Align(a.cfg.StartInstant)
	deadline := cursor.Add(a.horizon)

	for _, m := range modules {
		next, events, err := a.allocateModule(m, cursor, deadline)
		if err != nil {
			res.Errors = append(res.Errors, err)
			res.Conflicts = append(res.Conflicts, models.ConflictReason{
				ModuleID: m.ID,
				Title:    eventTitle(m),
				Reason:   err.Error(),
			})
			continue
		}
		res.Events = append(res.Events, events...)
		cursor = next
	}
	return res
}

// BlockCap is the largest block allowed for a module
func (a *Allocator) BlockCap(m models.Module) time.Duration {
	limit := a.cfg.MaxBlock()
	if m.CourseDifficulty == models.Advanced {
		limit = min(limit, time.Hour)
	}
	return limit
}

// Demand is the study time a module needs: one hour when the declared
// estimate is not positive, otherwise the estimate but at least one second.
func Demand(m models.Module) time.Duration {
	if m.EstimatedHours <= 0 {
		return time.Hour
	}
	return max(models.HoursToDuration(m.EstimatedHours), time.Second)
}

func (a *Allocator) allocateModule(m models.Module, start, deadline time.Time) (time.Time, []models.ScheduleEvent, error) {
	budgetMark := a.budget.Clone()
	guardMark := a.guard.Len()

	remaining := Demand(m)
	blockCap := a.BlockCap(m)
	cursor := start
	var events []models.ScheduleEvent

	for remaining > 0 {
		cursor = a.aligner.Align(cursor)
		if !cursor.Before(deadline) {
			a.budget = budgetMark
			a.guard.Rollback(guardMark)
			return start, nil, &InfeasibleError{ModuleID: m.ID, Remaining: remaining, Horizon: a.horizon}
		}

		weekLeft := a.budget.RemainingThisWeek(cursor)
		if weekLeft <= 0 {
			cursor = a.aligner.NextWeek(cursor)
			continue
		}
		dayLeft := a.budget.RemainingToday(cursor)
		if dayLeft <= 0 {
			cursor = a.aligner.NextDay(cursor)
			continue
		}

		available := a.aligner.DayBoundary(cursor).Sub(cursor)
		block := min(blockCap, remaining, available, dayLeft, weekLeft)
		if block <= 0 {
			cursor = a.aligner.NextDay(cursor)
			continue
		}

		end := a.aligner.ClipLunch(cursor, cursor.Add(block))
		block = end.Sub(cursor)

		if conflict, retry := a.guard.CheckAndAdvance(cursor, end); conflict {
			cursor = retry
			continue
		}

		events = append(events, models.ScheduleEvent{
			Title:          eventTitle(m),
			StartUtc:       cursor.UTC(),
			EndUtc:         end.UTC(),
			LinkedModuleID: m.ID,
		})
		a.guard.Add(models.BusyInterval{Start: cursor, End: end})
		a.budget.Commit(cursor, block)
		remaining -= block
		cursor = end.Add(a.cfg.Buffer())
	}

	return a.aligner.Align(cursor), events, nil
}

func eventTitle(m models.Module) string {
	return fmt.Sprintf("%s - %s", m.CourseTitle, m.Title)
}
