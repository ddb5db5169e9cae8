package scheduler

import (
	"maps"
	"math"
	"time"

	"github.com/aravinth-krishna/learnit-scheduler/pkg/models"
)

// Unlimited is reported as the remaining weekly budget when no weekly limit
// is configured.
const Unlimited = time.Duration(math.MaxInt64)

// BudgetTracker keeps the hours used per local day and per ISO week of one run
type BudgetTracker struct {
	daily  time.Duration
	weekly time.Duration
	capped bool
	loc    *time.Location

	usedByDay  map[string]time.Duration
	usedByWeek map[string]time.Duration
}

// NewBudgetTracker creates an empty tracker for the config's limits
func NewBudgetTracker(cfg models.SchedulingConfig, loc *time.Location) *BudgetTracker {
	return &BudgetTracker{
		daily:      cfg.DailyLimit(),
		weekly:     cfg.WeeklyLimit(),
		capped:     cfg.WeeklyCapped(),
		loc:        loc,
		usedByDay:  make(map[string]time.Duration),
		usedByWeek: make(map[string]time.Duration),
	}
}

// RemainingToday returns the daily budget left on t's local day
func (b *BudgetTracker) RemainingToday(t time.Time) time.Duration {
	return b.daily - b.usedByDay[dayKey(t.In(b.loc))]
}

// RemainingThisWeek returns the weekly budget left in t's ISO week
func (b *BudgetTracker) RemainingThisWeek(t time.Time) time.Duration {
	if !b.capped {
		return Unlimited
	}
	return b.weekly - b.usedByWeek[weekKey(t.In(b.loc))]
}

// Commit charges d to the day and week containing t
func (b *BudgetTracker) Commit(t time.Time, d time.Duration) {
	t = t.In(b.loc)
	b.usedByDay[dayKey(t)] += d
	b.usedByWeek[weekKey(t)] += d
}

// Clone returns an independent copy of the tracker
func (b *BudgetTracker) Clone() *BudgetTracker {
	c := *b
	c.usedByDay = maps.Clone(b.usedByDay)
	c.usedByWeek = maps.Clone(b.usedByWeek)
	return &c
}
