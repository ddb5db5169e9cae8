package scheduler

import (
	"time"

	"github.com/aravinth-krishna/learnit-scheduler/pkg/models"
)

// Aligner snaps instants forward into the allowed work window
type Aligner struct {
	cfg models.SchedulingConfig
	loc *time.Location
}

// NewAligner creates an aligner for a config on the given local timeline
func NewAligner(cfg models.SchedulingConfig, loc *time.Location) *Aligner {
	return &Aligner{cfg: cfg, loc: loc}
}

// Align returns the earliest instant at or after t that lies inside the work
// window. Each rule only moves the instant forward, so the loop settles.
func (a *Aligner) Align(t time.Time) time.Time {
	t = t.In(a.loc)
	for {
		next := a.step(t)
		if next.Equal(t) {
			return next
		}
		t = next
	}
}

func (a *Aligner) step(t time.Time) time.Time {
	if !a.cfg.IncludeWeekends && isWeekend(t) {
		return atHour(t, 1, a.cfg.PreferredStartHour)
	}
	if t.Hour() < a.cfg.PreferredStartHour {
		return atHour(t, 0, a.cfg.PreferredStartHour)
	}
	if t.Hour() >= a.cfg.PreferredEndHour {
		return atHour(t, 1, a.cfg.PreferredStartHour)
	}
	if a.cfg.SpansLunch() && t.Hour() == models.LunchStartHour {
		return atHour(t, 0, models.LunchEndHour)
	}
	return t
}

// NextDay returns the start of the work window on the following local day
func (a *Aligner) NextDay(t time.Time) time.Time {
	return atHour(t.In(a.loc), 1, a.cfg.PreferredStartHour)
}

// NextWeek returns the start of the work window on the Monday after t
func (a *Aligner) NextWeek(t time.Time) time.Time {
	return atHour(weekStart(t.In(a.loc)), 7, a.cfg.PreferredStartHour)
}

// DayBoundary is the end of the contiguous stretch of window that t sits in:
// lunch start while the morning is still running, otherwise the end hour.
func (a *Aligner) DayBoundary(t time.Time) time.Time {
	t = t.In(a.loc)
	if lunch := atHour(t, 0, models.LunchStartHour); a.cfg.SpansLunch() && t.Before(lunch) {
		return lunch
	}
	return atHour(t, 0, a.cfg.PreferredEndHour)
}

// ClipLunch shortens a block starting at start so it does not run into the
// lunch gap.
func (a *Aligner) ClipLunch(start, end time.Time) time.Time {
	if !a.cfg.SpansLunch() {
		return end
	}
	lunch := atHour(start.In(a.loc), 0, models.LunchStartHour)
	if start.Before(lunch) && end.After(lunch) {
		return lunch
	}
	return end
}
