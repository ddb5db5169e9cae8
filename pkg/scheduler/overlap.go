package scheduler

import (
	"time"

	"github.com/aravinth-krishna/learnit-scheduler/pkg/models"
)

// Overlap checks if two time ranges overlap
func Overlap(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}

// OverlapGuard holds the busy intervals of a run, both pre-existing and the
// ones accepted so far.
type OverlapGuard struct {
	buffer time.Duration
	busy   []models.BusyInterval
}

// NewOverlapGuard copies the pre-existing intervals, keeping their order
func NewOverlapGuard(existing []models.BusyInterval, buffer time.Duration) *OverlapGuard {
	return &OverlapGuard{
		buffer: buffer,
		busy:   append([]models.BusyInterval(nil), existing...),
	}
}

// CheckAndAdvance reports whether [start, end) hits a busy interval. On the
// first hit it also returns the restart point: that interval's end plus the
// buffer.
func (g *OverlapGuard) CheckAndAdvance(start, end time.Time) (bool, time.Time) {
	for _, iv := range g.busy {
		if Overlap(start, end, iv.Start, iv.End) {
			return true, iv.End.Add(g.buffer)
		}
	}
	return false, start
}

// Add registers an accepted interval
func (g *OverlapGuard) Add(iv models.BusyInterval) {
	g.busy = append(g.busy, iv)
}

// Len is the number of intervals held; use it as a mark for Rollback
func (g *OverlapGuard) Len() int {
	return len(g.busy)
}

// Rollback drops every interval added after mark
func (g *OverlapGuard) Rollback(mark int) {
	if mark < len(g.busy) {
		g.busy = g.busy[:mark]
	}
}

// Intervals returns a copy of the held intervals
func (g *OverlapGuard) Intervals() []models.BusyInterval {
	return append([]models.BusyInterval(nil), g.busy...)
}
