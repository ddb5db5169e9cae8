package scheduler

import (
	"context"
	"math"
	"sort"

	"github.com/aravinth-krishna/learnit-scheduler/pkg/models"
)

// ModuleSource loads a user's candidate backlog: modules of active courses
// that are not completed and not yet linked to an event.
type ModuleSource interface {
	LoadUnscheduledModules(ctx context.Context, userID uint, courseOrder []uint) ([]models.Module, error)
}

// ModuleSelector loads the backlog and orders it by urgency
type ModuleSelector struct {
	source ModuleSource
}

// NewModuleSelector creates a selector over a module source
func NewModuleSelector(source ModuleSource) *ModuleSelector {
	return &ModuleSelector{source: source}
}

// Select returns the eligible modules of a user in scheduling order
func (s *ModuleSelector) Select(ctx context.Context, userID uint, cfg models.SchedulingConfig) ([]models.Module, error) {
	modules, err := s.source.LoadUnscheduledModules(ctx, userID, cfg.CourseOrder)
	if err != nil {
		return nil, err
	}
	return OrderModules(modules, cfg.CourseOrder), nil
}

// Eligible reports whether a module may be scheduled at all
func Eligible(m models.Module) bool {
	return m.IsCourseActive && !m.IsCompleted
}

const unranked = math.MaxInt

// OrderModules filters out ineligible modules and sorts the rest by explicit
// course rank, course target date (none last), course priority and the
// module's own order. The input slice is not modified.
func OrderModules(modules []models.Module, courseOrder []uint) []models.Module {
	rank := make(map[uint]int, len(courseOrder))
	for i, id := range courseOrder {
		if _, seen := rank[id]; !seen {
			rank[id] = i
		}
	}
	rankOf := func(m models.Module) int {
		if r, ok := rank[m.CourseID]; ok {
			return r
		}
		return unranked
	}

	out := make([]models.Module, 0, len(modules))
	for _, m := range modules {
		if Eligible(m) {
			out = append(out, m)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if ra, rb := rankOf(a), rankOf(b); ra != rb {
			return ra < rb
		}
		if c := compareTargets(a, b); c != 0 {
			return c < 0
		}
		if pa, pb := a.CoursePriority.Rank(), b.CoursePriority.Rank(); pa != pb {
			return pa < pb
		}
		if a.OrderIndex != b.OrderIndex {
			return a.OrderIndex < b.OrderIndex
		}
		return a.ID < b.ID
	})
	return out
}

func compareTargets(a, b models.Module) int {
	switch {
	case a.CourseTargetDate == nil && b.CourseTargetDate == nil:
		return 0
	case a.CourseTargetDate == nil:
		return 1
	case b.CourseTargetDate == nil:
		return -1
	}
	return a.CourseTargetDate.Compare(*b.CourseTargetDate)
}
