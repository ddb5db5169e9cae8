package scheduler

import (
	"errors"
	"fmt"
	"time"
)

// ErrInfeasible is returned when a module's demand cannot be placed before
// the scheduling horizon. Use errors.As with *InfeasibleError for details.
var ErrInfeasible = errors.New("scheduler: module demand does not fit within the scheduling horizon")

// InfeasibleError names the module that was abandoned
type InfeasibleError struct {
	ModuleID  uint
	Remaining time.Duration
	Horizon   time.Duration
}

func (e *InfeasibleError) Error() string {
	return fmt.Sprintf("scheduler: module %d has %s unplaced after a %s horizon", e.ModuleID, e.Remaining, e.Horizon)
}

func (e *InfeasibleError) Unwrap() error {
	return ErrInfeasible
}
