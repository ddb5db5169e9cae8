package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/aravinth-krishna/learnit-scheduler/pkg/database"
	"github.com/aravinth-krishna/learnit-scheduler/pkg/models"
	"github.com/aravinth-krishna/learnit-scheduler/pkg/repository"
)

// GetMySummary returns calendar totals for the authenticated user
func (h *Handler) GetMySummary(c *gin.Context) {
	ctx := c.Request.Context()
	userID := c.GetUint(userIDKey)

	var (
		events  []database.ScheduleEvent
		modules []models.Module
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		events, err = h.Schedules.ListEvents(gctx, userID, nil, nil)
		return err
	})
	g.Go(func() error {
		var err error
		modules, err = h.Schedules.AvailableModules(gctx, userID)
		return err
	})
	if err := g.Wait(); err != nil {
		h.fail(c, err)
		return
	}

	var linked int
	var busyHours, studyHours float64
	for _, e := range events {
		iv := repository.BusyIntervalOf(e)
		hours := iv.End.Sub(iv.Start).Hours()
		busyHours += hours
		if e.CourseModuleID != nil {
			linked++
			studyHours += hours
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"totals": gin.H{
			"events":            len(events),
			"linked_events":     linked,
			"busy_hours":        busyHours,
			"study_hours":       studyHours,
			"available_modules": len(modules),
		},
	})
}
