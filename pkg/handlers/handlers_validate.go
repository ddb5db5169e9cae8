package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ValidateAutoSchedule reports the parameters an auto-schedule request would
// run with after clamping, without scheduling anything
func (h *Handler) ValidateAutoSchedule(c *gin.Context) {
	req, err := bindAutoSchedule(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"valid": false,
			"error": err.Error(),
		})
		return
	}

	cfg, err := h.Schedules.PreviewConfig(c.Request.Context(), c.GetUint(userIDKey), req)
	if err != nil {
		h.fail(c, err)
		return
	}

	seen := make(map[uint]bool, len(req.CourseOrderIDs))
	for _, id := range req.CourseOrderIDs {
		if seen[id] {
			c.JSON(http.StatusOK, gin.H{"valid": false, "error": "Duplicate course id in course_order_ids", "config": cfg})
			return
		}
		seen[id] = true
	}

	c.JSON(http.StatusOK, gin.H{
		"valid":  true,
		"config": cfg,
	})
}
