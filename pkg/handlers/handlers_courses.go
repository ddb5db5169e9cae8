package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/aravinth-krishna/learnit-scheduler/pkg/database"
	"github.com/aravinth-krishna/learnit-scheduler/pkg/service"
)

// ListCourses returns the caller's courses with their modules
func (h *Handler) ListCourses(c *gin.Context) {
	courses, err := h.Courses.ListCourses(c.Request.Context(), c.GetUint(userIDKey))
	if err != nil {
		h.fail(c, err)
		return
	}
	if courses == nil {
		courses = []database.Course{}
	}
	c.JSON(http.StatusOK, courses)
}

// CreateCourse adds a course, optionally with its modules
func (h *Handler) CreateCourse(c *gin.Context) {
	var in service.CourseInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	course, err := h.Courses.CreateCourse(c.Request.Context(), c.GetUint(userIDKey), in)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, course)
}

// AddModule appends a module to a course
func (h *Handler) AddModule(c *gin.Context) {
	courseID, ok := paramID(c, "id")
	if !ok {
		return
	}
	var in service.ModuleInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	m, err := h.Courses.AddModule(c.Request.Context(), c.GetUint(userIDKey), courseID, in)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, m)
}

// GetProfile returns the caller's account and saved preferences
func (h *Handler) GetProfile(c *gin.Context) {
	user, err := h.Courses.Profile(c.Request.Context(), c.GetUint(userIDKey))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// UpdatePreferences replaces the caller's scheduling defaults
func (h *Handler) UpdatePreferences(c *gin.Context) {
	var in service.Preferences
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.Courses.UpdatePreferences(c.Request.Context(), c.GetUint(userIDKey), in)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}
