package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/aravinth-krishna/learnit-scheduler/pkg/auth"
	"github.com/aravinth-krishna/learnit-scheduler/pkg/database"
	"github.com/aravinth-krishna/learnit-scheduler/pkg/lock"
	"github.com/aravinth-krishna/learnit-scheduler/pkg/models"
	"github.com/aravinth-krishna/learnit-scheduler/pkg/repository"
	"github.com/aravinth-krishna/learnit-scheduler/pkg/service"
)

const (
	userIDKey  = "userID"
	appVersion = "1.0.0"
)

// Handler contains dependencies for the route handlers
type Handler struct {
	DB        *gorm.DB
	Schedules *service.ScheduleService
	Courses   *service.CourseService
	Tokens    *auth.TokenManager
	Logger    *zap.Logger
}

// Routes registers middleware and every endpoint on r
func (h *Handler) Routes(r *gin.Engine) {
	if h.Logger == nil {
		h.Logger = zap.NewNop()
	}
	r.Use(RequestID(), Logger(h.Logger), gin.Recovery())

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "LearnIt Scheduler API",
			"version": appVersion,
		})
	})

	authGroup := r.Group("/api/auth")
	{
		authGroup.POST("/register", h.Register)
		authGroup.POST("/login", h.Login)
	}

	courses := r.Group("/api/courses")
	courses.Use(h.AuthMiddleware())
	{
		courses.GET("", h.ListCourses)
		courses.POST("", h.CreateCourse)
		courses.POST("/:id/modules", h.AddModule)
	}

	profile := r.Group("/api/profile")
	profile.Use(h.AuthMiddleware())
	{
		profile.GET("", h.GetProfile)
		profile.PUT("/preferences", h.UpdatePreferences)
	}

	schedule := r.Group("/api/schedule")
	schedule.Use(h.AuthMiddleware())
	{
		schedule.GET("", h.ListEvents)
		schedule.POST("", h.CreateEvent)
		schedule.PUT("/:id", h.UpdateEvent)
		schedule.DELETE("/:id", h.DeleteEvent)
		schedule.DELETE("/reset", h.ResetAll)
		schedule.GET("/available-modules", h.AvailableModules)
		schedule.GET("/summary", h.GetMySummary)
		schedule.POST("/auto-schedule", h.AutoSchedule)
		schedule.POST("/auto-schedule/validate", h.ValidateAutoSchedule)
		schedule.POST("/:id/link-module/:moduleId", h.LinkModule)
		schedule.DELETE("/:id/unlink-module", h.UnlinkModule)
		schedule.GET("/export.ics", h.ExportICS)
	}
}

// AuthMiddleware verifies the bearer token and stores the caller's user id
func (h *Handler) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.GetHeader("Authorization")
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			c.Abort()
			return
		}

		claims, err := h.Tokens.VerifyToken(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			c.Abort()
			return
		}
		userID, err := claims.UserID()
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			c.Abort()
			return
		}

		c.Set(userIDKey, userID)
		c.Next()
	}
}

// fail maps a service error onto an HTTP status
func (h *Handler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidEvent), errors.Is(err, service.ErrInvalidModule),
		errors.Is(err, service.ErrInvalidCourse), errors.Is(err, service.ErrInvalidPreferences):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, repository.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	case errors.Is(err, lock.ErrLockTimeout):
		c.JSON(http.StatusConflict, gin.H{"error": "A scheduling run is already in progress"})
	default:
		_ = c.Error(err)
		h.Logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

func paramID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid %s", name)})
		return 0, false
	}
	return uint(id), true
}

func queryTime(c *gin.Context, name string) (*time.Time, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("%s must be an RFC3339 timestamp", name)})
		return nil, false
	}
	return &t, true
}

// Register creates an account and returns a token for it
func (h *Handler) Register(c *gin.Context) {
	var req struct {
		FullName string `json:"full_name"`
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := auth.Register(c.Request.Context(), h.DB, req.FullName, req.Email, req.Password)
	switch {
	case errors.Is(err, auth.ErrUserExists):
		c.JSON(http.StatusBadRequest, gin.H{"error": "User already exists"})
		return
	case errors.Is(err, auth.ErrInvalidCredentials):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email and password are required"})
		return
	case err != nil:
		h.fail(c, err)
		return
	}

	token, err := h.Tokens.CreateToken(user.ID, user.Email)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not create token"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"access_token": token, "token_type": "bearer", "user": user})
}

// Login handles user login
func (h *Handler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := auth.Authenticate(c.Request.Context(), h.DB, req.Email, req.Password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}
	if err != nil {
		h.fail(c, err)
		return
	}

	token, err := h.Tokens.CreateToken(user.ID, user.Email)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not create token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"access_token": token, "token_type": "bearer", "user": user})
}

// ListEvents returns the caller's events, optionally limited by from/to
func (h *Handler) ListEvents(c *gin.Context) {
	from, ok := queryTime(c, "from")
	if !ok {
		return
	}
	to, ok := queryTime(c, "to")
	if !ok {
		return
	}

	events, err := h.Schedules.ListEvents(c.Request.Context(), c.GetUint(userIDKey), from, to)
	if err != nil {
		h.fail(c, err)
		return
	}
	if events == nil {
		events = []database.ScheduleEvent{}
	}
	c.JSON(http.StatusOK, events)
}

// CreateEvent adds a manual event
func (h *Handler) CreateEvent(c *gin.Context) {
	var in service.EventInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	e, err := h.Schedules.CreateEvent(c.Request.Context(), c.GetUint(userIDKey), in)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, e)
}

// UpdateEvent replaces an event
func (h *Handler) UpdateEvent(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var in service.EventInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	e, err := h.Schedules.UpdateEvent(c.Request.Context(), c.GetUint(userIDKey), id, in)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, e)
}

// DeleteEvent removes an event
func (h *Handler) DeleteEvent(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.Schedules.DeleteEvent(c.Request.Context(), c.GetUint(userIDKey), id); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Event deleted"})
}

// ResetAll clears the caller's calendar
func (h *Handler) ResetAll(c *gin.Context) {
	removed, err := h.Schedules.ResetAll(c.Request.Context(), c.GetUint(userIDKey))
	if err != nil {
		h.fail(c, err)
		return
	}
	if removed == 0 {
		c.JSON(http.StatusOK, gin.H{"message": "No events to remove", "removed": 0})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "All schedule events cleared", "removed": removed})
}

// AvailableModules lists modules not linked to any event
func (h *Handler) AvailableModules(c *gin.Context) {
	modules, err := h.Schedules.AvailableModules(c.Request.Context(), c.GetUint(userIDKey))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, modules)
}

func bindAutoSchedule(c *gin.Context) (models.AutoScheduleRequest, error) {
	var req models.AutoScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		return req, err
	}
	return req, nil
}

// AutoSchedule runs the scheduler for the caller
func (h *Handler) AutoSchedule(c *gin.Context) {
	req, err := bindAutoSchedule(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := h.Schedules.AutoSchedule(c.Request.Context(), c.GetUint(userIDKey), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// LinkModule attaches a module to an event
func (h *Handler) LinkModule(c *gin.Context) {
	eventID, ok := paramID(c, "id")
	if !ok {
		return
	}
	moduleID, ok := paramID(c, "moduleId")
	if !ok {
		return
	}

	e, err := h.Schedules.LinkModule(c.Request.Context(), c.GetUint(userIDKey), eventID, moduleID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Event linked to module", "event": e})
}

// UnlinkModule detaches an event from its module
func (h *Handler) UnlinkModule(c *gin.Context) {
	eventID, ok := paramID(c, "id")
	if !ok {
		return
	}

	e, err := h.Schedules.UnlinkModule(c.Request.Context(), c.GetUint(userIDKey), eventID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Event unlinked from module", "event": e})
}

// ExportICS downloads the caller's calendar as an .ics file
func (h *Handler) ExportICS(c *gin.Context) {
	from, ok := queryTime(c, "from")
	if !ok {
		return
	}
	to, ok := queryTime(c, "to")
	if !ok {
		return
	}

	body, err := h.Schedules.ExportICS(c.Request.Context(), c.GetUint(userIDKey), from, to)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="learnit.ics"`)
	c.Data(http.StatusOK, "text/calendar; charset=utf-8", []byte(body))
}
