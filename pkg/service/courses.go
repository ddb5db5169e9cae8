package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/aravinth-krishna/learnit-scheduler/pkg/database"
	"github.com/aravinth-krishna/learnit-scheduler/pkg/models"
	"github.com/aravinth-krishna/learnit-scheduler/pkg/repository"
)

var (
	ErrInvalidCourse      = errors.New("service: invalid course")
	ErrInvalidPreferences = errors.New("service: invalid preferences")
)

// CourseService manages the courses, modules and preferences a run reads
type CourseService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewCourseService creates a CourseService
func NewCourseService(repo *repository.Repository, logger *zap.Logger) *CourseService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CourseService{repo: repo, logger: logger}
}

// ModuleInput describes one module of a course
type ModuleInput struct {
	Title          string  `json:"title"`
	EstimatedHours float64 `json:"estimated_hours"`
	Order          int     `json:"order"`
}

func (in ModuleInput) validate() error {
	switch {
	case strings.TrimSpace(in.Title) == "":
		return fmt.Errorf("%w: module title is required", ErrInvalidCourse)
	case in.EstimatedHours < 0:
		return fmt.Errorf("%w: estimated hours must not be negative", ErrInvalidCourse)
	case in.Order < 0:
		return fmt.Errorf("%w: order must not be negative", ErrInvalidCourse)
	}
	return nil
}

func (in ModuleInput) row() database.CourseModule {
	return database.CourseModule{
		Title:          strings.TrimSpace(in.Title),
		EstimatedHours: in.EstimatedHours,
		Order:          in.Order,
	}
}

// CourseInput describes a new course
type CourseInput struct {
	Title                string        `json:"title"`
	Difficulty           string        `json:"difficulty"`
	Priority             string        `json:"priority"`
	TargetCompletionDate *time.Time    `json:"target_completion_date"`
	IsActive             *bool         `json:"is_active"`
	Modules              []ModuleInput `json:"modules"`
}

func (in CourseInput) validate() error {
	if strings.TrimSpace(in.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidCourse)
	}
	switch models.Difficulty(in.Difficulty) {
	case "", models.Beginner, models.Intermediate, models.Advanced:
	default:
		return fmt.Errorf("%w: unknown difficulty %q", ErrInvalidCourse, in.Difficulty)
	}
	switch models.Priority(in.Priority) {
	case "", models.PriorityHigh, models.PriorityMedium, models.PriorityLow:
	default:
		return fmt.Errorf("%w: unknown priority %q", ErrInvalidCourse, in.Priority)
	}
	for _, m := range in.Modules {
		if err := m.validate(); err != nil {
			return err
		}
	}
	return nil
}

// ListCourses returns the user's courses with their modules
func (s *CourseService) ListCourses(ctx context.Context, userID uint) ([]database.Course, error) {
	return s.repo.Courses.List(ctx, userID)
}

// CreateCourse adds a course, active unless stated otherwise. Modules without
// an order follow the listed sequence.
func (s *CourseService) CreateCourse(ctx context.Context, userID uint, in CourseInput) (*database.Course, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	c := &database.Course{
		UserID:               userID,
		Title:                strings.TrimSpace(in.Title),
		Difficulty:           in.Difficulty,
		Priority:             in.Priority,
		TargetCompletionDate: utcPtr(in.TargetCompletionDate),
		IsActive:             in.IsActive == nil || *in.IsActive,
	}
	for i, m := range in.Modules {
		row := m.row()
		if row.Order == 0 {
			row.Order = i + 1
		}
		c.Modules = append(c.Modules, row)
	}

	if err := s.repo.Courses.Create(ctx, c); err != nil {
		return nil, err
	}
	s.logger.Info("course created",
		zap.Uint("user_id", userID),
		zap.Uint("course_id", c.ID),
		zap.Int("modules", len(c.Modules)),
	)
	return c, nil
}

// AddModule appends a module to one of the user's courses
func (s *CourseService) AddModule(ctx context.Context, userID, courseID uint, in ModuleInput) (*database.CourseModule, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	m := in.row()
	if err := s.repo.Courses.AddModule(ctx, userID, courseID, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// Preferences are the saved defaults a run falls back to. Nil clears one.
type Preferences struct {
	MaxSessionMinutes *int     `json:"max_session_minutes"`
	WeeklyLimitHours  *float64 `json:"weekly_limit_hours"`
}

// Profile returns the user's account
func (s *CourseService) Profile(ctx context.Context, userID uint) (*database.User, error) {
	return s.repo.Users.Get(ctx, userID)
}

// UpdatePreferences replaces the user's scheduling defaults
func (s *CourseService) UpdatePreferences(ctx context.Context, userID uint, p Preferences) (*database.User, error) {
	if p.MaxSessionMinutes != nil && *p.MaxSessionMinutes <= 0 {
		return nil, fmt.Errorf("%w: max session minutes must be positive", ErrInvalidPreferences)
	}
	if p.WeeklyLimitHours != nil && *p.WeeklyLimitHours < 0 {
		return nil, fmt.Errorf("%w: weekly limit must not be negative", ErrInvalidPreferences)
	}
	return s.repo.Users.UpdatePreferences(ctx, userID, p.MaxSessionMinutes, p.WeeklyLimitHours)
}
