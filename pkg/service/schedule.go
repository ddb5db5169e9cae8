// Package service orchestrates scheduling runs and calendar edits.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/aravinth-krishna/learnit-scheduler/pkg/calendar"
	"github.com/aravinth-krishna/learnit-scheduler/pkg/database"
	"github.com/aravinth-krishna/learnit-scheduler/pkg/lock"
	"github.com/aravinth-krishna/learnit-scheduler/pkg/models"
	"github.com/aravinth-krishna/learnit-scheduler/pkg/repository"
	"github.com/aravinth-krishna/learnit-scheduler/pkg/scheduler"
)

var (
	ErrInvalidEvent  = errors.New("service: invalid event")
	ErrInvalidModule = errors.New("service: invalid module")
)

// Title given to an event when its module link is removed
const unlinkedTitle = "Study Session"

// ScheduleService runs auto-scheduling and manages a user's calendar
type ScheduleService struct {
	repo    *repository.Repository
	locker  lock.Locker
	logger  *zap.Logger
	now     func() time.Time
	horizon time.Duration
}

// Option customizes a ScheduleService
type Option func(*ScheduleService)

// WithClock replaces time.Now as the default run start
func WithClock(now func() time.Time) Option {
	return func(s *ScheduleService) { s.now = now }
}

// WithHorizon sets how far ahead a run may place blocks
func WithHorizon(d time.Duration) Option {
	return func(s *ScheduleService) { s.horizon = d }
}

// NewScheduleService creates a ScheduleService
func NewScheduleService(repo *repository.Repository, locker lock.Locker, logger *zap.Logger, opts ...Option) *ScheduleService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &ScheduleService{
		repo:    repo,
		locker:  locker,
		logger:  logger,
		now:     time.Now,
		horizon: scheduler.DefaultHorizon,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AutoSchedule fills the user's calendar with study blocks for every
// unscheduled module. Runs for the same user are serialized.
func (s *ScheduleService) AutoSchedule(ctx context.Context, userID uint, req models.AutoScheduleRequest) (*models.AutoScheduleResponse, error) {
	release, err := s.locker.Acquire(ctx, lock.UserKey(userID))
	if err != nil {
		return nil, err
	}
	defer release()

	cfg, err := s.PreviewConfig(ctx, userID, req)
	if err != nil {
		return nil, err
	}

	var (
		modules []models.Module
		busy    []models.BusyInterval
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		modules, err = scheduler.NewModuleSelector(s.repo.Modules).Select(gctx, userID, cfg)
		if err != nil {
			return fmt.Errorf("load modules: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		busy, err = s.repo.Events.LoadBusyIntervals(gctx, userID)
		if err != nil {
			return fmt.Errorf("load events: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := scheduler.NewAllocator(cfg, busy, scheduler.WithHorizon(s.horizon)).Allocate(modules)
	for _, err := range result.Errors {
		var inf *scheduler.InfeasibleError
		if errors.As(err, &inf) {
			s.logger.Warn("module not schedulable",
				zap.Uint("user_id", userID),
				zap.Uint("module_id", inf.ModuleID),
				zap.Duration("remaining", inf.Remaining),
			)
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	events, err := s.repo.Events.PersistNewEvents(ctx, userID, result.Events)
	if err != nil {
		return nil, fmt.Errorf("persist events: %w", err)
	}
	if events == nil {
		events = []models.ScheduleEvent{}
	}

	s.logger.Info("auto-schedule finished",
		zap.Uint("user_id", userID),
		zap.Int("modules", len(modules)),
		zap.Int("events", len(events)),
		zap.Int("infeasible", len(result.Conflicts)),
	)

	return &models.AutoScheduleResponse{
		ScheduledEventCount:        len(events),
		EffectiveWeeklyLimitHours:  cfg.WeeklyLimitHours,
		EffectiveMaxDailyHours:     cfg.MaxDailyHours,
		EffectiveMaxSessionMinutes: cfg.MaxSessionMinutes,
		Events:                     events,
		Conflicts:                  result.Conflicts,
	}, nil
}

// PreviewConfig resolves the parameters a run would use for the request,
// with the user's saved preferences as defaults
func (s *ScheduleService) PreviewConfig(ctx context.Context, userID uint, req models.AutoScheduleRequest) (models.SchedulingConfig, error) {
	user, err := s.repo.Users.Get(ctx, userID)
	if err != nil {
		return models.SchedulingConfig{}, fmt.Errorf("load user: %w", err)
	}
	profile := scheduler.Profile{
		MaxSessionMinutes: user.MaxSessionMinutes,
		WeeklyLimitHours:  user.WeeklyLimitHours,
	}
	return scheduler.ResolveConfig(req, profile, s.now()), nil
}

// EventInput is the editable part of an event
type EventInput struct {
	Title          string     `json:"title"`
	StartUtc       time.Time  `json:"start_utc"`
	EndUtc         *time.Time `json:"end_utc"`
	AllDay         bool       `json:"all_day"`
	CourseModuleID *uint      `json:"course_module_id"`
}

func (in EventInput) validate() error {
	switch {
	case strings.TrimSpace(in.Title) == "":
		return fmt.Errorf("%w: title is required", ErrInvalidEvent)
	case in.StartUtc.IsZero():
		return fmt.Errorf("%w: start is required", ErrInvalidEvent)
	case in.EndUtc != nil && in.EndUtc.Before(in.StartUtc):
		return fmt.Errorf("%w: end before start", ErrInvalidEvent)
	}
	return nil
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

// ListEvents returns the user's events overlapping [from, to]
func (s *ScheduleService) ListEvents(ctx context.Context, userID uint, from, to *time.Time) ([]database.ScheduleEvent, error) {
	return s.repo.Events.List(ctx, userID, from, to)
}

// CreateEvent adds a manual event. It waits for any running auto-schedule
// of the same user so the run never overlaps an event it did not see.
func (s *ScheduleService) CreateEvent(ctx context.Context, userID uint, in EventInput) (*database.ScheduleEvent, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	release, err := s.locker.Acquire(ctx, lock.UserKey(userID))
	if err != nil {
		return nil, err
	}
	defer release()

	if err := s.checkModule(ctx, userID, in.CourseModuleID); err != nil {
		return nil, err
	}
	e := &database.ScheduleEvent{
		UserID:         userID,
		Title:          strings.TrimSpace(in.Title),
		StartUtc:       in.StartUtc.UTC(),
		EndUtc:         utcPtr(in.EndUtc),
		AllDay:         in.AllDay,
		CourseModuleID: in.CourseModuleID,
	}
	if err := s.repo.Events.Create(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

// UpdateEvent replaces every editable field of an event
func (s *ScheduleService) UpdateEvent(ctx context.Context, userID, id uint, in EventInput) (*database.ScheduleEvent, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	release, err := s.locker.Acquire(ctx, lock.UserKey(userID))
	if err != nil {
		return nil, err
	}
	defer release()

	e, err := s.repo.Events.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if err := s.checkModule(ctx, userID, in.CourseModuleID); err != nil {
		return nil, err
	}
	e.Title = strings.TrimSpace(in.Title)
	e.StartUtc = in.StartUtc.UTC()
	e.EndUtc = utcPtr(in.EndUtc)
	e.AllDay = in.AllDay
	e.CourseModuleID = in.CourseModuleID
	e.UpdatedAt = s.now().UTC()
	if err := s.repo.Events.Update(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

// DeleteEvent removes one event
func (s *ScheduleService) DeleteEvent(ctx context.Context, userID, id uint) error {
	release, err := s.locker.Acquire(ctx, lock.UserKey(userID))
	if err != nil {
		return err
	}
	defer release()
	return s.repo.Events.Delete(ctx, userID, id)
}

// ResetAll removes every event of the user
func (s *ScheduleService) ResetAll(ctx context.Context, userID uint) (int64, error) {
	release, err := s.locker.Acquire(ctx, lock.UserKey(userID))
	if err != nil {
		return 0, err
	}
	defer release()
	return s.repo.Events.DeleteAll(ctx, userID)
}

// AvailableModules lists the user's modules that no event is linked to
func (s *ScheduleService) AvailableModules(ctx context.Context, userID uint) ([]models.Module, error) {
	return s.repo.Modules.ListAvailable(ctx, userID)
}

// LinkModule attaches a module to an event and retitles it after the module
func (s *ScheduleService) LinkModule(ctx context.Context, userID, eventID, moduleID uint) (*database.ScheduleEvent, error) {
	release, err := s.locker.Acquire(ctx, lock.UserKey(userID))
	if err != nil {
		return nil, err
	}
	defer release()

	e, err := s.repo.Events.Get(ctx, userID, eventID)
	if err != nil {
		return nil, err
	}
	m, err := s.repo.Modules.GetOwned(ctx, userID, moduleID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrInvalidModule
	}
	if err != nil {
		return nil, err
	}

	e.CourseModuleID = &m.ID
	e.Title = fmt.Sprintf("%s - %s", m.Course.Title, m.Title)
	e.UpdatedAt = s.now().UTC()
	if err := s.repo.Events.Update(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

// UnlinkModule detaches an event from its module
func (s *ScheduleService) UnlinkModule(ctx context.Context, userID, eventID uint) (*database.ScheduleEvent, error) {
	release, err := s.locker.Acquire(ctx, lock.UserKey(userID))
	if err != nil {
		return nil, err
	}
	defer release()

	e, err := s.repo.Events.Get(ctx, userID, eventID)
	if err != nil {
		return nil, err
	}
	e.CourseModuleID = nil
	e.Title = unlinkedTitle
	e.UpdatedAt = s.now().UTC()
	if err := s.repo.Events.Update(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

// ExportICS renders the user's events overlapping [from, to] as iCalendar
func (s *ScheduleService) ExportICS(ctx context.Context, userID uint, from, to *time.Time) (string, error) {
	events, err := s.repo.Events.List(ctx, userID, from, to)
	if err != nil {
		return "", err
	}
	return calendar.Export(events, "LearnIt study plan"), nil
}

func (s *ScheduleService) checkModule(ctx context.Context, userID uint, moduleID *uint) error {
	if moduleID == nil {
		return nil
	}
	_, err := s.repo.Modules.GetOwned(ctx, userID, *moduleID)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrInvalidModule
	}
	return err
}
