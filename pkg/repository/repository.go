package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/aravinth-krishna/learnit-scheduler/pkg/database"
	"github.com/aravinth-krishna/learnit-scheduler/pkg/models"
)

// ErrNotFound is returned for unknown ids and for rows owned by another user
var ErrNotFound = errors.New("repository: not found")

// Length assumed for events stored without an end
const defaultEventLength = time.Hour

// Repository groups the gorm-backed stores
type Repository struct {
	Users   *UserRepo
	Courses *CourseRepo
	Modules *ModuleRepo
	Events  *EventRepo
}

// New creates every store over one connection
func New(db *gorm.DB) *Repository {
	return &Repository{
		Users:   &UserRepo{db: db},
		Courses: &CourseRepo{db: db},
		Modules: &ModuleRepo{db: db},
		Events:  &EventRepo{db: db},
	}
}

func valueOrNull[T any](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// UserRepo reads and updates user profiles
type UserRepo struct {
	db *gorm.DB
}

// Get loads a user by id
func (r *UserRepo) Get(ctx context.Context, userID uint) (*database.User, error) {
	var user database.User
	if err := r.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

// UpdatePreferences stores the user's scheduling defaults. A nil value
// clears the preference so the built-in default applies again.
func (r *UserRepo) UpdatePreferences(ctx context.Context, userID uint, maxSessionMinutes *int, weeklyLimitHours *float64) (*database.User, error) {
	res := r.db.WithContext(ctx).
		Model(&database.User{}).
		Where("id = ?", userID).
		Updates(map[string]any{
			"max_session_minutes": valueOrNull(maxSessionMinutes),
			"weekly_limit_hours":  valueOrNull(weeklyLimitHours),
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return r.Get(ctx, userID)
}

// ModuleRepo reads the module backlog
type ModuleRepo struct {
	db *gorm.DB
}

func (r *ModuleRepo) ownedModules(ctx context.Context, userID uint) *gorm.DB {
	linked := r.db.Model(&database.ScheduleEvent{}).
		Select("course_module_id").
		Where("user_id = ? AND course_module_id IS NOT NULL", userID)

	return r.db.WithContext(ctx).
		Joins("Course").
		Where("\"Course\".\"user_id\" = ?", userID).
		Where("course_modules.id NOT IN (?)", linked)
}

// LoadUnscheduledModules returns modules of the user's active courses that
// are not completed and not linked to any of the user's events. courseOrder
// only affects ordering later and does not filter.
func (r *ModuleRepo) LoadUnscheduledModules(ctx context.Context, userID uint, courseOrder []uint) ([]models.Module, error) {
	var rows []database.CourseModule
	err := r.ownedModules(ctx, userID).
		Where("\"Course\".\"is_active\" = ?", true).
		Where("course_modules.is_completed = ?", false).
		Order("course_modules.id").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return toModules(rows), nil
}

// ListAvailable returns every unscheduled module of the user regardless of
// course state
func (r *ModuleRepo) ListAvailable(ctx context.Context, userID uint) ([]models.Module, error) {
	var rows []database.CourseModule
	if err := r.ownedModules(ctx, userID).Order("course_modules.id").Find(&rows).Error; err != nil {
		return nil, err
	}
	return toModules(rows), nil
}

// GetOwned loads one module of the user with its course
func (r *ModuleRepo) GetOwned(ctx context.Context, userID, moduleID uint) (*database.CourseModule, error) {
	var row database.CourseModule
	err := r.db.WithContext(ctx).
		Joins("Course").
		Where("\"Course\".\"user_id\" = ?", userID).
		First(&row, "course_modules.id = ?", moduleID).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &row, nil
}

func toModules(rows []database.CourseModule) []models.Module {
	out := make([]models.Module, 0, len(rows))
	for _, row := range rows {
		m := models.Module{
			ID:             row.ID,
			CourseID:       row.CourseID,
			Title:          row.Title,
			EstimatedHours: row.EstimatedHours,
			OrderIndex:     row.Order,
			IsCompleted:    row.IsCompleted,
		}
		if c := row.Course; c != nil {
			m.CourseTitle = c.Title
			m.CourseDifficulty = models.Difficulty(c.Difficulty)
			m.CoursePriority = models.Priority(c.Priority)
			m.CourseTargetDate = c.TargetCompletionDate
			m.IsCourseActive = c.IsActive
		}
		out = append(out, m)
	}
	return out
}
