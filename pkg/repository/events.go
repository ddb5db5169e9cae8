package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/aravinth-krishna/learnit-scheduler/pkg/database"
	"github.com/aravinth-krishna/learnit-scheduler/pkg/models"
)

const persistBatchSize = 100

// EventRepo stores calendar events
type EventRepo struct {
	db *gorm.DB
}

// LoadBusyIntervals returns every event of the user as a busy interval,
// ordered by start then id. Events without an end last one hour; all-day
// events last a full day.
func (r *EventRepo) LoadBusyIntervals(ctx context.Context, userID uint) ([]models.BusyInterval, error) {
	var rows []database.ScheduleEvent
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("start_utc, id").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make([]models.BusyInterval, 0, len(rows))
	for _, row := range rows {
		out = append(out, BusyIntervalOf(row))
	}
	return out, nil
}

// BusyIntervalOf converts a stored event into the time it blocks
func BusyIntervalOf(e database.ScheduleEvent) models.BusyInterval {
	start := e.StartUtc.UTC()
	switch {
	case e.AllDay:
		return models.BusyInterval{Start: start, End: start.Add(24 * time.Hour)}
	case e.EndUtc == nil || !e.EndUtc.After(start):
		return models.BusyInterval{Start: start, End: start.Add(defaultEventLength)}
	default:
		return models.BusyInterval{Start: start, End: e.EndUtc.UTC()}
	}
}

// PersistNewEvents inserts a run's events in one transaction and fills in
// their ids. Nothing is written if any insert fails.
func (r *EventRepo) PersistNewEvents(ctx context.Context, userID uint, events []models.ScheduleEvent) ([]models.ScheduleEvent, error) {
	if len(events) == 0 {
		return events, nil
	}

	now := time.Now().UTC()
	rows := make([]database.ScheduleEvent, len(events))
	for i, e := range events {
		end := e.EndUtc
		moduleID := e.LinkedModuleID
		rows[i] = database.ScheduleEvent{
			UserID:         userID,
			Title:          e.Title,
			StartUtc:       e.StartUtc,
			EndUtc:         &end,
			CourseModuleID: &moduleID,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.CreateInBatches(&rows, persistBatchSize).Error
	})
	if err != nil {
		return nil, err
	}

	out := make([]models.ScheduleEvent, len(events))
	for i, e := range events {
		e.ID = rows[i].ID
		out[i] = e
	}
	return out, nil
}

// List returns the user's events overlapping [from, to], with their module
// and course, ordered by start
func (r *EventRepo) List(ctx context.Context, userID uint, from, to *time.Time) ([]database.ScheduleEvent, error) {
	q := r.db.WithContext(ctx).
		Preload("CourseModule.Course").
		Where("user_id = ?", userID)
	if from != nil {
		q = q.Where("((end_utc IS NULL AND start_utc >= ?) OR end_utc >= ?)", from.UTC(), from.UTC())
	}
	if to != nil {
		q = q.Where("start_utc <= ?", to.UTC())
	}

	var rows []database.ScheduleEvent
	if err := q.Order("start_utc, id").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Get loads one event of the user
func (r *EventRepo) Get(ctx context.Context, userID, id uint) (*database.ScheduleEvent, error) {
	var row database.ScheduleEvent
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&row, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &row, nil
}

// Create inserts a single event
func (r *EventRepo) Create(ctx context.Context, e *database.ScheduleEvent) error {
	return r.db.WithContext(ctx).Create(e).Error
}

// Update saves every column of an existing event
func (r *EventRepo) Update(ctx context.Context, e *database.ScheduleEvent) error {
	res := r.db.WithContext(ctx).
		Model(&database.ScheduleEvent{}).
		Where("id = ? AND user_id = ?", e.ID, e.UserID).
		Select("title", "start_utc", "end_utc", "all_day", "course_module_id", "updated_at").
		Updates(e)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes one event of the user
func (r *EventRepo) Delete(ctx context.Context, userID, id uint) error {
	res := r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&database.ScheduleEvent{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteAll removes every event of the user and reports how many were removed
func (r *EventRepo) DeleteAll(ctx context.Context, userID uint) (int64, error) {
	res := r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&database.ScheduleEvent{})
	return res.RowsAffected, res.Error
}
