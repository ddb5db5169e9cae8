package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/aravinth-krishna/learnit-scheduler/pkg/database"
	"github.com/aravinth-krishna/learnit-scheduler/pkg/models"
)

type fixture struct {
	db      *gorm.DB
	repo    *Repository
	user    database.User
	other   database.User
	active  database.Course
	paused  database.Course
	modules []database.CourseModule
}

func openDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(database.Models()...))
	return db
}

func setup(t *testing.T) *fixture {
	t.Helper()
	db := openDB(t)
	f := &fixture{db: db, repo: New(db)}

	f.user = database.User{FullName: "Ada", Email: "ada@example.com", PasswordHash: "x"}
	f.other = database.User{FullName: "Bob", Email: "bob@example.com", PasswordHash: "x"}
	require.NoError(t, db.Create(&f.user).Error)
	require.NoError(t, db.Create(&f.other).Error)

	target := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	f.active = database.Course{UserID: f.user.ID, Title: "Go", Difficulty: "Advanced", Priority: "High", TargetCompletionDate: &target, IsActive: true}
	f.paused = database.Course{UserID: f.user.ID, Title: "Rust", Difficulty: "Beginner", Priority: "Low", IsActive: false}
	foreign := database.Course{UserID: f.other.ID, Title: "Zig", IsActive: true}
	require.NoError(t, db.Create(&f.active).Error)
	require.NoError(t, db.Create(&f.paused).Error)
	require.NoError(t, db.Create(&foreign).Error)

	f.modules = []database.CourseModule{
		{CourseID: f.active.ID, Title: "Basics", EstimatedHours: 2, Order: 1},
		{CourseID: f.active.ID, Title: "Generics", EstimatedHours: 3, Order: 2},
		{CourseID: f.active.ID, Title: "Done", EstimatedHours: 1, Order: 3, IsCompleted: true},
		{CourseID: f.paused.ID, Title: "Ownership", EstimatedHours: 4, Order: 1},
		{CourseID: foreign.ID, Title: "Comptime", EstimatedHours: 1, Order: 1},
	}
	require.NoError(t, db.Create(&f.modules).Error)
	return f
}

func TestLoadUnscheduledModules(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	got, err := f.repo.Modules.LoadUnscheduledModules(ctx, f.user.ID, nil)
	require.NoError(t, err)
	require.Len(t, got, 2)

	basics := got[0]
	assert.Equal(t, f.modules[0].ID, basics.ID)
	assert.Equal(t, "Go", basics.CourseTitle)
	assert.Equal(t, models.Advanced, basics.CourseDifficulty)
	assert.Equal(t, models.PriorityHigh, basics.CoursePriority)
	require.NotNil(t, basics.CourseTargetDate)
	assert.True(t, basics.IsCourseActive)
	assert.Equal(t, 1, basics.OrderIndex)

	// linking a module to an event removes it from the backlog
	linked := f.modules[1].ID
	require.NoError(t, f.repo.Events.Create(ctx, &database.ScheduleEvent{
		UserID: f.user.ID, Title: "x", StartUtc: time.Now().UTC(), CourseModuleID: &linked,
	}))
	got, err = f.repo.Modules.LoadUnscheduledModules(ctx, f.user.ID, []uint{f.paused.ID})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, f.modules[0].ID, got[0].ID)
}

func TestListAvailableAndGetOwned(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	got, err := f.repo.Modules.ListAvailable(ctx, f.user.ID)
	require.NoError(t, err)
	assert.Len(t, got, 4)

	m, err := f.repo.Modules.GetOwned(ctx, f.user.ID, f.modules[3].ID)
	require.NoError(t, err)
	require.NotNil(t, m.Course)
	assert.Equal(t, "Rust", m.Course.Title)

	_, err = f.repo.Modules.GetOwned(ctx, f.user.ID, f.modules[4].ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestBusyIntervalOf(t *testing.T) {
	start := time.Date(2024, 1, 8, 9, 0, 0, 0, time.UTC)
	end := start.Add(90 * time.Minute)

	got := BusyIntervalOf(database.ScheduleEvent{StartUtc: start, EndUtc: &end})
	assert.Equal(t, end, got.End)

	got = BusyIntervalOf(database.ScheduleEvent{StartUtc: start})
	assert.Equal(t, start.Add(time.Hour), got.End)

	got = BusyIntervalOf(database.ScheduleEvent{StartUtc: start, EndUtc: &start})
	assert.Equal(t, start.Add(time.Hour), got.End)

	got = BusyIntervalOf(database.ScheduleEvent{StartUtc: start, EndUtc: &end, AllDay: true})
	assert.Equal(t, start.Add(24*time.Hour), got.End)
}

func TestLoadBusyIntervals_Ordered(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	base := time.Date(2024, 1, 8, 9, 0, 0, 0, time.UTC)

	for _, offset := range []time.Duration{3 * time.Hour, time.Hour, 2 * time.Hour} {
		require.NoError(t, f.repo.Events.Create(ctx, &database.ScheduleEvent{
			UserID: f.user.ID, Title: "busy", StartUtc: base.Add(offset),
		}))
	}
	require.NoError(t, f.repo.Events.Create(ctx, &database.ScheduleEvent{
		UserID: f.other.ID, Title: "foreign", StartUtc: base,
	}))

	got, err := f.repo.Events.LoadBusyIntervals(ctx, f.user.ID)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.True(t, got[0].Start.Equal(base.Add(time.Hour)))
	assert.True(t, got[1].Start.Equal(base.Add(2*time.Hour)))
	assert.True(t, got[2].Start.Equal(base.Add(3*time.Hour)))
}

func TestPersistNewEvents(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	start := time.Date(2024, 1, 8, 9, 0, 0, 0, time.UTC)

	events := []models.ScheduleEvent{
		{Title: "Go - Basics", StartUtc: start, EndUtc: start.Add(time.Hour), LinkedModuleID: f.modules[0].ID},
		{Title: "Go - Basics", StartUtc: start.Add(2 * time.Hour), EndUtc: start.Add(3 * time.Hour), LinkedModuleID: f.modules[0].ID},
	}
	saved, err := f.repo.Events.PersistNewEvents(ctx, f.user.ID, events)
	require.NoError(t, err)
	require.Len(t, saved, 2)
	assert.NotZero(t, saved[0].ID)
	assert.NotEqual(t, saved[0].ID, saved[1].ID)

	rows, err := f.repo.Events.List(ctx, f.user.ID, nil, nil)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.NotNil(t, rows[0].CourseModule)
	require.NotNil(t, rows[0].CourseModule.Course)
	assert.Equal(t, "Go", rows[0].CourseModule.Course.Title)

	empty, err := f.repo.Events.PersistNewEvents(ctx, f.user.ID, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestEventCRUD(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	start := time.Date(2024, 1, 8, 9, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)

	e := &database.ScheduleEvent{UserID: f.user.ID, Title: "Reading", StartUtc: start, EndUtc: &end}
	require.NoError(t, f.repo.Events.Create(ctx, e))

	got, err := f.repo.Events.Get(ctx, f.user.ID, e.ID)
	require.NoError(t, err)
	assert.Equal(t, "Reading", got.Title)

	_, err = f.repo.Events.Get(ctx, f.other.ID, e.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	got.Title = "Writing"
	got.EndUtc = nil
	require.NoError(t, f.repo.Events.Update(ctx, got))
	got, err = f.repo.Events.Get(ctx, f.user.ID, e.ID)
	require.NoError(t, err)
	assert.Equal(t, "Writing", got.Title)
	assert.Nil(t, got.EndUtc)

	from := start.Add(2 * time.Hour)
	rows, err := f.repo.Events.List(ctx, f.user.ID, &from, nil)
	require.NoError(t, err)
	assert.Empty(t, rows)

	assert.ErrorIs(t, f.repo.Events.Delete(ctx, f.other.ID, e.ID), ErrNotFound)
	require.NoError(t, f.repo.Events.Delete(ctx, f.user.ID, e.ID))
	assert.ErrorIs(t, f.repo.Events.Delete(ctx, f.user.ID, e.ID), ErrNotFound)
}

func TestDeleteAll(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	start := time.Date(2024, 1, 8, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		require.NoError(t, f.repo.Events.Create(ctx, &database.ScheduleEvent{
			UserID: f.user.ID, Title: "e", StartUtc: start.Add(time.Duration(i) * time.Hour),
		}))
	}
	require.NoError(t, f.repo.Events.Create(ctx, &database.ScheduleEvent{UserID: f.other.ID, Title: "keep", StartUtc: start}))

	n, err := f.repo.Events.DeleteAll(ctx, f.user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	rows, err := f.repo.Events.List(ctx, f.other.ID, nil, nil)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}
