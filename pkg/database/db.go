package database

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/aravinth-krishna/learnit-scheduler/pkg/config"
)

// User represents the users table
type User struct {
	ID                uint      `gorm:"primaryKey" json:"id"`
	FullName          string    `json:"full_name"`
	Email             string    `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash      string    `gorm:"not null" json:"-"`
	MaxSessionMinutes *int      `json:"max_session_minutes"`
	WeeklyLimitHours  *float64  `json:"weekly_limit_hours"`
	CreatedAt         time.Time `json:"created_at"`
}

// Course represents the courses table
type Course struct {
	ID                   uint           `gorm:"primaryKey" json:"id"`
	UserID               uint           `gorm:"index;not null" json:"user_id"`
	Title                string         `gorm:"not null" json:"title"`
	Difficulty           string         `json:"difficulty"`
	Priority             string         `json:"priority"`
	TargetCompletionDate *time.Time     `json:"target_completion_date"`
	IsActive             bool           `json:"is_active"`
	Modules              []CourseModule `json:"modules,omitempty"`
	CreatedAt            time.Time      `json:"created_at"`
}

// CourseModule represents the course_modules table
type CourseModule struct {
	ID             uint    `gorm:"primaryKey" json:"id"`
	CourseID       uint    `gorm:"index;not null" json:"course_id"`
	Title          string  `gorm:"not null" json:"title"`
	EstimatedHours float64 `json:"estimated_hours"`
	Order          int     `json:"order"`
	IsCompleted    bool    `json:"is_completed"`
	Course         *Course `json:"course,omitempty"`
}

// ScheduleEvent represents the schedule_events table. Times are stored in UTC.
type ScheduleEvent struct {
	ID             uint          `gorm:"primaryKey" json:"id"`
	UserID         uint          `gorm:"index;not null" json:"user_id"`
	Title          string        `gorm:"not null" json:"title"`
	StartUtc       time.Time     `gorm:"index;not null" json:"start_utc"`
	EndUtc         *time.Time    `json:"end_utc"`
	AllDay         bool          `json:"all_day"`
	CourseModuleID *uint         `gorm:"index" json:"course_module_id"`
	CourseModule   *CourseModule `json:"course_module,omitempty"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

// Models lists every table managed by AutoMigrate
func Models() []any {
	return []any{&User{}, &Course{}, &CourseModule{}, &ScheduleEvent{}}
}

// InitDB opens the configured database and migrates the schema: postgres
// when a URL is set, a sqlite file otherwise.
func InitDB(cfg config.DatabaseConfig, logLevel string, logger *zap.Logger) (*gorm.DB, error) {
	gormCfg := &gorm.Config{Logger: gormlogger.Default.LogMode(gormLogLevel(logLevel))}

	var dialector gorm.Dialector
	if cfg.URL != "" {
		dialector = postgres.New(postgres.Config{
			DSN:                  cfg.URL,
			PreferSimpleProtocol: true,
		})
		gormCfg.PrepareStmt = false
	} else {
		dialector = sqlite.Open(cfg.Path)
	}

	db, err := gorm.Open(dialector, gormCfg)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	if err := db.AutoMigrate(Models()...); err != nil {
		return nil, fmt.Errorf("migrate schema: %w", err)
	}

	logger.Info("database ready", zap.String("dialect", db.Dialector.Name()))
	return db, nil
}

func gormLogLevel(level string) gormlogger.LogLevel {
	switch level {
	case "debug":
		return gormlogger.Info
	case "info", "warn":
		return gormlogger.Warn
	default:
		return gormlogger.Error
	}
}
