// Package app wires configuration, storage and handlers into a gin engine.
package app

import (
	"context"
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/aravinth-krishna/learnit-scheduler/pkg/auth"
	"github.com/aravinth-krishna/learnit-scheduler/pkg/config"
	"github.com/aravinth-krishna/learnit-scheduler/pkg/database"
	"github.com/aravinth-krishna/learnit-scheduler/pkg/handlers"
	"github.com/aravinth-krishna/learnit-scheduler/pkg/lock"
	"github.com/aravinth-krishna/learnit-scheduler/pkg/repository"
	"github.com/aravinth-krishna/learnit-scheduler/pkg/service"
)

// Upper bound on how long a crashed run can keep a user's Redis lock
const runLockTTL = time.Minute

// App is a fully wired server
type App struct {
	Engine *gin.Engine
	DB     *gorm.DB
	Redis  *goredis.Client
}

// New opens the database, picks a locker and registers every route.
// Redis is optional: when it is not configured or unreachable runs are
// serialized in-process only.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	gin.SetMode(cfg.Server.GinMode)

	db, err := database.InitDB(cfg.Database, cfg.Log.Level, logger)
	if err != nil {
		return nil, err
	}
	a := &App{DB: db}

	var locker lock.Locker = lock.NewMemoryLocker(cfg.Scheduler.LockTimeout)
	if cfg.Redis.Addr != "" {
		rdb, err := lock.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			logger.Warn("redis unavailable, using in-process locks", zap.Error(err))
		} else {
			logger.Info("redis connected", zap.String("addr", cfg.Redis.Addr))
			a.Redis = rdb
			locker = lock.NewRedisLocker(rdb, cfg.Scheduler.LockTimeout, runLockTTL, logger)
		}
	}

	repo := repository.New(db)
	svc := service.NewScheduleService(repo, locker, logger,
		service.WithHorizon(cfg.Scheduler.Horizon()))
	h := &handlers.Handler{
		DB:        db,
		Schedules: svc,
		Courses:   service.NewCourseService(repo, logger),
		Tokens:    auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL),
		Logger:    logger,
	}

	a.Engine = gin.New()
	h.Routes(a.Engine)
	return a, nil
}

// Close releases the database and Redis connections
func (a *App) Close() error {
	var errs []error
	if sqlDB, err := a.DB.DB(); err == nil {
		errs = append(errs, sqlDB.Close())
	}
	if a.Redis != nil {
		errs = append(errs, a.Redis.Close())
	}
	return errors.Join(errs...)
}
