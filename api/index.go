package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/aravinth-krishna/learnit-scheduler/pkg/app"
	"github.com/aravinth-krishna/learnit-scheduler/pkg/config"
	"github.com/aravinth-krishna/learnit-scheduler/pkg/logger"
)

var r http.Handler

func init() {
	cfg, err := config.Load("")
	if err != nil {
		r = unavailable(err)
		return
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		log = zap.NewNop()
	}

	a, err := app.New(context.Background(), cfg, log)
	if err != nil {
		log.Error("could not start", zap.Error(err))
		r = unavailable(err)
		return
	}
	r = a.Engine
}

func unavailable(err error) http.Handler {
	gin.SetMode(gin.ReleaseMode)
	e := gin.New()
	e.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	})
	return e
}

// Handler is the entry point for Vercel Go Runtime
func Handler(w http.ResponseWriter, req *http.Request) {
	r.ServeHTTP(w, req)
}
