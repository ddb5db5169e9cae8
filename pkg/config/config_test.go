package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsAndEnv(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("JWT_SECRET", "0123456789abcdef0123")
	t.Setenv("PORT", "9090")
	t.Setenv("SCHEDULER_LOCK_TIMEOUT", "3s")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "learnit.db", cfg.Database.Path)
	assert.Empty(t, cfg.Database.URL)
	assert.Equal(t, 168*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, 365, cfg.Scheduler.HorizonDays)
	assert.Equal(t, 365*24*time.Hour, cfg.Scheduler.Horizon())
	assert.Equal(t, 3*time.Second, cfg.Scheduler.LockTimeout)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_YAMLFile(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	path := filepath.Join(dir, "config.yaml")
	yaml := "auth:\n  jwt_secret: file-secret-long-enough\nscheduler:\n  horizon_days: 30\nredis:\n  addr: localhost:6379\n"
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "file-secret-long-enough", cfg.Auth.JWTSecret)
	assert.Equal(t, 30, cfg.Scheduler.HorizonDays)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("JWT_SECRET=dotenv-secret-long-enough\nLOG_LEVEL=debug\n"), 0o600))
	t.Cleanup(func() {
		os.Unsetenv("JWT_SECRET")
		os.Unsetenv("LOG_LEVEL")
	})

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "dotenv-secret-long-enough", cfg.Auth.JWTSecret)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestValidate(t *testing.T) {
	cfg := Config{
		Server:    ServerConfig{Port: 8000},
		Auth:      AuthConfig{JWTSecret: "short"},
		Scheduler: SchedulerConfig{HorizonDays: 10},
	}
	assert.Error(t, cfg.Validate())

	cfg.Auth.JWTSecret = "long-enough-secret-value"
	assert.NoError(t, cfg.Validate())

	cfg.Server.Port = 70000
	assert.Error(t, cfg.Validate())

	cfg.Server.Port = 8000
	cfg.Scheduler.HorizonDays = 0
	assert.Error(t, cfg.Validate())
}

// chdir changes the working directory for the duration of the test
// (equivalent of testing.T.Chdir, which needs Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}
