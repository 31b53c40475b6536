package config_test

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mateatletas/cuotas/config"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), "absent.env"))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "cuotas.db", cfg.DBPath)
	assert.Equal(t, "", cfg.PricingFile)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.False(t, cfg.SchedulerEnabled)
	assert.Equal(t, time.Hour, cfg.SchedulerInterval)
	assert.Equal(t, []string{"http://localhost:5173", "http://localhost:8080"}, cfg.AllowedOrigins)
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("CUOTAS_PORT", "9090")
	t.Setenv("CUOTAS_LOG_LEVEL", "DEBUG")
	t.Setenv("CUOTAS_SCHEDULER_ENABLED", "true")
	t.Setenv("CUOTAS_SCHEDULER_INTERVAL", "15m")
	t.Setenv("CUOTAS_ALLOWED_ORIGINS", "https://a.example, https://b.example")

	cfg, err := config.Load(filepath.Join(t.TempDir(), "absent.env"))
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.True(t, cfg.SchedulerEnabled)
	assert.Equal(t, 15*time.Minute, cfg.SchedulerInterval)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
}

func TestLoad_DotEnvFile(t *testing.T) {
	// godotenv never overrides variables that are already set
	t.Setenv("CUOTAS_DB", "")
	os.Unsetenv("CUOTAS_DB")
	t.Setenv("CUOTAS_PRICING_FILE", "from-env.json")

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("CUOTAS_DB=/tmp/x.db\nCUOTAS_PRICING_FILE=from-file.json\n"), 0o644))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/x.db", cfg.DBPath)
	assert.Equal(t, "from-env.json", cfg.PricingFile)
}

func TestValidate(t *testing.T) {
	base := config.Config{Port: 8080, DBPath: "x.db", LogLevel: "info"}

	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"port zero", func(c *config.Config) { c.Port = 0 }},
		{"port too big", func(c *config.Config) { c.Port = 70000 }},
		{"no db", func(c *config.Config) { c.DBPath = "" }},
		{"bad level", func(c *config.Config) { c.LogLevel = "loud" }},
		{"scheduler without interval", func(c *config.Config) {
			c.SchedulerEnabled = true
			c.SchedulerInterval = 0
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base
			tt.mutate(&c)
			assert.Error(t, c.Validate())
		})
	}
	assert.NoError(t, base.Validate())
}

func TestParseLevel(t *testing.T) {
	l, err := config.ParseLevel("warn")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelWarn, l)
}
