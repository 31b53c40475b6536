// Package config loads service settings from the environment.
//
// Settings come, lowest priority first, from built-in defaults, a .env
// file and CUOTAS_* environment variables. Commands apply their flags on
// top of the returned Config.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const EnvPrefix = "CUOTAS"

// Config holds the settings shared by the server and the CLI.
type Config struct {
	Port              int
	DBPath            string
	PricingFile       string
	LogLevel          string
	SchedulerEnabled  bool
	SchedulerInterval time.Duration
	AllowedOrigins    []string
}

// New returns a viper instance with defaults and environment binding.
func New() *viper.Viper {
	v := viper.New()
	v.SetTypeByDefaultValue(true)
	v.SetDefault("port", 8080)
	v.SetDefault("db", "cuotas.db")
	v.SetDefault("pricing_file", "")
	v.SetDefault("log_level", "info")
	v.SetDefault("scheduler_enabled", false)
	v.SetDefault("scheduler_interval", time.Hour)
	v.SetDefault("allowed_origins", []string{"http://localhost:5173", "http://localhost:8080"})

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	return v
}

// Load reads envFile (if it exists) into the process environment and
// returns the resulting settings. An empty envFile means ".env".
func Load(envFile string) (*Config, error) {
	if envFile == "" {
		envFile = ".env"
	}
	// load .env if it exists (ignore if it does not)
	if _, err := os.Stat(envFile); err == nil {
		if err := godotenv.Load(envFile); err != nil {
			return nil, fmt.Errorf("config.godotenv(%s): %w", envFile, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("config.os.Stat(%s): %w", envFile, err)
	}
	return FromViper(New())
}

// FromViper extracts and validates a Config.
func FromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Port:              v.GetInt("port"),
		DBPath:            v.GetString("db"),
		PricingFile:       v.GetString("pricing_file"),
		LogLevel:          strings.ToLower(v.GetString("log_level")),
		SchedulerEnabled:  v.GetBool("scheduler_enabled"),
		SchedulerInterval: v.GetDuration("scheduler_interval"),
		AllowedOrigins:    splitList(v.GetStringSlice("allowed_origins")),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks ranges and enumerations.
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("config: port %d out of range", c.Port)
	}
	if c.DBPath == "" {
		return fmt.Errorf("config: db path is required")
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if c.SchedulerEnabled && c.SchedulerInterval <= 0 {
		return fmt.Errorf("config: scheduler interval must be positive, got %s", c.SchedulerInterval)
	}
	return nil
}

// ParseLevel maps a level name to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("config: unknown log level %q", s)
	}
	return l, nil
}

// NewLogger builds the JSON logger used by the commands.
func (c *Config) NewLogger() *slog.Logger {
	level, _ := ParseLevel(c.LogLevel)
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// Environment variables arrive as one comma-separated string.
func splitList(in []string) []string {
	var out []string
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}
