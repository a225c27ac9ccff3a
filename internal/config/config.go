// Package config loads runtime settings from environment variables.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"

	"github.com/example/calendar-core/internal/interaction"
)

// Config holds every tunable the calendar engine reads at startup.
type Config struct {
	// DatabaseDSN locates the SQLite database file.
	DatabaseDSN string `env:"CALENDAR_DATABASE_DSN" envDefault:"calendar.db"`

	// LogFormat selects the slog handler: text or json.
	LogFormat string `env:"CALENDAR_LOG_FORMAT" envDefault:"text"`
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `env:"CALENDAR_LOG_LEVEL" envDefault:"info"`

	// SnapMinutes is the grid that drag and resize deltas snap to.
	SnapMinutes int `env:"CALENDAR_SNAP_MINUTES" envDefault:"15"`
	// MinDurationMinutes is the floor a resize can shrink an event to.
	MinDurationMinutes int `env:"CALENDAR_MIN_DURATION_MINUTES" envDefault:"15"`
	// PixelsPerHour converts pointer movement into time deltas.
	PixelsPerHour int `env:"CALENDAR_PIXELS_PER_HOUR" envDefault:"60"`

	// ConfirmSeriesCommit defers drag and resize commits on recurring
	// events until the caller picks an occurrence or series scope.
	ConfirmSeriesCommit bool `env:"CALENDAR_CONFIRM_SERIES_COMMIT" envDefault:"true"`
}

// Load reads configuration from the environment.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Interaction maps the drag and resize tunables onto the state machine
// config.
func (c Config) Interaction() interaction.Config {
	return interaction.Config{
		SnapMinutes:         c.SnapMinutes,
		MinDurationMinutes:  c.MinDurationMinutes,
		PixelsPerHour:       float64(c.PixelsPerHour),
		ConfirmSeriesCommit: c.ConfirmSeriesCommit,
	}
}

func (c Config) validate() error {
	if c.DatabaseDSN == "" {
		return fmt.Errorf("config: database dsn must not be empty")
	}
	if c.SnapMinutes <= 0 {
		return fmt.Errorf("config: snap minutes must be positive")
	}
	if c.MinDurationMinutes <= 0 {
		return fmt.Errorf("config: min duration minutes must be positive")
	}
	if c.PixelsPerHour <= 0 {
		return fmt.Errorf("config: pixels per hour must be positive")
	}
	return nil
}
