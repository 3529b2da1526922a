// Package config loads the prediction engine's runtime configuration
// (spec component C9): the three keys spec.md §6 lists
// (PREDICTION_INTERVAL, MINIMUM_TRAVEL_TIME_RATIO, CLOCK_SERVER) plus
// logging level and the C10 observer-stream toggle, from a YAML file
// with environment-variable overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the engine's full runtime configuration surface.
type Config struct {
	// PredictionInterval is how far past "now" to pull trains for when
	// building a Manager from a clock reading (spec.md §6, default 2h).
	PredictionInterval time.Duration `yaml:"prediction_interval"`
	// MinimumTravelTimeRatio is MINIMUM_TRAVEL_TIME_RATIO (spec.md §4.4.4,
	// default 0.9).
	MinimumTravelTimeRatio float64 `yaml:"minimum_travel_time_ratio"`
	// ClockServer is the clock source's host:port (spec.md §6).
	ClockServer string `yaml:"clock_server"`
	// LogLevel is a log15-compatible level name ("debug", "info",
	// "warn", "error", "crit"); default "info".
	LogLevel string `yaml:"log_level"`
	// ObserverEnabled toggles the C10 websocket decision tap.
	ObserverEnabled bool `yaml:"observer_enabled"`
	// ObserverAddr is the bind address for the observer server, when enabled.
	ObserverAddr string `yaml:"observer_addr"`
}

// Default returns the configuration spec.md's defaults describe.
func Default() Config {
	return Config{
		PredictionInterval:     2 * time.Hour,
		MinimumTravelTimeRatio: 0.9,
		ClockServer:            "",
		LogLevel:               "info",
		ObserverEnabled:        false,
		ObserverAddr:           ":8080",
	}
}

// rawYAML mirrors Config's YAML shape with duration expressed as
// seconds, since yaml.v3 has no built-in time.Duration codec.
type rawYAML struct {
	PredictionIntervalSeconds int     `yaml:"prediction_interval_seconds"`
	MinimumTravelTimeRatio    float64 `yaml:"minimum_travel_time_ratio"`
	ClockServer               string  `yaml:"clock_server"`
	LogLevel                  string  `yaml:"log_level"`
	ObserverEnabled           bool    `yaml:"observer_enabled"`
	ObserverAddr              string  `yaml:"observer_addr"`
}

// Load reads path (if non-empty) as YAML over Default(), then applies
// ZWL_* environment overrides, and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		var raw rawYAML
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
		if raw.PredictionIntervalSeconds != 0 {
			cfg.PredictionInterval = time.Duration(raw.PredictionIntervalSeconds) * time.Second
		}
		if raw.MinimumTravelTimeRatio != 0 {
			cfg.MinimumTravelTimeRatio = raw.MinimumTravelTimeRatio
		}
		if raw.ClockServer != "" {
			cfg.ClockServer = raw.ClockServer
		}
		if raw.LogLevel != "" {
			cfg.LogLevel = raw.LogLevel
		}
		if raw.ObserverAddr != "" {
			cfg.ObserverAddr = raw.ObserverAddr
		}
		cfg.ObserverEnabled = raw.ObserverEnabled
	}

	applyEnvOverrides(&cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("ZWL_PREDICTION_INTERVAL_SECONDS"); v != "" {
		if secs, err := parseIntEnv(v); err == nil {
			cfg.PredictionInterval = time.Duration(secs) * time.Second
		}
	}
	if v := os.Getenv("ZWL_MIN_TRAVEL_RATIO"); v != "" {
		if ratio, err := parseFloatEnv(v); err == nil {
			cfg.MinimumTravelTimeRatio = ratio
		}
	}
	if v := os.Getenv("ZWL_CLOCK_SERVER"); v != "" {
		cfg.ClockServer = v
	}
	if v := os.Getenv("ZWL_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
}

func parseIntEnv(v string) (int, error)     { return strconv.Atoi(v) }
func parseFloatEnv(v string) (float64, error) { return strconv.ParseFloat(v, 64) }

// Validate checks the invariants spec.md §4.4.4 requires of the config
// surface (MINIMUM_TRAVEL_TIME_RATIO in (0,1]).
func (c Config) Validate() error {
	if c.MinimumTravelTimeRatio <= 0 || c.MinimumTravelTimeRatio > 1 {
		return fmt.Errorf("minimum_travel_time_ratio must be in (0,1], got %v", c.MinimumTravelTimeRatio)
	}
	if c.PredictionInterval <= 0 {
		return fmt.Errorf("prediction_interval must be positive, got %v", c.PredictionInterval)
	}
	return nil
}
