package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, 2*time.Hour, cfg.PredictionInterval)
	assert.Equal(t, 0.9, cfg.MinimumTravelTimeRatio)
	assert.Equal(t, "", cfg.ClockServer)
	assert.False(t, cfg.ObserverEnabled)
	require.NoError(t, cfg.Validate())
}

func TestLoadWithNoPathAppliesEnvOverrides(t *testing.T) {
	os.Setenv("ZWL_MIN_TRAVEL_RATIO", "0.8")
	os.Setenv("ZWL_CLOCK_SERVER", "clock.example:9000")
	defer os.Unsetenv("ZWL_MIN_TRAVEL_RATIO")
	defer os.Unsetenv("ZWL_CLOCK_SERVER")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 0.8, cfg.MinimumTravelTimeRatio)
	assert.Equal(t, "clock.example:9000", cfg.ClockServer)
}

func TestValidateRejectsOutOfRangeRatio(t *testing.T) {
	cfg := Default()
	cfg.MinimumTravelTimeRatio = 0
	assert.Error(t, cfg.Validate())

	cfg.MinimumTravelTimeRatio = 1.5
	assert.Error(t, cfg.Validate())

	cfg.MinimumTravelTimeRatio = 0.9
	cfg.PredictionInterval = 0
	assert.Error(t, cfg.Validate())
}
