package main

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestDefaultBuildConfig(t *testing.T) {
	cfg := DefaultBuildConfig()
	assert.Equal(t, 30.0, cfg.AngleDegrees)
	assert.Equal(t, 3.0, cfg.LengthRatioLimit)
	assert.Equal(t, 100.0, cfg.MinimumLength)
	assert.False(t, cfg.SpatialIndex)
	assert.NoError(t, cfg.Validate())
}

func TestBuildConfigValidate(t *testing.T) {
	tests := map[string]func(*BuildConfig){
		"zero angle":         func(c *BuildConfig) { c.AngleDegrees = 0 },
		"negative angle":     func(c *BuildConfig) { c.AngleDegrees = -5 },
		"right angle":        func(c *BuildConfig) { c.AngleDegrees = 90 },
		"NaN angle":          func(c *BuildConfig) { c.AngleDegrees = math.NaN() },
		"zero ratio":         func(c *BuildConfig) { c.LengthRatioLimit = 0 },
		"infinite ratio":     func(c *BuildConfig) { c.LengthRatioLimit = math.Inf(1) },
		"negative minimum":   func(c *BuildConfig) { c.MinimumLength = -1 },
		"NaN minimum length": func(c *BuildConfig) { c.MinimumLength = math.NaN() },
	}

	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			cfg := DefaultBuildConfig()
			mutate(&cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfiguration)
		})
	}
}

func TestLoadBuildConfigPartial(t *testing.T) {
	path := writeConfig(t, "angleDegrees: 12.5\nspatialIndex: true\n")

	cfg, err := LoadBuildConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 12.5, cfg.AngleDegrees)
	assert.True(t, cfg.SpatialIndex)
	assert.Equal(t, DefaultLengthRatioLimit, cfg.LengthRatioLimit)
	assert.Equal(t, DefaultMinimumLength, cfg.MinimumLength)
}

func TestLoadBuildConfigErrors(t *testing.T) {
	_, err := LoadBuildConfig(writeConfig(t, "angleDegrees: 95\n"))
	assert.ErrorIs(t, err, ErrInvalidConfiguration)

	_, err = LoadBuildConfig(writeConfig(t, "angleDegrees: [1, 2\n"))
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidConfiguration)

	_, err = LoadBuildConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
