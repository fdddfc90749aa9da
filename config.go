package main

import (
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

// Builder defaults
const (
	DefaultAngleDegrees     = 30.0
	DefaultLengthRatioLimit = 3.0
	DefaultMinimumLength    = 100.0
)

// BuildConfig holds the tunables of one graph build
type BuildConfig struct {
	// AngleDegrees is the half-angle of each blocking wedge, in (0, 90)
	AngleDegrees float64 `yaml:"angleDegrees" json:"angleDegrees"`
	// LengthRatioLimit caps edge length at a multiple of the nearest neighbour distance
	LengthRatioLimit float64 `yaml:"lengthRatioLimit" json:"lengthRatioLimit"`
	// MinimumLength is the absolute floor of that cap
	MinimumLength float64 `yaml:"minimumLength" json:"minimumLength"`
	// SpatialIndex ranks candidates through an R-tree instead of a full scan
	SpatialIndex bool `yaml:"spatialIndex" json:"spatialIndex"`
}

// DefaultBuildConfig returns the stock configuration
func DefaultBuildConfig() BuildConfig {
	return BuildConfig{
		AngleDegrees:     DefaultAngleDegrees,
		LengthRatioLimit: DefaultLengthRatioLimit,
		MinimumLength:    DefaultMinimumLength,
	}
}

// Validate rejects settings that would produce degenerate wedges or cutoffs
func (c BuildConfig) Validate() error {
	if math.IsNaN(c.AngleDegrees) || c.AngleDegrees <= 0 || c.AngleDegrees >= 90 {
		return fmt.Errorf("angleDegrees must be in (0, 90), got %g: %w", c.AngleDegrees, ErrInvalidConfiguration)
	}
	if math.IsNaN(c.LengthRatioLimit) || math.IsInf(c.LengthRatioLimit, 0) || c.LengthRatioLimit <= 0 {
		return fmt.Errorf("lengthRatioLimit must be positive, got %g: %w", c.LengthRatioLimit, ErrInvalidConfiguration)
	}
	if math.IsNaN(c.MinimumLength) || math.IsInf(c.MinimumLength, 0) || c.MinimumLength <= 0 {
		return fmt.Errorf("minimumLength must be positive, got %g: %w", c.MinimumLength, ErrInvalidConfiguration)
	}
	return nil
}

// LoadBuildConfig reads a YAML file on top of the defaults.
// Keys missing from the file keep their default value.
func LoadBuildConfig(path string) (BuildConfig, error) {
	cfg := DefaultBuildConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}

	return cfg, nil
}
