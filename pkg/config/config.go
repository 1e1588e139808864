// Package config provides configuration loading for volume setups:
// grid dimensions, world extent, sampling mode and ray query limits.
// Defaults are embedded; a YAML file overrides them field by field.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/ahlgreen/isofield/pkg/volume"
	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all volume configuration parameters.
type Config struct {
	Grid     GridConfig     `yaml:"grid"`
	Sampling SamplingConfig `yaml:"sampling"`
	Ray      RayConfig      `yaml:"ray"`
}

// GridConfig holds storage dimensions and the world extent the grid
// spans. Scale factors are derived: (dim-1)/world_size per axis, so
// world positions in [0, world_size] stay inside the sampler contract.
type GridConfig struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
	Depth  int `yaml:"depth"`

	// WorldSize is the world-space extent along each axis.
	WorldSize WorldSize `yaml:"world_size"`
}

// WorldSize is the per-axis world extent of a grid.
type WorldSize struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
	Z float64 `yaml:"z"`
}

// SamplingConfig selects the reconstruction mode.
type SamplingConfig struct {
	TrilinearValue    bool `yaml:"trilinear_value"`
	TrilinearGradient bool `yaml:"trilinear_gradient"`
	SobelGradient     bool `yaml:"sobel_gradient"`
}

// RayConfig holds ray query parameters.
type RayConfig struct {
	// MaxDistance is the fallback traversal distance for rays that
	// miss the grid.
	MaxDistance float64 `yaml:"max_distance"`
}

// Load returns the embedded default configuration.
func Load() (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(defaultsYAML, &cfg); err != nil {
		return nil, fmt.Errorf("config: parsing embedded defaults: %w", err)
	}
	return &cfg, nil
}

// LoadFile returns the defaults overridden by the YAML file at path.
func LoadFile(path string) (*Config, error) {
	cfg, err := Load()
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the configuration for usable values.
func (c *Config) Validate() error {
	if c.Grid.Width < 2 || c.Grid.Height < 2 || c.Grid.Depth < 2 {
		return fmt.Errorf("config: grid dimensions %dx%dx%d, need at least 2 per axis",
			c.Grid.Width, c.Grid.Height, c.Grid.Depth)
	}
	if c.Grid.WorldSize.X <= 0 || c.Grid.WorldSize.Y <= 0 || c.Grid.WorldSize.Z <= 0 {
		return fmt.Errorf("config: world size must be positive on every axis, got %+v", c.Grid.WorldSize)
	}
	if c.Ray.MaxDistance <= 0 {
		return fmt.Errorf("config: ray max_distance must be positive, got %v", c.Ray.MaxDistance)
	}
	return nil
}

// ScaleTransform derives the world-to-grid transform. The
// volume-to-world factor follows the x axis.
func (c *Config) ScaleTransform() volume.ScaleTransform {
	sx := float64(c.Grid.Width-1) / c.Grid.WorldSize.X
	return volume.ScaleTransform{
		X:             sx,
		Y:             float64(c.Grid.Height-1) / c.Grid.WorldSize.Y,
		Z:             float64(c.Grid.Depth-1) / c.Grid.WorldSize.Z,
		VolumeToWorld: 1 / sx,
	}
}

// SamplingMode converts the sampling section.
func (c *Config) SamplingMode() volume.SamplingMode {
	return volume.SamplingMode{
		TrilinearValue:    c.Sampling.TrilinearValue,
		TrilinearGradient: c.Sampling.TrilinearGradient,
		SobelGradient:     c.Sampling.SobelGradient,
	}
}

// BuildGridSource validates the configuration and allocates a grid
// source from it.
func (c *Config) BuildGridSource() (*volume.GridSource, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	grid := volume.NewGrid(c.Grid.Width, c.Grid.Height, c.Grid.Depth)
	return volume.NewGridSource(grid, c.ScaleTransform(), c.SamplingMode()), nil
}
