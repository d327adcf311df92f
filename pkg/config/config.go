// Package config provides configuration loading and management for geovis.
// It handles loading configuration from YAML files and provides default values.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"geovis/pkg/colormap"
	"geovis/pkg/dem"
	"geovis/pkg/segy"
	"geovis/pkg/visualization"
)

// Config represents the application configuration loaded from YAML
type Config struct {
	// Display parameters
	Display struct {
		// Scheme is the color scheme name, one of colormap.Names()
		Scheme string `yaml:"scheme"`

		// TerrainScheme colors elevation grids
		TerrainScheme string `yaml:"terrainScheme"`

		// Custom holds the colors of the "custom" scheme
		Custom struct {
			Start  string  `yaml:"start"`
			End    string  `yaml:"end"`
			Mid    string  `yaml:"mid"`
			UseMid bool    `yaml:"useMid"`
			MidPos float64 `yaml:"midPos"`
		} `yaml:"custom"`
	} `yaml:"display"`

	// Contour overlay parameters
	Contour struct {
		// Enabled turns iso-lines on for slices and terrain
		Enabled bool `yaml:"enabled"`

		// Interval is the amplitude step between seismic iso-lines
		Interval float64 `yaml:"interval"`

		// TerrainInterval is the height step between terrain iso-lines
		TerrainInterval float64 `yaml:"terrainInterval"`

		// Color of contour pixels as #rrggbb
		Color string `yaml:"color"`
	} `yaml:"contour"`

	// Wiggle display parameters
	Wiggle struct {
		// Gain scales trace excursions
		Gain float64 `yaml:"gain"`

		// FixedBlack draws line art regardless of the color scheme
		FixedBlack bool `yaml:"fixedBlack"`

		// TraceSpacing is the horizontal distance between traces
		TraceSpacing float64 `yaml:"traceSpacing"`
	} `yaml:"wiggle"`

	// Elevation loader parameters
	Elevation struct {
		// DegreesToMeters converts geographic pixel scales
		DegreesToMeters float64 `yaml:"degreesToMeters"`

		// AssumeMeters disables the degree heuristic
		AssumeMeters bool `yaml:"assumeMeters"`

		// HonorNoData floors samples equal to GDAL_NODATA
		HonorNoData bool `yaml:"honorNoData"`
	} `yaml:"elevation"`

	// Seismic loader parameters
	Seismic struct {
		// InlineOffset and CrosslineOffset override geometry detection when
		// InlineOffset is positive
		InlineOffset    int `yaml:"inlineOffset"`
		CrosslineOffset int `yaml:"crosslineOffset"`
	} `yaml:"seismic"`

	// Output parameters
	Output struct {
		// Workers bounds parallel exports
		Workers int `yaml:"workers"`

		// Verbose controls the level of logging output
		Verbose bool `yaml:"verbose"`
	} `yaml:"output"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Display.Scheme = colormap.SchemeSeismic
	cfg.Display.TerrainScheme = colormap.SchemeRainbow
	custom := colormap.DefaultCustom()
	cfg.Display.Custom.Start = custom.Start.Hex()
	cfg.Display.Custom.End = custom.End.Hex()
	cfg.Display.Custom.Mid = custom.Mid.Hex()
	cfg.Display.Custom.UseMid = custom.UseMid
	cfg.Display.Custom.MidPos = custom.MidPos

	cfg.Contour.Enabled = false
	cfg.Contour.Interval = 500
	cfg.Contour.TerrainInterval = 50
	cfg.Contour.Color = "#ffffff"

	cfg.Wiggle.Gain = 1.0
	cfg.Wiggle.FixedBlack = false
	cfg.Wiggle.TraceSpacing = 1.0

	cfg.Elevation.DegreesToMeters = dem.DefaultDegreesToMeters
	cfg.Elevation.AssumeMeters = false
	cfg.Elevation.HonorNoData = false

	cfg.Output.Workers = runtime.NumCPU()
	cfg.Output.Verbose = false

	return cfg
}

// LoadConfig loads configuration from a YAML file
// If the file doesn't exist, it returns the default configuration
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", configPath, err)
	}
	return cfg, nil
}

// SaveConfig saves the configuration to a YAML file
func SaveConfig(cfg *Config, configPath string) error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}

// CreateDefaultConfigFile creates a default configuration file at the specified path
func CreateDefaultConfigFile(configPath string) error {
	cfg := DefaultConfig()
	return SaveConfig(cfg, configPath)
}

// Validate checks value ranges and that every scheme and color resolves.
func (c *Config) Validate() error {
	var errs []error
	if c.Wiggle.Gain <= 0 {
		errs = append(errs, fmt.Errorf("wiggle.gain must be positive, got %g", c.Wiggle.Gain))
	}
	if c.Wiggle.TraceSpacing <= 0 {
		errs = append(errs, fmt.Errorf("wiggle.traceSpacing must be positive, got %g", c.Wiggle.TraceSpacing))
	}
	if c.Contour.Interval <= 0 {
		errs = append(errs, fmt.Errorf("contour.interval must be positive, got %g", c.Contour.Interval))
	}
	if c.Contour.TerrainInterval <= 0 {
		errs = append(errs, fmt.Errorf("contour.terrainInterval must be positive, got %g", c.Contour.TerrainInterval))
	}
	if _, err := colormap.ParseHex(c.Contour.Color); err != nil {
		errs = append(errs, fmt.Errorf("contour.color: %w", err))
	}
	if c.Output.Workers <= 0 {
		errs = append(errs, fmt.Errorf("output.workers must be positive, got %d", c.Output.Workers))
	}
	if c.Elevation.DegreesToMeters <= 0 {
		errs = append(errs, fmt.Errorf("elevation.degreesToMeters must be positive, got %g", c.Elevation.DegreesToMeters))
	}
	if m := c.Display.Custom.MidPos; m <= 0 || m >= 1 {
		errs = append(errs, fmt.Errorf("display.custom.midPos must be in (0, 1), got %g", m))
	}
	if c.Seismic.InlineOffset < 0 || c.Seismic.CrosslineOffset < 0 {
		errs = append(errs, fmt.Errorf("seismic offsets must not be negative"))
	}
	if _, err := c.CustomParams(); err != nil {
		errs = append(errs, err)
	} else {
		if _, err := c.ColorMapper(); err != nil {
			errs = append(errs, fmt.Errorf("display.scheme: %w", err))
		}
		if _, err := c.TerrainMapper(); err != nil {
			errs = append(errs, fmt.Errorf("display.terrainScheme: %w", err))
		}
	}
	return errors.Join(errs...)
}

// CustomParams parses the custom scheme colors.
func (c *Config) CustomParams() (colormap.CustomParams, error) {
	p := colormap.CustomParams{UseMid: c.Display.Custom.UseMid, MidPos: c.Display.Custom.MidPos}
	var err error
	if p.Start, err = colormap.ParseHex(c.Display.Custom.Start); err != nil {
		return p, fmt.Errorf("display.custom.start: %w", err)
	}
	if p.End, err = colormap.ParseHex(c.Display.Custom.End); err != nil {
		return p, fmt.Errorf("display.custom.end: %w", err)
	}
	if p.Mid, err = colormap.ParseHex(c.Display.Custom.Mid); err != nil {
		return p, fmt.Errorf("display.custom.mid: %w", err)
	}
	return p, nil
}

// ColorMapper resolves the seismic color scheme.
func (c *Config) ColorMapper() (colormap.Mapper, error) {
	return c.resolve(c.Display.Scheme)
}

// TerrainMapper resolves the terrain color scheme.
func (c *Config) TerrainMapper() (colormap.Mapper, error) {
	return c.resolve(c.Display.TerrainScheme)
}

func (c *Config) resolve(name string) (colormap.Mapper, error) {
	custom, err := c.CustomParams()
	if err != nil {
		return nil, err
	}
	return colormap.Resolve(name, custom)
}

func (c *Config) contour(interval float64) *visualization.Contour {
	if !c.Contour.Enabled {
		return nil
	}
	color, err := colormap.ParseHex(c.Contour.Color)
	if err != nil {
		color = colormap.RGB{R: 1, G: 1, B: 1}
	}
	return &visualization.Contour{Interval: interval, Color: color}
}

// SeismicContour returns the slice overlay, or nil when contours are off.
func (c *Config) SeismicContour() *visualization.Contour {
	return c.contour(c.Contour.Interval)
}

// TerrainContour returns the terrain overlay, or nil when contours are off.
func (c *Config) TerrainContour() *visualization.Contour {
	return c.contour(c.Contour.TerrainInterval)
}

// SegyOptions returns the seismic loader options.
func (c *Config) SegyOptions(logger *zap.Logger) segy.Options {
	return segy.Options{
		Logger:          logger,
		InlineOffset:    c.Seismic.InlineOffset,
		CrosslineOffset: c.Seismic.CrosslineOffset,
	}
}

// DEMOptions returns the elevation loader options.
func (c *Config) DEMOptions(logger *zap.Logger) dem.Options {
	return dem.Options{
		Logger:          logger,
		DegreesToMeters: c.Elevation.DegreesToMeters,
		AssumeMeters:    c.Elevation.AssumeMeters,
		HonorNoData:     c.Elevation.HonorNoData,
	}
}

// ViewerOptions returns the slice and wiggle options with the resolved scheme.
func (c *Config) ViewerOptions(logger *zap.Logger) (visualization.ViewerOptions, error) {
	mapper, err := c.ColorMapper()
	if err != nil {
		return visualization.ViewerOptions{}, err
	}
	return visualization.ViewerOptions{
		Mapper:     mapper,
		Contour:    c.SeismicContour(),
		Gain:       c.Wiggle.Gain,
		Spacing:    c.Wiggle.TraceSpacing,
		FixedBlack: c.Wiggle.FixedBlack,
		Workers:    c.Output.Workers,
		Logger:     logger,
	}, nil
}
