package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"geovis/internal/models"
	"geovis/pkg/dem"
	"geovis/pkg/segy"
)

// Input kinds accepted by --type
const (
	kindAuto      = "auto"
	kindSeismic   = "seismic"
	kindElevation = "elevation"
)

// isSeismic decides whether path is read as SEG-Y. Auto looks at the
// extension, ignoring a trailing .gz.
func isSeismic(path, kind string) (bool, error) {
	switch strings.ToLower(kind) {
	case kindSeismic:
		return true, nil
	case kindElevation:
		return false, nil
	case kindAuto, "":
		name := strings.TrimSuffix(strings.ToLower(path), ".gz")
		switch filepath.Ext(name) {
		case ".sgy", ".segy":
			return true, nil
		}
		return false, nil
	}
	return false, fmt.Errorf("unknown input type %q (want %s, %s or %s)", kind, kindAuto, kindSeismic, kindElevation)
}

func loadSeismic(ctx context.Context, path string) (*models.SeismicVolume, error) {
	vol, err := segy.NewLoader(cfg.SegyOptions(logger)).Load(ctx, path)
	if err != nil {
		return nil, err
	}
	logger.Debug("Loaded seismic volume",
		zap.String("path", path),
		zap.Int("inlines", vol.NInlines),
		zap.Int("crosslines", vol.NCrosslines),
		zap.Int("samples", vol.NSamples))
	return vol, nil
}

func loadElevation(ctx context.Context, path string) (*models.ElevationGrid, error) {
	grid, err := dem.NewLoader(cfg.DEMOptions(logger)).Load(ctx, path)
	if err != nil {
		return nil, err
	}
	logger.Debug("Loaded elevation grid",
		zap.String("path", path),
		zap.Int("width", grid.Width),
		zap.Int("height", grid.Height))
	return grid, nil
}

// applyDisplayFlags folds the per-command --scheme and --contour flags into
// the loaded configuration.
func applyDisplayFlags(scheme string, contour float64, terrain bool) error {
	if scheme != "" {
		if terrain {
			cfg.Display.TerrainScheme = scheme
		} else {
			cfg.Display.Scheme = scheme
		}
	}
	if contour > 0 {
		cfg.Contour.Enabled = true
		if terrain {
			cfg.Contour.TerrainInterval = contour
		} else {
			cfg.Contour.Interval = contour
		}
	}
	return cfg.Validate()
}
