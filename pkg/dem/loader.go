// Package dem loads digital elevation models into sanitized height grids.
package dem

import (
	"bytes"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"geovis/internal/logging"
	"geovis/internal/models"
)

const (
	// SafeMin and SafeMax bound plausible terrestrial heights in meters.
	// Samples outside the envelope are treated as no-data.
	SafeMin = -15000.0
	SafeMax = 15000.0

	// DefaultDegreesToMeters converts a geographic pixel scale to meters.
	DefaultDegreesToMeters = 111000.0

	// DegreeScaleThreshold marks a pixel scale below it as degrees.
	DegreeScaleThreshold = 0.1
)

// Raster is the first band of a decoded elevation source before sanitization.
type Raster struct {
	Width  int
	Height int

	// Band holds Width*Height raw samples row-major
	Band []float64

	// ScaleX and ScaleY are the source pixel scale, valid when HasScale is set
	ScaleX   float64
	ScaleY   float64
	HasScale bool

	// NoData marks a sentinel sample value, when the source declares one
	NoData *float64
}

// Options configures a Loader.
type Options struct {
	// Logger receives sanitization diagnostics; nil discards them
	Logger *zap.Logger

	// DegreesToMeters replaces DefaultDegreesToMeters when positive
	DegreesToMeters float64

	// AssumeMeters disables the degree heuristic
	AssumeMeters bool

	// HonorNoData also floors samples equal to the source's declared
	// no-data value. Off, only the SafeMin/SafeMax envelope applies.
	HonorNoData bool
}

// Loader decodes GeoTIFF and SRTM sources into elevation grids.
type Loader struct {
	logger          *zap.Logger
	metersPerDegree float64
	assumeMeters    bool
	honorNoData     bool
}

// NewLoader creates a loader.
func NewLoader(opts Options) *Loader {
	m := opts.DegreesToMeters
	if m <= 0 {
		m = DefaultDegreesToMeters
	}
	return &Loader{
		logger:          logging.OrNop(opts.Logger),
		metersPerDegree: m,
		assumeMeters:    opts.AssumeMeters,
		honorNoData:     opts.HonorNoData,
	}
}

// Load reads an elevation file from disk.
func (l *Loader) Load(ctx context.Context, path string) (*models.ElevationGrid, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open elevation file: %w", err)
	}
	defer f.Close()
	return l.LoadReader(ctx, f, path)
}

// LoadReader waits for the full source buffer before decoding.
func (l *Loader) LoadReader(ctx context.Context, r io.Reader, name string) (*models.ElevationGrid, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return l.LoadBytes(data, name)
}

// LoadBytes detects the container format of data and decodes it. Gzip
// streams are unwrapped first; name is used for the .hgt extension check.
func (l *Loader) LoadBytes(data []byte, name string) (*models.ElevationGrid, error) {
	r, err := l.decode(data, name)
	if err != nil {
		return nil, withSource(err, name)
	}
	grid, err := l.Build(r)
	if err != nil {
		return nil, withSource(err, name)
	}
	l.logger.Info("elevation grid loaded",
		zap.String("source", name),
		zap.Int("width", grid.Width),
		zap.Int("height", grid.Height),
		zap.Float64("min", grid.Min),
		zap.Float64("max", grid.Max),
		zap.Float64("pixelScaleX", grid.PixelScaleX),
		zap.Float64("pixelScaleY", grid.PixelScaleY))
	return grid, nil
}

func (l *Loader) decode(data []byte, name string) (*Raster, error) {
	switch {
	case len(data) >= 2 && data[0] == 0x1f && data[1] == 0x8b:
		zr, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, models.NewFormatError("", "gzip: %v", err)
		}
		defer zr.Close()
		inner, err := io.ReadAll(zr)
		if err != nil {
			return nil, models.NewFormatError("", "gzip: %v", err)
		}
		return l.decode(inner, strings.TrimSuffix(name, filepath.Ext(name)))
	case IsTIFF(data):
		return DecodeGeoTIFF(data)
	case isZip(data):
		return DecodeHGTZip(data)
	case strings.EqualFold(filepath.Ext(name), ".hgt"):
		return DecodeHGT(data)
	}
	return nil, models.NewFormatError("", "unrecognized elevation format")
}

// Build sanitizes a raster into a grid. Samples that are non-finite or
// outside [SafeMin, SafeMax] are replaced by the smallest valid sample, as
// are no-data samples when the loader honors them.
func (l *Loader) Build(r *Raster) (*models.ElevationGrid, error) {
	if r == nil || len(r.Band) == 0 {
		return nil, models.NewFormatError("", "no readable elevation band")
	}
	if r.Width <= 0 || r.Height <= 0 || len(r.Band) != r.Width*r.Height {
		return nil, models.NewFormatError("", "band has %d samples for %dx%d raster", len(r.Band), r.Width, r.Height)
	}

	valid := func(v float64) bool {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < SafeMin || v > SafeMax {
			return false
		}
		return !l.honorNoData || r.NoData == nil || v != *r.NoData
	}

	values := make([]float32, len(r.Band))
	minV, maxV := math.Inf(1), math.Inf(-1)
	invalid := 0
	for i, raw := range r.Band {
		if !valid(raw) {
			invalid++
			continue
		}
		v := float32(raw)
		values[i] = v
		minV = math.Min(minV, float64(v))
		maxV = math.Max(maxV, float64(v))
	}
	if invalid == len(r.Band) {
		minV, maxV = 0, 100
		l.logger.Warn("no valid elevation samples, using default range",
			zap.Int("samples", len(r.Band)))
	} else if minV == maxV {
		maxV = minV + 1
	}
	if invalid > 0 {
		for i, raw := range r.Band {
			if !valid(raw) {
				values[i] = float32(minV)
			}
		}
		l.logger.Debug("replaced invalid elevation samples",
			zap.Int("invalid", invalid),
			zap.Float64("fill", minV))
	}

	grid := &models.ElevationGrid{
		Width:         r.Width,
		Height:        r.Height,
		Values:        values,
		Min:           minV,
		Max:           maxV,
		PixelScaleX:   1,
		PixelScaleY:   1,
		HasPixelScale: r.HasScale,
	}
	if r.HasScale {
		grid.PixelScaleX, grid.PixelScaleY = math.Abs(r.ScaleX), math.Abs(r.ScaleY)
		if !l.assumeMeters && grid.PixelScaleX < DegreeScaleThreshold {
			l.logger.Warn("pixel scale looks like degrees, converting to meters",
				zap.Float64("scaleX", grid.PixelScaleX),
				zap.Float64("metersPerDegree", l.metersPerDegree))
			grid.PixelScaleX *= l.metersPerDegree
			grid.PixelScaleY *= l.metersPerDegree
		}
	}
	return grid, nil
}

func withSource(err error, name string) error {
	if fe, ok := err.(*models.FormatError); ok && fe.Source == "" {
		return &models.FormatError{Source: name, Reason: fe.Reason}
	}
	return err
}
