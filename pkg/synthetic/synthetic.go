// Package synthetic generates demonstration terrain and seismic data with the
// same shapes and invariants as loaded data.
package synthetic

import (
	"fmt"
	"math"

	"geovis/internal/models"
	"geovis/pkg/dem"
	"geovis/pkg/segy"
)

// Terrain surface parameters.
const (
	TerrainAmplitude = 50.0
	TerrainFrequency = 0.1
)

// Seismic model parameters: a carrier wave along time, folded by a smooth
// shift surface, with one positive and one negative reflector band.
const (
	FoldAmplitude     = 15.0
	FoldWavenumber    = 0.05
	CarrierWavenumber = 0.15
	ReflectorStrength = 1.2

	// SampleInterval of generated volumes in microseconds
	SampleInterval = 4000
)

// TerrainRaster returns a radial sinc surface peaking at the center.
func TerrainRaster(width, height int) *dem.Raster {
	r := &dem.Raster{Width: width, Height: height, Band: make([]float64, width*height)}
	cx, cy := float64(width)/2, float64(height)/2
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			d := math.Hypot(float64(x)-cx, float64(y)-cy) * TerrainFrequency
			v := TerrainAmplitude
			if d != 0 {
				v = math.Sin(d) / d * TerrainAmplitude
			}
			r.Band[y*width+x] = v
		}
	}
	return r
}

// Terrain builds a sanitized elevation grid from TerrainRaster.
func Terrain(width, height int) (*models.ElevationGrid, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid terrain size %dx%d", width, height)
	}
	return dem.NewLoader(dem.Options{}).Build(TerrainRaster(width, height))
}

// SeismicSample is the amplitude of the model at grid position (il, xl, t).
func SeismicSample(il, xl, t int) float32 {
	shift := math.Sin(float64(il)*FoldWavenumber)*FoldAmplitude +
		math.Cos(float64(xl)*FoldWavenumber)*FoldAmplitude
	ft := float64(t)
	v := math.Sin((ft + shift) * CarrierWavenumber)
	if ft > 40+shift && ft < 60+shift {
		v += ReflectorStrength
	}
	if ft > 110+shift && ft < 130+shift {
		v -= ReflectorStrength
	}
	return float32(v)
}

func checkDims(nInlines, nCrosslines, nSamples int) error {
	if nInlines <= 0 || nCrosslines <= 0 || nSamples <= 0 {
		return fmt.Errorf("invalid seismic size %dx%dx%d", nInlines, nCrosslines, nSamples)
	}
	return nil
}

// Seismic builds a volume with keys 1..n along both axes and its true
// amplitude range.
func Seismic(nInlines, nCrosslines, nSamples int) (*models.SeismicVolume, error) {
	if err := checkDims(nInlines, nCrosslines, nSamples); err != nil {
		return nil, err
	}
	vol := &models.SeismicVolume{
		Samples:        make([]float32, nInlines*nCrosslines*nSamples),
		NInlines:       nInlines,
		NCrosslines:    nCrosslines,
		NSamples:       nSamples,
		InlineKeys:     sequence(nInlines),
		CrosslineKeys:  sequence(nCrosslines),
		SampleInterval: SampleInterval,
		FormatCode:     segy.FormatIEEE,
		Min:            math.Inf(1),
		Max:            math.Inf(-1),
	}
	for il := 0; il < nInlines; il++ {
		for xl := 0; xl < nCrosslines; xl++ {
			for t := 0; t < nSamples; t++ {
				v := SeismicSample(il, xl, t)
				vol.Samples[vol.Index(il, xl, t)] = v
				vol.Min = math.Min(vol.Min, float64(v))
				vol.Max = math.Max(vol.Max, float64(v))
			}
		}
	}
	return vol, vol.Validate()
}

// SeismicTraces returns the Seismic model as trace records for segy.Write,
// in inline-major order.
func SeismicTraces(nInlines, nCrosslines, nSamples int) ([]segy.TraceRecord, error) {
	if err := checkDims(nInlines, nCrosslines, nSamples); err != nil {
		return nil, err
	}
	traces := make([]segy.TraceRecord, 0, nInlines*nCrosslines)
	for il := 0; il < nInlines; il++ {
		for xl := 0; xl < nCrosslines; xl++ {
			samples := make([]float32, nSamples)
			for t := range samples {
				samples[t] = SeismicSample(il, xl, t)
			}
			traces = append(traces, segy.TraceRecord{
				Inline:    int32(il + 1),
				Crossline: int32(xl + 1),
				Samples:   samples,
			})
		}
	}
	return traces, nil
}

func sequence(n int) []int32 {
	keys := make([]int32, n)
	for i := range keys {
		keys[i] = int32(i + 1)
	}
	return keys
}
