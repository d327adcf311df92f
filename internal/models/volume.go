package models

import (
	"fmt"
	"math"
	"strings"
)

// ElevationGrid is a sanitized 2D height raster produced by the elevation loader.
// Values are stored row-major (row*Width + col).
type ElevationGrid struct {
	// Width and Height are the raster dimensions in pixels
	Width  int
	Height int

	// Values holds Width*Height heights. Invalid source samples have already
	// been replaced by Min, so every value lies within [Min, Max].
	Values []float32

	// Min and Max are the valid range found during sanitization, not the raw
	// range of the source band
	Min float64
	Max float64

	// PixelScaleX and PixelScaleY are the physical size of a pixel, in meters
	// when the source carried a usable scale
	PixelScaleX float64
	PixelScaleY float64

	// HasPixelScale reports whether the source carried a pixel scale tag
	HasPixelScale bool
}

// At returns the height at the given pixel.
func (g *ElevationGrid) At(row, col int) float32 {
	return g.Values[row*g.Width+col]
}

// Validate checks the grid invariants.
func (g *ElevationGrid) Validate() error {
	if g.Width <= 0 || g.Height <= 0 {
		return fmt.Errorf("invalid grid dimensions %dx%d", g.Width, g.Height)
	}
	if len(g.Values) != g.Width*g.Height {
		return fmt.Errorf("grid has %d values, expected %d", len(g.Values), g.Width*g.Height)
	}
	if g.Min > g.Max {
		return fmt.Errorf("grid range [%g, %g] is inverted", g.Min, g.Max)
	}
	return nil
}

// SeismicVolume represents a 3D seismic survey as a dense flat array in
// row-major order: inline-major, then crossline, then time.
type SeismicVolume struct {
	// Samples holds NInlines*NCrosslines*NSamples amplitudes
	Samples []float32

	// Dimensions of the volume
	NInlines    int
	NCrosslines int
	NSamples    int

	// InlineKeys and CrosslineKeys are the sorted distinct header keys; the
	// position of a key is its grid index
	InlineKeys    []int32
	CrosslineKeys []int32

	// Min and Max are the global amplitude range over every decoded sample
	Min float64
	Max float64

	// SampleInterval is the time step between samples in microseconds
	SampleInterval int16

	// FormatCode is the sample encoding the volume was decoded from
	FormatCode int16
}

// Index maps a logical (inline, crossline, time) position to the flat offset.
func (v *SeismicVolume) Index(il, xl, t int) int {
	return (il*v.NCrosslines+xl)*v.NSamples + t
}

// At returns the sample at (il, xl, t) and false when the position is outside
// the volume.
func (v *SeismicVolume) At(il, xl, t int) (float32, bool) {
	if il < 0 || il >= v.NInlines || xl < 0 || xl >= v.NCrosslines || t < 0 || t >= v.NSamples {
		return 0, false
	}
	return v.Samples[v.Index(il, xl, t)], true
}

// Trace returns the samples of one trace. The slice aliases the volume.
func (v *SeismicVolume) Trace(il, xl int) []float32 {
	start := v.Index(il, xl, 0)
	return v.Samples[start : start+v.NSamples]
}

// MaxAbs returns the symmetric normalization range max(|Min|, |Max|), or 1
// when the volume is all zero.
func (v *SeismicVolume) MaxAbs() float64 {
	r := math.Max(math.Abs(v.Min), math.Abs(v.Max))
	if r == 0 || math.IsNaN(r) || math.IsInf(r, 0) {
		return 1
	}
	return r
}

// Validate checks the volume invariants.
func (v *SeismicVolume) Validate() error {
	if v.NInlines <= 0 || v.NCrosslines <= 0 || v.NSamples <= 0 {
		return fmt.Errorf("invalid volume dimensions %dx%dx%d", v.NInlines, v.NCrosslines, v.NSamples)
	}
	if want := v.NInlines * v.NCrosslines * v.NSamples; len(v.Samples) != want {
		return fmt.Errorf("volume has %d samples, expected %d", len(v.Samples), want)
	}
	if len(v.InlineKeys) != v.NInlines {
		return fmt.Errorf("volume has %d inline keys for %d inlines", len(v.InlineKeys), v.NInlines)
	}
	if len(v.CrosslineKeys) != v.NCrosslines {
		return fmt.Errorf("volume has %d crossline keys for %d crosslines", len(v.CrosslineKeys), v.NCrosslines)
	}
	return nil
}

// PlaneKind selects which axis is held constant when cutting a plane.
type PlaneKind int

const (
	Inline PlaneKind = iota
	Crossline
	TimeSlice
)

func (k PlaneKind) String() string {
	switch k {
	case Inline:
		return "inline"
	case Crossline:
		return "crossline"
	case TimeSlice:
		return "time"
	}
	return fmt.Sprintf("PlaneKind(%d)", int(k))
}

// ParsePlaneKind accepts "inline", "crossline" and "time" (or il, xl, t).
func ParsePlaneKind(s string) (PlaneKind, error) {
	switch strings.ToLower(s) {
	case "inline", "il":
		return Inline, nil
	case "crossline", "xl":
		return Crossline, nil
	case "time", "t", "timeslice":
		return TimeSlice, nil
	}
	return 0, fmt.Errorf("invalid plane kind: %s (must be inline, crossline, or time)", s)
}

// PlaneDims returns the width and height of a plane of the given kind, plus
// the number of valid indices for it.
//
//	Inline:    width = NCrosslines, height = NSamples, span = NInlines
//	Crossline: width = NInlines,    height = NSamples, span = NCrosslines
//	TimeSlice: width = NInlines,    height = NCrosslines, span = NSamples
func (v *SeismicVolume) PlaneDims(kind PlaneKind) (width, height, span int, err error) {
	switch kind {
	case Inline:
		return v.NCrosslines, v.NSamples, v.NInlines, nil
	case Crossline:
		return v.NInlines, v.NSamples, v.NCrosslines, nil
	case TimeSlice:
		return v.NInlines, v.NCrosslines, v.NSamples, nil
	}
	return 0, 0, 0, fmt.Errorf("invalid plane kind %d", int(kind))
}

// CheckPlaneIndex returns an error wrapping ErrOutOfRange when index is not a
// valid position for the plane kind.
func (v *SeismicVolume) CheckPlaneIndex(kind PlaneKind, index int) error {
	_, _, span, err := v.PlaneDims(kind)
	if err != nil {
		return err
	}
	if index < 0 || index >= span {
		return fmt.Errorf("%w: %s index %d not in [0, %d)", ErrOutOfRange, kind, index, span)
	}
	return nil
}

// Position returns the physical location of a plane: the inline or crossline
// header key, or the time in milliseconds for a time slice.
func (v *SeismicVolume) Position(kind PlaneKind, index int) float64 {
	switch kind {
	case Inline:
		if index >= 0 && index < len(v.InlineKeys) {
			return float64(v.InlineKeys[index])
		}
	case Crossline:
		if index >= 0 && index < len(v.CrosslineKeys) {
			return float64(v.CrosslineKeys[index])
		}
	case TimeSlice:
		return float64(index) * float64(v.SampleInterval) / 1000
	}
	return float64(index)
}
