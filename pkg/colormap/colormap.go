// Package colormap maps normalized scalars in [0, 1] to RGB colors, either by
// sweeping hue or by interpolating between sorted color stops.
package colormap

import (
	"fmt"
	"image/color"
	"math"
	"sort"

	"github.com/lucasb-eyer/go-colorful"
)

// RGB is a color with components in [0, 1].
type RGB struct {
	R, G, B float64
}

// Black is the line-art color used when no mapper is supplied.
var Black = RGB{}

// RGBA8 converts the color to 8-bit channels by truncation, alpha opaque.
func (c RGB) RGBA8() color.RGBA {
	return color.RGBA{R: to8(c.R), G: to8(c.G), B: to8(c.B), A: 255}
}

// Hex returns the color as #rrggbb.
func (c RGB) Hex() string {
	return colorful.Color{R: c.R, G: c.G, B: c.B}.Clamped().Hex()
}

// quantEpsilon keeps k/255 round-tripping to k under truncation.
const quantEpsilon = 1e-9

func to8(v float64) uint8 {
	x := math.Floor(v*255 + quantEpsilon)
	if x < 0 {
		return 0
	}
	if x > 255 {
		return 255
	}
	return uint8(x)
}

// ParseHex parses a #rrggbb (or #rgb) color.
func ParseHex(s string) (RGB, error) {
	c, err := colorful.Hex(s)
	if err != nil {
		return RGB{}, fmt.Errorf("invalid color %q: %w", s, err)
	}
	return RGB{R: c.R, G: c.G, B: c.B}, nil
}

// MustHex is ParseHex for package-level tables; it panics on bad input.
func MustHex(s string) RGB {
	c, err := ParseHex(s)
	if err != nil {
		panic(err)
	}
	return c
}

// Mapper maps t in [0, 1] to a color.
type Mapper interface {
	Map(t float64) RGB
}

// MapperFunc adapts a function to the Mapper interface.
type MapperFunc func(t float64) RGB

func (f MapperFunc) Map(t float64) RGB { return f(t) }

// HueSweep is a smooth rainbow: hue = (1-t)*0.7 at full saturation and
// lightness 0.5, so 0 is violet-blue and 1 is red.
type HueSweep struct{}

func (HueSweep) Map(t float64) RGB {
	c := colorful.Hsl((1-t)*0.7*360, 1, 0.5)
	return RGB{R: c.R, G: c.G, B: c.B}
}

// Stop anchors a color at position T.
type Stop struct {
	T     float64
	Color RGB
}

// Stops is a piecewise-linear color ramp. The zero value is not usable; build
// one with NewStops.
type Stops struct {
	stops []Stop
}

// NewStops copies and sorts the anchors by position. At least one stop is
// required.
func NewStops(stops ...Stop) (Stops, error) {
	if len(stops) == 0 {
		return Stops{}, fmt.Errorf("color ramp needs at least one stop")
	}
	s := make([]Stop, len(stops))
	copy(s, stops)
	sort.SliceStable(s, func(i, j int) bool { return s[i].T < s[j].T })
	return Stops{stops: s}, nil
}

// MustStops is NewStops for package-level tables.
func MustStops(stops ...Stop) Stops {
	s, err := NewStops(stops...)
	if err != nil {
		panic(err)
	}
	return s
}

// Anchors returns a copy of the sorted stops.
func (s Stops) Anchors() []Stop {
	out := make([]Stop, len(s.stops))
	copy(out, s.stops)
	return out
}

// Map clamps t to the first/last stop outside the covered range and otherwise
// linearly interpolates between the bracketing pair.
func (s Stops) Map(t float64) RGB {
	first, last := s.stops[0], s.stops[len(s.stops)-1]
	if t <= first.T {
		return first.Color
	}
	if t >= last.T {
		return last.Color
	}
	// first index whose position is >= t; t > first.T so i >= 1
	i := sort.Search(len(s.stops), func(i int) bool { return s.stops[i].T >= t })
	a, b := s.stops[i-1], s.stops[i]
	span := b.T - a.T
	if span <= 0 {
		return b.Color
	}
	return lerp(a.Color, b.Color, (t-a.T)/span)
}

func lerp(a, b RGB, f float64) RGB {
	return RGB{
		R: a.R + (b.R-a.R)*f,
		G: a.G + (b.G-a.G)*f,
		B: a.B + (b.B-a.B)*f,
	}
}

// Diverging is the blue-white-red ramp used for seismic amplitudes when no
// scheme is chosen: blue at 0, white at 0.5, red at 1. Channels are quantized
// to 8 bits so the ramp matches the byte ramp of the slice extractor.
type Diverging struct{}

func (Diverging) Map(t float64) RGB {
	c := DivergingRGBA(t)
	return RGB{R: float64(c.R) / 255, G: float64(c.G) / 255, B: float64(c.B) / 255}
}

// DivergingRGBA is the 8-bit form of Diverging.
func DivergingRGBA(t float64) color.RGBA {
	if t < 0.5 {
		lt := t * 2
		v := to8(lt)
		return color.RGBA{R: v, G: v, B: 255, A: 255}
	}
	lt := (t - 0.5) * 2
	v := to8(1 - lt)
	return color.RGBA{R: 255, G: v, B: v, A: 255}
}

// Clamp01 limits t to [0, 1].
func Clamp01(t float64) float64 {
	if t < 0 {
		return 0
	}
	if t > 1 {
		return 1
	}
	return t
}
