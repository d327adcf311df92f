package visualization

import (
	"image"
	"image/color"
	"math"

	"geovis/internal/models"
	"geovis/pkg/colormap"
)

// ContourTolerance is how close |value/interval| must be to an integer for a
// pixel to be painted as an iso-line.
const ContourTolerance = 0.05

// Contour paints banded iso-value lines into a pixel buffer.
type Contour struct {
	// Interval between iso-values; non-positive disables the overlay
	Interval float64

	// Color of contour pixels
	Color colormap.RGB
}

func (c *Contour) hit(v float64) bool {
	if c == nil || c.Interval <= 0 || math.IsNaN(v) {
		return false
	}
	f := math.Abs(v / c.Interval)
	return math.Abs(f-math.Round(f)) < ContourTolerance
}

// PlaneSlice is a colored 2D cut through a seismic volume.
type PlaneSlice struct {
	Kind  models.PlaneKind
	Index int

	// Position is the physical location of the plane: inline or crossline
	// key, or time in milliseconds
	Position float64

	Width  int
	Height int

	// Values holds the scalar samples, Values[y*Width+x]
	Values []float32

	// Pixels holds Width*Height RGBA quadruplets in the same order
	Pixels []uint8
}

// Image wraps the pixel buffer without copying it.
func (s *PlaneSlice) Image() *image.RGBA {
	return &image.RGBA{
		Pix:    s.Pixels,
		Stride: 4 * s.Width,
		Rect:   image.Rect(0, 0, s.Width, s.Height),
	}
}

// Extract cuts the plane of the given kind at index. Pixel (x, y) holds the
// sample at:
//
//	Inline:    crossline x, time y
//	Crossline: inline x,    time y
//	TimeSlice: inline x,    crossline y
//
// Samples are normalized by the symmetric range of the volume so zero maps
// to the middle of the color scale. A nil mapper selects the blue-white-red
// diverging ramp. An index outside the plane span returns an error wrapping
// models.ErrOutOfRange and no slice.
func Extract(vol *models.SeismicVolume, kind models.PlaneKind, index int, mapper colormap.Mapper, contour *Contour) (*PlaneSlice, error) {
	if err := vol.CheckPlaneIndex(kind, index); err != nil {
		return nil, err
	}
	width, height, _, _ := vol.PlaneDims(kind)

	s := &PlaneSlice{
		Kind:     kind,
		Index:    index,
		Position: vol.Position(kind, index),
		Width:    width,
		Height:   height,
		Values:   make([]float32, width*height),
		Pixels:   make([]uint8, 4*width*height),
	}

	switch kind {
	case models.Inline:
		for xl := 0; xl < vol.NCrosslines; xl++ {
			for t, v := range vol.Trace(index, xl) {
				s.Values[t*width+xl] = v
			}
		}
	case models.Crossline:
		for il := 0; il < vol.NInlines; il++ {
			for t, v := range vol.Trace(il, index) {
				s.Values[t*width+il] = v
			}
		}
	case models.TimeSlice:
		for il := 0; il < vol.NInlines; il++ {
			for xl := 0; xl < vol.NCrosslines; xl++ {
				s.Values[xl*width+il] = vol.Samples[vol.Index(il, xl, index)]
			}
		}
	}

	maxAbs := vol.MaxAbs()
	var contourColor [4]uint8
	if contour != nil {
		c := contour.Color.RGBA8()
		contourColor = [4]uint8{c.R, c.G, c.B, 255}
	}
	for i, v := range s.Values {
		t := SymmetricNorm(float64(v), maxAbs)
		px := s.Pixels[i*4 : i*4+4]
		if contour.hit(float64(v)) {
			copy(px, contourColor[:])
			continue
		}
		var c color.RGBA
		if mapper != nil {
			c = mapper.Map(t).RGBA8()
		} else {
			c = colormap.DivergingRGBA(t)
		}
		px[0], px[1], px[2], px[3] = c.R, c.G, c.B, 255
	}
	return s, nil
}

// SymmetricNorm maps v in [-maxAbs, maxAbs] to [0, 1], clamping outside.
// NaN maps to the midpoint.
func SymmetricNorm(v, maxAbs float64) float64 {
	n := v / maxAbs
	switch {
	case math.IsNaN(n):
		n = 0
	case n < -1:
		n = -1
	case n > 1:
		n = 1
	}
	return (n + 1) / 2
}
