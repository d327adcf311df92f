package visualization

import (
	"geovis/internal/models"
	"geovis/pkg/colormap"
)

// Vertex is a mesh corner with its color.
type Vertex struct {
	Position [3]float32
	Color    colormap.RGB
}

// Triangle is three vertices in winding order.
type Triangle [3]Vertex

// WaveformMesh is the filled positive lobe of every trace of a plane.
type WaveformMesh struct {
	Kind      models.PlaneKind
	Index     int
	Triangles []Triangle
}

// Vertices flattens the mesh into a vertex list, three per triangle.
func (m *WaveformMesh) Vertices() []Vertex {
	out := make([]Vertex, 0, 3*len(m.Triangles))
	for _, t := range m.Triangles {
		out = append(out, t[:]...)
	}
	return out
}

// WiggleOptions controls BuildWiggle.
type WiggleOptions struct {
	// Gain scales the horizontal excursion of each peak
	Gain float64

	// Spacing is the horizontal distance between traces; zero means 1
	Spacing float64

	// Mapper colors vertices by amplitude; nil draws everything black
	Mapper colormap.Mapper
}

// BuildWiggle builds a variable-area display of the plane at index. Trace x
// of the plane sits at x*Spacing and its samples run down y. For every pair
// of adjacent samples where either is positive, a quadrilateral spans from
// the zero line to the clipped amplitude:
//
//	peak x = base x + max(0, v) * gain * 2 / maxAbs
//
// Zero-line vertices take the mapper's color at the midpoint of the scale and
// peak vertices take the color of their own amplitude.
func BuildWiggle(vol *models.SeismicVolume, kind models.PlaneKind, index int, opts WiggleOptions) (*WaveformMesh, error) {
	plane, err := Extract(vol, kind, index, nil, nil)
	if err != nil {
		return nil, err
	}
	spacing := opts.Spacing
	if spacing == 0 {
		spacing = 1
	}
	maxAbs := vol.MaxAbs()
	scaler := opts.Gain * 2 / maxAbs

	color := func(v float64) colormap.RGB {
		if opts.Mapper == nil {
			return colormap.Black
		}
		return opts.Mapper.Map(SymmetricNorm(v, maxAbs))
	}
	base := color(0)

	mesh := &WaveformMesh{Kind: kind, Index: index}
	w, h := plane.Width, plane.Height
	for i := 0; i < w; i++ {
		x0 := float32(float64(i) * spacing)
		for j := 0; j+1 < h; j++ {
			v1 := float64(plane.Values[j*w+i])
			v2 := float64(plane.Values[(j+1)*w+i])
			if !(v1 > 0 || v2 > 0) {
				continue
			}
			y1, y2 := float32(j), float32(j+1)
			x1 := x0 + float32(max(0, v1)*scaler)
			x2 := x0 + float32(max(0, v2)*scaler)
			c1, c2 := color(v1), color(v2)

			b1 := Vertex{Position: [3]float32{x0, y1, 0}, Color: base}
			b2 := Vertex{Position: [3]float32{x0, y2, 0}, Color: base}
			p1 := Vertex{Position: [3]float32{x1, y1, 0}, Color: c1}
			p2 := Vertex{Position: [3]float32{x2, y2, 0}, Color: c2}
			mesh.Triangles = append(mesh.Triangles,
				Triangle{b1, p1, b2},
				Triangle{p1, p2, b2})
		}
	}
	return mesh, nil
}
