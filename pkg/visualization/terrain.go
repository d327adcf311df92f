package visualization

import (
	"fmt"
	"image"
	"math"

	"geovis/internal/models"
	"geovis/pkg/colormap"
)

// MaxTerrainSegments caps the mesh resolution along each axis.
const MaxTerrainSegments = 300

// terrainNorm maps a height into [0, 1] over the grid's valid range.
func terrainNorm(g *models.ElevationGrid, h float64) float64 {
	r := g.Max - g.Min
	if r == 0 {
		r = 1
	}
	return colormap.Clamp01((h - g.Min) / r)
}

// RenderTerrain colors every cell of an elevation grid by its height. A nil
// mapper selects the hue sweep. Row 0 of the image is row 0 of the grid.
func RenderTerrain(g *models.ElevationGrid, mapper colormap.Mapper, contour *Contour) (*image.RGBA, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}
	if mapper == nil {
		mapper = colormap.HueSweep{}
	}
	img := image.NewRGBA(image.Rect(0, 0, g.Width, g.Height))
	for row := 0; row < g.Height; row++ {
		for col := 0; col < g.Width; col++ {
			h := float64(g.At(row, col))
			c := mapper.Map(terrainNorm(g, h))
			if contour.hit(h) {
				c = contour.Color
			}
			img.SetRGBA(col, row, c.RGBA8())
		}
	}
	return img, nil
}

// TerrainMesh is a decimated height field with per-vertex colors.
type TerrainMesh struct {
	Vertices []Vertex
	Faces    [][3]int
}

// TerrainOptions controls BuildTerrainMesh.
type TerrainOptions struct {
	// Exaggeration multiplies heights; zero means 1
	Exaggeration float64

	// MaxSegments caps the grid resolution; zero means MaxTerrainSegments
	MaxSegments int

	// Mapper colors vertices by height; nil selects the hue sweep
	Mapper colormap.Mapper
}

// BuildTerrainMesh samples the grid on a regular lattice of at most
// MaxSegments cells per axis. The mesh is centered on the origin in x/z,
// with x scaled by PixelScaleX and z by PixelScaleY so that ground distances
// share the units of the heights. A scale that is not positive counts as one
// unit per pixel. Heights are measured from zero when the range straddles
// sea level, otherwise from the minimum.
func BuildTerrainMesh(g *models.ElevationGrid, opts TerrainOptions) (*TerrainMesh, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}
	if g.Width < 2 || g.Height < 2 {
		return nil, fmt.Errorf("terrain mesh needs at least 2x2 cells, got %dx%d", g.Width, g.Height)
	}
	exag := opts.Exaggeration
	if exag == 0 {
		exag = 1
	}
	maxSeg := opts.MaxSegments
	if maxSeg <= 0 {
		maxSeg = MaxTerrainSegments
	}
	mapper := opts.Mapper
	if mapper == nil {
		mapper = colormap.HueSweep{}
	}

	segX := min(g.Width-1, maxSeg)
	segY := min(g.Height-1, maxSeg)
	anchor := g.Min
	if g.Min < 0 && g.Max > 0 {
		anchor = 0
	}

	sx, sy := g.PixelScaleX, g.PixelScaleY
	if sx <= 0 {
		sx = 1
	}
	if sy <= 0 {
		sy = 1
	}

	mesh := &TerrainMesh{Vertices: make([]Vertex, 0, (segX+1)*(segY+1))}
	w, h := float64(g.Width), float64(g.Height)
	for iy := 0; iy <= segY; iy++ {
		fy := float64(iy) / float64(segY)
		row := int(math.Floor(fy * (h - 1)))
		for ix := 0; ix <= segX; ix++ {
			fx := float64(ix) / float64(segX)
			col := int(math.Floor(fx * (w - 1)))
			height := float64(g.At(row, col))
			mesh.Vertices = append(mesh.Vertices, Vertex{
				Position: [3]float32{
					float32((fx*w - w/2) * sx),
					float32((height - anchor) * exag),
					float32((fy*h - h/2) * sy),
				},
				Color: mapper.Map(terrainNorm(g, height)),
			})
		}
	}
	stride := segX + 1
	for iy := 0; iy < segY; iy++ {
		for ix := 0; ix < segX; ix++ {
			a := iy*stride + ix
			b, c := a+1, a+stride
			mesh.Faces = append(mesh.Faces, [3]int{a, c, b}, [3]int{b, c, c + 1})
		}
	}
	return mesh, nil
}
