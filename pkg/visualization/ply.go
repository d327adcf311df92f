package visualization

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"geovis/pkg/stl"
)

// WritePLY writes the mesh as ASCII PLY, three vertices per face.
func (m *WaveformMesh) WritePLY(w io.Writer) error {
	faces := make([][3]int, len(m.Triangles))
	for i := range faces {
		faces[i] = [3]int{3 * i, 3*i + 1, 3*i + 2}
	}
	return writePLY(w, m.Vertices(), faces)
}

// WritePLY writes the mesh as ASCII PLY with shared vertices.
func (m *TerrainMesh) WritePLY(w io.Writer) error {
	return writePLY(w, m.Vertices, m.Faces)
}

func writePLY(w io.Writer, vertices []Vertex, faces [][3]int) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "ply\nformat ascii 1.0\n")
	fmt.Fprintf(bw, "element vertex %d\n", len(vertices))
	fmt.Fprintf(bw, "property float x\nproperty float y\nproperty float z\n")
	fmt.Fprintf(bw, "property uchar red\nproperty uchar green\nproperty uchar blue\n")
	fmt.Fprintf(bw, "element face %d\n", len(faces))
	fmt.Fprintf(bw, "property list uchar int vertex_indices\nend_header\n")
	for _, v := range vertices {
		c := v.Color.RGBA8()
		fmt.Fprintf(bw, "%g %g %g %d %d %d\n", v.Position[0], v.Position[1], v.Position[2], c.R, c.G, c.B)
	}
	for _, f := range faces {
		fmt.Fprintf(bw, "3 %d %d %d\n", f[0], f[1], f[2])
	}
	return bw.Flush()
}

// STLTriangles returns the mesh facets without colors.
func (m *WaveformMesh) STLTriangles() []stl.Triangle {
	out := make([]stl.Triangle, len(m.Triangles))
	for i, t := range m.Triangles {
		out[i] = stl.NewTriangle(t[0].Position, t[1].Position, t[2].Position)
	}
	return out
}

// STLTriangles returns the mesh facets without colors.
func (m *TerrainMesh) STLTriangles() []stl.Triangle {
	out := make([]stl.Triangle, len(m.Faces))
	for i, f := range m.Faces {
		out[i] = stl.NewTriangle(m.Vertices[f[0]].Position, m.Vertices[f[1]].Position, m.Vertices[f[2]].Position)
	}
	return out
}

// Mesh is implemented by WaveformMesh and TerrainMesh.
type Mesh interface {
	WritePLY(w io.Writer) error
	STLTriangles() []stl.Triangle
}

// SaveMesh writes m as binary STL when filename ends in .stl and as ASCII
// PLY otherwise.
func SaveMesh(m Mesh, filename string) error {
	if strings.EqualFold(filepath.Ext(filename), ".stl") {
		return stl.SaveToSTL(filename, m.STLTriangles())
	}
	if err := os.MkdirAll(filepath.Dir(filename), 0755); err != nil {
		return err
	}
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	if err := m.WritePLY(file); err != nil {
		file.Close()
		return fmt.Errorf("failed to write mesh %s: %w", filename, err)
	}
	return file.Close()
}
