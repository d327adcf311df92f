// Package stl writes triangle meshes as binary STL.
package stl

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
)

// Binary STL layout sizes.
const (
	HeaderSize   = 80
	TriangleSize = 50
)

// Triangle is one facet. Vertices are wound counter-clockwise when seen from
// the side Normal points to.
type Triangle struct {
	Normal  [3]float32
	Vertex1 [3]float32
	Vertex2 [3]float32
	Vertex3 [3]float32
}

// NewTriangle builds a facet and derives its normal from the winding.
func NewTriangle(v1, v2, v3 [3]float32) Triangle {
	return Triangle{Normal: FacetNormal(v1, v2, v3), Vertex1: v1, Vertex2: v2, Vertex3: v3}
}

// FacetNormal returns the unit normal of (v2-v1) x (v3-v1), or zero for a
// degenerate facet.
func FacetNormal(v1, v2, v3 [3]float32) [3]float32 {
	ax, ay, az := float64(v2[0]-v1[0]), float64(v2[1]-v1[1]), float64(v2[2]-v1[2])
	bx, by, bz := float64(v3[0]-v1[0]), float64(v3[1]-v1[1]), float64(v3[2]-v1[2])
	nx, ny, nz := ay*bz-az*by, az*bx-ax*bz, ax*by-ay*bx
	mag := math.Sqrt(nx*nx + ny*ny + nz*nz)
	if mag == 0 {
		return [3]float32{}
	}
	return [3]float32{float32(nx / mag), float32(ny / mag), float32(nz / mag)}
}

// Write emits triangles as little-endian binary STL. The header text is
// truncated to 80 bytes.
func Write(w io.Writer, triangles []Triangle, header string) error {
	if uint64(len(triangles)) > math.MaxUint32 {
		return fmt.Errorf("%d triangles exceed the STL count field", len(triangles))
	}
	bw := bufio.NewWriter(w)

	var head [HeaderSize]byte
	copy(head[:], header)
	bw.Write(head[:])

	var buf [TriangleSize]byte
	binary.LittleEndian.PutUint32(buf[:4], uint32(len(triangles)))
	bw.Write(buf[:4])

	for _, t := range triangles {
		off := 0
		for _, v := range [4][3]float32{t.Normal, t.Vertex1, t.Vertex2, t.Vertex3} {
			for _, c := range v {
				binary.LittleEndian.PutUint32(buf[off:], math.Float32bits(c))
				off += 4
			}
		}
		buf[48], buf[49] = 0, 0
		if _, err := bw.Write(buf[:]); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// SaveToSTL writes triangles to filename, creating parent directories.
func SaveToSTL(filename string, triangles []Triangle) error {
	if err := os.MkdirAll(filepath.Dir(filename), 0755); err != nil {
		return err
	}
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create STL file: %w", err)
	}
	if err := Write(file, triangles, "geovis binary STL"); err != nil {
		file.Close()
		return fmt.Errorf("failed to write STL file: %w", err)
	}
	return file.Close()
}
