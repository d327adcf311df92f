package dem

import (
	"archive/zip"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"path"
	"strings"

	"geovis/internal/models"
)

// SRTMVoid is the no-data sentinel of .hgt tiles.
const SRTMVoid = -32768

func isZip(data []byte) bool {
	return len(data) >= 4 && string(data[:4]) == "PK\x03\x04"
}

// DecodeHGT reads an SRTM tile: a square of big-endian int16 heights whose
// edge covers one degree.
func DecodeHGT(data []byte) (*Raster, error) {
	n := int(math.Sqrt(float64(len(data) / 2)))
	if n < 2 || n*n*2 != len(data) {
		return nil, models.NewFormatError("", "%d bytes is not a square int16 tile", len(data))
	}
	void := float64(SRTMVoid)
	r := &Raster{
		Width:    n,
		Height:   n,
		Band:     make([]float64, n*n),
		ScaleX:   1 / float64(n-1),
		ScaleY:   1 / float64(n-1),
		HasScale: true,
		NoData:   &void,
	}
	for i := range r.Band {
		r.Band[i] = float64(int16(binary.BigEndian.Uint16(data[i*2:])))
	}
	return r, nil
}

// DecodeHGTZip reads the first .hgt entry of a zip archive.
func DecodeHGTZip(data []byte) (*Raster, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, models.NewFormatError("", "zip: %v", err)
	}
	for _, f := range zr.File {
		base := path.Base(f.Name)
		if strings.HasPrefix(base, ".") || !strings.EqualFold(path.Ext(base), ".hgt") {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, models.NewFormatError("", "zip entry %s: %v", f.Name, err)
		}
		tile, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, models.NewFormatError("", "zip entry %s: %v", f.Name, err)
		}
		return DecodeHGT(tile)
	}
	return nil, models.NewFormatError("", "archive holds no .hgt tile")
}

// EncodeHGT writes a square grid as an SRTM tile, rounding heights to the
// nearest integer.
func EncodeHGT(w io.Writer, g *models.ElevationGrid) error {
	if err := g.Validate(); err != nil {
		return err
	}
	if g.Width != g.Height || g.Width < 2 {
		return fmt.Errorf("SRTM tiles are square with at least 2x2 cells, got %dx%d", g.Width, g.Height)
	}
	buf := make([]byte, 2*len(g.Values))
	for i, v := range g.Values {
		h := math.Max(math.MinInt16+1, math.Min(math.MaxInt16, math.Round(float64(v))))
		binary.BigEndian.PutUint16(buf[i*2:], uint16(int16(h)))
	}
	_, err := w.Write(buf)
	return err
}
