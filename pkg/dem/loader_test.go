package dem

import (
	"archive/zip"
	"bytes"
	"compress/gzip"
	"compress/lzw"
	"compress/zlib"
	"context"
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"geovis/internal/models"
)

type tiffField struct {
	tag    uint16
	values any
}

// buildTIFF assembles a single-image classic TIFF. Chunk data is written
// first, then out-of-line field values, then the IFD.
func buildTIFF(order binary.ByteOrder, fields []tiffField, chunks [][]byte, tiled bool) []byte {
	var buf bytes.Buffer
	if order == binary.ByteOrder(binary.LittleEndian) {
		buf.WriteString("II")
	} else {
		buf.WriteString("MM")
	}
	binary.Write(&buf, order, uint16(42))
	binary.Write(&buf, order, uint32(0))

	offsets := make([]uint32, len(chunks))
	counts := make([]uint32, len(chunks))
	for i, c := range chunks {
		offsets[i] = uint32(buf.Len())
		counts[i] = uint32(len(c))
		buf.Write(c)
	}
	if tiled {
		fields = append(fields, tiffField{tagTileOffsets, offsets}, tiffField{tagTileByteCounts, counts})
	} else {
		fields = append(fields, tiffField{tagStripOffsets, offsets}, tiffField{tagStripByteCounts, counts})
	}
	sort.Slice(fields, func(i, j int) bool { return fields[i].tag < fields[j].tag })

	type encoded struct {
		tag, typ uint16
		count    uint32
		payload  []byte
		offset   uint32
	}
	var entries []encoded
	for _, f := range fields {
		var e encoded
		e.tag = f.tag
		var p bytes.Buffer
		switch v := f.values.(type) {
		case []uint16:
			e.typ, e.count = 3, uint32(len(v))
			binary.Write(&p, order, v)
		case []uint32:
			e.typ, e.count = 4, uint32(len(v))
			binary.Write(&p, order, v)
		case []float64:
			e.typ, e.count = 12, uint32(len(v))
			binary.Write(&p, order, v)
		case string:
			e.typ, e.count = 2, uint32(len(v)+1)
			p.WriteString(v)
			p.WriteByte(0)
		}
		e.payload = p.Bytes()
		if len(e.payload) > 4 {
			if buf.Len()%2 == 1 {
				buf.WriteByte(0)
			}
			e.offset = uint32(buf.Len())
			buf.Write(e.payload)
		}
		entries = append(entries, e)
	}

	if buf.Len()%2 == 1 {
		buf.WriteByte(0)
	}
	ifd := buf.Len()
	binary.Write(&buf, order, uint16(len(entries)))
	for _, e := range entries {
		binary.Write(&buf, order, e.tag)
		binary.Write(&buf, order, e.typ)
		binary.Write(&buf, order, e.count)
		var raw [4]byte
		if len(e.payload) > 4 {
			order.PutUint32(raw[:], e.offset)
		} else {
			copy(raw[:], e.payload)
		}
		buf.Write(raw[:])
	}
	binary.Write(&buf, order, uint32(0))

	out := buf.Bytes()
	order.PutUint32(out[4:], uint32(ifd))
	return out
}

func pack(order binary.ByteOrder, v any) []byte {
	var buf bytes.Buffer
	binary.Write(&buf, order, v)
	return buf.Bytes()
}

// TestLoadGeoTIFFInt16 decodes a little-endian int16 strip with a degree
// pixel scale and an honored GDAL no-data value
func TestLoadGeoTIFFInt16(t *testing.T) {
	le := binary.LittleEndian
	data := buildTIFF(le, []tiffField{
		{tagImageWidth, []uint16{3}},
		{tagImageLength, []uint16{2}},
		{tagBitsPerSample, []uint16{16}},
		{tagSampleFormat, []uint16{sampleFormatInt}},
		{tagModelPixelScale, []float64{0.001, 0.001, 0}},
		{tagGDALNoData, "-9999"},
	}, [][]byte{pack(le, []int16{100, -9999, 300, 400, 500, -20})}, false)

	grid, err := NewLoader(Options{HonorNoData: true}).LoadBytes(data, "dem.tif")
	require.NoError(t, err)

	require.NoError(t, grid.Validate())
	assert.Equal(t, 3, grid.Width)
	assert.Equal(t, 2, grid.Height)
	assert.Equal(t, []float32{100, -20, 300, 400, 500, -20}, grid.Values)
	assert.Equal(t, -20.0, grid.Min)
	assert.Equal(t, 500.0, grid.Max)
	assert.True(t, grid.HasPixelScale)
	assert.InDelta(t, 111.0, grid.PixelScaleX, 1e-9)
	assert.InDelta(t, 111.0, grid.PixelScaleY, 1e-9)
	assert.Equal(t, float32(400), grid.At(1, 0))
}

// TestLoadGeoTIFFFloatStrips replaces NaN and out-of-envelope samples across
// several big-endian strips
func TestLoadGeoTIFFFloatStrips(t *testing.T) {
	be := binary.BigEndian
	nan := float32(math.NaN())
	data := buildTIFF(be, []tiffField{
		{tagImageWidth, []uint32{2}},
		{tagImageLength, []uint32{3}},
		{tagBitsPerSample, []uint16{32}},
		{tagSampleFormat, []uint16{sampleFormatFloat}},
		{tagRowsPerStrip, []uint16{1}},
		{tagModelPixelScale, []float64{30, 30, 0}},
	}, [][]byte{
		pack(be, []float32{12.5, nan}),
		pack(be, []float32{20000, -3.25}),
		pack(be, []float32{7, -16000}),
	}, false)

	grid, err := NewLoader(Options{}).LoadBytes(data, "float.tif")
	require.NoError(t, err)

	assert.Equal(t, []float32{12.5, -3.25, -3.25, -3.25, 7, -3.25}, grid.Values)
	assert.Equal(t, -3.25, grid.Min)
	assert.Equal(t, 12.5, grid.Max)
	assert.Equal(t, 30.0, grid.PixelScaleX)
}

// TestLoadGeoTIFFDeflatePredictor undoes horizontal differencing after zlib
func TestLoadGeoTIFFDeflatePredictor(t *testing.T) {
	le := binary.LittleEndian
	// rows 10 20 35 / 5 5 1 stored as differences
	diffs := []uint16{10, 10, 15, 5, 0, 0xFFFC}
	var z bytes.Buffer
	zw := zlib.NewWriter(&z)
	zw.Write(pack(le, diffs))
	require.NoError(t, zw.Close())

	data := buildTIFF(le, []tiffField{
		{tagImageWidth, []uint16{3}},
		{tagImageLength, []uint16{2}},
		{tagBitsPerSample, []uint16{16}},
		{tagCompression, []uint16{compressionDeflate}},
		{tagPredictor, []uint16{predictorHorizontal}},
	}, [][]byte{z.Bytes()}, false)

	r, err := DecodeGeoTIFF(data)
	require.NoError(t, err)
	assert.Equal(t, []float64{10, 20, 35, 5, 5, 1}, r.Band)
	assert.False(t, r.HasScale)
	assert.Nil(t, r.NoData)
}

// TestLoadGeoTIFFPredictorLeavesInput decodes the same uncompressed
// differenced bytes twice without altering them
func TestLoadGeoTIFFPredictorLeavesInput(t *testing.T) {
	le := binary.LittleEndian
	data := buildTIFF(le, []tiffField{
		{tagImageWidth, []uint16{3}},
		{tagImageLength, []uint16{1}},
		{tagBitsPerSample, []uint16{16}},
		{tagPredictor, []uint16{predictorHorizontal}},
	}, [][]byte{pack(le, []uint16{10, 10, 15})}, false)
	original := append([]byte(nil), data...)

	for i := 0; i < 2; i++ {
		r, err := DecodeGeoTIFF(data)
		require.NoError(t, err)
		assert.Equal(t, []float64{10, 20, 35}, r.Band)
	}
	assert.Equal(t, original, data)
}

// TestLoadGeoTIFFLZW decodes an LZW strip of unsigned bytes
func TestLoadGeoTIFFLZW(t *testing.T) {
	pixels := []byte{1, 2, 3, 4, 1, 2, 3, 4, 9, 9, 9, 9}
	var c bytes.Buffer
	w := lzw.NewWriter(&c, lzw.MSB, 8)
	w.Write(pixels)
	require.NoError(t, w.Close())

	data := buildTIFF(binary.BigEndian, []tiffField{
		{tagImageWidth, []uint16{4}},
		{tagImageLength, []uint16{3}},
		{tagBitsPerSample, []uint16{8}},
		{tagCompression, []uint16{compressionLZW}},
	}, [][]byte{c.Bytes()}, false)

	r, err := DecodeGeoTIFF(data)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 3, 4, 1, 2, 3, 4, 9, 9, 9, 9}, r.Band)
}

// TestLoadGeoTIFFTiles stitches 2x2 tiles over a 3x3 image, dropping padding
func TestLoadGeoTIFFTiles(t *testing.T) {
	le := binary.LittleEndian
	data := buildTIFF(le, []tiffField{
		{tagImageWidth, []uint16{3}},
		{tagImageLength, []uint16{3}},
		{tagBitsPerSample, []uint16{32}},
		{tagSampleFormat, []uint16{sampleFormatFloat}},
		{tagTileWidth, []uint16{2}},
		{tagTileLength, []uint16{2}},
	}, [][]byte{
		pack(le, []float32{1, 2, 4, 5}),
		pack(le, []float32{3, -1, 6, -1}),
		pack(le, []float32{7, 8, -1, -1}),
		pack(le, []float32{9, -1, -1, -1}),
	}, true)

	r, err := DecodeGeoTIFF(data)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 3, 4, 5, 6, 7, 8, 9}, r.Band)
}

// TestLoadGeoTIFFFirstBand reads band one of interleaved and planar images
func TestLoadGeoTIFFFirstBand(t *testing.T) {
	interleaved := buildTIFF(binary.LittleEndian, []tiffField{
		{tagImageWidth, []uint16{2}},
		{tagImageLength, []uint16{1}},
		{tagBitsPerSample, []uint16{8, 8, 8}},
		{tagSamplesPerPixel, []uint16{3}},
	}, [][]byte{{10, 0, 0, 20, 0, 0}}, false)

	r, err := DecodeGeoTIFF(interleaved)
	require.NoError(t, err)
	assert.Equal(t, []float64{10, 20}, r.Band)

	planar := buildTIFF(binary.LittleEndian, []tiffField{
		{tagImageWidth, []uint16{2}},
		{tagImageLength, []uint16{1}},
		{tagBitsPerSample, []uint16{8, 8}},
		{tagSamplesPerPixel, []uint16{2}},
		{tagPlanarConfiguration, []uint16{2}},
	}, [][]byte{{30, 40}, {99, 99}}, false)

	r, err = DecodeGeoTIFF(planar)
	require.NoError(t, err)
	assert.Equal(t, []float64{30, 40}, r.Band)
}

// TestLoadGeoTIFFPackBits expands run-length strips
func TestLoadGeoTIFFPackBits(t *testing.T) {
	data := buildTIFF(binary.LittleEndian, []tiffField{
		{tagImageWidth, []uint16{5}},
		{tagImageLength, []uint16{1}},
		{tagBitsPerSample, []uint16{8}},
		{tagCompression, []uint16{compressionPackBits}},
	}, [][]byte{{0xFE, 7, 0x01, 1, 2}}, false)

	r, err := DecodeGeoTIFF(data)
	require.NoError(t, err)
	assert.Equal(t, []float64{7, 7, 7, 1, 2}, r.Band)
}

// TestLoadGeoTIFFErrors rejects unsupported or damaged files
func TestLoadGeoTIFFErrors(t *testing.T) {
	good := buildTIFF(binary.LittleEndian, []tiffField{
		{tagImageWidth, []uint16{2}},
		{tagImageLength, []uint16{1}},
		{tagBitsPerSample, []uint16{8}},
	}, [][]byte{{1, 2}}, false)

	bigTIFF := append([]byte(nil), good...)
	binary.LittleEndian.PutUint16(bigTIFF[2:], 43)

	jpeg := buildTIFF(binary.LittleEndian, []tiffField{
		{tagImageWidth, []uint16{2}},
		{tagImageLength, []uint16{1}},
		{tagBitsPerSample, []uint16{8}},
		{tagCompression, []uint16{7}},
	}, [][]byte{{1, 2}}, false)

	bits := buildTIFF(binary.LittleEndian, []tiffField{
		{tagImageWidth, []uint16{2}},
		{tagImageLength, []uint16{1}},
		{tagBitsPerSample, []uint16{12}},
	}, [][]byte{{1, 2, 3}}, false)

	short := buildTIFF(binary.LittleEndian, []tiffField{
		{tagImageWidth, []uint16{4}},
		{tagImageLength, []uint16{1}},
		{tagBitsPerSample, []uint16{8}},
	}, [][]byte{{1, 2}}, false)

	noSamples := buildTIFF(binary.LittleEndian, []tiffField{
		{tagImageWidth, []uint16{2}},
		{tagImageLength, []uint16{1}},
		{tagBitsPerSample, []uint16{8}},
		{tagSamplesPerPixel, []uint16{0}},
	}, [][]byte{{1, 2}}, false)

	planar := buildTIFF(binary.LittleEndian, []tiffField{
		{tagImageWidth, []uint16{2}},
		{tagImageLength, []uint16{1}},
		{tagBitsPerSample, []uint16{8}},
		{tagPlanarConfiguration, []uint16{3}},
	}, [][]byte{{1, 2}}, false)

	// dimensions far beyond the few bytes of pixel data in the file
	huge := buildTIFF(binary.LittleEndian, []tiffField{
		{tagImageWidth, []uint32{1 << 24}},
		{tagImageLength, []uint32{1 << 24}},
		{tagBitsPerSample, []uint16{8}},
	}, [][]byte{{1, 2}}, false)

	wide := buildTIFF(binary.LittleEndian, []tiffField{
		{tagImageWidth, []uint32{60000}},
		{tagImageLength, []uint32{4}},
		{tagBitsPerSample, []uint16{8}},
	}, [][]byte{{1, 2}}, false)

	tests := []struct {
		name string
		data []byte
	}{
		{"bigtiff", bigTIFF},
		{"zero samples per pixel", noSamples},
		{"planar configuration", planar},
		{"oversized image", huge},
		{"declared bytes short of band", wide},
		{"truncated", good[:6]},
		{"jpeg", jpeg},
		{"12-bit", bits},
		{"short strip", short},
		{"unknown", []byte("not an elevation model")},
	}
	loader := NewLoader(Options{})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			grid, err := loader.LoadBytes(tt.data, "bad.tif")
			assert.Nil(t, grid)
			assert.ErrorIs(t, err, models.ErrFormat)
		})
	}
}

func hgtTile(values []int16) []byte {
	return pack(binary.BigEndian, values)
}

// TestLoadHGT decodes an SRTM tile and its zip and gzip wrappers
func TestLoadHGT(t *testing.T) {
	tile := hgtTile([]int16{1, 2, 3, 4, SRTMVoid, 6, 7, 8, 9})

	var zipped bytes.Buffer
	zw := zip.NewWriter(&zipped)
	f, err := zw.Create("N45E006.hgt")
	require.NoError(t, err)
	f.Write(tile)
	require.NoError(t, zw.Close())

	var gz bytes.Buffer
	gw := gzip.NewWriter(&gz)
	gw.Write(tile)
	require.NoError(t, gw.Close())

	sources := map[string][]byte{
		"N45E006.hgt":     tile,
		"N45E006.hgt.zip": zipped.Bytes(),
		"N45E006.hgt.gz":  gz.Bytes(),
	}
	for name, data := range sources {
		t.Run(name, func(t *testing.T) {
			grid, err := NewLoader(Options{}).LoadBytes(data, name)
			require.NoError(t, err)
			assert.Equal(t, 3, grid.Width)
			assert.Equal(t, []float32{1, 2, 3, 4, 1, 6, 7, 8, 9}, grid.Values)
			assert.Equal(t, 1.0, grid.Min)
			assert.Equal(t, 9.0, grid.Max)
			assert.Equal(t, 0.5, grid.PixelScaleX)
		})
	}

	_, err = DecodeHGT(make([]byte, 10))
	assert.ErrorIs(t, err, models.ErrFormat)
}

// TestBuildSanitizes covers the empty, flat and degree-scale cases
func TestBuildSanitizes(t *testing.T) {
	loader := NewLoader(Options{})

	grid, err := loader.Build(&Raster{Width: 2, Height: 1, Band: []float64{math.NaN(), 1e9}})
	require.NoError(t, err)
	assert.Equal(t, 0.0, grid.Min)
	assert.Equal(t, 100.0, grid.Max)
	assert.Equal(t, []float32{0, 0}, grid.Values)

	grid, err = loader.Build(&Raster{Width: 2, Height: 1, Band: []float64{42, 42}})
	require.NoError(t, err)
	assert.Equal(t, 42.0, grid.Min)
	assert.Equal(t, 43.0, grid.Max)

	grid, err = loader.Build(&Raster{Width: 1, Height: 1, Band: []float64{SafeMax}})
	require.NoError(t, err)
	assert.Equal(t, float32(SafeMax), grid.Values[0])

	_, err = loader.Build(&Raster{Width: 2, Height: 2, Band: []float64{1}})
	assert.ErrorIs(t, err, models.ErrFormat)
	_, err = loader.Build(&Raster{})
	assert.ErrorIs(t, err, models.ErrFormat)

	geo := &Raster{Width: 1, Height: 1, Band: []float64{1}, ScaleX: 0.01, ScaleY: -0.02, HasScale: true}

	grid, err = NewLoader(Options{AssumeMeters: true}).Build(geo)
	require.NoError(t, err)
	assert.Equal(t, 0.01, grid.PixelScaleX)
	assert.Equal(t, 0.02, grid.PixelScaleY)

	grid, err = NewLoader(Options{DegreesToMeters: 100000}).Build(geo)
	require.NoError(t, err)
	assert.InDelta(t, 1000.0, grid.PixelScaleX, 1e-9)
	assert.InDelta(t, 2000.0, grid.PixelScaleY, 1e-9)

	grid, err = loader.Build(&Raster{Width: 1, Height: 1, Band: []float64{1}})
	require.NoError(t, err)
	assert.False(t, grid.HasPixelScale)
	assert.Equal(t, 1.0, grid.PixelScaleX)
}

// TestBuildNoDataInsideEnvelope keeps a declared no-data value that lies in
// the valid envelope unless the loader is asked to honor it
func TestBuildNoDataInsideEnvelope(t *testing.T) {
	noData := -9999.0
	raster := func() *Raster {
		return &Raster{Width: 3, Height: 1, Band: []float64{100, -9999, 300}, NoData: &noData}
	}

	grid, err := NewLoader(Options{}).Build(raster())
	require.NoError(t, err)
	assert.Equal(t, []float32{100, -9999, 300}, grid.Values)
	assert.Equal(t, -9999.0, grid.Min)

	grid, err = NewLoader(Options{HonorNoData: true}).Build(raster())
	require.NoError(t, err)
	assert.Equal(t, []float32{100, 100, 300}, grid.Values)
	assert.Equal(t, 100.0, grid.Min)

	// outside the envelope the sentinel is floored either way
	noData = -32768
	grid, err = NewLoader(Options{}).Build(&Raster{Width: 2, Height: 1, Band: []float64{-32768, 5}, NoData: &noData})
	require.NoError(t, err)
	assert.Equal(t, []float32{5, 5}, grid.Values)
}

// TestLoadFromFile reads an elevation file through the filesystem
func TestLoadFromFile(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping file I/O test in short mode")
	}

	path := filepath.Join(t.TempDir(), "S01W001.hgt")
	require.NoError(t, os.WriteFile(path, hgtTile([]int16{5, 6, 7, 8}), 0644))

	grid, err := NewLoader(Options{}).Load(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, []float32{5, 6, 7, 8}, grid.Values)
	assert.Equal(t, 1.0, grid.PixelScaleX)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = NewLoader(Options{}).Load(ctx, path)
	assert.ErrorIs(t, err, context.Canceled)
}

// TestEncodeHGT writes a tile that decodes to the rounded grid
func TestEncodeHGT(t *testing.T) {
	grid := &models.ElevationGrid{Width: 2, Height: 2, Values: []float32{1.4, 1.6, -2.5, 9000}, Min: -2.5, Max: 9000}

	var buf bytes.Buffer
	require.NoError(t, EncodeHGT(&buf, grid))

	r, err := DecodeHGT(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, -3, 9000}, r.Band)

	assert.Error(t, EncodeHGT(&buf, &models.ElevationGrid{Width: 2, Height: 1, Values: []float32{1, 2}, Max: 2}))
}
