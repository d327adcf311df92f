package dem

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"golang.org/x/image/tiff/lzw"

	"geovis/internal/models"
)

// TIFF tags read by the decoder.
const (
	tagImageWidth          = 256
	tagImageLength         = 257
	tagBitsPerSample       = 258
	tagCompression         = 259
	tagStripOffsets        = 273
	tagSamplesPerPixel     = 277
	tagRowsPerStrip        = 278
	tagStripByteCounts     = 279
	tagPlanarConfiguration = 284
	tagPredictor           = 317
	tagTileWidth           = 322
	tagTileLength          = 323
	tagTileOffsets         = 324
	tagTileByteCounts      = 325
	tagSampleFormat        = 339
	tagModelPixelScale     = 33550
	tagModelTransformation = 34264
	tagGDALNoData          = 42113
)

const (
	compressionNone     = 1
	compressionLZW      = 5
	compressionDeflate  = 8
	compressionPackBits = 32773
	compressionDeflate2 = 32946

	sampleFormatUint  = 1
	sampleFormatInt   = 2
	sampleFormatFloat = 3

	predictorNone       = 1
	predictorHorizontal = 2
)

// MaxPixels bounds the band size DecodeGeoTIFF allocates.
const MaxPixels = 1 << 28

// maxSamplesPerPixel bounds interleaved pixel strides.
const maxSamplesPerPixel = 1 << 10

// byte sizes of TIFF field types, indexed by type code
var fieldSize = [...]int{0, 1, 1, 2, 4, 8, 1, 1, 2, 4, 8, 4, 8}

type ifdEntry struct {
	tag   uint16
	typ   uint16
	count uint32
	raw   [4]byte
}

type tiffDecoder struct {
	data    []byte
	order   binary.ByteOrder
	entries map[uint16]ifdEntry
}

// IsTIFF reports whether data starts with a TIFF byte-order mark.
func IsTIFF(data []byte) bool {
	return len(data) >= 4 && (string(data[:4]) == "II*\x00" || string(data[:4]) == "MM\x00*")
}

// DecodeGeoTIFF reads the first band of the first image in a classic TIFF,
// together with its ModelPixelScale and GDAL no-data value when present.
func DecodeGeoTIFF(data []byte) (*Raster, error) {
	d, err := newTIFFDecoder(data)
	if err != nil {
		return nil, err
	}

	width := d.uint(tagImageWidth, 0)
	height := d.uint(tagImageLength, 0)
	if width == 0 || height == 0 {
		return nil, models.NewFormatError("", "missing image dimensions")
	}
	spp := d.uint(tagSamplesPerPixel, 1)
	bits := d.uint(tagBitsPerSample, 1)
	format := d.uint(tagSampleFormat, sampleFormatUint)
	compression := d.uint(tagCompression, compressionNone)
	predictor := d.uint(tagPredictor, predictorNone)
	planar := d.uint(tagPlanarConfiguration, 1)

	if spp < 1 || spp > maxSamplesPerPixel {
		return nil, models.NewFormatError("", "invalid samples per pixel %d", spp)
	}
	if planar != 1 && planar != 2 {
		return nil, models.NewFormatError("", "invalid planar configuration %d", planar)
	}
	if width > MaxPixels || height > MaxPixels || width > MaxPixels/height {
		return nil, models.NewFormatError("", "image of %dx%d exceeds %d pixels", width, height, MaxPixels)
	}
	read, err := sampleReader(d.order, format, bits)
	if err != nil {
		return nil, err
	}
	if predictor != predictorNone && (predictor != predictorHorizontal || format == sampleFormatFloat) {
		return nil, models.NewFormatError("", "unsupported predictor %d for sample format %d", predictor, format)
	}
	spc := spp // samples per pixel inside one chunk
	if planar == 2 {
		spc = 1
	}
	bps := bits / 8
	if bps <= 0 {
		return nil, models.NewFormatError("", "invalid bits per sample %d", bits)
	}

	layout, err := d.chunks(width, height)
	if err != nil {
		return nil, err
	}
	declared := 0
	for i, c := range layout {
		if _, err := d.slice(c.offset, c.size); err != nil {
			return nil, fmt.Errorf("chunk %d: %w", i, err)
		}
		declared += c.size
	}
	if need := width * height * bps; compression == compressionNone && declared < need {
		return nil, models.NewFormatError("", "chunks declare %d bytes, a %dx%d band needs %d", declared, width, height, need)
	}

	r := &Raster{Width: width, Height: height, Band: make([]float64, width*height)}
	for i, c := range layout {
		compressed, err := d.slice(c.offset, c.size)
		if err != nil {
			return nil, fmt.Errorf("chunk %d: %w", i, err)
		}
		raw, err := decompress(compression, compressed)
		if err != nil {
			return nil, fmt.Errorf("chunk %d: %w", i, err)
		}
		rowBytes := c.stride * spc * bps
		if need := rowBytes * c.rows; len(raw) < need {
			return nil, models.NewFormatError("", "chunk %d decodes to %d bytes, need %d", i, len(raw), need)
		}
		if predictor == predictorHorizontal {
			if compression == compressionNone {
				// raw aliases the caller's buffer
				raw = append([]byte(nil), raw...)
			}
			undoHorizontalPredictor(raw, d.order, c.rows, c.stride, spc, bps)
		}
		for y := 0; y < c.rows; y++ {
			iy := c.y0 + y
			if iy >= height {
				break
			}
			row := raw[y*rowBytes:]
			for x := 0; x < c.stride; x++ {
				ix := c.x0 + x
				if ix >= width {
					break
				}
				r.Band[iy*width+ix] = read(row[x*spc*bps:])
			}
		}
	}

	if scale := d.floats(tagModelPixelScale); len(scale) >= 2 {
		r.ScaleX, r.ScaleY, r.HasScale = scale[0], scale[1], true
	} else if m := d.floats(tagModelTransformation); len(m) >= 6 {
		r.ScaleX, r.ScaleY, r.HasScale = math.Abs(m[0]), math.Abs(m[5]), true
	}
	if s := d.ascii(tagGDALNoData); s != "" {
		if v, err := strconv.ParseFloat(s, 64); err == nil {
			r.NoData = &v
		}
	}
	return r, nil
}

func newTIFFDecoder(data []byte) (*tiffDecoder, error) {
	if len(data) < 8 {
		return nil, models.NewFormatError("", "TIFF header truncated")
	}
	d := &tiffDecoder{data: data, entries: make(map[uint16]ifdEntry)}
	switch string(data[:2]) {
	case "II":
		d.order = binary.LittleEndian
	case "MM":
		d.order = binary.BigEndian
	default:
		return nil, models.NewFormatError("", "not a TIFF file")
	}
	switch magic := d.order.Uint16(data[2:]); magic {
	case 42:
	case 43:
		return nil, models.NewFormatError("", "BigTIFF is not supported")
	default:
		return nil, models.NewFormatError("", "bad TIFF magic %d", magic)
	}

	off := int(d.order.Uint32(data[4:]))
	if off+2 > len(data) {
		return nil, models.NewFormatError("", "IFD offset %d beyond end of file", off)
	}
	n := int(d.order.Uint16(data[off:]))
	if off+2+n*12 > len(data) {
		return nil, models.NewFormatError("", "IFD with %d entries truncated", n)
	}
	for i := 0; i < n; i++ {
		p := data[off+2+i*12:]
		e := ifdEntry{
			tag:   d.order.Uint16(p),
			typ:   d.order.Uint16(p[2:]),
			count: d.order.Uint32(p[4:]),
		}
		copy(e.raw[:], p[8:12])
		d.entries[e.tag] = e
	}
	return d, nil
}

func (d *tiffDecoder) slice(off, size int) ([]byte, error) {
	if off < 0 || size < 0 || off+size > len(d.data) {
		return nil, models.NewFormatError("", "data at %d+%d beyond end of file", off, size)
	}
	return d.data[off : off+size], nil
}

// value returns the bytes of an entry's values, inline or at their offset.
func (d *tiffDecoder) value(tag uint16) ([]byte, ifdEntry, bool) {
	e, ok := d.entries[tag]
	if !ok || int(e.typ) >= len(fieldSize) || fieldSize[e.typ] == 0 {
		return nil, e, false
	}
	size := fieldSize[e.typ] * int(e.count)
	if size <= 4 {
		return e.raw[:size], e, true
	}
	b, err := d.slice(int(d.order.Uint32(e.raw[:])), size)
	if err != nil {
		return nil, e, false
	}
	return b, e, true
}

func (d *tiffDecoder) uints(tag uint16) []int {
	b, e, ok := d.value(tag)
	if !ok {
		return nil
	}
	out := make([]int, e.count)
	for i := range out {
		switch e.typ {
		case 1, 7:
			out[i] = int(b[i])
		case 3:
			out[i] = int(d.order.Uint16(b[i*2:]))
		case 4:
			out[i] = int(d.order.Uint32(b[i*4:]))
		default:
			return nil
		}
	}
	return out
}

func (d *tiffDecoder) uint(tag uint16, def int) int {
	if v := d.uints(tag); len(v) > 0 {
		return v[0]
	}
	return def
}

func (d *tiffDecoder) floats(tag uint16) []float64 {
	b, e, ok := d.value(tag)
	if !ok {
		return nil
	}
	out := make([]float64, e.count)
	for i := range out {
		switch e.typ {
		case 11:
			out[i] = float64(math.Float32frombits(d.order.Uint32(b[i*4:])))
		case 12:
			out[i] = math.Float64frombits(d.order.Uint64(b[i*8:]))
		default:
			return nil
		}
	}
	return out
}

func (d *tiffDecoder) ascii(tag uint16) string {
	b, e, ok := d.value(tag)
	if !ok || e.typ != 2 {
		return ""
	}
	return strings.TrimSpace(strings.TrimRight(string(b), "\x00"))
}

// chunk is one strip or tile of the first band.
type chunk struct {
	offset, size int
	x0, y0       int
	stride, rows int
}

func (d *tiffDecoder) chunks(width, height int) ([]chunk, error) {
	if offsets := d.uints(tagTileOffsets); offsets != nil {
		counts := d.uints(tagTileByteCounts)
		tw, th := d.uint(tagTileWidth, 0), d.uint(tagTileLength, 0)
		if tw == 0 || th == 0 {
			return nil, models.NewFormatError("", "tiled TIFF without tile size")
		}
		if tw > MaxPixels || th > MaxPixels || tw > MaxPixels/th {
			return nil, models.NewFormatError("", "tile of %dx%d exceeds %d pixels", tw, th, MaxPixels)
		}
		across := (width + tw - 1) / tw
		down := (height + th - 1) / th
		n := across * down
		if len(offsets) < n || len(counts) < n {
			return nil, models.NewFormatError("", "expected %d tiles, found %d", n, len(offsets))
		}
		out := make([]chunk, n)
		for i := range out {
			out[i] = chunk{offset: offsets[i], size: counts[i], x0: (i % across) * tw, y0: (i / across) * th, stride: tw, rows: th}
		}
		return out, nil
	}

	offsets := d.uints(tagStripOffsets)
	counts := d.uints(tagStripByteCounts)
	if offsets == nil {
		return nil, models.NewFormatError("", "no strip or tile offsets")
	}
	rps := d.uint(tagRowsPerStrip, height)
	if rps <= 0 || rps > height {
		rps = height
	}
	n := (height + rps - 1) / rps
	if len(offsets) < n || len(counts) < n {
		return nil, models.NewFormatError("", "expected %d strips, found %d", n, len(offsets))
	}
	out := make([]chunk, n)
	for i := range out {
		rows := rps
		if y0 := i * rps; y0+rows > height {
			rows = height - y0
		}
		out[i] = chunk{offset: offsets[i], size: counts[i], y0: i * rps, stride: width, rows: rows}
	}
	return out, nil
}

func decompress(compression int, b []byte) ([]byte, error) {
	switch compression {
	case compressionNone:
		return b, nil
	case compressionLZW:
		r := lzw.NewReader(bytes.NewReader(b), lzw.MSB, 8)
		defer r.Close()
		out, err := io.ReadAll(r)
		if err != nil {
			return nil, models.NewFormatError("", "LZW: %v", err)
		}
		return out, nil
	case compressionDeflate, compressionDeflate2:
		r, err := zlib.NewReader(bytes.NewReader(b))
		if err != nil {
			return nil, models.NewFormatError("", "deflate: %v", err)
		}
		defer r.Close()
		out, err := io.ReadAll(r)
		if err != nil {
			return nil, models.NewFormatError("", "deflate: %v", err)
		}
		return out, nil
	case compressionPackBits:
		return unpackBits(b)
	}
	return nil, models.NewFormatError("", "unsupported compression %d", compression)
}

func unpackBits(b []byte) ([]byte, error) {
	var out []byte
	for i := 0; i < len(b); {
		n := int(int8(b[i]))
		i++
		switch {
		case n >= 0:
			if i+n+1 > len(b) {
				return nil, models.NewFormatError("", "PackBits literal run truncated")
			}
			out = append(out, b[i:i+n+1]...)
			i += n + 1
		case n != -128:
			if i >= len(b) {
				return nil, models.NewFormatError("", "PackBits repeat run truncated")
			}
			for k := 0; k < 1-n; k++ {
				out = append(out, b[i])
			}
			i++
		}
	}
	return out, nil
}

func sampleReader(order binary.ByteOrder, format, bits int) (func([]byte) float64, error) {
	switch {
	case format == sampleFormatUint && bits == 8:
		return func(b []byte) float64 { return float64(b[0]) }, nil
	case format == sampleFormatInt && bits == 8:
		return func(b []byte) float64 { return float64(int8(b[0])) }, nil
	case format == sampleFormatUint && bits == 16:
		return func(b []byte) float64 { return float64(order.Uint16(b)) }, nil
	case format == sampleFormatInt && bits == 16:
		return func(b []byte) float64 { return float64(int16(order.Uint16(b))) }, nil
	case format == sampleFormatUint && bits == 32:
		return func(b []byte) float64 { return float64(order.Uint32(b)) }, nil
	case format == sampleFormatInt && bits == 32:
		return func(b []byte) float64 { return float64(int32(order.Uint32(b))) }, nil
	case format == sampleFormatFloat && bits == 32:
		return func(b []byte) float64 { return float64(math.Float32frombits(order.Uint32(b))) }, nil
	case format == sampleFormatFloat && bits == 64:
		return func(b []byte) float64 { return math.Float64frombits(order.Uint64(b)) }, nil
	}
	return nil, models.NewFormatError("", "unsupported sample format %d with %d bits", format, bits)
}

// undoHorizontalPredictor reverses TIFF predictor 2 in place: each sample is
// stored as the difference from the sample one pixel to its left.
func undoHorizontalPredictor(raw []byte, order binary.ByteOrder, rows, stride, spc, bps int) {
	rowBytes := stride * spc * bps
	for y := 0; y < rows; y++ {
		row := raw[y*rowBytes : (y+1)*rowBytes]
		for i := spc; i < stride*spc; i++ {
			cur, prev := row[i*bps:], row[(i-spc)*bps:]
			switch bps {
			case 1:
				cur[0] += prev[0]
			case 2:
				order.PutUint16(cur, order.Uint16(cur)+order.Uint16(prev))
			case 4:
				order.PutUint32(cur, order.Uint32(cur)+order.Uint32(prev))
			case 8:
				order.PutUint64(cur, order.Uint64(cur)+order.Uint64(prev))
			}
		}
	}
}
