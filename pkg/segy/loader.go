package segy

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"sort"

	"go.uber.org/zap"

	"geovis/internal/logging"
	"geovis/internal/models"
)

// Options configures a Loader.
type Options struct {
	// Logger receives header and geometry diagnostics; nil discards them
	Logger *zap.Logger

	// InlineOffset and CrosslineOffset, when InlineOffset > 0, bypass
	// geometry detection. A CrosslineOffset <= 0 reads no crossline.
	InlineOffset    int
	CrosslineOffset int
}

// Loader decodes SEG-Y files into seismic volumes.
type Loader struct {
	logger   *zap.Logger
	override *Geometry
}

// NewLoader creates a loader.
func NewLoader(opts Options) *Loader {
	l := &Loader{logger: logging.OrNop(opts.Logger)}
	if opts.InlineOffset > 0 {
		xl := opts.CrosslineOffset
		if xl <= 0 {
			xl = Disabled
		}
		l.override = &Geometry{
			InlineOffset:    opts.InlineOffset,
			CrosslineOffset: xl,
			Mode:            ModeOverride,
		}
	}
	return l
}

// Load reads the whole file, then decodes it.
func (l *Loader) Load(ctx context.Context, path string) (*models.SeismicVolume, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open seismic file: %w", err)
	}
	defer f.Close()
	return l.LoadReader(ctx, f, path)
}

// LoadReader waits for the full source buffer before parsing begins.
func (l *Loader) LoadReader(ctx context.Context, r io.Reader, name string) (*models.SeismicVolume, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return l.LoadBytes(data, name)
}

func isGzip(data []byte) bool {
	return len(data) >= 2 && data[0] == 0x1f && data[1] == 0x8b
}

func gunzip(data []byte) ([]byte, error) {
	zr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer zr.Close()
	return io.ReadAll(zr)
}

type traceKey struct {
	inline, crossline int32
}

// LoadBytes decodes a complete SEG-Y buffer, unwrapping gzip first. It either
// returns a volume that satisfies every invariant or an error; no partial
// volume escapes.
func (l *Loader) LoadBytes(data []byte, name string) (*models.SeismicVolume, error) {
	if isGzip(data) {
		inner, err := gunzip(data)
		if err != nil {
			return nil, models.NewFormatError(name, "gzip: %v", err)
		}
		return l.LoadBytes(inner, name)
	}
	hdr, err := ReadBinaryHeader(data)
	if err != nil {
		return nil, withSource(err, name)
	}
	if hdr.SamplesPerTrace == 0 {
		return nil, models.NewFormatError(name, "binary header declares zero samples per trace")
	}
	ns := int(hdr.SamplesPerTrace)
	traceSize := hdr.TraceSize()
	body := len(data) - FileHeaderSize
	totalTraces := body / traceSize
	if totalTraces == 0 {
		return nil, models.NewFormatError(name, "no complete trace records (%d bytes after header, %d per trace)", body, traceSize)
	}
	if rem := body % traceSize; rem != 0 {
		return nil, models.NewFormatError(name, "truncated trace record: %d trailing bytes", rem)
	}

	l.logger.Info("SEG-Y header",
		zap.String("source", name),
		zap.Int16("sampleIntervalUs", hdr.SampleInterval),
		zap.Int("samplesPerTrace", ns),
		zap.String("format", FormatName(hdr.FormatCode)),
		zap.Int("traces", totalTraces))

	decode, err := l.sampleDecoder(hdr.FormatCode)
	if err != nil {
		return nil, withSource(err, name)
	}

	trace := func(i int) []byte {
		start := FileHeaderSize + i*traceSize
		return data[start : start+traceSize]
	}

	geom := l.geometry(trace, totalTraces)
	if !validKeyOffset(geom.InlineOffset) || (geom.CrosslineEnabled() && !validKeyOffset(geom.CrosslineOffset)) {
		return nil, fmt.Errorf("trace header key offsets %d/%d outside the %d-byte header", geom.InlineOffset, geom.CrosslineOffset, TraceHeaderSize)
	}

	// read keys and decode every sample, tracking the global range
	keys := make([]traceKey, totalTraces)
	traces := make([]float32, totalTraces*ns)
	minVal, maxVal := math.Inf(1), math.Inf(-1)
	for i := 0; i < totalTraces; i++ {
		rec := trace(i)
		keys[i].inline = headerWord(rec, geom.InlineOffset)
		if geom.CrosslineEnabled() {
			keys[i].crossline = headerWord(rec, geom.CrosslineOffset)
		}
		samples := rec[TraceHeaderSize:]
		out := traces[i*ns : (i+1)*ns]
		for s := range out {
			v := decode(samples[s*BytesPerSample:])
			out[s] = v
			f := float64(v)
			if f < minVal {
				minVal = f
			}
			if f > maxVal {
				maxVal = f
			}
		}
	}
	if minVal > maxVal {
		// every sample was NaN
		minVal, maxVal = 0, 0
	}

	inlines := distinctSorted(keys, func(k traceKey) int32 { return k.inline })
	crosslines := distinctSorted(keys, func(k traceKey) int32 { return k.crossline })

	vol := &models.SeismicVolume{
		NSamples:       ns,
		Min:            minVal,
		Max:            maxVal,
		SampleInterval: hdr.SampleInterval,
		FormatCode:     hdr.FormatCode,
	}

	if len(inlines)*len(crosslines) != totalTraces && !geom.CrosslineEnabled() {
		// 2-D line: traces laid out consecutively along one axis
		vol.NInlines = totalTraces
		vol.NCrosslines = 1
		vol.InlineKeys = make([]int32, totalTraces)
		for i := range vol.InlineKeys {
			vol.InlineKeys[i] = int32(i + 1)
		}
		vol.CrosslineKeys = []int32{0}
		vol.Samples = traces
	} else {
		vol.NInlines = len(inlines)
		vol.NCrosslines = len(crosslines)
		vol.InlineKeys = inlines
		vol.CrosslineKeys = crosslines
		vol.Samples = scatter(traces, keys, inlines, crosslines, ns)
	}

	l.logger.Info("seismic volume assembled",
		zap.String("source", name),
		zap.Int("inlines", vol.NInlines),
		zap.Int("crosslines", vol.NCrosslines),
		zap.Int("samples", vol.NSamples),
		zap.Float64("min", vol.Min),
		zap.Float64("max", vol.Max))

	if err := vol.Validate(); err != nil {
		return nil, models.NewFormatError(name, "%v", err)
	}
	return vol, nil
}

func (l *Loader) geometry(trace func(int) []byte, total int) Geometry {
	if l.override != nil {
		g := *l.override
		l.logger.Info("using configured trace header geometry",
			zap.Int("inlineByte", g.InlineOffset+1),
			zap.Int("crosslineByte", g.CrosslineOffset+1))
		return g
	}

	n := total
	if n > MaxScanTraces {
		n = MaxScanTraces
	}
	headers := make([][]byte, n)
	for i := range headers {
		headers[i] = trace(i)[:TraceHeaderSize]
	}
	g := DetectGeometry(headers)

	for _, off := range CandidateOffsets {
		l.logger.Debug("header candidate",
			zap.Int("byte", off+1),
			zap.Int("distinct", g.Distinct[off]))
	}
	fields := []zap.Field{
		zap.String("mode", g.Mode.String()),
		zap.Int("inlineByte", g.InlineOffset+1),
		zap.Bool("crossline", g.CrosslineEnabled()),
	}
	if g.CrosslineEnabled() {
		fields = append(fields, zap.Int("crosslineByte", g.CrosslineOffset+1))
	}
	if g.Mode == ModeFallback {
		l.logger.Warn("no varying trace header key found, falling back to trace number", fields...)
	} else {
		l.logger.Info("trace header geometry", fields...)
	}
	return g
}

func validKeyOffset(off int) bool {
	return off >= 0 && off+4 <= TraceHeaderSize
}

func (l *Loader) sampleDecoder(code int16) (func([]byte) float32, error) {
	switch code {
	case FormatIBM:
		return IBMToFloat32, nil
	case FormatInt32:
		return func(b []byte) float32 { return float32(int32(binary.BigEndian.Uint32(b))) }, nil
	case FormatIEEE:
		return ieee, nil
	}
	l.logger.Warn("unsupported sample format code, reading samples as IEEE float", zap.Int16("format", code))
	return ieee, nil
}

func ieee(b []byte) float32 {
	return math.Float32frombits(binary.BigEndian.Uint32(b))
}

func distinctSorted(keys []traceKey, get func(traceKey) int32) []int32 {
	set := make(map[int32]struct{})
	for _, k := range keys {
		set[get(k)] = struct{}{}
	}
	out := make([]int32, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// scatter places each trace at the grid cell of its keys. Traces whose keys
// do not resolve are dropped; cells without a trace stay zero.
func scatter(traces []float32, keys []traceKey, inlines, crosslines []int32, ns int) []float32 {
	ilIndex := indexOf(inlines)
	xlIndex := indexOf(crosslines)
	nXl := len(crosslines)
	vol := make([]float32, len(inlines)*nXl*ns)
	for i, k := range keys {
		il, ok1 := ilIndex[k.inline]
		xl, ok2 := xlIndex[k.crossline]
		if !ok1 || !ok2 {
			continue
		}
		dst := (il*nXl + xl) * ns
		copy(vol[dst:dst+ns], traces[i*ns:(i+1)*ns])
	}
	return vol
}

func indexOf(keys []int32) map[int32]int {
	m := make(map[int32]int, len(keys))
	for i, k := range keys {
		m[k] = i
	}
	return m
}

func withSource(err error, name string) error {
	if fe, ok := err.(*models.FormatError); ok && fe.Source == "" {
		return &models.FormatError{Source: name, Reason: fe.Reason}
	}
	return err
}
