package segy

// CandidateOffsets are the trace header byte offsets (0-based) probed for
// inline/crossline keys, in priority order.
var CandidateOffsets = []int{188, 192, 8, 20, 16, 12, 4}

const (
	// MaxScanTraces bounds how many traces geometry detection reads.
	MaxScanTraces = 2000

	// VaryingRatio is the distinct-count ceiling, as a fraction of scanned
	// traces, above which a header word is treated as a per-trace ID.
	VaryingRatio = 0.9

	// Disabled marks an unused crossline offset.
	Disabled = -1

	standardInline    = 188
	standardCrossline = 192
	fallbackInline    = 8
)

// GeometryMode records which detection rule picked the offsets.
type GeometryMode int

const (
	// ModeStandard: offsets 188/192 both vary.
	ModeStandard GeometryMode = iota
	// ModeDetected: first two varying candidates.
	ModeDetected
	// ModeLine2D: a single varying candidate; crossline disabled.
	ModeLine2D
	// ModeFallback: nothing varies; offset 8, crossline disabled.
	ModeFallback
	// ModeOverride: offsets supplied by the caller.
	ModeOverride
)

func (m GeometryMode) String() string {
	switch m {
	case ModeStandard:
		return "standard"
	case ModeDetected:
		return "detected"
	case ModeLine2D:
		return "2d-line"
	case ModeFallback:
		return "fallback"
	case ModeOverride:
		return "override"
	}
	return "unknown"
}

// Geometry is the chosen key layout of the trace headers.
type Geometry struct {
	InlineOffset    int
	CrosslineOffset int
	Mode            GeometryMode

	// Scanned is the number of trace headers examined
	Scanned int

	// Distinct maps each candidate offset to its distinct-value count
	Distinct map[int]int
}

// CrosslineEnabled reports whether the crossline key is read from headers.
func (g Geometry) CrosslineEnabled() bool {
	return g.CrosslineOffset != Disabled
}

// Varying returns the candidates that qualify as varying keys, in candidate
// order: more than one distinct value and fewer than VaryingRatio of the
// scanned traces.
func (g Geometry) Varying() []int {
	var out []int
	for _, off := range CandidateOffsets {
		if g.qualifies(off) {
			out = append(out, off)
		}
	}
	return out
}

func (g Geometry) qualifies(off int) bool {
	n := g.Distinct[off]
	return n > 1 && float64(n) < float64(g.Scanned)*VaryingRatio
}

// DetectGeometry scans up to MaxScanTraces trace headers (each at least
// TraceHeaderSize bytes) and picks inline/crossline offsets:
//  1. 188 and 192 if both vary,
//  2. else the first two varying candidates,
//  3. else a single varying candidate as a 2-D line without crossline,
//  4. else offset 8 without crossline.
func DetectGeometry(headers [][]byte) Geometry {
	scan := len(headers)
	if scan > MaxScanTraces {
		scan = MaxScanTraces
	}

	seen := make(map[int]map[int32]struct{}, len(CandidateOffsets))
	for _, off := range CandidateOffsets {
		seen[off] = make(map[int32]struct{})
	}
	for _, h := range headers[:scan] {
		for _, off := range CandidateOffsets {
			seen[off][headerWord(h, off)] = struct{}{}
		}
	}

	g := Geometry{Scanned: scan, Distinct: make(map[int]int, len(seen))}
	for off, values := range seen {
		g.Distinct[off] = len(values)
	}

	varying := g.Varying()
	switch {
	case g.qualifies(standardInline) && g.qualifies(standardCrossline):
		g.InlineOffset, g.CrosslineOffset, g.Mode = standardInline, standardCrossline, ModeStandard
	case len(varying) >= 2:
		g.InlineOffset, g.CrosslineOffset, g.Mode = varying[0], varying[1], ModeDetected
	case len(varying) == 1:
		g.InlineOffset, g.CrosslineOffset, g.Mode = varying[0], Disabled, ModeLine2D
	default:
		g.InlineOffset, g.CrosslineOffset, g.Mode = fallbackInline, Disabled, ModeFallback
	}
	return g
}
