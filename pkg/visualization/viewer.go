package visualization

import (
	"context"
	"fmt"
	"image"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"strconv"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"geovis/internal/logging"
	"geovis/internal/models"
	"geovis/pkg/colormap"
)

// ViewerOptions configures a Viewer.
type ViewerOptions struct {
	// Mapper colors slices and wiggles. A nil Mapper gives slices the
	// diverging scheme and leaves wiggles black, as Extract and BuildWiggle do.
	Mapper colormap.Mapper

	// Contour overlays iso-lines on slices when non-nil
	Contour *Contour

	// Gain and Spacing are the wiggle parameters
	Gain    float64
	Spacing float64

	// FixedBlack draws wiggles black regardless of Mapper
	FixedBlack bool

	// Workers bounds parallel exports; zero means one per plane
	Workers int

	Logger *zap.Logger
}

// Viewer cuts planes and builds wiggle meshes from one seismic volume. The
// volume is read-only, so a Viewer is safe for concurrent use.
type Viewer struct {
	volume *models.SeismicVolume
	opts   ViewerOptions
	logger *zap.Logger
}

// NewViewer creates a viewer over a loaded volume.
func NewViewer(volume *models.SeismicVolume, opts ViewerOptions) *Viewer {
	if opts.Gain == 0 {
		opts.Gain = 1
	}
	return &Viewer{
		volume: volume,
		opts:   opts,
		logger: logging.OrNop(opts.Logger),
	}
}

// Volume returns the underlying volume.
func (v *Viewer) Volume() *models.SeismicVolume {
	return v.volume
}

// ExtractSlice extracts a colored plane with the viewer's mapper and contour.
func (v *Viewer) ExtractSlice(kind models.PlaneKind, index int) (*PlaneSlice, error) {
	return Extract(v.volume, kind, index, v.opts.Mapper, v.opts.Contour)
}

// BuildWiggle builds the variable-area mesh of one plane.
func (v *Viewer) BuildWiggle(kind models.PlaneKind, index int) (*WaveformMesh, error) {
	mapper := v.opts.Mapper
	if v.opts.FixedBlack {
		mapper = nil
	}
	return BuildWiggle(v.volume, kind, index, WiggleOptions{
		Gain:    v.opts.Gain,
		Spacing: v.opts.Spacing,
		Mapper:  mapper,
	})
}

// ExtractRegion copies a sub-cube starting at (il, xl, t) into a new volume
// with its own keys and amplitude range.
func (v *Viewer) ExtractRegion(il, xl, t, nIl, nXl, nT int) (*models.SeismicVolume, error) {
	if il < 0 || xl < 0 || t < 0 {
		return nil, fmt.Errorf("start coordinates must be non-negative")
	}
	if nIl <= 0 || nXl <= 0 || nT <= 0 {
		return nil, fmt.Errorf("size dimensions must be positive")
	}
	vol := v.volume
	if il+nIl > vol.NInlines || xl+nXl > vol.NCrosslines || t+nT > vol.NSamples {
		return nil, fmt.Errorf("%w: region extends beyond volume boundaries", models.ErrOutOfRange)
	}

	region := &models.SeismicVolume{
		Samples:        make([]float32, 0, nIl*nXl*nT),
		NInlines:       nIl,
		NCrosslines:    nXl,
		NSamples:       nT,
		InlineKeys:     append([]int32(nil), vol.InlineKeys[il:il+nIl]...),
		CrosslineKeys:  append([]int32(nil), vol.CrosslineKeys[xl:xl+nXl]...),
		SampleInterval: vol.SampleInterval,
		FormatCode:     vol.FormatCode,
	}
	lo, hi := math.Inf(1), math.Inf(-1)
	for i := il; i < il+nIl; i++ {
		for x := xl; x < xl+nXl; x++ {
			tr := vol.Trace(i, x)[t : t+nT]
			for _, s := range tr {
				f := float64(s)
				if !math.IsNaN(f) {
					lo, hi = math.Min(lo, f), math.Max(hi, f)
				}
			}
			region.Samples = append(region.Samples, tr...)
		}
	}
	if lo > hi {
		lo, hi = 0, 0
	}
	region.Min, region.Max = lo, hi
	return region, nil
}

// SaveSlice saves an image as PNG.
func (v *Viewer) SaveSlice(img image.Image, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	if err := png.Encode(file, img); err != nil {
		file.Close()
		return fmt.Errorf("failed to encode %s: %w", filename, err)
	}
	return file.Close()
}

// SliceFileName is the name SaveSliceSequence gives plane index of span.
func SliceFileName(kind models.PlaneKind, index, span int) string {
	digits := max(3, len(strconv.Itoa(span-1)))
	return fmt.Sprintf("slice_%s_%0*d.png", kind, digits, index)
}

// SaveSliceSequence extracts and saves every plane of the given kind. Planes
// are independent, so they are extracted and encoded in parallel.
func (v *Viewer) SaveSliceSequence(ctx context.Context, kind models.PlaneKind, outputDir string) error {
	_, _, span, err := v.volume.PlaneDims(kind)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	if v.opts.Workers > 0 {
		g.SetLimit(v.opts.Workers)
	}
	for pos := 0; pos < span; pos++ {
		pos := pos
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			s, err := v.ExtractSlice(kind, pos)
			if err != nil {
				return err
			}
			filename := filepath.Join(outputDir, SliceFileName(kind, pos, span))
			if err := v.SaveSlice(s.Image(), filename); err != nil {
				return err
			}
			v.logger.Debug("slice saved", zap.String("file", filename))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	v.logger.Info("slice sequence saved",
		zap.Stringer("kind", kind),
		zap.Int("count", span),
		zap.String("dir", outputDir))
	return nil
}
