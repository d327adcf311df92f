package main

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"geovis/internal/models"
	"geovis/pkg/visualization"
)

var (
	// Slice and wiggle flags
	planeName string
	planeIdx  int
	allSlices bool
	scheme    string
	contour   float64

	// Output paths, one per command so each keeps its own default
	sliceOut   string
	wiggleOut  string
	terrainOut string

	// Wiggle flags
	gain       float64
	fixedBlack bool

	// Terrain flags
	meshPath     string
	exaggeration float64
	segments     int
)

// sliceCmd extracts one plane, or all of them, as PNG images
var sliceCmd = &cobra.Command{
	Use:   "slice <file.sgy>",
	Short: "Render a seismic plane as a color image",
	Long: `Extracts an inline, crossline or time plane and colors it with the
configured scheme, normalizing amplitudes symmetrically around zero.

With --all every plane of the chosen kind is written into the --out
directory in parallel.`,
	Args: cobra.ExactArgs(1),
	RunE: runSlice,
}

// wiggleCmd builds a filled waveform mesh
var wiggleCmd = &cobra.Command{
	Use:   "wiggle <file.sgy>",
	Short: "Build a variable-area wiggle mesh as PLY or STL",
	Args:  cobra.ExactArgs(1),
	RunE:  runWiggle,
}

// terrainCmd renders an elevation grid
var terrainCmd = &cobra.Command{
	Use:   "terrain <dem>",
	Short: "Render an elevation grid as a color image and optional mesh",
	Args:  cobra.ExactArgs(1),
	RunE:  runTerrain,
}

func init() {
	for _, c := range []*cobra.Command{sliceCmd, wiggleCmd} {
		c.Flags().StringVarP(&planeName, "plane", "p", "inline", "Plane kind: inline, crossline or time")
		c.Flags().IntVarP(&planeIdx, "index", "i", 0, "Zero-based plane index")
	}
	sliceCmd.Flags().BoolVar(&allSlices, "all", false, "Write every plane of the kind into the --out directory")
	sliceCmd.Flags().StringVarP(&sliceOut, "out", "o", "slice.png", "Output PNG, or directory with --all")
	wiggleCmd.Flags().StringVarP(&wiggleOut, "out", "o", "wiggle.ply", "Output mesh, STL when the name ends in .stl, PLY otherwise")
	terrainCmd.Flags().StringVarP(&terrainOut, "out", "o", "terrain.png", "Output PNG")

	for _, c := range []*cobra.Command{sliceCmd, wiggleCmd, terrainCmd} {
		c.Flags().StringVarP(&scheme, "scheme", "s", "", "Color scheme, overriding the configuration")
	}
	for _, c := range []*cobra.Command{sliceCmd, terrainCmd} {
		c.Flags().Float64Var(&contour, "contour", 0, "Draw iso-lines at this interval")
	}

	wiggleCmd.Flags().Float64VarP(&gain, "gain", "g", 0, "Trace gain, overriding the configuration")
	wiggleCmd.Flags().BoolVar(&fixedBlack, "black", false, "Draw black line art instead of scheme colors")

	terrainCmd.Flags().StringVarP(&meshPath, "mesh", "m", "", "Also write a height-field mesh (.stl or .ply)")
	terrainCmd.Flags().Float64VarP(&exaggeration, "exaggeration", "z", 1, "Vertical exaggeration of the mesh")
	terrainCmd.Flags().IntVar(&segments, "segments", visualization.MaxTerrainSegments, "Mesh resolution cap per axis")
}

func newViewer(vol *models.SeismicVolume) (*visualization.Viewer, error) {
	opts, err := cfg.ViewerOptions(logger)
	if err != nil {
		return nil, err
	}
	return visualization.NewViewer(vol, opts), nil
}

func runSlice(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	kind, err := models.ParsePlaneKind(planeName)
	if err != nil {
		return err
	}
	if err := applyDisplayFlags(scheme, contour, false); err != nil {
		return err
	}
	vol, err := loadSeismic(ctx, args[0])
	if err != nil {
		return err
	}
	viewer, err := newViewer(vol)
	if err != nil {
		return err
	}

	if allSlices {
		if err := viewer.SaveSliceSequence(ctx, kind, sliceOut); err != nil {
			return err
		}
		_, _, span, _ := vol.PlaneDims(kind)
		fmt.Fprintln(cmd.OutOrStdout(), renderBox("Slices written", []field{
			{"Plane", kind.String()},
			{"Count", fmt.Sprintf("%d", span)},
			{"Directory", sliceOut},
		}))
		return nil
	}

	s, err := viewer.ExtractSlice(kind, planeIdx)
	if err != nil {
		return err
	}
	if err := viewer.SaveSlice(s.Image(), sliceOut); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), renderBox("Slice written", []field{
		{"Plane", fmt.Sprintf("%s %d", kind, planeIdx)},
		{"Position", formatValue(s.Position)},
		{"Size", fmt.Sprintf("%d x %d", s.Width, s.Height)},
		{"File", sliceOut},
	}))
	return nil
}

func runWiggle(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	kind, err := models.ParsePlaneKind(planeName)
	if err != nil {
		return err
	}
	if gain > 0 {
		cfg.Wiggle.Gain = gain
	}
	if fixedBlack {
		cfg.Wiggle.FixedBlack = true
	}
	if err := applyDisplayFlags(scheme, 0, false); err != nil {
		return err
	}
	vol, err := loadSeismic(ctx, args[0])
	if err != nil {
		return err
	}
	viewer, err := newViewer(vol)
	if err != nil {
		return err
	}

	mesh, err := viewer.BuildWiggle(kind, planeIdx)
	if err != nil {
		return err
	}
	if err := visualization.SaveMesh(mesh, wiggleOut); err != nil {
		return err
	}
	logger.Info("Wrote wiggle mesh", zap.String("path", wiggleOut), zap.Int("triangles", len(mesh.Triangles)))
	fmt.Fprintln(cmd.OutOrStdout(), renderBox("Wiggle mesh written", []field{
		{"Plane", fmt.Sprintf("%s %d", kind, planeIdx)},
		{"Triangles", fmt.Sprintf("%d", len(mesh.Triangles))},
		{"Gain", formatValue(cfg.Wiggle.Gain)},
		{"File", wiggleOut},
	}))
	return nil
}

func runTerrain(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	if err := applyDisplayFlags(scheme, contour, true); err != nil {
		return err
	}
	grid, err := loadElevation(ctx, args[0])
	if err != nil {
		return err
	}
	mapper, err := cfg.TerrainMapper()
	if err != nil {
		return err
	}

	img, err := visualization.RenderTerrain(grid, mapper, cfg.TerrainContour())
	if err != nil {
		return err
	}
	if err := savePNG(img, terrainOut); err != nil {
		return err
	}
	fields := []field{
		{"Size", fmt.Sprintf("%d x %d", grid.Width, grid.Height)},
		{"Relief", fmt.Sprintf("%s .. %s", formatValue(grid.Min), formatValue(grid.Max))},
		{"Image", terrainOut},
	}

	if meshPath != "" {
		mesh, err := visualization.BuildTerrainMesh(grid, visualization.TerrainOptions{
			Exaggeration: exaggeration,
			MaxSegments:  segments,
			Mapper:       mapper,
		})
		if err != nil {
			return err
		}
		if err := visualization.SaveMesh(mesh, meshPath); err != nil {
			return err
		}
		fields = append(fields,
			field{"Mesh", meshPath},
			field{"Faces", fmt.Sprintf("%d", len(mesh.Faces))})
	}
	fmt.Fprintln(cmd.OutOrStdout(), renderBox("Terrain written", fields))
	return nil
}

func savePNG(img image.Image, filename string) error {
	if err := os.MkdirAll(filepath.Dir(filename), 0755); err != nil {
		return err
	}
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
