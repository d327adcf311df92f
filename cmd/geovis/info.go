package main

import (
	"fmt"
	"math"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"geovis/internal/models"
	"geovis/pkg/analysis"
	"geovis/pkg/colormap"
	"geovis/pkg/segy"
)

var infoKind string

// infoCmd summarizes a seismic volume or an elevation grid
var infoCmd = &cobra.Command{
	Use:   "info <file>",
	Short: "Describe a SEG-Y volume or an elevation raster",
	Long: `Loads the file and prints its dimensions, value range and statistics
next to the color bar the current scheme would use.

Files ending in .sgy or .segy are read as seismic, anything else as
elevation. Use --type to override.`,
	Args: cobra.ExactArgs(1),
	RunE: runInfo,
}

func init() {
	infoCmd.Flags().StringVarP(&infoKind, "type", "t", kindAuto, "Input type: auto, seismic or elevation")
}

func runInfo(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	path := args[0]
	seismic, err := isSeismic(path, infoKind)
	if err != nil {
		return err
	}

	var out string
	if seismic {
		vol, err := loadSeismic(ctx, path)
		if err != nil {
			return err
		}
		out, err = describeVolume(path, vol)
		if err != nil {
			return err
		}
	} else {
		grid, err := loadElevation(ctx, path)
		if err != nil {
			return err
		}
		out, err = describeGrid(path, grid)
		if err != nil {
			return err
		}
	}
	fmt.Fprintln(cmd.OutOrStdout(), out)
	return nil
}

func keyRange(keys []int32) string {
	if len(keys) == 0 {
		return "none"
	}
	return fmt.Sprintf("%d..%d (%d)", keys[0], keys[len(keys)-1], len(keys))
}

func summaryFields(s analysis.Summary) []field {
	return []field{
		{"Range", fmt.Sprintf("%s .. %s", formatValue(s.Min), formatValue(s.Max))},
		{"Mean", formatValue(s.Mean)},
		{"Std dev", formatValue(s.StdDev)},
		{"Non-finite", fmt.Sprintf("%d", s.NonFinite)},
	}
}

func describeVolume(path string, vol *models.SeismicVolume) (string, error) {
	mapper, err := cfg.ColorMapper()
	if err != nil {
		return "", err
	}
	s := analysis.Summarize(vol.Samples)
	fields := []field{
		{"File", path},
		{"Dimensions", fmt.Sprintf("%d x %d x %d", vol.NInlines, vol.NCrosslines, vol.NSamples)},
		{"Inlines", keyRange(vol.InlineKeys)},
		{"Crosslines", keyRange(vol.CrosslineKeys)},
		{"Interval", fmt.Sprintf("%d µs", vol.SampleInterval)},
		{"Format", segy.FormatName(vol.FormatCode)},
	}
	fields = append(fields, summaryFields(s)...)

	// slices normalize symmetrically around zero
	maxAbs := vol.MaxAbs()
	legend := colormap.Legend{Min: -maxAbs, Max: maxAbs, Scheme: cfg.Display.Scheme}
	return lipgloss.JoinHorizontal(lipgloss.Top,
		renderBox("Seismic volume", fields),
		renderLegend(mapper, legend)), nil
}

func describeGrid(path string, grid *models.ElevationGrid) (string, error) {
	mapper, err := cfg.TerrainMapper()
	if err != nil {
		return "", err
	}
	s := analysis.Summarize(grid.Values)
	scale := "none (1 m assumed)"
	if grid.HasPixelScale {
		scale = fmt.Sprintf("%s x %s m", formatValue(grid.PixelScaleX), formatValue(grid.PixelScaleY))
	}
	extentX := float64(grid.Width) * grid.PixelScaleX
	extentY := float64(grid.Height) * grid.PixelScaleY
	fields := []field{
		{"File", path},
		{"Size", fmt.Sprintf("%d x %d", grid.Width, grid.Height)},
		{"Pixel scale", scale},
		{"Extent", fmt.Sprintf("%s x %s m", formatValue(extentX), formatValue(extentY))},
		{"Relief", formatValue(math.Abs(grid.Max - grid.Min))},
	}
	fields = append(fields, summaryFields(s)...)

	legend := colormap.Legend{Min: grid.Min, Max: grid.Max, Scheme: cfg.Display.TerrainScheme}
	return lipgloss.JoinHorizontal(lipgloss.Top,
		renderBox("Elevation grid", fields),
		renderLegend(mapper, legend)), nil
}
