package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"geovis/pkg/analysis"
)

var (
	histBins int
	histKind string
)

// histogramCmd prints the value distribution of a volume or grid
var histogramCmd = &cobra.Command{
	Use:   "histogram <file>",
	Short: "Print the value distribution of a volume or elevation grid",
	Long: `Bins the samples over their full range. Inputs larger than 100000
samples are decimated with a constant stride.`,
	Args: cobra.ExactArgs(1),
	RunE: runHistogram,
}

func init() {
	histogramCmd.Flags().IntVarP(&histBins, "bins", "b", 20, "Number of bins")
	histogramCmd.Flags().StringVarP(&histKind, "type", "t", kindAuto, "Input type: auto, seismic or elevation")
}

func runHistogram(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	path := args[0]
	seismic, err := isSeismic(path, histKind)
	if err != nil {
		return err
	}

	var (
		values []float32
		lo, hi float64
		title  string
	)
	if seismic {
		vol, err := loadSeismic(ctx, path)
		if err != nil {
			return err
		}
		values, lo, hi, title = vol.Samples, vol.Min, vol.Max, "Amplitude"
	} else {
		grid, err := loadElevation(ctx, path)
		if err != nil {
			return err
		}
		values, lo, hi, title = grid.Values, grid.Min, grid.Max, "Elevation"
	}
	if hi == lo {
		hi = lo + 1
	}

	h, err := analysis.ComputeHistogram(values, lo, hi, histBins)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), renderHistogram(title, h))
	return nil
}
