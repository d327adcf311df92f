// Command geovis inspects and renders elevation grids and SEG-Y seismic
// volumes: slice images, wiggle meshes, terrain renders and histograms.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"geovis/internal/logging"
	"geovis/pkg/config"
)

var (
	// Global flags
	configPath string
	verbose    bool
	timeout    time.Duration

	// Resolved by PersistentPreRunE
	cfg    *config.Config
	logger *zap.Logger
)

// rootCmd is the base command
var rootCmd = &cobra.Command{
	Use:   "geovis",
	Short: "Geological visualization toolkit",
	Long: `geovis loads terrain elevation rasters (GeoTIFF, SRTM .hgt) and SEG-Y
seismic volumes and turns them into pictures and meshes.

Examples:
  geovis info survey.sgy
  geovis slice survey.sgy --plane inline --index 40 --out il40.png
  geovis slice survey.sgy --plane time --all --out slices/
  geovis wiggle survey.sgy --plane crossline --index 10 --out xl10.ply
  geovis terrain dem.tif --out dem.png --mesh dem.ply
  geovis synth seismic --size 50x40x200 --out model.sgy`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.LoadConfig(configPath)
		if err != nil {
			return err
		}
		logger, err = logging.New(verbose || cfg.Output.Verbose)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "geovis.yaml", "Configuration file (defaults apply when missing)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Minute, "Operation timeout")

	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(sliceCmd)
	rootCmd.AddCommand(wiggleCmd)
	rootCmd.AddCommand(terrainCmd)
	rootCmd.AddCommand(histogramCmd)
	rootCmd.AddCommand(schemesCmd)
	rootCmd.AddCommand(synthCmd)
	rootCmd.AddCommand(configCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// commandContext bounds a command by the timeout flag and cancels it on
// SIGINT or SIGTERM.
func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	if timeout <= 0 {
		return ctx, stop
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	return ctx, func() {
		cancel()
		stop()
	}
}
