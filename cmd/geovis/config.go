package main

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"geovis/pkg/colormap"
	"geovis/pkg/config"
)

// rampWidth is the number of cells in a scheme preview.
const rampWidth = 32

// configCmd manages the YAML configuration
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the geovis configuration file",
}

var configInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write the default configuration",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runConfigInit,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

// schemesCmd previews every color scheme
var schemesCmd = &cobra.Command{
	Use:   "schemes",
	Short: "List the color schemes with a preview ramp",
	Args:  cobra.NoArgs,
	RunE:  runSchemes,
}

func init() {
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := configPath
	if len(args) == 1 {
		path = args[0]
	}
	if err := config.CreateDefaultConfigFile(path); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote default configuration to %s\n", path)
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}
	fmt.Fprint(cmd.OutOrStdout(), string(data))
	return nil
}

func runSchemes(cmd *cobra.Command, args []string) error {
	custom, err := cfg.CustomParams()
	if err != nil {
		return err
	}
	lines := []string{titleStyle.Render("Color schemes")}
	for _, name := range colormap.Names() {
		m, err := colormap.Resolve(name, custom)
		if err != nil {
			return err
		}
		label := name
		if s, ok := colormap.Lookup(name); ok {
			label = s.Label
		}
		mark := " "
		if name == cfg.Display.Scheme {
			mark = "*"
		}
		lines = append(lines, fmt.Sprintf("%s %s %s %s",
			mark, labelStyle.Render(name), renderRamp(m, rampWidth), dimStyle.Render(label)))
	}
	fmt.Fprintln(cmd.OutOrStdout(), boxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, lines...)))
	return nil
}
