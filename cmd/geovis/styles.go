package main

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"geovis/pkg/analysis"
	"geovis/pkg/colormap"
)

var (
	accentFg  = lipgloss.Color("#2DD4BF")
	borderCol = lipgloss.Color("#243141")
	dimFg     = lipgloss.AdaptiveColor{Light: "#6B7280", Dark: "#9CA3AF"}

	boxStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(borderCol).Padding(0, 1)
	titleStyle = lipgloss.NewStyle().Foreground(accentFg).Bold(true)
	labelStyle = lipgloss.NewStyle().Foreground(dimFg).Width(14)
	dimStyle   = lipgloss.NewStyle().Foreground(dimFg)
	barStyle   = lipgloss.NewStyle().Foreground(accentFg)
)

// histogramWidth is the length of the tallest histogram bar in cells.
const histogramWidth = 40

type field struct {
	label string
	value string
}

func renderBox(title string, fields []field) string {
	lines := []string{titleStyle.Render(title)}
	for _, f := range fields {
		lines = append(lines, labelStyle.Render(f.label)+f.value)
	}
	return boxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

func swatch(c colormap.RGB, width int) string {
	return lipgloss.NewStyle().Background(lipgloss.Color(c.Hex())).Render(strings.Repeat(" ", width))
}

// renderLegend draws a vertical color bar, maximum on top.
func renderLegend(m colormap.Mapper, l colormap.Legend) string {
	labels := l.Labels()
	colors := colormap.Swatches(m, len(labels))
	lines := []string{titleStyle.Render(l.Scheme)}
	for i, v := range labels {
		lines = append(lines, swatch(colors[len(colors)-1-i], 4)+" "+formatValue(v))
	}
	return boxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

// renderRamp draws a horizontal strip of n samples.
func renderRamp(m colormap.Mapper, n int) string {
	var b strings.Builder
	for _, c := range colormap.Swatches(m, n) {
		b.WriteString(swatch(c, 1))
	}
	return b.String()
}

func renderHistogram(title string, h *analysis.Histogram) string {
	peak := h.Peak()
	lines := []string{titleStyle.Render(title)}
	for i, c := range h.Counts {
		lo, hi := h.BinRange(i)
		n := 0
		if peak > 0 {
			n = int(math.Round(c / peak * histogramWidth))
		}
		label := dimStyle.Render(fmt.Sprintf("%11s %11s", formatValue(lo), formatValue(hi)))
		lines = append(lines, fmt.Sprintf("%s %s %d", label, barStyle.Render(strings.Repeat("█", n)), int(c)))
	}
	footer := fmt.Sprintf("%d samples", int(h.Total()))
	if h.Step > 1 {
		footer += fmt.Sprintf(", every %dth", h.Step)
	}
	lines = append(lines, dimStyle.Render(footer))
	return boxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

func formatValue(v float64) string {
	return fmt.Sprintf("%.4g", v)
}
