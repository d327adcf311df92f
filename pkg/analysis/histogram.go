// Package analysis computes distribution statistics over volume and grid
// samples.
package analysis

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// MaxHistogramSamples bounds how many samples a histogram reads; larger
// inputs are decimated with a constant stride.
const MaxHistogramSamples = 100000

// Histogram counts samples in equal-width bins over [Min, Max].
type Histogram struct {
	Min, Max float64

	// Counts holds one count per bin
	Counts []float64

	// Step is the decimation stride used when reading samples
	Step int
}

// ComputeHistogram bins every Step-th value inside [lo, hi]. Values outside
// the range and NaN are ignored; hi itself lands in the last bin.
func ComputeHistogram(values []float32, lo, hi float64, bins int) (*Histogram, error) {
	if bins <= 0 {
		return nil, fmt.Errorf("bin count must be positive, got %d", bins)
	}
	if !(hi > lo) {
		return nil, fmt.Errorf("histogram range [%g, %g] is empty", lo, hi)
	}

	step := (len(values) + MaxHistogramSamples - 1) / MaxHistogramSamples
	if step < 1 {
		step = 1
	}
	sample := make([]float64, 0, len(values)/step+1)
	for i := 0; i < len(values); i += step {
		v := float64(values[i])
		if v >= lo && v <= hi {
			sample = append(sample, v)
		}
	}
	sort.Float64s(sample)

	dividers := floats.Span(make([]float64, bins+1), lo, hi)
	dividers[bins] = math.Nextafter(hi, math.Inf(1))

	return &Histogram{
		Min:    lo,
		Max:    hi,
		Counts: stat.Histogram(nil, dividers, sample, nil),
		Step:   step,
	}, nil
}

// Total returns the number of samples counted.
func (h *Histogram) Total() float64 {
	return floats.Sum(h.Counts)
}

// Peak returns the largest bin count.
func (h *Histogram) Peak() float64 {
	if len(h.Counts) == 0 {
		return 0
	}
	return floats.Max(h.Counts)
}

// BinRange returns the bounds of bin i.
func (h *Histogram) BinRange(i int) (lo, hi float64) {
	w := (h.Max - h.Min) / float64(len(h.Counts))
	return h.Min + float64(i)*w, h.Min + float64(i+1)*w
}
