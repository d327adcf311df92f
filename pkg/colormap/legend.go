package colormap

// LegendLabels is the number of evenly spaced labels on a color bar.
const LegendLabels = 5

// Legend carries what a renderer needs to draw a color bar.
type Legend struct {
	Min    float64
	Max    float64
	Scheme string
}

// Labels returns the label values from top (Max) to bottom (Min).
func (l Legend) Labels() []float64 {
	out := make([]float64, LegendLabels)
	for i := range out {
		t := 1 - float64(i)/float64(LegendLabels-1)
		out[i] = l.Min + (l.Max-l.Min)*t
	}
	return out
}

// Swatches samples the mapper at n evenly spaced positions from 0 to 1.
func Swatches(m Mapper, n int) []RGB {
	if n <= 0 {
		return nil
	}
	out := make([]RGB, n)
	for i := range out {
		t := 0.0
		if n > 1 {
			t = float64(i) / float64(n-1)
		}
		out[i] = m.Map(t)
	}
	return out
}
