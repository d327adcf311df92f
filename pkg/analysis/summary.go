package analysis

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Summary describes the finite samples of a buffer.
type Summary struct {
	Count     int
	NonFinite int
	Min       float64
	Max       float64
	Mean      float64
	StdDev    float64

	// MaxAbs is max(|Min|, |Max|), the symmetric normalization range
	MaxAbs float64
}

// Summarize computes the summary of values, skipping NaN and infinities.
func Summarize(values []float32) Summary {
	finite := make([]float64, 0, len(values))
	for _, v := range values {
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			continue
		}
		finite = append(finite, f)
	}
	s := Summary{Count: len(finite), NonFinite: len(values) - len(finite)}
	if len(finite) == 0 {
		return s
	}
	s.Min = floats.Min(finite)
	s.Max = floats.Max(finite)
	s.MaxAbs = math.Max(math.Abs(s.Min), math.Abs(s.Max))
	if len(finite) > 1 {
		s.Mean, s.StdDev = stat.MeanStdDev(finite, nil)
	} else {
		s.Mean = finite[0]
	}
	return s
}
