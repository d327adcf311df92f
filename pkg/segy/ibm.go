package segy

import (
	"math"
)

// IBMToFloat64 decodes one 4-byte big-endian IBM System/360 hexadecimal float:
// sign bit, 7-bit base-16 exponent biased by 64, 24-bit fraction.
// An all-zero word is exactly 0.
func IBMToFloat64(b []byte) float64 {
	_ = b[3]
	if b[0] == 0 && b[1] == 0 && b[2] == 0 && b[3] == 0 {
		return 0
	}
	sign := 1.0
	if b[0]&0x80 != 0 {
		sign = -1
	}
	exponent := int(b[0]&0x7f) - 64
	mantissa := float64(uint32(b[1])<<16|uint32(b[2])<<8|uint32(b[3])) / (1 << 24)
	// 16^e == 2^(4e)
	return sign * math.Ldexp(mantissa, 4*exponent)
}

// IBMToFloat32 is IBMToFloat64 rounded to single precision. Magnitudes beyond
// the float32 range become ±Inf or 0.
func IBMToFloat32(b []byte) float32 {
	return float32(IBMToFloat64(b))
}

// Float32ToIBM encodes v as an IBM float. NaN encodes as zero and infinities
// saturate to the largest IBM magnitude.
func Float32ToIBM(v float32) [4]byte {
	var out [4]byte
	f := float64(v)
	if f == 0 || math.IsNaN(f) {
		return out
	}
	var sign byte
	if f < 0 {
		sign = 0x80
		f = -f
	}
	if math.IsInf(f, 0) {
		out = [4]byte{sign | 0x7f, 0xff, 0xff, 0xff}
		return out
	}

	// normalize the fraction into [1/16, 1)
	exponent := 0
	for f >= 1 {
		f /= 16
		exponent++
	}
	for f < 1.0/16 {
		f *= 16
		exponent--
	}

	frac := uint32(math.Round(f * (1 << 24)))
	if frac >= 1<<24 {
		frac >>= 4
		exponent++
	}
	biased := exponent + 64
	switch {
	case biased > 127:
		return [4]byte{sign | 0x7f, 0xff, 0xff, 0xff}
	case biased < 0:
		return out
	}
	out[0] = sign | byte(biased)
	out[1] = byte(frac >> 16)
	out[2] = byte(frac >> 8)
	out[3] = byte(frac)
	return out
}
