package models

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestVolume builds a volume whose sample value encodes its position
func newTestVolume(nIl, nXl, nT int) *SeismicVolume {
	v := &SeismicVolume{
		NInlines:    nIl,
		NCrosslines: nXl,
		NSamples:    nT,
		Samples:     make([]float32, nIl*nXl*nT),
	}
	for il := 0; il < nIl; il++ {
		v.InlineKeys = append(v.InlineKeys, int32(100+il))
		for xl := 0; xl < nXl; xl++ {
			for t := 0; t < nT; t++ {
				v.Samples[(il*nXl+xl)*nT+t] = float32(il*100 + xl*10 + t)
			}
		}
	}
	for xl := 0; xl < nXl; xl++ {
		v.CrosslineKeys = append(v.CrosslineKeys, int32(200+xl))
	}
	return v
}

// TestIndexLayout verifies the inline-major, crossline, time ordering
func TestIndexLayout(t *testing.T) {
	v := newTestVolume(3, 2, 4)
	require.NoError(t, v.Validate())

	for il := 0; il < 3; il++ {
		for xl := 0; xl < 2; xl++ {
			for ts := 0; ts < 4; ts++ {
				got, ok := v.At(il, xl, ts)
				require.True(t, ok)
				if want := float32(il*100 + xl*10 + ts); got != want {
					t.Errorf("Expected %v at (%d,%d,%d), got %v", want, il, xl, ts, got)
				}
			}
		}
	}

	_, ok := v.At(3, 0, 0)
	assert.False(t, ok)
	assert.Equal(t, []float32{110, 111, 112, 113}, v.Trace(1, 1))
}

// TestPlaneDims verifies the axis assignment of each plane kind
func TestPlaneDims(t *testing.T) {
	v := newTestVolume(3, 2, 4)
	tests := []struct {
		kind                PlaneKind
		width, height, span int
	}{
		{Inline, 2, 4, 3},
		{Crossline, 3, 4, 2},
		{TimeSlice, 3, 2, 4},
	}
	for _, tt := range tests {
		w, h, s, err := v.PlaneDims(tt.kind)
		require.NoError(t, err)
		assert.Equal(t, tt.width, w, "width of %s", tt.kind)
		assert.Equal(t, tt.height, h, "height of %s", tt.kind)
		assert.Equal(t, tt.span, s, "span of %s", tt.kind)
	}

	_, _, _, err := v.PlaneDims(PlaneKind(7))
	assert.Error(t, err)
}

// TestCheckPlaneIndex verifies out-of-range detection at the boundaries
func TestCheckPlaneIndex(t *testing.T) {
	v := newTestVolume(3, 2, 4)
	assert.NoError(t, v.CheckPlaneIndex(TimeSlice, 3))
	assert.ErrorIs(t, v.CheckPlaneIndex(TimeSlice, 4), ErrOutOfRange)
	assert.ErrorIs(t, v.CheckPlaneIndex(Inline, -1), ErrOutOfRange)
	assert.ErrorIs(t, v.CheckPlaneIndex(Crossline, 2), ErrOutOfRange)
}

// TestValidateRejectsBrokenInvariants checks the length invariants
func TestValidateRejectsBrokenInvariants(t *testing.T) {
	v := newTestVolume(3, 2, 4)
	v.Samples = v.Samples[:5]
	assert.Error(t, v.Validate())

	v = newTestVolume(3, 2, 4)
	v.InlineKeys = v.InlineKeys[:2]
	assert.Error(t, v.Validate())

	g := &ElevationGrid{Width: 2, Height: 2, Values: make([]float32, 3)}
	assert.Error(t, g.Validate())
}

// TestMaxAbs verifies the symmetric range and its zero fallback
func TestMaxAbs(t *testing.T) {
	v := &SeismicVolume{Min: -3, Max: 2}
	assert.Equal(t, 3.0, v.MaxAbs())
	v = &SeismicVolume{}
	assert.Equal(t, 1.0, v.MaxAbs())
}

// TestPosition verifies the physical placement of each plane kind
func TestPosition(t *testing.T) {
	v := newTestVolume(3, 2, 4)
	v.SampleInterval = 4000
	assert.Equal(t, 101.0, v.Position(Inline, 1))
	assert.Equal(t, 201.0, v.Position(Crossline, 1))
	assert.Equal(t, 8.0, v.Position(TimeSlice, 2))
}

// TestParsePlaneKind covers accepted spellings and the round trip through String
func TestParsePlaneKind(t *testing.T) {
	for _, k := range []PlaneKind{Inline, Crossline, TimeSlice} {
		got, err := ParsePlaneKind(k.String())
		require.NoError(t, err)
		assert.Equal(t, k, got)
	}
	got, err := ParsePlaneKind("XL")
	require.NoError(t, err)
	assert.Equal(t, Crossline, got)

	_, err = ParsePlaneKind("depth")
	assert.Error(t, err)
}

// TestFormatError verifies errors.Is matching through wrapping
func TestFormatError(t *testing.T) {
	err := fmt.Errorf("loading: %w", NewFormatError("a.sgy", "zero traces"))
	assert.True(t, errors.Is(err, ErrFormat))
	assert.Contains(t, err.Error(), "a.sgy")

	var fe *FormatError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, "zero traces", fe.Reason)
}
