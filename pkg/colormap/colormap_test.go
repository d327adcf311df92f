package colormap

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assertRGB(t *testing.T, want, got RGB) {
	t.Helper()
	assert.InDelta(t, want.R, got.R, 1e-9, "red")
	assert.InDelta(t, want.G, got.G, 1e-9, "green")
	assert.InDelta(t, want.B, got.B, 1e-9, "blue")
}

// TestHueSweep checks hue = (1-t)*0.7 at the ends and the midpoint
func TestHueSweep(t *testing.T) {
	m := HueSweep{}
	assertRGB(t, RGB{1, 0, 0}, m.Map(1))
	assertRGB(t, RGB{0.2, 0, 1}, m.Map(0))
	assertRGB(t, RGB{0, 1, 0.1}, m.Map(0.5))
}

// TestStopsInterpolation checks clamping outside the covered range and linear
// interpolation inside it
func TestStopsInterpolation(t *testing.T) {
	s, err := NewStops(
		Stop{T: 0.8, Color: RGB{1, 1, 1}},
		Stop{T: 0.2, Color: RGB{0, 0, 0}},
		Stop{T: 0.5, Color: RGB{1, 0, 0}},
	)
	require.NoError(t, err)

	anchors := s.Anchors()
	require.Len(t, anchors, 3)
	assert.Equal(t, []float64{0.2, 0.5, 0.8}, []float64{anchors[0].T, anchors[1].T, anchors[2].T})

	assertRGB(t, RGB{0, 0, 0}, s.Map(0))
	assertRGB(t, RGB{0, 0, 0}, s.Map(0.2))
	assertRGB(t, RGB{1, 1, 1}, s.Map(1))
	assertRGB(t, RGB{0.5, 0, 0}, s.Map(0.35))
	assertRGB(t, RGB{1, 0, 0}, s.Map(0.5))
	assertRGB(t, RGB{1, 0.5, 0.5}, s.Map(0.65))
}

// TestStopsSingle verifies a one-stop ramp is a constant color
func TestStopsSingle(t *testing.T) {
	s := MustStops(Stop{T: 0.5, Color: RGB{0.1, 0.2, 0.3}})
	assertRGB(t, RGB{0.1, 0.2, 0.3}, s.Map(0))
	assertRGB(t, RGB{0.1, 0.2, 0.3}, s.Map(1))

	_, err := NewStops()
	assert.Error(t, err)
}

// TestDiverging checks the blue-white-red byte ramp
func TestDiverging(t *testing.T) {
	assert.Equal(t, color.RGBA{0, 0, 255, 255}, DivergingRGBA(0))
	assert.Equal(t, color.RGBA{127, 127, 255, 255}, DivergingRGBA(0.25))
	assert.Equal(t, color.RGBA{255, 255, 255, 255}, DivergingRGBA(0.5))
	assert.Equal(t, color.RGBA{255, 0, 0, 255}, DivergingRGBA(1))
	assert.Equal(t, color.RGBA{255, 255, 255, 255}, Diverging{}.Map(0.5).RGBA8())
	for _, v := range []float64{0.1, 0.25, 0.33, 0.8} {
		assert.Equal(t, DivergingRGBA(v), Diverging{}.Map(v).RGBA8(), "t=%v", v)
	}
}

// TestResolveCatalog checks every advertised name resolves
func TestResolveCatalog(t *testing.T) {
	for _, name := range Names() {
		m, err := Resolve(name, DefaultCustom())
		require.NoError(t, err, name)
		c := m.Map(0.5)
		assert.True(t, c.R >= 0 && c.R <= 1, name)
	}

	_, err := Resolve("no-such-scheme", DefaultCustom())
	assert.ErrorIs(t, err, ErrUnknownScheme)

	gray, err := Resolve("grayscale", DefaultCustom())
	require.NoError(t, err)
	assertRGB(t, RGB{0.25, 0.25, 0.25}, gray.Map(0.25))
}

// TestCustomScheme checks the custom ramp is rebuilt from explicit params
func TestCustomScheme(t *testing.T) {
	p := DefaultCustom()
	m, err := Resolve(SchemeCustom, p)
	require.NoError(t, err)
	assert.Equal(t, "#000080", m.Map(0).Hex())
	assert.Equal(t, "#ffff00", m.Map(1).Hex())

	p.UseMid = true
	p.MidPos = 0.3
	m, err = Resolve(SchemeCustom, p)
	require.NoError(t, err)
	assert.Equal(t, "#ff0000", m.Map(0.3).Hex())

	// earlier mapper is unaffected by later params
	p.Start = MustHex("#00ff00")
	m2, err := Resolve(SchemeCustom, p)
	require.NoError(t, err)
	assert.Equal(t, "#000080", m.Map(0).Hex())
	assert.Equal(t, "#00ff00", m2.Map(0).Hex())

	// a middle placed past the end is re-sorted after it
	p.MidPos = 1.5
	s, err := p.Stops()
	require.NoError(t, err)
	anchors := s.Anchors()
	assert.Equal(t, 1.5, anchors[len(anchors)-1].T)
}

// TestParseHex covers short and invalid forms
func TestParseHex(t *testing.T) {
	c, err := ParseHex("#ff0000")
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{255, 0, 0, 255}, c.RGBA8())

	_, err = ParseHex("red")
	assert.Error(t, err)
}

// TestLegend checks label spacing and swatch sampling
func TestLegend(t *testing.T) {
	l := Legend{Min: -100, Max: 100, Scheme: SchemeSeismic}
	assert.Equal(t, []float64{100, 50, 0, -50, -100}, l.Labels())

	sw := Swatches(MustStops(Stop{0, RGB{0, 0, 0}}, Stop{1, RGB{1, 1, 1}}), 3)
	require.Len(t, sw, 3)
	assertRGB(t, RGB{0.5, 0.5, 0.5}, sw[1])
	assert.Nil(t, Swatches(HueSweep{}, 0))
}
