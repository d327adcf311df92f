package synthetic

import (
	"bytes"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"geovis/pkg/segy"
)

// TestTerrain peaks at the center and respects the sanitized range
func TestTerrain(t *testing.T) {
	grid, err := Terrain(64, 48)
	require.NoError(t, err)
	require.NoError(t, grid.Validate())

	assert.Equal(t, float32(TerrainAmplitude), grid.At(24, 32))
	assert.Equal(t, TerrainAmplitude, grid.Max)
	assert.Less(t, grid.Min, 0.0)
	for i, v := range grid.Values {
		if float64(v) < grid.Min || float64(v) > grid.Max {
			t.Fatalf("value %v at %d outside [%v, %v]", v, i, grid.Min, grid.Max)
		}
	}
	assert.False(t, grid.HasPixelScale)

	_, err = Terrain(0, 10)
	assert.Error(t, err)
}

// TestSeismic builds a valid volume with keys starting at 1
func TestSeismic(t *testing.T) {
	vol, err := Seismic(6, 5, 150)
	require.NoError(t, err)

	assert.Equal(t, []int32{1, 2, 3, 4, 5, 6}, vol.InlineKeys)
	assert.Equal(t, []int32{1, 2, 3, 4, 5}, vol.CrosslineKeys)
	assert.Equal(t, int16(SampleInterval), vol.SampleInterval)
	for _, v := range vol.Samples {
		if float64(v) < vol.Min || float64(v) > vol.Max {
			t.Fatalf("sample %v outside [%v, %v]", v, vol.Min, vol.Max)
		}
	}
	// the reflector bands push past the carrier amplitude
	assert.Greater(t, vol.Max, 1.0)
	assert.Less(t, vol.Min, -1.0)

	_, err = Seismic(1, 0, 1)
	assert.Error(t, err)
	_, err = SeismicTraces(1, 1, 0)
	assert.Error(t, err)
}

// TestSeismicTracesRoundTrip writes the model and loads it back unchanged
func TestSeismicTracesRoundTrip(t *testing.T) {
	traces, err := SeismicTraces(5, 4, 50)
	require.NoError(t, err)
	require.Len(t, traces, 20)

	var buf bytes.Buffer
	require.NoError(t, segy.Write(&buf, traces, segy.WriteOptions{SampleInterval: SampleInterval}))

	loaded, err := segy.NewLoader(segy.Options{}).LoadBytes(buf.Bytes(), "synthetic.sgy")
	require.NoError(t, err)

	want, err := Seismic(5, 4, 50)
	require.NoError(t, err)

	if diff := cmp.Diff(want, loaded); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}
