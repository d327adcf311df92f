package colormap

import (
	"errors"
	"fmt"
	"sort"
)

// ErrUnknownScheme is returned by Resolve for names outside the catalog.
var ErrUnknownScheme = errors.New("unknown color scheme")

const (
	// SchemeRainbow is the hue sweep and the default for terrain.
	SchemeRainbow = "rainbow"

	// SchemeSeismic is the blue-white-red diverging ramp.
	SchemeSeismic = "seismic"

	// SchemeCustom is built from CustomParams on every Resolve call.
	SchemeCustom = "custom"
)

// Scheme is a named catalog entry.
type Scheme struct {
	Name   string
	Label  string
	Mapper Mapper
}

func stops(pairs ...any) Stops {
	var s []Stop
	for i := 0; i+1 < len(pairs); i += 2 {
		s = append(s, Stop{T: pairs[i].(float64), Color: MustHex(pairs[i+1].(string))})
	}
	return MustStops(s...)
}

var builtin = []Scheme{
	{SchemeRainbow, "Rainbow", HueSweep{}},
	{SchemeSeismic, "Seismic", Diverging{}},
	{"jet", "High-contrast rainbow", stops(0.0, "#000080", 0.125, "#0000ff", 0.375, "#00ffff", 0.625, "#ffff00", 0.875, "#ff0000", 1.0, "#800000")},
	{"viridis", "Viridis", stops(0.0, "#440154", 0.25, "#3b528b", 0.5, "#21918c", 0.75, "#5ec962", 1.0, "#fde725")},
	{"plasma", "Plasma", stops(0.0, "#0d0887", 0.25, "#7e03a8", 0.5, "#cc4778", 0.75, "#f89540", 1.0, "#f0f921")},
	{"magma", "Magma", stops(0.0, "#000004", 0.25, "#3b0f70", 0.5, "#8c2981", 0.75, "#de4968", 1.0, "#fcfdbf")},
	{"heat", "Heat", stops(0.0, "#000000", 0.4, "#800000", 0.6, "#ff0000", 0.8, "#ffff00", 1.0, "#ffffff")},
	{"ocean", "Ocean", stops(0.0, "#e0f7fa", 1.0, "#01579b")},
	{"terrain", "Terrain", stops(0.0, "#006994", 0.1, "#f9e4b7", 0.3, "#2e7d32", 0.7, "#fdd835", 1.0, "#5d4037")},
	{"grayscale", "Grayscale", stops(0.0, "#000000", 1.0, "#ffffff")},
	{"cool", "Cool", stops(0.0, "#00ffff", 1.0, "#ff00ff")},
	{"warm", "Warm", stops(0.0, "#ff00ff", 1.0, "#ffff00")},
	{"spring", "Spring", stops(0.0, "#ff00ff", 1.0, "#00ffff")},
	{"summer", "Summer", stops(0.0, "#008030", 1.0, "#ffff00")},
	{"winter", "Winter", stops(0.0, "#0000ff", 1.0, "#00ffff")},
}

// Names lists every scheme name accepted by Resolve, sorted, including custom.
func Names() []string {
	names := make([]string, 0, len(builtin)+1)
	for _, s := range builtin {
		names = append(names, s.Name)
	}
	names = append(names, SchemeCustom)
	sort.Strings(names)
	return names
}

// Lookup returns an immutable catalog entry. Custom is not a catalog entry;
// use Resolve.
func Lookup(name string) (Scheme, bool) {
	for _, s := range builtin {
		if s.Name == name {
			return s, true
		}
	}
	return Scheme{}, false
}

// Resolve returns the mapper for name. The custom scheme is rebuilt from the
// given params on each call so callers never share a mutable stop list.
func Resolve(name string, custom CustomParams) (Mapper, error) {
	if name == SchemeCustom {
		s, err := custom.Stops()
		if err != nil {
			return nil, err
		}
		return s, nil
	}
	s, ok := Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownScheme, name)
	}
	return s.Mapper, nil
}

// CustomParams holds the user-chosen colors of the custom scheme.
type CustomParams struct {
	Start  RGB
	End    RGB
	UseMid bool
	Mid    RGB
	MidPos float64
}

// DefaultCustom returns navy to yellow with a disabled red middle at 0.5.
func DefaultCustom() CustomParams {
	return CustomParams{
		Start:  MustHex("#000080"),
		End:    MustHex("#ffff00"),
		Mid:    MustHex("#ff0000"),
		MidPos: 0.5,
	}
}

// Stops builds the ramp: start at 0, optional middle at MidPos, end at 1,
// sorted by position.
func (p CustomParams) Stops() (Stops, error) {
	s := []Stop{{T: 0, Color: p.Start}}
	if p.UseMid {
		s = append(s, Stop{T: p.MidPos, Color: p.Mid})
	}
	s = append(s, Stop{T: 1, Color: p.End})
	return NewStops(s...)
}
