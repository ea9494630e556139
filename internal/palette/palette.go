// Package palette builds the 256-entry color ramps used to paint raster layers
// and solar panels, and maps scalar measurements onto them.
package palette

import (
	"fmt"
	"image/color"
	"math"
	"strings"
	"sync"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/joeblew999/plat-solar/internal/errors"
)

// Size is the number of entries in every palette.
const Size = 256

// Palette is an interpolated color ramp. Index 0 is the first control color,
// index Size-1 the last. Entries are always opaque.
type Palette [Size]color.NRGBA

// Control colors for the named palettes.
var (
	BinaryColors   = []string{"212121", "B3E5FC"}
	RainbowColors  = []string{"3949AB", "81D4FA", "66BB6A", "FFE082", "E53935"}
	IronColors     = []string{"00000A", "91009C", "E64616", "FEB400", "FFFFF6"}
	SunlightColors = []string{"212121", "FFCA28"}
	PanelsColors   = []string{"E8EAF6", "1A237E"}
)

// Palette names accepted by Named.
const (
	Binary   = "binary"
	Rainbow  = "rainbow"
	Iron     = "iron"
	Sunlight = "sunlight"
	Panels   = "panels"
)

// Build interpolates the control colors into a Size-entry ramp. The stops are
// equally spaced; each entry blends the two surrounding stops in RGB space.
func Build(colors []string) (*Palette, error) {
	if len(colors) < 2 {
		return nil, errors.New(errors.ErrCodeInvalidPalette, "need at least 2 control colors, got %d", len(colors))
	}

	stops := make([]colorful.Color, len(colors))
	for i, hex := range colors {
		c, err := parseHex(hex)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidPalette, err, "control color %d (%q)", i, hex)
		}
		stops[i] = c
	}

	var p Palette
	last := len(stops) - 1
	for i := range p {
		pos := float64(i*last) / float64(Size-1)
		lower := int(math.Floor(pos))
		upper := int(math.Ceil(pos))
		c := stops[lower].BlendRgb(stops[upper], pos-float64(lower))
		r, g, b := c.RGB255()
		p[i] = color.NRGBA{R: r, G: g, B: b, A: 255}
	}
	return &p, nil
}

// At returns the palette color for value within [min, max].
func (p *Palette) At(value, max, min float64) color.NRGBA {
	return p[Index(value, max, min)]
}

// Hex returns the palette as "#rrggbb" strings.
func (p *Palette) Hex() []string {
	out := make([]string, Size)
	for i, c := range p {
		out[i] = HexString(c)
	}
	return out
}

// HexString formats a color as "#rrggbb".
func HexString(c color.NRGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

func parseHex(s string) (colorful.Color, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "#") {
		s = "#" + s
	}
	return colorful.Hex(s)
}

// lazy holds one named palette, built on first use.
type lazy struct {
	once   sync.Once
	colors []string
	p      *Palette
	err    error
}

// named is the process-wide palette cache. Entries are built once and never
// mutated afterwards, so readers need no locking.
var named = map[string]*lazy{
	Binary:   {colors: BinaryColors},
	Rainbow:  {colors: RainbowColors},
	Iron:     {colors: IronColors},
	Sunlight: {colors: SunlightColors},
	Panels:   {colors: PanelsColors},
}

// Named returns the cached palette for name. The returned palette is shared;
// callers must not modify it.
func Named(name string) (*Palette, error) {
	l, ok := named[name]
	if !ok {
		return nil, errors.New(errors.ErrCodeInvalidPalette, "unknown palette %q", name)
	}
	l.once.Do(func() {
		l.p, l.err = Build(l.colors)
	})
	return l.p, l.err
}

// Names lists the named palettes.
func Names() []string {
	return []string{Binary, Rainbow, Iron, Sunlight, Panels}
}

// ControlColors returns a copy of the control colors behind a named palette.
func ControlColors(name string) ([]string, bool) {
	l, ok := named[name]
	if !ok {
		return nil, false
	}
	return append([]string(nil), l.colors...), true
}
