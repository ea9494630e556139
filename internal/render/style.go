package render

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/joeblew999/plat-solar/internal/errors"
	"github.com/joeblew999/plat-solar/internal/palette"
	"github.com/joeblew999/plat-solar/internal/raster"
)

// Style controls how one layer is painted. A nil Min or Max is taken from
// the observed range of each band.
type Style struct {
	Palette string   `json:"palette" yaml:"palette" toml:"palette" doc:"Named palette; empty copies bands as RGB"`
	Min     *float64 `json:"min,omitempty" yaml:"min,omitempty" toml:"min,omitempty"`
	Max     *float64 `json:"max,omitempty" yaml:"max,omitempty" toml:"max,omitempty"`
}

// Fixed reports whether both ends of the value range are pinned.
func (s Style) Fixed() bool {
	return s.Min != nil && s.Max != nil
}

// Styles maps each layer to its style.
type Styles map[raster.LayerID]Style

func f64(v float64) *float64 { return &v }

// DefaultStyles returns the dashboard look: boolean layers use a fixed
// [0,1] range, measurement layers stretch over what they contain.
func DefaultStyles() Styles {
	return Styles{
		raster.Mask:        {Palette: palette.Binary, Min: f64(0), Max: f64(1)},
		raster.DSM:         {Palette: palette.Rainbow},
		raster.RGB:         {},
		raster.AnnualFlux:  {Palette: palette.Iron},
		raster.MonthlyFlux: {Palette: palette.Iron},
		raster.HourlyShade: {Palette: palette.Sunlight, Min: f64(0), Max: f64(1)},
	}
}

// For returns the style of id, falling back to the default.
func (s Styles) For(id raster.LayerID) Style {
	if st, ok := s[id]; ok {
		return st
	}
	return DefaultStyles()[id]
}

// Validate checks every layer name and palette name. Every layer but rgb
// needs a palette.
func (s Styles) Validate() error {
	for id, st := range s {
		if _, err := raster.ParseLayerID(string(id)); err != nil {
			return err
		}
		if st.Palette == "" {
			// rgb is painted from its own bands.
			if id == raster.RGB {
				continue
			}
			return errors.New(errors.ErrCodeInvalidPalette, "style for %s: palette is required", id)
		}
		if _, err := palette.Named(st.Palette); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidPalette, err, "style for %s", id)
		}
		if st.Fixed() && *st.Min > *st.Max {
			return errors.New(errors.ErrCodeInvalidInput, "style for %s: min %v > max %v", id, *st.Min, *st.Max)
		}
	}
	return nil
}

// LoadStyles reads a YAML or TOML file (chosen by extension) and overlays it
// on DefaultStyles. An empty path returns the defaults.
func LoadStyles(path string) (Styles, error) {
	styles := DefaultStyles()
	if path == "" {
		return styles, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeNotFound, err, "read styles")
	}

	var raw map[string]Style
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		_, err = toml.Decode(string(data), &raw)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &raw)
	default:
		return nil, errors.New(errors.ErrCodeInvalidInput, "styles file %s: want .yaml, .yml or .toml", path)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse styles %s", path)
	}

	for k, st := range raw {
		styles[raster.LayerID(k)] = st
	}
	if err := styles.Validate(); err != nil {
		return nil, err
	}
	return styles, nil
}
