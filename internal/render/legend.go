package render

import (
	"fmt"

	"github.com/joeblew999/plat-solar/internal/palette"
	"github.com/joeblew999/plat-solar/internal/raster"
)

// Legend describes how to read a rendered layer.
type Legend struct {
	Layer    raster.LayerID     `json:"layer"`
	Palette  string             `json:"palette,omitempty"`
	Colors   []string           `json:"colors,omitempty" doc:"Control colors of the palette"`
	Min      float64            `json:"min"`
	Max      float64            `json:"max"`
	MinLabel string             `json:"minLabel,omitempty"`
	MaxLabel string             `json:"maxLabel,omitempty"`
	Bands    []raster.BandStats `json:"bands"`
}

// NewLegend summarizes layer as painted with styles.
func NewLegend(layer *raster.Layer, styles Styles) Legend {
	if styles == nil {
		styles = DefaultStyles()
	}
	style := styles.For(layer.ID)
	lg := Legend{Layer: layer.ID, Palette: style.Palette, Bands: make([]raster.BandStats, len(layer.Bands))}
	if colors, ok := palette.ControlColors(style.Palette); ok {
		lg.Colors = colors
	}

	seen := false
	for i := range layer.Bands {
		s := layer.Bands[i].Stats()
		lg.Bands[i] = s
		if s.Valid == 0 {
			continue
		}
		if !seen || s.Min < lg.Min {
			lg.Min = s.Min
		}
		if !seen || s.Max > lg.Max {
			lg.Max = s.Max
		}
		seen = true
	}
	if style.Min != nil {
		lg.Min = *style.Min
	}
	if style.Max != nil {
		lg.Max = *style.Max
	}

	switch layer.ID {
	case raster.Mask:
		lg.MinLabel, lg.MaxLabel = "No roof", "Roof"
	case raster.DSM:
		lg.MinLabel, lg.MaxLabel = fmt.Sprintf("%.1f m", lg.Min), fmt.Sprintf("%.1f m", lg.Max)
	case raster.AnnualFlux, raster.MonthlyFlux:
		lg.MinLabel, lg.MaxLabel = "Shady", "Sunny"
	case raster.HourlyShade:
		lg.MinLabel, lg.MaxLabel = "Shade", "Sun"
	}
	return lg
}
