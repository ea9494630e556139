package panels

import (
	"github.com/paulmach/orb/geojson"

	"github.com/joeblew999/plat-solar/internal/palette"
)

// StrokeColor outlines every panel.
const StrokeColor = "#B0BEC5"

// FeatureCollection exports polygons for a map client. Each feature carries
// its fill and stroke colors alongside the panel's energy and segment.
func FeatureCollection(polys []Polygon) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, p := range polys {
		f := geojson.NewFeature(p.Polygon())
		f.Properties["fill"] = palette.HexString(p.Fill)
		f.Properties["stroke"] = StrokeColor
		f.Properties["yearlyEnergyDcKwh"] = p.Panel.YearlyEnergyDcKwh
		f.Properties["segmentIndex"] = p.Panel.SegmentIndex
		f.Properties["orientation"] = string(p.Panel.Orientation)
		f.Properties["index"] = p.Index
		fc.Append(f)
	}
	return fc
}
