// Package panels lays solar panels out on the ground. Each panel record
// (center, orientation, roof segment) becomes a closed five-point ring whose
// corners are found by offsetting the center along geodesic bearings, plus a
// fill color that ranks the panel's yearly energy among its peers.
package panels

import (
	"image/color"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"

	"github.com/joeblew999/plat-solar/internal/errors"
	"github.com/joeblew999/plat-solar/internal/palette"
	"github.com/joeblew999/plat-solar/internal/solar"
)

// Offset moves origin distanceMeters along bearingDegrees (clockwise from
// north) and returns the destination.
type Offset func(origin orb.Point, distanceMeters, bearingDegrees float64) orb.Point

// GeodesicOffset offsets on the sphere.
func GeodesicOffset(origin orb.Point, distanceMeters, bearingDegrees float64) orb.Point {
	return geo.PointAtBearingAndDistance(origin, bearingDegrees, distanceMeters)
}

// Polygon is one laid-out panel.
type Polygon struct {
	Ring  orb.Ring
	Fill  color.NRGBA
	Panel solar.SolarPanel
	// Index is the panel's position in the input list.
	Index int
}

// Polygon returns the ring as an orb.Polygon.
func (p Polygon) Polygon() orb.Polygon {
	return orb.Polygon{p.Ring}
}

// Layout computes the ground polygon and fill color of every panel in sp, in
// input order. Panels are expected sorted by descending yield (see
// solar.Normalize): the first and last panels set the color range. A nil
// offset uses GeodesicOffset.
func Layout(sp solar.SolarPotential, offset Offset) ([]Polygon, error) {
	if offset == nil {
		offset = GeodesicOffset
	}
	panels := sp.SolarPanels
	if len(panels) == 0 {
		return nil, nil
	}
	pal, err := palette.Named(palette.Panels)
	if err != nil {
		return nil, err
	}

	maxEnergy := panels[0].YearlyEnergyDcKwh
	minEnergy := panels[len(panels)-1].YearlyEnergyDcKwh

	w := sp.PanelWidthMeters / 2
	h := sp.PanelHeightMeters / 2
	corners := [5][2]float64{{w, h}, {w, -h}, {-w, -h}, {-w, h}, {w, h}}

	out := make([]Polygon, len(panels))
	for i, p := range panels {
		if p.SegmentIndex < 0 || p.SegmentIndex >= len(sp.RoofSegmentStats) {
			return nil, errors.New(errors.ErrCodeInvalidInput,
				"panel %d references roof segment %d, have %d", i, p.SegmentIndex, len(sp.RoofSegmentStats))
		}
		azimuth := sp.RoofSegmentStats[p.SegmentIndex].AzimuthDegrees
		orientation := p.Orientation.Offset()
		center := p.Center.Point()

		ring := make(orb.Ring, len(corners))
		for j, c := range corners[:4] {
			x, y := c[0], c[1]
			bearing := math.Atan2(y, x)*180/math.Pi + orientation + azimuth
			ring[j] = offset(center, math.Hypot(x, y), bearing)
		}
		ring[4] = ring[0]

		out[i] = Polygon{
			Ring:  ring,
			Fill:  pal.At(p.YearlyEnergyDcKwh, maxEnergy, minEnergy),
			Panel: p,
			Index: i,
		}
	}
	return out, nil
}

// Visible returns the first n polygons, the panels of an n-panel
// configuration. n is clamped to [0, len(polys)].
func Visible(polys []Polygon, n int) []Polygon {
	if n < 0 {
		n = 0
	}
	if n > len(polys) {
		n = len(polys)
	}
	return polys[:n]
}
