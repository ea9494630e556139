package solar

import (
	"math"
	"sort"

	"github.com/paulmach/orb/geo"

	"github.com/joeblew999/plat-solar/internal/errors"
)

// SortPanelsByYield orders panels by descending yearly energy. Equal yields
// keep their relative order.
func SortPanelsByYield(panels []SolarPanel) {
	sort.SliceStable(panels, func(i, j int) bool {
		return panels[i].YearlyEnergyDcKwh > panels[j].YearlyEnergyDcKwh
	})
}

// SortConfigs orders configurations by ascending panel count, the order
// FindSolarConfig expects.
func SortConfigs(configs []SolarPanelConfig) {
	sort.SliceStable(configs, func(i, j int) bool {
		return configs[i].PanelsCount < configs[j].PanelsCount
	})
}

// Normalize validates freshly fetched insights and returns a copy whose
// panels are sorted by yield and configurations by size. The input is left
// untouched.
func Normalize(bi BuildingInsights) (BuildingInsights, error) {
	sp := &bi.SolarPotential
	if len(sp.SolarPanels) > 0 && (sp.PanelWidthMeters <= 0 || sp.PanelHeightMeters <= 0) {
		return BuildingInsights{}, errors.New(errors.ErrCodeInvalidInput,
			"panel size must be positive, got %vx%v m", sp.PanelWidthMeters, sp.PanelHeightMeters)
	}
	for i, p := range sp.SolarPanels {
		if p.SegmentIndex < 0 || p.SegmentIndex >= len(sp.RoofSegmentStats) {
			return BuildingInsights{}, errors.New(errors.ErrCodeInvalidInput,
				"panel %d references roof segment %d, have %d", i, p.SegmentIndex, len(sp.RoofSegmentStats))
		}
		if p.Orientation != Landscape && p.Orientation != Portrait && p.Orientation != "" {
			return BuildingInsights{}, errors.New(errors.ErrCodeInvalidInput, "panel %d has orientation %q", i, p.Orientation)
		}
	}

	sp.SolarPanels = append([]SolarPanel(nil), sp.SolarPanels...)
	sp.SolarPanelConfigs = append([]SolarPanelConfig(nil), sp.SolarPanelConfigs...)
	sp.RoofSegmentStats = append([]RoofSegmentStats(nil), sp.RoofSegmentStats...)
	SortPanelsByYield(sp.SolarPanels)
	SortConfigs(sp.SolarPanelConfigs)
	return bi, nil
}

// DataLayersRadius is the radius in meters, rounded up, of the circle that
// covers the building's bounding box. The fetch collaborator requests data
// layers with it.
func DataLayersRadius(box LatLngBox) float64 {
	return math.Ceil(geo.Distance(box.NE.Point(), box.SW.Point()) / 2)
}
