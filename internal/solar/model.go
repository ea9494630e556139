// Package solar models the building insights resource of the Solar API and
// the calculations the dashboard runs on it: picking the smallest panel
// configuration that covers a household's consumption, ordering panels by
// yield, and sizing the data-layer request radius.
//
// All types are plain values decoded from JSON. A new fetch replaces a
// BuildingInsights wholesale; nothing here mutates one in place.
package solar

import "github.com/paulmach/orb"

// LatLng is a WGS84 coordinate.
type LatLng struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Point converts to an orb point ([lon, lat]).
func (l LatLng) Point() orb.Point {
	return orb.Point{l.Longitude, l.Latitude}
}

// LatLngBox is a bounding box given by its corners.
type LatLngBox struct {
	SW LatLng `json:"sw"`
	NE LatLng `json:"ne"`
}

// Bound converts to an orb.Bound.
func (b LatLngBox) Bound() orb.Bound {
	return orb.Bound{Min: b.SW.Point(), Max: b.NE.Point()}
}

// Date is a calendar date as the Solar API reports imagery dates.
type Date struct {
	Year  int `json:"year"`
	Month int `json:"month"`
	Day   int `json:"day"`
}

// BuildingInsights is the solar assessment of one building.
type BuildingInsights struct {
	_ struct{} `json:"-" additionalProperties:"true"`

	Name                 string         `json:"name"`
	Center               LatLng         `json:"center"`
	BoundingBox          LatLngBox      `json:"boundingBox"`
	ImageryDate          Date           `json:"imageryDate,omitempty"`
	ImageryProcessedDate Date           `json:"imageryProcessedDate,omitempty"`
	PostalCode           string         `json:"postalCode,omitempty"`
	AdministrativeArea   string         `json:"administrativeArea,omitempty"`
	RegionCode           string         `json:"regionCode,omitempty"`
	ImageryQuality       string         `json:"imageryQuality,omitempty" enum:"HIGH,MEDIUM,LOW,IMAGERY_QUALITY_UNSPECIFIED"`
	SolarPotential       SolarPotential `json:"solarPotential"`
}

// SolarPotential describes what the roof can produce.
type SolarPotential struct {
	_ struct{} `json:"-" additionalProperties:"true"`

	MaxArrayPanelsCount        int                `json:"maxArrayPanelsCount"`
	PanelCapacityWatts         float64            `json:"panelCapacityWatts"`
	PanelHeightMeters          float64            `json:"panelHeightMeters"`
	PanelWidthMeters           float64            `json:"panelWidthMeters"`
	PanelLifetimeYears         int                `json:"panelLifetimeYears,omitempty"`
	MaxArrayAreaMeters2        float64            `json:"maxArrayAreaMeters2,omitempty"`
	MaxSunshineHoursPerYear    float64            `json:"maxSunshineHoursPerYear,omitempty"`
	CarbonOffsetFactorKgPerMwh float64            `json:"carbonOffsetFactorKgPerMwh,omitempty"`
	WholeRoofStats             SunshineStats      `json:"wholeRoofStats"`
	BuildingStats              SunshineStats      `json:"buildingStats,omitempty"`
	RoofSegmentStats           []RoofSegmentStats `json:"roofSegmentStats"`
	SolarPanelConfigs          []SolarPanelConfig `json:"solarPanelConfigs"`
	SolarPanels                []SolarPanel       `json:"solarPanels"`
}

// SunshineStats is the size and sunshine summary of a roof area.
type SunshineStats struct {
	AreaMeters2       float64   `json:"areaMeters2"`
	SunshineQuantiles []float64 `json:"sunshineQuantiles,omitempty"`
	GroundAreaMeters2 float64   `json:"groundAreaMeters2,omitempty"`
}

// RoofSegmentStats describes one planar roof segment.
type RoofSegmentStats struct {
	PitchDegrees              float64       `json:"pitchDegrees"`
	AzimuthDegrees            float64       `json:"azimuthDegrees"`
	Stats                     SunshineStats `json:"stats"`
	Center                    LatLng        `json:"center,omitempty"`
	BoundingBox               LatLngBox     `json:"boundingBox,omitempty"`
	PlaneHeightAtCenterMeters float64       `json:"planeHeightAtCenterMeters,omitempty"`
}

// AreaMeters2 returns the sloped area of the segment.
func (r RoofSegmentStats) AreaMeters2() float64 {
	return r.Stats.AreaMeters2
}

// Orientation is how a panel is laid relative to its roof segment azimuth.
type Orientation string

const (
	Landscape Orientation = "LANDSCAPE"
	Portrait  Orientation = "PORTRAIT"
)

// Offset is the rotation in degrees added to the segment azimuth.
func (o Orientation) Offset() float64 {
	if o == Portrait {
		return 90
	}
	return 0
}

// SolarPanel is one candidate panel placement.
type SolarPanel struct {
	Center            LatLng      `json:"center"`
	Orientation       Orientation `json:"orientation" enum:"LANDSCAPE,PORTRAIT"`
	YearlyEnergyDcKwh float64     `json:"yearlyEnergyDcKwh"`
	SegmentIndex      int         `json:"segmentIndex"`
}

// RoofSegmentSummary is the share of one roof segment in a configuration.
type RoofSegmentSummary struct {
	PitchDegrees      float64 `json:"pitchDegrees,omitempty"`
	AzimuthDegrees    float64 `json:"azimuthDegrees,omitempty"`
	PanelsCount       int     `json:"panelsCount"`
	YearlyEnergyDcKwh float64 `json:"yearlyEnergyDcKwh"`
	SegmentIndex      int     `json:"segmentIndex"`
}

// SolarPanelConfig is a candidate installation of the first PanelsCount panels.
type SolarPanelConfig struct {
	PanelsCount          int                  `json:"panelsCount"`
	YearlyEnergyDcKwh    float64              `json:"yearlyEnergyDcKwh"`
	RoofSegmentSummaries []RoofSegmentSummary `json:"roofSegmentSummaries,omitempty"`
}
