package solar

import (
	"encoding/json"
	"testing"

	"github.com/joeblew999/plat-solar/internal/errors"
)

func TestSortPanelsByYieldIsStable(t *testing.T) {
	panels := []SolarPanel{
		{YearlyEnergyDcKwh: 300, SegmentIndex: 0},
		{YearlyEnergyDcKwh: 500, SegmentIndex: 1},
		{YearlyEnergyDcKwh: 300, SegmentIndex: 2},
		{YearlyEnergyDcKwh: 400, SegmentIndex: 3},
	}
	SortPanelsByYield(panels)
	want := []int{1, 3, 0, 2}
	for i, p := range panels {
		if p.SegmentIndex != want[i] {
			t.Fatalf("order = %+v, want segments %v", panels, want)
		}
	}
}

func TestNormalize(t *testing.T) {
	in := BuildingInsights{
		Name: "buildings/1",
		SolarPotential: SolarPotential{
			PanelWidthMeters:  1,
			PanelHeightMeters: 2,
			RoofSegmentStats:  []RoofSegmentStats{{AzimuthDegrees: 180}},
			SolarPanels: []SolarPanel{
				{YearlyEnergyDcKwh: 100, Orientation: Landscape},
				{YearlyEnergyDcKwh: 300, Orientation: Portrait},
			},
			SolarPanelConfigs: []SolarPanelConfig{{PanelsCount: 2}, {PanelsCount: 1}},
		},
	}
	out, err := Normalize(in)
	if err != nil {
		t.Fatal(err)
	}
	if out.SolarPotential.SolarPanels[0].YearlyEnergyDcKwh != 300 {
		t.Errorf("panels not sorted: %+v", out.SolarPotential.SolarPanels)
	}
	if out.SolarPotential.SolarPanelConfigs[0].PanelsCount != 1 {
		t.Errorf("configs not sorted: %+v", out.SolarPotential.SolarPanelConfigs)
	}
	if in.SolarPotential.SolarPanels[0].YearlyEnergyDcKwh != 100 {
		t.Error("Normalize mutated its input")
	}
}

func TestNormalizeErrors(t *testing.T) {
	base := func() BuildingInsights {
		return BuildingInsights{SolarPotential: SolarPotential{
			PanelWidthMeters:  1,
			PanelHeightMeters: 2,
			RoofSegmentStats:  []RoofSegmentStats{{}},
			SolarPanels:       []SolarPanel{{Orientation: Landscape}},
		}}
	}
	tests := []struct {
		name   string
		modify func(*BuildingInsights)
	}{
		{"segment out of range", func(b *BuildingInsights) { b.SolarPotential.SolarPanels[0].SegmentIndex = 1 }},
		{"negative segment", func(b *BuildingInsights) { b.SolarPotential.SolarPanels[0].SegmentIndex = -1 }},
		{"zero panel size", func(b *BuildingInsights) { b.SolarPotential.PanelWidthMeters = 0 }},
		{"bad orientation", func(b *BuildingInsights) { b.SolarPotential.SolarPanels[0].Orientation = "DIAGONAL" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := base()
			tt.modify(&b)
			if _, err := Normalize(b); !errors.Is(err, errors.ErrCodeInvalidInput) {
				t.Errorf("err = %v, want INVALID_INPUT", err)
			}
		})
	}
}

func TestDataLayersRadius(t *testing.T) {
	box := LatLngBox{
		SW: LatLng{Latitude: 37.444, Longitude: -122.1},
		NE: LatLng{Latitude: 37.445, Longitude: -122.1},
	}
	if got := DataLayersRadius(box); got != 56 {
		t.Errorf("DataLayersRadius = %v, want 56", got)
	}
}

func TestInsightsJSON(t *testing.T) {
	const doc = `{
	  "name": "buildings/ChIJ",
	  "center": {"latitude": 37.4449, "longitude": -122.1391},
	  "boundingBox": {"sw": {"latitude": 37.4447, "longitude": -122.1393}, "ne": {"latitude": 37.4451, "longitude": -122.1388}},
	  "imageryQuality": "HIGH",
	  "solarPotential": {
	    "panelCapacityWatts": 400, "panelHeightMeters": 1.879, "panelWidthMeters": 1.045,
	    "roofSegmentStats": [{"pitchDegrees": 20, "azimuthDegrees": 170, "stats": {"areaMeters2": 52.3}}],
	    "solarPanels": [{"center": {"latitude": 37.4449, "longitude": -122.139}, "orientation": "PORTRAIT", "yearlyEnergyDcKwh": 455.2, "segmentIndex": 0}],
	    "solarPanelConfigs": [{"panelsCount": 4, "yearlyEnergyDcKwh": 1821.5}]
	  }
	}`
	var bi BuildingInsights
	if err := json.Unmarshal([]byte(doc), &bi); err != nil {
		t.Fatal(err)
	}
	sp := bi.SolarPotential
	if sp.RoofSegmentStats[0].AreaMeters2() != 52.3 {
		t.Errorf("area = %v", sp.RoofSegmentStats[0].AreaMeters2())
	}
	if sp.SolarPanels[0].Orientation.Offset() != 90 {
		t.Errorf("portrait offset = %v", sp.SolarPanels[0].Orientation.Offset())
	}
	if p := bi.Center.Point(); p.Lon() != -122.1391 || p.Lat() != 37.4449 {
		t.Errorf("center point = %v", p)
	}
}
