package service

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/joeblew999/plat-solar/internal/raster"
	"github.com/joeblew999/plat-solar/internal/solar"
)

func quietLogger() *log.Logger {
	l := log.New(os.Stderr)
	l.SetLevel(log.ErrorLevel)
	return l
}

func testInsights() solar.BuildingInsights {
	center := func(lat, lng float64) solar.LatLng { return solar.LatLng{Latitude: lat, Longitude: lng} }
	return solar.BuildingInsights{
		Name:           "buildings/ChIJtest",
		Center:         center(37.4449, -122.1391),
		ImageryQuality: "HIGH",
		BoundingBox: solar.LatLngBox{
			SW: center(37.4448, -122.1392),
			NE: center(37.4450, -122.1390),
		},
		SolarPotential: solar.SolarPotential{
			MaxArrayPanelsCount: 4,
			PanelCapacityWatts:  400,
			PanelHeightMeters:   1.879,
			PanelWidthMeters:    1.045,
			RoofSegmentStats: []solar.RoofSegmentStats{
				{AzimuthDegrees: 180, PitchDegrees: 20},
				{AzimuthDegrees: 90, PitchDegrees: 20},
			},
			// Deliberately out of order.
			SolarPanels: []solar.SolarPanel{
				{Center: center(37.44490, -122.13910), Orientation: solar.Landscape, YearlyEnergyDcKwh: 300, SegmentIndex: 1},
				{Center: center(37.44491, -122.13908), Orientation: solar.Portrait, YearlyEnergyDcKwh: 450, SegmentIndex: 0},
				{Center: center(37.44492, -122.13906), Orientation: solar.Landscape, YearlyEnergyDcKwh: 420, SegmentIndex: 0},
				{Center: center(37.44493, -122.13904), Orientation: solar.Landscape, YearlyEnergyDcKwh: 280, SegmentIndex: 1},
			},
			SolarPanelConfigs: []solar.SolarPanelConfig{
				{PanelsCount: 4, YearlyEnergyDcKwh: 1450},
				{PanelsCount: 2, YearlyEnergyDcKwh: 870},
			},
		},
	}
}

// writeLayer writes a snappy layer and its sidecar under
// dataDir/rasters/<building>. hourlyShade bitmasks are stored as uint32,
// everything else as float32.
func writeLayer(t *testing.T, dataDir, building string, id raster.LayerID, w, h int, bands [][]float64) {
	t.Helper()
	dir := filepath.Join(dataDir, "rasters", building)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	file := string(id) + ".bin"
	enc, payload := raster.EncodingFloat32Snappy, raster.EncodeFloat32(bands, true)
	if id == raster.HourlyShade {
		enc, payload = raster.EncodingUint32Snappy, raster.EncodeUint32(bands, true)
	}
	if err := os.WriteFile(filepath.Join(dir, file), payload, 0644); err != nil {
		t.Fatal(err)
	}
	meta := raster.Metadata{
		Layer:    id,
		Width:    w,
		Height:   h,
		Bands:    len(bands),
		North:    37.4450,
		South:    37.4448,
		East:     -122.1390,
		West:     -122.1392,
		Encoding: enc,
		Files:    []string{file},
	}
	data, err := json.Marshal(meta)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, string(id)+".json"), data, 0644); err != nil {
		t.Fatal(err)
	}
}
