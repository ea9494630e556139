package db

import (
	"context"
	"image/color"
	"strings"
	"testing"

	"github.com/paulmach/orb"

	"github.com/joeblew999/plat-solar/internal/panels"
	"github.com/joeblew999/plat-solar/internal/solar"
)

func testPolygon(i, segment int, kwh float64) panels.Polygon {
	return panels.Polygon{
		Ring:  orb.Ring{{0, 0}, {1, 0}, {1, 1}, {0, 1}, {0, 0}},
		Fill:  color.NRGBA{R: 0x1a, G: 0x23, B: 0x7e, A: 255},
		Panel: solar.SolarPanel{SegmentIndex: segment, YearlyEnergyDcKwh: kwh, Orientation: solar.Landscape},
		Index: i,
	}
}

func TestPanelStore(t *testing.T) {
	ctx := context.Background()
	conn, err := Open(Config{})
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	store, err := NewPanelStore(ctx, conn)
	if err != nil {
		t.Fatal(err)
	}

	polys := []panels.Polygon{testPolygon(0, 0, 400), testPolygon(1, 0, 350), testPolygon(2, 1, 300)}
	if err := store.SavePanels(ctx, "b1", polys); err != nil {
		t.Fatal(err)
	}
	// Saving again replaces rather than appends.
	if err := store.SavePanels(ctx, "b1", polys); err != nil {
		t.Fatal(err)
	}
	if err := store.SavePanels(ctx, "b2", polys[:1]); err != nil {
		t.Fatal(err)
	}

	got, err := store.YieldBySegment(ctx, "b1")
	if err != nil {
		t.Fatal(err)
	}
	want := []SegmentYield{{0, 2, 750}, {1, 1, 300}}
	if len(got) != len(want) {
		t.Fatalf("YieldBySegment = %+v, want %+v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("segment %d = %+v, want %+v", i, got[i], want[i])
		}
	}

	var geom, fill string
	if err := conn.QueryRowContext(ctx,
		"SELECT wkt, fill FROM solar_panels WHERE building_id = 'b2'").Scan(&geom, &fill); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(geom, "POLYGON((0 0,") || fill != "#1a237e" {
		t.Errorf("row = %q, %q", geom, fill)
	}
}
