package service

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/joeblew999/plat-solar/internal/cache"
	"github.com/joeblew999/plat-solar/internal/db"
	"github.com/joeblew999/plat-solar/internal/errors"
	"github.com/joeblew999/plat-solar/internal/pmtiles"
	"github.com/joeblew999/plat-solar/internal/solar"
	"github.com/joeblew999/plat-solar/internal/tiler"
)

func newTestPanelService(t *testing.T, dataDir string, store *db.PanelStore) (*BuildingService, *PanelService) {
	t.Helper()
	buildings := NewBuildingService(dataDir, nil, quietLogger())
	if _, _, err := buildings.Put("b1", testInsights()); err != nil {
		t.Fatal(err)
	}
	c, err := cache.NewFileCache(filepath.Join(dataDir, "cache"))
	if err != nil {
		t.Fatal(err)
	}
	return buildings, NewPanelService(buildings, store, c, quietLogger())
}

func TestPanelServiceFeatureCollection(t *testing.T) {
	_, s := newTestPanelService(t, t.TempDir(), nil)
	ctx := context.Background()

	tests := []struct {
		count int
		want  int
	}{
		{0, 4},
		{2, 2},
		{10, 4},
	}
	for _, tt := range tests {
		fc, err := s.FeatureCollection(ctx, "b1", tt.count)
		if err != nil {
			t.Fatal(err)
		}
		if len(fc.Features) != tt.want {
			t.Errorf("count=%d: %d features, want %d", tt.count, len(fc.Features), tt.want)
		}
	}

	// Served from the cache the second time, with the same content.
	first, _ := s.FeatureCollection(ctx, "b1", 2)
	second, _ := s.FeatureCollection(ctx, "b1", 2)
	a, _ := first.MarshalJSON()
	b, _ := second.MarshalJSON()
	if !bytes.Equal(a, b) {
		t.Error("cached collection differs")
	}
	if got := first.Features[0].Properties["yearlyEnergyDcKwh"]; got != 450.0 {
		t.Errorf("first feature yield = %v, want 450", got)
	}

	if _, err := s.FeatureCollection(ctx, "missing", 0); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("missing building err = %v", err)
	}
}

func TestPanelServiceSelect(t *testing.T) {
	_, s := newTestPanelService(t, t.TempDir(), nil)

	// 30/month at 0.36/kWh is 1000 kWh a year: the 2-panel config yields
	// 870 * 0.9 AC, not enough; the 4-panel one covers it.
	sel, err := s.Select("b1", solar.Consumption{MonthlyBill: 30, EnergyCostPerKwh: 0.36, PanelCapacityWatts: 400, DcToAcDerate: 0.9})
	if err != nil {
		t.Fatal(err)
	}
	if sel.PanelsCount != 4 || !sel.Covered {
		t.Errorf("Select = %+v", sel)
	}
}

func TestPanelServiceYieldBySegment(t *testing.T) {
	conn, err := db.Open(db.Config{})
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()
	store, err := db.NewPanelStore(context.Background(), conn)
	if err != nil {
		t.Fatal(err)
	}

	_, s := newTestPanelService(t, t.TempDir(), store)
	got, err := s.YieldBySegment(context.Background(), "b1")
	if err != nil {
		t.Fatal(err)
	}
	want := []db.SegmentYield{{0, 2, 870}, {1, 2, 580}}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("YieldBySegment = %+v, want %+v", got, want)
	}

	_, noStore := newTestPanelService(t, t.TempDir(), nil)
	if _, err := noStore.YieldBySegment(context.Background(), "b1"); !errors.Is(err, errors.ErrCodeInternal) {
		t.Errorf("without store err = %v", err)
	}
}

func TestTileServiceGenerate(t *testing.T) {
	dataDir := t.TempDir()
	_, ps := newTestPanelService(t, dataDir, nil)
	bus := NewEventBus()
	ch := bus.Subscribe()
	defer bus.Unsubscribe(ch)
	s := NewTileService(dataDir, ps, bus)

	if files, err := s.List(); err != nil || len(files) != 0 {
		t.Fatalf("List before = %+v, %v", files, err)
	}

	file, stats, err := s.Generate(context.Background(), "b1", 0, tiler.Config{MinZoom: 18, MaxZoom: 20})
	if err != nil {
		t.Fatal(err)
	}
	if file.Name != "b1.pmtiles" || stats.Features != 4 || stats.Tiles == 0 {
		t.Errorf("Generate = %+v, %+v", file, stats)
	}
	if ev := <-ch; ev.Resource != ResourceTiles || ev.ID != "b1.pmtiles" {
		t.Errorf("event = %+v", ev)
	}

	files, err := s.List()
	if err != nil || len(files) != 1 || files[0].Name != "b1.pmtiles" {
		t.Fatalf("List after = %+v, %v", files, err)
	}

	data, err := os.ReadFile(filepath.Join(s.TilesDir(), "b1.pmtiles"))
	if err != nil {
		t.Fatal(err)
	}
	a, err := pmtiles.Open(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	if h := a.Header(); h.MinZoom != 18 || h.MaxZoom != 20 {
		t.Errorf("header zooms = %d-%d", h.MinZoom, h.MaxZoom)
	}

	if _, _, err := s.Generate(context.Background(), "missing", 0, tiler.Config{}); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("missing building err = %v", err)
	}
}

func TestFormatSize(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{512, "512 B"},
		{2048, "2.0 KB"},
		{5 << 20, "5.0 MB"},
	}
	for _, tt := range tests {
		if got := formatSize(tt.in); got != tt.want {
			t.Errorf("formatSize(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
