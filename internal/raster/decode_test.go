package raster

import (
	"testing"

	"github.com/joeblew999/plat-solar/internal/errors"
)

var testBounds = NewBounds(37.45, 37.44, -122.08, -122.09)

func payload(w, h int, bands ...[]float64) Payload {
	return Payload{Width: w, Height: h, Bands: bands, Bounds: testBounds}
}

func ramp(n int, start float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = start + float64(i)
	}
	return out
}

func TestDecodeBandCounts(t *testing.T) {
	hourly := make([][]float64, HoursPerDay)
	for i := range hourly {
		hourly[i] = ramp(4, 0)
	}
	monthly := make([][]float64, Months)
	for i := range monthly {
		monthly[i] = ramp(4, float64(i))
	}

	tests := []struct {
		name     string
		id       LayerID
		payloads []Payload
		bands    int
		slices   int
	}{
		{"dsm", DSM, []Payload{payload(2, 2, ramp(4, 0))}, 1, 1},
		{"annual", AnnualFlux, []Payload{payload(2, 2, ramp(4, 0))}, 1, 1},
		{"rgb", RGB, []Payload{payload(2, 2, ramp(4, 0), ramp(4, 1), ramp(4, 2))}, 3, 3},
		{"monthly", MonthlyFlux, []Payload{payload(2, 2, monthly...)}, 12, 12},
		{"hourly one month", HourlyShade, []Payload{payload(2, 2, hourly...)}, 24, 1},
		{"hourly three months", HourlyShade, []Payload{
			payload(2, 2, hourly...), payload(2, 2, hourly...), payload(2, 2, hourly...),
		}, 72, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := Decode(tt.id, tt.payloads, nil)
			if err != nil {
				t.Fatal(err)
			}
			if len(l.Bands) != tt.bands {
				t.Errorf("bands = %d, want %d", len(l.Bands), tt.bands)
			}
			if l.Slices() != tt.slices {
				t.Errorf("slices = %d, want %d", l.Slices(), tt.slices)
			}
			if l.Mask != nil {
				t.Error("unexpected mask")
			}
		})
	}
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name     string
		id       LayerID
		payloads []Payload
		mask     *Payload
		want     errors.Code
	}{
		{"unknown id", "flux", []Payload{payload(1, 1, ramp(1, 0))}, nil, errors.ErrCodeUnsupportedLayerID},
		{"no payloads", DSM, nil, nil, errors.ErrCodeInvalidInput},
		{"short band", DSM, []Payload{payload(2, 2, ramp(3, 0))}, nil, errors.ErrCodeDimensionMismatch},
		{"wrong band count", RGB, []Payload{payload(1, 1, ramp(1, 0))}, nil, errors.ErrCodeInvalidInput},
		{"payload sizes differ", HourlyShade, []Payload{
			payload(1, 1, make([][]float64, 24)...), payload(2, 1, make([][]float64, 24)...),
		}, nil, errors.ErrCodeDimensionMismatch},
		{"mask size", DSM, []Payload{payload(2, 2, ramp(4, 0))}, &Payload{Width: 3, Height: 2, Bands: [][]float64{ramp(6, 0)}},
			errors.ErrCodeDimensionMismatch},
		{"mask bands", DSM, []Payload{payload(1, 1, ramp(1, 0))}, &Payload{Width: 1, Height: 1, Bands: [][]float64{{1}, {1}}, Bounds: testBounds},
			errors.ErrCodeInvalidInput},
		{"mask bounds", DSM, []Payload{payload(2, 2, ramp(4, 0))},
			&Payload{Width: 2, Height: 2, Bands: [][]float64{ramp(4, 0)}, Bounds: NewBounds(37.46, 37.45, -122.08, -122.09)},
			errors.ErrCodeDimensionMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := Decode(tt.id, tt.payloads, tt.mask)
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %s", err, tt.want)
			}
			if l != nil {
				t.Error("layer returned with error")
			}
		})
	}
}

func TestDecodeFlipsBottomLeft(t *testing.T) {
	// 2x3, rows stored south to north.
	p := payload(2, 3, []float64{
		5, 6, // south
		3, 4,
		1, 2, // north
	})
	p.Origin = BottomLeft

	l, err := Decode(DSM, []Payload{p}, nil)
	if err != nil {
		t.Fatal(err)
	}
	want := []float64{1, 2, 3, 4, 5, 6}
	for i, v := range want {
		if l.Bands[0].Data[i] != v {
			t.Fatalf("data = %v, want %v", l.Bands[0].Data, want)
		}
	}
	if l.Bands[0].At(1, 0) != 2 {
		t.Errorf("At(1,0) = %v, want 2", l.Bands[0].At(1, 0))
	}
}

func TestDecodeDoesNotAliasInput(t *testing.T) {
	src := ramp(4, 0)
	l, err := Decode(AnnualFlux, []Payload{payload(2, 2, src)}, nil)
	if err != nil {
		t.Fatal(err)
	}
	src[0] = 99
	if l.Bands[0].Data[0] != 0 {
		t.Error("decoded band shares memory with payload")
	}
}

func TestDecodeMask(t *testing.T) {
	m := payload(2, 1, []float64{0, 1})
	l, err := Decode(AnnualFlux, []Payload{payload(2, 1, []float64{10, 20})}, &m)
	if err != nil {
		t.Fatal(err)
	}
	if !l.Masked(0) || l.Masked(1) {
		t.Errorf("Masked = %v,%v, want true,false", l.Masked(0), l.Masked(1))
	}

	self, err := Decode(Mask, []Payload{payload(2, 1, []float64{1, 0})}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if self.Mask == nil || self.Masked(0) || !self.Masked(1) {
		t.Error("mask layer should mask itself")
	}
}

func TestNoData(t *testing.T) {
	nd := -9999.0
	p := payload(3, 1, []float64{-9999, 4, 8})
	p.NoData = &nd
	l, err := Decode(DSM, []Payload{p}, nil)
	if err != nil {
		t.Fatal(err)
	}
	b := &l.Bands[0]
	if b.Valid(0) || !b.Valid(1) {
		t.Error("nodata sample reported valid")
	}
	min, max, ok := b.Range()
	if !ok || min != 4 || max != 8 {
		t.Errorf("Range = %v, %v, %v, want 4, 8, true", min, max, ok)
	}
	s := b.Stats()
	if s.Mean != 6 || s.Valid != 2 {
		t.Errorf("Stats = %+v", s)
	}
}

func TestRangeEmpty(t *testing.T) {
	nd := 0.0
	p := payload(2, 1, []float64{0, 0})
	p.NoData = &nd
	l, err := Decode(DSM, []Payload{p}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, _, ok := l.Bands[0].Range(); ok {
		t.Error("Range ok on all-nodata band")
	}
	if s := l.Bands[0].Stats(); s.Valid != 0 {
		t.Errorf("Stats = %+v", s)
	}
}

func TestParseLayerID(t *testing.T) {
	for _, id := range LayerIDs() {
		got, err := ParseLayerID(string(id))
		if err != nil || got != id {
			t.Errorf("ParseLayerID(%q) = %q, %v", id, got, err)
		}
	}
	if _, err := ParseLayerID("monthlyflux"); !errors.Is(err, errors.ErrCodeUnsupportedLayerID) {
		t.Errorf("err = %v", err)
	}
}
