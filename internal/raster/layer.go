// Package raster holds the decoded form of the solar data layers: co-registered
// grids of physical measurements over a fixed geographic footprint.
//
// # Layers
//
// A [Layer] is one of six kinds (see [LayerID]) and carries one or more
// [Band] values plus an optional companion mask:
//
//   - mask, dsm, annualFlux: one band
//   - rgb: three bands (red, green, blue; 0-255)
//   - monthlyFlux: twelve bands, January first
//   - hourlyShade: twenty-four bands per month, one payload per month
//
// Every band and the mask share width, height and bounds. Row 0 of every band
// is the northern edge of the bounds; [Decode] flips payloads stored
// bottom-up so callers never have to think about raster origins.
package raster

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"

	"github.com/joeblew999/plat-solar/internal/errors"
)

// LayerID identifies a data layer kind.
type LayerID string

const (
	Mask        LayerID = "mask"
	DSM         LayerID = "dsm"
	RGB         LayerID = "rgb"
	AnnualFlux  LayerID = "annualFlux"
	MonthlyFlux LayerID = "monthlyFlux"
	HourlyShade LayerID = "hourlyShade"
)

// HoursPerDay is the band count of one hourlyShade month.
const HoursPerDay = 24

// Months is the band count of monthlyFlux and the maximum hourlyShade payloads.
const Months = 12

// LayerIDs lists every supported layer in display order.
func LayerIDs() []LayerID {
	return []LayerID{Mask, DSM, RGB, AnnualFlux, MonthlyFlux, HourlyShade}
}

// ParseLayerID validates a layer name.
func ParseLayerID(s string) (LayerID, error) {
	for _, id := range LayerIDs() {
		if string(id) == s {
			return id, nil
		}
	}
	return "", errors.New(errors.ErrCodeUnsupportedLayerID, "unsupported layer %q", s)
}

// Bounds is a geographic rectangle given by its north-east and south-west
// corners. Points are orb points, i.e. [longitude, latitude].
type Bounds struct {
	NE orb.Point `json:"ne" doc:"North-east corner [lon, lat]"`
	SW orb.Point `json:"sw" doc:"South-west corner [lon, lat]"`
}

// NewBounds builds bounds from edge coordinates.
func NewBounds(north, south, east, west float64) Bounds {
	return Bounds{NE: orb.Point{east, north}, SW: orb.Point{west, south}}
}

// Bound converts to an orb.Bound.
func (b Bounds) Bound() orb.Bound {
	return orb.Bound{Min: b.SW, Max: b.NE}
}

// North returns the latitude of the top raster row.
func (b Bounds) North() float64 { return b.NE.Lat() }

// equal compares bounds within a small tolerance.
func (b Bounds) equal(o Bounds) bool {
	const eps = 1e-9
	for i := 0; i < 2; i++ {
		if math.Abs(b.NE[i]-o.NE[i]) > eps || math.Abs(b.SW[i]-o.SW[i]) > eps {
			return false
		}
	}
	return true
}

// Band is one grid of samples in row-major order, row 0 north.
type Band struct {
	Width     int
	Height    int
	Data      []float64
	NoData    float64
	HasNoData bool
}

// At returns the sample at column x, row y.
func (b *Band) At(x, y int) float64 {
	return b.Data[y*b.Width+x]
}

// Valid reports whether sample i holds a measurement.
func (b *Band) Valid(i int) bool {
	v := b.Data[i]
	if math.IsNaN(v) {
		return false
	}
	return !(b.HasNoData && v == b.NoData)
}

// Layer is a decoded data layer.
type Layer struct {
	ID     LayerID
	Bands  []Band
	Bounds Bounds
	// Mask is the companion roof mask, nil when none was supplied.
	Mask *Band
	// BandsPerSlice groups hourlyShade bands by month (24); 1 otherwise.
	BandsPerSlice int
}

// Width returns the shared band width.
func (l *Layer) Width() int {
	if len(l.Bands) == 0 {
		return 0
	}
	return l.Bands[0].Width
}

// Height returns the shared band height.
func (l *Layer) Height() int {
	if len(l.Bands) == 0 {
		return 0
	}
	return l.Bands[0].Height
}

// Slices returns the number of time slices the layer holds: months for
// hourlyShade, bands for every other kind.
func (l *Layer) Slices() int {
	if l.BandsPerSlice <= 1 {
		return len(l.Bands)
	}
	return len(l.Bands) / l.BandsPerSlice
}

// Slice returns the bands of time slice i (one hourlyShade month).
func (l *Layer) Slice(i int) ([]Band, error) {
	per := l.BandsPerSlice
	if per < 1 {
		per = 1
	}
	if i < 0 || i >= l.Slices() {
		return nil, errors.New(errors.ErrCodeInvalidInput, "%s has no slice %d (have %d)", l.ID, i, l.Slices())
	}
	return l.Bands[i*per : (i+1)*per], nil
}

// Masked reports whether pixel i is outside the roof mask. Pixels are never
// masked when the layer has no mask.
func (l *Layer) Masked(i int) bool {
	if l.Mask == nil {
		return false
	}
	return !l.Mask.Valid(i) || l.Mask.Data[i] == 0
}

func (l *Layer) String() string {
	return fmt.Sprintf("%s %dx%d (%d bands)", l.ID, l.Width(), l.Height(), len(l.Bands))
}
