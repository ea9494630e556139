package raster

import (
	"github.com/joeblew999/plat-solar/internal/errors"
)

// Origin tells where row 0 of a payload sits.
type Origin int

const (
	// TopLeft means row 0 is the northern edge (GeoTIFF default).
	TopLeft Origin = iota
	// BottomLeft means row 0 is the southern edge.
	BottomLeft
)

func (o Origin) String() string {
	if o == BottomLeft {
		return "bottom-left"
	}
	return "top-left"
}

// MarshalText implements encoding.TextMarshaler.
func (o Origin) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (o *Origin) UnmarshalText(b []byte) error {
	switch string(b) {
	case "", "top-left":
		*o = TopLeft
	case "bottom-left":
		*o = BottomLeft
	default:
		return errors.New(errors.ErrCodeInvalidInput, "unknown raster origin %q", string(b))
	}
	return nil
}

// Payload is one raw raster as delivered by the fetch collaborator: one or
// more planar bands of Width*Height samples.
type Payload struct {
	Width  int
	Height int
	Bands  [][]float64
	NoData *float64
	Bounds Bounds
	Origin Origin
}

// bandRule describes how many bands a layer kind takes.
type bandRule struct {
	// total band count across all payloads; 0 means per-payload counting
	total int
	// perPayload band count when total is 0
	perPayload  int
	maxPayloads int
}

var bandRules = map[LayerID]bandRule{
	Mask:        {total: 1},
	DSM:         {total: 1},
	RGB:         {total: 3},
	AnnualFlux:  {total: 1},
	MonthlyFlux: {total: Months},
	HourlyShade: {perPayload: HoursPerDay, maxPayloads: Months},
}

// Decode assembles payloads into a validated Layer. The mask payload may be
// nil; for the mask layer itself the decoded band doubles as the mask.
//
// Payloads stored bottom-up are flipped so row 0 of every band is north.
// Decode does no I/O.
func Decode(id LayerID, payloads []Payload, mask *Payload) (*Layer, error) {
	rule, ok := bandRules[id]
	if !ok {
		return nil, errors.New(errors.ErrCodeUnsupportedLayerID, "unsupported layer %q", id)
	}
	if len(payloads) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "%s: no payloads", id)
	}

	width, height := payloads[0].Width, payloads[0].Height
	if width <= 0 || height <= 0 {
		return nil, errors.New(errors.ErrCodeDimensionMismatch, "%s: invalid size %dx%d", id, width, height)
	}
	bounds := payloads[0].Bounds

	total := 0
	for i, p := range payloads {
		if p.Width != width || p.Height != height {
			return nil, errors.New(errors.ErrCodeDimensionMismatch,
				"%s: payload %d is %dx%d, want %dx%d", id, i, p.Width, p.Height, width, height)
		}
		if !p.Bounds.equal(bounds) {
			return nil, errors.New(errors.ErrCodeDimensionMismatch, "%s: payload %d bounds differ", id, i)
		}
		if rule.total == 0 && len(p.Bands) != rule.perPayload {
			return nil, errors.New(errors.ErrCodeInvalidInput,
				"%s: payload %d has %d bands, want %d", id, i, len(p.Bands), rule.perPayload)
		}
		total += len(p.Bands)
	}
	switch {
	case rule.total > 0 && total != rule.total:
		return nil, errors.New(errors.ErrCodeInvalidInput, "%s: got %d bands, want %d", id, total, rule.total)
	case rule.maxPayloads > 0 && len(payloads) > rule.maxPayloads:
		return nil, errors.New(errors.ErrCodeInvalidInput,
			"%s: got %d payloads, want at most %d", id, len(payloads), rule.maxPayloads)
	}

	layer := &Layer{ID: id, Bounds: bounds, BandsPerSlice: 1, Bands: make([]Band, 0, total)}
	if rule.perPayload > 0 {
		layer.BandsPerSlice = rule.perPayload
	}
	for i, p := range payloads {
		for j, data := range p.Bands {
			b, err := toBand(p, data)
			if err != nil {
				return nil, errors.Wrap(errors.GetCode(err), err, "%s: payload %d band %d", id, i, j)
			}
			layer.Bands = append(layer.Bands, b)
		}
	}

	switch {
	case mask != nil:
		if mask.Width != width || mask.Height != height {
			return nil, errors.New(errors.ErrCodeDimensionMismatch,
				"%s: mask is %dx%d, want %dx%d", id, mask.Width, mask.Height, width, height)
		}
		if len(mask.Bands) != 1 {
			return nil, errors.New(errors.ErrCodeInvalidInput, "%s: mask has %d bands, want 1", id, len(mask.Bands))
		}
		if !mask.Bounds.equal(bounds) {
			return nil, errors.New(errors.ErrCodeDimensionMismatch, "%s: mask bounds differ", id)
		}
		m, err := toBand(*mask, mask.Bands[0])
		if err != nil {
			return nil, errors.Wrap(errors.GetCode(err), err, "%s: mask", id)
		}
		layer.Mask = &m
	case id == Mask:
		m := layer.Bands[0]
		layer.Mask = &m
	}
	return layer, nil
}

// toBand copies one planar band out of p, flipping rows when needed.
func toBand(p Payload, data []float64) (Band, error) {
	n := p.Width * p.Height
	if len(data) != n {
		return Band{}, errors.New(errors.ErrCodeDimensionMismatch, "band has %d samples, want %d", len(data), n)
	}
	b := Band{Width: p.Width, Height: p.Height, Data: make([]float64, n)}
	if p.NoData != nil {
		b.NoData, b.HasNoData = *p.NoData, true
	}
	if p.Origin != BottomLeft {
		copy(b.Data, data)
		return b, nil
	}
	for y := 0; y < p.Height; y++ {
		src := (p.Height - 1 - y) * p.Width
		copy(b.Data[y*p.Width:(y+1)*p.Width], data[src:src+p.Width])
	}
	return b, nil
}
