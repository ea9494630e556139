// Package render turns decoded raster layers into colorized bitmaps.
//
// Every layer renders to a time-indexed sequence of bitmaps: one for the
// static layers, twelve for monthlyFlux (one per month) and twenty-four for
// hourlyShade (one per hour of the selected day). Rendering is all or
// nothing; on error no bitmaps are returned.
package render

import (
	"image"
	"image/color"
	"math"

	"github.com/joeblew999/plat-solar/internal/errors"
	"github.com/joeblew999/plat-solar/internal/palette"
	"github.com/joeblew999/plat-solar/internal/raster"
)

// DefaultDay is the day of month shown for hourlyShade when none is given.
const DefaultDay = 14

// Options selects what to render.
type Options struct {
	// ApplyMask hides pixels outside the roof mask.
	ApplyMask bool
	// Month picks the hourlyShade payload, 0 = January.
	Month int
	// Day is the hourlyShade day of month, 1-31. Zero means DefaultDay.
	Day int
	// Styles overrides palettes and value ranges. Nil means DefaultStyles.
	Styles Styles
}

// transparent is painted for masked-off and no-data pixels.
var transparent = color.NRGBA{}

// Render paints every time slice of layer.
func Render(layer *raster.Layer, opts Options) ([]Bitmap, error) {
	if layer == nil || len(layer.Bands) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "empty layer")
	}
	styles := opts.Styles
	if styles == nil {
		styles = DefaultStyles()
	}
	style := styles.For(layer.ID)

	switch layer.ID {
	case raster.RGB:
		if len(layer.Bands) != 3 {
			return nil, errors.New(errors.ErrCodeInvalidInput, "rgb layer has %d bands", len(layer.Bands))
		}
		return []Bitmap{{Image: paintRGB(layer, opts.ApplyMask), Bounds: layer.Bounds}}, nil

	case raster.Mask, raster.DSM, raster.AnnualFlux:
		img, err := paintBand(layer, &layer.Bands[0], style, opts.ApplyMask, nil)
		if err != nil {
			return nil, err
		}
		return []Bitmap{{Image: img, Bounds: layer.Bounds}}, nil

	case raster.MonthlyFlux:
		out := make([]Bitmap, len(layer.Bands))
		for i := range layer.Bands {
			img, err := paintBand(layer, &layer.Bands[i], style, opts.ApplyMask, nil)
			if err != nil {
				return nil, err
			}
			out[i] = Bitmap{Image: img, Bounds: layer.Bounds, Slice: i}
		}
		return out, nil

	case raster.HourlyShade:
		day := opts.Day
		if day == 0 {
			day = DefaultDay
		}
		if day < 1 || day > 31 {
			return nil, errors.New(errors.ErrCodeInvalidInput, "day %d out of range 1-31", day)
		}
		hours, err := layer.Slice(opts.Month)
		if err != nil {
			return nil, err
		}
		bit := dayBit(day)
		out := make([]Bitmap, len(hours))
		for h := range hours {
			img, err := paintBand(layer, &hours[h], style, opts.ApplyMask, bit)
			if err != nil {
				return nil, err
			}
			out[h] = Bitmap{Image: img, Bounds: layer.Bounds, Slice: h}
		}
		return out, nil
	}
	return nil, errors.New(errors.ErrCodeUnsupportedLayerID, "unsupported layer %q", layer.ID)
}

// dayBit reduces an hourlyShade sample (a bitmask of days of the month that
// are sunny at that hour) to 0 or 1 for the given day.
func dayBit(day int) func(float64) float64 {
	return func(v float64) float64 {
		return float64((int64(v) >> (day - 1)) & 1)
	}
}

// valueRange resolves the [min, max] used to normalize band.
func valueRange(band *raster.Band, style Style, transform func(float64) float64) (min, max float64) {
	if style.Fixed() {
		return *style.Min, *style.Max
	}
	if transform != nil {
		min, max = 0, 1
	} else {
		min, max, _ = band.Range()
	}
	if style.Min != nil {
		min = *style.Min
	}
	if style.Max != nil {
		max = *style.Max
	}
	return min, max
}

func paintBand(layer *raster.Layer, band *raster.Band, style Style, applyMask bool, transform func(float64) float64) (*image.NRGBA, error) {
	pal, err := palette.Named(style.Palette)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPalette, err, "style for %s", layer.ID)
	}
	min, max := valueRange(band, style, transform)

	img := image.NewNRGBA(image.Rect(0, 0, band.Width, band.Height))
	for i, v := range band.Data {
		c := transparent
		switch {
		case applyMask && layer.Masked(i):
		case !band.Valid(i):
		default:
			if transform != nil {
				v = transform(v)
			}
			c = pal.At(v, max, min)
		}
		setPixel(img, i, c)
	}
	return img, nil
}

func paintRGB(layer *raster.Layer, applyMask bool) *image.NRGBA {
	r, g, b := &layer.Bands[0], &layer.Bands[1], &layer.Bands[2]
	img := image.NewNRGBA(image.Rect(0, 0, r.Width, r.Height))
	for i := range r.Data {
		c := transparent
		if !(applyMask && layer.Masked(i)) && r.Valid(i) {
			c = color.NRGBA{R: channel(r.Data[i]), G: channel(g.Data[i]), B: channel(b.Data[i]), A: 255}
		}
		setPixel(img, i, c)
	}
	return img
}

func channel(v float64) uint8 {
	switch {
	case math.IsNaN(v) || v <= 0:
		return 0
	case v >= 255:
		return 255
	}
	return uint8(math.Round(v))
}

func setPixel(img *image.NRGBA, i int, c color.NRGBA) {
	o := i * 4
	img.Pix[o] = c.R
	img.Pix[o+1] = c.G
	img.Pix[o+2] = c.B
	img.Pix[o+3] = c.A
}
