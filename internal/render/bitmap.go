package render

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/png"

	"github.com/joeblew999/plat-solar/internal/errors"
	"github.com/joeblew999/plat-solar/internal/raster"
)

// Bitmap is one rendered time slice. Row 0 is the northern edge of Bounds.
type Bitmap struct {
	Image  *image.NRGBA
	Bounds raster.Bounds
	// Slice is the month (monthlyFlux), hour (hourlyShade) or 0.
	Slice int
}

// PNG encodes the bitmap.
func (b Bitmap) PNG() ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, b.Image); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "encode png")
	}
	return buf.Bytes(), nil
}

// DataURL encodes the bitmap as a data:image/png URL, ready for a map overlay.
func (b Bitmap) DataURL() (string, error) {
	data, err := b.PNG()
	if err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(data), nil
}
