package raster

import (
	"encoding/binary"
	"image"
	"image/color"
	_ "image/png"
	"io"
	"math"

	"github.com/golang/snappy"
	_ "golang.org/x/image/tiff"

	"github.com/joeblew999/plat-solar/internal/errors"
)

// DecodeImage reads a TIFF or PNG raster. Gray images yield one band, any
// other color model yields three (red, green, blue). Bounds, nodata and
// origin are not part of the image; fill them from a [Metadata] sidecar.
func DecodeImage(r io.Reader) (Payload, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return Payload{}, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode raster image")
	}

	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	p := Payload{Width: w, Height: h}

	switch src := img.(type) {
	case *image.Gray:
		band := make([]float64, 0, w*h)
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				band = append(band, float64(src.GrayAt(x, y).Y))
			}
		}
		p.Bands = [][]float64{band}
	case *image.Gray16:
		band := make([]float64, 0, w*h)
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				band = append(band, float64(src.Gray16At(x, y).Y))
			}
		}
		p.Bands = [][]float64{band}
	default:
		red := make([]float64, 0, w*h)
		green := make([]float64, 0, w*h)
		blue := make([]float64, 0, w*h)
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
				red = append(red, float64(c.R))
				green = append(green, float64(c.G))
				blue = append(blue, float64(c.B))
			}
		}
		p.Bands = [][]float64{red, green, blue}
	}
	if len(p.Bands) == 0 {
		return Payload{}, errors.New(errors.ErrCodeInvalidInput, "%s image has no bands", format)
	}
	return p, nil
}

// DecodeFloat32 splits planar little-endian float32 samples into bands. When
// compressed is set the data is a snappy block.
func DecodeFloat32(data []byte, compressed bool, width, height, bands int) ([][]float64, error) {
	return decodePlanes(data, compressed, width, height, bands, "float32", func(u uint32) float64 {
		return float64(math.Float32frombits(u))
	})
}

// EncodeFloat32 is the inverse of DecodeFloat32.
func EncodeFloat32(bands [][]float64, compress bool) []byte {
	return encodePlanes(bands, compress, func(v float64) uint32 {
		return math.Float32bits(float32(v))
	})
}

// DecodeUint32 splits planar little-endian uint32 samples into bands. Every
// uint32 is exact in a float64, so bitmask layers keep all 32 bits.
func DecodeUint32(data []byte, compressed bool, width, height, bands int) ([][]float64, error) {
	return decodePlanes(data, compressed, width, height, bands, "uint32", func(u uint32) float64 {
		return float64(u)
	})
}

// EncodeUint32 is the inverse of DecodeUint32. Samples are truncated to
// uint32.
func EncodeUint32(bands [][]float64, compress bool) []byte {
	return encodePlanes(bands, compress, func(v float64) uint32 {
		return uint32(v)
	})
}

func decodePlanes(data []byte, compressed bool, width, height, bands int, kind string, conv func(uint32) float64) ([][]float64, error) {
	if compressed {
		raw, err := snappy.Decode(nil, data)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "snappy decode")
		}
		data = raw
	}
	n := width * height
	if want := n * bands * 4; len(data) != want {
		return nil, errors.New(errors.ErrCodeDimensionMismatch,
			"%s payload is %d bytes, want %d (%dx%d, %d bands)", kind, len(data), want, width, height, bands)
	}

	out := make([][]float64, bands)
	for i := range out {
		band := make([]float64, n)
		off := i * n * 4
		for j := range band {
			band[j] = conv(binary.LittleEndian.Uint32(data[off+j*4:]))
		}
		out[i] = band
	}
	return out, nil
}

func encodePlanes(bands [][]float64, compress bool, conv func(float64) uint32) []byte {
	size := 0
	for _, b := range bands {
		size += len(b) * 4
	}
	buf := make([]byte, 0, size)
	for _, b := range bands {
		for _, v := range b {
			buf = binary.LittleEndian.AppendUint32(buf, conv(v))
		}
	}
	if compress {
		return snappy.Encode(nil, buf)
	}
	return buf
}
