package raster

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"
	"testing/fstest"

	"golang.org/x/image/tiff"

	"github.com/joeblew999/plat-solar/internal/errors"
)

func grayImage() *image.Gray {
	img := image.NewGray(image.Rect(0, 0, 3, 2))
	for i := range img.Pix {
		img.Pix[i] = uint8(i * 10)
	}
	return img
}

func TestDecodeImageTIFF(t *testing.T) {
	var buf bytes.Buffer
	if err := tiff.Encode(&buf, grayImage(), nil); err != nil {
		t.Fatal(err)
	}
	p, err := DecodeImage(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if p.Width != 3 || p.Height != 2 || len(p.Bands) != 1 {
		t.Fatalf("got %dx%d with %d bands", p.Width, p.Height, len(p.Bands))
	}
	for i, v := range p.Bands[0] {
		if v != float64(i*10) {
			t.Fatalf("band = %v", p.Bands[0])
		}
	}
}

func TestDecodeImagePNGColor(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	img.SetNRGBA(0, 0, color.NRGBA{R: 10, G: 20, B: 30, A: 255})
	img.SetNRGBA(1, 0, color.NRGBA{R: 200, G: 100, B: 50, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}

	p, err := DecodeImage(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if len(p.Bands) != 3 {
		t.Fatalf("bands = %d, want 3", len(p.Bands))
	}
	if p.Bands[0][1] != 200 || p.Bands[1][1] != 100 || p.Bands[2][0] != 30 {
		t.Errorf("bands = %v", p.Bands)
	}
}

func TestDecodeImageGarbage(t *testing.T) {
	_, err := DecodeImage(bytes.NewReader([]byte("not an image")))
	if !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("err = %v", err)
	}
}

func TestFloat32RoundTrip(t *testing.T) {
	bands := [][]float64{{1.5, -2, 3.25, 0}, {-9999, 7, 8, 9}}
	for _, compress := range []bool{false, true} {
		data := EncodeFloat32(bands, compress)
		got, err := DecodeFloat32(data, compress, 2, 2, 2)
		if err != nil {
			t.Fatalf("compress=%v: %v", compress, err)
		}
		for i := range bands {
			for j := range bands[i] {
				if got[i][j] != bands[i][j] {
					t.Fatalf("compress=%v: got %v, want %v", compress, got, bands)
				}
			}
		}
	}
}

func TestUint32KeepsAllDayBits(t *testing.T) {
	const days = 1 | 1<<30
	bands := [][]float64{{days, 0}, {1 << 31, 0xffffffff}}
	for _, compress := range []bool{false, true} {
		got, err := DecodeUint32(EncodeUint32(bands, compress), compress, 2, 1, 2)
		if err != nil {
			t.Fatalf("compress=%v: %v", compress, err)
		}
		for i := range bands {
			for j := range bands[i] {
				if got[i][j] != bands[i][j] {
					t.Fatalf("compress=%v: got %v, want %v", compress, got, bands)
				}
			}
		}
	}

	// float32 rounds the same mask away from day 1.
	lossy, err := DecodeFloat32(EncodeFloat32([][]float64{{days}}, false), false, 1, 1, 1)
	if err != nil {
		t.Fatal(err)
	}
	if int64(lossy[0][0])&1 != 0 {
		t.Errorf("float32 kept bit 0 of %v", lossy[0][0])
	}

	if _, err := DecodeUint32(make([]byte, 4), false, 2, 1, 1); !errors.Is(err, errors.ErrCodeDimensionMismatch) {
		t.Errorf("short payload err = %v", err)
	}
}

func TestLoadHourlyShadeUint32(t *testing.T) {
	hours := make([][]float64, HoursPerDay)
	for h := range hours {
		hours[h] = []float64{0}
	}
	hours[12] = []float64{1 | 1<<30}
	fsys := fstest.MapFS{
		"b1/hourlyShade.json": {Data: []byte(`{"layer":"hourlyShade","width":1,"height":1,"bands":24,` +
			`"north":37.45,"south":37.44,"east":-122.08,"west":-122.09,` +
			`"encoding":"uint32+snappy","files":["jan.u32","feb.u32"]}`)},
		"b1/jan.u32": {Data: EncodeUint32(hours, true)},
		"b1/feb.u32": {Data: EncodeUint32(hours, true)},
	}

	l, _, err := Load(fsys, "b1/hourlyShade.json")
	if err != nil {
		t.Fatal(err)
	}
	if l.Slices() != 2 || len(l.Bands) != 2*HoursPerDay {
		t.Fatalf("slices = %d, bands = %d", l.Slices(), len(l.Bands))
	}
	if got := l.Bands[HoursPerDay+12].Data[0]; got != 1|1<<30 {
		t.Errorf("sample = %v, want %v", got, 1|1<<30)
	}
}

func TestDecodeFloat32Errors(t *testing.T) {
	if _, err := DecodeFloat32(make([]byte, 12), false, 2, 2, 1); !errors.Is(err, errors.ErrCodeDimensionMismatch) {
		t.Errorf("short payload err = %v", err)
	}
	if _, err := DecodeFloat32([]byte{0xff, 0xff, 0xff}, true, 1, 1, 1); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("corrupt snappy err = %v", err)
	}
}

func TestLoad(t *testing.T) {
	var mask bytes.Buffer
	m := image.NewGray(image.Rect(0, 0, 2, 2))
	m.Pix = []uint8{1, 1, 0, 1}
	if err := tiff.Encode(&mask, m, nil); err != nil {
		t.Fatal(err)
	}

	fsys := fstest.MapFS{
		"b1/annualFlux.yaml": {Data: []byte(`layer: annualFlux
width: 2
height: 2
noData: -9999
north: 37.45
south: 37.44
east: -122.08
west: -122.09
origin: bottom-left
encoding: float32+snappy
files: [annualFlux.f32]
mask: mask.tiff
`)},
		"b1/annualFlux.f32": {Data: EncodeFloat32([][]float64{{100, 200, 300, -9999}}, true)},
		"b1/mask.tiff":      {Data: mask.Bytes()},
	}

	l, meta, err := Load(fsys, "b1/annualFlux.yaml")
	if err != nil {
		t.Fatal(err)
	}
	if meta.Origin != BottomLeft || meta.Layer != AnnualFlux {
		t.Errorf("meta = %+v", meta)
	}
	// Flipped: the last stored row becomes row 0.
	if got := l.Bands[0].Data; got[0] != 300 || got[2] != 100 {
		t.Errorf("data = %v", got)
	}
	if l.Bands[0].Valid(1) {
		t.Error("nodata sample valid after flip")
	}
	if l.Mask == nil || !l.Masked(0) {
		t.Error("mask not applied")
	}
	if l.Bounds.North() != 37.45 {
		t.Errorf("north = %v", l.Bounds.North())
	}
}

func TestLoadErrors(t *testing.T) {
	fsys := fstest.MapFS{
		"bad.json":   {Data: []byte(`{"layer":"flux","files":["x"]}`)},
		"empty.json": {Data: []byte(`{"layer":"dsm"}`)},
		"enc.json":   {Data: []byte(`{"layer":"dsm","encoding":"jpeg2000","files":["x"]}`)},
		"shade.json": {Data: []byte(`{"layer":"hourlyShade","encoding":"float32+snappy","files":["x"]}`)},
		"shade.yaml": {Data: []byte("layer: hourlyShade\nfiles: [x]\n")},
		"x":          {Data: []byte{0}},
	}
	tests := []struct {
		name string
		want errors.Code
	}{
		{"missing.json", errors.ErrCodeNotFound},
		{"bad.json", errors.ErrCodeUnsupportedLayerID},
		{"empty.json", errors.ErrCodeInvalidInput},
		{"enc.json", errors.ErrCodeInvalidInput},
		{"shade.json", errors.ErrCodeInvalidInput},
		{"shade.yaml", errors.ErrCodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := Load(fsys, tt.name); !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %s", err, tt.want)
			}
		})
	}
}
