package palette

import (
	"image/color"
	"testing"

	"github.com/joeblew999/plat-solar/internal/errors"
)

func TestBuildEndpoints(t *testing.T) {
	tests := []struct {
		name   string
		colors []string
		first  color.NRGBA
		last   color.NRGBA
	}{
		{"binary", BinaryColors, color.NRGBA{0x21, 0x21, 0x21, 255}, color.NRGBA{0xB3, 0xE5, 0xFC, 255}},
		{"iron", IronColors, color.NRGBA{0x00, 0x00, 0x0A, 255}, color.NRGBA{0xFF, 0xFF, 0xF6, 255}},
		{"hash prefix", []string{"#000000", "#ffffff"}, color.NRGBA{0, 0, 0, 255}, color.NRGBA{255, 255, 255, 255}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := Build(tt.colors)
			if err != nil {
				t.Fatal(err)
			}
			if len(p) != Size {
				t.Fatalf("len=%d, want %d", len(p), Size)
			}
			if p[0] != tt.first {
				t.Errorf("p[0]=%v, want %v", p[0], tt.first)
			}
			if p[Size-1] != tt.last {
				t.Errorf("p[255]=%v, want %v", p[Size-1], tt.last)
			}
		})
	}
}

func TestBuildGrayRampIsLinear(t *testing.T) {
	p, err := Build([]string{"000000", "ffffff"})
	if err != nil {
		t.Fatal(err)
	}
	for i, c := range p {
		if int(c.R) != i || c.R != c.G || c.G != c.B || c.A != 255 {
			t.Fatalf("p[%d]=%v, want gray %d", i, c, i)
		}
	}
}

func TestBuildHitsInnerStops(t *testing.T) {
	// Three stops: the middle one lands between entries 127 and 128.
	p, err := Build([]string{"000000", "ff0000", "ffffff"})
	if err != nil {
		t.Fatal(err)
	}
	mid := p[127]
	if mid.R < 250 || mid.G > 5 {
		t.Errorf("p[127]=%v, want close to pure red", mid)
	}
}

func TestBuildInvalid(t *testing.T) {
	tests := []struct {
		name   string
		colors []string
	}{
		{"empty", nil},
		{"single", []string{"ffffff"}},
		{"bad hex", []string{"ffffff", "nothex"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Build(tt.colors)
			if !errors.Is(err, errors.ErrCodeInvalidPalette) {
				t.Fatalf("err=%v, want INVALID_PALETTE", err)
			}
		})
	}
}

func TestNamedIsCached(t *testing.T) {
	for _, name := range Names() {
		a, err := Named(name)
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		b, _ := Named(name)
		if a != b {
			t.Errorf("%s: Named returned different tables", name)
		}
	}
	if _, err := Named("viridis"); !errors.Is(err, errors.ErrCodeInvalidPalette) {
		t.Errorf("unknown palette err=%v", err)
	}
}

func TestHex(t *testing.T) {
	p, err := Named(Panels)
	if err != nil {
		t.Fatal(err)
	}
	hex := p.Hex()
	if len(hex) != Size {
		t.Fatalf("len=%d", len(hex))
	}
	if hex[0] != "#e8eaf6" || hex[Size-1] != "#1a237e" {
		t.Errorf("hex ends = %s, %s", hex[0], hex[Size-1])
	}
}

func TestControlColorsCopy(t *testing.T) {
	c, ok := ControlColors(Binary)
	if !ok || len(c) != 2 {
		t.Fatalf("ControlColors(binary)=%v,%v", c, ok)
	}
	c[0] = "000000"
	again, _ := ControlColors(Binary)
	if again[0] != "212121" {
		t.Error("ControlColors leaked internal slice")
	}
}
