package raster

import (
	"bytes"
	"encoding/json"
	"io/fs"
	"path"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/joeblew999/plat-solar/internal/errors"
)

// Encoding names how payload files are stored.
type Encoding string

const (
	EncodingImage         Encoding = "image"          // TIFF or PNG
	EncodingFloat32       Encoding = "float32"        // planar little-endian float32
	EncodingFloat32Snappy Encoding = "float32+snappy" // the same, snappy compressed
	EncodingUint32        Encoding = "uint32"         // planar little-endian uint32
	EncodingUint32Snappy  Encoding = "uint32+snappy"  // the same, snappy compressed
)

// Lossless reports whether e keeps every bit of a 32-bit integer sample.
func (e Encoding) Lossless() bool {
	return e == EncodingUint32 || e == EncodingUint32Snappy
}

// Metadata is the sidecar stored next to the payload files of one layer. The
// fetch collaborator writes it as JSON or YAML.
type Metadata struct {
	Layer    LayerID  `json:"layer" yaml:"layer"`
	Width    int      `json:"width,omitempty" yaml:"width,omitempty"`
	Height   int      `json:"height,omitempty" yaml:"height,omitempty"`
	Bands    int      `json:"bands,omitempty" yaml:"bands,omitempty"` // bands per file
	NoData   *float64 `json:"noData,omitempty" yaml:"noData,omitempty"`
	North    float64  `json:"north" yaml:"north"`
	South    float64  `json:"south" yaml:"south"`
	East     float64  `json:"east" yaml:"east"`
	West     float64  `json:"west" yaml:"west"`
	Origin   Origin   `json:"origin,omitempty" yaml:"origin,omitempty"`
	Encoding Encoding `json:"encoding" yaml:"encoding"`
	Files    []string `json:"files" yaml:"files"`
	Mask     string   `json:"mask,omitempty" yaml:"mask,omitempty"`
}

// Bounds returns the geographic footprint described by the sidecar.
func (m Metadata) Bounds() Bounds {
	return NewBounds(m.North, m.South, m.East, m.West)
}

// ParseMetadata decodes a sidecar. YAML is used for .yaml/.yml names, JSON
// otherwise.
func ParseMetadata(name string, data []byte) (Metadata, error) {
	var m Metadata
	var err error
	switch strings.ToLower(path.Ext(name)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &m)
	default:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		err = dec.Decode(&m)
	}
	if err != nil {
		return Metadata{}, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse %s", name)
	}
	if _, err := ParseLayerID(string(m.Layer)); err != nil {
		return Metadata{}, err
	}
	if len(m.Files) == 0 {
		return Metadata{}, errors.New(errors.ErrCodeInvalidInput, "%s lists no payload files", name)
	}
	// hourlyShade samples are 31-day bitmasks; float32 and 8/16-bit images
	// drop the high days.
	if m.Layer == HourlyShade && !m.Encoding.Lossless() {
		return Metadata{}, errors.New(errors.ErrCodeInvalidInput,
			"%s: %s needs encoding %s or %s, got %q", name, m.Layer, EncodingUint32, EncodingUint32Snappy, m.Encoding)
	}
	return m, nil
}

// Load reads a sidecar and its payload files from fsys and decodes the layer.
// File names in the sidecar are relative to the sidecar's directory.
func Load(fsys fs.FS, name string) (*Layer, Metadata, error) {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, Metadata{}, errors.Wrap(errors.ErrCodeNotFound, err, "read %s", name)
	}
	meta, err := ParseMetadata(name, data)
	if err != nil {
		return nil, Metadata{}, err
	}

	dir := path.Dir(name)
	payloads := make([]Payload, 0, len(meta.Files))
	for _, f := range meta.Files {
		p, err := meta.readPayload(fsys, path.Join(dir, f), meta.Bands)
		if err != nil {
			return nil, meta, err
		}
		payloads = append(payloads, p)
	}

	var mask *Payload
	if meta.Mask != "" {
		m, err := meta.readPayload(fsys, path.Join(dir, meta.Mask), 1)
		if err != nil {
			return nil, meta, err
		}
		mask = &m
	}

	layer, err := Decode(meta.Layer, payloads, mask)
	if err != nil {
		return nil, meta, err
	}
	return layer, meta, nil
}

func (m Metadata) readPayload(fsys fs.FS, name string, bands int) (Payload, error) {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return Payload{}, errors.Wrap(errors.ErrCodeNotFound, err, "read payload %s", name)
	}

	var p Payload
	switch m.Encoding {
	case EncodingImage, "":
		p, err = DecodeImage(bytes.NewReader(data))
		if err != nil {
			return Payload{}, errors.Wrap(errors.GetCode(err), err, "%s", name)
		}
		if (m.Width != 0 && p.Width != m.Width) || (m.Height != 0 && p.Height != m.Height) {
			return Payload{}, errors.New(errors.ErrCodeDimensionMismatch,
				"%s is %dx%d, sidecar says %dx%d", name, p.Width, p.Height, m.Width, m.Height)
		}
	case EncodingFloat32, EncodingFloat32Snappy:
		if bands <= 0 {
			bands = 1
		}
		p = Payload{Width: m.Width, Height: m.Height}
		p.Bands, err = DecodeFloat32(data, m.Encoding == EncodingFloat32Snappy, m.Width, m.Height, bands)
		if err != nil {
			return Payload{}, errors.Wrap(errors.GetCode(err), err, "%s", name)
		}
	case EncodingUint32, EncodingUint32Snappy:
		if bands <= 0 {
			bands = 1
		}
		p = Payload{Width: m.Width, Height: m.Height}
		p.Bands, err = DecodeUint32(data, m.Encoding == EncodingUint32Snappy, m.Width, m.Height, bands)
		if err != nil {
			return Payload{}, errors.Wrap(errors.GetCode(err), err, "%s", name)
		}
	default:
		return Payload{}, errors.New(errors.ErrCodeInvalidInput, "unknown encoding %q", m.Encoding)
	}

	p.NoData = m.NoData
	p.Bounds = m.Bounds()
	p.Origin = m.Origin
	return p, nil
}
