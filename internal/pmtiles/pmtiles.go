// Package pmtiles reads and writes PMTiles v3 archives: a single file holding
// a tile directory and tile data, addressable with HTTP range requests.
//
// Only single-directory archives are written (every entry lives in the root
// directory), which is plenty for the panel layouts of one building. The
// reader also follows leaf directories.
//
// Format: https://github.com/protomaps/PMTiles/blob/main/spec/v3/spec.md
package pmtiles

import (
	"encoding/binary"
	"errors"
)

// Compression applied to tiles or to the directory and metadata.
type Compression uint8

const (
	UnknownCompression Compression = 0
	NoCompression      Compression = 1
	Gzip               Compression = 2
	Brotli             Compression = 3
	Zstd               Compression = 4
)

// TileType is the format of the tile contents.
type TileType uint8

const (
	UnknownTileType TileType = 0
	Mvt             TileType = 1
	Png             TileType = 2
	Jpeg            TileType = 3
	Webp            TileType = 4
	Avif            TileType = 5
)

// HeaderLen is the size of the fixed binary header.
const HeaderLen = 127

// rootLimit is the byte budget for header plus root directory; clients
// fetch this much in their first request.
const rootLimit = 16384

var (
	ErrBadMagic      = errors.New("pmtiles: magic number not detected")
	ErrShortHeader   = errors.New("pmtiles: buffer too small for header")
	ErrVersion       = errors.New("pmtiles: unsupported spec version")
	ErrCompression   = errors.New("pmtiles: unsupported compression")
	ErrRootTooLarge  = errors.New("pmtiles: root directory exceeds 16 KiB")
	ErrCorruptDir    = errors.New("pmtiles: corrupt directory")
	ErrNestedLeaves  = errors.New("pmtiles: leaf directories nested too deep")
	ErrNoTiles       = errors.New("pmtiles: no tiles to write")
	ErrDuplicateTile = errors.New("pmtiles: duplicate tile")
)

// Header is the archive header.
type Header struct {
	SpecVersion         uint8
	RootOffset          uint64
	RootLength          uint64
	MetadataOffset      uint64
	MetadataLength      uint64
	LeafDirectoryOffset uint64
	LeafDirectoryLength uint64
	TileDataOffset      uint64
	TileDataLength      uint64
	AddressedTilesCount uint64
	TileEntriesCount    uint64
	TileContentsCount   uint64
	Clustered           bool
	InternalCompression Compression
	TileCompression     Compression
	TileType            TileType
	MinZoom             uint8
	MaxZoom             uint8
	MinLonE7            int32
	MinLatE7            int32
	MaxLonE7            int32
	MaxLatE7            int32
	CenterZoom          uint8
	CenterLonE7         int32
	CenterLatE7         int32
}

// Bytes encodes the header.
func (h Header) Bytes() []byte {
	b := make([]byte, HeaderLen)
	copy(b[0:7], "PMTiles")
	b[7] = 3

	le := binary.LittleEndian
	for i, v := range []uint64{
		h.RootOffset, h.RootLength, h.MetadataOffset, h.MetadataLength,
		h.LeafDirectoryOffset, h.LeafDirectoryLength, h.TileDataOffset, h.TileDataLength,
		h.AddressedTilesCount, h.TileEntriesCount, h.TileContentsCount,
	} {
		le.PutUint64(b[8+i*8:], v)
	}
	if h.Clustered {
		b[96] = 1
	}
	b[97] = uint8(h.InternalCompression)
	b[98] = uint8(h.TileCompression)
	b[99] = uint8(h.TileType)
	b[100] = h.MinZoom
	b[101] = h.MaxZoom
	le.PutUint32(b[102:], uint32(h.MinLonE7))
	le.PutUint32(b[106:], uint32(h.MinLatE7))
	le.PutUint32(b[110:], uint32(h.MaxLonE7))
	le.PutUint32(b[114:], uint32(h.MaxLatE7))
	b[118] = h.CenterZoom
	le.PutUint32(b[119:], uint32(h.CenterLonE7))
	le.PutUint32(b[123:], uint32(h.CenterLatE7))
	return b
}

// ParseHeader decodes a header.
func ParseHeader(b []byte) (Header, error) {
	var h Header
	if len(b) < HeaderLen {
		return h, ErrShortHeader
	}
	if string(b[0:7]) != "PMTiles" {
		return h, ErrBadMagic
	}
	if b[7] != 3 {
		return h, ErrVersion
	}

	le := binary.LittleEndian
	u := func(i int) uint64 { return le.Uint64(b[8+i*8:]) }
	h.SpecVersion = b[7]
	h.RootOffset, h.RootLength = u(0), u(1)
	h.MetadataOffset, h.MetadataLength = u(2), u(3)
	h.LeafDirectoryOffset, h.LeafDirectoryLength = u(4), u(5)
	h.TileDataOffset, h.TileDataLength = u(6), u(7)
	h.AddressedTilesCount, h.TileEntriesCount, h.TileContentsCount = u(8), u(9), u(10)
	h.Clustered = b[96] == 1
	h.InternalCompression = Compression(b[97])
	h.TileCompression = Compression(b[98])
	h.TileType = TileType(b[99])
	h.MinZoom = b[100]
	h.MaxZoom = b[101]
	h.MinLonE7 = int32(le.Uint32(b[102:]))
	h.MinLatE7 = int32(le.Uint32(b[106:]))
	h.MaxLonE7 = int32(le.Uint32(b[110:]))
	h.MaxLatE7 = int32(le.Uint32(b[114:]))
	h.CenterZoom = b[118]
	h.CenterLonE7 = int32(le.Uint32(b[119:]))
	h.CenterLatE7 = int32(le.Uint32(b[123:]))
	return h, nil
}

// ZxyToID maps tile coordinates to their position on the Hilbert curve
// across all zoom levels.
func ZxyToID(z uint8, x, y uint32) uint64 {
	acc := (uint64(1)<<(z*2) - 1) / 3
	if z == 0 {
		return 0
	}
	n := uint32(z - 1)
	for s := uint32(1) << n; s > 0; s >>= 1 {
		rx := s & x
		ry := s & y
		acc += uint64((3*rx)^ry) << n
		x, y = rotate(s, x, y, rx, ry)
		n--
	}
	return acc
}

func rotate(n, x, y, rx, ry uint32) (uint32, uint32) {
	if ry == 0 {
		if rx != 0 {
			x = n - 1 - x
			y = n - 1 - y
		}
		return y, x
	}
	return x, y
}
