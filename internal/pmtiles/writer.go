package pmtiles

import (
	"bytes"
	"crypto/sha256"
	"encoding/json"
	"io"
	"math"
	"sort"
)

// Tile is one tile to archive. Data is stored as given; it must already be
// compressed with WriteOptions.TileCompression.
type Tile struct {
	Z    uint8
	X, Y uint32
	Data []byte
}

// WriteOptions describe the archive.
type WriteOptions struct {
	TileType        TileType
	TileCompression Compression
	MinZoom         uint8
	MaxZoom         uint8
	// Bounds in degrees: west, south, east, north.
	Bounds   [4]float64
	Metadata map[string]any
}

// Write encodes tiles as a clustered archive. Identical tile contents are
// stored once; runs of identical consecutive tiles share one entry.
func Write(w io.Writer, tiles []Tile, opts WriteOptions) (Header, error) {
	if len(tiles) == 0 {
		return Header{}, ErrNoTiles
	}

	type keyed struct {
		id   uint64
		data []byte
	}
	sorted := make([]keyed, len(tiles))
	for i, t := range tiles {
		sorted[i] = keyed{ZxyToID(t.Z, t.X, t.Y), t.Data}
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].id < sorted[j].id })

	var (
		entries  []Entry
		data     bytes.Buffer
		offsets  = make(map[[32]byte]Entry)
		contents uint64
	)
	for i, t := range sorted {
		if i > 0 && t.id == sorted[i-1].id {
			return Header{}, ErrDuplicateTile
		}
		sum := sha256.Sum256(t.data)
		if prev, ok := offsets[sum]; ok {
			last := &entries[len(entries)-1]
			if last.Offset == prev.Offset && last.TileID+uint64(last.RunLength) == t.id {
				last.RunLength++
				continue
			}
			entries = append(entries, Entry{TileID: t.id, Offset: prev.Offset, Length: prev.Length, RunLength: 1})
			continue
		}
		e := Entry{TileID: t.id, Offset: uint64(data.Len()), Length: uint32(len(t.data)), RunLength: 1}
		data.Write(t.data)
		offsets[sum] = e
		contents++
		entries = append(entries, e)
	}

	root, err := encodeDirectory(entries, Gzip)
	if err != nil {
		return Header{}, err
	}
	if HeaderLen+len(root) > rootLimit {
		return Header{}, ErrRootTooLarge
	}
	meta := opts.Metadata
	if meta == nil {
		meta = map[string]any{}
	}
	rawMeta, err := json.Marshal(meta)
	if err != nil {
		return Header{}, err
	}
	metaBytes, err := compress(rawMeta, Gzip)
	if err != nil {
		return Header{}, err
	}

	e7 := func(v float64) int32 { return int32(math.Round(v * 1e7)) }
	h := Header{
		SpecVersion:         3,
		RootOffset:          HeaderLen,
		RootLength:          uint64(len(root)),
		MetadataOffset:      HeaderLen + uint64(len(root)),
		MetadataLength:      uint64(len(metaBytes)),
		TileDataOffset:      HeaderLen + uint64(len(root)) + uint64(len(metaBytes)),
		TileDataLength:      uint64(data.Len()),
		AddressedTilesCount: uint64(len(sorted)),
		TileEntriesCount:    uint64(len(entries)),
		TileContentsCount:   contents,
		Clustered:           true,
		InternalCompression: Gzip,
		TileCompression:     opts.TileCompression,
		TileType:            opts.TileType,
		MinZoom:             opts.MinZoom,
		MaxZoom:             opts.MaxZoom,
		MinLonE7:            e7(opts.Bounds[0]),
		MinLatE7:            e7(opts.Bounds[1]),
		MaxLonE7:            e7(opts.Bounds[2]),
		MaxLatE7:            e7(opts.Bounds[3]),
		CenterZoom:          opts.MaxZoom,
		CenterLonE7:         e7((opts.Bounds[0] + opts.Bounds[2]) / 2),
		CenterLatE7:         e7((opts.Bounds[1] + opts.Bounds[3]) / 2),
	}

	for _, part := range [][]byte{h.Bytes(), root, metaBytes, data.Bytes()} {
		if _, err := w.Write(part); err != nil {
			return Header{}, err
		}
	}
	return h, nil
}
