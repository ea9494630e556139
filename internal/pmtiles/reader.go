package pmtiles

import (
	"encoding/json"
	"io"
)

// maxDepth bounds how many leaf levels a lookup follows.
const maxDepth = 3

// Archive reads tiles from an archive through random access.
type Archive struct {
	r      io.ReaderAt
	header Header
	root   []Entry
}

// Open reads the header and root directory.
func Open(r io.ReaderAt) (*Archive, error) {
	buf := make([]byte, HeaderLen)
	if _, err := r.ReadAt(buf, 0); err != nil {
		return nil, err
	}
	h, err := ParseHeader(buf)
	if err != nil {
		return nil, err
	}
	a := &Archive{r: r, header: h}
	a.root, err = a.directory(h.RootOffset, h.RootLength)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// Header returns the archive header.
func (a *Archive) Header() Header {
	return a.header
}

// Metadata decodes the JSON metadata block.
func (a *Archive) Metadata() (map[string]any, error) {
	raw, err := a.read(a.header.MetadataOffset, a.header.MetadataLength)
	if err != nil {
		return nil, err
	}
	data, err := decompress(raw, a.header.InternalCompression)
	if err != nil {
		return nil, err
	}
	meta := map[string]any{}
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return meta, nil
}

// Tile returns the stored bytes of tile z/x/y and whether it exists.
func (a *Archive) Tile(z uint8, x, y uint32) ([]byte, bool, error) {
	id := ZxyToID(z, x, y)
	dir := a.root
	for depth := 0; depth <= maxDepth; depth++ {
		e, ok := findTile(dir, id)
		if !ok {
			return nil, false, nil
		}
		if e.RunLength > 0 {
			data, err := a.read(a.header.TileDataOffset+e.Offset, uint64(e.Length))
			if err != nil {
				return nil, false, err
			}
			return data, true, nil
		}
		leaf, err := a.directory(a.header.LeafDirectoryOffset+e.Offset, uint64(e.Length))
		if err != nil {
			return nil, false, err
		}
		dir = leaf
	}
	return nil, false, ErrNestedLeaves
}

func (a *Archive) directory(offset, length uint64) ([]Entry, error) {
	raw, err := a.read(offset, length)
	if err != nil {
		return nil, err
	}
	return decodeDirectory(raw, a.header.InternalCompression)
}

func (a *Archive) read(offset, length uint64) ([]byte, error) {
	buf := make([]byte, length)
	n, err := a.r.ReadAt(buf, int64(offset))
	if n == len(buf) {
		return buf, nil
	}
	if err == nil {
		err = io.ErrUnexpectedEOF
	}
	return nil, err
}
