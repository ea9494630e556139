package service

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joeblew999/plat-solar/internal/cache"
	"github.com/joeblew999/plat-solar/internal/errors"
	"github.com/joeblew999/plat-solar/internal/raster"
)

// sidecarExts are tried in order when looking up a layer sidecar.
var sidecarExts = []string{".json", ".yaml", ".yml"}

// RasterService reads data layers the fetch collaborator dropped under
// dataDir/rasters/<building>/: one metadata sidecar per layer plus its
// payload files.
type RasterService struct {
	rastersDir string
}

// NewRasterService creates a new raster service.
func NewRasterService(dataDir string) *RasterService {
	return &RasterService{
		rastersDir: filepath.Join(dataDir, "rasters"),
	}
}

// RastersDir returns the path to the rasters directory.
func (s *RasterService) RastersDir() string {
	return s.rastersDir
}

// List returns the layers available for a building. A building without a
// raster directory has none.
func (s *RasterService) List(building string) ([]LayerFile, error) {
	if err := validateID(building); err != nil {
		return nil, err
	}
	dir := filepath.Join(s.rastersDir, building)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []LayerFile{}, nil
		}
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "list rasters of %q", building)
	}

	files := []LayerFile{}
	seen := make(map[raster.LayerID]bool)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if !isSidecarExt(ext) {
			continue
		}
		id, err := raster.ParseLayerID(strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name())))
		if err != nil || seen[id] {
			continue
		}
		meta, err := s.metadata(dir, entry.Name())
		if err != nil {
			continue
		}
		seen[id] = true
		files = append(files, LayerFile{
			Layer: id,
			File:  entry.Name(),
			Size:  formatSize(payloadSize(dir, meta)),
		})
	}
	return files, nil
}

// Load decodes one layer of a building.
func (s *RasterService) Load(building string, layer raster.LayerID) (*raster.Layer, raster.Metadata, error) {
	dir, name, err := s.sidecar(building, layer)
	if err != nil {
		return nil, raster.Metadata{}, err
	}
	return raster.Load(os.DirFS(dir), name)
}

// Revision fingerprints a layer's sidecar and payload files by name, size
// and modification time. It changes whenever the fetch collaborator rewrites
// the layer.
func (s *RasterService) Revision(building string, layer raster.LayerID) (string, error) {
	dir, name, err := s.sidecar(building, layer)
	if err != nil {
		return "", err
	}
	meta, err := s.metadata(dir, name)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	for _, f := range append([]string{name, meta.Mask}, meta.Files...) {
		if f == "" {
			continue
		}
		info, err := os.Stat(filepath.Join(dir, filepath.FromSlash(f)))
		if err != nil {
			return "", errors.Wrap(errors.ErrCodeNotFound, err, "layer %s of %q: missing %s", layer, building, f)
		}
		fmt.Fprintf(&b, "%s:%d:%d;", f, info.Size(), info.ModTime().UnixNano())
	}
	return cache.Hash([]byte(b.String())), nil
}

// sidecar locates the metadata file of a layer.
func (s *RasterService) sidecar(building string, layer raster.LayerID) (dir, name string, err error) {
	if err := validateID(building); err != nil {
		return "", "", err
	}
	if _, err := raster.ParseLayerID(string(layer)); err != nil {
		return "", "", err
	}
	dir = filepath.Join(s.rastersDir, building)
	for _, ext := range sidecarExts {
		name = string(layer) + ext
		if _, err := os.Stat(filepath.Join(dir, name)); err == nil {
			return dir, name, nil
		}
	}
	return "", "", errors.New(errors.ErrCodeNotFound, "layer %s of %q not found", layer, building)
}

func (s *RasterService) metadata(dir, name string) (raster.Metadata, error) {
	data, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		return raster.Metadata{}, errors.Wrap(errors.ErrCodeNotFound, err, "read %s", name)
	}
	return raster.ParseMetadata(name, data)
}

func isSidecarExt(ext string) bool {
	for _, e := range sidecarExts {
		if ext == e {
			return true
		}
	}
	return false
}

// payloadSize sums the sizes of the payload and mask files of a layer.
func payloadSize(dir string, meta raster.Metadata) int64 {
	var total int64
	for _, f := range append([]string{meta.Mask}, meta.Files...) {
		if f == "" {
			continue
		}
		if info, err := os.Stat(filepath.Join(dir, filepath.FromSlash(f))); err == nil {
			total += info.Size()
		}
	}
	return total
}
