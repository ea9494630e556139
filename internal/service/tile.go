package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joeblew999/plat-solar/internal/errors"
	"github.com/joeblew999/plat-solar/internal/panels"
	"github.com/joeblew999/plat-solar/internal/tiler"
)

// TileService manages PMTiles files of panel layouts.
type TileService struct {
	tilesDir string
	panels   *PanelService
	bus      *EventBus
}

// NewTileService creates a new tile service. ps may be nil when only
// listing is needed.
func NewTileService(dataDir string, ps *PanelService, bus *EventBus) *TileService {
	return &TileService{
		tilesDir: filepath.Join(dataDir, "tiles"),
		panels:   ps,
		bus:      bus,
	}
}

// List returns all available PMTiles files.
func (s *TileService) List() ([]TileFile, error) {
	entries, err := os.ReadDir(s.tilesDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []TileFile{}, nil
		}
		return nil, err
	}

	files := []TileFile{}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if filepath.Ext(entry.Name()) != ".pmtiles" {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}

		files = append(files, TileFile{
			Name: entry.Name(),
			Size: formatSize(info.Size()),
		})
	}

	return files, nil
}

// Generate writes tiles/<id>.pmtiles with the first count panels of a
// building (every panel when count <= 0). The archive is replaced
// atomically.
func (s *TileService) Generate(ctx context.Context, id string, count int, cfg tiler.Config) (TileFile, tiler.Stats, error) {
	if s.panels == nil {
		return TileFile{}, tiler.Stats{}, errors.New(errors.ErrCodeInternal, "panel service not available")
	}
	polys, err := s.panels.Polygons(id)
	if err != nil {
		return TileFile{}, tiler.Stats{}, err
	}
	if count > 0 {
		polys = panels.Visible(polys, count)
	}
	if err := ctx.Err(); err != nil {
		return TileFile{}, tiler.Stats{}, errors.Wrap(errors.ErrCodeInternal, err, "tile %q canceled", id)
	}
	if cfg.Description == "" {
		cfg.Description = fmt.Sprintf("Solar panel layout of %s", id)
	}

	if err := os.MkdirAll(s.tilesDir, 0755); err != nil {
		return TileFile{}, tiler.Stats{}, errors.Wrap(errors.ErrCodeInternal, err, "create tiles directory")
	}
	name := id + ".pmtiles"
	tmp, err := os.CreateTemp(s.tilesDir, name+".*.tmp")
	if err != nil {
		return TileFile{}, tiler.Stats{}, errors.Wrap(errors.ErrCodeInternal, err, "create %s", name)
	}
	defer os.Remove(tmp.Name())

	stats, err := tiler.Write(tmp, panels.FeatureCollection(polys), cfg)
	if cerr := tmp.Close(); err == nil && cerr != nil {
		err = errors.Wrap(errors.ErrCodeInternal, cerr, "write %s", name)
	}
	if err != nil {
		return TileFile{}, tiler.Stats{}, err
	}
	if err := os.Rename(tmp.Name(), filepath.Join(s.tilesDir, name)); err != nil {
		return TileFile{}, tiler.Stats{}, errors.Wrap(errors.ErrCodeInternal, err, "write %s", name)
	}

	s.bus.Publish(Event{Resource: ResourceTiles, Action: ActionCreated, ID: name})
	return TileFile{Name: name, Size: formatSize(stats.Bytes)}, stats, nil
}

// TilesDir returns the path to the tiles directory.
func (s *TileService) TilesDir() string {
	return s.tilesDir
}

// formatSize returns a human-readable file size.
func formatSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
