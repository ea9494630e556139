package service

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/paulmach/orb/geojson"

	"github.com/joeblew999/plat-solar/internal/cache"
	"github.com/joeblew999/plat-solar/internal/db"
	"github.com/joeblew999/plat-solar/internal/errors"
	"github.com/joeblew999/plat-solar/internal/panels"
	"github.com/joeblew999/plat-solar/internal/solar"
)

// PanelService lays out the panels of stored buildings, sizes installations
// and keeps the DuckDB panel table in step with the stored insights.
type PanelService struct {
	buildings *BuildingService
	store     *db.PanelStore
	cache     cache.Cache
	ttl       time.Duration
	logger    *log.Logger

	mu    sync.Mutex
	saved map[string]string // building -> revision in the store
}

// NewPanelService creates a panel service. store and c may be nil.
func NewPanelService(buildings *BuildingService, store *db.PanelStore, c cache.Cache, logger *log.Logger) *PanelService {
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &PanelService{
		buildings: buildings,
		store:     store,
		cache:     c,
		ttl:       DefaultRenderTTL,
		logger:    logger,
		saved:     make(map[string]string),
	}
}

// Polygons lays out every panel of a building, best panels first.
func (s *PanelService) Polygons(id string) ([]panels.Polygon, error) {
	bi, err := s.buildings.Get(id)
	if err != nil {
		return nil, err
	}
	return panels.Layout(bi.SolarPotential, nil)
}

// FeatureCollection returns the first count panels of a building as GeoJSON.
// A count of zero or less returns every panel.
func (s *PanelService) FeatureCollection(ctx context.Context, id string, count int) (*geojson.FeatureCollection, error) {
	rev, err := s.buildings.Revision(id)
	if err != nil {
		return nil, err
	}
	key := cache.Key("panels", id, rev, count)
	if data, ok, err := s.cache.Get(ctx, key); err == nil && ok {
		if fc, err := geojson.UnmarshalFeatureCollection(data); err == nil {
			return fc, nil
		}
	} else if err != nil {
		s.logger.Warn("panel cache read failed", "building", id, "error", err)
	}

	polys, err := s.Polygons(id)
	if err != nil {
		return nil, err
	}
	if err := s.sync(ctx, id, rev, polys); err != nil {
		s.logger.Warn("panel store update failed", "building", id, "error", err)
	}
	if count > 0 {
		polys = panels.Visible(polys, count)
	}
	fc := panels.FeatureCollection(polys)

	if data, err := fc.MarshalJSON(); err == nil {
		if err := s.cache.Set(ctx, key, data, s.ttl); err != nil {
			s.logger.Warn("panel cache write failed", "building", id, "error", err)
		}
	}
	return fc, nil
}

// Select picks the smallest configuration covering the consumption c.
func (s *PanelService) Select(id string, c solar.Consumption) (solar.Selection, error) {
	bi, err := s.buildings.Get(id)
	if err != nil {
		return solar.Selection{}, err
	}
	return solar.Select(bi.SolarPotential, c)
}

// YieldBySegment sums the laid-out panels of a building per roof segment.
func (s *PanelService) YieldBySegment(ctx context.Context, id string) ([]db.SegmentYield, error) {
	if s.store == nil {
		return nil, errors.New(errors.ErrCodeInternal, "panel store not available")
	}
	rev, err := s.buildings.Revision(id)
	if err != nil {
		return nil, err
	}
	polys, err := s.Polygons(id)
	if err != nil {
		return nil, err
	}
	if err := s.sync(ctx, id, rev, polys); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "store panels of %q", id)
	}
	return s.store.YieldBySegment(ctx, id)
}

// sync writes the layout to the store once per building revision.
func (s *PanelService) sync(ctx context.Context, id, rev string, polys []panels.Polygon) error {
	if s.store == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saved[id] == rev {
		return nil
	}
	if err := s.store.SavePanels(ctx, id, polys); err != nil {
		return err
	}
	s.saved[id] = rev
	return nil
}
