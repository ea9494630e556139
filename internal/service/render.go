package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/joeblew999/plat-solar/internal/cache"
	"github.com/joeblew999/plat-solar/internal/errors"
	"github.com/joeblew999/plat-solar/internal/raster"
	"github.com/joeblew999/plat-solar/internal/render"
)

// DefaultSession is used for render requests that name no session.
const DefaultSession = "default"

// DefaultRenderTTL is how long rendered frames stay cached.
const DefaultRenderTTL = 24 * time.Hour

// RenderConfig holds the dependencies of a RenderService.
type RenderConfig struct {
	Rasters     *RasterService
	Cache       cache.Cache
	Generations *Generations
	Bus         *EventBus
	Styles      render.Styles
	TTL         time.Duration
	Logger      *log.Logger
}

// RenderService renders raster layers to data-URL frames. Results are
// cached by layer revision and options, and only the newest generation per
// session and building is applied.
type RenderService struct {
	cfg RenderConfig
}

// cachedRender is the cacheable part of a RenderResult.
type cachedRender struct {
	Bounds raster.Bounds `json:"bounds"`
	Width  int           `json:"width"`
	Height int           `json:"height"`
	Frames []Frame       `json:"frames"`
	Legend render.Legend `json:"legend"`
}

// NewRenderService creates a render service. Missing dependencies get
// working defaults: no cache, a fresh tracker and the default styles.
func NewRenderService(cfg RenderConfig) *RenderService {
	if cfg.Cache == nil {
		cfg.Cache = cache.NewNullCache()
	}
	if cfg.Generations == nil {
		cfg.Generations = NewGenerations()
	}
	if cfg.Styles == nil {
		cfg.Styles = render.DefaultStyles()
	}
	if cfg.TTL == 0 {
		cfg.TTL = DefaultRenderTTL
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}
	return &RenderService{cfg: cfg}
}

// Styles returns the styles layers are painted with.
func (s *RenderService) Styles() render.Styles {
	return s.cfg.Styles
}

// Render renders one layer. A result whose generation was overtaken while
// rendering is dropped with a SUPERSEDED error.
func (s *RenderService) Render(ctx context.Context, req RenderRequest) (RenderResult, error) {
	if _, err := raster.ParseLayerID(string(req.Layer)); err != nil {
		return RenderResult{}, err
	}
	if req.Session == "" {
		req.Session = DefaultSession
	}
	if req.Layer == raster.HourlyShade {
		if req.Day == 0 {
			req.Day = render.DefaultDay
		}
	} else {
		req.Month, req.Day = 0, 0
	}

	key := req.Session + "/" + req.Building
	gen := req.Generation
	if gen == 0 {
		gen = s.cfg.Generations.Next(key)
	} else if err := s.cfg.Generations.Claim(key, gen); err != nil {
		return RenderResult{}, err
	}

	result := RenderResult{
		RequestID:  uuid.NewString(),
		Building:   req.Building,
		Layer:      req.Layer,
		Generation: gen,
	}
	logger := s.cfg.Logger.With("request", result.RequestID, "building", req.Building, "layer", req.Layer, "generation", gen)

	rev, err := s.cfg.Rasters.Revision(req.Building, req.Layer)
	if err != nil {
		return RenderResult{}, err
	}
	ckey := cache.Key("render", req.Building, req.Layer, rev, req.Month, req.Day, req.Mask, s.cfg.Styles.For(req.Layer))

	body, hit := s.lookup(ctx, ckey, logger)
	if !hit {
		body, err = s.render(req)
		if err != nil {
			return RenderResult{}, err
		}
		s.store(ctx, ckey, body, logger)
	}
	if err := ctx.Err(); err != nil {
		return RenderResult{}, errors.Wrap(errors.ErrCodeSuperseded, err, "render %s canceled", req.Layer)
	}

	result.Bounds, result.Width, result.Height = body.Bounds, body.Width, body.Height
	result.Frames, result.Legend, result.Cached = body.Frames, body.Legend, hit

	err = s.cfg.Generations.Apply(key, gen, func() {
		s.cfg.Bus.Publish(Event{
			Resource:   ResourceRenders,
			Action:     ActionRendered,
			ID:         req.Building + "/" + string(req.Layer),
			Generation: gen,
			RequestID:  result.RequestID,
		})
	})
	if err != nil {
		logger.Debug("render superseded")
		s.cfg.Bus.Publish(Event{
			Resource:   ResourceRenders,
			Action:     ActionSuperseded,
			ID:         req.Building + "/" + string(req.Layer),
			Generation: gen,
			RequestID:  result.RequestID,
		})
		return RenderResult{}, err
	}
	logger.Debug("render applied", "frames", len(result.Frames), "cached", hit)
	return result, nil
}

// render decodes and paints a layer.
func (s *RenderService) render(req RenderRequest) (cachedRender, error) {
	layer, _, err := s.cfg.Rasters.Load(req.Building, req.Layer)
	if err != nil {
		return cachedRender{}, err
	}
	bitmaps, err := render.Render(layer, render.Options{
		ApplyMask: req.Mask,
		Month:     req.Month,
		Day:       req.Day,
		Styles:    s.cfg.Styles,
	})
	if err != nil {
		return cachedRender{}, err
	}

	body := cachedRender{
		Bounds: layer.Bounds,
		Width:  layer.Width(),
		Height: layer.Height(),
		Frames: make([]Frame, len(bitmaps)),
		Legend: render.NewLegend(layer, s.cfg.Styles),
	}
	for i, bm := range bitmaps {
		url, err := bm.DataURL()
		if err != nil {
			return cachedRender{}, err
		}
		body.Frames[i] = Frame{Slice: bm.Slice, DataURL: url}
	}
	return body, nil
}

// lookup reads a cached render. Cache failures count as misses.
func (s *RenderService) lookup(ctx context.Context, key string, logger *log.Logger) (cachedRender, bool) {
	data, ok, err := s.cfg.Cache.Get(ctx, key)
	if err != nil {
		logger.Warn("render cache read failed", "error", err)
		return cachedRender{}, false
	}
	if !ok {
		return cachedRender{}, false
	}
	var body cachedRender
	if err := json.Unmarshal(data, &body); err != nil {
		logger.Warn("discarding corrupt render cache entry", "error", err)
		return cachedRender{}, false
	}
	return body, true
}

func (s *RenderService) store(ctx context.Context, key string, body cachedRender, logger *log.Logger) {
	data, err := json.Marshal(body)
	if err != nil {
		logger.Warn("render cache encode failed", "error", err)
		return
	}
	if err := s.cfg.Cache.Set(ctx, key, data, s.cfg.TTL); err != nil {
		logger.Warn("render cache write failed", "error", err)
	}
}
