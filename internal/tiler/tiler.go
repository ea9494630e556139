// Package tiler cuts GeoJSON features into Mapbox vector tiles and packs them
// into a PMTiles archive, so a map client can stream a building's panel
// layout instead of downloading the whole FeatureCollection.
package tiler

import (
	"io"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/mvt"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/maptile"
	"github.com/paulmach/orb/planar"
	"github.com/paulmach/orb/simplify"

	"github.com/joeblew999/plat-solar/internal/errors"
	"github.com/joeblew999/plat-solar/internal/pmtiles"
)

// Zoom limits. Panels are about a meter across, so they only show up from
// street level down.
const (
	DefaultMinZoom = 16
	DefaultMaxZoom = 21
	MaxZoom        = 24
)

// Config controls tile generation.
type Config struct {
	Layer       string `json:"layer,omitempty" doc:"Layer name inside each tile" default:"panels"`
	MinZoom     int    `json:"minZoom,omitempty" minimum:"0" maximum:"24" doc:"Minimum zoom level, 0 with maxZoom 0 for 16-21"`
	MaxZoom     int    `json:"maxZoom,omitempty" minimum:"0" maximum:"24" doc:"Maximum zoom level"`
	Description string `json:"description,omitempty" doc:"Archive description"`
}

func (c *Config) setDefaults() error {
	if c.Layer == "" {
		c.Layer = "panels"
	}
	if c.MinZoom == 0 && c.MaxZoom == 0 {
		c.MinZoom, c.MaxZoom = DefaultMinZoom, DefaultMaxZoom
	}
	if c.MinZoom < 0 || c.MaxZoom > MaxZoom || c.MinZoom > c.MaxZoom {
		return errors.New(errors.ErrCodeInvalidInput, "zoom range %d-%d outside 0-%d", c.MinZoom, c.MaxZoom, MaxZoom)
	}
	return nil
}

// Stats reports what was written.
type Stats struct {
	Tiles    int   `json:"tiles"`
	Features int   `json:"features"`
	Bytes    int64 `json:"bytes"`
}

// countingWriter tracks bytes written.
type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

// Write tiles fc over the configured zoom range and writes the archive to w.
func Write(w io.Writer, fc *geojson.FeatureCollection, cfg Config) (Stats, error) {
	if err := cfg.setDefaults(); err != nil {
		return Stats{}, err
	}
	if fc == nil || len(fc.Features) == 0 {
		return Stats{}, errors.New(errors.ErrCodeInvalidInput, "no features to tile")
	}

	var tiles []pmtiles.Tile
	bound := fc.Features[0].Geometry.Bound()
	for _, f := range fc.Features[1:] {
		bound = bound.Union(f.Geometry.Bound())
	}

	for z := cfg.MinZoom; z <= cfg.MaxZoom; z++ {
		zoomTiles, err := tileZoom(fc, maptile.Zoom(z), cfg.Layer)
		if err != nil {
			return Stats{}, err
		}
		tiles = append(tiles, zoomTiles...)
	}
	if len(tiles) == 0 {
		return Stats{}, errors.New(errors.ErrCodeInvalidInput, "features produced no tiles at zoom %d-%d", cfg.MinZoom, cfg.MaxZoom)
	}

	cw := &countingWriter{w: w}
	_, err := pmtiles.Write(cw, tiles, pmtiles.WriteOptions{
		TileType:        pmtiles.Mvt,
		TileCompression: pmtiles.Gzip,
		MinZoom:         uint8(cfg.MinZoom),
		MaxZoom:         uint8(cfg.MaxZoom),
		Bounds:          [4]float64{bound.Min.Lon(), bound.Min.Lat(), bound.Max.Lon(), bound.Max.Lat()},
		Metadata: map[string]any{
			"name":        cfg.Layer,
			"description": cfg.Description,
			"format":      "pbf",
			"compression": "gzip",
			"minzoom":     cfg.MinZoom,
			"maxzoom":     cfg.MaxZoom,
			"vector_layers": []map[string]any{{
				"id":      cfg.Layer,
				"minzoom": cfg.MinZoom,
				"maxzoom": cfg.MaxZoom,
			}},
		},
	})
	if err != nil {
		return Stats{}, errors.Wrap(errors.ErrCodeInternal, err, "write pmtiles")
	}
	return Stats{Tiles: len(tiles), Features: len(fc.Features), Bytes: cw.n}, nil
}

// tileZoom builds every non-empty tile at one zoom level.
func tileZoom(fc *geojson.FeatureCollection, zoom maptile.Zoom, layer string) ([]pmtiles.Tile, error) {
	byTile := make(map[maptile.Tile][]*geojson.Feature)
	var order []maptile.Tile
	for _, f := range fc.Features {
		for _, t := range tilesInBound(f.Geometry.Bound(), zoom) {
			if _, seen := byTile[t]; !seen {
				order = append(order, t)
			}
			byTile[t] = append(byTile[t], f)
		}
	}

	var out []pmtiles.Tile
	for _, t := range order {
		data, err := encodeTile(t, byTile[t], layer)
		if err != nil {
			return nil, err
		}
		if data == nil {
			continue
		}
		out = append(out, pmtiles.Tile{Z: uint8(t.Z), X: t.X, Y: t.Y, Data: data})
	}
	return out, nil
}

// encodeTile returns the gzipped MVT for t, or nil when nothing survives
// clipping.
func encodeTile(t maptile.Tile, features []*geojson.Feature, layerName string) ([]byte, error) {
	tb := t.Bound()
	fc := geojson.NewFeatureCollection()
	for _, f := range features {
		if !intersects(f.Geometry, tb) {
			continue
		}
		// Clip and ProjectToTile mutate geometry in place.
		clone := geojson.NewFeature(orb.Clone(f.Geometry))
		for k, v := range f.Properties {
			clone.Properties[k] = v
		}
		fc.Append(clone)
	}
	if len(fc.Features) == 0 {
		return nil, nil
	}

	layer := mvt.NewLayer(layerName, fc)
	if eps := simplifyEpsilon(t.Z); eps > 0 {
		layer.Simplify(simplify.DouglasPeucker(eps))
	}
	layer.Clip(tb)
	layer.ProjectToTile(t)
	layer.RemoveEmpty(0.5, 0.5)
	if len(layer.Features) == 0 {
		return nil, nil
	}

	data, err := mvt.MarshalGzipped(mvt.Layers{layer})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "encode tile %v", t)
	}
	return data, nil
}

// intersects checks a geometry against a tile bound more tightly than the
// bounding boxes alone.
func intersects(g orb.Geometry, tb orb.Bound) bool {
	if !g.Bound().Intersects(tb) {
		return false
	}
	poly, ok := g.(orb.Polygon)
	if !ok {
		return true
	}
	for _, ring := range poly {
		for _, p := range ring {
			if tb.Contains(p) {
				return true
			}
		}
	}
	corners := []orb.Point{tb.Min, {tb.Max[0], tb.Min[1]}, tb.Max, {tb.Min[0], tb.Max[1]}, tb.Center()}
	for _, p := range corners {
		if planar.PolygonContains(poly, p) {
			return true
		}
	}
	return false
}

// tilesInBound lists the tiles at zoom covering b.
func tilesInBound(b orb.Bound, zoom maptile.Zoom) []maptile.Tile {
	minT := maptile.At(b.Min, zoom)
	maxT := maptile.At(b.Max, zoom)
	minX, maxX := minT.X, maxT.X
	if minX > maxX {
		minX, maxX = maxX, minX
	}
	minY, maxY := minT.Y, maxT.Y
	if minY > maxY {
		minY, maxY = maxY, minY
	}

	var out []maptile.Tile
	for x := minX; x <= maxX; x++ {
		for y := minY; y <= maxY; y++ {
			out = append(out, maptile.New(x, y, zoom))
		}
	}
	return out
}

// simplifyEpsilon is the Douglas-Peucker tolerance in degrees. Panel rings
// are about 1e-5 degrees across, so tolerances stay below that.
func simplifyEpsilon(zoom maptile.Zoom) float64 {
	switch {
	case zoom >= 18:
		return 0
	case zoom >= 16:
		return 1e-7
	default:
		return 1e-6
	}
}
