// Package service contains the business logic behind the solar API: stored
// building insights, raster layers on disk, render orchestration with
// "latest generation wins", panel layouts and PMTiles export.
package service

import (
	"time"

	"github.com/joeblew999/plat-solar/internal/raster"
	"github.com/joeblew999/plat-solar/internal/render"
)

// BuildingSummary is the listing entry of one stored building.
type BuildingSummary struct {
	ID             string    `json:"id" doc:"Building ID" example:"ChIJh0CMPQW7j4ARLrRiVvmg6Vs"`
	Name           string    `json:"name,omitempty" doc:"Solar API resource name" example:"buildings/ChIJh0CMPQW7j4ARLrRiVvmg6Vs"`
	Panels         int       `json:"panels" doc:"Number of panels in the largest layout"`
	Configs        int       `json:"configs" doc:"Number of panel configurations"`
	ImageryQuality string    `json:"imageryQuality,omitempty" doc:"Imagery quality" example:"HIGH"`
	UpdatedAt      time.Time `json:"updatedAt" doc:"When the insights were stored"`
}

// LayerFile is a raster layer sidecar found on disk.
type LayerFile struct {
	Layer raster.LayerID `json:"layer" doc:"Layer ID" example:"annualFlux"`
	File  string         `json:"file" doc:"Sidecar file name" example:"annualFlux.json"`
	Size  string         `json:"size" doc:"Human-readable size of the payload files" example:"1.2 MB"`
}

// TileFile represents a PMTiles file.
type TileFile struct {
	Name string `json:"name" doc:"PMTiles file name" example:"ChIJh0CMPQW7j4ARLrRiVvmg6Vs.pmtiles"`
	Size string `json:"size" doc:"Human-readable file size" example:"5.4 KB"`
}

// RenderRequest selects one layer rendering.
type RenderRequest struct {
	Building string
	Layer    raster.LayerID
	Month    int
	Day      int
	Mask     bool
	// Session scopes generations; requests of different sessions never
	// supersede each other.
	Session string
	// Generation is the caller's generation number. Zero asks the tracker
	// for the next one.
	Generation uint64
}

// Frame is one rendered time slice.
type Frame struct {
	Slice   int    `json:"slice" doc:"Month (monthlyFlux), hour (hourlyShade) or 0"`
	DataURL string `json:"dataUrl" doc:"PNG as a data URL"`
}

// RenderResult is a rendered layer ready for a map overlay.
type RenderResult struct {
	RequestID  string         `json:"requestId" doc:"Render request ID"`
	Building   string         `json:"building" doc:"Building ID"`
	Layer      raster.LayerID `json:"layer" doc:"Layer ID"`
	Generation uint64         `json:"generation" doc:"Generation this result belongs to"`
	Bounds     raster.Bounds  `json:"bounds" doc:"Geographic footprint, row 0 of every frame is the north edge"`
	Width      int            `json:"width"`
	Height     int            `json:"height"`
	Frames     []Frame        `json:"frames"`
	Legend     render.Legend  `json:"legend"`
	Cached     bool           `json:"cached" doc:"Whether the frames came from the cache"`
}
