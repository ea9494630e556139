package api

import (
	"context"

	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/plat-solar/internal/palette"
	"github.com/joeblew999/plat-solar/internal/raster"
)

type InfoHandler struct {
	dataDir string
	dbOK    bool
}

func NewInfoHandler(dataDir string, dbOK bool) *InfoHandler {
	return &InfoHandler{dataDir: dataDir, dbOK: dbOK}
}

func (h *InfoHandler) RegisterRoutes(api huma.API) {
	huma.Get(api, "/api/v1/info", h.GetInfo, huma.OperationTags("health"))
}

type InfoBody struct {
	Name     string           `json:"name" doc:"Service name"`
	Version  string           `json:"version" doc:"Service version"`
	DataDir  string           `json:"data_dir" doc:"Data directory path"`
	DB       bool             `json:"db" doc:"Whether database is available"`
	Layers   []raster.LayerID `json:"layers" doc:"Supported raster layers"`
	Palettes []string         `json:"palettes" doc:"Named palettes"`
	Features []string         `json:"features" doc:"Available features"`
}

func (h *InfoHandler) GetInfo(ctx context.Context, input *struct{}) (*struct{ Body InfoBody }, error) {
	features := []string{"layers", "panels", "config", "pmtiles", "events"}
	if h.dbOK {
		features = append(features, "duckdb")
	}
	return &struct{ Body InfoBody }{Body: InfoBody{
		Name:     "plat-solar",
		Version:  Version,
		DataDir:  h.dataDir,
		DB:       h.dbOK,
		Layers:   raster.LayerIDs(),
		Palettes: palette.Names(),
		Features: features,
	}}, nil
}
