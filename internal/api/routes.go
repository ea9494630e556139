// Package api defines the Huma API routes and handlers.
package api

import (
	"context"
	"database/sql"

	"github.com/danielgtaylor/huma/v2"
	"github.com/paulmach/orb/geojson"

	"github.com/joeblew999/plat-solar/internal/db"
	"github.com/joeblew999/plat-solar/internal/palette"
	"github.com/joeblew999/plat-solar/internal/raster"
	"github.com/joeblew999/plat-solar/internal/service"
	"github.com/joeblew999/plat-solar/internal/solar"
	"github.com/joeblew999/plat-solar/internal/tiler"
)

// Version is reported by /health and /api/v1/info.
const Version = "0.1.0"

// Services holds the service dependencies for API handlers.
type Services struct {
	Buildings *service.BuildingService
	Panels    *service.PanelService
	Rasters   *service.RasterService
	Render    *service.RenderService
	Tiles     *service.TileService
	Bus       *service.EventBus
	DB        *sql.DB
	DataDir   string
}

// RegisterRoutes registers every handler of the API.
func RegisterRoutes(api huma.API, svc *Services) {
	huma.AutoRegister(api, NewAPIHandler(svc))
	NewInfoHandler(svc.DataDir, svc.DB != nil).RegisterRoutes(api)
	NewDBHandler(svc.DB).RegisterRoutes(api)
	NewEventHandler(svc.Bus).RegisterRoutes(api)
}

// Types

type IDInput struct {
	ID string `path:"id" doc:"Building ID" example:"ChIJh0CMPQW7j4ARLrRiVvmg6Vs"`
}

type MessageBody struct {
	Message string `json:"message" doc:"Result message"`
}

type HealthBody struct {
	Status  string `json:"status" doc:"Health status" example:"ok"`
	Version string `json:"version" doc:"API version" example:"0.1.0"`
}

type BuildingOutput struct {
	Body solar.BuildingInsights
}

type StoredBuildingBody struct {
	ID       string                 `json:"id" doc:"Building ID"`
	Insights solar.BuildingInsights `json:"insights" doc:"Normalized insights, panels sorted by yield"`
	Radius   float64                `json:"dataLayersRadius" doc:"Radius in meters to request data layers with"`
}

type PanelsInput struct {
	IDInput
	Count int `query:"count" minimum:"0" doc:"Number of panels to lay out, 0 for all"`
}

type PanelsOutput struct {
	Body *geojson.FeatureCollection
}

type FindConfigBody struct {
	Configs              []solar.SolarPanelConfig `json:"configs" doc:"Candidate configurations, ascending panel count"`
	YearlyKwhConsumption float64                  `json:"yearlyKwhConsumption" minimum:"0" doc:"Yearly consumption to cover"`
	PanelCapacityRatio   float64                  `json:"panelCapacityRatio,omitempty" default:"1" doc:"Installed to provider panel capacity"`
	DcToAcDerate         float64                  `json:"dcToAcDerate,omitempty" default:"0.9" minimum:"0" maximum:"1" doc:"Inverter DC to AC efficiency"`
}

type FindConfigResult struct {
	Index int `json:"index" doc:"Index of the smallest configuration that covers the consumption"`
}

type RenderInput struct {
	IDInput
	Layer      string `path:"layer" doc:"Layer ID" enum:"mask,dsm,rgb,annualFlux,monthlyFlux,hourlyShade"`
	Month      int    `query:"month" doc:"Month for hourlyShade, 0 = January"`
	Day        int    `query:"day" doc:"Day of month for hourlyShade, 0 = the 14th"`
	Mask       bool   `query:"mask" doc:"Hide pixels outside the roof"`
	Session    string `query:"session" doc:"Client session; generations are tracked per session and building"`
	Generation int64  `query:"generation" minimum:"0" doc:"Client generation number, 0 to let the server assign one"`
}

type TilesInput struct {
	IDInput
	Count int `query:"count" minimum:"0" doc:"Number of panels to tile, 0 for all"`
	Body  *tiler.Config `required:"false"`
}

type TilesResult struct {
	File  service.TileFile `json:"file"`
	Stats tiler.Stats      `json:"stats"`
}

type PaletteInput struct {
	Name string `path:"name" doc:"Palette name" example:"iron"`
}

type PaletteBody struct {
	Name          string   `json:"name"`
	ControlColors []string `json:"controlColors" doc:"Colors the ramp interpolates"`
	Colors        []string `json:"colors" doc:"The 256 palette entries"`
}

// APIHandler holds all REST API handlers. Methods named Register* are
// auto-discovered by huma.AutoRegister.
type APIHandler struct {
	svc *Services
}

func NewAPIHandler(svc *Services) *APIHandler {
	return &APIHandler{svc: svc}
}

// RegisterHealth registers health check routes.
func (h *APIHandler) RegisterHealth(api huma.API) {
	huma.Get(api, "/health", h.GetHealth, huma.OperationTags("health"))
}

// RegisterBuildings registers building CRUD routes.
func (h *APIHandler) RegisterBuildings(api huma.API) {
	huma.Get(api, "/api/v1/buildings", h.GetBuildings, huma.OperationTags("buildings"))
	huma.Post(api, "/api/v1/buildings", h.CreateBuilding, huma.OperationTags("buildings"))
	huma.Get(api, "/api/v1/buildings/{id}", h.GetBuilding, huma.OperationTags("buildings"))
	huma.Put(api, "/api/v1/buildings/{id}", h.PutBuilding, huma.OperationTags("buildings"))
	huma.Delete(api, "/api/v1/buildings/{id}", h.DeleteBuilding, huma.OperationTags("buildings"))
}

// RegisterPanels registers panel layout and sizing routes.
func (h *APIHandler) RegisterPanels(api huma.API) {
	huma.Get(api, "/api/v1/buildings/{id}/panels", h.GetPanels, huma.OperationTags("panels"))
	huma.Get(api, "/api/v1/buildings/{id}/yield", h.GetYield, huma.OperationTags("panels"))
	huma.Post(api, "/api/v1/buildings/{id}/config", h.SelectConfig, huma.OperationTags("panels"))
	huma.Post(api, "/api/v1/config/find", h.FindConfig, huma.OperationTags("panels"))
}

// RegisterLayers registers raster layer routes.
func (h *APIHandler) RegisterLayers(api huma.API) {
	huma.Get(api, "/api/v1/buildings/{id}/layers", h.GetLayers, huma.OperationTags("layers"))
	huma.Get(api, "/api/v1/buildings/{id}/layers/{layer}", h.RenderLayer, huma.OperationTags("layers"))
	huma.Get(api, "/api/v1/palettes", h.GetPalettes, huma.OperationTags("layers"))
	huma.Get(api, "/api/v1/palettes/{name}", h.GetPalette, huma.OperationTags("layers"))
}

// RegisterTiles registers tile routes.
func (h *APIHandler) RegisterTiles(api huma.API) {
	huma.Get(api, "/api/v1/tiles", h.GetTiles, huma.OperationTags("tiles"))
	huma.Post(api, "/api/v1/buildings/{id}/tiles", h.CreateTiles, huma.OperationTags("tiles"))
}

// Handlers

func (h *APIHandler) GetHealth(ctx context.Context, input *struct{}) (*struct{ Body HealthBody }, error) {
	return &struct{ Body HealthBody }{Body: HealthBody{Status: "ok", Version: Version}}, nil
}

type ListBuildingsOutput struct {
	Link  string `header:"Link" doc:"Pagination links"`
	Total int    `header:"X-Total-Count" doc:"Number of stored buildings"`
	Body  []service.BuildingSummary
}

func (h *APIHandler) GetBuildings(ctx context.Context, input *PageInput) (*ListBuildingsOutput, error) {
	all := []service.BuildingSummary{}
	if h.svc != nil && h.svc.Buildings != nil {
		all = h.svc.Buildings.List()
	}
	return &ListBuildingsOutput{
		Link:  paginationLinks("/api/v1/buildings", *input, len(all)),
		Total: len(all),
		Body:  page(all, *input),
	}, nil
}

func (h *APIHandler) CreateBuilding(ctx context.Context, input *struct{ Body solar.BuildingInsights }) (*struct{ Body StoredBuildingBody }, error) {
	return h.storeBuilding("", input.Body)
}

func (h *APIHandler) PutBuilding(ctx context.Context, input *struct {
	IDInput
	Body solar.BuildingInsights
}) (*struct{ Body StoredBuildingBody }, error) {
	return h.storeBuilding(input.ID, input.Body)
}

func (h *APIHandler) storeBuilding(id string, bi solar.BuildingInsights) (*struct{ Body StoredBuildingBody }, error) {
	if h.svc == nil || h.svc.Buildings == nil {
		return nil, huma.Error503ServiceUnavailable("service not available")
	}
	id, stored, err := h.svc.Buildings.Put(id, bi)
	if err != nil {
		return nil, httpError(err)
	}
	return &struct{ Body StoredBuildingBody }{Body: StoredBuildingBody{
		ID:       id,
		Insights: stored,
		Radius:   solar.DataLayersRadius(stored.BoundingBox),
	}}, nil
}

func (h *APIHandler) GetBuilding(ctx context.Context, input *IDInput) (*BuildingOutput, error) {
	if h.svc == nil || h.svc.Buildings == nil {
		return nil, huma.Error503ServiceUnavailable("service not available")
	}
	bi, err := h.svc.Buildings.Get(input.ID)
	if err != nil {
		return nil, httpError(err)
	}
	return &BuildingOutput{Body: bi}, nil
}

func (h *APIHandler) DeleteBuilding(ctx context.Context, input *IDInput) (*struct{ Body MessageBody }, error) {
	if h.svc == nil || h.svc.Buildings == nil {
		return nil, huma.Error503ServiceUnavailable("service not available")
	}
	if err := h.svc.Buildings.Delete(input.ID); err != nil {
		return nil, httpError(err)
	}
	return &struct{ Body MessageBody }{Body: MessageBody{Message: "Building deleted"}}, nil
}

func (h *APIHandler) GetPanels(ctx context.Context, input *PanelsInput) (*PanelsOutput, error) {
	if h.svc == nil || h.svc.Panels == nil {
		return nil, huma.Error503ServiceUnavailable("service not available")
	}
	fc, err := h.svc.Panels.FeatureCollection(ctx, input.ID, input.Count)
	if err != nil {
		return nil, httpError(err)
	}
	return &PanelsOutput{Body: fc}, nil
}

func (h *APIHandler) GetYield(ctx context.Context, input *IDInput) (*struct{ Body []db.SegmentYield }, error) {
	if h.svc == nil || h.svc.Panels == nil || h.svc.DB == nil {
		return nil, huma.Error503ServiceUnavailable("Database not available")
	}
	yield, err := h.svc.Panels.YieldBySegment(ctx, input.ID)
	if err != nil {
		return nil, httpError(err)
	}
	return &struct{ Body []db.SegmentYield }{Body: yield}, nil
}

func (h *APIHandler) SelectConfig(ctx context.Context, input *struct {
	IDInput
	Body solar.Consumption
}) (*struct{ Body solar.Selection }, error) {
	if h.svc == nil || h.svc.Panels == nil {
		return nil, huma.Error503ServiceUnavailable("service not available")
	}
	sel, err := h.svc.Panels.Select(input.ID, input.Body)
	if err != nil {
		return nil, httpError(err)
	}
	return &struct{ Body solar.Selection }{Body: sel}, nil
}

func (h *APIHandler) FindConfig(ctx context.Context, input *struct{ Body FindConfigBody }) (*struct{ Body FindConfigResult }, error) {
	b := input.Body
	if b.PanelCapacityRatio == 0 {
		b.PanelCapacityRatio = 1
	}
	if b.DcToAcDerate == 0 {
		b.DcToAcDerate = solar.DefaultDcToAcDerate
	}
	idx, err := solar.FindSolarConfig(b.Configs, b.YearlyKwhConsumption, b.PanelCapacityRatio, b.DcToAcDerate)
	if err != nil {
		return nil, httpError(err)
	}
	return &struct{ Body FindConfigResult }{Body: FindConfigResult{Index: idx}}, nil
}

func (h *APIHandler) GetLayers(ctx context.Context, input *IDInput) (*struct{ Body []service.LayerFile }, error) {
	if h.svc == nil || h.svc.Rasters == nil {
		return &struct{ Body []service.LayerFile }{Body: []service.LayerFile{}}, nil
	}
	files, err := h.svc.Rasters.List(input.ID)
	if err != nil {
		return nil, httpError(err)
	}
	return &struct{ Body []service.LayerFile }{Body: files}, nil
}

func (h *APIHandler) RenderLayer(ctx context.Context, input *RenderInput) (*struct{ Body service.RenderResult }, error) {
	if h.svc == nil || h.svc.Render == nil {
		return nil, huma.Error503ServiceUnavailable("service not available")
	}
	res, err := h.svc.Render.Render(ctx, service.RenderRequest{
		Building:   input.ID,
		Layer:      raster.LayerID(input.Layer),
		Month:      input.Month,
		Day:        input.Day,
		Mask:       input.Mask,
		Session:    input.Session,
		Generation: uint64(input.Generation),
	})
	if err != nil {
		return nil, httpError(err)
	}
	return &struct{ Body service.RenderResult }{Body: res}, nil
}

func (h *APIHandler) GetPalettes(ctx context.Context, input *struct{}) (*struct{ Body []string }, error) {
	return &struct{ Body []string }{Body: palette.Names()}, nil
}

func (h *APIHandler) GetPalette(ctx context.Context, input *PaletteInput) (*struct{ Body PaletteBody }, error) {
	controls, ok := palette.ControlColors(input.Name)
	if !ok {
		return nil, huma.Error404NotFound("palette not found")
	}
	p, err := palette.Named(input.Name)
	if err != nil {
		return nil, httpError(err)
	}
	return &struct{ Body PaletteBody }{Body: PaletteBody{
		Name:          input.Name,
		ControlColors: controls,
		Colors:        p.Hex(),
	}}, nil
}

func (h *APIHandler) GetTiles(ctx context.Context, input *struct{}) (*struct{ Body []service.TileFile }, error) {
	if h.svc == nil || h.svc.Tiles == nil {
		return &struct{ Body []service.TileFile }{Body: []service.TileFile{}}, nil
	}
	tiles, err := h.svc.Tiles.List()
	if err != nil {
		return &struct{ Body []service.TileFile }{Body: []service.TileFile{}}, nil
	}
	return &struct{ Body []service.TileFile }{Body: tiles}, nil
}

func (h *APIHandler) CreateTiles(ctx context.Context, input *TilesInput) (*struct{ Body TilesResult }, error) {
	if h.svc == nil || h.svc.Tiles == nil {
		return nil, huma.Error503ServiceUnavailable("service not available")
	}
	var cfg tiler.Config
	if input.Body != nil {
		cfg = *input.Body
	}
	file, stats, err := h.svc.Tiles.Generate(ctx, input.ID, input.Count, cfg)
	if err != nil {
		return nil, httpError(err)
	}
	return &struct{ Body TilesResult }{Body: TilesResult{File: file, Stats: stats}}, nil
}
