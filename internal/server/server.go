// Package server wires the solar services into one HTTP handler: the Huma
// REST API on a chi router, the Datastar event stream and a CORS-enabled
// file server for generated PMTiles.
package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/joeblew999/plat-solar/internal/api"
	"github.com/joeblew999/plat-solar/internal/cache"
	"github.com/joeblew999/plat-solar/internal/db"
	"github.com/joeblew999/plat-solar/internal/render"
	"github.com/joeblew999/plat-solar/internal/service"
)

// Config holds the server configuration.
type Config struct {
	Host    string
	Port    string
	DataDir string
	// Cache is "file", "none" or a redis:// URL. Empty means "file".
	Cache string
	// Styles is an optional YAML or TOML file overriding layer palettes.
	Styles string
	// Extensions are DuckDB extensions to load, e.g. "spatial".
	Extensions []string
	Logger     *log.Logger
}

// Server is the solar HTTP server.
type Server struct {
	config   Config
	router   chi.Router
	humaAPI  huma.API
	db       *sql.DB
	cache    cache.Cache
	services *api.Services
	logger   *log.Logger
}

// New creates a solar server. A DuckDB failure only disables the panel
// store and the SQL endpoints; a bad cache or styles setting is an error.
func New(cfg Config) (*Server, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	styles, err := render.LoadStyles(cfg.Styles)
	if err != nil {
		return nil, err
	}
	if err := styles.Validate(); err != nil {
		return nil, err
	}
	c, err := cache.Open(cfg.Cache, cfg.DataDir)
	if err != nil {
		return nil, err
	}

	s := &Server{
		config: cfg,
		cache:  c,
		logger: logger,
	}

	var store *db.PanelStore
	conn, err := db.Open(db.Config{
		DataDir:    cfg.DataDir,
		Extensions: cfg.Extensions,
		Logger:     logger,
	})
	if err == nil {
		store, err = db.NewPanelStore(context.Background(), conn)
	}
	if err != nil {
		logger.Warn("duckdb unavailable, panel store disabled", "error", err)
		if conn != nil {
			conn.Close()
		}
		store = nil
	} else {
		s.db = conn
	}

	bus := service.NewEventBus()
	buildings := service.NewBuildingService(cfg.DataDir, bus, logger)
	panelSvc := service.NewPanelService(buildings, store, c, logger)
	rasters := service.NewRasterService(cfg.DataDir)
	s.services = &api.Services{
		Buildings: buildings,
		Panels:    panelSvc,
		Rasters:   rasters,
		Render: service.NewRenderService(service.RenderConfig{
			Rasters: rasters,
			Cache:   c,
			Bus:     bus,
			Styles:  styles,
			Logger:  logger,
		}),
		Tiles:   service.NewTileService(cfg.DataDir, panelSvc, bus),
		Bus:     bus,
		DB:      s.db,
		DataDir: cfg.DataDir,
	}

	router := chi.NewMux()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(requestLogger(logger))
	router.Use(middleware.Recoverer)
	s.router = router

	humaConfig := huma.DefaultConfig("plat-solar API", api.Version)
	humaConfig.Info.Description = "Solar potential of buildings: panel layouts, sizing and rendered data layers."
	humaConfig.Servers = []*huma.Server{
		{URL: fmt.Sprintf("http://%s:%s", DisplayHost(cfg.Host), cfg.Port), Description: "Local server"},
	}
	// Disable $schema property in responses (cleaner JSON)
	humaConfig.CreateHooks = []func(huma.Config) huma.Config{}
	humaConfig.Transformers = append(humaConfig.Transformers, api.LinkTransformer())
	s.humaAPI = humachi.New(router, humaConfig)

	s.routes()
	return s, nil
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// OpenAPI returns the OpenAPI document of the REST API.
func (s *Server) OpenAPI() *huma.OpenAPI {
	return s.humaAPI.OpenAPI()
}

// Services exposes the wired services, mainly for the CLI.
func (s *Server) Services() *api.Services {
	return s.services
}

// Close closes server resources.
func (s *Server) Close() error {
	var firstErr error
	if s.db != nil {
		firstErr = s.db.Close()
	}
	if err := s.cache.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

func (s *Server) routes() {
	api.RegisterRoutes(s.humaAPI, s.services)

	tilesDir := filepath.Join(s.config.DataDir, "tiles")
	s.router.Handle("/tiles/*", http.StripPrefix("/tiles/", s.handleTiles(tilesDir)))
	s.router.Get("/", s.handleRoot)
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"service": "plat-solar",
		"status":  "running",
		"docs":    "/docs",
	})
}

// handleTiles serves PMTiles archives with the CORS and Range headers map
// clients need to read them directly.
func (s *Server) handleTiles(tilesDir string) http.Handler {
	files := http.FileServer(http.Dir(tilesDir))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, HEAD, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Range")
		w.Header().Set("Access-Control-Expose-Headers", "Content-Length, Content-Range, Accept-Ranges")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		files.ServeHTTP(w, r)
	})
}

// requestLogger logs one line per request at debug level.
func requestLogger(logger *log.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Debug("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"id", middleware.GetReqID(r.Context()),
			)
		})
	}
}

// DisplayHost maps the wildcard bind address to something a browser can open.
func DisplayHost(host string) string {
	if host == "" || host == "0.0.0.0" {
		return "localhost"
	}
	return host
}
