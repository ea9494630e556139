package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/joeblew999/plat-solar/internal/api"
	"github.com/joeblew999/plat-solar/internal/server"
)

// Options defines all CLI flags and env vars for the solar server.
// Flags: --host, --port, --data-dir, --cache, --styles, --spatial, --verbose
// Env vars: SERVICE_HOST, SERVICE_PORT, SERVICE_DATA_DIR, SERVICE_CACHE, ...
type Options struct {
	Host    string `doc:"Host to bind to" default:"0.0.0.0"`
	Port    int    `doc:"Port to listen on" short:"p" default:"8086"`
	DataDir string `doc:"Directory for buildings, rasters, tiles and the database" default:".data"`
	Cache   string `doc:"Render cache: file, none or redis://host:6379/0" default:"file"`
	Styles  string `doc:"YAML or TOML file overriding layer palettes and ranges"`
	Spatial bool   `doc:"Load the DuckDB spatial extension (may download it)"`
	Verbose bool   `doc:"Enable debug logging" short:"v"`
}

func newLogger(verbose bool) *log.Logger {
	level := log.InfoLevel
	if verbose {
		level = log.DebugLevel
	}
	return log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

func newServer(opts *Options, logger *log.Logger) (*server.Server, error) {
	var ext []string
	if opts.Spatial {
		ext = []string{"spatial"}
	}
	return server.New(server.Config{
		Host:       opts.Host,
		Port:       fmt.Sprintf("%d", opts.Port),
		DataDir:    opts.DataDir,
		Cache:      opts.Cache,
		Styles:     opts.Styles,
		Extensions: ext,
		Logger:     logger,
	})
}

func main() {
	cli := humacli.New(func(hooks humacli.Hooks, opts *Options) {
		logger := newLogger(opts.Verbose)
		// OnStop runs on the signal goroutine while OnStart may still be
		// setting up.
		var (
			mu  sync.Mutex
			srv *server.Server
			hs  *http.Server
		)

		hooks.OnStart(func() {
			s, err := newServer(opts, logger)
			if err != nil {
				logger.Fatal("server setup failed", "error", err)
			}
			addr := fmt.Sprintf("%s:%d", opts.Host, opts.Port)
			baseURL := fmt.Sprintf("http://%s:%d", server.DisplayHost(opts.Host), opts.Port)

			printBanner(os.Stderr, baseURL, opts.DataDir, opts.Cache)

			h := &http.Server{
				Addr:              addr,
				Handler:           s,
				ReadHeaderTimeout: 10 * time.Second,
			}
			mu.Lock()
			srv, hs = s, h
			mu.Unlock()
			if err := h.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Fatal("server error", "error", err)
			}
		})

		hooks.OnStop(func() {
			mu.Lock()
			defer mu.Unlock()
			if hs == nil {
				return
			}
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			logger.Info("shutting down")
			if err := hs.Shutdown(ctx); err != nil {
				logger.Error("shutdown", "error", err)
			}
			if err := srv.Close(); err != nil {
				logger.Error("close", "error", err)
			}
		})
	})

	cli.Root().Use = "solar"
	cli.Root().Short = "Solar potential of buildings: panels, sizing and data layers"
	cli.Root().Version = api.Version

	// spec subcommand: export OpenAPI spec
	specCmd := &cobra.Command{
		Use:   "spec",
		Short: "Export OpenAPI spec (JSON by default, --yaml for YAML)",
		Run: humacli.WithOptions(func(cmd *cobra.Command, args []string, opts *Options) {
			logger := newLogger(opts.Verbose)
			opts.Cache = "none"
			srv, err := newServer(opts, logger)
			if err != nil {
				logger.Fatal("server setup failed", "error", err)
			}
			defer srv.Close()
			spec := srv.OpenAPI()

			useYAML, _ := cmd.Flags().GetBool("yaml")

			var output []byte
			if useYAML {
				output, err = yaml.Marshal(spec)
			} else {
				output, err = json.MarshalIndent(spec, "", "  ")
			}
			if err != nil {
				logger.Fatal("marshal spec", "error", err)
			}
			fmt.Println(string(output))
		}),
	}
	specCmd.Flags().BoolP("yaml", "y", false, "Output as YAML instead of JSON")
	cli.Root().AddCommand(specCmd)

	cli.Root().AddCommand(renderCommand(), panelsCommand(), findConfigCommand())

	cli.Run()
}
