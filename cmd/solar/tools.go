package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/spf13/cobra"

	"github.com/joeblew999/plat-solar/internal/panels"
	"github.com/joeblew999/plat-solar/internal/raster"
	"github.com/joeblew999/plat-solar/internal/render"
	"github.com/joeblew999/plat-solar/internal/solar"
)

// Offline subcommands work on files directly and need no server.

func renderCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render a raster layer sidecar to PNG files",
		Args:  cobra.NoArgs,
		Run: humacli.WithOptions(func(cmd *cobra.Command, args []string, opts *Options) {
			logger := newLogger(opts.Verbose)
			meta, _ := cmd.Flags().GetString("meta")
			out, _ := cmd.Flags().GetString("output")
			month, _ := cmd.Flags().GetInt("month")
			day, _ := cmd.Flags().GetInt("day")
			mask, _ := cmd.Flags().GetBool("mask")

			styles, err := render.LoadStyles(opts.Styles)
			if err != nil {
				logger.Fatal("load styles", "error", err)
			}
			files, err := renderFiles(meta, out, render.Options{ApplyMask: mask, Month: month, Day: day, Styles: styles})
			if err != nil {
				logger.Fatal("render failed", "meta", meta, "error", err)
			}
			for _, f := range files {
				printWritten(os.Stderr, f)
			}
		}),
	}
	cmd.Flags().String("meta", "", "Layer sidecar (.json or .yaml)")
	cmd.Flags().StringP("output", "o", ".", "Output directory")
	cmd.Flags().Int("month", 0, "Month for hourlyShade, 0 = January")
	cmd.Flags().Int("day", render.DefaultDay, "Day of month for hourlyShade")
	cmd.Flags().Bool("mask", false, "Hide pixels outside the roof mask")
	cmd.MarkFlagRequired("meta")
	return cmd
}

// renderFiles renders the layer described by the sidecar at metaPath into
// outDir: one <layer>-NN.png per time slice plus <layer>-legend.json.
func renderFiles(metaPath, outDir string, opts render.Options) ([]string, error) {
	layer, meta, err := raster.Load(os.DirFS(filepath.Dir(metaPath)), filepath.Base(metaPath))
	if err != nil {
		return nil, err
	}
	bitmaps, err := render.Render(layer, opts)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return nil, err
	}

	var files []string
	for i, bm := range bitmaps {
		data, err := bm.PNG()
		if err != nil {
			return files, err
		}
		name := filepath.Join(outDir, fmt.Sprintf("%s-%02d.png", meta.Layer, i))
		if err := os.WriteFile(name, data, 0644); err != nil {
			return files, err
		}
		files = append(files, name)
	}

	legend, err := json.MarshalIndent(render.NewLegend(layer, opts.Styles), "", "  ")
	if err != nil {
		return files, err
	}
	name := filepath.Join(outDir, fmt.Sprintf("%s-legend.json", meta.Layer))
	if err := os.WriteFile(name, legend, 0644); err != nil {
		return files, err
	}
	return append(files, name), nil
}

func panelsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "panels insights.json",
		Short: "Print the panel layout of a building as GeoJSON",
		Args:  cobra.ExactArgs(1),
		Run: humacli.WithOptions(func(cmd *cobra.Command, args []string, opts *Options) {
			logger := newLogger(opts.Verbose)
			count, _ := cmd.Flags().GetInt("count")
			bi, err := loadInsights(args[0])
			if err != nil {
				logger.Fatal("load insights", "file", args[0], "error", err)
			}
			if err := writePanels(os.Stdout, bi, count); err != nil {
				logger.Fatal("layout failed", "error", err)
			}
		}),
	}
	cmd.Flags().IntP("count", "n", 0, "Number of panels to lay out, 0 for all")
	return cmd
}

// writePanels lays out the first count panels (all when count is 0) and
// writes them as a GeoJSON FeatureCollection.
func writePanels(w io.Writer, bi solar.BuildingInsights, count int) error {
	polys, err := panels.Layout(bi.SolarPotential, nil)
	if err != nil {
		return err
	}
	if count > 0 {
		polys = panels.Visible(polys, count)
	}
	data, err := json.MarshalIndent(panels.FeatureCollection(polys), "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func findConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "find-config insights.json",
		Short: "Pick the smallest panel configuration covering a household's consumption",
		Args:  cobra.ExactArgs(1),
		Run: humacli.WithOptions(func(cmd *cobra.Command, args []string, opts *Options) {
			logger := newLogger(opts.Verbose)
			var c solar.Consumption
			c.MonthlyBill, _ = cmd.Flags().GetFloat64("bill")
			c.EnergyCostPerKwh, _ = cmd.Flags().GetFloat64("cost")
			c.PanelCapacityWatts, _ = cmd.Flags().GetFloat64("watts")
			c.DcToAcDerate, _ = cmd.Flags().GetFloat64("derate")

			bi, err := loadInsights(args[0])
			if err != nil {
				logger.Fatal("load insights", "file", args[0], "error", err)
			}
			if err := writeSelection(os.Stdout, bi, c); err != nil {
				logger.Fatal("find config failed", "error", err)
			}
		}),
	}
	cmd.Flags().Float64("bill", solar.DefaultMonthlyBill, "Average monthly energy bill")
	cmd.Flags().Float64("cost", solar.DefaultEnergyCostPerKwh, "Energy cost per kWh")
	cmd.Flags().Float64("watts", 0, "Capacity of the panel to install, 0 for the provider's panel")
	cmd.Flags().Float64("derate", solar.DefaultDcToAcDerate, "Inverter DC to AC efficiency")
	return cmd
}

func writeSelection(w io.Writer, bi solar.BuildingInsights, c solar.Consumption) error {
	sel, err := solar.Select(bi.SolarPotential, c)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(sel)
}

// loadInsights reads a buildingInsights response and normalizes it.
func loadInsights(path string) (solar.BuildingInsights, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return solar.BuildingInsights{}, err
	}
	var bi solar.BuildingInsights
	if err := json.Unmarshal(data, &bi); err != nil {
		return solar.BuildingInsights{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return solar.Normalize(bi)
}
