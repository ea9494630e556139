package main

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
)

var (
	colorCyan  = lipgloss.Color("36")
	colorGreen = lipgloss.Color("35")
	colorBlue  = lipgloss.Color("75")
	colorDim   = lipgloss.Color("240")

	styleTitle   = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	styleLink    = lipgloss.NewStyle().Foreground(colorBlue).Underline(true)
	styleDim     = lipgloss.NewStyle().Foreground(colorDim)
	styleSuccess = lipgloss.NewStyle().Foreground(colorGreen)
)

// printBanner writes the startup summary of the server.
func printBanner(w io.Writer, baseURL, dataDir, cache string) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, styleTitle.Render("plat-solar API server"))
	row := func(label, value string) {
		fmt.Fprintf(w, "  %s %s\n", styleDim.Render(fmt.Sprintf("%-8s", label)), value)
	}
	row("Server:", styleLink.Render(baseURL))
	row("Data:", dataDir)
	row("Cache:", cache)
	row("Docs:", styleLink.Render(baseURL+"/docs"))
	row("OpenAPI:", styleLink.Render(baseURL+"/openapi.json"))
	row("Events:", styleLink.Render(baseURL+"/api/v1/events"))
	fmt.Fprintln(w)
}

// printWritten reports a file written by an offline command.
func printWritten(w io.Writer, path string) {
	fmt.Fprintln(w, styleSuccess.Render("✓")+" "+path)
}
