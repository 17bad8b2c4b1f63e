package ui

import (
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"strings"

	"bizinsight/adapters/excel"
	"bizinsight/app"
)

//go:embed templates static
var embeddedFiles embed.FS

const (
	indexTemplate  = "index.html"
	reportTemplate = "report.html"
)

// pageData is the view model shared by the full page and the report fragment
type pageData struct {
	NarrativeEnabled bool
	Accept           string
	// UploadLimit is the human-readable size cap; empty when uploads are unlimited
	UploadLimit string
	Report      *app.Report
	// Error is a request-level problem such as a missing or oversized upload
	Error string
}

func parseTemplates() (*template.Template, error) {
	funcMap := template.FuncMap{
		"lineChart":    svgLine,
		"barChart":     svgBars,
		"markdown":     renderMarkdown,
		"join":         strings.Join,
		"add":          func(a, b int) int { return a + b },
		"stageFailed":  func(o app.StageOutcome) bool { return o.Status == app.StatusFailed },
		"errorMessage": func(err error) string { return "Error: " + err.Error() },
	}
	templates, err := template.New("").Funcs(funcMap).ParseFS(embeddedFiles, "templates/*.html", "templates/fragments/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	return templates, nil
}

func staticFS() (fs.FS, error) {
	return fs.Sub(embeddedFiles, "static")
}

func acceptList() string {
	return strings.Join(excel.SupportedExtensions(), ",")
}
