package ui

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"net/http"

	"github.com/dustin/go-humanize"

	"bizinsight/app"
	"bizinsight/internal"
)

// uploadField is the multipart field carrying the file
const uploadField = "file"

// Config holds UI settings shared by the gin server and the chi app
type Config struct {
	Port           string
	MaxUploadBytes int64
}

// dashboard holds the handler logic both routers delegate to
type dashboard struct {
	service        *app.DashboardService
	templates      *template.Template
	maxUploadBytes int64
	log            *internal.Logger
}

func newDashboard(service *app.DashboardService, config Config, log *internal.Logger) (*dashboard, error) {
	if service == nil {
		return nil, fmt.Errorf("dashboard service is required")
	}
	if log == nil {
		log = internal.DefaultLogger
	}
	templates, err := parseTemplates()
	if err != nil {
		return nil, err
	}
	return &dashboard{
		service:        service,
		templates:      templates,
		maxUploadBytes: config.MaxUploadBytes,
		log:            log,
	}, nil
}

func (d *dashboard) page() pageData {
	data := pageData{
		NarrativeEnabled: d.service.NarrativeEnabled(),
		Accept:           acceptList(),
	}
	if d.maxUploadBytes > 0 {
		data.UploadLimit = humanize.IBytes(uint64(d.maxUploadBytes))
	}
	return data
}

// analyzeUpload reads the uploaded file and runs the pipeline. The status is
// 200 for a completed run and 4xx when the upload itself could not be used.
func (d *dashboard) analyzeUpload(w http.ResponseWriter, r *http.Request) (pageData, int) {
	data := d.page()
	if d.maxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, d.maxUploadBytes)
	}

	file, header, err := r.FormFile(uploadField)
	if err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge) || (d.maxUploadBytes > 0 && r.ContentLength > d.maxUploadBytes):
			data.Error = fmt.Sprintf("Error: upload exceeds the %s limit", data.UploadLimit)
			return data, http.StatusRequestEntityTooLarge
		case errors.Is(err, http.ErrMissingFile):
			data.Error = "Error: choose a file to upload"
		default:
			data.Error = "Error: " + err.Error()
		}
		d.log.Warn("[Upload] rejected request: %v", err)
		return data, http.StatusBadRequest
	}
	defer file.Close()

	d.log.Info("[Upload] %s (%d bytes)", header.Filename, header.Size)
	data.Report = d.service.Analyze(r.Context(), file, header.Filename)
	if data.Report.Failed() {
		return data, http.StatusUnprocessableEntity
	}
	return data, http.StatusOK
}

// render executes name into a buffer so template errors never leave a
// half-written page
func (d *dashboard) render(name string, data pageData) ([]byte, error) {
	var buf bytes.Buffer
	if err := d.templates.ExecuteTemplate(&buf, name, data); err != nil {
		d.log.Error("[Render] template %s: %v", name, err)
		return nil, err
	}
	return buf.Bytes(), nil
}

// templateFor picks the fragment for HTMX swaps and the full page otherwise
func templateFor(r *http.Request) string {
	if r.Header.Get("HX-Request") == "true" {
		return reportTemplate
	}
	return indexTemplate
}
