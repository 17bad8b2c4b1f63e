package ui

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"bizinsight/app"
	"bizinsight/internal"
)

// App is the dashboard served on a chi router
type App struct {
	router    *chi.Mux
	dashboard *dashboard
	config    Config
}

// NewApp creates the chi application
func NewApp(service *app.DashboardService, config Config, log *internal.Logger) (*App, error) {
	d, err := newDashboard(service, config, log)
	if err != nil {
		return nil, err
	}
	a := &App{router: chi.NewRouter(), dashboard: d, config: config}
	if err := a.setupMiddleware(); err != nil {
		return nil, err
	}
	a.setupRoutes()
	return a, nil
}

// setupMiddleware configures HTTP middleware
func (a *App) setupMiddleware() error {
	a.router.Use(middleware.Logger)
	a.router.Use(a.recoverer)
	a.router.Use(middleware.Compress(5))

	assets, err := staticFS()
	if err != nil {
		return err
	}
	a.router.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(assets))))
	return nil
}

// recoverer turns a handler panic into a 500 carrying the usual "Error: " text
func (a *App) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			recovered := recover()
			if recovered == nil {
				return
			}
			if recovered == http.ErrAbortHandler {
				panic(recovered)
			}
			a.dashboard.log.Error("[App] panic serving %s: %v", r.URL.Path, recovered)
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			w.WriteHeader(http.StatusInternalServerError)
			fmt.Fprintf(w, "Error: %v", recovered)
		}()
		next.ServeHTTP(w, r)
	})
}

func (a *App) setupRoutes() {
	a.router.Get("/", a.handleIndex)
	a.router.Post("/upload", a.handleUpload)
	a.router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})
}

// Handler exposes the router, mainly for tests
func (a *App) Handler() http.Handler {
	return a.router
}

// Start starts the HTTP server
func (a *App) Start() error {
	addr := ":" + a.config.Port
	a.dashboard.log.Info("[App] starting dashboard on %s", addr)
	return http.ListenAndServe(addr, a.router)
}

func (a *App) handleIndex(w http.ResponseWriter, r *http.Request) {
	a.renderTemplate(w, http.StatusOK, indexTemplate, a.dashboard.page())
}

func (a *App) handleUpload(w http.ResponseWriter, r *http.Request) {
	data, status := a.dashboard.analyzeUpload(w, r)
	a.renderTemplate(w, status, templateFor(r), data)
}

func (a *App) renderTemplate(w http.ResponseWriter, status int, name string, data pageData) {
	body, err := a.dashboard.render(name, data)
	if err != nil {
		http.Error(w, "Template error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	w.Write(body)
}
