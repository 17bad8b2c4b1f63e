package ui

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"bizinsight/app"
	"bizinsight/internal"
)

// Server is the gin web server for the dashboard
type Server struct {
	router    *gin.Engine
	dashboard *dashboard
	log       *internal.Logger
}

// NewServer creates the gin server with routes and middleware installed
func NewServer(service *app.DashboardService, config Config, log *internal.Logger) (*Server, error) {
	d, err := newDashboard(service, config, log)
	if err != nil {
		return nil, err
	}

	router := gin.New()
	router.Use(gin.Logger(), gin.CustomRecovery(func(c *gin.Context, recovered any) {
		d.log.Error("[Server] panic serving %s: %v", c.Request.URL.Path, recovered)
		c.String(http.StatusInternalServerError, "Error: %v", recovered)
	}))
	if config.MaxUploadBytes > 0 {
		router.MaxMultipartMemory = config.MaxUploadBytes
	}

	s := &Server{router: router, dashboard: d, log: d.log}
	if err := s.setupMiddleware(); err != nil {
		return nil, err
	}
	s.setupRoutes()
	return s, nil
}

// setupMiddleware serves the embedded static assets
func (s *Server) setupMiddleware() error {
	assets, err := staticFS()
	if err != nil {
		return err
	}
	s.router.StaticFS("/static", http.FS(assets))
	return nil
}

func (s *Server) setupRoutes() {
	s.router.GET("/", s.handleIndex)
	s.router.POST("/upload", s.handleUpload)
	s.router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the web server
func (s *Server) Start(addr string) error {
	s.log.Info("[Server] starting dashboard on http://%s", addr)
	return s.router.Run(addr)
}

func (s *Server) handleIndex(c *gin.Context) {
	s.renderTemplate(c, http.StatusOK, indexTemplate, s.dashboard.page())
}

func (s *Server) handleUpload(c *gin.Context) {
	data, status := s.dashboard.analyzeUpload(c.Writer, c.Request)
	s.renderTemplate(c, status, templateFor(c.Request), data)
}

func (s *Server) renderTemplate(c *gin.Context, status int, name string, data pageData) {
	body, err := s.dashboard.render(name, data)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Template rendering failed"})
		return
	}
	c.Data(status, "text/html; charset=utf-8", body)
}
