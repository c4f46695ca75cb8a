package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/mwantia/tuneful/internal/library"
	"github.com/mwantia/tuneful/pkg/log"
)

type RouterConfig struct {
	Library *library.Service
	Health  HealthChecker
	Logger  log.LoggerService

	// BaseURL prefixes upload paths in responses.
	BaseURL string
	// MaxUploadSize limits multipart bodies in bytes. Zero disables the limit.
	MaxUploadSize int64

	CORSOrigins []string
	CORSMaxAge  time.Duration
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	presenter := NewPresenter(cfg.BaseURL)

	songs := NewSongHandler(cfg.Logger, cfg.Library, presenter)
	files := NewFileHandler(cfg.Logger, cfg.Library, presenter, cfg.MaxUploadSize)
	uploads := NewUploadHandler(cfg.Logger, cfg.Library)
	health := NewHealthHandler(cfg.Health)

	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(gin.Recovery())
	r.Use(RequestLogger(cfg.Logger.Named("http")))
	if mw := CORS(cfg.CORSOrigins, cfg.CORSMaxAge); mw != nil {
		r.Use(mw)
	}

	r.NoRoute(func(c *gin.Context) {
		RespondMessage(c, http.StatusNotFound, "Could not find %s", c.Request.URL.Path)
	})
	r.NoMethod(func(c *gin.Context) {
		RespondMessage(c, http.StatusMethodNotAllowed, "Method %s not allowed on %s", c.Request.Method, c.Request.URL.Path)
	})

	r.GET("/healthcheck", health.HealthCheck)
	r.GET("/uploads/:filename", uploads.Serve)

	api := r.Group("/api", RequireAccept(binding.MIMEJSON))
	{
		api.GET("/songs", songs.List)
		api.POST("/songs", RequireContentType(binding.MIMEJSON), songs.Create)
		api.GET("/songs/:id", songs.Get)
		api.PUT("/songs/:id", RequireContentType(binding.MIMEJSON), songs.Update)
		api.DELETE("/songs/:id", songs.Delete)

		api.GET("/files", files.List)
		api.POST("/files", files.Upload)
	}

	return r
}
