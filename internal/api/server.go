package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	config "github.com/mwantia/tuneful/internal/config/server"
	"github.com/mwantia/tuneful/internal/library"
	"github.com/mwantia/tuneful/pkg/log"
)

type Server struct {
	log    log.LoggerService
	server *http.Server
}

func NewServer(cfg config.HTTPServerConfig, svc *library.Service, health HealthChecker, logger log.LoggerService) *Server {
	gin.SetMode(gin.ReleaseMode)
	gin.DefaultWriter = logger.Writer()
	gin.DefaultErrorWriter = logger.Writer()

	// already validated by the config loader
	maxAge, _ := time.ParseDuration(cfg.CORS.MaxAge)

	engine := NewRouter(RouterConfig{
		Library:       svc,
		Health:        health,
		Logger:        logger,
		BaseURL:       cfg.BaseURL,
		MaxUploadSize: cfg.MaxUploadSize << 20,
		CORSOrigins:   cfg.CORS.AllowedOrigins,
		CORSMaxAge:    maxAge,
	})

	return &Server{
		log: logger,
		server: &http.Server{
			Addr:              cfg.Address,
			Handler:           engine,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Serve blocks until the server stops. A graceful shutdown is not an error.
func (s *Server) Serve() error {
	s.log.Info("Listening on %s", s.server.Addr)

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server failed: %w", err)
	}
	return nil
}

// Cleanup shuts the server down, waiting for in-flight requests until ctx expires.
func (s *Server) Cleanup(ctx context.Context) error {
	s.log.Info("Shutting down http server...")
	return s.server.Shutdown(ctx)
}
