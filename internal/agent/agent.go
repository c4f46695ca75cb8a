package agent

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/mwantia/fabric/pkg/container"
	"github.com/mwantia/tuneful/internal/api"
	config "github.com/mwantia/tuneful/internal/config/server"
	"github.com/mwantia/tuneful/internal/library"
	"github.com/mwantia/tuneful/internal/uploads"
	"github.com/mwantia/tuneful/pkg/db/store"
	"github.com/mwantia/tuneful/pkg/log"
)

type TunefulAgent struct {
	mutex sync.RWMutex
	wait  sync.WaitGroup

	cfg *config.BaseServerConfig
	sc  *container.ServiceContainer
	log log.LoggerService

	store   store.MetadataStore
	library *library.Service
	server  *api.Server
}

func NewAgent(cfg *config.BaseServerConfig) *TunefulAgent {
	return &TunefulAgent{
		cfg: cfg,
		sc:  container.NewServiceContainer(),
		log: log.NewLoggerService("tuneful", cfg.Log),
	}
}

// Bootstrap opens the metadata store, applies pending migrations and builds
// the library service on top of the configured upload root.
func Bootstrap(ctx context.Context, cfg *config.BaseServerConfig, logger log.LoggerService) (store.MetadataStore, *library.Service, error) {
	metadata, err := store.Open(cfg.Metadata, logger.Named("store"))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open metadata store: %w", err)
	}

	if err := metadata.Connect(ctx); err != nil {
		metadata.Close()
		return nil, nil, fmt.Errorf("failed to connect metadata store: %w", err)
	}

	if err := metadata.Migrate(ctx); err != nil {
		metadata.Close()
		return nil, nil, fmt.Errorf("failed to migrate metadata store: %w", err)
	}

	files, err := uploads.NewStore(cfg.Uploads.Path)
	if err != nil {
		metadata.Close()
		return nil, nil, err
	}

	svc := library.NewService(metadata, files, logger.Named("library"), library.Options{
		Overwrite: cfg.Uploads.Overwrite,
	})
	return metadata, svc, nil
}

func (ta *TunefulAgent) setupServices(ctx context.Context) error {
	errs := container.Errors{}

	ta.log.Debug("Registering 'LoggerService'...")
	errs.Add(container.Register[log.LoggerServiceImpl](ta.sc,
		container.With[log.LoggerService](),
		container.WithInstance(ta.log)))

	if err := errs.Errors(); err != nil {
		return fmt.Errorf("failed to register services: %w", err)
	}

	metadata, svc, err := Bootstrap(ctx, ta.cfg, ta.log)
	if err != nil {
		return err
	}

	ta.store = metadata
	ta.library = svc
	ta.server = api.NewServer(ta.cfg.HTTP, svc, metadata, ta.log.Named("api"))
	return nil
}

// Serve runs the http server until ctx is cancelled, a termination signal
// arrives or the server fails. Shutdown always runs in the same order: http
// server, metadata store, service container.
func (ta *TunefulAgent) Serve(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	ta.mutex.Lock()

	if err := ta.setupServices(ctx); err != nil {
		ta.mutex.Unlock()
		return err
	}

	serveErr := make(chan error, 1)
	ta.wait.Add(1)
	go func() {
		defer ta.wait.Done()
		serveErr <- ta.server.Serve()
	}()

	ta.mutex.Unlock()

	var result error
	select {
	case <-ctx.Done():
		ta.log.Info("Received shutdown signal")
	case err := <-serveErr:
		result = err
	}

	timeout, err := time.ParseDuration(ta.cfg.ShutdownTimeout)
	if err != nil {
		// Set default of 60 seconds if error
		timeout = 60 * time.Second
	}

	shutdown, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	return errors.Join(result, ta.shutdown(shutdown))
}

func (ta *TunefulAgent) shutdown(ctx context.Context) error {
	ta.mutex.Lock()
	defer ta.mutex.Unlock()

	var errs []error

	if err := ta.server.Cleanup(ctx); err != nil {
		errs = append(errs, fmt.Errorf("failed to shut down http server: %w", err))
	}
	ta.wait.Wait()

	if err := ta.store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close metadata store: %w", err))
	}

	if err := ta.sc.Cleanup(ctx); err != nil {
		errs = append(errs, fmt.Errorf("failed to complete service container cleanup: %w", err))
	}

	return errors.Join(errs...)
}
