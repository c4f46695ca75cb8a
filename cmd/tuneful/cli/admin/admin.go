package admin

import (
	"context"
	"fmt"
	"strconv"

	"github.com/mwantia/tuneful/internal/agent"
	"github.com/mwantia/tuneful/internal/library"
	"github.com/mwantia/tuneful/pkg/log"

	config "github.com/mwantia/tuneful/internal/config/server"
)

// withLibrary opens the configured metadata store and upload root offline,
// runs fn against the resulting library service and closes the store again.
func withLibrary(ctx context.Context, fn func(context.Context, *library.Service) error) error {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := config.LoadServerConfig()
	if err != nil {
		return fmt.Errorf("failed to load server configuration: %w", err)
	}

	metadata, svc, err := agent.Bootstrap(ctx, cfg, log.NewLoggerService("tuneful", cfg.Log))
	if err != nil {
		return err
	}
	defer metadata.Close()

	return fn(ctx, svc)
}

func parseID(arg string) (uint, error) {
	id, err := strconv.ParseUint(arg, 10, 0)
	if err != nil {
		return 0, fmt.Errorf("invalid id '%s'", arg)
	}
	return uint(id), nil
}
