package server

import (
	"context"
	"fmt"

	"github.com/mwantia/tuneful/internal/agent"
	"github.com/spf13/cobra"

	config "github.com/mwantia/tuneful/internal/config/server"
)

func NewServerCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "server",
		Short: "Start the Tuneful API server",
		Long: `Start the Tuneful API server.

Opens the metadata store, applies pending migrations and serves the song
and upload endpoints until interrupted.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadServerConfig()
			if err != nil {
				return fmt.Errorf("failed to load server configuration: %w", err)
			}

			return agent.NewAgent(cfg).Serve(context.Background())
		},
	}

	cmd.Flags().String("address", "", "listen address (overrides http.address)")
	cmd.Flags().String("uploads", "", "upload directory (overrides uploads.path)")

	cmd.PreRunE = func(cmd *cobra.Command, args []string) error {
		return bindOverrides(cmd, map[string]string{
			"address": "http.address",
			"uploads": "uploads.path",
		})
	}

	return cmd
}
