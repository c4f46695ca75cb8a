package server

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/mwantia/tuneful/pkg/db/migrations"
	"github.com/mwantia/tuneful/pkg/db/store"
	"github.com/mwantia/tuneful/pkg/log"
	"github.com/spf13/cobra"

	config "github.com/mwantia/tuneful/internal/config/server"
)

func NewMigrateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage metadata store migrations",
		Long:  "Apply, roll back or inspect the schema migrations of the configured metadata store.",
	}

	cmd.AddCommand(newMigrateUpCommand())
	cmd.AddCommand(newMigrateDownCommand())
	cmd.AddCommand(newMigrateStatusCommand())

	return cmd
}

func newMigrateUpCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrator(cmd.Context(), func(ctx context.Context, m *migrations.Migrator) error {
				applied, err := m.Migrate(ctx)
				if err != nil {
					return err
				}
				fmt.Printf("Applied %d migration(s)\n", applied)
				return nil
			})
		},
	}
}

func newMigrateDownCommand() *cobra.Command {
	var steps int

	cmd := &cobra.Command{
		Use:   "down",
		Short: "Roll back the most recent migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if steps < 1 {
				return fmt.Errorf("--steps must be at least 1")
			}
			return withMigrator(cmd.Context(), func(ctx context.Context, m *migrations.Migrator) error {
				for i := 0; i < steps; i++ {
					if err := m.Rollback(ctx); err != nil {
						return err
					}
				}
				fmt.Printf("Rolled back %d migration(s)\n", steps)
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&steps, "steps", 1, "number of migrations to roll back")

	return cmd
}

func newMigrateStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show applied and pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrator(cmd.Context(), func(ctx context.Context, m *migrations.Migrator) error {
				statuses, err := m.Status(ctx)
				if err != nil {
					return err
				}

				w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "VERSION\tSTATE\tDESCRIPTION")
				for _, s := range statuses {
					state := "pending"
					if s.Applied {
						state = "applied"
					}
					fmt.Fprintf(w, "%d\t%s\t%s\n", s.Version, state, s.Description)
				}
				return w.Flush()
			})
		},
	}
}

// withMigrator connects to the configured metadata store without applying
// migrations and hands a migrator bound to it to fn.
func withMigrator(ctx context.Context, fn func(context.Context, *migrations.Migrator) error) error {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := config.LoadServerConfig()
	if err != nil {
		return fmt.Errorf("failed to load server configuration: %w", err)
	}

	logger := log.NewLoggerService("tuneful", cfg.Log)

	metadata, err := store.Open(cfg.Metadata, logger.Named("store"))
	if err != nil {
		return fmt.Errorf("failed to open metadata store: %w", err)
	}
	defer metadata.Close()

	if err := metadata.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect metadata store: %w", err)
	}

	return fn(ctx, migrations.NewMigrator(metadata.DB()))
}
