package admin

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/mwantia/tuneful/internal/library"
	"github.com/spf13/cobra"
)

func NewFilesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "files",
		Short: "Manage uploaded files",
		Long:  "List registered files or import local files into the upload store.",
	}

	cmd.AddCommand(newFilesListCommand())
	cmd.AddCommand(newFilesAddCommand())

	return cmd
}

func newFilesListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "ls",
		Short: "List registered files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withLibrary(cmd.Context(), func(ctx context.Context, svc *library.Service) error {
				files, err := svc.ListFiles(ctx)
				if err != nil {
					return err
				}

				w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "ID\tNAME\tCREATED")
				for _, file := range files {
					fmt.Fprintf(w, "%d\t%s\t%s\n", file.ID, file.Name, file.CreatedAt.Format(time.RFC3339))
				}
				return w.Flush()
			})
		},
	}
}

func newFilesAddCommand() *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "add <path>",
		Short: "Import a local file into the upload store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("failed to open '%s': %w", args[0], err)
			}
			defer f.Close()

			if name == "" {
				name = filepath.Base(args[0])
			}

			return withLibrary(cmd.Context(), func(ctx context.Context, svc *library.Service) error {
				file, err := svc.RegisterFile(ctx, name, f)
				if err != nil {
					return err
				}
				fmt.Printf("Registered file %d as %s\n", file.ID, file.Name)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "store the file under this name instead of its base name")

	return cmd
}
