package admin

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/mwantia/tuneful/internal/library"
	"github.com/spf13/cobra"
)

func NewSongsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "songs",
		Short: "Manage songs",
		Long:  "List or remove song records directly against the configured metadata store.",
	}

	cmd.AddCommand(newSongsListCommand())
	cmd.AddCommand(newSongsAddCommand())
	cmd.AddCommand(newSongsRemoveCommand())

	return cmd
}

func newSongsListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "ls",
		Short: "List songs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withLibrary(cmd.Context(), func(ctx context.Context, svc *library.Service) error {
				songs, err := svc.ListSongs(ctx)
				if err != nil {
					return err
				}

				w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "ID\tFILE\tNAME\tCREATED")
				for _, song := range songs {
					fmt.Fprintf(w, "%d\t%d\t%s\t%s\n", song.ID, song.File.ID, song.File.Name, song.CreatedAt.Format(time.RFC3339))
				}
				return w.Flush()
			})
		},
	}
}

func newSongsAddCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "add <file-id>",
		Short: "Create a song for an existing file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fileID, err := parseID(args[0])
			if err != nil {
				return err
			}

			return withLibrary(cmd.Context(), func(ctx context.Context, svc *library.Service) error {
				song, err := svc.CreateSong(ctx, library.SongInput{
					File: &library.FileRef{ID: &fileID},
				})
				if err != nil {
					return err
				}
				fmt.Printf("Created song %d for file %s\n", song.ID, song.File.Name)
				return nil
			})
		},
	}
}

func newSongsRemoveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <id>",
		Short: "Remove a song and its file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			return withLibrary(cmd.Context(), func(ctx context.Context, svc *library.Service) error {
				song, err := svc.DeleteSong(ctx, id)
				if err != nil {
					return err
				}
				fmt.Printf("Removed song %d and file %s\n", song.ID, song.File.Name)
				return nil
			})
		},
	}
}
