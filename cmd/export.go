package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/ytmp/internal/shared"
	"github.com/desertthunder/ytmp/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Export writes the named playlists (or the whole library with --library) to disk.
func (r *Runner) Export(ctx context.Context, cmd *cli.Command) error {
	ids := cmd.Args().Slice()
	if cmd.Bool("library") {
		library, err := r.client.LibraryPlaylists(ctx, 0)
		if err != nil {
			return fmt.Errorf("failed to list library playlists: %w", err)
		}
		for _, p := range library {
			if p.PlaylistID != "" {
				ids = append(ids, p.PlaylistID)
			}
		}
	}
	if len(ids) == 0 {
		return fmt.Errorf("%w: pass playlist ids or --library", shared.ErrMissingArgument)
	}

	opts := tasks.BulkExportOpts{
		Format:     cmd.String("format"),
		OutputDir:  cmd.String("output"),
		NumWorkers: cmd.Int("workers"),
		RateLimit:  cmd.Float("rate"),
		Limit:      cmd.Int("limit"),
		WithCovers: cmd.Bool("covers"),
	}
	r.logger.Info("starting export", "playlists", len(ids), "format", opts.Format)

	progressCh := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progressCh {
			switch update.Phase {
			case tasks.FetchPlaylist:
				r.writePlain("📥 %s\n", update.Message)
			case tasks.ExportPlaylist:
				r.writePlain("   [%d/%d] %s\n", update.Step, update.Total, update.Message)
			case tasks.WriteManifest:
				r.writePlain("\n📝 %s\n", update.Message)
			}
		}
	}()

	result, err := r.engine.BulkExport(ctx, progressCh, ids, opts)
	close(progressCh)
	<-done

	if err != nil {
		return err
	}

	r.writePlain("\n")
	r.writePlainHeader("Export Complete!")
	r.writePlain("Format: %s\n", result.Format)
	r.writePlain("Directory: %s\n", result.OutputDirectory)
	r.writePlain("Exported: %d/%d\n", result.SuccessfulExports, result.TotalPlaylists)

	if result.FailedExports > 0 {
		r.writePlain("\nFailed to export %d playlists:\n", result.FailedExports)
		for _, res := range result.Results {
			if !res.Success {
				r.writePlain("  - %s: %s\n", res.PlaylistID, res.ErrorMessage)
			}
		}
	}
	return nil
}
