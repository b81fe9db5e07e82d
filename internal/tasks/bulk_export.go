package tasks

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/desertthunder/ytmp/internal/failures"
	"github.com/desertthunder/ytmp/internal/formatter"
	"github.com/desertthunder/ytmp/internal/services"
	"github.com/desertthunder/ytmp/internal/shared"
	"golang.org/x/time/rate"
)

// BulkExportOpts contains configuration for bulk playlist exports.
type BulkExportOpts struct {
	Format     string  // json, csv, markdown or txt
	OutputDir  string  // Base output directory (default: ytmp_export_{epoch})
	NumWorkers int     // Concurrent writers (default: 5, max: 10)
	RateLimit  float64 // Playlist fetches per second (default: 5)
	Limit      int     // Tracks per playlist, 0 for all
	WithCovers bool    // Download covers for markdown exports
}

// PlaylistExportJob is a fetched playlist waiting to be written.
type PlaylistExportJob struct {
	PlaylistID string
	Playlist   *services.Playlist
}

// PlaylistExportResult reports one playlist of a bulk export.
type PlaylistExportResult struct {
	PlaylistID    string   `json:"playlist_id"`
	PlaylistTitle string   `json:"playlist_title"`
	Tracks        int      `json:"tracks"`
	Success       bool     `json:"success"`
	Files         []string `json:"files,omitempty"`
	Error         error    `json:"-"`
	ErrorMessage  string   `json:"error,omitempty"`
}

// BulkExportResult summarizes a bulk export and is written as its manifest.
type BulkExportResult struct {
	Format            string                 `json:"format"`
	TotalPlaylists    int                    `json:"total_playlists"`
	SuccessfulExports int                    `json:"successful_exports"`
	FailedExports     int                    `json:"failed_exports"`
	OutputDirectory   string                 `json:"output_directory"`
	ManifestPath      string                 `json:"-"`
	ExportedAt        time.Time              `json:"exported_at"`
	Results           []PlaylistExportResult `json:"results"`
}

// sendProgress sends a progress update through the channel without blocking.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// BulkExport exports playlists concurrently and writes export_manifest.json into the output directory.
//
// Fetches are rate limited in a single producer; workers only write files. A playlist
// that fails to fetch or write is recorded in the manifest and does not stop the others.
func (e *Engine) BulkExport(ctx context.Context, prog chan<- ProgressUpdate, ids []string, opts BulkExportOpts) (*BulkExportResult, error) {
	if e.client == nil {
		return nil, fmt.Errorf("%w: upstream client not initialized", shared.ErrServiceUnavailable)
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: at least one playlist id", shared.ErrMissingArgument)
	}

	format, err := formatter.Normalize(opts.Format)
	if err != nil {
		return nil, err
	}
	opts.Format = format

	if opts.OutputDir == "" {
		opts.OutputDir = fmt.Sprintf("ytmp_export_%d", time.Now().Unix())
	}
	if opts.NumWorkers <= 0 {
		opts.NumWorkers = 5
	}
	if opts.NumWorkers > 10 {
		opts.NumWorkers = 10
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 5.0
	}

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	result := &BulkExportResult{
		Format:          format,
		TotalPlaylists:  len(ids),
		OutputDirectory: opts.OutputDir,
		ExportedAt:      time.Now().UTC(),
		Results:         make([]PlaylistExportResult, 0, len(ids)),
	}

	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)

	jobs := make(chan PlaylistExportJob, len(ids))
	results := make(chan PlaylistExportResult, len(ids))

	var wg sync.WaitGroup
	for i := 0; i < opts.NumWorkers; i++ {
		wg.Add(1)
		go e.exportWorker(ctx, &wg, jobs, results, opts)
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		defer close(jobs)

		sendProgress(prog, fetchingPlaylistsUpdate(len(ids)))
		for i, id := range ids {
			if err := limiter.Wait(ctx); err != nil {
				return
			}

			pl, err := e.client.Playlist(ctx, id, services.PlaylistOptions{Limit: opts.Limit})
			if err != nil {
				cause := failures.Classify(failures.OpID("get_playlist", "playlistId", id), err)
				results <- PlaylistExportResult{
					PlaylistID:    id,
					PlaylistTitle: fmt.Sprintf("Unknown (%s)", id),
					Error:         fmt.Errorf("failed to fetch playlist: %s", cause.Detail.Message),
				}
				continue
			}

			sendProgress(prog, exportingPlaylistUpdate(i+1, len(ids), pl.Title))
			jobs <- PlaylistExportJob{PlaylistID: id, Playlist: pl}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	completed := 0
	for res := range results {
		completed++
		if res.Error != nil {
			res.ErrorMessage = res.Error.Error()
			result.FailedExports++
			e.logger.Warn("playlist export failed", "playlistId", res.PlaylistID, "error", res.Error)
			sendProgress(prog, exportFailedUpdate(completed, len(ids), res))
		} else {
			result.SuccessfulExports++
			sendProgress(prog, exportCompletedUpdate(completed, len(ids), res))
		}
		result.Results = append(result.Results, res)
	}

	if err := ctx.Err(); err != nil {
		return result, fmt.Errorf("export interrupted: %w", err)
	}

	manifestPath := filepath.Join(opts.OutputDir, "export_manifest.json")
	sendProgress(prog, manifestUpdate(manifestPath))
	if err := formatter.WriteManifest(result, manifestPath); err != nil {
		return result, fmt.Errorf("export completed but failed to write manifest: %w", err)
	}
	result.ManifestPath = manifestPath
	return result, nil
}

// exportWorker writes playlists from the jobs channel until it closes.
func (e *Engine) exportWorker(
	ctx context.Context,
	wg *sync.WaitGroup,
	jobs <-chan PlaylistExportJob,
	results chan<- PlaylistExportResult,
	opts BulkExportOpts,
) {
	defer wg.Done()

	for job := range jobs {
		if ctx.Err() != nil {
			return
		}
		results <- exportSinglePlaylist(ctx, job, opts)
	}
}

// exportSinglePlaylist writes one playlist in the requested format.
func exportSinglePlaylist(ctx context.Context, j PlaylistExportJob, opts BulkExportOpts) PlaylistExportResult {
	pl := j.Playlist
	result := PlaylistExportResult{
		PlaylistID:    j.PlaylistID,
		PlaylistTitle: pl.Title,
		Tracks:        len(pl.Tracks),
		Files:         []string{},
	}

	name := pl.ID
	if name == "" {
		name = j.PlaylistID
	}

	switch opts.Format {
	case "csv":
		res, err := formatter.WriteCSVExport(pl, filepath.Join(opts.OutputDir, name))
		if err != nil {
			result.Error = fmt.Errorf("CSV export failed: %w", err)
			return result
		}
		result.Files = []string{res.TracksFile, res.MetadataFile}

	case "markdown":
		cover := ""
		if opts.WithCovers {
			cover = formatter.CoverURL(pl)
		}
		res, err := formatter.WriteMarkdownExport(ctx, pl, filepath.Join(opts.OutputDir, name), cover)
		if err != nil {
			result.Error = fmt.Errorf("markdown export failed: %w", err)
			return result
		}
		result.Files = res.Files

	case "txt":
		path, err := formatter.WriteTextExport(pl, filepath.Join(opts.OutputDir, name+"_tracks.txt"))
		if err != nil {
			result.Error = fmt.Errorf("text export failed: %w", err)
			return result
		}
		result.Files = []string{path}

	default:
		path, err := formatter.WriteJSONExport(pl, filepath.Join(opts.OutputDir, name+".json"))
		if err != nil {
			result.Error = err
			return result
		}
		result.Files = []string{path}
	}

	result.Success = true
	return result
}
