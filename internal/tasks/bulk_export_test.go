package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/desertthunder/ytmp/internal/services"
	"github.com/desertthunder/ytmp/internal/shared"
	th "github.com/desertthunder/ytmp/internal/testing"
)

func playlistFor(id string, tracks int) *services.Playlist {
	pl := &services.Playlist{ID: id, Title: "Playlist " + id, Privacy: "PUBLIC", Author: &services.Ref{Name: "tester"}}
	for i := range tracks {
		pl.Tracks = append(pl.Tracks, services.Item{
			VideoID:         fmt.Sprintf("vid%s%d", id, i),
			Title:           fmt.Sprintf("Track %d", i+1),
			Artists:         []services.Ref{{Name: "Artist"}},
			DurationSeconds: 180 + i,
		})
	}
	return pl
}

func exportClient(failing ...string) *th.MockClient {
	return &th.MockClient{PlaylistFunc: func(ctx context.Context, id string, opts services.PlaylistOptions) (*services.Playlist, error) {
		for _, f := range failing {
			if f == id {
				return nil, errors.New("playlist not found")
			}
		}
		return playlistFor(id, 3), nil
	}}
}

func TestBulkExport_SuccessfulExport(t *testing.T) {
	tests := []struct {
		name     string
		format   string
		ids      []string
		validate func(t *testing.T, res *BulkExportResult, dir string)
	}{
		{
			name:   "single playlist json export",
			format: "json",
			ids:    []string{"PL1"},
			validate: func(t *testing.T, res *BulkExportResult, dir string) {
				th.AssertFileExists(t, filepath.Join(dir, "PL1.json"))
				if len(res.Results[0].Files) != 1 {
					t.Errorf("expected 1 file, got %d", len(res.Results[0].Files))
				}
			},
		},
		{
			name:   "multiple playlists csv export",
			format: "csv",
			ids:    []string{"PL1", "PL2", "PL3"},
			validate: func(t *testing.T, res *BulkExportResult, dir string) {
				for _, r := range res.Results {
					if len(r.Files) != 2 {
						t.Errorf("CSV export should create 2 files, got %d", len(r.Files))
					}
				}
				th.AssertFileExists(t, filepath.Join(dir, "PL2_tracks.csv"))
				th.AssertFileExists(t, filepath.Join(dir, "PL2_metadata.json"))
			},
		},
		{
			name:   "markdown alias",
			format: "md",
			ids:    []string{"PL1", "PL2"},
			validate: func(t *testing.T, res *BulkExportResult, dir string) {
				if res.Format != "markdown" {
					t.Errorf("format = %q, want markdown", res.Format)
				}
				th.AssertDirExists(t, filepath.Join(dir, "PL1"))
				th.AssertFileExists(t, filepath.Join(dir, "PL1", "README.md"))
			},
		},
		{
			name:   "text export",
			format: "txt",
			ids:    []string{"PL1"},
			validate: func(t *testing.T, res *BulkExportResult, dir string) {
				data := th.MustReadFile(t, filepath.Join(dir, "PL1_tracks.txt"))
				if !strings.Contains(data, "Track 1") {
					t.Errorf("text export missing tracks: %s", data)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			e := newEngine(exportClient())

			res, err := e.BulkExport(context.Background(), nil, tt.ids, BulkExportOpts{
				Format:    tt.format,
				OutputDir: dir,
				RateLimit: 1000,
			})
			if err != nil {
				t.Fatalf("BulkExport failed: %v", err)
			}
			if res.SuccessfulExports != len(tt.ids) || res.FailedExports != 0 {
				t.Errorf("success=%d failed=%d, want %d/0", res.SuccessfulExports, res.FailedExports, len(tt.ids))
			}
			if len(res.Results) != len(tt.ids) {
				t.Errorf("expected %d results, got %d", len(tt.ids), len(res.Results))
			}
			th.AssertFileExists(t, res.ManifestPath)
			tt.validate(t, res, dir)
		})
	}
}

func TestBulkExport_PartialFailure(t *testing.T) {
	dir := t.TempDir()
	e := newEngine(exportClient("PLbad"))

	res, err := e.BulkExport(context.Background(), nil, []string{"PL1", "PLbad", "PL2"}, BulkExportOpts{
		Format:    "json",
		OutputDir: dir,
		RateLimit: 1000,
	})
	if err != nil {
		t.Fatalf("BulkExport failed: %v", err)
	}
	if res.SuccessfulExports != 2 || res.FailedExports != 1 {
		t.Fatalf("success=%d failed=%d, want 2/1", res.SuccessfulExports, res.FailedExports)
	}

	var failed *PlaylistExportResult
	for i := range res.Results {
		if !res.Results[i].Success {
			failed = &res.Results[i]
		}
	}
	if failed == nil || failed.PlaylistID != "PLbad" {
		t.Fatalf("expected PLbad to fail, got %+v", failed)
	}
	if !strings.Contains(failed.ErrorMessage, "Content with ID PLbad not found or unavailable") {
		t.Errorf("error message = %q", failed.ErrorMessage)
	}

	var manifest map[string]any
	if err := json.Unmarshal([]byte(th.MustReadFile(t, filepath.Join(dir, "export_manifest.json"))), &manifest); err != nil {
		t.Fatalf("manifest is not JSON: %v", err)
	}
	if manifest["failed_exports"] != float64(1) || manifest["total_playlists"] != float64(3) {
		t.Errorf("unexpected manifest %v", manifest)
	}
}

func TestBulkExport_Validation(t *testing.T) {
	t.Run("nil client", func(t *testing.T) {
		_, err := NewEngine(nil, nil).BulkExport(context.Background(), nil, []string{"PL1"}, BulkExportOpts{})
		if !errors.Is(err, shared.ErrServiceUnavailable) {
			t.Errorf("expected ErrServiceUnavailable, got %v", err)
		}
	})

	t.Run("no ids", func(t *testing.T) {
		_, err := newEngine(exportClient()).BulkExport(context.Background(), nil, nil, BulkExportOpts{})
		if !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})

	t.Run("unknown format", func(t *testing.T) {
		_, err := newEngine(exportClient()).BulkExport(context.Background(), nil, []string{"PL1"}, BulkExportOpts{Format: "xml", OutputDir: t.TempDir()})
		if !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})
}

func TestBulkExport_Cancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var fetched atomic.Int32
	m := &th.MockClient{PlaylistFunc: func(_ context.Context, id string, _ services.PlaylistOptions) (*services.Playlist, error) {
		if fetched.Add(1) == 2 {
			cancel()
		}
		return playlistFor(id, 1), nil
	}}

	dir := t.TempDir()
	ids := []string{"PL1", "PL2", "PL3", "PL4", "PL5", "PL6"}
	res, err := newEngine(m).BulkExport(ctx, nil, ids, BulkExportOpts{OutputDir: dir, RateLimit: 1000, NumWorkers: 1})
	if err == nil || !strings.Contains(err.Error(), "export interrupted") {
		t.Fatalf("expected interruption, got %v", err)
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if res == nil || len(res.Results) >= len(ids) {
		t.Errorf("export should stop early, got %+v", res)
	}
	if _, statErr := os.Stat(filepath.Join(dir, "export_manifest.json")); !os.IsNotExist(statErr) {
		t.Error("manifest should not be written after cancellation")
	}
}

func TestBulkExport_Progress(t *testing.T) {
	t.Run("updates are delivered", func(t *testing.T) {
		prog := make(chan ProgressUpdate, 64)
		ids := []string{"PL1", "PL2"}
		_, err := newEngine(exportClient()).BulkExport(context.Background(), prog, ids, BulkExportOpts{OutputDir: t.TempDir(), RateLimit: 1000})
		if err != nil {
			t.Fatalf("BulkExport failed: %v", err)
		}
		close(prog)

		phases := map[Phase]int{}
		for u := range prog {
			phases[u.Phase]++
		}
		if phases[FetchPlaylist] != 1 || phases[WriteManifest] != 1 {
			t.Errorf("unexpected phases %v", phases)
		}
		if phases[ExportPlaylist] != 2*len(ids) {
			t.Errorf("expected %d export updates, got %d", 2*len(ids), phases[ExportPlaylist])
		}
	})

	t.Run("unread channel does not block", func(t *testing.T) {
		prog := make(chan ProgressUpdate)
		res, err := newEngine(exportClient()).BulkExport(context.Background(), prog, []string{"PL1", "PL2", "PL3"},
			BulkExportOpts{OutputDir: t.TempDir(), RateLimit: 1000})
		if err != nil || res.SuccessfulExports != 3 {
			t.Errorf("unexpected result %+v, %v", res, err)
		}
	})
}

func TestPhase_String(t *testing.T) {
	tests := map[Phase]string{
		FetchPlaylist:  "fetch_playlist",
		ExportPlaylist: "export_playlist",
		WriteManifest:  "write_manifest",
		Phase(99):      "",
	}
	for p, want := range tests {
		if got := p.String(); got != want {
			t.Errorf("Phase(%d).String() = %q, want %q", p, got, want)
		}
	}
}
