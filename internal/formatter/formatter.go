// package formatter renders playlists as CSV, Markdown, plain text or JSON for export
package formatter

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/desertthunder/ytmp/internal/services"
	"github.com/desertthunder/ytmp/internal/shared"
	json "github.com/goccy/go-json"
)

// Formats lists the accepted export formats.
var Formats = []string{"json", "csv", "markdown", "txt"}

// Normalize maps format aliases to a name in [Formats]. An empty format is json.
func Normalize(format string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "json":
		return "json", nil
	case "csv":
		return "csv", nil
	case "md", "markdown":
		return "markdown", nil
	case "txt", "text":
		return "txt", nil
	}
	return "", fmt.Errorf("%w: unsupported export format %q (use %s)", shared.ErrInvalidArgument, format, strings.Join(Formats, ", "))
}

// Render encodes pl in format and returns the body with its content type.
func Render(pl *services.Playlist, format string) ([]byte, string, error) {
	format, err := Normalize(format)
	if err != nil {
		return nil, "", err
	}

	switch format {
	case "csv":
		data, err := ExportToCSV(pl)
		return data, "text/csv; charset=utf-8", err
	case "markdown":
		data, err := ExportToMarkdown(pl, "")
		return data, "text/markdown; charset=utf-8", err
	case "txt":
		data, err := ExportToText(pl)
		return data, "text/plain; charset=utf-8", err
	default:
		data, err := ExportToJSON(pl)
		return data, "application/json", err
	}
}

// Extension returns the file extension for a normalized format.
func Extension(format string) string {
	switch format {
	case "markdown":
		return "md"
	case "":
		return "json"
	}
	return format
}

// ArtistNames joins the artist names of an item.
func ArtistNames(item services.Item) string {
	names := make([]string, 0, len(item.Artists))
	for _, a := range item.Artists {
		names = append(names, a.Name)
	}
	return strings.Join(names, ", ")
}

// Duration returns the display duration of an item, derived from its seconds when the text is missing.
func Duration(item services.Item) string {
	if item.Duration != "" {
		return item.Duration
	}
	if item.DurationSeconds <= 0 {
		return ""
	}
	s := item.DurationSeconds
	if s >= 3600 {
		return fmt.Sprintf("%d:%02d:%02d", s/3600, s%3600/60, s%60)
	}
	return fmt.Sprintf("%d:%02d", s/60, s%60)
}

// ExportToCSV writes one row per track with columns: Video ID, Title, Artists, Album, Duration, Set Video ID
func ExportToCSV(pl *services.Playlist) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Video ID", "Title", "Artists", "Album", "Duration", "Set Video ID"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, track := range pl.Tracks {
		album := ""
		if track.Album != nil {
			album = track.Album.Name
		}
		record := []string{track.VideoID, track.Title, ArtistNames(track), album, Duration(track), track.SetVideoID}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown renders a playlist as Markdown with an optional cover image
func ExportToMarkdown(pl *services.Playlist, imageFilename string) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "# %s\n\n", pl.Title)

	if imageFilename != "" {
		fmt.Fprintf(&buf, "![Cover](%s)\n\n", imageFilename)
	}

	if pl.Description != "" {
		fmt.Fprintf(&buf, "**Description**: %s\n\n", pl.Description)
	}
	if pl.Author != nil && pl.Author.Name != "" {
		fmt.Fprintf(&buf, "**Author**: %s\n", pl.Author.Name)
	}

	fmt.Fprintf(&buf, "**Tracks**: %d\n", len(pl.Tracks))
	fmt.Fprintf(&buf, "**Privacy**: %s\n\n", privacyLabel(pl.Privacy))

	buf.WriteString("## Tracks\n\n")
	for i, track := range pl.Tracks {
		albumPart := ""
		if track.Album != nil && track.Album.Name != "" {
			albumPart = fmt.Sprintf(" (%s)", track.Album.Name)
		}
		durationPart := ""
		if d := Duration(track); d != "" {
			durationPart = fmt.Sprintf(" [%s]", d)
		}
		fmt.Fprintf(&buf, "%d. %s%s%s\n", i+1, trackLine(track), albumPart, durationPart)
	}

	return buf.Bytes(), nil
}

// ExportToText renders a playlist as plain text
func ExportToText(pl *services.Playlist) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "Playlist: %s\n", pl.Title)
	if pl.Description != "" {
		fmt.Fprintf(&buf, "Description: %s\n", pl.Description)
	}
	fmt.Fprintf(&buf, "Tracks: %d\n\n", len(pl.Tracks))

	for i, track := range pl.Tracks {
		fmt.Fprintf(&buf, "%d. %s\n", i+1, trackLine(track))
	}

	return buf.Bytes(), nil
}

// ExportToJSON encodes the full playlist with indentation.
func ExportToJSON(pl *services.Playlist) ([]byte, error) {
	return json.MarshalIndent(pl, "", "  ")
}

// ToMetadataJSON encodes playlist metadata without tracks
func ToMetadataJSON(pl *services.Playlist) ([]byte, error) {
	meta := *pl
	meta.Tracks = nil
	meta.Related = nil
	meta.Suggestions = nil
	return json.MarshalIndent(meta, "", "  ")
}

func trackLine(track services.Item) string {
	if artists := ArtistNames(track); artists != "" {
		return artists + " - " + track.Title
	}
	return track.Title
}

func privacyLabel(p string) string {
	if p == "" {
		return "Unknown"
	}
	return strings.ToUpper(p[:1]) + strings.ToLower(p[1:])
}

// CoverURL returns the largest thumbnail of a playlist, or "" when it has none.
func CoverURL(pl *services.Playlist) string {
	best, width := "", -1
	for _, t := range pl.Thumbnails {
		if t.Width > width {
			best, width = t.URL, t.Width
		}
	}
	return best
}

// DownloadImage downloads an image from the given URL and returns the raw bytes
func DownloadImage(ctx context.Context, url string) ([]byte, error) {
	if url == "" {
		return nil, fmt.Errorf("empty URL provided")
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create image request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download image: status %d", resp.StatusCode)
	}

	imageData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}

	return imageData, nil
}

// CSVExportResult contains the paths of files created by WriteCSVExport
type CSVExportResult struct {
	TracksFile   string
	MetadataFile string
}

// WriteCSVExport writes {base}_tracks.csv and {base}_metadata.json. The base defaults to the playlist ID.
func WriteCSVExport(pl *services.Playlist, baseFilepath string) (*CSVExportResult, error) {
	if baseFilepath == "" {
		baseFilepath = pl.ID
	}

	csvData, err := ExportToCSV(pl)
	if err != nil {
		return nil, fmt.Errorf("failed to generate CSV: %w", err)
	}

	tracksFile := baseFilepath + "_tracks.csv"
	if err := os.WriteFile(tracksFile, csvData, 0644); err != nil {
		return nil, fmt.Errorf("failed to write CSV file: %w", err)
	}

	metadataJSON, err := ToMetadataJSON(pl)
	if err != nil {
		return nil, fmt.Errorf("failed to generate metadata JSON: %w", err)
	}

	metadataFile := baseFilepath + "_metadata.json"
	if err := os.WriteFile(metadataFile, metadataJSON, 0644); err != nil {
		return nil, fmt.Errorf("failed to write metadata file: %w", err)
	}

	return &CSVExportResult{TracksFile: tracksFile, MetadataFile: metadataFile}, nil
}

// MarkdownExportResult contains information about files created by WriteMarkdownExport
type MarkdownExportResult struct {
	Directory  string
	Files      []string
	CoverImage string
}

// WriteMarkdownExport writes {dir}/README.md and, when imageURL downloads, {dir}/cover.jpg.
//
// The directory defaults to the playlist ID. A cover that fails to download is skipped.
func WriteMarkdownExport(ctx context.Context, pl *services.Playlist, outputDir, imageURL string) (*MarkdownExportResult, error) {
	if outputDir == "" {
		outputDir = pl.ID
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	result := &MarkdownExportResult{Directory: outputDir, Files: []string{}}

	var coverImageFilename string
	if imageURL != "" {
		if imageData, err := DownloadImage(ctx, imageURL); err == nil {
			coverPath := filepath.Join(outputDir, "cover.jpg")
			if err := os.WriteFile(coverPath, imageData, 0644); err == nil {
				coverImageFilename = "cover.jpg"
				result.CoverImage = coverPath
				result.Files = append(result.Files, coverPath)
			}
		}
	}

	mdData, err := ExportToMarkdown(pl, coverImageFilename)
	if err != nil {
		return nil, fmt.Errorf("failed to generate Markdown: %w", err)
	}

	mdFile := filepath.Join(outputDir, "README.md")
	if err := os.WriteFile(mdFile, mdData, 0644); err != nil {
		return nil, fmt.Errorf("failed to write Markdown file: %w", err)
	}

	result.Files = append(result.Files, mdFile)
	return result, nil
}

// WriteTextExport writes a plain text export, defaulting to {playlist.ID}_tracks.txt.
func WriteTextExport(pl *services.Playlist, path string) (string, error) {
	if path == "" {
		path = pl.ID + "_tracks.txt"
	}

	textData, err := ExportToText(pl)
	if err != nil {
		return "", fmt.Errorf("failed to generate text: %w", err)
	}

	if err := os.WriteFile(path, textData, 0644); err != nil {
		return "", fmt.Errorf("failed to write text file: %w", err)
	}

	return path, nil
}

// WriteJSONExport writes the full playlist as JSON, defaulting to {playlist.ID}.json.
func WriteJSONExport(pl *services.Playlist, path string) (string, error) {
	if path == "" {
		path = pl.ID + ".json"
	}

	data, err := ExportToJSON(pl)
	if err != nil {
		return "", fmt.Errorf("JSON marshal failed: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("JSON write failed: %w", err)
	}
	return path, nil
}

// WriteManifest writes v as indented JSON to path.
func WriteManifest(v any, path string) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}
