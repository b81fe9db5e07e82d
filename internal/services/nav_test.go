package services

import (
	"errors"
	"testing"
)

func TestNavigation(t *testing.T) {
	doc := map[string]any{
		"header": map[string]any{
			"title": map[string]any{"runs": []any{
				map[string]any{"text": "Daft "},
				map[string]any{"text": "Punk"},
			}},
		},
		"contents": []any{"a", "b", "c"},
	}

	t.Run("getPath", func(t *testing.T) {
		if got := getPath(doc, "contents", -1); got != "c" {
			t.Errorf("expected negative index to count from the end, got %v", got)
		}
		if got := getPath(doc, "contents", 3); got != nil {
			t.Errorf("expected nil for out of range index, got %v", got)
		}
		if got := getPath(doc, "header", 0); got != nil {
			t.Errorf("expected nil for index into map, got %v", got)
		}
	})

	t.Run("require", func(t *testing.T) {
		_, err := require(doc, "header", "musicImmersiveHeaderRenderer", "title")
		var pe *ParseError
		if !errors.As(err, &pe) {
			t.Fatalf("expected parse error, got %v", err)
		}
		if pe.Key != "musicImmersiveHeaderRenderer" {
			t.Errorf("expected first missing key, got %s", pe.Key)
		}
		if pe.Path != "header.musicImmersiveHeaderRenderer.title" {
			t.Errorf("unexpected path %s", pe.Path)
		}
	})

	t.Run("requireMap Wrong Type", func(t *testing.T) {
		if _, err := requireMap(doc, "contents"); !IsParseError(err) {
			t.Errorf("expected parse error for slice where map expected, got %v", err)
		}
	})

	t.Run("requireSlice", func(t *testing.T) {
		s, err := requireSlice(doc, "contents")
		if err != nil || len(s) != 3 {
			t.Errorf("expected 3 items, got %v (%v)", s, err)
		}
	})

	t.Run("text", func(t *testing.T) {
		if got := text(getPath(doc, "header", "title")); got != "Daft Punk" {
			t.Errorf("expected joined runs, got %q", got)
		}
		if got := text(map[string]any{"simpleText": "Views"}); got != "Views" {
			t.Errorf("expected simpleText, got %q", got)
		}
		if got := text(nil); got != "" {
			t.Errorf("expected empty string, got %q", got)
		}
	})

	t.Run("continuationToken", func(t *testing.T) {
		items := []any{
			map[string]any{"musicResponsiveListItemRenderer": map[string]any{}},
			map[string]any{"continuationItemRenderer": map[string]any{
				"continuationEndpoint": map[string]any{"continuationCommand": map[string]any{"token": "next-item"}},
			}},
		}
		if got := continuationToken(items, nil); got != "next-item" {
			t.Errorf("expected item continuation, got %q", got)
		}
		container := map[string]any{"continuations": []any{
			map[string]any{"nextContinuationData": map[string]any{"continuation": "next-container"}},
		}}
		if got := continuationToken(items[:1], container); got != "next-container" {
			t.Errorf("expected container continuation, got %q", got)
		}
	})

	t.Run("parseDuration", func(t *testing.T) {
		tests := map[string]int{"3:45": 225, "1:02:03": 3723, "": 0, "live": 0}
		for in, want := range tests {
			if got := parseDuration(in); got != want {
				t.Errorf("parseDuration(%q) = %d, want %d", in, got, want)
			}
		}
	})
}

func TestParsers(t *testing.T) {
	t.Run("applyRuns", func(t *testing.T) {
		var item Item
		applyRuns(&item, []any{
			map[string]any{"text": "Song"},
			map[string]any{"text": " • "},
			map[string]any{"text": "Daft Punk", "navigationEndpoint": map[string]any{"browseEndpoint": map[string]any{
				"browseId": "UC_artist",
				"browseEndpointContextSupportedConfigs": map[string]any{"browseEndpointContextMusicConfig": map[string]any{
					"pageType": "MUSIC_PAGE_TYPE_ARTIST",
				}},
			}}},
			map[string]any{"text": "Discovery", "navigationEndpoint": map[string]any{"browseEndpoint": map[string]any{
				"browseId": "MPREb_album",
				"browseEndpointContextSupportedConfigs": map[string]any{"browseEndpointContextMusicConfig": map[string]any{
					"pageType": "MUSIC_PAGE_TYPE_ALBUM",
				}},
			}}},
			map[string]any{"text": "2001"},
			map[string]any{"text": "1.2M views"},
			map[string]any{"text": "5:20"},
		})
		if len(item.Artists) != 1 || item.Artists[0].ID != "UC_artist" {
			t.Errorf("unexpected artists %+v", item.Artists)
		}
		if item.Album == nil || item.Album.Name != "Discovery" {
			t.Errorf("unexpected album %+v", item.Album)
		}
		if item.Year != "2001" || item.Views != "1.2M" || item.DurationSeconds != 320 {
			t.Errorf("unexpected fields %+v", item)
		}
	})

	t.Run("parseCount", func(t *testing.T) {
		if got := parseCount("1,234 songs"); got != 1234 {
			t.Errorf("expected 1234, got %d", got)
		}
		if got := parseCount("no songs"); got != 0 {
			t.Errorf("expected 0, got %d", got)
		}
	})

	t.Run("sectionKey", func(t *testing.T) {
		tests := map[string]string{
			"Fans might also like": "related",
			"Featured on":          "featured",
			"Top songs":            "songs",
			"Albums":               "albums",
			"Latest episodes":      "latest_episodes",
		}
		for in, want := range tests {
			if got := sectionKey(in); got != want {
				t.Errorf("sectionKey(%q) = %q, want %q", in, got, want)
			}
		}
	})

	t.Run("collectKey", func(t *testing.T) {
		doc := map[string]any{"a": []any{
			map[string]any{"code": "US"},
			map[string]any{"b": map[string]any{"code": "DE"}},
		}}
		if got := collectKey(doc, "code"); len(got) != 2 {
			t.Errorf("expected 2 values, got %v", got)
		}
	})
}

func TestIDs(t *testing.T) {
	t.Run("Video", func(t *testing.T) {
		if !IsVideoID("dQw4w9WgXcQ") {
			t.Error("expected valid video id")
		}
		if IsVideoID("short") || IsVideoID("dQw4w9WgXcQx") {
			t.Error("expected wrong length to be rejected")
		}
	})

	t.Run("Channel", func(t *testing.T) {
		if !IsChannelID("UCmMUZbaYdNH0bEd1PAlAqsA") {
			t.Error("expected valid channel id")
		}
		if IsChannelID("PLmMUZbaYdNH0bEd1PAlAqsA") {
			t.Error("expected non-UC prefix to be rejected")
		}
	})

	t.Run("Playlist", func(t *testing.T) {
		for _, id := range []string{"PLabc", "RDAMVMxyz", "VLPL123", "LM", "OLAK5uy_x"} {
			if !IsPlaylistID(id) {
				t.Errorf("expected %s to be a playlist id", id)
			}
		}
		if IsPlaylistID("UCabc") || IsPlaylistID("") {
			t.Error("expected non-playlist ids to be rejected")
		}
	})
}
