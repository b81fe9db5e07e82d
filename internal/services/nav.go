package services

import (
	"fmt"
	"strconv"
	"strings"
)

// Common renderer paths inside InnerTube documents.
var (
	pathSingleColumnTab = []any{"contents", "singleColumnBrowseResultsRenderer", "tabs", 0, "tabRenderer", "content"}
	pathTwoColumn       = []any{"contents", "twoColumnBrowseResultsRenderer"}
	pathSectionList     = []any{"sectionListRenderer", "contents"}
	pathRunText         = []any{"runs", 0, "text"}
	pathTitleText       = []any{"title", "runs", 0, "text"}
	pathThumbnails      = []any{"thumbnail", "musicThumbnailRenderer", "thumbnail", "thumbnails"}
	pathThumbnailCrop   = []any{"thumbnailRenderer", "musicThumbnailRenderer", "thumbnail", "thumbnails"}
	pathBrowseID        = []any{"navigationEndpoint", "browseEndpoint", "browseId"}
	pathPageType        = []any{"navigationEndpoint", "browseEndpoint", "browseEndpointContextSupportedConfigs", "browseEndpointContextMusicConfig", "pageType"}
	pathWatchVideoID    = []any{"navigationEndpoint", "watchEndpoint", "videoId"}
	pathContinuation    = []any{"continuationItemRenderer", "continuationEndpoint", "continuationCommand", "token"}
	pathNextContinue    = []any{"continuations", 0, "nextContinuationData", "continuation"}
)

func asMap(value any) map[string]any {
	m, _ := value.(map[string]any)
	return m
}

func asSlice(value any) []any {
	s, _ := value.([]any)
	return s
}

func getString(value any) string {
	s, _ := value.(string)
	return s
}

// getPath walks value through string keys and int indices, returning nil on any miss.
func getPath(value any, path ...any) any {
	v, _ := walk(value, path)
	return v
}

// require walks path like [getPath] but reports the first missing segment as a [ParseError].
func require(value any, path ...any) (any, error) {
	v, missing := walk(value, path)
	if missing >= 0 {
		return nil, &ParseError{Key: fmt.Sprint(path[missing]), Path: joinPath(path)}
	}
	return v, nil
}

func requireMap(value any, path ...any) (map[string]any, error) {
	v, err := require(value, path...)
	if err != nil {
		return nil, err
	}
	m := asMap(v)
	if m == nil {
		return nil, &ParseError{Key: fmt.Sprint(path[len(path)-1]), Path: joinPath(path)}
	}
	return m, nil
}

func requireSlice(value any, path ...any) ([]any, error) {
	v, err := require(value, path...)
	if err != nil {
		return nil, err
	}
	s, ok := v.([]any)
	if !ok {
		return nil, &ParseError{Key: fmt.Sprint(path[len(path)-1]), Path: joinPath(path)}
	}
	return s, nil
}

// walk returns the value at path and the index of the first segment that was absent, or -1.
func walk(value any, path []any) (any, int) {
	cur := value
	for i, seg := range path {
		switch k := seg.(type) {
		case string:
			m := asMap(cur)
			next, ok := m[k]
			if !ok || next == nil {
				return nil, i
			}
			cur = next
		case int:
			s := asSlice(cur)
			if k < 0 {
				k += len(s)
			}
			if k < 0 || k >= len(s) {
				return nil, i
			}
			cur = s[k]
		default:
			return nil, i
		}
	}
	return cur, -1
}

func joinPath(path []any) string {
	parts := make([]string, len(path))
	for i, seg := range path {
		parts[i] = fmt.Sprint(seg)
	}
	return strings.Join(parts, ".")
}

func concat(paths ...[]any) []any {
	var out []any
	for _, p := range paths {
		out = append(out, p...)
	}
	return out
}

// text flattens an InnerTube text object (runs or simpleText) into a string.
func text(value any) string {
	if s, ok := value.(string); ok {
		return s
	}
	m := asMap(value)
	if m == nil {
		return ""
	}
	if s, ok := m["simpleText"].(string); ok {
		return s
	}
	var b strings.Builder
	for _, run := range asSlice(m["runs"]) {
		b.WriteString(getString(asMap(run)["text"]))
	}
	return b.String()
}

// firstKey returns the single key of a renderer wrapper such as {"musicShelfRenderer": {...}}.
func firstKey(value any) (string, map[string]any) {
	for k, v := range asMap(value) {
		return k, asMap(v)
	}
	return "", nil
}

// continuationToken finds the token that fetches the next page of items.
func continuationToken(items []any, container map[string]any) string {
	if n := len(items); n > 0 {
		if tok := getString(getPath(items[n-1], pathContinuation...)); tok != "" {
			return tok
		}
	}
	return getString(getPath(container, pathNextContinue...))
}

// parseDuration converts "3:45" or "1:02:03" to seconds.
func parseDuration(s string) int {
	if s == "" {
		return 0
	}
	total := 0
	for _, part := range strings.Split(strings.TrimSpace(s), ":") {
		n, err := strconv.Atoi(part)
		if err != nil {
			return 0
		}
		total = total*60 + n
	}
	return total
}
