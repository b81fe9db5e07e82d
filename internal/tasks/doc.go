// Package tasks runs upstream operations that need more than one call to YouTube Music.
//
// # Degraded retries
//
// YouTube Music changes its response layout without notice. When a response cannot be
// parsed, [Engine] retries with reduced parameters before giving up:
//
//  1. [Engine.Search] : retries with the query and filter only, at most 10 results
//     - success carries "OK (simplified results due to API changes)" and a warning
//     - failure is a 503 describing the structure change
//
//  2. [Engine.Suggestions] : retries a detailed request without bold runs
//
//  3. [Engine.Artist] / [Engine.User] : a channel without the expected header is
//     fetched as the other page type and the result carries a note
//
// Every retry is counted in the fallback metrics by operation and outcome.
//
// # Multi-step lookups
//
//   - [Engine.SongRelated] : related content for a video id, through the watch playlist when needed
//   - [Engine.ArtistVideos] : the playlist behind an artist's videos shelf
//   - [Engine.UserPlaylists] / [Engine.UserVideos] : listings behind a user's shelves
//   - [Engine.AddHistoryItem] : song lookup followed by the playback ping
//
// Failures are returned as *failures.Error values, already classified for the route.
//
// # Bulk export
//
// [Engine.BulkExport] fetches playlists through a rate limiter and writes them with a
// worker pool. Progress is reported on an optional channel; sends never block, so a slow
// reader only misses updates.
package tasks
