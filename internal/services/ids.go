package services

import (
	"regexp"
	"strings"
)

var (
	videoIDPattern   = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)
	channelIDPattern = regexp.MustCompile(`^UC[A-Za-z0-9_-]{22}$`)
)

// PlaylistPrefixes are the id prefixes InnerTube uses for playlists and auto-generated lists.
var PlaylistPrefixes = []string{"PL", "UU", "LL", "RD", "WL", "OL", "VL", "LM", "SE"}

// IsVideoID reports whether id has the shape of an 11 character video id.
func IsVideoID(id string) bool {
	return videoIDPattern.MatchString(id)
}

// IsChannelID reports whether id has the shape of a UC channel id.
func IsChannelID(id string) bool {
	return channelIDPattern.MatchString(id)
}

// IsPlaylistID reports whether id starts with a known playlist prefix.
func IsPlaylistID(id string) bool {
	for _, p := range PlaylistPrefixes {
		if strings.HasPrefix(id, p) && len(id) > len(p) || id == p {
			return true
		}
	}
	return false
}
