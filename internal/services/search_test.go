package services

import (
	"testing"
)

func TestSearchParams(t *testing.T) {
	tests := []struct {
		name           string
		filter, scope  string
		ignoreSpelling bool
		want           string
	}{
		{"none", "", "", false, ""},
		{"ignore spelling only", "", "", true, "EhGKAQ4IARABGAEgASgAOAFAAUICCAE%3D"},
		{"songs", "songs", "", false, "EgWKAQIIAWoMEA4QChADEAQQCRAF"},
		{"videos ignore spelling", "videos", "", true, "EgWKAQIQAUICCAFqDBAOEAoQAxAEEAkQBQ%3D%3D"},
		{"playlists", "playlists", "", false, "Eg-KAQwIABAAGAAgACgBMABqChAEEAMQCRAFEAo%3D"},
		{"community playlists", "community_playlists", "", false, "EgeKAQQoAEABagwQDhAKEAMQBBAJEAU%3D"},
		{"featured playlists", "featured_playlists", "", false, "EgeKAQQoADgBagwQDhAKEAMQBBAJEAU%3D"},
		{"library", "", "library", false, "agIYBA%3D%3D"},
		{"library albums", "albums", "library", false, "EgWKAQIYAWoKEAUQCRADEAoYBA%3D%3D"},
		{"uploads", "", "uploads", false, "agIYAw%3D%3D"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := searchParams(tt.filter, tt.scope, tt.ignoreSpelling)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if got != tt.want {
				t.Errorf("searchParams(%q, %q, %v) = %q, want %q", tt.filter, tt.scope, tt.ignoreSpelling, got, tt.want)
			}
		})
	}

	t.Run("Invalid Combinations", func(t *testing.T) {
		invalid := []struct{ filter, scope string }{
			{"lyrics", ""},
			{"", "everything"},
			{"songs", "uploads"},
			{"community_playlists", "library"},
		}
		for _, tt := range invalid {
			_, err := searchParams(tt.filter, tt.scope, false)
			if _, ok := err.(*InputError); !ok {
				t.Errorf("searchParams(%q, %q) expected InputError, got %v", tt.filter, tt.scope, err)
			}
		}
	})
}
