package request

import "testing"

func TestNormalizeProvider(t *testing.T) {
	tests := []struct {
		host     string
		expected string
	}{
		{"nominatim.openstreetmap.org", "nominatim"},
		{"www.openstreetmap.org", "nominatim"},
		{"overpass-api.de", "overpass"},
		{"overpass.kumi.systems", "overpass"},
		{"lz4.overpass-api.de", "overpass"},
		{"other.com", "other.com"},
	}

	for _, tt := range tests {
		got := normalizeProvider(tt.host)
		if got != tt.expected {
			t.Errorf("normalizeProvider(%q) = %q; want %q", tt.host, got, tt.expected)
		}
	}
}
