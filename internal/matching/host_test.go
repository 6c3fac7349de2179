package matching

import "testing"

func TestMatchHost(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
		host    string
		want    bool
	}{
		{"exact", "local.example.com", "local.example.com", true},
		{"port ignored", "localhost", "localhost:8080", true},
		{"case insensitive", "Local.Example.COM", "local.example.com", true},
		{"different host", "example.com", "other.com", false},
		{"wildcard label", "*.example.com", "api.example.com:443", true},
		{"wildcard needs a label", "*.example.com", "example.com", false},
		{"wildcard is one label", "*.example.com", "a.b.example.com", false},
		{"internationalised", "bücher.example", "xn--bcher-kva.example", true},
		{"ipv6 literal", "::1", "[::1]:8080", true},
		{"empty pattern", "", "localhost", false},
		{"empty host", "localhost", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MatchHost(tt.pattern, tt.host)
			if got != tt.want {
				t.Errorf("MatchHost(%q, %q) = %v, want %v", tt.pattern, tt.host, got, tt.want)
			}
		})
	}
}
