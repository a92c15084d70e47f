package deadlink

import "testing"

func TestExtractDomain(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		expected string
	}{
		{
			name:     "plain domain",
			url:      "https://example.com/page",
			expected: "example.com",
		},
		{
			name:     "www prefix stripped",
			url:      "https://www.example.com/page",
			expected: "example.com",
		},
		{
			name:     "port preserved",
			url:      "http://example.com:80/index.html",
			expected: "example.com:80",
		},
		{
			name:     "subdomain preserved",
			url:      "https://docs.example.co.uk/",
			expected: "docs.example.co.uk",
		},
		{
			name:     "www only stripped as prefix",
			url:      "https://wwwexample.com/",
			expected: "wwwexample.com",
		},
		{
			name:     "malformed URL yields empty",
			url:      "://not-a-url",
			expected: "",
		},
		{
			name:     "relative URL has no host",
			url:      "/wiki/Something",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractDomain(tt.url); got != tt.expected {
				t.Errorf("ExtractDomain(%q) = %q, want %q", tt.url, got, tt.expected)
			}
		})
	}
}

func TestIsExcludedDomain(t *testing.T) {
	tests := []struct {
		name     string
		domain   string
		expected bool
	}{
		{name: "empty domain always excluded", domain: "", expected: true},
		{name: "german ccTLD", domain: "beispiel.de", expected: true},
		{name: "uppercase suffix still matches", domain: "BEISPIEL.DE", expected: true},
		{name: "embedded port suffix", domain: "oldsite.com:80", expected: true},
		{name: "second level pair", domain: "news.com.au", expected: true},
		{name: "university host", domain: "fisica.uam.es", expected: true},
		{name: "plain com not excluded", domain: "example.com", expected: false},
		{name: "org not excluded", domain: "example.org", expected: false},
		{name: "net not excluded", domain: "defunct-host.net", expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsExcludedDomain(tt.domain); got != tt.expected {
				t.Errorf("IsExcludedDomain(%q) = %v, want %v", tt.domain, got, tt.expected)
			}
		})
	}
}

func TestIsRestrictedTLD(t *testing.T) {
	tests := []struct {
		name     string
		domain   string
		expected bool
	}{
		{name: "edu", domain: "mit.edu", expected: true},
		{name: "gov", domain: "nasa.gov", expected: true},
		{name: "mil", domain: "army.mil", expected: true},
		{name: "int", domain: "nato.int", expected: true},
		{name: "arpa", domain: "in-addr.arpa", expected: true},
		{name: "uppercase gov", domain: "NASA.GOV", expected: true},
		{name: "academic second level", domain: "cam.ac.uk", expected: true},
		{name: "australian government", domain: "treasury.gov.au", expected: true},
		{name: "uk health service", domain: "trust.nhs.uk", expected: true},
		{name: "plain com", domain: "example.com", expected: false},
		{name: "bare co.uk is commercial", domain: "shop.co.uk", expected: false},
		{name: "single label never restricted", domain: "localhost", expected: false},
		{name: "empty domain", domain: "", expected: false},
		{name: "two labels cannot match second-level pair", domain: "ac.uk", expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRestrictedTLD(tt.domain); got != tt.expected {
				t.Errorf("IsRestrictedTLD(%q) = %v, want %v", tt.domain, got, tt.expected)
			}
		})
	}
}
