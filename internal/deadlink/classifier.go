// Package deadlink implements the dead-link discovery pipeline: a
// Wikipedia article is fetched, its outbound citation links are
// extracted, each link's liveness is probed over HTTP, and the domains
// behind dead links are checked for registration availability.
package deadlink

import (
	"net/url"
	"strings"
)

// restrictedTLDs are top-level and second-level suffixes that cannot be
// freely registered and are therefore never reported as available.
var restrictedTLDs = []string{
	"edu", "gov", "mil", "int", "arpa",
	"us.gov", "us.edu", "ac.uk", "gov.uk", "mil.uk", "ac.id", "nhs.uk",
	"police.uk", "mod.uk", "parliament.uk", "gov.au", "edu.au",
}

// excludedDomainEndings are domain suffixes excluded from availability
// reporting entirely. Some entries carry embedded ports because dead
// links in article markup occasionally do.
var excludedDomainEndings = []string{
	".de", ".bg", ".br", ".com.au", ".edu.tw", ".dk", ".com:80", ".co.in",
	".im", ".org:80", ".is", ".ch", ".ac.at", ".gov.ua", ".edu:8000",
	".gov.pt", ".pk", ".hu", ".uam.es", ".at", ".jp", ".fi",
}

// ExtractDomain parses the authority component of rawURL and strips a
// leading "www.". It returns an empty string for URLs with no parseable
// host; callers treat that as "no domain information".
func ExtractDomain(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	domain := parsed.Host
	domain = strings.TrimPrefix(domain, "www.")
	return domain
}

// IsExcludedDomain reports whether the domain should be excluded from
// availability reporting. An empty domain is always excluded. Matching
// is by case-insensitive suffix against the exclusion list.
func IsExcludedDomain(domain string) bool {
	if domain == "" {
		return true
	}

	lower := strings.ToLower(domain)
	for _, ending := range excludedDomainEndings {
		if strings.HasSuffix(lower, ending) {
			return true
		}
	}

	return false
}

// IsRestrictedTLD reports whether the domain ends in a suffix subject
// to registration eligibility rules: a restricted top-level label
// (.edu, .gov, .mil, .int, .arpa) or a restricted second-level pair
// such as ac.uk. Single-label domains are never restricted.
func IsRestrictedTLD(domain string) bool {
	if domain == "" {
		return false
	}

	parts := strings.Split(strings.ToLower(domain), ".")
	if len(parts) < 2 {
		return false
	}

	switch parts[len(parts)-1] {
	case "edu", "gov", "mil", "int", "arpa":
		return true
	}

	if len(parts) > 2 {
		lastTwo := strings.Join(parts[len(parts)-2:], ".")
		for _, tld := range restrictedTLDs {
			if lastTwo == tld {
				return true
			}
		}
	}

	return false
}
