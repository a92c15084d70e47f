package deadlink

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/likexian/whois"
	whoisparser "github.com/likexian/whois-parser"

	"github.com/linkrot/deadlink-finder/internal/model"
)

// Availability statuses reported by the Prober. The dashboard filters
// on these strings, so they are part of the persisted contract.
const (
	StatusInvalidDomain        = "Invalid domain"
	StatusExcluded             = "Excluded domain"
	StatusRestricted           = "Restricted TLD (not available for general registration)"
	StatusPotentiallyAvailable = "Potentially available"
	StatusExpired              = "Expired"
	StatusRegistered           = "Registered"
	StatusDNSRecordExists      = "DNS record exists"
	StatusNoDNSRecord          = "No DNS record found"
	StatusRestrictedOrExcluded = "Restricted TLD or excluded domain"
)

// WhoisOutcome classifies a WHOIS lookup attempt.
type WhoisOutcome int

const (
	// WhoisFound means the registry returned a parseable record.
	WhoisFound WhoisOutcome = iota
	// WhoisNotFound means the registry answered but holds no record
	// for the domain. This is an expected branch, not an error: the
	// prober falls back to DNS resolution.
	WhoisNotFound
	// WhoisTransportError covers network failures and unparseable
	// responses.
	WhoisTransportError
)

// WhoisResult is the typed outcome of a WHOIS lookup.
type WhoisResult struct {
	Outcome WhoisOutcome
	Raw     string
	Info    whoisparser.WhoisInfo
	Err     error
}

// WhoisFunc performs a WHOIS lookup for a bare domain name.
type WhoisFunc func(ctx context.Context, domain string) WhoisResult

// hostResolver is the subset of net.Resolver the prober needs.
type hostResolver interface {
	LookupHost(ctx context.Context, host string) ([]string, error)
}

var defaultResolver hostResolver = net.DefaultResolver

// Prober decides whether a domain appears available for registration.
// The verdict is pure data; persistence is the caller's responsibility.
type Prober struct {
	whoisFn  WhoisFunc
	resolver hostResolver
}

// NewProber returns a Prober using a live WHOIS client with the given
// per-query timeout and the default DNS resolver.
func NewProber(timeout time.Duration) *Prober {
	return newProber(liveWhois(timeout), nil)
}

func newProber(fn WhoisFunc, resolver hostResolver) *Prober {
	return &Prober{whoisFn: fn, resolver: resolver}
}

// liveWhois adapts the likexian WHOIS client and parser into the typed
// WhoisFunc contract.
func liveWhois(timeout time.Duration) WhoisFunc {
	client := whois.NewClient()
	client.SetTimeout(timeout)

	return func(_ context.Context, domain string) WhoisResult {
		raw, err := client.Whois(domain)
		if err != nil {
			return WhoisResult{Outcome: WhoisTransportError, Err: err}
		}

		info, err := whoisparser.Parse(raw)
		if err != nil {
			if errors.Is(err, whoisparser.ErrNotFoundDomain) {
				return WhoisResult{Outcome: WhoisNotFound, Raw: raw}
			}
			return WhoisResult{Outcome: WhoisTransportError, Raw: raw, Err: err}
		}

		return WhoisResult{Outcome: WhoisFound, Raw: raw, Info: info}
	}
}

// Check evaluates the availability heuristic ladder for a domain, first
// match wins: invalid, excluded, restricted TLD, then WHOIS, then DNS
// fallback. Callers have usually already filtered excluded and
// restricted domains, but Check re-applies both guards so direct
// invocation cannot produce a false "available".
func (p *Prober) Check(ctx context.Context, domain string) model.AvailabilityVerdict {
	if domain == "" {
		return model.AvailabilityVerdict{
			Available: false,
			Status:    StatusInvalidDomain,
			Details:   map[string]string{},
		}
	}

	if IsExcludedDomain(domain) {
		return model.AvailabilityVerdict{
			Available: false,
			Status:    StatusExcluded,
			Details:   map[string]string{"info": "This domain has been excluded from availability checks."},
		}
	}

	if IsRestrictedTLD(domain) {
		return model.AvailabilityVerdict{
			Available: false,
			Status:    StatusRestricted,
			Details:   map[string]string{"info": "This is a restricted domain that requires special eligibility requirements."},
		}
	}

	res := p.whoisFn(ctx, domain)
	switch res.Outcome {
	case WhoisFound:
		return verdictFromWhois(res)
	case WhoisNotFound:
		return p.dnsFallback(ctx, domain)
	default:
		return model.AvailabilityVerdict{
			Available: false,
			Status:    fmt.Sprintf("Error: %v", res.Err),
			Details:   map[string]string{},
		}
	}
}

// verdictFromWhois maps a parsed WHOIS record to a verdict: no
// registrar means potentially available, an expiration date in the past
// means expired, anything else is registered.
func verdictFromWhois(res WhoisResult) model.AvailabilityVerdict {
	registrar := ""
	if res.Info.Registrar != nil {
		registrar = res.Info.Registrar.Name
	}

	if registrar == "" {
		return model.AvailabilityVerdict{
			Available: true,
			Status:    StatusPotentiallyAvailable,
			Details:   map[string]string{"whois": res.Raw},
		}
	}

	var creation, expiration string
	var expiresAt *time.Time
	if res.Info.Domain != nil {
		creation = res.Info.Domain.CreatedDate
		expiration = res.Info.Domain.ExpirationDate
		expiresAt = res.Info.Domain.ExpirationDateInTime
	}

	if expiresAt != nil && expiresAt.Before(time.Now()) {
		return model.AvailabilityVerdict{
			Available: true,
			Status:    StatusExpired,
			Details: map[string]string{
				"expiration_date": expiration,
				"registrar":       registrar,
			},
		}
	}

	return model.AvailabilityVerdict{
		Available: false,
		Status:    StatusRegistered,
		Details: map[string]string{
			"registrar":       registrar,
			"creation_date":   orUnknown(creation),
			"expiration_date": orUnknown(expiration),
		},
	}
}

// dnsFallback handles the no-WHOIS-record branch: a resolvable name is
// in use regardless of what the registry says; an unresolvable one is
// likely available, after a re-check of the guard lists.
func (p *Prober) dnsFallback(ctx context.Context, domain string) model.AvailabilityVerdict {
	resolver := p.resolver
	if resolver == nil {
		resolver = defaultResolver
	}

	if _, err := resolver.LookupHost(ctx, domain); err == nil {
		return model.AvailabilityVerdict{
			Available: false,
			Status:    StatusDNSRecordExists,
			Details:   map[string]string{},
		}
	}

	if IsRestrictedTLD(domain) || IsExcludedDomain(domain) {
		return model.AvailabilityVerdict{
			Available: false,
			Status:    StatusRestrictedOrExcluded,
			Details:   map[string]string{"info": "This domain is either restricted or has been excluded."},
		}
	}

	return model.AvailabilityVerdict{
		Available: true,
		Status:    StatusNoDNSRecord,
		Details:   map[string]string{},
	}
}

func orUnknown(s string) string {
	if s == "" {
		return "Unknown"
	}
	return s
}
