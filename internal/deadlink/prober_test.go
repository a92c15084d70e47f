package deadlink

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	whoisparser "github.com/likexian/whois-parser"
)

// fakeResolver resolves every host or none, depending on fail.
type fakeResolver struct {
	fail bool
}

func (r *fakeResolver) LookupHost(_ context.Context, host string) ([]string, error) {
	if r.fail {
		return nil, errors.New("no such host: " + host)
	}
	return []string{"203.0.113.10"}, nil
}

func staticWhois(res WhoisResult) WhoisFunc {
	return func(_ context.Context, _ string) WhoisResult {
		return res
	}
}

func registeredInfo(registrar, created, expiration string, expiresAt *time.Time) whoisparser.WhoisInfo {
	return whoisparser.WhoisInfo{
		Registrar: &whoisparser.Contact{Name: registrar},
		Domain: &whoisparser.Domain{
			CreatedDate:          created,
			ExpirationDate:       expiration,
			ExpirationDateInTime: expiresAt,
		},
	}
}

func TestProberCheck_GuardsBeforeWhois(t *testing.T) {
	// The whois function must never run for these inputs.
	exploding := func(_ context.Context, domain string) WhoisResult {
		panic("whois queried for guarded domain " + domain)
	}
	p := newProber(exploding, &fakeResolver{})

	tests := []struct {
		name       string
		domain     string
		wantStatus string
	}{
		{name: "empty domain", domain: "", wantStatus: StatusInvalidDomain},
		{name: "excluded ending", domain: "beispiel.de", wantStatus: StatusExcluded},
		{name: "restricted tld", domain: "nasa.gov", wantStatus: StatusRestricted},
		{name: "restricted second level", domain: "cam.ac.uk", wantStatus: StatusRestricted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verdict := p.Check(context.Background(), tt.domain)
			if verdict.Available {
				t.Errorf("Available = true, want false")
			}
			if verdict.Status != tt.wantStatus {
				t.Errorf("Status = %q, want %q", verdict.Status, tt.wantStatus)
			}
		})
	}
}

func TestProberCheck_NoRegistrarIsPotentiallyAvailable(t *testing.T) {
	p := newProber(staticWhois(WhoisResult{
		Outcome: WhoisFound,
		Raw:     "Domain Name: defunct-host.net\n",
	}), &fakeResolver{})

	verdict := p.Check(context.Background(), "defunct-host.net")

	if !verdict.Available {
		t.Error("Available = false, want true")
	}
	if verdict.Status != StatusPotentiallyAvailable {
		t.Errorf("Status = %q, want %q", verdict.Status, StatusPotentiallyAvailable)
	}
	if verdict.Details["whois"] == "" {
		t.Error("expected raw whois text in details")
	}
}

func TestProberCheck_ExpiredDomain(t *testing.T) {
	past := time.Now().Add(-365 * 24 * time.Hour)
	p := newProber(staticWhois(WhoisResult{
		Outcome: WhoisFound,
		Info:    registeredInfo("Example Registrar Inc.", "2001-03-04", "2024-03-04", &past),
	}), &fakeResolver{})

	verdict := p.Check(context.Background(), "defunct-host.net")

	if !verdict.Available {
		t.Error("Available = false, want true")
	}
	if verdict.Status != StatusExpired {
		t.Errorf("Status = %q, want %q", verdict.Status, StatusExpired)
	}
	if verdict.Details["registrar"] != "Example Registrar Inc." {
		t.Errorf("registrar detail = %q", verdict.Details["registrar"])
	}
	if verdict.Details["expiration_date"] != "2024-03-04" {
		t.Errorf("expiration detail = %q", verdict.Details["expiration_date"])
	}
}

func TestProberCheck_RegisteredDomain(t *testing.T) {
	future := time.Now().Add(365 * 24 * time.Hour)
	p := newProber(staticWhois(WhoisResult{
		Outcome: WhoisFound,
		Info:    registeredInfo("Example Registrar Inc.", "2001-03-04", "2101-03-04", &future),
	}), &fakeResolver{})

	verdict := p.Check(context.Background(), "active-host.net")

	if verdict.Available {
		t.Error("Available = true, want false")
	}
	if verdict.Status != StatusRegistered {
		t.Errorf("Status = %q, want %q", verdict.Status, StatusRegistered)
	}
	if verdict.Details["creation_date"] != "2001-03-04" {
		t.Errorf("creation detail = %q", verdict.Details["creation_date"])
	}
}

func TestProberCheck_RegisteredWithoutDates(t *testing.T) {
	p := newProber(staticWhois(WhoisResult{
		Outcome: WhoisFound,
		Info: whoisparser.WhoisInfo{
			Registrar: &whoisparser.Contact{Name: "Example Registrar Inc."},
		},
	}), &fakeResolver{})

	verdict := p.Check(context.Background(), "active-host.net")

	if verdict.Status != StatusRegistered {
		t.Errorf("Status = %q, want %q", verdict.Status, StatusRegistered)
	}
	if verdict.Details["creation_date"] != "Unknown" || verdict.Details["expiration_date"] != "Unknown" {
		t.Errorf("missing dates should render as Unknown, got %v", verdict.Details)
	}
}

func TestProberCheck_NoWhoisRecordDNSExists(t *testing.T) {
	p := newProber(staticWhois(WhoisResult{Outcome: WhoisNotFound}), &fakeResolver{fail: false})

	verdict := p.Check(context.Background(), "resolvable-host.net")

	if verdict.Available {
		t.Error("Available = true, want false")
	}
	if verdict.Status != StatusDNSRecordExists {
		t.Errorf("Status = %q, want %q", verdict.Status, StatusDNSRecordExists)
	}
}

func TestProberCheck_NoWhoisRecordNoDNS(t *testing.T) {
	p := newProber(staticWhois(WhoisResult{Outcome: WhoisNotFound}), &fakeResolver{fail: true})

	verdict := p.Check(context.Background(), "defunct-host.net")

	if !verdict.Available {
		t.Error("Available = false, want true")
	}
	if verdict.Status != StatusNoDNSRecord {
		t.Errorf("Status = %q, want %q", verdict.Status, StatusNoDNSRecord)
	}
}

func TestProberCheck_TransportError(t *testing.T) {
	p := newProber(staticWhois(WhoisResult{
		Outcome: WhoisTransportError,
		Err:     errors.New("connection refused"),
	}), &fakeResolver{})

	verdict := p.Check(context.Background(), "defunct-host.net")

	if verdict.Available {
		t.Error("Available = true, want false")
	}
	if !strings.HasPrefix(verdict.Status, "Error: ") {
		t.Errorf("Status = %q, want Error prefix", verdict.Status)
	}
	if !strings.Contains(verdict.Status, "connection refused") {
		t.Errorf("Status = %q, want cause message included", verdict.Status)
	}
}

func TestProberCheck_ExcludedNeverAvailable(t *testing.T) {
	// Even a whois result that screams "available" must not make an
	// excluded domain available.
	p := newProber(staticWhois(WhoisResult{Outcome: WhoisNotFound}), &fakeResolver{fail: true})

	for _, domain := range []string{"anything.de", "site.com.au", "host.org:80", "web.uam.es"} {
		verdict := p.Check(context.Background(), domain)
		if verdict.Available {
			t.Errorf("Check(%q).Available = true, want false", domain)
		}
		if verdict.Status != StatusExcluded {
			t.Errorf("Check(%q).Status = %q, want %q", domain, verdict.Status, StatusExcluded)
		}
	}
}
