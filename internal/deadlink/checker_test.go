package deadlink

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/linkrot/deadlink-finder/internal/model"
)

// roundTripperFunc lets tests answer requests for arbitrary hosts
// without dialing anything.
type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

func respond(status int) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader("")),
		Header:     http.Header{},
	}
}

// fakeDomainStore records UpsertDomain calls.
type fakeDomainStore struct {
	mu      sync.Mutex
	domains []string
	sources []model.DomainSource
	err     error
}

func (s *fakeDomainStore) UpsertDomain(domain string, _ model.AvailabilityVerdict, source model.DomainSource) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.domains = append(s.domains, domain)
	s.sources = append(s.sources, source)
	return s.err
}

func availableProber() *Prober {
	return newProber(staticWhois(WhoisResult{Outcome: WhoisNotFound}), &fakeResolver{fail: true})
}

func testChecker(transport http.RoundTripper, prober *Prober, store DomainStore) *Checker {
	return newChecker(transport, prober, store, slog.Default())
}

func TestCheckerCheck_AliveLink(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	store := &fakeDomainStore{}
	c := testChecker(http.DefaultTransport, availableProber(), store)

	rec := c.Check(context.Background(), model.ExternalLink{URL: ts.URL + "/ok", Text: "ok"}, "Article", "https://en.wikipedia.org/wiki/Article")

	if rec.StatusCode.Dead() {
		t.Errorf("status %v classified dead", rec.StatusCode)
	}
	if rec.Domain != "" || rec.DomainAvailable != nil {
		t.Error("alive link must not carry domain fields")
	}
	if len(store.domains) != 0 {
		t.Errorf("store touched for alive link: %v", store.domains)
	}
}

func TestCheckerCheck_HeadRejectedGetAccepted(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	c := testChecker(http.DefaultTransport, availableProber(), &fakeDomainStore{})

	rec := c.Check(context.Background(), model.ExternalLink{URL: ts.URL + "/page"}, "Article", "https://en.wikipedia.org/wiki/Article")

	if rec.StatusCode.Dead() {
		t.Errorf("status %v classified dead, want alive after GET fallback", rec.StatusCode)
	}
}

func TestCheckerCheck_DeadLinkAvailableDomain(t *testing.T) {
	transport := roundTripperFunc(func(_ *http.Request) (*http.Response, error) {
		return respond(http.StatusNotFound), nil
	})
	store := &fakeDomainStore{}
	c := testChecker(transport, availableProber(), store)

	link := model.ExternalLink{URL: "http://defunct-host.net/page", Text: "old ref"}
	rec := c.Check(context.Background(), link, "History of Testing", "https://en.wikipedia.org/wiki/History_of_Testing")

	if rec.StatusCode.Code != http.StatusNotFound {
		t.Errorf("StatusCode = %v, want 404", rec.StatusCode)
	}
	if rec.Domain != "defunct-host.net" {
		t.Errorf("Domain = %q", rec.Domain)
	}
	if rec.DomainAvailable == nil || !*rec.DomainAvailable {
		t.Error("DomainAvailable = false, want true")
	}
	if rec.DomainStatus != StatusNoDNSRecord {
		t.Errorf("DomainStatus = %q, want %q", rec.DomainStatus, StatusNoDNSRecord)
	}

	if len(store.domains) != 1 || store.domains[0] != "defunct-host.net" {
		t.Fatalf("store upserts = %v, want one for defunct-host.net", store.domains)
	}
	src := store.sources[0]
	if src.URL != link.URL || src.ArticleURL != "https://en.wikipedia.org/wiki/History_of_Testing" {
		t.Errorf("source = %+v", src)
	}
}

func TestCheckerCheck_DeadLinkRestrictedDomain(t *testing.T) {
	transport := roundTripperFunc(func(_ *http.Request) (*http.Response, error) {
		return respond(http.StatusNotFound), nil
	})
	store := &fakeDomainStore{}
	c := testChecker(transport, availableProber(), store)

	rec := c.Check(context.Background(), model.ExternalLink{URL: "http://old-agency.gov/page"}, "Article", "https://en.wikipedia.org/wiki/Article")

	if rec.DomainAvailable == nil || *rec.DomainAvailable {
		t.Error("restricted domain reported available")
	}
	if !strings.HasPrefix(rec.DomainStatus, "Restricted TLD") {
		t.Errorf("DomainStatus = %q, want Restricted TLD prefix", rec.DomainStatus)
	}
	if len(store.domains) != 0 {
		t.Errorf("store gained %v for restricted domain", store.domains)
	}
}

func TestCheckerCheck_TransportErrorBecomesStatus(t *testing.T) {
	transport := roundTripperFunc(func(_ *http.Request) (*http.Response, error) {
		return nil, errors.New("dial tcp: no route to host")
	})
	c := testChecker(transport, availableProber(), &fakeDomainStore{})

	rec := c.Check(context.Background(), model.ExternalLink{URL: "http://defunct-host.net/page"}, "Article", "https://en.wikipedia.org/wiki/Article")

	if !rec.StatusCode.IsError() {
		t.Fatalf("StatusCode = %v, want error string", rec.StatusCode)
	}
	if !strings.HasPrefix(rec.StatusCode.Err, "Error: ") {
		t.Errorf("error status %q missing Error prefix", rec.StatusCode.Err)
	}
	if !rec.StatusCode.Dead() {
		t.Error("transport error must classify dead")
	}
}

func TestCheckerCheck_MalformedURLWithoutDomain(t *testing.T) {
	store := &fakeDomainStore{}
	c := testChecker(http.DefaultTransport, availableProber(), store)

	rec := c.Check(context.Background(), model.ExternalLink{URL: "://bad-url"}, "Article", "https://en.wikipedia.org/wiki/Article")

	if !rec.StatusCode.Dead() {
		t.Error("malformed URL must classify dead")
	}
	if rec.Domain != "" {
		t.Errorf("Domain = %q, want empty", rec.Domain)
	}
	if len(store.domains) != 0 {
		t.Error("store must not be touched without domain info")
	}
}

func TestCheckerCheck_UpsertFailureIsNonFatal(t *testing.T) {
	transport := roundTripperFunc(func(_ *http.Request) (*http.Response, error) {
		return respond(http.StatusGone), nil
	})
	store := &fakeDomainStore{err: errors.New("disk full")}
	c := testChecker(transport, availableProber(), store)

	rec := c.Check(context.Background(), model.ExternalLink{URL: "http://defunct-host.net/page"}, "Article", "https://en.wikipedia.org/wiki/Article")

	// The record still reports the discovery even if the checkpoint
	// write failed.
	if rec.DomainAvailable == nil || !*rec.DomainAvailable {
		t.Error("DomainAvailable lost on store failure")
	}
}
