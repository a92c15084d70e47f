package deadlink

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/linkrot/deadlink-finder/internal/model"
	"github.com/linkrot/deadlink-finder/internal/platform/safehttp"
)

// DomainStore receives available-domain discoveries from the checker.
// Implementations must persist before returning; the upsert is the
// durability checkpoint for a discovery.
type DomainStore interface {
	UpsertDomain(domain string, verdict model.AvailabilityVerdict, source model.DomainSource) error
}

// Checker probes one link's liveness and, for dead links, follows up
// with a domain availability probe.
type Checker struct {
	client *http.Client
	prober *Prober
	store  DomainStore
	logger *slog.Logger
}

const checkTimeout = 10 * time.Second

// NewChecker returns a Checker with a redirect-following HTTP client,
// a 10s per-request timeout, and the SSRF-safe transport. Concurrency
// sizes the connection pool to match the finder's worker pool.
func NewChecker(concurrency int, prober *Prober, store DomainStore, logger *slog.Logger) *Checker {
	return newChecker(safehttp.NewTransport(concurrency), prober, store, logger)
}

func newChecker(transport http.RoundTripper, prober *Prober, store DomainStore, logger *slog.Logger) *Checker {
	return &Checker{
		client: &http.Client{
			Timeout:       checkTimeout,
			Transport:     transport,
			CheckRedirect: safeRedirectPolicy,
		},
		prober: prober,
		store:  store,
		logger: logger,
	}
}

// Check probes a single link and returns its record. A HEAD request
// runs first; on a transport error or a status >= 400 the probe retries
// once with GET, since plenty of servers reject HEAD outright. A dead
// verdict triggers the domain availability probe, and an available
// domain is upserted into the store with this link as a source.
func (c *Checker) Check(ctx context.Context, link model.ExternalLink, articleTitle, articleURL string) model.LinkRecord {
	status := c.probe(ctx, http.MethodHead, link.URL)
	if status.Dead() {
		status = c.probe(ctx, http.MethodGet, link.URL)
	}

	rec := model.LinkRecord{
		URL:          link.URL,
		LinkText:     link.Text,
		ArticleTitle: articleTitle,
		ArticleURL:   articleURL,
		StatusCode:   status,
		Timestamp:    time.Now(),
	}

	if !status.Dead() {
		return rec
	}

	domain := ExtractDomain(link.URL)
	if domain == "" {
		return rec
	}

	verdict := c.prober.Check(ctx, domain)
	available := verdict.Available
	rec.Domain = domain
	rec.DomainAvailable = &available
	rec.DomainStatus = verdict.Status
	rec.DomainDetails = verdict.Details

	if available && !IsExcludedDomain(domain) {
		source := model.DomainSource{
			URL:          link.URL,
			LinkText:     link.Text,
			ArticleTitle: articleTitle,
			ArticleURL:   articleURL,
		}
		if err := c.store.UpsertDomain(domain, verdict, source); err != nil {
			c.logger.Error("failed to persist available domain",
				"domain", domain, "url", link.URL, "error", err)
		}
	}

	return rec
}

// probe issues a single request and maps the outcome to a LinkStatus.
// Transport errors become string statuses, keeping the batch alive.
func (c *Checker) probe(ctx context.Context, method, url string) model.LinkStatus {
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return model.ErrorStatus(fmt.Sprintf("Error: %v", err))
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return model.ErrorStatus(fmt.Sprintf("Error: %v", err))
	}
	defer func() { _ = resp.Body.Close() }()

	// Drain a little so the connection can be reused; probes never
	// need the payload.
	_, _ = io.CopyN(io.Discard, resp.Body, 512)

	return model.HTTPStatus(resp.StatusCode)
}
