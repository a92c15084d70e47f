package deadlink

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/linkrot/deadlink-finder/internal/platform/safehttp"
)

// Fetcher defines how the finder retrieves raw article HTML.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (body io.ReadCloser, statusCode int, err error)
}

// limitedReadCloser reads from a LimitReader but closes the original body.
type limitedReadCloser struct {
	io.Reader
	io.Closer
}

// PageClient implements Fetcher using a real HTTP client.
type PageClient struct {
	client *http.Client
}

const (
	fetchTimeout = 10 * time.Second
	maxRedirects = 5

	// userAgent identifies the crawler to Wikipedia and to probed
	// sites, as their robots policies ask of research crawlers.
	userAgent = "DeadLinkFinder/1.0 (Research project for identifying broken links)"
)

var (
	errTooManyRedirects = errors.New("too many redirects")
	errBlockedRedirect  = errors.New("redirect to non-http(s) scheme blocked")
)

// NewPageClient returns a Fetcher backed by an http.Client with a 10s
// timeout, a transport that blocks connections to private/reserved IP
// ranges, and redirect validation. Article URLs come from user input
// and category listings, so the same SSRF posture applies as for
// probed links.
func NewPageClient() *PageClient {
	return newPageClient(safehttp.NewTransport(10))
}

func newPageClient(transport http.RoundTripper) *PageClient {
	return &PageClient{
		client: &http.Client{
			Timeout:       fetchTimeout,
			Transport:     transport,
			CheckRedirect: safeRedirectPolicy,
		},
	}
}

// safeRedirectPolicy validates redirect targets and limits the chain length.
func safeRedirectPolicy(req *http.Request, via []*http.Request) error {
	if len(via) >= maxRedirects {
		return fmt.Errorf("%w: stopped after %d", errTooManyRedirects, maxRedirects)
	}
	if req.URL.Scheme != "http" && req.URL.Scheme != "https" {
		return fmt.Errorf("%w: %s", errBlockedRedirect, req.URL.Scheme)
	}
	return nil
}

// Fetch retrieves the page at the given URL and returns its body.
func (c *PageClient) Fetch(ctx context.Context, targetURL string) (io.ReadCloser, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html")

	resp, err := c.client.Do(req) //nolint:bodyclose // body is returned to caller via limitedReadCloser
	if err != nil {
		return nil, 0, err
	}

	// Limit response body to 10 MB; some articles link into endless
	// streaming endpoints.
	const maxResponseBody = 10 << 20
	limited := &limitedReadCloser{
		Reader: io.LimitReader(resp.Body, maxResponseBody),
		Closer: resp.Body,
	}

	return limited, resp.StatusCode, nil
}
