// Package wiki is the Wikipedia collaborator: text and category search
// through the MediaWiki API, and category membership listing through
// plain page fetches.
package wiki

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/linkrot/deadlink-finder/internal/model"
	"github.com/linkrot/deadlink-finder/internal/platform/safehttp"
)

const (
	articleNamespace  = "0"
	categoryNamespace = "14"

	categorySearchLimit = 20

	userAgent = "DeadLinkFinder/1.0 (Research project for identifying broken links)"
)

// tagPattern strips HTML markup out of search snippets, which the API
// returns with <span class="searchmatch"> highlighting.
var tagPattern = regexp.MustCompile(`<[^>]+>`)

// Client talks to one Wikipedia instance.
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient returns a Client for the given base URL, e.g.
// "https://en.wikipedia.org". Category URLs arrive in request bodies,
// so the client dials through the same private-address guard as the
// link checkers.
func NewClient(baseURL string) *Client {
	return newClient(baseURL, &http.Client{
		Timeout:   10 * time.Second,
		Transport: safehttp.NewTransport(10),
	})
}

func newClient(baseURL string, httpClient *http.Client) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  httpClient,
	}
}

type searchResponse struct {
	Query struct {
		Search []struct {
			Title   string `json:"title"`
			PageID  int    `json:"pageid"`
			Snippet string `json:"snippet"`
		} `json:"search"`
	} `json:"query"`
}

// SearchText searches article-namespace pages matching the query and
// returns up to limit refs with cleaned snippets.
func (c *Client) SearchText(ctx context.Context, query string, limit int) ([]model.PageRef, error) {
	results, err := c.search(ctx, query, articleNamespace, limit)
	if err != nil {
		return nil, fmt.Errorf("wiki: text search %q: %w", query, err)
	}
	return results, nil
}

// SearchCategories searches the category namespace for categories
// matching the query.
func (c *Client) SearchCategories(ctx context.Context, query string) ([]model.PageRef, error) {
	results, err := c.search(ctx, "Category:"+query, categoryNamespace, categorySearchLimit)
	if err != nil {
		return nil, fmt.Errorf("wiki: category search %q: %w", query, err)
	}
	return results, nil
}

func (c *Client) search(ctx context.Context, term, namespace string, limit int) ([]model.PageRef, error) {
	params := url.Values{
		"action":      {"query"},
		"format":      {"json"},
		"list":        {"search"},
		"srsearch":    {term},
		"srnamespace": {namespace},
		"srlimit":     {strconv.Itoa(limit)},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/w/api.php?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search API returned status %d", resp.StatusCode)
	}

	var decoded searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, err
	}

	pages := make([]model.PageRef, 0, len(decoded.Query.Search))
	for _, r := range decoded.Query.Search {
		pages = append(pages, model.PageRef{
			Title:   r.Title,
			URL:     c.PageURL(r.Title),
			Snippet: tagPattern.ReplaceAllString(r.Snippet, ""),
			PageID:  r.PageID,
		})
	}

	return pages, nil
}

// PagesInCategory fetches a category page and returns its member
// articles, skipping subcategories and file pages.
func (c *Client) PagesInCategory(ctx context.Context, categoryURL string) ([]model.PageRef, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, categoryURL, nil)
	if err != nil {
		return nil, fmt.Errorf("wiki: category fetch: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("wiki: category fetch: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("wiki: category fetch returned status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("wiki: category parse: %w", err)
	}

	var pages []model.PageRef
	doc.Find("div#mw-content-text li").Each(func(_ int, li *goquery.Selection) {
		link := li.Find("a").First()
		href, hasHref := link.Attr("href")
		title, hasTitle := link.Attr("title")
		if !hasHref || !hasTitle {
			return
		}

		// Member lists mix articles with subcategories and media files.
		if strings.Contains(href, "Category:") || strings.Contains(href, "File:") {
			return
		}

		if strings.HasPrefix(href, "/wiki/") {
			pages = append(pages, model.PageRef{
				Title: title,
				URL:   c.baseURL + href,
			})
		}
	})

	return pages, nil
}

// PageURL builds the canonical article URL for a page title.
func (c *Client) PageURL(title string) string {
	return c.baseURL + "/wiki/" + strings.ReplaceAll(title, " ", "_")
}
