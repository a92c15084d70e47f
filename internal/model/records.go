package model

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// LinkStatus is the outcome of a liveness check: either an HTTP status
// code or a transport error description. It serializes as a JSON number
// in the first case and a JSON string in the second, matching the
// persisted file format.
type LinkStatus struct {
	Code int
	Err  string
}

// HTTPStatus returns a LinkStatus carrying an HTTP status code.
func HTTPStatus(code int) LinkStatus {
	return LinkStatus{Code: code}
}

// ErrorStatus returns a LinkStatus carrying a transport error description.
func ErrorStatus(msg string) LinkStatus {
	return LinkStatus{Err: msg}
}

// Dead reports whether the status classifies the link as dead:
// a transport error or an HTTP status >= 400.
func (s LinkStatus) Dead() bool {
	return s.Err != "" || s.Code >= 400
}

// IsError reports whether the status is a transport error rather than
// an HTTP status code.
func (s LinkStatus) IsError() bool {
	return s.Err != ""
}

func (s LinkStatus) String() string {
	if s.Err != "" {
		return s.Err
	}
	return strconv.Itoa(s.Code)
}

// MarshalJSON encodes the status as a number for HTTP codes and a
// string for errors.
func (s LinkStatus) MarshalJSON() ([]byte, error) {
	if s.Err != "" {
		return json.Marshal(s.Err)
	}
	return json.Marshal(s.Code)
}

// UnmarshalJSON accepts either form.
func (s *LinkStatus) UnmarshalJSON(data []byte) error {
	var code int
	if err := json.Unmarshal(data, &code); err == nil {
		*s = LinkStatus{Code: code}
		return nil
	}
	var msg string
	if err := json.Unmarshal(data, &msg); err != nil {
		return fmt.Errorf("link status must be a number or a string: %w", err)
	}
	*s = LinkStatus{Err: msg}
	return nil
}

// LinkRecord is the persisted result of checking one link found on one
// article. Records are written only for dead links; the domain fields
// are present when the URL yielded a parseable domain.
type LinkRecord struct {
	URL             string            `json:"url"`
	LinkText        string            `json:"text"`
	ArticleTitle    string            `json:"article_title"`
	ArticleURL      string            `json:"article_url"`
	StatusCode      LinkStatus        `json:"status_code"`
	Timestamp       time.Time         `json:"timestamp"`
	Domain          string            `json:"domain,omitempty"`
	DomainAvailable *bool             `json:"domain_available,omitempty"`
	DomainStatus    string            `json:"domain_status,omitempty"`
	DomainDetails   map[string]string `json:"domain_details,omitempty"`
}

// Key returns the record's identity in the results store. The composite
// is case-sensitive: differently-cased URLs are distinct records.
func (r LinkRecord) Key() string {
	return r.URL + "_" + r.ArticleURL
}

// AvailabilityVerdict is the outcome of a domain availability probe.
type AvailabilityVerdict struct {
	Available bool              `json:"available"`
	Status    string            `json:"status"`
	Details   map[string]string `json:"details"`
}

// DomainSource records one dead link through which an available domain
// was discovered.
type DomainSource struct {
	URL          string `json:"url"`
	LinkText     string `json:"text"`
	ArticleTitle string `json:"article_title"`
	ArticleURL   string `json:"article_url"`
}

// DomainRecord is the persisted entry for a domain judged available for
// registration. Sources grows by append, deduplicated by
// (URL, ArticleURL); records are never deleted within a run.
type DomainRecord struct {
	Domain  string            `json:"domain"`
	Status  string            `json:"status"`
	Details map[string]string `json:"details"`
	FoundOn time.Time         `json:"found_on"`
	Sources []DomainSource    `json:"sources"`
}

// HasSource reports whether the record already lists the given link as
// a source.
func (r DomainRecord) HasSource(url, articleURL string) bool {
	for _, s := range r.Sources {
		if s.URL == url && s.ArticleURL == articleURL {
			return true
		}
	}
	return false
}

// ExternalLink is one outbound link extracted from an article, in
// document order.
type ExternalLink struct {
	URL  string `json:"url"`
	Text string `json:"text"`
}

// ArticlePage is the transient view of a fetched article. Not persisted.
type ArticlePage struct {
	Title         string
	URL           string
	ExternalLinks []ExternalLink
}

// PageRef identifies a Wikipedia page to crawl, produced by text search,
// category search, or category membership listing.
type PageRef struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet,omitempty"`
	PageID  int    `json:"page_id,omitempty"`
}

// ErrorResponse is the JSON shape returned on failure.
type ErrorResponse struct {
	Error      string `json:"error"`
	StatusCode int    `json:"status_code"`
	Message    string `json:"message"`
}
