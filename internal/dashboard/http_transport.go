package dashboard

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/linkrot/deadlink-finder/internal/model"
	"github.com/linkrot/deadlink-finder/internal/platform/errs"
)

const (
	searchTimeout = 30 * time.Second

	// Batch crawls pace themselves at roughly one article per second
	// plus per-link probing, so the ceiling has to be generous.
	crawlTimeout = 15 * time.Minute

	defaultSearchLimit = 50
)

var (
	errQueryRequired = errors.New("the \"query\" field is required")
	errURLRequired   = errors.New("the \"url\" field is required")
	errPagesRequired = errors.New("the \"pages\" field must not be empty")
)

// Transport handles HTTP requests for the dashboard surface.
type Transport struct {
	service  *Service
	reads    ReadModels
	maxPages int
	logger   *slog.Logger
}

// NewTransport creates an HTTP transport backed by the given service
// and read models. maxPages caps batch and category crawls when the
// request does not set its own limit.
func NewTransport(service *Service, reads ReadModels, maxPages int, logger *slog.Logger) *Transport {
	return &Transport{service: service, reads: reads, maxPages: maxPages, logger: logger}
}

// RegisterRoutes attaches the transport's handlers to the given mux.
func (t *Transport) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", t.handleHealthz)
	mux.HandleFunc("POST /search/text", t.handleSearchText)
	mux.HandleFunc("POST /search/categories", t.handleSearchCategories)
	mux.HandleFunc("POST /crawl/article", t.handleCrawlArticle)
	mux.HandleFunc("POST /crawl/batch", t.handleCrawlBatch)
	mux.HandleFunc("POST /crawl/category", t.handleCrawlCategory)
	mux.HandleFunc("GET /results", t.handleResults)
	mux.HandleFunc("GET /domains", t.handleDomains)
	mux.HandleFunc("GET /results.csv", t.handleResultsCSV)
	mux.HandleFunc("GET /domains.csv", t.handleDomainsCSV)
}

type searchTextRequest struct {
	Query string `json:"query"`
	Limit int    `json:"limit"`
}

func (r searchTextRequest) validate() error {
	if r.Query == "" {
		return errQueryRequired
	}
	return nil
}

type searchCategoriesRequest struct {
	Query string `json:"query"`
}

func (r searchCategoriesRequest) validate() error {
	if r.Query == "" {
		return errQueryRequired
	}
	return nil
}

type crawlArticleRequest struct {
	URL   string `json:"url"`
	Title string `json:"title"`
}

func (r crawlArticleRequest) validate() error {
	if r.URL == "" {
		return errURLRequired
	}
	return nil
}

type crawlBatchRequest struct {
	Pages    []model.PageRef `json:"pages"`
	MaxPages int             `json:"max_pages"`
}

func (r crawlBatchRequest) validate() error {
	if len(r.Pages) == 0 {
		return errPagesRequired
	}
	return nil
}

type crawlCategoryRequest struct {
	CategoryURL string `json:"category_url"`
	MaxPages    int    `json:"max_pages"`
}

func (r crawlCategoryRequest) validate() error {
	if r.CategoryURL == "" {
		return errURLRequired
	}
	return nil
}

type crawlResponse struct {
	DeadLinks      []model.LinkRecord `json:"dead_links"`
	ProcessedCount int                `json:"processed_count"`
}

func (t *Transport) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	t.renderJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (t *Transport) handleSearchText(w http.ResponseWriter, r *http.Request) {
	var req searchTextRequest
	if !t.decode(w, r, &req) {
		return
	}
	if err := req.validate(); err != nil {
		t.renderError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Limit <= 0 {
		req.Limit = defaultSearchLimit
	}

	ctx, cancel := context.WithTimeout(r.Context(), searchTimeout)
	defer cancel()

	pages, err := t.service.SearchText(ctx, req.Query, req.Limit)
	if err != nil {
		t.handleServiceError(w, err)
		return
	}

	t.renderJSON(w, http.StatusOK, pages)
}

func (t *Transport) handleSearchCategories(w http.ResponseWriter, r *http.Request) {
	var req searchCategoriesRequest
	if !t.decode(w, r, &req) {
		return
	}
	if err := req.validate(); err != nil {
		t.renderError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), searchTimeout)
	defer cancel()

	categories, err := t.service.SearchCategories(ctx, req.Query)
	if err != nil {
		t.handleServiceError(w, err)
		return
	}

	t.renderJSON(w, http.StatusOK, categories)
}

func (t *Transport) handleCrawlArticle(w http.ResponseWriter, r *http.Request) {
	var req crawlArticleRequest
	if !t.decode(w, r, &req) {
		return
	}
	if err := req.validate(); err != nil {
		t.renderError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), crawlTimeout)
	defer cancel()

	dead, err := t.service.ProcessArticle(ctx, req.URL, req.Title)
	if err != nil {
		t.handleServiceError(w, err)
		return
	}

	if dead == nil {
		dead = []model.LinkRecord{}
	}
	t.renderJSON(w, http.StatusOK, dead)
}

func (t *Transport) handleCrawlBatch(w http.ResponseWriter, r *http.Request) {
	var req crawlBatchRequest
	if !t.decode(w, r, &req) {
		return
	}
	if err := req.validate(); err != nil {
		t.renderError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.MaxPages <= 0 {
		req.MaxPages = t.maxPages
	}

	ctx, cancel := context.WithTimeout(r.Context(), crawlTimeout)
	defer cancel()

	dead, processed, err := t.service.BatchProcessArticles(ctx, req.Pages, req.MaxPages)
	if err != nil {
		t.handleServiceError(w, err)
		return
	}

	if dead == nil {
		dead = []model.LinkRecord{}
	}
	t.renderJSON(w, http.StatusOK, crawlResponse{DeadLinks: dead, ProcessedCount: processed})
}

func (t *Transport) handleCrawlCategory(w http.ResponseWriter, r *http.Request) {
	var req crawlCategoryRequest
	if !t.decode(w, r, &req) {
		return
	}
	if err := req.validate(); err != nil {
		t.renderError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.MaxPages <= 0 {
		req.MaxPages = t.maxPages
	}

	ctx, cancel := context.WithTimeout(r.Context(), crawlTimeout)
	defer cancel()

	dead, processed, err := t.service.CrawlCategory(ctx, req.CategoryURL, req.MaxPages)
	if err != nil {
		t.handleServiceError(w, err)
		return
	}

	if dead == nil {
		dead = []model.LinkRecord{}
	}
	t.renderJSON(w, http.StatusOK, crawlResponse{DeadLinks: dead, ProcessedCount: processed})
}

func (t *Transport) handleResults(w http.ResponseWriter, _ *http.Request) {
	t.renderJSON(w, http.StatusOK, t.reads.Results())
}

func (t *Transport) handleDomains(w http.ResponseWriter, _ *http.Request) {
	t.renderJSON(w, http.StatusOK, t.reads.Domains())
}

func (t *Transport) handleResultsCSV(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="wikipedia_dead_links.csv"`)
	if err := t.reads.WriteResultsCSV(w); err != nil {
		t.logger.Error("failed to stream results CSV", "error", err)
	}
}

func (t *Transport) handleDomainsCSV(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="available_domains.csv"`)
	if err := t.reads.WriteDomainsCSV(w); err != nil {
		t.logger.Error("failed to stream domains CSV", "error", err)
	}
}

// decode reads a JSON body into dst, rendering a 400 on failure.
func (t *Transport) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	const maxRequestBody = 1 << 20 // 1 MB
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)

	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		t.renderError(w, http.StatusBadRequest, "Invalid request body. Please send a JSON object.")
		return false
	}
	return true
}

func (t *Transport) handleServiceError(w http.ResponseWriter, err error) {
	var appErr *errs.AppError
	if errors.As(err, &appErr) {
		status := http.StatusInternalServerError
		switch appErr.Kind {
		case errs.InvalidInput:
			status = http.StatusBadRequest
		case errs.Unreachable:
			status = http.StatusBadGateway
		case errs.Timeout:
			status = http.StatusGatewayTimeout
		case errs.ParsingFailed, errs.Unknown:
			// 500 Internal Server Error
		}
		t.renderError(w, status, appErr.Message)
		return
	}

	if errors.Is(err, context.DeadlineExceeded) {
		t.renderError(w, http.StatusGatewayTimeout, "The operation timed out.")
		return
	}

	t.renderError(w, http.StatusInternalServerError, "An unexpected error occurred.")
}

func (t *Transport) renderJSON(w http.ResponseWriter, status int, data any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(data); err != nil {
		t.logger.Error("failed to encode response", "error", err)
		http.Error(w, `{"error":"Internal Server Error"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func (t *Transport) renderError(w http.ResponseWriter, status int, message string) {
	t.renderJSON(w, status, model.ErrorResponse{
		Error:      http.StatusText(status),
		StatusCode: status,
		Message:    message,
	})
}
