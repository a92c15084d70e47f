package deadlink

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"

	"github.com/linkrot/deadlink-finder/internal/model"
	"github.com/linkrot/deadlink-finder/internal/platform/errs"
)

// ResultStore receives dead-link records as the finder discovers them.
// Each put is a durability checkpoint: a crash mid-crawl loses at most
// the in-flight checks.
type ResultStore interface {
	PutResult(rec model.LinkRecord) error
}

// CategoryLister resolves a category page into its member articles.
type CategoryLister interface {
	PagesInCategory(ctx context.Context, categoryURL string) ([]model.PageRef, error)
}

// ProgressFunc reports batch progress after each processed article.
type ProgressFunc func(done, total int)

// Finder orchestrates the crawl: fetch an article, extract its external
// links, fan the liveness checks out over a bounded worker pool, and
// checkpoint every dead link found.
type Finder struct {
	fetcher     Fetcher
	checker     *Checker
	store       ResultStore
	categories  CategoryLister
	concurrency int
	limiter     *rate.Limiter
	logger      *slog.Logger
}

// NewFinder wires a Finder. Concurrency bounds the per-article worker
// pool; articleDelay paces sequential article fetches so a batch never
// exceeds one article fetch per interval.
func NewFinder(fetcher Fetcher, checker *Checker, store ResultStore, categories CategoryLister,
	concurrency int, articleDelay time.Duration, logger *slog.Logger,
) *Finder {
	return &Finder{
		fetcher:     fetcher,
		checker:     checker,
		store:       store,
		categories:  categories,
		concurrency: concurrency,
		limiter:     rate.NewLimiter(rate.Every(articleDelay), 1),
		logger:      logger,
	}
}

// ProcessArticle fetches one article and returns the dead links found
// on it. The title is parsed from the page heading when not supplied.
// Liveness checks run concurrently and complete in arbitrary order;
// each dead link is persisted as soon as its check completes.
func (f *Finder) ProcessArticle(ctx context.Context, articleURL, title string) ([]model.LinkRecord, error) {
	body, statusCode, err := f.fetcher.Fetch(ctx, articleURL)
	if err != nil {
		return nil, &errs.AppError{
			Kind:    errs.Unreachable,
			Message: "Failed to retrieve article: " + articleURL,
			Cause:   err,
		}
	}
	defer func() { _ = body.Close() }()

	if statusCode != http.StatusOK {
		return nil, &errs.AppError{
			Kind:           errs.Unreachable,
			UpstreamStatus: statusCode,
			Message:        "Failed to retrieve article: " + articleURL,
		}
	}

	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return nil, &errs.AppError{
			Kind:    errs.ParsingFailed,
			Message: "Failed to parse article HTML.",
			Cause:   err,
		}
	}

	if title == "" {
		title = ArticleTitle(doc)
	}

	links := ExtractExternalLinks(doc)
	if len(links) == 0 {
		return nil, nil
	}

	jobs := make(chan model.ExternalLink, len(links))
	results := make(chan model.LinkRecord, len(links))

	numWorkers := min(len(links), f.concurrency)

	var wg sync.WaitGroup
	for range numWorkers {
		wg.Go(func() {
			for link := range jobs {
				results <- f.checker.Check(ctx, link, title, articleURL)
			}
		})
	}

	for _, link := range links {
		jobs <- link
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	var dead []model.LinkRecord
	for rec := range results {
		if !rec.StatusCode.Dead() {
			continue
		}
		dead = append(dead, rec)
		if err := f.store.PutResult(rec); err != nil {
			f.logger.Error("failed to persist link record",
				"url", rec.URL, "article", articleURL, "error", err)
		}
	}

	return dead, nil
}

// BatchProcessArticles processes pages sequentially, truncated to
// maxPages when positive. Link-level parallelism lives inside
// ProcessArticle; between articles the finder waits on its rate
// limiter to bound the outbound request rate. Article-level failures
// are logged and skipped so one bad page never aborts the batch.
// It returns all dead links found and the number of pages processed.
func (f *Finder) BatchProcessArticles(ctx context.Context, pages []model.PageRef, maxPages int, onProgress ProgressFunc) ([]model.LinkRecord, int, error) {
	if maxPages > 0 && len(pages) > maxPages {
		pages = pages[:maxPages]
	}

	var allDead []model.LinkRecord
	processed := 0

	for i, page := range pages {
		if err := f.limiter.Wait(ctx); err != nil {
			return allDead, processed, err
		}

		f.logger.Info("processing article",
			"title", page.Title, "position", i+1, "total", len(pages))

		dead, err := f.ProcessArticle(ctx, page.URL, page.Title)
		if err != nil {
			f.logger.Error("article processing failed",
				"title", page.Title, "url", page.URL, "error", err)
		} else {
			allDead = append(allDead, dead...)
		}
		processed++

		if onProgress != nil {
			onProgress(i+1, len(pages))
		}
	}

	return allDead, processed, nil
}

// CrawlCategory resolves the category's member articles and batch
// processes them.
func (f *Finder) CrawlCategory(ctx context.Context, categoryURL string, maxPages int, onProgress ProgressFunc) ([]model.LinkRecord, int, error) {
	pages, err := f.categories.PagesInCategory(ctx, categoryURL)
	if err != nil {
		return nil, 0, &errs.AppError{
			Kind:    errs.Unreachable,
			Message: "Failed to list pages in category: " + categoryURL,
			Cause:   err,
		}
	}

	return f.BatchProcessArticles(ctx, pages, maxPages, onProgress)
}
