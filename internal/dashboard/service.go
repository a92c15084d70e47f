// Package dashboard is the surface the interactive UI talks to: search
// for pages, kick off crawls, and read the persisted results back.
package dashboard

import (
	"context"
	"log/slog"

	"github.com/linkrot/deadlink-finder/internal/model"
	"github.com/linkrot/deadlink-finder/internal/platform/requestid"
)

// Service wraps the crawler and searcher with outcome logging.
type Service struct {
	crawler  Crawler
	searcher Searcher
	logger   *slog.Logger
}

// NewService creates a Service backed by the given collaborators.
func NewService(crawler Crawler, searcher Searcher, logger *slog.Logger) *Service {
	return &Service{crawler: crawler, searcher: searcher, logger: logger}
}

// SearchText searches article pages and logs the outcome.
func (s *Service) SearchText(ctx context.Context, query string, limit int) ([]model.PageRef, error) {
	logger := s.logger.With("query", query, "request_id", requestid.FromContext(ctx))

	pages, err := s.searcher.SearchText(ctx, query, limit)
	if err != nil {
		logger.Error("text search failed", "error", err)
		return nil, err
	}

	logger.Info("text search complete", "pages", len(pages))
	return pages, nil
}

// SearchCategories searches the category namespace and logs the outcome.
func (s *Service) SearchCategories(ctx context.Context, query string) ([]model.PageRef, error) {
	logger := s.logger.With("query", query, "request_id", requestid.FromContext(ctx))

	categories, err := s.searcher.SearchCategories(ctx, query)
	if err != nil {
		logger.Error("category search failed", "error", err)
		return nil, err
	}

	logger.Info("category search complete", "categories", len(categories))
	return categories, nil
}

// ProcessArticle crawls one article for dead links.
func (s *Service) ProcessArticle(ctx context.Context, articleURL, title string) ([]model.LinkRecord, error) {
	logger := s.logger.With("article_url", articleURL, "request_id", requestid.FromContext(ctx))

	dead, err := s.crawler.ProcessArticle(ctx, articleURL, title)
	if err != nil {
		logger.Error("article crawl failed", "error", err)
		return nil, err
	}

	logger.Info("article crawl complete", "dead_links", len(dead))
	return dead, nil
}

// BatchProcessArticles crawls a set of pages, logging progress after
// each article.
func (s *Service) BatchProcessArticles(ctx context.Context, pages []model.PageRef, maxPages int) ([]model.LinkRecord, int, error) {
	logger := s.logger.With("pages", len(pages), "request_id", requestid.FromContext(ctx))

	dead, processed, err := s.crawler.BatchProcessArticles(ctx, pages, maxPages, s.progressLogger(logger))
	if err != nil {
		logger.Error("batch crawl aborted", "processed", processed, "error", err)
		return dead, processed, err
	}

	logger.Info("batch crawl complete", "processed", processed, "dead_links", len(dead))
	return dead, processed, nil
}

// CrawlCategory resolves a category and crawls its member articles.
func (s *Service) CrawlCategory(ctx context.Context, categoryURL string, maxPages int) ([]model.LinkRecord, int, error) {
	logger := s.logger.With("category_url", categoryURL, "request_id", requestid.FromContext(ctx))

	dead, processed, err := s.crawler.CrawlCategory(ctx, categoryURL, maxPages, s.progressLogger(logger))
	if err != nil {
		logger.Error("category crawl failed", "processed", processed, "error", err)
		return dead, processed, err
	}

	logger.Info("category crawl complete", "processed", processed, "dead_links", len(dead))
	return dead, processed, nil
}

func (s *Service) progressLogger(logger *slog.Logger) func(done, total int) {
	return func(done, total int) {
		logger.Info("crawl progress", "done", done, "total", total)
	}
}
