package dashboard

import (
	"context"
	"io"

	"github.com/linkrot/deadlink-finder/internal/deadlink"
	"github.com/linkrot/deadlink-finder/internal/model"
)

// Crawler defines the crawl operations the dashboard drives.
type Crawler interface {
	ProcessArticle(ctx context.Context, articleURL, title string) ([]model.LinkRecord, error)
	BatchProcessArticles(ctx context.Context, pages []model.PageRef, maxPages int, onProgress deadlink.ProgressFunc) ([]model.LinkRecord, int, error)
	CrawlCategory(ctx context.Context, categoryURL string, maxPages int, onProgress deadlink.ProgressFunc) ([]model.LinkRecord, int, error)
}

// Searcher defines the Wikipedia search operations used to seed crawls.
type Searcher interface {
	SearchText(ctx context.Context, query string, limit int) ([]model.PageRef, error)
	SearchCategories(ctx context.Context, query string) ([]model.PageRef, error)
}

// ReadModels exposes the persisted maps for browsing and export.
type ReadModels interface {
	Results() map[string]model.LinkRecord
	Domains() map[string]model.DomainRecord
	WriteResultsCSV(w io.Writer) error
	WriteDomainsCSV(w io.Writer) error
}
