// Package store owns the on-disk representation of crawl results: two
// pretty-printed JSON documents, one keyed by url_articleURL for dead
// links and one keyed by bare domain for available domains. Every
// mutation rewrites the affected file in full: a durability
// checkpoint per discovery, not a batch commit.
package store

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"maps"
	"os"
	"slices"
	"sync"
	"time"

	"github.com/linkrot/deadlink-finder/internal/model"
)

// Store holds the in-memory mirror of both files. All mutations and
// snapshot reads are serialized by one mutex: concurrent dead-link
// discoveries from sibling workers would otherwise interleave full-file
// rewrites and silently drop each other's updates.
type Store struct {
	mu sync.Mutex

	resultsPath string
	domainsPath string

	results map[string]model.LinkRecord
	domains map[string]model.DomainRecord

	logger *slog.Logger
}

// Open loads both files into memory. A missing file starts an empty
// map; a malformed one is logged and treated as empty rather than
// failing startup.
func Open(resultsPath, domainsPath string, logger *slog.Logger) *Store {
	return &Store{
		resultsPath: resultsPath,
		domainsPath: domainsPath,
		results:     loadMap[model.LinkRecord](resultsPath, logger),
		domains:     loadMap[model.DomainRecord](domainsPath, logger),
		logger:      logger,
	}
}

func loadMap[T any](path string, logger *slog.Logger) map[string]T {
	out := map[string]T{}

	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			logger.Error("failed to read store file, starting empty", "path", path, "error", err)
		}
		return out
	}

	if err := json.Unmarshal(data, &out); err != nil {
		logger.Error("malformed store file, starting empty", "path", path, "error", err)
		return map[string]T{}
	}

	return out
}

// PutResult upserts a dead-link record under its composite key and
// rewrites the results file. Re-processing the same link overwrites its
// prior record; storage never duplicates.
func (s *Store) PutResult(rec model.LinkRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.results[rec.Key()] = rec
	return writeJSON(s.resultsPath, s.results)
}

// UpsertDomain records an available domain, creating the record on
// first sight and appending the source when it is not already listed.
// The domains file is rewritten only when something changed.
func (s *Store) UpsertDomain(domain string, verdict model.AvailabilityVerdict, source model.DomainSource) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.domains[domain]
	if !ok {
		rec = model.DomainRecord{
			Domain:  domain,
			Status:  verdict.Status,
			Details: verdict.Details,
			FoundOn: time.Now(),
			Sources: []model.DomainSource{},
		}
	}

	if rec.HasSource(source.URL, source.ArticleURL) {
		return nil
	}

	rec.Sources = append(rec.Sources, source)
	s.domains[domain] = rec
	return writeJSON(s.domainsPath, s.domains)
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("store: encode %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("store: write %s: %w", path, err)
	}
	return nil
}

// Results returns a snapshot copy of the dead-link records.
func (s *Store) Results() map[string]model.LinkRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return maps.Clone(s.results)
}

// Domains returns a snapshot copy of the available-domain records.
func (s *Store) Domains() map[string]model.DomainRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return maps.Clone(s.domains)
}

// WriteResultsCSV renders the dead-link records as CSV, ordered by key
// for stable output.
func (s *Store) WriteResultsCSV(w io.Writer) error {
	results := s.Results()

	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"article", "link_text", "url", "status", "domain", "domain_available", "domain_status"}); err != nil {
		return err
	}

	for _, key := range slices.Sorted(maps.Keys(results)) {
		rec := results[key]
		available := ""
		if rec.DomainAvailable != nil {
			available = fmt.Sprintf("%t", *rec.DomainAvailable)
		}
		row := []string{
			rec.ArticleTitle,
			rec.LinkText,
			rec.URL,
			rec.StatusCode.String(),
			rec.Domain,
			available,
			rec.DomainStatus,
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteDomainsCSV renders the available-domain records as CSV, ordered
// by domain.
func (s *Store) WriteDomainsCSV(w io.Writer) error {
	domains := s.Domains()

	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"domain", "status", "found_on", "sources_count"}); err != nil {
		return err
	}

	for _, key := range slices.Sorted(maps.Keys(domains)) {
		rec := domains[key]
		row := []string{
			rec.Domain,
			rec.Status,
			rec.FoundOn.Format(time.RFC3339),
			fmt.Sprintf("%d", len(rec.Sources)),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}
