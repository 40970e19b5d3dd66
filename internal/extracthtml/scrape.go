package extracthtml

import (
	"errors"
	"log/slog"
	"time"

	"reviewetl/internal/config"
	"reviewetl/internal/metrics"
	"reviewetl/internal/reviews"
)

// Scraper turns one saved page into review records.
//
// It chains the document cache, the field extractor and reviews.Align. A
// Scraper holds no state of its own beyond the cache it was given.
type Scraper struct {
	cache  *DocumentCache
	logger *slog.Logger
}

// NewScraper builds a Scraper. A nil logger uses slog.Default().
func NewScraper(cache *DocumentCache, logger *slog.Logger) *Scraper {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scraper{cache: cache, logger: logger}
}

// Scrape loads the document at path and extracts its reviews.
//
// Error policy:
//   - A missing or unreadable document returns *NotFoundError unlogged;
//     the caller reports it and aborts the run.
//   - Markup that cannot be parsed is logged and becomes an empty result.
//   - A required field with zero matches logs ErrEmptyResult and returns an
//     empty result.
//
// The returned slice is never nil when err is nil.
func (s *Scraper) Scrape(path string, sel config.Selectors) ([]reviews.Review, error) {
	start := time.Now()
	html, err := s.cache.Load(path)
	metrics.RecordStep("load", start, err)
	if err != nil {
		var nf *NotFoundError
		if errors.As(err, &nf) {
			return nil, err
		}
		s.logger.Error("cannot decode document", "path", path, "err", err)
		return []reviews.Review{}, nil
	}
	return s.ScrapeHTML(html, sel), nil
}

// ScrapeHTML extracts reviews from an already loaded document. Parse failures
// are logged and yield an empty result.
func (s *Scraper) ScrapeHTML(html string, sel config.Selectors) []reviews.Review {
	start := time.Now()
	fields, err := ExtractFieldsHTML(html, sel, s.logger)
	metrics.RecordStep("extract", start, err)
	if err != nil {
		s.logger.Error("extraction failed", "err", err)
		return []reviews.Review{}
	}

	for _, f := range config.AllFields {
		n := fields.Count(f)
		s.logger.Info("selector matches", "field", f, "count", n)
		metrics.IncCounter(metrics.FieldMatchesTotal, float64(n), metrics.Labels{"field": f})
	}

	for _, f := range config.RequiredFields {
		if fields.Count(f) == 0 {
			s.logger.Warn(ErrEmptyResult.Error(), "field", f)
			return []reviews.Review{}
		}
	}

	out := reviews.Align(fields)
	for _, r := range out {
		s.logger.Debug("review extracted", "name", r.Name)
	}
	metrics.IncCounter(metrics.RecordsTotal, float64(len(out)), metrics.Labels{"kind": "extracted"})
	return out
}
