package extracthtml

import (
	"log/slog"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"

	"reviewetl/internal/config"
)

// ParseDocument parses html into a queryable tree.
//
// The HTML5 parser recovers from almost any malformed markup, so this only
// fails when the input cannot be read at all.
func ParseDocument(html string) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, &ParseError{Err: err}
	}
	return doc, nil
}

// ExtractFieldsHTML parses html once and applies every selector in sel.
func ExtractFieldsHTML(html string, sel config.Selectors, logger *slog.Logger) (FieldMatches, error) {
	doc, err := ParseDocument(html)
	if err != nil {
		return nil, err
	}
	return ExtractFields(doc, sel, logger), nil
}

// ExtractFields applies each selector in sel to doc and collects the trimmed
// text of every match, in document order.
//
// Every key in sel is evaluated, including keys that are not one of the six
// review fields. A selector matching nothing yields an empty slice.
//
// Selectors are passed through as-is. One that does not compile (including the
// empty string) is logged and matches nothing; it is not an error.
func ExtractFields(doc *goquery.Document, sel config.Selectors, logger *slog.Logger) FieldMatches {
	if logger == nil {
		logger = slog.Default()
	}

	out := make(FieldMatches, len(sel))
	for _, field := range sortedKeys(sel) {
		expr := sel[field]
		if _, err := cascadia.Compile(expr); err != nil {
			logger.Warn("selector does not compile, field will match nothing",
				"field", field, "selector", expr, "err", err)
			out[field] = []string{}
			continue
		}
		out[field] = matchText(doc.Selection, expr)
	}
	return out
}

// matchText returns the trimmed text of each element matched by expr.
func matchText(root *goquery.Selection, expr string) []string {
	found := root.Find(expr)
	vals := make([]string, 0, found.Length())
	found.Each(func(_ int, s *goquery.Selection) {
		vals = append(vals, strings.TrimSpace(s.Text()))
	})
	return vals
}

// sortedKeys gives deterministic evaluation and log order.
func sortedKeys(sel config.Selectors) []string {
	keys := make([]string, 0, len(sel))
	for k := range sel {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
