package extracthtml

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"

	"reviewetl/internal/config"
)

// FieldProbe is the match count of one configured selector.
type FieldProbe struct {
	Field    string
	Selector string
	Required bool
	Matches  int
}

// ProbeSelectors reports how many elements each of the six review fields
// matches in html. Fields missing from sel are reported with an empty
// selector and zero matches. This is the "why did I get zero reviews" tool.
func ProbeSelectors(html string, sel config.Selectors, logger *slog.Logger) ([]FieldProbe, error) {
	fields, err := ExtractFieldsHTML(html, sel, logger)
	if err != nil {
		return nil, err
	}

	required := make(map[string]bool, len(config.RequiredFields))
	for _, f := range config.RequiredFields {
		required[f] = true
	}

	out := make([]FieldProbe, 0, len(config.AllFields))
	for _, f := range config.AllFields {
		out = append(out, FieldProbe{
			Field:    f,
			Selector: sel[f],
			Required: required[f],
			Matches:  fields.Count(f),
		})
	}
	return out, nil
}

// DebugPrintSelector writes every element selector matches in html to w,
// each followed by a blank line. With textOnly it writes the trimmed text
// content, otherwise the element's markup. A selector that does not compile
// is logged and matches nothing. A nil logger uses slog.Default.
func DebugPrintSelector(w io.Writer, html, selector string, textOnly bool, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	doc, err := ParseDocument(html)
	if err != nil {
		return err
	}

	m, err := cascadia.Compile(selector)
	if err != nil {
		logger.Warn("selector does not compile, field will match nothing", "selector", selector, "err", err)
		return nil
	}

	for _, n := range doc.FindMatcher(m).Nodes {
		match := doc.FindNodes(n)
		var out string
		if textOnly {
			out = strings.TrimSpace(match.Text())
		} else if out, err = goquery.OuterHtml(match); err != nil {
			out, _ = match.Html()
		}
		if _, err := fmt.Fprintf(w, "%s\n\n", out); err != nil {
			return err
		}
	}
	return nil
}
