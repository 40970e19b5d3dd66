package extracthtml

import (
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"reviewetl/internal/config"
	"reviewetl/internal/logging"
)

func quietLogger() *slog.Logger { return logging.Discard() }

func fixture(t *testing.T) string {
	t.Helper()
	b, err := os.ReadFile(filepath.Join("testdata", "reviews.html"))
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}
	return string(b)
}

// TestExtractFieldsHTML_DefaultSelectors runs the built-in selectors over the
// fixture page: 3 names/titles/comments, 2 ratings, 0 dates, 3 badges.
func TestExtractFieldsHTML_DefaultSelectors(t *testing.T) {
	t.Parallel()

	got, err := ExtractFieldsHTML(fixture(t), config.DefaultSelectors(), quietLogger())
	if err != nil {
		t.Fatalf("ExtractFieldsHTML: %v", err)
	}

	wantCounts := map[string]int{
		config.FieldName:     3,
		config.FieldTitle:    3,
		config.FieldComment:  3,
		config.FieldRating:   2,
		config.FieldDate:     0,
		config.FieldVerified: 3,
	}
	for f, n := range wantCounts {
		if got.Count(f) != n {
			t.Fatalf("field %s: expected %d matches, got %d (%#v)", f, n, got.Count(f), got[f])
		}
	}

	if got[config.FieldName][0] != "Amélie" {
		t.Fatalf("non-ASCII text should pass through, got %q", got[config.FieldName][0])
	}
	if got[config.FieldComment][0] != "Fonctionne parfaitement, livraison rapide." {
		t.Fatalf("expected trimmed comment, got %q", got[config.FieldComment][0])
	}
	if got[config.FieldComment][1] != "Fait le job & rien de plus." {
		t.Fatalf("expected decoded entity, got %q", got[config.FieldComment][1])
	}
}

// TestExtractFields_DocumentOrderAndExtraKeys verifies matches keep DOM order
// and that keys outside the six review fields are still evaluated.
func TestExtractFields_DocumentOrderAndExtraKeys(t *testing.T) {
	t.Parallel()

	html := `<ul><li class="x"> 1 </li><li class="x">2</li><li class="y">3</li></ul>`
	got, err := ExtractFieldsHTML(html, config.Selectors{
		"name":  "li.x",
		"extra": "li",
	}, quietLogger())
	if err != nil {
		t.Fatalf("ExtractFieldsHTML: %v", err)
	}

	if !reflect.DeepEqual(got["name"], []string{"1", "2"}) {
		t.Fatalf("name: got %#v", got["name"])
	}
	if !reflect.DeepEqual(got["extra"], []string{"1", "2", "3"}) {
		t.Fatalf("extra: got %#v", got["extra"])
	}
}

// TestExtractFields_InvalidSelectorMatchesNothing verifies empty or broken
// selectors are passed through and simply yield no matches.
func TestExtractFields_InvalidSelectorMatchesNothing(t *testing.T) {
	t.Parallel()

	html := `<p>a</p><p>b</p>`
	got, err := ExtractFieldsHTML(html, config.Selectors{
		"name":    "",
		"title":   "p[",
		"comment": "p",
	}, quietLogger())
	if err != nil {
		t.Fatalf("ExtractFieldsHTML: %v", err)
	}

	if got.Count("name") != 0 || got.Count("title") != 0 {
		t.Fatalf("expected no matches for invalid selectors, got %#v", got)
	}
	if got.Count("comment") != 2 {
		t.Fatalf("expected 2 comment matches, got %d", got.Count("comment"))
	}
}

func TestExtractFields_ZeroMatchIsEmptySlice(t *testing.T) {
	t.Parallel()

	got, err := ExtractFieldsHTML(`<p>x</p>`, config.Selectors{"date": "span.date"}, quietLogger())
	if err != nil {
		t.Fatalf("ExtractFieldsHTML: %v", err)
	}
	v, ok := got["date"]
	if !ok || len(v) != 0 {
		t.Fatalf("expected present empty slice, got %#v (present=%v)", v, ok)
	}
}

func TestParseDocument_Lenient(t *testing.T) {
	t.Parallel()

	doc, err := ParseDocument(`<div><span>unclosed`)
	if err != nil {
		t.Fatalf("ParseDocument: %v", err)
	}
	if doc.Find("span").Length() != 1 {
		t.Fatalf("expected parser to recover the span")
	}
}
