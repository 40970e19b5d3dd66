package builtin

import (
	"testing"
	"time"
)

func TestHash_Deterministic_UTC(t *testing.T) {
	h := Hash{
		Fields:            []string{"source_file", "position", "name", "extracted"},
		TargetField:       "row_hash",
		IncludeFieldNames: true,
		Overwrite:         true,
	}

	r1 := Record{
		"source_file": "page.html",
		"position":    2,
		"name":        "Amélie",
		"extracted":   time.Date(2025, 12, 1, 1, 0, 0, 0, time.FixedZone("CET", 3600)),
	}
	r2 := Record{
		"source_file": "page.html",
		"position":    2,
		"name":        "Amélie",
		"extracted":   time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC),
	}

	h.Apply([]Record{r1, r2})

	s1, ok := r1["row_hash"].(string)
	if !ok || s1 == "" {
		t.Fatalf("expected row_hash string, got=%T val=%v", r1["row_hash"], r1["row_hash"])
	}
	if len(s1) != 64 {
		t.Fatalf("expected sha256 hex length 64, got %d (%q)", len(s1), s1)
	}
	if s2 := r2["row_hash"].(string); s1 != s2 {
		t.Fatalf("expected same hash after UTC normalization; s1=%q s2=%q", s1, s2)
	}
}

func TestHash_ChangesWhenFieldChanges(t *testing.T) {
	h := Hash{Fields: []string{"source_file", "position"}, TargetField: "row_hash", Overwrite: true}

	a := Record{"source_file": "a.html", "position": 0}
	b := Record{"source_file": "b.html", "position": 0}
	h.Apply([]Record{a, b})

	if a["row_hash"] == b["row_hash"] {
		t.Fatalf("expected different hashes for different source files")
	}
}

// TestHash_MissingDiffersFromEmpty verifies nil/missing encode as NUL.
func TestHash_MissingDiffersFromEmpty(t *testing.T) {
	h := Hash{Fields: []string{"date"}}

	if h.Sum(Record{}) == h.Sum(Record{"date": ""}) {
		t.Fatalf("missing and empty values must hash differently")
	}
	if h.Sum(Record{}) != h.Sum(Record{"date": nil}) {
		t.Fatalf("missing and nil values must hash the same")
	}
}

func TestHash_OverwriteFalseKeepsExisting(t *testing.T) {
	h := Hash{Fields: []string{"x"}, TargetField: "row_hash"}

	r := Record{"x": "1", "row_hash": "keep"}
	h.Apply([]Record{r, nil})
	if r["row_hash"] != "keep" {
		t.Fatalf("expected existing hash to be kept, got %v", r["row_hash"])
	}
}

func TestHash_NoFieldsIsNoop(t *testing.T) {
	r := Record{"x": "1"}
	Hash{TargetField: "row_hash"}.Apply([]Record{r})
	if _, ok := r["row_hash"]; ok {
		t.Fatalf("expected no hash without fields")
	}
}

func TestHash_ValuesDoNotShiftAcrossFields(t *testing.T) {
	h := Hash{Fields: []string{"a", "b"}}

	if h.Sum(Record{"a": "x", "b": "yz"}) == h.Sum(Record{"a": "xy", "b": "z"}) {
		t.Fatalf("field boundaries must be part of the canonical form")
	}
}
