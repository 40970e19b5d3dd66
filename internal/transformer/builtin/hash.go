// Package builtin contains small, reusable record transforms.
package builtin

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Record is a loosely typed row keyed by column name.
type Record map[string]any

// Hash computes a deterministic SHA-256 over selected fields and writes it
// into a target field on each record.
//
// It produces the row_hash dedupe key for stored reviews: storing the same
// page twice yields the same hashes, so inserts can be skipped instead of
// duplicated.
//
// Canonicalization rules:
//   - Fields are concatenated in the given order, separated by the ASCII
//     Unit Separator (0x1f).
//   - Missing or nil values are encoded as a single NUL byte (0x00) so missing
//     differs from empty-string.
//   - time.Time values are encoded as RFC3339Nano in UTC.
//   - Output is a lowercase hex string (length 64).
type Hash struct {
	// Fields is the ordered list of input fields used to compute the hash.
	Fields []string

	// TargetField is where the computed hash is stored.
	TargetField string

	// IncludeFieldNames includes "field=value" in the canonical form.
	IncludeFieldNames bool

	// Overwrite controls whether an existing TargetField is replaced.
	Overwrite bool
}

// Apply computes hashes and mutates records in place.
func (h Hash) Apply(in []Record) []Record {
	if h.TargetField == "" || len(h.Fields) == 0 {
		return in
	}
	for _, r := range in {
		if r == nil {
			continue
		}
		if !h.Overwrite {
			if _, exists := r[h.TargetField]; exists {
				continue
			}
		}
		r[h.TargetField] = h.Sum(r)
	}
	return in
}

// Sum returns the hex hash of r without modifying it.
func (h Hash) Sum(r Record) string {
	var b strings.Builder
	b.Grow(len(h.Fields) * 20)

	for i, f := range h.Fields {
		if i > 0 {
			b.WriteByte('\x1f')
		}
		if h.IncludeFieldNames {
			b.WriteString(f)
			b.WriteByte('=')
		}
		v, ok := r[f]
		if !ok || v == nil {
			b.WriteByte('\x00')
			continue
		}
		appendCanonicalValue(&b, v)
	}

	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

func appendCanonicalValue(b *strings.Builder, v any) {
	switch t := v.(type) {
	case string:
		b.WriteString(t)
	case int:
		b.WriteString(strconv.Itoa(t))
	case int64:
		b.WriteString(strconv.FormatInt(t, 10))
	case bool:
		b.WriteString(strconv.FormatBool(t))
	case time.Time:
		if !t.IsZero() {
			t = t.UTC()
		}
		b.WriteString(t.Format(time.RFC3339Nano))
	default:
		b.WriteString(fmt.Sprint(t))
	}
}
