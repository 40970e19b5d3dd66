package storage

import (
	"fmt"
	"path/filepath"
	"regexp"
	"time"

	"reviewetl/internal/reviews"
	"reviewetl/internal/transformer/builtin"
)

// DefaultTable is the table reviews are stored in when none is configured.
const DefaultTable = "reviews"

// Columns is the insert column order shared by every backend.
var Columns = []string{
	"run_id",
	"source_file",
	"position",
	"name",
	"title",
	"comment",
	"rating",
	"date",
	"verified",
	"row_hash",
	"extracted_at",
}

// Row is one review plus the bookkeeping stored alongside it.
type Row struct {
	RunID       string
	SourceFile  string
	Position    int
	Review      reviews.Review
	RowHash     string
	ExtractedAt time.Time
}

// Values returns the row in Columns order.
func (r Row) Values() []any {
	return []any{
		r.RunID,
		r.SourceFile,
		r.Position,
		r.Review.Name,
		r.Review.Title,
		r.Review.Comment,
		r.Review.Rating,
		r.Review.Date,
		r.Review.Verified,
		r.RowHash,
		r.ExtractedAt,
	}
}

// rowHasher fingerprints a review by where it came from and what it says.
// run_id and extracted_at are deliberately left out so re-storing the same
// page is idempotent.
var rowHasher = builtin.Hash{
	Fields:            []string{"source_file", "position", "name", "title", "comment", "rating", "date", "verified"},
	TargetField:       "row_hash",
	IncludeFieldNames: true,
	Overwrite:         true,
}

// SourceID returns the source_file value for a document path. Relative,
// "./"-prefixed and absolute spellings of one file map to the same id.
func SourceID(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path)
	}
	return abs
}

// BuildRows wraps rs into storable rows. Position is the review's index in
// the extracted set. sourceFile is stored as given; pass it through SourceID
// first when it is a filesystem path.
func BuildRows(runID, sourceFile string, rs []reviews.Review, now time.Time) []Row {
	recs := make([]builtin.Record, len(rs))
	for i, r := range rs {
		rec := builtin.Record{"source_file": sourceFile, "position": i}
		for k, v := range r.Map() {
			rec[k] = v
		}
		recs[i] = rec
	}
	recs = rowHasher.Apply(recs)

	out := make([]Row, 0, len(rs))
	for i, r := range rs {
		hash, _ := recs[i][rowHasher.TargetField].(string)
		out = append(out, Row{
			RunID:       runID,
			SourceFile:  sourceFile,
			Position:    i,
			Review:      r,
			RowHash:     hash,
			ExtractedAt: now.UTC(),
		})
	}
	return out
}

var tableNameRE = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// ValidateTableName accepts "table" or "schema.table" made of letters,
// digits and underscores.
func ValidateTableName(name string) error {
	if !tableNameRE.MatchString(name) {
		return fmt.Errorf("invalid table name %q", name)
	}
	return nil
}

// Chunk splits rows into batches of at most size rows.
func Chunk(rows []Row, size int) [][]Row {
	if size <= 0 {
		size = len(rows)
	}
	var out [][]Row
	for len(rows) > 0 {
		n := min(size, len(rows))
		out = append(out, rows[:n])
		rows = rows[n:]
	}
	return out
}
