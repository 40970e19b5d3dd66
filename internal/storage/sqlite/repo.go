package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"reviewetl/internal/storage"
)

// batchRows keeps each INSERT well under SQLite's bound-parameter limit.
const batchRows = 500

// Repo implements storage.Repository for SQLite.
//
// SQLite has no native timestamp type, so extracted_at is stored as an
// RFC3339Nano string for reliable round-trips and easy debugging.
type Repo struct {
	db *sql.DB
}

func init() {
	storage.Register("sqlite", New)
}

// New opens the database at cfg.DSN and verifies connectivity.
func New(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
	db, err := sql.Open("sqlite", cfg.DSN)
	if err != nil {
		return nil, err
	}
	// A single connection keeps ":memory:" databases coherent and avoids
	// SQLITE_BUSY between pooled writers.
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Repo{db: db}, nil
}

func (r *Repo) Close() { _ = r.db.Close() }

// EnsureTable creates table with a UNIQUE row_hash if it does not exist.
func (r *Repo) EnsureTable(ctx context.Context, table string) error {
	if _, err := r.db.ExecContext(ctx, buildCreateSQL(table)); err != nil {
		return fmt.Errorf("create table %s: %w", table, err)
	}
	return nil
}

// InsertReviews inserts rows with INSERT OR IGNORE, relying on the UNIQUE
// row_hash constraint to skip reviews already stored.
func (r *Repo) InsertReviews(ctx context.Context, table string, rows []storage.Row) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	var total int64
	for _, batch := range storage.Chunk(rows, batchRows) {
		q, args := buildInsertSQL(table, batch)
		res, err := tx.ExecContext(ctx, q, args...)
		if err != nil {
			return 0, err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, err
		}
		total += n
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return total, nil
}

func sqlIdent(id string) string {
	// SQLite supports "quoted identifiers"
	return `"` + strings.ReplaceAll(id, `"`, `""`) + `"`
}

// tableIdent quotes each part of an optionally schema-qualified name.
func tableIdent(name string) string {
	parts := strings.Split(name, ".")
	for i := range parts {
		parts[i] = sqlIdent(parts[i])
	}
	return strings.Join(parts, ".")
}

func buildCreateSQL(table string) string {
	return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	"id" INTEGER PRIMARY KEY AUTOINCREMENT,
	"run_id" TEXT NOT NULL,
	"source_file" TEXT NOT NULL,
	"position" INTEGER NOT NULL,
	"name" TEXT NOT NULL,
	"title" TEXT NOT NULL,
	"comment" TEXT NOT NULL,
	"rating" TEXT NOT NULL,
	"date" TEXT NOT NULL,
	"verified" TEXT NOT NULL,
	"row_hash" TEXT NOT NULL UNIQUE,
	"extracted_at" TEXT NOT NULL
)`, tableIdent(table))
}

// buildInsertSQL constructs one multi-row INSERT OR IGNORE and its args.
func buildInsertSQL(table string, rows []storage.Row) (string, []any) {
	var b strings.Builder
	b.WriteString("INSERT OR IGNORE INTO ")
	b.WriteString(tableIdent(table))
	b.WriteString(" (")
	for i, c := range storage.Columns {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(sqlIdent(c))
	}
	b.WriteString(") VALUES ")

	ph := "(" + strings.TrimRight(strings.Repeat("?, ", len(storage.Columns)), ", ") + ")"
	args := make([]any, 0, len(rows)*len(storage.Columns))
	for i, row := range rows {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(ph)
		for _, v := range row.Values() {
			if t, ok := v.(time.Time); ok {
				v = t.UTC().Format(time.RFC3339Nano)
			}
			args = append(args, v)
		}
	}
	return b.String(), args
}
