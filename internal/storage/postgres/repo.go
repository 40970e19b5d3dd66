package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"reviewetl/internal/storage"
)

// batchRows keeps each INSERT under Postgres' 65535 bind-parameter limit.
const batchRows = 1000

/*
Repo implements storage.Repository for Postgres.

Inserts use ON CONFLICT (row_hash) DO NOTHING and run in one transaction,
so a store either lands completely or not at all.
*/
type Repo struct {
	pool *pgxpool.Pool
}

func init() {
	storage.Register("postgres", New)
}

// New creates a Postgres-backed Repo.
func New(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
	pool, err := pgxpool.New(ctx, cfg.DSN)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return &Repo{pool: pool}, nil
}

// Close closes the connection pool.
func (r *Repo) Close() {
	r.pool.Close()
}

// EnsureTable creates the review table if missing.
func (r *Repo) EnsureTable(ctx context.Context, table string) error {
	if _, err := r.pool.Exec(ctx, buildCreateSQL(table)); err != nil {
		return fmt.Errorf("create table %s: %w", table, err)
	}
	return nil
}

// InsertReviews bulk-inserts rows, skipping row_hash conflicts.
func (r *Repo) InsertReviews(ctx context.Context, table string, rows []storage.Row) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	var total int64
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		for _, batch := range storage.Chunk(rows, batchRows) {
			q, args := buildInsertSQL(table, batch)
			cmd, err := tx.Exec(ctx, q, args...)
			if err != nil {
				return err
			}
			total += cmd.RowsAffected()
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return total, nil
}

func pgIdent(id string) string {
	return `"` + strings.ReplaceAll(id, `"`, `""`) + `"`
}

// pgTableIdent quotes each part of a schema-qualified name.
//
//	"public.reviews" -> "public"."reviews"
func pgTableIdent(name string) string {
	parts := strings.Split(name, ".")
	for i := range parts {
		parts[i] = pgIdent(parts[i])
	}
	return strings.Join(parts, ".")
}

func buildCreateSQL(table string) string {
	return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	"id" BIGSERIAL PRIMARY KEY,
	"run_id" UUID NOT NULL,
	"source_file" TEXT NOT NULL,
	"position" INTEGER NOT NULL,
	"name" TEXT NOT NULL,
	"title" TEXT NOT NULL,
	"comment" TEXT NOT NULL,
	"rating" TEXT NOT NULL,
	"date" TEXT NOT NULL,
	"verified" TEXT NOT NULL,
	"row_hash" CHAR(64) NOT NULL UNIQUE,
	"extracted_at" TIMESTAMPTZ NOT NULL
)`, pgTableIdent(table))
}

// buildInsertSQL constructs a single INSERT ... ON CONFLICT DO NOTHING and its
// args, numbering placeholders $1..$n row by row.
func buildInsertSQL(table string, rows []storage.Row) (string, []any) {
	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(pgTableIdent(table))
	b.WriteString(" (")
	for i, c := range storage.Columns {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(pgIdent(c))
	}
	b.WriteString(") VALUES ")

	args := make([]any, 0, len(rows)*len(storage.Columns))
	p := 1
	for i, row := range rows {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteByte('(')
		for j, v := range row.Values() {
			if j > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "$%d", p)
			p++
			args = append(args, v)
		}
		b.WriteByte(')')
	}
	b.WriteString(` ON CONFLICT ("row_hash") DO NOTHING`)
	return b.String(), args
}
