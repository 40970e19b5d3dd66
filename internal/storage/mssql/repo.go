package mssql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"reviewetl/internal/storage"
)

// batchRows keeps each statement under SQL Server's 2100-parameter limit.
const batchRows = 150

// Repo implements storage.Repository for Microsoft SQL Server.
//
// Inserts are deduplicated with INSERT ... SELECT ... WHERE NOT EXISTS on
// row_hash, so re-storing a page is a no-op.
//
// This package does not import a driver. The application registers
// "sqlserver" with database/sql, see internal/storage/all.
type Repo struct {
	db dbConn
}

func init() {
	storage.Register("mssql", New)
}

// New constructs a Repo using database/sql and the "sqlserver" driver and
// validates connectivity via PingContext.
func New(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
	raw, err := sql.Open("sqlserver", cfg.DSN)
	if err != nil {
		return nil, err
	}
	raw.SetMaxOpenConns(4)

	if err := raw.PingContext(ctx); err != nil {
		_ = raw.Close()
		return nil, err
	}
	return &Repo{db: &sqlDB{db: raw}}, nil
}

// Close releases database resources held by this repository.
func (r *Repo) Close() {
	if r == nil || r.db == nil {
		return
	}
	_ = r.db.Close()
}

// EnsureTable creates table if OBJECT_ID reports it missing.
func (r *Repo) EnsureTable(ctx context.Context, table string) error {
	if _, err := r.db.ExecContext(ctx, buildCreateSQL(table)); err != nil {
		return fmt.Errorf("create table %s: %w", table, err)
	}
	return nil
}

// InsertReviews inserts rows whose row_hash is not already present.
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
		q, args := buildInsertNotExistsSQL(table, batch)
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

func buildCreateSQL(table string) string {
	defs := strings.Join([]string{
		"[id] BIGINT IDENTITY(1,1) PRIMARY KEY",
		"[run_id] UNIQUEIDENTIFIER NOT NULL",
		"[source_file] NVARCHAR(1024) NOT NULL",
		"[position] INT NOT NULL",
		"[name] NVARCHAR(MAX) NOT NULL",
		"[title] NVARCHAR(MAX) NOT NULL",
		"[comment] NVARCHAR(MAX) NOT NULL",
		"[rating] NVARCHAR(256) NOT NULL",
		"[date] NVARCHAR(256) NOT NULL",
		"[verified] NVARCHAR(256) NOT NULL",
		"[row_hash] CHAR(64) NOT NULL UNIQUE",
		"[extracted_at] DATETIMEOFFSET NOT NULL",
	}, ", ")
	return fmt.Sprintf(
		"IF OBJECT_ID(N'%s', N'U') IS NULL BEGIN CREATE TABLE %s (%s); END;",
		table,
		mssqlTableIdent(table),
		defs,
	)
}

// buildInsertNotExistsSQL materializes the batch as a derived table v via
// VALUES and inserts only rows whose row_hash is absent from table.
func buildInsertNotExistsSQL(table string, rows []storage.Row) (string, []any) {
	cols := make([]string, len(storage.Columns))
	for i, c := range storage.Columns {
		cols[i] = mssqlIdent(c)
	}
	colList := strings.Join(cols, ", ")

	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(mssqlTableIdent(table))
	b.WriteString(" (")
	b.WriteString(colList)
	b.WriteString(") SELECT ")
	for i, c := range cols {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString("v.")
		b.WriteString(c)
	}
	b.WriteString(" FROM (VALUES ")

	args := make([]any, 0, len(rows)*len(cols))
	p := 1
	for i, row := range rows {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString("(")
		for j, v := range row.Values() {
			if j > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "@p%d", p)
			args = append(args, v)
			p++
		}
		b.WriteString(")")
	}

	b.WriteString(") AS v(")
	b.WriteString(colList)
	b.WriteString(") WHERE NOT EXISTS (SELECT 1 FROM ")
	b.WriteString(mssqlTableIdent(table))
	b.WriteString(" t WHERE t.[row_hash] = v.[row_hash])")

	return b.String(), args
}

// mssqlIdent returns a bracket-quoted identifier, escaping ']' as ']]'.
func mssqlIdent(name string) string {
	return "[" + strings.ReplaceAll(name, "]", "]]") + "]"
}

// mssqlTableIdent returns a bracket-quoted identifier for schema-qualified names.
//
//	"dbo.reviews" -> [dbo].[reviews]
func mssqlTableIdent(name string) string {
	parts := strings.Split(name, ".")
	for i := range parts {
		parts[i] = mssqlIdent(strings.TrimSpace(parts[i]))
	}
	return strings.Join(parts, ".")
}

// ---- database/sql seam types ----

type dbConn interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	BeginTx(ctx context.Context, opts *sql.TxOptions) (txConn, error)
	Close() error
}

type txConn interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	Commit() error
	Rollback() error
}

type sqlDB struct {
	db *sql.DB
}

func (s *sqlDB) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return s.db.ExecContext(ctx, query, args...)
}

func (s *sqlDB) BeginTx(ctx context.Context, opts *sql.TxOptions) (txConn, error) {
	tx, err := s.db.BeginTx(ctx, opts)
	if err != nil {
		return nil, err
	}
	return tx, nil
}

func (s *sqlDB) Close() error { return s.db.Close() }
