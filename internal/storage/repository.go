package storage

import (
	"context"
	"fmt"
	"sync"
)

// Config is the minimal configuration needed to open a review repository.
//
// Edge cases:
//   - Kind must be non-empty and must match a registered backend kind.
//   - DSN is passed through to the backend factory; validation is backend-specific.
type Config struct {
	Kind string
	DSN  string
}

// Repository persists extracted reviews into one SQL table.
//
// Each backend implements idempotent inserts in its own idiomatic way
// (Postgres ON CONFLICT, SQLite OR IGNORE, SQL Server NOT EXISTS), keyed on
// the row_hash column.
type Repository interface {
	// Close releases backend resources. Treat it as "call once".
	Close()

	// EnsureTable creates the review table if it does not exist yet.
	EnsureTable(ctx context.Context, table string) error

	// InsertReviews inserts rows, skipping any whose row_hash is already
	// stored. It returns the number of rows actually inserted.
	InsertReviews(ctx context.Context, table string, rows []Row) (int64, error)
}

type factory func(ctx context.Context, cfg Config) (Repository, error)

var (
	mu        sync.RWMutex
	factories = map[string]factory{}
)

// Register registers a backend under a kind (e.g. "postgres", "sqlite").
//
// Call Register from an init() function in a backend package.
//
// Panics:
//   - If kind is empty.
//   - If f is nil.
//   - If kind is already registered.
func Register(kind string, f factory) {
	mu.Lock()
	defer mu.Unlock()

	if kind == "" {
		panic("storage: Register called with empty kind")
	}
	if f == nil {
		panic("storage: Register called with nil factory")
	}
	if _, exists := factories[kind]; exists {
		panic(fmt.Sprintf("storage: factory already registered for kind=%q", kind))
	}

	factories[kind] = f
}

// Kinds lists the registered backend kinds.
func Kinds() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(factories))
	for k := range factories {
		out = append(out, k)
	}
	return out
}

// New constructs a Repository using the registered backend factory.
//
// Errors:
//   - Returns an error if cfg.Kind is empty or unsupported.
//   - Returns whatever error the registered factory returns.
func New(ctx context.Context, cfg Config) (Repository, error) {
	if cfg.Kind == "" {
		return nil, fmt.Errorf("storage: missing kind")
	}

	mu.RLock()
	f := factories[cfg.Kind]
	mu.RUnlock()

	if f == nil {
		return nil, fmt.Errorf("unsupported storage kind=%s", cfg.Kind)
	}
	return f(ctx, cfg)
}

// Store creates table if needed and inserts rows.
func Store(ctx context.Context, repo Repository, table string, rows []Row) (int64, error) {
	if err := ValidateTableName(table); err != nil {
		return 0, err
	}
	if err := repo.EnsureTable(ctx, table); err != nil {
		return 0, fmt.Errorf("ensure table %s: %w", table, err)
	}
	n, err := repo.InsertReviews(ctx, table, rows)
	if err != nil {
		return n, fmt.Errorf("insert reviews into %s: %w", table, err)
	}
	return n, nil
}
