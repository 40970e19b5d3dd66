// Command extract-reviews pulls customer reviews out of a saved product page
// and prints them, optionally exporting to CSV/JSON and storing them in a
// database.
//
// Usage:
//
//	extract-reviews page.html
//	extract-reviews page.html --csv --json
//	cat page.html | extract-reviews - --json-out out/reviews.json --json
//
// Store (idempotent per page):
//
//	extract-reviews page.html --db-kind sqlite --dsn reviews.db
//
// Selectors are read from --config (JSON5 or YAML). A sibling
// "<name>.local.<ext>" file overrides individual keys.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"reviewetl/internal/config"
	"reviewetl/internal/export"
	"reviewetl/internal/extracthtml"
	"reviewetl/internal/logging"
	"reviewetl/internal/metrics"
	"reviewetl/internal/metrics/datadog"
	"reviewetl/internal/reviews"
	"reviewetl/internal/storage"
	_ "reviewetl/internal/storage/all"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// options holds the parsed command-line flags.
type options struct {
	csv     bool
	json    bool
	csvOut  string
	jsonOut string

	configPath string
	cacheSize  int

	dbKind string
	dsn    string
	table  string

	metricsBackend string
	verbose        bool
}

// run is split out from main so the command can be tested without spawning
// a process.
//
// It returns a Unix-style exit code:
//   - 0 when at least one review was extracted
//   - 1 when none were, or on a fatal error
//   - 2 for usage errors
func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	var (
		opts options
		code int
	)

	cmd := &cobra.Command{
		Use:           "extract-reviews <html-path|->",
		Short:         "Extract customer reviews from a saved product page.",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			code = extract(cmd.Context(), args[0], opts, stdin, stdout, stderr)
			return nil
		},
	}
	cmd.SetArgs(args)
	cmd.SetIn(stdin)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	f := cmd.Flags()
	f.BoolVar(&opts.csv, "csv", false, "Export reviews as CSV")
	f.BoolVar(&opts.json, "json", false, "Export reviews as JSON")
	f.StringVar(&opts.csvOut, "csv-out", export.DefaultCSVPath, "CSV output path")
	f.StringVar(&opts.jsonOut, "json-out", export.DefaultJSONPath, "JSON output path")
	f.StringVar(&opts.configPath, "config", config.DefaultPath, "Selector config file (JSON5 or YAML)")
	f.IntVar(&opts.cacheSize, "cache-size", extracthtml.DefaultCacheSize, "Document cache capacity")
	f.StringVar(&opts.dbKind, "db-kind", "", "Store reviews in a database: "+strings.Join(sortedKinds(), ", "))
	f.StringVar(&opts.dsn, "dsn", "", "Database DSN (required with --db-kind)")
	f.StringVar(&opts.table, "table", storage.DefaultTable, "Database table")
	f.StringVar(&opts.metricsBackend, "metrics-backend", "none", "Metrics backend: none or datadog")
	f.BoolVarP(&opts.verbose, "verbose", "v", false, "Debug logging")

	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(stderr, "%v\n", err)
		fmt.Fprint(stderr, cmd.UsageString())
		return 2
	}
	return code
}

func extract(ctx context.Context, path string, opts options, stdin io.Reader, stdout, stderr io.Writer) int {
	logger := logging.New(stderr, opts.verbose)

	if err := validateOptions(opts); err != nil {
		fmt.Fprintf(stderr, "%v\n", err)
		return 2
	}

	closeMetrics, err := setupMetrics(ctx, opts.metricsBackend, logger)
	if err != nil {
		logger.Error("metrics setup failed", "err", err)
		return 1
	}
	defer closeMetrics()

	sel, err := config.LoadSelectors(opts.configPath, logger)
	if err != nil {
		logger.Error("invalid selector config", "err", err)
		return 1
	}

	cache, err := extracthtml.NewDocumentCache(opts.cacheSize)
	if err != nil {
		logger.Error("cache setup failed", "err", err)
		return 1
	}
	scraper := extracthtml.NewScraper(cache, logger)

	start := time.Now()
	var rs []reviews.Review
	if path == "-" {
		var html string
		html, err = extracthtml.ReadDocument(stdin)
		if err == nil {
			rs = scraper.ScrapeHTML(html, sel)
		}
	} else {
		rs, err = scraper.Scrape(path, sel)
	}
	metrics.RecordStep("scrape", start, err)
	if err != nil {
		logger.Error("cannot load document", "path", path, "err", err)
		return 1
	}

	if len(rs) == 0 {
		logger.Warn("no reviews extracted", "path", path)
		return 1
	}

	if err := reviews.Print(stdout, rs); err != nil {
		logger.Error("print reviews", "err", err)
	}
	logger.Info("reviews extracted", "path", path, "count", len(rs))

	if opts.csv {
		exportStep(logger, "export_csv", "csv", opts.csvOut, len(rs), func() error {
			return export.ExportCSV(opts.csvOut, rs)
		})
	}
	if opts.json {
		exportStep(logger, "export_json", "json", opts.jsonOut, len(rs), func() error {
			return export.ExportJSON(opts.jsonOut, rs)
		})
	}
	if opts.dbKind != "" {
		storeReviews(ctx, logger, opts, sourceName(path), rs)
	}
	return 0
}

func validateOptions(opts options) error {
	if opts.cacheSize <= 0 {
		return fmt.Errorf("--cache-size must be positive, got %d", opts.cacheSize)
	}
	if opts.dbKind != "" && strings.TrimSpace(opts.dsn) == "" {
		return errors.New("--dsn is required with --db-kind")
	}
	switch opts.metricsBackend {
	case "none", "datadog":
	default:
		return fmt.Errorf("unknown --metrics-backend %q", opts.metricsBackend)
	}
	return nil
}

// exportStep runs one export. Failures are logged and do not change the exit
// code.
func exportStep(logger *slog.Logger, step, kind, path string, n int, fn func() error) {
	start := time.Now()
	err := fn()
	metrics.RecordStep(step, start, err)
	if err != nil {
		logger.Error("export failed", "format", kind, "path", path, "err", err)
		return
	}
	metrics.IncCounter(metrics.RecordsTotal, float64(n), metrics.Labels{"kind": kind})
	logger.Info("exported reviews", "format", kind, "path", path, "count", n)
}

func storeReviews(ctx context.Context, logger *slog.Logger, opts options, source string, rs []reviews.Review) {
	start := time.Now()
	n, err := func() (int64, error) {
		repo, err := storage.New(ctx, storage.Config{Kind: opts.dbKind, DSN: opts.dsn})
		if err != nil {
			return 0, fmt.Errorf("open %s: %w", opts.dbKind, err)
		}
		defer repo.Close()

		rows := storage.BuildRows(uuid.NewString(), source, rs, time.Now())
		return storage.Store(ctx, repo, opts.table, rows)
	}()
	metrics.RecordStep("store", start, err)
	if err != nil {
		logger.Error("store failed", "kind", opts.dbKind, "table", opts.table, "err", err)
		return
	}
	metrics.IncCounter(metrics.RecordsTotal, float64(n), metrics.Labels{"kind": "stored"})
	logger.Info("stored reviews", "kind", opts.dbKind, "table", opts.table, "inserted", n, "skipped", int64(len(rs))-n)
}

// setupMetrics installs the selected backend and returns its shutdown func.
func setupMetrics(ctx context.Context, backend string, logger *slog.Logger) (func(), error) {
	if backend != "datadog" {
		return func() {}, nil
	}
	b, err := datadog.NewBackend(ctx, datadog.Options{
		JobName: "extract_reviews",
		Tags:    datadog.ParseTagsCSV(os.Getenv("METRICS_TAGS")),
	})
	if err != nil {
		return nil, err
	}
	metrics.SetBackend(b)
	return func() {
		if err := b.Close(); err != nil {
			logger.Warn("metrics flush failed", "err", err)
		}
		metrics.SetBackend(nil)
	}, nil
}

func sourceName(path string) string {
	if path == "-" {
		return "stdin"
	}
	return storage.SourceID(path)
}

func sortedKinds() []string {
	kinds := storage.Kinds()
	sort.Strings(kinds)
	return kinds
}
