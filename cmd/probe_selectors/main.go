// Command probe-selectors shows how the configured selectors fare against a
// saved page, one row per review field.
//
// Usage:
//
//	probe-selectors page.html
//	probe-selectors --config config/config.yaml page.html
//	cat page.html | probe-selectors
//
// Debug (print outer HTML of every match for one ad-hoc selector):
//
//	probe-selectors --selector "div[data-hook='review']" page.html
//
// Debug (print trimmed text instead):
//
//	probe-selectors --selector "span.a-profile-name" --text page.html
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"reviewetl/internal/config"
	"reviewetl/internal/extracthtml"
	"reviewetl/internal/logging"
)

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// options holds the parsed command-line flags.
type options struct {
	configPath string
	selector   string
	textOnly   bool
	verbose    bool
}

// run returns 0 when every required field matches at least one element, 1
// when one does not or the document cannot be read, and 2 for usage errors.
func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	var (
		opts options
		code int
	)

	cmd := &cobra.Command{
		Use:           "probe-selectors [html-path|-]",
		Short:         "Show how many elements each review selector matches.",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(_ *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			code = inspect(path, opts, stdin, stdout, stderr)
			return nil
		},
	}
	cmd.SetArgs(args)
	cmd.SetIn(stdin)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	f := cmd.Flags()
	f.StringVar(&opts.configPath, "config", config.DefaultPath, "Selector config file (JSON5 or YAML)")
	f.StringVar(&opts.selector, "selector", "", "Print matches for this CSS selector instead of the table")
	f.BoolVar(&opts.textOnly, "text", false, "Print trimmed text for --selector matches")
	f.BoolVarP(&opts.verbose, "verbose", "v", false, "Debug logging")

	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(stderr, "%v\n", err)
		fmt.Fprint(stderr, cmd.UsageString())
		return 2
	}
	return code
}

func inspect(path string, opts options, stdin io.Reader, stdout, stderr io.Writer) int {
	logger := logging.New(stderr, opts.verbose)

	html, err := loadHTML(path, stdin)
	if err != nil {
		logger.Error("load html", "err", err)
		return 1
	}

	if opts.selector != "" {
		if err := extracthtml.DebugPrintSelector(stdout, html, opts.selector, opts.textOnly, logger); err != nil {
			logger.Error("debug selector", "err", err)
			return 1
		}
		return 0
	}

	sel, err := config.LoadSelectors(opts.configPath, logger)
	if err != nil {
		var ce *config.ConfigError
		if errors.As(err, &ce) {
			logger.Error("invalid selector config", "path", ce.Path, "missing", ce.Key)
		} else {
			logger.Error("load selectors", "err", err)
		}
		return 1
	}

	probes, err := extracthtml.ProbeSelectors(html, sel, logger)
	if err != nil {
		logger.Error("probe selectors", "err", err)
		return 1
	}

	t := table.NewWriter()
	t.SetOutputMirror(stdout)
	t.AppendHeader(table.Row{"Field", "Selector", "Required", "Matches"})
	code := 0
	for _, p := range probes {
		req := ""
		if p.Required {
			req = "yes"
			if p.Matches == 0 {
				code = 1
			}
		}
		t.AppendRow(table.Row{p.Field, p.Selector, req, p.Matches})
	}
	t.SetStyle(table.StyleRounded)
	t.Render()

	if code != 0 {
		logger.Warn(extracthtml.ErrEmptyResult.Error())
	}
	return code
}

// loadHTML reads path, or stdin when path is empty or "-".
func loadHTML(path string, stdin io.Reader) (string, error) {
	if path == "" || path == "-" {
		return extracthtml.ReadDocument(stdin)
	}
	c, err := extracthtml.NewDocumentCache(1)
	if err != nil {
		return "", err
	}
	return c.Load(path)
}
