// Package export writes extracted reviews to CSV and JSON files.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"reviewetl/internal/config"
	"reviewetl/internal/reviews"
)

// Conventional output locations.
const (
	DefaultCSVPath  = "data/output/reviews.csv"
	DefaultJSONPath = "data/output/reviews.json"
)

// WriteCSV writes a header row (name,title,comment,rating,date,verified)
// followed by one row per review in the same column order.
func WriteCSV(w io.Writer, rs []reviews.Review) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(config.AllFields); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for i, r := range rs {
		if err := cw.Write(r.Values()); err != nil {
			return fmt.Errorf("write csv row %d: %w", i, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

// ExportCSV writes rs to path, creating parent directories as needed.
func ExportCSV(path string, rs []reviews.Review) error {
	return writeFile(path, func(w io.Writer) error { return WriteCSV(w, rs) })
}

// writeFile creates path (and its parents) and hands the file to write.
func writeFile(path string, write func(io.Writer) error) (err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", path, cerr)
		}
	}()
	return write(f)
}
