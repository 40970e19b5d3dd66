package export

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"reviewetl/internal/reviews"
)

// WriteJSON writes rs as an indented JSON array. Non-ASCII text is written
// literally and HTML characters are not escaped.
func WriteJSON(w io.Writer, rs []reviews.Review) error {
	if rs == nil {
		rs = []reviews.Review{}
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rs); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}

// ExportJSON writes rs to path, creating parent directories as needed.
func ExportJSON(path string, rs []reviews.Review) error {
	return writeFile(path, func(w io.Writer) error { return WriteJSON(w, rs) })
}

// ReadJSON decodes a file produced by WriteJSON.
func ReadJSON(r io.Reader) ([]reviews.Review, error) {
	var rs []reviews.Review
	if err := json.NewDecoder(r).Decode(&rs); err != nil {
		return nil, fmt.Errorf("decode json: %w", err)
	}
	return rs, nil
}

// ReadJSONFile opens path and decodes it with ReadJSON.
func ReadJSONFile(path string) ([]reviews.Review, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadJSON(f)
}
