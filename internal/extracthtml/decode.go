package extracthtml

import (
	"bytes"
	"fmt"

	"golang.org/x/net/html/charset"
	"golang.org/x/text/transform"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// decodeHTML converts raw document bytes to UTF-8 text.
//
// The encoding comes from a byte order mark, a <meta charset> declaration in
// the first 1024 bytes, or UTF-8 validity, in that order; undeclared non-UTF-8
// content is read as windows-1252, which is what browsers save pages as.
func decodeHTML(b []byte) (string, error) {
	enc, name, _ := charset.DetermineEncoding(b, "text/html")
	if name == "utf-8" {
		return string(bytes.TrimPrefix(b, utf8BOM)), nil
	}

	out, _, err := transform.Bytes(enc.NewDecoder(), b)
	if err != nil {
		return "", fmt.Errorf("decode %s: %w", name, err)
	}
	return string(out), nil
}
