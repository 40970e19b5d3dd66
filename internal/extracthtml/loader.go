package extracthtml

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize is the number of documents a DocumentCache keeps when the
// caller does not pick a size.
const DefaultCacheSize = 10

// DocumentCache reads HTML documents from disk and keeps the most recently
// used ones in memory, keyed by absolute path.
//
// The cache is owned by the caller and lives as long as the caller keeps it.
// It never checks modification times: a file changed on disk after being
// cached is served stale until Invalidate or Purge is called.
//
// A DocumentCache is meant for use from a single goroutine.
type DocumentCache struct {
	cache *lru.Cache[string, string]

	// readFile is a test seam; production uses os.ReadFile.
	readFile func(string) ([]byte, error)
}

// NewDocumentCache creates a cache holding up to capacity documents. A
// capacity <= 0 selects DefaultCacheSize.
func NewDocumentCache(capacity int) (*DocumentCache, error) {
	if capacity <= 0 {
		capacity = DefaultCacheSize
	}
	c, err := lru.New[string, string](capacity)
	if err != nil {
		return nil, fmt.Errorf("new document cache: %w", err)
	}
	return &DocumentCache{cache: c, readFile: os.ReadFile}, nil
}

// Load returns the UTF-8 text of the document at path.
//
// A path that does not exist, is a directory, or cannot be read yields a
// *NotFoundError. Successful reads are cached; later calls for the same path
// skip the filesystem.
func (c *DocumentCache) Load(path string) (string, error) {
	key, err := cacheKey(path)
	if err != nil {
		return "", &NotFoundError{Path: path, Err: err}
	}
	if html, ok := c.cache.Get(key); ok {
		return html, nil
	}

	fi, err := os.Stat(key)
	if err != nil {
		return "", &NotFoundError{Path: path, Err: err}
	}
	if !fi.Mode().IsRegular() {
		return "", &NotFoundError{Path: path, Err: fmt.Errorf("not a regular file")}
	}

	b, err := c.readFile(key)
	if err != nil {
		return "", &NotFoundError{Path: path, Err: err}
	}

	html, err := decodeHTML(b)
	if err != nil {
		return "", &ParseError{Err: err}
	}

	c.cache.Add(key, html)
	return html, nil
}

// Invalidate drops path from the cache so the next Load re-reads it.
func (c *DocumentCache) Invalidate(path string) {
	if key, err := cacheKey(path); err == nil {
		c.cache.Remove(key)
	}
}

// Purge empties the cache.
func (c *DocumentCache) Purge() { c.cache.Purge() }

// Len reports how many documents are cached.
func (c *DocumentCache) Len() int { return c.cache.Len() }

// Contains reports whether path is currently cached, without touching its
// recency.
func (c *DocumentCache) Contains(path string) bool {
	key, err := cacheKey(path)
	if err != nil {
		return false
	}
	return c.cache.Contains(key)
}

// ReadDocument reads a whole document from r (typically stdin). Stream input
// is never cached.
func ReadDocument(r io.Reader) (string, error) {
	if r == nil {
		return "", nil
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	html, err := decodeHTML(b)
	if err != nil {
		return "", &ParseError{Err: err}
	}
	return html, nil
}

func cacheKey(path string) (string, error) {
	if path == "" {
		return "", fs.ErrNotExist
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", errors.Join(fs.ErrNotExist, err)
	}
	return abs, nil
}
