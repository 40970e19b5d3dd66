package extracthtml

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"
)

func writeHTML(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	return p
}

// countingReader wraps os.ReadFile so tests can observe cache hits.
func countingReader(n *int) func(string) ([]byte, error) {
	return func(p string) ([]byte, error) {
		*n++
		return os.ReadFile(p)
	}
}

func TestDocumentCache_LoadAndMemoize(t *testing.T) {
	t.Parallel()

	p := writeHTML(t, t.TempDir(), "a.html", "<p>x</p>")

	c, err := NewDocumentCache(2)
	require.NoError(t, err)
	reads := 0
	c.readFile = countingReader(&reads)

	for i := 0; i < 3; i++ {
		html, err := c.Load(p)
		require.NoError(t, err)
		require.Equal(t, "<p>x</p>", html)
	}
	require.Equal(t, 1, reads)
	require.Equal(t, 1, c.Len())
	require.True(t, c.Contains(p))
}

// TestDocumentCache_ServesStaleUntilInvalidated documents that the cache does
// not track modifications.
func TestDocumentCache_ServesStaleUntilInvalidated(t *testing.T) {
	t.Parallel()

	p := writeHTML(t, t.TempDir(), "a.html", "v1")

	c, err := NewDocumentCache(0)
	require.NoError(t, err)

	got, err := c.Load(p)
	require.NoError(t, err)
	require.Equal(t, "v1", got)

	require.NoError(t, os.WriteFile(p, []byte("v2"), 0o600))

	got, err = c.Load(p)
	require.NoError(t, err)
	require.Equal(t, "v1", got)

	c.Invalidate(p)
	got, err = c.Load(p)
	require.NoError(t, err)
	require.Equal(t, "v2", got)

	c.Purge()
	require.Equal(t, 0, c.Len())
}

func TestDocumentCache_EvictsLeastRecentlyUsed(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	a := writeHTML(t, dir, "a.html", "a")
	b := writeHTML(t, dir, "b.html", "b")
	d := writeHTML(t, dir, "c.html", "c")

	c, err := NewDocumentCache(2)
	require.NoError(t, err)

	for _, p := range []string{a, b, a, d} {
		_, err := c.Load(p)
		require.NoError(t, err)
	}

	require.Equal(t, 2, c.Len())
	require.True(t, c.Contains(a))
	require.False(t, c.Contains(b), "b was least recently used and should be evicted")
	require.True(t, c.Contains(d))
}

// TestDocumentCache_RelativeAndAbsoluteShareEntry verifies keys are absolute.
func TestDocumentCache_RelativeAndAbsoluteShareEntry(t *testing.T) {
	t.Parallel()

	c, err := NewDocumentCache(4)
	require.NoError(t, err)
	reads := 0
	c.readFile = countingReader(&reads)

	rel := filepath.Join("testdata", "reviews.html")
	abs, err := filepath.Abs(rel)
	require.NoError(t, err)

	_, err = c.Load(rel)
	require.NoError(t, err)
	_, err = c.Load(abs)
	require.NoError(t, err)
	require.Equal(t, 1, reads)
}

func TestDocumentCache_NotFound(t *testing.T) {
	t.Parallel()

	c, err := NewDocumentCache(1)
	require.NoError(t, err)

	dir := t.TempDir()
	for name, path := range map[string]string{
		"missing":   filepath.Join(dir, "nope.html"),
		"directory": dir,
		"empty":     "",
	} {
		_, err := c.Load(path)
		var nf *NotFoundError
		require.True(t, errors.As(err, &nf), "%s: want *NotFoundError, got %v", name, err)
		require.Equal(t, path, nf.Path)
	}
	require.Equal(t, 0, c.Len())
}

func TestDocumentCache_DecodesDeclaredCharset(t *testing.T) {
	t.Parallel()

	body := `<html><head><meta charset="iso-8859-1"></head><body><span class="a-profile-name">Zoé</span></body></html>`
	latin1, err := charmap.ISO8859_1.NewEncoder().String(body)
	require.NoError(t, err)

	p := writeHTML(t, t.TempDir(), "latin1.html", latin1)

	c, err := NewDocumentCache(1)
	require.NoError(t, err)
	got, err := c.Load(p)
	require.NoError(t, err)
	require.Contains(t, got, "Zoé")
}

func TestDecodeHTML_StripsUTF8BOM(t *testing.T) {
	t.Parallel()

	got, err := decodeHTML(append([]byte{0xEF, 0xBB, 0xBF}, []byte("<p>é</p>")...))
	require.NoError(t, err)
	require.Equal(t, "<p>é</p>", got)
}

func TestReadDocument(t *testing.T) {
	t.Parallel()

	got, err := ReadDocument(bytes.NewBufferString("<p>x</p>"))
	require.NoError(t, err)
	require.Equal(t, "<p>x</p>", got)

	got, err = ReadDocument(nil)
	require.NoError(t, err)
	require.Empty(t, got)

	_, err = ReadDocument(errReader{})
	require.Error(t, err)
	require.True(t, strings.Contains(err.Error(), "read stdin"))
}

type errReader struct{}

func (errReader) Read([]byte) (int, error) { return 0, errors.New("boom") }
