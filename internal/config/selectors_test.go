package config

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"reviewetl/internal/logging"
)

func quietLogger() *slog.Logger { return logging.Discard() }

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	return p
}

// TestLoadSelectors_MissingFileUsesDefaults verifies an absent file is not an
// error and yields all six built-in selectors.
func TestLoadSelectors_MissingFileUsesDefaults(t *testing.T) {
	t.Parallel()

	sel, err := LoadSelectors(filepath.Join(t.TempDir(), "nope.json"), quietLogger())
	require.NoError(t, err)
	require.Equal(t, DefaultSelectors(), sel)
	require.Len(t, sel, len(AllFields))
}

func TestLoadSelectors_EmptyPathUsesDefaults(t *testing.T) {
	t.Parallel()

	sel, err := LoadSelectors("", quietLogger())
	require.NoError(t, err)
	require.Equal(t, DefaultSelectors(), sel)
}

// TestLoadSelectors_MalformedFileUsesDefaults verifies a file that is not a
// key-to-string mapping falls back to defaults instead of failing the run.
func TestLoadSelectors_MalformedFileUsesDefaults(t *testing.T) {
	t.Parallel()

	p := writeFile(t, t.TempDir(), "config.json", `{"name": [1, 2`)

	sel, err := LoadSelectors(p, quietLogger())
	require.NoError(t, err)
	require.Equal(t, DefaultSelectors(), sel)
}

// TestLoadSelectors_MissingRequiredKey checks every required key in turn.
func TestLoadSelectors_MissingRequiredKey(t *testing.T) {
	t.Parallel()

	full := map[string]string{
		FieldName:    `"name": ".n"`,
		FieldTitle:   `"title": ".t"`,
		FieldComment: `"comment": ".c"`,
	}

	for _, missing := range RequiredFields {
		t.Run(missing, func(t *testing.T) {
			t.Parallel()

			body := "{"
			for _, k := range RequiredFields {
				if k == missing {
					continue
				}
				body += full[k] + ","
			}
			body += `"rating": ".r"}`

			p := writeFile(t, t.TempDir(), "config.json", body)
			_, err := LoadSelectors(p, quietLogger())
			require.Error(t, err)

			var ce *ConfigError
			require.True(t, errors.As(err, &ce), "want *ConfigError, got %T", err)
			require.Equal(t, missing, ce.Key)
			require.Equal(t, p, ce.Path)
			require.Contains(t, err.Error(), missing)
		})
	}
}

// TestLoadSelectors_RequiredOnly verifies optional keys stay absent rather
// than being back-filled from defaults.
func TestLoadSelectors_RequiredOnly(t *testing.T) {
	t.Parallel()

	p := writeFile(t, t.TempDir(), "config.json", `{
		// JSON5 comments are fine
		name: ".n",
		"title": ".t",
		"comment": ".c",
	}`)

	sel, err := LoadSelectors(p, quietLogger())
	require.NoError(t, err)
	require.Equal(t, Selectors{FieldName: ".n", FieldTitle: ".t", FieldComment: ".c"}, sel)

	for _, k := range OptionalFields {
		_, ok := sel.Get(k)
		require.False(t, ok, "optional key %q should be absent", k)
	}
}

func TestLoadSelectors_YAML(t *testing.T) {
	t.Parallel()

	p := writeFile(t, t.TempDir(), "selectors.yaml", "name: .n\ntitle: .t\ncomment: .c\ndate: .d\n")

	sel, err := LoadSelectors(p, quietLogger())
	require.NoError(t, err)
	require.Equal(t, ".d", sel[FieldDate])
}

// TestLoadSelectors_EmptySelectorPassesThrough verifies only key presence is
// validated; an empty selector string is accepted.
func TestLoadSelectors_EmptySelectorPassesThrough(t *testing.T) {
	t.Parallel()

	p := writeFile(t, t.TempDir(), "config.json", `{"name":"","title":".t","comment":".c"}`)

	sel, err := LoadSelectors(p, quietLogger())
	require.NoError(t, err)
	v, ok := sel.Get(FieldName)
	require.True(t, ok)
	require.Empty(t, v)
}

func TestLoadSelectors_LocalOverride(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	p := writeFile(t, dir, "config.json", `{"name":".n","title":".t"}`)
	writeFile(t, dir, "config.local.json", `{"comment":".c2","title":".t2"}`)

	sel, err := LoadSelectors(p, quietLogger())
	require.NoError(t, err)
	require.Equal(t, Selectors{FieldName: ".n", FieldTitle: ".t2", FieldComment: ".c2"}, sel)
}

func TestLocalOverridePath(t *testing.T) {
	t.Parallel()

	require.Equal(t, filepath.Join("config", "config.local.json"), localOverridePath(filepath.Join("config", "config.json")))
	require.Equal(t, "sel.local.yaml", localOverridePath("sel.yaml"))
	require.Equal(t, "sel.local", localOverridePath("sel"))
}

func TestSelectorsValidate(t *testing.T) {
	t.Parallel()

	require.NoError(t, DefaultSelectors().Validate())

	err := Selectors{FieldTitle: "x"}.Validate()
	var ce *ConfigError
	require.ErrorAs(t, err, &ce)
	require.Equal(t, FieldName, ce.Key)
	require.Empty(t, ce.Path)
}
