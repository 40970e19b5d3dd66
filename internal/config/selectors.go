// Package config resolves the CSS selectors used to pull review fields out of
// a saved product page.
//
// A selector file is a flat key-to-string mapping. Keys are logical field names;
// values are selector expressions handed to the HTML query engine untouched.
//
//	{
//	  "name":    "span.a-profile-name",
//	  "title":   "a[data-hook='review-title'] span",
//	  "comment": "span[data-hook='review-body'] span",
//	  // optional
//	  "rating":  "i[data-hook='review-star-rating'] span.a-icon-alt",
//	}
//
// JSON5 is accepted (comments, trailing commas). Files ending in .yaml or .yml
// are decoded as YAML.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"dario.cat/mergo"
	"github.com/titanous/json5"
	"gopkg.in/yaml.v3"
)

// DefaultPath is where the extractor looks for a selector file when the
// caller does not name one.
const DefaultPath = "config/config.json"

// Logical field names.
const (
	FieldName     = "name"
	FieldTitle    = "title"
	FieldComment  = "comment"
	FieldRating   = "rating"
	FieldDate     = "date"
	FieldVerified = "verified"
)

// RequiredFields bound the number of records; a file missing any of them is
// rejected. Order matters: Validate reports the first missing key in this order.
var RequiredFields = []string{FieldName, FieldTitle, FieldComment}

// OptionalFields degrade to a placeholder per record when they run short.
var OptionalFields = []string{FieldRating, FieldDate, FieldVerified}

// AllFields lists every logical field in export column order.
var AllFields = []string{FieldName, FieldTitle, FieldComment, FieldRating, FieldDate, FieldVerified}

// Selectors maps a logical field name to its selector expression.
//
// An absent optional key means "this field matches nothing". Selectors is
// treated as immutable once returned by LoadSelectors.
type Selectors map[string]string

// ConfigError reports a selector file that decoded fine but lacks a
// required field.
type ConfigError struct {
	Path string
	Key  string
}

func (e *ConfigError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("required selector %q is missing", e.Key)
	}
	return fmt.Sprintf("required selector %q is missing in %s", e.Key, e.Path)
}

// DefaultSelectors returns the built-in mapping covering all six fields.
// Each call returns a fresh map.
func DefaultSelectors() Selectors {
	return Selectors{
		FieldName:     "span.a-profile-name",
		FieldTitle:    "a[data-hook='review-title'] span",
		FieldComment:  "span[data-hook='review-body'] span",
		FieldRating:   "i[data-hook='review-star-rating'] span.a-icon-alt",
		FieldDate:     "span[data-hook='review-date']",
		FieldVerified: "span[data-hook='avp-badge-linkless']",
	}
}

// Get returns the selector for field and whether the key is present.
func (s Selectors) Get(field string) (string, bool) {
	v, ok := s[field]
	return v, ok
}

// Validate checks that every required key is present. Only presence is
// checked: an empty selector string passes and simply matches nothing.
func (s Selectors) Validate() error {
	for _, k := range RequiredFields {
		if _, ok := s[k]; !ok {
			return &ConfigError{Key: k}
		}
	}
	return nil
}

// LoadSelectors resolves the selector mapping for one run.
//
// Resolution order:
//   - path == "" or the file is absent/unreadable: built-in defaults.
//   - the file exists but does not decode as a key-to-string mapping: built-in
//     defaults, with a warning.
//   - otherwise the decoded mapping, as-is (optional keys are not back-filled).
//
// When a sibling "<name>.local.<ext>" file exists it is merged over the
// result, its keys winning. Required keys are validated after the merge, and
// only when at least one file was actually used; a missing required key
// yields a *ConfigError.
func LoadSelectors(path string, logger *slog.Logger) (Selectors, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if strings.TrimSpace(path) == "" {
		logger.Warn("no selector file configured, using built-in selectors")
		return DefaultSelectors(), nil
	}

	fromFile := false
	sel, err := readSelectorFile(path)
	switch {
	case err == nil:
		fromFile = true
	case errors.Is(err, fs.ErrNotExist):
		logger.Warn("selector file not found, using built-in selectors", "path", path)
		sel = DefaultSelectors()
	case errors.Is(err, errDecode):
		logger.Warn("selector file is malformed, using built-in selectors", "path", path, "err", err)
		sel = DefaultSelectors()
	default:
		logger.Warn("selector file is unreadable, using built-in selectors", "path", path, "err", err)
		sel = DefaultSelectors()
	}

	localPath := localOverridePath(path)
	local, err := readSelectorFile(localPath)
	switch {
	case err == nil:
		if err := mergo.Merge(&sel, local, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("merge %s: %w", localPath, err)
		}
		logger.Info("merged selector file with local overrides", "local", localPath)
		fromFile = true
	case errors.Is(err, fs.ErrNotExist):
	default:
		logger.Warn("ignoring local selector overrides", "path", localPath, "err", err)
	}

	if !fromFile {
		return sel, nil
	}

	if err := sel.Validate(); err != nil {
		var ce *ConfigError
		if errors.As(err, &ce) {
			ce.Path = path
		}
		logger.Error("selector file rejected", "path", path, "err", err)
		return nil, err
	}
	return sel, nil
}

var errDecode = errors.New("decode selector file")

// readSelectorFile reads and decodes one selector file. Missing files surface
// as fs.ErrNotExist; decode failures wrap errDecode.
func readSelectorFile(path string) (Selectors, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	sel := Selectors{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(b, &sel)
	default:
		err = json5.Unmarshal(b, &sel)
	}
	if err != nil {
		return nil, fmt.Errorf("%w %s: %v", errDecode, path, err)
	}
	return sel, nil
}

// localOverridePath turns "config/config.json" into "config/config.local.json".
func localOverridePath(path string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + ".local" + ext
}
