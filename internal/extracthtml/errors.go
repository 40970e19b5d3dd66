package extracthtml

import (
	"errors"
	"fmt"
)

// ErrEmptyResult is the non-fatal outcome of a document where at least one
// required field matched no elements. Scrape logs it and returns an empty set.
var ErrEmptyResult = errors.New("one or more required fields matched no elements")

// NotFoundError reports an input document that does not resolve to a
// readable file.
type NotFoundError struct {
	Path string
	Err  error
}

func (e *NotFoundError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("document %s not found", e.Path)
	}
	return fmt.Sprintf("document %s not found: %v", e.Path, e.Err)
}

func (e *NotFoundError) Unwrap() error { return e.Err }

// ParseError reports content that cannot be read as markup at all.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string { return fmt.Sprintf("parse html: %v", e.Err) }

func (e *ParseError) Unwrap() error { return e.Err }
