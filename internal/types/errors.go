package types

import (
	"errors"
	"fmt"
)

// Sentinel errors for common failure modes.
var (
	ErrInvalidURL     = errors.New("invalid URL")
	ErrHostNotAllowed = errors.New("host is not an election results site")
	ErrEmptyResponse  = errors.New("empty response body")
	ErrNotFoundPage   = errors.New("site reports the page was not found")
	ErrBodyTooLarge   = errors.New("response body exceeds the size limit")
	ErrUndecodable    = errors.New("response body cannot be decoded as text")
)

// FetchError wraps errors that occur during fetching: transport failures,
// non-2xx responses and bodies that cannot be decoded as text.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("fetch error for %s (status %d): %v", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch error for %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// UnrecognizedPageError is returned when a page is neither an index nor a
// detail page.
type UnrecognizedPageError struct {
	URL string
	Err error
}

func (e *UnrecognizedPageError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("unrecognized page %s: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("unrecognized page %s: neither a municipality listing nor a results page", e.URL)
}

func (e *UnrecognizedPageError) Unwrap() error { return e.Err }

// MalformedIndexError reports a listing row that lacks a code or a link.
type MalformedIndexError struct {
	URL string
	Row int
	Err error
}

func (e *MalformedIndexError) Error() string {
	return fmt.Sprintf("malformed index %s (row %d): %v", e.URL, e.Row, e.Err)
}

func (e *MalformedIndexError) Unwrap() error { return e.Err }

// MalformedDetailError reports a results page whose summary or party
// tables cannot be read.
type MalformedDetailError struct {
	URL   string
	Field string
	Err   error
}

func (e *MalformedDetailError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("malformed detail %s (field=%q): %v", e.URL, e.Field, e.Err)
	}
	return fmt.Sprintf("malformed detail %s: %v", e.URL, e.Err)
}

func (e *MalformedDetailError) Unwrap() error { return e.Err }

// StorageError wraps errors that occur while writing output.
type StorageError struct {
	Backend string
	Path    string
	Err     error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error (%s) for %s: %v", e.Backend, e.Path, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }
