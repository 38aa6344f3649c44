package types

import (
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// Request tags describe why a page is being fetched.
const (
	TagSeed   = "seed"
	TagDetail = "detail"
)

// Request represents a page to be fetched.
type Request struct {
	// URL is the target URL to fetch.
	URL *url.URL

	// Headers are custom HTTP headers to send with the request.
	Headers http.Header

	// Timeout overrides the fetcher's configured timeout for this request.
	Timeout time.Duration

	// Tag categorizes this request (seed or detail).
	Tag string

	// ParentURL tracks which listing page this request was discovered on.
	ParentURL string
}

// NewRequest creates a new GET Request.
func NewRequest(rawURL string) (*Request, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %v", ErrInvalidURL, rawURL, err)
	}

	return &Request{
		URL:     u,
		Headers: make(http.Header),
		Tag:     TagSeed,
	}, nil
}

// URLString returns the string representation of the request URL.
func (r *Request) URLString() string {
	if r.URL == nil {
		return ""
	}
	return r.URL.String()
}
