package fetch

import "net/http"

// Response is the raw result of downloading a page.
//
// A Response with Fetched == false is the "page not fetched" sentinel: it is
// substituted wherever the response type was requested when the skip-download
// decision determined that no dependency actually needs the body. Sentinel
// responses carry the request URL and nothing else.
type Response struct {
	URL        string
	StatusCode int
	Headers    http.Header
	Body       []byte

	// Fetched reports whether a network fetch actually happened.
	Fetched bool
}

// NewDummyResponse returns the not-fetched sentinel for the given URL.
func NewDummyResponse(url string) *Response {
	return &Response{URL: url, Fetched: false}
}

// Text returns the body as a string.
func (r *Response) Text() string { return string(r.Body) }
