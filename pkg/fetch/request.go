// Package fetch defines the request/response model of the extraction engine
// and the transport client used to satisfy raw-response dependencies.
//
// The client is deliberately narrow: the injector calls it at most once per
// request, and page objects receive it as an opaque capability for
// out-of-band fetches issued from inside a conversion step.
package fetch

import (
	"net/http"
	"reflect"

	"github.com/google/uuid"
)

// DefaultRetryReason is attached to rescheduled requests when a page object
// signals a retry without giving its own reason.
const DefaultRetryReason = "page object retry"

// Request describes one inbound crawl request before resolution.
type Request struct {
	// ID identifies the request in logs and retry lineage. Assigned by
	// NewRequest; rescheduled requests keep a fresh ID and point back to
	// their origin via ParentID.
	ID       string
	ParentID string

	Method  string
	URL     string
	Headers http.Header
	Body    []byte

	// PageParams carries per-request key-value parameters that page objects
	// can consume without re-fetching anything.
	PageParams map[string]string

	// Inject lists additional dependency types requested for this request
	// only. They are folded into the build plan before execution.
	Inject []reflect.Type

	// SkipFetch tells the transport to return the not-fetched sentinel
	// instead of hitting the network.
	SkipFetch bool

	// Retries counts how many times this logical request has been
	// rescheduled by a retry signal.
	Retries int

	// RetryReason is the human-readable reason attached by the retry signal
	// that produced this request, empty for first-hand requests.
	RetryReason string
}

// NewRequest creates a GET request for the given URL with a fresh ID.
func NewRequest(url string) *Request {
	return &Request{
		ID:      uuid.NewString(),
		Method:  http.MethodGet,
		URL:     url,
		Headers: make(http.Header),
	}
}

// Rescheduled returns a copy of r representing a retry with the given reason.
// The copy gets a fresh ID, an incremented retry counter, and points back to
// r through ParentID.
func (r *Request) Rescheduled(reason string) *Request {
	if reason == "" {
		reason = DefaultRetryReason
	}
	clone := *r
	clone.ID = uuid.NewString()
	clone.ParentID = r.ID
	clone.Retries = r.Retries + 1
	clone.RetryReason = reason
	return &clone
}

// RequestURL is a leaf dependency type carrying the URL a request was
// scheduled for. It is available whether or not the page was fetched.
type RequestURL string

// ResponseURL is a leaf dependency type carrying the final URL of the fetched
// page (after redirects). For skipped downloads it equals the request URL.
type ResponseURL string
