package httputil

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pageloom/pageloom/pkg/observability"
)

// Doer is the subset of *http.Client the transport layer depends on.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// RetryingDoer wraps a Doer with retry-with-backoff semantics and fetch hooks.
//
// Responses with status 5xx or 429 and transport-level errors are treated as
// transient and retried; any other status is returned to the caller as-is.
// The response body is fully read and replaced on retries, so callers always
// receive a body they own.
type RetryingDoer struct {
	inner    Doer
	attempts int
	delay    time.Duration
}

// NewRetryingDoer wraps inner with up to attempts tries and the given initial
// backoff delay. attempts < 1 is treated as 1; a zero delay defaults to one second.
func NewRetryingDoer(inner Doer, attempts int, delay time.Duration) *RetryingDoer {
	if inner == nil {
		inner = http.DefaultClient
	}
	if delay <= 0 {
		delay = time.Second
	}
	return &RetryingDoer{inner: inner, attempts: max(attempts, 1), delay: delay}
}

// Do executes the request, retrying transient failures.
func (d *RetryingDoer) Do(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	host, path := req.URL.Host, req.URL.Path

	var resp *http.Response
	start := time.Now()
	observability.Fetch().OnRequest(ctx, req.Method, host, path)

	err := Retry(ctx, d.attempts, d.delay, func() error {
		r, err := d.inner.Do(req)
		if err != nil {
			return Retryable(err)
		}
		if transient(r.StatusCode) {
			// Drain so the connection can be reused before the retry.
			io.Copy(io.Discard, r.Body)
			r.Body.Close()
			return Retryable(fmt.Errorf("server returned %s", r.Status))
		}
		resp = r
		return nil
	})
	if err != nil {
		observability.Fetch().OnError(ctx, req.Method, host, path, err)
		return nil, err
	}

	observability.Fetch().OnResponse(ctx, req.Method, host, path, resp.StatusCode, time.Since(start))
	return resp, nil
}

func transient(status int) bool {
	return status >= 500 || status == http.StatusTooManyRequests
}
