package fetch

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"time"

	"github.com/pageloom/pageloom/pkg/errors"
	"github.com/pageloom/pageloom/pkg/httputil"
	"github.com/pageloom/pageloom/pkg/observability"
)

// Requester is the narrow fetch capability handed to page objects for
// out-of-band requests issued from inside a conversion step. Such requests
// bypass scheduling and deduplication but remain subject to the client's
// concurrency limit.
type Requester interface {
	Fetch(ctx context.Context, req *Request) (*Response, error)
}

// Client is the transport collaborator. It wraps an HTTP client with retry
// and a concurrency limit shared by scheduled and additional requests.
type Client struct {
	doer  httputil.Doer
	limit chan struct{}
}

// Options configures a Client.
type Options struct {
	// Doer performs the HTTP round trips. Defaults to an http.Client with
	// Timeout wrapped in retry-with-backoff.
	Doer httputil.Doer

	// Concurrency bounds in-flight fetches across all requests. Zero or
	// negative means 16.
	Concurrency int

	// Attempts and Delay configure the retry wrapper applied to the default
	// doer. Ignored when Doer is set explicitly.
	Attempts int
	Delay    time.Duration
	Timeout  time.Duration
}

// NewClient creates a transport client.
func NewClient(opts Options) *Client {
	doer := opts.Doer
	if doer == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		attempts := opts.Attempts
		if attempts <= 0 {
			attempts = 3
		}
		doer = httputil.NewRetryingDoer(&http.Client{Timeout: timeout}, attempts, opts.Delay)
	}
	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = 16
	}
	return &Client{
		doer:  doer,
		limit: make(chan struct{}, concurrency),
	}
}

// Fetch downloads the page described by req.
//
// When req.SkipFetch is set, the network is not touched and the not-fetched
// sentinel is returned instead.
func (c *Client) Fetch(ctx context.Context, req *Request) (*Response, error) {
	if req.SkipFetch {
		return NewDummyResponse(req.URL), nil
	}

	select {
	case c.limit <- struct{}{}:
		defer func() { <-c.limit }()
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	method := req.Method
	if method == "" {
		method = http.MethodGet
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, req.URL, bytes.NewReader(req.Body))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "build request for %s", req.URL)
	}
	for k, vs := range req.Headers {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}

	host, path := httpReq.URL.Host, httpReq.URL.Path
	observability.Fetch().OnRequest(ctx, method, host, path)
	start := time.Now()

	httpResp, err := c.doer.Do(httpReq)
	if err != nil {
		observability.Fetch().OnError(ctx, method, host, path, err)
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "fetch %s", req.URL)
	}
	defer httpResp.Body.Close()
	observability.Fetch().OnResponse(ctx, method, host, path, httpResp.StatusCode, time.Since(start))

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "read body of %s", req.URL)
	}

	return &Response{
		URL:        httpResp.Request.URL.String(),
		StatusCode: httpResp.StatusCode,
		Headers:    httpResp.Header,
		Body:       body,
		Fetched:    true,
	}, nil
}

// Ensure Client implements Requester.
var _ Requester = (*Client)(nil)
