package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/pageloom/pageloom/pkg/fetch"
	"github.com/pageloom/pageloom/pkg/fingerprint"
	"github.com/pageloom/pageloom/pkg/inject"
	"github.com/pageloom/pageloom/pkg/page"
)

// Sink receives extracted items. It is called from multiple workers and must
// be safe for concurrent use.
type Sink func(ctx context.Context, item Item) error

// Options configures a Runner.
type Options struct {
	// Workers is the pool size. Defaults to DefaultWorkers.
	Workers int

	// MaxRetries bounds rescheduling per logical request. Defaults to
	// DefaultMaxRetries.
	MaxRetries int

	Logger *log.Logger
}

// Runner drains a request queue through one Injector. It is stateless apart
// from the logger, so one Runner can serve several Run calls.
type Runner struct {
	injector   *inject.Injector
	callback   inject.Callback
	workers    int
	maxRetries int
	logger     *log.Logger
	fprints    *fingerprint.Generator
}

// NewRunner creates a runner processing every request with the given
// callback.
func NewRunner(in *inject.Injector, cb inject.Callback, opts Options) *Runner {
	workers := opts.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}
	maxRetries := opts.MaxRetries
	if maxRetries == 0 {
		maxRetries = DefaultMaxRetries
	}
	if maxRetries < 0 {
		maxRetries = 0 // negative disables retries entirely
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		injector:   in,
		callback:   cb,
		workers:    workers,
		maxRetries: maxRetries,
		logger:     logger,
		fprints:    fingerprint.NewGenerator(),
	}
}

// Run processes the requests and blocks until every request, including
// rescheduled ones, has finished or ctx is cancelled. Individual request
// failures are logged and counted, not returned; Run errors only on
// cancellation.
func (r *Runner) Run(ctx context.Context, requests []*fetch.Request, sink Sink) (*Stats, error) {
	start := time.Now()

	queue := make(chan *fetch.Request, len(requests)+r.workers)
	var pending sync.WaitGroup
	var mu sync.Mutex
	stats := &Stats{}

	enq := func(req *fetch.Request) { enqueue(ctx, queue, &pending, req) }

	// Equivalent requests collapse to one pass. The fingerprint covers the
	// full requested key set, so two requests for the same URL with
	// different dynamic dependency sets stay distinct. Rescheduled requests
	// bypass this: they re-enter through enq directly.
	seen := make(map[string]bool, len(requests))
	for _, req := range requests {
		fp := r.fprints.Fingerprint(req, inject.RequestedKeys(req, r.callback))
		if seen[fp] {
			stats.Deduplicated++
			r.logger.Debug("dropping duplicate request", "url", req.URL)
			continue
		}
		seen[fp] = true
		enq(req)
	}

	done := make(chan struct{})
	go func() {
		pending.Wait()
		close(done)
	}()

	var workers sync.WaitGroup
	for i := 0; i < r.workers; i++ {
		workers.Add(1)
		go func() {
			defer workers.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case <-done:
					return
				case req := <-queue:
					r.process(ctx, req, sink, enq, stats, &mu)
					pending.Done()
				}
			}
		}()
	}

	select {
	case <-done:
	case <-ctx.Done():
		workers.Wait()
		return stats, ctx.Err()
	}
	workers.Wait()

	stats.Duration = time.Since(start)
	r.logger.Info("run finished",
		"processed", stats.Processed,
		"items", stats.Items,
		"retries", stats.Retries,
		"failures", stats.Failures,
		"deduplicated", stats.Deduplicated,
		"duration", stats.Duration)
	return stats, nil
}

// enqueue never blocks a worker: when the buffer is full the handoff moves
// to its own goroutine. A handoff still waiting when the run is cancelled
// gives the request up instead of leaking on the channel send.
func enqueue(ctx context.Context, queue chan *fetch.Request, pending *sync.WaitGroup, req *fetch.Request) {
	pending.Add(1)
	select {
	case queue <- req:
		return
	default:
	}
	go func() {
		select {
		case queue <- req:
		case <-ctx.Done():
			pending.Done()
		}
	}()
}

func (r *Runner) process(ctx context.Context, req *fetch.Request, sink Sink, enqueue func(*fetch.Request), stats *Stats, mu *sync.Mutex) {
	defer r.fprints.Forget(req.ID)

	item, res, err := r.injector.Run(ctx, req, r.callback)

	mu.Lock()
	defer mu.Unlock()
	stats.Processed++
	if res != nil && !res.Fetched {
		stats.FetchesSkipped++
	}

	if err != nil {
		if retry, ok := page.IsRetry(err); ok {
			if req.Retries < r.maxRetries {
				next := req.Rescheduled(retry.Reason)
				r.logger.Info("rescheduling request",
					"url", req.URL,
					"reason", next.RetryReason,
					"attempt", next.Retries)
				stats.Retries++
				enqueue(next)
				return
			}
			r.logger.Warn("retry budget exhausted",
				"url", req.URL,
				"retries", req.Retries)
			stats.Failures++
			return
		}
		r.logger.Error("request failed", "url", req.URL, "error", err)
		stats.Failures++
		return
	}

	if item == nil || sink == nil {
		return
	}
	if err := sink(ctx, Item{Request: req, Value: item}); err != nil {
		r.logger.Error("sink rejected item", "url", req.URL, "error", err)
		stats.Failures++
		return
	}
	stats.Items++
}
