// Package pipeline provides the concurrent request-processing loop for
// pageloom.
//
// A Runner owns a pool of workers that drain a request queue. Each request
// goes through one resolution pass: plan, fetch decision, dependency
// construction, callback. Extracted items flow to a sink; retry signals
// reschedule an equivalent request until the retry budget is spent.
//
// # Usage
//
//	runner := pipeline.NewRunner(injector, inject.CallbackFor[Product](), pipeline.Options{})
//	stats, err := runner.Run(ctx, requests, func(ctx context.Context, item pipeline.Item) error {
//	    return enc.Encode(item.Value)
//	})
package pipeline

import (
	"time"

	"github.com/pageloom/pageloom/pkg/fetch"
)

const (
	// DefaultWorkers is the worker-pool size when Options leaves it unset.
	DefaultWorkers = 8

	// DefaultMaxRetries bounds how many times one logical request may be
	// rescheduled by retry signals before it counts as failed.
	DefaultMaxRetries = 3
)

// Item is one extracted value together with the request that produced it.
type Item struct {
	Request *fetch.Request
	Value   any
}

// Stats summarizes one Run.
type Stats struct {
	// Processed counts finished resolution passes, retries included.
	Processed int

	// Items counts values delivered to the sink.
	Items int

	// Retries counts requests rescheduled by a retry signal.
	Retries int

	// Failures counts requests that ended in an error, including requests
	// whose retry budget ran out.
	Failures int

	// FetchesSkipped counts passes that needed no page download.
	FetchesSkipped int

	// Deduplicated counts requests dropped before processing because an
	// equivalent request (same fingerprint and dependency set) was already
	// queued in this run.
	Deduplicated int

	Duration time.Duration
}
