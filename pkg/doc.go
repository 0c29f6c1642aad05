// Package pkg provides the core libraries for Pageloom page extraction.
//
// # Overview
//
// Pageloom is a dependency-injection engine for web page extraction. Callers
// declare WHAT they want (an item type, or a set of page-object and provider
// dependencies) and the engine figures out HOW to build it: which page
// objects to construct, which providers to run, whether the page needs to be
// downloaded at all, and which expensive builds can be replayed from cache.
//
// The pkg directory is organized into three main areas:
//
//  1. Planning - resolving a requested key set into an executable build plan
//     ([plan], [registry], [page]).
//  2. Execution - running a plan against a request ([provider], [inject],
//     [fetch], [fingerprint]).
//  3. Infrastructure - shared plumbing ([cache], [errors], [httputil],
//     [observability], [pipeline], [buildinfo]).
//
// # Architecture
//
// The typical data flow through Pageloom:
//
//	Request + Callback (declared dependencies)
//	         ↓
//	    [registry] package (URL rules pick overrides and item pages)
//	         ↓
//	    [plan] package (dependency graph, topological build order)
//	         ↓
//	    [inject] package (execute plan: providers, page objects, cache)
//	         ↓
//	    Extracted item / built dependency values
//
// # Quick Start
//
// Declare a page object, build an injector, and extract an item:
//
//	import (
//	    "context"
//	    "github.com/pageloom/pageloom/pkg/fetch"
//	    "github.com/pageloom/pageloom/pkg/inject"
//	    "github.com/pageloom/pageloom/pkg/page"
//	)
//
//	// 1. Describe the page object and the item it produces.
//	catalog := page.NewCatalog()
//	catalog.Register(page.Producing[*ProductPage, Product]())
//
//	// 2. Wire the injector.
//	in := inject.New(inject.Options{
//	    Catalog: catalog,
//	    Client:  fetch.NewClient(fetch.Options{}),
//	})
//
//	// 3. Request an item; planning, fetching, and construction are implicit.
//	req := fetch.NewRequest("https://example.com/p/1")
//	item, _, err := in.Run(context.Background(), req, inject.CallbackFor[Product]())
//
// # Main Packages
//
// ## Planning
//
// [plan] - Dependency graphs keyed by (Go type, annotation). Build resolves a
// requested key set into a deduplicated, topologically ordered plan, detects
// cycles, and applies rule-based substitutions. ToDOT and RenderSVG export
// plans for inspection.
//
// [registry] - URL-pattern rules. A rule maps host/path patterns to a page
// object that overrides another or produces an item type. Most-specific
// pattern wins; ties go to the last registered rule.
//
// [page] - Page-object blueprints and the catalog. A blueprint records a page
// object's constructor inputs and produced item; Retry signals that a fetched
// response is unusable and the request should be retried.
//
// ## Execution
//
// [provider] - Providers build framework-supplied values (response, URL,
// parameters). Priority-ordered; providers may declare response dependence,
// fingerprinting, and serialization for caching.
//
// [inject] - The injector: plans, decides whether to fetch, executes
// providers and page-object constructors in order, and replays provider
// results from cache.
//
// [fingerprint] - Canonical request fingerprints (method, canonical URL, body,
// dependency set) for cache keys.
//
// [fetch] - HTTP requests and responses with bounded-concurrency client,
// retries, and per-request injected keys and parameters.
//
// ## Infrastructure
//
// [cache] - Cache backends: file (CLI), memory (tests), Redis and MongoDB
// (server deployments), and a null backend to disable caching.
//
// [pipeline] - Worker-pool runner that drives many requests through one
// injector, reschedules retry signals, and aggregates stats.
//
// [errors] - Coded errors shared across packages.
//
// [observability] - Hook points for logging and metrics on plan, fetch-skip,
// build, retry, and cache events.
//
// [httputil] - Shared HTTP client construction with retry and rate-limit
// handling.
//
// [buildinfo] - Build-time version information injected via ldflags.
//
// # Testing
//
// Run tests:
//
//	go test ./pkg/...           # All tests
//	go test ./pkg/inject/...    # Specific package
//
// [plan]: https://pkg.go.dev/github.com/pageloom/pageloom/pkg/plan
// [registry]: https://pkg.go.dev/github.com/pageloom/pageloom/pkg/registry
// [page]: https://pkg.go.dev/github.com/pageloom/pageloom/pkg/page
// [provider]: https://pkg.go.dev/github.com/pageloom/pageloom/pkg/provider
// [inject]: https://pkg.go.dev/github.com/pageloom/pageloom/pkg/inject
// [fingerprint]: https://pkg.go.dev/github.com/pageloom/pageloom/pkg/fingerprint
// [fetch]: https://pkg.go.dev/github.com/pageloom/pageloom/pkg/fetch
// [cache]: https://pkg.go.dev/github.com/pageloom/pageloom/pkg/cache
// [pipeline]: https://pkg.go.dev/github.com/pageloom/pageloom/pkg/pipeline
// [errors]: https://pkg.go.dev/github.com/pageloom/pageloom/pkg/errors
// [observability]: https://pkg.go.dev/github.com/pageloom/pageloom/pkg/observability
// [httputil]: https://pkg.go.dev/github.com/pageloom/pageloom/pkg/httputil
// [buildinfo]: https://pkg.go.dev/github.com/pageloom/pageloom/pkg/buildinfo
package pkg
