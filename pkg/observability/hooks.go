// Package observability provides hooks for metrics, tracing, and logging.
//
// This package enables optional instrumentation without adding hard dependencies
// on specific observability backends. Consumers can register hooks at startup
// to receive events about dependency injection, cache operations, and fetches.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// This approach:
//   - Avoids import cycles (hooks are registered by main, not by libraries)
//   - Keeps the core library dependency-free from observability frameworks
//   - Allows different backends (OpenTelemetry, Prometheus, DataDog, etc.)
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetInjectorHooks(&myInjectorHooks{})
//	    observability.SetCacheHooks(&myCacheHooks{})
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Injector().OnBuild(ctx, key, duration, err)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Injector Hooks
// =============================================================================

// InjectorHooks receives events from plan construction and execution.
type InjectorHooks interface {
	// OnPlan records a completed plan construction for a request URL.
	OnPlan(ctx context.Context, url string, nodeCount int, err error)

	// OnSkipFetch records that the download was skipped because no resolved
	// dependency required the raw response.
	OnSkipFetch(ctx context.Context, url string)

	// OnBuild records construction of a single dependency instance.
	OnBuild(ctx context.Context, key string, duration time.Duration, err error)

	// OnRetrySignal records a page object requesting a retry of its request.
	OnRetrySignal(ctx context.Context, url, reason string)
}

// =============================================================================
// Cache Hooks
// =============================================================================

// CacheHooks receives events from cache operations.
type CacheHooks interface {
	// OnCacheHit records a cache hit.
	OnCacheHit(ctx context.Context, keyType string)

	// OnCacheMiss records a cache miss.
	OnCacheMiss(ctx context.Context, keyType string)

	// OnCacheSet records a cache write.
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// =============================================================================
// Fetch Hooks
// =============================================================================

// FetchHooks receives events from transport operations.
type FetchHooks interface {
	// OnRequest records an outgoing fetch.
	OnRequest(ctx context.Context, method, host, path string)

	// OnResponse records a fetch response.
	OnResponse(ctx context.Context, method, host, path string, statusCode int, duration time.Duration)

	// OnError records a fetch error (network failure, timeout).
	OnError(ctx context.Context, method, host, path string, err error)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopInjectorHooks is a no-op implementation of InjectorHooks.
type NoopInjectorHooks struct{}

func (NoopInjectorHooks) OnPlan(context.Context, string, int, error)            {}
func (NoopInjectorHooks) OnSkipFetch(context.Context, string)                   {}
func (NoopInjectorHooks) OnBuild(context.Context, string, time.Duration, error) {}
func (NoopInjectorHooks) OnRetrySignal(context.Context, string, string)         {}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// NoopFetchHooks is a no-op implementation of FetchHooks.
type NoopFetchHooks struct{}

func (NoopFetchHooks) OnRequest(context.Context, string, string, string)                      {}
func (NoopFetchHooks) OnResponse(context.Context, string, string, string, int, time.Duration) {}
func (NoopFetchHooks) OnError(context.Context, string, string, string, error)                 {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	injectorHooks InjectorHooks = NoopInjectorHooks{}
	cacheHooks    CacheHooks    = NoopCacheHooks{}
	fetchHooks    FetchHooks    = NoopFetchHooks{}
	hooksMu       sync.RWMutex
)

// SetInjectorHooks registers custom injector hooks.
// This should be called once at application startup before any resolution passes.
func SetInjectorHooks(h InjectorHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		injectorHooks = h
	}
}

// SetCacheHooks registers custom cache hooks.
// This should be called once at application startup before any cache operations.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// SetFetchHooks registers custom fetch hooks.
// This should be called once at application startup before any fetch operations.
func SetFetchHooks(h FetchHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		fetchHooks = h
	}
}

// Injector returns the registered injector hooks.
func Injector() InjectorHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return injectorHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// Fetch returns the registered fetch hooks.
func Fetch() FetchHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return fetchHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	injectorHooks = NoopInjectorHooks{}
	cacheHooks = NoopCacheHooks{}
	fetchHooks = NoopFetchHooks{}
}
