package observability

import (
	"context"
	"testing"
	"time"
)

func TestNoopHooksDoNotPanic(t *testing.T) {
	ctx := context.Background()

	// Injector hooks
	i := NoopInjectorHooks{}
	i.OnPlan(ctx, "http://example.com", 4, nil)
	i.OnSkipFetch(ctx, "http://example.com")
	i.OnBuild(ctx, "main.ProductPage", time.Second, nil)
	i.OnRetrySignal(ctx, "http://example.com", "stale listing")

	// Cache hooks
	c := NoopCacheHooks{}
	c.OnCacheHit(ctx, "provider")
	c.OnCacheMiss(ctx, "provider")
	c.OnCacheSet(ctx, "provider", 1024)

	// Fetch hooks
	f := NoopFetchHooks{}
	f.OnRequest(ctx, "GET", "example.com", "/item")
	f.OnResponse(ctx, "GET", "example.com", "/item", 200, time.Second)
	f.OnError(ctx, "GET", "example.com", "/item", nil)
}

func TestGlobalHooksRegistry(t *testing.T) {
	// Reset to known state
	Reset()

	// Verify defaults are noop
	if _, ok := Injector().(NoopInjectorHooks); !ok {
		t.Error("Injector() should return NoopInjectorHooks by default")
	}
	if _, ok := Cache().(NoopCacheHooks); !ok {
		t.Error("Cache() should return NoopCacheHooks by default")
	}
	if _, ok := Fetch().(NoopFetchHooks); !ok {
		t.Error("Fetch() should return NoopFetchHooks by default")
	}

	// Set custom hooks
	customInjector := &testInjectorHooks{}
	SetInjectorHooks(customInjector)
	if Injector() != customInjector {
		t.Error("SetInjectorHooks should set custom hooks")
	}

	customCache := &testCacheHooks{}
	SetCacheHooks(customCache)
	if Cache() != customCache {
		t.Error("SetCacheHooks should set custom hooks")
	}

	customFetch := &testFetchHooks{}
	SetFetchHooks(customFetch)
	if Fetch() != customFetch {
		t.Error("SetFetchHooks should set custom hooks")
	}

	// Reset and verify
	Reset()
	if _, ok := Injector().(NoopInjectorHooks); !ok {
		t.Error("Reset() should restore NoopInjectorHooks")
	}
}

func TestSetNilHooksIsIgnored(t *testing.T) {
	Reset()

	custom := &testInjectorHooks{}
	SetInjectorHooks(custom)

	// Setting nil should be ignored
	SetInjectorHooks(nil)

	if Injector() != custom {
		t.Error("SetInjectorHooks(nil) should be ignored")
	}

	Reset()
}

// Test implementations
type testInjectorHooks struct{ NoopInjectorHooks }
type testCacheHooks struct{ NoopCacheHooks }
type testFetchHooks struct{ NoopFetchHooks }
