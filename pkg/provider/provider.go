// Package provider defines the builder components that produce leaf
// dependency values, and the priority-ordered set that selects one builder
// per type.
package provider

import (
	"context"
	"reflect"

	"github.com/pageloom/pageloom/pkg/fetch"
	"github.com/pageloom/pageloom/pkg/page"
	"github.com/pageloom/pageloom/pkg/plan"
)

// Value is one built leaf dependency.
type Value struct {
	Key plan.Key
	V   any
}

// BuildContext carries the per-request collaborators a provider may draw on.
type BuildContext struct {
	Request *fetch.Request

	// Response is the fetched page, or the not-fetched sentinel when the
	// fetch was skipped.
	Response *fetch.Response

	// Client issues additional requests from inside a build.
	Client fetch.Requester

	Params page.Params
}

// Provider builds values for the leaf dependency types it declares.
//
// Annotated variants of a declared type route to the same provider, so
// Provides is checked against the bare type.
type Provider interface {
	// Name identifies the provider in cache keys and logs. It must stay
	// stable across runs for persistent cache entries to remain valid.
	Name() string

	// Provides reports whether this provider can build the given type.
	Provides(t reflect.Type) bool

	// Build produces one value per requested key, in order.
	Build(ctx context.Context, keys []plan.Key, bc *BuildContext) ([]Value, error)
}

// Fingerprinter is implemented by providers whose output may be cached
// persistently. The fingerprint keys the cache entry.
type Fingerprinter interface {
	Fingerprint(keys []plan.Key, req *fetch.Request) (string, error)
}

// Codec is implemented by providers whose output can round-trip through the
// persistent cache.
type Codec interface {
	Serialize(values []Value) ([]byte, error)
	Deserialize(keys []plan.Key, data []byte) ([]Value, error)
}

// ResponseDependent is implemented by providers that cannot build without
// the page actually having been fetched. The skip-fetch decision consults it.
type ResponseDependent interface {
	RequiresResponse() bool
}
