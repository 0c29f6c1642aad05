// Package plan turns a set of requested dependency types into a
// topologically ordered, acyclic build plan.
//
// A plan is built once per inbound request: every requested type is resolved
// through the rule registry (which may substitute a more specific type for
// the URL at hand), its constructor inputs are expanded recursively, shared
// sub-dependencies are merged, and cycles are rejected as deadlocks. Nodes
// are emitted dependencies-first, so executing the plan front to back always
// has every input ready.
package plan

import (
	"fmt"
	"reflect"
)

// Key identifies a dependency type requested by a callback or by another
// dependency's constructor.
//
// Two keys are equal iff they denote the same concrete type and carry the
// same annotation. An annotated key is a distinct plan node from the bare
// type, but resolves through the same provider (providers are selected by
// the underlying type).
type Key struct {
	Type       reflect.Type
	Annotation string
}

// KeyOf returns the bare key for T.
func KeyOf[T any]() Key {
	return Key{Type: reflect.TypeOf((*T)(nil)).Elem()}
}

// Annotated returns the key for T carrying the given annotation metadata.
// The annotation must be a stable, canonical string: it participates in key
// equality and in request fingerprints.
func Annotated[T any](annotation string) Key {
	k := KeyOf[T]()
	k.Annotation = annotation
	return k
}

// TypeKey returns the bare key for a reflect.Type.
func TypeKey(t reflect.Type) Key {
	return Key{Type: t}
}

// Bare strips the annotation.
func (k Key) Bare() Key {
	return Key{Type: k.Type}
}

// IsZero reports whether the key is the zero value.
func (k Key) IsZero() bool {
	return k.Type == nil
}

// Name returns the qualified type name, plus the annotation when present.
// Pointer types keep their "*" prefix so *T and T stay distinct.
func (k Key) Name() string {
	name := TypeName(k.Type)
	if k.Annotation != "" {
		return fmt.Sprintf("%s[%s]", name, k.Annotation)
	}
	return name
}

// String implements fmt.Stringer.
func (k Key) String() string { return k.Name() }

// TypeName returns the qualified type name without the annotation.
func (k Key) TypeName() string { return TypeName(k.Type) }

// TypeName renders a qualified, human-readable name for t, e.g.
// "*products.ProductPage" or "fetch.Response".
func TypeName(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}
	if t.Kind() == reflect.Pointer {
		return "*" + TypeName(t.Elem())
	}
	if t.PkgPath() != "" {
		return t.String()
	}
	return t.String()
}
