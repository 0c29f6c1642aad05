package inject

import (
	"context"
	"reflect"

	"github.com/pageloom/pageloom/pkg/errors"
	"github.com/pageloom/pageloom/pkg/plan"
)

// Args is the satisfied argument set for one callback, keyed by the
// dependency keys the callback declared.
type Args map[plan.Key]any

// Get returns the value built for the given key.
func (a Args) Get(k plan.Key) (any, bool) {
	v, ok := a[k]
	return v, ok
}

// Arg returns the value built for type T's bare key.
func Arg[T any](a Args) (T, bool) {
	v, ok := a[plan.KeyOf[T]()]
	if !ok {
		var zero T
		return zero, false
	}
	t, ok := v.(T)
	return t, ok
}

// Callback is the unit of work one resolution pass satisfies: a set of
// declared dependency keys and a function receiving the built values.
type Callback struct {
	Name string

	// Deps are the dependency keys the callback declares.
	Deps []plan.Key

	// Fn consumes the satisfied arguments and returns the extracted item,
	// or nil when the callback produces nothing.
	Fn func(ctx context.Context, args Args) (any, error)

	// Item records the extracted item type for the thin forwarding
	// callbacks made by CallbackFor, so callers can recover what a
	// callback extracts without parsing its name. Nil for hand-built
	// callbacks.
	Item reflect.Type
}

// NewCallback builds a named callback over explicit dependency keys.
func NewCallback(name string, fn func(ctx context.Context, args Args) (any, error), deps ...plan.Key) Callback {
	return Callback{Name: name, Deps: deps, Fn: fn}
}

// CallbackFor returns the common "just extract and return" callback shape: it
// declares a single dependency on item type I and forwards the built item
// unchanged.
func CallbackFor[I any]() Callback {
	return CallbackForType(reflect.TypeOf((*I)(nil)).Elem())
}

// CallbackForType is CallbackFor for item types known only at runtime, such
// as types named in configuration or API payloads.
func CallbackForType(item reflect.Type) Callback {
	key := plan.TypeKey(item)
	return Callback{
		Name: "item:" + key.TypeName(),
		Deps: []plan.Key{key},
		Item: key.Type,
		Fn: func(ctx context.Context, args Args) (any, error) {
			v, ok := args[key]
			if !ok {
				return nil, errors.New(errors.ErrCodeInternal, "item %s missing from resolved arguments", key.TypeName())
			}
			return v, nil
		},
	}
}
