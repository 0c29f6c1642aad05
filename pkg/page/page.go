// Package page defines the page-object contract: composite dependency types
// that consume other dependencies and expose a conversion step producing an
// item.
package page

import (
	"context"
	stderrors "errors"
	"reflect"

	"github.com/pageloom/pageloom/pkg/errors"
	"github.com/pageloom/pageloom/pkg/plan"
)

// Object is implemented by page objects whose conversion step produces an
// item value.
type Object interface {
	ToItem(ctx context.Context) (any, error)
}

// Params carries per-request parameters into page objects that declare a
// dependency on them.
type Params map[string]string

// Get returns the value for key, or def when the key is absent.
func (p Params) Get(key, def string) string {
	if v, ok := p[key]; ok {
		return v
	}
	return def
}

// Retry is the control outcome a conversion step returns when the fetched
// page content is unusable (bans, partial renders) and the request should be
// rescheduled. It is distinguishable from ordinary extraction errors.
type Retry struct {
	Reason string
}

func (r *Retry) Error() string {
	if r.Reason == "" {
		return "retry requested"
	}
	return "retry requested: " + r.Reason
}

// IsRetry reports whether err carries a retry signal and returns it.
func IsRetry(err error) (*Retry, bool) {
	var r *Retry
	if stderrors.As(err, &r) {
		return r, true
	}
	return nil, false
}

// Blueprint describes how to construct one page-object type.
type Blueprint struct {
	// Type is the page-object type, conventionally a pointer to struct.
	Type reflect.Type

	// Inputs are the constructor's dependency keys, in argument order.
	Inputs []plan.Key

	// New builds the page object from values matching Inputs positionally.
	New func(args []any) (any, error)

	// Item is the type the object's conversion step returns, or nil when
	// the object is not item-producing.
	Item reflect.Type
}

// Name returns the blueprint's qualified type name, used to reference page
// objects from configuration. Pointer blueprints are named by their element
// type, so "*products.ProductPage" registers as "products.ProductPage".
func (b Blueprint) Name() string {
	return plan.TypeName(elem(b.Type))
}

func elem(t reflect.Type) reflect.Type {
	if t != nil && t.Kind() == reflect.Pointer {
		return t.Elem()
	}
	return t
}

// Of builds a blueprint for page-object type T.
func Of[T any](newFn func(args []any) (any, error), inputs ...plan.Key) Blueprint {
	return Blueprint{
		Type:   reflect.TypeOf((*T)(nil)).Elem(),
		Inputs: inputs,
		New:    newFn,
	}
}

// Producing builds a blueprint for page-object type T whose conversion step
// returns an item of type I.
func Producing[T any, I any](newFn func(args []any) (any, error), inputs ...plan.Key) Blueprint {
	b := Of[T](newFn, inputs...)
	b.Item = reflect.TypeOf((*I)(nil)).Elem()
	return b
}

func (b Blueprint) validate() error {
	if b.Type == nil {
		return errors.New(errors.ErrCodeInvalidInput, "blueprint has no type")
	}
	if b.New == nil {
		return errors.New(errors.ErrCodeInvalidInput, "blueprint for %s has no constructor", b.Type)
	}
	return nil
}
