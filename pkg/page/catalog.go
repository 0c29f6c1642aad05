package page

import (
	"reflect"
	"sort"

	"github.com/pageloom/pageloom/pkg/errors"
	"github.com/pageloom/pageloom/pkg/plan"
)

// Catalog holds the blueprints for every page-object type the engine may be
// asked to construct. Lookup works by type and, for configuration files, by
// qualified name.
type Catalog struct {
	byType map[reflect.Type]Blueprint
	byName map[string]Blueprint
}

func NewCatalog(blueprints ...Blueprint) (*Catalog, error) {
	c := &Catalog{
		byType: make(map[reflect.Type]Blueprint),
		byName: make(map[string]Blueprint),
	}
	for _, b := range blueprints {
		if err := c.Register(b); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Register adds a blueprint. Re-registering a type replaces the previous
// blueprint.
func (c *Catalog) Register(b Blueprint) error {
	if err := b.validate(); err != nil {
		return err
	}
	c.byType[b.Type] = b
	c.byName[b.Name()] = b
	return nil
}

// Lookup returns the blueprint for the given page-object type.
func (c *Catalog) Lookup(t reflect.Type) (Blueprint, bool) {
	b, ok := c.byType[t]
	return b, ok
}

// LookupName returns the blueprint registered under the qualified type name.
func (c *Catalog) LookupName(name string) (Blueprint, bool) {
	b, ok := c.byName[name]
	return b, ok
}

// TypeByName resolves a qualified name to its page-object type, for rule
// declarations loaded from configuration.
func (c *Catalog) TypeByName(name string) (reflect.Type, error) {
	b, ok := c.byName[name]
	if !ok {
		return nil, errors.New(errors.ErrCodeUndeclaredType, "no page object registered as %q", name)
	}
	return b.Type, nil
}

// ItemByName resolves a qualified item type name to the item type, searching
// the registered blueprints' conversion outputs.
func (c *Catalog) ItemByName(name string) (reflect.Type, error) {
	for _, b := range c.byType {
		if b.Item != nil && plan.TypeKey(b.Item).TypeName() == name {
			return b.Item, nil
		}
	}
	return nil, errors.New(errors.ErrCodeUndeclaredType, "no registered page object produces %q", name)
}

// Inputs adapts the catalog to the planner's blueprint-lookup contract.
func (c *Catalog) Inputs(t reflect.Type) ([]plan.Key, bool) {
	b, ok := c.byType[t]
	if !ok {
		return nil, false
	}
	return b.Inputs, true
}

// Names returns the registered qualified names, sorted.
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.byName))
	for name := range c.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
