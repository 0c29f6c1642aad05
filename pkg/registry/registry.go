// Package registry stores URL-scoped substitution rules: which concrete page
// object satisfies a dependency on a given site, and which page object
// produces a given item type there.
package registry

import (
	"reflect"

	"github.com/pageloom/pageloom/pkg/errors"
)

// Rule binds a page-object type to a set of URL patterns.
//
// Use is the page object the rule selects. InsteadOf names the base type it
// substitutes; Produces names the item type its conversion step returns.
// At least one of the two must be set.
type Rule struct {
	// Include patterns; the rule applies when any of them matches the
	// URL. An empty list matches every URL.
	Include []string

	// Exclude patterns; a match on any of them vetoes the rule.
	Exclude []string

	Use       reflect.Type
	InsteadOf reflect.Type
	Produces  reflect.Type
}

func (r Rule) validate() error {
	if r.Use == nil {
		return errors.New(errors.ErrCodeInvalidRule, "rule has no Use type")
	}
	if r.InsteadOf == nil && r.Produces == nil {
		return errors.New(errors.ErrCodeInvalidRule, "rule for %s must set InsteadOf or Produces", r.Use)
	}
	for _, p := range append(append([]string{}, r.Include...), r.Exclude...) {
		if !validPattern(p) {
			return errors.New(errors.ErrCodeInvalidPattern, "bad pattern %q in rule for %s", p, r.Use)
		}
	}
	return nil
}

// match reports whether the rule applies to the URL and how specific the
// winning include pattern is.
func (r Rule) match(url string) (bool, int) {
	for _, p := range r.Exclude {
		if ok, _ := matchPattern(p, url); ok {
			return false, 0
		}
	}
	if len(r.Include) == 0 {
		return true, 0
	}
	matched := false
	best := 0
	for _, p := range r.Include {
		ok, score := matchPattern(p, url)
		if !ok {
			continue
		}
		if !matched || score > best {
			best = score
		}
		matched = true
	}
	return matched, best
}

// Registry resolves dependency types against an ordered rule list. The most
// specific matching pattern wins; on equal specificity the later-registered
// rule wins. A missing match is never an error.
type Registry struct {
	rules []Rule
}

// New builds a registry from the given rules. Rules are validated eagerly so
// a bad pattern fails at startup, not at match time.
func New(rules ...Rule) (*Registry, error) {
	r := &Registry{}
	for _, rule := range rules {
		if err := r.Add(rule); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Add appends a rule. Later rules win specificity ties against earlier ones.
func (r *Registry) Add(rule Rule) error {
	if err := rule.validate(); err != nil {
		return err
	}
	r.rules = append(r.rules, rule)
	return nil
}

// Rules returns the registered rules in declaration order.
func (r *Registry) Rules() []Rule {
	out := make([]Rule, len(r.rules))
	copy(out, r.rules)
	return out
}

// ResolveOverride returns the substitution for base on the given URL.
func (r *Registry) ResolveOverride(base reflect.Type, url string) (reflect.Type, bool) {
	return r.pick(url, func(rule Rule) bool { return rule.InsteadOf == base })
}

// PageForItem returns the page-object type that produces item on the URL.
func (r *Registry) PageForItem(item reflect.Type, url string) (reflect.Type, bool) {
	return r.pick(url, func(rule Rule) bool { return rule.Produces == item })
}

func (r *Registry) pick(url string, want func(Rule) bool) (reflect.Type, bool) {
	var use reflect.Type
	best := -1
	for _, rule := range r.rules {
		if !want(rule) {
			continue
		}
		ok, score := rule.match(url)
		if !ok {
			continue
		}
		// >= keeps the last-registered rule on ties.
		if score >= best {
			use = rule.Use
			best = score
		}
	}
	return use, use != nil
}
