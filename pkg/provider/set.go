package provider

import (
	"reflect"
	"sort"
)

// Set is the ordered provider registry. For every leaf type exactly one
// provider is selected: the lowest-priority-number provider that declares
// it; equal priorities keep registration order.
type Set struct {
	entries []entry
}

type entry struct {
	p        Provider
	priority int
	seq      int
}

// NewSet returns a set preloaded with the given providers.
func NewSet(providers ...Provider) *Set {
	s := &Set{}
	for _, p := range providers {
		s.Register(p, DefaultPriority)
	}
	return s
}

// DefaultPriority places a provider after every built-in.
const DefaultPriority = 1000

// Register adds a provider at the given priority. Lower numbers are
// consulted first.
func (s *Set) Register(p Provider, priority int) {
	s.entries = append(s.entries, entry{p: p, priority: priority, seq: len(s.entries)})
	sort.SliceStable(s.entries, func(i, j int) bool {
		if s.entries[i].priority != s.entries[j].priority {
			return s.entries[i].priority < s.entries[j].priority
		}
		return s.entries[i].seq < s.entries[j].seq
	})
}

// For returns the selected provider for the given type.
func (s *Set) For(t reflect.Type) (Provider, bool) {
	for _, e := range s.entries {
		if e.p.Provides(t) {
			return e.p, true
		}
	}
	return nil, false
}

// Provided adapts the set to the planner's leaf-classification contract.
func (s *Set) Provided(t reflect.Type) bool {
	_, ok := s.For(t)
	return ok
}

// RequiresResponse reports whether building the given type needs the page to
// actually be fetched.
func (s *Set) RequiresResponse(t reflect.Type) bool {
	p, ok := s.For(t)
	if !ok {
		return false
	}
	rd, ok := p.(ResponseDependent)
	return ok && rd.RequiresResponse()
}

// Providers returns the providers in selection order.
func (s *Set) Providers() []Provider {
	out := make([]Provider, len(s.entries))
	for i, e := range s.entries {
		out[i] = e.p
	}
	return out
}
