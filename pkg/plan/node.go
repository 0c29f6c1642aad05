package plan

import "reflect"

// Kind distinguishes how a plan node's value is produced.
type Kind int

const (
	// KindProvided marks a leaf built by a provider.
	KindProvided Kind = iota
	// KindConstructed marks a composite built by its blueprint constructor
	// from previously built inputs.
	KindConstructed
	// KindItem marks an item produced by a page object's conversion step.
	KindItem
)

// String returns the kind's name for logs and DOT labels.
func (k Kind) String() string {
	switch k {
	case KindProvided:
		return "provided"
	case KindConstructed:
		return "constructed"
	case KindItem:
		return "item"
	default:
		return "unknown"
	}
}

// Node is one step of a build plan.
type Node struct {
	// Key is the resolved dependency this node builds.
	Key Key

	// Kind tells the executor how to build the value.
	Kind Kind

	// Inputs are the resolved keys of this node's constructor inputs, in
	// declared order. Empty for provided leaves. For item nodes it holds
	// exactly the producing page object's key.
	Inputs []Key

	// Page is the page-object type whose conversion step produces this
	// node's item. Set only for KindItem.
	Page reflect.Type

	// Base is the originally requested type when this node's type was
	// chosen by a substitution rule; nil otherwise.
	Base reflect.Type
}

// Substituted reports whether the node's type was picked by an override rule.
func (n Node) Substituted() bool { return n.Base != nil }

// Plan is a topologically ordered set of nodes: every node appears after all
// of its inputs.
type Plan struct {
	// Nodes in dependencies-first order.
	Nodes []Node

	// Roots maps each originally requested key to the key that satisfies it
	// after rule resolution, in request order.
	Roots []Root

	index map[Key]int
}

// Root pairs a requested key with the key the plan actually builds for it.
type Root struct {
	Requested Key
	Resolved  Key
}

// Node returns the plan node for a resolved key.
func (p *Plan) Node(k Key) (Node, bool) {
	i, ok := p.index[k]
	if !ok {
		return Node{}, false
	}
	return p.Nodes[i], true
}

// Contains reports whether the plan builds the given resolved key.
func (p *Plan) Contains(k Key) bool {
	_, ok := p.index[k]
	return ok
}

// Resolved returns the key that satisfies the given requested root key.
func (p *Plan) Resolved(requested Key) (Key, bool) {
	for _, r := range p.Roots {
		if r.Requested == requested {
			return r.Resolved, true
		}
	}
	return Key{}, false
}

// Leaves returns the provided-leaf nodes in plan order.
func (p *Plan) Leaves() []Node {
	var out []Node
	for _, n := range p.Nodes {
		if n.Kind == KindProvided {
			out = append(out, n)
		}
	}
	return out
}
