package plan

import (
	"reflect"
	"strings"

	"github.com/pageloom/pageloom/pkg/errors"
)

// Resolver answers which concrete type satisfies a dependency for a URL.
// It is the read side of the rule registry.
type Resolver interface {
	// ResolveOverride returns the replacement type for base on the given
	// URL, or (base, false) when no rule matches.
	ResolveOverride(base reflect.Type, url string) (reflect.Type, bool)

	// PageForItem returns the page-object type whose conversion step
	// produces the given item type on the given URL.
	PageForItem(item reflect.Type, url string) (reflect.Type, bool)
}

// Options configures plan construction for one request.
type Options struct {
	// URL of the inbound request; rules are matched against it.
	URL string

	// Rules is the substitution registry. May be nil (no overrides, no
	// item-producing pages).
	Rules Resolver

	// Provided reports whether some provider builds the given type as a
	// leaf. Providers take precedence over blueprints.
	Provided func(reflect.Type) bool

	// Inputs returns the declared constructor input keys for a composite
	// type, in order, or false when the type has no blueprint.
	Inputs func(reflect.Type) ([]Key, bool)
}

// Build constructs the plan for the requested keys.
//
// Every requested key is resolved through the rules, classified as a
// provided leaf, a constructed composite, or a page-object-derived item, and
// expanded recursively. Shared sub-dependencies are emitted once. The
// returned plan lists nodes dependencies-first.
//
// Errors: ErrCodeDeadlock when the dependency graph is cyclic,
// ErrCodeUnresolvableType when a type has no provider, no blueprint, and no
// item rule.
func Build(requested []Key, opts Options) (*Plan, error) {
	b := &builder{
		opts:  opts,
		plan:  &Plan{index: make(map[Key]int)},
		color: make(map[Key]int),
	}

	for _, req := range requested {
		if req.IsZero() {
			return nil, errors.New(errors.ErrCodeInvalidKey, "requested dependency key has no type")
		}
		resolved, err := b.walk(req, false)
		if err != nil {
			return nil, err
		}
		b.plan.Roots = append(b.plan.Roots, Root{Requested: req, Resolved: resolved})
	}
	return b.plan, nil
}

const (
	white = iota // unvisited
	gray         // on the current DFS stack
	black        // fully expanded and emitted
)

type builder struct {
	opts  Options
	plan  *Plan
	color map[Key]int
	stack []Key // resolved keys on the current DFS path, for cycle reports
}

// frame is one explicit DFS stack entry: a node whose inputs are being
// resolved one at a time.
type frame struct {
	node     Node
	raw      []Key // declared inputs not yet resolved
	resolved []Key
	suppress bool // children skip override resolution (refinement invariant)
	next     int
}

// walk expands the dependency rooted at req and returns its resolved key.
// suppress disables override resolution for req itself.
func (b *builder) walk(req Key, suppress bool) (Key, error) {
	root, err := b.resolve(req, suppress)
	if err != nil {
		return Key{}, err
	}
	if b.color[root.node.Key] == black {
		return root.node.Key, nil
	}

	frames := []*frame{root}
	b.markGray(root.node.Key)

	for len(frames) > 0 {
		f := frames[len(frames)-1]

		if f.next >= len(f.raw) {
			// All inputs resolved: emit the node.
			f.node.Inputs = f.resolved
			b.emit(f.node)
			frames = frames[:len(frames)-1]
			if len(frames) > 0 {
				parent := frames[len(frames)-1]
				parent.resolved = append(parent.resolved, f.node.Key)
				parent.next++
			}
			continue
		}

		child, err := b.resolve(f.raw[f.next], f.suppress)
		if err != nil {
			return Key{}, err
		}
		switch b.color[child.node.Key] {
		case black:
			f.resolved = append(f.resolved, child.node.Key)
			f.next++
		case gray:
			return Key{}, b.deadlock(child.node.Key)
		default:
			frames = append(frames, child)
			b.markGray(child.node.Key)
		}
	}
	return root.node.Key, nil
}

// resolve applies override resolution (unless suppressed) and classifies the
// resulting type, returning an unemitted frame for it.
func (b *builder) resolve(req Key, suppress bool) (*frame, error) {
	t := req.Type
	var base reflect.Type
	if !suppress && b.opts.Rules != nil {
		if u, ok := b.opts.Rules.ResolveOverride(t, b.opts.URL); ok && u != t {
			base, t = t, u
		}
	}
	key := Key{Type: t, Annotation: req.Annotation}

	if b.opts.Provided != nil && b.opts.Provided(t) {
		return &frame{node: Node{Key: key, Kind: KindProvided, Base: base}}, nil
	}

	if b.opts.Inputs != nil {
		if inputs, ok := b.opts.Inputs(t); ok {
			return &frame{
				node: Node{Key: key, Kind: KindConstructed, Base: base},
				raw:  inputs,
				// Inputs of a substituted type are resolved without
				// re-applying rules, one level down only.
				suppress: base != nil,
			}, nil
		}
	}

	if b.opts.Rules != nil {
		if page, ok := b.opts.Rules.PageForItem(t, b.opts.URL); ok {
			return &frame{
				node: Node{Key: key, Kind: KindItem, Page: page, Base: base},
				raw:  []Key{TypeKey(page)},
			}, nil
		}
	}

	return nil, errors.New(errors.ErrCodeUnresolvableType,
		"%s has no provider, no blueprint, and no rule producing it for %s", key, b.opts.URL)
}

func (b *builder) markGray(k Key) {
	b.color[k] = gray
	b.stack = append(b.stack, k)
}

func (b *builder) emit(n Node) {
	b.color[n.Key] = black
	b.stack = b.stack[:len(b.stack)-1]
	b.plan.index[n.Key] = len(b.plan.Nodes)
	b.plan.Nodes = append(b.plan.Nodes, n)
}

// deadlock reports a cyclic dependency, listing the cycle path.
func (b *builder) deadlock(repeated Key) error {
	start := 0
	for i, k := range b.stack {
		if k == repeated {
			start = i
			break
		}
	}
	names := make([]string, 0, len(b.stack)-start+1)
	for _, k := range b.stack[start:] {
		names = append(names, k.Name())
	}
	names = append(names, repeated.Name())
	return errors.New(errors.ErrCodeDeadlock,
		"cyclic dependency: %s", strings.Join(names, " -> "))
}
