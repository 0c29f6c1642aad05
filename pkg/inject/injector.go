// Package inject executes build plans: it decides whether a fetch is needed,
// drives providers and page-object constructors in dependency order, and
// hands the satisfied argument set to the callback.
package inject

import (
	"context"
	"encoding/json"
	"reflect"
	"time"

	"github.com/pageloom/pageloom/pkg/cache"
	"github.com/pageloom/pageloom/pkg/errors"
	"github.com/pageloom/pageloom/pkg/fetch"
	"github.com/pageloom/pageloom/pkg/observability"
	"github.com/pageloom/pageloom/pkg/page"
	"github.com/pageloom/pageloom/pkg/plan"
	"github.com/pageloom/pageloom/pkg/provider"
	"github.com/pageloom/pageloom/pkg/registry"
)

// Options configures an Injector.
type Options struct {
	// Catalog holds the page-object blueprints.
	Catalog *page.Catalog

	// Rules is the substitution registry. Optional.
	Rules *registry.Registry

	// Providers is the builder registry. Defaults to the built-in set.
	Providers *provider.Set

	// Cache is the persistent provider-output store. Optional.
	Cache cache.Cache

	// CacheErrors stores provider failures too, so a known-bad fingerprint
	// is not rebuilt on the next request.
	CacheErrors bool

	// Client performs fetches and is handed to page objects as the
	// additional-request capability. Optional; without it only skip-fetch
	// plans can run.
	Client fetch.Requester
}

// Injector resolves and executes one plan per inbound request.
type Injector struct {
	catalog     *page.Catalog
	rules       *registry.Registry
	providers   *provider.Set
	cache       cache.Cache
	cacheErrors bool
	client      fetch.Requester
}

func New(opts Options) *Injector {
	catalog := opts.Catalog
	if catalog == nil {
		catalog, _ = page.NewCatalog()
	}
	providers := opts.Providers
	if providers == nil {
		providers = provider.Defaults()
	}
	return &Injector{
		catalog:     catalog,
		rules:       opts.Rules,
		providers:   providers,
		cache:       opts.Cache,
		cacheErrors: opts.CacheErrors,
		client:      opts.Client,
	}
}

// Result is the outcome of one resolution pass.
type Result struct {
	Args Args
	Plan *plan.Plan

	// Fetched reports whether the page was actually downloaded.
	Fetched bool
}

// Plan builds the execution plan for the request and callback, with the
// request's dynamic dependency set folded in.
func (in *Injector) Plan(req *fetch.Request, cb Callback) (*plan.Plan, error) {
	keys := RequestedKeys(req, cb)
	var rules plan.Resolver
	if in.rules != nil {
		rules = in.rules
	}
	p, err := plan.Build(keys, plan.Options{
		URL:      req.URL,
		Rules:    rules,
		Provided: in.providers.Provided,
		Inputs:   in.catalog.Inputs,
	})
	nodes := 0
	if p != nil {
		nodes = len(p.Nodes)
	}
	observability.Injector().OnPlan(context.Background(), req.URL, nodes, err)
	return p, err
}

// NeedsFetch reports whether executing the plan requires the page content.
// Because the plan is fully expanded, a response dependency declared anywhere
// in the closure, including behind an item-producing page object, surfaces
// here as a provided leaf.
func (in *Injector) NeedsFetch(p *plan.Plan) bool {
	for _, n := range p.Nodes {
		if n.Kind == plan.KindProvided && in.providers.RequiresResponse(n.Key.Type) {
			return true
		}
	}
	return false
}

// Process runs one full resolution pass: plan, fetch decision, fetch,
// execution. The returned arguments are keyed by the callback's declared
// dependency keys.
//
// A retry signal raised by a page object's conversion step is returned
// as-is, page.IsRetry-detectable, for the processing loop to reschedule.
func (in *Injector) Process(ctx context.Context, req *fetch.Request, cb Callback) (*Result, error) {
	p, err := in.Plan(req, cb)
	if err != nil {
		return nil, err
	}

	need := in.NeedsFetch(p)
	if !need {
		observability.Injector().OnSkipFetch(ctx, req.URL)
	}
	resp, err := in.fetched(ctx, req, need)
	if err != nil {
		return nil, err
	}

	scope, err := in.execute(ctx, p, req, resp)
	if err != nil {
		return nil, err
	}

	args := make(Args, len(cb.Deps))
	for _, k := range RequestedKeys(req, cb) {
		resolved, ok := p.Resolved(k)
		if !ok {
			return nil, errors.New(errors.ErrCodeInternal, "plan has no root for %s", k.Name())
		}
		args[k] = scope[resolved]
	}
	return &Result{Args: args, Plan: p, Fetched: resp.Fetched}, nil
}

// Run resolves the request and invokes the callback with the built
// arguments, returning the extracted item.
func (in *Injector) Run(ctx context.Context, req *fetch.Request, cb Callback) (any, *Result, error) {
	res, err := in.Process(ctx, req, cb)
	if err != nil {
		return nil, nil, err
	}
	if cb.Fn == nil {
		return nil, res, nil
	}
	item, err := cb.Fn(ctx, res.Args)
	if err != nil {
		return nil, res, err
	}
	return item, res, nil
}

// RequestedKeys is the deduplicated key set one resolution pass resolves for
// req and cb: the callback's declared dependencies plus the request's dynamic
// dependency types. Anything identifying a pass, a plan or a fingerprint
// must cover this full set, not cb.Deps alone.
func RequestedKeys(req *fetch.Request, cb Callback) []plan.Key {
	keys := make([]plan.Key, 0, len(cb.Deps)+len(req.Inject))
	seen := make(map[plan.Key]bool)
	for _, k := range cb.Deps {
		if !seen[k] {
			keys = append(keys, k)
			seen[k] = true
		}
	}
	for _, t := range req.Inject {
		k := plan.TypeKey(t)
		if !seen[k] {
			keys = append(keys, k)
			seen[k] = true
		}
	}
	return keys
}

func (in *Injector) fetched(ctx context.Context, req *fetch.Request, need bool) (*fetch.Response, error) {
	if !need || req.SkipFetch {
		return fetch.NewDummyResponse(req.URL), nil
	}
	if in.client == nil {
		return nil, errors.New(errors.ErrCodeNetwork, "plan for %s needs the page but no client is configured", req.URL)
	}
	return in.client.Fetch(ctx, req)
}

// execute walks the plan in order and builds every node at most once.
func (in *Injector) execute(ctx context.Context, p *plan.Plan, req *fetch.Request, resp *fetch.Response) (map[plan.Key]any, error) {
	scope := make(map[plan.Key]any, len(p.Nodes))
	bc := &provider.BuildContext{
		Request:  req,
		Response: resp,
		Client:   in.client,
		Params:   page.Params(req.PageParams),
	}

	for _, n := range p.Nodes {
		if _, done := scope[n.Key]; done {
			continue
		}
		var err error
		switch n.Kind {
		case plan.KindProvided:
			err = in.executeProvided(ctx, p, n, bc, scope)
		case plan.KindConstructed:
			err = in.executeConstructed(ctx, n, scope)
		case plan.KindItem:
			err = in.executeItem(ctx, req, n, scope)
		default:
			err = errors.New(errors.ErrCodeInternal, "unknown plan node kind %d", n.Kind)
		}
		if err != nil {
			return nil, err
		}
	}
	return scope, nil
}

// executeProvided builds every not-yet-built plan leaf served by the same
// provider in one call, so each provider runs at most once per request.
func (in *Injector) executeProvided(ctx context.Context, p *plan.Plan, n plan.Node, bc *provider.BuildContext, scope map[plan.Key]any) error {
	prov, ok := in.providers.For(n.Key.Type)
	if !ok {
		return errors.New(errors.ErrCodeUnresolvableType, "no provider for %s", n.Key.Name())
	}

	var keys []plan.Key
	for _, other := range p.Nodes {
		if other.Kind != plan.KindProvided {
			continue
		}
		if _, done := scope[other.Key]; done {
			continue
		}
		if sel, ok := in.providers.For(other.Key.Type); ok && sel == prov {
			keys = append(keys, other.Key)
		}
	}

	values, err := in.buildProvided(ctx, prov, keys, bc)
	if err != nil {
		return err
	}
	if len(values) != len(keys) {
		return errors.New(errors.ErrCodeProviderFailure, "provider %s returned %d values for %d keys", prov.Name(), len(values), len(keys))
	}
	for _, v := range values {
		if err := checkValueType(prov.Name(), v); err != nil {
			return err
		}
		scope[v.Key] = v.V
	}
	return nil
}

func checkValueType(name string, v provider.Value) error {
	if v.V == nil {
		return nil
	}
	if !reflect.TypeOf(v.V).AssignableTo(v.Key.Type) {
		return errors.New(errors.ErrCodeUndeclaredType, "provider %s built %T for key %s", name, v.V, v.Key.Name())
	}
	return nil
}

// cacheEnvelope is the persisted shape of one provider build: either a
// serialized payload or, under the cache-errors policy, the failure message.
type cacheEnvelope struct {
	Error string `json:"error,omitempty"`
	Data  []byte `json:"data,omitempty"`
}

func (in *Injector) buildProvided(ctx context.Context, prov provider.Provider, keys []plan.Key, bc *provider.BuildContext) ([]provider.Value, error) {
	fp, hasFP := prov.(provider.Fingerprinter)
	codec, hasCodec := prov.(provider.Codec)
	if in.cache == nil || !hasFP || !hasCodec {
		return in.invoke(ctx, prov, keys, bc)
	}

	fprint, err := fp.Fingerprint(keys, bc.Request)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeCache, err, "fingerprinting %s", prov.Name())
	}
	ckey := prov.Name() + "/" + fprint

	data, hit, err := in.cache.Get(ctx, ckey)
	if err == nil && hit {
		var env cacheEnvelope
		if err := json.Unmarshal(data, &env); err == nil {
			observability.Cache().OnCacheHit(ctx, ckey)
			if env.Error != "" {
				return nil, errors.New(errors.ErrCodeProviderFailure, "cached failure for %s: %s", prov.Name(), env.Error)
			}
			return codec.Deserialize(keys, env.Data)
		}
	}
	observability.Cache().OnCacheMiss(ctx, ckey)

	values, err := in.invoke(ctx, prov, keys, bc)
	if err != nil {
		if in.cacheErrors {
			in.store(ctx, ckey, cacheEnvelope{Error: err.Error()})
		}
		return nil, err
	}
	payload, err := codec.Serialize(values)
	if err == nil {
		in.store(ctx, ckey, cacheEnvelope{Data: payload})
	}
	return values, nil
}

// store writes a cache entry; backend failures are not fatal to the request.
func (in *Injector) store(ctx context.Context, key string, env cacheEnvelope) {
	data, err := json.Marshal(env)
	if err != nil {
		return
	}
	if err := in.cache.Set(ctx, key, data); err == nil {
		observability.Cache().OnCacheSet(ctx, key, len(data))
	}
}

func (in *Injector) invoke(ctx context.Context, prov provider.Provider, keys []plan.Key, bc *provider.BuildContext) ([]provider.Value, error) {
	start := time.Now()
	values, err := prov.Build(ctx, keys, bc)
	observability.Injector().OnBuild(ctx, prov.Name(), time.Since(start), err)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeProviderFailure, err, "provider %s", prov.Name())
	}
	return values, nil
}

func (in *Injector) executeConstructed(ctx context.Context, n plan.Node, scope map[plan.Key]any) error {
	bp, ok := in.catalog.Lookup(n.Key.Type)
	if !ok {
		return errors.New(errors.ErrCodeUnresolvableType, "no blueprint for %s", n.Key.Name())
	}
	args := make([]any, len(n.Inputs))
	for i, k := range n.Inputs {
		v, ok := scope[k]
		if !ok {
			return errors.New(errors.ErrCodeInternal, "input %s of %s missing from scope", k.Name(), n.Key.Name())
		}
		args[i] = v
	}

	start := time.Now()
	v, err := bp.New(args)
	observability.Injector().OnBuild(ctx, n.Key.Name(), time.Since(start), err)
	if err != nil {
		return errors.Wrap(errors.ErrCodeProviderFailure, err, "constructing %s", n.Key.Name())
	}
	scope[n.Key] = v
	return nil
}

func (in *Injector) executeItem(ctx context.Context, req *fetch.Request, n plan.Node, scope map[plan.Key]any) error {
	pageVal, ok := scope[n.Inputs[0]]
	if !ok {
		return errors.New(errors.ErrCodeInternal, "page object %s missing from scope", n.Inputs[0].Name())
	}
	obj, ok := pageVal.(page.Object)
	if !ok {
		return errors.New(errors.ErrCodeUnsupported, "%T has no conversion step for item %s", pageVal, n.Key.Name())
	}

	start := time.Now()
	item, err := obj.ToItem(ctx)
	observability.Injector().OnBuild(ctx, n.Key.Name(), time.Since(start), err)
	if err != nil {
		if r, isRetry := page.IsRetry(err); isRetry {
			observability.Injector().OnRetrySignal(ctx, req.ID, r.Reason)
			return err
		}
		return errors.Wrap(errors.ErrCodeProviderFailure, err, "converting %T to %s", pageVal, n.Key.Name())
	}
	if item != nil && !reflect.TypeOf(item).AssignableTo(n.Key.Type) {
		return errors.New(errors.ErrCodeUndeclaredType, "conversion of %T returned %T, want %s", pageVal, item, n.Key.Name())
	}
	scope[n.Key] = item
	return nil
}
