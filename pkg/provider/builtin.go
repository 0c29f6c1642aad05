package provider

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"reflect"

	"github.com/pageloom/pageloom/pkg/cache"
	"github.com/pageloom/pageloom/pkg/errors"
	"github.com/pageloom/pageloom/pkg/fetch"
	"github.com/pageloom/pageloom/pkg/page"
	"github.com/pageloom/pageloom/pkg/plan"
)

// Built-in provider priorities. User providers registered between two
// numbers shadow the built-ins below them.
const (
	PriorityResponse    = 400
	PriorityRequestURL  = 500
	PriorityResponseURL = 600
	PriorityPageParams  = 700
	PriorityClient      = 800
)

// Defaults returns a set with every built-in provider registered at its
// priority.
func Defaults() *Set {
	s := &Set{}
	s.Register(ResponseProvider{}, PriorityResponse)
	s.Register(RequestURLProvider{}, PriorityRequestURL)
	s.Register(ResponseURLProvider{}, PriorityResponseURL)
	s.Register(PageParamsProvider{}, PriorityPageParams)
	s.Register(ClientProvider{}, PriorityClient)
	return s
}

var (
	responseType    = reflect.TypeOf(&fetch.Response{})
	requestURLType  = reflect.TypeOf(fetch.RequestURL(""))
	responseURLType = reflect.TypeOf(fetch.ResponseURL(""))
	paramsType      = reflect.TypeOf(page.Params{})
	requesterType   = reflect.TypeOf((*fetch.Requester)(nil)).Elem()
)

// ResponseProvider supplies the fetched page content. It is the provider
// whose selection forces a network fetch, and its output round-trips through
// the persistent cache.
type ResponseProvider struct{}

func (ResponseProvider) Name() string                 { return "response" }
func (ResponseProvider) Provides(t reflect.Type) bool { return t == responseType }
func (ResponseProvider) RequiresResponse() bool       { return true }

func (ResponseProvider) Build(ctx context.Context, keys []plan.Key, bc *BuildContext) ([]Value, error) {
	if bc.Response == nil {
		return nil, errors.New(errors.ErrCodeProviderFailure, "no response available for %s", bc.Request.URL)
	}
	values := make([]Value, len(keys))
	for i, k := range keys {
		values[i] = Value{Key: k, V: bc.Response}
	}
	return values, nil
}

func (p ResponseProvider) Fingerprint(keys []plan.Key, req *fetch.Request) (string, error) {
	body := sha256.Sum256(req.Body)
	return cache.HashKey(p.Name(), req.Method, req.URL, hex.EncodeToString(body[:])), nil
}

func (ResponseProvider) Serialize(values []Value) ([]byte, error) {
	for _, v := range values {
		if resp, ok := v.V.(*fetch.Response); ok {
			return json.Marshal(resp)
		}
	}
	return nil, errors.New(errors.ErrCodeCache, "no response value to serialize")
}

func (ResponseProvider) Deserialize(keys []plan.Key, data []byte) ([]Value, error) {
	var resp fetch.Response
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, errors.Wrap(errors.ErrCodeCache, err, "decoding cached response")
	}
	values := make([]Value, len(keys))
	for i, k := range keys {
		values[i] = Value{Key: k, V: &resp}
	}
	return values, nil
}

// RequestURLProvider supplies the inbound request URL. It never needs the
// fetch to happen.
type RequestURLProvider struct{}

func (RequestURLProvider) Name() string                 { return "request-url" }
func (RequestURLProvider) Provides(t reflect.Type) bool { return t == requestURLType }

func (RequestURLProvider) Build(ctx context.Context, keys []plan.Key, bc *BuildContext) ([]Value, error) {
	values := make([]Value, len(keys))
	for i, k := range keys {
		values[i] = Value{Key: k, V: fetch.RequestURL(bc.Request.URL)}
	}
	return values, nil
}

// ResponseURLProvider supplies the final URL after redirects, so it requires
// the fetch.
type ResponseURLProvider struct{}

func (ResponseURLProvider) Name() string                 { return "response-url" }
func (ResponseURLProvider) Provides(t reflect.Type) bool { return t == responseURLType }
func (ResponseURLProvider) RequiresResponse() bool       { return true }

func (ResponseURLProvider) Build(ctx context.Context, keys []plan.Key, bc *BuildContext) ([]Value, error) {
	if bc.Response == nil {
		return nil, errors.New(errors.ErrCodeProviderFailure, "no response available for %s", bc.Request.URL)
	}
	values := make([]Value, len(keys))
	for i, k := range keys {
		values[i] = Value{Key: k, V: fetch.ResponseURL(bc.Response.URL)}
	}
	return values, nil
}

// PageParamsProvider supplies the per-request parameter map.
type PageParamsProvider struct{}

func (PageParamsProvider) Name() string                 { return "page-params" }
func (PageParamsProvider) Provides(t reflect.Type) bool { return t == paramsType }

func (PageParamsProvider) Build(ctx context.Context, keys []plan.Key, bc *BuildContext) ([]Value, error) {
	params := bc.Params
	if params == nil {
		params = page.Params{}
	}
	values := make([]Value, len(keys))
	for i, k := range keys {
		values[i] = Value{Key: k, V: params}
	}
	return values, nil
}

// ClientProvider hands page objects the capability to issue additional
// requests during conversion.
type ClientProvider struct{}

func (ClientProvider) Name() string                 { return "client" }
func (ClientProvider) Provides(t reflect.Type) bool { return t == requesterType }

func (ClientProvider) Build(ctx context.Context, keys []plan.Key, bc *BuildContext) ([]Value, error) {
	if bc.Client == nil {
		return nil, errors.New(errors.ErrCodeProviderFailure, "no client configured")
	}
	values := make([]Value, len(keys))
	for i, k := range keys {
		values[i] = Value{Key: k, V: bc.Client}
	}
	return values, nil
}
