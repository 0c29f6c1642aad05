// Package fingerprint produces stable request identities for transport-level
// deduplication, extended with the resolved dependency set so two requests
// that differ only in downstream dependency selection do not collide.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"sort"
	"strings"
	"sync"

	"github.com/pageloom/pageloom/pkg/fetch"
	"github.com/pageloom/pageloom/pkg/plan"
)

// Generator computes fingerprints and memoizes them per request ID, so the
// scheduler and the cache layer agree without recomputing.
type Generator struct {
	mu   sync.RWMutex
	memo map[string]string
}

func NewGenerator() *Generator {
	return &Generator{memo: make(map[string]string)}
}

// Fingerprint returns the fingerprint for req given its resolved dependency
// keys. The dependency encoding is order-independent: callers may pass keys
// in any order and get the same result.
func (g *Generator) Fingerprint(req *fetch.Request, deps []plan.Key) string {
	memoKey := req.ID + "\x00" + canonicalDeps(deps)

	g.mu.RLock()
	fp, ok := g.memo[memoKey]
	g.mu.RUnlock()
	if ok {
		return fp
	}

	fp = Compute(req, deps)

	g.mu.Lock()
	g.memo[memoKey] = fp
	g.mu.Unlock()
	return fp
}

// Forget drops the memoized fingerprints for a request ID once its
// processing cycle ends.
func (g *Generator) Forget(requestID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for k := range g.memo {
		if strings.HasPrefix(k, requestID+"\x00") {
			delete(g.memo, k)
		}
	}
}

// Compute is the memoization-free fingerprint: a hash of the base request
// identity (method, canonical URL, body) plus, when dependency resolution is
// in play, the canonical dependency encoding.
func Compute(req *fetch.Request, deps []plan.Key) string {
	h := sha256.New()
	h.Write([]byte(req.Method))
	h.Write([]byte{0})
	h.Write([]byte(CanonicalURL(req.URL)))
	h.Write([]byte{0})
	h.Write(req.Body)
	if len(deps) > 0 {
		h.Write([]byte{0})
		h.Write([]byte(canonicalDeps(deps)))
	}
	return hex.EncodeToString(h.Sum(nil))
}

// canonicalDeps encodes the dependency set independent of declaration order:
// each key's qualified type name plus its annotation, sorted, joined.
func canonicalDeps(deps []plan.Key) string {
	if len(deps) == 0 {
		return ""
	}
	names := make([]string, len(deps))
	for i, k := range deps {
		names[i] = k.TypeName() + "#" + k.Annotation
	}
	sort.Strings(names)
	return strings.Join(names, ";")
}

// CanonicalURL normalizes a URL for fingerprinting: lowercased scheme and
// host, default port stripped, sorted query parameters, fragment dropped.
// Unparseable URLs are fingerprinted as-is.
func CanonicalURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	u.Scheme = strings.ToLower(u.Scheme)
	host := strings.ToLower(u.Host)
	switch {
	case u.Scheme == "http" && strings.HasSuffix(host, ":80"):
		host = strings.TrimSuffix(host, ":80")
	case u.Scheme == "https" && strings.HasSuffix(host, ":443"):
		host = strings.TrimSuffix(host, ":443")
	}
	u.Host = host
	u.Fragment = ""
	if u.Path == "" {
		u.Path = "/"
	}
	if q := u.Query(); len(q) > 0 {
		u.RawQuery = q.Encode() // Encode sorts by key
	}
	return u.String()
}
