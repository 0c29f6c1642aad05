package registry

import (
	"net/url"
	"path"
	"strings"
)

// A pattern is "host", "host/path", or "/path". The host part matches the
// exact host and any subdomain of it; a leading "*." makes the subdomain
// matching explicit. The path part is a prefix match, or a glob when it
// contains metacharacters. An empty pattern matches every URL with zero
// specificity.
func matchPattern(pattern, rawURL string) (bool, int) {
	if pattern == "" {
		return true, 0
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return false, 0
	}
	host := strings.ToLower(u.Hostname())
	pth := u.EscapedPath()
	if pth == "" {
		pth = "/"
	}

	pHost, pPath := splitPattern(pattern)
	if !matchHost(pHost, host) {
		return false, 0
	}
	if !matchPath(pPath, pth) {
		return false, 0
	}
	return true, specificity(pattern)
}

func splitPattern(pattern string) (host, pth string) {
	if strings.HasPrefix(pattern, "/") {
		return "", pattern
	}
	if i := strings.Index(pattern, "/"); i >= 0 {
		return strings.ToLower(pattern[:i]), pattern[i:]
	}
	return strings.ToLower(pattern), ""
}

func matchHost(pattern, host string) bool {
	if pattern == "" {
		return true
	}
	if base, ok := strings.CutPrefix(pattern, "*."); ok {
		return host == base || strings.HasSuffix(host, "."+base)
	}
	return host == pattern || strings.HasSuffix(host, "."+pattern)
}

func matchPath(pattern, pth string) bool {
	if pattern == "" {
		return true
	}
	if strings.ContainsAny(pattern, "*?[") {
		ok, err := path.Match(pattern, pth)
		return err == nil && ok
	}
	return pth == pattern || strings.HasPrefix(pth, strings.TrimSuffix(pattern, "/")+"/")
}

// specificity counts the literal characters of a pattern. Wildcards add
// nothing, so "books.example.com/catalogue/*" outranks "example.com".
func specificity(pattern string) int {
	n := 0
	for _, r := range pattern {
		switch r {
		case '*', '?', '[', ']':
		default:
			n++
		}
	}
	return n
}

// validPattern reports glob syntax errors up front instead of at match time.
func validPattern(pattern string) bool {
	_, pPath := splitPattern(pattern)
	if pPath == "" {
		return true
	}
	_, err := path.Match(pPath, "/")
	return err == nil
}
