package registry

import (
	"reflect"
	"testing"

	"github.com/pageloom/pageloom/pkg/errors"
)

type genericProductPage struct{}
type booksProductPage struct{}
type saleProductPage struct{}
type product struct{}

var (
	genericT = reflect.TypeOf(&genericProductPage{})
	booksT   = reflect.TypeOf(&booksProductPage{})
	saleT    = reflect.TypeOf(&saleProductPage{})
	productT = reflect.TypeOf(product{})
)

func TestMatchPattern(t *testing.T) {
	tests := []struct {
		pattern string
		url     string
		want    bool
	}{
		{"", "http://anything.example/x", true},
		{"example.com", "http://example.com/", true},
		{"example.com", "http://shop.example.com/p/1", true},
		{"example.com", "http://example.org/", false},
		{"*.example.com", "http://shop.example.com/", true},
		{"*.example.com", "http://example.com/", true},
		{"example.com/products", "http://example.com/products/42", true},
		{"example.com/products", "http://example.com/reviews/42", false},
		{"/catalogue/*", "http://books.example.com/catalogue/1", true},
		{"/catalogue/*", "http://books.example.com/search", false},
		{"EXAMPLE.com", "http://example.COM/", true},
	}
	for _, tt := range tests {
		got, _ := matchPattern(tt.pattern, tt.url)
		if got != tt.want {
			t.Errorf("matchPattern(%q, %q) = %v, want %v", tt.pattern, tt.url, got, tt.want)
		}
	}
}

func TestSpecificityOrdersPatterns(t *testing.T) {
	if specificity("books.example.com/catalogue/*") <= specificity("example.com") {
		t.Error("longer literal pattern must be more specific")
	}
	if specificity("*") != 0 {
		t.Errorf("specificity(*) = %d, want 0", specificity("*"))
	}
}

func TestResolveOverridePicksMostSpecific(t *testing.T) {
	r, err := New(
		Rule{Include: []string{"example.com"}, Use: genericT, InsteadOf: genericT},
		Rule{Include: []string{"books.example.com"}, Use: booksT, InsteadOf: genericT},
	)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}

	got, ok := r.ResolveOverride(genericT, "http://books.example.com/catalogue/1")
	if !ok || got != booksT {
		t.Errorf("books URL resolved to %v, want %v", got, booksT)
	}
	got, ok = r.ResolveOverride(genericT, "http://other.example.com/")
	if !ok || got != genericT {
		t.Errorf("generic URL resolved to %v, want %v", got, genericT)
	}
	if _, ok := r.ResolveOverride(genericT, "http://unrelated.org/"); ok {
		t.Error("non-matching URL must report no override")
	}
}

func TestResolveOverrideLastRegisteredWinsTies(t *testing.T) {
	r, err := New(
		Rule{Include: []string{"example.com"}, Use: booksT, InsteadOf: genericT},
		Rule{Include: []string{"example.org"}, Use: saleT, InsteadOf: genericT},
		Rule{Include: []string{"example.com"}, Use: saleT, InsteadOf: genericT},
	)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	got, ok := r.ResolveOverride(genericT, "http://example.com/p/1")
	if !ok || got != saleT {
		t.Errorf("tie resolved to %v, want last-registered %v", got, saleT)
	}
}

func TestExcludeVetoesRule(t *testing.T) {
	r, err := New(Rule{
		Include:   []string{"example.com"},
		Exclude:   []string{"example.com/admin"},
		Use:       booksT,
		InsteadOf: genericT,
	})
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	if _, ok := r.ResolveOverride(genericT, "http://example.com/admin/users"); ok {
		t.Error("excluded URL must not match")
	}
	if _, ok := r.ResolveOverride(genericT, "http://example.com/products"); !ok {
		t.Error("non-excluded URL must still match")
	}
}

func TestPageForItem(t *testing.T) {
	r, err := New(Rule{Include: []string{"example.com"}, Use: booksT, Produces: productT})
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	got, ok := r.PageForItem(productT, "http://example.com/p/1")
	if !ok || got != booksT {
		t.Errorf("PageForItem = %v, want %v", got, booksT)
	}
	if _, ok := r.PageForItem(productT, "http://unrelated.org/"); ok {
		t.Error("non-matching URL must report no producing page")
	}
}

func TestEmptyIncludeMatchesEverywhere(t *testing.T) {
	r, err := New(Rule{Use: booksT, InsteadOf: genericT})
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	if _, ok := r.ResolveOverride(genericT, "http://anything.example/"); !ok {
		t.Error("empty include list must match every URL")
	}
}

func TestRuleValidation(t *testing.T) {
	if _, err := New(Rule{InsteadOf: genericT}); !errors.Is(err, errors.ErrCodeInvalidRule) {
		t.Errorf("missing Use: err = %v, want INVALID_RULE", err)
	}
	if _, err := New(Rule{Use: booksT}); !errors.Is(err, errors.ErrCodeInvalidRule) {
		t.Errorf("no InsteadOf/Produces: err = %v, want INVALID_RULE", err)
	}
	if _, err := New(Rule{Use: booksT, InsteadOf: genericT, Include: []string{"/p/[bad"}}); !errors.Is(err, errors.ErrCodeInvalidPattern) {
		t.Errorf("bad glob: err = %v, want INVALID_PATTERN", err)
	}
}
