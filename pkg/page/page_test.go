package page

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/pageloom/pageloom/pkg/errors"
	"github.com/pageloom/pageloom/pkg/fetch"
	"github.com/pageloom/pageloom/pkg/plan"
)

type testItem struct {
	Name string
}

type testPage struct {
	resp *fetch.Response
}

func (p *testPage) ToItem(ctx context.Context) (any, error) {
	return testItem{Name: "widget"}, nil
}

func newTestPage(args []any) (any, error) {
	resp, ok := args[0].(*fetch.Response)
	if !ok {
		return nil, fmt.Errorf("want *fetch.Response, got %T", args[0])
	}
	return &testPage{resp: resp}, nil
}

func TestCatalogRegisterAndLookup(t *testing.T) {
	bp := Producing[*testPage, testItem](newTestPage, plan.KeyOf[*fetch.Response]())
	c, err := NewCatalog(bp)
	if err != nil {
		t.Fatalf("NewCatalog error: %v", err)
	}

	got, ok := c.Lookup(reflect.TypeOf(&testPage{}))
	if !ok {
		t.Fatal("Lookup by type failed")
	}
	if got.Item != reflect.TypeOf(testItem{}) {
		t.Errorf("Item = %v, want testItem", got.Item)
	}

	name := bp.Name()
	if !strings.Contains(name, "testPage") {
		t.Errorf("Name() = %q, should contain the type name", name)
	}
	if _, ok := c.LookupName(name); !ok {
		t.Error("LookupName failed for registered blueprint")
	}

	typ, err := c.TypeByName(name)
	if err != nil || typ != bp.Type {
		t.Errorf("TypeByName = %v, %v", typ, err)
	}
	if _, err := c.TypeByName("nosuch.Type"); !errors.Is(err, errors.ErrCodeUndeclaredType) {
		t.Errorf("unknown name: err = %v, want UNDECLARED_TYPE", err)
	}
}

func TestCatalogInputsAdapter(t *testing.T) {
	respKey := plan.KeyOf[*fetch.Response]()
	c, err := NewCatalog(Of[*testPage](newTestPage, respKey))
	if err != nil {
		t.Fatalf("NewCatalog error: %v", err)
	}
	in, ok := c.Inputs(reflect.TypeOf(&testPage{}))
	if !ok || len(in) != 1 || in[0] != respKey {
		t.Errorf("Inputs = %v, %v", in, ok)
	}
	if _, ok := c.Inputs(reflect.TypeOf(testItem{})); ok {
		t.Error("Inputs must miss for unregistered types")
	}
}

func TestCatalogRejectsInvalidBlueprint(t *testing.T) {
	if _, err := NewCatalog(Blueprint{Type: reflect.TypeOf(&testPage{})}); err == nil {
		t.Error("blueprint without constructor must be rejected")
	}
	if _, err := NewCatalog(Blueprint{New: newTestPage}); err == nil {
		t.Error("blueprint without type must be rejected")
	}
}

func TestRetrySignal(t *testing.T) {
	err := fmt.Errorf("converting page: %w", &Retry{Reason: "ban page served"})
	r, ok := IsRetry(err)
	if !ok {
		t.Fatal("wrapped retry must be detected")
	}
	if r.Reason != "ban page served" {
		t.Errorf("Reason = %q", r.Reason)
	}
	if _, ok := IsRetry(fmt.Errorf("plain failure")); ok {
		t.Error("plain error must not read as a retry")
	}
}

func TestParamsGet(t *testing.T) {
	p := Params{"locale": "en-GB"}
	if got := p.Get("locale", "en-US"); got != "en-GB" {
		t.Errorf("Get = %q", got)
	}
	if got := p.Get("currency", "USD"); got != "USD" {
		t.Errorf("default = %q", got)
	}
}

func TestDocumentParsesFetchedResponse(t *testing.T) {
	resp := &fetch.Response{
		URL:     "http://example.com/p/1",
		Body:    []byte(`<html><body><h1 class="title">Widget</h1></body></html>`),
		Fetched: true,
	}
	doc, err := Document(resp)
	if err != nil {
		t.Fatalf("Document error: %v", err)
	}
	if got := doc.Find("h1.title").Text(); got != "Widget" {
		t.Errorf("title = %q, want Widget", got)
	}
}

func TestDocumentRejectsUnfetched(t *testing.T) {
	if _, err := Document(fetch.NewDummyResponse("http://example.com")); err == nil {
		t.Error("unfetched sentinel must not parse")
	}
}
