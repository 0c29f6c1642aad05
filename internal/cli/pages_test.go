package cli

import (
	"context"
	"reflect"
	"testing"

	"github.com/pageloom/pageloom/pkg/fetch"
)

const sampleHTML = `<!doctype html>
<html>
<head>
  <title> Example Store </title>
  <meta name="description" content="Things for sale.">
</head>
<body>
  <a href="/catalogue/1">One</a>
  <a href="/catalogue/1">One again</a>
  <a href="http://other.example.com/p">Other</a>
  <a href="#top">Top</a>
  <a href="javascript:void(0)">Noise</a>
</body>
</html>`

func TestSummaryPageToItem(t *testing.T) {
	p := &summaryPage{resp: &fetch.Response{
		URL:     "http://shop.example.com/home",
		Body:    []byte(sampleHTML),
		Fetched: true,
	}}

	item, err := p.ToItem(context.Background())
	if err != nil {
		t.Fatalf("ToItem error: %v", err)
	}
	summary := item.(PageSummary)

	if summary.Title != "Example Store" {
		t.Errorf("Title = %q", summary.Title)
	}
	if summary.Description != "Things for sale." {
		t.Errorf("Description = %q", summary.Description)
	}
	wantLinks := []string{
		"http://shop.example.com/catalogue/1",
		"http://other.example.com/p",
	}
	if !reflect.DeepEqual(summary.Links, wantLinks) {
		t.Errorf("Links = %v, want %v", summary.Links, wantLinks)
	}
}

func TestSummaryPageRejectsUnfetched(t *testing.T) {
	p := &summaryPage{resp: fetch.NewDummyResponse("http://shop.example.com/home")}
	if _, err := p.ToItem(context.Background()); err == nil {
		t.Error("unfetched response must not convert")
	}
}

func TestBuiltinCatalogAndRules(t *testing.T) {
	catalog, err := builtinCatalog()
	if err != nil {
		t.Fatalf("builtinCatalog error: %v", err)
	}
	if _, err := catalog.ItemByName(defaultItemName()); err != nil {
		t.Errorf("default item %q not found: %v", defaultItemName(), err)
	}
	if _, ok := catalog.Lookup(reflect.TypeOf(&summaryPage{})); !ok {
		t.Error("summary page blueprint missing")
	}
	if len(builtinRules()) == 0 {
		t.Error("built-in rules must not be empty")
	}
}
