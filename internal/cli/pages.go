package cli

import (
	"context"
	"net/url"
	"reflect"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/pageloom/pageloom/pkg/fetch"
	"github.com/pageloom/pageloom/pkg/page"
	"github.com/pageloom/pageloom/pkg/plan"
	"github.com/pageloom/pageloom/pkg/registry"
)

// PageSummary is the built-in generic item the CLI extracts when no custom
// page objects are compiled in: document title, description, and outgoing
// links.
type PageSummary struct {
	URL         string   `json:"url"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Links       []string `json:"links,omitempty"`
}

// summaryPage converts any fetched HTML page into a PageSummary.
type summaryPage struct {
	resp *fetch.Response
}

func (p *summaryPage) ToItem(ctx context.Context) (any, error) {
	doc, err := page.Document(p.resp)
	if err != nil {
		return nil, err
	}

	summary := PageSummary{
		URL:   p.resp.URL,
		Title: strings.TrimSpace(doc.Find("title").First().Text()),
	}
	if desc, ok := doc.Find(`meta[name="description"]`).Attr("content"); ok {
		summary.Description = strings.TrimSpace(desc)
	}

	base, _ := url.Parse(p.resp.URL)
	seen := make(map[string]bool)
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		href = strings.TrimSpace(href)
		if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(href, "javascript:") {
			return
		}
		if base != nil {
			if u, err := base.Parse(href); err == nil {
				href = u.String()
			}
		}
		if !seen[href] {
			seen[href] = true
			summary.Links = append(summary.Links, href)
		}
	})
	return summary, nil
}

// builtinCatalog returns the catalog of page objects the CLI ships with.
func builtinCatalog() (*page.Catalog, error) {
	return page.NewCatalog(
		page.Producing[*summaryPage, PageSummary](func(args []any) (any, error) {
			return &summaryPage{resp: args[0].(*fetch.Response)}, nil
		}, plan.KeyOf[*fetch.Response]()),
	)
}

// defaultItemName is the qualified name of the built-in summary item.
func defaultItemName() string {
	return plan.TypeKey(reflect.TypeOf(PageSummary{})).TypeName()
}

// builtinRules maps the built-in items to their producing pages on every URL.
func builtinRules() []registry.Rule {
	return []registry.Rule{
		{Use: reflect.TypeOf(&summaryPage{}), Produces: reflect.TypeOf(PageSummary{})},
	}
}
