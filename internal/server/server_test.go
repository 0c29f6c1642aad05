package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"

	"github.com/pageloom/pageloom/pkg/fetch"
	"github.com/pageloom/pageloom/pkg/inject"
	"github.com/pageloom/pageloom/pkg/page"
	"github.com/pageloom/pageloom/pkg/plan"
	"github.com/pageloom/pageloom/pkg/registry"
)

type link struct {
	URL string `json:"url"`
}

type linkPage struct {
	u fetch.RequestURL
}

func (p *linkPage) ToItem(ctx context.Context) (any, error) {
	return link{URL: string(p.u)}, nil
}

func testServer(t *testing.T) *Server {
	t.Helper()
	catalog, err := page.NewCatalog(
		page.Producing[*linkPage, link](func(args []any) (any, error) {
			return &linkPage{u: args[0].(fetch.RequestURL)}, nil
		}, plan.KeyOf[fetch.RequestURL]()),
	)
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	rules, err := registry.New(registry.Rule{Use: reflect.TypeOf(&linkPage{}), Produces: reflect.TypeOf(link{})})
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	in := inject.New(inject.Options{Catalog: catalog, Rules: rules})
	return New(Options{Injector: in, Catalog: catalog})
}

func itemName() string {
	return plan.TypeKey(reflect.TypeOf(link{})).TypeName()
}

func TestHealthz(t *testing.T) {
	srv := testServer(t)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestExtract(t *testing.T) {
	srv := testServer(t)

	body := `{"url":"http://example.com/p/7","item":"` + itemName() + `"}`
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/extract", strings.NewReader(body)))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	var out struct {
		Item      link   `json:"item"`
		Fetched   bool   `json:"fetched"`
		RequestID string `json:"request_id"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if out.Item.URL != "http://example.com/p/7" {
		t.Errorf("item = %+v", out.Item)
	}
	if out.Fetched {
		t.Error("URL-only extraction must not fetch")
	}
	if out.RequestID == "" {
		t.Error("response must carry the request ID")
	}
}

func TestExtractValidation(t *testing.T) {
	srv := testServer(t)

	tests := []struct {
		name string
		body string
		want int
	}{
		{"bad json", "{", http.StatusBadRequest},
		{"missing fields", `{"url":"http://example.com"}`, http.StatusBadRequest},
		{"unknown item", `{"url":"http://example.com","item":"nosuch.Item"}`, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/extract", strings.NewReader(tt.body)))
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestItemsListing(t *testing.T) {
	srv := testServer(t)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/items", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "linkPage") {
		t.Errorf("listing should include the page object: %s", rec.Body)
	}
}
