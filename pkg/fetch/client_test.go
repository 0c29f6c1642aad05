package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

func TestClientFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("X-Probe"); got != "yes" {
			t.Errorf("X-Probe header = %q, want %q", got, "yes")
		}
		w.Write([]byte("<html>hello</html>"))
	}))
	defer srv.Close()

	c := NewClient(Options{Doer: srv.Client()})
	req := NewRequest(srv.URL)
	req.Headers.Set("X-Probe", "yes")

	resp, err := c.Fetch(context.Background(), req)
	if err != nil {
		t.Fatalf("Fetch error: %v", err)
	}
	if !resp.Fetched {
		t.Error("Fetched = false, want true for a real download")
	}
	if resp.StatusCode != http.StatusOK {
		t.Errorf("StatusCode = %d, want 200", resp.StatusCode)
	}
	if resp.Text() != "<html>hello</html>" {
		t.Errorf("Body = %q", resp.Text())
	}
}

func TestClientHonorsSkipFetch(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()

	c := NewClient(Options{Doer: srv.Client()})
	req := NewRequest(srv.URL)
	req.SkipFetch = true

	resp, err := c.Fetch(context.Background(), req)
	if err != nil {
		t.Fatalf("Fetch error: %v", err)
	}
	if resp.Fetched {
		t.Error("Fetched = true, want sentinel response")
	}
	if resp.URL != srv.URL {
		t.Errorf("sentinel URL = %q, want %q", resp.URL, srv.URL)
	}
	if hits.Load() != 0 {
		t.Errorf("server hits = %d, want 0", hits.Load())
	}
}

func TestNewRequestAssignsID(t *testing.T) {
	a := NewRequest("http://example.com/a")
	b := NewRequest("http://example.com/b")
	if a.ID == "" || b.ID == "" {
		t.Fatal("NewRequest must assign an ID")
	}
	if a.ID == b.ID {
		t.Error("request IDs must be unique")
	}
	if a.Method != http.MethodGet {
		t.Errorf("Method = %q, want GET", a.Method)
	}
}

func TestRescheduled(t *testing.T) {
	orig := NewRequest("http://example.com/item?id=1")
	orig.PageParams = map[string]string{"locale": "de"}

	retry := orig.Rescheduled("stale listing")
	if retry.ID == orig.ID {
		t.Error("rescheduled request must get a fresh ID")
	}
	if retry.ParentID != orig.ID {
		t.Errorf("ParentID = %q, want %q", retry.ParentID, orig.ID)
	}
	if retry.Retries != 1 {
		t.Errorf("Retries = %d, want 1", retry.Retries)
	}
	if retry.RetryReason != "stale listing" {
		t.Errorf("RetryReason = %q", retry.RetryReason)
	}
	if retry.URL != orig.URL {
		t.Error("rescheduled request must keep the URL")
	}

	// Empty reason falls back to the fixed default.
	if got := orig.Rescheduled("").RetryReason; got != DefaultRetryReason {
		t.Errorf("RetryReason = %q, want %q", got, DefaultRetryReason)
	}
}
