package infra

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"autocomplete-extractor/extractor/domain"
)

func TestClient_SuccessParsesBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/autocomplete" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if got := r.URL.Query().Get("query"); got != "ab" {
			t.Errorf("expected query=ab, got %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"version":"v1","count":2,"results":["abc","abd"]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	out := c.Do(context.Background(), domain.V1, "ab")

	if out.Kind != domain.OutcomeSuccess {
		t.Fatalf("expected success, got %s (%v)", out.Kind, out.Err)
	}
	if out.Count != 2 || len(out.Names) != 2 {
		t.Fatalf("expected count=2 names=2, got count=%d names=%v", out.Count, out.Names)
	}
}

func TestClient_EscapesQuery(t *testing.T) {
	var gotRaw string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotRaw = r.URL.RawQuery
		_, _ = w.Write([]byte(`{"count":0,"results":[]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	// prefixo v3 com espaço e sinal: precisa escapar na URL
	out := c.Do(context.Background(), domain.V3, "a+b c")
	if out.Kind != domain.OutcomeSuccess {
		t.Fatalf("expected success, got %s (%v)", out.Kind, out.Err)
	}
	if gotRaw != "query=a%2Bb+c" {
		t.Fatalf("expected escaped query, got %q", gotRaw)
	}
}

func TestClient_RateLimitedReadsRetryAfter(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "17")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	out := c.Do(context.Background(), domain.V1, "a")

	if out.Kind != domain.OutcomeRateLimited {
		t.Fatalf("expected ratelimited, got %s", out.Kind)
	}
	if out.RetryAfter != 17*time.Second {
		t.Fatalf("expected Retry-After=17s, got %s", out.RetryAfter)
	}
}

func TestClient_RateLimitedWithoutHintHasZeroRetryAfter(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	out := c.Do(context.Background(), domain.V1, "a")

	if out.Kind != domain.OutcomeRateLimited || out.RetryAfter != 0 {
		t.Fatalf("expected ratelimited with zero hint, got %s %s", out.Kind, out.RetryAfter)
	}
}

func TestClient_ServerErrorIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	if out := c.Do(context.Background(), domain.V1, "a"); out.Kind != domain.OutcomeTransient {
		t.Fatalf("expected transient on 5xx, got %s", out.Kind)
	}
}

func TestClient_ClientErrorIsFatal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	if out := c.Do(context.Background(), domain.V1, "a"); out.Kind != domain.OutcomeFatal {
		t.Fatalf("expected fatal on 4xx, got %s", out.Kind)
	}
}

func TestClient_MalformedBodyIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"results": [truncated`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	if out := c.Do(context.Background(), domain.V1, "a"); out.Kind != domain.OutcomeTransient {
		t.Fatalf("expected transient on malformed 2xx body, got %s", out.Kind)
	}
}

func TestClient_NetworkErrorIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // derruba antes de usar

	c := NewClient(srv.URL)
	if out := c.Do(context.Background(), domain.V1, "a"); out.Kind != domain.OutcomeTransient {
		t.Fatalf("expected transient on connection error, got %s", out.Kind)
	}
}

func TestParseRetryAfter(t *testing.T) {
	cases := []struct {
		in   string
		want time.Duration
	}{
		{"", 0},
		{"5", 5 * time.Second},
		{" 60 ", 60 * time.Second},
		{"-1", 0},
		{"soon", 0},
	}
	for _, c := range cases {
		if got := parseRetryAfter(c.in); got != c.want {
			t.Fatalf("parseRetryAfter(%q): expected %s, got %s", c.in, c.want, got)
		}
	}
}
