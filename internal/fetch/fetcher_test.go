package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

// newTestFetcher returns a fetcher with millisecond backoff.
func newTestFetcher(t *testing.T, opts ...Option) *HTTPFetcher {
	t.Helper()

	base := []Option{
		WithBackoff(time.Millisecond, 2*time.Millisecond),
		WithTimeout(5 * time.Second),
	}
	f, err := NewHTTPFetcher(append(base, opts...)...)
	if err != nil {
		t.Fatalf("failed to create fetcher: %v", err)
	}
	return f
}

func TestHTTPFetcher_Fetch(t *testing.T) {
	t.Parallel()

	t.Run("returns body, title and raw links", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			_, _ = w.Write([]byte(`<html><head><title> Home </title></head><body>
				<a href="/about">About</a>
				<a href="contact.html#form">Contact</a>
				<a href="https://other.test/?a=1&amp;b=2">Other</a>
				<a name="anchor-without-href">x</a>
				<p>info@a.test</p>
			</body></html>`))
		}))
		defer server.Close()

		page, err := newTestFetcher(t).Fetch(context.Background(), server.URL+"/")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if page.StatusCode != http.StatusOK {
			t.Errorf("expected status 200, got %d", page.StatusCode)
		}
		if page.Title != "Home" {
			t.Errorf("expected title 'Home', got %q", page.Title)
		}
		if !strings.Contains(page.Body, "info@a.test") {
			t.Error("expected body to contain the email text")
		}

		want := []string{"/about", "contact.html#form", "https://other.test/?a=1&b=2"}
		if len(page.Links) != len(want) {
			t.Fatalf("expected %d links, got %d: %v", len(want), len(page.Links), page.Links)
		}
		for i := range want {
			if page.Links[i] != want[i] {
				t.Errorf("link %d: expected %q, got %q", i, want[i], page.Links[i])
			}
		}
		if page.Attempts != 1 {
			t.Errorf("expected 1 attempt, got %d", page.Attempts)
		}
	})

	t.Run("sends only the configured headers", func(t *testing.T) {
		t.Parallel()

		headers := make(chan http.Header, 1)
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				t.Errorf("expected GET, got %s", r.Method)
			}
			headers <- r.Header.Clone()
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		_, err := newTestFetcher(t, WithUserAgent("TestAgent/1.0")).Fetch(context.Background(), server.URL)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		got := <-headers
		if ua := got.Get("User-Agent"); ua != "TestAgent/1.0" {
			t.Errorf("expected user agent TestAgent/1.0, got %q", ua)
		}
		if accept := got.Get("Accept"); !strings.HasPrefix(accept, "text/html") {
			t.Errorf("expected an html accept header, got %q", accept)
		}
		if cookie := got.Get("Cookie"); cookie != "" {
			t.Errorf("expected no cookie, got %q", cookie)
		}
	})

	t.Run("retries transient failures then succeeds", func(t *testing.T) {
		t.Parallel()

		var hits atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			if hits.Add(1) < 3 {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			w.Header().Set("Content-Type", "text/html")
			_, _ = w.Write([]byte(`<a href="/ok">ok</a>`))
		}))
		defer server.Close()

		page, err := newTestFetcher(t).Fetch(context.Background(), server.URL)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := hits.Load(); got != 3 {
			t.Errorf("expected 3 requests, got %d", got)
		}
		if page.Attempts != 3 {
			t.Errorf("expected page.Attempts 3, got %d", page.Attempts)
		}
	})

	t.Run("gives up after the retry budget", func(t *testing.T) {
		t.Parallel()

		var hits atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			hits.Add(1)
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		_, err := newTestFetcher(t, WithMaxRetries(2)).Fetch(context.Background(), server.URL)
		if err == nil {
			t.Fatal("expected error")
		}

		var fetchErr *FetchError
		if !errors.As(err, &fetchErr) {
			t.Fatalf("expected *FetchError, got %T", err)
		}
		if fetchErr.Attempts != 3 {
			t.Errorf("expected 3 attempts, got %d", fetchErr.Attempts)
		}
		if !errors.Is(err, ErrRetryableStatus) {
			t.Errorf("expected ErrRetryableStatus, got %v", err)
		}
		if got := hits.Load(); got != 3 {
			t.Errorf("expected 3 requests, got %d", got)
		}
	})

	t.Run("retries 429", func(t *testing.T) {
		t.Parallel()

		var hits atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			if hits.Add(1) == 1 {
				w.WriteHeader(http.StatusTooManyRequests)
				return
			}
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		if _, err := newTestFetcher(t).Fetch(context.Background(), server.URL); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := hits.Load(); got != 2 {
			t.Errorf("expected 2 requests, got %d", got)
		}
	})

	t.Run("404 is returned as a page without retrying", func(t *testing.T) {
		t.Parallel()

		var hits atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			hits.Add(1)
			w.Header().Set("Content-Type", "text/html")
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`<a href="/">home</a> webmaster@a.test`))
		}))
		defer server.Close()

		page, err := newTestFetcher(t).Fetch(context.Background(), server.URL+"/missing")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if page.StatusCode != http.StatusNotFound {
			t.Errorf("expected 404, got %d", page.StatusCode)
		}
		if len(page.Links) != 1 {
			t.Errorf("expected 1 link, got %v", page.Links)
		}
		if got := hits.Load(); got != 1 {
			t.Errorf("expected 1 request, got %d", got)
		}
	})

	t.Run("connection failure is a FetchError", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
		addr := server.URL
		server.Close()

		_, err := newTestFetcher(t, WithMaxRetries(1)).Fetch(context.Background(), addr)
		var fetchErr *FetchError
		if !errors.As(err, &fetchErr) {
			t.Fatalf("expected *FetchError, got %v", err)
		}
		if fetchErr.Attempts != 2 {
			t.Errorf("expected 2 attempts, got %d", fetchErr.Attempts)
		}
		if fetchErr.URL != addr {
			t.Errorf("expected URL %q, got %q", addr, fetchErr.URL)
		}
	})

	t.Run("cancelled context fails without retrying", func(t *testing.T) {
		t.Parallel()

		var hits atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			hits.Add(1)
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := newTestFetcher(t).Fetch(ctx, server.URL)
		if err == nil {
			t.Fatal("expected error for cancelled context")
		}
		if got := hits.Load(); got != 0 {
			t.Errorf("expected no requests, got %d", got)
		}
	})

	t.Run("non-HTML content yields no links", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "text/plain")
			_, _ = w.Write([]byte(`<a href="/x">x</a> plain@a.test`))
		}))
		defer server.Close()

		page, err := newTestFetcher(t).Fetch(context.Background(), server.URL)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(page.Links) != 0 {
			t.Errorf("expected no links, got %v", page.Links)
		}
		if !strings.Contains(page.Body, "plain@a.test") {
			t.Error("expected body to be kept for email extraction")
		}
	})

	t.Run("body is truncated to the size limit", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "text/plain")
			_, _ = w.Write([]byte(strings.Repeat("a", 1000)))
		}))
		defer server.Close()

		page, err := newTestFetcher(t, WithMaxBodySize(100)).Fetch(context.Background(), server.URL)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(page.Body) != 100 {
			t.Errorf("expected 100 bytes, got %d", len(page.Body))
		}
	})

	t.Run("declared charset is decoded to UTF-8", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "text/html; charset=iso-8859-1")
			// "café" in Latin-1
			_, _ = w.Write([]byte("<title>caf\xe9</title>"))
		}))
		defer server.Close()

		page, err := newTestFetcher(t).Fetch(context.Background(), server.URL)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if page.Title != "café" {
			t.Errorf("expected title 'café', got %q", page.Title)
		}
	})
}

func TestShouldRetry(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		resp *response
		err  error
		want bool
	}{
		{name: "transport error", err: errors.New("connection reset"), want: true},
		{name: "caller cancelled", err: context.Canceled, want: false},
		{name: "timeout", err: context.DeadlineExceeded, want: true},
		{name: "nil response", want: true},
		{name: "200", resp: &response{status: 200}, want: false},
		{name: "404", resp: &response{status: 404}, want: false},
		{name: "429", resp: &response{status: 429}, want: true},
		{name: "502", resp: &response{status: 502}, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := shouldRetry(tt.resp, tt.err); got != tt.want {
				t.Errorf("shouldRetry() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewHTTPFetcher_InvalidProxy(t *testing.T) {
	t.Parallel()

	// proxy.SOCKS5 accepts any address; a usable fetcher is still returned
	// and the failure surfaces on the first request.
	f, err := NewHTTPFetcher(WithProxy("127.0.0.1:1"), WithMaxRetries(0), WithTimeout(time.Second))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := f.Fetch(context.Background(), "http://a.test/"); err == nil {
		t.Error("expected fetch through a dead proxy to fail")
	}
}

func TestHTTPFetcher_Redirects(t *testing.T) {
	t.Parallel()

	t.Run("follows a redirect on the same site", func(t *testing.T) {
		t.Parallel()

		mux := http.NewServeMux()
		mux.HandleFunc("/old", func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, "/docs/new", http.StatusMovedPermanently)
		})
		mux.HandleFunc("/docs/new", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "text/html")
			_, _ = w.Write([]byte(`<a href="page">next</a> moved@a.test`))
		})
		server := httptest.NewServer(mux)
		defer server.Close()

		page, err := newTestFetcher(t).Fetch(context.Background(), server.URL+"/old")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if page.URL != server.URL+"/old" {
			t.Errorf("URL = %q", page.URL)
		}
		if page.FinalURL != server.URL+"/docs/new" {
			t.Errorf("FinalURL = %q, want %q", page.FinalURL, server.URL+"/docs/new")
		}
		if !strings.Contains(page.Body, "moved@a.test") {
			t.Errorf("expected the redirect target's body, got %q", page.Body)
		}
	})

	t.Run("does not follow a redirect to another site", func(t *testing.T) {
		t.Parallel()

		var foreignHits atomic.Int32
		foreign := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			foreignHits.Add(1)
			_, _ = w.Write([]byte(`<a href="/only-on-foreign">x</a> boss@other.test`))
		}))
		defer foreign.Close()

		site := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, foreign.URL+"/", http.StatusFound)
		}))
		defer site.Close()

		page, err := newTestFetcher(t).Fetch(context.Background(), site.URL+"/go")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if n := foreignHits.Load(); n != 0 {
			t.Errorf("foreign site was requested %d times", n)
		}
		if page.StatusCode != http.StatusFound {
			t.Errorf("expected the 302 response, got %d", page.StatusCode)
		}
		if page.FinalURL != site.URL+"/go" {
			t.Errorf("FinalURL = %q, want %q", page.FinalURL, site.URL+"/go")
		}
		if strings.Contains(page.Body, "boss@other.test") {
			t.Error("body of the foreign page was returned")
		}
	})
}
