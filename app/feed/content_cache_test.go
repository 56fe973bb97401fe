package feed

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/lysyi3m/tracker-rss/app/cfg"
	"github.com/lysyi3m/tracker-rss/app/fetch"
	"github.com/lysyi3m/tracker-rss/app/store"
)

const sampleFeed = `<?xml version="1.0"?><rss version="2.0"><channel><title>t</title></channel></rss>`

// recordingStore wraps a store and remembers the TTL of every write.
type recordingStore struct {
	store.Store
	mu   sync.Mutex
	ttls map[string]time.Duration
}

func newRecordingStore() *recordingStore {
	return &recordingStore{Store: store.NewMemory(), ttls: make(map[string]time.Duration)}
}

func (s *recordingStore) SetWithExpire(ctx context.Context, key, value string, ttl time.Duration) error {
	s.mu.Lock()
	s.ttls[key] = ttl
	s.mu.Unlock()
	return s.Store.SetWithExpire(ctx, key, value, ttl)
}

func (s *recordingStore) ttl(key string) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ttls[key]
}

func newTestCache(st store.Store, sites cfg.Sites) *ContentCache {
	return NewContentCache(st, store.Keys{Namespace: "vertex"}, fetch.NewClient(5*time.Second, "test"), sites, DefaultTTLPolicy(), nil)
}

func TestContentCacheHit(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Write([]byte(sampleFeed))
	}))
	defer server.Close()

	st := newRecordingStore()
	cache := newTestCache(st, nil)
	feedURL := server.URL + "/rss"

	for i := 0; i < 3; i++ {
		body, err := cache.Fetch(context.Background(), feedURL, false)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if body != sampleFeed {
			t.Errorf("Expected feed body, got %q", body)
		}
	}

	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("Expected 1 network call, got %d", got)
	}

	key := "vertex:rss:" + feedURL
	if ttl := st.ttl(key); ttl != 40*time.Second {
		t.Errorf("Expected default TTL 40s, got %v", ttl)
	}
}

func TestContentCacheBustAndCookie(t *testing.T) {
	var gotQuery, gotCookie string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		gotCookie = r.Header.Get("Cookie")
		w.Write([]byte(sampleFeed))
	}))
	defer server.Close()

	host := strings.TrimPrefix(server.URL, "http://")
	sites := cfg.Sites{host: {Cookie: "session=abc"}}
	cache := newTestCache(store.NewMemory(), sites)
	cache.random = func() float64 { return 0.25 }

	if _, err := cache.Fetch(context.Background(), server.URL+"/rss?passkey=x", true); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if gotQuery != "passkey=x&____=0.25" {
		t.Errorf("Expected cache buster appended with &, got %q", gotQuery)
	}
	if gotCookie != "session=abc" {
		t.Errorf("Expected site cookie, got %q", gotCookie)
	}

	if _, err := cache.Fetch(context.Background(), server.URL+"/feed", true); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if gotQuery != "____=0.25" {
		t.Errorf("Expected cache buster appended with ?, got %q", gotQuery)
	}
}

func TestContentCacheHTMLUnwrap(t *testing.T) {
	wrapped := `<html><head><link rel="stylesheet" id="xml-viewer-style"></head><body>` +
		`<div><rss version="2.0"><channel><title>t</title></channel></rss></div></body></html>`

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(wrapped))
	}))
	defer server.Close()

	st := newRecordingStore()
	cache := newTestCache(st, nil)
	feedURL := server.URL + "/rss"

	body, err := cache.Fetch(context.Background(), feedURL, false)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	expected := `<?xml version="1.0" encoding="utf-8"?>` + "\n" +
		`<rss version="2.0"><channel><title>t</title></channel></rss>`
	if body != expected {
		t.Errorf("Expected unwrapped body %q, got %q", expected, body)
	}

	if ttl := st.ttl("vertex:rss:" + feedURL); ttl != 290*time.Second {
		t.Errorf("Expected HTML TTL 290s, got %v", ttl)
	}

	if _, err := NewParser().Run(body); err != nil {
		t.Errorf("Expected unwrapped body to parse, got %v", err)
	}
}

func TestContentCacheHTMLWithoutBlock(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><style id="xml-viewer-style"></style><body>Just a moment...</body></html>`))
	}))
	defer server.Close()

	st := newRecordingStore()
	cache := newTestCache(st, nil)

	_, err := cache.Fetch(context.Background(), server.URL, false)
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("Expected *ParseError, got %T: %v", err, err)
	}
	if _, ok, _ := st.Get(context.Background(), "vertex:rss:"+server.URL); ok {
		t.Error("Expected nothing cached on failure")
	}
}

func TestContentCacheFetchError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	cache := newTestCache(store.NewMemory(), nil)
	_, err := cache.Fetch(context.Background(), server.URL, false)

	var fetchErr *fetch.Error
	if !errors.As(err, &fetchErr) {
		t.Fatalf("Expected *fetch.Error, got %T: %v", err, err)
	}
}

func TestContentCacheConcurrentPollers(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		time.Sleep(50 * time.Millisecond)
		w.Write([]byte(sampleFeed))
	}))
	defer server.Close()

	cache := newTestCache(store.NewMemory(), nil)
	feedURL := server.URL + "/rss"

	var wg sync.WaitGroup
	errs := make(chan error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			body, err := cache.Fetch(context.Background(), feedURL, false)
			if err == nil && body != sampleFeed {
				err = errors.New("unexpected body")
			}
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Errorf("Unexpected error: %v", err)
		}
	}

	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("Expected exactly 1 network fetch, got %d", got)
	}
}

func TestTTLPolicy(t *testing.T) {
	policy := DefaultTTLPolicy()

	testCases := []struct {
		host     string
		html     bool
		expected time.Duration
	}{
		{"tracker.example", false, 40 * time.Second},
		{"lemonhd.org", false, 150 * time.Second},
		{"hhanclub.top", false, 150 * time.Second},
		{"tracker.example", true, 290 * time.Second},
		{"lemonhd.org", true, 290 * time.Second},
	}

	for _, tc := range testCases {
		if got := policy.For(tc.host, tc.html); got != tc.expected {
			t.Errorf("For(%q, %v): expected %v, got %v", tc.host, tc.html, tc.expected, got)
		}
	}
}
