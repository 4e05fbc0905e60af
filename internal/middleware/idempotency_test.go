package middleware_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/Strob0t/TenantForge/internal/middleware"
)

// memCache is an in-memory cache.Cache for testing.
type memCache struct {
	mu     sync.Mutex
	data   map[string][]byte
	getErr error
}

func newMemCache() *memCache {
	return &memCache{data: make(map[string][]byte)}
}

func (m *memCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, false, m.getErr
	}
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *memCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *memCache) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *memCache) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.data)
}

func makeTestHandler(counter *int, status int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		*counter++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = fmt.Fprintf(w, `{"call":%d}`, *counter)
	})
}

// chain mounts Tenant in front of Idempotency, as the router does.
func chain(c *memCache, h http.Handler) http.Handler {
	return middleware.Tenant([]string{".localhost"})(middleware.Idempotency(c, time.Hour)(h))
}

func post(h http.Handler, host, path, key string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, http.NoBody)
	req.Host = host
	if key != "" {
		req.Header.Set("Idempotency-Key", key)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestIdempotency_NoHeader(t *testing.T) {
	counter := 0
	c := newMemCache()
	h := chain(c, makeTestHandler(&counter, http.StatusCreated))

	post(h, "acme.localhost", "/api/users", "")
	post(h, "acme.localhost", "/api/users", "")

	if counter != 2 {
		t.Fatalf("expected 2 calls, got %d", counter)
	}
	if c.len() != 0 {
		t.Fatal("expected nothing recorded without a key")
	}
}

func TestIdempotency_SecondRequestReplays(t *testing.T) {
	counter := 0
	c := newMemCache()
	h := chain(c, makeTestHandler(&counter, http.StatusCreated))

	rec1 := post(h, "acme.localhost", "/api/users", "key-2")
	rec2 := post(h, "acme.localhost", "/api/users", "key-2")

	if counter != 1 {
		t.Fatalf("expected handler called once, got %d", counter)
	}
	if rec2.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec2.Code)
	}
	if rec2.Body.String() != rec1.Body.String() {
		t.Fatalf("expected replayed body %q, got %q", rec1.Body.String(), rec2.Body.String())
	}
	if rec2.Header().Get("Idempotent-Replayed") != "true" {
		t.Fatal("expected replay marker header")
	}
	if rec2.Header().Get("Content-Type") != "application/json" {
		t.Fatalf("expected content type replayed, got %q", rec2.Header().Get("Content-Type"))
	}
}

func TestIdempotency_ScopedByTenantAndPath(t *testing.T) {
	counter := 0
	c := newMemCache()
	h := chain(c, makeTestHandler(&counter, http.StatusCreated))

	post(h, "acme.localhost", "/api/users", "same")
	post(h, "globex.localhost", "/api/users", "same")
	post(h, "acme.localhost", "/api/orders", "same")

	if counter != 3 {
		t.Fatalf("expected 3 distinct calls, got %d", counter)
	}
}

func TestIdempotency_FailuresNotRecorded(t *testing.T) {
	counter := 0
	c := newMemCache()
	h := chain(c, makeTestHandler(&counter, http.StatusBadRequest))

	post(h, "acme.localhost", "/api/users", "retry-me")
	post(h, "acme.localhost", "/api/users", "retry-me")

	if counter != 2 {
		t.Fatalf("expected failed request to be retried, got %d calls", counter)
	}
}

func TestIdempotency_GETIgnored(t *testing.T) {
	counter := 0
	c := newMemCache()
	h := chain(c, makeTestHandler(&counter, http.StatusOK))

	req := httptest.NewRequest(http.MethodGet, "/api/users", http.NoBody)
	req.Header.Set("Idempotency-Key", "key-get")
	h.ServeHTTP(httptest.NewRecorder(), req)
	h.ServeHTTP(httptest.NewRecorder(), req)

	if counter != 2 {
		t.Fatalf("expected handler called twice, got %d", counter)
	}
}

func TestIdempotency_CacheErrorFallsThrough(t *testing.T) {
	counter := 0
	c := newMemCache()
	c.getErr = errors.New("cache down")
	h := chain(c, makeTestHandler(&counter, http.StatusCreated))

	rec := post(h, "acme.localhost", "/api/users", "k")
	if rec.Code != http.StatusCreated || counter != 1 {
		t.Fatalf("expected request to be served, got %d after %d calls", rec.Code, counter)
	}
}
