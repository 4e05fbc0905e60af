package service

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/Strob0t/TenantForge/internal/config"
	"github.com/Strob0t/TenantForge/internal/domain/event"
	"github.com/Strob0t/TenantForge/internal/port/database/databasetest"
	"github.com/Strob0t/TenantForge/internal/port/messagequeue"
)

var _ messagequeue.Queue = (*fakeQueue)(nil)

// fakeQueue records published messages and delivers them synchronously to
// subscribers of the exact subject.
type fakeQueue struct {
	mu         sync.Mutex
	published  []publishedMsg
	handlers   map[string][]messagequeue.Handler
	publishErr error
}

type publishedMsg struct {
	subject string
	data    []byte
}

func newFakeQueue() *fakeQueue {
	return &fakeQueue{handlers: make(map[string][]messagequeue.Handler)}
}

func (q *fakeQueue) Publish(ctx context.Context, subject string, data []byte) error {
	q.mu.Lock()
	if q.publishErr != nil {
		err := q.publishErr
		q.mu.Unlock()
		return err
	}
	q.published = append(q.published, publishedMsg{subject: subject, data: data})
	handlers := append([]messagequeue.Handler(nil), q.handlers[subject]...)
	q.mu.Unlock()

	for _, h := range handlers {
		_ = h(ctx, subject, data)
	}
	return nil
}

func (q *fakeQueue) Subscribe(_ context.Context, subject string, handler messagequeue.Handler) (func(), error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.handlers[subject] = append(q.handlers[subject], handler)
	return func() {}, nil
}

func (q *fakeQueue) Close() error      { return nil }
func (q *fakeQueue) IsConnected() bool { return true }

// events decodes every published event of type typ.
func (q *fakeQueue) events(t *testing.T, typ event.Type) []event.Event {
	t.Helper()
	q.mu.Lock()
	defer q.mu.Unlock()
	var out []event.Event
	for _, m := range q.published {
		if m.subject != typ.Subject() {
			continue
		}
		var ev event.Event
		if err := json.Unmarshal(m.data, &ev); err != nil {
			t.Fatalf("decode event: %v", err)
		}
		out = append(out, ev)
	}
	return out
}

// memCache is an in-memory cache.Cache that counts hits.
type memCache struct {
	mu   sync.Mutex
	data map[string][]byte
	hits int
}

func newMemCache() *memCache {
	return &memCache{data: make(map[string][]byte)}
}

func (c *memCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	if ok {
		c.hits++
	}
	return v, ok, nil
}

func (c *memCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	return nil
}

func (c *memCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

func (c *memCache) has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.data[key]
	return ok
}

// fixture wires every service over an in-memory store, cache and queue.
type fixture struct {
	store       *databasetest.Store
	cache       *memCache
	queue       *fakeQueue
	tenants     *TenantService
	provision   *ProvisionService
	resolver    *Resolver
	collections *CollectionService
	documents   *DocumentService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store: databasetest.NewStore(),
		cache: newMemCache(),
		queue: newFakeQueue(),
	}
	events := NewEventPublisher(f.queue, nil)

	f.tenants = NewTenantService(f.store, f.cache, time.Minute)
	f.provision = NewProvisionService(f.store, f.tenants, config.Server{RootDomain: "localhost:8080", Protocol: "http"})
	f.provision.SetEvents(events)
	f.resolver = NewResolver(f.tenants, f.store, f.provision)
	f.collections = NewCollectionService(f.store)
	f.collections.SetEvents(events)
	f.documents = NewDocumentService(f.store)
	f.documents.SetEvents(events)
	return f
}

// mustTenant provisions name or fails the test.
func (f *fixture) mustTenant(t *testing.T, name string) {
	t.Helper()
	res, err := f.provision.ProvisionTenant(context.Background(), tenantReq(name))
	if err != nil {
		t.Fatalf("provision %s: %v", name, err)
	}
	if res.Outcome != OutcomeCreated {
		t.Fatalf("provision %s: %s (%s)", name, res.Outcome, res.Reason)
	}
}
