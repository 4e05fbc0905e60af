// Package databasetest provides an in-memory database.Store for tests.
package databasetest

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Strob0t/TenantForge/internal/domain"
	"github.com/Strob0t/TenantForge/internal/domain/collection"
	"github.com/Strob0t/TenantForge/internal/domain/document"
	"github.com/Strob0t/TenantForge/internal/domain/tenant"
	"github.com/Strob0t/TenantForge/internal/port/database"
)

var _ database.Store = (*Store)(nil)

// Store is a concurrency-safe in-memory database.Store mirroring the
// PostgreSQL adapter's semantics, including conflict and not-found errors.
// Name and data checks stand in for the schema's CHECK and jsonb constraints.
type Store struct {
	mu          sync.Mutex
	now         func() time.Time
	last        time.Time
	tenants     map[string]tenant.Tenant
	collections map[string]collection.Collection // key: tenant/name
	documents   map[int64]document.Document
	nextCollID  int64
	nextDocID   int64

	// Error hooks: when set, the named operation fails with the error.
	// Keys are method names, e.g. "LookupTenant".
	Errors map[string]error

	// Calls counts invocations per method name.
	Calls map[string]int
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		now:         time.Now,
		tenants:     make(map[string]tenant.Tenant),
		collections: make(map[string]collection.Collection),
		documents:   make(map[int64]document.Document),
		Errors:      make(map[string]error),
		Calls:       make(map[string]int),
	}
}

// FailWith makes method fail with err until cleared with a nil err.
func (s *Store) FailWith(method string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.Errors, method)
		return
	}
	s.Errors[method] = err
}

// CallCount returns how often method was invoked.
func (s *Store) CallCount(method string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Calls[method]
}

// enter records the call and returns the injected error; s.mu must be held.
func (s *Store) enter(method string) error {
	s.Calls[method]++
	return s.Errors[method]
}

// tick returns a timestamp later than every previous one; s.mu must be held.
func (s *Store) tick() time.Time {
	t := s.now().UTC().Truncate(time.Microsecond)
	if !t.After(s.last) {
		t = s.last.Add(time.Microsecond)
	}
	s.last = t
	return t
}

func collKey(tenantName, name string) string { return tenantName + "/" + name }

func (s *Store) Ping(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enter("Ping")
}

// --- Tenants ---

func (s *Store) LookupTenant(_ context.Context, name string) (*tenant.Tenant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("LookupTenant"); err != nil {
		return nil, err
	}
	t, ok := s.tenants[name]
	if !ok {
		return nil, fmt.Errorf("lookup tenant %s: %w", name, domain.ErrTenantNotFound)
	}
	return &t, nil
}

func (s *Store) CreateTenant(_ context.Context, req tenant.CreateRequest) (*tenant.Tenant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("CreateTenant"); err != nil {
		return nil, err
	}
	if _, ok := s.tenants[req.Name]; ok {
		return nil, fmt.Errorf("create tenant %s: %w", req.Name, domain.ErrConflict)
	}
	t := tenant.Tenant{Name: req.Name, Icon: req.Icon, CreatedAt: s.tick()}
	s.tenants[req.Name] = t
	return &t, nil
}

func (s *Store) DeleteTenant(_ context.Context, name string) (tenant.DeleteSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var sum tenant.DeleteSummary
	if err := s.enter("DeleteTenant"); err != nil {
		return sum, err
	}
	if _, ok := s.tenants[name]; !ok {
		return sum, fmt.Errorf("delete tenant %s: %w", name, domain.ErrTenantNotFound)
	}
	for id, d := range s.documents {
		if d.TenantName == name {
			delete(s.documents, id)
			sum.Documents++
		}
	}
	for k, c := range s.collections {
		if c.TenantName == name {
			delete(s.collections, k)
			sum.Collections++
		}
	}
	delete(s.tenants, name)
	return sum, nil
}

func (s *Store) ListTenants(_ context.Context) ([]tenant.Tenant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("ListTenants"); err != nil {
		return nil, err
	}
	out := make([]tenant.Tenant, 0, len(s.tenants))
	for _, t := range s.tenants {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (s *Store) ListTenantSummaries(ctx context.Context) ([]tenant.Summary, error) {
	tenants, err := s.ListTenants(ctx)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]tenant.Summary, 0, len(tenants))
	for _, t := range tenants {
		sum := tenant.Summary{Tenant: t}
		for _, c := range s.collections {
			if c.TenantName == t.Name {
				sum.CollectionCount++
			}
		}
		for _, d := range s.documents {
			if d.TenantName == t.Name {
				sum.DocumentCount++
			}
		}
		out = append(out, sum)
	}
	return out, nil
}

// --- Collections ---

func (s *Store) LookupCollection(_ context.Context, tenantName, name string) (*collection.Collection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("LookupCollection"); err != nil {
		return nil, err
	}
	c, ok := s.collections[collKey(tenantName, name)]
	if !ok {
		return nil, fmt.Errorf("lookup collection %s/%s: %w", tenantName, name, domain.ErrCollectionNotFound)
	}
	return &c, nil
}

func (s *Store) CreateCollection(_ context.Context, tenantName, name string) (*collection.Collection, bool, error) {
	if err := collection.ValidateName(name); err != nil {
		return nil, false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("CreateCollection"); err != nil {
		return nil, false, err
	}
	if _, ok := s.tenants[tenantName]; !ok {
		return nil, false, fmt.Errorf("create collection %s/%s: %w", tenantName, name, domain.ErrTenantNotFound)
	}
	if c, ok := s.collections[collKey(tenantName, name)]; ok {
		return &c, false, nil
	}
	s.nextCollID++
	c := collection.Collection{ID: s.nextCollID, TenantName: tenantName, Name: name, CreatedAt: s.tick()}
	s.collections[collKey(tenantName, name)] = c
	return &c, true, nil
}

func (s *Store) ListCollectionsWithCounts(_ context.Context, tenantName string) ([]collection.WithCount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("ListCollectionsWithCounts"); err != nil {
		return nil, err
	}
	out := []collection.WithCount{}
	for _, c := range s.collections {
		if c.TenantName != tenantName {
			continue
		}
		wc := collection.WithCount{Collection: c}
		for _, d := range s.documents {
			if d.TenantName == tenantName && d.Collection == c.Name {
				wc.DocumentCount++
			}
		}
		out = append(out, wc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) DeleteCollection(_ context.Context, tenantName, name string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("DeleteCollection"); err != nil {
		return 0, err
	}
	key := collKey(tenantName, name)
	if _, ok := s.collections[key]; !ok {
		return 0, fmt.Errorf("delete collection %s: %w", key, domain.ErrCollectionNotFound)
	}
	var removed int64
	for id, d := range s.documents {
		if d.TenantName == tenantName && d.Collection == name {
			delete(s.documents, id)
			removed++
		}
	}
	delete(s.collections, key)
	return removed, nil
}

// --- Documents ---

func (s *Store) CreateDocument(_ context.Context, scope document.Scope, data json.RawMessage) (*document.Document, error) {
	if err := document.ValidateData(data); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("CreateDocument"); err != nil {
		return nil, err
	}
	if _, ok := s.collections[collKey(scope.Tenant, scope.Collection)]; !ok {
		return nil, fmt.Errorf("create document in %s: %w", scope, domain.ErrCollectionNotFound)
	}
	s.nextDocID++
	now := s.tick()
	d := document.Document{
		ID:         s.nextDocID,
		TenantName: scope.Tenant,
		Collection: scope.Collection,
		Data:       append(json.RawMessage(nil), data...),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	s.documents[d.ID] = d
	return &d, nil
}

// find returns the document with id inside scope; s.mu must be held.
func (s *Store) find(scope document.Scope, id int64) (document.Document, bool) {
	d, ok := s.documents[id]
	if !ok || d.TenantName != scope.Tenant || d.Collection != scope.Collection {
		return document.Document{}, false
	}
	return d, true
}

func (s *Store) GetDocument(_ context.Context, scope document.Scope, id int64) (*document.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("GetDocument"); err != nil {
		return nil, err
	}
	d, ok := s.find(scope, id)
	if !ok {
		return nil, fmt.Errorf("get document %d in %s: %w", id, scope, domain.ErrDocumentNotFound)
	}
	return &d, nil
}

func (s *Store) ListDocuments(_ context.Context, scope document.Scope, req document.PageRequest) (document.Page, error) {	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("ListDocuments"); err != nil {
		return document.Page{}, err
	}
	var all []document.Document
	for _, d := range s.documents {
		if d.TenantName == scope.Tenant && d.Collection == scope.Collection {
			all = append(all, d)
		}
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.After(all[j].CreatedAt)
		}
		return all[i].ID > all[j].ID
	})
	if req.Limit < 0 || req.Offset < 0 {
		return document.Page{}, fmt.Errorf("list documents in %s: negative limit or offset", scope)
	}
	total := int64(len(all))
	var items []document.Document
	if req.Offset < len(all) {
		end := min(req.Offset+req.Limit, len(all))
		items = append(items, all[req.Offset:end]...)
	}
	return document.NewPage(items, total, req), nil
}

func (s *Store) UpdateDocument(_ context.Context, scope document.Scope, id int64, data json.RawMessage) (*document.Document, error) {
	if err := document.ValidateData(data); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("UpdateDocument"); err != nil {
		return nil, err
	}
	d, ok := s.find(scope, id)
	if !ok {
		return nil, fmt.Errorf("update document %d in %s: %w", id, scope, domain.ErrDocumentNotFound)
	}
	d.Data = append(json.RawMessage(nil), data...)
	d.UpdatedAt = s.tick()
	s.documents[id] = d
	return &d, nil
}

func (s *Store) DeleteDocument(_ context.Context, scope document.Scope, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("DeleteDocument"); err != nil {
		return err
	}
	if _, ok := s.find(scope, id); !ok {
		return fmt.Errorf("delete document %d in %s: %w", id, scope, domain.ErrDocumentNotFound)
	}
	delete(s.documents, id)
	return nil
}

func (s *Store) CountDocuments(_ context.Context, scope document.Scope) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("CountDocuments"); err != nil {
		return 0, err
	}
	var n int64
	for _, d := range s.documents {
		if d.TenantName == scope.Tenant && d.Collection == scope.Collection {
			n++
		}
	}
	return n, nil
}

func (s *Store) DeleteAllDocumentsForTenant(_ context.Context, tenantName string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("DeleteAllDocumentsForTenant"); err != nil {
		return 0, err
	}
	var n int64
	for id, d := range s.documents {
		if d.TenantName == tenantName {
			delete(s.documents, id)
			n++
		}
	}
	return n, nil
}
