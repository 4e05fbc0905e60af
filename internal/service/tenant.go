// Package service implements tenant provisioning, scope resolution and
// document operations on top of the storage, cache and queue ports.
package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/Strob0t/TenantForge/internal/domain/collection"
	"github.com/Strob0t/TenantForge/internal/domain/tenant"
	"github.com/Strob0t/TenantForge/internal/port/cache"
	"github.com/Strob0t/TenantForge/internal/port/database"
)

// TenantService is the read side of the tenant registry. Lookups go through
// the cache when one is configured; only existing tenants are cached, so a
// tenant created after a miss is visible immediately.
type TenantService struct {
	store database.Store
	cache cache.Cache
	ttl   time.Duration
}

// NewTenantService creates a new TenantService. c may be nil.
func NewTenantService(store database.Store, c cache.Cache, ttl time.Duration) *TenantService {
	return &TenantService{store: store, cache: c, ttl: ttl}
}

// TenantDetails is a tenant with its collections and their document counts.
type TenantDetails struct {
	tenant.Tenant
	Collections []collection.WithCount `json:"collections"`
}

// Lookup returns the named tenant or an error matching domain.ErrNotFound.
func (s *TenantService) Lookup(ctx context.Context, name string) (*tenant.Tenant, error) {
	key := cache.TenantKey(name)
	if s.cache != nil {
		if raw, ok, err := s.cache.Get(ctx, key); err != nil {
			slog.WarnContext(ctx, "tenant cache get failed", "tenant", name, "error", err)
		} else if ok {
			var t tenant.Tenant
			if err := json.Unmarshal(raw, &t); err == nil {
				return &t, nil
			}
			_ = s.cache.Delete(ctx, key)
		}
	}

	t, err := s.store.LookupTenant(ctx, name)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if raw, err := json.Marshal(t); err == nil {
			if err := s.cache.Set(ctx, key, raw, s.ttl); err != nil {
				slog.WarnContext(ctx, "tenant cache set failed", "tenant", name, "error", err)
			}
		}
	}
	return t, nil
}

// Exists reports whether name is a provisioned tenant. Storage errors count
// as unknown.
func (s *TenantService) Exists(ctx context.Context, name string) bool {
	_, err := s.Lookup(ctx, name)
	return err == nil
}

// Invalidate removes the tenant from every cache tier.
func (s *TenantService) Invalidate(ctx context.Context, name string) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Delete(ctx, cache.TenantKey(name))
}

// EvictLocal removes the tenant from the in-process cache tier only.
func (s *TenantService) EvictLocal(ctx context.Context, name string) error {
	if s.cache == nil {
		return nil
	}
	if local, ok := s.cache.(cache.Local); ok {
		return local.DeleteLocal(ctx, cache.TenantKey(name))
	}
	return s.cache.Delete(ctx, cache.TenantKey(name))
}

// List returns all tenants, newest first.
func (s *TenantService) List(ctx context.Context) ([]tenant.Tenant, error) {
	return s.store.ListTenants(ctx)
}

// Summaries returns all tenants, newest first, with collection and document counts.
func (s *TenantService) Summaries(ctx context.Context) ([]tenant.Summary, error) {
	return s.store.ListTenantSummaries(ctx)
}

// Details returns the tenant with its collections.
func (s *TenantService) Details(ctx context.Context, name string) (*TenantDetails, error) {
	t, err := s.store.LookupTenant(ctx, name)
	if err != nil {
		return nil, err
	}
	cols, err := s.store.ListCollectionsWithCounts(ctx, name)
	if err != nil {
		return nil, err
	}
	return &TenantDetails{Tenant: *t, Collections: cols}, nil
}
