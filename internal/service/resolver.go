package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	cfotel "github.com/Strob0t/TenantForge/internal/adapter/otel"
	"github.com/Strob0t/TenantForge/internal/domain"
	"github.com/Strob0t/TenantForge/internal/domain/collection"
	"github.com/Strob0t/TenantForge/internal/domain/document"
	"github.com/Strob0t/TenantForge/internal/domain/tenant"
	"github.com/Strob0t/TenantForge/internal/port/database"
)

// Intent states whether a request may create its collection.
type Intent int

const (
	// IntentRead requires the collection to exist.
	IntentRead Intent = iota
	// IntentWrite creates a missing collection.
	IntentWrite
)

func (i Intent) String() string {
	if i == IntentWrite {
		return "write"
	}
	return "read"
}

// ResolveRequest is the routing information extracted from a request.
type ResolveRequest struct {
	Tenant     string
	Collection string // empty for tenant-level operations
	Intent     Intent
}

// Resolver maps a request's tenant and collection onto a document scope.
type Resolver struct {
	tenants     *TenantService
	collections database.CollectionStore
	provision   *ProvisionService
	metrics     *cfotel.Metrics
}

// NewResolver creates a Resolver.
func NewResolver(tenants *TenantService, collections database.CollectionStore, provision *ProvisionService) *Resolver {
	return &Resolver{tenants: tenants, collections: collections, provision: provision}
}

// SetMetrics attaches metric instruments.
func (r *Resolver) SetMetrics(m *cfotel.Metrics) {
	r.metrics = m
}

// Resolve runs the resolution pipeline:
//  1. an empty tenant is domain.ErrNoTenant
//  2. a malformed or unregistered tenant is domain.ErrTenantNotFound
//  3. a named collection must be well formed; when it does not exist it is
//     created for IntentWrite and domain.ErrCollectionNotFound otherwise
func (r *Resolver) Resolve(ctx context.Context, req ResolveRequest) (scope document.Scope, err error) {
	ctx, span := cfotel.StartResolveSpan(ctx, req.Tenant, req.Collection, req.Intent.String())
	start := time.Now()
	defer func() {
		cfotel.EndSpan(span, err)
		r.metrics.RecordResolve(ctx, time.Since(start).Seconds(), resolveResult(err))
	}()

	if req.Tenant == "" {
		return scope, domain.ErrNoTenant
	}
	if !tenant.ValidName(req.Tenant) {
		return scope, fmt.Errorf("resolve %q: %w", req.Tenant, domain.ErrTenantNotFound)
	}
	if _, err := r.tenants.Lookup(ctx, req.Tenant); err != nil {
		return scope, err
	}
	scope.Tenant = req.Tenant

	if req.Collection == "" {
		return scope, nil
	}
	if err := collection.ValidateName(req.Collection); err != nil {
		return document.Scope{}, err
	}

	_, err = r.collections.LookupCollection(ctx, req.Tenant, req.Collection)
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrNotFound) && req.Intent == IntentWrite:
		if _, _, err := r.provision.provisionCollection(ctx, req.Tenant, req.Collection, true); err != nil {
			return document.Scope{}, err
		}
	default:
		return document.Scope{}, err
	}

	scope.Collection = req.Collection
	return scope, nil
}

func resolveResult(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrNoTenant):
		return "no_tenant"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrValidation):
		return "invalid"
	}
	return "error"
}
