// Package database defines the database store port (interface).
package database

import (
	"context"
	"encoding/json"

	"github.com/Strob0t/TenantForge/internal/domain/collection"
	"github.com/Strob0t/TenantForge/internal/domain/document"
	"github.com/Strob0t/TenantForge/internal/domain/tenant"
)

// TenantStore is the tenant registry.
type TenantStore interface {
	LookupTenant(ctx context.Context, name string) (*tenant.Tenant, error)
	CreateTenant(ctx context.Context, req tenant.CreateRequest) (*tenant.Tenant, error)
	DeleteTenant(ctx context.Context, name string) (tenant.DeleteSummary, error)
	ListTenants(ctx context.Context) ([]tenant.Tenant, error)
	ListTenantSummaries(ctx context.Context) ([]tenant.Summary, error)
}

// CollectionStore is the per-tenant collection registry.
type CollectionStore interface {
	LookupCollection(ctx context.Context, tenantName, name string) (*collection.Collection, error)
	// CreateCollection returns the existing row with created=false on conflict.
	CreateCollection(ctx context.Context, tenantName, name string) (c *collection.Collection, created bool, err error)
	ListCollectionsWithCounts(ctx context.Context, tenantName string) ([]collection.WithCount, error)
	DeleteCollection(ctx context.Context, tenantName, name string) (documentsDeleted int64, err error)
}

// DocumentStore performs schema-less document CRUD within a scope.
type DocumentStore interface {
	CreateDocument(ctx context.Context, scope document.Scope, data json.RawMessage) (*document.Document, error)
	GetDocument(ctx context.Context, scope document.Scope, id int64) (*document.Document, error)
	ListDocuments(ctx context.Context, scope document.Scope, page document.PageRequest) (document.Page, error)
	UpdateDocument(ctx context.Context, scope document.Scope, id int64, data json.RawMessage) (*document.Document, error)
	DeleteDocument(ctx context.Context, scope document.Scope, id int64) error
	CountDocuments(ctx context.Context, scope document.Scope) (int64, error)
	DeleteAllDocumentsForTenant(ctx context.Context, tenantName string) (int64, error)
}

// Store is the port interface for database operations.
type Store interface {
	TenantStore
	CollectionStore
	DocumentStore
	Ping(ctx context.Context) error
}
