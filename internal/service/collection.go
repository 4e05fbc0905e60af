package service

import (
	"context"
	"log/slog"

	"github.com/Strob0t/TenantForge/internal/domain/collection"
	"github.com/Strob0t/TenantForge/internal/domain/document"
	"github.com/Strob0t/TenantForge/internal/domain/event"
	"github.com/Strob0t/TenantForge/internal/port/database"
)

// CollectionService lists and removes a tenant's collections. Creation goes
// through ProvisionService.
type CollectionService struct {
	store  database.CollectionStore
	events *EventPublisher
}

// NewCollectionService creates a CollectionService.
func NewCollectionService(store database.CollectionStore) *CollectionService {
	return &CollectionService{store: store}
}

// SetEvents attaches the change event publisher.
func (s *CollectionService) SetEvents(p *EventPublisher) {
	s.events = p
}

// List returns the tenant's collections, oldest first, with live document counts.
func (s *CollectionService) List(ctx context.Context, tenantName string) ([]collection.WithCount, error) {
	return s.store.ListCollectionsWithCounts(ctx, tenantName)
}

// Delete removes the resolved collection and its documents and returns how
// many documents were removed.
func (s *CollectionService) Delete(ctx context.Context, scope document.Scope) (int64, error) {
	removed, err := s.store.DeleteCollection(ctx, scope.Tenant, scope.Collection)
	if err != nil {
		return 0, err
	}
	slog.InfoContext(ctx, "collection deleted", "tenant", scope.Tenant, "collection", scope.Collection, "documents", removed)
	s.events.Publish(ctx, event.Event{Type: event.TypeCollectionDeleted, Tenant: scope.Tenant, Collection: scope.Collection})
	return removed, nil
}
