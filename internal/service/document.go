package service

import (
	"context"
	"encoding/json"

	cfotel "github.com/Strob0t/TenantForge/internal/adapter/otel"
	"github.com/Strob0t/TenantForge/internal/domain/document"
	"github.com/Strob0t/TenantForge/internal/domain/event"
	"github.com/Strob0t/TenantForge/internal/port/database"
)

// DocumentService performs document CRUD within a resolved scope.
type DocumentService struct {
	store   database.DocumentStore
	events  *EventPublisher
	metrics *cfotel.Metrics
}

// NewDocumentService creates a DocumentService.
func NewDocumentService(store database.DocumentStore) *DocumentService {
	return &DocumentService{store: store}
}

// SetEvents attaches the change event publisher.
func (s *DocumentService) SetEvents(p *EventPublisher) {
	s.events = p
}

// SetMetrics attaches metric instruments.
func (s *DocumentService) SetMetrics(m *cfotel.Metrics) {
	s.metrics = m
}

// Create stores data, which must be a JSON object, as a new document.
func (s *DocumentService) Create(ctx context.Context, scope document.Scope, data json.RawMessage) (*document.Document, error) {
	if err := document.ValidateData(data); err != nil {
		return nil, err
	}
	d, err := s.store.CreateDocument(ctx, scope, data)
	if err != nil {
		return nil, err
	}
	s.written(ctx, scope, d.ID, "create", event.TypeDocumentCreated)
	return d, nil
}

// Get returns one document of the scope.
func (s *DocumentService) Get(ctx context.Context, scope document.Scope, id int64) (*document.Document, error) {
	return s.store.GetDocument(ctx, scope, id)
}

// List returns one page of the scope's documents, newest first.
func (s *DocumentService) List(ctx context.Context, scope document.Scope, page document.PageRequest) (document.Page, error) {
	if err := page.Validate(); err != nil {
		return document.Page{}, err
	}
	return s.store.ListDocuments(ctx, scope, page)
}

// Update replaces the document's data entirely.
func (s *DocumentService) Update(ctx context.Context, scope document.Scope, id int64, data json.RawMessage) (*document.Document, error) {
	if err := document.ValidateData(data); err != nil {
		return nil, err
	}
	d, err := s.store.UpdateDocument(ctx, scope, id, data)
	if err != nil {
		return nil, err
	}
	s.written(ctx, scope, id, "update", event.TypeDocumentUpdated)
	return d, nil
}

// Delete removes the document. A missing document matches domain.ErrNotFound.
func (s *DocumentService) Delete(ctx context.Context, scope document.Scope, id int64) error {
	if err := s.store.DeleteDocument(ctx, scope, id); err != nil {
		return err
	}
	s.written(ctx, scope, id, "delete", event.TypeDocumentDeleted)
	return nil
}

// Count returns the number of documents in the scope.
func (s *DocumentService) Count(ctx context.Context, scope document.Scope) (int64, error) {
	return s.store.CountDocuments(ctx, scope)
}

func (s *DocumentService) written(ctx context.Context, scope document.Scope, id int64, op string, typ event.Type) {
	s.metrics.RecordDocumentWrite(ctx, op)
	s.events.Publish(ctx, event.Event{Type: typ, Tenant: scope.Tenant, Collection: scope.Collection, DocumentID: id})
}
