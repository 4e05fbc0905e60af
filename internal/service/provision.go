package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	cfotel "github.com/Strob0t/TenantForge/internal/adapter/otel"
	"github.com/Strob0t/TenantForge/internal/config"
	"github.com/Strob0t/TenantForge/internal/domain"
	"github.com/Strob0t/TenantForge/internal/domain/collection"
	"github.com/Strob0t/TenantForge/internal/domain/event"
	"github.com/Strob0t/TenantForge/internal/domain/tenant"
	"github.com/Strob0t/TenantForge/internal/port/database"
)

// Outcome is the result kind of a provisioning attempt.
type Outcome string

const (
	OutcomeCreated  Outcome = "created"
	OutcomeRejected Outcome = "rejected"
)

// MessageTenantTaken is the rejection reason for an existing tenant name.
const MessageTenantTaken = "This subdomain is already taken"

// ProvisionResult describes a tenant provisioning attempt. A rejected
// attempt carries the user-facing Reason and the offending Field; storage
// failures are returned as errors instead.
type ProvisionResult struct {
	Outcome     Outcome        `json:"outcome"`
	Tenant      *tenant.Tenant `json:"tenant,omitempty"`
	Reason      string         `json:"reason,omitempty"`
	Field       string         `json:"field,omitempty"`
	Conflict    bool           `json:"-"`
	RedirectURL string         `json:"redirect_url,omitempty"`
}

// DeleteOutcome is the result kind of a tenant deletion.
type DeleteOutcome string

const (
	DeleteDeleted  DeleteOutcome = "deleted"
	DeleteNotFound DeleteOutcome = "not_found"
)

// DeleteResult describes a tenant deletion.
type DeleteResult struct {
	Outcome DeleteOutcome        `json:"outcome"`
	Summary tenant.DeleteSummary `json:"summary"`
}

// ProvisionService creates and removes tenants and creates collections.
type ProvisionService struct {
	store      database.Store
	tenants    *TenantService
	events     *EventPublisher
	metrics    *cfotel.Metrics
	rootDomain string
	protocol   string
}

// NewProvisionService creates a ProvisionService. Redirect URLs are built
// from the server's protocol and root domain.
func NewProvisionService(store database.Store, tenants *TenantService, server config.Server) *ProvisionService {
	return &ProvisionService{
		store:      store,
		tenants:    tenants,
		rootDomain: server.RootDomain,
		protocol:   server.Protocol,
	}
}

// SetEvents attaches the change event publisher.
func (s *ProvisionService) SetEvents(p *EventPublisher) {
	s.events = p
}

// SetMetrics attaches metric instruments.
func (s *ProvisionService) SetMetrics(m *cfotel.Metrics) {
	s.metrics = m
}

// TenantURL returns the address of the tenant's subdomain.
func (s *ProvisionService) TenantURL(name string) string {
	return s.protocol + "://" + name + "." + s.rootDomain
}

func rejected(err error) ProvisionResult {
	var ve *domain.ValidationError
	res := ProvisionResult{Outcome: OutcomeRejected, Reason: domain.ValidationMessage(err)}
	if errors.As(err, &ve) {
		res.Field = ve.Field
	}
	return res
}

// ProvisionTenant validates req and creates the tenant. The name is never
// rewritten: a name that differs from its sanitized form is rejected.
// Exactly one of any number of concurrent attempts on a name is Created.
func (s *ProvisionService) ProvisionTenant(ctx context.Context, req tenant.CreateRequest) (res ProvisionResult, err error) {
	ctx, span := cfotel.StartProvisionSpan(ctx, "tenant", req.Name)
	defer func() {
		cfotel.EndSpan(span, err)
		if err == nil {
			s.metrics.RecordProvision(ctx, string(res.Outcome))
		}
	}()

	if req.Name == "" {
		return rejected(tenant.ValidateName(req.Name)), nil
	}
	if err := tenant.ValidateIcon(req.Icon); err != nil {
		return rejected(err), nil
	}
	if err := tenant.ValidateName(req.Name); err != nil {
		return rejected(err), nil
	}

	taken := ProvisionResult{Outcome: OutcomeRejected, Reason: MessageTenantTaken, Field: "name", Conflict: true}
	switch _, lookupErr := s.store.LookupTenant(ctx, req.Name); {
	case lookupErr == nil:
		return taken, nil
	case !errors.Is(lookupErr, domain.ErrNotFound):
		return ProvisionResult{}, fmt.Errorf("provision tenant %s: %w", req.Name, lookupErr)
	}

	t, err := s.store.CreateTenant(ctx, req)
	if errors.Is(err, domain.ErrConflict) {
		return taken, nil
	}
	if err != nil {
		return ProvisionResult{}, fmt.Errorf("provision tenant %s: %w", req.Name, err)
	}

	slog.InfoContext(ctx, "tenant provisioned", "tenant", t.Name)
	s.events.Publish(ctx, event.Event{Type: event.TypeTenantCreated, Tenant: t.Name})
	return ProvisionResult{Outcome: OutcomeCreated, Tenant: t, RedirectURL: s.TenantURL(t.Name)}, nil
}

// ProvisionCollection creates the named collection for tenantName, or returns
// the existing one with created=false. The tenant must already exist.
func (s *ProvisionService) ProvisionCollection(ctx context.Context, tenantName, name string) (*collection.Collection, bool, error) {
	return s.provisionCollection(ctx, tenantName, name, false)
}

// provisionCollection is ProvisionCollection; auto marks creation on first write.
func (s *ProvisionService) provisionCollection(ctx context.Context, tenantName, name string, auto bool) (c *collection.Collection, created bool, err error) {
	ctx, span := cfotel.StartProvisionSpan(ctx, "collection", tenantName)
	defer func() { cfotel.EndSpan(span, err) }()

	if err := collection.ValidateName(name); err != nil {
		return nil, false, err
	}
	c, created, err = s.store.CreateCollection(ctx, tenantName, name)
	if err != nil {
		return nil, false, err
	}
	if created {
		slog.InfoContext(ctx, "collection provisioned", "tenant", tenantName, "collection", name, "auto", auto)
		s.metrics.RecordCollectionCreated(ctx, auto)
		s.events.Publish(ctx, event.Event{Type: event.TypeCollectionCreated, Tenant: tenantName, Collection: name})
	}
	return c, created, nil
}

// DeleteTenant removes the tenant with all its collections and documents and
// evicts it from caches. A missing tenant is reported as DeleteNotFound, not
// as an error.
func (s *ProvisionService) DeleteTenant(ctx context.Context, name string) (res DeleteResult, err error) {
	ctx, span := cfotel.StartProvisionSpan(ctx, "delete_tenant", name)
	defer func() { cfotel.EndSpan(span, err) }()

	sum, err := s.store.DeleteTenant(ctx, name)
	if errors.Is(err, domain.ErrNotFound) {
		return DeleteResult{Outcome: DeleteNotFound}, nil
	}
	if err != nil {
		return DeleteResult{}, fmt.Errorf("delete tenant %s: %w", name, err)
	}

	if err := s.tenants.Invalidate(ctx, name); err != nil {
		slog.WarnContext(ctx, "tenant cache invalidation failed", "tenant", name, "error", err)
	}
	slog.InfoContext(ctx, "tenant deleted", "tenant", name,
		"collections", sum.Collections, "documents", sum.Documents)
	s.metrics.RecordTenantDeleted(ctx)
	s.events.Publish(ctx, event.Event{Type: event.TypeTenantDeleted, Tenant: name})
	return DeleteResult{Outcome: DeleteDeleted, Summary: sum}, nil
}
