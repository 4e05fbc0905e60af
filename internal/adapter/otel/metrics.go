package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "tenantforge"

// Metrics holds all TenantForge metric instruments.
type Metrics struct {
	TenantsProvisioned metric.Int64Counter
	TenantsDeleted     metric.Int64Counter
	CollectionsCreated metric.Int64Counter
	DocumentWrites     metric.Int64Counter
	ResolveDuration    metric.Float64Histogram
	EventsDropped      metric.Int64Counter
}

// NewMetrics creates all metric instruments on the global meter provider.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)
	m := &Metrics{}
	var err error

	m.TenantsProvisioned, err = meter.Int64Counter("tenantforge.tenants.provisioned",
		metric.WithDescription("Tenant provisioning attempts by outcome"))
	if err != nil {
		return nil, err
	}

	m.TenantsDeleted, err = meter.Int64Counter("tenantforge.tenants.deleted",
		metric.WithDescription("Number of tenants deleted"))
	if err != nil {
		return nil, err
	}

	m.CollectionsCreated, err = meter.Int64Counter("tenantforge.collections.created",
		metric.WithDescription("Number of collections created, explicitly or on first write"))
	if err != nil {
		return nil, err
	}

	m.DocumentWrites, err = meter.Int64Counter("tenantforge.documents.writes",
		metric.WithDescription("Document mutations by operation"))
	if err != nil {
		return nil, err
	}

	m.ResolveDuration, err = meter.Float64Histogram("tenantforge.resolve.duration_seconds",
		metric.WithDescription("Tenant and collection resolution latency in seconds"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, err
	}

	m.EventsDropped, err = meter.Int64Counter("tenantforge.events.dropped",
		metric.WithDescription("Change events that could not be published"))
	if err != nil {
		return nil, err
	}

	return m, nil
}

// RecordProvision counts one tenant provisioning attempt.
func (m *Metrics) RecordProvision(ctx context.Context, outcome string) {
	if m == nil || m.TenantsProvisioned == nil {
		return
	}
	m.TenantsProvisioned.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

// RecordTenantDeleted counts one tenant deletion.
func (m *Metrics) RecordTenantDeleted(ctx context.Context) {
	if m == nil || m.TenantsDeleted == nil {
		return
	}
	m.TenantsDeleted.Add(ctx, 1)
}

// RecordCollectionCreated counts one newly created collection.
func (m *Metrics) RecordCollectionCreated(ctx context.Context, auto bool) {
	if m == nil || m.CollectionsCreated == nil {
		return
	}
	m.CollectionsCreated.Add(ctx, 1, metric.WithAttributes(attribute.Bool("auto", auto)))
}

// RecordDocumentWrite counts one document mutation.
func (m *Metrics) RecordDocumentWrite(ctx context.Context, op string) {
	if m == nil || m.DocumentWrites == nil {
		return
	}
	m.DocumentWrites.Add(ctx, 1, metric.WithAttributes(attribute.String("op", op)))
}

// RecordResolve records how long one resolution took.
func (m *Metrics) RecordResolve(ctx context.Context, seconds float64, result string) {
	if m == nil || m.ResolveDuration == nil {
		return
	}
	m.ResolveDuration.Record(ctx, seconds, metric.WithAttributes(attribute.String("result", result)))
}

// RecordEventDropped counts one change event that was not published.
func (m *Metrics) RecordEventDropped(ctx context.Context, eventType string) {
	if m == nil || m.EventsDropped == nil {
		return
	}
	m.EventsDropped.Add(ctx, 1, metric.WithAttributes(attribute.String("type", eventType)))
}
