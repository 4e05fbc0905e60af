package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	cfotel "github.com/Strob0t/TenantForge/internal/adapter/otel"
	"github.com/Strob0t/TenantForge/internal/domain/event"
	"github.com/Strob0t/TenantForge/internal/logger"
	"github.com/Strob0t/TenantForge/internal/port/messagequeue"
	"github.com/Strob0t/TenantForge/internal/resilience"
)

// publishTimeout bounds how long a mutation waits for the event bus.
const publishTimeout = 2 * time.Second

// EventPublisher emits change events after successful mutations.
// A publisher without a queue, including the nil *EventPublisher, drops every
// event silently. Publish failures are logged and never reach the caller.
type EventPublisher struct {
	queue   messagequeue.Queue
	breaker *resilience.Breaker
	metrics *cfotel.Metrics
	now     func() time.Time
}

// NewEventPublisher creates a publisher on queue. queue may be nil.
func NewEventPublisher(queue messagequeue.Queue, breaker *resilience.Breaker) *EventPublisher {
	return &EventPublisher{queue: queue, breaker: breaker, now: time.Now}
}

// SetMetrics attaches metric instruments for dropped events.
func (p *EventPublisher) SetMetrics(m *cfotel.Metrics) {
	p.metrics = m
}

// Publish stamps ev with an id, time and request id and sends it on the
// subject for its type.
func (p *EventPublisher) Publish(ctx context.Context, ev event.Event) {
	if p == nil || p.queue == nil {
		return
	}
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	if ev.At.IsZero() {
		ev.At = p.now().UTC()
	}
	if ev.RequestID == "" {
		ev.RequestID = logger.RequestID(ctx)
	}

	data, err := json.Marshal(ev)
	if err != nil {
		slog.ErrorContext(ctx, "marshal event", "type", ev.Type, "error", err)
		return
	}

	// The request may already be finishing; the event must still go out.
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	send := func() error { return p.queue.Publish(pubCtx, ev.Type.Subject(), data) }
	if p.breaker != nil {
		err = p.breaker.Execute(send)
	} else {
		err = send()
	}
	if err != nil {
		slog.WarnContext(ctx, "event publish failed", "type", ev.Type, "tenant", ev.Tenant, "error", err)
		p.metrics.RecordEventDropped(ctx, string(ev.Type))
	}
}

// SubscribeTenantEvictions evicts deleted tenants from this replica's local
// cache when any replica publishes tenant.deleted. The returned function
// stops the subscription.
func SubscribeTenantEvictions(ctx context.Context, queue messagequeue.Queue, tenants *TenantService) (func(), error) {
	return queue.Subscribe(ctx, event.TypeTenantDeleted.Subject(), func(ctx context.Context, _ string, data []byte) error {
		var ev event.Event
		if err := json.Unmarshal(data, &ev); err != nil {
			// Malformed events are dropped rather than redelivered forever.
			slog.WarnContext(ctx, "discarding malformed tenant event", "error", err)
			return nil
		}
		if ev.Tenant == "" {
			return nil
		}
		if err := tenants.EvictLocal(ctx, ev.Tenant); err != nil {
			return fmt.Errorf("evict tenant %s: %w", ev.Tenant, err)
		}
		slog.DebugContext(ctx, "tenant evicted from local cache", "tenant", ev.Tenant)
		return nil
	})
}
