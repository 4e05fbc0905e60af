package http

import (
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Strob0t/TenantForge/internal/middleware"
	"github.com/Strob0t/TenantForge/internal/port/cache"
)

// RouteOptions configures the optional middleware around the APIs.
// Nil fields disable the corresponding middleware.
type RouteOptions struct {
	Metrics        *PrometheusMetrics
	RateLimiter    *middleware.RateLimiter
	Idempotency    cache.Cache
	IdempotencyTTL time.Duration
}

// MountRoutes registers all routes on r. The tenant middleware must already
// be installed on r; the tenant API reads the tenant from the request context.
func MountRoutes(r chi.Router, h *Handlers, opts RouteOptions) {
	if opts.Metrics != nil {
		r.Use(opts.Metrics.Middleware)
		r.Handle("/metrics", opts.Metrics.Handler())
	}

	r.Get("/health", h.Health)

	limited := r.With()
	if opts.RateLimiter != nil {
		limited = limited.With(opts.RateLimiter.Handler)
	}
	if opts.Idempotency != nil {
		limited = limited.With(middleware.Idempotency(opts.Idempotency, opts.IdempotencyTTL))
	}

	// Tenant API: the host selects the tenant.
	limited.Route("/api", func(r chi.Router) {
		r.Get("/", h.ListCollections)
		r.Post("/", h.CreateCollection)

		r.Get("/{collection}", h.ListDocuments)
		r.Post("/{collection}", h.CreateDocument)
		r.Delete("/{collection}", h.DeleteCollection)

		r.Get("/{collection}/{id}", h.GetDocument)
		r.Put("/{collection}/{id}", h.UpdateDocument)
		r.Delete("/{collection}/{id}", h.DeleteDocument)
	})

	// Admin API: tenant provisioning on the root domain.
	limited.Route("/admin/tenants", func(r chi.Router) {
		r.Get("/", h.ListTenants)
		r.Post("/", h.CreateTenant)
		r.Get("/{name}", h.GetTenant)
		r.Delete("/{name}", h.DeleteTenant)
	})
}
