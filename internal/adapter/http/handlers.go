package http

import (
	"github.com/Strob0t/TenantForge/internal/port/database"
	"github.com/Strob0t/TenantForge/internal/port/messagequeue"
	"github.com/Strob0t/TenantForge/internal/service"
)

// Handlers holds the HTTP handler dependencies.
type Handlers struct {
	Tenants     *service.TenantService
	Provision   *service.ProvisionService
	Resolver    *service.Resolver
	Collections *service.CollectionService
	Documents   *service.DocumentService

	Store database.Store     // health checks
	Queue messagequeue.Queue // nil when events are disabled

	BodyLimit int64 // max request body bytes
}

func (h *Handlers) bodyLimit() int64 {
	if h.BodyLimit > 0 {
		return h.BodyLimit
	}
	return 1 << 20
}
