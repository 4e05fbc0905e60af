package http

import (
	"net/http"

	"github.com/Strob0t/TenantForge/internal/domain/document"
	"github.com/Strob0t/TenantForge/internal/middleware"
	"github.com/Strob0t/TenantForge/internal/service"
)

// resolve maps the request host and the collection path segment onto a
// document scope. On failure the error response is already written.
// Handlers call it only after their own input checks have passed.
func (h *Handlers) resolve(w http.ResponseWriter, r *http.Request, collectionName string, intent service.Intent) (document.Scope, bool) {
	scope, err := h.Resolver.Resolve(r.Context(), service.ResolveRequest{
		Tenant:     middleware.TenantFromContext(r.Context()),
		Collection: collectionName,
		Intent:     intent,
	})
	if err != nil {
		writeDomainError(w, err)
		return scope, false
	}
	return scope, true
}
