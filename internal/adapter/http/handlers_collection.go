package http

import (
	"net/http"
	"time"

	"github.com/Strob0t/TenantForge/internal/domain/collection"
	"github.com/Strob0t/TenantForge/internal/service"
)

type collectionItem struct {
	Name          string    `json:"name"`
	CreatedAt     time.Time `json:"created_at"`
	DocumentCount int64     `json:"document_count"`
}

type collectionList struct {
	Data []collectionItem `json:"data"`
}

type collectionDeleted struct {
	Message          string `json:"message"`
	DocumentsDeleted int64  `json:"documents_deleted"`
}

// ListCollections handles GET /api
func (h *Handlers) ListCollections(w http.ResponseWriter, r *http.Request) {
	scope, ok := h.resolve(w, r, "", service.IntentRead)
	if !ok {
		return
	}
	cols, err := h.Collections.List(r.Context(), scope.Tenant)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	items := make([]collectionItem, 0, len(cols))
	for i := range cols {
		items = append(items, collectionItem{
			Name:          cols[i].Name,
			CreatedAt:     cols[i].CreatedAt,
			DocumentCount: cols[i].DocumentCount,
		})
	}
	writeJSON(w, http.StatusOK, collectionList{Data: items})
}

// CreateCollection handles POST /api. An existing collection is returned
// with 200 instead of 201.
func (h *Handlers) CreateCollection(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[collection.CreateRequest](w, r, h.bodyLimit())
	if !ok {
		return
	}
	if err := collection.ValidateName(req.Name); err != nil {
		writeDomainError(w, err)
		return
	}
	scope, ok := h.resolve(w, r, "", service.IntentRead)
	if !ok {
		return
	}

	c, created, err := h.Provision.ProvisionCollection(r.Context(), scope.Tenant, req.Name)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
		w.Header().Set("Location", "/api/"+c.Name)
	}
	writeJSON(w, status, c)
}

// DeleteCollection handles DELETE /api/{collection}
func (h *Handlers) DeleteCollection(w http.ResponseWriter, r *http.Request) {
	scope, ok := h.resolve(w, r, urlParam(r, "collection"), service.IntentRead)
	if !ok {
		return
	}
	removed, err := h.Collections.Delete(r.Context(), scope)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, collectionDeleted{
		Message:          "Collection deleted successfully",
		DocumentsDeleted: removed,
	})
}
