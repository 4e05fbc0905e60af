package http

import (
	"net/http"
	"strconv"

	"github.com/Strob0t/TenantForge/internal/domain/document"
	"github.com/Strob0t/TenantForge/internal/service"
)

type pagination struct {
	Total   int64 `json:"total"`
	Limit   int   `json:"limit"`
	Offset  int   `json:"offset"`
	HasMore bool  `json:"hasMore"`
}

type documentList struct {
	Data       []document.Document `json:"data"`
	Pagination pagination          `json:"pagination"`
}

// ListDocuments handles GET /api/{collection}
func (h *Handlers) ListDocuments(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, err := document.ParsePageRequest(q.Get("limit"), q.Get("offset"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	scope, ok := h.resolve(w, r, urlParam(r, "collection"), service.IntentRead)
	if !ok {
		return
	}

	res, err := h.Documents.List(r.Context(), scope, page)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, documentList{
		Data: res.Items,
		Pagination: pagination{
			Total:   res.Total,
			Limit:   res.Limit,
			Offset:  res.Offset,
			HasMore: res.HasMore,
		},
	})
}

// CreateDocument handles POST /api/{collection}. The collection is created
// on first write; an invalid body never creates it.
func (h *Handlers) CreateDocument(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r, h.bodyLimit())
	if !ok {
		return
	}
	if err := document.ValidateData(body); err != nil {
		writeDomainError(w, err)
		return
	}
	scope, ok := h.resolve(w, r, urlParam(r, "collection"), service.IntentWrite)
	if !ok {
		return
	}

	d, err := h.Documents.Create(r.Context(), scope, body)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	w.Header().Set("Location", "/api/"+scope.Collection+"/"+strconv.FormatInt(d.ID, 10))
	writeJSON(w, http.StatusCreated, d)
}

// GetDocument handles GET /api/{collection}/{id}
func (h *Handlers) GetDocument(w http.ResponseWriter, r *http.Request) {
	id, err := document.ParseID(urlParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	scope, ok := h.resolve(w, r, urlParam(r, "collection"), service.IntentRead)
	if !ok {
		return
	}

	d, err := h.Documents.Get(r.Context(), scope, id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// UpdateDocument handles PUT /api/{collection}/{id}
func (h *Handlers) UpdateDocument(w http.ResponseWriter, r *http.Request) {
	id, err := document.ParseID(urlParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	body, ok := readBody(w, r, h.bodyLimit())
	if !ok {
		return
	}
	if err := document.ValidateData(body); err != nil {
		writeDomainError(w, err)
		return
	}
	scope, ok := h.resolve(w, r, urlParam(r, "collection"), service.IntentRead)
	if !ok {
		return
	}

	d, err := h.Documents.Update(r.Context(), scope, id, body)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// DeleteDocument handles DELETE /api/{collection}/{id}
func (h *Handlers) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	id, err := document.ParseID(urlParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	scope, ok := h.resolve(w, r, urlParam(r, "collection"), service.IntentRead)
	if !ok {
		return
	}

	if err := h.Documents.Delete(r.Context(), scope, id); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Document deleted successfully"})
}
