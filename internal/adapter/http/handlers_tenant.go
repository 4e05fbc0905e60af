package http

import (
	"log/slog"
	"mime"
	"net/http"

	"github.com/Strob0t/TenantForge/internal/domain/tenant"
	"github.com/Strob0t/TenantForge/internal/service"
)

type tenantCreated struct {
	Success     bool           `json:"success"`
	Tenant      *tenant.Tenant `json:"tenant"`
	RedirectURL string         `json:"redirect_url"`
}

// tenantRejected echoes the submitted fields so a form can be re-rendered.
type tenantRejected struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Field   string `json:"field,omitempty"`
	Name    string `json:"name"`
	Icon    string `json:"icon"`
}

type tenantDeleted struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	tenant.DeleteSummary
}

type actionFailed struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// ListTenants handles GET /admin/tenants
func (h *Handlers) ListTenants(w http.ResponseWriter, r *http.Request) {
	handleList(h.Tenants.Summaries)(w, r)
}

// GetTenant handles GET /admin/tenants/{name}
func (h *Handlers) GetTenant(w http.ResponseWriter, r *http.Request) {
	handleGet("name", h.Tenants.Details)(w, r)
}

// CreateTenant handles POST /admin/tenants with a JSON or form body.
func (h *Handlers) CreateTenant(w http.ResponseWriter, r *http.Request) {
	req, ok := h.readTenantRequest(w, r)
	if !ok {
		return
	}

	res, err := h.Provision.ProvisionTenant(r.Context(), req)
	if err != nil {
		slog.ErrorContext(r.Context(), "create tenant failed", "tenant", req.Name, "error", err)
		writeJSON(w, http.StatusInternalServerError, tenantRejected{
			Error: "Failed to create tenant. Please try again.",
			Name:  req.Name,
			Icon:  req.Icon,
		})
		return
	}

	if res.Outcome == service.OutcomeRejected {
		status := http.StatusBadRequest
		if res.Conflict {
			status = http.StatusConflict
		}
		writeJSON(w, status, tenantRejected{
			Error: res.Reason,
			Field: res.Field,
			Name:  req.Name,
			Icon:  req.Icon,
		})
		return
	}

	w.Header().Set("Location", res.RedirectURL)
	writeJSON(w, http.StatusCreated, tenantCreated{
		Success:     true,
		Tenant:      res.Tenant,
		RedirectURL: res.RedirectURL,
	})
}

// readTenantRequest accepts application/x-www-form-urlencoded and multipart
// forms as well as JSON.
func (h *Handlers) readTenantRequest(w http.ResponseWriter, r *http.Request) (tenant.CreateRequest, bool) {
	mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mt {
	case "application/x-www-form-urlencoded", "multipart/form-data":
		r.Body = http.MaxBytesReader(w, r.Body, h.bodyLimit())
		var err error
		if mt == "multipart/form-data" {
			err = r.ParseMultipartForm(h.bodyLimit())
		} else {
			err = r.ParseForm()
		}
		if err != nil {
			if isTooLarge(err) {
				writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			} else {
				writeError(w, http.StatusBadRequest, "invalid form body")
			}
			return tenant.CreateRequest{}, false
		}
		return tenant.CreateRequest{Name: r.PostFormValue("name"), Icon: r.PostFormValue("icon")}, true
	default:
		return readJSON[tenant.CreateRequest](w, r, h.bodyLimit())
	}
}

// DeleteTenant handles DELETE /admin/tenants/{name}. A missing tenant and a
// failed deletion are reported with different status codes.
func (h *Handlers) DeleteTenant(w http.ResponseWriter, r *http.Request) {
	name := urlParam(r, "name")
	res, err := h.Provision.DeleteTenant(r.Context(), name)
	if err != nil {
		slog.ErrorContext(r.Context(), "delete tenant failed", "tenant", name, "error", err)
		writeJSON(w, http.StatusInternalServerError, actionFailed{Error: "Failed to delete tenant"})
		return
	}
	if res.Outcome == service.DeleteNotFound {
		writeJSON(w, http.StatusNotFound, actionFailed{Error: "Tenant not found"})
		return
	}
	writeJSON(w, http.StatusOK, tenantDeleted{
		Success:       true,
		Message:       "Tenant deleted successfully",
		DeleteSummary: res.Summary,
	})
}
