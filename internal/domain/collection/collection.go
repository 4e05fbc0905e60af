// Package collection defines named, lazily provisioned groupings of documents within a tenant.
package collection

import (
	"time"

	"github.com/Strob0t/TenantForge/internal/domain"
	"github.com/Strob0t/TenantForge/internal/domain/tenant"
)

// Collection is identified by (TenantName, Name).
type Collection struct {
	ID         int64     `json:"id"`
	TenantName string    `json:"tenant"`
	Name       string    `json:"name"`
	CreatedAt  time.Time `json:"created_at"`
}

// WithCount pairs a collection with its live document count.
type WithCount struct {
	Collection
	DocumentCount int64 `json:"document_count"`
}

// CreateRequest is the body of an explicit collection creation.
type CreateRequest struct {
	Name string `json:"name"`
}

// ValidateName applies the tenant name charset and length rules to a collection name.
func ValidateName(name string) error {
	if !tenant.ValidName(name) {
		return domain.Validationf("collection",
			"Invalid collection name. Must be lowercase alphanumeric with hyphens only (1-%d characters).",
			tenant.MaxNameLength)
	}
	return nil
}
